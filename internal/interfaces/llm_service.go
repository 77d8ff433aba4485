package interfaces

import (
	"context"
)

// GroundedRequest is a single prompt sent with web grounding enabled
type GroundedRequest struct {
	// Prompt is the full instruction text
	Prompt string

	// Model overrides the configured model when set
	Model string
}

// Citation is a raw web citation returned by a provider. URI may be empty.
type Citation struct {
	URI   string
	Title string
}

// GroundedResponse is the provider-agnostic outcome of a grounded request
type GroundedResponse struct {
	Text      string
	Citations []Citation
	Provider  string
	Model     string
}

// GroundedProvider generates web-grounded content. Implementations make exactly one
// request per call and never retry.
type GroundedProvider interface {
	// GenerateGrounded sends the prompt with the web search tool enabled.
	GenerateGrounded(ctx context.Context, request *GroundedRequest) (*GroundedResponse, error)

	// GetProviderType returns the provider name, e.g. "gemini" or "claude".
	GetProviderType() string

	// Close releases provider clients.
	Close() error
}
