package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/ternarybob/marketpulse/internal/interfaces"
)

// generateWithGemini sends the prompt with the Google Search tool enabled
func (f *ProviderFactory) generateWithGemini(ctx context.Context, prompt string, model string) (*interfaces.GroundedResponse, error) {
	client, err := f.GetGeminiClient(ctx)
	if err != nil {
		return nil, err
	}

	config := &genai.GenerateContentConfig{
		Tools: []*genai.Tool{
			{GoogleSearch: &genai.GoogleSearch{}},
		},
	}

	if f.geminiConfig.Temperature > 0 {
		config.Temperature = genai.Ptr(f.geminiConfig.Temperature)
	}

	if level := parseGeminiThinkingLevel(f.geminiConfig.Thinking); level != "" {
		config.ThinkingConfig = &genai.ThinkingConfig{
			ThinkingLevel: level,
		}
	}

	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}

	resp, err := client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("Gemini API call failed: %w", err)
	}

	text, citations := geminiGroundedContent(resp)

	f.logger.Debug().
		Str("model", model).
		Int("text_length", len(text)).
		Int("citations", len(citations)).
		Msg("Gemini grounded response received")

	return &interfaces.GroundedResponse{
		Text:      text,
		Citations: citations,
		Provider:  string(ProviderGemini),
		Model:     model,
	}, nil
}

// geminiGroundedContent extracts the response text and the web grounding chunks of
// the first candidate. Chunks are returned as-is, including ones without a URI.
func geminiGroundedContent(resp *genai.GenerateContentResponse) (string, []interfaces.Citation) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", nil
	}

	text := strings.TrimSpace(resp.Text())

	var citations []interfaces.Citation
	if gm := resp.Candidates[0].GroundingMetadata; gm != nil {
		for _, chunk := range gm.GroundingChunks {
			if chunk == nil || chunk.Web == nil {
				continue
			}
			citations = append(citations, interfaces.Citation{
				URI:   chunk.Web.URI,
				Title: chunk.Web.Title,
			})
		}
	}

	return text, citations
}

// parseGeminiThinkingLevel converts a string thinking level to genai.ThinkingLevel
func parseGeminiThinkingLevel(level string) genai.ThinkingLevel {
	switch strings.ToUpper(level) {
	case "MINIMAL":
		return genai.ThinkingLevelMinimal
	case "LOW":
		return genai.ThinkingLevelLow
	case "MEDIUM":
		return genai.ThinkingLevelMedium
	case "HIGH":
		return genai.ThinkingLevelHigh
	default:
		return ""
	}
}
