package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/ternarybob/marketpulse/internal/interfaces"
)

// generateWithClaude sends the prompt with the server-side web search tool enabled
func (f *ProviderFactory) generateWithClaude(ctx context.Context, prompt string, model string) (*interfaces.GroundedResponse, error) {
	client, err := f.GetClaudeClient()
	if err != nil {
		return nil, err
	}

	maxTokens := f.claudeConfig.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 8192
	}

	webSearch := &anthropic.WebSearchTool20250305Param{}
	if f.claudeConfig.MaxWebSearches > 0 {
		webSearch.MaxUses = anthropic.Int(int64(f.claudeConfig.MaxWebSearches))
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
		Tools: []anthropic.ToolUnionParam{
			{OfWebSearchTool20250305: webSearch},
		},
	}

	if f.claudeConfig.Temperature > 0 {
		params.Temperature = anthropic.Float(float64(f.claudeConfig.Temperature))
	}

	resp, err := client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("Claude API call failed: %w", err)
	}

	text, citations := claudeGroundedContent(resp)

	f.logger.Debug().
		Str("model", model).
		Int("text_length", len(text)).
		Int("citations", len(citations)).
		Msg("Claude grounded response received")

	return &interfaces.GroundedResponse{
		Text:      text,
		Citations: citations,
		Provider:  string(ProviderClaude),
		Model:     model,
	}, nil
}

// claudeGroundedContent joins the text blocks of a message and collects the web
// search citations attached to them, keeping the first occurrence of each URL
func claudeGroundedContent(resp *anthropic.Message) (string, []interfaces.Citation) {
	if resp == nil {
		return "", nil
	}

	var text strings.Builder
	var citations []interfaces.Citation
	seen := make(map[string]bool)

	for _, block := range resp.Content {
		if block.Type != "text" {
			continue
		}

		textBlock := block.AsText()
		text.WriteString(textBlock.Text)

		for _, citation := range textBlock.Citations {
			if citation.Type != "web_search_result_location" {
				continue
			}
			location := citation.AsWebSearchResultLocation()
			if location.URL != "" && seen[location.URL] {
				continue
			}
			seen[location.URL] = true
			citations = append(citations, interfaces.Citation{
				URI:   location.URL,
				Title: location.Title,
			})
		}
	}

	return strings.TrimSpace(text.String()), citations
}
