package insights

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/marketpulse/internal/interfaces"
	"github.com/ternarybob/marketpulse/internal/markets"
	"github.com/ternarybob/marketpulse/internal/models"
)

// fakeProvider records calls and returns a canned response or error
type fakeProvider struct {
	calls      int32
	lastPrompt string
	response   *interfaces.GroundedResponse
	err        error
}

func (p *fakeProvider) GenerateGrounded(ctx context.Context, request *interfaces.GroundedRequest) (*interfaces.GroundedResponse, error) {
	atomic.AddInt32(&p.calls, 1)
	p.lastPrompt = request.Prompt
	if p.err != nil {
		return nil, p.err
	}
	return p.response, nil
}

func (p *fakeProvider) GetProviderType() string { return "fake" }
func (p *fakeProvider) Close() error            { return nil }

var fixedNow = time.Date(2026, time.October, 17, 9, 30, 0, 0, time.UTC)

func newTestService(t *testing.T, provider interfaces.GroundedProvider, marketCode, apiKey string, opts ...Option) *Service {
	t.Helper()
	logger := arbor.NewLogger()
	registry, err := markets.Load(logger)
	require.NoError(t, err)

	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewService(provider, registry, marketCode, apiKey, logger, opts...)
}

func TestFetchInsightsMissingCredential(t *testing.T) {
	provider := &fakeProvider{}
	service := newTestService(t, provider, "UK", "   ")

	result, err := service.FetchInsights(context.Background(), "Electronics", models.LanguageModeNative)

	assert.Nil(t, result)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingCredential)
	assert.Equal(t, CauseMissingCredential, CauseOf(err))
	assert.Contains(t, err.Error(), "Electronics")
	assert.Equal(t, int32(0), atomic.LoadInt32(&provider.calls))
}

func TestFetchInsightsNormalizesResponse(t *testing.T) {
	provider := &fakeProvider{
		response: &interfaces.GroundedResponse{
			Text: "## Executive Summary\nGood times.",
			Citations: []interfaces.Citation{
				{URI: "https://a.example", Title: "A"},
				{URI: "", Title: "dropped"},
				{URI: "https://b.example", Title: ""},
			},
			Provider: "fake",
			Model:    "fake-model",
		},
	}
	service := newTestService(t, provider, "UK", "key")

	result, err := service.FetchInsights(context.Background(), "Electronics", models.LanguageModeNative)
	require.NoError(t, err)

	assert.Equal(t, int32(1), provider.calls)
	assert.Equal(t, "Electronics", result.Vertical)
	assert.Equal(t, models.LanguageModeNative, result.Mode)
	assert.Equal(t, "## Executive Summary\nGood times.", result.Text)
	assert.Equal(t, fixedNow, result.FetchedAt)
	assert.Equal(t, "fake-model", result.Model)
	assert.Equal(t, []models.Source{
		{URI: "https://a.example", Title: "A"},
		{URI: "https://b.example", Title: "https://b.example"},
	}, result.Sources)
	assert.NotEmpty(t, result.ID)
	assert.NotContains(t, result.MissingSections, "Executive Summary")
	assert.Contains(t, result.MissingSections, "Key Buyer Influencers")
}

func TestFetchInsightsEmptyTextFallsBack(t *testing.T) {
	provider := &fakeProvider{response: &interfaces.GroundedResponse{Text: "  \n"}}
	service := newTestService(t, provider, "UK", "key")

	result, err := service.FetchInsights(context.Background(), "Media", models.LanguageModeNative)
	require.NoError(t, err)

	assert.Equal(t, models.FallbackReportText, result.Text)
	assert.Empty(t, result.Sources)
}

func TestFetchInsightsPromptUsesMarketAndMode(t *testing.T) {
	provider := &fakeProvider{response: &interfaces.GroundedResponse{Text: "ok"}}
	service := newTestService(t, provider, "DE", "key")

	_, err := service.FetchInsights(context.Background(), "Elektronik", models.LanguageModeNative)
	require.NoError(t, err)
	assert.Contains(t, provider.lastPrompt, "for the Germany market")
	assert.Contains(t, provider.lastPrompt, "written in German")
	assert.Contains(t, provider.lastPrompt, "## Management Summary")
	assert.Contains(t, provider.lastPrompt, "### Aktuelles Quartal (Q4 2026)")
	assert.Contains(t, provider.lastPrompt, "### Ausblick auf Q1 2027")

	_, err = service.FetchInsights(context.Background(), "Electronics", models.LanguageModeEnglish)
	require.NoError(t, err)
	assert.Contains(t, provider.lastPrompt, "written in English")
	assert.Contains(t, provider.lastPrompt, "## Executive Summary")
}

func TestFetchInsightsClassifiesProviderErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCause
	}{
		{"service disabled", errors.New("Error 403, Message: Generative Language API has not been used in project 123 before or it is disabled, Status: PERMISSION_DENIED, Details: SERVICE_DISABLED"), CauseProviderDisabled},
		{"invalid key", errors.New("Error 400, Message: API key not valid. Please pass a valid API key., Status: INVALID_ARGUMENT"), CauseInvalidCredential},
		{"permission", errors.New("Error 403, Message: The caller does not have permission, Status: PERMISSION_DENIED"), CausePermissionDenied},
		{"anthropic auth", errors.New(`401 Unauthorized {"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`), CauseInvalidCredential},
		{"dns", errors.New("Post \"https://generativelanguage.googleapis.com\": dial tcp: lookup generativelanguage.googleapis.com: no such host"), CauseNetwork},
		{"deadline", fmt.Errorf("Gemini API call failed: %w", context.DeadlineExceeded), CauseNetwork},
		{"unknown", errors.New("Error 500, Message: internal error, Status: INTERNAL"), CauseUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &fakeProvider{err: tt.err}
			service := newTestService(t, provider, "UK", "key")

			result, err := service.FetchInsights(context.Background(), "Fashion", models.LanguageModeNative)

			assert.Nil(t, result)
			require.Error(t, err)
			assert.Equal(t, tt.want, CauseOf(err))
			assert.ErrorIs(t, err, tt.err)
			assert.Contains(t, err.Error(), "Failed to retrieve insights for Fashion")
			assert.Equal(t, int32(1), provider.calls)
		})
	}
}

func TestFetchInsightsCustomRules(t *testing.T) {
	provider := &fakeProvider{err: errors.New("quota exceeded for tenant")}
	rules := []ErrorRule{{Substring: "QUOTA", Cause: CausePermissionDenied}}
	service := newTestService(t, provider, "UK", "key", WithErrorRules(rules))

	_, err := service.FetchInsights(context.Background(), "Media", models.LanguageModeNative)
	assert.Equal(t, CausePermissionDenied, CauseOf(err))
}

func TestClassifyFirstRuleWins(t *testing.T) {
	rules := []ErrorRule{
		{Substring: "denied", Cause: CausePermissionDenied},
		{Substring: "permission denied", Cause: CauseProviderDisabled},
	}
	assert.Equal(t, CausePermissionDenied, Classify(errors.New("permission denied"), rules))
	assert.Equal(t, CauseUnknown, Classify(errors.New("boom"), rules))
	assert.Equal(t, CauseUnknown, Classify(nil, rules))
	assert.Equal(t, CauseMissingCredential, Classify(fmt.Errorf("wrap: %w", ErrMissingCredential), nil))
}

func TestNormalizeSources(t *testing.T) {
	got := NormalizeSources([]interfaces.Citation{
		{URI: " https://a.example ", Title: " A "},
		{URI: "   "},
		{URI: "https://c.example"},
	})

	assert.Equal(t, []models.Source{
		{URI: "https://a.example", Title: "A"},
		{URI: "https://c.example", Title: "https://c.example"},
	}, got)

	assert.Empty(t, NormalizeSources(nil))
}
