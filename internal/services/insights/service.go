// Package insights fetches market-insight reports from the configured AI provider.
package insights

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/marketpulse/internal/common"
	"github.com/ternarybob/marketpulse/internal/interfaces"
	"github.com/ternarybob/marketpulse/internal/markets"
	"github.com/ternarybob/marketpulse/internal/models"
	"github.com/ternarybob/marketpulse/internal/services/prompt"
	"github.com/ternarybob/marketpulse/internal/services/report"
)

// Service implements interfaces.InsightFetcher
type Service struct {
	provider   interfaces.GroundedProvider
	registry   *markets.Registry
	marketCode string
	apiKey     string
	model      string
	rules      []ErrorRule
	now        func() time.Time
	logger     arbor.ILogger
}

var _ interfaces.InsightFetcher = (*Service)(nil)

// Option configures a Service
type Option func(*Service)

// WithErrorRules replaces the error classification table
func WithErrorRules(rules []ErrorRule) Option {
	return func(s *Service) {
		s.rules = rules
	}
}

// WithClock replaces the time source used for quarter context and timestamps
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithModel overrides the provider's configured model
func WithModel(model string) Option {
	return func(s *Service) {
		s.model = model
	}
}

// NewService creates an insight fetcher for one market. apiKey is the resolved
// credential of the provider; when empty every fetch fails without calling the provider.
func NewService(provider interfaces.GroundedProvider, registry *markets.Registry, marketCode string, apiKey string, logger arbor.ILogger, opts ...Option) *Service {
	s := &Service{
		provider:   provider,
		registry:   registry,
		marketCode: marketCode,
		apiKey:     strings.TrimSpace(apiKey),
		rules:      DefaultErrorRules,
		now:        time.Now,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FetchInsights requests a fresh report for vertical in the given language mode.
// It makes at most one provider call and never touches the result cache.
func (s *Service) FetchInsights(ctx context.Context, vertical string, mode models.LanguageMode) (*models.InsightResult, error) {
	if s.apiKey == "" {
		s.logger.Error().
			Str("vertical", vertical).
			Msg("Insight fetch rejected: provider API key is not configured")
		return nil, &InsightError{Vertical: vertical, Cause: CauseMissingCredential, Err: ErrMissingCredential}
	}

	market := s.registry.ResolveMarket(s.marketCode)
	catalog := s.registry.ResolveTranslations(market.Code, mode)
	quarter := common.CurrentQuarterInfo(s.now())
	instruction := prompt.BuildPrompt(vertical, market, mode, quarter, catalog)

	s.logger.Info().
		Str("market", market.Code).
		Str("vertical", vertical).
		Str("mode", mode.String()).
		Str("provider", s.provider.GetProviderType()).
		Msg("Fetching market insights")

	started := s.now()
	resp, err := s.provider.GenerateGrounded(ctx, &interfaces.GroundedRequest{
		Prompt: instruction,
		Model:  s.model,
	})
	if err != nil {
		cause := Classify(err, s.rules)
		s.logger.Error().
			Err(err).
			Str("vertical", vertical).
			Str("mode", mode.String()).
			Str("cause", string(cause)).
			Msg("Failed to fetch market insights")
		return nil, &InsightError{Vertical: vertical, Cause: cause, Err: err}
	}

	result := &models.InsightResult{
		ID:        "ins_" + uuid.New().String(),
		Vertical:  vertical,
		Mode:      mode,
		Text:      strings.TrimSpace(resp.Text),
		Sources:   NormalizeSources(resp.Citations),
		FetchedAt: s.now(),
		Provider:  resp.Provider,
		Model:     resp.Model,
	}
	if result.Text == "" {
		result.Text = models.FallbackReportText
	}

	schema := prompt.Schema(catalog, quarter)
	result.MissingSections = report.MissingSections(report.FormatReport(result.Text), schema)
	if len(result.MissingSections) > 0 {
		s.logger.Warn().
			Str("vertical", vertical).
			Strs("missing", result.MissingSections).
			Msg("Provider response does not follow the report structure")
	}

	s.logger.Info().
		Str("vertical", vertical).
		Str("mode", mode.String()).
		Int("text_length", len(result.Text)).
		Int("sources", len(result.Sources)).
		Dur("duration", s.now().Sub(started)).
		Msg("Market insights fetched")

	return result, nil
}

// NormalizeSources drops citations without a URI and defaults missing titles to the URI
func NormalizeSources(citations []interfaces.Citation) []models.Source {
	sources := make([]models.Source, 0, len(citations))
	for _, c := range citations {
		uri := strings.TrimSpace(c.URI)
		if uri == "" {
			continue
		}
		title := strings.TrimSpace(c.Title)
		if title == "" {
			title = uri
		}
		sources = append(sources, models.Source{URI: uri, Title: title})
	}
	return sources
}
