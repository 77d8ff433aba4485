// Package markets provides the embedded market registry and translation catalogs.
// Both tables are loaded once at startup, validated, and injected into consumers.
package markets

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/marketpulse/internal/models"
)

//go:embed *.toml
var fs embed.FS

// ErrInvalidRegistry is returned when the market or catalog tables are inconsistent
var ErrInvalidRegistry = errors.New("invalid market registry")

type marketsFile struct {
	DefaultMarket  string                `toml:"default_market" validate:"required"`
	DefaultCatalog string                `toml:"default_catalog" validate:"required"`
	Markets        []models.MarketConfig `toml:"markets" validate:"required,min=1,dive"`
}

type catalogsFile struct {
	Catalogs []models.TranslationCatalog `toml:"catalogs" validate:"required,min=1,dive"`
}

// Registry resolves market codes to market records and translation catalogs
type Registry struct {
	defaultMarket  string
	defaultCatalog string
	markets        []models.MarketConfig
	byCode         map[string]int
	catalogs       map[string]*models.TranslationCatalog
	logger         arbor.ILogger
}

// Load parses and validates the embedded tables
func Load(logger arbor.ILogger) (*Registry, error) {
	marketData, err := fs.ReadFile("markets.toml")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded markets: %w", err)
	}
	catalogData, err := fs.ReadFile("catalogs.toml")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded catalogs: %w", err)
	}
	return Parse(marketData, catalogData, logger)
}

// Parse builds a registry from TOML market and catalog tables and validates it
func Parse(marketData, catalogData []byte, logger arbor.ILogger) (*Registry, error) {
	var mf marketsFile
	if err := toml.Unmarshal(marketData, &mf); err != nil {
		return nil, fmt.Errorf("failed to parse markets: %w", err)
	}

	var cf catalogsFile
	if err := toml.Unmarshal(catalogData, &cf); err != nil {
		return nil, fmt.Errorf("failed to parse catalogs: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(mf); err != nil {
		return nil, fmt.Errorf("%w: markets: %v", ErrInvalidRegistry, err)
	}
	if err := validate.Struct(cf); err != nil {
		return nil, fmt.Errorf("%w: catalogs: %v", ErrInvalidRegistry, err)
	}

	r := &Registry{
		defaultMarket:  normalizeCode(mf.DefaultMarket),
		defaultCatalog: strings.ToLower(mf.DefaultCatalog),
		markets:        mf.Markets,
		byCode:         make(map[string]int, len(mf.Markets)),
		catalogs:       make(map[string]*models.TranslationCatalog, len(cf.Catalogs)),
		logger:         logger,
	}

	for i, m := range mf.Markets {
		code := normalizeCode(m.Code)
		if _, exists := r.byCode[code]; exists {
			return nil, fmt.Errorf("%w: duplicate market code %s", ErrInvalidRegistry, code)
		}
		r.byCode[code] = i
	}

	for i := range cf.Catalogs {
		catalog := &cf.Catalogs[i]
		if _, exists := r.catalogs[catalog.Code]; exists {
			return nil, fmt.Errorf("%w: duplicate catalog %s", ErrInvalidRegistry, catalog.Code)
		}
		r.catalogs[catalog.Code] = catalog
	}

	if err := r.Validate(); err != nil {
		return nil, err
	}

	return r, nil
}

// Validate checks the cross-table invariants: default entries exist, every market
// references a known catalog, and every catalog lists the default catalog's verticals
// in the same count with no duplicates.
func (r *Registry) Validate() error {
	if _, ok := r.byCode[r.defaultMarket]; !ok {
		return fmt.Errorf("%w: default market %s not found", ErrInvalidRegistry, r.defaultMarket)
	}

	defaultCatalog, ok := r.catalogs[r.defaultCatalog]
	if !ok {
		return fmt.Errorf("%w: default catalog %s not found", ErrInvalidRegistry, r.defaultCatalog)
	}

	for _, m := range r.markets {
		if _, ok := r.catalogs[m.Catalog]; !ok {
			return fmt.Errorf("%w: market %s references unknown catalog %s", ErrInvalidRegistry, m.Code, m.Catalog)
		}
	}

	expected := len(defaultCatalog.Verticals)
	for code, catalog := range r.catalogs {
		if len(catalog.Verticals) != expected {
			return fmt.Errorf("%w: catalog %s lists %d verticals, default catalog %s lists %d",
				ErrInvalidRegistry, code, len(catalog.Verticals), r.defaultCatalog, expected)
		}

		seen := make(map[string]bool, len(catalog.Verticals))
		for _, v := range catalog.Verticals {
			if seen[v] {
				return fmt.Errorf("%w: catalog %s lists vertical %q twice", ErrInvalidRegistry, code, v)
			}
			seen[v] = true
		}
	}

	return nil
}

// ResolveMarket returns the market for code. Lookup ignores case and
// surrounding whitespace, so a registered code always resolves to itself.
// Unknown codes log a warning and resolve to the default market; this never fails.
func (r *Registry) ResolveMarket(code string) models.MarketConfig {
	if i, ok := r.byCode[normalizeCode(code)]; ok {
		return r.markets[i]
	}

	r.logger.Warn().
		Str("code", code).
		Str("fallback", r.defaultMarket).
		Msg("Market configuration not found, falling back to default market")

	return r.markets[r.byCode[r.defaultMarket]]
}

// ResolveTranslations returns the catalog for a market code. English mode always
// returns the default catalog, and codes without a mapping fall back to it.
func (r *Registry) ResolveTranslations(code string, mode models.LanguageMode) *models.TranslationCatalog {
	if mode == models.LanguageModeEnglish {
		return r.DefaultCatalog()
	}

	if i, ok := r.byCode[normalizeCode(code)]; ok {
		if catalog, ok := r.catalogs[r.markets[i].Catalog]; ok {
			return catalog
		}
	}

	return r.DefaultCatalog()
}

// DefaultCatalog returns the default language catalog
func (r *Registry) DefaultCatalog() *models.TranslationCatalog {
	return r.catalogs[r.defaultCatalog]
}

// DefaultMarketCode returns the code used for unknown markets
func (r *Registry) DefaultMarketCode() string {
	return r.defaultMarket
}

// ShowLanguageToggle reports whether switching language changes anything for the
// market, i.e. its native catalog is not already the default catalog
func (r *Registry) ShowLanguageToggle(code string) bool {
	return r.ResolveTranslations(code, models.LanguageModeNative).Code != r.defaultCatalog
}

// Markets returns every market in registry order
func (r *Registry) Markets() []models.MarketConfig {
	markets := make([]models.MarketConfig, len(r.markets))
	copy(markets, r.markets)
	return markets
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
