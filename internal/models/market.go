package models

// MarketConfig describes one regional marketplace the dashboard can target
type MarketConfig struct {
	Code          string `toml:"code" json:"code" validate:"required,uppercase,max=8"` // UK, DE, BE-FR ...
	DisplayName   string `toml:"name" json:"name" validate:"required"`                 // Human-readable market name
	PlatformLabel string `toml:"platform" json:"platform" validate:"required"`         // Platform label used in the prompt
	Language      string `toml:"language" json:"language" validate:"required"`         // Output language name for native mode
	Catalog       string `toml:"catalog" json:"catalog" validate:"required,lowercase"` // Translation catalog code
}

// LanguageMode selects between the market's native language and the forced default language
type LanguageMode string

const (
	LanguageModeNative  LanguageMode = "native"
	LanguageModeEnglish LanguageMode = "english"
)

// IsValid checks if the LanguageMode is a known mode
func (m LanguageMode) IsValid() bool {
	return m == LanguageModeNative || m == LanguageModeEnglish
}

// Toggle returns the opposite mode
func (m LanguageMode) Toggle() LanguageMode {
	if m == LanguageModeEnglish {
		return LanguageModeNative
	}
	return LanguageModeEnglish
}

// CacheTag returns the suffix used in composite cache keys
func (m LanguageMode) CacheTag() string {
	if m == LanguageModeEnglish {
		return "EN"
	}
	return "NATIVE"
}

// String returns the string representation of the LanguageMode
func (m LanguageMode) String() string {
	return string(m)
}
