package common

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/banner"
)

// PrintBanner displays the application banner and logs the startup diagnostics
func PrintBanner(config *Config, apiKey string, logger arbor.ILogger) {
	banner.PrintSimple("Marketpulse", GetVersion())

	logger.Info().
		Str("version", GetFullVersion()).
		Str("environment", config.Environment).
		Str("market", config.Market.Code).
		Str("provider", string(config.LLM.DefaultProvider)).
		Str("model", config.ProviderModel()).
		Str("api_key", MaskSecret(apiKey)).
		Msg("Marketpulse configuration")
}
