// Package config loads every tunable this system needs from the process
// environment (§6) — no YAML file, unlike the teacher's viper+file+env
// hybrid, since the specification's configuration surface is a flat
// environment-variable table. viper's AutomaticEnv binding is kept because
// it is the teacher's idiomatic config library; only the source (env-only
// vs. file+env override) changes.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config is every tunable named in SPEC_FULL.md §6.
type Config struct {
	HTTPAddr string `mapstructure:"http_addr"`

	EdgeMinRORPct float64 `mapstructure:"edge_min_ror_pct"`
	TitleSim      float64 `mapstructure:"title_sim"`
	TimeWindowH   float64 `mapstructure:"time_window_h"`
	PMChunk       int     `mapstructure:"pm_chunk"`

	KalshiKeyID          string `mapstructure:"kalshi_key_id"`
	KalshiPrivateKeyPath string `mapstructure:"kalshi_private_key_path"`

	PMWSURL          string `mapstructure:"pm_ws_url"`
	KalshiWSURL      string `mapstructure:"kalshi_ws_url"`
	PMGammaURL       string `mapstructure:"pm_gamma_url"`
	KalshiMarketsURL string `mapstructure:"kalshi_markets_url"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// Load reads Config entirely from environment variables, applying the
// defaults from §6 when a variable is unset.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("http_addr", ":8080")
	v.SetDefault("edge_min_ror_pct", 3.0)
	v.SetDefault("title_sim", 0.60)
	v.SetDefault("time_window_h", 168.0)
	v.SetDefault("pm_chunk", 400)
	v.SetDefault("pm_ws_url", "wss://ws-subscriptions-clob.polymarket.com/ws/market")
	v.SetDefault("kalshi_ws_url", "wss://trading-api.kalshi.com/trade-api/ws/v2")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")

	for _, key := range []string{
		"http_addr", "edge_min_ror_pct", "title_sim", "time_window_h", "pm_chunk",
		"kalshi_key_id", "kalshi_private_key_path",
		"pm_ws_url", "kalshi_ws_url", "pm_gamma_url", "kalshi_markets_url",
		"log_level", "log_format",
	} {
		if err := v.BindEnv(key, envName(key)); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	cfg := &Config{
		HTTPAddr:             v.GetString("http_addr"),
		EdgeMinRORPct:        v.GetFloat64("edge_min_ror_pct"),
		TitleSim:             v.GetFloat64("title_sim"),
		TimeWindowH:          v.GetFloat64("time_window_h"),
		PMChunk:              v.GetInt("pm_chunk"),
		KalshiKeyID:          v.GetString("kalshi_key_id"),
		KalshiPrivateKeyPath: v.GetString("kalshi_private_key_path"),
		PMWSURL:              v.GetString("pm_ws_url"),
		KalshiWSURL:          v.GetString("kalshi_ws_url"),
		PMGammaURL:           v.GetString("pm_gamma_url"),
		KalshiMarketsURL:     v.GetString("kalshi_markets_url"),
		LogLevel:             v.GetString("log_level"),
		LogFormat:            v.GetString("log_format"),
	}

	return cfg, nil
}

// envName maps a mapstructure key to its documented environment variable
// name (§6), e.g. "edge_min_ror_pct" -> "EDGE_MIN_ROR_PCT".
func envName(key string) string {
	names := map[string]string{
		"http_addr":               "HTTP_ADDR",
		"edge_min_ror_pct":        "EDGE_MIN_ROR_PCT",
		"title_sim":               "TITLE_SIM",
		"time_window_h":           "TIME_WINDOW_H",
		"pm_chunk":                "PM_CHUNK",
		"kalshi_key_id":           "KALSHI_KEY_ID",
		"kalshi_private_key_path": "KALSHI_PRIVATE_KEY_PATH",
		"pm_ws_url":               "PM_WS_URL",
		"kalshi_ws_url":           "KALSHI_WS_URL",
		"pm_gamma_url":            "PM_GAMMA_URL",
		"kalshi_markets_url":      "KALSHI_MARKETS_URL",
		"log_level":               "LOG_LEVEL",
		"log_format":              "LOG_FORMAT",
	}
	return names[key]
}

// Validate checks required fields and value ranges.
func (c *Config) Validate() error {
	if c.HTTPAddr == "" {
		return fmt.Errorf("http_addr is required (set HTTP_ADDR)")
	}
	if c.EdgeMinRORPct < 0 {
		return fmt.Errorf("edge_min_ror_pct must be >= 0")
	}
	if c.PMChunk <= 0 {
		return fmt.Errorf("pm_chunk must be > 0")
	}
	if c.TitleSim < 0 || c.TitleSim > 1 {
		return fmt.Errorf("title_sim must be in [0, 1]")
	}
	return nil
}

// VenueBEnabled reports whether enough venue-B credentials are configured
// to attempt a connection. Absence is not an error (§4.3): the caller
// downgrades to the Disabled state instead.
func (c *Config) VenueBEnabled() bool {
	return c.KalshiKeyID != "" && c.KalshiPrivateKeyPath != ""
}
