package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config carries runtime settings for the CLI and HTTP server. Conversion
// semantics live in the StyleMap, not here.
type Config struct {
	Port string

	// Auth for the HTTP front end.
	WordpubAPIKey string

	// Upload limits
	MaxUploadBytes int64

	// Optional style map override (YAML); empty means compiled-in defaults.
	StyleMapPath string
}

func Load() Config {
	cfg := Config{
		Port:           envOr("PORT", "8091"),
		WordpubAPIKey:  os.Getenv("WORDPUB_API_KEY"),
		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB
		StyleMapPath:   os.Getenv("WORDPUB_STYLE_MAP"),
	}

	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}

	return cfg
}

// Validate checks settings the server cannot run without. The CLI convert
// path does not need any of them.
func (c Config) Validate() error {
	if c.WordpubAPIKey == "" {
		return fmt.Errorf("WORDPUB_API_KEY is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}
