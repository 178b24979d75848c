package directus

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	envparse "github.com/caarlos0/env/v11"
)

// Config holds connection settings for the learning API.
type Config struct {
	// URL is the Directus base URL from LEARNING_API_URL.
	URL string `env:"LEARNING_API_URL,required"`
	// Token is the static access token from LEARNING_API_TOKEN.
	Token string `env:"LEARNING_API_TOKEN,required"`
	// Timeout bounds each HTTP request, from LEARNING_API_TIMEOUT.
	Timeout time.Duration `env:"LEARNING_API_TIMEOUT" envDefault:"30s"`
}

// ConfigFromEnv parses Config from the given variables via caarlos0/env.
func ConfigFromEnv(vars map[string]string) (Config, error) {
	var cfg Config
	if err := envparse.ParseWithOptions(&cfg, envparse.Options{Environment: vars}); err != nil {
		return Config{}, fmt.Errorf("parse learning API config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the URL is absolute http(s) and the token is set.
func (c Config) Validate() error {
	u, err := url.Parse(strings.TrimSpace(c.URL))
	if err != nil {
		return fmt.Errorf("invalid LEARNING_API_URL %q: %w", c.URL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid LEARNING_API_URL %q, expected an absolute http(s) URL", c.URL)
	}
	if strings.TrimSpace(c.Token) == "" {
		return fmt.Errorf("LEARNING_API_TOKEN is empty")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("LEARNING_API_TIMEOUT must not be negative")
	}
	return nil
}
