package userservice

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/goliatone/go-errors"
)

// DevSigningKey is the development-only fallback secret. Anything reaching
// production must override it through JWT_SECRET.
const DevSigningKey = "your-secret-key"

// AppConfig is the process wide configuration, loaded once at startup and
// injected into constructors. Nothing on the verification path reads
// configuration from ambient globals.
type AppConfig struct {
	ServerAddr      string        `env:"SERVER_ADDR" envDefault:":3000"`
	DatabaseDSN     string        `env:"DATABASE_DSN" envDefault:"file:codecrafthub.db?cache=shared"`
	SigningKey      string        `env:"JWT_SECRET"`
	SigningMethod   string        `env:"JWT_SIGNING_METHOD" envDefault:"HS256"`
	TokenExpiration time.Duration `env:"JWT_EXPIRES_IN" envDefault:"24h"`
	Issuer          string        `env:"JWT_ISSUER" envDefault:"codecrafthub"`
	Audience        []string      `env:"JWT_AUDIENCE" envSeparator:","`
	ContextKey      string        `env:"AUTH_CONTEXT_KEY" envDefault:"user"`
	AuthScheme      string        `env:"AUTH_SCHEME" envDefault:"Bearer"`
	Debug           bool          `env:"DEBUG"`
}

// LoadConfig parses the environment into an AppConfig
func LoadConfig() (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(err, errors.CategoryBadInput, "failed to parse environment configuration")
	}

	if cfg.SigningKey == "" {
		cfg.SigningKey = DevSigningKey
	}

	return cfg, nil
}

func (c *AppConfig) GetSigningKey() string {
	return c.SigningKey
}

func (c *AppConfig) GetSigningMethod() string {
	return c.SigningMethod
}

func (c *AppConfig) GetContextKey() string {
	return c.ContextKey
}

func (c *AppConfig) GetTokenExpiration() time.Duration {
	return c.TokenExpiration
}

func (c *AppConfig) GetAuthScheme() string {
	return c.AuthScheme
}

func (c *AppConfig) GetIssuer() string {
	return c.Issuer
}

func (c *AppConfig) GetAudience() []string {
	return c.Audience
}

var _ Config = (*AppConfig)(nil)
