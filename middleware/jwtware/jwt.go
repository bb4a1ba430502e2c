// Package jwtware provides the per request access guard: bearer token
// extraction, validation, and a composable role gate. It mirrors the small
// claim and validator interfaces from the root package to avoid an import
// cycle.
package jwtware

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

var (
	// ErrJWTMissingOrMalformed is raised before validation when no usable
	// bearer token is present on the request
	ErrJWTMissingOrMalformed = errors.New("missing or malformed JWT")
	// ErrMissingAuthContext is raised by the role gate when the
	// authentication middleware did not run first
	ErrMissingAuthContext = errors.New("missing authentication context")
	// ErrInsufficientRole is raised on an exact role mismatch
	ErrInsufficientRole = errors.New("insufficient role")
)

// TokenValidator interface for validating tokens without import cycles.
// This mirrors the TokenService.Validate method from the root package.
type TokenValidator interface {
	Validate(tokenString string) (AuthClaims, error)
}

// AuthClaims interface for structured claims without import cycles.
// This mirrors the AuthClaims interface from the root package.
type AuthClaims interface {
	Subject() string
	UserID() string
	Email() string
	Role() string
	HasRole(role string) bool
	Expires() time.Time
	IssuedAt() time.Time
}

type Config struct {
	// Filter skips the middleware when it returns true
	Filter func(*fiber.Ctx) bool
	// ErrorHandler translates extraction and validation failures
	ErrorHandler fiber.ErrorHandler
	// TokenValidator is required for token validation
	TokenValidator TokenValidator
	// ContextKey is where validated claims are stored in fiber locals
	ContextKey string
	// AuthScheme is the expected authorization scheme, Bearer by default
	AuthScheme string
	// ContextEnricher is an optional function to propagate claims to the
	// standard Go context. If provided, it will be called after successful
	// token validation.
	ContextEnricher func(c context.Context, claims AuthClaims) context.Context
}

func (cfg Config) withDefaults() Config {
	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = defaultErrorHandler
	}
	if cfg.ContextKey == "" {
		cfg.ContextKey = "user"
	}
	if cfg.AuthScheme == "" {
		cfg.AuthScheme = "Bearer"
	}
	return cfg
}

// New returns the authentication middleware. Extraction and verification
// are pure per request computations; no account lookup happens here and the
// middleware holds no mutable state beyond its configuration.
func New(config ...Config) fiber.Handler {
	var cfg Config
	if len(config) > 0 {
		cfg = config[0]
	}
	cfg = cfg.withDefaults()

	if cfg.TokenValidator == nil {
		panic("jwtware: Config.TokenValidator is required")
	}

	return func(c *fiber.Ctx) error {
		if cfg.Filter != nil && cfg.Filter(c) {
			return c.Next()
		}

		raw, err := TokenFromHeader(c, cfg.AuthScheme)
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		claims, err := cfg.TokenValidator.Validate(raw)
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		c.Locals(cfg.ContextKey, claims)

		if cfg.ContextEnricher != nil {
			c.SetUserContext(cfg.ContextEnricher(c.UserContext(), claims))
		}

		return c.Next()
	}
}

// RequireRole returns the role gate. It must run after New: a request with
// no claims in context fails as unauthenticated, a claims role other than
// the required one fails as forbidden. Exact match only.
func RequireRole(role string, config ...Config) fiber.Handler {
	var cfg Config
	if len(config) > 0 {
		cfg = config[0]
	}
	cfg = cfg.withDefaults()

	return func(c *fiber.Ctx) error {
		claims, ok := c.Locals(cfg.ContextKey).(AuthClaims)
		if !ok || claims == nil {
			return cfg.ErrorHandler(c, ErrMissingAuthContext)
		}

		if !claims.HasRole(role) {
			return cfg.ErrorHandler(c, ErrInsufficientRole)
		}

		return c.Next()
	}
}

// TokenFromHeader extracts the raw token from the bearer scheme
// authorization header.
func TokenFromHeader(c *fiber.Ctx, authScheme string) (string, error) {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return "", ErrJWTMissingOrMalformed
	}

	prefix := authScheme + " "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", ErrJWTMissingOrMalformed
	}

	token := strings.TrimSpace(header[len(prefix):])
	if token == "" {
		return "", ErrJWTMissingOrMalformed
	}

	return token, nil
}

// ClaimsFromContext returns the validated claims attached by New
func ClaimsFromContext(c *fiber.Ctx, key string) (AuthClaims, bool) {
	if key == "" {
		key = "user"
	}
	claims, ok := c.Locals(key).(AuthClaims)
	return claims, ok
}

func defaultErrorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusUnauthorized
	if errors.Is(err, ErrInsufficientRole) {
		status = fiber.StatusForbidden
	}
	return c.Status(status).JSON(fiber.Map{
		"status":  "error",
		"message": err.Error(),
	})
}
