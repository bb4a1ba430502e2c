package userservice

import (
	"context"

	"github.com/jagajithmk/CodeCraftHub/middleware/jwtware"
)

// ContextEnricherAdapter adapts jwtware.AuthClaims to userservice.AuthClaims and
// stores them in the standard context for downstream use.
func ContextEnricherAdapter(c context.Context, claims jwtware.AuthClaims) context.Context {
	authClaims, ok := claims.(AuthClaims)
	if !ok {
		return c
	}
	return WithClaimsContext(c, authClaims)
}

// TokenValidatorAdapter exposes a TokenService through the narrower validator
// interface the access middleware consumes.
func TokenValidatorAdapter(ts TokenService) jwtware.TokenValidator {
	return tokenValidatorAdapter{ts: ts}
}

type tokenValidatorAdapter struct {
	ts TokenService
}

func (a tokenValidatorAdapter) Validate(token string) (jwtware.AuthClaims, error) {
	claims, err := a.ts.Validate(token)
	if err != nil {
		return nil, err
	}
	return claims, nil
}
