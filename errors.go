package userservice

import (
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// Text codes surfaced to API clients alongside HTTP status codes.
const (
	TextCodeMissingToken    = "MISSING_TOKEN"
	TextCodeInvalidToken    = "INVALID_TOKEN"
	TextCodeTokenExpired    = "TOKEN_EXPIRED"
	TextCodeInvalidCreds    = "INVALID_CREDENTIALS"
	TextCodeInactiveAccount = "ACCOUNT_INACTIVE"
	TextCodeDuplicateEmail  = "DUPLICATE_EMAIL"
	TextCodeDuplicateUser   = "DUPLICATE_USERNAME"
	TextCodeNotAuth         = "NOT_AUTHENTICATED"
	TextCodeForbidden       = "FORBIDDEN"
	TextCodeTooManyAttempts = "TOO_MANY_LOGIN_ATTEMPTS"
	TextCodeEmptyPassword   = "EMPTY_PASSWORD"
	TextCodeStoreFailure    = "STORE_UNAVAILABLE"
)

// ErrMissingToken is returned when a protected request carries no bearer token
var ErrMissingToken = goerrors.New("no token provided", goerrors.CategoryAuth).
	WithTextCode(TextCodeMissingToken).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMalformed covers tampered, truncated, or otherwise unparseable tokens
var ErrTokenMalformed = goerrors.New("invalid token", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidToken).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenExpired is returned for tokens past their expiry claim
var ErrTokenExpired = goerrors.New("token expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrMismatchedHashAndPassword is the single error for every "no such
// credential pair" outcome. An unknown email and a wrong password both map
// here so callers cannot enumerate accounts.
var ErrMismatchedHashAndPassword = goerrors.New("invalid email or password", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(goerrors.CodeUnauthorized)

// ErrAccountInactive is returned when the credentials match a deactivated account
var ErrAccountInactive = goerrors.New("account is inactive", goerrors.CategoryAuth).
	WithTextCode(TextCodeInactiveAccount).
	WithCode(goerrors.CodeUnauthorized)

// ErrDuplicateEmail rejects registrations for an email already on file
var ErrDuplicateEmail = goerrors.New("email already in use", goerrors.CategoryConflict).
	WithTextCode(TextCodeDuplicateEmail).
	WithCode(goerrors.CodeBadRequest)

// ErrDuplicateUsername rejects registrations for a username already taken
var ErrDuplicateUsername = goerrors.New("username already taken", goerrors.CategoryConflict).
	WithTextCode(TextCodeDuplicateUser).
	WithCode(goerrors.CodeBadRequest)

// ErrNotAuthenticated signals a role gate reached without an identity in
// context, i.e. the authentication middleware did not run first.
var ErrNotAuthenticated = goerrors.New("not authenticated", goerrors.CategoryAuth).
	WithTextCode(TextCodeNotAuth).
	WithCode(goerrors.CodeUnauthorized)

// ErrForbidden signals an authenticated identity without the required role
var ErrForbidden = goerrors.New("not authorized", goerrors.CategoryAuthz).
	WithTextCode(TextCodeForbidden).
	WithCode(goerrors.CodeForbidden)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = goerrors.New("identity not found", goerrors.CategoryNotFound).
	WithTextCode("IDENTITY_NOT_FOUND").
	WithCode(goerrors.CodeNotFound)

// ErrUserNotFound is returned by user lookups with no matching record
var ErrUserNotFound = goerrors.New("user not found", goerrors.CategoryNotFound).
	WithTextCode("USER_NOT_FOUND").
	WithCode(goerrors.CodeNotFound)

// ErrTooManyLoginAttempts enforces the login attempt cool down window
var ErrTooManyLoginAttempts = goerrors.New("too many login attempts", goerrors.CategoryRateLimit).
	WithTextCode(TextCodeTooManyAttempts)

// ErrNoEmptyString rejects empty passwords before hashing
var ErrNoEmptyString = goerrors.New("password must not be empty", goerrors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword).
	WithCode(goerrors.CodeBadRequest)

// ErrStoreUnavailable wraps failures of the backing store. Never retried
// here; the boundary decides on retry policy.
var ErrStoreUnavailable = goerrors.New("user store unavailable", goerrors.CategoryInternal).
	WithTextCode(TextCodeStoreFailure).
	WithCode(goerrors.CodeInternal)

// ErrUnknownRole flags a role outside the predefined set
func ErrUnknownRole(role string) *goerrors.Error {
	return goerrors.New("unknown or invalid role", goerrors.CategoryValidation).
		WithTextCode("INVALID_ROLE").
		WithCode(goerrors.CodeBadRequest).
		WithMetadata(map[string]any{"role": role})
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if goerrors.Is(err, ErrTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	if goerrors.Is(err, ErrTokenMalformed) {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
