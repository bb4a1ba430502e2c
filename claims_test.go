package userservice_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	userservice "github.com/jagajithmk/CodeCraftHub"
	"github.com/stretchr/testify/assert"
)

func TestJWTClaims(t *testing.T) {
	now := time.Now()
	claims := &userservice.JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-abc",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		UID:       "user-abc",
		UserEmail: "abc@example.com",
		UserRole:  "admin",
	}

	t.Run("exposes claim accessors", func(t *testing.T) {
		assert.Equal(t, "user-abc", claims.Subject())
		assert.Equal(t, "user-abc", claims.UserID())
		assert.Equal(t, "abc@example.com", claims.Email())
		assert.Equal(t, "admin", claims.Role())
		assert.WithinDuration(t, now, claims.IssuedAt(), time.Second)
		assert.WithinDuration(t, now.Add(time.Hour), claims.Expires(), time.Second)
	})

	t.Run("falls back to subject when uid is empty", func(t *testing.T) {
		c := &userservice.JWTClaims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "subject-only"},
		}
		assert.Equal(t, "subject-only", c.UserID())
	})

	t.Run("role checks are exact matches", func(t *testing.T) {
		assert.True(t, claims.HasRole("admin"))
		assert.False(t, claims.HasRole("user"))
		assert.False(t, claims.HasRole("Admin"))
		assert.False(t, claims.HasRole(""))
	})

	t.Run("zero times for missing timestamps", func(t *testing.T) {
		c := &userservice.JWTClaims{}
		assert.True(t, c.Expires().IsZero())
		assert.True(t, c.IssuedAt().IsZero())
	})
}
