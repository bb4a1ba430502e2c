package userservice

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestIsValidRole(t *testing.T) {
	assert.True(t, IsValidRole(RoleUser))
	assert.True(t, IsValidRole(RoleAdmin))
	assert.False(t, IsValidRole("superuser"))
	assert.False(t, IsValidRole(""))
	assert.False(t, IsValidRole("Admin"))
}

func TestUserApply(t *testing.T) {
	first := "Ada"
	last := "Lovelace"

	t.Run("applies set fields", func(t *testing.T) {
		u := &User{FirstName: "Old", LastName: "Name"}
		u.apply(ProfileUpdate{
			FirstName: &first,
			LastName:  &last,
			Skills:    []string{"go"},
		})

		assert.Equal(t, "Ada", u.FirstName)
		assert.Equal(t, "Lovelace", u.LastName)
		assert.Equal(t, []string{"go"}, u.Skills)
	})

	t.Run("nil fields leave the record untouched", func(t *testing.T) {
		u := &User{FirstName: "Keep", Skills: []string{"sql"}}
		u.apply(ProfileUpdate{})

		assert.Equal(t, "Keep", u.FirstName)
		assert.Equal(t, []string{"sql"}, u.Skills)
	})

	t.Run("cannot touch privileged fields", func(t *testing.T) {
		u := &User{Role: RoleUser, IsActive: true, Email: "keep@example.com"}
		u.apply(ProfileUpdate{FirstName: &first})

		assert.Equal(t, RoleUser, u.Role)
		assert.True(t, u.IsActive)
		assert.Equal(t, "keep@example.com", u.Email)
	})
}

func TestPrepareUserDefaults(t *testing.T) {
	t.Run("assigns id and role", func(t *testing.T) {
		u := &User{}
		prepareUserDefaults(u)

		assert.NotEqual(t, uuid.Nil, u.ID)
		assert.Equal(t, RoleUser, u.Role)
	})

	t.Run("keeps existing values", func(t *testing.T) {
		id := uuid.New()
		u := &User{ID: id, Role: RoleAdmin}
		prepareUserDefaults(u)

		assert.Equal(t, id, u.ID)
		assert.Equal(t, RoleAdmin, u.Role)
	})

	t.Run("tolerates nil", func(t *testing.T) {
		prepareUserDefaults(nil)
	})
}

func TestResolveUserIdentifier(t *testing.T) {
	t.Run("email", func(t *testing.T) {
		opts := resolveUserIdentifier("who@example.com")
		assert.Len(t, opts, 1)
		assert.Equal(t, "email", opts[0].column)
	})

	t.Run("uuid", func(t *testing.T) {
		opts := resolveUserIdentifier(uuid.NewString())
		assert.Len(t, opts, 1)
		assert.Equal(t, "id", opts[0].column)
	})

	t.Run("username", func(t *testing.T) {
		opts := resolveUserIdentifier("plainname")
		assert.Len(t, opts, 1)
		assert.Equal(t, "username", opts[0].column)
	})

	t.Run("empty", func(t *testing.T) {
		assert.Empty(t, resolveUserIdentifier("  "))
	})
}

func TestGetUsername(t *testing.T) {
	assert.Equal(t, "explicit", getUsername("explicit", "who@example.com"))
	assert.Equal(t, "who", getUsername("", "who@example.com"))
	assert.Equal(t, "", getUsername("", "no-at-sign"))
}

func TestIsUniqueViolation(t *testing.T) {
	emailErr := errors.New("UNIQUE constraint failed: users.email")
	usernameErr := errors.New("UNIQUE constraint failed: users.username")

	assert.True(t, IsUniqueViolation(emailErr, "email"))
	assert.False(t, IsUniqueViolation(emailErr, "username"))
	assert.True(t, IsUniqueViolation(usernameErr, "username"))
	assert.False(t, IsUniqueViolation(errors.New("no such table"), "email"))
	assert.False(t, IsUniqueViolation(nil, "email"))
}

func TestUpMigration(t *testing.T) {
	t.Run("extracts the up section", func(t *testing.T) {
		content := "-- +migrate Up\nCREATE TABLE t (id TEXT);\n-- +migrate Down\nDROP TABLE t;\n"
		up := upMigration(content)

		assert.Contains(t, up, "CREATE TABLE t")
		assert.NotContains(t, up, "DROP TABLE t")
	})

	t.Run("unmarked files run whole", func(t *testing.T) {
		content := "CREATE TABLE t (id TEXT);"
		assert.Equal(t, content, upMigration(content))
	})

	t.Run("missing down marker keeps the rest", func(t *testing.T) {
		content := "-- +migrate Up\nCREATE TABLE t (id TEXT);\n"
		assert.Contains(t, upMigration(content), "CREATE TABLE t")
	})
}
