package userservice_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/google/uuid"
	userservice "github.com/jagajithmk/CodeCraftHub"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func setupTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	require.NoError(t, userservice.RunMigrations(context.Background(), sqldb))

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() {
		_ = bunDB.Close()
		_ = sqldb.Close()
	})

	return bunDB
}

func seedUser(t *testing.T, repo userservice.Users, email, username string) *userservice.User {
	t.Helper()

	hash, err := userservice.HashPassword("password123")
	require.NoError(t, err)

	user, err := repo.Register(context.Background(), &userservice.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         userservice.RoleUser,
		IsActive:     true,
	})
	require.NoError(t, err)
	return user
}

func TestUsersRepository_Register(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := userservice.NewUsersRepository(db)

	t.Run("persists a user with generated id", func(t *testing.T) {
		user := seedUser(t, repo, "new@example.com", "newname")

		assert.NotEqual(t, uuid.Nil, user.ID)

		found, err := repo.GetByIdentifier(ctx, "new@example.com")
		require.NoError(t, err)
		assert.Equal(t, user.ID, found.ID)
		assert.Equal(t, "newname", found.Username)
	})

	t.Run("unique email constraint reports the column", func(t *testing.T) {
		seedUser(t, repo, "unique@example.com", "first")

		hash, err := userservice.HashPassword("password123")
		require.NoError(t, err)

		_, err = repo.Register(ctx, &userservice.User{
			Username:     "second",
			Email:        "unique@example.com",
			PasswordHash: hash,
		})

		require.Error(t, err)
		assert.True(t, userservice.IsUniqueViolation(err, "email"))
		assert.False(t, userservice.IsUniqueViolation(err, "username"))
	})

	t.Run("unique username constraint reports the column", func(t *testing.T) {
		seedUser(t, repo, "name1@example.com", "sharedname")

		hash, err := userservice.HashPassword("password123")
		require.NoError(t, err)

		_, err = repo.Register(ctx, &userservice.User{
			Username:     "sharedname",
			Email:        "name2@example.com",
			PasswordHash: hash,
		})

		require.Error(t, err)
		assert.True(t, userservice.IsUniqueViolation(err, "username"))
	})
}

func TestUsersRepository_Lookups(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := userservice.NewUsersRepository(db)

	user := seedUser(t, repo, "lookup@example.com", "lookupname")

	t.Run("finds by email", func(t *testing.T) {
		found, err := repo.GetByIdentifier(ctx, "lookup@example.com")
		require.NoError(t, err)
		assert.Equal(t, user.ID, found.ID)
	})

	t.Run("finds by username", func(t *testing.T) {
		found, err := repo.GetByIdentifier(ctx, "lookupname")
		require.NoError(t, err)
		assert.Equal(t, user.ID, found.ID)
	})

	t.Run("finds by id", func(t *testing.T) {
		found, err := repo.GetByIdentifier(ctx, user.ID.String())
		require.NoError(t, err)
		assert.Equal(t, user.Email, found.Email)
	})

	t.Run("unknown identifier is a not found error", func(t *testing.T) {
		_, err := repo.GetByIdentifier(ctx, "ghost@example.com")
		assert.Error(t, err)
	})

	t.Run("email or username lookup prefers email", func(t *testing.T) {
		other := seedUser(t, repo, "other@example.com", "othername")

		found, err := repo.FindByEmailOrUsername(ctx, "lookup@example.com", "othername")
		require.NoError(t, err)
		assert.Equal(t, user.ID, found.ID)

		found, err = repo.FindByEmailOrUsername(ctx, "missing@example.com", "othername")
		require.NoError(t, err)
		assert.Equal(t, other.ID, found.ID)
	})

	t.Run("absence is not an error", func(t *testing.T) {
		found, err := repo.FindByEmailOrUsername(ctx, "none@example.com", "noname")
		require.NoError(t, err)
		assert.Nil(t, found)
	})
}

func TestUsersRepository_ListPage(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := userservice.NewUsersRepository(db)

	for i := 0; i < 3; i++ {
		seedUser(t, repo, fmt.Sprintf("user%d@example.com", i), fmt.Sprintf("user%d", i))
	}

	t.Run("paginates", func(t *testing.T) {
		records, total, err := repo.ListPage(ctx, 1, 2)
		require.NoError(t, err)
		assert.Len(t, records, 2)
		assert.Equal(t, 3, total)

		records, total, err = repo.ListPage(ctx, 2, 2)
		require.NoError(t, err)
		assert.Len(t, records, 1)
		assert.Equal(t, 3, total)
	})

	t.Run("normalizes bad paging values", func(t *testing.T) {
		records, _, err := repo.ListPage(ctx, 0, -5)
		require.NoError(t, err)
		assert.Len(t, records, 3)
	})
}

func TestUsersRepository_Updates(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := userservice.NewUsersRepository(db)

	t.Run("profile update changes only allow listed fields", func(t *testing.T) {
		user := seedUser(t, repo, "prof@example.com", "profname")
		first := "Ada"

		updated, err := repo.UpdateProfile(ctx, user.ID, userservice.ProfileUpdate{
			FirstName: &first,
		})

		require.NoError(t, err)
		assert.Equal(t, "Ada", updated.FirstName)
		assert.Equal(t, "prof@example.com", updated.Email)
		assert.Equal(t, userservice.RoleUser, updated.Role)
	})

	t.Run("profile update for a missing user", func(t *testing.T) {
		_, err := repo.UpdateProfile(ctx, uuid.New(), userservice.ProfileUpdate{})
		assert.ErrorIs(t, err, userservice.ErrUserNotFound)
	})

	t.Run("admin update can promote and deactivate", func(t *testing.T) {
		user := seedUser(t, repo, "promo@example.com", "promoname")
		role := userservice.RoleAdmin
		active := false

		updated, err := repo.AdminUpdate(ctx, user.ID, userservice.AdminUserUpdate{
			Role:     &role,
			IsActive: &active,
		})

		require.NoError(t, err)
		assert.Equal(t, userservice.RoleAdmin, updated.Role)
		assert.False(t, updated.IsActive)
	})

	t.Run("admin update rejects unknown roles", func(t *testing.T) {
		user := seedUser(t, repo, "badrole@example.com", "badrolename")
		role := "overlord"

		_, err := repo.AdminUpdate(ctx, user.ID, userservice.AdminUserUpdate{Role: &role})

		assert.Error(t, err)
	})

	t.Run("deactivate flips the flag and keeps the row", func(t *testing.T) {
		user := seedUser(t, repo, "soft@example.com", "softname")

		require.NoError(t, repo.Deactivate(ctx, user.ID))

		found, err := repo.GetByIdentifier(ctx, "soft@example.com")
		require.NoError(t, err)
		assert.False(t, found.IsActive)
	})

	t.Run("deactivate missing user", func(t *testing.T) {
		err := repo.Deactivate(ctx, uuid.New())
		assert.ErrorIs(t, err, userservice.ErrUserNotFound)
	})
}

func TestUsersRepository_LoginTracking(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := userservice.NewUsersRepository(db)

	user := seedUser(t, repo, "track@example.com", "trackname")

	require.NoError(t, repo.TrackAttemptedLogin(ctx, user))
	require.NoError(t, repo.TrackAttemptedLogin(ctx, user))

	found, err := repo.GetByIdentifier(ctx, "track@example.com")
	require.NoError(t, err)
	assert.Equal(t, 2, found.LoginAttempts)
	assert.NotNil(t, found.LoginAttemptAt)

	require.NoError(t, repo.TrackSuccessfulLogin(ctx, user))

	found, err = repo.GetByIdentifier(ctx, "track@example.com")
	require.NoError(t, err)
	assert.Equal(t, 0, found.LoginAttempts)
	assert.Nil(t, found.LoginAttemptAt)
	assert.NotNil(t, found.LoggedInAt)
}
