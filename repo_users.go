package userservice

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var DeactivateUserSQL = `UPDATE "users" AS "usr"
SET
	"is_active" = FALSE,
	"updated_at" = CURRENT_TIMESTAMP
WHERE
	"usr"."id" = ?
RETURNING *;`

type Users interface {
	repository.Repository[*User]

	GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*User, error)
	GetByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string, criteria ...repository.SelectCriteria) (*User, error)
	FindByEmailOrUsername(ctx context.Context, email, username string) (*User, error)
	FindByEmailOrUsernameTx(ctx context.Context, tx bun.IDB, email, username string) (*User, error)

	Register(ctx context.Context, user *User) (*User, error)
	RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error)
	Create(ctx context.Context, record *User, criteria ...repository.InsertCriteria) (*User, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *User, criteria ...repository.InsertCriteria) (*User, error)

	ListPage(ctx context.Context, page, limit int) ([]*User, int, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, update ProfileUpdate) (*User, error)
	AdminUpdate(ctx context.Context, id uuid.UUID, update AdminUserUpdate) (*User, error)
	Deactivate(ctx context.Context, id uuid.UUID) error

	TrackAttemptedLogin(ctx context.Context, user *User) error
	TrackSuccessfulLogin(ctx context.Context, user *User) error
}

type users struct {
	repository.Repository[*User]
	db *bun.DB
}

var (
	_ Users                        = (*users)(nil)
	_ repository.Repository[*User] = (*users)(nil)
)

func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &users{
		Repository: repo,
		db:         db,
	}
}

func (a *users) Register(ctx context.Context, user *User) (*User, error) {
	return a.RegisterTx(ctx, a.db, user)
}

func (a *users) RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error) {
	return a.CreateTx(ctx, tx, user)
}

func (a *users) Create(ctx context.Context, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *users) CreateTx(ctx context.Context, tx bun.IDB, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	prepareUserDefaults(record)
	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}

type identifierOption struct {
	column string
	value  any
}

// resolveUserIdentifier maps an opaque identifier to lookup columns: an
// email address, a UUID, or a username, tried in that order.
func resolveUserIdentifier(identifier string) []identifierOption {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil
	}

	if _, err := mail.ParseAddress(identifier); err == nil {
		return []identifierOption{{column: "email", value: identifier}}
	}

	if id, err := uuid.Parse(identifier); err == nil {
		return []identifierOption{{column: "id", value: id.String()}}
	}

	return []identifierOption{{column: "username", value: identifier}}
}

func (a *users) GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*User, error) {
	return a.GetByIdentifierTx(ctx, a.db, identifier, criteria...)
}

func (a *users) GetByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string, criteria ...repository.SelectCriteria) (*User, error) {
	options := resolveUserIdentifier(identifier)

	for _, opt := range options {
		record := &User{}
		q := tx.NewSelect().Model(record)

		for _, c := range criteria {
			q.Apply(c)
		}

		err := q.
			Where(fmt.Sprintf("?TableAlias.%s = ?", opt.column), opt.value).
			Limit(1).
			Scan(ctx)

		if err != nil {
			if repository.IsRecordNotFound(err) {
				continue
			}
			return nil, err
		}

		return record, nil
	}

	return nil, repository.NewRecordNotFound().
		WithMetadata(map[string]any{
			"identifier": identifier,
		})
}

func (a *users) FindByEmailOrUsername(ctx context.Context, email, username string) (*User, error) {
	return a.FindByEmailOrUsernameTx(ctx, a.db, email, username)
}

// FindByEmailOrUsernameTx looks up an account matching either value. The
// email lookup runs first so duplicate reporting prefers the email match.
// Absence is not an error: it returns (nil, nil).
func (a *users) FindByEmailOrUsernameTx(ctx context.Context, tx bun.IDB, email, username string) (*User, error) {
	for _, opt := range []identifierOption{
		{column: "email", value: email},
		{column: "username", value: username},
	} {
		record := &User{}
		err := tx.NewSelect().
			Model(record).
			Where(fmt.Sprintf("?TableAlias.%s = ?", opt.column), opt.value).
			Limit(1).
			Scan(ctx)

		if err != nil {
			if repository.IsRecordNotFound(err) {
				continue
			}
			return nil, err
		}

		return record, nil
	}

	return nil, nil
}

// ListPage returns one page of accounts ordered by creation time. The name
// stays clear of the embedded repository's criteria based List.
func (a *users) ListPage(ctx context.Context, page, limit int) ([]*User, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	var records []*User
	total, err := a.db.NewSelect().
		Model(&records).
		Order("created_at ASC").
		Limit(limit).
		Offset((page - 1) * limit).
		ScanAndCount(ctx)

	if err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

func (a *users) UpdateProfile(ctx context.Context, id uuid.UUID, update ProfileUpdate) (*User, error) {
	record, err := a.Repository.GetByID(ctx, id.String())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	record.apply(update)
	now := time.Now()
	record.UpdatedAt = &now

	return a.Repository.Update(ctx, record, repository.UpdateByID(id.String()))
}

func (a *users) AdminUpdate(ctx context.Context, id uuid.UUID, update AdminUserUpdate) (*User, error) {
	record, err := a.Repository.GetByID(ctx, id.String())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	record.apply(update.ProfileUpdate)

	if update.Role != nil {
		if !IsValidRole(*update.Role) {
			return nil, ErrUnknownRole(*update.Role)
		}
		record.Role = *update.Role
	}

	if update.IsActive != nil {
		record.IsActive = *update.IsActive
	}

	now := time.Now()
	record.UpdatedAt = &now

	return a.Repository.Update(ctx, record, repository.UpdateByID(id.String()))
}

// Deactivate flips the active flag. No code path deletes user rows.
func (a *users) Deactivate(ctx context.Context, id uuid.UUID) error {
	res, err := a.Repository.RawTx(ctx, a.db, DeactivateUserSQL, id.String())
	if err != nil {
		return err
	}

	if len(res) == 0 {
		return ErrUserNotFound
	}

	return nil
}

func (a *users) TrackAttemptedLogin(ctx context.Context, user *User) error {
	_, err := a.db.NewRaw(`
		UPDATE "users" AS "usr"
		SET
			"login_attempts" = COALESCE("login_attempts", 0) + 1,
			"login_attempt_at" = CURRENT_TIMESTAMP
		WHERE "usr"."id" = ?;`, user.ID.String()).
		Exec(ctx)
	return err
}

func (a *users) TrackSuccessfulLogin(ctx context.Context, user *User) error {
	_, err := a.db.NewRaw(`
		UPDATE "users" AS "usr"
		SET
			"login_attempts" = 0,
			"login_attempt_at" = NULL,
			"loggedin_at" = CURRENT_TIMESTAMP
		WHERE "usr"."id" = ?;`, user.ID.String()).
		Exec(ctx)
	return err
}

// IsUniqueViolation inspects a store error for a unique constraint failure
// on the given column. The schema carries the constraints that make the
// duplicate check race safe; this maps the violation back to the typed
// duplicate errors when two registrations collide.
func IsUniqueViolation(err error, column string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") && strings.Contains(msg, column)
}
