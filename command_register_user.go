package userservice

import (
	"context"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

type RegisterUserMessage struct {
	Username            string   `json:"username"`
	Email               string   `json:"email"`
	Password            string   `json:"password"`
	FirstName           string   `json:"first_name"`
	LastName            string   `json:"last_name"`
	Skills              []string `json:"skills"`
	LearningPreferences []string `json:"learning_preferences"`
	UseHashid           bool
}

func (e RegisterUserMessage) Type() string { return "user.register" }

// RegisterUserHandler creates new accounts. The duplicate lookup checks
// email before username so the reported conflict matches whichever field
// collided, email winning when both do. The schema level unique constraints
// close the check-then-insert race two concurrent registrations would
// otherwise win together.
type RegisterUserHandler struct {
	repo RepositoryManager
}

func NewRegisterUserHandler(repo RepositoryManager) *RegisterUserHandler {
	return &RegisterUserHandler{repo: repo}
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) (*User, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) (*User, error) {
	user := &User{}
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		existing, err := h.repo.Users().FindByEmailOrUsernameTx(ctx, tx, event.Email, event.Username)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "duplicate account lookup failed")
		}
		if existing != nil {
			if existing.Email == event.Email {
				return ErrDuplicateEmail
			}
			return ErrDuplicateUsername
		}

		hash, err := HashPassword(event.Password)
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return richErr
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		user.PasswordHash = hash
		user.Email = event.Email
		user.Username = getUsername(event.Username, event.Email)
		user.FirstName = event.FirstName
		user.LastName = event.LastName
		user.Skills = event.Skills
		user.LearningPreferences = event.LearningPreferences
		user.Role = RoleUser
		user.IsActive = true
		if event.UseHashid {
			if id, err := hashid.NewUUID(event.Email); err == nil {
				user.ID = id
			}
		}

		if user, err = h.repo.Users().RegisterTx(ctx, tx, user); err != nil {
			// a concurrent registration may have won the race past the
			// lookup; the unique index reports which field collided
			if IsUniqueViolation(err, "email") {
				return ErrDuplicateEmail
			}
			if IsUniqueViolation(err, "username") {
				return ErrDuplicateUsername
			}
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}

		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "user registration transaction failed")
	}

	return user, nil
}

func getUsername(username, email string) string {
	if username != "" {
		return username
	}

	if strings.Contains(email, "@") {
		username = strings.Split(email, "@")[0]
	}

	return username
}
