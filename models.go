package userservice

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserRole is the user's role
type UserRole = string

const (
	// RoleUser is the default role for registered accounts
	RoleUser UserRole = "user"
	// RoleAdmin grants access to the user administration routes
	RoleAdmin UserRole = "admin"
)

// IsValidRole checks the role against the predefined set. Exact match only,
// there is no role hierarchy.
func IsValidRole(role UserRole) bool {
	switch role {
	case RoleUser, RoleAdmin:
		return true
	default:
		return false
	}
}

// User is the user model
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`

	ID                  uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Username            string     `bun:"username,notnull,unique" json:"username,omitempty"`
	Email               string     `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash        string     `bun:"password_hash,notnull" json:"-"`
	Role                UserRole   `bun:"user_role,notnull" json:"role,omitempty"`
	IsActive            bool       `bun:"is_active" json:"is_active"`
	FirstName           string     `bun:"first_name" json:"first_name,omitempty"`
	LastName            string     `bun:"last_name" json:"last_name,omitempty"`
	Skills              []string   `bun:"skills" json:"skills,omitempty"`
	LearningPreferences []string   `bun:"learning_preferences" json:"learning_preferences,omitempty"`
	LoginAttempts       int        `bun:"login_attempts" json:"-"`
	LoginAttemptAt      *time.Time `bun:"login_attempt_at" json:"-"`
	LoggedInAt          *time.Time `bun:"loggedin_at" json:"-"`
	CreatedAt           *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt           *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// ProgressEntry tracks how far a user got in one course. One row per
// (user, course); repeated updates overwrite progress and last accessed.
type ProgressEntry struct {
	bun.BaseModel `bun:"table:user_progress,alias:prg"`

	ID           uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID       uuid.UUID  `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	CourseID     string     `bun:"course_id,notnull" json:"course_id"`
	Progress     float64    `bun:"progress,notnull" json:"progress"`
	LastAccessed *time.Time `bun:"last_accessed,nullzero" json:"last_accessed,omitempty"`
}

// ProfileUpdate is the allow listed set of fields a user may change on their
// own record. Privileged fields (email, role, password, active flag) are
// deliberately absent so a generic merge can never reach them.
type ProfileUpdate struct {
	FirstName           *string  `json:"first_name,omitempty"`
	LastName            *string  `json:"last_name,omitempty"`
	Skills              []string `json:"skills,omitempty"`
	LearningPreferences []string `json:"learning_preferences,omitempty"`
}

// AdminUserUpdate extends the allow list with the administrative fields
type AdminUserUpdate struct {
	ProfileUpdate
	Role     *UserRole `json:"role,omitempty"`
	IsActive *bool     `json:"is_active,omitempty"`
}

func (u *User) apply(p ProfileUpdate) {
	if p.FirstName != nil {
		u.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		u.LastName = *p.LastName
	}
	if p.Skills != nil {
		u.Skills = p.Skills
	}
	if p.LearningPreferences != nil {
		u.LearningPreferences = p.LearningPreferences
	}
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	if record.Role == "" {
		record.Role = RoleUser
	}
}
