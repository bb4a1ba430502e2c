package userservice_test

import (
	"context"
	"time"

	"github.com/google/uuid"
	userservice "github.com/jagajithmk/CodeCraftHub"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
)

// MockIdentity implements userservice.Identity for testing
type MockIdentity struct {
	mock.Mock
}

func (m *MockIdentity) ID() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockIdentity) Username() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockIdentity) Email() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockIdentity) Role() string {
	args := m.Called()
	return args.String(0)
}

// MockLogger implements userservice.Logger for testing
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Debug(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Info(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Warn(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Error(format string, args ...any) {
	m.Called(format, args)
}

type testLogger struct{}

func (testLogger) Debug(format string, args ...any) {}
func (testLogger) Info(format string, args ...any)  {}
func (testLogger) Warn(format string, args ...any)  {}
func (testLogger) Error(format string, args ...any) {}

// stubUserTracker is an in-memory UserTracker keyed by email
type stubUserTracker struct {
	users      map[string]*userservice.User
	getErr     error
	attempts   int
	successful int
}

func newStubUserTracker(users ...*userservice.User) *stubUserTracker {
	s := &stubUserTracker{users: map[string]*userservice.User{}}
	for _, u := range users {
		s.users[u.Email] = u
	}
	return s
}

func (s *stubUserTracker) GetByIdentifier(ctx context.Context, identifier string) (*userservice.User, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	user, ok := s.users[identifier]
	if !ok {
		return nil, nil
	}
	return user, nil
}

func (s *stubUserTracker) TrackAttemptedLogin(ctx context.Context, user *userservice.User) error {
	s.attempts++
	user.LoginAttempts++
	now := time.Now()
	user.LoginAttemptAt = &now
	return nil
}

func (s *stubUserTracker) TrackSuccessfulLogin(ctx context.Context, user *userservice.User) error {
	s.successful++
	now := time.Now()
	user.LoggedInAt = &now
	user.LoginAttempts = 0
	return nil
}

func makeTestUser(email, password string) *userservice.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	id := uuid.New()
	return &userservice.User{
		ID:           id,
		Username:     "tester",
		Email:        email,
		PasswordHash: string(hash),
		Role:         userservice.RoleUser,
		IsActive:     true,
	}
}

type testConfig struct {
	signingKey      string
	signingMethod   string
	contextKey      string
	tokenExpiration time.Duration
	authScheme      string
	issuer          string
	audience        []string
}

func newTestConfig() *testConfig {
	return &testConfig{
		signingKey:      "test-signing-key",
		signingMethod:   "HS256",
		contextKey:      "user",
		tokenExpiration: time.Hour,
		authScheme:      "Bearer",
		issuer:          "test-issuer",
		audience:        []string{"test-audience"},
	}
}

func (c *testConfig) GetSigningKey() string              { return c.signingKey }
func (c *testConfig) GetSigningMethod() string           { return c.signingMethod }
func (c *testConfig) GetContextKey() string              { return c.contextKey }
func (c *testConfig) GetTokenExpiration() time.Duration  { return c.tokenExpiration }
func (c *testConfig) GetAuthScheme() string              { return c.authScheme }
func (c *testConfig) GetIssuer() string                  { return c.issuer }
func (c *testConfig) GetAudience() []string              { return c.audience }
