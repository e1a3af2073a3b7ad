package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/smart-student/assignment-engine/internal/models"
	"github.com/smart-student/assignment-engine/pkg/config"
	appErrors "github.com/smart-student/assignment-engine/pkg/errors"
)

type mockAuthRepo struct {
	users      map[string]models.User
	lastLogins map[string]time.Time
}

func (m *mockAuthRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if u, ok := m.users[email]; ok {
		return &u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	if m.lastLogins == nil {
		m.lastLogins = make(map[string]time.Time)
	}
	m.lastLogins[id] = ts
	return nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "test-secret", Expiration: time.Hour, Issuer: "assignment-engine"}
}

func newTestAuthService(t *testing.T) (*AuthService, *mockAuthRepo) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := &mockAuthRepo{users: map[string]models.User{
		"admin@school.cl": {
			ID:           "user-1",
			Email:        "admin@school.cl",
			PasswordHash: string(hash),
			FullName:     "Admin",
			Role:         models.RoleAdmin,
			Active:       true,
		},
	}}
	return NewAuthService(repo, nil, nil, testJWTConfig()), repo
}

func TestAuthLoginAndValidate(t *testing.T) {
	svc, repo := newTestAuthService(t)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@school.cl", Password: "correct-horse"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, models.RoleAdmin, resp.User.Role)
	assert.Contains(t, repo.lastLogins, "user-1")

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestAuthLoginWrongPassword(t *testing.T) {
	svc, _ := newTestAuthService(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@school.cl", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthLoginUnknownEmail(t *testing.T) {
	svc, _ := newTestAuthService(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "ghost@school.cl", Password: "correct-horse"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthLoginInactiveAccount(t *testing.T) {
	svc, repo := newTestAuthService(t)
	u := repo.users["admin@school.cl"]
	u.Active = false
	repo.users["admin@school.cl"] = u

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@school.cl", Password: "correct-horse"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestValidateTokenRejectsTampering(t *testing.T) {
	svc, _ := newTestAuthService(t)

	_, err := svc.ValidateToken("not-a-token")
	require.Error(t, err)

	other := NewAuthService(&mockAuthRepo{}, nil, nil, config.JWTConfig{Secret: "different", Expiration: time.Hour})
	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@school.cl", Password: "correct-horse"})
	require.NoError(t, err)
	_, err = other.ValidateToken(resp.AccessToken)
	require.Error(t, err)
}
