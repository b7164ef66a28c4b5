package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/cshaw-hub/hub-api/internal/models"
	"github.com/cshaw-hub/hub-api/pkg/config"
	appErrors "github.com/cshaw-hub/hub-api/pkg/errors"
)

type mockUserRepo struct {
	byEmail map[string]models.User
	created *models.User
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if u, ok := m.byEmail[email]; ok {
		return &u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	for _, u := range m.byEmail {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = "new-user"
	}
	if m.byEmail == nil {
		m.byEmail = map[string]models.User{}
	}
	m.byEmail[user.Email] = *user
	m.created = user
	return nil
}

func jwtConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "test-secret", Expiration: time.Hour, Issuer: "cshaw-hub"}
}

func TestAuthServiceLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := &mockUserRepo{byEmail: map[string]models.User{
		"jane@uj.ac.za": {
			ID: "u1", Email: "jane@uj.ac.za", PasswordHash: string(hash),
			Role: models.RoleStudent, Campus: models.CampusAPK, Active: true,
		},
	}}
	svc := NewAuthService(repo, jwtConfig(), "", zap.NewNop())

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "jane@uj.ac.za", Password: "password123"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.Equal(t, "u1", res.User.ID)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, models.RoleStudent, claims.Role)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := &mockUserRepo{byEmail: map[string]models.User{
		"jane@uj.ac.za": {ID: "u1", Email: "jane@uj.ac.za", PasswordHash: string(hash), Active: true},
	}}
	svc := NewAuthService(repo, jwtConfig(), "", zap.NewNop())

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "jane@uj.ac.za", Password: "nope-nope"})
	assert.Equal(t, appErrors.ErrInvalidCredentials, err)
}

func TestAuthServiceLoginInactive(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := &mockUserRepo{byEmail: map[string]models.User{
		"jane@uj.ac.za": {ID: "u1", Email: "jane@uj.ac.za", PasswordHash: string(hash), Active: false},
	}}
	svc := NewAuthService(repo, jwtConfig(), "", zap.NewNop())

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "jane@uj.ac.za", Password: "password123"})
	assert.Equal(t, appErrors.ErrInactiveAccount, err)
}

func TestAuthServiceRegisterStudent(t *testing.T) {
	repo := &mockUserRepo{}
	svc := NewAuthService(repo, jwtConfig(), "secret-code", zap.NewNop())

	user, err := svc.Register(context.Background(), models.RegisterRequest{
		Email: "new@uj.ac.za", Password: "password123",
		FirstName: "New", LastName: "Student", Campus: models.CampusDFC,
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, user.Role)
	assert.True(t, user.Active)
	assert.NotEqual(t, "password123", user.PasswordHash)
}

func TestAuthServiceRegisterCoordinator(t *testing.T) {
	repo := &mockUserRepo{}
	svc := NewAuthService(repo, jwtConfig(), "secret-code", zap.NewNop())

	user, err := svc.Register(context.Background(), models.RegisterRequest{
		Email: "coord@uj.ac.za", Password: "password123",
		FirstName: "Co", LastName: "Ordinator", Campus: models.CampusAPB,
		AdminCode: "secret-code",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleCoordinator, user.Role)
}

func TestAuthServiceRegisterBadAdminCode(t *testing.T) {
	svc := NewAuthService(&mockUserRepo{}, jwtConfig(), "secret-code", zap.NewNop())

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Email: "coord@uj.ac.za", Password: "password123",
		FirstName: "Co", LastName: "Ordinator", Campus: models.CampusAPB,
		AdminCode: "wrong",
	})
	require.Error(t, err)
	assert.Equal(t, 403, appErrors.FromError(err).Status)
}

func TestAuthServiceRegisterDuplicateEmail(t *testing.T) {
	repo := &mockUserRepo{byEmail: map[string]models.User{
		"jane@uj.ac.za": {ID: "u1", Email: "jane@uj.ac.za"},
	}}
	svc := NewAuthService(repo, jwtConfig(), "", zap.NewNop())

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Email: "jane@uj.ac.za", Password: "password123",
		FirstName: "Jane", LastName: "Doe", Campus: models.CampusAPK,
	})
	require.Error(t, err)
	assert.Equal(t, 409, appErrors.FromError(err).Status)
}

func TestAuthServiceValidateTokenBadSignature(t *testing.T) {
	svc := NewAuthService(&mockUserRepo{}, jwtConfig(), "", zap.NewNop())
	other := NewAuthService(&mockUserRepo{}, config.JWTConfig{Secret: "different", Expiration: time.Hour}, "", zap.NewNop())

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := &mockUserRepo{byEmail: map[string]models.User{
		"jane@uj.ac.za": {ID: "u1", Email: "jane@uj.ac.za", PasswordHash: string(hash), Active: true},
	}}
	svc.users = repo

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "jane@uj.ac.za", Password: "password123"})
	require.NoError(t, err)

	_, err = other.ValidateToken(res.AccessToken)
	assert.Equal(t, appErrors.ErrUnauthorized, err)
}
