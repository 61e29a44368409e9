package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/xen-network/cms-api/internal/models"
	appErrors "github.com/xen-network/cms-api/pkg/errors"
)

type mockAuthRepo struct {
	userByEmail      *models.User
	userByID         *models.User
	findByEmailErr   error
	findByIDErr      error
	refreshTokens    map[string]*models.RefreshToken
	auditLogs        []*models.AuditLog
	lastLoginUpdated bool
}

func (m *mockAuthRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.findByEmailErr != nil {
		return nil, m.findByEmailErr
	}
	if m.userByEmail == nil {
		return nil, sql.ErrNoRows
	}
	return m.userByEmail, nil
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if m.findByIDErr != nil {
		return nil, m.findByIDErr
	}
	if m.userByID != nil {
		return m.userByID, nil
	}
	if m.userByEmail != nil {
		return m.userByEmail, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	m.lastLoginUpdated = true
	return nil
}

func (m *mockAuthRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	if m.refreshTokens == nil {
		m.refreshTokens = make(map[string]*models.RefreshToken)
	}
	m.refreshTokens[token.Token] = token
	return nil
}

func (m *mockAuthRepo) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	rt, ok := m.refreshTokens[token]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return rt, nil
}

func (m *mockAuthRepo) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	for _, token := range m.refreshTokens {
		if token.ID == id {
			token.Revoked = true
			token.RevokedAt = &revokedAt
		}
	}
	return nil
}

func (m *mockAuthRepo) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	return nil
}

func (m *mockAuthRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.auditLogs = append(m.auditLogs, log)
	return nil
}

func testAuthConfig() AuthConfig {
	return AuthConfig{
		AccessTokenSecret:  "secret",
		AccessTokenExpiry:  time.Hour,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "test",
		AdminAllowedEmails: []string{"admin@xen.network"},
	}
}

func adminUser(t *testing.T) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.User{
		ID:           "u1",
		Email:        "admin@xen.network",
		PasswordHash: string(hash),
		FullName:     "Admin",
		Role:         models.RoleAdmin,
		Active:       true,
	}
}

func TestLoginSuccess(t *testing.T) {
	repo := &mockAuthRepo{userByEmail: adminUser(t)}
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), testAuthConfig())

	res, err := svc.Login(context.Background(), models.LoginRequest{Identifier: "admin@xen.network", Password: "password"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)
	assert.True(t, res.User.IsAdmin)
	assert.True(t, repo.lastLoginUpdated)
	require.Len(t, repo.auditLogs, 1)
	assert.Equal(t, models.AuditActionLogin, repo.auditLogs[0].Action)
}

func TestLoginWrongPassword(t *testing.T) {
	repo := &mockAuthRepo{userByEmail: adminUser(t)}
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Identifier: "admin@xen.network", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestLoginUnknownUser(t *testing.T) {
	repo := &mockAuthRepo{}
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Identifier: "nobody@xen.network", Password: "password"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestLoginRejectedByAllowList(t *testing.T) {
	user := adminUser(t)
	user.Email = "outsider@example.com"
	repo := &mockAuthRepo{userByEmail: user}
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), testAuthConfig())

	// Credentials are valid; the allow-list still rejects.
	_, err := svc.Login(context.Background(), models.LoginRequest{Identifier: "outsider@example.com", Password: "password"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAccessDenied.Code, appErrors.FromError(err).Code)
}

func TestVerifyHappyPath(t *testing.T) {
	repo := &mockAuthRepo{userByEmail: adminUser(t)}
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), testAuthConfig())

	res, err := svc.Login(context.Background(), models.LoginRequest{Identifier: "admin@xen.network", Password: "password"})
	require.NoError(t, err)

	identity, err := svc.Verify(context.Background(), res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", identity.ID)
	assert.True(t, identity.IsAdmin)
}

func TestVerifyDeletedAccountIsDefinitive(t *testing.T) {
	repo := &mockAuthRepo{userByEmail: adminUser(t)}
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), testAuthConfig())

	res, err := svc.Login(context.Background(), models.LoginRequest{Identifier: "admin@xen.network", Password: "password"})
	require.NoError(t, err)

	// Account is gone; the client should clear its persisted session.
	repo.userByEmail = nil
	_, err = svc.Verify(context.Background(), res.AccessToken)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Status, appErrors.FromError(err).Status)
}

func TestVerifyStorageOutageIsTransient(t *testing.T) {
	repo := &mockAuthRepo{userByEmail: adminUser(t)}
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), testAuthConfig())

	res, err := svc.Login(context.Background(), models.LoginRequest{Identifier: "admin@xen.network", Password: "password"})
	require.NoError(t, err)

	// The store is down, not the session; the client keeps its session.
	repo.findByIDErr = context.DeadlineExceeded
	_, err = svc.Verify(context.Background(), res.AccessToken)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrUnavailable.Status, appErr.Status)
	assert.True(t, appErrors.IsTransient(appErr))
}

func TestVerifyRemovedFromAllowList(t *testing.T) {
	repo := &mockAuthRepo{userByEmail: adminUser(t)}
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), testAuthConfig())

	res, err := svc.Login(context.Background(), models.LoginRequest{Identifier: "admin@xen.network", Password: "password"})
	require.NoError(t, err)

	repo.userByEmail.Email = "demoted@example.com"
	_, err = svc.Verify(context.Background(), res.AccessToken)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAccessDenied.Code, appErrors.FromError(err).Code)
}

func TestVerifyGarbageToken(t *testing.T) {
	repo := &mockAuthRepo{userByEmail: adminUser(t)}
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), testAuthConfig())

	_, err := svc.Verify(context.Background(), "not-a-jwt")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Status, appErrors.FromError(err).Status)
}

func TestLogoutRevokesToken(t *testing.T) {
	repo := &mockAuthRepo{userByEmail: adminUser(t)}
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), testAuthConfig())

	res, err := svc.Login(context.Background(), models.LoginRequest{Identifier: "admin@xen.network", Password: "password"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), res.RefreshToken, "u1", models.LoginRequest{}))
	assert.True(t, repo.refreshTokens[res.RefreshToken].Revoked)
}

func TestLogoutIsIdempotent(t *testing.T) {
	repo := &mockAuthRepo{userByEmail: adminUser(t)}
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), testAuthConfig())

	assert.NoError(t, svc.Logout(context.Background(), "already-gone", "u1", models.LoginRequest{}))
}

func TestLogoutRejectsForeignToken(t *testing.T) {
	repo := &mockAuthRepo{userByEmail: adminUser(t)}
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), testAuthConfig())

	res, err := svc.Login(context.Background(), models.LoginRequest{Identifier: "admin@xen.network", Password: "password"})
	require.NoError(t, err)

	err = svc.Logout(context.Background(), res.RefreshToken, "someone-else", models.LoginRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestEditorIsNotAdmin(t *testing.T) {
	user := adminUser(t)
	user.Role = models.RoleEditor
	repo := &mockAuthRepo{userByEmail: user}
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), testAuthConfig())

	res, err := svc.Login(context.Background(), models.LoginRequest{Identifier: "admin@xen.network", Password: "password"})
	require.NoError(t, err)
	assert.False(t, res.User.IsAdmin)
}
