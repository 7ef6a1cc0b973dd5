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

	"github.com/noah-isme/attendance-tracker-api/internal/models"
	appErrors "github.com/noah-isme/attendance-tracker-api/pkg/errors"
)

type mockAuthRepo struct {
	userByEmail       *models.User
	userByID          *models.User
	created           *models.User
	refreshTokens     map[string]*models.RefreshToken
	updatePasswordErr error
	revokedAllFor     string
	lastLoginUpdated  bool
	purgeCutoff       time.Time
}

func (m *mockAuthRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.userByEmail == nil || m.userByEmail.Email != email {
		return nil, sql.ErrNoRows
	}
	return m.userByEmail, nil
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if m.userByID != nil {
		return m.userByID, nil
	}
	if m.userByEmail != nil && m.userByEmail.ID == id {
		return m.userByEmail, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) Create(ctx context.Context, user *models.User) error {
	user.ID = "new-user"
	m.created = user
	return nil
}

func (m *mockAuthRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	m.lastLoginUpdated = true
	return nil
}

func (m *mockAuthRepo) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	if m.updatePasswordErr != nil {
		return m.updatePasswordErr
	}
	if m.userByEmail != nil && m.userByEmail.ID == id {
		m.userByEmail.PasswordHash = passwordHash
	}
	return nil
}

func (m *mockAuthRepo) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	m.revokedAllFor = userID
	return nil
}

func (m *mockAuthRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	if m.refreshTokens == nil {
		m.refreshTokens = make(map[string]*models.RefreshToken)
	}
	m.refreshTokens[token.Token] = token
	return nil
}

func (m *mockAuthRepo) FindRefreshToken(ctx context.Context, digest string) (*models.RefreshToken, error) {
	rt, ok := m.refreshTokens[digest]
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

func (m *mockAuthRepo) PurgeRefreshTokens(ctx context.Context, cutoff time.Time) (int64, error) {
	m.purgeCutoff = cutoff
	var n int64
	for digest, token := range m.refreshTokens {
		if token.ExpiresAt.Before(cutoff) || (token.RevokedAt != nil && token.RevokedAt.Before(cutoff)) {
			delete(m.refreshTokens, digest)
			n++
		}
	}
	return n, nil
}

func newTestAuthService(repo *mockAuthRepo) *AuthService {
	return NewAuthService(repo, validator.New(), zap.NewNop(), AuthConfig{
		AccessTokenSecret:  "secret",
		AccessTokenExpiry:  time.Hour,
		RefreshTokenExpiry: 24 * time.Hour,
	})
}

func TestAuthServiceRegister(t *testing.T) {
	repo := &mockAuthRepo{}
	svc := newTestAuthService(repo)

	res, err := svc.Register(context.Background(), models.RegisterRequest{Email: "New@Example.com", Password: "secret1", FullName: "New User"}, models.LoginRequest{IP: "127.0.0.1"})
	require.NoError(t, err)
	require.NotNil(t, repo.created)
	assert.Equal(t, "new@example.com", repo.created.Email)
	assert.Equal(t, models.RoleUser, repo.created.Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.created.PasswordHash), []byte("secret1")))
	assert.Equal(t, "new-user", res.User.ID)
	assert.NotEmpty(t, res.AccessToken)
}

func TestAuthServiceRegisterDuplicateEmail(t *testing.T) {
	repo := &mockAuthRepo{userByEmail: &models.User{ID: "u1", Email: "taken@example.com"}}
	svc := newTestAuthService(repo)

	_, err := svc.Register(context.Background(), models.RegisterRequest{Email: "taken@example.com", Password: "secret1", FullName: "Dup"}, models.LoginRequest{})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrConflict)
	assert.Nil(t, repo.created)
}

func TestAuthServiceLoginSuccessStoresHashedRefreshToken(t *testing.T) {
	password, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	repo := &mockAuthRepo{userByEmail: &models.User{ID: "123", Email: "user@example.com", PasswordHash: string(password), Role: models.RoleUser}}
	svc := newTestAuthService(repo)

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "user@example.com", Password: "password"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)
	assert.True(t, repo.lastLoginUpdated)

	_, rawStored := repo.refreshTokens[res.RefreshToken]
	assert.False(t, rawStored)
	_, hashedStored := repo.refreshTokens[hashRefreshToken(res.RefreshToken)]
	assert.True(t, hashedStored)
}

func TestAuthServiceLoginNormalizesEmail(t *testing.T) {
	password, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	repo := &mockAuthRepo{userByEmail: &models.User{ID: "123", Email: "user@example.com", PasswordHash: string(password)}}
	svc := newTestAuthService(repo)

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "User@Example.COM", Password: "password"})
	require.NoError(t, err)
	assert.Equal(t, "123", res.User.ID)

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "nobody@example.com", Password: "password"})
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	password, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	repo := &mockAuthRepo{userByEmail: &models.User{ID: "123", Email: "user@example.com", PasswordHash: string(password)}}
	svc := newTestAuthService(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "user@example.com", Password: "nope"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
	assert.False(t, repo.lastLoginUpdated)
}

func TestAuthServiceRefreshTokenRotates(t *testing.T) {
	user := &models.User{ID: "u1", Email: "user@example.com", Role: models.RoleUser}
	repo := &mockAuthRepo{userByID: user, refreshTokens: make(map[string]*models.RefreshToken)}
	stored := &models.RefreshToken{ID: "rt1", UserID: user.ID, Token: hashRefreshToken("token"), ExpiresAt: time.Now().Add(time.Hour)}
	repo.refreshTokens[stored.Token] = stored
	svc := newTestAuthService(repo)

	res, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "token"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEqual(t, "token", res.RefreshToken)
	assert.True(t, stored.Revoked)

	_, err = svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "token"})
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
	assert.Equal(t, "u1", repo.revokedAllFor)
}

func TestAuthServiceRefreshTokenExpired(t *testing.T) {
	repo := &mockAuthRepo{refreshTokens: map[string]*models.RefreshToken{
		hashRefreshToken("old"): {ID: "rt1", UserID: "u1", Token: hashRefreshToken("old"), ExpiresAt: time.Now().Add(-time.Minute)},
	}}
	svc := newTestAuthService(repo)

	_, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "old"})
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestAuthServiceLogoutRejectsForeignToken(t *testing.T) {
	repo := &mockAuthRepo{refreshTokens: map[string]*models.RefreshToken{
		hashRefreshToken("t"): {ID: "rt1", UserID: "someone-else", Token: hashRefreshToken("t"), ExpiresAt: time.Now().Add(time.Hour)},
	}}
	svc := newTestAuthService(repo)

	err := svc.Logout(context.Background(), "u1", models.LogoutRequest{RefreshToken: "t"})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	require.NoError(t, svc.Logout(context.Background(), "someone-else", models.LogoutRequest{RefreshToken: "t"}))
	assert.True(t, repo.refreshTokens[hashRefreshToken("t")].Revoked)
}

func TestAuthServiceChangePassword(t *testing.T) {
	oldHash, _ := bcrypt.GenerateFromPassword([]byte("old"), bcrypt.DefaultCost)
	repo := &mockAuthRepo{userByEmail: &models.User{ID: "u1", PasswordHash: string(oldHash)}}
	svc := newTestAuthService(repo)

	err := svc.ChangePassword(context.Background(), "u1", models.ChangePasswordRequest{OldPassword: "old", NewPassword: "newpassword"})
	require.NoError(t, err)
	assert.NotEqual(t, string(oldHash), repo.userByEmail.PasswordHash)
	assert.Equal(t, "u1", repo.revokedAllFor)
}

func TestAuthServiceChangePasswordWrongOld(t *testing.T) {
	oldHash, _ := bcrypt.GenerateFromPassword([]byte("old"), bcrypt.DefaultCost)
	repo := &mockAuthRepo{userByEmail: &models.User{ID: "u1", PasswordHash: string(oldHash)}}
	svc := newTestAuthService(repo)

	err := svc.ChangePassword(context.Background(), "u1", models.ChangePasswordRequest{OldPassword: "wrong", NewPassword: "newpassword"})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestValidateToken(t *testing.T) {
	svc := newTestAuthService(&mockAuthRepo{})
	user := &models.User{ID: "u1", Email: "user@example.com", Role: models.RoleUser}
	token, err := svc.signAccessToken(user, time.Now().UTC())
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)

	_, err = svc.ValidateToken(token + "x")
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	expired, err := svc.signAccessToken(user, time.Now().Add(-2*time.Hour))
	require.NoError(t, err)
	_, err = svc.ValidateToken(expired)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestValidateTokenChecksIssuer(t *testing.T) {
	issuer := NewAuthService(&mockAuthRepo{}, nil, nil, AuthConfig{AccessTokenSecret: "secret", AccessTokenExpiry: time.Hour, Issuer: "attendance"})
	other := NewAuthService(&mockAuthRepo{}, nil, nil, AuthConfig{AccessTokenSecret: "secret", AccessTokenExpiry: time.Hour, Issuer: "someone-else"})
	user := &models.User{ID: "u1", Role: models.RoleUser}

	token, err := other.signAccessToken(user, time.Now().UTC())
	require.NoError(t, err)
	_, err = issuer.ValidateToken(token)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestAuthServicePurgeSessionsKeepsADayOfHistory(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	repo := &mockAuthRepo{refreshTokens: map[string]*models.RefreshToken{
		"dead":  {ID: "a", ExpiresAt: now.Add(-48 * time.Hour)},
		"fresh": {ID: "b", ExpiresAt: now.Add(-time.Hour)},
		"live":  {ID: "c", ExpiresAt: now.Add(time.Hour)},
	}}
	svc := newTestAuthService(repo)
	svc.now = func() time.Time { return now }

	require.NoError(t, svc.PurgeSessions(context.Background()))
	assert.Equal(t, now.Add(-24*time.Hour), repo.purgeCutoff)
	assert.NotContains(t, repo.refreshTokens, "dead")
	assert.Contains(t, repo.refreshTokens, "fresh")
	assert.Contains(t, repo.refreshTokens, "live")
}
