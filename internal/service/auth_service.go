package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/attendance-tracker-api/internal/models"
	appErrors "github.com/noah-isme/attendance-tracker-api/pkg/errors"
	applog "github.com/noah-isme/attendance-tracker-api/pkg/logger"
)

const (
	uniqueViolation = "23505"
	tokenLeeway     = 30 * time.Second
)

type authUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdateLastLogin(ctx context.Context, id string, ts time.Time) error
	UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error
	RevokeUserRefreshTokens(ctx context.Context, userID string) error
	CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error
	FindRefreshToken(ctx context.Context, digest string) (*models.RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error
	PurgeRefreshTokens(ctx context.Context, cutoff time.Time) (int64, error)
}

// AuthConfig controls token lifetimes and claims.
type AuthConfig struct {
	AccessTokenSecret  string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
	Issuer             string
	Audience           []string
	SingleSession      bool
}

// AuthService handles account creation, sign in and refresh token rotation.
type AuthService struct {
	repo      authUserRepository
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
	parser    *jwt.Parser
	now       func() time.Time
}

// NewAuthService constructs an AuthService.
func NewAuthService(repo authUserRepository, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(tokenLeeway),
	}
	if config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(config.Issuer))
	}
	return &AuthService{
		repo:      repo,
		validator: validate,
		logger:    logger,
		config:    config,
		parser:    jwt.NewParser(opts...),
		now:       time.Now,
	}
}

// Register creates an account with the user role and signs it in.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest, meta models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid registration payload")
	}

	email := normalizeEmail(req.Email)
	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Internal(err, "failed to check email")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to hash password")
	}
	user := &models.User{
		Email:        email,
		PasswordHash: string(hash),
		FullName:     strings.TrimSpace(req.FullName),
		Role:         models.RoleUser,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		// a concurrent registration can win the race past FindByEmail
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
		}
		return nil, appErrors.Internal(err, "failed to create user")
	}
	applog.For(ctx, s.logger).Info("user registered", zap.String("user_id", user.ID))

	return s.issueSession(ctx, user, meta.IP, meta.UserAgent)
}

// Login checks credentials and issues an access and refresh token pair.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid login payload")
	}

	user, err := s.repo.FindByEmail(ctx, normalizeEmail(req.Email))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// spend the same bcrypt time as a real mismatch
		_ = bcrypt.CompareHashAndPassword(placeholderHash(), []byte(req.Password))
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
	case err != nil:
		return nil, appErrors.Internal(err, "failed to fetch user")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
	}

	if s.config.SingleSession {
		if err := s.repo.RevokeUserRefreshTokens(ctx, user.ID); err != nil {
			applog.For(ctx, s.logger).Warn("failed to revoke previous sessions", zap.String("user_id", user.ID), zap.Error(err))
		}
	}

	resp, err := s.issueSession(ctx, user, req.IP, req.UserAgent)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateLastLogin(ctx, user.ID, s.now().UTC()); err != nil {
		applog.For(ctx, s.logger).Warn("failed to update last login", zap.String("user_id", user.ID), zap.Error(err))
	}
	return resp, nil
}

// RefreshToken rotates a refresh token. Presenting an already revoked token signs the owner out everywhere.
func (s *AuthService) RefreshToken(ctx context.Context, req models.RefreshTokenRequest) (*models.RefreshTokenResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid refresh payload")
	}

	stored, err := s.lookupRefreshToken(ctx, req.RefreshToken)
	if err != nil {
		return nil, err
	}
	if stored.Revoked {
		if err := s.repo.RevokeUserRefreshTokens(ctx, stored.UserID); err != nil {
			applog.For(ctx, s.logger).Warn("failed to revoke sessions after token reuse", zap.String("user_id", stored.UserID), zap.Error(err))
		}
		applog.For(ctx, s.logger).Warn("revoked refresh token presented", zap.String("user_id", stored.UserID))
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "refresh token is expired or revoked")
	}
	if !s.now().UTC().Before(stored.ExpiresAt) {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "refresh token is expired or revoked")
	}

	user, err := s.repo.FindByID(ctx, stored.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "account no longer exists")
		}
		return nil, appErrors.Internal(err, "failed to load user")
	}
	if err := s.repo.RevokeRefreshToken(ctx, stored.ID, s.now().UTC()); err != nil {
		return nil, appErrors.Internal(err, "failed to rotate refresh token")
	}

	session, err := s.issueSession(ctx, user, req.IP, req.UserAgent)
	if err != nil {
		return nil, err
	}
	return &models.RefreshTokenResponse{
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		ExpiresIn:    session.ExpiresIn,
		IssuedAt:     session.IssuedAt,
	}, nil
}

// Logout revokes one of the caller's refresh tokens.
func (s *AuthService) Logout(ctx context.Context, userID string, req models.LogoutRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Validation(err, "invalid logout payload")
	}
	stored, err := s.lookupRefreshToken(ctx, req.RefreshToken)
	if err != nil {
		return err
	}
	if stored.UserID != userID {
		return appErrors.Clone(appErrors.ErrForbidden, "token does not belong to user")
	}
	if stored.Revoked {
		return nil
	}
	if err := s.repo.RevokeRefreshToken(ctx, stored.ID, s.now().UTC()); err != nil {
		return appErrors.Internal(err, "failed to revoke refresh token")
	}
	return nil
}

// ChangePassword replaces the password hash and revokes every refresh token of the user.
func (s *AuthService) ChangePassword(ctx context.Context, userID string, req models.ChangePasswordRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Validation(err, "invalid change password payload")
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Internal(err, "failed to load user")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)); err != nil {
		return appErrors.Clone(appErrors.ErrForbidden, "old password does not match")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return appErrors.Internal(err, "failed to hash password")
	}
	if err := s.repo.UpdatePassword(ctx, userID, string(hash), s.now().UTC()); err != nil {
		return appErrors.Internal(err, "failed to update password")
	}
	if err := s.repo.RevokeUserRefreshTokens(ctx, userID); err != nil {
		applog.For(ctx, s.logger).Warn("failed to revoke sessions after password change", zap.String("user_id", userID), zap.Error(err))
	}
	return nil
}

// PurgeSessions deletes refresh tokens that expired or were revoked more than a day ago. It is run by the scheduler.
func (s *AuthService) PurgeSessions(ctx context.Context) error {
	n, err := s.repo.PurgeRefreshTokens(ctx, s.now().UTC().Add(-24*time.Hour))
	if err != nil {
		return err
	}
	if n > 0 {
		s.logger.Info("refresh tokens purged", zap.Int64("count", n))
	}
	return nil
}

// ValidateToken verifies an HS256 access token and returns its claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	claims := &models.JWTClaims{}
	token, err := s.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(s.config.AccessTokenSecret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}
	if !token.Valid || claims.UserID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	return claims, nil
}

func (s *AuthService) lookupRefreshToken(ctx context.Context, raw string) (*models.RefreshToken, error) {
	stored, err := s.repo.FindRefreshToken(ctx, hashRefreshToken(raw))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "refresh token not found")
		}
		return nil, appErrors.Internal(err, "failed to load refresh token")
	}
	return stored, nil
}

func (s *AuthService) issueSession(ctx context.Context, user *models.User, ip, userAgent string) (*models.LoginResponse, error) {
	issuedAt := s.now().UTC()
	accessToken, err := s.signAccessToken(user, issuedAt)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to create access token")
	}
	raw, err := newRefreshTokenValue()
	if err != nil {
		return nil, appErrors.Internal(err, "failed to create refresh token")
	}

	if err := s.repo.CreateRefreshToken(ctx, &models.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Token:     hashRefreshToken(raw),
		ExpiresAt: issuedAt.Add(s.config.RefreshTokenExpiry),
		CreatedAt: issuedAt,
		IPAddress: ip,
		UserAgent: userAgent,
	}); err != nil {
		return nil, appErrors.Internal(err, "failed to persist refresh token")
	}

	return &models.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: raw,
		ExpiresIn:    int64(s.config.AccessTokenExpiry.Seconds()),
		IssuedAt:     issuedAt,
		User:         userInfo(user),
	}, nil
}

func (s *AuthService) signAccessToken(user *models.User, issuedAt time.Time) (string, error) {
	claims := &models.JWTClaims{
		UserID:   user.ID,
		Role:     user.Role,
		Email:    user.Email,
		FullName: user.FullName,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   user.ID,
			Audience:  s.config.Audience,
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.config.AccessTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.AccessTokenSecret))
}

func userInfo(user *models.User) models.UserInfo {
	return models.UserInfo{
		ID:       user.ID,
		Email:    user.Email,
		FullName: user.FullName,
		Role:     user.Role,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func newRefreshTokenValue() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// hashRefreshToken returns the digest stored in place of the raw token.
func hashRefreshToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

var (
	placeholderOnce sync.Once
	placeholder     []byte
)

func placeholderHash() []byte {
	placeholderOnce.Do(func() {
		placeholder, _ = bcrypt.GenerateFromPassword([]byte("placeholder-password"), bcrypt.DefaultCost)
	})
	return placeholder
}
