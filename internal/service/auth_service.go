package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/gridtrain/eval-api/internal/authz"
	"github.com/gridtrain/eval-api/internal/models"
	appErrors "github.com/gridtrain/eval-api/pkg/errors"
)

type authUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id string, ts time.Time) error
	UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error
	RevokeUserRefreshTokens(ctx context.Context, userID string) error
	CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error
	FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	AccessTokenSecret  string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
	Issuer             string
	SingleSession      bool
}

// AuthService provides authentication use cases.
type AuthService struct {
	repo      authUserRepository
	companies companyLookup
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
	now       func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(repo authUserRepository, companies companyLookup, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.AccessTokenExpiry <= 0 {
		config.AccessTokenExpiry = time.Hour
	}
	if config.RefreshTokenExpiry <= 0 {
		config.RefreshTokenExpiry = 7 * 24 * time.Hour
	}
	return &AuthService{repo: repo, companies: companies, validator: validate, logger: logger, config: config, now: time.Now}
}

// Login authenticates a user and returns issued tokens.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid login payload")
	}

	user, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
		}
		return nil, appErrors.Wrap(appErrors.ErrInternal, err, "failed to fetch user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
	}

	if err := s.ensureActive(ctx, user); err != nil {
		return nil, err
	}

	if s.config.SingleSession {
		if err := s.repo.RevokeUserRefreshTokens(ctx, user.ID); err != nil {
			s.logger.Warn("failed to revoke previous refresh tokens", zap.Error(err))
		}
	}

	meta := models.RequestMeta{IP: req.IP, UserAgent: req.UserAgent}
	pair, err := s.startSession(ctx, user, meta)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateLastLogin(ctx, user.ID, pair.IssuedAt); err != nil {
		s.logger.Warn("failed to update last login", zap.String("user_id", user.ID), zap.Error(err))
	}
	s.audit(ctx, user, models.AuditActionLogin, `{"status":"success"}`, meta)

	return &models.LoginResponse{TokenPair: pair, User: userInfo(user)}, nil
}

// RefreshToken exchanges a refresh token for a new token pair. The presented
// token is revoked so each refresh token is usable once.
func (s *AuthService) RefreshToken(ctx context.Context, req models.RefreshTokenRequest) (*models.RefreshTokenResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid refresh payload")
	}

	storedToken, err := s.lookupRefreshToken(ctx, req.RefreshToken)
	if err != nil {
		return nil, err
	}
	if !storedToken.Usable(s.now().UTC()) {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "refresh token is expired or revoked")
	}

	user, err := s.repo.FindByID(ctx, storedToken.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "associated user no longer exists")
		}
		return nil, appErrors.Wrap(appErrors.ErrInternal, err, "failed to load user")
	}

	if err := s.ensureActive(ctx, user); err != nil {
		return nil, err
	}

	if err := s.repo.RevokeRefreshToken(ctx, storedToken.ID, s.now().UTC()); err != nil {
		return nil, appErrors.Wrap(appErrors.ErrInternal, err, "failed to revoke used refresh token")
	}

	pair, err := s.startSession(ctx, user, models.RequestMeta{IP: req.IP, UserAgent: req.UserAgent})
	if err != nil {
		return nil, err
	}
	return &models.RefreshTokenResponse{TokenPair: pair}, nil
}

// Logout revokes the provided refresh token.
func (s *AuthService) Logout(ctx context.Context, p authz.Principal, refreshToken string, meta models.RequestMeta) error {
	storedToken, err := s.lookupRefreshToken(ctx, refreshToken)
	if err != nil {
		return err
	}
	if storedToken.UserID != p.UserID {
		return appErrors.Clone(appErrors.ErrForbidden, "token does not belong to user")
	}

	if err := s.repo.RevokeRefreshToken(ctx, storedToken.ID, s.now().UTC()); err != nil {
		return appErrors.Wrap(appErrors.ErrInternal, err, "failed to revoke refresh token")
	}

	s.audit(ctx, &models.User{ID: p.UserID, CompanyID: optionalString(p.CompanyID)}, models.AuditActionLogout, `{"status":"logout"}`, meta)
	return nil
}

// ChangePassword replaces the caller's password and revokes every refresh token.
func (s *AuthService) ChangePassword(ctx context.Context, p authz.Principal, req models.ChangePasswordRequest, meta models.RequestMeta) error {
	if err := s.validator.Struct(req); err != nil {
		return validationError(err, "invalid change password payload")
	}

	user, err := s.repo.FindByID(ctx, p.UserID)
	if err != nil {
		return loadError(err, "user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)); err != nil {
		return appErrors.Clone(appErrors.ErrForbidden, "old password does not match")
	}

	newHash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return appErrors.Wrap(appErrors.ErrInternal, err, "failed to hash password")
	}

	if err := s.repo.UpdatePassword(ctx, user.ID, string(newHash), s.now().UTC()); err != nil {
		return appErrors.Wrap(appErrors.ErrInternal, err, "failed to update password")
	}

	if err := s.repo.RevokeUserRefreshTokens(ctx, user.ID); err != nil {
		s.logger.Warn("failed to revoke refresh tokens after password change", zap.Error(err))
	}

	s.audit(ctx, user, models.AuditActionPasswordChange, `{"status":"changed"}`, meta)
	return nil
}

// Me returns the profile of the authenticated caller.
func (s *AuthService) Me(ctx context.Context, p authz.Principal) (*models.UserInfo, error) {
	user, err := s.repo.FindByID(ctx, p.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "user no longer exists")
		}
		return nil, loadError(err, "user")
	}
	if !user.Active {
		return nil, appErrors.Clone(appErrors.ErrInactiveAccount, "account is inactive")
	}
	info := userInfo(user)
	return &info, nil
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.AccessTokenSecret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, appErrors.Wrap(appErrors.ErrUnauthorized, err, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}

	return claims, nil
}

func (s *AuthService) ensureActive(ctx context.Context, user *models.User) error {
	if !user.Active {
		return appErrors.Clone(appErrors.ErrInactiveAccount, "account is inactive")
	}
	if user.CompanyID == nil || s.companies == nil {
		return nil
	}
	company, err := s.companies.FindByID(ctx, *user.CompanyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrInactiveAccount, "company no longer exists")
		}
		return loadError(err, "company")
	}
	if !company.Active {
		return appErrors.Clone(appErrors.ErrInactiveAccount, "company is inactive")
	}
	return nil
}

func (s *AuthService) lookupRefreshToken(ctx context.Context, raw string) (*models.RefreshToken, error) {
	token, err := s.repo.FindRefreshToken(ctx, raw)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "refresh token not found")
	case err != nil:
		return nil, appErrors.Wrap(appErrors.ErrInternal, err, "failed to load refresh token")
	}
	return token, nil
}

// startSession signs an access token and stores a fresh refresh token for user.
func (s *AuthService) startSession(ctx context.Context, user *models.User, meta models.RequestMeta) (models.TokenPair, error) {
	now := s.now().UTC()
	access, err := s.signAccessToken(user, now)
	if err != nil {
		return models.TokenPair{}, appErrors.Wrap(appErrors.ErrInternal, err, "failed to create access token")
	}
	raw, err := randomToken()
	if err != nil {
		return models.TokenPair{}, appErrors.Wrap(appErrors.ErrInternal, err, "failed to create refresh token")
	}
	session := &models.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Token:     raw,
		ExpiresAt: now.Add(s.config.RefreshTokenExpiry),
		CreatedAt: now,
		IPAddress: meta.IP,
		UserAgent: meta.UserAgent,
	}
	if err := s.repo.CreateRefreshToken(ctx, session); err != nil {
		return models.TokenPair{}, appErrors.Wrap(appErrors.ErrInternal, err, "failed to persist refresh token")
	}
	return models.TokenPair{
		AccessToken:  access,
		RefreshToken: raw,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.config.AccessTokenExpiry.Seconds()),
		IssuedAt:     now,
	}, nil
}

func (s *AuthService) signAccessToken(user *models.User, issuedAt time.Time) (string, error) {
	claims := &models.JWTClaims{
		UserID:    user.ID,
		Role:      user.Role,
		CompanyID: user.CompanyIDValue(),
		Email:     user.Email,
		Name:      user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.config.Issuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.config.AccessTokenExpiry)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.AccessTokenSecret))
}

func (s *AuthService) audit(ctx context.Context, user *models.User, action, payload string, meta models.RequestMeta) {
	actor := models.AuditActor{UserID: user.ID, Meta: meta}
	if user.CompanyID != nil {
		actor.CompanyID = *user.CompanyID
	}
	entry := models.NewAuditLog(actor, action, "auth", user.ID).WithValues(nil, json.RawMessage(payload))
	if err := s.repo.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to record auth audit log", zap.String("action", action), zap.Error(err))
	}
}

// randomToken returns 256 bits of URL safe randomness.
func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func userInfo(user *models.User) models.UserInfo {
	return models.UserInfo{
		ID:        user.ID,
		CompanyID: user.CompanyID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      user.Role,
	}
}

func optionalString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
