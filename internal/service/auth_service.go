package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/chenglin1712/deming-rollcall/internal/models"
	"github.com/chenglin1712/deming-rollcall/internal/repository"
	"github.com/chenglin1712/deming-rollcall/pkg/config"
	appErrors "github.com/chenglin1712/deming-rollcall/pkg/errors"
)

type authUserRepository interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	EnsureAccount(ctx context.Context, user *models.User) (bool, error)
}

// SessionStore persists server-side sessions.
type SessionStore interface {
	Create(ctx context.Context, session *models.Session) error
	Find(ctx context.Context, id string) (*models.Session, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// AuditRecorder stores audit entries best-effort.
type AuditRecorder interface {
	Record(ctx context.Context, entry models.AuditLog)
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	Secret string
	TTL    time.Duration
	Issuer string
}

// RequestMeta describes the caller of an auth operation for the audit trail.
type RequestMeta struct {
	IP        string
	UserAgent string
}

const invalidCredentialsMessage = "帳號或密碼錯誤"

// AuthService provides login, session lookup and logout.
type AuthService struct {
	repo      authUserRepository
	sessions  SessionStore
	audit     AuditRecorder
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
	now       func() time.Time

	dummyOnce sync.Once
	dummyHash []byte
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(repo authUserRepository, sessions SessionStore, audit AuditRecorder, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 12 * time.Hour
	}
	if cfg.Issuer == "" {
		cfg.Issuer = "deming-rollcall"
	}
	return &AuthService{
		repo:      repo,
		sessions:  sessions,
		audit:     audit,
		metrics:   metrics,
		validator: withRollcallRules(validate),
		logger:    logger,
		config:    cfg,
		now:       time.Now,
	}
}

// Login checks the credentials and opens a session. Unknown users and wrong
// passwords produce the same error.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResult, error) {
	req.Username = strings.TrimSpace(req.Username)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "請輸入帳號與密碼")
	}

	user, err := s.repo.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.burnCompare(req.Password)
			s.metrics.RecordLogin(false)
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, invalidCredentialsMessage)
		}
		return nil, appErrors.Storage(err, "無法讀取帳號資料")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.metrics.RecordLogin(false)
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, invalidCredentialsMessage)
	}

	if n, err := s.sessions.DeleteExpired(ctx, s.now()); err != nil {
		s.logger.Warn("failed to prune expired sessions", zap.Error(err))
	} else if n > 0 {
		s.logger.Debug("pruned expired sessions", zap.Int64("count", n))
	}

	now := s.now().UTC()
	session := &models.Session{
		ID:          uuid.NewString(),
		Username:    user.Username,
		DisplayName: user.DisplayName,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.config.TTL),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, appErrors.Storage(err, "無法建立登入狀態")
	}

	token, err := s.signSession(session)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign session")
	}

	s.metrics.RecordLogin(true)
	s.recordAudit(ctx, user.Username, models.AuditActionLogin, req.IP, req.UserAgent)
	s.logger.Info("user logged in", zap.String("user", user.Username))

	return &models.LoginResult{Token: token, ExpiresAt: session.ExpiresAt, User: user.Info()}, nil
}

// Authenticate resolves a cookie token to its live session.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.Session, error) {
	if token == "" {
		return nil, appErrors.ErrUnauthorized
	}
	claims, err := s.parseToken(token)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, appErrors.ErrUnauthorized.Message)
	}

	session, err := s.sessions.Find(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, appErrors.ErrUnauthorized
		}
		return nil, appErrors.Storage(err, "無法讀取登入狀態")
	}
	if session.Expired(s.now()) || session.Username != claims.Username {
		return nil, appErrors.ErrUnauthorized
	}
	return session, nil
}

// CheckLogin reports whether the token belongs to a live session.
func (s *AuthService) CheckLogin(ctx context.Context, token string) models.LoginStatus {
	session, err := s.Authenticate(ctx, token)
	if err != nil {
		return models.LoginStatus{LoggedIn: false}
	}
	user := session.User()
	return models.LoginStatus{LoggedIn: true, User: &user}
}

// Logout destroys the session behind token. It never fails for unknown or
// malformed tokens.
func (s *AuthService) Logout(ctx context.Context, token string, meta RequestMeta) error {
	if token == "" {
		return nil
	}
	claims, err := s.parseToken(token)
	if err != nil {
		return nil
	}
	if err := s.sessions.Delete(ctx, claims.SessionID); err != nil {
		s.logger.Warn("failed to delete session", zap.Error(err))
		return nil
	}
	s.recordAudit(ctx, claims.Username, models.AuditActionLogout, meta.IP, meta.UserAgent)
	return nil
}

// SeedAccounts creates configured accounts that do not exist yet and returns
// how many were added. Existing accounts keep their password.
func (s *AuthService) SeedAccounts(ctx context.Context, accounts []config.SeedAccount) (int, error) {
	created := 0
	for _, account := range accounts {
		hash, err := bcrypt.GenerateFromPassword([]byte(account.Password), bcrypt.DefaultCost)
		if err != nil {
			return created, fmt.Errorf("hash password for %s: %w", account.Username, err)
		}
		ok, err := s.repo.EnsureAccount(ctx, &models.User{
			Username:     account.Username,
			PasswordHash: string(hash),
			DisplayName:  account.DisplayName,
		})
		if err != nil {
			return created, err
		}
		if ok {
			created++
			s.logger.Info("seeded account", zap.String("user", account.Username))
		}
	}
	return created, nil
}

func (s *AuthService) signSession(session *models.Session) (string, error) {
	claims := models.SessionClaims{
		SessionID: session.ID,
		Username:  session.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   session.Username,
			ID:        session.ID,
			IssuedAt:  jwt.NewNumericDate(session.CreatedAt),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.Secret))
}

func (s *AuthService) parseToken(token string) (*models.SessionClaims, error) {
	claims := &models.SessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.config.Secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.config.Issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, err
	}
	if !parsed.Valid || claims.SessionID == "" {
		return nil, errors.New("invalid session token")
	}
	return claims, nil
}

// burnCompare spends a bcrypt comparison so unknown usernames take as long as
// wrong passwords.
func (s *AuthService) burnCompare(password string) {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("rollcall-dummy-password"), bcrypt.DefaultCost)
	})
	_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
}

func (s *AuthService) recordAudit(ctx context.Context, username, action, ip, userAgent string) {
	if s.audit == nil {
		return
	}
	s.audit.Record(ctx, models.AuditLog{
		Username:  username,
		Action:    action,
		Resource:  "session",
		Detail:    `{"status":"success"}`,
		IPAddress: ip,
		UserAgent: userAgent,
	})
}
