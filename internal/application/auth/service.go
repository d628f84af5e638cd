package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/pulse-stream/pulse-api/internal/application/twofa"
	"github.com/pulse-stream/pulse-api/internal/domain"
	"github.com/pulse-stream/pulse-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/pulse-stream/pulse-api/internal/infrastructure/jwt"
	"github.com/pulse-stream/pulse-api/internal/pkg/id"
	pkgtoken "github.com/pulse-stream/pulse-api/internal/pkg/token"
	"github.com/pulse-stream/pulse-api/internal/pkg/validate"
)

// ErrStalePasswordChange means the code was verified but the staged
// password expired before it could be applied. The caller must restart
// the password change flow.
var ErrStalePasswordChange = errors.New("staged password change expired")

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type VerifyLoginRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6"`
}

type PasswordChangeRequest struct {
	NewPassword string `json:"new_password" validate:"required,password"`
}

type ConfirmPasswordChangeRequest struct {
	Code string `json:"code" validate:"required,len=6"`
}

// cacheInvalidator drops the auth middleware's cached user record after
// a credential change.
type cacheInvalidator interface {
	Delete(ctx context.Context, key string) error
}

type Service interface {
	Register(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error)
	Login(ctx context.Context, req LoginRequest) error
	VerifyLogin(ctx context.Context, req VerifyLoginRequest) (bearer, refreshToken string, user *domain.User, err error)
	Refresh(ctx context.Context, refreshToken string) (bearer, newRefreshToken string, err error)
	Logout(ctx context.Context, sessionID string) error
	RequestPasswordChange(ctx context.Context, userID string, req PasswordChangeRequest) error
	ConfirmPasswordChange(ctx context.Context, userID, code string) error
}

type service struct {
	userRepo        *dynamo.UserRepo
	sessionRepo     *dynamo.SessionRepo
	twoFactor       twofa.Service
	jwtProvider     *jwtinfra.Provider
	cache           cacheInvalidator
	refreshTokenDur time.Duration
}

func NewService(
	userRepo *dynamo.UserRepo,
	sessionRepo *dynamo.SessionRepo,
	twoFactor twofa.Service,
	jwtProvider *jwtinfra.Provider,
	cache cacheInvalidator,
	refreshTokenDur time.Duration,
) Service {
	return &service{
		userRepo:        userRepo,
		sessionRepo:     sessionRepo,
		twoFactor:       twoFactor,
		jwtProvider:     jwtProvider,
		cache:           cache,
		refreshTokenDur: refreshTokenDur,
	}
}

func (s *service) Register(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrBadRequest, err.Error())
	}

	if _, err := s.userRepo.GetByEmail(ctx, req.Email); err == nil {
		return nil, fmt.Errorf("email already registered: %w", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if _, err := s.userRepo.GetByUsername(ctx, req.Username); err == nil {
		return nil, fmt.Errorf("username already taken: %w", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		UserID:       id.New(),
		Username:     req.Username,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: string(hash),
		Enable:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Put(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Login checks credentials and issues a two-factor challenge. The
// session is only created once the emailed code is verified.
func (s *service) Login(ctx context.Context, req LoginRequest) error {
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrBadRequest, err.Error())
	}

	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return err
	}
	if !user.Enable {
		return fmt.Errorf("account disabled: %w", domain.ErrForbidden)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}

	return s.twoFactor.IssueChallenge(ctx, user, domain.PurposeLogin, "")
}

func (s *service) VerifyLogin(ctx context.Context, req VerifyLoginRequest) (string, string, *domain.User, error) {
	if err := validate.Struct(req); err != nil {
		return "", "", nil, fmt.Errorf("%w: %s", domain.ErrBadRequest, err.Error())
	}

	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return "", "", nil, err
	}

	ok, err := s.twoFactor.VerifyChallenge(ctx, user.UserID, req.Code)
	if err != nil {
		return "", "", nil, err
	}
	if !ok {
		return "", "", nil, fmt.Errorf("invalid or expired code: %w", domain.ErrUnauthorized)
	}

	refreshToken, err := pkgtoken.NewRefreshToken()
	if err != nil {
		return "", "", nil, err
	}

	now := time.Now().UTC()
	session := &domain.Session{
		SessionID:        id.New(),
		UserID:           user.UserID,
		Enable:           true,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: now.Add(s.refreshTokenDur).Unix(),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.sessionRepo.Put(ctx, session); err != nil {
		return "", "", nil, fmt.Errorf("create session: %w", err)
	}

	bearer, err := s.jwtProvider.Sign(user.UserID, session.SessionID)
	if err != nil {
		return "", "", nil, fmt.Errorf("sign token: %w", err)
	}

	return bearer, session.RefreshToken, user, nil
}

// Refresh rotates the refresh token and issues a fresh bearer.
func (s *service) Refresh(ctx context.Context, refreshToken string) (string, string, error) {
	session, err := s.sessionRepo.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		return "", "", err
	}
	if time.Now().UTC().Unix() > session.RefreshExpiresAt {
		return "", "", fmt.Errorf("refresh token expired: %w", domain.ErrUnauthorized)
	}

	newToken, err := pkgtoken.NewRefreshToken()
	if err != nil {
		return "", "", err
	}
	newExpiry := time.Now().UTC().Add(s.refreshTokenDur).Unix()
	if err := s.sessionRepo.RotateRefreshToken(ctx, session.SessionID, newToken, newExpiry); err != nil {
		return "", "", fmt.Errorf("rotate refresh token: %w", err)
	}

	bearer, err := s.jwtProvider.Sign(session.UserID, session.SessionID)
	if err != nil {
		return "", "", fmt.Errorf("sign token: %w", err)
	}
	return bearer, newToken, nil
}

func (s *service) Logout(ctx context.Context, sessionID string) error {
	return s.sessionRepo.Update(ctx, sessionID, map[string]interface{}{
		"enable": false,
	})
}

func (s *service) RequestPasswordChange(ctx context.Context, userID string, req PasswordChangeRequest) error {
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrBadRequest, err.Error())
	}

	user, err := s.userRepo.Get(ctx, userID)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	return s.twoFactor.IssueChallenge(ctx, user, domain.PurposePasswordChange, string(hash))
}

func (s *service) ConfirmPasswordChange(ctx context.Context, userID, code string) error {
	ok, err := s.twoFactor.VerifyChallenge(ctx, userID, code)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("invalid or expired code: %w", domain.ErrUnauthorized)
	}

	applied, err := s.twoFactor.CompletePasswordChange(ctx, userID)
	if err != nil {
		return err
	}
	if !applied {
		// Verified, but the staged hash expired in between.
		return ErrStalePasswordChange
	}

	// The middleware caches user records; drop the stale hash.
	if err := s.cache.Delete(ctx, "user:"+userID); err != nil {
		return fmt.Errorf("invalidate user cache: %w", err)
	}
	return nil
}
