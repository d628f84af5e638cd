package twofa

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/pulse-stream/pulse-api/internal/domain"
	"github.com/pulse-stream/pulse-api/internal/infrastructure/smtp"
	"github.com/pulse-stream/pulse-api/internal/infrastructure/sns"
)

const (
	challengeTTL = 5 * time.Minute

	challengeKeyPrefix = "twofa:challenge:"
	pendingKeyPrefix   = "twofa:pwchange:"
	verifiedKeyPrefix  = "twofa:verified:"
)

// Cache is the ephemeral store for challenges, staged password hashes
// and verified markers. Expiry is enforced by the store's own TTL.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// CredentialStore applies the staged password hash to the user record.
type CredentialStore interface {
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

type Service interface {
	// IssueChallenge generates a one-time code for the user, stores it
	// under the user's identity and delivers it by email. For
	// password-change the pre-hashed new password is staged alongside.
	// Reissuing overwrites any live challenge for the same user.
	IssueChallenge(ctx context.Context, user *domain.User, purpose domain.Purpose, stagedHash string) error

	// VerifyChallenge compares the supplied code against the live
	// challenge. A match consumes the challenge and marks the user
	// verified; a mismatch or absent challenge returns false without
	// distinguishing the two.
	VerifyChallenge(ctx context.Context, userID, suppliedCode string) (bool, error)

	// CompletePasswordChange applies the staged password hash. Returns
	// false when no staged hash remains, which happens when the TTL
	// fired before verification.
	CompletePasswordChange(ctx context.Context, userID string) (bool, error)

	// IsVerified reports whether the user holds a live verified marker
	// and, if so, for which purpose.
	IsVerified(ctx context.Context, userID string) (domain.Purpose, bool, error)
}

type service struct {
	cache     Cache
	users     CredentialStore
	mailer    smtp.Mailer
	smsSender sns.SMSSender // nil disables the SMS channel

	newCode func() (string, error)
}

func NewService(cache Cache, users CredentialStore, mailer smtp.Mailer, smsSender sns.SMSSender) Service {
	return &service{
		cache:     cache,
		users:     users,
		mailer:    mailer,
		smsSender: smsSender,
		newCode:   generateCode,
	}
}

// generateCode returns a uniform 6-digit code in [100000, 999999].
// Codes never start with zero so users always see all six digits.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return strconv.FormatInt(n.Int64()+100000, 10), nil
}

func (s *service) IssueChallenge(ctx context.Context, user *domain.User, purpose domain.Purpose, stagedHash string) error {
	code, err := s.newCode()
	if err != nil {
		return err
	}

	payload, err := json.Marshal(domain.Challenge{Code: code, Purpose: purpose})
	if err != nil {
		return fmt.Errorf("marshal challenge: %w", err)
	}

	if err := s.cache.Set(ctx, challengeKeyPrefix+user.UserID, string(payload), challengeTTL); err != nil {
		return fmt.Errorf("store challenge: %w", err)
	}

	if purpose == domain.PurposePasswordChange {
		if err := s.cache.Set(ctx, pendingKeyPrefix+user.UserID, stagedHash, challengeTTL); err != nil {
			return fmt.Errorf("stage password change: %w", err)
		}
	}

	subject := "Your Pulse verification code"
	body := fmt.Sprintf("Your two-factor authentication code for Pulse is: %s\n\nThe code will expire in 5 minutes.", code)
	if err := s.mailer.SendEmail(user.Email, subject, body); err != nil {
		return fmt.Errorf("send verification email: %w", err)
	}

	// SMS is a secondary channel. The challenge is already delivered by
	// email, so a carrier failure must not fail the whole issue call.
	if s.smsSender != nil && user.Phone != nil && *user.Phone != "" {
		msg := fmt.Sprintf("Pulse verification code: %s", code)
		if err := s.smsSender.SendSMS(ctx, *user.Phone, msg); err != nil {
			slog.Warn("sms delivery failed", "user_id", user.UserID, "error", err)
		}
	}

	return nil
}

func (s *service) VerifyChallenge(ctx context.Context, userID, suppliedCode string) (bool, error) {
	raw, found, err := s.cache.Get(ctx, challengeKeyPrefix+userID)
	if err != nil {
		return false, fmt.Errorf("load challenge: %w", err)
	}
	if !found {
		return false, nil
	}

	var ch domain.Challenge
	if err := json.Unmarshal([]byte(raw), &ch); err != nil {
		return false, fmt.Errorf("unmarshal challenge: %w", err)
	}

	if strings.TrimSpace(suppliedCode) != ch.Code {
		return false, nil
	}

	// Single use: the challenge is gone before the caller learns the result.
	if err := s.cache.Delete(ctx, challengeKeyPrefix+userID); err != nil {
		return false, fmt.Errorf("consume challenge: %w", err)
	}
	if err := s.cache.Set(ctx, verifiedKeyPrefix+userID, string(ch.Purpose), challengeTTL); err != nil {
		return false, fmt.Errorf("mark verified: %w", err)
	}

	return true, nil
}

func (s *service) CompletePasswordChange(ctx context.Context, userID string) (bool, error) {
	stagedHash, found, err := s.cache.Get(ctx, pendingKeyPrefix+userID)
	if err != nil {
		return false, fmt.Errorf("load staged password: %w", err)
	}
	if !found {
		return false, nil
	}

	if err := s.users.Update(ctx, userID, map[string]interface{}{
		"password_hash": stagedHash,
	}); err != nil {
		return false, fmt.Errorf("apply password change: %w", err)
	}

	if err := s.cache.Delete(ctx, pendingKeyPrefix+userID); err != nil {
		return false, fmt.Errorf("discard staged password: %w", err)
	}
	if err := s.cache.Delete(ctx, verifiedKeyPrefix+userID); err != nil {
		return false, fmt.Errorf("clear verified marker: %w", err)
	}

	return true, nil
}

func (s *service) IsVerified(ctx context.Context, userID string) (domain.Purpose, bool, error) {
	val, found, err := s.cache.Get(ctx, verifiedKeyPrefix+userID)
	if err != nil {
		return "", false, fmt.Errorf("load verified marker: %w", err)
	}
	if !found {
		return "", false, nil
	}
	return domain.Purpose(val), true, nil
}
