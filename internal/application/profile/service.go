package profile

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/pulse-stream/pulse-api/internal/domain"
	"github.com/pulse-stream/pulse-api/internal/infrastructure/dynamo"
	s3infra "github.com/pulse-stream/pulse-api/internal/infrastructure/s3"
)

const (
	MaxAvatarSize = 5 << 20
	maxAboutLen   = 500
)

type cacheInvalidator interface {
	Delete(ctx context.Context, key string) error
}

// AvatarOutput is the stored avatar image ready to stream back.
type AvatarOutput struct {
	Body        io.ReadCloser
	ContentType string
}

type Service interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	UpdateAbout(ctx context.Context, userID, about string) error
	UploadAvatar(ctx context.Context, userID string, avatar io.Reader, size int64, mimeType string) error
	Avatar(ctx context.Context, userID string) (*AvatarOutput, error)
}

type service struct {
	userRepo *dynamo.UserRepo
	store    *s3infra.Store
	cache    cacheInvalidator
}

func NewService(userRepo *dynamo.UserRepo, store *s3infra.Store, cache cacheInvalidator) Service {
	return &service{userRepo: userRepo, store: store, cache: cache}
}

func (s *service) invalidateUser(ctx context.Context, userID string) {
	if err := s.cache.Delete(ctx, "user:"+userID); err != nil {
		slog.Warn("failed to invalidate user cache", "user_id", userID, "error", err)
	}
}

func (s *service) Get(ctx context.Context, userID string) (*domain.User, error) {
	return s.userRepo.Get(ctx, userID)
}

func (s *service) UpdateAbout(ctx context.Context, userID, about string) error {
	about = strings.TrimSpace(about)
	if utf8.RuneCountInString(about) > maxAboutLen {
		return fmt.Errorf("about exceeds %d characters: %w", maxAboutLen, domain.ErrBadRequest)
	}

	if err := s.userRepo.Update(ctx, userID, map[string]interface{}{
		"about": about,
	}); err != nil {
		return fmt.Errorf("update about: %w", err)
	}
	s.invalidateUser(ctx, userID)
	return nil
}

func (s *service) UploadAvatar(ctx context.Context, userID string, avatar io.Reader, size int64, mimeType string) error {
	if !strings.HasPrefix(mimeType, "image/") {
		return fmt.Errorf("avatar must be an image, got %q: %w", mimeType, domain.ErrBadRequest)
	}
	if size > MaxAvatarSize {
		return fmt.Errorf("avatar exceeds %d bytes: %w", MaxAvatarSize, domain.ErrBadRequest)
	}

	// One avatar per user; a re-upload overwrites in place.
	key := "avatars/" + userID
	if _, err := s.store.Upload(ctx, key, avatar, mimeType); err != nil {
		return fmt.Errorf("store avatar: %w", err)
	}

	if err := s.userRepo.Update(ctx, userID, map[string]interface{}{
		"avatar_key":  key,
		"avatar_type": mimeType,
	}); err != nil {
		return fmt.Errorf("record avatar: %w", err)
	}
	s.invalidateUser(ctx, userID)
	return nil
}

func (s *service) Avatar(ctx context.Context, userID string) (*AvatarOutput, error) {
	user, err := s.userRepo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.AvatarKey == "" {
		return nil, fmt.Errorf("no avatar set: %w", domain.ErrNotFound)
	}

	body, err := s.store.Download(ctx, user.AvatarKey)
	if err != nil {
		return nil, err
	}
	return &AvatarOutput{Body: body, ContentType: user.AvatarType}, nil
}
