package library

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pulse-stream/pulse-api/internal/domain"
	"github.com/pulse-stream/pulse-api/internal/infrastructure/dynamo"
	"github.com/pulse-stream/pulse-api/internal/pkg/id"
	"github.com/pulse-stream/pulse-api/internal/pkg/validate"
)

const historyLimit = 50

// cacheInvalidator drops the middleware's cached user record whenever a
// library mutation changes what the client should see.
type cacheInvalidator interface {
	Delete(ctx context.Context, key string) error
}

type Service interface {
	AddListen(ctx context.Context, userID, trackID string) error
	History(ctx context.Context, userID string) ([]domain.ListenEvent, error)

	AddFavorite(ctx context.Context, userID, trackID string) error
	RemoveFavorite(ctx context.Context, userID, trackID string) error
	Favorites(ctx context.Context, userID string) ([]domain.Favorite, error)

	CreatePlaylist(ctx context.Context, userID string, req domain.CreatePlaylistRequest) (*domain.Playlist, error)
	Playlists(ctx context.Context, userID string) ([]domain.Playlist, error)
	UpdatePlaylist(ctx context.Context, userID, playlistID string, req domain.UpdatePlaylistRequest) (*domain.Playlist, error)
	DeletePlaylist(ctx context.Context, userID, playlistID string) error
}

type service struct {
	historyRepo  *dynamo.HistoryRepo
	favoriteRepo *dynamo.FavoriteRepo
	playlistRepo *dynamo.PlaylistRepo
	cache        cacheInvalidator
}

func NewService(
	historyRepo *dynamo.HistoryRepo,
	favoriteRepo *dynamo.FavoriteRepo,
	playlistRepo *dynamo.PlaylistRepo,
	cache cacheInvalidator,
) Service {
	return &service{
		historyRepo:  historyRepo,
		favoriteRepo: favoriteRepo,
		playlistRepo: playlistRepo,
		cache:        cache,
	}
}

func (s *service) invalidateUser(ctx context.Context, userID string) {
	if err := s.cache.Delete(ctx, "user:"+userID); err != nil {
		slog.Warn("failed to invalidate user cache", "user_id", userID, "error", err)
	}
}

func (s *service) AddListen(ctx context.Context, userID, trackID string) error {
	trackID = strings.TrimSpace(trackID)
	if trackID == "" {
		return fmt.Errorf("track id required: %w", domain.ErrBadRequest)
	}

	return s.historyRepo.Put(ctx, &domain.ListenEvent{
		UserID:     userID,
		ListenedAt: time.Now().UTC(),
		TrackID:    trackID,
	})
}

func (s *service) History(ctx context.Context, userID string) ([]domain.ListenEvent, error) {
	return s.historyRepo.ListByUser(ctx, userID, historyLimit)
}

// AddFavorite has set semantics: favoriting an already-favorited track
// overwrites the row and is not an error.
func (s *service) AddFavorite(ctx context.Context, userID, trackID string) error {
	trackID = strings.TrimSpace(trackID)
	if trackID == "" {
		return fmt.Errorf("track id required: %w", domain.ErrBadRequest)
	}

	err := s.favoriteRepo.Put(ctx, &domain.Favorite{
		UserID:  userID,
		TrackID: trackID,
		AddedAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	s.invalidateUser(ctx, userID)
	return nil
}

func (s *service) RemoveFavorite(ctx context.Context, userID, trackID string) error {
	if err := s.favoriteRepo.Delete(ctx, userID, trackID); err != nil {
		return err
	}
	s.invalidateUser(ctx, userID)
	return nil
}

func (s *service) Favorites(ctx context.Context, userID string) ([]domain.Favorite, error) {
	return s.favoriteRepo.ListByUser(ctx, userID)
}

func (s *service) CreatePlaylist(ctx context.Context, userID string, req domain.CreatePlaylistRequest) (*domain.Playlist, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrBadRequest, err.Error())
	}

	now := time.Now().UTC()
	playlist := &domain.Playlist{
		PlaylistID: id.New(),
		UserID:     userID,
		Name:       req.Name,
		Tracks:     req.Tracks,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if playlist.Tracks == nil {
		playlist.Tracks = []string{}
	}

	if err := s.playlistRepo.Put(ctx, playlist); err != nil {
		return nil, fmt.Errorf("create playlist: %w", err)
	}
	s.invalidateUser(ctx, userID)
	return playlist, nil
}

func (s *service) Playlists(ctx context.Context, userID string) ([]domain.Playlist, error) {
	return s.playlistRepo.ListByUser(ctx, userID)
}

// ownedPlaylist loads a playlist and hides its existence from non-owners.
func (s *service) ownedPlaylist(ctx context.Context, userID, playlistID string) (*domain.Playlist, error) {
	playlist, err := s.playlistRepo.Get(ctx, playlistID)
	if err != nil {
		return nil, err
	}
	if playlist.UserID != userID {
		return nil, fmt.Errorf("playlist not found: %w", domain.ErrNotFound)
	}
	return playlist, nil
}

func (s *service) UpdatePlaylist(ctx context.Context, userID, playlistID string, req domain.UpdatePlaylistRequest) (*domain.Playlist, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrBadRequest, err.Error())
	}

	playlist, err := s.ownedPlaylist(ctx, userID, playlistID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
		playlist.Name = *req.Name
	}
	if req.Tracks != nil {
		updates["tracks"] = *req.Tracks
		playlist.Tracks = *req.Tracks
	}
	if len(updates) == 0 {
		return playlist, nil
	}

	if err := s.playlistRepo.Update(ctx, playlistID, updates); err != nil {
		return nil, fmt.Errorf("update playlist: %w", err)
	}
	s.invalidateUser(ctx, userID)
	return playlist, nil
}

func (s *service) DeletePlaylist(ctx context.Context, userID, playlistID string) error {
	if _, err := s.ownedPlaylist(ctx, userID, playlistID); err != nil {
		return err
	}
	if err := s.playlistRepo.Delete(ctx, playlistID); err != nil {
		return err
	}
	s.invalidateUser(ctx, userID)
	return nil
}
