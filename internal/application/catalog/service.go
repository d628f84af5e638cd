package catalog

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/pulse-stream/pulse-api/internal/domain"
)

const (
	searchTTL  = time.Hour
	trackTTL   = 6 * time.Hour
	popularTTL = 30 * time.Minute
	albumsTTL  = time.Hour

	searchLimit  = 20
	popularLimit = 30
	albumsLimit  = 10
)

// Provider is the upstream music catalog. Jamendo and Spotify both
// implement it.
type Provider interface {
	Search(ctx context.Context, query string, limit int) ([]domain.Track, error)
	Track(ctx context.Context, id string) (*domain.Track, error)
	Popular(ctx context.Context, limit int) ([]domain.Track, error)
	Albums(ctx context.Context, query string, limit int) ([]domain.Album, error)
	Album(ctx context.Context, id string) (*domain.Album, error)
	TracksByIDs(ctx context.Context, ids []string) ([]domain.Track, error)
}

// Cache holds upstream responses as JSON. Cache failures are logged and
// treated as misses; the provider stays the source of truth.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

type Service interface {
	Search(ctx context.Context, query string) ([]domain.Track, error)
	Track(ctx context.Context, id string) (*domain.Track, error)
	Popular(ctx context.Context) ([]domain.Track, error)
	Albums(ctx context.Context, query string) ([]domain.Album, error)
	Album(ctx context.Context, id string) (*domain.Album, error)
	TracksByIDs(ctx context.Context, ids []string) ([]domain.Track, error)
}

type service struct {
	provider Provider
	cache    Cache
}

func NewService(provider Provider, cache Cache) Service {
	return &service{provider: provider, cache: cache}
}

// withCache serves from cache when possible and stores the provider's
// response otherwise. T must round-trip through JSON.
func withCache[T any](ctx context.Context, c Cache, key string, ttl time.Duration, fetch func() (T, error)) (T, error) {
	var zero T

	if raw, found, err := c.Get(ctx, key); err != nil {
		slog.Warn("catalog cache read failed", "key", key, "error", err)
	} else if found {
		var cached T
		if err := json.Unmarshal([]byte(raw), &cached); err == nil {
			return cached, nil
		}
		slog.Warn("catalog cache entry corrupt", "key", key)
	}

	fresh, err := fetch()
	if err != nil {
		return zero, err
	}

	if raw, err := json.Marshal(fresh); err == nil {
		if err := c.Set(ctx, key, string(raw), ttl); err != nil {
			slog.Warn("catalog cache write failed", "key", key, "error", err)
		}
	}

	return fresh, nil
}

func (s *service) Search(ctx context.Context, query string) ([]domain.Track, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.ErrBadRequest
	}

	key := "search:" + strings.ToLower(query)
	return withCache(ctx, s.cache, key, searchTTL, func() ([]domain.Track, error) {
		return s.provider.Search(ctx, query, searchLimit)
	})
}

func (s *service) Track(ctx context.Context, id string) (*domain.Track, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.ErrBadRequest
	}

	return withCache(ctx, s.cache, "track:"+id, trackTTL, func() (*domain.Track, error) {
		return s.provider.Track(ctx, id)
	})
}

func (s *service) Popular(ctx context.Context) ([]domain.Track, error) {
	return withCache(ctx, s.cache, "popular", popularTTL, func() ([]domain.Track, error) {
		return s.provider.Popular(ctx, popularLimit)
	})
}

func (s *service) Albums(ctx context.Context, query string) ([]domain.Album, error) {
	query = strings.TrimSpace(query)

	key := "albums"
	if query != "" {
		key += ":" + strings.ToLower(query)
	}
	return withCache(ctx, s.cache, key, albumsTTL, func() ([]domain.Album, error) {
		return s.provider.Albums(ctx, query, albumsLimit)
	})
}

func (s *service) Album(ctx context.Context, id string) (*domain.Album, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.ErrBadRequest
	}

	return withCache(ctx, s.cache, "album:"+id, albumsTTL, func() (*domain.Album, error) {
		return s.provider.Album(ctx, id)
	})
}

func (s *service) TracksByIDs(ctx context.Context, ids []string) ([]domain.Track, error) {
	cleaned := make([]string, 0, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			cleaned = append(cleaned, id)
		}
	}
	if len(cleaned) == 0 {
		return nil, domain.ErrBadRequest
	}

	// Sorted ids make the cache key order-insensitive.
	sort.Strings(cleaned)
	key := "tracks:" + strings.Join(cleaned, ",")

	return withCache(ctx, s.cache, key, trackTTL, func() ([]domain.Track, error) {
		return s.provider.TracksByIDs(ctx, cleaned)
	})
}
