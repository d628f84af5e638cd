package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/pulse-stream/pulse-api/internal/domain"
)

type memCache struct {
	entries map[string]string
	getErr  error
}

func newMemCache() *memCache {
	return &memCache{entries: map[string]string{}}
}

func (c *memCache) Get(_ context.Context, key string) (string, bool, error) {
	if c.getErr != nil {
		return "", false, c.getErr
	}
	v, ok := c.entries[key]
	return v, ok, nil
}

func (c *memCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	c.entries[key] = value
	return nil
}

type stubProvider struct {
	searchCalls int
	trackCalls  int
	tracks      []domain.Track
	err         error
}

func (p *stubProvider) Search(_ context.Context, _ string, _ int) ([]domain.Track, error) {
	p.searchCalls++
	return p.tracks, p.err
}

func (p *stubProvider) Track(_ context.Context, id string) (*domain.Track, error) {
	p.trackCalls++
	if p.err != nil {
		return nil, p.err
	}
	return &domain.Track{ID: id, Name: "song"}, nil
}

func (p *stubProvider) Popular(_ context.Context, _ int) ([]domain.Track, error) {
	return p.tracks, p.err
}

func (p *stubProvider) Albums(_ context.Context, _ string, _ int) ([]domain.Album, error) {
	return nil, p.err
}

func (p *stubProvider) Album(_ context.Context, id string) (*domain.Album, error) {
	if p.err != nil {
		return nil, p.err
	}
	return &domain.Album{ID: id}, nil
}

func (p *stubProvider) TracksByIDs(_ context.Context, ids []string) ([]domain.Track, error) {
	p.trackCalls++
	if p.err != nil {
		return nil, p.err
	}
	tracks := make([]domain.Track, 0, len(ids))
	for _, id := range ids {
		tracks = append(tracks, domain.Track{ID: id})
	}
	return tracks, nil
}

func TestSearch_CachesProviderResponse(t *testing.T) {
	ctx := context.Background()
	provider := &stubProvider{tracks: []domain.Track{{ID: "1", Name: "one"}}}
	cache := newMemCache()
	svc := NewService(provider, cache)

	first, err := svc.Search(ctx, "  Lofi Beats ")
	require.NoError(t, err)
	require.Len(t, first, 1)

	// Second call is served from cache, not the provider.
	second, err := svc.Search(ctx, "lofi beats")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, provider.searchCalls)

	assert.Contains(t, cache.entries, "search:lofi beats")
}

func TestSearch_EmptyQueryRejected(t *testing.T) {
	svc := NewService(&stubProvider{}, newMemCache())

	_, err := svc.Search(context.Background(), "   ")
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestSearch_CacheFailureFallsThrough(t *testing.T) {
	ctx := context.Background()
	provider := &stubProvider{tracks: []domain.Track{{ID: "1"}}}
	cache := newMemCache()
	cache.getErr = errors.New("redis down")
	svc := NewService(provider, cache)

	got, err := svc.Search(ctx, "jazz")
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, 1, provider.searchCalls)
}

func TestSearch_ProviderErrorPropagates(t *testing.T) {
	provider := &stubProvider{err: errors.New("upstream 500")}
	svc := NewService(provider, newMemCache())

	_, err := svc.Search(context.Background(), "jazz")
	assert.Error(t, err)
}

func TestTracksByIDs_KeyIsOrderInsensitive(t *testing.T) {
	ctx := context.Background()
	provider := &stubProvider{}
	cache := newMemCache()
	svc := NewService(provider, cache)

	_, err := svc.TracksByIDs(ctx, []string{"b", " a ", "c"})
	require.NoError(t, err)

	_, err = svc.TracksByIDs(ctx, []string{"c", "b", "a"})
	require.NoError(t, err)

	assert.Equal(t, 1, provider.trackCalls)
	assert.Contains(t, cache.entries, "tracks:a,b,c")
}

func TestTracksByIDs_AllBlankRejected(t *testing.T) {
	svc := NewService(&stubProvider{}, newMemCache())

	_, err := svc.TracksByIDs(context.Background(), []string{" ", ""})
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestTrack_CorruptCacheEntryIgnored(t *testing.T) {
	ctx := context.Background()
	provider := &stubProvider{}
	cache := newMemCache()
	cache.entries["track:42"] = "{not json"
	svc := NewService(provider, cache)

	got, err := svc.Track(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, "42", got.ID)
	assert.Equal(t, 1, provider.trackCalls)
}
