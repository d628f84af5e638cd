package jamendo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/pulse-stream/pulse-api/internal/domain"
)

func TestSearch_MapsTracks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tracks/", r.URL.Path)
		assert.Equal(t, "test-client", r.URL.Query().Get("client_id"))
		assert.Equal(t, "lofi", r.URL.Query().Get("search"))
		assert.Equal(t, "mp32", r.URL.Query().Get("audioformat"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[{
			"id":"168",
			"name":"Night &amp; Day",
			"artist_name":"AC&amp;DC Tribute",
			"audio":"https://cdn.example.com/168.mp3",
			"image":"https://cdn.example.com/168.jpg",
			"duration":215,
			"album_name":"Sessions",
			"musicinfo":{"tags":{"genres":["lofi","chillout"]}}
		}]}`))
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("test-client", srv.URL)
	tracks, err := c.Search(context.Background(), "lofi", 20)
	require.NoError(t, err)
	require.Len(t, tracks, 1)

	got := tracks[0]
	assert.Equal(t, "168", got.ID)
	assert.Equal(t, "Night & Day", got.Name)
	assert.Equal(t, "AC&DC Tribute", got.Artist)
	assert.Equal(t, "https://cdn.example.com/168.mp3", got.AudioURL)
	assert.Equal(t, 215, got.Duration)
	assert.Equal(t, []string{"lofi", "chillout"}, got.Genres)
}

func TestTrack_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("test-client", srv.URL)
	_, err := c.Track(context.Background(), "999")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAlbum_FillsMissingTrackFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/albums/tracks/", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[{
			"id":"55",
			"name":"Sessions",
			"artist_name":"Moonlit",
			"image":"https://cdn.example.com/55.jpg",
			"tracks":[{"id":"1","name":"Opener","audio":"https://cdn.example.com/1.mp3","duration":120}]
		}]}`))
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("test-client", srv.URL)
	album, err := c.Album(context.Background(), "55")
	require.NoError(t, err)
	require.Len(t, album.Tracks, 1)

	// Nested track objects omit artist and album; inherit from the album.
	assert.Equal(t, "Moonlit", album.Tracks[0].Artist)
	assert.Equal(t, "Sessions", album.Tracks[0].Album)
}

func TestGet_UpstreamErrorPropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("test-client", srv.URL)
	_, err := c.Search(context.Background(), "lofi", 20)
	assert.Error(t, err)
}
