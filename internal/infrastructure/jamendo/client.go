package jamendo

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pulse-stream/pulse-api/internal/domain"
)

const baseURL = "https://api.jamendo.com/v3.0"

// Client talks to the Jamendo public catalog API.
type Client struct {
	httpClient *http.Client
	clientID   string
	baseURL    string
}

func NewClient(clientID string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		clientID:   clientID,
		baseURL:    baseURL,
	}
}

// NewClientWithBaseURL is used by tests against an httptest server.
func NewClientWithBaseURL(clientID, base string) *Client {
	c := NewClient(clientID)
	c.baseURL = base
	return c
}

type trackResult struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	ArtistName string `json:"artist_name"`
	Audio      string `json:"audio"`
	Image      string `json:"image"`
	Duration   int    `json:"duration"`
	AlbumName  string `json:"album_name"`
	MusicInfo  struct {
		Tags struct {
			Genres []string `json:"genres"`
		} `json:"tags"`
	} `json:"musicinfo"`
}

type albumResult struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	ArtistName string `json:"artist_name"`
	Image      string `json:"image"`
}

type tracksResponse struct {
	Results []trackResult `json:"results"`
}

type albumsResponse struct {
	Results []albumResult `json:"results"`
}

type albumTracksResponse struct {
	Results []struct {
		albumResult
		Tracks []trackResult `json:"tracks"`
	} `json:"results"`
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	params.Set("client_id", c.clientID)
	params.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("jamendo request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("jamendo responded %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func toTrack(r trackResult) domain.Track {
	return domain.Track{
		ID: r.ID,
		// Jamendo HTML-escapes names ("AC&amp;DC").
		Name:     html.UnescapeString(r.Name),
		Artist:   html.UnescapeString(r.ArtistName),
		AudioURL: r.Audio,
		Image:    r.Image,
		Duration: r.Duration,
		Album:    html.UnescapeString(r.AlbumName),
		Genres:   r.MusicInfo.Tags.Genres,
	}
}

func toTracks(rs []trackResult) []domain.Track {
	tracks := make([]domain.Track, 0, len(rs))
	for _, r := range rs {
		tracks = append(tracks, toTrack(r))
	}
	return tracks
}

func (c *Client) Search(ctx context.Context, query string, limit int) ([]domain.Track, error) {
	params := url.Values{}
	params.Set("search", query)
	params.Set("limit", fmt.Sprint(limit))
	params.Set("audioformat", "mp32")
	params.Set("include", "musicinfo")

	var out tracksResponse
	if err := c.get(ctx, "/tracks/", params, &out); err != nil {
		return nil, err
	}
	return toTracks(out.Results), nil
}

func (c *Client) Track(ctx context.Context, id string) (*domain.Track, error) {
	params := url.Values{}
	params.Set("id", id)
	params.Set("audioformat", "mp32")
	params.Set("include", "musicinfo")

	var out tracksResponse
	if err := c.get(ctx, "/tracks/", params, &out); err != nil {
		return nil, err
	}
	if len(out.Results) == 0 {
		return nil, fmt.Errorf("track %s: %w", id, domain.ErrNotFound)
	}
	track := toTrack(out.Results[0])
	return &track, nil
}

func (c *Client) Popular(ctx context.Context, limit int) ([]domain.Track, error) {
	params := url.Values{}
	params.Set("order", "popularity_week")
	params.Set("limit", fmt.Sprint(limit))
	params.Set("audioformat", "mp32")
	params.Set("include", "musicinfo")

	var out tracksResponse
	if err := c.get(ctx, "/tracks/", params, &out); err != nil {
		return nil, err
	}
	return toTracks(out.Results), nil
}

func (c *Client) Albums(ctx context.Context, query string, limit int) ([]domain.Album, error) {
	params := url.Values{}
	params.Set("namesearch", query)
	params.Set("limit", fmt.Sprint(limit))

	var out albumsResponse
	if err := c.get(ctx, "/albums/", params, &out); err != nil {
		return nil, err
	}

	albums := make([]domain.Album, 0, len(out.Results))
	for _, r := range out.Results {
		albums = append(albums, domain.Album{
			ID:     r.ID,
			Name:   html.UnescapeString(r.Name),
			Artist: html.UnescapeString(r.ArtistName),
			Image:  r.Image,
		})
	}
	return albums, nil
}

func (c *Client) Album(ctx context.Context, id string) (*domain.Album, error) {
	params := url.Values{}
	params.Set("id", id)

	var out albumTracksResponse
	if err := c.get(ctx, "/albums/tracks/", params, &out); err != nil {
		return nil, err
	}
	if len(out.Results) == 0 {
		return nil, fmt.Errorf("album %s: %w", id, domain.ErrNotFound)
	}

	r := out.Results[0]
	album := domain.Album{
		ID:     r.ID,
		Name:   html.UnescapeString(r.Name),
		Artist: html.UnescapeString(r.ArtistName),
		Image:  r.Image,
		Tracks: toTracks(r.Tracks),
	}
	// Jamendo omits artist and album names on nested tracks.
	for i := range album.Tracks {
		if album.Tracks[i].Artist == "" {
			album.Tracks[i].Artist = album.Artist
		}
		if album.Tracks[i].Album == "" {
			album.Tracks[i].Album = album.Name
		}
	}
	return &album, nil
}

func (c *Client) TracksByIDs(ctx context.Context, ids []string) ([]domain.Track, error) {
	params := url.Values{}
	params.Set("id", strings.Join(ids, "+"))
	params.Set("limit", fmt.Sprint(len(ids)))
	params.Set("audioformat", "mp32")
	params.Set("include", "musicinfo")

	var out tracksResponse
	if err := c.get(ctx, "/tracks/", params, &out); err != nil {
		return nil, err
	}
	return toTracks(out.Results), nil
}
