package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pulse-stream/pulse-api/internal/domain"
)

const (
	apiURL   = "https://api.spotify.com/v1"
	tokenURL = "https://accounts.spotify.com/api/token"

	tokenCacheKey = "spotify:token"
)

// TokenCache stores the client-credentials access token between requests.
type TokenCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// Client talks to the Spotify Web API using the client-credentials flow.
// Spotify does not expose raw audio; tracks carry the 30-second preview URL.
type Client struct {
	httpClient      *http.Client
	clientID        string
	clientSecret    string
	market          string
	popularPlaylist string
	cache           TokenCache
	apiURL          string
	tokenURL        string
}

func NewClient(clientID, clientSecret, market, popularPlaylist string, cache TokenCache) *Client {
	return &Client{
		httpClient:      &http.Client{Timeout: 10 * time.Second},
		clientID:        clientID,
		clientSecret:    clientSecret,
		market:          market,
		popularPlaylist: popularPlaylist,
		cache:           cache,
		apiURL:          apiURL,
		tokenURL:        tokenURL,
	}
}

// NewClientWithURLs is used by tests against httptest servers.
func NewClientWithURLs(clientID, clientSecret, market, popularPlaylist string, cache TokenCache, api, token string) *Client {
	c := NewClient(clientID, clientSecret, market, popularPlaylist, cache)
	c.apiURL = api
	c.tokenURL = token
	return c
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

func (c *Client) token(ctx context.Context) (string, error) {
	if cached, found, err := c.cache.Get(ctx, tokenCacheKey); err == nil && found {
		return cached, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("spotify token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("spotify token endpoint responded %d", resp.StatusCode)
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", err
	}

	// Refresh ahead of expiry; never cache for less than a minute.
	ttl := tok.ExpiresIn - 60
	if ttl > 3500 {
		ttl = 3500
	}
	if ttl < 60 {
		ttl = 60
	}
	if err := c.cache.Set(ctx, tokenCacheKey, tok.AccessToken, time.Duration(ttl)*time.Second); err != nil {
		return "", err
	}

	return tok.AccessToken, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	tok, err := c.token(ctx)
	if err != nil {
		return err
	}

	u := c.apiURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+tok)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("spotify request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domain.ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("spotify responded %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

type spotifyImage struct {
	URL string `json:"url"`
}

type spotifyArtist struct {
	Name string `json:"name"`
}

type spotifyAlbumRef struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Images  []spotifyImage  `json:"images"`
	Artists []spotifyArtist `json:"artists"`
}

type spotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []spotifyArtist `json:"artists"`
	Album      spotifyAlbumRef `json:"album"`
	PreviewURL string          `json:"preview_url"`
	DurationMS int             `json:"duration_ms"`
}

func firstImage(images []spotifyImage) string {
	if len(images) == 0 {
		return ""
	}
	return images[0].URL
}

func joinArtists(artists []spotifyArtist) string {
	names := make([]string, 0, len(artists))
	for _, a := range artists {
		names = append(names, a.Name)
	}
	return strings.Join(names, ", ")
}

func toTrack(t spotifyTrack) domain.Track {
	return domain.Track{
		ID:       t.ID,
		Name:     t.Name,
		Artist:   joinArtists(t.Artists),
		AudioURL: t.PreviewURL,
		Image:    firstImage(t.Album.Images),
		Duration: t.DurationMS / 1000,
		Album:    t.Album.Name,
	}
}

func toTracks(ts []spotifyTrack) []domain.Track {
	tracks := make([]domain.Track, 0, len(ts))
	for _, t := range ts {
		tracks = append(tracks, toTrack(t))
	}
	return tracks
}

func (c *Client) Search(ctx context.Context, query string, limit int) ([]domain.Track, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("type", "track")
	params.Set("market", c.market)
	params.Set("limit", fmt.Sprint(limit))

	var out struct {
		Tracks struct {
			Items []spotifyTrack `json:"items"`
		} `json:"tracks"`
	}
	if err := c.get(ctx, "/search", params, &out); err != nil {
		return nil, err
	}
	return toTracks(out.Tracks.Items), nil
}

func (c *Client) Track(ctx context.Context, id string) (*domain.Track, error) {
	var out spotifyTrack
	if err := c.get(ctx, "/tracks/"+id, url.Values{"market": {c.market}}, &out); err != nil {
		return nil, err
	}
	track := toTrack(out)
	return &track, nil
}

func (c *Client) Popular(ctx context.Context, limit int) ([]domain.Track, error) {
	params := url.Values{}
	params.Set("market", c.market)
	params.Set("limit", fmt.Sprint(limit))

	var out struct {
		Items []struct {
			Track spotifyTrack `json:"track"`
		} `json:"items"`
	}
	if err := c.get(ctx, "/playlists/"+c.popularPlaylist+"/tracks", params, &out); err != nil {
		return nil, err
	}

	tracks := make([]domain.Track, 0, len(out.Items))
	for _, item := range out.Items {
		tracks = append(tracks, toTrack(item.Track))
	}
	return tracks, nil
}

func (c *Client) Albums(ctx context.Context, query string, limit int) ([]domain.Album, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("type", "album")
	params.Set("market", c.market)
	params.Set("limit", fmt.Sprint(limit))

	var out struct {
		Albums struct {
			Items []spotifyAlbumRef `json:"items"`
		} `json:"albums"`
	}
	if err := c.get(ctx, "/search", params, &out); err != nil {
		return nil, err
	}

	albums := make([]domain.Album, 0, len(out.Albums.Items))
	for _, a := range out.Albums.Items {
		albums = append(albums, domain.Album{
			ID:     a.ID,
			Name:   a.Name,
			Artist: joinArtists(a.Artists),
			Image:  firstImage(a.Images),
		})
	}
	return albums, nil
}

func (c *Client) Album(ctx context.Context, id string) (*domain.Album, error) {
	var out struct {
		spotifyAlbumRef
		Tracks struct {
			Items []spotifyTrack `json:"items"`
		} `json:"tracks"`
	}
	if err := c.get(ctx, "/albums/"+id, url.Values{"market": {c.market}}, &out); err != nil {
		return nil, err
	}

	album := domain.Album{
		ID:     out.ID,
		Name:   out.Name,
		Artist: joinArtists(out.Artists),
		Image:  firstImage(out.Images),
		Tracks: toTracks(out.Tracks.Items),
	}
	// Album track objects carry no album reference of their own.
	for i := range album.Tracks {
		album.Tracks[i].Album = album.Name
		if album.Tracks[i].Image == "" {
			album.Tracks[i].Image = album.Image
		}
	}
	return &album, nil
}

func (c *Client) TracksByIDs(ctx context.Context, ids []string) ([]domain.Track, error) {
	// The tracks endpoint accepts at most 50 ids per call.
	tracks := make([]domain.Track, 0, len(ids))
	for start := 0; start < len(ids); start += 50 {
		end := start + 50
		if end > len(ids) {
			end = len(ids)
		}

		params := url.Values{}
		params.Set("ids", strings.Join(ids[start:end], ","))
		params.Set("market", c.market)

		var out struct {
			Tracks []spotifyTrack `json:"tracks"`
		}
		if err := c.get(ctx, "/tracks", params, &out); err != nil {
			return nil, err
		}
		tracks = append(tracks, toTracks(out.Tracks)...)
	}
	return tracks, nil
}
