package domain

// Track is the provider-agnostic track shape served by the catalog proxy.
// Both Jamendo and Spotify responses are mapped into it.
type Track struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Artist   string   `json:"artist"`
	AudioURL string   `json:"audioUrl"`
	Image    string   `json:"image"`
	Duration int      `json:"duration"`
	Album    string   `json:"album,omitempty"`
	Genres   []string `json:"genres"`
}

// Album groups tracks from the upstream catalog.
type Album struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Artist string  `json:"artist"`
	Image  string  `json:"image"`
	Tracks []Track `json:"tracks,omitempty"`
}
