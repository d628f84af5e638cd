package domain

import "time"

// SizeQuality buckets an upload's byte size for curation scoring.
const (
	SizeQualitySmall   = "small"
	SizeQualityOK      = "ok"
	SizeQualityLarge   = "large"
	SizeQualityUnknown = "unknown"
)

// Curation holds the individual signals behind a song's curation score.
type Curation struct {
	HasCover       bool   `json:"has_cover" dynamodbav:"has_cover"`
	TitleLength    int    `json:"title_length" dynamodbav:"title_length"`
	PreferredAudio bool   `json:"preferred_audio" dynamodbav:"preferred_audio"`
	SizeQuality    string `json:"size_quality" dynamodbav:"size_quality"`
}

// UploadedSong is a user-uploaded audio file. The audio bytes and optional
// cover art live in the blob store; this row carries the metadata.
type UploadedSong struct {
	SongID        string    `json:"id" dynamodbav:"song_id"`
	UserID        string    `json:"user_id" dynamodbav:"user_id"`
	Title         string    `json:"title,omitempty" dynamodbav:"title"`
	OriginalName  string    `json:"original_name" dynamodbav:"original_name"`
	Size          int64     `json:"size" dynamodbav:"size"`
	MimeType      string    `json:"mime_type" dynamodbav:"mime_type"`
	ObjectKey     string    `json:"-" dynamodbav:"object_key"`
	CoverKey      string    `json:"-" dynamodbav:"cover_key"`
	CoverMimeType string    `json:"cover_mime_type,omitempty" dynamodbav:"cover_mime_type"`
	CurationScore int       `json:"curation_score" dynamodbav:"curation_score"`
	Curation      Curation  `json:"curation" dynamodbav:"curation"`
	CreatedAt     time.Time `json:"created" dynamodbav:"created_at"`
}
