package domain

import "time"

// Favorite marks a catalog track as favorited by a user.
// PK: user_id, SK: track_id. Re-adding is an overwrite, set semantics.
type Favorite struct {
	UserID  string    `json:"-" dynamodbav:"user_id"`
	TrackID string    `json:"track_id" dynamodbav:"track_id"`
	AddedAt time.Time `json:"added_at" dynamodbav:"added_at"`
}

// ListenEvent records one playback of a track.
// PK: user_id, SK: listened_at (RFC3339Nano, sortable).
type ListenEvent struct {
	UserID     string    `json:"-" dynamodbav:"user_id"`
	ListenedAt time.Time `json:"listened_at" dynamodbav:"listened_at"`
	TrackID    string    `json:"track_id" dynamodbav:"track_id"`
}
