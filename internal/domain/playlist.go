package domain

import "time"

type Playlist struct {
	PlaylistID string    `json:"id" dynamodbav:"playlist_id"`
	UserID     string    `json:"user_id" dynamodbav:"user_id"`
	Name       string    `json:"name" dynamodbav:"name"`
	Tracks     []string  `json:"tracks" dynamodbav:"tracks"`
	CoverURL   string    `json:"cover_url,omitempty" dynamodbav:"cover_url"`
	CreatedAt  time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt  time.Time `json:"updated" dynamodbav:"updated_at"`
}

type CreatePlaylistRequest struct {
	Name   string   `json:"name" validate:"required,min=1,max=100"`
	Tracks []string `json:"tracks"`
}

type UpdatePlaylistRequest struct {
	Name   *string   `json:"name" validate:"omitempty,min=1,max=100"`
	Tracks *[]string `json:"tracks"`
}
