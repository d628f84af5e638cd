package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/pulse-stream/pulse-api/internal/application/auth"
	"github.com/pulse-stream/pulse-api/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// AuthEnvelope wraps verified-login and refresh responses.
type AuthEnvelope struct {
	Bearer       string    `json:"Bearer,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	User         *SafeUser `json:"user,omitempty"`
	Message      string    `json:"message,omitempty"`
}

// SafeUser is the user view served to clients. No credential material.
type SafeUser struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	About     string    `json:"about,omitempty"`
	HasAvatar bool      `json:"has_avatar"`
	Created   time.Time `json:"created"`
}

func toSafeUser(u *domain.User) *SafeUser {
	if u == nil {
		return nil
	}
	return &SafeUser{
		ID:        u.UserID,
		Username:  u.Username,
		Email:     u.Email,
		About:     u.About,
		HasAvatar: u.AvatarKey != "",
		Created:   u.CreatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

// httpError maps service errors onto HTTP statuses. Unrecognized errors
// become an opaque 500 so internals never leak to clients.
func httpError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrBadRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, auth.ErrStalePasswordChange):
		writeError(w, http.StatusGone, "password change request expired, start over")
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
