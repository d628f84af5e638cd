package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/pulse-stream/pulse-api/internal/application/profile"
)

// ProfileHandler handles the caller's own profile.
type ProfileHandler struct {
	svc profile.Service
}

func NewProfileHandler(svc profile.Service) *ProfileHandler { return &ProfileHandler{svc: svc} }

func (h *ProfileHandler) Me(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	user, err := h.svc.Get(r.Context(), uid)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSafeUser(user))
}

func (h *ProfileHandler) UpdateAbout(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	var req struct {
		About string `json:"about"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.svc.UpdateAbout(r.Context(), uid, req.About); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "about updated"})
}

func (h *ProfileHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(profile.MaxAvatarSize); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	f, header, err := r.FormFile("avatar")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing avatar field")
		return
	}
	defer f.Close()

	if err := h.svc.UploadAvatar(r.Context(), uid, f, header.Size, header.Header.Get("Content-Type")); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, MessageEnvelope{Message: "avatar updated"})
}

func (h *ProfileHandler) Avatar(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	out, err := h.svc.Avatar(r.Context(), uid)
	if err != nil {
		httpError(w, err)
		return
	}
	defer out.Body.Close()

	w.Header().Set("Content-Type", out.ContentType)
	_, _ = io.Copy(w, out.Body)
}
