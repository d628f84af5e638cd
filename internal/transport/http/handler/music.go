package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/pulse-stream/pulse-api/internal/application/catalog"
)

// MusicHandler serves the cached upstream catalog.
type MusicHandler struct {
	svc catalog.Service
}

func NewMusicHandler(svc catalog.Service) *MusicHandler { return &MusicHandler{svc: svc} }

func (h *MusicHandler) Search(w http.ResponseWriter, r *http.Request) {
	tracks, err := h.svc.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tracks)
}

func (h *MusicHandler) Track(w http.ResponseWriter, r *http.Request) {
	track, err := h.svc.Track(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, track)
}

func (h *MusicHandler) Popular(w http.ResponseWriter, r *http.Request) {
	tracks, err := h.svc.Popular(r.Context())
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tracks)
}

func (h *MusicHandler) Albums(w http.ResponseWriter, r *http.Request) {
	albums, err := h.svc.Albums(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, albums)
}

func (h *MusicHandler) Album(w http.ResponseWriter, r *http.Request) {
	album, err := h.svc.Album(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, album)
}

func (h *MusicHandler) TracksByIDs(w http.ResponseWriter, r *http.Request) {
	ids := strings.Split(r.URL.Query().Get("ids"), ",")
	tracks, err := h.svc.TracksByIDs(r.Context(), ids)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tracks)
}
