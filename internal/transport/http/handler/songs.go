package handler

import (
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/pulse-stream/pulse-api/internal/application/song"
)

// SongHandler handles user-uploaded songs.
type SongHandler struct {
	svc song.Service
}

func NewSongHandler(svc song.Service) *SongHandler { return &SongHandler{svc: svc} }

func (h *SongHandler) Upload(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(song.MaxAudioSize + song.MaxCoverSize); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	audio, audioHeader, err := r.FormFile("song")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing song field")
		return
	}
	defer audio.Close()

	input := song.UploadInput{
		Title:        r.FormValue("title"),
		OriginalName: audioHeader.Filename,
		Size:         audioHeader.Size,
		MimeType:     audioHeader.Header.Get("Content-Type"),
		Audio:        audio,
	}

	if cover, coverHeader, err := r.FormFile("cover"); err == nil {
		defer cover.Close()
		input.Cover = cover
		input.CoverName = coverHeader.Filename
		input.CoverSize = coverHeader.Size
		input.CoverMimeType = coverHeader.Header.Get("Content-Type")
	}

	uploaded, err := h.svc.Upload(r.Context(), uid, input)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, uploaded)
}

func (h *SongHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	songs, err := h.svc.List(r.Context(), uid)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, songs)
}

func (h *SongHandler) Delete(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), uid, chi.URLParam(r, "id")); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "song deleted"})
}

func (h *SongHandler) Stream(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	out, err := h.svc.Stream(r.Context(), uid, chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	defer out.Body.Close()

	w.Header().Set("Content-Type", out.ContentType)
	if out.Size > 0 {
		w.Header().Set("Content-Length", fmt.Sprint(out.Size))
	}
	_, _ = io.Copy(w, out.Body)
}

func (h *SongHandler) Cover(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	out, err := h.svc.StreamCover(r.Context(), uid, chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	defer out.Body.Close()

	w.Header().Set("Content-Type", out.ContentType)
	_, _ = io.Copy(w, out.Body)
}
