package song

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/pulse-stream/pulse-api/internal/domain"
	"github.com/pulse-stream/pulse-api/internal/infrastructure/dynamo"
	s3infra "github.com/pulse-stream/pulse-api/internal/infrastructure/s3"
	"github.com/pulse-stream/pulse-api/internal/pkg/id"
)

const (
	// MaxAudioSize is also the multipart parse limit at the handler.
	MaxAudioSize = 15 << 20
	MaxCoverSize = 5 << 20

	sizeOKMin = 2 << 20
)

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// preferredAudioTypes are formats that score higher during curation.
var preferredAudioTypes = map[string]bool{
	"audio/mp3":  true,
	"audio/mpeg": true,
	"audio/aac":  true,
	"audio/flac": true,
	"audio/wav":  true,
	"audio/ogg":  true,
}

// UploadInput carries one multipart song upload. Cover is optional.
type UploadInput struct {
	Title         string
	OriginalName  string
	Size          int64
	MimeType      string
	Audio         io.Reader
	CoverName     string
	CoverSize     int64
	CoverMimeType string
	Cover         io.Reader
}

// StreamOutput is an S3 object body plus the metadata needed to serve it.
type StreamOutput struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
}

type Service interface {
	Upload(ctx context.Context, userID string, input UploadInput) (*domain.UploadedSong, error)
	List(ctx context.Context, userID string) ([]domain.UploadedSong, error)
	Delete(ctx context.Context, userID, songID string) error
	Stream(ctx context.Context, userID, songID string) (*StreamOutput, error)
	StreamCover(ctx context.Context, userID, songID string) (*StreamOutput, error)
}

type service struct {
	songRepo *dynamo.SongRepo
	store    *s3infra.Store
}

func NewService(songRepo *dynamo.SongRepo, store *s3infra.Store) Service {
	return &service{songRepo: songRepo, store: store}
}

// safeName keeps only filesystem-friendly characters from an uploaded
// filename so it can be embedded in an S3 key.
func safeName(name string) string {
	name = unsafeNameChars.ReplaceAllString(name, "_")
	if len(name) > 80 {
		name = name[len(name)-80:]
	}
	return name
}

func sizeQuality(size int64) string {
	switch {
	case size <= 0:
		return domain.SizeQualityUnknown
	case size < sizeOKMin:
		return domain.SizeQualitySmall
	case size <= MaxAudioSize:
		return domain.SizeQualityOK
	default:
		return domain.SizeQualityLarge
	}
}

// curate scores an upload for discoverability: cover art and a real
// title matter most, then format, then a sane file size.
func curate(song *domain.UploadedSong) {
	c := domain.Curation{
		HasCover:       song.CoverKey != "",
		TitleLength:    len(song.Title),
		PreferredAudio: preferredAudioTypes[song.MimeType],
		SizeQuality:    sizeQuality(song.Size),
	}

	score := 0
	if c.HasCover {
		score += 40
	}

	titlePoints := c.TitleLength / 2
	if titlePoints > 30 {
		titlePoints = 30
	}
	score += titlePoints

	if c.PreferredAudio {
		score += 20
	} else {
		score += 5
	}

	switch c.SizeQuality {
	case domain.SizeQualityOK:
		score += 10
	case domain.SizeQualityLarge:
		score += 5
	}

	song.Curation = c
	song.CurationScore = score
}

func (s *service) Upload(ctx context.Context, userID string, input UploadInput) (*domain.UploadedSong, error) {
	if !strings.HasPrefix(input.MimeType, "audio/") {
		return nil, fmt.Errorf("file must be audio, got %q: %w", input.MimeType, domain.ErrBadRequest)
	}
	if input.Size > MaxAudioSize {
		return nil, fmt.Errorf("audio exceeds %d bytes: %w", MaxAudioSize, domain.ErrBadRequest)
	}
	if input.Cover != nil && !strings.HasPrefix(input.CoverMimeType, "image/") {
		return nil, fmt.Errorf("cover must be an image, got %q: %w", input.CoverMimeType, domain.ErrBadRequest)
	}
	if input.CoverSize > MaxCoverSize {
		return nil, fmt.Errorf("cover exceeds %d bytes: %w", MaxCoverSize, domain.ErrBadRequest)
	}

	songID := id.New()
	objectKey := fmt.Sprintf("songs/%s/%s-%s", userID, songID, safeName(input.OriginalName))
	if _, err := s.store.Upload(ctx, objectKey, input.Audio, input.MimeType); err != nil {
		return nil, fmt.Errorf("store audio: %w", err)
	}

	song := &domain.UploadedSong{
		SongID:       songID,
		UserID:       userID,
		Title:        strings.TrimSpace(input.Title),
		OriginalName: input.OriginalName,
		Size:         input.Size,
		MimeType:     input.MimeType,
		ObjectKey:    objectKey,
		CreatedAt:    time.Now().UTC(),
	}

	if input.Cover != nil {
		coverKey := fmt.Sprintf("songs/%s/%s-cover-%s", userID, songID, safeName(input.CoverName))
		if _, err := s.store.Upload(ctx, coverKey, input.Cover, input.CoverMimeType); err != nil {
			// Keep the song; retrying the cover means re-uploading.
			slog.Warn("cover upload failed", "song_id", songID, "error", err)
		} else {
			song.CoverKey = coverKey
			song.CoverMimeType = input.CoverMimeType
		}
	}

	curate(song)

	if err := s.songRepo.Put(ctx, song); err != nil {
		return nil, fmt.Errorf("store song metadata: %w", err)
	}
	return song, nil
}

func (s *service) List(ctx context.Context, userID string) ([]domain.UploadedSong, error) {
	return s.songRepo.ListByUser(ctx, userID)
}

// ownedSong loads a song and hides its existence from non-owners.
func (s *service) ownedSong(ctx context.Context, userID, songID string) (*domain.UploadedSong, error) {
	song, err := s.songRepo.Get(ctx, songID)
	if err != nil {
		return nil, err
	}
	if song.UserID != userID {
		return nil, fmt.Errorf("song not found: %w", domain.ErrNotFound)
	}
	return song, nil
}

func (s *service) Delete(ctx context.Context, userID, songID string) error {
	song, err := s.ownedSong(ctx, userID, songID)
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, song.ObjectKey); err != nil {
		return fmt.Errorf("delete audio object: %w", err)
	}
	if song.CoverKey != "" {
		if err := s.store.Delete(ctx, song.CoverKey); err != nil {
			slog.Warn("cover object delete failed", "song_id", songID, "error", err)
		}
	}

	return s.songRepo.Delete(ctx, songID)
}

func (s *service) Stream(ctx context.Context, userID, songID string) (*StreamOutput, error) {
	song, err := s.ownedSong(ctx, userID, songID)
	if err != nil {
		return nil, err
	}

	body, err := s.store.Download(ctx, song.ObjectKey)
	if err != nil {
		return nil, err
	}
	return &StreamOutput{Body: body, ContentType: song.MimeType, Size: song.Size}, nil
}

func (s *service) StreamCover(ctx context.Context, userID, songID string) (*StreamOutput, error) {
	song, err := s.ownedSong(ctx, userID, songID)
	if err != nil {
		return nil, err
	}
	if song.CoverKey == "" {
		return nil, fmt.Errorf("song has no cover: %w", domain.ErrNotFound)
	}

	body, err := s.store.Download(ctx, song.CoverKey)
	if err != nil {
		return nil, err
	}
	return &StreamOutput{Body: body, ContentType: song.CoverMimeType}, nil
}
