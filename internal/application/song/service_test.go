package song

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/pulse-stream/pulse-api/internal/domain"
)

func TestCurate(t *testing.T) {
	tests := []struct {
		name  string
		song  domain.UploadedSong
		score int
	}{
		{
			name: "full marks",
			song: domain.UploadedSong{
				Title:    "A perfectly descriptive sixty character song title for sure!",
				MimeType: "audio/mpeg",
				Size:     5 << 20,
				CoverKey: "songs/u1/x-cover-art.png",
			},
			score: 100,
		},
		{
			name: "no cover short title unusual format",
			song: domain.UploadedSong{
				Title:    "hi",
				MimeType: "audio/x-midi",
				Size:     1 << 20,
			},
			score: 6,
		},
		{
			name: "preferred format ok size no cover",
			song: domain.UploadedSong{
				Title:    "Sunset Drive",
				MimeType: "audio/flac",
				Size:     4 << 20,
			},
			score: 36,
		},
		{
			name: "title points cap at 30",
			song: domain.UploadedSong{
				Title:    string(make([]byte, 200)),
				MimeType: "audio/ogg",
				Size:     3 << 20,
			},
			score: 60,
		},
		{
			name:  "empty upload",
			song:  domain.UploadedSong{},
			score: 5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			curate(&tt.song)
			assert.Equal(t, tt.score, tt.song.CurationScore)
		})
	}
}

func TestSizeQuality(t *testing.T) {
	assert.Equal(t, domain.SizeQualityUnknown, sizeQuality(0))
	assert.Equal(t, domain.SizeQualitySmall, sizeQuality(1<<20))
	assert.Equal(t, domain.SizeQualityOK, sizeQuality(2<<20))
	assert.Equal(t, domain.SizeQualityOK, sizeQuality(15<<20))
	assert.Equal(t, domain.SizeQualityLarge, sizeQuality(15<<20+1))
}

func TestSafeName(t *testing.T) {
	assert.Equal(t, "my_song_final_.mp3", safeName("my song (final).mp3"))
	assert.Equal(t, "track-01.flac", safeName("track-01.flac"))

	long := safeName(string(make([]byte, 300)) + "tail.mp3")
	assert.LessOrEqual(t, len(long), 80)
	assert.Contains(t, long, "tail.mp3")
}
