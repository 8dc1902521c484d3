package gallery

import (
	"time"

	"github.com/dustin/go-humanize"

	"github.com/koustreak/bucketgallery/internal/imagestore"
)

// Detail is the full-size view of one image.
type Detail struct {
	Key       string
	Name      string
	URL       string
	Size      string
	Modified  time.Time
	ExpiresAt time.Time
}

// NewDetail derives the detail view from entry.
func NewDetail(entry imagestore.ImageEntry) Detail {
	return Detail{
		Key:       entry.Key,
		Name:      entry.Name(),
		URL:       entry.URL,
		Size:      FormatSize(entry.Size),
		Modified:  entry.LastModified,
		ExpiresAt: entry.ExpiresAt,
	}
}

// FormatSize renders a byte count in 1024-based units, e.g. "1.5 KiB".
func FormatSize(n int64) string {
	if n < 0 {
		return "unknown"
	}
	return humanize.IBytes(uint64(n))
}
