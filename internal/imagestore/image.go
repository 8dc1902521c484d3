package imagestore

import (
	"strconv"
	"strings"
	"time"
)

// ImageExtensions are the key suffixes, compared case-insensitively, that
// make an object show up in the gallery.
var ImageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".webp", ".svg"}

// ImageEntry is one listed image with a freshly signed URL.
// URL must not be used after ExpiresAt.
type ImageEntry struct {
	Key          string    `json:"key"`
	URL          string    `json:"url"`
	LastModified time.Time `json:"lastModified"`
	Size         int64     `json:"size"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// Name returns the last path segment of the key, or the key itself.
func (e ImageEntry) Name() string {
	return DisplayName(e.Key)
}

// IsImageKey reports whether key ends in one of ImageExtensions.
func IsImageKey(key string) bool {
	lower := strings.ToLower(key)
	for _, ext := range ImageExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// DisplayName returns the last path segment of key, or key when that
// segment is empty.
func DisplayName(key string) string {
	if name := key[strings.LastIndex(key, "/")+1:]; name != "" {
		return name
	}
	return key
}

// UploadKey is the key used when the caller does not choose one:
// uploads/<epoch-millis>-<filename>.
func UploadKey(now time.Time, filename string) string {
	return "uploads/" + strconv.FormatInt(now.UnixMilli(), 10) + "-" + filename
}
