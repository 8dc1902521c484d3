package filestore

import (
	"time"
)

// ObjectInfo describes a single object stored in a bucket.
type ObjectInfo struct {
	// Key is the full object path within the bucket (e.g. "images/photo.jpg").
	Key string

	// Size is the byte size of the object. -1 if unknown.
	Size int64

	// ContentType is the MIME type (e.g. "image/jpeg"). Often empty in listings.
	ContentType string

	// ETag is the object's entity tag / hash, as returned by the backend.
	ETag string

	// LastModified is when the object was last written.
	// Zero if the backend did not report it.
	LastModified time.Time

	// IsDir is true when the entry represents a virtual directory (prefix),
	// not an actual stored object.
	IsDir bool
}

// ListOptions controls the shape of a single ListObjects page.
type ListOptions struct {
	// Recursive, when true, lists all objects in the bucket without
	// grouping by virtual directories. When false (default), common prefixes
	// (virtual "folders") are returned as IsDir entries.
	Recursive bool

	// Limit caps the number of results returned. 0 means use the backend default.
	// Drivers fetch at most one page of this size and never paginate past it.
	Limit int
}

// PresignOptions tunes a presigned GET URL.
type PresignOptions struct {
	// DownloadName, when set, asks the backend to serve the object with
	// Content-Disposition: attachment; filename=DownloadName.
	// Backends that cannot override response headers ignore it.
	DownloadName string
}

// PutOptions describes an object upload.
type PutOptions struct {
	// ContentType is stored with the object. Empty means application/octet-stream.
	ContentType string
}

// UnknownSize marks an ObjectInfo whose size the backend did not report.
const UnknownSize int64 = -1
