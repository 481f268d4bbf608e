// Package storage provides the storage abstraction layer for uploaded résumé files.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no file exists under the requested stored name.
var ErrNotFound = errors.New("file not found")

// ErrStorage wraps failures of the backing store (unwritable root, stream
// errors mid-transfer). Callers render it as a user-facing message; it is
// never fatal to the process.
var ErrStorage = errors.New("storage failure")

// UploadedFile describes one stored résumé. The stored name is the physical
// key in the backing store; the original name is whatever the uploader
// supplied and is kept only in the index, never in a path.
type UploadedFile struct {
	StoredName   string    `json:"stored_name"`
	OriginalName string    `json:"original_name"`
	Size         int64     `json:"size"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

// Store persists and enumerates uploaded files.
// Implementations must be safe for concurrent use.
type Store interface {
	// Save reads content to completion and persists it under a freshly
	// generated stored name. The original name is recorded in the index
	// but never influences the storage path.
	Save(ctx context.Context, originalName string, content io.Reader) (UploadedFile, error)
	// Open returns the file bytes and metadata for a stored name.
	Open(ctx context.Context, storedName string) (io.ReadCloser, UploadedFile, error)
	// List enumerates the current store contents, sorted by stored name.
	List(ctx context.Context) ([]UploadedFile, error)
}

// Index maps stored names back to upload metadata, most importantly the
// untrusted original filename.
type Index interface {
	Record(file UploadedFile) error
	Lookup(storedName string) (UploadedFile, bool, error)
}

// NewStoredName generates the physical key for an upload: a millisecond
// timestamp for chronological ordering, a UUID to rule out collisions, and
// a sanitized copy of the original extension. The original name itself is
// deliberately absent so arbitrary input can never shape the path.
func NewStoredName(originalName string, now time.Time) string {
	return fmt.Sprintf("%d-%s%s", now.UnixMilli(), uuid.NewString(), SanitizeExt(originalName))
}

// SanitizeExt extracts the extension of an untrusted filename, keeping only
// ASCII letters and digits. Anything else (separators, dots, traversal
// attempts) yields an empty extension.
func SanitizeExt(name string) string {
	idx := strings.LastIndexByte(name, '.')
	if idx < 0 || idx == len(name)-1 {
		return ""
	}
	ext := name[idx+1:]
	if len(ext) > 10 {
		return ""
	}
	for _, r := range ext {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		default:
			return ""
		}
	}
	return "." + strings.ToLower(ext)
}

// ValidStoredName reports whether a client-supplied name could have been
// produced by NewStoredName. Serving handlers reject anything else, so a
// request can never reference a path outside the upload root.
func ValidStoredName(name string) bool {
	if name == "" || len(name) > 128 {
		return false
	}
	if name[0] == '.' || name[0] == '-' {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '-' || r == '.':
		default:
			return false
		}
	}
	return !strings.Contains(name, "..")
}
