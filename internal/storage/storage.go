package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"time"
)

var (
	ErrInvalidUploadType = errors.New("invalid upload type")
	ErrUnavailable       = errors.New("object storage unavailable")
)

// Store writes objects and hands out time limited read URLs for them.
type Store interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error)
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

var uploadFolders = map[string]string{
	"cover":   "Cover Images",
	"preview": "Preview Files",
	"full":    "Full Books",
}

// FolderFor maps an upload type to the folder its objects live under.
func FolderFor(uploadType string) (string, error) {
	folder, ok := uploadFolders[uploadType]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidUploadType, uploadType)
	}
	return folder, nil
}

var whitespace = regexp.MustCompile(`\s+`)

// ObjectKey names an uploaded file: <folder>/<unix millis>_<file name>, with
// whitespace runs in the file name replaced by a single underscore.
func ObjectKey(folder, fileName string, now time.Time) string {
	return fmt.Sprintf("%s/%d_%s", folder, now.UnixMilli(), whitespace.ReplaceAllString(fileName, "_"))
}

// Disabled stands in when no bucket is configured; every call reports
// ErrUnavailable.
type Disabled struct{}

func (Disabled) Upload(context.Context, string, string, io.Reader) (string, error) {
	return "", ErrUnavailable
}

func (Disabled) SignedURL(context.Context, string, time.Duration) (string, error) {
	return "", ErrUnavailable
}
