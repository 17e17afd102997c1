// Package receipts stores uploaded receipt images and returns the public URL
// that is later saved on an expense.
package receipts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"

	"github.com/google/uuid"
)

var (
	ErrNotImage    = errors.New("file is not a supported image")
	ErrTooLarge    = errors.New("file is too large")
	ErrEmpty       = errors.New("file is empty")
	ErrInvalidName = errors.New("invalid receipt name")
)

// Store persists a prepared upload and returns its URL.
type Store interface {
	Save(ctx context.Context, u Upload) (string, error)
}

// Upload is a sniffed image ready to be stored under a fresh name.
type Upload struct {
	Name        string
	ContentType string
	Data        []byte
}

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

var namePattern = regexp.MustCompile(`^[0-9a-f-]{36}\.(jpg|png|gif|webp)$`)

// Prepare reads at most maxBytes from r, checks the content is an image
// and assigns a random file name.
func Prepare(r io.Reader, maxBytes int64) (Upload, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return Upload{}, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return Upload{}, ErrEmpty
	}
	if int64(len(data)) > maxBytes {
		return Upload{}, ErrTooLarge
	}

	contentType := http.DetectContentType(data)
	ext, ok := extensions[contentType]
	if !ok {
		return Upload{}, ErrNotImage
	}
	return Upload{
		Name:        uuid.NewString() + ext,
		ContentType: contentType,
		Data:        data,
	}, nil
}

// ValidName reports whether name could have been produced by Prepare.
func ValidName(name string) bool {
	return namePattern.MatchString(name)
}

func reader(u Upload) io.Reader { return bytes.NewReader(u.Data) }
