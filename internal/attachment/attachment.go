// Package attachment validates and encodes the single image that may be
// staged with a chat message.
package attachment

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// MaxInlineBytes is the largest payload the generation API accepts inline
const MaxInlineBytes = 20 << 20

var (
	ErrEmptyPayload = errors.New("attachment is empty")
	ErrTooLarge     = fmt.Errorf("attachment exceeds the %d MB inline limit", MaxInlineBytes>>20)
)

// File is a user-selected file with its declared media type
type File struct {
	Name      string
	MediaType string
	Data      []byte
}

// Inline is a base64 payload ready to be embedded in a request body
type Inline struct {
	MediaType string
	Data      string
}

// IsImage reports whether mediaType declares an image
func IsImage(mediaType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(mediaType)), "image/")
}

// LoadFile reads path and detects its media type from the content
func LoadFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("failed to read attachment: %w", err)
	}

	mediaType := mimetype.Detect(data).String()
	if i := strings.Index(mediaType, ";"); i >= 0 {
		mediaType = mediaType[:i]
	}

	return File{
		Name:      filepath.Base(path),
		MediaType: mediaType,
		Data:      data,
	}, nil
}

// Encode converts f to its inline representation.
// The caller is expected to have checked IsImage already.
func Encode(ctx context.Context, f File) (Inline, error) {
	if err := ctx.Err(); err != nil {
		return Inline{}, err
	}
	if len(f.Data) == 0 {
		return Inline{}, fmt.Errorf("%s: %w", f.Name, ErrEmptyPayload)
	}
	if len(f.Data) > MaxInlineBytes {
		return Inline{}, fmt.Errorf("%s: %w", f.Name, ErrTooLarge)
	}

	return Inline{
		MediaType: f.MediaType,
		Data:      base64.StdEncoding.EncodeToString(f.Data),
	}, nil
}
