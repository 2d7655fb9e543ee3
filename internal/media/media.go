// Package media stores post images and audio outside the post record.
package media

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vincent-petithory/dataurl"
)

var ErrNotFound = errors.New("media not found")

// Store keeps binary media and hands back a reference (URL or path)
// that a post can carry in place of the embedded payload.
type Store interface {
	Put(ctx context.Context, name, contentType string, data []byte) (string, error)
	Delete(ctx context.Context, ref string) error
	// Owns reports whether ref was produced by this store.
	Owns(ref string) bool
	Accepts(contentType string) bool
}

// Reader is implemented by stores that can serve their own media.
type Reader interface {
	Open(ctx context.Context, id string) ([]byte, string, error)
}

func IsDataURL(s string) bool {
	return strings.HasPrefix(s, "data:")
}

// Decode unpacks a data: URL into its payload and content type.
func Decode(s string) ([]byte, string, error) {
	d, err := dataurl.DecodeString(s)
	if err != nil {
		return nil, "", fmt.Errorf("decode data url: %w", err)
	}
	contentType := fmt.Sprintf("%s/%s", d.Type, d.Subtype)
	return d.Data, contentType, nil
}
