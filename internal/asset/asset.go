// Package asset fetches detail textures by identifier and decodes them.
package asset

import (
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is reported to a completion callback when a texture does not exist.
var ErrNotFound = errors.New("asset: texture not found")

// TextureID identifies a texture asset. The zero value means "unset".
type TextureID = uuid.UUID

// ParseTextureID parses the textual UUID form of a texture identifier.
func ParseTextureID(s string) (TextureID, error) {
	return uuid.Parse(s)
}

// MustTextureID parses s and panics on error. Intended for constants.
func MustTextureID(s string) TextureID {
	return uuid.MustParse(s)
}

// Done receives the raw bytes of a requested texture, or the reason it failed.
// It is called exactly once per request, from any goroutine.
type Done func(data []byte, err error)

// Source delivers texture bytes asynchronously.
// RequestImage must not block; the result arrives later through done.
type Source interface {
	RequestImage(id TextureID, done Done)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(id TextureID, done Done)

// RequestImage calls f(id, done).
func (f SourceFunc) RequestImage(id TextureID, done Done) {
	f(id, done)
}

// NullSource never completes a request. Fetches against it always time out.
type NullSource struct{}

// RequestImage drops the request.
func (NullSource) RequestImage(TextureID, Done) {}
