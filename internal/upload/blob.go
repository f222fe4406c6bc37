package upload

import (
	"context"
	"io"
	"strings"
)

// BlobStore is path-addressed storage for uploaded photos. Paths are opaque
// to callers beyond the {registrationID}/{kind}.{ext} convention.
type BlobStore interface {
	Put(ctx context.Context, path string, r io.Reader) error
	Exists(ctx context.Context, path string) (bool, error)
	Delete(ctx context.Context, path string) error
}

// KindFromPath recovers the photo kind from a stored object path. Used when
// listing historical photos, where only the path survives. Unknown layouts
// are treated as documents: the guard fails closed.
func KindFromPath(path string) PhotoKind {
	base := path
	if idx := strings.LastIndexByte(base, '/'); idx >= 0 {
		base = base[idx+1:]
	}
	if idx := strings.IndexByte(base, '.'); idx >= 0 {
		base = base[:idx]
	}
	if k := PhotoKind(base); k.IsValid() {
		return k
	}
	// Unknown layouts, including legacy paths that named identity documents
	// after the Ecuadorian ID card ("cedula"), are treated as documents.
	return KindDocument
}

// IsSelectableCardPhoto reports whether a stored path may be used as a
// provider's public card photo. Identity documents never are.
func IsSelectableCardPhoto(path string) bool {
	return KindFromPath(path) == KindProfile
}
