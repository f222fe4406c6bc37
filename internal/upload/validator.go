// Package upload validates photo uploads and stores them in the blob store
// under the {registrationID}/{kind}.{ext} convention. The photo kind is an
// explicit enum rather than a naming convention, so the identity-document
// exclusion guard cannot be bypassed by a rename.
package upload

import (
	"fmt"

	dErrors "serviapp/pkg/domain-errors"
)

// MaxPhotoSize is the upload ceiling. Files at exactly the ceiling are
// accepted; one byte over is rejected.
const MaxPhotoSize = 5 << 20 // 5 MiB

// PhotoKind distinguishes public profile photos from verification-only
// identity documents.
type PhotoKind string

const (
	// KindProfile photos may become a provider's public card photo.
	KindProfile PhotoKind = "profile"

	// KindDocument photos are verification-only and never publicly selectable.
	KindDocument PhotoKind = "document"
)

// IsValid reports whether the kind is a supported enum member.
func (k PhotoKind) IsValid() bool {
	return k == KindProfile || k == KindDocument
}

// allowedTypes maps accepted MIME types to the file extension used in the
// stored object path.
var allowedTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
	"image/heic": "heic",
	"image/heif": "heif",
}

// Validate checks the MIME type and size of an upload. Pure function; writing
// accepted files to the blob store is the caller's job. The returned error
// names the offending property.
func Validate(contentType string, size int64) error {
	if _, ok := allowedTypes[contentType]; !ok {
		return dErrors.Newf(dErrors.CodeInvalidInput,
			"unsupported photo type %q: must be JPEG, PNG, WebP, or HEIC/HEIF", contentType)
	}
	if size > MaxPhotoSize {
		return dErrors.Newf(dErrors.CodeInvalidInput,
			"photo is too large (%d bytes): ceiling is %d bytes", size, MaxPhotoSize)
	}
	return nil
}

// ExtensionFor returns the storage extension for an accepted MIME type.
// Call Validate first; unknown types fall back to "bin" rather than panic.
func ExtensionFor(contentType string) string {
	if ext, ok := allowedTypes[contentType]; ok {
		return ext
	}
	return "bin"
}

// ObjectPath builds the deterministic storage path for a registration photo.
func ObjectPath(registrationID string, kind PhotoKind, ext string) string {
	return fmt.Sprintf("%s/%s.%s", registrationID, kind, ext)
}
