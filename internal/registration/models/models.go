// Package models defines the registration request and its moderation
// lifecycle.
package models

import (
	"strings"
	"time"

	id "serviapp/pkg/domain"
	dErrors "serviapp/pkg/domain-errors"
)

// Status is the moderation lifecycle state of a registration.
type Status string

const (
	StatusPending   Status = "pending"
	StatusContacted Status = "contacted"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
)

// IsValid reports whether the status is a supported enum member.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusContacted, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed.
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// CanTransitionTo encodes the moderation state machine:
//
//	pending   -> contacted | approved | rejected
//	contacted -> approved | rejected
//
// approved and rejected are terminal.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusContacted || next == StatusApproved || next == StatusRejected
	case StatusContacted:
		return next == StatusApproved || next == StatusRejected
	}
	return false
}

// ReferenceContact is an optional reference the professional provides.
type ReferenceContact struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// Registration is a professional's self-submitted application awaiting
// moderation. Phone is stored in canonical +593 form and is unique among
// non-rejected registrations.
type Registration struct {
	ID         id.RegistrationID `json:"id"`
	Name       string            `json:"name"`
	Phone      string            `json:"phone"`
	Email      string            `json:"email,omitempty"`
	NationalID string            `json:"national_id,omitempty"`

	Services      []string           `json:"services"`
	Areas         []string           `json:"areas,omitempty"`
	SpeaksEnglish bool               `json:"speaks_english"`
	Message       string             `json:"message,omitempty"`
	References    []ReferenceContact `json:"references,omitempty"`

	// Storage paths under the blob store, not public URLs. Either may be
	// empty: uploads happen out-of-band and are optional.
	DocumentPhotoPath string `json:"document_photo_path,omitempty"`
	ProfilePhotoPath  string `json:"profile_photo_path,omitempty"`

	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SubmitRequest is the public intake payload before normalization.
type SubmitRequest struct {
	Name          string             `json:"name"`
	Phone         string             `json:"phone"`
	Email         string             `json:"email,omitempty"`
	NationalID    string             `json:"national_id,omitempty"`
	Services      []string           `json:"services"`
	Areas         []string           `json:"areas,omitempty"`
	SpeaksEnglish bool               `json:"speaks_english,omitempty"`
	Message       string             `json:"message,omitempty"`
	References    []ReferenceContact `json:"references,omitempty"`
}

const (
	maxNameLength    = 120
	maxMessageLength = 2000
	maxReferences    = 2
	minPhoneDigits   = 7
)

// Validate checks shape: required fields present, lengths sane, at most two
// references. Phone canonicalization happens after validation, in the service.
func (r SubmitRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "name is required")
	}
	if len(r.Name) > maxNameLength {
		return dErrors.New(dErrors.CodeBadRequest, "name is too long")
	}
	if countDigits(r.Phone) < minPhoneDigits {
		return dErrors.New(dErrors.CodeBadRequest, "phone is required and must contain at least 7 digits")
	}
	if r.Email != "" && !strings.Contains(r.Email, "@") {
		return dErrors.New(dErrors.CodeBadRequest, "email is malformed")
	}
	if len(r.Services) == 0 {
		return dErrors.New(dErrors.CodeBadRequest, "at least one service must be selected")
	}
	if len(r.Message) > maxMessageLength {
		return dErrors.New(dErrors.CodeBadRequest, "message is too long")
	}
	if len(r.References) > maxReferences {
		return dErrors.New(dErrors.CodeBadRequest, "at most two reference contacts are allowed")
	}
	for _, ref := range r.References {
		if strings.TrimSpace(ref.Name) == "" || countDigits(ref.Phone) < minPhoneDigits {
			return dErrors.New(dErrors.CodeBadRequest, "reference contacts need a name and a phone")
		}
	}
	return nil
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}
