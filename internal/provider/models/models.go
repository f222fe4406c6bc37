// Package models defines the public-facing provider profile and the admin
// request shapes that operate on it.
package models

import (
	"strings"
	"time"

	"serviapp/pkg/domain"
	dErrors "serviapp/pkg/domain-errors"
)

// Status of a provider profile.
type Status string

const (
	// StatusActive providers are visible in the marketplace.
	StatusActive Status = "active"
	// StatusPending providers exist but are not yet published.
	StatusPending Status = "pending"
	// StatusInactive providers are hidden without being deleted.
	StatusInactive Status = "inactive"
)

// IsValid reports whether s is a known provider status.
func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusPending, StatusInactive:
		return true
	}
	return false
}

// Baseline presentation values for providers created through approval.
const (
	DefaultRating      = 5.0
	DefaultReviewCount = 0
)

// Provider is the public marketplace profile. Only the approval flow and
// admin CRUD write it.
type Provider struct {
	ID            domain.ProviderID `json:"id"`
	Name          string            `json:"name"`
	Slug          string            `json:"slug"`
	Phone         string            `json:"phone"`
	Email         string            `json:"email,omitempty"`
	DescriptionES string            `json:"description_es,omitempty"`
	DescriptionEN string            `json:"description_en,omitempty"`
	PriceRange    string            `json:"price_range,omitempty"`
	ResponseTime  string            `json:"response_time,omitempty"`
	Rating        float64           `json:"rating"`
	ReviewCount   int               `json:"review_count"`
	SpeaksEnglish bool              `json:"speaks_english"`
	Verified      bool              `json:"verified"`
	Featured      bool              `json:"featured"`
	CardPhotoPath string            `json:"card_photo_path,omitempty"`
	Status        Status            `json:"status"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// CreateRequest is the admin create payload. ServiceSlugs and AreaLabels are
// resolved through the catalog before associations are written.
type CreateRequest struct {
	Name          string   `json:"name"`
	Phone         string   `json:"phone"`
	Email         string   `json:"email,omitempty"`
	DescriptionES string   `json:"description_es,omitempty"`
	DescriptionEN string   `json:"description_en,omitempty"`
	PriceRange    string   `json:"price_range,omitempty"`
	ResponseTime  string   `json:"response_time,omitempty"`
	SpeaksEnglish bool     `json:"speaks_english"`
	Verified      bool     `json:"verified"`
	Featured      bool     `json:"featured"`
	Status        Status   `json:"status,omitempty"`
	ServiceSlugs  []string `json:"service_slugs"`
	AreaLabels    []string `json:"area_labels,omitempty"`
}

// Validate checks the create payload before any store work.
func (r *CreateRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "name is required")
	}
	if len(strings.TrimSpace(r.Name)) > 120 {
		return dErrors.New(dErrors.CodeInvalidInput, "name must be at most 120 characters")
	}
	if digitCount(r.Phone) < 7 {
		return dErrors.New(dErrors.CodeInvalidInput, "phone must contain at least 7 digits")
	}
	if r.Email != "" && !strings.Contains(r.Email, "@") {
		return dErrors.New(dErrors.CodeInvalidInput, "email is not valid")
	}
	if r.Status != "" && !r.Status.IsValid() {
		return dErrors.New(dErrors.CodeInvalidInput, "status must be one of active, pending, inactive")
	}
	return nil
}

// UpdateRequest is the admin partial-update payload. Pointer fields
// distinguish "not sent" from "set to zero value": a nil ServiceSlugs leaves
// associations untouched while an empty non-nil slice clears them.
type UpdateRequest struct {
	Name          *string   `json:"name,omitempty"`
	Email         *string   `json:"email,omitempty"`
	DescriptionES *string   `json:"description_es,omitempty"`
	DescriptionEN *string   `json:"description_en,omitempty"`
	PriceRange    *string   `json:"price_range,omitempty"`
	ResponseTime  *string   `json:"response_time,omitempty"`
	SpeaksEnglish *bool     `json:"speaks_english,omitempty"`
	Verified      *bool     `json:"verified,omitempty"`
	Featured      *bool     `json:"featured,omitempty"`
	Status        *Status   `json:"status,omitempty"`
	ServiceSlugs  *[]string `json:"service_slugs,omitempty"`
	AreaLabels    *[]string `json:"area_labels,omitempty"`
}

// Validate checks only the fields that were sent.
func (r *UpdateRequest) Validate() error {
	if r.Name != nil {
		trimmed := strings.TrimSpace(*r.Name)
		if trimmed == "" {
			return dErrors.New(dErrors.CodeInvalidInput, "name cannot be empty")
		}
		if len(trimmed) > 120 {
			return dErrors.New(dErrors.CodeInvalidInput, "name must be at most 120 characters")
		}
	}
	if r.Email != nil && *r.Email != "" && !strings.Contains(*r.Email, "@") {
		return dErrors.New(dErrors.CodeInvalidInput, "email is not valid")
	}
	if r.Status != nil && !r.Status.IsValid() {
		return dErrors.New(dErrors.CodeInvalidInput, "status must be one of active, pending, inactive")
	}
	return nil
}

// CandidatePhoto is one photo gathered from a provider's historical
// registrations. Document photos are listed for context but are never
// selectable as the public card photo.
type CandidatePhoto struct {
	Path       string `json:"path"`
	Kind       string `json:"kind"`
	Selectable bool   `json:"selectable"`
}

func digitCount(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}
