// Package domain holds typed identifiers shared across bounded contexts.
// Typed IDs prevent cross-entity assignment at compile time: a ProviderID can
// never be passed where a RegistrationID is expected.
package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "serviapp/pkg/domain-errors"
)

// Typed UUIDs for the core entities.
type (
	// RegistrationID identifies a professional's self-submitted registration.
	RegistrationID uuid.UUID

	// ProviderID identifies a public provider profile.
	ProviderID uuid.UUID

	// ServiceID identifies a catalog service (plumbing, electricity, ...).
	ServiceID uuid.UUID

	// LocationID identifies a coverage area in the catalog.
	LocationID uuid.UUID
)

const maxIDLength = 64

// parseUUID validates the common rules: non-empty, sane length, valid UUID,
// not the nil UUID. All Parse* functions funnel through here so every ID type
// rejects the same malformed inputs at trust boundaries.
func parseUUID(s, kind string) (uuid.UUID, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id must not be empty")
	}
	if len(trimmed) > maxIDLength {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id is too long")
	}
	u, err := uuid.Parse(trimmed)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id is not a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id must not be the nil UUID")
	}
	return u, nil
}

// ParseRegistrationID parses and validates a registration identifier.
func ParseRegistrationID(s string) (RegistrationID, error) {
	u, err := parseUUID(s, "registration")
	return RegistrationID(u), err
}

// ParseProviderID parses and validates a provider identifier.
func ParseProviderID(s string) (ProviderID, error) {
	u, err := parseUUID(s, "provider")
	return ProviderID(u), err
}

// ParseServiceID parses and validates a service identifier.
func ParseServiceID(s string) (ServiceID, error) {
	u, err := parseUUID(s, "service")
	return ServiceID(u), err
}

// ParseLocationID parses and validates a location identifier.
func ParseLocationID(s string) (LocationID, error) {
	u, err := parseUUID(s, "location")
	return LocationID(u), err
}

func (i RegistrationID) String() string { return uuid.UUID(i).String() }
func (i ProviderID) String() string     { return uuid.UUID(i).String() }
func (i ServiceID) String() string      { return uuid.UUID(i).String() }
func (i LocationID) String() string     { return uuid.UUID(i).String() }

func (i RegistrationID) IsNil() bool { return uuid.UUID(i) == uuid.Nil }
func (i ProviderID) IsNil() bool     { return uuid.UUID(i) == uuid.Nil }

// UUID exposes the raw value for database drivers and slug derivation.
func (i RegistrationID) UUID() uuid.UUID { return uuid.UUID(i) }
func (i ProviderID) UUID() uuid.UUID     { return uuid.UUID(i) }
func (i ServiceID) UUID() uuid.UUID      { return uuid.UUID(i) }
func (i LocationID) UUID() uuid.UUID     { return uuid.UUID(i) }

// Defined types do not inherit uuid.UUID's marshaling, so each ID implements
// encoding.TextMarshaler/TextUnmarshaler to keep the canonical string form in
// JSON payloads.
func (i RegistrationID) MarshalText() ([]byte, error) { return []byte(i.String()), nil }
func (i ProviderID) MarshalText() ([]byte, error)     { return []byte(i.String()), nil }
func (i ServiceID) MarshalText() ([]byte, error)      { return []byte(i.String()), nil }
func (i LocationID) MarshalText() ([]byte, error)     { return []byte(i.String()), nil }

func (i *RegistrationID) UnmarshalText(b []byte) error {
	parsed, err := ParseRegistrationID(string(b))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}

func (i *ProviderID) UnmarshalText(b []byte) error {
	parsed, err := ParseProviderID(string(b))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}

func (i *ServiceID) UnmarshalText(b []byte) error {
	parsed, err := ParseServiceID(string(b))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}

func (i *LocationID) UnmarshalText(b []byte) error {
	parsed, err := ParseLocationID(string(b))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}

// NewRegistrationID returns a fresh random registration identifier.
func NewRegistrationID() RegistrationID { return RegistrationID(uuid.New()) }

// NewProviderID returns a fresh random provider identifier.
func NewProviderID() ProviderID { return ProviderID(uuid.New()) }

// NewServiceID returns a fresh random service identifier.
func NewServiceID() ServiceID { return ServiceID(uuid.New()) }

// NewLocationID returns a fresh random location identifier.
func NewLocationID() LocationID { return LocationID(uuid.New()) }
