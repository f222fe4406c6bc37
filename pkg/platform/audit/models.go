// Package audit captures moderation actions as events. Events are appended to
// a store (memory in development, a postgres outbox in production) and a
// worker publishes the outbox to Kafka, which downstream compliance tooling
// consumes.
package audit

import (
	"context"
	"time"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time

	// Action is one of the Event* constants.
	Action string

	// RegistrationID / ProviderID tie the event to the affected entities.
	// Either may be empty depending on the action.
	RegistrationID string
	ProviderID     string

	// ActorID is the moderator who performed the action; empty for
	// public-intake events.
	ActorID string

	// Reason carries moderator-entered context (rejection reason).
	Reason string

	// RequestID is the correlation ID from the HTTP request context.
	RequestID string
}

// AuditEvent names a moderation action.
type AuditEvent string

const (
	EventRegistrationSubmitted AuditEvent = "registration_submitted"
	EventRegistrationContacted AuditEvent = "registration_contacted"
	EventRegistrationRejected  AuditEvent = "registration_rejected"
	EventRegistrationApproved  AuditEvent = "registration_approved"
	EventProviderCreated       AuditEvent = "provider_created"
	EventProviderUpdated       AuditEvent = "provider_updated"
	EventCardPhotoSelected     AuditEvent = "card_photo_selected"
)

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// OutboxRow is an unpublished event claimed by the outbox worker.
type OutboxRow struct {
	ID      string
	Action  string
	Payload []byte
}
