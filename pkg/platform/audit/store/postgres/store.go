// Package postgres implements the audit store with the transactional outbox
// pattern. Events land in the outbox table inside the caller's transaction
// (when one is in the context) and the outbox worker publishes them to Kafka.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	audit "serviapp/pkg/platform/audit"
	txcontext "serviapp/pkg/platform/tx"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// outboxPayload is the JSON structure published to Kafka. Field names match
// audit.Event for deserialization by downstream consumers.
type outboxPayload struct {
	ID             string `json:"ID"`
	Timestamp      string `json:"Timestamp"`
	Action         string `json:"Action"`
	RegistrationID string `json:"RegistrationID,omitempty"`
	ProviderID     string `json:"ProviderID,omitempty"`
	ActorID        string `json:"ActorID,omitempty"`
	Reason         string `json:"Reason,omitempty"`
	RequestID      string `json:"RequestID,omitempty"`
}

// Append writes an audit event to the outbox table for Kafka publishing.
// When called inside the approval transaction the event commits or rolls
// back together with the state change.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	eventID := uuid.New()
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	payload := outboxPayload{
		ID:             eventID.String(),
		Timestamp:      event.Timestamp.Format(time.RFC3339Nano),
		Action:         event.Action,
		RegistrationID: event.RegistrationID,
		ProviderID:     event.ProviderID,
		ActorID:        event.ActorID,
		Reason:         event.Reason,
		RequestID:      event.RequestID,
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	_, err = s.execer(ctx).ExecContext(ctx, `
		INSERT INTO audit_outbox (id, action, payload, created_at)
		VALUES ($1, $2, $3, $4)`,
		eventID, event.Action, payloadBytes, event.Timestamp)
	if err != nil {
		return fmt.Errorf("insert audit outbox: %w", err)
	}
	return nil
}

// NextBatch claims up to limit unpublished outbox rows, oldest first.
func (s *Store) NextBatch(ctx context.Context, limit int) ([]audit.OutboxRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, action, payload FROM audit_outbox
		WHERE published_at IS NULL
		ORDER BY created_at
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit outbox: %w", err)
	}
	defer rows.Close()

	var out []audit.OutboxRow
	for rows.Next() {
		var row audit.OutboxRow
		var rawID uuid.UUID
		if err := rows.Scan(&rawID, &row.Action, &row.Payload); err != nil {
			return nil, fmt.Errorf("scan audit outbox: %w", err)
		}
		row.ID = rawID.String()
		out = append(out, row)
	}
	return out, rows.Err()
}

// MarkPublished stamps rows after a successful Kafka produce.
func (s *Store) MarkPublished(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	for _, idStr := range ids {
		if _, err := uuid.Parse(idStr); err != nil {
			return fmt.Errorf("parse outbox id %q: %w", idStr, err)
		}
	}

	query := `UPDATE audit_outbox SET published_at = now() WHERE id = ANY($1::uuid[])`
	if _, err := s.db.ExecContext(ctx, query, pq.Array(ids)); err != nil {
		return fmt.Errorf("mark outbox published: %w", err)
	}
	return nil
}
