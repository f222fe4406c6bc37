package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"serviapp/internal/registration/models"
	"serviapp/internal/upload"
	id "serviapp/pkg/domain"
	"serviapp/pkg/platform/sentinel"
	txcontext "serviapp/pkg/platform/tx"
)

// uniqueViolation is the postgres error code raised by the partial unique
// index on (phone) WHERE status != 'rejected'.
const uniqueViolation = "23505"

// PostgresStore persists registrations. Status updates participate in the
// approval transaction when one is present in the context.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) querier(ctx context.Context) dbQuerier {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const registrationColumns = `id, name, phone, email, national_id, services, areas,
	speaks_english, message, reference_contacts, document_photo_path,
	profile_photo_path, status, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, reg *models.Registration) error {
	refs, err := json.Marshal(reg.References)
	if err != nil {
		return fmt.Errorf("marshal references: %w", err)
	}

	_, err = s.querier(ctx).ExecContext(ctx, `
		INSERT INTO registrations (`+registrationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		uuid.UUID(reg.ID), reg.Name, reg.Phone, reg.Email, reg.NationalID,
		pq.Array(reg.Services), pq.Array(reg.Areas),
		reg.SpeaksEnglish, reg.Message, refs,
		reg.DocumentPhotoPath, reg.ProfilePhotoPath,
		string(reg.Status), reg.CreatedAt, reg.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert registration: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, regID id.RegistrationID) (*models.Registration, error) {
	row := s.querier(ctx).QueryRowContext(ctx,
		`SELECT `+registrationColumns+` FROM registrations WHERE id = $1`,
		uuid.UUID(regID))
	return scanRegistration(row)
}

func (s *PostgresStore) ExistsActiveByPhone(ctx context.Context, phone string) (bool, error) {
	var exists bool
	err := s.querier(ctx).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM registrations WHERE phone = $1 AND status != $2)`,
		phone, string(models.StatusRejected)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("exists by phone: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) ListByStatus(ctx context.Context, status models.Status) ([]*models.Registration, error) {
	rows, err := s.querier(ctx).QueryContext(ctx,
		`SELECT `+registrationColumns+` FROM registrations WHERE status = $1 ORDER BY created_at`,
		string(status))
	if err != nil {
		return nil, fmt.Errorf("list by status: %w", err)
	}
	defer rows.Close()
	return scanRegistrations(rows)
}

func (s *PostgresStore) ListByPhone(ctx context.Context, phone string) ([]*models.Registration, error) {
	rows, err := s.querier(ctx).QueryContext(ctx,
		`SELECT `+registrationColumns+` FROM registrations WHERE phone = $1 ORDER BY created_at`,
		phone)
	if err != nil {
		return nil, fmt.Errorf("list by phone: %w", err)
	}
	defer rows.Close()
	return scanRegistrations(rows)
}

// UpdateStatus advances the lifecycle only when the row still carries one of
// the expected statuses. A zero row count means a concurrent writer got there
// first (or the transition was never legal); the caller distinguishes via a
// follow-up Get.
func (s *PostgresStore) UpdateStatus(ctx context.Context, regID id.RegistrationID, expected []models.Status, next models.Status) error {
	expectedStrs := make([]string, len(expected))
	for i, st := range expected {
		expectedStrs[i] = string(st)
	}

	res, err := s.querier(ctx).ExecContext(ctx, `
		UPDATE registrations SET status = $1, updated_at = now()
		WHERE id = $2 AND status = ANY($3)`,
		string(next), uuid.UUID(regID), pq.Array(expectedStrs))
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update status rows affected: %w", err)
	}
	if affected == 0 {
		var exists bool
		if err := s.querier(ctx).QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM registrations WHERE id = $1)`,
			uuid.UUID(regID)).Scan(&exists); err != nil {
			return fmt.Errorf("update status existence check: %w", err)
		}
		if !exists {
			return sentinel.ErrNotFound
		}
		return sentinel.ErrInvalidState
	}
	return nil
}

func (s *PostgresStore) SetPhotoPath(ctx context.Context, regID id.RegistrationID, kind upload.PhotoKind, path string) error {
	var column string
	switch kind {
	case upload.KindProfile:
		column = "profile_photo_path"
	case upload.KindDocument:
		column = "document_photo_path"
	default:
		return sentinel.ErrInvalidState
	}

	res, err := s.querier(ctx).ExecContext(ctx,
		`UPDATE registrations SET `+column+` = $1, updated_at = now() WHERE id = $2`,
		path, uuid.UUID(regID))
	if err != nil {
		return fmt.Errorf("set photo path: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set photo path rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRegistration(row rowScanner) (*models.Registration, error) {
	var reg models.Registration
	var rawID uuid.UUID
	var refs []byte
	var status string
	var createdAt, updatedAt time.Time

	err := row.Scan(&rawID, &reg.Name, &reg.Phone, &reg.Email, &reg.NationalID,
		pq.Array(&reg.Services), pq.Array(&reg.Areas),
		&reg.SpeaksEnglish, &reg.Message, &refs,
		&reg.DocumentPhotoPath, &reg.ProfilePhotoPath,
		&status, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan registration: %w", err)
	}

	if len(refs) > 0 {
		if err := json.Unmarshal(refs, &reg.References); err != nil {
			return nil, fmt.Errorf("unmarshal references: %w", err)
		}
	}
	reg.ID = id.RegistrationID(rawID)
	reg.Status = models.Status(status)
	reg.CreatedAt = createdAt
	reg.UpdatedAt = updatedAt
	return &reg, nil
}

func scanRegistrations(rows *sql.Rows) ([]*models.Registration, error) {
	var out []*models.Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, reg)
	}
	return out, rows.Err()
}
