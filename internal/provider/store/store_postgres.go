package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"serviapp/internal/provider/models"
	id "serviapp/pkg/domain"
	"serviapp/pkg/platform/sentinel"
	txcontext "serviapp/pkg/platform/tx"
)

// uniqueViolation is the postgres error code for the unique constraints on
// providers.phone and providers.slug.
const uniqueViolation = "23505"

// PostgresStore persists providers and their association rows. All writes
// participate in a transaction when one is present in the context, which is
// how the approval flow keeps provider creation, association sync and status
// advance atomic.
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

const providerColumns = `id, name, slug, phone, email, description_es, description_en,
	price_range, response_time, rating, review_count, speaks_english,
	verified, featured, card_photo_path, status, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, p *models.Provider) error {
	now := time.Now().UTC()
	_, err := s.querier(ctx).ExecContext(ctx, `
		INSERT INTO providers (`+providerColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		uuid.UUID(p.ID), p.Name, p.Slug, p.Phone, p.Email,
		p.DescriptionES, p.DescriptionEN, p.PriceRange, p.ResponseTime,
		p.Rating, p.ReviewCount, p.SpeaksEnglish, p.Verified, p.Featured,
		p.CardPhotoPath, string(p.Status), now, now,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert provider: %w", err)
	}
	p.CreatedAt = now
	p.UpdatedAt = now
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, p *models.Provider) error {
	now := time.Now().UTC()
	res, err := s.querier(ctx).ExecContext(ctx, `
		UPDATE providers SET
			name = $2, slug = $3, phone = $4, email = $5,
			description_es = $6, description_en = $7,
			price_range = $8, response_time = $9,
			rating = $10, review_count = $11,
			speaks_english = $12, verified = $13, featured = $14,
			card_photo_path = $15, status = $16, updated_at = $17
		WHERE id = $1`,
		uuid.UUID(p.ID), p.Name, p.Slug, p.Phone, p.Email,
		p.DescriptionES, p.DescriptionEN, p.PriceRange, p.ResponseTime,
		p.Rating, p.ReviewCount, p.SpeaksEnglish, p.Verified, p.Featured,
		p.CardPhotoPath, string(p.Status), now,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("update provider: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update provider rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	p.UpdatedAt = now
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, providerID id.ProviderID) (*models.Provider, error) {
	row := s.querier(ctx).QueryRowContext(ctx,
		`SELECT `+providerColumns+` FROM providers WHERE id = $1`,
		uuid.UUID(providerID))
	return scanProvider(row)
}

func (s *PostgresStore) GetByPhone(ctx context.Context, phone string) (*models.Provider, error) {
	row := s.querier(ctx).QueryRowContext(ctx,
		`SELECT `+providerColumns+` FROM providers WHERE phone = $1`,
		phone)
	return scanProvider(row)
}

func (s *PostgresStore) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := s.querier(ctx).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM providers WHERE slug = $1)`,
		slug).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("slug exists: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Provider, error) {
	rows, err := s.querier(ctx).QueryContext(ctx,
		`SELECT `+providerColumns+` FROM providers ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list providers: %w", err)
	}
	defer rows.Close()

	var out []*models.Provider
	for rows.Next() {
		p, err := scanProvider(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ReplaceServices swaps the full service association set. Delete-then-insert
// keeps the set exactly equal to the desired list with no diffing.
func (s *PostgresStore) ReplaceServices(ctx context.Context, providerID id.ProviderID, serviceIDs []id.ServiceID) error {
	q := s.querier(ctx)
	if _, err := q.ExecContext(ctx,
		`DELETE FROM provider_services WHERE provider_id = $1`,
		uuid.UUID(providerID)); err != nil {
		return fmt.Errorf("clear provider services: %w", err)
	}
	for _, serviceID := range serviceIDs {
		if _, err := q.ExecContext(ctx,
			`INSERT INTO provider_services (provider_id, service_id) VALUES ($1, $2)
			 ON CONFLICT DO NOTHING`,
			uuid.UUID(providerID), uuid.UUID(serviceID)); err != nil {
			return fmt.Errorf("insert provider service: %w", err)
		}
	}
	return nil
}

// ReplaceLocations swaps the full coverage-area association set.
func (s *PostgresStore) ReplaceLocations(ctx context.Context, providerID id.ProviderID, locationIDs []id.LocationID) error {
	q := s.querier(ctx)
	if _, err := q.ExecContext(ctx,
		`DELETE FROM provider_locations WHERE provider_id = $1`,
		uuid.UUID(providerID)); err != nil {
		return fmt.Errorf("clear provider locations: %w", err)
	}
	for _, locationID := range locationIDs {
		if _, err := q.ExecContext(ctx,
			`INSERT INTO provider_locations (provider_id, location_id) VALUES ($1, $2)
			 ON CONFLICT DO NOTHING`,
			uuid.UUID(providerID), uuid.UUID(locationID)); err != nil {
			return fmt.Errorf("insert provider location: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) ServiceIDs(ctx context.Context, providerID id.ProviderID) ([]id.ServiceID, error) {
	rows, err := s.querier(ctx).QueryContext(ctx,
		`SELECT service_id FROM provider_services WHERE provider_id = $1`,
		uuid.UUID(providerID))
	if err != nil {
		return nil, fmt.Errorf("list provider services: %w", err)
	}
	defer rows.Close()

	var out []id.ServiceID
	for rows.Next() {
		var raw uuid.UUID
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan service id: %w", err)
		}
		out = append(out, id.ServiceID(raw))
	}
	return out, rows.Err()
}

func (s *PostgresStore) LocationIDs(ctx context.Context, providerID id.ProviderID) ([]id.LocationID, error) {
	rows, err := s.querier(ctx).QueryContext(ctx,
		`SELECT location_id FROM provider_locations WHERE provider_id = $1`,
		uuid.UUID(providerID))
	if err != nil {
		return nil, fmt.Errorf("list provider locations: %w", err)
	}
	defer rows.Close()

	var out []id.LocationID
	for rows.Next() {
		var raw uuid.UUID
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan location id: %w", err)
		}
		out = append(out, id.LocationID(raw))
	}
	return out, rows.Err()
}

func (s *PostgresStore) SetCardPhoto(ctx context.Context, providerID id.ProviderID, path string) error {
	res, err := s.querier(ctx).ExecContext(ctx,
		`UPDATE providers SET card_photo_path = $1, updated_at = now() WHERE id = $2`,
		path, uuid.UUID(providerID))
	if err != nil {
		return fmt.Errorf("set card photo: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set card photo rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProvider(row rowScanner) (*models.Provider, error) {
	var p models.Provider
	var rawID uuid.UUID
	var status string

	err := row.Scan(&rawID, &p.Name, &p.Slug, &p.Phone, &p.Email,
		&p.DescriptionES, &p.DescriptionEN, &p.PriceRange, &p.ResponseTime,
		&p.Rating, &p.ReviewCount, &p.SpeaksEnglish, &p.Verified, &p.Featured,
		&p.CardPhotoPath, &status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan provider: %w", err)
	}

	p.ID = id.ProviderID(rawID)
	p.Status = models.Status(status)
	return &p, nil
}
