package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	id "serviapp/pkg/domain"
	"serviapp/pkg/platform/sentinel"
)

// PostgresStore reads the services and locations tables.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) ServiceBySlug(ctx context.Context, slug string) (*Service, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, slug, name_es, name_en FROM services WHERE lower(slug) = lower($1)`, slug)

	var svc Service
	var rawID uuid.UUID
	if err := row.Scan(&rawID, &svc.Slug, &svc.NameES, &svc.NameEN); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("service by slug: %w", err)
	}
	svc.ID = id.ServiceID(rawID)
	return &svc, nil
}

func (s *PostgresStore) LocationByLabel(ctx context.Context, label string) (*Location, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, label FROM locations WHERE lower(label) = lower($1)`, label)

	var loc Location
	var rawID uuid.UUID
	if err := row.Scan(&rawID, &loc.Label); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("location by label: %w", err)
	}
	loc.ID = id.LocationID(rawID)
	return &loc, nil
}

func (s *PostgresStore) ListServices(ctx context.Context) ([]*Service, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, slug, name_es, name_en FROM services ORDER BY slug`)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	defer rows.Close()

	var out []*Service
	for rows.Next() {
		var svc Service
		var rawID uuid.UUID
		if err := rows.Scan(&rawID, &svc.Slug, &svc.NameES, &svc.NameEN); err != nil {
			return nil, fmt.Errorf("scan service: %w", err)
		}
		svc.ID = id.ServiceID(rawID)
		out = append(out, &svc)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ListLocations(ctx context.Context) ([]*Location, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, label FROM locations ORDER BY label`)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	defer rows.Close()

	var out []*Location
	for rows.Next() {
		var loc Location
		var rawID uuid.UUID
		if err := rows.Scan(&rawID, &loc.Label); err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		loc.ID = id.LocationID(rawID)
		out = append(out, &loc)
	}
	return out, rows.Err()
}
