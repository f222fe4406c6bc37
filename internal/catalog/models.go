// Package catalog holds the service and coverage-area lookup tables the
// relationship synchronizer resolves against.
package catalog

import (
	id "serviapp/pkg/domain"
)

// Service is a bookable trade in the catalog (plumbing, electricity, ...).
type Service struct {
	ID     id.ServiceID
	Slug   string
	NameES string
	NameEN string
}

// Location is a coverage area, matched by its display label as the intake
// form submits it.
type Location struct {
	ID    id.LocationID
	Label string
}
