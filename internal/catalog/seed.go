package catalog

import (
	"github.com/google/uuid"

	id "serviapp/pkg/domain"
)

// SeedCuencaCatalog loads the default service and coverage-area catalog into
// an in-memory store. Development mode only; in production the tables are
// managed by migrations.
func SeedCuencaCatalog(s *InMemoryStore) {
	services := []struct {
		slug, es, en string
	}{
		{"plomeria", "Plomería", "Plumbing"},
		{"electricidad", "Electricidad", "Electrical"},
		{"carpinteria", "Carpintería", "Carpentry"},
		{"pintura", "Pintura", "Painting"},
		{"limpieza", "Limpieza", "Cleaning"},
		{"jardineria", "Jardinería", "Gardening"},
		{"albanileria", "Albañilería", "Masonry"},
		{"cerrajeria", "Cerrajería", "Locksmith"},
		{"mudanzas", "Mudanzas", "Moving"},
		{"reparacion-electrodomesticos", "Reparación de electrodomésticos", "Appliance repair"},
	}
	for _, svc := range services {
		s.AddService(&Service{
			ID:     id.ServiceID(uuid.New()),
			Slug:   svc.slug,
			NameES: svc.es,
			NameEN: svc.en,
		})
	}

	areas := []string{
		"El Centro",
		"Gringolandia",
		"Totoracocha",
		"El Vergel",
		"Yanuncay",
		"Baños",
		"Ricaurte",
		"San Joaquín",
		"Challuabamba",
		"Monay",
	}
	for _, label := range areas {
		s.AddLocation(&Location{
			ID:    id.LocationID(uuid.New()),
			Label: label,
		})
	}
}
