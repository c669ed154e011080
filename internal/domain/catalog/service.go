package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type Service struct {
	facilities FacilityRepository
	medicines  MedicineRepository
}

func NewService(facilities FacilityRepository, medicines MedicineRepository) *Service {
	return &Service{facilities: facilities, medicines: medicines}
}

// -- Facility --

func (s *Service) CreateFacility(ctx context.Context, f *Facility) error {
	if f.Name == "" {
		return fmt.Errorf("name is required")
	}
	if f.Code == "" {
		return fmt.Errorf("code is required")
	}
	return s.facilities.Create(ctx, f)
}

func (s *Service) GetFacility(ctx context.Context, id uuid.UUID) (*Facility, error) {
	return s.facilities.GetByID(ctx, id)
}

func (s *Service) GetFacilityByCode(ctx context.Context, code string) (*Facility, error) {
	return s.facilities.GetByCode(ctx, code)
}

func (s *Service) UpdateFacility(ctx context.Context, f *Facility) error {
	if f.Name == "" {
		return fmt.Errorf("name is required")
	}
	return s.facilities.Update(ctx, f)
}

func (s *Service) DeleteFacility(ctx context.Context, id uuid.UUID) error {
	return s.facilities.Delete(ctx, id)
}

func (s *Service) SearchFacilities(ctx context.Context, params map[string]string, limit, offset int) ([]*Facility, int, error) {
	return s.facilities.Search(ctx, params, limit, offset)
}

// -- Medicine --

var validForms = map[string]bool{
	"tablet": true, "capsule": true, "syrup": true, "injection": true,
	"cream": true, "drops": true, "inhaler": true, "powder": true, "other": true,
}

func (s *Service) CreateMedicine(ctx context.Context, m *Medicine) error {
	if m.Name == "" {
		return fmt.Errorf("name is required")
	}
	if m.Form != nil && !validForms[*m.Form] {
		return fmt.Errorf("invalid form: %s", *m.Form)
	}
	return s.medicines.Create(ctx, m)
}

func (s *Service) GetMedicine(ctx context.Context, id uuid.UUID) (*Medicine, error) {
	return s.medicines.GetByID(ctx, id)
}

func (s *Service) UpdateMedicine(ctx context.Context, m *Medicine) error {
	if m.Name == "" {
		return fmt.Errorf("name is required")
	}
	if m.Form != nil && !validForms[*m.Form] {
		return fmt.Errorf("invalid form: %s", *m.Form)
	}
	return s.medicines.Update(ctx, m)
}

func (s *Service) DeleteMedicine(ctx context.Context, id uuid.UUID) error {
	return s.medicines.Delete(ctx, id)
}

func (s *Service) SearchMedicines(ctx context.Context, params map[string]string, limit, offset int) ([]*Medicine, int, error) {
	return s.medicines.Search(ctx, params, limit, offset)
}
