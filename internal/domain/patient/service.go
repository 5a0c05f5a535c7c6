package patient

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/occumed/occumed/internal/platform/cache"
)

type Service struct {
	patients PatientRepository
	cache    *cache.Cache
}

// NewService wires the patient catalog. The cache is optional; a nil cache
// means every read hits the database.
func NewService(patients PatientRepository, c *cache.Cache) *Service {
	return &Service{patients: patients, cache: c}
}

func (s *Service) CreatePatient(ctx context.Context, p *Patient) error {
	if p.FirstName == "" || p.LastName == "" {
		return fmt.Errorf("first and last name are required")
	}
	if p.ClinicID == uuid.Nil {
		return fmt.Errorf("clinic id is required")
	}
	if p.CURP != nil && *p.CURP != "" {
		if existing, err := s.patients.GetByCURP(ctx, p.ClinicID, *p.CURP); err == nil && existing != nil {
			return fmt.Errorf("a patient with CURP %s already exists", *p.CURP)
		}
	}
	return s.patients.Create(ctx, p)
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	key := "patient:" + id.String()
	if s.cache != nil {
		var cached Patient
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		}
	}
	p, err := s.patients.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, key, p, cache.TTLPatient)
	}
	return p, nil
}

func (s *Service) ListPatients(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	return s.patients.List(ctx, limit, offset)
}

func (s *Service) SearchPatients(ctx context.Context, query string, limit, offset int) ([]*Patient, int, error) {
	return s.patients.Search(ctx, query, limit, offset)
}

func (s *Service) UpdatePatient(ctx context.Context, p *Patient) error {
	if p.FirstName == "" || p.LastName == "" {
		return fmt.Errorf("first and last name are required")
	}
	if err := s.patients.Update(ctx, p); err != nil {
		return err
	}
	if s.cache != nil {
		_ = s.cache.Delete(ctx, "patient:"+p.ID.String())
	}
	return nil
}
