package patient

import (
	"context"

	"github.com/google/uuid"
)

// PatientRepository persists patients.
type PatientRepository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetByCURP(ctx context.Context, clinicID uuid.UUID, curp string) (*Patient, error)
	List(ctx context.Context, limit, offset int) ([]*Patient, int, error)
	Search(ctx context.Context, query string, limit, offset int) ([]*Patient, int, error)
	Update(ctx context.Context, p *Patient) error
}
