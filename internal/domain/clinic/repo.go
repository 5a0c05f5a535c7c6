package clinic

import (
	"context"

	"github.com/google/uuid"
)

// ClinicRepository persists clinics.
type ClinicRepository interface {
	Create(ctx context.Context, c *Clinic) error
	GetByID(ctx context.Context, id uuid.UUID) (*Clinic, error)
	List(ctx context.Context) ([]*Clinic, error)
}
