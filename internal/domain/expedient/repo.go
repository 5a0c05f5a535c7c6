package expedient

import (
	"context"

	"github.com/google/uuid"
)

// ExpedientRepository is the persistence contract for expedients. Status and
// note writes are conditional on the version the caller read; implementations
// return db.ErrVersionConflict when the row moved underneath the caller.
type ExpedientRepository interface {
	Create(ctx context.Context, e *Expedient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Expedient, error)
	GetByFolio(ctx context.Context, clinicID uuid.UUID, folio string) (*Expedient, error)
	List(ctx context.Context, limit, offset int) ([]*Expedient, int, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Expedient, int, error)
	// UpdateStatus commits the transition only if the stored version still
	// equals e.VersionID. On success it bumps e.VersionID and e.Status.
	UpdateStatus(ctx context.Context, e *Expedient, target Status) error
	UpdateNotes(ctx context.Context, e *Expedient) error
}
