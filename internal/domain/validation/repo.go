package validation

import (
	"context"

	"github.com/google/uuid"
)

// TaskRepository is the persistence contract for validation tasks. Create is
// a conditional insert: it fails with ErrTaskAlreadyOpen when the expedient
// already has a non-terminal task, without a check-then-insert window.
// Update is conditional on the version the caller read and returns
// db.ErrVersionConflict when the row moved.
type TaskRepository interface {
	Create(ctx context.Context, t *ValidationTask) error
	GetByID(ctx context.Context, id uuid.UUID) (*ValidationTask, error)
	GetOpenByExpedient(ctx context.Context, expedientID uuid.UUID) (*ValidationTask, error)
	ListByExpedient(ctx context.Context, expedientID uuid.UUID) ([]*ValidationTask, error)
	Update(ctx context.Context, t *ValidationTask) error
}
