package company

import (
	"context"

	"github.com/google/uuid"
)

// CompanyRepository persists companies.
type CompanyRepository interface {
	Create(ctx context.Context, c *Company) error
	GetByID(ctx context.Context, id uuid.UUID) (*Company, error)
	List(ctx context.Context, limit, offset int) ([]*Company, int, error)
	Update(ctx context.Context, c *Company) error
}
