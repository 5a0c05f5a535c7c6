package company

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type Service struct {
	companies CompanyRepository
}

func NewService(companies CompanyRepository) *Service {
	return &Service{companies: companies}
}

func (s *Service) CreateCompany(ctx context.Context, c *Company) error {
	if c.Name == "" {
		return fmt.Errorf("company name is required")
	}
	if c.RiskProfile == "" {
		c.RiskProfile = DefaultRiskProfile
	}
	return s.companies.Create(ctx, c)
}

func (s *Service) GetCompany(ctx context.Context, id uuid.UUID) (*Company, error) {
	return s.companies.GetByID(ctx, id)
}

func (s *Service) ListCompanies(ctx context.Context, limit, offset int) ([]*Company, int, error) {
	return s.companies.List(ctx, limit, offset)
}

func (s *Service) UpdateCompany(ctx context.Context, c *Company) error {
	if c.Name == "" {
		return fmt.Errorf("company name is required")
	}
	if c.RiskProfile == "" {
		c.RiskProfile = DefaultRiskProfile
	}
	return s.companies.Update(ctx, c)
}
