package company

import (
	"time"

	"github.com/google/uuid"
)

// Company is an employer contracting occupational health exams. Its risk
// profile selects which studies the completeness gate requires for its
// workers.
type Company struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	RFC          *string   `db:"rfc" json:"rfc,omitempty"`
	RiskProfile  string    `db:"risk_profile" json:"risk_profile"`
	ContactName  *string   `db:"contact_name" json:"contact_name,omitempty"`
	ContactEmail *string   `db:"contact_email" json:"contact_email,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// DefaultRiskProfile applies when a company has not been profiled yet.
const DefaultRiskProfile = "office"
