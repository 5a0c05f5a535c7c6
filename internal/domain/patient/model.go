package patient

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Patient is a worker receiving occupational health services. The CURP is
// the Mexican national identity key and is unique per clinic when present.
type Patient struct {
	ID               uuid.UUID  `db:"id" json:"id"`
	ClinicID         uuid.UUID  `db:"clinic_id" json:"clinic_id"`
	CompanyID        *uuid.UUID `db:"company_id" json:"company_id,omitempty"`
	FirstName        string     `db:"first_name" json:"first_name"`
	LastName         string     `db:"last_name" json:"last_name"`
	MaternalLastName *string    `db:"maternal_last_name" json:"maternal_last_name,omitempty"`
	CURP             *string    `db:"curp" json:"curp,omitempty"`
	BirthDate        *time.Time `db:"birth_date" json:"birth_date,omitempty"`
	Sex              *string    `db:"sex" json:"sex,omitempty"`
	JobTitle         *string    `db:"job_title" json:"job_title,omitempty"`
	Email            *string    `db:"email" json:"email,omitempty"`
	Phone            *string    `db:"phone" json:"phone,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

// FullName joins the name parts in Mexican order, skipping absent ones.
func (p *Patient) FullName() string {
	parts := []string{p.FirstName, p.LastName}
	if p.MaternalLastName != nil && *p.MaternalLastName != "" {
		parts = append(parts, *p.MaternalLastName)
	}
	return strings.Join(parts, " ")
}
