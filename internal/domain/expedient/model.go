package expedient

import (
	"time"

	"github.com/google/uuid"
)

// Expedient maps to the expedient table. One row per patient visit; the row
// owns the exam, study, and validation-task records created during that visit.
type Expedient struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	Folio      string     `db:"folio" json:"folio"`
	PatientID  uuid.UUID  `db:"patient_id" json:"patient_id"`
	CompanyID  *uuid.UUID `db:"company_id" json:"company_id,omitempty"`
	ClinicID   uuid.UUID  `db:"clinic_id" json:"clinic_id"`
	Status     Status     `db:"status" json:"status"`
	Notes      *string    `db:"notes" json:"notes,omitempty"`
	ArchivedAt *time.Time `db:"archived_at" json:"archived_at,omitempty"`
	VersionID  int        `db:"version_id" json:"version_id"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
}

// GetVersionID returns the current version.
func (e *Expedient) GetVersionID() int { return e.VersionID }

// SetVersionID sets the current version.
func (e *Expedient) SetVersionID(v int) { e.VersionID = v }
