package study

import (
	"time"

	"github.com/google/uuid"

	"github.com/occumed/occumed/internal/domain/classification"
)

// Study is one uploaded diagnostic artifact attached to an expedient.
type Study struct {
	ID          uuid.UUID `db:"id" json:"id"`
	ExpedientID uuid.UUID `db:"expedient_id" json:"expedient_id"`
	Type        string    `db:"study_type" json:"study_type"`
	FileRef     string    `db:"file_ref" json:"file_ref"`
	FileName    string    `db:"file_name" json:"file_name"`
	ContentType string    `db:"content_type" json:"content_type"`
	UploadedBy  string    `db:"uploaded_by" json:"uploaded_by"`
	UploadedAt  time.Time `db:"uploaded_at" json:"uploaded_at"`
}

// Study types recognized by the platform.
var ValidStudyTypes = map[string]bool{
	"blood_count":         true,
	"urinalysis":          true,
	"audiometry":          true,
	"spirometry":          true,
	"ecg":                 true,
	"cardiovascular_risk": true,
	"radiography":         true,
	"toxicology":          true,
}

// ExtractedDataPoint is one structured clinical fact derived from a study or
// exam. Severity is always assigned by the classification engine at ingest;
// upstream-supplied severities are ignored.
type ExtractedDataPoint struct {
	ID           uuid.UUID               `db:"id" json:"id"`
	StudyID      uuid.UUID               `db:"study_id" json:"study_id"`
	Field        string                  `db:"field" json:"field"`
	RawValue     string                  `db:"raw_value" json:"raw_value"`
	NumericValue *float64                `db:"numeric_value" json:"numeric_value,omitempty"`
	Unit         *string                 `db:"unit" json:"unit,omitempty"`
	RefMin       *float64                `db:"ref_min" json:"ref_min,omitempty"`
	RefMax       *float64                `db:"ref_max" json:"ref_max,omitempty"`
	Label        string                  `db:"label" json:"label"`
	Severity     classification.Severity `db:"severity" json:"severity"`
	Unclassified bool                    `db:"unclassified" json:"unclassified"`
	CreatedAt    time.Time               `db:"created_at" json:"created_at"`
}

// StudyWithPoints pairs a study with its extracted data points for gate and
// review reads.
type StudyWithPoints struct {
	Study  *Study                `json:"study"`
	Points []*ExtractedDataPoint `json:"points"`
}
