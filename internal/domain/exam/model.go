package exam

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MedicalExam is one clinical encounter for an expedient. Exams are immutable
// after creation; corrective amendments create a new record.
type MedicalExam struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	ExpedientID     uuid.UUID  `db:"expedient_id" json:"expedient_id"`
	Systolic        *float64   `db:"systolic" json:"systolic,omitempty"`
	Diastolic       *float64   `db:"diastolic" json:"diastolic,omitempty"`
	HeartRate       *float64   `db:"heart_rate" json:"heart_rate,omitempty"`
	RespiratoryRate *float64   `db:"respiratory_rate" json:"respiratory_rate,omitempty"`
	Temperature     *float64   `db:"temperature" json:"temperature,omitempty"`
	HeightCm        *float64   `db:"height_cm" json:"height_cm,omitempty"`
	WeightKg        *float64   `db:"weight_kg" json:"weight_kg,omitempty"`
	PhysicalNotes   *string    `db:"physical_notes" json:"physical_notes,omitempty"`
	ExaminerID      string     `db:"examiner_id" json:"examiner_id"`
	PerformedAt     time.Time  `db:"performed_at" json:"performed_at"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
}

// ImplausibleMeasurementError reports a vital-sign value outside the
// physiologically possible range. Values are surfaced, never clamped.
type ImplausibleMeasurementError struct {
	Field string
	Value float64
	Min   float64
	Max   float64
}

func (e *ImplausibleMeasurementError) Error() string {
	return fmt.Sprintf("implausible %s: %v outside [%v, %v]", e.Field, e.Value, e.Min, e.Max)
}

// vitalRange is one row of the plausibility table: the field name, its
// physiological bounds, and how to read it off an exam.
type vitalRange struct {
	field string
	min   float64
	max   float64
	get   func(*MedicalExam) *float64
}

// VitalRanges is the authoritative plausibility table for core vitals.
var vitalRanges = []vitalRange{
	{"systolic", 40, 260, func(e *MedicalExam) *float64 { return e.Systolic }},
	{"diastolic", 20, 200, func(e *MedicalExam) *float64 { return e.Diastolic }},
	{"heart_rate", 20, 250, func(e *MedicalExam) *float64 { return e.HeartRate }},
	{"respiratory_rate", 4, 80, func(e *MedicalExam) *float64 { return e.RespiratoryRate }},
	{"temperature", 30, 45, func(e *MedicalExam) *float64 { return e.Temperature }},
	{"height_cm", 30, 250, func(e *MedicalExam) *float64 { return e.HeightCm }},
	{"weight_kg", 1, 400, func(e *MedicalExam) *float64 { return e.WeightKg }},
}

// VitalCheck is the outcome of checking an exam against the plausibility
// table: which core vitals are absent and which carry impossible values.
type VitalCheck struct {
	Missing     []string
	Implausible []*ImplausibleMeasurementError
}

// OK reports whether all core vitals are present and plausible.
func (v VitalCheck) OK() bool {
	return len(v.Missing) == 0 && len(v.Implausible) == 0
}

// CheckVitals evaluates every core vital of the exam against the plausibility
// table. A nil exam reports every vital missing.
func CheckVitals(e *MedicalExam) VitalCheck {
	var check VitalCheck
	for _, r := range vitalRanges {
		if e == nil {
			check.Missing = append(check.Missing, r.field)
			continue
		}
		val := r.get(e)
		if val == nil {
			check.Missing = append(check.Missing, r.field)
			continue
		}
		if *val < r.min || *val > r.max {
			check.Implausible = append(check.Implausible, &ImplausibleMeasurementError{
				Field: r.field, Value: *val, Min: r.min, Max: r.max,
			})
		}
	}
	return check
}
