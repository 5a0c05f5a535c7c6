package exam

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func f(v float64) *float64 { return &v }

func fullVitalsExam() *MedicalExam {
	return &MedicalExam{
		ExpedientID:     uuid.New(),
		Systolic:        f(120),
		Diastolic:       f(78),
		HeartRate:       f(72),
		RespiratoryRate: f(16),
		Temperature:     f(36.6),
		HeightCm:        f(172),
		WeightKg:        f(70),
		ExaminerID:      "dr-lopez",
		PerformedAt:     time.Now().UTC(),
	}
}

func TestCheckVitals_AllPresentAndPlausible(t *testing.T) {
	check := CheckVitals(fullVitalsExam())
	if !check.OK() {
		t.Fatalf("expected OK, missing=%v implausible=%v", check.Missing, check.Implausible)
	}
}

func TestCheckVitals_NilExam(t *testing.T) {
	check := CheckVitals(nil)
	if check.OK() {
		t.Fatal("nil exam should not pass")
	}
	if len(check.Missing) != 7 {
		t.Errorf("expected all 7 core vitals missing, got %d", len(check.Missing))
	}
}

func TestCheckVitals_MissingReported(t *testing.T) {
	e := fullVitalsExam()
	e.Temperature = nil
	e.WeightKg = nil
	check := CheckVitals(e)
	if len(check.Missing) != 2 {
		t.Fatalf("expected 2 missing, got %v", check.Missing)
	}
}

func TestCheckVitals_ImplausibleNotClamped(t *testing.T) {
	e := fullVitalsExam()
	e.Temperature = f(60) // above 45
	check := CheckVitals(e)
	if len(check.Implausible) != 1 {
		t.Fatalf("expected 1 implausible, got %v", check.Implausible)
	}
	got := check.Implausible[0]
	if got.Field != "temperature" || got.Value != 60 {
		t.Errorf("expected original value surfaced, got %+v", got)
	}
	// the stored exam value is untouched
	if *e.Temperature != 60 {
		t.Error("value must not be clamped")
	}
}

func TestCheckVitals_BoundaryValuesPlausible(t *testing.T) {
	e := fullVitalsExam()
	e.Temperature = f(30)
	e.HeartRate = f(250)
	e.Systolic = f(260)
	e.Diastolic = f(20)
	e.HeightCm = f(30)
	e.WeightKg = f(400)
	check := CheckVitals(e)
	if len(check.Implausible) != 0 {
		t.Errorf("range bounds are inclusive, got %v", check.Implausible)
	}
}

func TestImplausibleMeasurementError_Message(t *testing.T) {
	err := &ImplausibleMeasurementError{Field: "heart_rate", Value: 300, Min: 20, Max: 250}
	msg := err.Error()
	for _, want := range []string{"heart_rate", "300", "20", "250"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error message %q should mention %s", msg, want)
		}
	}
}

func TestImplausibleIsMatchableWithErrorsAs(t *testing.T) {
	var target *ImplausibleMeasurementError
	var err error = &ImplausibleMeasurementError{Field: "systolic", Value: 500, Min: 40, Max: 260}
	if !errors.As(err, &target) {
		t.Fatal("errors.As should match *ImplausibleMeasurementError")
	}
}
