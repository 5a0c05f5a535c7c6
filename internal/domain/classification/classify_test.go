package classification

import "testing"

func TestBodyMassIndex_Rounding(t *testing.T) {
	// 70kg at 1.70m is 24.2214..., rounds to 24.22
	if got := BodyMassIndex(70, 170); got != 24.22 {
		t.Errorf("expected 24.22, got %v", got)
	}
	// half-up, not truncation: 72.2kg at 1.70m is 24.9826..., rounds to 24.98
	if got := BodyMassIndex(72.2, 170); got != 24.98 {
		t.Errorf("expected 24.98, got %v", got)
	}
}

func TestClassifyBodyMass_Bands(t *testing.T) {
	cases := []struct {
		bmi      float64
		label    string
		severity Severity
	}{
		{15, "low-weight", SeverityCaution},
		{18.49, "low-weight", SeverityCaution},
		{18.5, "normal", SeverityNormal},
		{24.99, "normal", SeverityNormal},
		{25.00, "overweight", SeverityCaution},
		{29.99, "overweight", SeverityCaution},
		{30, "obesity-1", SeverityWarning},
		{34.99, "obesity-1", SeverityWarning},
		{35, "obesity-2", SeverityWarning},
		{39.99, "obesity-2", SeverityWarning},
		{40, "obesity-3", SeverityCritical},
		{49.99, "obesity-3", SeverityCritical},
		{50, "obesity-4", SeverityCritical},
		{62, "obesity-4", SeverityCritical},
	}
	for _, tc := range cases {
		got := ClassifyBodyMass(tc.bmi)
		if got.Label != tc.label || got.Severity != tc.severity {
			t.Errorf("bmi %v: expected %s/%s, got %s/%s", tc.bmi, tc.label, tc.severity, got.Label, got.Severity)
		}
	}
}

func TestClassifyBodyMass_Deterministic(t *testing.T) {
	first := ClassifyBodyMassFromVitals(80, 175)
	for i := 0; i < 10; i++ {
		if got := ClassifyBodyMassFromVitals(80, 175); got != first {
			t.Fatalf("classification changed between calls: %v vs %v", got, first)
		}
	}
}

func TestClassifyBloodPressure_Precedence(t *testing.T) {
	cases := []struct {
		sys, dia float64
		label    string
		severity Severity
	}{
		{75, 45, "low", SeverityCaution},
		{139, 89, "hypertension-stage-1", SeverityWarning},
		{140, 89, "hypertension-stage-2", SeverityCritical},
		{120, 95, "hypertension-stage-2", SeverityCritical},
		{130, 70, "hypertension-stage-1", SeverityWarning},
		{125, 85, "hypertension-stage-1", SeverityWarning},
		{125, 79, "elevated", SeverityCaution},
		{119, 79, "normal", SeverityNormal},
		{110, 70, "normal", SeverityNormal},
		// low rule needs both conditions; 75/60 is not "low"
		{75, 60, "normal", SeverityNormal},
		{150, 95, "hypertension-stage-2", SeverityCritical},
	}
	for _, tc := range cases {
		got := ClassifyBloodPressure(tc.sys, tc.dia)
		if got.Label != tc.label || got.Severity != tc.severity {
			t.Errorf("%v/%v: expected %s/%s, got %s/%s", tc.sys, tc.dia, tc.label, tc.severity, got.Label, got.Severity)
		}
	}
}

func TestClassifyHeartRate_MonotonicSeverity(t *testing.T) {
	// moving away from the normal band never decreases severity
	above := []float64{100, 110, 130, 160, 200}
	prev := -1
	for _, bpm := range above {
		r := ClassifyHeartRate(bpm)
		if r.Severity.Rank() < prev {
			t.Errorf("severity decreased at %v bpm", bpm)
		}
		prev = r.Severity.Rank()
	}
	below := []float64{60, 55, 45, 35}
	prev = -1
	for _, bpm := range below {
		r := ClassifyHeartRate(bpm)
		if r.Severity.Rank() < prev {
			t.Errorf("severity decreased at %v bpm", bpm)
		}
		prev = r.Severity.Rank()
	}
}

func TestClassifyTemperature_Bands(t *testing.T) {
	cases := []struct {
		c        float64
		severity Severity
	}{
		{31, SeverityCritical},
		{34, SeverityWarning},
		{36.5, SeverityNormal},
		{37.5, SeverityNormal},
		{38, SeverityCaution},
		{39, SeverityWarning},
		{40, SeverityCritical},
	}
	for _, tc := range cases {
		if got := ClassifyTemperature(tc.c); got.Severity != tc.severity {
			t.Errorf("%v°C: expected %s, got %s (%s)", tc.c, tc.severity, got.Severity, got.Label)
		}
	}
}

func TestClassifyRespiratoryRate_TotalCoverage(t *testing.T) {
	for rpm := 1.0; rpm <= 60; rpm += 0.5 {
		r := ClassifyRespiratoryRate(rpm)
		if r.Label == "" {
			t.Fatalf("no label for %v rpm", rpm)
		}
	}
}

func TestClassifyVital_UnknownField(t *testing.T) {
	if _, ok := ClassifyVital("glucose", 90); ok {
		t.Error("expected unknown field to be unclassifiable")
	}
	r, ok := ClassifyVital(FieldHeartRate, 72)
	if !ok || r.Label != "normal" {
		t.Errorf("expected normal heart rate, got %v ok=%v", r, ok)
	}
}

func TestSeverityMax(t *testing.T) {
	if Max(SeverityWarning, SeverityCritical) != SeverityCritical {
		t.Error("critical should dominate warning")
	}
	if Max(SeverityCaution, SeverityNormal) != SeverityCaution {
		t.Error("caution should dominate normal")
	}
}
