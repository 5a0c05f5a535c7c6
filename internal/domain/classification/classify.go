// Package classification turns raw vital-sign measurements into clinical
// labels with a severity tier. Every classifier is a pure function over its
// plausible input domain: the same input always produces the same label, and
// every input maps to exactly one band.
package classification

import "math"

// Severity is the clinical weight of a classified finding.
type Severity string

const (
	SeverityNormal   Severity = "normal"
	SeverityCaution  Severity = "caution"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

var severityRank = map[Severity]int{
	SeverityNormal:   0,
	SeverityCaution:  1,
	SeverityWarning:  2,
	SeverityCritical: 3,
}

// Rank returns the ordinal position of the severity, normal lowest.
func (s Severity) Rank() int { return severityRank[s] }

// Max returns the higher of two severities.
func Max(a, b Severity) Severity {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// Result is a classification outcome: a band label and its severity tier.
type Result struct {
	Label    string   `json:"label"`
	Severity Severity `json:"severity"`
}

// BodyMassIndex computes weight(kg)/height(m)² from a height in centimeters,
// rounded to two decimals with standard half-up rounding.
func BodyMassIndex(weightKg, heightCm float64) float64 {
	m := heightCm / 100
	return math.Floor(weightKg/(m*m)*100+0.5) / 100
}

// ClassifyBodyMass bands a BMI value. Bands are half-open on the upper edge,
// so 24.99 is normal and 25.00 is overweight.
func ClassifyBodyMass(bmi float64) Result {
	switch {
	case bmi < 18.5:
		return Result{"low-weight", SeverityCaution}
	case bmi < 25:
		return Result{"normal", SeverityNormal}
	case bmi < 30:
		return Result{"overweight", SeverityCaution}
	case bmi < 35:
		return Result{"obesity-1", SeverityWarning}
	case bmi < 40:
		return Result{"obesity-2", SeverityWarning}
	case bmi < 50:
		return Result{"obesity-3", SeverityCritical}
	default:
		return Result{"obesity-4", SeverityCritical}
	}
}

// ClassifyBodyMassFromVitals classifies directly from weight and height as
// recorded on the exam.
func ClassifyBodyMassFromVitals(weightKg, heightCm float64) Result {
	return ClassifyBodyMass(BodyMassIndex(weightKg, heightCm))
}

// ClassifyBloodPressure evaluates the systolic/diastolic pair jointly.
// Conditions are tested in order and the first match wins, so 140/89 lands in
// stage 2 even though the diastolic alone would be stage 1.
func ClassifyBloodPressure(systolic, diastolic float64) Result {
	switch {
	case systolic < 80 && diastolic < 50:
		return Result{"low", SeverityCaution}
	case systolic >= 140 || diastolic >= 90:
		return Result{"hypertension-stage-2", SeverityCritical}
	case systolic >= 130 || diastolic >= 80:
		return Result{"hypertension-stage-1", SeverityWarning}
	case systolic >= 120 && diastolic < 80:
		return Result{"elevated", SeverityCaution}
	default:
		return Result{"normal", SeverityNormal}
	}
}

// ClassifyHeartRate bands a resting heart rate in beats per minute.
func ClassifyHeartRate(bpm float64) Result {
	switch {
	case bpm < 40:
		return Result{"bradycardia-severe", SeverityCritical}
	case bpm < 60:
		return Result{"bradycardia", SeverityCaution}
	case bpm <= 100:
		return Result{"normal", SeverityNormal}
	case bpm <= 120:
		return Result{"tachycardia-mild", SeverityCaution}
	case bpm <= 150:
		return Result{"tachycardia", SeverityWarning}
	default:
		return Result{"tachycardia-severe", SeverityCritical}
	}
}

// ClassifyRespiratoryRate bands a respiratory rate in breaths per minute.
func ClassifyRespiratoryRate(rpm float64) Result {
	switch {
	case rpm < 8:
		return Result{"bradypnea-severe", SeverityCritical}
	case rpm < 12:
		return Result{"bradypnea", SeverityCaution}
	case rpm <= 20:
		return Result{"normal", SeverityNormal}
	case rpm <= 24:
		return Result{"tachypnea-mild", SeverityCaution}
	case rpm <= 30:
		return Result{"tachypnea", SeverityWarning}
	default:
		return Result{"tachypnea-severe", SeverityCritical}
	}
}

// ClassifyTemperature bands a body temperature in degrees Celsius.
func ClassifyTemperature(celsius float64) Result {
	switch {
	case celsius < 32:
		return Result{"hypothermia-severe", SeverityCritical}
	case celsius < 35:
		return Result{"hypothermia", SeverityWarning}
	case celsius <= 37.5:
		return Result{"normal", SeverityNormal}
	case celsius <= 38.5:
		return Result{"low-grade-fever", SeverityCaution}
	case celsius < 40:
		return Result{"fever", SeverityWarning}
	default:
		return Result{"high-fever", SeverityCritical}
	}
}

// Single-valued vital field identifiers as they appear on extracted data
// points. Blood pressure and BMI are pair-valued and classified through their
// dedicated functions.
const (
	FieldHeartRate       = "heart_rate"
	FieldRespiratoryRate = "respiratory_rate"
	FieldTemperature     = "temperature"
)

var vitalClassifiers = map[string]func(float64) Result{
	FieldHeartRate:       ClassifyHeartRate,
	FieldRespiratoryRate: ClassifyRespiratoryRate,
	FieldTemperature:     ClassifyTemperature,
}

// ClassifyVital classifies a single-valued vital by its field identifier.
// The second return is false when no classifier exists for the field; callers
// treat such data points as unclassifiable rather than guessing.
func ClassifyVital(field string, value float64) (Result, bool) {
	fn, ok := vitalClassifiers[field]
	if !ok {
		return Result{}, false
	}
	return fn(value), true
}

// ClassifyReferenceRange classifies a lab value against its reference range.
// Used for extracted data points with no dedicated vital classifier. Both
// bounds must be present; otherwise the value is unclassifiable and the
// second return is false.
func ClassifyReferenceRange(value float64, min, max *float64) (Result, bool) {
	if min == nil || max == nil {
		return Result{}, false
	}
	switch {
	case value < *min:
		return Result{"below-range", SeverityWarning}, true
	case value > *max:
		return Result{"above-range", SeverityWarning}, true
	default:
		return Result{"within-range", SeverityNormal}, true
	}
}
