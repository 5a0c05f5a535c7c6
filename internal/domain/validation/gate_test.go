package validation

import (
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/occumed/occumed/internal/domain/exam"
	"github.com/occumed/occumed/internal/domain/study"
)

func f(v float64) *float64 { return &v }

func fullVitalsExam() *exam.MedicalExam {
	return &exam.MedicalExam{
		ID:              uuid.New(),
		Systolic:        f(120),
		Diastolic:       f(80),
		HeartRate:       f(72),
		RespiratoryRate: f(14),
		Temperature:     f(36.6),
		HeightCm:        f(172),
		WeightKg:        f(70),
		ExaminerID:      "dr-lopez",
	}
}

func studyWith(studyType string, points int) *study.StudyWithPoints {
	s := &study.StudyWithPoints{Study: &study.Study{ID: uuid.New(), Type: studyType}}
	for i := 0; i < points; i++ {
		s.Points = append(s.Points, &study.ExtractedDataPoint{StudyID: s.Study.ID, Field: "hemoglobin"})
	}
	return s
}

func hasMissing(res GateResult, substr string) bool {
	for _, m := range res.Missing {
		if strings.Contains(m, substr) {
			return true
		}
	}
	return false
}

func TestCheckCompletenessPasses(t *testing.T) {
	res := CheckCompleteness(
		[]*exam.MedicalExam{fullVitalsExam()},
		[]*study.StudyWithPoints{studyWith("blood_count", 3), studyWith("audiometry", 1)},
		nil,
	)
	if !res.Complete {
		t.Fatalf("expected complete, missing: %v", res.Missing)
	}
}

func TestCheckCompletenessNoExam(t *testing.T) {
	res := CheckCompleteness(nil, nil, nil)
	if res.Complete {
		t.Fatal("expected incomplete without an exam")
	}
	if !hasMissing(res, "no medical exam recorded") {
		t.Errorf("missing should name the absent exam, got %v", res.Missing)
	}
}

func TestCheckCompletenessMultipleExams(t *testing.T) {
	res := CheckCompleteness([]*exam.MedicalExam{fullVitalsExam(), fullVitalsExam()}, nil, nil)
	if res.Complete {
		t.Fatal("expected incomplete with two exams")
	}
	if !hasMissing(res, "expected exactly one medical exam, found 2") {
		t.Errorf("got %v", res.Missing)
	}
}

func TestCheckCompletenessMissingVital(t *testing.T) {
	e := fullVitalsExam()
	e.HeartRate = nil
	res := CheckCompleteness([]*exam.MedicalExam{e}, nil, nil)
	if res.Complete {
		t.Fatal("expected incomplete with a missing vital")
	}
	if !hasMissing(res, "vital sign heart_rate not recorded") {
		t.Errorf("got %v", res.Missing)
	}
}

func TestCheckCompletenessImplausibleVital(t *testing.T) {
	e := fullVitalsExam()
	e.Temperature = f(55)
	res := CheckCompleteness([]*exam.MedicalExam{e}, nil, nil)
	if res.Complete {
		t.Fatal("expected incomplete with an implausible vital")
	}
	if !hasMissing(res, "implausible temperature") {
		t.Errorf("got %v", res.Missing)
	}
}

func TestCheckCompletenessStudyWithoutData(t *testing.T) {
	res := CheckCompleteness(
		[]*exam.MedicalExam{fullVitalsExam()},
		[]*study.StudyWithPoints{studyWith("spirometry", 0)},
		nil,
	)
	if res.Complete {
		t.Fatal("expected incomplete with an empty study")
	}
	if !hasMissing(res, "study spirometry has no extracted data") {
		t.Errorf("got %v", res.Missing)
	}
}

func TestCheckCompletenessPolicySkipsStudy(t *testing.T) {
	policy := StudyPolicyFunc(func(studyType string) bool {
		return studyType != "toxicology"
	})
	res := CheckCompleteness(
		[]*exam.MedicalExam{fullVitalsExam()},
		[]*study.StudyWithPoints{studyWith("toxicology", 0), studyWith("ecg", 2)},
		policy,
	)
	if !res.Complete {
		t.Fatalf("policy-excluded study should not block, missing: %v", res.Missing)
	}

	// An applicable study still blocks under the same policy.
	res = CheckCompleteness(
		[]*exam.MedicalExam{fullVitalsExam()},
		[]*study.StudyWithPoints{studyWith("ecg", 0)},
		policy,
	)
	if res.Complete {
		t.Fatal("applicable empty study should block")
	}
}
