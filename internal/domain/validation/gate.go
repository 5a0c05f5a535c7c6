package validation

import (
	"fmt"

	"github.com/occumed/occumed/internal/domain/exam"
	"github.com/occumed/occumed/internal/domain/study"
)

// GateResult is the outcome of the pre-validation completeness check. An
// incomplete expedient is an expected state, not a fault, so the gate never
// returns an error for it.
type GateResult struct {
	Complete bool     `json:"complete"`
	Missing  []string `json:"missing,omitempty"`
}

// StudyPolicy decides whether a study type is required at all for the
// patient's job-risk profile. A study outside the profile may sit without
// extracted data without blocking the sign-off.
type StudyPolicy interface {
	Applicable(studyType string) bool
}

// StudyPolicyFunc is a function adapter for StudyPolicy.
type StudyPolicyFunc func(studyType string) bool

func (f StudyPolicyFunc) Applicable(studyType string) bool { return f(studyType) }

// CheckCompleteness is a pure predicate over the expedient's exam and study
// set. It requires exactly one exam with all core vitals present and
// plausible, and every applicable study to carry at least one extracted data
// point.
func CheckCompleteness(exams []*exam.MedicalExam, studies []*study.StudyWithPoints, policy StudyPolicy) GateResult {
	var missing []string

	switch len(exams) {
	case 0:
		missing = append(missing, "no medical exam recorded")
	case 1:
		check := exam.CheckVitals(exams[0])
		for _, field := range check.Missing {
			missing = append(missing, fmt.Sprintf("vital sign %s not recorded", field))
		}
		for _, imp := range check.Implausible {
			missing = append(missing, imp.Error())
		}
	default:
		missing = append(missing, fmt.Sprintf("expected exactly one medical exam, found %d", len(exams)))
	}

	for _, s := range studies {
		if len(s.Points) > 0 {
			continue
		}
		if policy != nil && !policy.Applicable(s.Study.Type) {
			continue
		}
		missing = append(missing, fmt.Sprintf("study %s has no extracted data", s.Study.Type))
	}

	return GateResult{Complete: len(missing) == 0, Missing: missing}
}
