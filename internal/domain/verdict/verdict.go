// Package verdict computes the recommended fitness-for-duty outcome for an
// exam cycle from its classified findings. The recommendation is advisory:
// the physician's final verdict recorded at signing is authoritative and may
// diverge from it.
package verdict

import (
	"fmt"

	"github.com/occumed/occumed/internal/domain/classification"
)

// Verdict is the closed set of fitness outcomes.
type Verdict string

const (
	FitForDuty          Verdict = "fit-for-duty"
	FitWithRestrictions Verdict = "fit-with-restrictions"
	NotFit              Verdict = "not-fit"
	Pending             Verdict = "pending"
	Referred            Verdict = "referred-to-specialist"
)

var validVerdicts = map[Verdict]bool{
	FitForDuty:          true,
	FitWithRestrictions: true,
	NotFit:              true,
	Pending:             true,
	Referred:            true,
}

// Valid reports whether v is a member of the closed verdict set.
func Valid(v Verdict) bool { return validVerdicts[v] }

// Finding is one classified clinical fact feeding the recommendation.
type Finding struct {
	Field         string                  `json:"field"`
	Label         string                  `json:"label"`
	Severity      classification.Severity `json:"severity"`
	Unclassified  bool                    `json:"unclassified,omitempty"`
	NeedsReferral bool                    `json:"needs_referral,omitempty"`
}

// Recommendation is the engine output: one verdict and the findings that
// produced it.
type Recommendation struct {
	Verdict Verdict  `json:"verdict"`
	Reasons []string `json:"reasons"`
}

// Recommend applies the verdict rules in precedence order, first match wins:
// incomplete data, then critical findings, then warnings, then referral
// conditions, then fit. It never mutates its inputs.
func Recommend(findings []Finding, complete bool, missing []string) Recommendation {
	if !complete {
		reasons := make([]string, 0, len(missing))
		for _, m := range missing {
			reasons = append(reasons, "incomplete: "+m)
		}
		if len(reasons) == 0 {
			reasons = append(reasons, "incomplete exam data")
		}
		return Recommendation{Verdict: Pending, Reasons: reasons}
	}

	var criticals, warnings, referrals []string
	for _, f := range findings {
		switch {
		case f.Severity == classification.SeverityCritical:
			criticals = append(criticals, cite(f))
		case f.Severity == classification.SeverityWarning:
			warnings = append(warnings, cite(f))
		}
		if f.Unclassified || f.NeedsReferral {
			referrals = append(referrals, cite(f))
		}
	}

	switch {
	case len(criticals) > 0:
		return Recommendation{Verdict: NotFit, Reasons: criticals}
	case len(warnings) > 0:
		return Recommendation{Verdict: FitWithRestrictions, Reasons: warnings}
	case len(referrals) > 0:
		return Recommendation{Verdict: Referred, Reasons: referrals}
	default:
		return Recommendation{Verdict: FitForDuty, Reasons: []string{"all findings within normal limits"}}
	}
}

func cite(f Finding) string {
	if f.Unclassified {
		return fmt.Sprintf("%s: value could not be classified", f.Field)
	}
	return fmt.Sprintf("%s: %s (%s)", f.Field, f.Label, f.Severity)
}
