package verdict

import (
	"strings"
	"testing"

	"github.com/occumed/occumed/internal/domain/classification"
)

func TestRecommend_IncompleteWinsOverEverything(t *testing.T) {
	findings := []Finding{
		{Field: "blood_pressure", Label: "hypertension-stage-2", Severity: classification.SeverityCritical},
	}
	rec := Recommend(findings, false, []string{"study audiometry has no extracted data"})
	if rec.Verdict != Pending {
		t.Fatalf("expected pending, got %s", rec.Verdict)
	}
	if len(rec.Reasons) != 1 || !strings.Contains(rec.Reasons[0], "audiometry") {
		t.Errorf("expected missing item cited, got %v", rec.Reasons)
	}
}

func TestRecommend_CriticalDominatesWarning(t *testing.T) {
	findings := []Finding{
		{Field: "bmi", Label: "obesity-1", Severity: classification.SeverityWarning},
		{Field: "blood_pressure", Label: "hypertension-stage-2", Severity: classification.SeverityCritical},
	}
	rec := Recommend(findings, true, nil)
	if rec.Verdict != NotFit {
		t.Fatalf("expected not-fit, got %s", rec.Verdict)
	}
	if len(rec.Reasons) != 1 || !strings.Contains(rec.Reasons[0], "blood_pressure") {
		t.Errorf("expected the critical finding cited, got %v", rec.Reasons)
	}
}

func TestRecommend_WarningsCitedAsRestrictionBasis(t *testing.T) {
	findings := []Finding{
		{Field: "bmi", Label: "obesity-1", Severity: classification.SeverityWarning},
		{Field: "blood_pressure", Label: "hypertension-stage-1", Severity: classification.SeverityWarning},
		{Field: "heart_rate", Label: "normal", Severity: classification.SeverityNormal},
	}
	rec := Recommend(findings, true, nil)
	if rec.Verdict != FitWithRestrictions {
		t.Fatalf("expected fit-with-restrictions, got %s", rec.Verdict)
	}
	if len(rec.Reasons) != 2 {
		t.Errorf("expected both warnings cited, got %v", rec.Reasons)
	}
}

func TestRecommend_UnclassifiableRefersToSpecialist(t *testing.T) {
	findings := []Finding{
		{Field: "audiometry_left", Unclassified: true},
		{Field: "heart_rate", Label: "normal", Severity: classification.SeverityNormal},
	}
	rec := Recommend(findings, true, nil)
	if rec.Verdict != Referred {
		t.Fatalf("expected referred-to-specialist, got %s", rec.Verdict)
	}
}

func TestRecommend_ReferralFlagRefersToSpecialist(t *testing.T) {
	findings := []Finding{
		{Field: "spirometry_fev1", Label: "normal", Severity: classification.SeverityNormal, NeedsReferral: true},
	}
	rec := Recommend(findings, true, nil)
	if rec.Verdict != Referred {
		t.Fatalf("expected referred-to-specialist, got %s", rec.Verdict)
	}
}

func TestRecommend_AllNormalIsFit(t *testing.T) {
	findings := []Finding{
		{Field: "bmi", Label: "normal", Severity: classification.SeverityNormal},
		{Field: "blood_pressure", Label: "normal", Severity: classification.SeverityNormal},
	}
	rec := Recommend(findings, true, nil)
	if rec.Verdict != FitForDuty {
		t.Fatalf("expected fit-for-duty, got %s", rec.Verdict)
	}
	if len(rec.Reasons) == 0 {
		t.Error("expected a stated reason even for fit")
	}
}

func TestRecommend_NoFindingsButComplete(t *testing.T) {
	rec := Recommend(nil, true, nil)
	if rec.Verdict != FitForDuty {
		t.Fatalf("expected fit-for-duty with no findings, got %s", rec.Verdict)
	}
}

func TestValid(t *testing.T) {
	for _, v := range []Verdict{FitForDuty, FitWithRestrictions, NotFit, Pending, Referred} {
		if !Valid(v) {
			t.Errorf("%s should be valid", v)
		}
	}
	if Valid("apt") {
		t.Error("unknown verdict should not be valid")
	}
}
