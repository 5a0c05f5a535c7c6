package validation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/occumed/occumed/internal/domain/company"
	"github.com/occumed/occumed/internal/domain/exam"
	"github.com/occumed/occumed/internal/domain/expedient"
	"github.com/occumed/occumed/internal/domain/patient"
	"github.com/occumed/occumed/internal/domain/study"
	"github.com/occumed/occumed/internal/domain/verdict"
	"github.com/occumed/occumed/internal/platform/db"
	"github.com/occumed/occumed/internal/platform/render"
)

// ErrOverrideReasonRequired is returned when the tenant mandates a rationale
// for verdicts that diverge from the system recommendation and none was given.
var ErrOverrideReasonRequired = errors.New("override reason is required when the final verdict diverges from the recommendation")

// PolicyResolver supplies the job-risk study policy for an expedient. A nil
// resolver treats every study as applicable.
type PolicyResolver interface {
	PolicyFor(ctx context.Context, expedientID uuid.UUID) (StudyPolicy, error)
}

// Config carries tenant-level validation policy.
type Config struct {
	RequireOverrideReason bool
}

// Deps are the collaborators the validation workflow drives.
type Deps struct {
	Tasks      TaskRepository
	Expedients expedient.ExpedientRepository
	Exams      exam.ExamRepository
	Studies    study.StudyRepository
	Patients   patient.PatientRepository
	Companies  company.CompanyRepository
	Policy     PolicyResolver
	Renderer   render.Renderer
	Pool       *pgxpool.Pool
	Cfg        Config
}

type Service struct {
	tasks      TaskRepository
	expedients expedient.ExpedientRepository
	exams      exam.ExamRepository
	studies    study.StudyRepository
	patients   patient.PatientRepository
	companies  company.CompanyRepository
	policy     PolicyResolver
	renderer   render.Renderer
	pool       *pgxpool.Pool
	cfg        Config
}

func NewService(d Deps) *Service {
	return &Service{
		tasks:      d.Tasks,
		expedients: d.Expedients,
		exams:      d.Exams,
		studies:    d.Studies,
		patients:   d.Patients,
		companies:  d.Companies,
		policy:     d.Policy,
		renderer:   d.Renderer,
		pool:       d.Pool,
		cfg:        d.Cfg,
	}
}

// OpenTask creates the review task for an expedient entering READY_FOR_REVIEW.
// The conditional insert enforces at most one open task per expedient.
func (s *Service) OpenTask(ctx context.Context, expedientID uuid.UUID) (*ValidationTask, error) {
	t := &ValidationTask{ExpedientID: expedientID, Status: TaskPending}
	if err := s.tasks.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Service) GetTask(ctx context.Context, id uuid.UUID) (*ValidationTask, error) {
	return s.tasks.GetByID(ctx, id)
}

func (s *Service) GetOpenTask(ctx context.Context, expedientID uuid.UUID) (*ValidationTask, error) {
	return s.tasks.GetOpenByExpedient(ctx, expedientID)
}

func (s *Service) ListByExpedient(ctx context.Context, expedientID uuid.UUID) ([]*ValidationTask, error) {
	return s.tasks.ListByExpedient(ctx, expedientID)
}

// Assign moves a PENDING task to ASSIGNED and advances the owning expedient
// into IN_VALIDATION when it is still waiting in READY_FOR_REVIEW.
func (s *Service) Assign(ctx context.Context, taskID uuid.UUID, reviewerID string) (*ValidationTask, error) {
	if reviewerID == "" {
		return nil, fmt.Errorf("reviewer id is required")
	}
	t, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := CanTransitionTask(t.Status, TaskAssigned); err != nil {
		return t, err
	}

	err = s.inTx(ctx, func(ctx context.Context) error {
		t.AssignedTo = &reviewerID
		t.Status = TaskAssigned
		if err := s.tasks.Update(ctx, t); err != nil {
			return err
		}
		e, err := s.expedients.GetByID(ctx, t.ExpedientID)
		if err != nil {
			return err
		}
		if e.Status == expedient.StatusReadyForReview {
			return s.expedients.UpdateStatus(ctx, e, expedient.StatusInValidation)
		}
		return nil
	})
	if err != nil {
		return t, err
	}
	return t, nil
}

// RecordFindings stores the classified findings and recomputes the advisory
// recommendation. Completeness is not required yet; an incomplete expedient
// simply yields a pending recommendation.
func (s *Service) RecordFindings(ctx context.Context, taskID uuid.UUID, findings []verdict.Finding) (*ValidationTask, error) {
	t, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if t.Status != TaskAssigned && t.Status != TaskInProgress {
		return t, &TaskTransitionError{Current: t.Status, Requested: TaskInProgress}
	}

	gate, err := s.Gate(ctx, t.ExpedientID)
	if err != nil {
		return t, err
	}
	rec := verdict.Recommend(findings, gate.Complete, gate.Missing)

	t.Findings = findings
	t.RecommendedVerdict = &rec.Verdict
	t.RecommendationReasons = rec.Reasons
	t.Status = TaskInProgress
	if err := s.tasks.Update(ctx, t); err != nil {
		return t, err
	}
	return t, nil
}

// SignRequest carries the physician's authoritative decision.
type SignRequest struct {
	FinalVerdict   verdict.Verdict `json:"final_verdict"`
	Diagnosis      *string         `json:"diagnosis,omitempty"`
	Restrictions   *string         `json:"restrictions,omitempty"`
	OverrideReason *string         `json:"override_reason,omitempty"`
	SignatureProof string          `json:"signature_proof"`
	SignedBy       string          `json:"-"`
}

// Sign freezes the physician's verdict, moves the task to SIGNED, and
// advances the owning expedient to VALIDATED in the same transaction. The
// certificate render runs after commit; a render failure is reported but the
// signed state stands, and the render may be retried independently.
func (s *Service) Sign(ctx context.Context, taskID uuid.UUID, req SignRequest) (*ValidationTask, error) {
	t, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := CanTransitionTask(t.Status, TaskSigned); err != nil {
		return t, err
	}
	if !verdict.Valid(req.FinalVerdict) {
		return t, fmt.Errorf("invalid verdict: %s", req.FinalVerdict)
	}
	if req.SignedBy == "" {
		return t, fmt.Errorf("signer identity is required")
	}
	if req.SignatureProof == "" {
		return t, fmt.Errorf("signature proof is required")
	}

	gate, err := s.Gate(ctx, t.ExpedientID)
	if err != nil {
		return t, err
	}
	if !gate.Complete {
		return t, &IncompleteExamError{Missing: gate.Missing}
	}

	diverges := t.RecommendedVerdict != nil && *t.RecommendedVerdict != req.FinalVerdict
	if s.cfg.RequireOverrideReason && diverges && (req.OverrideReason == nil || *req.OverrideReason == "") {
		return t, ErrOverrideReasonRequired
	}

	var e *expedient.Expedient
	err = s.inTx(ctx, func(ctx context.Context) error {
		now := time.Now().UTC()
		fv := req.FinalVerdict
		t.FinalVerdict = &fv
		t.Diagnosis = req.Diagnosis
		t.Restrictions = req.Restrictions
		t.OverrideReason = req.OverrideReason
		t.SignatureProof = &req.SignatureProof
		t.SignedBy = &req.SignedBy
		t.SignedAt = &now
		t.Status = TaskSigned
		if err := s.tasks.Update(ctx, t); err != nil {
			return err
		}

		e, err = s.expedients.GetByID(ctx, t.ExpedientID)
		if err != nil {
			return err
		}
		if err := expedient.CanTransition(e.Status, expedient.StatusValidated); err != nil {
			return err
		}
		return s.expedients.UpdateStatus(ctx, e, expedient.StatusValidated)
	})
	if err != nil {
		return t, err
	}

	if s.renderer != nil {
		if renderErr := s.renderCertificate(ctx, t, e); renderErr != nil {
			return t, renderErr
		}
	}
	return t, nil
}

// Cancel aborts an open review cycle. Signed tasks are final and cannot be
// cancelled.
func (s *Service) Cancel(ctx context.Context, taskID uuid.UUID) (*ValidationTask, error) {
	t, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := CanTransitionTask(t.Status, TaskCancelled); err != nil {
		return t, err
	}
	t.Status = TaskCancelled
	if err := s.tasks.Update(ctx, t); err != nil {
		return t, err
	}
	return t, nil
}

// Gate evaluates the completeness predicate for an expedient's current exam
// and study set.
func (s *Service) Gate(ctx context.Context, expedientID uuid.UUID) (GateResult, error) {
	exams, err := s.exams.ListByExpedient(ctx, expedientID)
	if err != nil {
		return GateResult{}, err
	}
	studies, err := s.studies.ListByExpedientWithPoints(ctx, expedientID)
	if err != nil {
		return GateResult{}, err
	}
	var policy StudyPolicy
	if s.policy != nil {
		policy, err = s.policy.PolicyFor(ctx, expedientID)
		if err != nil {
			return GateResult{}, err
		}
	}
	return CheckCompleteness(exams, studies, policy), nil
}

// RenderCertificate re-runs the certificate render for an already signed
// task. Rendering is idempotent per task, so retries converge on one object.
func (s *Service) RenderCertificate(ctx context.Context, taskID uuid.UUID) (*ValidationTask, error) {
	t, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if t.Status != TaskSigned {
		return t, &TaskTransitionError{Current: t.Status, Requested: TaskSigned}
	}
	e, err := s.expedients.GetByID(ctx, t.ExpedientID)
	if err != nil {
		return t, err
	}
	if err := s.renderCertificate(ctx, t, e); err != nil {
		return t, err
	}
	return t, nil
}

func (s *Service) renderCertificate(ctx context.Context, t *ValidationTask, e *expedient.Expedient) error {
	snap := &render.Snapshot{
		TaskID:      t.ID,
		ExpedientID: t.ExpedientID,
	}
	if e != nil {
		snap.Folio = e.Folio
		// Name lookups are best effort; the certificate still renders
		// without them.
		if s.patients != nil {
			if p, err := s.patients.GetByID(ctx, e.PatientID); err == nil {
				snap.PatientName = p.FullName()
			}
		}
		if s.companies != nil && e.CompanyID != nil {
			if co, err := s.companies.GetByID(ctx, *e.CompanyID); err == nil {
				snap.CompanyName = co.Name
			}
		}
	}
	if t.RecommendedVerdict != nil {
		snap.RecommendedVerdict = string(*t.RecommendedVerdict)
	}
	if t.FinalVerdict != nil {
		snap.FinalVerdict = string(*t.FinalVerdict)
	}
	if t.Diagnosis != nil {
		snap.Diagnosis = *t.Diagnosis
	}
	if t.Restrictions != nil {
		snap.Restrictions = *t.Restrictions
	}
	if t.SignedBy != nil {
		snap.SignedBy = *t.SignedBy
	}
	if t.SignedAt != nil {
		snap.SignedAt = *t.SignedAt
	}

	res, err := s.renderer.RenderCertificate(ctx, snap)
	if err != nil {
		return err
	}
	if t.CertificateRef == nil || *t.CertificateRef != res.FileRef {
		t.CertificateRef = &res.FileRef
		// Best effort: the certificate is already stored under a key
		// derived from the task ID even if this update loses a race.
		if err := s.tasks.Update(ctx, t); err != nil && !errors.Is(err, db.ErrVersionConflict) {
			return err
		}
	}
	return nil
}

func (s *Service) inTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.pool == nil {
		return fn(ctx)
	}
	return db.InTx(ctx, s.pool, fn)
}
