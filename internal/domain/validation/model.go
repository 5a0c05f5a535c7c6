package validation

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/occumed/occumed/internal/domain/verdict"
)

// TaskStatus is the lifecycle phase of a physician review cycle.
type TaskStatus string

const (
	TaskPending    TaskStatus = "PENDING"
	TaskAssigned   TaskStatus = "ASSIGNED"
	TaskInProgress TaskStatus = "IN_PROGRESS"
	TaskSigned     TaskStatus = "SIGNED"
	TaskCancelled  TaskStatus = "CANCELLED"
)

// Terminal reports whether no further transition is possible from s.
// Signing is final; a signed task is never cancelled or reopened.
func (s TaskStatus) Terminal() bool {
	return s == TaskSigned || s == TaskCancelled
}

// taskTransitions is the legal-transition table for review tasks.
var taskTransitions = map[TaskStatus][]TaskStatus{
	TaskPending:    {TaskAssigned, TaskCancelled},
	TaskAssigned:   {TaskInProgress, TaskCancelled},
	TaskInProgress: {TaskSigned, TaskCancelled},
}

// CanTransitionTask validates a task state change against the table.
func CanTransitionTask(current, target TaskStatus) error {
	for _, allowed := range taskTransitions[current] {
		if allowed == target {
			return nil
		}
	}
	return &TaskTransitionError{Current: current, Requested: target}
}

// TaskTransitionError reports a rejected task state change.
type TaskTransitionError struct {
	Current   TaskStatus
	Requested TaskStatus
}

func (e *TaskTransitionError) Error() string {
	return fmt.Sprintf("invalid transition: task is %s, cannot move to %s", e.Current, e.Requested)
}

// ErrTaskAlreadyOpen is returned when a second review task is opened for an
// expedient that already has a non-terminal one.
var ErrTaskAlreadyOpen = errors.New("a validation task is already open for this expedient")

// IncompleteExamError rejects a sign attempt while the completeness gate
// fails. It lists every missing prerequisite so the caller can resolve them.
type IncompleteExamError struct {
	Missing []string
}

func (e *IncompleteExamError) Error() string {
	return "exam incomplete: " + strings.Join(e.Missing, "; ")
}

// ValidationTask maps to the validation_task table. The recommended verdict
// is system-computed and advisory; the final verdict is physician-entered and
// authoritative. Both are kept so an override stays visible for audit.
type ValidationTask struct {
	ID                    uuid.UUID          `db:"id" json:"id"`
	ExpedientID           uuid.UUID          `db:"expedient_id" json:"expedient_id"`
	Status                TaskStatus         `db:"status" json:"status"`
	AssignedTo            *string            `db:"assigned_to" json:"assigned_to,omitempty"`
	Findings              []verdict.Finding  `db:"findings" json:"findings,omitempty"`
	RecommendedVerdict    *verdict.Verdict   `db:"recommended_verdict" json:"recommended_verdict,omitempty"`
	RecommendationReasons []string           `db:"recommendation_reasons" json:"recommendation_reasons,omitempty"`
	FinalVerdict          *verdict.Verdict   `db:"final_verdict" json:"final_verdict,omitempty"`
	Diagnosis             *string            `db:"diagnosis" json:"diagnosis,omitempty"`
	Restrictions          *string            `db:"restrictions" json:"restrictions,omitempty"`
	OverrideReason        *string            `db:"override_reason" json:"override_reason,omitempty"`
	SignatureProof        *string            `db:"signature_proof" json:"signature_proof,omitempty"`
	SignedBy              *string            `db:"signed_by" json:"signed_by,omitempty"`
	SignedAt              *time.Time         `db:"signed_at" json:"signed_at,omitempty"`
	CertificateRef        *string            `db:"certificate_ref" json:"certificate_ref,omitempty"`
	VersionID             int                `db:"version_id" json:"version_id"`
	CreatedAt             time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time          `db:"updated_at" json:"updated_at"`
}

// Overridden reports whether the physician's final verdict diverged from the
// system recommendation. Divergence is recorded, never an error.
func (t *ValidationTask) Overridden() bool {
	return t.FinalVerdict != nil && t.RecommendedVerdict != nil && *t.FinalVerdict != *t.RecommendedVerdict
}

// GetVersionID returns the current version.
func (t *ValidationTask) GetVersionID() int { return t.VersionID }

// SetVersionID sets the current version.
func (t *ValidationTask) SetVersionID(v int) { t.VersionID = v }
