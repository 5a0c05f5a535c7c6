package expedient

import "fmt"

// Status is the lifecycle phase of an expedient. A case moves forward through
// the ordered phases below and never reopens a completed one; CANCELLED is the
// single escape hatch and sits outside the order.
type Status string

const (
	StatusDraft           Status = "DRAFT"
	StatusScheduled       Status = "SCHEDULED"
	StatusCheckedIn       Status = "CHECKED_IN"
	StatusInPhysicalExam  Status = "IN_PHYSICAL_EXAM"
	StatusExamCompleted   Status = "EXAM_COMPLETED"
	StatusAwaitingStudies Status = "AWAITING_STUDIES"
	StatusStudiesUploaded Status = "STUDIES_UPLOADED"
	StatusDataExtracted   Status = "DATA_EXTRACTED"
	StatusReadyForReview  Status = "READY_FOR_REVIEW"
	StatusInValidation    Status = "IN_VALIDATION"
	StatusValidated       Status = "VALIDATED"
	StatusDelivered       Status = "DELIVERED"
	StatusArchived        Status = "ARCHIVED"
	StatusCancelled       Status = "CANCELLED"
)

// statusOrder is the authoritative forward ordering. CANCELLED is absent on
// purpose: it is reachable from any non-terminal state but ordered before none.
var statusOrder = map[Status]int{
	StatusDraft:           0,
	StatusScheduled:       1,
	StatusCheckedIn:       2,
	StatusInPhysicalExam:  3,
	StatusExamCompleted:   4,
	StatusAwaitingStudies: 5,
	StatusStudiesUploaded: 6,
	StatusDataExtracted:   7,
	StatusReadyForReview:  8,
	StatusInValidation:    9,
	StatusValidated:       10,
	StatusDelivered:       11,
	StatusArchived:        12,
}

// ValidStatus reports whether s is a known status value.
func ValidStatus(s Status) bool {
	if s == StatusCancelled {
		return true
	}
	_, ok := statusOrder[s]
	return ok
}

// Terminal reports whether no further transition is possible from s.
func (s Status) Terminal() bool {
	return s == StatusArchived || s == StatusCancelled
}

// Order returns the position of s in the forward ordering. CANCELLED and
// unknown values return -1.
func (s Status) Order() int {
	if o, ok := statusOrder[s]; ok {
		return o
	}
	return -1
}

// InvalidTransitionError reports a rejected state change with both sides of
// the request so the caller can see exactly what was refused.
type InvalidTransitionError struct {
	Current   Status
	Requested Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition: expedient is %s, cannot move to %s", e.Current, e.Requested)
}

// CanTransition validates a requested state change against the forward-or-
// cancel rule. It never inspects anything but the two statuses, so callers
// can check a transition without touching storage.
func CanTransition(current, target Status) error {
	if !ValidStatus(target) {
		return &InvalidTransitionError{Current: current, Requested: target}
	}
	if target == StatusCancelled {
		if current.Terminal() {
			return &InvalidTransitionError{Current: current, Requested: target}
		}
		return nil
	}
	if current == StatusCancelled {
		return &InvalidTransitionError{Current: current, Requested: target}
	}
	if target.Order() < current.Order() {
		return &InvalidTransitionError{Current: current, Requested: target}
	}
	return nil
}
