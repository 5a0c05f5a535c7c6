package expedient

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"

	"github.com/occumed/occumed/internal/platform/db"
)

type mockExpedientRepo struct {
	byID map[uuid.UUID]*Expedient
	// forceConflict makes the next UpdateStatus lose the version race.
	forceConflict bool
}

func newMockExpedientRepo() *mockExpedientRepo {
	return &mockExpedientRepo{byID: make(map[uuid.UUID]*Expedient)}
}

func (m *mockExpedientRepo) Create(_ context.Context, e *Expedient) error {
	for _, other := range m.byID {
		if other.ClinicID == e.ClinicID && other.Folio == e.Folio {
			return fmt.Errorf("duplicate folio %s", e.Folio)
		}
	}
	e.ID = uuid.New()
	e.VersionID = 1
	m.byID[e.ID] = e
	return nil
}

func (m *mockExpedientRepo) GetByID(_ context.Context, id uuid.UUID) (*Expedient, error) {
	e, ok := m.byID[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	cp := *e
	return &cp, nil
}

func (m *mockExpedientRepo) GetByFolio(_ context.Context, clinicID uuid.UUID, folio string) (*Expedient, error) {
	for _, e := range m.byID {
		if e.ClinicID == clinicID && e.Folio == folio {
			cp := *e
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("not found")
}

func (m *mockExpedientRepo) List(_ context.Context, limit, offset int) ([]*Expedient, int, error) {
	var items []*Expedient
	for _, e := range m.byID {
		items = append(items, e)
	}
	return items, len(items), nil
}

func (m *mockExpedientRepo) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*Expedient, int, error) {
	var items []*Expedient
	for _, e := range m.byID {
		if e.PatientID == patientID {
			items = append(items, e)
		}
	}
	return items, len(items), nil
}

func (m *mockExpedientRepo) UpdateStatus(_ context.Context, e *Expedient, target Status) error {
	stored, ok := m.byID[e.ID]
	if m.forceConflict || !ok || stored.VersionID != e.VersionID {
		return db.ErrVersionConflict
	}
	stored.Status = target
	stored.VersionID++
	e.Status = target
	e.VersionID = stored.VersionID
	return nil
}

func (m *mockExpedientRepo) UpdateNotes(_ context.Context, e *Expedient) error {
	stored, ok := m.byID[e.ID]
	if !ok || stored.VersionID != e.VersionID {
		return db.ErrVersionConflict
	}
	stored.Notes = e.Notes
	stored.VersionID++
	e.VersionID = stored.VersionID
	return nil
}

func newTestExpedient(t *testing.T, svc *Service, status Status) *Expedient {
	t.Helper()
	e := &Expedient{
		Folio:     "OCC-2026-0001",
		PatientID: uuid.New(),
		ClinicID:  uuid.New(),
		Status:    status,
	}
	if err := svc.CreateExpedient(context.Background(), e); err != nil {
		t.Fatalf("create expedient: %v", err)
	}
	return e
}

func TestCreateExpedient_DefaultsToDraft(t *testing.T) {
	svc := NewService(newMockExpedientRepo())
	e := newTestExpedient(t, svc, "")
	if e.Status != StatusDraft {
		t.Errorf("expected DRAFT, got %s", e.Status)
	}
	if e.VersionID != 1 {
		t.Errorf("expected version 1, got %d", e.VersionID)
	}
}

func TestCreateExpedient_RequiredFields(t *testing.T) {
	svc := NewService(newMockExpedientRepo())
	cases := []*Expedient{
		{PatientID: uuid.New(), ClinicID: uuid.New()},
		{Folio: "F-1", ClinicID: uuid.New()},
		{Folio: "F-1", PatientID: uuid.New()},
	}
	for _, e := range cases {
		if err := svc.CreateExpedient(context.Background(), e); err == nil {
			t.Errorf("expected error for %+v", e)
		}
	}
}

func TestCreateExpedient_DuplicateFolioSameClinic(t *testing.T) {
	repo := newMockExpedientRepo()
	svc := NewService(repo)
	clinicID := uuid.New()
	first := &Expedient{Folio: "OCC-1", PatientID: uuid.New(), ClinicID: clinicID}
	if err := svc.CreateExpedient(context.Background(), first); err != nil {
		t.Fatalf("create: %v", err)
	}
	dup := &Expedient{Folio: "OCC-1", PatientID: uuid.New(), ClinicID: clinicID}
	if err := svc.CreateExpedient(context.Background(), dup); err == nil {
		t.Error("expected duplicate folio rejection")
	}
}

func TestRequestTransition_Forward(t *testing.T) {
	svc := NewService(newMockExpedientRepo())
	e := newTestExpedient(t, svc, "")

	got, err := svc.RequestTransition(context.Background(), e.ID, StatusScheduled)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != StatusScheduled {
		t.Errorf("expected SCHEDULED, got %s", got.Status)
	}
	if got.VersionID != 2 {
		t.Errorf("expected version bump to 2, got %d", got.VersionID)
	}
}

func TestRequestTransition_BackwardRejectedWithoutMutation(t *testing.T) {
	repo := newMockExpedientRepo()
	svc := NewService(repo)
	e := newTestExpedient(t, svc, StatusInValidation)

	_, err := svc.RequestTransition(context.Background(), e.ID, StatusDraft)
	var invalid *InvalidTransitionError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidTransitionError, got %v", err)
	}
	stored, _ := repo.GetByID(context.Background(), e.ID)
	if stored.Status != StatusInValidation {
		t.Errorf("rejected transition must not mutate state, got %s", stored.Status)
	}
	if stored.VersionID != 1 {
		t.Errorf("rejected transition must not bump version, got %d", stored.VersionID)
	}
}

func TestRequestTransition_VersionConflictSurfaced(t *testing.T) {
	repo := newMockExpedientRepo()
	svc := NewService(repo)
	e := newTestExpedient(t, svc, "")
	repo.forceConflict = true

	_, err := svc.RequestTransition(context.Background(), e.ID, StatusScheduled)
	if !errors.Is(err, db.ErrVersionConflict) {
		t.Fatalf("expected version conflict, got %v", err)
	}
}

func TestRequestTransition_ReadyForReviewHook(t *testing.T) {
	svc := NewService(newMockExpedientRepo())
	e := newTestExpedient(t, svc, StatusDataExtracted)

	var hookCalls int
	svc.OnReadyForReview(func(_ context.Context, got *Expedient) error {
		hookCalls++
		if got.Status != StatusReadyForReview {
			t.Errorf("hook should see committed status, got %s", got.Status)
		}
		return nil
	})

	if _, err := svc.RequestTransition(context.Background(), e.ID, StatusReadyForReview); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hookCalls != 1 {
		t.Fatalf("expected 1 hook call, got %d", hookCalls)
	}

	// Re-requesting the same status is a no-op for side effects.
	if _, err := svc.RequestTransition(context.Background(), e.ID, StatusReadyForReview); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hookCalls != 1 {
		t.Errorf("hook must only fire on genuine entry, got %d calls", hookCalls)
	}
}

func TestRequestTransition_HookFailureKeepsCommittedState(t *testing.T) {
	repo := newMockExpedientRepo()
	svc := NewService(repo)
	e := newTestExpedient(t, svc, StatusInValidation)

	svc.OnValidated(func(_ context.Context, _ *Expedient) error {
		return fmt.Errorf("renderer unavailable")
	})

	_, err := svc.RequestTransition(context.Background(), e.ID, StatusValidated)
	if err == nil {
		t.Fatal("expected hook error to surface")
	}
	stored, _ := repo.GetByID(context.Background(), e.ID)
	if stored.Status != StatusValidated {
		t.Errorf("hook failure must not roll back the transition, got %s", stored.Status)
	}
}

func TestMarkArchived_SoftDelete(t *testing.T) {
	repo := newMockExpedientRepo()
	svc := NewService(repo)
	e := newTestExpedient(t, svc, StatusDelivered)

	got, err := svc.MarkArchived(context.Background(), e.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != StatusArchived {
		t.Errorf("expected ARCHIVED, got %s", got.Status)
	}
	if _, err := repo.GetByID(context.Background(), e.ID); err != nil {
		t.Error("archived expedient must remain readable")
	}
}

func TestCancelExpedient(t *testing.T) {
	svc := NewService(newMockExpedientRepo())
	e := newTestExpedient(t, svc, StatusAwaitingStudies)

	got, err := svc.CancelExpedient(context.Background(), e.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != StatusCancelled {
		t.Errorf("expected CANCELLED, got %s", got.Status)
	}

	if _, err := svc.RequestTransition(context.Background(), e.ID, StatusScheduled); err == nil {
		t.Error("transitions out of CANCELLED must be rejected")
	}
}
