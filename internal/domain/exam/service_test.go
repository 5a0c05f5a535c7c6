package exam

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
)

type mockExamRepo struct {
	store map[uuid.UUID]*MedicalExam
}

func newMockExamRepo() *mockExamRepo {
	return &mockExamRepo{store: make(map[uuid.UUID]*MedicalExam)}
}

func (m *mockExamRepo) Create(_ context.Context, e *MedicalExam) error {
	e.ID = uuid.New()
	m.store[e.ID] = e
	return nil
}

func (m *mockExamRepo) GetByID(_ context.Context, id uuid.UUID) (*MedicalExam, error) {
	e, ok := m.store[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return e, nil
}

func (m *mockExamRepo) ListByExpedient(_ context.Context, expedientID uuid.UUID) ([]*MedicalExam, error) {
	var r []*MedicalExam
	for _, e := range m.store {
		if e.ExpedientID == expedientID {
			r = append(r, e)
		}
	}
	return r, nil
}

func TestCreateExam_Success(t *testing.T) {
	svc := NewService(newMockExamRepo())
	e := fullVitalsExam()
	if err := svc.CreateExam(context.Background(), e); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.ID == uuid.Nil {
		t.Error("expected ID to be set")
	}
}

func TestCreateExam_PartialVitalsAllowed(t *testing.T) {
	svc := NewService(newMockExamRepo())
	e := fullVitalsExam()
	e.Temperature = nil
	e.RespiratoryRate = nil
	if err := svc.CreateExam(context.Background(), e); err != nil {
		t.Fatalf("partial capture should be accepted: %v", err)
	}
}

func TestCreateExam_ImplausibleRejected(t *testing.T) {
	svc := NewService(newMockExamRepo())
	e := fullVitalsExam()
	e.HeartRate = f(400)
	err := svc.CreateExam(context.Background(), e)
	var implausible *ImplausibleMeasurementError
	if !errors.As(err, &implausible) {
		t.Fatalf("expected ImplausibleMeasurementError, got %v", err)
	}
	if implausible.Field != "heart_rate" {
		t.Errorf("expected heart_rate flagged, got %s", implausible.Field)
	}
}

func TestCreateExam_MissingExaminer(t *testing.T) {
	svc := NewService(newMockExamRepo())
	e := fullVitalsExam()
	e.ExaminerID = ""
	if err := svc.CreateExam(context.Background(), e); !errors.Is(err, ErrExaminerRequired) {
		t.Fatalf("expected ErrExaminerRequired, got %v", err)
	}
}

func TestCreateExam_DefaultsPerformedAt(t *testing.T) {
	svc := NewService(newMockExamRepo())
	e := fullVitalsExam()
	e.PerformedAt = time.Time{}
	if err := svc.CreateExam(context.Background(), e); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.PerformedAt.IsZero() {
		t.Error("performed_at should be defaulted")
	}
}

func TestListByExpedient(t *testing.T) {
	svc := NewService(newMockExamRepo())
	expedientID := uuid.New()
	e := fullVitalsExam()
	e.ExpedientID = expedientID
	svc.CreateExam(context.Background(), e)
	svc.CreateExam(context.Background(), fullVitalsExam())

	items, err := svc.ListByExpedient(context.Background(), expedientID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 {
		t.Errorf("expected 1 exam for expedient, got %d", len(items))
	}
}
