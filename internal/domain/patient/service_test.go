package patient

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

type mockPatientRepo struct {
	byID map[uuid.UUID]*Patient
}

func newMockPatientRepo() *mockPatientRepo {
	return &mockPatientRepo{byID: make(map[uuid.UUID]*Patient)}
}

func (m *mockPatientRepo) Create(_ context.Context, p *Patient) error {
	p.ID = uuid.New()
	cp := *p
	m.byID[p.ID] = &cp
	return nil
}

func (m *mockPatientRepo) GetByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, errors.New("patient not found")
	}
	cp := *p
	return &cp, nil
}

func (m *mockPatientRepo) GetByCURP(_ context.Context, clinicID uuid.UUID, curp string) (*Patient, error) {
	for _, p := range m.byID {
		if p.ClinicID == clinicID && p.CURP != nil && *p.CURP == curp {
			cp := *p
			return &cp, nil
		}
	}
	return nil, errors.New("patient not found")
}

func (m *mockPatientRepo) List(_ context.Context, _, _ int) ([]*Patient, int, error) {
	var out []*Patient
	for _, p := range m.byID {
		cp := *p
		out = append(out, &cp)
	}
	return out, len(out), nil
}

func (m *mockPatientRepo) Search(_ context.Context, _ string, _, _ int) ([]*Patient, int, error) {
	return nil, 0, nil
}

func (m *mockPatientRepo) Update(_ context.Context, p *Patient) error {
	if _, ok := m.byID[p.ID]; !ok {
		return errors.New("patient not found")
	}
	cp := *p
	m.byID[p.ID] = &cp
	return nil
}

func str(s string) *string { return &s }

func TestCreatePatientRequiresNames(t *testing.T) {
	svc := NewService(newMockPatientRepo(), nil)
	err := svc.CreatePatient(context.Background(), &Patient{ClinicID: uuid.New(), FirstName: "Ana"})
	if err == nil {
		t.Error("missing last name should be rejected")
	}
	err = svc.CreatePatient(context.Background(), &Patient{FirstName: "Ana", LastName: "Torres"})
	if err == nil {
		t.Error("missing clinic should be rejected")
	}
}

func TestCreatePatientDuplicateCURP(t *testing.T) {
	repo := newMockPatientRepo()
	svc := NewService(repo, nil)
	clinicID := uuid.New()

	first := &Patient{ClinicID: clinicID, FirstName: "Ana", LastName: "Torres", CURP: str("TOAA900101MDFRRN01")}
	if err := svc.CreatePatient(context.Background(), first); err != nil {
		t.Fatalf("create: %v", err)
	}

	dup := &Patient{ClinicID: clinicID, FirstName: "Ana", LastName: "Torres", CURP: str("TOAA900101MDFRRN01")}
	if err := svc.CreatePatient(context.Background(), dup); err == nil {
		t.Error("duplicate CURP in the same clinic should be rejected")
	}

	other := &Patient{ClinicID: uuid.New(), FirstName: "Ana", LastName: "Torres", CURP: str("TOAA900101MDFRRN01")}
	if err := svc.CreatePatient(context.Background(), other); err != nil {
		t.Errorf("same CURP in another clinic should be allowed: %v", err)
	}
}

func TestFullName(t *testing.T) {
	p := &Patient{FirstName: "Ana", LastName: "Torres"}
	if got := p.FullName(); got != "Ana Torres" {
		t.Errorf("FullName() = %q", got)
	}
	p.MaternalLastName = str("Ramos")
	if got := p.FullName(); got != "Ana Torres Ramos" {
		t.Errorf("FullName() = %q", got)
	}
}

func TestGetPatientRoundTrip(t *testing.T) {
	repo := newMockPatientRepo()
	svc := NewService(repo, nil)

	p := &Patient{ClinicID: uuid.New(), FirstName: "Luis", LastName: "Mendez"}
	if err := svc.CreatePatient(context.Background(), p); err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := svc.GetPatient(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.FullName() != "Luis Mendez" {
		t.Errorf("got %q", got.FullName())
	}
}
