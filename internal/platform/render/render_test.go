package render

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/occumed/occumed/internal/platform/blobstore"
)

func testSnapshot() *Snapshot {
	return &Snapshot{
		TaskID:             uuid.New(),
		ExpedientID:        uuid.New(),
		Folio:              "OCC-2026-0042",
		PatientName:        "Maria Fernanda Ruiz",
		CompanyName:        "Minera del Norte",
		RecommendedVerdict: "not-fit",
		FinalVerdict:       "fit-with-restrictions",
		Diagnosis:          "hypertension stage 2, under treatment",
		Restrictions:       "no work at heights",
		SignedBy:           "dr-lopez",
		SignedAt:           time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC),
	}
}

func TestRenderCertificate_StoresPDF(t *testing.T) {
	blobs := blobstore.NewInMemoryBlobStore()
	r := NewCertificateRenderer(blobs, nil)
	snap := testSnapshot()

	res, err := r.RenderCertificate(context.Background(), snap)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.FileRef != CertificateKey(snap.TaskID) {
		t.Errorf("file ref should be derived from task id, got %s", res.FileRef)
	}
	if res.SizeBytes <= 0 {
		t.Error("expected a non-empty document")
	}

	rc, _, err := blobs.Download(context.Background(), res.FileRef)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	defer rc.Close()
	doc, _ := io.ReadAll(rc)
	if !bytes.HasPrefix(doc, []byte("%PDF-")) {
		t.Error("stored artifact is not a PDF")
	}
	if !bytes.Contains(doc, []byte("OCC-2026-0042")) {
		t.Error("certificate should carry the folio")
	}
	if !bytes.Contains(doc, []byte("fit-with-restrictions")) {
		t.Error("certificate should carry the final verdict")
	}
}

func TestRenderCertificate_IdempotentByTask(t *testing.T) {
	blobs := blobstore.NewInMemoryBlobStore()
	r := NewCertificateRenderer(blobs, nil)
	snap := testSnapshot()

	first, err := r.RenderCertificate(context.Background(), snap)
	if err != nil {
		t.Fatalf("first render: %v", err)
	}
	second, err := r.RenderCertificate(context.Background(), snap)
	if err != nil {
		t.Fatalf("second render: %v", err)
	}
	if first.FileRef != second.FileRef {
		t.Errorf("renders diverged: %s vs %s", first.FileRef, second.FileRef)
	}
	if first.SizeBytes != second.SizeBytes {
		t.Errorf("repeat render must not rewrite the document: %d vs %d", first.SizeBytes, second.SizeBytes)
	}
}

func TestRenderCertificate_DivergenceRecorded(t *testing.T) {
	blobs := blobstore.NewInMemoryBlobStore()
	r := NewCertificateRenderer(blobs, nil)
	snap := testSnapshot()

	res, err := r.RenderCertificate(context.Background(), snap)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	rc, _, _ := blobs.Download(context.Background(), res.FileRef)
	defer rc.Close()
	doc, _ := io.ReadAll(rc)
	if !bytes.Contains(doc, []byte("not-fit")) {
		t.Error("an overridden recommendation must still appear on the certificate")
	}
}

func TestDependencyError(t *testing.T) {
	err := &DependencyError{Collaborator: "document-renderer", Reason: "blob store unavailable"}
	if err.Error() != "document-renderer failed: blob store unavailable" {
		t.Errorf("unexpected message: %s", err.Error())
	}
}

func TestEscapePDFText(t *testing.T) {
	if got := escapePDFText(`a(b)c\d`); got != `a\(b\)c\\d` {
		t.Errorf("unexpected escape: %s", got)
	}
}
