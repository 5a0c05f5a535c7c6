// Package render produces the signed certificate document for a completed
// validation cycle and stores it in the blob store. Rendering is idempotent
// per task: the artifact key is derived from the task ID, so retries land on
// the same object.
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/occumed/occumed/internal/platform/blobstore"
	"github.com/occumed/occumed/internal/platform/cache"
)

// DependencyError reports a collaborator failure. Core state is already
// committed when it surfaces; the caller may retry the render independently.
type DependencyError struct {
	Collaborator string
	Reason       string
	Err          error
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("%s failed: %s", e.Collaborator, e.Reason)
}

func (e *DependencyError) Unwrap() error { return e.Err }

// Snapshot is the frozen view of a signed validation task that the
// certificate is rendered from. It carries everything the document needs so
// the renderer never reads domain tables.
type Snapshot struct {
	TaskID             uuid.UUID
	ExpedientID        uuid.UUID
	Folio              string
	PatientName        string
	CompanyName        string
	RecommendedVerdict string
	FinalVerdict       string
	Diagnosis          string
	Restrictions       string
	SignedBy           string
	SignedAt           time.Time
}

// Result describes the stored certificate.
type Result struct {
	FileRef   string `json:"file_ref"`
	SizeBytes int64  `json:"size_bytes"`
}

// Renderer is the document-rendering contract consumed by the validation
// workflow.
type Renderer interface {
	RenderCertificate(ctx context.Context, snap *Snapshot) (*Result, error)
}

// CertificateRenderer writes PDF certificates into the blob store. A Redis
// lock keyed by task ID keeps concurrent retries from racing on the same
// object; the blob key itself guarantees convergence either way.
type CertificateRenderer struct {
	blobs blobstore.BlobStore
	cache *cache.Cache
}

func NewCertificateRenderer(blobs blobstore.BlobStore, c *cache.Cache) *CertificateRenderer {
	return &CertificateRenderer{blobs: blobs, cache: c}
}

// CertificateKey returns the blob key for a task's certificate.
func CertificateKey(taskID uuid.UUID) string {
	return fmt.Sprintf("certificates/%s.pdf", taskID)
}

func (r *CertificateRenderer) RenderCertificate(ctx context.Context, snap *Snapshot) (*Result, error) {
	key := CertificateKey(snap.TaskID)

	// A previous attempt may already have stored the document.
	if meta, err := r.blobs.GetMetadata(ctx, key); err == nil {
		return &Result{FileRef: meta.Key, SizeBytes: meta.Size}, nil
	} else if !errors.Is(err, blobstore.ErrBlobNotFound) {
		return nil, &DependencyError{Collaborator: "document-renderer", Reason: "blob store unavailable", Err: err}
	}

	if r.cache != nil {
		acquired, err := r.cache.SetNX(ctx, "render:"+snap.TaskID.String(), snap.SignedBy, cache.TTLRenderLock)
		if err != nil {
			return nil, &DependencyError{Collaborator: "document-renderer", Reason: "render lock unavailable", Err: err}
		}
		if !acquired {
			// Another worker is rendering this task. Report the key it
			// will land on; the document converges there.
			return nil, &DependencyError{Collaborator: "document-renderer", Reason: "render already in progress for " + key}
		}
	}

	doc := certificatePDF(snap)
	meta, err := r.blobs.Upload(ctx, blobstore.BlobMetadata{
		Key:         key,
		FileName:    fmt.Sprintf("certificate-%s.pdf", snap.Folio),
		ContentType: "application/pdf",
		ExpedientID: snap.ExpedientID.String(),
		Category:    "certificate",
		CreatedBy:   snap.SignedBy,
	}, bytes.NewReader(doc))
	if err != nil {
		return nil, &DependencyError{Collaborator: "document-renderer", Reason: "certificate upload failed", Err: err}
	}

	return &Result{FileRef: meta.Key, SizeBytes: meta.Size}, nil
}

// certificatePDF builds a minimal single-page PDF. The layout is plain text;
// clinics that need branded certificates front this with their own templates.
func certificatePDF(snap *Snapshot) []byte {
	lines := []string{
		"CERTIFICADO DE APTITUD OCUPACIONAL",
		"",
		"Folio: " + snap.Folio,
		"Trabajador: " + snap.PatientName,
	}
	if snap.CompanyName != "" {
		lines = append(lines, "Empresa: "+snap.CompanyName)
	}
	lines = append(lines,
		"",
		"Dictamen: "+snap.FinalVerdict,
	)
	if snap.RecommendedVerdict != "" && snap.RecommendedVerdict != snap.FinalVerdict {
		lines = append(lines, "Recomendacion del sistema: "+snap.RecommendedVerdict)
	}
	if snap.Diagnosis != "" {
		lines = append(lines, "Diagnostico: "+snap.Diagnosis)
	}
	if snap.Restrictions != "" {
		lines = append(lines, "Restricciones: "+snap.Restrictions)
	}
	lines = append(lines,
		"",
		"Firmado por: "+snap.SignedBy,
		"Fecha: "+snap.SignedAt.UTC().Format("2006-01-02 15:04 MST"),
	)

	var content strings.Builder
	content.WriteString("BT /F1 11 Tf 50 780 Td 16 TL\n")
	for _, line := range lines {
		content.WriteString(fmt.Sprintf("(%s) Tj T*\n", escapePDFText(line)))
	}
	content.WriteString("ET\n")
	stream := content.String()

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", len(stream), stream),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func escapePDFText(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "(", `\(`)
	s = strings.ReplaceAll(s, ")", `\)`)
	return s
}
