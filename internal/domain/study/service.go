package study

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/occumed/occumed/internal/domain/classification"
	"github.com/occumed/occumed/internal/platform/blobstore"
)

type Service struct {
	studies StudyRepository
	blobs   blobstore.BlobStore
}

func NewService(studies StudyRepository, blobs blobstore.BlobStore) *Service {
	return &Service{studies: studies, blobs: blobs}
}

// UploadStudy stores the artifact content in the blob store and records the
// study row pointing at it.
func (s *Service) UploadStudy(ctx context.Context, st *Study, content io.Reader) error {
	if !ValidStudyTypes[st.Type] {
		return fmt.Errorf("invalid study type: %s", st.Type)
	}
	meta, err := s.blobs.Upload(ctx, blobstore.BlobMetadata{
		FileName:    st.FileName,
		ContentType: st.ContentType,
		ExpedientID: st.ExpedientID.String(),
		Category:    st.Type,
		CreatedBy:   st.UploadedBy,
	}, content)
	if err != nil {
		return fmt.Errorf("store study artifact: %w", err)
	}
	st.FileRef = meta.Key
	return s.studies.Create(ctx, st)
}

func (s *Service) GetStudy(ctx context.Context, id uuid.UUID) (*Study, error) {
	return s.studies.GetByID(ctx, id)
}

func (s *Service) ListByExpedient(ctx context.Context, expedientID uuid.UUID) ([]*Study, error) {
	return s.studies.ListByExpedient(ctx, expedientID)
}

func (s *Service) ListByExpedientWithPoints(ctx context.Context, expedientID uuid.UUID) ([]*StudyWithPoints, error) {
	return s.studies.ListByExpedientWithPoints(ctx, expedientID)
}

// DownloadArtifact streams the stored file for a study.
func (s *Service) DownloadArtifact(ctx context.Context, id uuid.UUID) (io.ReadCloser, *Study, error) {
	st, err := s.studies.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	rc, _, err := s.blobs.Download(ctx, st.FileRef)
	if err != nil {
		return nil, nil, err
	}
	return rc, st, nil
}

// IngestDataPoint classifies and stores one extracted clinical fact. The
// severity carried by the incoming record is ignored; classification always
// happens here so upstream extractors cannot smuggle severities in.
func (s *Service) IngestDataPoint(ctx context.Context, p *ExtractedDataPoint) error {
	if _, err := s.studies.GetByID(ctx, p.StudyID); err != nil {
		return fmt.Errorf("study %s: %w", p.StudyID, err)
	}
	Classify(p)
	return s.studies.AddDataPoint(ctx, p)
}

func (s *Service) ListDataPoints(ctx context.Context, studyID uuid.UUID) ([]*ExtractedDataPoint, error) {
	return s.studies.ListDataPoints(ctx, studyID)
}

// Classify assigns label, severity and the unclassified flag on a data point.
// A dedicated vital classifier wins over the generic reference-range check;
// a point with no numeric value or usable range is marked unclassified.
func Classify(p *ExtractedDataPoint) {
	p.Label = ""
	p.Severity = ""
	p.Unclassified = false

	if p.NumericValue == nil {
		p.Unclassified = true
		return
	}
	if r, ok := classification.ClassifyVital(p.Field, *p.NumericValue); ok {
		p.Label = r.Label
		p.Severity = r.Severity
		return
	}
	if r, ok := classification.ClassifyReferenceRange(*p.NumericValue, p.RefMin, p.RefMax); ok {
		p.Label = r.Label
		p.Severity = r.Severity
		return
	}
	p.Unclassified = true
}
