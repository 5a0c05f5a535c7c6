package study

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/occumed/occumed/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type studyRepoPG struct{ pool *pgxpool.Pool }

func NewStudyRepoPG(pool *pgxpool.Pool) StudyRepository {
	return &studyRepoPG{pool: pool}
}

func (r *studyRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const studyCols = `id, expedient_id, study_type, file_ref, file_name, content_type, uploaded_by, uploaded_at`

func (r *studyRepoPG) scanStudy(row pgx.Row) (*Study, error) {
	var s Study
	err := row.Scan(&s.ID, &s.ExpedientID, &s.Type, &s.FileRef, &s.FileName,
		&s.ContentType, &s.UploadedBy, &s.UploadedAt)
	return &s, err
}

func (r *studyRepoPG) Create(ctx context.Context, s *Study) error {
	s.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO study (id, expedient_id, study_type, file_ref, file_name, content_type, uploaded_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		s.ID, s.ExpedientID, s.Type, s.FileRef, s.FileName, s.ContentType, s.UploadedBy)
	return err
}

func (r *studyRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Study, error) {
	return r.scanStudy(r.conn(ctx).QueryRow(ctx, `SELECT `+studyCols+` FROM study WHERE id = $1`, id))
}

func (r *studyRepoPG) ListByExpedient(ctx context.Context, expedientID uuid.UUID) ([]*Study, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+studyCols+` FROM study WHERE expedient_id = $1 ORDER BY uploaded_at`, expedientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Study
	for rows.Next() {
		s, err := r.scanStudy(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

const pointCols = `id, study_id, field, raw_value, numeric_value, unit, ref_min, ref_max,
	label, severity, unclassified, created_at`

func (r *studyRepoPG) scanPoint(row pgx.Row) (*ExtractedDataPoint, error) {
	var p ExtractedDataPoint
	err := row.Scan(&p.ID, &p.StudyID, &p.Field, &p.RawValue, &p.NumericValue, &p.Unit,
		&p.RefMin, &p.RefMax, &p.Label, &p.Severity, &p.Unclassified, &p.CreatedAt)
	return &p, err
}

func (r *studyRepoPG) AddDataPoint(ctx context.Context, p *ExtractedDataPoint) error {
	p.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO extracted_data_point (id, study_id, field, raw_value, numeric_value,
			unit, ref_min, ref_max, label, severity, unclassified)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		p.ID, p.StudyID, p.Field, p.RawValue, p.NumericValue,
		p.Unit, p.RefMin, p.RefMax, p.Label, p.Severity, p.Unclassified)
	return err
}

func (r *studyRepoPG) ListDataPoints(ctx context.Context, studyID uuid.UUID) ([]*ExtractedDataPoint, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+pointCols+` FROM extracted_data_point WHERE study_id = $1 ORDER BY created_at`, studyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*ExtractedDataPoint
	for rows.Next() {
		p, err := r.scanPoint(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

func (r *studyRepoPG) ListByExpedientWithPoints(ctx context.Context, expedientID uuid.UUID) ([]*StudyWithPoints, error) {
	studies, err := r.ListByExpedient(ctx, expedientID)
	if err != nil {
		return nil, err
	}
	result := make([]*StudyWithPoints, 0, len(studies))
	for _, s := range studies {
		points, err := r.ListDataPoints(ctx, s.ID)
		if err != nil {
			return nil, err
		}
		result = append(result, &StudyWithPoints{Study: s, Points: points})
	}
	return result, nil
}
