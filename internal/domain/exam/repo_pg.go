package exam

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

type examRepoPG struct{ pool *pgxpool.Pool }

func NewExamRepoPG(pool *pgxpool.Pool) ExamRepository {
	return &examRepoPG{pool: pool}
}

func (r *examRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const examCols = `id, expedient_id, systolic, diastolic, heart_rate, respiratory_rate,
	temperature, height_cm, weight_kg, physical_notes, examiner_id, performed_at, created_at`

func (r *examRepoPG) scanExam(row pgx.Row) (*MedicalExam, error) {
	var e MedicalExam
	err := row.Scan(&e.ID, &e.ExpedientID, &e.Systolic, &e.Diastolic, &e.HeartRate,
		&e.RespiratoryRate, &e.Temperature, &e.HeightCm, &e.WeightKg,
		&e.PhysicalNotes, &e.ExaminerID, &e.PerformedAt, &e.CreatedAt)
	return &e, err
}

func (r *examRepoPG) Create(ctx context.Context, e *MedicalExam) error {
	e.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO medical_exam (id, expedient_id, systolic, diastolic, heart_rate,
			respiratory_rate, temperature, height_cm, weight_kg, physical_notes,
			examiner_id, performed_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		e.ID, e.ExpedientID, e.Systolic, e.Diastolic, e.HeartRate,
		e.RespiratoryRate, e.Temperature, e.HeightCm, e.WeightKg, e.PhysicalNotes,
		e.ExaminerID, e.PerformedAt)
	return err
}

func (r *examRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*MedicalExam, error) {
	return r.scanExam(r.conn(ctx).QueryRow(ctx, `SELECT `+examCols+` FROM medical_exam WHERE id = $1`, id))
}

func (r *examRepoPG) ListByExpedient(ctx context.Context, expedientID uuid.UUID) ([]*MedicalExam, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+examCols+` FROM medical_exam WHERE expedient_id = $1 ORDER BY performed_at`, expedientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*MedicalExam
	for rows.Next() {
		e, err := r.scanExam(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}
