package expedient

import (
	"context"
	"time"

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

type expedientRepoPG struct{ pool *pgxpool.Pool }

func NewExpedientRepoPG(pool *pgxpool.Pool) ExpedientRepository {
	return &expedientRepoPG{pool: pool}
}

func (r *expedientRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const expedientCols = `id, folio, patient_id, company_id, clinic_id, status, notes,
	archived_at, version_id, created_at, updated_at`

func (r *expedientRepoPG) scanExpedient(row pgx.Row) (*Expedient, error) {
	var e Expedient
	err := row.Scan(&e.ID, &e.Folio, &e.PatientID, &e.CompanyID, &e.ClinicID, &e.Status,
		&e.Notes, &e.ArchivedAt, &e.VersionID, &e.CreatedAt, &e.UpdatedAt)
	return &e, err
}

func (r *expedientRepoPG) Create(ctx context.Context, e *Expedient) error {
	e.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO expedient (id, folio, patient_id, company_id, clinic_id, status, notes, version_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,1)`,
		e.ID, e.Folio, e.PatientID, e.CompanyID, e.ClinicID, e.Status, e.Notes)
	if err != nil {
		return err
	}
	e.VersionID = 1
	return nil
}

func (r *expedientRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Expedient, error) {
	return r.scanExpedient(r.conn(ctx).QueryRow(ctx,
		`SELECT `+expedientCols+` FROM expedient WHERE id = $1`, id))
}

func (r *expedientRepoPG) GetByFolio(ctx context.Context, clinicID uuid.UUID, folio string) (*Expedient, error) {
	return r.scanExpedient(r.conn(ctx).QueryRow(ctx,
		`SELECT `+expedientCols+` FROM expedient WHERE clinic_id = $1 AND folio = $2`, clinicID, folio))
}

func (r *expedientRepoPG) List(ctx context.Context, limit, offset int) ([]*Expedient, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM expedient`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+expedientCols+` FROM expedient ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return r.collect(rows, total)
}

func (r *expedientRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Expedient, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM expedient WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+expedientCols+` FROM expedient WHERE patient_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return r.collect(rows, total)
}

func (r *expedientRepoPG) collect(rows pgx.Rows, total int) ([]*Expedient, int, error) {
	var items []*Expedient
	for rows.Next() {
		e, err := r.scanExpedient(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// UpdateStatus is the single-row conditional write that makes transitions
// atomic: the WHERE clause pins both id and version, so of two racing
// requests exactly one matches a row.
func (r *expedientRepoPG) UpdateStatus(ctx context.Context, e *Expedient, target Status) error {
	var archivedAt *time.Time
	if target == StatusArchived {
		now := time.Now().UTC()
		archivedAt = &now
	} else {
		archivedAt = e.ArchivedAt
	}
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE expedient
		SET status = $3, archived_at = $4, version_id = version_id + 1, updated_at = NOW()
		WHERE id = $1 AND version_id = $2`,
		e.ID, e.VersionID, target, archivedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return db.ErrVersionConflict
	}
	e.Status = target
	e.ArchivedAt = archivedAt
	e.VersionID++
	return nil
}

func (r *expedientRepoPG) UpdateNotes(ctx context.Context, e *Expedient) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE expedient
		SET notes = $3, version_id = version_id + 1, updated_at = NOW()
		WHERE id = $1 AND version_id = $2`,
		e.ID, e.VersionID, e.Notes)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return db.ErrVersionConflict
	}
	e.VersionID++
	return nil
}
