package validation

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/occumed/occumed/internal/domain/verdict"
	"github.com/occumed/occumed/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type taskRepoPG struct{ pool *pgxpool.Pool }

func NewTaskRepoPG(pool *pgxpool.Pool) TaskRepository {
	return &taskRepoPG{pool: pool}
}

func (r *taskRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const taskCols = `id, expedient_id, status, assigned_to, findings,
	recommended_verdict, recommendation_reasons, final_verdict, diagnosis,
	restrictions, override_reason, signature_proof, signed_by, signed_at,
	certificate_ref, version_id, created_at, updated_at`

func (r *taskRepoPG) scanTask(row pgx.Row) (*ValidationTask, error) {
	var t ValidationTask
	var findings []byte
	var reasons []string
	err := row.Scan(&t.ID, &t.ExpedientID, &t.Status, &t.AssignedTo, &findings,
		&t.RecommendedVerdict, &reasons, &t.FinalVerdict, &t.Diagnosis,
		&t.Restrictions, &t.OverrideReason, &t.SignatureProof, &t.SignedBy, &t.SignedAt,
		&t.CertificateRef, &t.VersionID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(findings) > 0 {
		if err := json.Unmarshal(findings, &t.Findings); err != nil {
			return nil, err
		}
	}
	t.RecommendationReasons = reasons
	return &t, nil
}

func marshalFindings(findings []verdict.Finding) ([]byte, error) {
	if findings == nil {
		return nil, nil
	}
	return json.Marshal(findings)
}

// Create relies on the partial unique index over non-terminal tasks per
// expedient; a losing concurrent insert surfaces as a unique violation and is
// mapped to ErrTaskAlreadyOpen.
func (r *taskRepoPG) Create(ctx context.Context, t *ValidationTask) error {
	t.ID = uuid.New()
	if t.Status == "" {
		t.Status = TaskPending
	}
	findings, err := marshalFindings(t.Findings)
	if err != nil {
		return err
	}
	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO validation_task (id, expedient_id, status, assigned_to, findings,
			recommended_verdict, recommendation_reasons, version_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,1)`,
		t.ID, t.ExpedientID, t.Status, t.AssignedTo, findings,
		t.RecommendedVerdict, t.RecommendationReasons)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrTaskAlreadyOpen
		}
		return err
	}
	t.VersionID = 1
	return nil
}

func (r *taskRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*ValidationTask, error) {
	return r.scanTask(r.conn(ctx).QueryRow(ctx,
		`SELECT `+taskCols+` FROM validation_task WHERE id = $1`, id))
}

func (r *taskRepoPG) GetOpenByExpedient(ctx context.Context, expedientID uuid.UUID) (*ValidationTask, error) {
	return r.scanTask(r.conn(ctx).QueryRow(ctx,
		`SELECT `+taskCols+` FROM validation_task
		WHERE expedient_id = $1 AND status NOT IN ('SIGNED','CANCELLED')`, expedientID))
}

func (r *taskRepoPG) ListByExpedient(ctx context.Context, expedientID uuid.UUID) ([]*ValidationTask, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+taskCols+` FROM validation_task WHERE expedient_id = $1 ORDER BY created_at`, expedientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*ValidationTask
	for rows.Next() {
		t, err := r.scanTask(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

func (r *taskRepoPG) Update(ctx context.Context, t *ValidationTask) error {
	findings, err := marshalFindings(t.Findings)
	if err != nil {
		return err
	}
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE validation_task
		SET status=$3, assigned_to=$4, findings=$5, recommended_verdict=$6,
			recommendation_reasons=$7, final_verdict=$8, diagnosis=$9,
			restrictions=$10, override_reason=$11, signature_proof=$12,
			signed_by=$13, signed_at=$14, certificate_ref=$15,
			version_id = version_id + 1, updated_at = NOW()
		WHERE id = $1 AND version_id = $2`,
		t.ID, t.VersionID, t.Status, t.AssignedTo, findings, t.RecommendedVerdict,
		t.RecommendationReasons, t.FinalVerdict, t.Diagnosis,
		t.Restrictions, t.OverrideReason, t.SignatureProof,
		t.SignedBy, t.SignedAt, t.CertificateRef)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return db.ErrVersionConflict
	}
	t.VersionID++
	return nil
}
