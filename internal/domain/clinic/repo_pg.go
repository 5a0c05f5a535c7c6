package clinic

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

type clinicRepoPG struct{ pool *pgxpool.Pool }

func NewClinicRepoPG(pool *pgxpool.Pool) ClinicRepository {
	return &clinicRepoPG{pool: pool}
}

func (r *clinicRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const clinicCols = `id, name, address, phone, created_at`

func (r *clinicRepoPG) scanClinic(row pgx.Row) (*Clinic, error) {
	var c Clinic
	err := row.Scan(&c.ID, &c.Name, &c.Address, &c.Phone, &c.CreatedAt)
	return &c, err
}

func (r *clinicRepoPG) Create(ctx context.Context, c *Clinic) error {
	c.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx,
		`INSERT INTO clinic (id, name, address, phone) VALUES ($1,$2,$3,$4)`,
		c.ID, c.Name, c.Address, c.Phone)
	return err
}

func (r *clinicRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Clinic, error) {
	return r.scanClinic(r.conn(ctx).QueryRow(ctx, `SELECT `+clinicCols+` FROM clinic WHERE id = $1`, id))
}

func (r *clinicRepoPG) List(ctx context.Context) ([]*Clinic, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+clinicCols+` FROM clinic ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Clinic
	for rows.Next() {
		c, err := r.scanClinic(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}
