package company

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

type companyRepoPG struct{ pool *pgxpool.Pool }

func NewCompanyRepoPG(pool *pgxpool.Pool) CompanyRepository {
	return &companyRepoPG{pool: pool}
}

func (r *companyRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const companyCols = `id, name, rfc, risk_profile, contact_name, contact_email, created_at, updated_at`

func (r *companyRepoPG) scanCompany(row pgx.Row) (*Company, error) {
	var c Company
	err := row.Scan(&c.ID, &c.Name, &c.RFC, &c.RiskProfile, &c.ContactName,
		&c.ContactEmail, &c.CreatedAt, &c.UpdatedAt)
	return &c, err
}

func (r *companyRepoPG) Create(ctx context.Context, c *Company) error {
	c.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO company (id, name, rfc, risk_profile, contact_name, contact_email)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		c.ID, c.Name, c.RFC, c.RiskProfile, c.ContactName, c.ContactEmail)
	return err
}

func (r *companyRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Company, error) {
	return r.scanCompany(r.conn(ctx).QueryRow(ctx, `SELECT `+companyCols+` FROM company WHERE id = $1`, id))
}

func (r *companyRepoPG) List(ctx context.Context, limit, offset int) ([]*Company, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM company`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+companyCols+` FROM company ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Company
	for rows.Next() {
		c, err := r.scanCompany(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, c)
	}
	return items, total, rows.Err()
}

func (r *companyRepoPG) Update(ctx context.Context, c *Company) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE company SET name = $2, rfc = $3, risk_profile = $4, contact_name = $5,
			contact_email = $6, updated_at = NOW()
		WHERE id = $1`,
		c.ID, c.Name, c.RFC, c.RiskProfile, c.ContactName, c.ContactEmail)
	return err
}
