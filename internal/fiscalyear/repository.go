package fiscalyear

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/awqaf-platform/waqf-ledger/internal/platform/db"
)

// Repository persists fiscal years.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const fiscalYearColumns = `id, name, start_date, end_date, is_active, is_closed,
total_revenues, total_expenses, net_income,
waqf_corpus_amount, nazer_share_amount, charity_share_amount,
closed_at, created_at, updated_at`

func scanFiscalYear(row pgx.Row) (FiscalYear, error) {
	var fy FiscalYear
	err := row.Scan(&fy.ID, &fy.Name, &fy.StartDate, &fy.EndDate, &fy.IsActive, &fy.IsClosed,
		&fy.TotalRevenues, &fy.TotalExpenses, &fy.NetIncome,
		&fy.WaqfCorpusAmount, &fy.NazerShareAmount, &fy.CharityShareAmount,
		&fy.ClosedAt, &fy.CreatedAt, &fy.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return FiscalYear{}, ErrNotFound
	}
	return fy, err
}

// Get loads a fiscal year by id.
func (r *Repository) Get(ctx context.Context, id int64) (FiscalYear, error) {
	return scanFiscalYear(r.pool.QueryRow(ctx, `SELECT `+fiscalYearColumns+` FROM fiscal_years WHERE id=$1`, id))
}

// List returns fiscal years ordered by start date descending.
func (r *Repository) List(ctx context.Context) ([]FiscalYear, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+fiscalYearColumns+` FROM fiscal_years ORDER BY start_date DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var years []FiscalYear
	for rows.Next() {
		fy, err := scanFiscalYear(rows)
		if err != nil {
			return nil, err
		}
		years = append(years, fy)
	}
	return years, rows.Err()
}

// RangeConflict reports whether the date range overlaps an existing year.
func (r *Repository) RangeConflict(ctx context.Context, start, end time.Time) (bool, error) {
	var conflict bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (
SELECT 1 FROM fiscal_years WHERE start_date <= $2 AND end_date >= $1)`, start, end).Scan(&conflict)
	return conflict, err
}

// Insert creates a fiscal year. When activate is set, any currently active
// year is deactivated in the same transaction so the single-active invariant
// holds under concurrent creates.
func (r *Repository) Insert(ctx context.Context, in CreateInput) (FiscalYear, error) {
	var fy FiscalYear
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if in.Activate {
			if _, err := tx.Exec(ctx, `UPDATE fiscal_years SET is_active=false, updated_at=NOW() WHERE is_active`); err != nil {
				return err
			}
		}
		row := tx.QueryRow(ctx, `INSERT INTO fiscal_years (name, start_date, end_date, is_active)
VALUES ($1, $2, $3, $4) RETURNING `+fiscalYearColumns, in.Name, in.StartDate, in.EndDate, in.Activate)
		var err error
		fy, err = scanFiscalYear(row)
		return err
	})
	return fy, err
}

// Activate makes the given year the single active one.
func (r *Repository) Activate(ctx context.Context, id int64) (FiscalYear, error) {
	var fy FiscalYear
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		current, err := scanFiscalYear(tx.QueryRow(ctx, `SELECT `+fiscalYearColumns+` FROM fiscal_years WHERE id=$1 FOR UPDATE`, id))
		if err != nil {
			return err
		}
		if current.IsClosed {
			return ErrClosed
		}
		if _, err := tx.Exec(ctx, `UPDATE fiscal_years SET is_active=false, updated_at=NOW() WHERE is_active AND id <> $1`, id); err != nil {
			return err
		}
		fy, err = scanFiscalYear(tx.QueryRow(ctx, `UPDATE fiscal_years SET is_active=true, updated_at=NOW() WHERE id=$1 RETURNING `+fiscalYearColumns, id))
		return err
	})
	return fy, err
}
