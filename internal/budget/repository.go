package budget

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/awqaf-platform/waqf-ledger/internal/accounts"
	"github.com/awqaf-platform/waqf-ledger/internal/fiscalyear"
)

// Repository persists budget rows and reads posted actuals.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const budgetColumns = `b.id, b.account_id, a.code, a.name, b.fiscal_year_id, b.period_type, b.period_number,
b.budgeted_amount, b.actual_amount, b.variance_amount, b.utilization_pct, b.computed_at, b.created_at, b.updated_at`

func scanBudget(row pgx.Row) (Budget, error) {
	var b Budget
	err := row.Scan(&b.ID, &b.AccountID, &b.AccountCode, &b.AccountName, &b.FiscalYearID, &b.PeriodType, &b.PeriodNumber,
		&b.BudgetedAmount, &b.ActualAmount, &b.VarianceAmount, &b.UtilizationPct, &b.ComputedAt, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Budget{}, ErrBudgetNotFound
	}
	return b, err
}

// Insert stores a budget row.
func (r *Repository) Insert(ctx context.Context, in CreateInput) (Budget, error) {
	row := r.pool.QueryRow(ctx, `WITH inserted AS (
INSERT INTO budgets (account_id, fiscal_year_id, period_type, period_number, budgeted_amount)
VALUES ($1, $2, $3, $4, $5)
RETURNING *)
SELECT `+budgetColumns+` FROM inserted b JOIN accounts a ON a.id = b.account_id`,
		in.AccountID, in.FiscalYearID, in.PeriodType, in.PeriodNumber, in.BudgetedAmount)
	b, err := scanBudget(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.ConstraintName == "uq_budgets_account_period" {
			return Budget{}, ErrDuplicateBudget
		}
		return Budget{}, err
	}
	return b, nil
}

// ListByFiscalYear returns budget rows with account metadata.
func (r *Repository) ListByFiscalYear(ctx context.Context, fiscalYearID int64) ([]Budget, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+budgetColumns+`
FROM budgets b JOIN accounts a ON a.id = b.account_id
WHERE b.fiscal_year_id=$1 ORDER BY a.code, b.period_type, b.period_number`, fiscalYearID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var budgets []Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

// AccountNature returns the nature of one account.
func (r *Repository) AccountNature(ctx context.Context, accountID int64) (accounts.Nature, error) {
	var nature accounts.Nature
	err := r.pool.QueryRow(ctx, `SELECT nature FROM accounts WHERE id=$1`, accountID).Scan(&nature)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", accounts.ErrAccountNotFound
	}
	return nature, err
}

// ActualFor sums posted lines for an account within the window (inclusive).
func (r *Repository) ActualFor(ctx context.Context, accountID int64, from, to time.Time) (Actual, error) {
	var actual Actual
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(l.debit_amount), 0), COALESCE(SUM(l.credit_amount), 0)
FROM journal_lines l
JOIN journal_entries e ON e.id = l.entry_id
WHERE e.status='POSTED' AND l.account_id=$1 AND e.entry_date BETWEEN $2 AND $3`,
		accountID, from, to).Scan(&actual.Debit, &actual.Credit)
	return actual, err
}

// GetFiscalYear loads the fiscal year dates needed for window resolution.
func (r *Repository) GetFiscalYear(ctx context.Context, id int64) (fiscalyear.FiscalYear, error) {
	var fy fiscalyear.FiscalYear
	err := r.pool.QueryRow(ctx, `SELECT id, name, start_date, end_date, is_active, is_closed FROM fiscal_years WHERE id=$1`, id).
		Scan(&fy.ID, &fy.Name, &fy.StartDate, &fy.EndDate, &fy.IsActive, &fy.IsClosed)
	if errors.Is(err, pgx.ErrNoRows) {
		return fiscalyear.FiscalYear{}, fiscalyear.ErrNotFound
	}
	return fy, err
}

// SaveComputed writes the recomputed actual/variance/utilization columns.
func (r *Repository) SaveComputed(ctx context.Context, b Budget) error {
	_, err := r.pool.Exec(ctx, `UPDATE budgets SET actual_amount=$2, variance_amount=$3, utilization_pct=$4, computed_at=$5, updated_at=NOW()
WHERE id=$1`, b.ID, b.ActualAmount, b.VarianceAmount, b.UtilizationPct, b.ComputedAt)
	return err
}
