package closing

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/awqaf-platform/waqf-ledger/internal/fiscalyear"
	"github.com/awqaf-platform/waqf-ledger/internal/journal"
)

// TxRepository is the transactional surface the closing engine works on.
// It embeds the journal tx surface so the closing entry can be posted
// through the journal engine inside the same transaction that finalises
// the year.
type TxRepository interface {
	journal.TxRepository

	LockFiscalYear(ctx context.Context, id int64) (fiscalyear.FiscalYear, error)
	CountDraftEntries(ctx context.Context, fiscalYearID int64) (int64, error)
	PeriodTotals(ctx context.Context, fiscalYearID int64) (revenues, expenses decimal.Decimal, err error)
	FinalizeFiscalYear(ctx context.Context, fy fiscalyear.FiscalYear) error
}

// RepositoryPort abstracts transactional repository behaviour.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// Repository persists closing runs against Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// WithTx executes fn within a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("closing repository not initialised")
	}
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	wrapper := &txRepository{TxRepository: journal.NewTxRepository(tx), tx: tx}
	if err := fn(ctx, wrapper); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

type txRepository struct {
	journal.TxRepository
	tx pgx.Tx
}

// LockFiscalYear reads the year under FOR UPDATE so two concurrent close
// requests serialise on the row and the loser observes is_closed.
func (r *txRepository) LockFiscalYear(ctx context.Context, id int64) (fiscalyear.FiscalYear, error) {
	var fy fiscalyear.FiscalYear
	err := r.tx.QueryRow(ctx, `SELECT id, name, start_date, end_date, is_active, is_closed
FROM fiscal_years WHERE id=$1 FOR UPDATE`, id).
		Scan(&fy.ID, &fy.Name, &fy.StartDate, &fy.EndDate, &fy.IsActive, &fy.IsClosed)
	if errors.Is(err, pgx.ErrNoRows) {
		return fiscalyear.FiscalYear{}, fiscalyear.ErrNotFound
	}
	return fy, err
}

func (r *txRepository) CountDraftEntries(ctx context.Context, fiscalYearID int64) (int64, error) {
	var n int64
	err := r.tx.QueryRow(ctx, `SELECT COUNT(*) FROM journal_entries WHERE fiscal_year_id=$1 AND status='DRAFT'`, fiscalYearID).Scan(&n)
	return n, err
}

// PeriodTotals aggregates posted revenue and expense activity for the
// year. Revenues accumulate on the credit side, expenses on the debit
// side, matching their natural balances.
func (r *txRepository) PeriodTotals(ctx context.Context, fiscalYearID int64) (decimal.Decimal, decimal.Decimal, error) {
	var revenues, expenses decimal.Decimal
	err := r.tx.QueryRow(ctx, `SELECT
  COALESCE(SUM(CASE WHEN a.type='REVENUE' THEN l.credit_amount - l.debit_amount ELSE 0 END), 0),
  COALESCE(SUM(CASE WHEN a.type='EXPENSE' THEN l.debit_amount - l.credit_amount ELSE 0 END), 0)
FROM journal_lines l
JOIN journal_entries e ON e.id = l.entry_id
JOIN accounts a ON a.id = l.account_id
WHERE e.fiscal_year_id=$1 AND e.status='POSTED'`, fiscalYearID).
		Scan(&revenues, &expenses)
	return revenues, expenses, err
}

func (r *txRepository) FinalizeFiscalYear(ctx context.Context, fy fiscalyear.FiscalYear) error {
	tag, err := r.tx.Exec(ctx, `UPDATE fiscal_years SET
  is_active=FALSE,
  is_closed=TRUE,
  total_revenues=$2,
  total_expenses=$3,
  net_income=$4,
  waqf_corpus_amount=$5,
  nazer_share_amount=$6,
  charity_share_amount=$7,
  closed_at=$8,
  updated_at=NOW()
WHERE id=$1 AND is_closed=FALSE`,
		fy.ID, fy.TotalRevenues, fy.TotalExpenses, fy.NetIncome,
		fy.WaqfCorpusAmount, fy.NazerShareAmount, fy.CharityShareAmount, fy.ClosedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() != 1 {
		return ErrAlreadyClosed
	}
	return nil
}
