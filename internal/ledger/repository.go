package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/awqaf-platform/waqf-ledger/internal/accounts"
)

// Repository reads posted ledger state. Draft and cancelled entries are
// invisible here.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// AccountActivity aggregates posted lines per account up to asOf.
func (r *Repository) AccountActivity(ctx context.Context, asOf time.Time) ([]AccountActivity, error) {
	rows, err := r.pool.Query(ctx, `SELECT a.id, a.code, a.name, a.type, a.nature,
COALESCE(SUM(l.debit_amount), 0), COALESCE(SUM(l.credit_amount), 0)
FROM journal_lines l
JOIN journal_entries e ON e.id = l.entry_id
JOIN accounts a ON a.id = l.account_id
WHERE e.status = 'POSTED' AND e.entry_date <= $1
GROUP BY a.id, a.code, a.name, a.type, a.nature
ORDER BY a.code`, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var activity []AccountActivity
	for rows.Next() {
		var act AccountActivity
		if err := rows.Scan(&act.AccountID, &act.Code, &act.Name, &act.Type, &act.Nature, &act.Debit, &act.Credit); err != nil {
			return nil, err
		}
		activity = append(activity, act)
	}
	return activity, rows.Err()
}

// AccountNature returns the nature of a single account.
func (r *Repository) AccountNature(ctx context.Context, accountID int64) (accounts.Nature, error) {
	var nature accounts.Nature
	err := r.pool.QueryRow(ctx, `SELECT nature FROM accounts WHERE id=$1`, accountID).Scan(&nature)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", accounts.ErrAccountNotFound
	}
	return nature, err
}

// Movements returns posted lines for one account ordered by entry date.
func (r *Repository) Movements(ctx context.Context, accountID int64, from, to *time.Time) ([]Movement, error) {
	query := `SELECT e.entry_date, e.entry_number, COALESCE(NULLIF(l.description, ''), e.description), l.debit_amount, l.credit_amount
FROM journal_lines l
JOIN journal_entries e ON e.id = l.entry_id
WHERE e.status = 'POSTED' AND l.account_id = $1`
	args := []any{accountID}
	if from != nil {
		args = append(args, *from)
		query += ` AND e.entry_date >= $2`
	}
	if to != nil {
		args = append(args, *to)
		if from != nil {
			query += ` AND e.entry_date <= $3`
		} else {
			query += ` AND e.entry_date <= $2`
		}
	}
	query += ` ORDER BY e.entry_date, e.id, l.id`
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var movements []Movement
	for rows.Next() {
		var m Movement
		if err := rows.Scan(&m.Date, &m.EntryNumber, &m.Description, &m.Debit, &m.Credit); err != nil {
			return nil, err
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

// GlobalTotals sums every posted debit and credit line in the ledger.
func (r *Repository) GlobalTotals(ctx context.Context) (debits, credits decimal.Decimal, err error) {
	err = r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(l.debit_amount), 0), COALESCE(SUM(l.credit_amount), 0)
FROM journal_lines l
JOIN journal_entries e ON e.id = l.entry_id
WHERE e.status = 'POSTED'`).Scan(&debits, &credits)
	return debits, credits, err
}
