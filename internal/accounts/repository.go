package accounts

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists chart of accounts rows.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const accountColumns = `id, code, name, type, nature, parent_id, is_header, is_active, cash_flow_category, current_balance, created_at, updated_at`

func scanAccount(row pgx.Row) (Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.Code, &a.Name, &a.Type, &a.Nature, &a.ParentID, &a.IsHeader, &a.IsActive, &a.CashFlow, &a.CurrentBalance, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, ErrAccountNotFound
	}
	return a, err
}

// Insert stores a new account.
func (r *Repository) Insert(ctx context.Context, in CreateAccountInput) (Account, error) {
	cashFlow := in.CashFlow
	if cashFlow == "" {
		cashFlow = CashFlowNone
	}
	row := r.pool.QueryRow(ctx, `INSERT INTO accounts (code, name, type, nature, parent_id, is_header, cash_flow_category)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING `+accountColumns, in.Code, in.Name, in.Type, in.Nature, in.ParentID, in.IsHeader, cashFlow)
	account, err := scanAccount(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.ConstraintName == "uq_accounts_code" {
			return Account{}, ErrDuplicateCode
		}
		return Account{}, err
	}
	return account, nil
}

// Get loads a single account by id.
func (r *Repository) Get(ctx context.Context, id int64) (Account, error) {
	return scanAccount(r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id=$1`, id))
}

// List returns all accounts ordered by code.
func (r *Repository) List(ctx context.Context) ([]Account, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var accounts []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// SetActive toggles the is_active flag.
func (r *Repository) SetActive(ctx context.Context, id int64, active bool) (Account, error) {
	row := r.pool.QueryRow(ctx, `UPDATE accounts SET is_active=$2, updated_at=NOW() WHERE id=$1 RETURNING `+accountColumns, id, active)
	return scanAccount(row)
}
