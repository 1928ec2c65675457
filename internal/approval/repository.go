package approval

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/awqaf-platform/waqf-ledger/internal/journal"
)

// TxRepository is the transactional surface for approval decisions. It
// embeds the journal tx surface so a rejection and the entry cancellation
// it implies commit in one transaction.
type TxRepository interface {
	journal.TxRepository

	Decide(ctx context.Context, id int64, status Status, decidedBy int64, notes string, decidedAt time.Time) (Approval, error)
}

// Repository persists approval requests.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const approvalColumns = `id, entry_id, status, requested_by, decided_by, notes, decided_at, created_at`

func scanApproval(row pgx.Row) (Approval, error) {
	var a Approval
	err := row.Scan(&a.ID, &a.EntryID, &a.Status, &a.RequestedBy, &a.DecidedBy, &a.Notes, &a.DecidedAt, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Approval{}, ErrNotFound
	}
	return a, err
}

// Insert stores a new pending request. The partial unique index on
// (entry_id) WHERE status='PENDING' enforces the single-pending rule.
func (r *Repository) Insert(ctx context.Context, entryID, requestedBy int64) (Approval, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO approvals (entry_id, status, requested_by)
VALUES ($1, 'PENDING', $2)
RETURNING `+approvalColumns, entryID, requestedBy)
	a, err := scanApproval(row)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.ConstraintName == "uq_approvals_pending" {
		return Approval{}, ErrPendingExists
	}
	return a, err
}

// Get returns one approval by id.
func (r *Repository) Get(ctx context.Context, id int64) (Approval, error) {
	return scanApproval(r.pool.QueryRow(ctx, `SELECT `+approvalColumns+` FROM approvals WHERE id=$1`, id))
}

// ListByEntry returns an entry's approval history, newest first.
func (r *Repository) ListByEntry(ctx context.Context, entryID int64) ([]Approval, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+approvalColumns+` FROM approvals WHERE entry_id=$1 ORDER BY created_at DESC`, entryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var approvals []Approval
	for rows.Next() {
		a, err := scanApproval(rows)
		if err != nil {
			return nil, err
		}
		approvals = append(approvals, a)
	}
	return approvals, rows.Err()
}

// Decide moves a pending request into a terminal state. The status guard
// in the WHERE clause serialises concurrent decisions: the loser sees
// zero rows and reports ErrNotPending.
func (r *Repository) Decide(ctx context.Context, id int64, status Status, decidedBy int64, notes string, decidedAt time.Time) (Approval, error) {
	return decide(ctx, r.pool, id, status, decidedBy, notes, decidedAt)
}

// WithTx executes fn within a repeatable-read transaction that also carries
// the journal tx surface.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("approval repository not initialised")
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

func (r *txRepository) Decide(ctx context.Context, id int64, status Status, decidedBy int64, notes string, decidedAt time.Time) (Approval, error) {
	return decide(ctx, r.tx, id, status, decidedBy, notes, decidedAt)
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func decide(ctx context.Context, q querier, id int64, status Status, decidedBy int64, notes string, decidedAt time.Time) (Approval, error) {
	row := q.QueryRow(ctx, `UPDATE approvals
SET status=$2, decided_by=$3, notes=$4, decided_at=$5
WHERE id=$1 AND status='PENDING'
RETURNING `+approvalColumns, id, status, decidedBy, notes, decidedAt)
	a, err := scanApproval(row)
	if errors.Is(err, ErrNotFound) {
		// Distinguish a missing row from an already decided one.
		if _, getErr := scanApproval(q.QueryRow(ctx, `SELECT `+approvalColumns+` FROM approvals WHERE id=$1`, id)); getErr == nil {
			return Approval{}, ErrNotPending
		}
		return Approval{}, ErrNotFound
	}
	return a, err
}
