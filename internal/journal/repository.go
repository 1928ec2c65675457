package journal

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/awqaf-platform/waqf-ledger/internal/accounts"
	"github.com/awqaf-platform/waqf-ledger/internal/fiscalyear"
)

// Repository persists journal entries and lines.
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
		return errors.New("journal repository not initialised")
	}
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	wrapper := &txRepository{tx: tx}
	if err := fn(ctx, wrapper); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

const entryColumns = `id, entry_number, entry_date, description, fiscal_year_id, source_module, source_id, status, created_by, posted_at, created_at, updated_at`

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func scanEntry(row pgx.Row) (Entry, error) {
	var e Entry
	err := row.Scan(&e.ID, &e.EntryNumber, &e.EntryDate, &e.Description, &e.FiscalYearID, &e.SourceModule, &e.SourceID, &e.Status, &e.CreatedBy, &e.PostedAt, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, ErrEntryNotFound
	}
	return e, err
}

func loadLines(ctx context.Context, q querier, entryID int64) ([]Line, error) {
	rows, err := q.Query(ctx, `SELECT id, entry_id, account_id, debit_amount, credit_amount, description
FROM journal_lines WHERE entry_id=$1 ORDER BY id`, entryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []Line
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ID, &l.EntryID, &l.AccountID, &l.Debit, &l.Credit, &l.Description); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func getEntryWithLines(ctx context.Context, q querier, entryID int64) (Entry, error) {
	entry, err := scanEntry(q.QueryRow(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE id=$1`, entryID))
	if err != nil {
		return Entry{}, err
	}
	entry.Lines, err = loadLines(ctx, q, entryID)
	return entry, err
}

// GetEntryWithLines loads a single entry outside a transaction.
func (r *Repository) GetEntryWithLines(ctx context.Context, entryID int64) (Entry, error) {
	return getEntryWithLines(ctx, r.pool, entryID)
}

// List returns entries newest-first, optionally scoped to a fiscal year.
func (r *Repository) List(ctx context.Context, fiscalYearID int64) ([]Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM journal_entries ORDER BY entry_date DESC, id DESC`
	args := []any{}
	if fiscalYearID != 0 {
		query = `SELECT ` + entryColumns + ` FROM journal_entries WHERE fiscal_year_id=$1 ORDER BY entry_date DESC, id DESC`
		args = append(args, fiscalYearID)
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

type txRepository struct {
	tx pgx.Tx
}

// NewTxRepository wraps an already-open transaction in the journal tx
// surface so other modules can post entries within their own unit of work.
func NewTxRepository(tx pgx.Tx) TxRepository {
	return &txRepository{tx: tx}
}

func (r *txRepository) InsertEntry(ctx context.Context, in CreateDraftInput) (Entry, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO journal_entries (entry_number, entry_date, description, fiscal_year_id, source_module, source_id, status, created_by)
VALUES ($1, $2, $3, $4, $5, $6, 'DRAFT', $7)
RETURNING `+entryColumns, in.EntryNumber, in.EntryDate, in.Description, in.FiscalYearID, in.SourceModule, in.SourceID, in.ActorID)
	entry, err := scanEntry(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.ConstraintName == "uq_journal_entries_number" {
			return Entry{}, ErrDuplicateEntryNumber
		}
		return Entry{}, err
	}
	return entry, nil
}

func (r *txRepository) InsertLines(ctx context.Context, entryID int64, lines []LineInput) ([]Line, error) {
	out := make([]Line, 0, len(lines))
	for _, in := range lines {
		var l Line
		err := r.tx.QueryRow(ctx, `INSERT INTO journal_lines (entry_id, account_id, debit_amount, credit_amount, description)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, entry_id, account_id, debit_amount, credit_amount, description`,
			entryID, in.AccountID, in.Debit, in.Credit, in.Description).
			Scan(&l.ID, &l.EntryID, &l.AccountID, &l.Debit, &l.Credit, &l.Description)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}

func (r *txRepository) LinkSource(ctx context.Context, module string, ref uuid.UUID, entryID int64) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO journal_source_links (source_module, source_id, entry_id) VALUES ($1, $2, $3)`, module, ref, entryID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.ConstraintName == "uq_journal_source_links" {
			return ErrSourceAlreadyLinked
		}
		return err
	}
	return nil
}

func (r *txRepository) GetEntryWithLines(ctx context.Context, entryID int64) (Entry, error) {
	return getEntryWithLines(ctx, r.tx, entryID)
}

// MarkPosted flips draft to posted with a compare-and-swap; a false return
// means another caller won the race.
func (r *txRepository) MarkPosted(ctx context.Context, entryID int64, postedAt time.Time) (bool, error) {
	tag, err := r.tx.Exec(ctx, `UPDATE journal_entries SET status='POSTED', posted_at=$2, updated_at=NOW()
WHERE id=$1 AND status='DRAFT'`, entryID, postedAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *txRepository) UpdateStatus(ctx context.Context, entryID int64, status Status) error {
	_, err := r.tx.Exec(ctx, `UPDATE journal_entries SET status=$2, updated_at=NOW() WHERE id=$1`, entryID, status)
	return err
}

func (r *txRepository) GetFiscalYear(ctx context.Context, id int64) (fiscalyear.FiscalYear, error) {
	var fy fiscalyear.FiscalYear
	err := r.tx.QueryRow(ctx, `SELECT id, name, start_date, end_date, is_active, is_closed FROM fiscal_years WHERE id=$1`, id).
		Scan(&fy.ID, &fy.Name, &fy.StartDate, &fy.EndDate, &fy.IsActive, &fy.IsClosed)
	if errors.Is(err, pgx.ErrNoRows) {
		return fiscalyear.FiscalYear{}, fiscalyear.ErrNotFound
	}
	return fy, err
}

func (r *txRepository) GetAccount(ctx context.Context, id int64) (accounts.Account, error) {
	var a accounts.Account
	err := r.tx.QueryRow(ctx, `SELECT id, code, name, type, nature, is_header, is_active, current_balance FROM accounts WHERE id=$1`, id).
		Scan(&a.ID, &a.Code, &a.Name, &a.Type, &a.Nature, &a.IsHeader, &a.IsActive, &a.CurrentBalance)
	if errors.Is(err, pgx.ErrNoRows) {
		return accounts.Account{}, accounts.ErrAccountNotFound
	}
	return a, err
}

// AddToBalance applies an atomic increment so concurrent posts to the same
// account never lose updates.
func (r *txRepository) AddToBalance(ctx context.Context, accountID int64, delta decimal.Decimal) error {
	_, err := r.tx.Exec(ctx, `UPDATE accounts SET current_balance = current_balance + $2, updated_at=NOW() WHERE id=$1`, accountID, delta)
	return err
}
