package journal

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/awqaf-platform/waqf-ledger/internal/accounts"
	"github.com/awqaf-platform/waqf-ledger/internal/fiscalyear"
)

type memoryJournalRepo struct {
	accounts    map[int64]accounts.Account
	fiscalYears map[int64]fiscalyear.FiscalYear
	entries     map[int64]Entry
	lines       map[int64][]Line
	numbers     map[string]int64
	links       map[string]int64
	nextID      int64

	markPostedErr error
}

type memoryJournalTx struct {
	repo *memoryJournalRepo
}

func newMemoryJournalRepo() *memoryJournalRepo {
	return &memoryJournalRepo{
		accounts:    make(map[int64]accounts.Account),
		fiscalYears: make(map[int64]fiscalyear.FiscalYear),
		entries:     make(map[int64]Entry),
		lines:       make(map[int64][]Line),
		numbers:     make(map[string]int64),
		links:       make(map[string]int64),
	}
}

func (r *memoryJournalRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryJournalTx{repo: r})
}

func (r *memoryJournalRepo) GetEntryWithLines(ctx context.Context, entryID int64) (Entry, error) {
	return (&memoryJournalTx{repo: r}).GetEntryWithLines(ctx, entryID)
}

func (r *memoryJournalRepo) List(ctx context.Context, fiscalYearID int64) ([]Entry, error) {
	var out []Entry
	for _, e := range r.entries {
		if fiscalYearID == 0 || e.FiscalYearID == fiscalYearID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (tx *memoryJournalTx) nextID() int64 {
	tx.repo.nextID++
	return tx.repo.nextID
}

func (tx *memoryJournalTx) InsertEntry(ctx context.Context, in CreateDraftInput) (Entry, error) {
	if _, dup := tx.repo.numbers[in.EntryNumber]; dup {
		return Entry{}, ErrDuplicateEntryNumber
	}
	e := Entry{
		ID:           tx.nextID(),
		EntryNumber:  in.EntryNumber,
		EntryDate:    in.EntryDate,
		Description:  in.Description,
		FiscalYearID: in.FiscalYearID,
		SourceModule: in.SourceModule,
		SourceID:     in.SourceID,
		Status:       StatusDraft,
		CreatedBy:    in.ActorID,
	}
	tx.repo.entries[e.ID] = e
	tx.repo.numbers[in.EntryNumber] = e.ID
	return e, nil
}

func (tx *memoryJournalTx) InsertLines(ctx context.Context, entryID int64, inputs []LineInput) ([]Line, error) {
	lines := make([]Line, 0, len(inputs))
	for _, in := range inputs {
		lines = append(lines, Line{
			ID:          tx.nextID(),
			EntryID:     entryID,
			AccountID:   in.AccountID,
			Debit:       in.Debit,
			Credit:      in.Credit,
			Description: in.Description,
		})
	}
	tx.repo.lines[entryID] = lines
	return lines, nil
}

func (tx *memoryJournalTx) LinkSource(ctx context.Context, module string, ref uuid.UUID, entryID int64) error {
	key := module + "/" + ref.String()
	if _, dup := tx.repo.links[key]; dup {
		return ErrSourceAlreadyLinked
	}
	tx.repo.links[key] = entryID
	return nil
}

func (tx *memoryJournalTx) GetEntryWithLines(ctx context.Context, entryID int64) (Entry, error) {
	e, ok := tx.repo.entries[entryID]
	if !ok {
		return Entry{}, ErrEntryNotFound
	}
	e.Lines = append([]Line(nil), tx.repo.lines[entryID]...)
	return e, nil
}

func (tx *memoryJournalTx) MarkPosted(ctx context.Context, entryID int64, postedAt time.Time) (bool, error) {
	if tx.repo.markPostedErr != nil {
		return false, tx.repo.markPostedErr
	}
	e, ok := tx.repo.entries[entryID]
	if !ok || e.Status != StatusDraft {
		return false, nil
	}
	e.Status = StatusPosted
	e.PostedAt = &postedAt
	tx.repo.entries[entryID] = e
	return true, nil
}

func (tx *memoryJournalTx) UpdateStatus(ctx context.Context, entryID int64, status Status) error {
	e, ok := tx.repo.entries[entryID]
	if !ok {
		return ErrEntryNotFound
	}
	e.Status = status
	tx.repo.entries[entryID] = e
	return nil
}

func (tx *memoryJournalTx) GetFiscalYear(ctx context.Context, id int64) (fiscalyear.FiscalYear, error) {
	fy, ok := tx.repo.fiscalYears[id]
	if !ok {
		return fiscalyear.FiscalYear{}, fiscalyear.ErrNotFound
	}
	return fy, nil
}

func (tx *memoryJournalTx) GetAccount(ctx context.Context, id int64) (accounts.Account, error) {
	a, ok := tx.repo.accounts[id]
	if !ok {
		return accounts.Account{}, fmt.Errorf("account %d missing", id)
	}
	return a, nil
}

func (tx *memoryJournalTx) AddToBalance(ctx context.Context, accountID int64, delta decimal.Decimal) error {
	a, ok := tx.repo.accounts[accountID]
	if !ok {
		return fmt.Errorf("account %d missing", accountID)
	}
	a.CurrentBalance = a.CurrentBalance.Add(delta)
	tx.repo.accounts[accountID] = a
	return nil
}

func newJournalFixture() (*memoryJournalRepo, *Service) {
	repo := newMemoryJournalRepo()
	repo.fiscalYears[1] = fiscalyear.FiscalYear{
		ID:        1,
		Name:      "FY 2025",
		StartDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
		IsActive:  true,
	}
	repo.accounts[10] = accounts.Account{ID: 10, Code: "1.1.1", Name: "Cash", Type: accounts.AccountTypeAsset, Nature: accounts.NatureDebit, IsActive: true}
	repo.accounts[40] = accounts.Account{ID: 40, Code: "4.1", Name: "Rental Income", Type: accounts.AccountTypeRevenue, Nature: accounts.NatureCredit, IsActive: true}
	repo.accounts[99] = accounts.Account{ID: 99, Code: "1", Name: "Assets", Type: accounts.AccountTypeAsset, Nature: accounts.NatureDebit, IsHeader: true, IsActive: true}
	return repo, NewService(repo, nil, nil)
}

func draftInput(number string, debit, credit string) CreateDraftInput {
	return CreateDraftInput{
		EntryNumber:  number,
		EntryDate:    time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC),
		Description:  "rent receipt",
		FiscalYearID: 1,
		ActorID:      7,
		Lines: []LineInput{
			{AccountID: 10, Debit: decimal.RequireFromString(debit)},
			{AccountID: 40, Credit: decimal.RequireFromString(credit)},
		},
	}
}

func TestCreateDraftRejectsHeaderAccount(t *testing.T) {
	_, svc := newJournalFixture()
	in := draftInput("JE-001", "100", "100")
	in.Lines[0].AccountID = 99

	_, err := svc.CreateDraft(context.Background(), in)
	require.ErrorIs(t, err, ErrInvalidAccountRef)
}

func TestCreateDraftRejectsClosedFiscalYear(t *testing.T) {
	repo, svc := newJournalFixture()
	fy := repo.fiscalYears[1]
	fy.IsClosed = true
	repo.fiscalYears[1] = fy

	_, err := svc.CreateDraft(context.Background(), draftInput("JE-001", "100", "100"))
	require.ErrorIs(t, err, ErrFiscalYearClosed)
}

func TestCreateDraftRejectsOneSidedLine(t *testing.T) {
	_, svc := newJournalFixture()
	in := draftInput("JE-001", "100", "100")
	in.Lines[0].Credit = decimal.RequireFromString("5")

	_, err := svc.CreateDraft(context.Background(), in)
	require.ErrorIs(t, err, ErrInvalidLine)
}

func TestPostUpdatesBalancesByNature(t *testing.T) {
	repo, svc := newJournalFixture()
	entry, err := svc.CreateDraft(context.Background(), draftInput("JE-001", "250.50", "250.50"))
	require.NoError(t, err)

	posted, err := svc.Post(context.Background(), entry.ID, 7)
	require.NoError(t, err)
	require.Equal(t, StatusPosted, posted.Status)
	require.NotNil(t, posted.PostedAt)

	// Debit-nature cash grows by the debit, credit-nature revenue by the credit.
	require.True(t, repo.accounts[10].CurrentBalance.Equal(decimal.RequireFromString("250.50")))
	require.True(t, repo.accounts[40].CurrentBalance.Equal(decimal.RequireFromString("250.50")))
}

func TestPostReportsDifferenceWhenUnbalanced(t *testing.T) {
	_, svc := newJournalFixture()
	entry, err := svc.CreateDraft(context.Background(), draftInput("JE-001", "110", "100"))
	require.NoError(t, err)

	_, err = svc.Post(context.Background(), entry.ID, 7)
	require.ErrorIs(t, err, ErrUnbalanced)

	var unbalanced *UnbalancedError
	require.True(t, errors.As(err, &unbalanced))
	require.True(t, unbalanced.Difference.Equal(decimal.NewFromInt(10)))
}

func TestPostRejectsEmptyEntry(t *testing.T) {
	repo, svc := newJournalFixture()
	repo.entries[50] = Entry{ID: 50, EntryNumber: "JE-050", FiscalYearID: 1, Status: StatusDraft}

	_, err := svc.Post(context.Background(), 50, 7)
	require.ErrorIs(t, err, ErrEmptyEntry)
}

func TestPostTwiceReturnsAlreadyPosted(t *testing.T) {
	_, svc := newJournalFixture()
	entry, err := svc.CreateDraft(context.Background(), draftInput("JE-001", "100", "100"))
	require.NoError(t, err)

	_, err = svc.Post(context.Background(), entry.ID, 7)
	require.NoError(t, err)

	_, err = svc.Post(context.Background(), entry.ID, 7)
	require.ErrorIs(t, err, ErrAlreadyPosted)
}

func TestPostLosesCompareAndSwapRace(t *testing.T) {
	repo, svc := newJournalFixture()
	entry, err := svc.CreateDraft(context.Background(), draftInput("JE-001", "100", "100"))
	require.NoError(t, err)

	// Another caller wins the swap between the read and the mark.
	e := repo.entries[entry.ID]
	e.Status = StatusPosted
	repo.entries[entry.ID] = e
	_, err = svc.Post(context.Background(), entry.ID, 7)
	require.ErrorIs(t, err, ErrAlreadyPosted)
}

func TestPostMapsSerializationFailureToAlreadyPosted(t *testing.T) {
	repo, svc := newJournalFixture()
	entry, err := svc.CreateDraft(context.Background(), draftInput("JE-001", "100", "100"))
	require.NoError(t, err)

	// A truly concurrent loser aborts with SQLSTATE 40001 instead of
	// observing the winner's committed status.
	repo.markPostedErr = &pgconn.PgError{Code: "40001", Message: "could not serialize access"}
	_, err = svc.Post(context.Background(), entry.ID, 7)
	require.ErrorIs(t, err, ErrAlreadyPosted)
}

func TestCancelDraftIsTerminal(t *testing.T) {
	_, svc := newJournalFixture()
	entry, err := svc.CreateDraft(context.Background(), draftInput("JE-001", "100", "100"))
	require.NoError(t, err)

	cancelled, err := svc.Cancel(context.Background(), entry.ID, 7, "typo")
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, cancelled.Status)

	// No transition returns to draft or posted.
	_, err = svc.Post(context.Background(), entry.ID, 7)
	require.ErrorIs(t, err, ErrInvalidStatus)
	_, err = svc.Cancel(context.Background(), entry.ID, 7, "again")
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestCancelPostedReversesBalances(t *testing.T) {
	repo, svc := newJournalFixture()
	entry, err := svc.CreateDraft(context.Background(), draftInput("JE-001", "100", "100"))
	require.NoError(t, err)
	_, err = svc.Post(context.Background(), entry.ID, 7)
	require.NoError(t, err)

	cancelled, err := svc.CancelPosted(context.Background(), entry.ID, 7, "rejected")
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, cancelled.Status)
	require.True(t, repo.accounts[10].CurrentBalance.IsZero())
	require.True(t, repo.accounts[40].CurrentBalance.IsZero())
}

func TestCancelPostedRejectsClosedFiscalYear(t *testing.T) {
	repo, svc := newJournalFixture()
	entry, err := svc.CreateDraft(context.Background(), draftInput("JE-001", "100", "100"))
	require.NoError(t, err)
	_, err = svc.Post(context.Background(), entry.ID, 7)
	require.NoError(t, err)

	fy := repo.fiscalYears[1]
	fy.IsActive = false
	fy.IsClosed = true
	repo.fiscalYears[1] = fy

	// Closed-year history is immutable: the stamped aggregates would
	// drift if a late reversal got through.
	_, err = svc.CancelPosted(context.Background(), entry.ID, 7, "late rejection")
	require.ErrorIs(t, err, ErrFiscalYearClosed)
	require.Equal(t, StatusPosted, repo.entries[entry.ID].Status)
	require.True(t, repo.accounts[10].CurrentBalance.Equal(decimal.RequireFromString("100")))
}

func TestCancelRequiresActor(t *testing.T) {
	_, svc := newJournalFixture()
	_, err := svc.Cancel(context.Background(), 1, 0, "")
	require.Error(t, err)
}

func TestPostEntryWithinTransaction(t *testing.T) {
	repo, _ := newJournalFixture()

	postedAt := time.Date(2025, 12, 31, 18, 0, 0, 0, time.UTC)
	err := repo.WithTx(context.Background(), func(ctx context.Context, tx TxRepository) error {
		entry, err := PostEntry(ctx, tx, draftInput("JE-CLOSE", "75", "75"), postedAt)
		if err != nil {
			return err
		}
		require.Equal(t, StatusPosted, entry.Status)
		require.Equal(t, postedAt, *entry.PostedAt)
		return nil
	})
	require.NoError(t, err)
	require.True(t, repo.accounts[10].CurrentBalance.Equal(decimal.NewFromInt(75)))
}
