package approval

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/awqaf-platform/waqf-ledger/internal/accounts"
	"github.com/awqaf-platform/waqf-ledger/internal/fiscalyear"
	"github.com/awqaf-platform/waqf-ledger/internal/journal"
	"github.com/awqaf-platform/waqf-ledger/internal/shared"
)

type approvalState struct {
	approvals   map[int64]Approval
	entries     map[int64]journal.Entry
	lines       map[int64][]journal.Line
	accounts    map[int64]accounts.Account
	fiscalYears map[int64]fiscalyear.FiscalYear
	nextID      int64
}

func (s *approvalState) clone() *approvalState {
	c := &approvalState{
		approvals:   make(map[int64]Approval, len(s.approvals)),
		entries:     make(map[int64]journal.Entry, len(s.entries)),
		lines:       make(map[int64][]journal.Line, len(s.lines)),
		accounts:    make(map[int64]accounts.Account, len(s.accounts)),
		fiscalYears: make(map[int64]fiscalyear.FiscalYear, len(s.fiscalYears)),
		nextID:      s.nextID,
	}
	for k, v := range s.approvals {
		c.approvals[k] = v
	}
	for k, v := range s.entries {
		c.entries[k] = v
	}
	for k, v := range s.lines {
		c.lines[k] = v
	}
	for k, v := range s.accounts {
		c.accounts[k] = v
	}
	for k, v := range s.fiscalYears {
		c.fiscalYears[k] = v
	}
	return c
}

// memoryApprovalRepo backs the approval service with maps. WithTx runs fn
// against a copy of the state and swaps it in only on success, so a failed
// rejection observably rolls back.
type memoryApprovalRepo struct {
	state *approvalState
}

type memoryApprovalTx struct {
	state *approvalState
}

func newMemoryApprovalRepo() *memoryApprovalRepo {
	return &memoryApprovalRepo{state: &approvalState{
		approvals:   make(map[int64]Approval),
		entries:     make(map[int64]journal.Entry),
		lines:       make(map[int64][]journal.Line),
		accounts:    make(map[int64]accounts.Account),
		fiscalYears: make(map[int64]fiscalyear.FiscalYear),
	}}
}

func (r *memoryApprovalRepo) Insert(ctx context.Context, entryID, requestedBy int64) (Approval, error) {
	for _, a := range r.state.approvals {
		if a.EntryID == entryID && a.Status == StatusPending {
			return Approval{}, ErrPendingExists
		}
	}
	r.state.nextID++
	a := Approval{
		ID:          r.state.nextID,
		EntryID:     entryID,
		Status:      StatusPending,
		RequestedBy: requestedBy,
		CreatedAt:   time.Now(),
	}
	r.state.approvals[a.ID] = a
	return a, nil
}

func (r *memoryApprovalRepo) Get(ctx context.Context, id int64) (Approval, error) {
	a, ok := r.state.approvals[id]
	if !ok {
		return Approval{}, ErrNotFound
	}
	return a, nil
}

func (r *memoryApprovalRepo) ListByEntry(ctx context.Context, entryID int64) ([]Approval, error) {
	var out []Approval
	for _, a := range r.state.approvals {
		if a.EntryID == entryID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *memoryApprovalRepo) Decide(ctx context.Context, id int64, status Status, decidedBy int64, notes string, decidedAt time.Time) (Approval, error) {
	return decideInState(r.state, id, status, decidedBy, notes, decidedAt)
}

func (r *memoryApprovalRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	working := r.state.clone()
	if err := fn(ctx, &memoryApprovalTx{state: working}); err != nil {
		return err
	}
	r.state = working
	return nil
}

func decideInState(s *approvalState, id int64, status Status, decidedBy int64, notes string, decidedAt time.Time) (Approval, error) {
	a, ok := s.approvals[id]
	if !ok {
		return Approval{}, ErrNotFound
	}
	if a.Status != StatusPending {
		return Approval{}, ErrNotPending
	}
	a.Status = status
	a.DecidedBy = &decidedBy
	a.Notes = notes
	a.DecidedAt = &decidedAt
	s.approvals[id] = a
	return a, nil
}

func (tx *memoryApprovalTx) Decide(ctx context.Context, id int64, status Status, decidedBy int64, notes string, decidedAt time.Time) (Approval, error) {
	return decideInState(tx.state, id, status, decidedBy, notes, decidedAt)
}

func (tx *memoryApprovalTx) InsertEntry(ctx context.Context, in journal.CreateDraftInput) (journal.Entry, error) {
	tx.state.nextID++
	e := journal.Entry{ID: tx.state.nextID, EntryNumber: in.EntryNumber, FiscalYearID: in.FiscalYearID, Status: journal.StatusDraft}
	tx.state.entries[e.ID] = e
	return e, nil
}

func (tx *memoryApprovalTx) InsertLines(ctx context.Context, entryID int64, inputs []journal.LineInput) ([]journal.Line, error) {
	lines := make([]journal.Line, 0, len(inputs))
	for _, in := range inputs {
		tx.state.nextID++
		lines = append(lines, journal.Line{ID: tx.state.nextID, EntryID: entryID, AccountID: in.AccountID, Debit: in.Debit, Credit: in.Credit})
	}
	tx.state.lines[entryID] = lines
	return lines, nil
}

func (tx *memoryApprovalTx) LinkSource(ctx context.Context, module string, ref uuid.UUID, entryID int64) error {
	return nil
}

func (tx *memoryApprovalTx) GetEntryWithLines(ctx context.Context, entryID int64) (journal.Entry, error) {
	e, ok := tx.state.entries[entryID]
	if !ok {
		return journal.Entry{}, journal.ErrEntryNotFound
	}
	e.Lines = tx.state.lines[entryID]
	return e, nil
}

func (tx *memoryApprovalTx) MarkPosted(ctx context.Context, entryID int64, postedAt time.Time) (bool, error) {
	e, ok := tx.state.entries[entryID]
	if !ok || e.Status != journal.StatusDraft {
		return false, nil
	}
	e.Status = journal.StatusPosted
	e.PostedAt = &postedAt
	tx.state.entries[entryID] = e
	return true, nil
}

func (tx *memoryApprovalTx) UpdateStatus(ctx context.Context, entryID int64, status journal.Status) error {
	e := tx.state.entries[entryID]
	e.Status = status
	tx.state.entries[entryID] = e
	return nil
}

func (tx *memoryApprovalTx) GetFiscalYear(ctx context.Context, id int64) (fiscalyear.FiscalYear, error) {
	fy, ok := tx.state.fiscalYears[id]
	if !ok {
		return fiscalyear.FiscalYear{}, fiscalyear.ErrNotFound
	}
	return fy, nil
}

func (tx *memoryApprovalTx) GetAccount(ctx context.Context, id int64) (accounts.Account, error) {
	a, ok := tx.state.accounts[id]
	if !ok {
		return accounts.Account{}, journal.ErrInvalidAccountRef
	}
	return a, nil
}

func (tx *memoryApprovalTx) AddToBalance(ctx context.Context, accountID int64, delta decimal.Decimal) error {
	a := tx.state.accounts[accountID]
	a.CurrentBalance = a.CurrentBalance.Add(delta)
	tx.state.accounts[accountID] = a
	return nil
}

type journalReader struct {
	repo *memoryApprovalRepo
}

func (j journalReader) Get(ctx context.Context, entryID int64) (journal.Entry, error) {
	e, ok := j.repo.state.entries[entryID]
	if !ok {
		return journal.Entry{}, journal.ErrEntryNotFound
	}
	e.Lines = j.repo.state.lines[entryID]
	return e, nil
}

func amount(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// Fixture: entry 1 posted in the open year with balances applied, entry 2
// still a draft, entry 3 posted in the closed year.
func newApprovalFixture() (*memoryApprovalRepo, *Service) {
	repo := newMemoryApprovalRepo()
	repo.state.fiscalYears[1] = fiscalyear.FiscalYear{ID: 1, Name: "FY 2025", IsActive: true}
	repo.state.fiscalYears[2] = fiscalyear.FiscalYear{ID: 2, Name: "FY 2024", IsClosed: true}
	repo.state.accounts[10] = accounts.Account{ID: 10, Code: "1.1.1", Nature: accounts.NatureDebit, IsActive: true, CurrentBalance: amount("150")}
	repo.state.accounts[40] = accounts.Account{ID: 40, Code: "4.1", Nature: accounts.NatureCredit, IsActive: true, CurrentBalance: amount("150")}
	postedAt := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	repo.state.entries[1] = journal.Entry{ID: 1, EntryNumber: "JE-001", FiscalYearID: 1, Status: journal.StatusPosted, PostedAt: &postedAt}
	repo.state.lines[1] = []journal.Line{
		{ID: 11, EntryID: 1, AccountID: 10, Debit: amount("150")},
		{ID: 12, EntryID: 1, AccountID: 40, Credit: amount("150")},
	}
	repo.state.entries[2] = journal.Entry{ID: 2, EntryNumber: "JE-002", FiscalYearID: 1, Status: journal.StatusDraft}
	repo.state.entries[3] = journal.Entry{ID: 3, EntryNumber: "JE-003", FiscalYearID: 2, Status: journal.StatusPosted, PostedAt: &postedAt}
	repo.state.nextID = 100
	return repo, NewService(repo, journalReader{repo: repo}, nil, nil)
}

func TestSubmitOpensPendingRequest(t *testing.T) {
	_, svc := newApprovalFixture()

	a, err := svc.Submit(context.Background(), 1, 7)
	require.NoError(t, err)
	require.Equal(t, StatusPending, a.Status)
	require.Equal(t, int64(1), a.EntryID)
	require.Equal(t, int64(7), a.RequestedBy)
	require.Nil(t, a.DecidedBy)
}

func TestSubmitRejectsDraftEntry(t *testing.T) {
	_, svc := newApprovalFixture()

	_, err := svc.Submit(context.Background(), 2, 7)
	require.ErrorIs(t, err, ErrEntryNotPosted)
}

func TestSubmitRejectsDuplicatePending(t *testing.T) {
	_, svc := newApprovalFixture()

	_, err := svc.Submit(context.Background(), 1, 7)
	require.NoError(t, err)

	_, err = svc.Submit(context.Background(), 1, 8)
	require.ErrorIs(t, err, ErrPendingExists)
}

func TestApproveKeepsEntryPosted(t *testing.T) {
	repo, svc := newApprovalFixture()

	a, err := svc.Submit(context.Background(), 1, 7)
	require.NoError(t, err)

	decided, err := svc.Approve(context.Background(), a.ID, 8, "looks right")
	require.NoError(t, err)
	require.Equal(t, StatusApproved, decided.Status)
	require.Equal(t, int64(8), *decided.DecidedBy)
	require.Equal(t, journal.StatusPosted, repo.state.entries[1].Status)
	require.True(t, repo.state.accounts[10].CurrentBalance.Equal(amount("150")))
}

func TestRejectCancelsEntryAndReversesBalances(t *testing.T) {
	repo, svc := newApprovalFixture()

	a, err := svc.Submit(context.Background(), 1, 7)
	require.NoError(t, err)

	decided, err := svc.Reject(context.Background(), a.ID, 8, "wrong account")
	require.NoError(t, err)
	require.Equal(t, StatusRejected, decided.Status)
	require.Equal(t, journal.StatusCancelled, repo.state.entries[1].Status)
	require.True(t, repo.state.accounts[10].CurrentBalance.IsZero())
	require.True(t, repo.state.accounts[40].CurrentBalance.IsZero())
}

func TestRejectRollsBackWhenCancellationFails(t *testing.T) {
	repo, svc := newApprovalFixture()

	a, err := svc.Submit(context.Background(), 3, 7)
	require.NoError(t, err)

	_, err = svc.Reject(context.Background(), a.ID, 8, "late rejection")
	require.ErrorIs(t, err, journal.ErrFiscalYearClosed)

	// The decision rolled back with the cancellation: still pending,
	// entry untouched.
	current, err := repo.Get(context.Background(), a.ID)
	require.NoError(t, err)
	require.Equal(t, StatusPending, current.Status)
	require.Equal(t, journal.StatusPosted, repo.state.entries[3].Status)
}

func TestDecideRequiresPendingStatus(t *testing.T) {
	_, svc := newApprovalFixture()

	a, err := svc.Submit(context.Background(), 1, 7)
	require.NoError(t, err)

	_, err = svc.Approve(context.Background(), a.ID, 8, "")
	require.NoError(t, err)

	_, err = svc.Reject(context.Background(), a.ID, 8, "")
	require.ErrorIs(t, err, ErrNotPending)
}

func TestDecisionsRequireActor(t *testing.T) {
	_, svc := newApprovalFixture()

	_, err := svc.Submit(context.Background(), 1, 0)
	require.ErrorIs(t, err, shared.ErrActorRequired)

	_, err = svc.Approve(context.Background(), 1, 0, "")
	require.ErrorIs(t, err, shared.ErrActorRequired)
}
