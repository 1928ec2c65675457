package accounts

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AccountType enumerates chart of accounts categories.
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeRevenue   AccountType = "REVENUE"
	AccountTypeExpense   AccountType = "EXPENSE"
)

// Nature marks which side of an entry increases the account balance.
type Nature string

const (
	NatureDebit  Nature = "DEBIT"
	NatureCredit Nature = "CREDIT"
)

// NaturalNature returns the conventional balance side for an account type.
func NaturalNature(t AccountType) Nature {
	switch t {
	case AccountTypeAsset, AccountTypeExpense:
		return NatureDebit
	default:
		return NatureCredit
	}
}

// CashFlowCategory buckets an account for cash flow statement purposes.
type CashFlowCategory string

const (
	CashFlowCash      CashFlowCategory = "CASH"
	CashFlowOperating CashFlowCategory = "OPERATING"
	CashFlowInvesting CashFlowCategory = "INVESTING"
	CashFlowFinancing CashFlowCategory = "FINANCING"
	CashFlowNone      CashFlowCategory = "NONE"
)

// Account models a chart of accounts node. CurrentBalance is a denormalized
// projection maintained transactionally by the journal engine; reports are
// always recomputed from posted lines.
type Account struct {
	ID             int64            `json:"id"`
	Code           string           `json:"code"`
	Name           string           `json:"name"`
	Type           AccountType      `json:"type"`
	Nature         Nature           `json:"nature"`
	ParentID       *int64           `json:"parent_id,omitempty"`
	IsHeader       bool             `json:"is_header"`
	IsActive       bool             `json:"is_active"`
	CashFlow       CashFlowCategory `json:"cash_flow_category"`
	CurrentBalance decimal.Decimal  `json:"current_balance"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// Postable reports whether the account may receive new journal lines.
func (a Account) Postable() bool {
	return a.IsActive && !a.IsHeader
}

// CreateAccountInput captures fields required to create an account.
type CreateAccountInput struct {
	Code     string
	Name     string
	Type     AccountType
	Nature   Nature
	ParentID *int64
	IsHeader bool
	CashFlow CashFlowCategory
	ActorID  int64
}

// Validate ensures the input is coherent.
func (in CreateAccountInput) Validate() error {
	if strings.TrimSpace(in.Code) == "" {
		return errors.New("accounts: code required")
	}
	if strings.TrimSpace(in.Name) == "" {
		return errors.New("accounts: name required")
	}
	switch in.Type {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeRevenue, AccountTypeExpense:
	default:
		return errors.New("accounts: unknown account type")
	}
	switch in.Nature {
	case NatureDebit, NatureCredit:
	case "":
		return errors.New("accounts: nature required")
	default:
		return errors.New("accounts: unknown nature")
	}
	if in.ActorID == 0 {
		return errors.New("accounts: actor required")
	}
	return nil
}

var (
	// ErrDuplicateCode occurs when the account code already exists.
	ErrDuplicateCode = errors.New("accounts: duplicate code")
	// ErrInvalidParent occurs when the parent is missing or not a header.
	ErrInvalidParent = errors.New("accounts: parent must be an existing header account")
	// ErrAccountNotFound occurs when the account does not exist.
	ErrAccountNotFound = errors.New("accounts: not found")
)
