package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"

	"github.com/anzalajra/gearent/internal/reference"
)

// SyncReport carries both batch counters: how many un-journaled
// transactions a sync run touched, and how many actually posted. Callers
// decide which number to surface.
type SyncReport struct {
	Attempted int
	Posted    int
}

// Service owns the simple-finance ledger and its reconciliation against
// the formal journal.
type Service interface {
	CreateAccount(ctx context.Context, account *FinanceAccount) error
	CreateTransaction(ctx context.Context, txn *FinanceTransaction) error
	FindTransaction(ctx context.Context, id snowflake.ID) (*FinanceTransaction, error)

	// SyncAll journals every un-synced finance transaction in bounded
	// batches, one atomic scope per transaction.
	SyncAll(ctx context.Context, overrides map[string]snowflake.ID) (SyncReport, error)

	// ReassignReference re-points a transaction at a new business object
	// (e.g. from a rental to its generated invoice), leaving an audit
	// trail entry.
	ReassignReference(ctx context.Context, id snowflake.ID, newRef reference.Ref) error
}

var (
	ErrInvalidAccount     = errors.New("invalid_finance_account")
	ErrInvalidTransaction = errors.New("invalid_finance_transaction")
	ErrNegativeAmount     = errors.New("negative_transaction_amount")
	ErrTransactionMissing = errors.New("finance_transaction_not_found")
	ErrInvalidReference   = errors.New("invalid_reference")
)
