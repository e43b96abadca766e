package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	financedomain "github.com/anzalajra/gearent/internal/finance/domain"
	"github.com/anzalajra/gearent/internal/reference"
	"github.com/anzalajra/gearent/internal/resolution"
)

// Service is the journal posting engine: the only writer of ledger truth.
type Service interface {
	// CreateEntry posts a balanced (or, by policy, annotated-unbalanced)
	// entry atomically. It returns nil without error when every line is
	// zero/zero, and the existing no-op result when the reference was
	// already journaled.
	CreateEntry(ctx context.Context, ref reference.Ref, description string, lines []Line, date time.Time) (*JournalEntry, error)

	// RecordSimpleTransaction posts a 2-line entry for a seeded event.
	// Missing mappings return nil, nil so batch callers can continue.
	RecordSimpleTransaction(ctx context.Context, event string, ref reference.Ref, amount decimal.Decimal, description string) (*JournalEntry, error)

	// SyncFromTransaction journals one simple-finance transaction. All
	// expected failure paths log and return nil, nil; the transaction is
	// left unsynced for a later run.
	SyncFromTransaction(ctx context.Context, txn financedomain.FinanceTransaction, overrides resolution.ManualMappings) (*JournalEntry, error)

	// EntryForReference fetches the entry generated by ref, nil when none.
	EntryForReference(ctx context.Context, ref reference.Ref) (*JournalEntry, error)

	// DeleteForReference removes the entry (and its items) generated by
	// ref. Used only by force-recreate flows that own the reference.
	DeleteForReference(ctx context.Context, ref reference.Ref) error
}

var (
	ErrInvalidReference   = errors.New("invalid_reference")
	ErrInvalidLineAmount  = errors.New("invalid_line_amount")
	ErrUnbalancedEntry    = errors.New("unbalanced_entry")
	ErrMissingDescription = errors.New("missing_description")
)
