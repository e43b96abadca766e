package reference

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
)

// Kind discriminates the business object a finance record points back at.
type Kind string

const (
	KindRental             Kind = "rental"
	KindInvoice            Kind = "invoice"
	KindBill               Kind = "bill"
	KindFinanceTransaction Kind = "finance_transaction"
	KindDepreciationRun    Kind = "depreciation_run"
)

// Ref is a tagged reference to the business object that generated a
// finance record. It replaces a language-level "any model" pointer with an
// explicit discriminated pair persisted as (reference_type, reference_id).
type Ref struct {
	Kind Kind
	ID   snowflake.ID
}

// Valid reports whether the reference carries both a known kind and an ID.
func (r Ref) Valid() bool {
	switch r.Kind {
	case KindRental, KindInvoice, KindBill, KindFinanceTransaction, KindDepreciationRun:
		return r.ID != 0
	}
	return false
}

// IsZero reports whether the reference is unset.
func (r Ref) IsZero() bool {
	return r.Kind == "" && r.ID == 0
}

func (r Ref) String() string {
	return fmt.Sprintf("%s:%d", r.Kind, r.ID)
}

// ParseKind normalizes a stored reference_type value.
func ParseKind(value string) (Kind, bool) {
	kind := Kind(strings.ToLower(strings.TrimSpace(value)))
	switch kind {
	case KindRental, KindInvoice, KindBill, KindFinanceTransaction, KindDepreciationRun:
		return kind, true
	}
	return "", false
}
