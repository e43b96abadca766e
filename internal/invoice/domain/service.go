package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// IssueRequest describes the rental charge being invoiced.
type IssueRequest struct {
	RentalID   snowflake.ID
	CustomerID snowflake.ID
	Date       time.Time
	Subtotal   decimal.Decimal
	IsTaxable  bool
	// PriceIncludesTax backs the tax out of Subtotal instead of adding it.
	PriceIncludesTax bool
}

// Service issues invoices with their tax breakdown and walks them through
// the status lifecycle.
type Service interface {
	CreateCustomer(ctx context.Context, customer *Customer) error
	Issue(ctx context.Context, req IssueRequest) (*Invoice, error)
	FindByID(ctx context.Context, id snowflake.ID) (*Invoice, error)
	MarkPaid(ctx context.Context, id snowflake.ID) error
	Cancel(ctx context.Context, id snowflake.ID) error
}

var (
	ErrInvalidCustomer  = errors.New("invalid_customer")
	ErrInvalidSubtotal  = errors.New("invalid_subtotal")
	ErrInvalidInvoiceID = errors.New("invalid_invoice_id")
	ErrInvoiceNotFound  = errors.New("invoice_not_found")
	ErrInvoiceNotIssued = errors.New("invoice_not_issued")
)
