package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"

	"github.com/anzalajra/gearent/internal/tax"
)

// InvoiceStatus tracks the invoice lifecycle.
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusIssued    InvoiceStatus = "issued"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

// Customer carries the billing profile the tax calculator needs.
type Customer struct {
	ID          snowflake.ID `gorm:"primaryKey"`
	Name        string       `gorm:"type:text;not null"`
	TaxType     string       `gorm:"type:text;not null;default:'individual'"`
	NPWP        string       `gorm:"column:npwp;type:text;not null;default:''"`
	IsTaxExempt bool         `gorm:"not null;default:false"`
	CountryCode string       `gorm:"type:text;not null;default:'ID'"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Customer) TableName() string { return "customers" }

// TaxProfile maps the customer onto the tax calculator's payer view.
func (c Customer) TaxProfile() *tax.Customer {
	return &tax.Customer{
		TaxType:     tax.TaxType(c.TaxType),
		IsTaxExempt: c.IsTaxExempt,
		CountryCode: c.CountryCode,
	}
}

// Invoice is a rental invoice carrying its computed tax breakdown.
type Invoice struct {
	ID            snowflake.ID    `gorm:"primaryKey"`
	InvoiceNumber string          `gorm:"type:text;not null;uniqueIndex:ux_invoices_invoice_number"`
	RentalID      *snowflake.ID   `gorm:"column:rental_id"`
	CustomerID    *snowflake.ID   `gorm:"index"`
	Date          time.Time       `gorm:"not null;index"`
	Subtotal      decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0"`
	IsTaxable     bool            `gorm:"not null;default:true"`
	PPNRate       decimal.Decimal `gorm:"column:ppn_rate;type:numeric(8,4);not null;default:0"`
	PPNAmount     decimal.Decimal `gorm:"column:ppn_amount;type:numeric(18,2);not null;default:0"`
	Total         decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0"`
	Status        InvoiceStatus   `gorm:"type:text;not null;default:'draft'"`
	CreatedAt     time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt     time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }
