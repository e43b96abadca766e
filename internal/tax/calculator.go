package tax

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/anzalajra/gearent/internal/settings"
)

// TaxType classifies the customer for withholding purposes.
type TaxType string

const (
	TaxTypeIndividual TaxType = "individual"
	TaxTypeCorporate  TaxType = "corporate"
	TaxTypeGovernment TaxType = "government"
)

// Customer is the payer profile the calculator needs. Callers map their own
// customer records onto this view.
type Customer struct {
	TaxType     TaxType
	IsTaxExempt bool
	CountryCode string
}

// Result is the computed tax shape for one amount.
type Result struct {
	Base   decimal.Decimal
	Amount decimal.Decimal
	Rate   decimal.Decimal
	Name   string
	Total  decimal.Decimal
}

// PPh23 withholding applies at a flat 2% for corporate and government payers.
var pph23Rate = decimal.NewFromInt(2)

var hundred = decimal.NewFromInt(100)

// Calculator computes PPN/VAT, PPh23 and PPh Final amounts from the
// settings store. It never fails on missing configuration; every degenerate
// input degrades to the zero-tax shape.
type Calculator struct {
	log      *zap.Logger
	settings *settings.Service
}

type CalculatorParam struct {
	fx.In

	Log      *zap.Logger
	Settings *settings.Service
}

func NewCalculator(p CalculatorParam) *Calculator {
	return &Calculator{
		log:      p.Log.Named("tax.calculator"),
		settings: p.Settings,
	}
}

// Calculate computes the VAT line for amount. With inclusive pricing the tax
// is backed out of the amount; with exclusive pricing it is added on top.
func (c *Calculator) Calculate(ctx context.Context, amount decimal.Decimal, isTaxable, priceIncludesTax bool, customer *Customer) Result {
	if !c.settings.TaxEnabled(ctx) {
		return zeroResult(amount, "Tax Disabled")
	}
	if customer != nil && customer.IsTaxExempt {
		return zeroResult(amount, "Tax Exempt")
	}
	if !isTaxable {
		return zeroResult(amount, "Non-Taxable")
	}
	if amount.Sign() <= 0 {
		return zeroResult(amount, "")
	}

	rate, name := c.resolveRate(ctx, customer)
	if rate.Sign() <= 0 {
		return zeroResult(amount, name)
	}

	if priceIncludesTax {
		base := amount.Div(decimal.NewFromInt(1).Add(rate.Div(hundred))).Round(2)
		return Result{
			Base:   base,
			Amount: amount.Sub(base).Round(2),
			Rate:   rate,
			Name:   name,
			Total:  amount.Round(2),
		}
	}

	taxAmount := amount.Mul(rate).Div(hundred).Round(2)
	return Result{
		Base:   amount.Round(2),
		Amount: taxAmount,
		Rate:   rate,
		Name:   name,
		Total:  amount.Add(taxAmount).Round(2),
	}
}

// CalculatePPh23 returns the 2% withholding for corporate and government
// customers, zero for everyone else.
func (c *Calculator) CalculatePPh23(ctx context.Context, dpp decimal.Decimal, customer *Customer) decimal.Decimal {
	if customer == nil || dpp.Sign() <= 0 {
		return decimal.Zero
	}
	switch customer.TaxType {
	case TaxTypeCorporate, TaxTypeGovernment:
		return dpp.Mul(pph23Rate).Div(hundred).Round(2)
	}
	return decimal.Zero
}

// CalculatePPhFinal applies the configured PPh Final rate to turnover.
func (c *Calculator) CalculatePPhFinal(ctx context.Context, turnover decimal.Decimal) decimal.Decimal {
	if turnover.Sign() <= 0 {
		return decimal.Zero
	}
	rate := c.settings.PPhFinalRate(ctx)
	return turnover.Mul(rate).Div(hundred).Round(2)
}

func (c *Calculator) resolveRate(ctx context.Context, customer *Customer) (decimal.Decimal, string) {
	switch c.settings.TaxMode(ctx) {
	case settings.TaxModeInternational:
		country := "ID"
		if customer != nil && strings.TrimSpace(customer.CountryCode) != "" {
			country = strings.ToUpper(strings.TrimSpace(customer.CountryCode))
		}
		for _, entry := range c.settings.InternationalTaxRates(ctx) {
			if strings.EqualFold(strings.TrimSpace(entry.CountryCode), country) {
				return entry.Rate, entry.TaxName
			}
		}
		return decimal.Zero, ""
	default:
		if !c.settings.IsPKP(ctx) {
			return decimal.Zero, "Non-PKP"
		}
		return c.settings.PPNRate(ctx), "PPN"
	}
}

func zeroResult(amount decimal.Decimal, name string) Result {
	return Result{
		Base:   amount.Round(2),
		Amount: decimal.Zero,
		Rate:   decimal.Zero,
		Name:   name,
		Total:  amount.Round(2),
	}
}

var Module = fx.Module("tax.calculator",
	fx.Provide(NewCalculator),
)
