package domain

import "github.com/shopspring/decimal"

// BalanceEpsilon is the largest debit/credit difference still treated as
// balanced, absorbing rounding on tax splits.
var BalanceEpsilon = decimal.RequireFromString("0.01")

// FilterLines drops zero/zero lines and rejects negative amounts.
func FilterLines(lines []Line) ([]Line, error) {
	filtered := make([]Line, 0, len(lines))
	for _, line := range lines {
		if line.Debit.Sign() < 0 || line.Credit.Sign() < 0 {
			return nil, ErrInvalidLineAmount
		}
		if line.Empty() {
			continue
		}
		filtered = append(filtered, line)
	}
	return filtered, nil
}

// SumLines totals both sides of a line set.
func SumLines(lines []Line) (debit, credit decimal.Decimal) {
	debit, credit = decimal.Zero, decimal.Zero
	for _, line := range lines {
		debit = debit.Add(line.Debit)
		credit = credit.Add(line.Credit)
	}
	return debit, credit
}

// Balanced reports whether debits and credits agree within BalanceEpsilon.
func Balanced(lines []Line) bool {
	debit, credit := SumLines(lines)
	return debit.Sub(credit).Abs().Cmp(BalanceEpsilon) <= 0
}
