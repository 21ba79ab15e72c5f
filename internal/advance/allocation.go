package advance

import (
	advanceerrors "go-advance/internal/advance/errors"

	"github.com/shopspring/decimal"
)

// Allocation adalah hasil pembagian satu repayment ke satu advance.
type Allocation struct {
	Advance *Advance
	Applied decimal.Decimal
}

func TotalRemainingBalance(advances []*Advance) decimal.Decimal {
	total := decimal.Zero
	for _, a := range advances {
		total = total.Add(a.RemainingBalance())
	}
	return total
}

func TotalMonthlyDeduction(advances []*Advance) decimal.Decimal {
	total := decimal.Zero
	for _, a := range advances {
		total = total.Add(a.MonthlyDeduction)
	}
	return total
}

// Allocate membagi amount ke advances secara greedy.
// Urutan advances harus sudah sisa-saldo-terkecil-dulu; fungsi ini tidak
// mengurutkan ulang. Advance yang kena alokasi dimutasi langsung
// (RepaidAmount dan Status).
func Allocate(advances []*Advance, amount decimal.Decimal) ([]Allocation, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, advanceerrors.ErrInvalidRepaymentAmount
	}
	if len(advances) == 0 {
		return nil, advanceerrors.ErrNoActiveAdvances
	}

	minimum := TotalMonthlyDeduction(advances)
	if minimum.GreaterThan(decimal.Zero) && amount.LessThan(minimum) {
		return nil, advanceerrors.ErrAmountBelowMinimum
	}

	totalRemaining := TotalRemainingBalance(advances)
	if amount.GreaterThan(totalRemaining) {
		return nil, advanceerrors.ErrAmountExceedsBalance
	}

	var allocations []Allocation
	left := amount
	for _, a := range advances {
		if left.LessThanOrEqual(decimal.Zero) {
			break
		}

		applied := decimal.Min(a.RemainingBalance(), left)
		if applied.LessThanOrEqual(decimal.Zero) {
			continue
		}

		a.RepaidAmount = a.RepaidAmount.Add(applied)
		applyRepaymentStatus(a)

		allocations = append(allocations, Allocation{Advance: a, Applied: applied})
		left = left.Sub(applied)
	}

	return allocations, nil
}

// applyRepaymentStatus menghitung ulang status dari RepaidAmount.
// RepaidAmount <= 0 di-clamp ke nol dan advance kembali approved,
// dipakai juga saat reversal.
func applyRepaymentStatus(a *Advance) {
	switch {
	case a.RepaidAmount.LessThanOrEqual(decimal.Zero):
		a.RepaidAmount = decimal.Zero
		a.Status = StatusApproved
	case a.RepaidAmount.LessThan(a.Amount):
		a.Status = StatusPartiallyRepaid
	default:
		a.Status = StatusFullyRepaid
	}
}
