// Package debt implements the lending policy that turns loan dates into
// payment charges.
//
// A returned loan always owes the normal loan fee. Returning it after the
// due date adds an overdue fee that grows per day, until the delay crosses
// the sanction threshold, at which point the per-day fee is waived and a
// flat sanction is charged instead. Loans that were never returned owe
// nothing.
package debt

import (
	"time"

	"github.com/Lumos-Labs-HQ/libseed/internal/types"
	"github.com/shopspring/decimal"
)

const (
	Day = 24 * time.Hour

	// LoanPeriod is the time between lending a book and its due date.
	// NOTE: the lending desk documents a 7-day policy but the data this tool
	// reproduces uses 3 days.
	LoanPeriod = 3 * Day

	// SanctionAfter is how long past the due date a return may be before it
	// is sanctioned.
	SanctionAfter = 30 * Day

	shortOverdueDays = 3
	maxOverdueDays   = 30
)

var (
	normalRate      = decimal.RequireFromString("0.10")
	shortOverdueFee = decimal.NewFromInt(5)
	longOverdueFee  = decimal.NewFromInt(15)
	sanctionBase    = decimal.NewFromInt(150)
)

type Charge struct {
	Type   types.PayType
	Amount decimal.Decimal
}

// Assessment is the debt of a single loan broken down into charges, in the
// order they are paid.
type Assessment struct {
	Charges []Charge
	Total   decimal.Decimal
}

// Amount returns the charge of the given type, if present.
func (a Assessment) Amount(t types.PayType) (decimal.Decimal, bool) {
	for _, c := range a.Charges {
		if c.Type == t {
			return c.Amount, true
		}
	}
	return decimal.Zero, false
}

func (a *Assessment) add(t types.PayType, amount decimal.Decimal) {
	a.Charges = append(a.Charges, Charge{Type: t, Amount: amount})
	a.Total = a.Total.Add(amount)
}

// DueDate returns the due date of a loan made at loanDate.
func DueDate(loanDate time.Time) time.Time {
	return loanDate.Add(LoanPeriod)
}

// OverdueDays returns the whole days between due and returned, rounded up.
// It is zero when the book came back on or before the due date.
func OverdueDays(due, returned time.Time) int {
	if !returned.After(due) {
		return 0
	}
	late := returned.Sub(due)
	days := int(late / Day)
	if late%Day != 0 {
		days++
	}
	return days
}

// OverdueFee returns the per-day overdue charge for the given delay. Past
// maxOverdueDays the fee is waived in favour of the sanction.
func OverdueFee(days int) decimal.Decimal {
	switch {
	case days <= 0:
		return decimal.Zero
	case days <= shortOverdueDays:
		return shortOverdueFee.Mul(decimal.NewFromInt(int64(days)))
	case days <= maxOverdueDays:
		return longOverdueFee.Mul(decimal.NewFromInt(int64(days)))
	default:
		return decimal.Zero
	}
}

// NormalFee is the charge every returned loan pays.
func NormalFee(price decimal.Decimal) decimal.Decimal {
	return price.Mul(normalRate).Round(2)
}

// SanctionFee is the flat charge for a sanctioned return.
func SanctionFee(price decimal.Decimal) decimal.Decimal {
	return sanctionBase.Add(price).Round(2)
}

// Sanctioned reports whether a return at returned is late enough to be
// sanctioned.
func Sanctioned(due, returned time.Time) bool {
	return returned.After(due.Add(SanctionAfter))
}

// Assess computes the charges owed for a loan of a book priced price, due
// at due and returned at returned (nil if not returned).
func Assess(price decimal.Decimal, due time.Time, returned *time.Time) Assessment {
	a := Assessment{Total: decimal.Zero}
	if returned == nil {
		return a
	}

	a.add(types.PayNormalLoan, NormalFee(price))

	if returned.After(due) {
		if fee := OverdueFee(OverdueDays(due, *returned)); fee.IsPositive() {
			a.add(types.PayOverdueLoan, fee)
		}
	}

	if Sanctioned(due, *returned) {
		a.add(types.PaySanction, SanctionFee(price))
	}

	return a
}
