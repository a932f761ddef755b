package seeder

import (
	"context"
	"errors"

	"github.com/Lumos-Labs-HQ/libseed/internal/metadata"
	"github.com/Lumos-Labs-HQ/libseed/internal/types"
	"github.com/shopspring/decimal"
)

var (
	// ErrMissingReferenceData means the datastore lacks rows the run cannot
	// create itself (the STUDENT role, degrees) or a stage has nothing to
	// reference.
	ErrMissingReferenceData = errors.New("missing reference data")
	// ErrInsertFailure wraps any datastore error raised while inserting.
	ErrInsertFailure = errors.New("insert failed")
)

// Stage is one step of a seeding run.
type Stage struct {
	Name         string
	Dependencies []string // stages that must run first
	Tables       []string // tables written, in insertion order
	Run          func(ctx context.Context, s *Seeder, rc *RunContext) error
}

// RunContext carries the identifiers produced by each stage to the stages
// that consume them.
type RunContext struct {
	Seed          int64
	StudentRoleID string
	DegreeIDs     []string
	PublisherIDs  []string
	AuthorIDs     []string
	BookIDs       []string
	UserIDs       []string
	StudentIDs    []string
	LoanIDs       []string
	Loans         LoanStats

	records []metadata.Record
}

type LoanStats struct {
	Loans    int
	Returned int
	Payments map[types.PayType]int
	Debt     decimal.Decimal
}

func (ls *LoanStats) add(plan loanPlan) {
	if ls.Payments == nil {
		ls.Payments = make(map[types.PayType]int)
	}
	ls.Loans++
	if plan.Loan.ReturnDate != nil {
		ls.Returned++
	}
	for _, p := range plan.Payments {
		ls.Payments[p.PayType]++
	}
	ls.Debt = ls.Debt.Add(plan.Loan.Debt)
}

// PurgeStats is the number of rows deleted per table.
type PurgeStats map[string]int
