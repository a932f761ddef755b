package seeder

import (
	"context"
	"fmt"
	"time"

	"github.com/Lumos-Labs-HQ/libseed/internal/config"
	"github.com/Lumos-Labs-HQ/libseed/internal/database"
	"github.com/Lumos-Labs-HQ/libseed/internal/debt"
	"github.com/Lumos-Labs-HQ/libseed/internal/types"
	"github.com/Masterminds/squirrel"
	"github.com/fatih/color"
	"github.com/shopspring/decimal"
)

const (
	// LoanWindow is how far back loan dates are drawn from.
	LoanWindow = 120 * debt.Day
	// ReturnRate is the share of loans whose book has come back.
	ReturnRate = 0.8
)

// loanPlan is a loan and the payments its debt is settled with.
type loanPlan struct {
	Loan     types.Loan
	Payments []types.Payment
}

// planLoan assesses a loan of a book priced price and builds its row and
// payments. Payments are dated on the return date.
func planLoan(bookID, studentID string, price decimal.Decimal, loanDate time.Time, returnDate *time.Time) loanPlan {
	due := debt.DueDate(loanDate)
	assessment := debt.Assess(price, due, returnDate)

	plan := loanPlan{
		Loan: types.Loan{
			BookID:     bookID,
			StudentID:  studentID,
			LoanDate:   loanDate,
			DueDate:    due,
			ReturnDate: returnDate,
			Debt:       assessment.Total,
		},
	}
	for _, c := range assessment.Charges {
		plan.Payments = append(plan.Payments, types.Payment{
			Amount:   c.Amount,
			PaidDate: *returnDate,
			PayType:  c.Type,
		})
	}
	return plan
}

// drawLoanDates picks a loan date in the loan window before now and, with
// probability ReturnRate, a return date between the loan date and now.
func (s *Seeder) drawLoanDates(now time.Time) (time.Time, *time.Time) {
	loanDate := s.generator.TimeBetween(now.Add(-LoanWindow), now).Truncate(time.Microsecond)
	if !s.generator.Chance(ReturnRate) {
		return loanDate, nil
	}
	returned := s.generator.TimeBetween(loanDate, now).Truncate(time.Microsecond)
	return loanDate, &returned
}

// InsertLoansAndPayments inserts count loans of random books to random
// students together with the payments their debt implies. Depending on the
// loan transaction mode the loans share one transaction or get one each; a
// loan is never committed without its payments.
func (s *Seeder) InsertLoansAndPayments(ctx context.Context, bookIDs, studentIDs []string, count int) ([]string, LoanStats, error) {
	color.Cyan("  📝 Seeding %s and %s (%d loans)...", types.TableLoan, types.TablePayment, count)

	stats := LoanStats{Payments: make(map[types.PayType]int), Debt: decimal.Zero}
	if count == 0 {
		color.Yellow("  ⚠️  No loans requested")
		return nil, stats, nil
	}
	if len(bookIDs) == 0 || len(studentIDs) == 0 {
		return nil, stats, fmt.Errorf("%w: loans need at least one book and one student", ErrMissingReferenceData)
	}

	ids := make([]string, 0, count)
	var err error
	if s.config.LoanTx == config.LoanTxLoan {
		ids, err = s.insertLoansPerLoan(ctx, bookIDs, studentIDs, count, &stats)
	} else {
		err = database.WithTx(ctx, s.adapter, func(tx database.Tx) error {
			prices, err := s.bookPrices(ctx, tx, bookIDs)
			if err != nil {
				return err
			}
			now := s.clock()
			for i := 0; i < count; i++ {
				plan := s.nextLoan(bookIDs, studentIDs, prices, now)
				id, err := s.insertLoan(ctx, tx, plan)
				if err != nil {
					return err
				}
				ids = append(ids, id)
				stats.add(plan)
			}
			return nil
		})
	}
	if err != nil {
		return nil, LoanStats{}, err
	}

	color.Green("  ✅ %d loans inserted (%d returned, %d payments, total debt %s)",
		stats.Loans, stats.Returned, stats.PaymentCount(), stats.Debt.StringFixed(2))
	return ids, stats, nil
}

func (s *Seeder) insertLoansPerLoan(ctx context.Context, bookIDs, studentIDs []string, count int, stats *LoanStats) ([]string, error) {
	prices, err := s.bookPrices(ctx, s.adapter, bookIDs)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	ids := make([]string, 0, count)
	for i := 0; i < count; i++ {
		plan := s.nextLoan(bookIDs, studentIDs, prices, now)
		err := database.WithTx(ctx, s.adapter, func(tx database.Tx) error {
			id, err := s.insertLoan(ctx, tx, plan)
			if err != nil {
				return err
			}
			ids = append(ids, id)
			return nil
		})
		if err != nil {
			return nil, err
		}
		stats.add(plan)
	}
	return ids, nil
}

func (s *Seeder) nextLoan(bookIDs, studentIDs []string, prices map[string]decimal.Decimal, now time.Time) loanPlan {
	bookID := s.generator.Pick(bookIDs)
	studentID := s.generator.Pick(studentIDs)
	loanDate, returnDate := s.drawLoanDates(now)
	return planLoan(bookID, studentID, prices[bookID], loanDate, returnDate)
}

// insertLoan writes the loan row followed by its payments.
func (s *Seeder) insertLoan(ctx context.Context, q database.Queryer, plan loanPlan) (string, error) {
	l := plan.Loan
	id, err := insertReturningID(ctx, q, s.adapter.Builder().
		Insert(types.TableLoan).
		Columns("book_id", "student_id", "loan_date", "due_date", "return_date", "debt").
		Values(l.BookID, l.StudentID, l.LoanDate, l.DueDate, l.ReturnDate, l.Debt))
	if err != nil {
		return "", fmt.Errorf("%w: failed to insert loan of book %s: %w", ErrInsertFailure, l.BookID, err)
	}

	for _, p := range plan.Payments {
		query, args, err := s.adapter.Builder().
			Insert(types.TablePayment).
			Columns("loan_id", "amount", "paid_date", "pay_type").
			Values(id, p.Amount, p.PaidDate, string(p.PayType)).
			ToSql()
		if err != nil {
			return "", fmt.Errorf("failed to build payment insert: %w", err)
		}
		if err := q.Exec(ctx, query, args...); err != nil {
			return "", fmt.Errorf("%w: failed to insert %s payment of loan %s: %w", ErrInsertFailure, p.PayType, id, err)
		}
	}
	return id, nil
}

// bookPrices loads the price of every book in one query. Every book must
// have one.
func (s *Seeder) bookPrices(ctx context.Context, q database.Queryer, bookIDs []string) (map[string]decimal.Decimal, error) {
	query, args, err := s.adapter.Builder().
		Select("id", "price").
		From(types.TableBook).
		Where(squirrel.Eq{"id": unique(bookIDs)}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build price query: %w", err)
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch book prices: %w", err)
	}
	defer rows.Close()

	prices := make(map[string]decimal.Decimal, len(bookIDs))
	for rows.Next() {
		var (
			id    string
			price decimal.Decimal
		)
		if err := rows.Scan(&id, &price); err != nil {
			return nil, fmt.Errorf("failed to read book price: %w", err)
		}
		prices[id] = price
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to fetch book prices: %w", err)
	}

	for _, id := range bookIDs {
		if _, ok := prices[id]; !ok {
			return nil, fmt.Errorf("%w: book %s has no price", ErrMissingReferenceData, id)
		}
	}
	return prices, nil
}

func unique(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// PaymentCount is the number of payments across all types.
func (ls LoanStats) PaymentCount() int {
	total := 0
	for _, n := range ls.Payments {
		total += n
	}
	return total
}
