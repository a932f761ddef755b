package cmd

import (
	"fmt"
	"time"

	"github.com/Lumos-Labs-HQ/libseed/internal/debt"
	"github.com/fatih/color"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	debtPrice      string
	debtLoanDate   string
	debtReturnDate string
)

var debtCmd = &cobra.Command{
	Use:   "debt",
	Short: "Show the debt of a single loan",
	Long: `Apply the lending policy to one loan and print its charges. Dates are
RFC 3339 timestamps or plain dates (UTC). Omit --return-date for a book
that is still out.`,
	Example: `  libseed debt --price 100 --loan-date 2024-03-01 --return-date 2024-03-06`,
	RunE: func(cmd *cobra.Command, args []string) error {
		price, err := decimal.NewFromString(debtPrice)
		if err != nil || price.IsNegative() {
			return fmt.Errorf("invalid price %q", debtPrice)
		}

		loanDate, err := parseDate(debtLoanDate)
		if err != nil {
			return fmt.Errorf("invalid loan date: %w", err)
		}

		var returned *time.Time
		if debtReturnDate != "" {
			r, err := parseDate(debtReturnDate)
			if err != nil {
				return fmt.Errorf("invalid return date: %w", err)
			}
			if r.Before(loanDate) {
				return fmt.Errorf("return date %s is before loan date %s", debtReturnDate, debtLoanDate)
			}
			returned = &r
		}

		due := debt.DueDate(loanDate)
		assessment := debt.Assess(price, due, returned)

		color.Cyan("📖 Loan of a book priced %s", price.StringFixed(2))
		fmt.Printf("  %-14s %s\n", "loan date", loanDate.Format(time.RFC3339))
		fmt.Printf("  %-14s %s\n", "due date", due.Format(time.RFC3339))
		if returned == nil {
			fmt.Printf("  %-14s %s\n", "returned", "not yet")
		} else {
			fmt.Printf("  %-14s %s\n", "returned", returned.Format(time.RFC3339))
			fmt.Printf("  %-14s %d\n", "overdue days", debt.OverdueDays(due, *returned))
		}

		for _, c := range assessment.Charges {
			fmt.Printf("  %-14s %s\n", string(c.Type), c.Amount.StringFixed(2))
		}
		color.Green("  %-14s %s", "total", assessment.Total.StringFixed(2))
		return nil
	},
}

func parseDate(value string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, time.DateTime, time.DateOnly} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse %q", value)
}

func init() {
	rootCmd.AddCommand(debtCmd)
	debtCmd.Flags().StringVar(&debtPrice, "price", "", "Book price")
	debtCmd.Flags().StringVar(&debtLoanDate, "loan-date", "", "Date the book was lent")
	debtCmd.Flags().StringVar(&debtReturnDate, "return-date", "", "Date the book came back")
	debtCmd.MarkFlagRequired("price")
	debtCmd.MarkFlagRequired("loan-date")
}
