package seeder

import (
	"context"
	"fmt"

	"github.com/Lumos-Labs-HQ/libseed/internal/database"
	"github.com/Lumos-Labs-HQ/libseed/internal/manifest"
	"github.com/Lumos-Labs-HQ/libseed/internal/types"
	"github.com/Masterminds/squirrel"
	"github.com/fatih/color"
)

// Purge deletes every row a previous run recorded in m, together with the
// loans and payments that reference its books or students. Tables are
// emptied in reverse stage order inside one transaction.
func (s *Seeder) Purge(ctx context.Context, m *manifest.Manifest) (PurgeStats, error) {
	color.Cyan("🧹 Purging seeded data...")

	graph, err := s.Graph()
	if err != nil {
		return nil, err
	}

	stats := make(PurgeStats)
	err = database.WithTx(ctx, s.adapter, func(tx database.Tx) error {
		loanIDs, err := s.referencingLoans(ctx, tx, m)
		if err != nil {
			return err
		}

		targets := map[string]struct {
			column string
			ids    []string
		}{
			types.TablePayment:   {"loan_id", loanIDs},
			types.TableLoan:      {"id", loanIDs},
			types.TableStudent:   {"id", m.StudentIDs},
			types.TableUser:      {"id", m.UserIDs},
			types.TableBook:      {"id", m.BookIDs},
			types.TableAuthor:    {"id", m.AuthorIDs},
			types.TablePublisher: {"id", m.PublisherIDs},
		}

		for _, name := range graph.ReverseOrder() {
			tables := graph.Stage(name).Tables
			for i := len(tables) - 1; i >= 0; i-- {
				target, ok := targets[tables[i]]
				if !ok || len(target.ids) == 0 {
					continue
				}
				deleted, err := selectIDs(ctx, tx, s.adapter.Builder().
					Delete(tables[i]).
					Where(squirrel.Eq{target.column: target.ids}).
					Suffix("RETURNING id"))
				if err != nil {
					return fmt.Errorf("failed to delete from %s: %w", tables[i], err)
				}
				stats[tables[i]] = len(deleted)
				color.Green("  ✅ %s: %d rows deleted", tables[i], len(deleted))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	color.Green("\n✅ Purge completed successfully!")
	return stats, nil
}

// referencingLoans returns the recorded loans plus every loan of a seeded
// book or student.
func (s *Seeder) referencingLoans(ctx context.Context, q database.Queryer, m *manifest.Manifest) ([]string, error) {
	found, err := selectIDs(ctx, q, s.adapter.Builder().
		Select("id").
		From(types.TableLoan).
		Where(squirrel.Or{
			squirrel.Eq{"book_id": m.BookIDs},
			squirrel.Eq{"student_id": m.StudentIDs},
		}))
	if err != nil {
		return nil, fmt.Errorf("failed to find loans: %w", err)
	}
	return unique(append(append([]string{}, m.LoanIDs...), found...)), nil
}
