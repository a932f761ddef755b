package seeder

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Lumos-Labs-HQ/libseed/internal/config"
	"github.com/Lumos-Labs-HQ/libseed/internal/database"
	"github.com/Lumos-Labs-HQ/libseed/internal/metadata"
	"github.com/Lumos-Labs-HQ/libseed/internal/types"
	"github.com/Masterminds/squirrel"
	"github.com/fatih/color"
)

const (
	StageReference  = "reference"
	StagePublishers = "publishers"
	StageAuthors    = "authors"
	StageBooks      = "books"
	StageUsers      = "users"
	StageStudents   = "students"
	StageLoans      = "loans"
)

type Seeder struct {
	adapter   database.DatabaseAdapter
	config    config.Seed
	generator *DataGenerator
	graph     *DependencyGraph
	now       func() time.Time
}

func NewSeeder(adapter database.DatabaseAdapter, cfg config.Seed) *Seeder {
	return &Seeder{
		adapter:   adapter,
		config:    cfg,
		generator: NewDataGenerator(cfg.RandomSeed),
		graph:     NewDependencyGraph(),
		now:       time.Now,
	}
}

// Seed is the random seed of the run, recorded so it can be replayed.
func (s *Seeder) Seed() int64 {
	return s.generator.Seed()
}

// on returns a copy of s that issues every statement through db.
func (s *Seeder) on(db database.DatabaseAdapter) *Seeder {
	c := *s
	c.adapter = db
	return &c
}

func (s *Seeder) clock() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// Graph returns the stage graph of a full run, with its order built.
func (s *Seeder) Graph() (*DependencyGraph, error) {
	if len(s.graph.GetOrder()) > 0 {
		return s.graph, nil
	}
	for _, stage := range stages() {
		s.graph.AddStage(stage)
	}
	if _, err := s.graph.BuildInsertionOrder(); err != nil {
		return nil, fmt.Errorf("failed to build stage order: %w", err)
	}
	return s.graph, nil
}

// Run seeds every entity in dependency order and returns the identifiers it
// created. Each stage commits on its own unless the atomic mode is enabled,
// in which case the whole run commits or rolls back as one transaction.
func (s *Seeder) Run(ctx context.Context) (*RunContext, error) {
	color.Cyan("🌱 Starting database seeding...")

	records, err := metadata.LoadFile(s.config.BooksFile)
	if err != nil {
		return nil, err
	}
	color.Green("📚 Loaded %d book records from %s", len(records), s.config.BooksFile)

	graph, err := s.Graph()
	if err != nil {
		return nil, err
	}
	order := graph.GetOrder()
	color.Cyan("📋 Stage order: %s", strings.Join(order, " → "))
	color.Cyan("🎲 Random seed: %d", s.Seed())
	fmt.Println()

	rc := &RunContext{Seed: s.Seed(), records: records}

	runStages := func(seeder *Seeder) error {
		for _, name := range order {
			if err := graph.Stage(name).Run(ctx, seeder, rc); err != nil {
				return fmt.Errorf("failed to seed %s: %w", name, err)
			}
		}
		return nil
	}

	if !s.config.Atomic {
		if err := runStages(s); err != nil {
			return nil, err
		}
		color.Green("\n✅ Database seeding completed successfully!")
		return rc, nil
	}

	color.Cyan("🔒 Transaction started")
	err = database.WithTx(ctx, s.adapter, func(tx database.Tx) error {
		return runStages(s.on(database.Pin(s.adapter, tx)))
	})
	if err != nil {
		color.Yellow("🔄 Transaction rolled back")
		return nil, err
	}
	color.Cyan("🔓 Transaction committed")
	color.Green("\n✅ Database seeding completed successfully!")
	return rc, nil
}

func stages() []*Stage {
	return []*Stage{
		{
			Name: StageReference,
			Run: func(ctx context.Context, s *Seeder, rc *RunContext) (err error) {
				if rc.StudentRoleID, err = s.FetchStudentRoleID(ctx); err != nil {
					return err
				}
				rc.DegreeIDs, err = s.FetchDegreeIDs(ctx)
				return err
			},
		},
		{
			Name:   StagePublishers,
			Tables: []string{types.TablePublisher},
			Run: func(ctx context.Context, s *Seeder, rc *RunContext) (err error) {
				rc.PublisherIDs, err = s.InsertPublishers(ctx, s.config.Publishers)
				return err
			},
		},
		{
			Name:   StageAuthors,
			Tables: []string{types.TableAuthor},
			Run: func(ctx context.Context, s *Seeder, rc *RunContext) (err error) {
				rc.AuthorIDs, err = s.InsertAuthors(ctx, s.config.Authors)
				return err
			},
		},
		{
			Name:         StageBooks,
			Dependencies: []string{StagePublishers, StageAuthors},
			Tables:       []string{types.TableBook},
			Run: func(ctx context.Context, s *Seeder, rc *RunContext) (err error) {
				rc.BookIDs, err = s.InsertBooks(ctx, rc.records, rc.AuthorIDs, rc.PublisherIDs)
				return err
			},
		},
		{
			Name:         StageUsers,
			Dependencies: []string{StageReference},
			Tables:       []string{types.TableUser},
			Run: func(ctx context.Context, s *Seeder, rc *RunContext) (err error) {
				rc.UserIDs, err = s.InsertUsers(ctx, rc.StudentRoleID, s.config.Users)
				return err
			},
		},
		{
			Name:         StageStudents,
			Dependencies: []string{StageUsers, StageReference},
			Tables:       []string{types.TableStudent},
			Run: func(ctx context.Context, s *Seeder, rc *RunContext) (err error) {
				rc.StudentIDs, err = s.InsertStudents(ctx, rc.UserIDs, rc.DegreeIDs)
				return err
			},
		},
		{
			Name:         StageLoans,
			Dependencies: []string{StageBooks, StageStudents},
			Tables:       []string{types.TableLoan, types.TablePayment},
			Run: func(ctx context.Context, s *Seeder, rc *RunContext) (err error) {
				rc.LoanIDs, rc.Loans, err = s.InsertLoansAndPayments(ctx, rc.BookIDs, rc.StudentIDs, s.config.Loans)
				return err
			},
		},
	}
}

// insertReturningID runs an INSERT and returns the id the datastore assigned.
func insertReturningID(ctx context.Context, q database.Queryer, insert squirrel.InsertBuilder) (string, error) {
	query, args, err := insert.Suffix("RETURNING id").ToSql()
	if err != nil {
		return "", fmt.Errorf("failed to build insert: %w", err)
	}

	var id string
	if err := q.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

// selectIDs runs a statement returning a single id column.
func selectIDs(ctx context.Context, q database.Queryer, stmt squirrel.Sqlizer) ([]string, error) {
	query, args, err := stmt.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
