package seeder

import (
	"context"
	"fmt"
	"time"

	"github.com/Lumos-Labs-HQ/libseed/internal/database"
	"github.com/Lumos-Labs-HQ/libseed/internal/metadata"
	"github.com/Lumos-Labs-HQ/libseed/internal/types"
	"github.com/fatih/color"
	"github.com/shopspring/decimal"
)

const (
	authorMinBirthYear = 1900
	authorMaxBirthYear = 2005

	maxQuantity         = 50
	publicationMaxYears = 10
)

var (
	minBookPrice = decimal.NewFromInt(80)
	maxBookPrice = decimal.NewFromInt(500)
)

// InsertPublishers inserts n publishers in one transaction.
func (s *Seeder) InsertPublishers(ctx context.Context, n int) ([]string, error) {
	color.Cyan("  📝 Seeding %s (%d records)...", types.TablePublisher, n)

	publishers := make([]types.Publisher, n)
	for i := range publishers {
		publishers[i] = types.Publisher{Name: s.generator.CompanyName()}
	}

	ids := make([]string, 0, n)
	err := database.WithTx(ctx, s.adapter, func(tx database.Tx) error {
		for _, p := range publishers {
			id, err := insertReturningID(ctx, tx, s.adapter.Builder().
				Insert(types.TablePublisher).
				Columns("name").
				Values(p.Name))
			if err != nil {
				return fmt.Errorf("%w: failed to insert publisher %q: %w", ErrInsertFailure, p.Name, err)
			}
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	color.Green("  ✅ %d publishers inserted", len(ids))
	return ids, nil
}

// InsertAuthors inserts n authors in one transaction.
func (s *Seeder) InsertAuthors(ctx context.Context, n int) ([]string, error) {
	color.Cyan("  📝 Seeding %s (%d records)...", types.TableAuthor, n)

	authors := make([]types.Author, n)
	for i := range authors {
		authors[i] = types.Author{
			Name:        s.generator.PersonName(),
			Nationality: s.generator.Country(),
			BirthDate:   s.generator.BirthDateByYear(authorMinBirthYear, authorMaxBirthYear),
		}
	}

	ids := make([]string, 0, n)
	err := database.WithTx(ctx, s.adapter, func(tx database.Tx) error {
		for _, a := range authors {
			id, err := insertReturningID(ctx, tx, s.adapter.Builder().
				Insert(types.TableAuthor).
				Columns("name", "nationality", "birth_date").
				Values(a.Name, a.Nationality, a.BirthDate))
			if err != nil {
				return fmt.Errorf("%w: failed to insert author %q: %w", ErrInsertFailure, a.Name, err)
			}
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	color.Green("  ✅ %d authors inserted", len(ids))
	return ids, nil
}

// InsertBooks inserts one book per metadata record, each assigned a random
// author and publisher, in one transaction.
func (s *Seeder) InsertBooks(ctx context.Context, records []metadata.Record, authorIDs, publisherIDs []string) ([]string, error) {
	color.Cyan("  📝 Seeding %s (%d records)...", types.TableBook, len(records))

	if len(records) > 0 && (len(authorIDs) == 0 || len(publisherIDs) == 0) {
		return nil, fmt.Errorf("%w: books need at least one author and one publisher", ErrMissingReferenceData)
	}

	now := s.clock()
	books := make([]types.Book, len(records))
	for i, rec := range records {
		books[i] = s.newBook(rec, authorIDs, publisherIDs, now)
	}

	ids := make([]string, 0, len(books))
	err := database.WithTx(ctx, s.adapter, func(tx database.Tx) error {
		for _, b := range books {
			id, err := insertReturningID(ctx, tx, s.adapter.Builder().
				Insert(types.TableBook).
				Columns("author_id", "publisher_id", "title", "code", "isbn", "quantity",
					"publication_date", "available_copies", "price", "image_url").
				Values(b.AuthorID, b.PublisherID, b.Title, b.Code, b.ISBN, b.Quantity,
					b.PublicationDate, b.AvailableCopies, b.Price, b.ImageURL))
			if err != nil {
				return fmt.Errorf("%w: failed to insert book %q: %w", ErrInsertFailure, b.Title, err)
			}
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	color.Green("  ✅ %d books inserted", len(ids))
	return ids, nil
}

func (s *Seeder) newBook(rec metadata.Record, authorIDs, publisherIDs []string, now time.Time) types.Book {
	g := s.generator
	quantity := g.IntRange(1, maxQuantity)

	book := types.Book{
		AuthorID:        g.Pick(authorIDs),
		PublisherID:     g.Pick(publisherIDs),
		Title:           rec.Title,
		Code:            g.BookCode(),
		ISBN:            g.ISBN(),
		Quantity:        quantity,
		AvailableCopies: g.IntRange(0, quantity),
		Price:           g.Price(minBookPrice, maxBookPrice),
	}

	if rec.PublishedDate != nil {
		book.PublicationDate = dateOf(*rec.PublishedDate)
	} else {
		book.PublicationDate = g.PastDate(now, publicationMaxYears)
	}

	if name := rec.ImageName(); name != "" {
		book.ImageURL = &name
	}
	return book
}
