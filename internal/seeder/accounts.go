package seeder

import (
	"context"
	"fmt"

	"github.com/Lumos-Labs-HQ/libseed/internal/database"
	"github.com/Lumos-Labs-HQ/libseed/internal/types"
	"github.com/fatih/color"
	"golang.org/x/crypto/bcrypt"
)

const (
	minCUI int64 = 1000000000000
	maxCUI int64 = 9999999999999

	minUserAge = 18
	maxUserAge = 30

	minCarnet = 200000000
	maxCarnet = 202499999
)

// InsertUsers inserts n student accounts attached to roleID in one
// transaction. Emails are sequential so re-running with a different offset
// avoids collisions.
func (s *Seeder) InsertUsers(ctx context.Context, roleID string, n int) ([]string, error) {
	color.Cyan("  📝 Seeding %s (%d records)...", types.TableUser, n)

	now := s.clock()
	users := make([]types.UserAccount, n)
	for i := range users {
		password, err := s.passwordHash()
		if err != nil {
			return nil, err
		}
		users[i] = types.UserAccount{
			Email:         fmt.Sprintf("student%d@%s", i+s.config.EmailOffset, s.config.EmailDomain),
			Password:      password,
			Name:          s.generator.PersonName(),
			CUI:           s.generator.Int64Range(minCUI, maxCUI),
			BirthDate:     s.generator.BirthDateByAge(now, minUserAge, maxUserAge),
			RoleID:        roleID,
			IsApproved:    true,
			EmailVerified: true,
		}
	}

	ids := make([]string, 0, n)
	err := database.WithTx(ctx, s.adapter, func(tx database.Tx) error {
		for _, u := range users {
			id, err := insertReturningID(ctx, tx, s.adapter.Builder().
				Insert(types.TableUser).
				Columns("email", "password", "name", "cui", "birth_date", "role_id",
					"is_approved", "email_verified", "image_url").
				Values(u.Email, u.Password, u.Name, u.CUI, u.BirthDate, u.RoleID,
					u.IsApproved, u.EmailVerified, u.ImageURL))
			if err != nil {
				return fmt.Errorf("%w: failed to insert user %s: %w", ErrInsertFailure, u.Email, err)
			}
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	color.Green("  ✅ %d users inserted", len(ids))
	return ids, nil
}

// passwordHash returns the stored password of a new account: the shared
// fixture hash, or a fresh bcrypt hash of the configured password when
// hashing per user.
func (s *Seeder) passwordHash() (string, error) {
	accounts := s.config.Accounts
	if !accounts.HashPerUser {
		return accounts.PasswordHash, nil
	}

	cost := accounts.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(accounts.Password), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// InsertStudents inserts exactly one student per user, in one transaction.
func (s *Seeder) InsertStudents(ctx context.Context, userIDs, degreeIDs []string) ([]string, error) {
	color.Cyan("  📝 Seeding %s (%d records)...", types.TableStudent, len(userIDs))

	if len(userIDs) > 0 && len(degreeIDs) == 0 {
		return nil, fmt.Errorf("%w: students need at least one degree", ErrMissingReferenceData)
	}

	students := make([]types.Student, len(userIDs))
	for i, userID := range userIDs {
		students[i] = types.Student{
			UserID:   userID,
			Carnet:   s.generator.IntRange(minCarnet, maxCarnet),
			DegreeID: s.generator.Pick(degreeIDs),
		}
	}

	ids := make([]string, 0, len(students))
	err := database.WithTx(ctx, s.adapter, func(tx database.Tx) error {
		for _, st := range students {
			id, err := insertReturningID(ctx, tx, s.adapter.Builder().
				Insert(types.TableStudent).
				Columns("user_id", "is_sanctioned", "carnet", "degree_id").
				Values(st.UserID, st.IsSanctioned, st.Carnet, st.DegreeID))
			if err != nil {
				return fmt.Errorf("%w: failed to insert student for user %s: %w", ErrInsertFailure, st.UserID, err)
			}
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	color.Green("  ✅ %d students inserted", len(ids))
	return ids, nil
}
