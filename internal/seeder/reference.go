package seeder

import (
	"context"
	"errors"
	"fmt"

	"github.com/Lumos-Labs-HQ/libseed/internal/database"
	"github.com/Lumos-Labs-HQ/libseed/internal/types"
	"github.com/Masterminds/squirrel"
	"github.com/fatih/color"
)

// FetchStudentRoleID returns the id of the STUDENT role every seeded account
// is attached to.
func (s *Seeder) FetchStudentRoleID(ctx context.Context) (string, error) {
	query, args, err := s.adapter.Builder().
		Select("id").
		From(types.TableRole).
		Where(squirrel.Eq{"name": types.StudentRole}).
		Limit(1).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("failed to build role query: %w", err)
	}

	var id string
	if err := s.adapter.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		if errors.Is(err, database.ErrNoRows) {
			return "", fmt.Errorf("%w: role %s not found", ErrMissingReferenceData, types.StudentRole)
		}
		return "", fmt.Errorf("failed to fetch %s role: %w", types.StudentRole, err)
	}
	return id, nil
}

// FetchDegreeIDs returns the id of every degree students can be enrolled in.
func (s *Seeder) FetchDegreeIDs(ctx context.Context) ([]string, error) {
	ids, err := selectIDs(ctx, s.adapter, s.adapter.Builder().Select("id").From(types.TableDegree))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch degrees: %w", err)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no degrees found", ErrMissingReferenceData)
	}

	color.Green("  ✅ Found %s role and %d degrees", types.StudentRole, len(ids))
	return ids, nil
}
