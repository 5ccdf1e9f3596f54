// Copyright 2026 Chapterly Ltd.
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/chapterly/catalog-service/internal/db"
	"github.com/chapterly/catalog-service/internal/logging"
	"github.com/chapterly/catalog-service/internal/monitoring"
	"github.com/chapterly/catalog-service/internal/tracing"
	"github.com/chapterly/catalog-service/internal/types"
)

var _ StorageInterface = (*Storage)(nil)

var userColumns = []string{"id", "external_id", "email", "first_name", "last_name", "avatar_url", "role", "created_by", "updated_at"}

type Storage struct {
	db db.DBClientInterface

	logger  logging.LoggerInterface
	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
}

func NewStorage(c db.DBClientInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Storage {
	s := new(Storage)

	s.db = c

	s.logger = logger
	s.tracer = tracer
	s.monitor = monitor

	return s
}

func scanUser(row sq.RowScanner) (*types.User, error) {
	var u types.User
	err := row.Scan(&u.ID, &u.ExternalID, &u.Email, &u.FirstName, &u.LastName, &u.AvatarURL, &u.Role, &u.CreatedBy, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Storage) GetUserByExternalID(ctx context.Context, externalID string) (*types.User, error) {
	ctx, span := s.tracer.Start(ctx, "storage.GetUserByExternalID")
	defer span.End()

	u, err := scanUser(
		s.db.Statement(ctx).
			Select(userColumns...).
			From("user_profiles").
			Where(sq.Eq{"external_id": externalID}).
			QueryRowContext(ctx),
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return u, nil
}

func (s *Storage) GetUserByID(ctx context.Context, id string) (*types.User, error) {
	ctx, span := s.tracer.Start(ctx, "storage.GetUserByID")
	defer span.End()

	u, err := scanUser(
		s.db.Statement(ctx).
			Select(userColumns...).
			From("user_profiles").
			Where(sq.Eq{"id": id}).
			QueryRowContext(ctx),
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return u, nil
}

// bootstrapLockID keys the advisory lock serializing bootstrap-admin claims.
const bootstrapLockID = int64(0x626f6f74)

// CreateUser inserts a new user row. The role is computed inside the insert
// statement: the row that finds the table empty claims the bootstrap slot and
// becomes admin, every other row is a customer. The insert runs in its own
// transaction under pg_advisory_xact_lock; under READ COMMITTED the count
// subquery alone is not enough, two concurrent first-ever inserts would each
// see an empty snapshot and both come out admin. The lock holds until commit,
// so the loser's statement snapshot includes the winner's row. A duplicate
// external_id surfaces as ErrDuplicateKey; the caller is expected to re-read
// the winning row.
func (s *Storage) CreateUser(ctx context.Context, u *types.User) (*types.User, error) {
	ctx, span := s.tracer.Start(ctx, "storage.CreateUser")
	defer span.End()

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate user ID: %w", err)
	}

	tx, stmt, err := s.db.TxStatement(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				s.logger.Errorf("failed to rollback transaction: %v", rbErr)
			}
		}
	}()

	if _, err = tx.Exec("SELECT pg_advisory_xact_lock($1)", bootstrapLockID); err != nil {
		return nil, fmt.Errorf("failed to acquire bootstrap lock: %w", err)
	}

	created, err := scanUser(
		stmt.
			Insert("user_profiles").
			Columns("id", "external_id", "email", "first_name", "last_name", "avatar_url", "role", "created_by").
			Values(
				id.String(),
				u.ExternalID,
				u.Email,
				u.FirstName,
				u.LastName,
				u.AvatarURL,
				sq.Expr("(CASE WHEN (SELECT count(*) FROM user_profiles) = 0 THEN 'admin' ELSE 'customer' END)"),
				u.CreatedBy,
			).
			Suffix("RETURNING " + joinColumns(userColumns)).
			QueryRowContext(ctx),
	)

	if err != nil {
		if IsDuplicateKeyError(err) {
			err = ErrDuplicateKey
		} else {
			err = fmt.Errorf("failed to insert user: %w", err)
		}
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return created, nil
}

func (s *Storage) CountUsers(ctx context.Context) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "storage.CountUsers")
	defer span.End()

	var count int64
	err := s.db.Statement(ctx).
		Select("count(*)").
		From("user_profiles").
		QueryRowContext(ctx).
		Scan(&count)

	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}

	return count, nil
}

func (s *Storage) ListUsers(ctx context.Context) ([]*types.User, error) {
	ctx, span := s.tracer.Start(ctx, "storage.ListUsers")
	defer span.End()

	rows, err := s.db.Statement(ctx).
		Select(userColumns...).
		From("user_profiles").
		OrderBy("updated_at DESC").
		QueryContext(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*types.User
	for rows.Next() {
		var u types.User
		if err := rows.Scan(&u.ID, &u.ExternalID, &u.Email, &u.FirstName, &u.LastName, &u.AvatarURL, &u.Role, &u.CreatedBy, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, &u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return users, nil
}

func (s *Storage) UpdateUserRole(ctx context.Context, id string, role types.Role) (*types.User, error) {
	ctx, span := s.tracer.Start(ctx, "storage.UpdateUserRole")
	defer span.End()

	u, err := scanUser(
		s.db.Statement(ctx).
			Update("user_profiles").
			Set("role", role).
			Set("updated_at", sq.Expr("now()")).
			Where(sq.Eq{"id": id}).
			Suffix("RETURNING " + joinColumns(userColumns)).
			QueryRowContext(ctx),
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update user role: %w", err)
	}

	return u, nil
}

func joinColumns(cols []string) string {
	return strings.Join(cols, ", ")
}
