// Copyright 2026 Chapterly Ltd.
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/mock/gomock"

	"github.com/chapterly/catalog-service/internal/logging"
	"github.com/chapterly/catalog-service/internal/monitoring"
	"github.com/chapterly/catalog-service/internal/tracing"
	"github.com/chapterly/catalog-service/internal/types"
)

//go:generate mockgen -build_flags=--mod=mod -package storage -destination ./mock_db.go -source=../db/interfaces.go

// fakeRow hands back a canned user, or a canned scan error.
type fakeRow struct {
	user *types.User
	err  error
}

func (r *fakeRow) Scan(dest ...interface{}) error {
	if r.err != nil {
		return r.err
	}
	*dest[0].(*string) = r.user.ID
	*dest[1].(*string) = r.user.ExternalID
	*dest[2].(*string) = r.user.Email
	*dest[3].(**string) = r.user.FirstName
	*dest[4].(**string) = r.user.LastName
	*dest[5].(**string) = r.user.AvatarURL
	*dest[6].(*types.Role) = r.user.Role
	*dest[7].(**string) = r.user.CreatedBy
	*dest[8].(*time.Time) = r.user.UpdatedAt
	return nil
}

// fakeRunner records the SQL routed through a statement builder and serves a
// fixed row for single-row queries.
type fakeRunner struct {
	query string
	args  []interface{}
	row   sq.RowScanner
}

func (f *fakeRunner) Exec(string, ...interface{}) (sql.Result, error) { return nil, nil }
func (f *fakeRunner) Query(string, ...interface{}) (*sql.Rows, error) { return nil, nil }

func (f *fakeRunner) QueryRowContext(ctx context.Context, query string, args ...interface{}) sq.RowScanner {
	f.query = query
	f.args = args
	return f.row
}

func newTestStorage(db *MockDBClientInterface) *Storage {
	return NewStorage(db, tracing.NewNoopTracer(), monitoring.NewNoopMonitor(), logging.NewNoopLogger())
}

func TestStorage_CreateUser(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	want := &types.User{
		ID:         "0191e3a0-0000-7000-8000-000000000001",
		ExternalID: "user_2abc",
		Email:      "first@chapterly.com",
		Role:       types.RoleAdmin,
		UpdatedAt:  time.Now(),
	}
	runner := &fakeRunner{row: &fakeRow{user: want}}

	mockDB := NewMockDBClientInterface(ctrl)
	mockTx := NewMockTxInterface(ctrl)

	mockDB.EXPECT().TxStatement(gomock.Any()).Return(
		mockTx,
		sq.StatementBuilder.PlaceholderFormat(sq.Dollar).RunWith(runner),
		nil,
	)
	gomock.InOrder(
		mockTx.EXPECT().Exec("SELECT pg_advisory_xact_lock($1)", bootstrapLockID).Return(nil, nil),
		mockTx.EXPECT().Commit().Return(nil),
	)

	s := newTestStorage(mockDB)

	got, err := s.CreateUser(context.Background(), &types.User{ExternalID: "user_2abc", Email: "first@chapterly.com"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ExternalID != want.ExternalID {
		t.Errorf("expected external ID %q, got %q", want.ExternalID, got.ExternalID)
	}
	if got.Role != types.RoleAdmin {
		t.Errorf("expected role %q, got %q", types.RoleAdmin, got.Role)
	}

	// The advisory lock only serializes the bootstrap claim when the role is
	// still computed from the table state inside the same transaction.
	if !strings.Contains(runner.query, "CASE WHEN (SELECT count(*) FROM user_profiles) = 0 THEN 'admin' ELSE 'customer' END") {
		t.Errorf("insert does not compute the role from the table state: %s", runner.query)
	}
	if !strings.Contains(runner.query, "RETURNING") {
		t.Errorf("insert does not return the stored row: %s", runner.query)
	}
}

func TestStorage_CreateUser_DuplicateKey(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	runner := &fakeRunner{row: &fakeRow{err: &pgconn.PgError{Code: pgErrCodeUniqueViolation}}}

	mockDB := NewMockDBClientInterface(ctrl)
	mockTx := NewMockTxInterface(ctrl)

	mockDB.EXPECT().TxStatement(gomock.Any()).Return(
		mockTx,
		sq.StatementBuilder.PlaceholderFormat(sq.Dollar).RunWith(runner),
		nil,
	)
	gomock.InOrder(
		mockTx.EXPECT().Exec("SELECT pg_advisory_xact_lock($1)", bootstrapLockID).Return(nil, nil),
		mockTx.EXPECT().Rollback().Return(nil),
	)

	s := newTestStorage(mockDB)

	_, err := s.CreateUser(context.Background(), &types.User{ExternalID: "user_2abc"})
	if !errors.Is(err, ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}
}

func TestStorage_CreateUser_LockFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockDB := NewMockDBClientInterface(ctrl)
	mockTx := NewMockTxInterface(ctrl)

	mockDB.EXPECT().TxStatement(gomock.Any()).Return(
		mockTx,
		sq.StatementBuilder.PlaceholderFormat(sq.Dollar).RunWith(&fakeRunner{}),
		nil,
	)
	gomock.InOrder(
		mockTx.EXPECT().Exec("SELECT pg_advisory_xact_lock($1)", bootstrapLockID).Return(nil, errors.New("connection reset")),
		mockTx.EXPECT().Rollback().Return(nil),
	)

	s := newTestStorage(mockDB)

	_, err := s.CreateUser(context.Background(), &types.User{ExternalID: "user_2abc"})
	if err == nil || !strings.Contains(err.Error(), "bootstrap lock") {
		t.Errorf("expected bootstrap lock error, got %v", err)
	}
}
