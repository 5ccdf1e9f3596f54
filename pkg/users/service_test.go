// Copyright 2026 Chapterly Ltd.
// SPDX-License-Identifier: AGPL-3.0

package users

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/mock/gomock"

	"github.com/chapterly/catalog-service/internal/storage"
	"github.com/chapterly/catalog-service/internal/types"
)

//go:generate mockgen -build_flags=--mod=mod -package users -destination ./mock_interfaces.go -source=./interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package users -destination ./mock_logger.go -source=../../internal/logging/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package users -destination ./mock_monitor.go -source=../../internal/monitoring/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package users -destination ./mock_tracer.go -source=../../internal/tracing/interfaces.go

func newServiceMocks(t *testing.T, ctrl *gomock.Controller) (*MockStorageInterface, *Service) {
	t.Helper()

	mockStorage := NewMockStorageInterface(ctrl)
	mockTracer := NewMockTracingInterface(ctrl)
	mockMonitor := NewMockMonitorInterface(ctrl)
	mockLogger := NewMockLoggerInterface(ctrl)

	mockTracer.EXPECT().Start(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, name string) (context.Context, trace.Span) {
			return ctx, trace.SpanFromContext(ctx)
		},
	).AnyTimes()
	mockLogger.EXPECT().Infof(gomock.Any(), gomock.Any()).AnyTimes()

	return mockStorage, NewService(mockStorage, mockTracer, mockMonitor, mockLogger)
}

func TestService_ListUsers(t *testing.T) {
	expectedUsers := []*types.User{
		{ID: "u-1", Email: "one@example.com", Role: types.RoleAdmin},
		{ID: "u-2", Email: "two@example.com", Role: types.RoleCustomer},
	}
	dbErr := errors.New("db error")

	testCases := []struct {
		name          string
		setupMocks    func(*MockStorageInterface)
		expectedUsers []*types.User
		expectedTotal int64
		expectedErr   error
	}{
		{
			name: "success",
			setupMocks: func(mockStorage *MockStorageInterface) {
				mockStorage.EXPECT().ListUsers(gomock.Any()).Return(expectedUsers, nil)
				mockStorage.EXPECT().CountUsers(gomock.Any()).Return(int64(2), nil)
			},
			expectedUsers: expectedUsers,
			expectedTotal: 2,
		},
		{
			name: "list error",
			setupMocks: func(mockStorage *MockStorageInterface) {
				mockStorage.EXPECT().ListUsers(gomock.Any()).Return(nil, dbErr)
			},
			expectedErr: dbErr,
		},
		{
			name: "count error",
			setupMocks: func(mockStorage *MockStorageInterface) {
				mockStorage.EXPECT().ListUsers(gomock.Any()).Return(expectedUsers, nil)
				mockStorage.EXPECT().CountUsers(gomock.Any()).Return(int64(0), dbErr)
			},
			expectedErr: dbErr,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockStorage, s := newServiceMocks(t, ctrl)
			tc.setupMocks(mockStorage)

			users, total, err := s.ListUsers(context.Background())

			if tc.expectedErr != nil {
				if !errors.Is(err, tc.expectedErr) {
					t.Errorf("expected error %v, got %v", tc.expectedErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if len(users) != len(tc.expectedUsers) {
				t.Errorf("expected %d users, got %d", len(tc.expectedUsers), len(users))
			}
			if total != tc.expectedTotal {
				t.Errorf("expected total %d, got %d", tc.expectedTotal, total)
			}
		})
	}
}

func TestService_UpdateUserRole(t *testing.T) {
	actor := &types.User{ID: "admin-1", Role: types.RoleAdmin}
	promoted := &types.User{ID: "u-1", Email: "one@example.com", Role: types.RoleAdmin}

	testCases := []struct {
		name         string
		role         types.Role
		setupMocks   func(*MockStorageInterface)
		expectAnyErr bool
		expectedErr  error
	}{
		{
			name: "success",
			role: types.RoleAdmin,
			setupMocks: func(mockStorage *MockStorageInterface) {
				mockStorage.EXPECT().UpdateUserRole(gomock.Any(), "u-1", types.RoleAdmin).Return(promoted, nil)
			},
		},
		{
			name:         "invalid role is rejected before storage",
			role:         types.Role("owner"),
			setupMocks:   func(mockStorage *MockStorageInterface) {},
			expectAnyErr: true,
		},
		{
			name: "unknown user",
			role: types.RoleCustomer,
			setupMocks: func(mockStorage *MockStorageInterface) {
				mockStorage.EXPECT().UpdateUserRole(gomock.Any(), "u-1", types.RoleCustomer).Return(nil, storage.ErrNotFound)
			},
			expectedErr: storage.ErrNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockStorage, s := newServiceMocks(t, ctrl)
			tc.setupMocks(mockStorage)

			updated, err := s.UpdateUserRole(context.Background(), "u-1", tc.role, actor)

			switch {
			case tc.expectAnyErr:
				if err == nil {
					t.Error("expected an error for an invalid role")
				}
			case tc.expectedErr != nil:
				if !errors.Is(err, tc.expectedErr) {
					t.Errorf("expected error %v, got %v", tc.expectedErr, err)
				}
			default:
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if updated.Role != types.RoleAdmin {
					t.Errorf("expected role %q, got %q", types.RoleAdmin, updated.Role)
				}
			}
		})
	}
}
