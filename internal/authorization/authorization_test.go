// Copyright 2026 Chapterly Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authorization

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/mock/gomock"

	"github.com/chapterly/catalog-service/internal/types"
)

//go:generate mockgen -build_flags=--mod=mod -package authorization -destination ./mock_logger.go -source=../logging/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package authorization -destination ./mock_monitor.go -source=../monitoring/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package authorization -destination ./mock_tracing.go -source=../tracing/interfaces.go

func TestAuthorizer_Check(t *testing.T) {
	testCases := []struct {
		name     string
		user     *types.User
		required types.Role
		allowed  bool
	}{
		{
			name:     "customer can act as customer",
			user:     &types.User{Role: types.RoleCustomer},
			required: types.RoleCustomer,
			allowed:  true,
		},
		{
			name:     "customer cannot act as admin",
			user:     &types.User{Role: types.RoleCustomer},
			required: types.RoleAdmin,
			allowed:  false,
		},
		{
			name:     "admin can act as customer",
			user:     &types.User{Role: types.RoleAdmin},
			required: types.RoleCustomer,
			allowed:  true,
		},
		{
			name:     "admin can act as admin",
			user:     &types.User{Role: types.RoleAdmin},
			required: types.RoleAdmin,
			allowed:  true,
		},
		{
			name:     "admin cannot act as super_admin",
			user:     &types.User{Role: types.RoleAdmin},
			required: types.RoleSuperAdmin,
			allowed:  false,
		},
		{
			name:     "super_admin can act as admin",
			user:     &types.User{Role: types.RoleSuperAdmin},
			required: types.RoleAdmin,
			allowed:  true,
		},
		{
			name:     "unknown role is never sufficient",
			user:     &types.User{Role: types.Role("owner")},
			required: types.RoleCustomer,
			allowed:  false,
		},
		{
			name:     "nil user is rejected",
			user:     nil,
			required: types.RoleCustomer,
			allowed:  false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockTracer := NewMockTracingInterface(ctrl)
			mockMonitor := NewMockMonitorInterface(ctrl)
			mockLogger := NewMockLoggerInterface(ctrl)

			ctx := context.Background()
			mockTracer.EXPECT().Start(gomock.Any(), "authorization.Authorizer.Check").Return(ctx, trace.SpanFromContext(ctx))

			a := NewAuthorizer(mockTracer, mockMonitor, mockLogger)

			err := a.Check(ctx, tc.user, tc.required)

			if tc.allowed && err != nil {
				t.Errorf("expected access, got %v", err)
			}
			if !tc.allowed && !errors.Is(err, ErrForbidden) {
				t.Errorf("expected ErrForbidden, got %v", err)
			}
		})
	}
}

func TestAuthorizer_CheckAdmin(t *testing.T) {
	testCases := []struct {
		name       string
		user       *types.User
		allowed    bool
		setupMocks func(*MockLoggerInterface, *MockSecurityLoggerInterface)
	}{
		{
			name:    "admin passes",
			user:    &types.User{ExternalID: "user_1", Role: types.RoleAdmin},
			allowed: true,
			setupMocks: func(mockLogger *MockLoggerInterface, mockSecurity *MockSecurityLoggerInterface) {
			},
		},
		{
			name:    "super_admin passes",
			user:    &types.User{ExternalID: "user_2", Role: types.RoleSuperAdmin},
			allowed: true,
			setupMocks: func(mockLogger *MockLoggerInterface, mockSecurity *MockSecurityLoggerInterface) {
			},
		},
		{
			name:    "customer is denied and audited",
			user:    &types.User{ExternalID: "user_3", Role: types.RoleCustomer},
			allowed: false,
			setupMocks: func(mockLogger *MockLoggerInterface, mockSecurity *MockSecurityLoggerInterface) {
				mockLogger.EXPECT().Security().Return(mockSecurity)
				mockSecurity.EXPECT().AuthzFailure("user_3", "admin_access")
			},
		},
		{
			name:    "nil user is denied and audited without a subject",
			user:    nil,
			allowed: false,
			setupMocks: func(mockLogger *MockLoggerInterface, mockSecurity *MockSecurityLoggerInterface) {
				mockLogger.EXPECT().Security().Return(mockSecurity)
				mockSecurity.EXPECT().AuthzFailure("", "admin_access")
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockTracer := NewMockTracingInterface(ctrl)
			mockMonitor := NewMockMonitorInterface(ctrl)
			mockLogger := NewMockLoggerInterface(ctrl)
			mockSecurity := NewMockSecurityLoggerInterface(ctrl)

			ctx := context.Background()
			mockTracer.EXPECT().Start(gomock.Any(), gomock.Any()).Return(ctx, trace.SpanFromContext(ctx)).Times(2)
			tc.setupMocks(mockLogger, mockSecurity)

			a := NewAuthorizer(mockTracer, mockMonitor, mockLogger)

			err := a.CheckAdmin(ctx, tc.user)

			if tc.allowed && err != nil {
				t.Errorf("expected access, got %v", err)
			}
			if !tc.allowed && !errors.Is(err, ErrForbidden) {
				t.Errorf("expected ErrForbidden, got %v", err)
			}
		})
	}
}
