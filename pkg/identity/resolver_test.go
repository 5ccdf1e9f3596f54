// Copyright 2026 Chapterly Ltd.
// SPDX-License-Identifier: AGPL-3.0

package identity

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/mock/gomock"

	"github.com/chapterly/catalog-service/internal/clerk"
	"github.com/chapterly/catalog-service/internal/storage"
	"github.com/chapterly/catalog-service/internal/types"
	"github.com/chapterly/catalog-service/pkg/authentication"
)

//go:generate mockgen -build_flags=--mod=mod -package identity -destination ./mock_interfaces.go -source=./interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package identity -destination ./mock_logger.go -source=../../internal/logging/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package identity -destination ./mock_monitor.go -source=../../internal/monitoring/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package identity -destination ./mock_tracer.go -source=../../internal/tracing/interfaces.go

func strPtr(s string) *string {
	return &s
}

func TestResolver_Resolve(t *testing.T) {
	subject := "user_2abc"
	existingUser := &types.User{ID: "u-1", ExternalID: subject, Email: "reader@example.com", Role: types.RoleCustomer}
	profile := &clerk.Profile{
		ID:        subject,
		FirstName: strPtr("Pat"),
		LastName:  strPtr("Reader"),
		ImageURL:  strPtr("https://img.example.com/pat.png"),
		EmailAddresses: []clerk.EmailAddress{
			{ID: "idn_1", EmailAddress: "pat@example.com"},
		},
	}
	dbErr := errors.New("connection reset")

	testCases := []struct {
		name         string
		claims       *authentication.Claims
		setupMocks   func(*MockStorageInterface, *MockProviderClientInterface)
		expectedUser *types.User
		expectedErr  error
	}{
		{
			name:   "existing user is returned as-is",
			claims: &authentication.Claims{Subject: subject},
			setupMocks: func(mockStorage *MockStorageInterface, mockProfiles *MockProviderClientInterface) {
				mockStorage.EXPECT().GetUserByExternalID(gomock.Any(), subject).Return(existingUser, nil)
			},
			expectedUser: existingUser,
		},
		{
			name:        "nil claims",
			claims:      nil,
			setupMocks:  func(mockStorage *MockStorageInterface, mockProfiles *MockProviderClientInterface) {},
			expectedErr: authentication.ErrMissingSubject,
		},
		{
			name:        "empty subject",
			claims:      &authentication.Claims{Subject: ""},
			setupMocks:  func(mockStorage *MockStorageInterface, mockProfiles *MockProviderClientInterface) {},
			expectedErr: authentication.ErrMissingSubject,
		},
		{
			name:   "lookup error is propagated",
			claims: &authentication.Claims{Subject: subject},
			setupMocks: func(mockStorage *MockStorageInterface, mockProfiles *MockProviderClientInterface) {
				mockStorage.EXPECT().GetUserByExternalID(gomock.Any(), subject).Return(nil, dbErr)
			},
			expectedErr: dbErr,
		},
		{
			name:   "first sight provisions from the provider profile",
			claims: &authentication.Claims{Subject: subject},
			setupMocks: func(mockStorage *MockStorageInterface, mockProfiles *MockProviderClientInterface) {
				mockStorage.EXPECT().GetUserByExternalID(gomock.Any(), subject).Return(nil, storage.ErrNotFound)
				mockProfiles.EXPECT().GetUser(gomock.Any(), subject).Return(profile, nil)
				mockStorage.EXPECT().CreateUser(gomock.Any(), gomock.Any()).DoAndReturn(
					func(ctx context.Context, u *types.User) (*types.User, error) {
						if u.ExternalID != subject {
							t.Errorf("expected external ID %q, got %q", subject, u.ExternalID)
						}
						if u.Email != "pat@example.com" {
							t.Errorf("expected email from profile, got %q", u.Email)
						}
						if u.FirstName == nil || *u.FirstName != "Pat" {
							t.Errorf("expected first name from profile, got %v", u.FirstName)
						}
						if u.CreatedBy != nil {
							t.Errorf("expected no provisioning actor, got %v", *u.CreatedBy)
						}
						created := *u
						created.ID = "u-new"
						created.Role = types.RoleCustomer
						return &created, nil
					},
				)
			},
			expectedUser: &types.User{ID: "u-new", ExternalID: subject, Email: "pat@example.com", Role: types.RoleCustomer},
		},
		{
			name:   "profile endpoint failure blocks provisioning",
			claims: &authentication.Claims{Subject: subject},
			setupMocks: func(mockStorage *MockStorageInterface, mockProfiles *MockProviderClientInterface) {
				mockStorage.EXPECT().GetUserByExternalID(gomock.Any(), subject).Return(nil, storage.ErrNotFound)
				mockProfiles.EXPECT().GetUser(gomock.Any(), subject).Return(nil, errors.New("status 503"))
			},
			expectedErr: authentication.ErrProfileUnavailable,
		},
		{
			name:   "losing a concurrent insert re-reads the winner",
			claims: &authentication.Claims{Subject: subject},
			setupMocks: func(mockStorage *MockStorageInterface, mockProfiles *MockProviderClientInterface) {
				gomock.InOrder(
					mockStorage.EXPECT().GetUserByExternalID(gomock.Any(), subject).Return(nil, storage.ErrNotFound),
					mockProfiles.EXPECT().GetUser(gomock.Any(), subject).Return(profile, nil),
					mockStorage.EXPECT().CreateUser(gomock.Any(), gomock.Any()).Return(nil, storage.ErrDuplicateKey),
					mockStorage.EXPECT().GetUserByExternalID(gomock.Any(), subject).Return(existingUser, nil),
				)
			},
			expectedUser: existingUser,
		},
		{
			name:   "insert failure is propagated",
			claims: &authentication.Claims{Subject: subject},
			setupMocks: func(mockStorage *MockStorageInterface, mockProfiles *MockProviderClientInterface) {
				mockStorage.EXPECT().GetUserByExternalID(gomock.Any(), subject).Return(nil, storage.ErrNotFound)
				mockProfiles.EXPECT().GetUser(gomock.Any(), subject).Return(profile, nil)
				mockStorage.EXPECT().CreateUser(gomock.Any(), gomock.Any()).Return(nil, dbErr)
			},
			expectedErr: dbErr,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockStorage := NewMockStorageInterface(ctrl)
			mockProfiles := NewMockProviderClientInterface(ctrl)
			mockTracer := NewMockTracingInterface(ctrl)
			mockMonitor := NewMockMonitorInterface(ctrl)
			mockLogger := NewMockLoggerInterface(ctrl)

			mockTracer.EXPECT().Start(gomock.Any(), gomock.Any()).DoAndReturn(
				func(ctx context.Context, name string) (context.Context, trace.Span) {
					return ctx, trace.SpanFromContext(ctx)
				},
			).AnyTimes()
			mockLogger.EXPECT().Infof(gomock.Any(), gomock.Any()).AnyTimes()
			mockLogger.EXPECT().Errorf(gomock.Any(), gomock.Any()).AnyTimes()

			tc.setupMocks(mockStorage, mockProfiles)

			r := NewResolver(mockStorage, mockProfiles, mockTracer, mockMonitor, mockLogger)

			user, err := r.Resolve(context.Background(), tc.claims)

			if tc.expectedErr != nil {
				if !errors.Is(err, tc.expectedErr) {
					t.Errorf("expected error %v, got %v", tc.expectedErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if user.ID != tc.expectedUser.ID {
				t.Errorf("expected user ID %q, got %q", tc.expectedUser.ID, user.ID)
			}
			if user.ExternalID != tc.expectedUser.ExternalID {
				t.Errorf("expected external ID %q, got %q", tc.expectedUser.ExternalID, user.ExternalID)
			}
			if user.Role != tc.expectedUser.Role {
				t.Errorf("expected role %q, got %q", tc.expectedUser.Role, user.Role)
			}
		})
	}
}
