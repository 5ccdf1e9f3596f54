// Copyright 2026 Chapterly Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authentication

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/mock/gomock"

	"github.com/chapterly/catalog-service/internal/authorization"
	"github.com/chapterly/catalog-service/internal/types"
)

//go:generate mockgen -build_flags=--mod=mod -package authentication -destination ./mock_logger.go -source=../../internal/logging/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package authentication -destination ./mock_monitor.go -source=../../internal/monitoring/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package authentication -destination ./mock_tracer.go -source=../../internal/tracing/interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package authentication -destination ./mock_verifier.go -source=./interfaces.go
//go:generate mockgen -build_flags=--mod=mod -package authentication -destination ./mock_authorizer.go -source=../../internal/authorization/interfaces.go

func TestMiddleware_RequireUser(t *testing.T) {
	resolvedUser := &types.User{ID: "u-1", ExternalID: "user_abc", Role: types.RoleCustomer}

	tests := []struct {
		name               string
		authHeader         string
		setupMocks         func(*MockTokenVerifierInterface, *MockIdentityResolverInterface, *MockSecurityLoggerInterface)
		expectedStatusCode int
		expectedMessage    string
	}{
		{
			name:       "missing header - rejects request",
			authHeader: "",
			setupMocks: func(mockVerifier *MockTokenVerifierInterface, mockResolver *MockIdentityResolverInterface, mockSecurity *MockSecurityLoggerInterface) {
			},
			expectedStatusCode: http.StatusUnauthorized,
			expectedMessage:    "missing authorization header",
		},
		{
			name:       "non-bearer scheme - rejects request",
			authHeader: "Basic dXNlcjpwYXNz",
			setupMocks: func(mockVerifier *MockTokenVerifierInterface, mockResolver *MockIdentityResolverInterface, mockSecurity *MockSecurityLoggerInterface) {
			},
			expectedStatusCode: http.StatusUnauthorized,
			expectedMessage:    "missing authorization header",
		},
		{
			name:       "verification fails - rejects request",
			authHeader: "Bearer bad-token",
			setupMocks: func(mockVerifier *MockTokenVerifierInterface, mockResolver *MockIdentityResolverInterface, mockSecurity *MockSecurityLoggerInterface) {
				mockVerifier.EXPECT().VerifyToken(gomock.Any(), "bad-token").Return(nil, ErrTokenExpired)
				mockSecurity.EXPECT().AuthnFailure("", "token_expired")
			},
			expectedStatusCode: http.StatusUnauthorized,
			expectedMessage:    "invalid token",
		},
		{
			name:       "resolution fails - rejects request",
			authHeader: "Bearer good-token",
			setupMocks: func(mockVerifier *MockTokenVerifierInterface, mockResolver *MockIdentityResolverInterface, mockSecurity *MockSecurityLoggerInterface) {
				mockVerifier.EXPECT().VerifyToken(gomock.Any(), "good-token").Return(&Claims{Subject: "user_abc"}, nil)
				mockResolver.EXPECT().Resolve(gomock.Any(), gomock.Any()).Return(nil, ErrProfileUnavailable)
				mockSecurity.EXPECT().AuthnFailure("user_abc", "profile_unavailable")
			},
			expectedStatusCode: http.StatusUnauthorized,
			expectedMessage:    "invalid token",
		},
		{
			name:       "valid token - resolved user injected",
			authHeader: "Bearer good-token",
			setupMocks: func(mockVerifier *MockTokenVerifierInterface, mockResolver *MockIdentityResolverInterface, mockSecurity *MockSecurityLoggerInterface) {
				mockVerifier.EXPECT().VerifyToken(gomock.Any(), "good-token").Return(&Claims{Subject: "user_abc"}, nil)
				mockResolver.EXPECT().Resolve(gomock.Any(), gomock.Any()).Return(resolvedUser, nil)
				mockSecurity.EXPECT().AuthnSuccess("user_abc")
			},
			expectedStatusCode: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockTracer := NewMockTracingInterface(ctrl)
			mockMonitor := NewMockMonitorInterface(ctrl)
			mockLogger := NewMockLoggerInterface(ctrl)
			mockSecurity := NewMockSecurityLoggerInterface(ctrl)
			mockVerifier := NewMockTokenVerifierInterface(ctrl)
			mockResolver := NewMockIdentityResolverInterface(ctrl)
			mockAuthorizer := NewMockAuthorizerInterface(ctrl)

			ctx := context.Background()
			mockTracer.EXPECT().Start(gomock.Any(), "authentication.Middleware.RequireUser").Return(ctx, trace.SpanFromContext(ctx))
			mockLogger.EXPECT().Debugf(gomock.Any(), gomock.Any()).AnyTimes()
			mockLogger.EXPECT().Security().Return(mockSecurity).AnyTimes()

			tt.setupMocks(mockVerifier, mockResolver, mockSecurity)

			middleware := NewMiddleware(mockVerifier, mockResolver, mockAuthorizer, mockTracer, mockMonitor, mockLogger)

			var userInContext *types.User
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				userInContext, _ = UserFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rr := httptest.NewRecorder()

			middleware.RequireUser()(handler).ServeHTTP(rr, req)

			if rr.Code != tt.expectedStatusCode {
				t.Errorf("expected status %d, got %d", tt.expectedStatusCode, rr.Code)
			}

			if tt.expectedMessage != "" && !strings.Contains(rr.Body.String(), tt.expectedMessage) {
				t.Errorf("expected body to contain %q, got %q", tt.expectedMessage, rr.Body.String())
			}

			if tt.expectedStatusCode == http.StatusOK && userInContext != resolvedUser {
				t.Errorf("expected resolved user in request context, got %v", userInContext)
			}
		})
	}
}

func TestMiddleware_RequireAdmin(t *testing.T) {
	tests := []struct {
		name               string
		user               *types.User
		setupMocks         func(*MockAuthorizerInterface, *types.User)
		expectedStatusCode int
	}{
		{
			name: "no authenticated user - 401",
			user: nil,
			setupMocks: func(mockAuthorizer *MockAuthorizerInterface, user *types.User) {
			},
			expectedStatusCode: http.StatusUnauthorized,
		},
		{
			name: "customer - 403",
			user: &types.User{ID: "u-1", Role: types.RoleCustomer},
			setupMocks: func(mockAuthorizer *MockAuthorizerInterface, user *types.User) {
				mockAuthorizer.EXPECT().CheckAdmin(gomock.Any(), user).Return(authorization.ErrForbidden)
			},
			expectedStatusCode: http.StatusForbidden,
		},
		{
			name: "admin - passes through",
			user: &types.User{ID: "u-2", Role: types.RoleAdmin},
			setupMocks: func(mockAuthorizer *MockAuthorizerInterface, user *types.User) {
				mockAuthorizer.EXPECT().CheckAdmin(gomock.Any(), user).Return(nil)
			},
			expectedStatusCode: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockTracer := NewMockTracingInterface(ctrl)
			mockMonitor := NewMockMonitorInterface(ctrl)
			mockLogger := NewMockLoggerInterface(ctrl)
			mockVerifier := NewMockTokenVerifierInterface(ctrl)
			mockResolver := NewMockIdentityResolverInterface(ctrl)
			mockAuthorizer := NewMockAuthorizerInterface(ctrl)

			ctx := context.Background()
			if tt.user != nil {
				ctx = WithUser(ctx, tt.user)
			}
			mockTracer.EXPECT().Start(gomock.Any(), "authentication.Middleware.RequireAdmin").Return(ctx, trace.SpanFromContext(ctx))

			tt.setupMocks(mockAuthorizer, tt.user)

			middleware := NewMiddleware(mockVerifier, mockResolver, mockAuthorizer, mockTracer, mockMonitor, mockLogger)

			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/test", nil).WithContext(ctx)
			rr := httptest.NewRecorder()

			middleware.RequireAdmin()(handler).ServeHTTP(rr, req)

			if rr.Code != tt.expectedStatusCode {
				t.Errorf("expected status %d, got %d", tt.expectedStatusCode, rr.Code)
			}
		})
	}
}

func TestMiddleware_GetBearerToken(t *testing.T) {
	tests := []struct {
		name          string
		authHeader    string
		expectedToken string
		expectedFound bool
	}{
		{
			name:          "no Authorization header",
			authHeader:    "",
			expectedToken: "",
			expectedFound: false,
		},
		{
			name:          "bearer token",
			authHeader:    "Bearer my-token-123",
			expectedToken: "my-token-123",
			expectedFound: true,
		},
		{
			name:          "raw token without Bearer prefix",
			authHeader:    "my-token-123",
			expectedToken: "",
			expectedFound: false,
		},
		{
			name:          "lowercase scheme is rejected",
			authHeader:    "bearer my-token-123",
			expectedToken: "",
			expectedFound: false,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockTracer := NewMockTracingInterface(ctrl)
			mockMonitor := NewMockMonitorInterface(ctrl)
			mockLogger := NewMockLoggerInterface(ctrl)
			mockVerifier := NewMockTokenVerifierInterface(ctrl)
			mockResolver := NewMockIdentityResolverInterface(ctrl)
			mockAuthorizer := NewMockAuthorizerInterface(ctrl)

			middleware := NewMiddleware(mockVerifier, mockResolver, mockAuthorizer, mockTracer, mockMonitor, mockLogger)

			headers := http.Header{}
			if test.authHeader != "" {
				headers.Set("Authorization", test.authHeader)
			}

			token, found := middleware.getBearerToken(headers)

			if token != test.expectedToken {
				t.Errorf("expected token %q, got %q", test.expectedToken, token)
			}
			if found != test.expectedFound {
				t.Errorf("expected found %v, got %v", test.expectedFound, found)
			}
		})
	}
}
