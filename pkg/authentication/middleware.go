// Copyright 2026 Chapterly Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authentication

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/chapterly/catalog-service/internal/authorization"
	"github.com/chapterly/catalog-service/internal/logging"
	"github.com/chapterly/catalog-service/internal/monitoring"
	"github.com/chapterly/catalog-service/internal/tracing"
)

type Middleware struct {
	verifier   TokenVerifierInterface
	resolver   IdentityResolverInterface
	authorizer authorization.AuthorizerInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

// RequireUser authenticates the caller: bearer extraction, token
// verification, identity resolution. Every failure collapses to a single 401
// response; the internal failure kind is kept for logs only.
func (m *Middleware) RequireUser() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := m.tracer.Start(r.Context(), "authentication.Middleware.RequireUser")
			defer span.End()

			token, found := m.getBearerToken(r.Header)
			if !found {
				m.unauthorizedResponse(w, "missing authorization header")
				return
			}

			claims, err := m.verifier.VerifyToken(ctx, token)
			if err != nil {
				m.logger.Debugf("token verification failed: %v", err)
				m.logger.Security().AuthnFailure("", Kind(err))
				m.unauthorizedResponse(w, "invalid token")
				return
			}

			user, err := m.resolver.Resolve(ctx, claims)
			if err != nil {
				m.logger.Debugf("identity resolution failed for subject %s: %v", claims.Subject, err)
				m.logger.Security().AuthnFailure(claims.Subject, Kind(err))
				m.unauthorizedResponse(w, "invalid token")
				return
			}

			m.logger.Security().AuthnSuccess(user.ExternalID)
			ctx = WithUser(ctx, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin gates a route to admin-tier users. It expects RequireUser to
// have run; a valid but under-privileged caller gets 403, distinct from 401.
func (m *Middleware) RequireAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := m.tracer.Start(r.Context(), "authentication.Middleware.RequireAdmin")
			defer span.End()

			user, ok := UserFromContext(ctx)
			if !ok {
				m.unauthorizedResponse(w, "missing authorization header")
				return
			}

			if err := m.authorizer.CheckAdmin(ctx, user); err != nil {
				m.forbiddenResponse(w, "admin access required")
				return
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (m *Middleware) getBearerToken(headers http.Header) (string, bool) {
	bearer := headers.Get("Authorization")
	if bearer == "" {
		return "", false
	}

	// Only support "Bearer <token>" format (RFC 6750)
	if !strings.HasPrefix(bearer, "Bearer ") {
		return "", false
	}

	return strings.TrimPrefix(bearer, "Bearer "), true
}

func (m *Middleware) unauthorizedResponse(w http.ResponseWriter, message string) {
	m.errorResponse(w, http.StatusUnauthorized, message)
}

func (m *Middleware) forbiddenResponse(w http.ResponseWriter, message string) {
	m.errorResponse(w, http.StatusForbidden, message)
}

func (m *Middleware) errorResponse(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  status,
		"message": message,
	}); err != nil {
		m.logger.Errorf("failed to encode error response: %v", err)
	}
}

func NewMiddleware(
	verifier TokenVerifierInterface,
	resolver IdentityResolverInterface,
	authorizer authorization.AuthorizerInterface,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) *Middleware {
	return &Middleware{
		verifier:   verifier,
		resolver:   resolver,
		authorizer: authorizer,
		tracer:     tracer,
		monitor:    monitor,
		logger:     logger,
	}
}
