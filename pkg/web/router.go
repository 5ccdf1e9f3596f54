// Copyright 2026 Chapterly Ltd.
// SPDX-License-Identifier: AGPL-3.0

package web

import (
	"net/http"

	chi "github.com/go-chi/chi/v5"
	middleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/chapterly/catalog-service/internal/db"
	"github.com/chapterly/catalog-service/internal/logging"
	"github.com/chapterly/catalog-service/internal/monitoring"
	"github.com/chapterly/catalog-service/internal/tracing"
	"github.com/chapterly/catalog-service/pkg/authentication"
	"github.com/chapterly/catalog-service/pkg/metrics"
	"github.com/chapterly/catalog-service/pkg/status"
	"github.com/chapterly/catalog-service/pkg/users"
)

func NewRouter(
	authMiddleware *authentication.Middleware,
	usersAPI *users.API,
	dbClient db.DBClientInterface,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) http.Handler {
	router := chi.NewMux()

	middlewares := make(chi.Middlewares, 0)
	middlewares = append(
		middlewares,
		middleware.RequestID,
		monitoring.NewMiddleware(monitor, logger).ResponseTime(),
		middlewareCORS([]string{"*"}),
	)

	router.Use(middlewares...)

	metrics.NewAPI(logger).RegisterEndpoints(router)
	status.NewAPI(tracer, monitor, logger).RegisterEndpoints(router)

	// Authenticated surface; mutations run inside a lazy per-request
	// transaction so provisioning and role updates commit or roll back as a
	// unit.
	router.Group(func(r chi.Router) {
		r.Use(db.TransactionMiddleware(dbClient, logger))
		r.Use(authMiddleware.RequireUser())

		usersAPI.RegisterEndpoints(r)

		r.Group(func(admin chi.Router) {
			admin.Use(authMiddleware.RequireAdmin())
			usersAPI.RegisterAdminEndpoints(admin)
		})
	})

	return tracing.NewMiddleware(monitor, logger).OpenTelemetry(router)
}

func middlewareCORS(origins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	})
}
