// Copyright 2026 Chapterly Ltd.
// SPDX-License-Identifier: AGPL-3.0

package metrics

import (
	chi "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/chapterly/catalog-service/internal/logging"
)

type API struct {
	logger logging.LoggerInterface
}

func NewAPI(logger logging.LoggerInterface) *API {
	return &API{logger: logger}
}

func (a *API) RegisterEndpoints(mux chi.Router) {
	mux.Get("/api/v1/metrics", promhttp.Handler().ServeHTTP)
}
