// Copyright 2026 Chapterly Ltd.
// SPDX-License-Identifier: AGPL-3.0

package config

import (
	"time"
)

// EnvSpec is the basic environment configuration setup needed for the app to start
type EnvSpec struct {
	OtelGRPCEndpoint string `envconfig:"otel_grpc_endpoint"`
	OtelHTTPEndpoint string `envconfig:"otel_http_endpoint"`
	TracingEnabled   bool   `envconfig:"tracing_enabled" default:"true"`

	LogLevel string `envconfig:"log_level" default:"error"`
	Debug    bool   `envconfig:"debug" default:"false"`

	Port int `envconfig:"port" default:"8080"`

	DSN string `envconfig:"DSN" required:"true"`

	DBMaxConns        int32         `envconfig:"db_max_conns" default:"25"`
	DBMinConns        int32         `envconfig:"db_min_conns" default:"2"`
	DBMaxConnLifetime time.Duration `envconfig:"db_max_conn_lifetime" default:"1h"`
	DBMaxConnIdleTime time.Duration `envconfig:"db_max_conn_idle_time" default:"30m"`

	// AllowedIssuers is the closed set of token issuers this service trusts.
	// A bearer token naming any other issuer is rejected before key resolution.
	AllowedIssuers []string `envconfig:"allowed_issuers" required:"true"`
	// JwksURLs maps an issuer to a manual JWKS URL, overriding the
	// <issuer>/.well-known/jwks.json convention for that issuer.
	JwksURLs        map[string]string `envconfig:"jwks_urls"`
	KeyFetchTimeout time.Duration     `envconfig:"key_fetch_timeout" default:"10s"`

	IdpAPIURL         string        `envconfig:"idp_api_url" default:"https://api.clerk.com/v1"`
	IdpSecretKey      string        `envconfig:"idp_secret_key" required:"true"`
	IdpProfileTimeout time.Duration `envconfig:"idp_profile_timeout" default:"5s"`
}
