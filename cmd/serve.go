// Copyright 2026 Chapterly Ltd.
// SPDX-License-Identifier: AGPL-3.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/cobra"

	"github.com/chapterly/catalog-service/internal/authorization"
	"github.com/chapterly/catalog-service/internal/clerk"
	"github.com/chapterly/catalog-service/internal/config"
	"github.com/chapterly/catalog-service/internal/db"
	"github.com/chapterly/catalog-service/internal/logging"
	"github.com/chapterly/catalog-service/internal/monitoring/prometheus"
	"github.com/chapterly/catalog-service/internal/storage"
	"github.com/chapterly/catalog-service/internal/tracing"
	"github.com/chapterly/catalog-service/pkg/authentication"
	"github.com/chapterly/catalog-service/pkg/identity"
	"github.com/chapterly/catalog-service/pkg/users"
	"github.com/chapterly/catalog-service/pkg/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "serve starts the web server",
	Long:  `Launch the web application, list of environment variables is available in the readme`,
	Run: func(cmd *cobra.Command, args []string) {
		main()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve() error {
	specs := new(config.EnvSpec)
	if err := envconfig.Process("", specs); err != nil {
		panic(fmt.Errorf("issues with environment sourcing: %s", err))
	}

	logger := logging.NewLogger(specs.LogLevel)
	logger.Debugf("env vars: %v", specs)
	defer logger.Sync()

	monitor := prometheus.NewMonitor("catalog-service", logger)
	tracer := tracing.NewTracer(tracing.NewConfig(specs.TracingEnabled, specs.OtelGRPCEndpoint, specs.OtelHTTPEndpoint, logger))

	dbConfig := db.Config{
		DSN:             specs.DSN,
		MaxConns:        specs.DBMaxConns,
		MinConns:        specs.DBMinConns,
		MaxConnLifetime: specs.DBMaxConnLifetime,
		MaxConnIdleTime: specs.DBMaxConnIdleTime,
		TracingEnabled:  specs.TracingEnabled,
	}
	dbClient, err := db.NewDBClient(dbConfig, tracer, monitor, logger)
	if err != nil {
		return fmt.Errorf("failed to create database client: %v", err)
	}
	defer dbClient.Close()
	s := storage.NewStorage(dbClient, tracer, monitor, logger)

	keySets := authentication.NewKeySetCache(
		specs.AllowedIssuers,
		specs.JwksURLs,
		specs.KeyFetchTimeout,
		tracer,
		monitor,
		logger,
	)
	var verifier authentication.TokenVerifierInterface = authentication.NewJWTVerifier(keySets, tracer, monitor, logger)
	if specs.Debug {
		logger.Warnf("debug mode enabled, token verification is disabled")
		verifier = authentication.NewNoopVerifier()
	}

	profileClient := clerk.NewClient(
		specs.IdpAPIURL,
		specs.IdpSecretKey,
		specs.IdpProfileTimeout,
		tracer,
		monitor,
		logger,
	)
	resolver := identity.NewResolver(s, profileClient, tracer, monitor, logger)

	authorizer := authorization.NewAuthorizer(tracer, monitor, logger)
	authMiddleware := authentication.NewMiddleware(verifier, resolver, authorizer, tracer, monitor, logger)

	usersAPI := users.NewAPI(
		users.NewService(s, tracer, monitor, logger),
		logger,
	)

	router := web.NewRouter(
		authMiddleware,
		usersAPI,
		dbClient,
		tracer,
		monitor,
		logger,
	)
	logger.Infof("Starting HTTP server on port %v", specs.Port)

	srv := &http.Server{
		Addr:         fmt.Sprintf("0.0.0.0:%v", specs.Port),
		WriteTimeout: time.Second * 60,
		ReadTimeout:  time.Second * 15,
		IdleTimeout:  time.Second * 60,
		Handler:      router,
	}

	var serverError error
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Security().SystemStartup()
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverError = fmt.Errorf("server error: %w", err)
			c <- os.Interrupt
		}
	}()

	<-c

	// Create a deadline to wait for.
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	logger.Security().SystemShutdown()
	if err := srv.Shutdown(ctx); err != nil {
		serverError = fmt.Errorf("server shutdown error: %w", err)
	}

	return serverError
}

func main() {
	if err := serve(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}
