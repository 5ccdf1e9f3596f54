// Copyright 2026 Chapterly Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authentication

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/singleflight"

	"github.com/chapterly/catalog-service/internal/logging"
	"github.com/chapterly/catalog-service/internal/monitoring"
	"github.com/chapterly/catalog-service/internal/tracing"
)

const wellKnownJWKSPath = "/.well-known/jwks.json"

var _ KeySetProviderInterface = (*KeySetCache)(nil)

// KeySetCache holds one lazily constructed key-set verifier per allowed
// issuer. Handles live for the process lifetime; the remote key-set refetches
// itself once when asked for a key-id it has never seen.
type KeySetCache struct {
	allowedIssuers []string
	jwksOverrides  map[string]string
	client         *http.Client

	mu        sync.RWMutex
	verifiers map[string]*oidc.IDTokenVerifier
	group     singleflight.Group

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func NewKeySetCache(
	allowedIssuers []string,
	jwksOverrides map[string]string,
	fetchTimeout time.Duration,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) *KeySetCache {
	return &KeySetCache{
		allowedIssuers: allowedIssuers,
		jwksOverrides:  jwksOverrides,
		client: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   fetchTimeout,
		},
		verifiers: make(map[string]*oidc.IDTokenVerifier),
		tracer:    tracer,
		monitor:   monitor,
		logger:    logger,
	}
}

// VerifierFor returns the verifier for the issuer, constructing it at most
// once even under concurrent first use. Issuers outside the allow-list are
// rejected without touching the network.
func (c *KeySetCache) VerifierFor(ctx context.Context, issuer string) (*oidc.IDTokenVerifier, error) {
	_, span := c.tracer.Start(ctx, "authentication.KeySetCache.VerifierFor")
	defer span.End()

	if !slices.Contains(c.allowedIssuers, issuer) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownIssuer, issuer)
	}

	c.mu.RLock()
	verifier, ok := c.verifiers[issuer]
	c.mu.RUnlock()
	if ok {
		return verifier, nil
	}

	v, err, _ := c.group.Do(issuer, func() (interface{}, error) {
		c.mu.RLock()
		verifier, ok := c.verifiers[issuer]
		c.mu.RUnlock()
		if ok {
			return verifier, nil
		}

		// The key-set keeps fetching over the process lifetime, so it is
		// bound to a background context carrying the timed HTTP client, not
		// to the first caller's request context.
		keyCtx := oidc.ClientContext(context.Background(), c.client)
		keySet := oidc.NewRemoteKeySet(keyCtx, c.jwksURL(issuer))
		verifier = oidc.NewVerifier(issuer, keySet, &oidc.Config{
			SupportedSigningAlgs: allowedSigningAlgs,
			SkipClientIDCheck:    true,
			SkipIssuerCheck:      false,
		})

		c.mu.Lock()
		c.verifiers[issuer] = verifier
		c.mu.Unlock()

		c.logger.Infof("constructed key-set verifier for issuer %s", issuer)
		return verifier, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*oidc.IDTokenVerifier), nil
}

func (c *KeySetCache) jwksURL(issuer string) string {
	if u, ok := c.jwksOverrides[issuer]; ok && u != "" {
		return u
	}
	return strings.TrimSuffix(issuer, "/") + wellKnownJWKSPath
}
