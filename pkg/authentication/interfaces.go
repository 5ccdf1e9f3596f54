// Copyright 2026 Chapterly Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authentication

import (
	"context"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/chapterly/catalog-service/internal/types"
)

type KeySetProviderInterface interface {
	// VerifierFor returns the token verifier bound to the given issuer's
	// published key-set, constructing it on first use
	VerifierFor(ctx context.Context, issuer string) (*oidc.IDTokenVerifier, error)
}

type TokenVerifierInterface interface {
	// VerifyToken verifies a raw JWT string structurally, cryptographically
	// and temporally. Returns the verified claims, otherwise a taxonomy error
	VerifyToken(ctx context.Context, rawToken string) (*Claims, error)
}

type IdentityResolverInterface interface {
	// Resolve maps verified claims to a local user record, provisioning one
	// on first sight
	Resolve(ctx context.Context, claims *Claims) (*types.User, error)
}
