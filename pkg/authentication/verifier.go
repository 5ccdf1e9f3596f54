// Copyright 2026 Chapterly Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authentication

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"

	"github.com/chapterly/catalog-service/internal/logging"
	"github.com/chapterly/catalog-service/internal/monitoring"
	"github.com/chapterly/catalog-service/internal/tracing"
)

// Tokens must be signed with an asymmetric scheme; HMAC and "none" are
// rejected before key resolution so a forged token can never downgrade the
// verification to a symmetric check.
var allowedSigningAlgs = []string{
	oidc.RS256, oidc.RS384, oidc.RS512,
	oidc.PS256, oidc.PS384, oidc.PS512,
	oidc.ES256, oidc.ES384, oidc.ES512,
	oidc.EdDSA,
}

// Claims is the verified, decoded assertion set carried by a token.
type Claims struct {
	Issuer    string
	Subject   string
	Expiry    time.Time
	IssuedAt  time.Time
	NotBefore time.Time
}

var _ TokenVerifierInterface = (*JWTVerifier)(nil)

type JWTVerifier struct {
	keysets KeySetProviderInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func NewJWTVerifier(
	keysets KeySetProviderInterface,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) *JWTVerifier {
	return &JWTVerifier{
		keysets: keysets,
		tracer:  tracer,
		monitor: monitor,
		logger:  logger,
	}
}

// VerifyToken runs the two-step decode: an unverified structural parse to
// locate the issuer and signing scheme, then the verified decode against the
// issuer's cached key-set. Every failure mode resolves to a taxonomy error.
func (v *JWTVerifier) VerifyToken(ctx context.Context, rawToken string) (*Claims, error) {
	ctx, span := v.tracer.Start(ctx, "authentication.JWTVerifier.VerifyToken")
	defer span.End()

	// Step 1: parse header and payload without verifying the signature.
	unverified, _, err := jwt.NewParser().ParseUnverified(rawToken, jwt.MapClaims{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if alg := unverified.Method.Alg(); !slices.Contains(allowedSigningAlgs, alg) {
		return nil, fmt.Errorf("%w: signing algorithm %q not allowed", ErrInvalidToken, alg)
	}

	issuer, err := unverified.Claims.GetIssuer()
	if err != nil || issuer == "" {
		return nil, fmt.Errorf("%w: token carries no issuer", ErrUnknownIssuer)
	}

	// Step 2: targeted key resolution via the per-issuer key-set cache.
	verifier, err := v.keysets.VerifierFor(ctx, issuer)
	if err != nil {
		return nil, err
	}

	// Step 3: verified decode. Never skip this even though the payload was
	// already parsed above.
	idToken, err := verifier.Verify(ctx, rawToken)
	if err != nil {
		return nil, v.classify(err)
	}

	claims, err := extractClaims(idToken)
	if err != nil {
		return nil, err
	}

	// go-oidc enforces exp; nbf and future iat are re-checked here with zero
	// grace beyond what the claims encode.
	now := time.Now()
	if !claims.NotBefore.IsZero() && now.Before(claims.NotBefore) {
		return nil, fmt.Errorf("%w: nbf is %s", ErrTokenNotYetValid, claims.NotBefore)
	}
	if !claims.IssuedAt.IsZero() && now.Before(claims.IssuedAt) {
		return nil, fmt.Errorf("%w: iat is %s", ErrTokenNotYetValid, claims.IssuedAt)
	}

	return claims, nil
}

// classify maps a go-oidc verification error onto the taxonomy. Remote
// key-set failures are authentication failures, never server faults.
func (v *JWTVerifier) classify(err error) error {
	var expired *oidc.TokenExpiredError
	if errors.As(err, &expired) {
		return fmt.Errorf("%w: %v", ErrTokenExpired, err)
	}

	// go-oidc folds key-set fetch failures into the verification error; the
	// "fetching keys" marker is the only way to tell a network failure from a
	// signature mismatch. Both stay internal diagnostics.
	if strings.Contains(err.Error(), "fetching keys") {
		if merr := v.monitor.SetDependencyAvailability(map[string]string{"component": "jwks"}, 0); merr != nil {
			v.logger.Errorf("failed to set dependency availability metric: %v", merr)
		}
		return fmt.Errorf("%w: %v", ErrKeyResolution, err)
	}

	return fmt.Errorf("%w: %v", ErrInvalidToken, err)
}

func extractClaims(idToken *oidc.IDToken) (*Claims, error) {
	var temporal struct {
		NotBefore *int64 `json:"nbf"`
	}
	if err := idToken.Claims(&temporal); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims := &Claims{
		Issuer:   idToken.Issuer,
		Subject:  idToken.Subject,
		Expiry:   idToken.Expiry,
		IssuedAt: idToken.IssuedAt,
	}
	if temporal.NotBefore != nil {
		claims.NotBefore = time.Unix(*temporal.NotBefore, 0)
	}

	return claims, nil
}
