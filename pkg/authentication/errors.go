// Copyright 2026 Chapterly Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authentication

import (
	"errors"
)

// Failure taxonomy for a single authorization check. Every kind below
// collapses to a 401 at the HTTP boundary; the distinction exists for
// diagnostics only.
var (
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenNotYetValid   = errors.New("token not yet valid")
	ErrUnknownIssuer      = errors.New("unknown token issuer")
	ErrKeyResolution      = errors.New("failed to resolve signing key")
	ErrMissingSubject     = errors.New("token has no subject")
	ErrProfileUnavailable = errors.New("upstream profile unavailable")
)

// Kind maps a taxonomy error to a stable label for logs and audit events.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrTokenExpired):
		return "token_expired"
	case errors.Is(err, ErrTokenNotYetValid):
		return "token_not_yet_valid"
	case errors.Is(err, ErrUnknownIssuer):
		return "unknown_issuer"
	case errors.Is(err, ErrKeyResolution):
		return "key_resolution_failed"
	case errors.Is(err, ErrMissingSubject):
		return "missing_subject"
	case errors.Is(err, ErrProfileUnavailable):
		return "profile_unavailable"
	case errors.Is(err, ErrInvalidToken):
		return "invalid_token"
	default:
		return "unknown"
	}
}
