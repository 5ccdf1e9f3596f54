// Copyright 2026 Chapterly Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authentication

import (
	"errors"
	"fmt"
	"testing"
)

func TestKind(t *testing.T) {
	testCases := []struct {
		err      error
		expected string
	}{
		{ErrInvalidToken, "invalid_token"},
		{ErrTokenExpired, "token_expired"},
		{ErrTokenNotYetValid, "token_not_yet_valid"},
		{ErrUnknownIssuer, "unknown_issuer"},
		{ErrKeyResolution, "key_resolution_failed"},
		{ErrMissingSubject, "missing_subject"},
		{ErrProfileUnavailable, "profile_unavailable"},
		{fmt.Errorf("%w: kid not found", ErrInvalidToken), "invalid_token"},
		{errors.New("something else"), "unknown"},
	}

	for _, tc := range testCases {
		if got := Kind(tc.err); got != tc.expected {
			t.Errorf("Kind(%v): expected %q, got %q", tc.err, tc.expected, got)
		}
	}
}
