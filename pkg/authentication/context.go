// Copyright 2026 Chapterly Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authentication

import (
	"context"

	"github.com/chapterly/catalog-service/internal/types"
)

// Define a private custom type to avoid collisions
type contextKey struct{}

var userContextKey = contextKey{}

// WithUser returns a new context carrying the resolved user.
func WithUser(ctx context.Context, user *types.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext retrieves the resolved user from the context.
// Returns nil and false if no user is present.
func UserFromContext(ctx context.Context) (*types.User, bool) {
	user, ok := ctx.Value(userContextKey).(*types.User)
	return user, ok
}
