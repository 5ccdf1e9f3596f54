// Copyright 2026 Chapterly Ltd.
// SPDX-License-Identifier: AGPL-3.0

package identity

import (
	"context"

	"github.com/chapterly/catalog-service/internal/clerk"
	"github.com/chapterly/catalog-service/internal/types"
	"github.com/chapterly/catalog-service/pkg/authentication"
)

type ResolverInterface interface {
	Resolve(ctx context.Context, claims *authentication.Claims) (*types.User, error)
}

type StorageInterface interface {
	GetUserByExternalID(ctx context.Context, externalID string) (*types.User, error)
	CreateUser(ctx context.Context, u *types.User) (*types.User, error)
}

type ProviderClientInterface interface {
	GetUser(ctx context.Context, externalID string) (*clerk.Profile, error)
}
