// Copyright 2026 Chapterly Ltd.
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"context"

	"github.com/chapterly/catalog-service/internal/types"
)

type StorageInterface interface {
	GetUserByExternalID(ctx context.Context, externalID string) (*types.User, error)
	GetUserByID(ctx context.Context, id string) (*types.User, error)
	CreateUser(ctx context.Context, u *types.User) (*types.User, error)
	CountUsers(ctx context.Context) (int64, error)
	ListUsers(ctx context.Context) ([]*types.User, error)
	UpdateUserRole(ctx context.Context, id string, role types.Role) (*types.User, error)
}
