// Copyright 2026 Chapterly Ltd.
// SPDX-License-Identifier: AGPL-3.0

package users

import (
	"context"

	"github.com/chapterly/catalog-service/internal/types"
)

type ServiceInterface interface {
	ListUsers(ctx context.Context) ([]*types.User, int64, error)
	UpdateUserRole(ctx context.Context, id string, role types.Role, actor *types.User) (*types.User, error)
}

type StorageInterface interface {
	GetUserByID(ctx context.Context, id string) (*types.User, error)
	CountUsers(ctx context.Context) (int64, error)
	ListUsers(ctx context.Context) ([]*types.User, error)
	UpdateUserRole(ctx context.Context, id string, role types.Role) (*types.User, error)
}
