// Copyright 2026 Chapterly Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authorization

import (
	"context"

	"github.com/chapterly/catalog-service/internal/types"
)

type AuthorizerInterface interface {
	Check(ctx context.Context, user *types.User, required types.Role) error
	CheckAdmin(ctx context.Context, user *types.User) error
}
