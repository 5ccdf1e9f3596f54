// Copyright 2026 Chapterly Ltd.
// SPDX-License-Identifier: AGPL-3.0

package clerk

import (
	"context"
)

type ClientInterface interface {
	GetUser(ctx context.Context, externalID string) (*Profile, error)
}
