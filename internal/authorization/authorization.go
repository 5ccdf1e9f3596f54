// Copyright 2026 Chapterly Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authorization

import (
	"context"
	"errors"

	"github.com/chapterly/catalog-service/internal/logging"
	"github.com/chapterly/catalog-service/internal/monitoring"
	"github.com/chapterly/catalog-service/internal/tracing"
	"github.com/chapterly/catalog-service/internal/types"
)

var ErrForbidden = errors.New("forbidden: insufficient role")

type Authorizer struct {
	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

// Check verifies that the user's role grants at least the required tier.
// The role set is a closed three-value enumeration ordered
// customer < admin < super_admin.
func (a *Authorizer) Check(ctx context.Context, user *types.User, required types.Role) error {
	_, span := a.tracer.Start(ctx, "authorization.Authorizer.Check")
	defer span.End()

	if user == nil || !user.Role.AtLeast(required) {
		return ErrForbidden
	}

	return nil
}

// CheckAdmin verifies that the user belongs to the admin tier
// (admin or super_admin).
func (a *Authorizer) CheckAdmin(ctx context.Context, user *types.User) error {
	ctx, span := a.tracer.Start(ctx, "authorization.Authorizer.CheckAdmin")
	defer span.End()

	if err := a.Check(ctx, user, types.RoleAdmin); err != nil {
		subject := ""
		if user != nil {
			subject = user.ExternalID
		}
		a.logger.Security().AuthzFailure(subject, "admin_access")
		return err
	}

	return nil
}

func NewAuthorizer(tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Authorizer {
	return &Authorizer{
		tracer:  tracer,
		monitor: monitor,
		logger:  logger,
	}
}
