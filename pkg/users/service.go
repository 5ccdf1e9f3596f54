// Copyright 2026 Chapterly Ltd.
// SPDX-License-Identifier: AGPL-3.0

package users

import (
	"context"
	"fmt"

	"github.com/chapterly/catalog-service/internal/logging"
	"github.com/chapterly/catalog-service/internal/monitoring"
	"github.com/chapterly/catalog-service/internal/tracing"
	"github.com/chapterly/catalog-service/internal/types"
)

var _ ServiceInterface = (*Service)(nil)

type Service struct {
	storage StorageInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func NewService(
	storage StorageInterface,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) *Service {
	return &Service{
		storage: storage,
		tracer:  tracer,
		monitor: monitor,
		logger:  logger,
	}
}

func (s *Service) ListUsers(ctx context.Context) ([]*types.User, int64, error) {
	ctx, span := s.tracer.Start(ctx, "users.Service.ListUsers")
	defer span.End()

	list, err := s.storage.ListUsers(ctx)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.storage.CountUsers(ctx)
	if err != nil {
		return nil, 0, err
	}

	return list, total, nil
}

// UpdateUserRole promotes or demotes a user. Role changes are an
// administrative action; the resolved admin triggering them is recorded in
// the audit log.
func (s *Service) UpdateUserRole(ctx context.Context, id string, role types.Role, actor *types.User) (*types.User, error) {
	ctx, span := s.tracer.Start(ctx, "users.Service.UpdateUserRole")
	defer span.End()

	if !role.Valid() {
		return nil, fmt.Errorf("invalid role %q", role)
	}

	updated, err := s.storage.UpdateUserRole(ctx, id, role)
	if err != nil {
		return nil, err
	}

	actorID := ""
	if actor != nil {
		actorID = actor.ID
	}
	s.logger.Infof("user %s role set to %s by %s", updated.ID, updated.Role, actorID)

	return updated, nil
}
