// Copyright 2026 Chapterly Ltd.
// SPDX-License-Identifier: AGPL-3.0

package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/chapterly/catalog-service/internal/logging"
	"github.com/chapterly/catalog-service/internal/monitoring"
	"github.com/chapterly/catalog-service/internal/storage"
	"github.com/chapterly/catalog-service/internal/tracing"
	"github.com/chapterly/catalog-service/internal/types"
	"github.com/chapterly/catalog-service/pkg/authentication"
)

var _ ResolverInterface = (*Resolver)(nil)
var _ authentication.IdentityResolverInterface = (*Resolver)(nil)

type Resolver struct {
	storage  StorageInterface
	profiles ProviderClientInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func NewResolver(
	storage StorageInterface,
	profiles ProviderClientInterface,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) *Resolver {
	return &Resolver{
		storage:  storage,
		profiles: profiles,
		tracer:   tracer,
		monitor:  monitor,
		logger:   logger,
	}
}

// Resolve maps a verified subject to the local user record, creating one on
// first sight. Existing users are returned as-is, attributes are not
// refreshed on the hot path.
func (r *Resolver) Resolve(ctx context.Context, claims *authentication.Claims) (*types.User, error) {
	ctx, span := r.tracer.Start(ctx, "identity.Resolver.Resolve")
	defer span.End()

	if claims == nil || claims.Subject == "" {
		return nil, authentication.ErrMissingSubject
	}

	user, err := r.storage.GetUserByExternalID(ctx, claims.Subject)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	return r.provision(ctx, claims.Subject)
}

// provision enriches the unseen subject from the provider's profile endpoint
// and inserts the local record. The unique index on external_id is the only
// mechanism serializing concurrent first-seen requests: the losing insert is
// recovered by re-reading the winner's row.
func (r *Resolver) provision(ctx context.Context, subject string) (*types.User, error) {
	ctx, span := r.tracer.Start(ctx, "identity.Resolver.provision")
	defer span.End()

	profile, err := r.profiles.GetUser(ctx, subject)
	if err != nil {
		r.logger.Errorf("profile fetch for subject %s failed: %v", subject, err)
		return nil, fmt.Errorf("%w: %v", authentication.ErrProfileUnavailable, err)
	}

	user := &types.User{
		ExternalID: subject,
		Email:      profile.PrimaryEmail(),
		FirstName:  profile.FirstName,
		LastName:   profile.LastName,
		AvatarURL:  profile.ImageURL,
		// Self-registration has no provisioning actor; created_by stays
		// unset for the bootstrap user and self-provisioned users alike.
	}

	created, err := r.storage.CreateUser(ctx, user)
	if err == nil {
		r.logger.Infof("provisioned user %s for subject %s with role %s", created.ID, subject, created.Role)
		return created, nil
	}

	if errors.Is(err, storage.ErrDuplicateKey) {
		// Lost the race with a concurrent first-seen request.
		existing, readErr := r.storage.GetUserByExternalID(ctx, subject)
		if readErr != nil {
			return nil, fmt.Errorf("failed to re-read user after duplicate insert: %w", readErr)
		}
		return existing, nil
	}

	return nil, fmt.Errorf("failed to provision user: %w", err)
}
