// Copyright 2026 Chapterly Ltd.
// SPDX-License-Identifier: AGPL-3.0

package clerk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/oauth2"

	"github.com/chapterly/catalog-service/internal/logging"
	"github.com/chapterly/catalog-service/internal/monitoring"
	"github.com/chapterly/catalog-service/internal/tracing"
)

// Profile is the subset of the provider's user object this service consumes.
type Profile struct {
	ID             string         `json:"id"`
	FirstName      *string        `json:"first_name"`
	LastName       *string        `json:"last_name"`
	ImageURL       *string        `json:"image_url"`
	EmailAddresses []EmailAddress `json:"email_addresses"`
}

type EmailAddress struct {
	ID           string `json:"id"`
	EmailAddress string `json:"email_address"`
}

// PrimaryEmail returns the first listed email address, or empty string.
func (p *Profile) PrimaryEmail() string {
	if len(p.EmailAddresses) == 0 {
		return ""
	}
	return p.EmailAddresses[0].EmailAddress
}

type Client struct {
	baseURL string
	client  *http.Client

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

// NewClient builds a provider Admin API client authenticated with the
// statically configured service secret, never with a caller's token.
func NewClient(apiURL, secretKey string, timeout time.Duration, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Client {
	ctx := context.WithValue(
		context.Background(),
		oauth2.HTTPClient,
		&http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	)

	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: secretKey}))
	client.Timeout = timeout

	return &Client{
		baseURL: apiURL,
		client:  client,
		tracer:  tracer,
		monitor: monitor,
		logger:  logger,
	}
}

func (c *Client) GetUser(ctx context.Context, externalID string) (*Profile, error) {
	ctx, span := c.tracer.Start(ctx, "clerk.GetUser")
	defer span.End()

	endpoint := fmt.Sprintf("%s/users/%s", c.baseURL, url.PathEscape(externalID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build profile request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("profile endpoint returned status %d", resp.StatusCode)
	}

	var profile Profile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}

	return &profile, nil
}
