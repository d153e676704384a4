// Package upstream fetches driver form submissions from the fleet-telematics
// API, normally through the credential-injecting proxy.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/grantfleet/yardwatch/internal/extract"
)

// ErrNoToken is returned when no bearer credential is configured and no
// proxy is doing the injection. The sync controller treats it like any other
// upstream failure and falls back.
var ErrNoToken = errors.New("upstream: no API token configured")

// Page is one page of the form-submission stream.
type Page struct {
	Data       []extract.RawSubmission `json:"data"`
	Pagination Pagination              `json:"pagination"`
}

// Pagination carries the in-run continuation cursor. The cursor is only
// valid within a single sync run and is never persisted.
type Pagination struct {
	HasNextPage bool   `json:"hasNextPage"`
	EndCursor   string `json:"endCursor,omitempty"`
}

// Driver is one entry of the fleet driver directory.
type Driver struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type driversResponse struct {
	Data []Driver `json:"data"`
}

// Client talks to the submission stream endpoint. When token is empty the
// client assumes a server-side proxy injects the credential; set
// RequireToken to fail fast instead.
type Client struct {
	http           *resty.Client
	token          string
	requireToken   bool
	dropTemplateID string
	pickTemplateID string
	logger         *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithToken sets the bearer credential sent with every request.
func WithToken(token string) ClientOption {
	return func(c *Client) { c.token = token }
}

// RequireToken makes FetchPage fail with ErrNoToken when no credential is
// configured, instead of relying on a proxy.
func RequireToken() ClientOption {
	return func(c *Client) { c.requireToken = true }
}

// WithClientLogger sets the logger.
func WithClientLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// WithTimeout overrides the request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.http.SetTimeout(d) }
}

// NewClient creates a Client for the given base URL and form template ids.
func NewClient(baseURL, dropTemplateID, pickTemplateID string, opts ...ClientOption) *Client {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15 * time.Second).
		SetHeader("Accept", "application/json")

	c := &Client{
		http:           httpClient,
		dropTemplateID: dropTemplateID,
		pickTemplateID: pickTemplateID,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchPage requests submissions after startTime. The first page of a run
// passes an empty cursor; continuation pages pass the EndCursor of the
// previous page. Any transport error or non-2xx status is an error.
func (c *Client) FetchPage(ctx context.Context, startTime time.Time, after string) (*Page, error) {
	if c.requireToken && c.token == "" {
		return nil, ErrNoToken
	}

	req := c.http.R().SetContext(ctx)
	if c.token != "" {
		req.SetAuthToken(c.token)
	}

	if after != "" {
		req.SetQueryParam("after", after)
	} else {
		req.SetQueryParam("startTime", startTime.UTC().Format(time.RFC3339))
	}
	req.SetQueryParamsFromValues(map[string][]string{
		"formTemplateIds": {c.dropTemplateID, c.pickTemplateID},
	})

	var page Page
	resp, err := req.SetResult(&page).Get("/form-submissions/stream")
	if err != nil {
		return nil, fmt.Errorf("fetch submissions: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch submissions: upstream returned %s", resp.Status())
	}

	c.logger.Debug("fetched submission page",
		"records", len(page.Data),
		"has_next", page.Pagination.HasNextPage,
	)
	return &page, nil
}

// ListDrivers returns the fleet driver directory. Callers treat failures as
// non-fatal; the directory only improves driver name resolution.
func (c *Client) ListDrivers(ctx context.Context) ([]Driver, error) {
	if c.requireToken && c.token == "" {
		return nil, ErrNoToken
	}

	req := c.http.R().SetContext(ctx)
	if c.token != "" {
		req.SetAuthToken(c.token)
	}

	var out driversResponse
	resp, err := req.SetResult(&out).Get("/fleet/drivers")
	if err != nil {
		return nil, fmt.Errorf("list drivers: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("list drivers: upstream returned %s", resp.Status())
	}
	return out.Data, nil
}
