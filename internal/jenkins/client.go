package jenkins

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"buildwatch/internal/models"
)

const (
	defaultTimeout = 30 * time.Second
	defaultRetries = 3
	maxErrorBody   = 512
)

// Options tune the upstream HTTP client.
type Options struct {
	Timeout            time.Duration
	Retries            int
	RetryWait          time.Duration
	InsecureSkipVerify bool
}

// Client reads build listings and build details from a Jenkins-style JSON API.
type Client struct {
	http *retryablehttp.Client
}

type jobResponse struct {
	Builds []models.BuildRef `json:"builds"`
}

// NewClient creates a client with bounded timeouts and retries.
func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Retries < 0 {
		opts.Retries = defaultRetries
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = opts.Retries
	rc.Logger = logAdapter{}
	rc.HTTPClient.Timeout = opts.Timeout
	if opts.RetryWait > 0 {
		rc.RetryWaitMin = opts.RetryWait
		rc.RetryWaitMax = opts.RetryWait
	}
	if opts.InsecureSkipVerify {
		if transport, ok := rc.HTTPClient.Transport.(*http.Transport); ok {
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
		}
	}
	return &Client{http: rc}
}

// ListBuilds returns the builds the server currently lists for a pipeline.
func (c *Client) ListBuilds(ctx context.Context, pipelineURL string) ([]models.BuildRef, error) {
	var job jobResponse
	if err := c.getJSON(ctx, apiURL(pipelineURL), &job); err != nil {
		return nil, fmt.Errorf("list builds of %s: %w", pipelineURL, err)
	}
	return job.Builds, nil
}

// BuildDetail fetches the full record of one build.
func (c *Client) BuildDetail(ctx context.Context, buildURL string) (models.Build, error) {
	var b models.Build
	if err := c.getJSON(ctx, apiURL(buildURL), &b); err != nil {
		return models.Build{}, fmt.Errorf("fetch build %s: %w", buildURL, err)
	}
	return b, nil
}

func (c *Client) getJSON(ctx context.Context, url string, dest any) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func apiURL(base string) string {
	return strings.TrimSuffix(base, "/") + "/api/json"
}
