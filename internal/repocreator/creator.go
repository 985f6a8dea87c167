// Package repocreator performs the GitHub repository-creation call for a scheduled job.
// It never mutates job state; the scheduler records the outcome.
package repocreator

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"reposched/internal/store"

	"github.com/google/go-github/v37/github"
	"golang.org/x/oauth2"
)

// DefaultTimeout bounds a single creation call.
const DefaultTimeout = 30 * time.Second

// Result is the successful outcome of a creation call.
type Result struct {
	URL string
	ID  int64
}

// ExecutionError is any failed creation call: a non-2xx response, a transport error or a timeout.
type ExecutionError struct {
	StatusCode int // 0 when no response was received
	Message    string
	Err        error
}

func (e *ExecutionError) Error() string {
	return e.Message
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// Config holds configuration for the creator.
type Config struct {
	BaseURL   string        // API root, defaults to https://api.github.com/
	Timeout   time.Duration // per call, defaults to DefaultTimeout
	Transport http.RoundTripper
}

// Creator creates repositories through the GitHub REST API.
type Creator struct {
	baseURL   *url.URL
	timeout   time.Duration
	transport http.RoundTripper
}

// New creates a new Creator.
func New(config Config) (*Creator, error) {
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}

	if config.BaseURL == "" {
		config.BaseURL = "https://api.github.com/"
	}
	// go-github resolves paths relative to BaseURL, so it must end in a slash
	if !strings.HasSuffix(config.BaseURL, "/") {
		config.BaseURL += "/"
	}

	baseURL, err := url.Parse(config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid GitHub API url: %w", err)
	}

	if config.Transport == nil {
		config.Transport = http.DefaultTransport
	}

	return &Creator{
		baseURL:   baseURL,
		timeout:   config.Timeout,
		transport: config.Transport,
	}, nil
}

// Execute issues POST /user/repos for job, authenticated with token.
// Every failure is returned as *ExecutionError.
func (c *Creator) Execute(ctx context.Context, job store.Job, token string) (Result, error) {
	if token == "" {
		return Result{}, &ExecutionError{Message: "No GitHub token configured"}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	client := github.NewClient(&http.Client{
		Timeout: c.timeout,
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}),
			Base:   c.transport,
		},
	})
	client.BaseURL = c.baseURL

	repo, _, err := client.Repositories.Create(ctx, "", buildRepository(job))
	if err != nil {
		return Result{}, c.classify(ctx, err)
	}

	return Result{URL: repo.GetHTMLURL(), ID: repo.GetID()}, nil
}

// buildRepository maps the job payload onto the request body.
// Optional fields stay nil so they are omitted from the JSON.
func buildRepository(job store.Job) *github.Repository {
	repo := &github.Repository{
		Name:     github.String(job.Name),
		Private:  github.Bool(job.Private),
		AutoInit: github.Bool(job.AutoInit),
	}
	if job.Description != "" {
		repo.Description = github.String(job.Description)
	}
	if job.GitignoreTemplate != "" {
		repo.GitignoreTemplate = github.String(job.GitignoreTemplate)
	}
	return repo
}

func (c *Creator) classify(ctx context.Context, err error) *ExecutionError {
	var apiErr *github.ErrorResponse
	if errors.As(err, &apiErr) {
		return &ExecutionError{
			StatusCode: statusCode(apiErr.Response),
			Message:    errorMessage(apiErr),
			Err:        err,
		}
	}

	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return &ExecutionError{StatusCode: statusCode(rateErr.Response), Message: rateErr.Message, Err: err}
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout()) {
		return &ExecutionError{
			Message: fmt.Sprintf("Request timed out after %v", c.timeout),
			Err:     err,
		}
	}

	return &ExecutionError{Message: err.Error(), Err: err}
}

// errorMessage prefers the API's own message, joined with the first field-level detail.
func errorMessage(apiErr *github.ErrorResponse) string {
	msg := strings.TrimSpace(apiErr.Message)
	if msg == "" {
		msg = fmt.Sprintf("GitHub API returned status %d", statusCode(apiErr.Response))
	}

	for _, detail := range apiErr.Errors {
		if detail.Message != "" {
			return strings.TrimSuffix(msg, ".") + ": " + detail.Message
		}
	}
	return msg
}

func statusCode(resp *http.Response) int {
	if resp == nil {
		return 0
	}
	return resp.StatusCode
}
