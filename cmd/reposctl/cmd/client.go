package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"reposched/pkg/api"
)

// JobClient handles API calls to the reposched controller.
type JobClient struct {
	BaseURL    string
	Token      string
	Owner      string
	HTTPClient *http.Client
}

// NewJobClient creates a new client with the given base URL, API token and owner.
func NewJobClient(baseURL, token, owner string) *JobClient {
	return &JobClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		Owner:   owner,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// APIError represents an error response from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
}

// ScheduleJob sends POST /jobs.
func (c *JobClient) ScheduleJob(req api.ScheduleJobRequest) (*api.JobResponse, error) {
	var job api.JobResponse
	if err := c.do(http.MethodPost, "/jobs", req, &job, http.StatusCreated); err != nil {
		return nil, err
	}
	return &job, nil
}

// ListJobs sends GET /jobs, optionally filtered by status.
func (c *JobClient) ListJobs(status string) ([]api.JobResponse, error) {
	path := "/jobs"
	if status != "" {
		path += "?status=" + url.QueryEscape(status)
	}

	var resp api.ListJobsResponse
	if err := c.do(http.MethodGet, path, nil, &resp, http.StatusOK); err != nil {
		return nil, err
	}
	return resp.Jobs, nil
}

// GetJob sends GET /jobs/{id}.
func (c *JobClient) GetJob(id string) (*api.JobResponse, error) {
	var job api.JobResponse
	if err := c.do(http.MethodGet, "/jobs/"+url.PathEscape(id), nil, &job, http.StatusOK); err != nil {
		return nil, err
	}
	return &job, nil
}

// UpdateJob sends PATCH /jobs/{id}.
func (c *JobClient) UpdateJob(id string, req api.UpdateJobRequest) (*api.JobResponse, error) {
	var job api.JobResponse
	if err := c.do(http.MethodPatch, "/jobs/"+url.PathEscape(id), req, &job, http.StatusOK); err != nil {
		return nil, err
	}
	return &job, nil
}

// CancelJob sends DELETE /jobs/{id}.
func (c *JobClient) CancelJob(id string) error {
	return c.do(http.MethodDelete, "/jobs/"+url.PathEscape(id), nil, nil, http.StatusNoContent)
}

// TriggerJob sends POST /jobs/{id}/trigger.
func (c *JobClient) TriggerJob(id string) (*api.JobResponse, error) {
	var job api.JobResponse
	if err := c.do(http.MethodPost, "/jobs/"+url.PathEscape(id)+"/trigger", nil, &job, http.StatusAccepted); err != nil {
		return nil, err
	}
	return &job, nil
}

// Stats sends GET /stats.
func (c *JobClient) Stats() (*api.StatsResponse, error) {
	var stats api.StatsResponse
	if err := c.do(http.MethodGet, "/stats", nil, &stats, http.StatusOK); err != nil {
		return nil, err
	}
	return &stats, nil
}

// SetCredential sends PUT /credentials.
func (c *JobClient) SetCredential(token string) error {
	return c.do(http.MethodPut, "/credentials", api.SetCredentialRequest{Token: token}, nil, http.StatusNoContent)
}

func (c *JobClient) do(method, path string, body, out any, want int) error {
	var reader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(bodyBytes)
	}

	httpReq, err := http.NewRequest(method, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if c.Token != "" {
		httpReq.Header.Add("Authorization", fmt.Sprintf("Bearer %s", c.Token))
	}
	if c.Owner != "" {
		httpReq.Header.Add(api.OwnerHeader, c.Owner)
	}
	httpReq.Header.Add("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != want {
		return &APIError{StatusCode: resp.StatusCode, Message: errorMessage(respBody)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// errorMessage extracts the error field of a JSON error body, falling back
// to the raw body.
func errorMessage(body []byte) string {
	var e api.ErrorResponse
	if err := json.Unmarshal(body, &e); err == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(body))
}
