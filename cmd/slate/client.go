package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"

	"slate/internal/api"
)

// apiClient is a thin typed wrapper over the slated HTTP API.
type apiClient struct {
	base string
	http *http.Client
}

func newAPIClient(base string) *apiClient {
	return &apiClient{
		base: base,
		http: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *apiClient) Status(ctx context.Context) (api.DaemonStatus, error) {
	var out api.DaemonStatus
	err := c.get(ctx, "/api/status", &out)
	return out, err
}

func (c *apiClient) Jobs(ctx context.Context, statuses []string, stage string) ([]api.JobItem, error) {
	values := url.Values{}
	for _, status := range statuses {
		values.Add("status", status)
	}
	if stage != "" {
		values.Set("stage", stage)
	}
	path := "/api/jobs"
	if len(values) > 0 {
		path += "?" + values.Encode()
	}
	var out api.JobListResponse
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out.Jobs, nil
}

func (c *apiClient) Job(ctx context.Context, id int64) (*api.JobDetailResponse, error) {
	var out api.JobDetailResponse
	if err := c.get(ctx, fmt.Sprintf("/api/jobs/%d", id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *apiClient) Audit(ctx context.Context, id int64) ([]api.AuditEntry, error) {
	var out api.AuditResponse
	if err := c.get(ctx, fmt.Sprintf("/api/jobs/%d/audit", id), &out); err != nil {
		return nil, err
	}
	return out.Entries, nil
}

func (c *apiClient) Preprocessing(ctx context.Context, id int64, stage string) (api.PreprocessingResponse, error) {
	var out api.PreprocessingResponse
	path := fmt.Sprintf("/api/jobs/%d/preprocessing?stage=%s", id, url.QueryEscape(stage))
	err := c.get(ctx, path, &out)
	return out, err
}

func (c *apiClient) Transition(ctx context.Context, id int64, req api.TransitionRequest) (api.JobItem, error) {
	var out api.TransitionResponse
	err := c.post(ctx, fmt.Sprintf("/api/jobs/%d/transition", id), req, &out)
	return out.Job, err
}

func (c *apiClient) Ingest(ctx context.Context, req api.IngestRequest) (api.IngestResponse, error) {
	var out api.IngestResponse
	err := c.post(ctx, "/api/batches", req, &out)
	return out, err
}

func (c *apiClient) TestNotify(ctx context.Context) (api.TestNotificationResponse, error) {
	var out api.TestNotificationResponse
	err := c.post(ctx, "/api/notifications/test", nil, &out)
	return out, err
}

func (c *apiClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *apiClient) post(ctx context.Context, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

func (c *apiClient) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return wrapDialError(err, c.base)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && strings.TrimSpace(payload.Error) != "" {
		return fmt.Errorf("%s", payload.Error)
	}
	return fmt.Errorf("daemon returned %s", resp.Status)
}

func wrapDialError(err error, base string) error {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return fmt.Errorf("connect to daemon: %s refused the connection; start the daemon with `slated`", base)
	}
	return fmt.Errorf("connect to daemon: %w", err)
}
