package agentctl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/edvin/agentdesk/internal/model"
	"github.com/edvin/agentdesk/internal/provision"
)

// Client talks to the provisioning API.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// Provision provisions one agent synchronously. Failed provisioning runs
// come back as a result with ErrorKind set, not as an error.
func (c *Client) Provision(ctx context.Context, in provision.Request) (model.ProvisionResult, error) {
	var res model.ProvisionResult
	if err := c.do(ctx, http.MethodPost, "/api/v1/agents", in, &res); err != nil {
		return res, err
	}
	return res, nil
}

// ProvisionAsync starts durable provisioning and waits for its result.
func (c *Client) ProvisionAsync(ctx context.Context, in provision.Request) (model.ProvisionResult, error) {
	var started struct {
		WorkflowID string `json:"workflow_id"`
		model.ProvisionResult
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/agents/async", in, &started); err != nil {
		return model.ProvisionResult{}, err
	}
	if started.WorkflowID == "" {
		// Rejected before a run was started.
		return started.ProvisionResult, nil
	}

	var res model.ProvisionResult
	if err := c.do(ctx, http.MethodGet, "/api/v1/provisioning/"+url.PathEscape(started.WorkflowID), nil, &res); err != nil {
		return res, err
	}
	return res, nil
}

// do sends a JSON request. Responses carrying a provisioning result are
// decoded whatever their status; other non-2xx responses are errors.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var reqBody io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode >= 400 && !isResult(respBody) {
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func isResult(body []byte) bool {
	var probe struct {
		ErrorKind string `json:"error_kind"`
	}
	return json.Unmarshal(body, &probe) == nil && probe.ErrorKind != ""
}
