package directory

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
	"time"

	"github.com/edvin/agentdesk/internal/model"
)

const defaultPageSize = 200

// Client talks to the identity directory's admin API using a service key.
type Client struct {
	baseURL    string
	serviceKey string
	pageSize   int
	httpClient *http.Client
}

// NewClient creates a directory admin client. A zero pageSize uses the default.
func NewClient(baseURL, serviceKey string, timeout time.Duration, pageSize int) *Client {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		serviceKey: serviceKey,
		pageSize:   pageSize,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// APIError is a non-2xx response from the admin API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("status %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("status %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) duplicate() bool {
	if e.StatusCode == http.StatusConflict {
		return true
	}
	return (e.StatusCode == http.StatusUnprocessableEntity || e.StatusCode == http.StatusBadRequest) &&
		duplicateCodes[e.Code]
}

type createUserRequest struct {
	Email        string                 `json:"email"`
	Password     string                 `json:"password"`
	EmailConfirm bool                   `json:"email_confirm"`
	UserMetadata model.IdentityMetadata `json:"user_metadata"`
}

// CreateIdentity registers a new identity. It returns an error wrapping
// ErrAlreadyExists when the email is already registered.
func (c *Client) CreateIdentity(ctx context.Context, email, password string, meta model.IdentityMetadata) (*Identity, error) {
	var identity Identity
	err := c.do(ctx, http.MethodPost, "/admin/users", createUserRequest{
		Email:        email,
		Password:     password,
		EmailConfirm: true,
		UserMetadata: meta,
	}, &identity)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.duplicate() {
			return nil, fmt.Errorf("create identity %s: %w: %w", email, ErrAlreadyExists, err)
		}
		return nil, fmt.Errorf("create identity %s: %w", email, err)
	}
	if identity.ID == "" {
		return nil, fmt.Errorf("create identity %s: response has no id", email)
	}
	return &identity, nil
}

type listUsersResponse struct {
	Users []Identity `json:"users"`
}

// FindIdentityByEmail pages through the directory looking for email.
// It returns an error wrapping ErrNotFound when no identity matches.
func (c *Client) FindIdentityByEmail(ctx context.Context, email string) (*Identity, error) {
	for page := 1; ; page++ {
		q := url.Values{}
		q.Set("page", fmt.Sprint(page))
		q.Set("per_page", fmt.Sprint(c.pageSize))

		var resp listUsersResponse
		if err := c.do(ctx, http.MethodGet, "/admin/users?"+q.Encode(), nil, &resp); err != nil {
			return nil, fmt.Errorf("list identities page %d: %w", page, err)
		}

		for i := range resp.Users {
			if strings.EqualFold(resp.Users[i].Email, email) {
				return &resp.Users[i], nil
			}
		}

		if len(resp.Users) < c.pageSize {
			return nil, fmt.Errorf("find identity %s: %w", email, ErrNotFound)
		}
	}
}

type updateUserRequest struct {
	UserMetadata model.IdentityMetadata `json:"user_metadata"`
}

// UpdateIdentityMetadata replaces the role metadata of an identity.
func (c *Client) UpdateIdentityMetadata(ctx context.Context, id string, meta model.IdentityMetadata) error {
	err := c.do(ctx, http.MethodPut, "/admin/users/"+url.PathEscape(id), updateUserRequest{UserMetadata: meta}, nil)
	if err != nil {
		return fmt.Errorf("update identity %s: %w", id, err)
	}
	return nil
}

// DeleteIdentity removes an identity from the directory.
func (c *Client) DeleteIdentity(ctx context.Context, id string) error {
	err := c.do(ctx, http.MethodDelete, "/admin/users/"+url.PathEscape(id), nil, nil)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return fmt.Errorf("delete identity %s: %w", id, ErrNotFound)
		}
		return fmt.Errorf("delete identity %s: %w", id, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	req.Header.Set("apikey", c.serviceKey)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// decodeAPIError extracts the structured error code from an error body. The
// admin API reports it either as error_code or as a string-valued code.
func decodeAPIError(resp *http.Response) *APIError {
	raw, _ := io.ReadAll(resp.Body)
	apiErr := &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(raw))}

	var body struct {
		Code      json.RawMessage `json:"code"`
		ErrorCode string          `json:"error_code"`
		Msg       string          `json:"msg"`
		Message   string          `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return apiErr
	}

	apiErr.Code = body.ErrorCode
	if apiErr.Code == "" && len(body.Code) > 0 {
		var code string
		if json.Unmarshal(body.Code, &code) == nil {
			apiErr.Code = code
		}
	}
	switch {
	case body.Msg != "":
		apiErr.Message = body.Msg
	case body.Message != "":
		apiErr.Message = body.Message
	}
	return apiErr
}
