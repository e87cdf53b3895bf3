package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mkorolev/studyplan/internal/client/models"
)

// HTTPClient talks JSON over HTTP to the hosted backend. It is safe for
// concurrent use once constructed; SetToken must not race with requests.
type HTTPClient struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// SetToken sets the bearer token attached to every request.
func (c *HTTPClient) SetToken(token string) {
	c.token = token
}

func (c *HTTPClient) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if err := statusToError(resp); err != nil {
		return err
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// statusToError maps a non-2xx response to a sentinel error, carrying the
// server's message when one was provided.
func statusToError(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var body struct {
		Message string `json:"message"`
	}
	_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&body)

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrUnauthorized, body.Message)
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return fmt.Errorf("%w: %s", ErrNotFound, body.Message)
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	default:
		return fmt.Errorf("%w: status %d: %s", ErrInvalid, resp.StatusCode, body.Message)
	}
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/api/v1/health", nil, nil)
}

func (c *HTTPClient) GetCurrentUser(ctx context.Context) (*models.User, error) {
	var u models.User
	if err := c.do(ctx, http.MethodGet, "/api/v1/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *HTTPClient) CreateResource(ctx context.Context, resource models.ResourceType, payload json.RawMessage) (*Created, error) {
	var created Created
	if err := c.do(ctx, http.MethodPost, "/api/v1/"+string(resource), payload, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *HTTPClient) UpdateResource(ctx context.Context, resource models.ResourceType, id string, payload json.RawMessage) error {
	return c.do(ctx, http.MethodPut, "/api/v1/"+string(resource)+"/"+id, payload, nil)
}

func (c *HTTPClient) SoftDeleteResource(ctx context.Context, resource models.ResourceType, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/"+string(resource)+"/"+id, nil, nil)
}

func (c *HTTPClient) RestoreResource(ctx context.Context, resource models.ResourceType, id string) error {
	return c.do(ctx, http.MethodPost, "/api/v1/"+string(resource)+"/"+id+"/restore", nil, nil)
}

func (c *HTTPClient) CompleteResource(ctx context.Context, resource models.ResourceType, id string) error {
	return c.do(ctx, http.MethodPost, "/api/v1/"+string(resource)+"/"+id+"/complete", nil, nil)
}

func (c *HTTPClient) SetReminders(ctx context.Context, resource models.ResourceType, id string, reminders []Reminder) error {
	body := struct {
		Reminders []Reminder `json:"reminders"`
	}{Reminders: reminders}
	return c.do(ctx, http.MethodPut, "/api/v1/"+string(resource)+"/"+id+"/reminders", body, nil)
}
