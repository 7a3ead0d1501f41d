package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/earningbee/bee-engine/internal/models"
)

// Client is a Go SDK for the EarningBee API
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

// Option configures the client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the client timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithToken starts the client with an existing session token
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// NewClient creates a new EarningBee client
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError is a non-2xx response from the API
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d: %s - %s", e.Status, e.Code, e.Message)
}

// Token returns the current session token
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) setToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// ListMethods retrieves the catalog, optionally limited to one category
func (c *Client) ListMethods(ctx context.Context, category models.Category) ([]*models.EarningMethod, error) {
	path := "/api/v1/methods"
	if category != "" {
		path += "?category=" + url.QueryEscape(string(category))
	}

	var data struct {
		Methods []*models.EarningMethod `json:"methods"`
		Total   int                     `json:"total"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &data); err != nil {
		return nil, err
	}
	return data.Methods, nil
}

// GetMethod retrieves one earning method by id
func (c *Client) GetMethod(ctx context.Context, id string) (*models.EarningMethod, error) {
	var m models.EarningMethod
	if err := c.do(ctx, http.MethodGet, "/api/v1/methods/"+url.PathEscape(id), nil, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// ScoreMethod scores a single method against q
func (c *Client) ScoreMethod(ctx context.Context, id string, q models.UserQuery) (*models.ScoreResponse, error) {
	var resp models.ScoreResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/methods/"+url.PathEscape(id)+"/score", q, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Recommend ranks the catalog for q. When the client holds a session the
// query is also saved for the user.
func (c *Client) Recommend(ctx context.Context, q models.UserQuery, sortBy models.SortKey) (*models.RecommendResponse, error) {
	var resp models.RecommendResponse
	if err := c.do(ctx, http.MethodPost, withSort("/api/v1/recommendations", sortBy), q, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Scan runs a simulated face scan and returns the captured face data
func (c *Client) Scan(ctx context.Context) (string, error) {
	var data struct {
		FaceData string `json:"faceData"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/scan", nil, &data); err != nil {
		return "", err
	}
	return data.FaceData, nil
}

// Login signs in with face data and keeps the returned session token for
// subsequent calls
func (c *Client) Login(ctx context.Context, faceData string) (*models.LoginResponse, error) {
	var resp models.LoginResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", models.LoginRequest{FaceData: faceData}, &resp); err != nil {
		return nil, err
	}
	c.setToken(resp.Token)
	return &resp, nil
}

// Logout ends the current session
func (c *Client) Logout(ctx context.Context) error {
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/logout", nil, nil); err != nil {
		return err
	}
	c.setToken("")
	return nil
}

// Me retrieves the signed-in user
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var u models.User
	if err := c.do(ctx, http.MethodGet, "/api/v1/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateProfile edits the signed-in user's profile
func (c *Client) UpdateProfile(ctx context.Context, req models.UpdateProfileRequest) (*models.User, error) {
	var u models.User
	if err := c.do(ctx, http.MethodPut, "/api/v1/me/profile", req, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// SavedRecommendations re-runs the user's last submitted query
func (c *Client) SavedRecommendations(ctx context.Context, sortBy models.SortKey) (*models.RecommendResponse, error) {
	var resp models.RecommendResponse
	if err := c.do(ctx, http.MethodGet, withSort("/api/v1/me/recommendations", sortBy), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SetTheme stores the user's theme
func (c *Client) SetTheme(ctx context.Context, mode models.ThemeMode) error {
	return c.do(ctx, http.MethodPut, "/api/v1/me/theme", models.ThemeRequest{Mode: mode}, nil)
}

// Activity retrieves the user's activity counters
func (c *Client) Activity(ctx context.Context) (*models.Activity, error) {
	var a models.Activity
	if err := c.do(ctx, http.MethodGet, "/api/v1/me/activity", nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// RecordPageVisit appends page to the user's visit history
func (c *Client) RecordPageVisit(ctx context.Context, page string) (*models.Activity, error) {
	var a models.Activity
	if err := c.do(ctx, http.MethodPost, "/api/v1/me/activity/pages", models.PageVisitRequest{Page: page}, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// AddTimeSpent adds seconds to the user's time counter
func (c *Client) AddTimeSpent(ctx context.Context, seconds int64) (*models.Activity, error) {
	var a models.Activity
	if err := c.do(ctx, http.MethodPost, "/api/v1/me/activity/time", models.TimeSpentRequest{Seconds: seconds}, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// Health checks if the service is healthy
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

func withSort(path string, sortBy models.SortKey) string {
	if sortBy == "" {
		return path
	}
	return path + "?sort=" + url.QueryEscape(string(sortBy))
}

// do performs a request and unwraps the response envelope into out
func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var result struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		if resp.StatusCode >= 400 {
			return &APIError{Status: resp.StatusCode, Message: string(respBody)}
		}
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if !result.Success || resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode}
		if result.Error != nil {
			apiErr.Code = result.Error.Code
			apiErr.Message = result.Error.Message
		}
		return apiErr
	}

	if out == nil || len(result.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(result.Data, out); err != nil {
		return fmt.Errorf("failed to unmarshal response data: %w", err)
	}
	return nil
}
