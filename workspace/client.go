package workspace

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/casualjim/swekit/pkg/slogx"
	"github.com/casualjim/swekit/provider"
	"github.com/fogfish/opts"
	"github.com/goccy/go-json"
	"github.com/tidwall/gjson"
)

// Executor runs actions in an existing workspace.
type Executor interface {
	Execute(ctx context.Context, id string, action Action, params map[string]any) (Response, error)
}

// Service manages workspaces and runs actions in them.
type Service interface {
	Executor
	Create(ctx context.Context, req CreateRequest) (string, error)
	Close(ctx context.Context, id string) error
}

// CreateRequest describes the checkout a new workspace should hold.
type CreateRequest struct {
	Image      string `json:"image,omitempty"`
	Repo       string `json:"repo"`
	BaseCommit string `json:"base_commit,omitempty"`
	// Env is exported in the workspace's shell.
	Env map[string]string `json:"env,omitempty"`
}

// Response is the outcome of one action.
type Response struct {
	Successful bool
	Data       gjson.Result
	Error      string
}

// String renders the response the way agents see it in tool output.
func (r Response) String() string {
	data := r.Data.Raw
	if data == "" {
		data = "{}"
	}
	b, err := json.Marshal(map[string]any{
		"successful": r.Successful,
		"data":       json.RawMessage(data),
		"error":      r.Error,
	})
	if err != nil {
		return fmt.Sprintf(`{"successful":%t,"error":%q}`, r.Successful, r.Error)
	}
	return string(b)
}

// HTTPError is a non-2xx answer of the workspace service.
type HTTPError struct {
	StatusCode int
	Method     string
	URL        string
	Body       string
}

func (e *HTTPError) Error() string {
	msg := strings.TrimSpace(e.Body)
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.URL, e.StatusCode, msg)
}

// Unwrap exposes throttling so the attempt retries treat it like a provider throttle.
func (e *HTTPError) Unwrap() error {
	if e.StatusCode == http.StatusTooManyRequests {
		return provider.ErrThrottled
	}
	return nil
}

var _ Service = (*Client)(nil)

// Client is the HTTP client of the workspace service.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	userAgent  string
}

var (
	WithAPIKey     = opts.ForName[Client, string]("apiKey")
	WithHTTPClient = opts.ForName[Client, *http.Client]("httpClient")
	WithUserAgent  = opts.ForName[Client, string]("userAgent")
)

// WithTimeout bounds every request of the client.
func WithTimeout(d time.Duration) opts.Option[Client] {
	return opts.Type[Client](func(c *Client) error {
		if d <= 0 {
			return fmt.Errorf("invalid timeout %s", d)
		}
		c.httpClient = &http.Client{Timeout: d}
		return nil
	})
}

// New creates a client for the service at baseURL.
func New(baseURL string, options ...opts.Option[Client]) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid workspace url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid workspace url %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		baseURL:    strings.TrimSuffix(u.String(), "/"),
		httpClient: &http.Client{Timeout: 10 * time.Minute},
		userAgent:  "swekit",
	}
	if err := opts.Apply(c, options); err != nil {
		return nil, err
	}
	return c, nil
}

// Create starts a workspace and returns its id.
func (c *Client) Create(ctx context.Context, req CreateRequest) (string, error) {
	if req.Repo == "" {
		return "", fmt.Errorf("repo is required to create a workspace")
	}
	res, err := c.do(ctx, http.MethodPost, "/api/workspaces", req)
	if err != nil {
		return "", fmt.Errorf("failed to create workspace: %w", err)
	}
	id := res.Get("id").String()
	if id == "" {
		return "", fmt.Errorf("failed to create workspace: response has no id")
	}
	slog.DebugContext(ctx, "workspace created", slogx.WorkspaceID(id), slog.String("repo", req.Repo))
	return id, nil
}

// Close tears the workspace down. Closing an unknown workspace is not an error.
func (c *Client) Close(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/workspaces/"+url.PathEscape(id), nil)
	var he *HTTPError
	if errors.As(err, &he) && he.StatusCode == http.StatusNotFound {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to close workspace %s: %w", id, err)
	}
	return nil
}

// Execute runs action with params. An action that ran but failed is reported
// through Response.Successful, not as an error.
func (c *Client) Execute(ctx context.Context, id string, action Action, params map[string]any) (Response, error) {
	if params == nil {
		params = map[string]any{}
	}
	path := "/api/workspaces/" + url.PathEscape(id) + "/actions/" + url.PathEscape(action.String())
	res, err := c.do(ctx, http.MethodPost, path, map[string]any{"params": params})
	if err != nil {
		return Response{}, fmt.Errorf("%s: %w", action, err)
	}
	return Response{
		Successful: res.Get("successful").Bool(),
		Data:       res.Get("data"),
		Error:      res.Get("error").String(),
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) (gjson.Result, error) {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return gjson.Result{}, err
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return gjson.Result{}, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return gjson.Result{}, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return gjson.Result{}, &HTTPError{
			StatusCode: resp.StatusCode,
			Method:     method,
			URL:        req.URL.Path,
			Body:       string(data),
		}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return gjson.Result{}, nil
	}
	if !gjson.ValidBytes(data) {
		return gjson.Result{}, fmt.Errorf("invalid json response from %s", req.URL.Path)
	}
	return gjson.ParseBytes(data), nil
}
