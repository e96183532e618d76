package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"postpilot/model"
)

// ErrLoginRedirect is the one sanctioned control-flow exit: a backend 401
// means the browser must be sent to the login entry point. Callers let it
// propagate unmodified; the app error handler turns it into a redirect.
var ErrLoginRedirect = errors.New("login redirect")

// WorkspaceHeader carries the workspace identifier (slug or UUID) on every
// workspace-scoped backend call. The backend resolves it and enforces
// membership; this layer is transport only.
const WorkspaceHeader = "x-workspace-id"

// ConnectivityError is the generic message returned when the backend could
// not be reached at all. Handlers use it to tell connectivity failures apart
// from backend business errors.
const ConnectivityError = "Unable to reach the server. Please try again."

const unauthorizedError = "Unauthorized: no active session"

// Options is the per-call options bag.
type Options struct {
	Method string // defaults to GET
	Body   any    // JSON-encoded when non-nil
	// Headers are merged onto the request, overriding defaults.
	Headers map[string]string
	// Workspace, when set, is attached as the workspace header.
	Workspace string
	// SkipAuth sends the request without a session.
	SkipAuth bool
}

// Result is the uniform envelope every call returns. Exactly one of Data and
// Error is meaningful; Error never carries transport-level panics, only
// messages fit to show a user.
type Result struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Client is the single choke point for backend calls. One attempt per call,
// no retries; retries are the caller's decision.
type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// NewWithHTTPClient is for tests and callers that need transport control.
func NewWithHTTPClient(baseURL string, hc *http.Client) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

// backendError is the backend's non-2xx body shape: message is a string or
// an array of strings.
type backendError struct {
	Message json.RawMessage `json:"message"`
}

// Call issues one backend request with identity and workspace scoping
// attached. A nil session without SkipAuth short-circuits to an Unauthorized
// result before any network I/O.
func (c *Client) Call(ctx context.Context, sess *model.Session, endpoint string, opts Options) (Result, error) {
	if !opts.SkipAuth && sess == nil {
		return Result{Success: false, Error: unauthorizedError}, nil
	}

	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if opts.Body != nil {
		raw, err := json.Marshal(opts.Body)
		if err != nil {
			return Result{Success: false, Error: "invalid request body"}, nil
		}
		body = bytes.NewReader(raw)
	}

	if !strings.HasPrefix(endpoint, "/") {
		endpoint = "/" + endpoint
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return Result{Success: false, Error: ConnectivityError}, nil
	}

	if opts.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if !opts.SkipAuth {
		req.Header.Set("Authorization", "Bearer "+sess.AccessToken)
	}
	if opts.Workspace != "" {
		req.Header.Set(WorkspaceHeader, opts.Workspace)
	}
	// Always revalidate: scheduling data must never render stale. Callers
	// can override via Headers.
	req.Header.Set("Cache-Control", "no-cache")
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{Success: false, Error: ConnectivityError}, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return Result{}, ErrLoginRedirect
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{Success: false, Error: ConnectivityError}, nil
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{Success: false, Error: errorMessage(raw, resp.StatusCode)}, nil
	}

	// Empty body is an empty success payload, not a parse error.
	if len(bytes.TrimSpace(raw)) == 0 {
		return Result{Success: true}, nil
	}
	if !json.Valid(raw) {
		return Result{Success: false, Error: "invalid response from server"}, nil
	}
	return Result{Success: true, Data: raw}, nil
}

// errorMessage extracts {message: string | []string} from a non-2xx body,
// falling back to the HTTP status text.
func errorMessage(raw []byte, status int) string {
	fallback := http.StatusText(status)
	if fallback == "" {
		fallback = "request failed"
	}

	var be backendError
	if err := json.Unmarshal(raw, &be); err != nil || len(be.Message) == 0 {
		return fallback
	}
	var single string
	if err := json.Unmarshal(be.Message, &single); err == nil && single != "" {
		return single
	}
	var many []string
	if err := json.Unmarshal(be.Message, &many); err == nil && len(many) > 0 {
		return strings.Join(many, "; ")
	}
	return fallback
}
