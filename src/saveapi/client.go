// Package saveapi persists captured selections to the local search service.
package saveapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "http://127.0.0.1:8000"
	DefaultTimeout = 10 * time.Second
	searchPath     = "/search"
)

// Kind classifies a failed save.
type Kind int

const (
	KindEmpty Kind = iota + 1
	KindNoProject
	KindNetwork
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "Empty"
	case KindNoProject:
		return "NoProject"
	case KindNetwork:
		return "NetworkError"
	default:
		return "Unknown"
	}
}

var (
	ErrEmpty     = errors.New("nothing captured")
	ErrNoProject = errors.New("no active project")
	ErrNetwork   = errors.New("save request failed")
)

// Error is returned for every failed save. errors.Is matches the sentinel of
// its Kind.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.sentinel().Error()
	}
	return fmt.Sprintf("%s: %v", e.sentinel(), e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool { return target == e.sentinel() }

func (e *Error) sentinel() error {
	switch e.Kind {
	case KindEmpty:
		return ErrEmpty
	case KindNoProject:
		return ErrNoProject
	default:
		return ErrNetwork
	}
}

// NetworkError wraps err as a KindNetwork failure.
func NetworkError(err error) *Error { return &Error{Kind: KindNetwork, Err: err} }

// Request is the body of POST /search.
type Request struct {
	Query     string `json:"query"`
	ProjectID string `json:"project_id"`
	Save      bool   `json:"save"`
}

// Client talks to the search service.
type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// NewWithHTTPClient is used by tests to inject a transport.
func NewWithHTTPClient(baseURL string, hc *http.Client) *Client {
	c := New(baseURL, 0)
	if hc != nil {
		c.http = hc
	}
	return c
}

func (c *Client) BaseURL() string { return c.baseURL }

// Check validates a save without sending anything.
func Check(text, projectID string) error {
	if strings.TrimSpace(text) == "" {
		return &Error{Kind: KindEmpty}
	}
	if strings.TrimSpace(projectID) == "" {
		return &Error{Kind: KindNoProject}
	}
	return nil
}

// Save posts text to the active project. Empty text or a missing project fail
// before any request is made.
func (c *Client) Save(ctx context.Context, text, projectID, requestID string) error {
	if err := Check(text, projectID); err != nil {
		return err
	}

	body, err := json.Marshal(Request{Query: text, ProjectID: projectID, Save: true})
	if err != nil {
		return NetworkError(fmt.Errorf("failed to marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+searchPath, bytes.NewReader(body))
	if err != nil {
		return NetworkError(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	if requestID != "" {
		req.Header.Set("X-Request-ID", requestID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return NetworkError(err)
	}
	defer resp.Body.Close()
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(snippet))
		if msg == "" {
			return NetworkError(fmt.Errorf("API returned status %d", resp.StatusCode))
		}
		return NetworkError(fmt.Errorf("API returned status %d: %s", resp.StatusCode, msg))
	}
	return nil
}
