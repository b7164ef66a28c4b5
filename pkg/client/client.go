// Package client is the HTTP repository used by the attendance console. It
// speaks the hub's legacy JSON contract: bare resource bodies on success and
// {"error": "..."} on failure, with server error text passed through verbatim.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cshaw-hub/hub-api/internal/dto"
	"github.com/cshaw-hub/hub-api/internal/models"
	"github.com/cshaw-hub/hub-api/pkg/config"
)

// ErrorKind classifies a failed call once, at the transport boundary, so
// callers branch on the kind instead of re-parsing message text.
type ErrorKind int

const (
	// KindRejected is a server-side rule rejection with a verbatim message.
	KindRejected ErrorKind = iota
	// KindDateMismatch means attendance was attempted on the wrong day.
	KindDateMismatch
	// KindTooEarly means a sign-in was attempted before the activity starts.
	KindTooEarly
	// KindNotFound means the record or activity does not exist.
	KindNotFound
	// KindNetwork covers transport failures and undecodable responses.
	KindNetwork
)

// APIError is a failed hub call. Message carries the server's own wording
// untouched; it is what the operator sees.
type APIError struct {
	Kind    ErrorKind
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// Client talks to the hub API.
type Client struct {
	baseURL   string
	authToken string
	csrfToken string
	http      *http.Client
	logger    *zap.Logger
}

// New constructs a client from console configuration.
func New(cfg config.ConsoleConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		authToken: cfg.AuthToken,
		csrfToken: cfg.CSRFToken,
		http:      &http.Client{Timeout: timeout},
		logger:    logger,
	}
}

// FetchActivity loads one activity with its roles.
func (c *Client) FetchActivity(ctx context.Context, activityID string) (*models.Activity, error) {
	var activity models.Activity
	path := fmt.Sprintf("/api/activities/%s/", activityID)
	if err := c.do(ctx, http.MethodGet, path, nil, &activity); err != nil {
		return nil, err
	}
	return &activity, nil
}

// FetchRecords loads the full attendance snapshot for an activity.
func (c *Client) FetchRecords(ctx context.Context, activityID string) ([]models.AttendanceRecord, error) {
	var records []models.AttendanceRecord
	path := fmt.Sprintf("/api/activities/%s/rsvps/", activityID)
	if err := c.do(ctx, http.MethodGet, path, nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// ApplyTransition posts one sign-in or sign-out to a record.
func (c *Client) ApplyTransition(ctx context.Context, recordID string, req dto.TransitionRequest) (*dto.TransitionResponse, error) {
	var res dto.TransitionResponse
	path := fmt.Sprintf("/api/attendance/%s/", recordID)
	if err := c.do(ctx, http.MethodPost, path, req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// BulkSignout closes every open record of the activity at its end time.
func (c *Client) BulkSignout(ctx context.Context, activityID string) (*dto.BulkSignoutResponse, error) {
	var res dto.BulkSignoutResponse
	path := fmt.Sprintf("/api/activities/%s/bulk_signout/", activityID)
	if err := c.do(ctx, http.MethodPost, path, struct{}{}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, dest interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &APIError{Kind: KindNetwork, Message: fmt.Sprintf("encode request: %v", err)}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &APIError{Kind: KindNetwork, Message: fmt.Sprintf("build request: %v", err)}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}
	if method != http.MethodGet && c.csrfToken != "" {
		req.Header.Set("X-CSRF-Token", c.csrfToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("hub request failed", zap.String("path", path), zap.Error(err))
		return &APIError{Kind: KindNetwork, Message: fmt.Sprintf("request %s: %v", path, err)}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{Kind: KindNetwork, Status: resp.StatusCode, Message: fmt.Sprintf("read response: %v", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.classify(resp.StatusCode, raw)
	}

	if dest == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return &APIError{Kind: KindNetwork, Status: resp.StatusCode, Message: fmt.Sprintf("decode response: %v", err)}
	}
	return nil
}

// classify maps one failure body to an error kind. The message stays exactly
// as the server sent it.
func (c *Client) classify(status int, raw []byte) *APIError {
	message := strings.TrimSpace(string(raw))
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != "" {
		message = body.Error
	}
	if message == "" {
		message = http.StatusText(status)
	}

	kind := KindRejected
	switch {
	case status == http.StatusNotFound:
		kind = KindNotFound
	case strings.Contains(message, "This event is on"):
		kind = KindDateMismatch
	case strings.Contains(message, "starts at"):
		kind = KindTooEarly
	case status >= 500:
		kind = KindNetwork
	}
	return &APIError{Kind: kind, Status: status, Message: message}
}
