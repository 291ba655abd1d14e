// ABOUTME: Typed API errors with sentinel kinds for errors.Is checks
// ABOUTME: Parses backend error bodies into short user-facing messages

package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Error kinds. Every error returned by Client wraps exactly one of these.
var (
	ErrAuthentication = errors.New("authentication failed")
	ErrValidation     = errors.New("invalid request")
	ErrConfig         = errors.New("configuration unavailable")
	ErrTransport      = errors.New("request failed")
)

// APIError is a failed API call.
type APIError struct {
	Kind       error
	StatusCode int // 0 when no response was received
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// handleRequestError converts context errors to user-friendly messages
func (c *Client) handleRequestError(ctx context.Context, kind, err error) error {
	msg := fmt.Sprintf("cannot connect to backend at %s: %v", c.baseURL, err)
	switch ctx.Err() {
	case context.Canceled:
		msg = "request canceled"
	case context.DeadlineExceeded:
		msg = "request timed out"
	}
	return &APIError{Kind: kind, Message: msg, Err: err}
}

// handleErrorResponse parses API error responses
func (c *Client) handleErrorResponse(resp *http.Response, kind error) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	msg := parseErrorMessage(body)
	if msg == "" {
		msg = defaultMessage(resp.StatusCode)
	}
	return &APIError{Kind: kind, StatusCode: resp.StatusCode, Message: msg}
}

func parseErrorMessage(body []byte) string {
	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil {
		return ""
	}
	if len(errResp.Detail) > 0 {
		var detail string
		if err := json.Unmarshal(errResp.Detail, &detail); err == nil {
			return detail
		}
		var issues []ValidationIssue
		if err := json.Unmarshal(errResp.Detail, &issues); err == nil && len(issues) > 0 {
			msgs := make([]string, 0, len(issues))
			for _, issue := range issues {
				msgs = append(msgs, issue.Msg)
			}
			return strings.Join(msgs, "; ")
		}
	}
	return errResp.Error
}

func defaultMessage(status int) string {
	switch status {
	case http.StatusUnauthorized:
		return "not authenticated"
	case http.StatusTooManyRequests:
		return "too many requests, try again later"
	case http.StatusUnprocessableEntity:
		return "invalid request"
	default:
		return fmt.Sprintf("backend returned status %d", status)
	}
}
