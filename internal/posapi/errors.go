package posapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
)

var (
	ErrMissingToken      = errors.New("pos api token is required")
	ErrEmptyBarcode      = errors.New("barcode is empty")
	ErrInvalidRequest    = errors.New("invalid request")
	ErrTransport         = errors.New("pos api unreachable")
	ErrMalformedResponse = errors.New("malformed pos api response")

	ErrBadRequest   = errors.New("pos api bad request")
	ErrUnauthorized = errors.New("pos api unauthorized")
	ErrNotFound     = errors.New("pos api not found")
	ErrRateLimited  = errors.New("pos api rate limited")
	ErrClient       = errors.New("pos api client error")
	ErrServer       = errors.New("pos api server error")
)

// APIError is a non-success response, kept as the server sent it.
// errors.Is matches it against the status class sentinels above.
type APIError struct {
	StatusCode int
	Status     string
	Body       string
	Detail     string
}

func (e *APIError) Error() string {
	switch {
	case e.Detail != "":
		return fmt.Sprintf("pos api error: %s: %s", e.Status, e.Detail)
	case e.Body != "":
		return fmt.Sprintf("pos api error: %s: %s", e.Status, e.Body)
	default:
		return fmt.Sprintf("pos api error: %s", e.Status)
	}
}

func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusBadRequest:
		return ErrBadRequest
	case e.StatusCode == http.StatusUnauthorized, e.StatusCode == http.StatusForbidden:
		return ErrUnauthorized
	case e.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case e.StatusCode == http.StatusTooManyRequests:
		return ErrRateLimited
	case e.StatusCode >= 500:
		return ErrServer
	default:
		return ErrClient
	}
}

func apiErrorFromResponse(resp *resty.Response) error {
	body := strings.TrimSpace(resp.String())
	return &APIError{
		StatusCode: resp.StatusCode(),
		Status:     resp.Status(),
		Body:       body,
		Detail:     errorDetail(body),
	}
}

// errorDetail extracts the message from bodies shaped {"error": "..."} or
// {"detail": "..."}.
func errorDetail(body string) string {
	if !strings.HasPrefix(body, "{") {
		return ""
	}
	var payload struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return ""
	}
	if payload.Error != "" {
		return payload.Error
	}
	return payload.Detail
}
