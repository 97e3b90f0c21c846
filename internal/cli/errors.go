package cli

import (
	"errors"

	"molle_pos/internal/posapi"
)

// userError carries a short message for the terminal while keeping the
// original error reachable through errors.Is/As.
type userError struct {
	message string
	err     error
}

func (e *userError) Error() string {
	return e.message
}

func (e *userError) Unwrap() error {
	return e.err
}

func friendlyError(err error) error {
	message := friendlyMessage(err)
	if message == "" {
		return err
	}
	return &userError{message: message, err: err}
}

func friendlyMessage(err error) string {
	var apiErr *posapi.APIError
	detail := ""
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		detail = ": " + apiErr.Detail
	}

	switch {
	case errors.Is(err, posapi.ErrMissingToken):
		return "No access: pass -token, set AUTH_TOKEN or save it with `prefs set auth_token TOKEN`."
	case errors.Is(err, posapi.ErrUnauthorized):
		return "No access: the token is invalid or lacks permission" + detail + "."
	case errors.Is(err, posapi.ErrNotFound):
		return "Not found" + detail + "."
	case errors.Is(err, posapi.ErrBadRequest):
		return "The server rejected the request" + detail + "."
	case errors.Is(err, posapi.ErrRateLimited):
		return "Too many requests. Try again later."
	case errors.Is(err, posapi.ErrServer):
		return "The server failed to handle the request. Try again later."
	case errors.Is(err, posapi.ErrTransport):
		return "Cannot reach the POS server: " + err.Error()
	default:
		return ""
	}
}
