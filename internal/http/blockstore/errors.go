package blockstore

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

type (
	// nodeError is the JSON error body the node API returns on
	// non-OK responses.
	nodeError struct {
		Message string `json:"Message"`
		Code    int    `json:"Code"`
	}

	// UnreachableError indicates the node could not be contacted at
	// all (connection refused, DNS failure, timeout).
	UnreachableError struct {
		cause error
	}

	// FailedRequestError indicates the node was reachable but
	// rejected the request.
	FailedRequestError struct {
		httpCode int
		message  string
	}

	UnknownRequestError struct {
		reason string
	}
)

func (err *UnreachableError) Error() string {
	return fmt.Sprintf("block store unreachable: %s", err.cause.Error())
}

func (err *UnreachableError) Unwrap() error {
	return err.cause
}

func (err *FailedRequestError) Error() string {
	return fmt.Sprintf("block store request failed (HTTP %d): %s", err.httpCode, err.message)
}

func (err *FailedRequestError) StatusCode() int {
	return err.httpCode
}

func (err *UnknownRequestError) Error() string {
	return fmt.Sprintf("block store request failed: %s", err.reason)
}

// newFailedRequestError drains the response body looking for the
// node's structured error message, falling back to the raw body.
func newFailedRequestError(resp *http.Response) *FailedRequestError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var nodeErr nodeError
	if err := json.Unmarshal(raw, &nodeErr); err == nil && nodeErr.Message != "" {
		return &FailedRequestError{httpCode: resp.StatusCode, message: nodeErr.Message}
	}

	return &FailedRequestError{httpCode: resp.StatusCode, message: string(raw)}
}
