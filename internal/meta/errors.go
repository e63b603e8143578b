package meta

import (
	"errors"
	"fmt"
)

// Graph API error codes that indicate rate limiting or temporary throttling.
// See the Marketing API rate limiting documentation for the full list.
const (
	ErrCodeTooManyCalls        = 4   // Application request limit reached
	ErrCodeUserTooManyCalls    = 17  // User request limit reached
	ErrCodePageTooManyCalls    = 32  // Page request limit reached
	ErrCodeAdAccountRateLimit  = 613 // Calls to this ad account exceed the rate limit
	ErrCodeInvalidToken        = 190 // Access token expired or invalidated
	ErrCodePermission          = 200 // Permission errors start at 200
	ErrCodeTemporarilyBlocked  = 368 // Temporarily blocked for policy violations
	ErrSubcodeTokenExpired     = 463
	ErrSubcodeTokenInvalidated = 460
)

// GraphError is the error envelope returned by the Graph API.
//
// It is decoded from responses of the form:
//
//	{"error": {"message": "...", "type": "OAuthException", "code": 190,
//	           "error_subcode": 463, "fbtrace_id": "..."}}
type GraphError struct {
	Message      string `json:"message"`
	Type         string `json:"type"`
	Code         int    `json:"code"`
	ErrorSubcode int    `json:"error_subcode,omitempty"`
	FBTraceID    string `json:"fbtrace_id,omitempty"`

	// HTTPStatus is the HTTP status code of the response carrying the error.
	HTTPStatus int `json:"-"`
}

// Error implements the error interface.
func (e *GraphError) Error() string {
	if e.ErrorSubcode != 0 {
		return fmt.Sprintf("graph API error %d (subcode %d, %s): %s [fbtrace_id: %s]",
			e.Code, e.ErrorSubcode, e.Type, e.Message, e.FBTraceID)
	}
	return fmt.Sprintf("graph API error %d (%s): %s [fbtrace_id: %s]",
		e.Code, e.Type, e.Message, e.FBTraceID)
}

// IsRateLimited reports whether the error indicates API throttling.
func (e *GraphError) IsRateLimited() bool {
	switch e.Code {
	case ErrCodeTooManyCalls, ErrCodeUserTooManyCalls, ErrCodePageTooManyCalls, ErrCodeAdAccountRateLimit:
		return true
	}
	return e.HTTPStatus == 429
}

// IsAuthError reports whether the error indicates an invalid or expired token.
func (e *GraphError) IsAuthError() bool {
	return e.Code == ErrCodeInvalidToken || e.Type == "OAuthException"
}

// IsRetryable reports whether a request that produced this error may be retried.
// Rate limit errors and server-side failures are retryable, application errors
// are not.
func (e *GraphError) IsRetryable() bool {
	if e.IsRateLimited() {
		return true
	}
	return e.HTTPStatus >= 500
}

// AsGraphError returns the GraphError wrapped in err, if any.
func AsGraphError(err error) (*GraphError, bool) {
	var ge *GraphError
	if errors.As(err, &ge) {
		return ge, true
	}
	return nil, false
}

// IsRateLimited reports whether err wraps a rate limit GraphError.
func IsRateLimited(err error) bool {
	if ge, ok := AsGraphError(err); ok {
		return ge.IsRateLimited()
	}
	return false
}

// IsAuthError reports whether err wraps an authentication GraphError.
func IsAuthError(err error) bool {
	if ge, ok := AsGraphError(err); ok {
		return ge.IsAuthError()
	}
	return false
}
