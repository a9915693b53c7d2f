package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"
	"google.golang.org/genai"
)

// Kind categorizes gateway failures by how the user should react
type Kind int

const (
	// KindRemote is any other remote failure or unparseable response
	KindRemote Kind = iota
	// KindConfiguration is a missing or invalid credential
	KindConfiguration
	// KindAuth is a credential the service rejected
	KindAuth
	// KindTransient is temporary unavailability
	KindTransient
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindAuth:
		return "auth"
	case KindTransient:
		return "transient"
	default:
		return "remote"
	}
}

// Error is a categorized gateway failure
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

const (
	authMessage      = "API auth error: please check your API key configuration."
	transientMessage = "AI is busy. Please wait a moment and try again."
)

// UserMessage returns the text shown to the user for err
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var gerr *Error
	if !errors.As(err, &gerr) {
		return "Error: " + err.Error()
	}
	switch gerr.Kind {
	case KindConfiguration:
		return gerr.Err.Error()
	case KindAuth:
		return authMessage
	case KindTransient:
		return transientMessage
	default:
		return "Error: " + gerr.Err.Error()
	}
}

// IsKind reports whether err is a gateway error of kind k
func IsKind(err error, k Kind) bool {
	var gerr *Error
	return errors.As(err, &gerr) && gerr.Kind == k
}

// Classify wraps err into an *Error for op. Errors that already carry a kind
// are returned unchanged.
func Classify(op string, err error) *Error {
	if err == nil {
		return nil
	}
	var gerr *Error
	if errors.As(err, &gerr) {
		return gerr
	}
	return &Error{Kind: classify(err), Op: op, Err: err}
}

func classify(err error) Kind {
	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, gobreaker.ErrOpenState),
		errors.Is(err, gobreaker.ErrTooManyRequests):
		return KindTransient
	case errors.Is(err, context.Canceled):
		return KindRemote
	}

	var genaiErr genai.APIError
	if errors.As(err, &genaiErr) {
		if k, ok := kindForStatus(genaiErr.Code); ok {
			return k
		}
	}
	var openaiErr *openai.APIError
	if errors.As(err, &openaiErr) {
		if k, ok := kindForStatus(openaiErr.HTTPStatusCode); ok {
			return k
		}
	}
	var requestErr *openai.RequestError
	if errors.As(err, &requestErr) {
		if k, ok := kindForStatus(requestErr.HTTPStatusCode); ok {
			return k
		}
	}

	return kindForMessage(err.Error())
}

func kindForStatus(code int) (Kind, bool) {
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindAuth, true
	case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return KindTransient, true
	case 0:
		return KindRemote, false
	default:
		return KindRemote, true
	}
}

func kindForMessage(msg string) Kind {
	lower := strings.ToLower(msg)
	for _, s := range []string{"401", "403", "permission denied", "permission_denied", "api key not valid", "invalid api key", "unauthenticated"} {
		if strings.Contains(lower, s) {
			return KindAuth
		}
	}
	for _, s := range []string{"429", "500", "503", "unavailable", "overloaded", "resource_exhausted", "deadline exceeded", "timeout"} {
		if strings.Contains(lower, s) {
			return KindTransient
		}
	}
	return KindRemote
}

// remoteError marks a response the gateway could not use
func remoteError(op, format string, args ...any) *Error {
	return &Error{Kind: KindRemote, Op: op, Err: fmt.Errorf(format, args...)}
}
