package provider

import (
	"errors"
	"fmt"
)

var ErrUnavailable = errors.New("provider: unavailable")

// DefaultErrorMessage is used when the provider's error body says nothing
// useful.
const DefaultErrorMessage = "Invite failed"

// Error is a non-2xx answer from the provider.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("provider: %d %s", e.StatusCode, e.Message)
}

// errorBody covers the different shapes GoTrue has used for errors over the
// years.
type errorBody struct {
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	ErrorDescription string `json:"error_description"`
	Error            string `json:"error"`
	ErrorCode        string `json:"error_code"`
}

func (b errorBody) message() string {
	for _, m := range []string{b.Msg, b.Message, b.ErrorDescription, b.Error} {
		if m != "" {
			return m
		}
	}
	return DefaultErrorMessage
}
