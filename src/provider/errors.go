package provider

import (
	"errors"
	"fmt"
)

var (
	ErrAuthFailed        = errors.New("authentication failed")
	ErrBuildNotFound     = errors.New("build not found")
	ErrRateLimited       = errors.New("rate limited")
	ErrNetworkTimeout    = errors.New("network timeout")
	ErrMalformedResponse = errors.New("malformed provider response")
)

// UserError wraps errors with user-friendly messages
type UserError struct {
	Message string
	Hint    string
	Err     error
}

func (e *UserError) Error() string {
	msg := e.Message
	if e.Hint != "" {
		msg += "\n\nHint: " + e.Hint
	}
	if e.Err != nil {
		msg += fmt.Sprintf("\n\nDetails: %v", e.Err)
	}
	return msg
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// hinter is implemented by errors that know how the user can fix them.
type hinter interface {
	Hint() string
}

// WrapError converts API errors to user-friendly messages
func WrapError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, ErrInvalidURL):
		return &UserError{
			Message: "Invalid build URL",
			Hint:    "Supported formats:\n  - https://travis-ci.org/owner/repo/builds/123\n  - https://travis-ci.com/owner/repo/builds/123",
			Err:     err,
		}

	case errors.Is(err, ErrAuthFailed):
		return &UserError{
			Message: "Authentication failed",
			Hint:    "Check that TRAVIS_TOKEN is valid and has access to the repository.",
			Err:     err,
		}

	case errors.Is(err, ErrBuildNotFound):
		return &UserError{
			Message: "Build not found",
			Hint:    "Check that the owner, repository and build ID are correct and you have access to the repository.",
			Err:     err,
		}

	case errors.Is(err, ErrRateLimited):
		return &UserError{
			Message: "Rate limited by the CI provider",
			Hint:    "Wait a minute and try again, or set TRAVIS_TOKEN for a higher limit.",
			Err:     err,
		}
	}

	var h hinter
	if errors.As(err, &h) {
		return &UserError{
			Message: "No GitHub account configured",
			Hint:    h.Hint(),
			Err:     err,
		}
	}

	return err
}
