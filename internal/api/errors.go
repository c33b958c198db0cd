package api

import "github.com/pkg/errors"

var (
	ErrInvalidRequest = errors.New("invalid_request")
	ErrSearchFailed   = errors.New("search_failed")
)

type invalidRequestError struct {
	msg   string
	param string
}

func (e invalidRequestError) Error() string {
	return e.msg
}

func (e invalidRequestError) Unwrap() error {
	return ErrInvalidRequest
}

func newInvalidRequest(param, msg string) error {
	return invalidRequestError{msg: msg, param: param}
}

// searchError carries the diagnostic of a failed search invariant.
type searchError struct {
	cause error
}

func (e searchError) Error() string {
	return "beam search failed: " + e.cause.Error()
}

func (e searchError) Unwrap() error {
	return ErrSearchFailed
}
