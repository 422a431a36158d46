package models

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyInput         = errors.New("empty input")
	ErrTransportFailure   = errors.New("transport failure")
	ErrRemote             = errors.New("remote error")
	ErrMalformedResponse  = errors.New("malformed response")
	ErrHistoryUnavailable = errors.New("history unavailable")
	ErrSubmissionInFlight = errors.New("submission already in flight")
	ErrNotFound           = errors.New("not found")
	ErrDeleteFailed       = errors.New("delete failed")
	ErrNotConfirmed       = errors.New("not confirmed")
)

const (
	MsgEmptyInput         = "Please enter some text to analyze."
	MsgTransportFailure   = "Could not reach the sentiment service. Please try again."
	MsgMalformedResponse  = "The sentiment service returned an unexpected response."
	MsgHistoryUnavailable = "Error loading history"
	MsgDeleteFailed       = "Failed to delete analysis. Please try again."
	MsgClearFailed        = "Failed to clear history. Please try again."
	MsgSubmissionInFlight = "An analysis is already running."
	MsgNotFound           = "That analysis could not be found."
)

// RemoteError is a non-success status returned by the remote service.
type RemoteError struct {
	StatusCode int
	Status     string
	Detail     string
}

func (e *RemoteError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("response error: %s: %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("response error: %s", e.Status)
}

func (e *RemoteError) Is(target error) bool { return target == ErrRemote }

// UserMessage turns an error from the core into the sentence shown to the
// user. Raw errors never reach the presentation layer.
func UserMessage(err error) string {
	var remote *RemoteError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmptyInput):
		return MsgEmptyInput
	case errors.Is(err, ErrSubmissionInFlight):
		return MsgSubmissionInFlight
	case errors.Is(err, ErrMalformedResponse):
		return MsgMalformedResponse
	case errors.Is(err, ErrHistoryUnavailable):
		return MsgHistoryUnavailable
	case errors.Is(err, ErrDeleteFailed):
		return MsgDeleteFailed
	case errors.Is(err, ErrNotFound):
		return MsgNotFound
	case errors.As(err, &remote):
		return fmt.Sprintf("Analysis failed: %s", remote.Status)
	case errors.Is(err, ErrTransportFailure):
		return MsgTransportFailure
	default:
		return "Something went wrong. Please try again."
	}
}
