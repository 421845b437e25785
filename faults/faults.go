package faults

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a pipeline failure. The analyzer's fallback loop and the
// HTTP layer both dispatch on it, so new kinds need an entry in each table
// below.
type Kind string

const (
	MissingCredential   Kind = "missing_credential"
	InvalidCredential   Kind = "invalid_credential"
	RateLimited         Kind = "rate_limited"
	InvalidRequest      Kind = "invalid_request"
	ProviderUnavailable Kind = "provider_unavailable"
	RequestTimeout      Kind = "request_timeout"
	ImageLoad           Kind = "image_load"
	FormatUnsupported   Kind = "format_unsupported"
	MalformedResponse   Kind = "malformed_response"
	NoItemsDetected     Kind = "no_items_detected"
	EmptyTranscript     Kind = "empty_transcript"
	Unknown             Kind = "unknown"
)

// Error carries a failure kind plus detail that is meant for logs, not for
// end users. User-facing text comes from UserMessage.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a classified error with a formatted detail message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies an underlying error while keeping it available for
// errors.Is/errors.As chains.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the classification of err, or Unknown for errors that did
// not originate in this module.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return Unknown
}

// Retryable reports whether a failure of this kind may succeed against a
// different vision model or on a later attempt. InvalidCredential is
// deliberately excluded: the credential is not model-specific.
func Retryable(k Kind) bool {
	switch k {
	case RateLimited, InvalidRequest, ProviderUnavailable, RequestTimeout:
		return true
	}
	return false
}

// HTTPStatus maps a failure kind to the status the HTTP surface responds
// with. Provider-side trouble maps to gateway statuses so clients can tell
// their own mistakes apart from upstream ones.
func HTTPStatus(k Kind) int {
	switch k {
	case MissingCredential:
		return http.StatusUnprocessableEntity
	case InvalidCredential:
		return http.StatusUnauthorized
	case RateLimited:
		return http.StatusTooManyRequests
	case InvalidRequest, ImageLoad, FormatUnsupported:
		return http.StatusBadRequest
	case RequestTimeout:
		return http.StatusGatewayTimeout
	case ProviderUnavailable, MalformedResponse:
		return http.StatusBadGateway
	case NoItemsDetected, EmptyTranscript:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// UserMessage returns the end-user explanation and an actionable hint for a
// failure kind. Raw provider error text never goes through here; it stays in
// the logs.
func UserMessage(k Kind) (message, hint string) {
	switch k {
	case MissingCredential:
		return "No API key is configured.", "Add your OpenAI API key in settings and try again."
	case InvalidCredential:
		return "The API key was rejected.", "Check that the key in settings is valid and active."
	case RateLimited:
		return "The analysis service is busy right now.", "Wait a moment and try again."
	case InvalidRequest:
		return "The analysis service rejected this input.", "Try a smaller photo, or describe the meal by text."
	case ProviderUnavailable:
		return "The analysis service is unavailable.", "Try again in a few minutes."
	case RequestTimeout:
		return "The analysis took too long and was cancelled.", "Try again, or describe the meal by text."
	case ImageLoad:
		return "The photo could not be read.", "Retake the photo or pick a different one."
	case FormatUnsupported:
		return "This photo format is not supported.", "Convert the photo to JPEG and try again."
	case MalformedResponse:
		return "The analysis came back in an unexpected shape.", "Try again, or describe the meal by text."
	case NoItemsDetected:
		return "No food was detected.", "Try a clearer photo, or describe the meal by text."
	case EmptyTranscript:
		return "Nothing was heard in the recording.", "Record again closer to the microphone, or type the meal."
	default:
		return "Something went wrong during analysis.", "Please try again."
	}
}
