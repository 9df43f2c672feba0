package app

import (
	"errors"
	"net/http"

	goerrors "github.com/goliatone/go-errors"
)

// Text codes attached to every error produced by this package.
const (
	CodeInvalidInput     = "INVALID_INPUT"
	CodeInvalidPayload   = "INVALID_EVENT_PAYLOAD"
	CodeNotConfigured    = "SLACK_URL_NOT_CONFIGURED"
	CodeInvalidSlackURL  = "SLACK_URL_INVALID"
	CodeTransportFailure = "SLACK_TRANSPORT"
)

// Fixed results returned to the invoker for soft failures.
const (
	ResultInvalidInput   = "Invalid input"
	ResultInvalidPayload = "Invalid event payload"
	ResultNotConfigured  = "Slack URL not configured"
)

var errInvalidJSON = errors.New("invalid JSON")

var softResults = map[string]string{
	CodeInvalidInput:   ResultInvalidInput,
	CodeInvalidPayload: ResultInvalidPayload,
	CodeNotConfigured:  ResultNotConfigured,
}

func invalidInputError(source error) error {
	return goerrors.Wrap(source, goerrors.CategoryBadInput, "decode event: invalid JSON").
		WithCode(http.StatusBadRequest).
		WithTextCode(CodeInvalidInput)
}

func invalidPayloadError(message string, source error) error {
	if source == nil {
		return goerrors.New(message, goerrors.CategoryValidation).
			WithCode(http.StatusUnprocessableEntity).
			WithTextCode(CodeInvalidPayload)
	}
	return goerrors.Wrap(source, goerrors.CategoryValidation, message).
		WithCode(http.StatusUnprocessableEntity).
		WithTextCode(CodeInvalidPayload)
}

func notConfiguredError() error {
	return goerrors.New("SLACK_URL is not defined in environment variables", goerrors.CategoryInternal).
		WithCode(http.StatusInternalServerError).
		WithTextCode(CodeNotConfigured)
}

func invalidSlackURLError(source error) error {
	if source == nil {
		return goerrors.New("slack: invalid webhook url", goerrors.CategoryInternal).
			WithCode(http.StatusInternalServerError).
			WithTextCode(CodeInvalidSlackURL)
	}
	return goerrors.Wrap(source, goerrors.CategoryInternal, "slack: invalid webhook url").
		WithCode(http.StatusInternalServerError).
		WithTextCode(CodeInvalidSlackURL)
}

func transportError(source error, host string) error {
	err := goerrors.Wrap(source, goerrors.CategoryExternal, "slack: request failed").
		WithCode(http.StatusBadGateway).
		WithTextCode(CodeTransportFailure)
	if host != "" {
		err.WithMetadata(map[string]any{"host": host})
	}
	return err
}

// TextCode returns the text code of err, or "" when err was not produced here.
func TextCode(err error) string {
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		return ""
	}
	return rich.TextCode
}

// StatusCode returns the HTTP status attached to err, or 500.
func StatusCode(err error) int {
	var rich *goerrors.Error
	if goerrors.As(err, &rich) && rich.Code > 0 {
		return rich.Code
	}
	return http.StatusInternalServerError
}

// SoftResult returns the fixed result string for soft failures.
func SoftResult(err error) (string, bool) {
	result, ok := softResults[TextCode(err)]
	return result, ok
}

// IsSoft reports whether err is reported to the invoker as a result string
// rather than as a failed invocation.
func IsSoft(err error) bool {
	_, ok := SoftResult(err)
	return ok
}
