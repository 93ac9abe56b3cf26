package adapter

import (
	"errors"
	"net/http"

	"model-emulator/internal/model"
	"model-emulator/internal/provider"
)

// ValidationError is a request rejection that already knows its HTTP
// status and OpenAI error type. The handler surfaces it verbatim,
// bypassing the classifier.
type ValidationError struct {
	Message    string
	StatusCode int
	Type       string
}

func (e *ValidationError) Error() string { return e.Message }

func invalidRequest(message string) *ValidationError {
	return &ValidationError{
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Type:       "invalid_request_error",
	}
}

// Result is the outcome of handling a completion request: an HTTP
// status plus a JSON-serializable body.
type Result struct {
	StatusCode int
	Body       any
}

// ErrorResponse builds the OpenAI error envelope for err. A zero
// statusCode defaults to 500 and an empty errType to
// internal_server_error. The envelope's code field carries the
// backend's machine code when the failure has one, and null otherwise.
func ErrorResponse(err error, statusCode int, errType string) Result {
	if statusCode == 0 {
		statusCode = http.StatusInternalServerError
	}
	if errType == "" {
		errType = "internal_server_error"
	}

	message := ""
	if err != nil {
		message = err.Error()
	}
	if message == "" {
		message = "An error occurred"
	}

	var code *string
	var backendErr *provider.Error
	if errors.As(err, &backendErr) && backendErr.Code != "" {
		code = &backendErr.Code
	}

	return Result{
		StatusCode: statusCode,
		Body: model.ErrorResponse{
			Error: model.ErrorDetail{
				Message: message,
				Type:    errType,
				Code:    code,
			},
		},
	}
}
