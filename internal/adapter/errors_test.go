package adapter

import (
	"errors"
	"testing"

	"model-emulator/internal/model"
	"model-emulator/internal/provider"
)

func TestErrorResponse_Explicit(t *testing.T) {
	result := ErrorResponse(errors.New("Test"), 400, "invalid_request_error")

	if result.StatusCode != 400 {
		t.Errorf("expected status 400, got %d", result.StatusCode)
	}
	body, ok := result.Body.(model.ErrorResponse)
	if !ok {
		t.Fatalf("expected ErrorResponse body, got %T", result.Body)
	}
	if body.Error.Message != "Test" {
		t.Errorf("expected message Test, got %q", body.Error.Message)
	}
	if body.Error.Type != "invalid_request_error" {
		t.Errorf("expected type invalid_request_error, got %q", body.Error.Type)
	}
	if body.Error.Code != nil {
		t.Errorf("expected nil code, got %q", *body.Error.Code)
	}
}

func TestErrorResponse_Defaults(t *testing.T) {
	result := ErrorResponse(errors.New("X"), 0, "")

	if result.StatusCode != 500 {
		t.Errorf("expected default status 500, got %d", result.StatusCode)
	}
	body := result.Body.(model.ErrorResponse)
	if body.Error.Type != "internal_server_error" {
		t.Errorf("expected default type, got %q", body.Error.Type)
	}
}

func TestErrorResponse_MachineCode(t *testing.T) {
	result := ErrorResponse(&provider.Error{Code: "ECONNREFUSED", Message: "connection refused"}, 503, "service_unavailable")

	body := result.Body.(model.ErrorResponse)
	if body.Error.Code == nil || *body.Error.Code != "ECONNREFUSED" {
		t.Errorf("expected code ECONNREFUSED, got %v", body.Error.Code)
	}
}

func TestErrorResponse_EmptyMessage(t *testing.T) {
	result := ErrorResponse(errors.New(""), 0, "")

	body := result.Body.(model.ErrorResponse)
	if body.Error.Message != "An error occurred" {
		t.Errorf("expected placeholder message, got %q", body.Error.Message)
	}
}
