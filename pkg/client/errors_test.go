package client

import (
	"errors"
	"fmt"
	"testing"
)

func TestShouldRetry(t *testing.T) {
	tests := []struct {
		name       string
		errorClass ErrorClass
		expected   bool
	}{
		{
			name:       "client error should not retry",
			errorClass: ErrorClassClient,
			expected:   false,
		},
		{
			name:       "server error should retry",
			errorClass: ErrorClassServer,
			expected:   true,
		},
		{
			name:       "rate limit should retry",
			errorClass: ErrorClassRateLimit,
			expected:   true,
		},
		{
			name:       "network error should retry",
			errorClass: ErrorClassNetwork,
			expected:   true,
		},
		{
			name:       "decode error should not retry",
			errorClass: ErrorClassDecode,
			expected:   false,
		},
		{
			name:       "empty error class should not retry",
			errorClass: "",
			expected:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := shouldRetry(tt.errorClass)
			if result != tt.expected {
				t.Errorf("shouldRetry(%q) = %v, want %v", tt.errorClass, result, tt.expected)
			}
		})
	}
}

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status int
		want   ErrorClass
	}{
		{400, ErrorClassClient},
		{404, ErrorClassClient},
		{429, ErrorClassRateLimit},
		{500, ErrorClassServer},
		{503, ErrorClassServer},
	}

	for _, tt := range tests {
		if got := classifyStatus(tt.status); got != tt.want {
			t.Errorf("classifyStatus(%d) = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestUpstreamError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *UpstreamError
		expected string
	}{
		{
			name: "error with wrapped error",
			err: &UpstreamError{
				Tag:        "tech",
				StatusCode: 0,
				ErrorClass: ErrorClassNetwork,
				Message:    "request failed",
				Err:        errors.New("connection refused"),
			},
			expected: `upstream network error (tag "tech", status 0): request failed: connection refused`,
		},
		{
			name: "error without wrapped error",
			err: &UpstreamError{
				Tag:        "science",
				StatusCode: 503,
				ErrorClass: ErrorClassServer,
				Message:    "503 Service Unavailable",
			},
			expected: `upstream server error (tag "science", status 503): 503 Service Unavailable`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestUpstreamError_Unwrap(t *testing.T) {
	inner := errors.New("inner")
	err := fmt.Errorf("wrapped: %w", &UpstreamError{ErrorClass: ErrorClassDecode, Err: inner})

	if !errors.Is(err, inner) {
		t.Error("errors.Is should reach the wrapped cause")
	}
	if got := classOf(err); got != ErrorClassDecode {
		t.Errorf("classOf() = %q, want %q", got, ErrorClassDecode)
	}
	if got := classOf(errors.New("plain")); got != "" {
		t.Errorf("classOf(plain) = %q, want empty", got)
	}
}
