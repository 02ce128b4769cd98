package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestErrorInterface(t *testing.T) {
	err := NewAccess("/tmp/missing.nc", "file does not exist")
	msg := err.Error()
	if !strings.Contains(msg, "ACCESS") {
		t.Errorf("Error() = %q, want code in message", msg)
	}
	if !strings.Contains(msg, "/tmp/missing.nc") {
		t.Errorf("Error() = %q, want path in message", msg)
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code ErrorCode
		want bool
	}{
		{"matching access", NewAccess("a.nc", "empty"), ErrAccess, true},
		{"wrong code", NewAccess("a.nc", "empty"), ErrValidation, false},
		{"validation match", NewValidation("no command lines"), ErrValidation, true},
		{"plain error", errors.New("boom"), ErrInternal, false},
		{"nil error", nil, ErrAccess, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.want {
				t.Errorf("Is() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewInternal_NilError(t *testing.T) {
	err := NewInternal(nil)
	if err.Message != "internal error" {
		t.Errorf("Message = %q, want fallback message", err.Message)
	}
	if err.Status != 500 {
		t.Errorf("Status = %d, want 500", err.Status)
	}
}

func TestAccessDetails(t *testing.T) {
	err := NewAccess("in.nc", "empty file")
	if err.Details["path"] != "in.nc" {
		t.Errorf("Details[path] = %v, want in.nc", err.Details["path"])
	}
	if err.Details["reason"] != "empty file" {
		t.Errorf("Details[reason] = %v, want reason", err.Details["reason"])
	}
}
