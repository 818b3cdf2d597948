package errors

import (
	stderrors "errors"
	"strings"
	"testing"
)

func TestForgeErrorFormat(t *testing.T) {
	err := New(ErrCodeBackendAPI, "backend call failed").
		WithSuggestion("Retry the request").
		WithDocs("https://github.com/felixgeelhaar/appforge#backends")

	msg := err.Error()

	if !strings.Contains(msg, "[BACKEND-004]") {
		t.Errorf("Error() = %q, want error code prefix", msg)
	}
	if !strings.Contains(msg, "Retry the request") {
		t.Errorf("Error() = %q, want suggestion", msg)
	}
	if !strings.Contains(msg, "#backends") {
		t.Errorf("Error() = %q, want docs URL", msg)
	}
}

func TestWrapUnwrap(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := Wrap(ErrCodeBackendAPI, "send request", cause)

	if !stderrors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}

	var fe *ForgeError
	if !stderrors.As(err, &fe) {
		t.Fatal("errors.As should find *ForgeError")
	}
	if fe.Code != ErrCodeBackendAPI {
		t.Errorf("Code = %s, want %s", fe.Code, ErrCodeBackendAPI)
	}
}

func TestIsCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code ErrorCode
		want bool
	}{
		{
			name: "direct match",
			err:  New(ErrCodeStreamTermination, "stream ended without result"),
			code: ErrCodeStreamTermination,
			want: true,
		},
		{
			name: "wrapped match",
			err:  Wrap(ErrCodeBackendAPI, "outer", New(ErrCodeBackendAuth, "inner")),
			code: ErrCodeBackendAuth,
			want: true,
		},
		{
			name: "no match",
			err:  New(ErrCodeTaskConfigMissing, "missing name"),
			code: ErrCodePlanEmpty,
			want: false,
		},
		{
			name: "plain error",
			err:  stderrors.New("plain"),
			code: ErrCodeBackendAPI,
			want: false,
		},
		{
			name: "nil error",
			err:  nil,
			code: ErrCodeBackendAPI,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsCode(tt.err, tt.code); got != tt.want {
				t.Errorf("IsCode() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConstructors(t *testing.T) {
	if err := NewTaskConfigMissingError("store", "name"); err.Code != ErrCodeTaskConfigMissing {
		t.Errorf("NewTaskConfigMissingError code = %s", err.Code)
	}
	if err := NewPlanDepMissingError("cart", "session"); err.Code != ErrCodePlanDepMissing {
		t.Errorf("NewPlanDepMissingError code = %s", err.Code)
	}
	if err := NewBackendAuthError("anthropic"); !strings.Contains(err.Error(), "ANTHROPIC_API_KEY") {
		t.Error("NewBackendAuthError should suggest the env variable")
	}
	if err := NewStreamTerminationError(nil); err.Message != "stream ended without result" {
		t.Errorf("NewStreamTerminationError message = %q", err.Message)
	}
}
