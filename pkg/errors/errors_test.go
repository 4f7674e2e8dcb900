package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeUnsupportedKind, "cannot classify %s", "chan int")

	if err.Code != ErrCodeUnsupportedKind {
		t.Errorf("Code = %q, want %q", err.Code, ErrCodeUnsupportedKind)
	}
	if err.Message != "cannot classify chan int" {
		t.Errorf("Message = %q", err.Message)
	}
	if !strings.Contains(err.Error(), "UNSUPPORTED_KIND") {
		t.Errorf("Error() = %q, want code prefix", err.Error())
	}
}

func TestWrap(t *testing.T) {
	cause := fmt.Errorf("no such package")
	err := Wrap(ErrCodeImportFailure, cause, "load %s", "pkg/missing")

	if !stderrors.Is(err, cause) {
		t.Error("wrapped error should match cause via errors.Is")
	}
	if !strings.Contains(err.Error(), "no such package") {
		t.Errorf("Error() = %q, want cause included", err.Error())
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code Code
		want bool
	}{
		{"matching code", New(ErrCodeMissingReference, "x"), ErrCodeMissingReference, true},
		{"different code", New(ErrCodeMissingReference, "x"), ErrCodeMissingSource, false},
		{"wrapped structured error", fmt.Errorf("outer: %w", New(ErrCodeDuplicateRegistration, "x")), ErrCodeDuplicateRegistration, true},
		{"plain error", fmt.Errorf("plain"), ErrCodeInternal, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.want {
				t.Errorf("Is() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(New(ErrCodeOutputExists, "x")); got != ErrCodeOutputExists {
		t.Errorf("GetCode() = %q, want %q", got, ErrCodeOutputExists)
	}
	if got := GetCode(fmt.Errorf("plain")); got != "" {
		t.Errorf("GetCode(plain) = %q, want empty", got)
	}
}

func TestUserMessage(t *testing.T) {
	err := New(ErrCodeConfiguration, "scope prefix must extend the domain")
	if got := UserMessage(err); got != "scope prefix must extend the domain" {
		t.Errorf("UserMessage() = %q", got)
	}
	if got := UserMessage(fmt.Errorf("plain failure")); got != "plain failure" {
		t.Errorf("UserMessage(plain) = %q", got)
	}
}
