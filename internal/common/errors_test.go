package common

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestIsFatal(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"not found", NewAppError(CodeNotFound, "a.pdf", ErrNotFound), true},
		{"too large", NewAppError(CodeTooLarge, "a.pdf", ErrTooLarge), true},
		{"unsupported", NewAppError(CodeUnsupported, "a.xls", ErrUnsupported), true},
		{"corrupt wrapped", WrapError(NewAppError(CodeCorrupt, "a.docx", fmt.Errorf("%w: zip", ErrCorrupt)), "load"), true},
		{"database", NewAppError(CodeDatabase, "insert", ErrDatabase), false},
		{"cancelled", context.Canceled, false},
		{"nil", nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsFatal(tc.err); got != tc.want {
				t.Fatalf("IsFatal(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestAppErrorFormatting(t *testing.T) {
	err := NewAppError(CodeTooLarge, "obra.pdf", ErrTooLarge)
	if got := err.Error(); got != "TOO_LARGE: obra.pdf: document exceeds size ceiling" {
		t.Fatalf("Error() = %q", got)
	}
	if !errors.Is(err, ErrTooLarge) {
		t.Fatal("AppError must unwrap to its cause")
	}
	if WrapError(nil, "x") != nil {
		t.Fatal("WrapError(nil) must be nil")
	}
}
