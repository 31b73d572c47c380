package main

import (
	"path/filepath"
	"testing"
)

func TestBudgetFor(t *testing.T) {
	inbox := filepath.Join("srv", "inbox")
	cases := []struct {
		path string
		want string
	}{
		{filepath.Join(inbox, "oferta.pdf"), "inbox"},
		{filepath.Join(inbox, "obra-42", "oferta.pdf"), "obra-42"},
		{filepath.Join(inbox, "obra-42", "anexos", "scan.png"), "obra-42"},
	}
	for _, tc := range cases {
		if got := budgetFor(inbox, tc.path); got != tc.want {
			t.Errorf("budgetFor(%s) = %q, want %q", tc.path, got, tc.want)
		}
	}
}
