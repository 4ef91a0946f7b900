package util

import (
	"strings"
	"testing"
)

func TestGenerateVerificationToken(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		tok, err := GenerateVerificationToken()
		if err != nil {
			t.Fatalf("GenerateVerificationToken() error = %v", err)
		}
		if len(tok) != 64 {
			t.Fatalf("token length = %d, want 64", len(tok))
		}
		if !IsWellFormedToken(tok) {
			t.Fatalf("generated token %q is not well formed", tok)
		}
		if seen[tok] {
			t.Fatalf("duplicate token %q", tok)
		}
		seen[tok] = true
	}
}

func TestGenerateCertificateNumber(t *testing.T) {
	got, err := GenerateCertificateNumber("EICR")
	if err != nil {
		t.Fatalf("GenerateCertificateNumber() error = %v", err)
	}
	if !strings.HasPrefix(got, "EICR-") || len(got) != len("EICR-")+10 {
		t.Fatalf("GenerateCertificateNumber() = %q", got)
	}
	if strings.ContainsAny(got[5:], "01IO") {
		t.Fatalf("number %q contains ambiguous characters", got)
	}
}

func TestIsWellFormedToken(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  bool
	}{
		{"64 hex", strings.Repeat("a1", 32), true},
		{"48 hex", strings.Repeat("f", 48), true},
		{"too short", strings.Repeat("a", 47), false},
		{"uppercase", strings.Repeat("A", 64), false},
		{"non hex", strings.Repeat("g", 64), false},
		{"path chars", strings.Repeat("a", 60) + "../x", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsWellFormedToken(tt.token); got != tt.want {
				t.Errorf("IsWellFormedToken(%q) = %v, want %v", tt.token, got, tt.want)
			}
		})
	}
}
