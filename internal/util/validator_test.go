package util

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
)

func TestCustomValidations(t *testing.T) {
	v := validator.New()
	if err := RegisterValidations(v); err != nil {
		t.Fatal(err)
	}

	type request struct {
		Reason string `validate:"strNotEmpty,cmin=3,cmax=10"`
	}

	tests := []struct {
		reason  string
		wantTag string
	}{
		{"Issued in error", "cmax"},
		{"   ", "strNotEmpty"},
		{"  ab  ", "cmin"},
		{"  wrong ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.reason, func(t *testing.T) {
			err := v.Struct(request{Reason: tt.reason})
			if tt.wantTag == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			var ve validator.ValidationErrors
			if !errors.As(err, &ve) || ve[0].Tag() != tt.wantTag {
				t.Fatalf("err = %v, want tag %s", err, tt.wantTag)
			}
		})
	}
}

func TestGenerateErrorMessages(t *testing.T) {
	v := validator.New()
	if err := RegisterValidations(v); err != nil {
		t.Fatal(err)
	}

	type request struct {
		Reason string `validate:"strNotEmpty"`
	}
	got := GenerateErrorMessages(v.Struct(request{Reason: " "}), map[string]string{"Reason": "reason"})
	if len(got) != 1 || got[0].Field != "reason" {
		t.Fatalf("GenerateErrorMessages() = %+v", got)
	}

	got = GenerateErrorMessages(errors.New("boom"), "storage")
	if len(got) != 1 || got[0].Field != "storage" || got[0].Message != "boom" {
		t.Fatalf("GenerateErrorMessages() = %+v", got)
	}
}
