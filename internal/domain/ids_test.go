package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestValidateIdentifier(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"mp-149", "mp-149", false},
		{"MP-149", "mp-149", false},
		{" mvc-12 ", "mvc-12", false},
		{"mp-149_GGA", "mp-149_GGA", false},
		{"mp-149-GGA+U", "mp-149-GGA+U", false},
		{"mp-abcd", "mp-abcd", false},
		{"", "", true},
		{"149", "", true},
		{"mp_149", "", true},
		{"mp-", "", true},
		{"mp-14 9", "", true},
	}
	for _, tc := range tests {
		got, err := ValidateIdentifier(tc.in)
		if tc.wantErr {
			if !errors.Is(err, ErrValidation) {
				t.Errorf("ValidateIdentifier(%q) err = %v, want ErrValidation", tc.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ValidateIdentifier(%q) unexpected error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ValidateIdentifier(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestValidateIdentifiers_TooLong(t *testing.T) {
	ids := make([]string, MaxListLength+1)
	for i := range ids {
		ids[i] = fmt.Sprintf("mp-%d", i)
	}
	if _, err := ValidateIdentifiers(ids); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestValidateIdentifiers_StopsAtFirstBad(t *testing.T) {
	_, err := ValidateIdentifiers([]string{"mp-1", "nope", "mp-2"})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
