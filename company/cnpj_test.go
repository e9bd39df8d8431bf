package company

import (
	"errors"
	"testing"
)

func TestNormalizeTaxID(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"12.345.678/0001-90", "12345678000190"},
		{"12345678000190", "12345678000190"},
		{"  12 345 678 0001 90  ", "12345678000190"},
		{"abc", ""},
	}
	for _, tc := range cases {
		if got := NormalizeTaxID(tc.in); got != tc.want {
			t.Errorf("NormalizeTaxID(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}

	// Normalization is idempotent.
	once := NormalizeTaxID("12.345.678/0001-90")
	if twice := NormalizeTaxID(once); twice != once {
		t.Errorf("normalize not idempotent: %q vs %q", once, twice)
	}
}

func TestValidateTaxID(t *testing.T) {
	got, err := ValidateTaxID("12.345.678/0001-90")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "12345678000190" {
		t.Fatalf("expected normalized id, got %q", got)
	}

	for _, bad := range []string{"", "123", "12.345.678/0001-9", "123456780001901"} {
		if _, err := ValidateTaxID(bad); !errors.Is(err, ErrInvalidTaxID) {
			t.Errorf("ValidateTaxID(%q): expected ErrInvalidTaxID, got %v", bad, err)
		}
	}
}

func TestTaxIDDigitSum(t *testing.T) {
	if got := TaxIDDigitSum("11111111111111"); got != 14 {
		t.Fatalf("expected 14, got %d", got)
	}
	if got := TaxIDDigitSum("12345678000190"); got != 46 {
		t.Fatalf("expected 46, got %d", got)
	}
	if got := TaxIDDigitSum(""); got != 0 {
		t.Fatalf("expected 0 for empty input, got %d", got)
	}
}
