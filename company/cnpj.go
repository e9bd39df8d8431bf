package company

import (
	"errors"
	"strings"
)

// ErrInvalidTaxID signals a tax id that is not 14 digits after normalization.
var ErrInvalidTaxID = errors.New("company: tax id must have 14 digits")

// NormalizeTaxID strips every non-digit character from a CNPJ. The result of
// normalizing an already-normalized value is the value itself.
func NormalizeTaxID(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidateTaxID normalizes raw and checks the 14-digit CNPJ length rule.
func ValidateTaxID(raw string) (string, error) {
	normalized := NormalizeTaxID(raw)
	if len(normalized) != 14 {
		return "", ErrInvalidTaxID
	}
	return normalized, nil
}

// TaxIDDigitSum adds the decimal value of every digit in the tax id. It feeds
// the deterministic fallback generators so repeated lookups for the same
// company produce the same synthetic records.
func TaxIDDigitSum(taxID string) int {
	sum := 0
	for _, r := range taxID {
		if r >= '0' && r <= '9' {
			sum += int(r - '0')
		}
	}
	return sum
}
