package utils

import "strings"

// NormalizePlate brings a plate number to a canonical form: no spaces or
// dashes, upper case. Uniqueness checks always run on the normalized value.
func NormalizePlate(raw string) string {
	normalized := strings.TrimSpace(raw)
	normalized = strings.ReplaceAll(normalized, " ", "")
	normalized = strings.ReplaceAll(normalized, "-", "")
	return strings.ToUpper(normalized)
}

// NormalizeLicense applies the same canonical form to driver license numbers.
func NormalizeLicense(raw string) string {
	return NormalizePlate(raw)
}
