package parser

import (
	"fmt"
	"strings"
)

// NormalizeDocument formats a CPF (11 digits) or CNPJ (14 digits) with canonical
// punctuation. Accepts formats like:
// - "12345678900", "123.456.789-00" -> "123.456.789-00"
// - "12345678000199", "12.345.678/0001-99" -> "12.345.678/0001-99"
// Only the shape is checked, not the verifier digits.
func NormalizeDocument(document string) (string, error) {
	digits := onlyDigits(document)

	switch len(digits) {
	case 11:
		return fmt.Sprintf("%s.%s.%s-%s", digits[0:3], digits[3:6], digits[6:9], digits[9:11]), nil
	case 14:
		return fmt.Sprintf("%s.%s.%s/%s-%s", digits[0:2], digits[2:5], digits[5:8], digits[8:12], digits[12:14]), nil
	default:
		return "", fmt.Errorf("invalid CPF/CNPJ. Use 11 digits (CPF) or 14 digits (CNPJ)")
	}
}

// IsValidDocument checks if a string has the shape of a CPF or CNPJ
func IsValidDocument(document string) bool {
	_, err := NormalizeDocument(document)
	return err == nil
}

// DocumentKind returns "CPF", "CNPJ" or ""
func DocumentKind(document string) string {
	switch len(onlyDigits(document)) {
	case 11:
		return "CPF"
	case 14:
		return "CNPJ"
	default:
		return ""
	}
}

// onlyDigits strips punctuation and whitespace. Any letter makes the result empty.
func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '/' || r == ' ':
		default:
			return ""
		}
	}
	return b.String()
}
