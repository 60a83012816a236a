package parser

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ParsedFields is the result of the quick-entry syntax used by add and edit
type ParsedFields struct {
	Text   string            // free text, used for the primary field
	Fields map[string]string // lowercased key -> value
	Errors []string
}

var fieldRegex = regexp.MustCompile(`^([a-zA-Z][a-zA-Z_]*):(.*)$`)

// ParseFields extracts key:value tokens from command arguments.
// Syntax: saj clients add Jane Doe cpf:123.456.789-00 email:jane@example.com
// A shell-quoted argument keeps its spaces: when:"25/10/2026 14:00".
func ParseFields(args []string) ParsedFields {
	result := ParsedFields{
		Fields: map[string]string{},
		Errors: []string{},
	}

	var text []string
	for _, arg := range args {
		matches := fieldRegex.FindStringSubmatch(arg)
		if len(matches) != 3 {
			text = append(text, arg)
			continue
		}

		key := strings.ToLower(matches[1])
		value := strings.TrimSpace(strings.Trim(matches[2], `"'`))
		if _, dup := result.Fields[key]; dup {
			result.Errors = append(result.Errors, "Duplicate field '"+key+"'")
			continue
		}
		result.Fields[key] = value
	}

	// Clean up the text (remove extra spaces)
	result.Text = strings.Join(strings.Fields(strings.Join(text, " ")), " ")

	return result
}

// Fold lowercases s and strips accents, so "Concluído" matches "concluido"
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(strings.TrimSpace(folded))
}

// NormalizeStatus maps loose input onto one of statuses, matching accent- and
// case-insensitively on the full name or a prefix of it or of one of its words. ok is false when nothing or
// more than one status matches.
func NormalizeStatus(input string, statuses []string) (string, bool) {
	needle := Fold(input)
	if needle == "" {
		return "", false
	}

	var found []string
	for _, status := range statuses {
		folded := Fold(status)
		if folded == needle {
			return status, true
		}
		if strings.HasPrefix(folded, needle) || strings.HasPrefix(strings.ReplaceAll(folded, " ", ""), needle) {
			found = append(found, status)
			continue
		}
		for _, word := range strings.Fields(folded) {
			if strings.HasPrefix(word, needle) {
				found = append(found, status)
				break
			}
		}
	}
	if len(found) != 1 {
		return "", false
	}
	return found[0], true
}
