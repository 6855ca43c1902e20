package extract

import (
	"regexp"
	"strings"
	"unicode"

	"clinid/internal/identity/models"
	pstrings "clinid/pkg/platform/strings"
)

// capWord matches one capitalized word, accents included.
const capWord = `\p{Lu}[\p{L}'.\-]+`

var (
	// "paciente Juan Pérez" / "patient Maria González"
	nameKeywordPattern = regexp.MustCompile(`(?i:paciente|patient)[:\s]+((?:` + capWord + `)(?:\s+` + capWord + `){0,3})`)
	// Fallback: any 2-4 word capitalized run.
	nameFallbackPattern = regexp.MustCompile(`(` + capWord + `)(?:\s+` + capWord + `){1,3}`)

	// Role words are never names, whatever their casing.
	roleWords = map[string]struct{}{
		"doctor":   {},
		"médico":   {},
		"medico":   {},
		"paciente": {},
		"hospital": {},
		"clínica":  {},
		"clinica":  {},
		"centro":   {},
		"salud":    {},
	}

	// Common Latin-American surname endings.
	surnameSuffixes = []string{"ez", "es", "az"}
)

func extractNames(text string) []models.Candidate {
	var out []models.Candidate

	for _, m := range nameKeywordPattern.FindAllStringSubmatch(text, -1) {
		if c, ok := scoreName(m[1], true); ok {
			out = append(out, c)
		}
	}
	for _, m := range nameFallbackPattern.FindAllString(text, -1) {
		if c, ok := scoreName(m, false); ok {
			out = append(out, c)
		}
	}
	return out
}

// scoreName filters and scores one name candidate. Returns ok=false when
// the candidate fails the name filter.
func scoreName(raw string, nearKeyword bool) (models.Candidate, bool) {
	name := pstrings.CollapseSpaces(raw)
	if !isPlausibleName(name) {
		return models.Candidate{}, false
	}

	parts := strings.Fields(name)
	confidence := 0.3
	if nearKeyword {
		confidence += 0.2
	}
	if len(parts) >= 2 {
		confidence += 0.1
	}
	if len(parts) >= 3 {
		confidence += 0.1
	}
	if hasSurnameMorphology(parts) {
		confidence += 0.1
	}

	return models.Candidate{
		Value:      name,
		Type:       models.IdentifierName,
		Confidence: clamp01(confidence),
		Source:     models.SourceNameExtraction,
	}, true
}

// isPlausibleName rejects strings that cannot be a person's name: too
// short, non-name characters, no uppercase letter, or a role word.
func isPlausibleName(name string) bool {
	if len(name) < 3 {
		return false
	}

	hasUpper := false
	for _, r := range name {
		switch {
		case unicode.IsLetter(r):
			if unicode.IsUpper(r) {
				hasUpper = true
			}
		case r == ' ' || r == '-' || r == '\'' || r == '.':
		default:
			return false
		}
	}
	if !hasUpper {
		return false
	}

	for _, part := range strings.Fields(name) {
		if _, ok := roleWords[strings.ToLower(part)]; ok {
			return false
		}
	}
	return true
}

func hasSurnameMorphology(parts []string) bool {
	for _, part := range parts {
		lower := strings.ToLower(part)
		for _, suffix := range surnameSuffixes {
			if strings.HasSuffix(lower, suffix) && len(lower) > len(suffix)+1 {
				return true
			}
		}
	}
	return false
}
