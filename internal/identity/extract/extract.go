// Package extract scans free conversational text for candidate patient
// identifiers. Each identifier type has its own extraction strategy with
// its own confidence heuristics; the strategy table keeps types
// independently testable and makes adding a type a one-entry change.
package extract

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/asaskevich/govalidator"
	"github.com/google/uuid"

	"clinid/internal/identity/models"
	pstrings "clinid/pkg/platform/strings"
)

// strategy pairs an identifier type with its extraction function. The table
// order fixes the output order for equal-offset candidates, which keeps
// Extract deterministic.
type strategy struct {
	typ     models.IdentifierType
	extract func(text string) []models.Candidate
}

var strategies = []strategy{
	{models.IdentifierNationalID, extractNationalIDs},
	{models.IdentifierRecordID, extractRecordIDs},
	{models.IdentifierPhone, extractPhones},
	{models.IdentifierEmail, extractEmails},
	{models.IdentifierName, extractNames},
}

// Extract returns every candidate identifier found in text. It never fails:
// unmatched text yields an empty slice. Ranking happens in Dedupe; the
// order here is strategy order, then match position.
func Extract(text string) []models.Candidate {
	var out []models.Candidate
	for _, s := range strategies {
		out = append(out, s.extract(text)...)
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// keywordWindow is how far back (in bytes) a contextual keyword may sit
// from the match start and still count as "nearby".
const keywordWindow = 24

func keywordBefore(text string, start int, keywords ...string) bool {
	from := start - keywordWindow
	if from < 0 {
		from = 0
	}
	window := strings.ToLower(text[from:start])
	for _, kw := range keywords {
		// Short keywords like "ci" must stand alone; substring matching
		// would fire inside unrelated words ("cita", "farmacia").
		if len(kw) <= 3 {
			for _, tok := range strings.FieldsFunc(window, func(r rune) bool {
				return !unicode.IsLetter(r)
			}) {
				if tok == kw {
					return true
				}
			}
			continue
		}
		if strings.Contains(window, kw) {
			return true
		}
	}
	return false
}

// --- national id ---

// 7-12 digit runs. Boundaries are checked by hand below instead of in the
// pattern: a consuming boundary group would swallow the separator and skip
// a second id sitting one space away.
var nationalIDPattern = regexp.MustCompile(`[0-9]{7,12}`)

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func extractNationalIDs(text string) []models.Candidate {
	var out []models.Candidate
	for _, loc := range nationalIDPattern.FindAllStringIndex(text, -1) {
		start, end := loc[0], loc[1]
		// Embedded in a longer digit run: not a standalone id.
		if (start > 0 && isDigit(text[start-1])) || (end < len(text) && isDigit(text[end])) {
			continue
		}
		// Hyphen-adjacent digit runs belong to a larger token (UUID
		// segments, separated phone numbers), not a national id.
		if (start > 0 && text[start-1] == '-') || (end < len(text) && text[end] == '-') {
			continue
		}
		value := text[start:end]
		// 0.4 for a standalone run plus 0.2 for the 7-12 digit length the
		// pattern enforces.
		confidence := 0.6
		if keywordBefore(text, start, "cédula", "cedula", "ci", "documento") {
			confidence += 0.3
		}
		out = append(out, models.Candidate{
			Value:      value,
			Type:       models.IdentifierNationalID,
			Confidence: clamp01(confidence),
			Source:     models.SourcePatternExtraction,
		})
	}
	return out
}

// --- record id ---

var recordIDPattern = regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`)

func extractRecordIDs(text string) []models.Candidate {
	var out []models.Candidate
	for _, loc := range recordIDPattern.FindAllStringIndex(text, -1) {
		value := text[loc[0]:loc[1]]
		confidence := 0.5
		// Canonical shape: 36 chars, 4 hyphens, parseable.
		if len(value) == 36 && strings.Count(value, "-") == 4 {
			if _, err := uuid.Parse(value); err == nil {
				confidence += 0.3
			}
		}
		if keywordBefore(text, loc[0], "expediente", "record", "historia", "id") {
			confidence += 0.2
		}
		out = append(out, models.Candidate{
			Value:      value,
			Type:       models.IdentifierRecordID,
			Confidence: clamp01(confidence),
			Source:     models.SourcePatternExtraction,
		})
	}
	return out
}

// --- phone ---

// Digit sequences with optional +, spaces, dots, dashes, parentheses. The
// length is validated on the digits after matching, not in the pattern: a
// bounded pattern would truncate mid-number when two phones sit side by
// side, corrupting the second one.
var phonePattern = regexp.MustCompile(`\+?[0-9][0-9 .\-()]*[0-9]`)

// phoneRun is one plausible phone number inside a pattern match, with its
// byte offset relative to the match start.
type phoneRun struct {
	value  string
	offset int
}

// phoneRuns splits a matched run into plausible phone numbers. The space
// separator can glue adjacent numbers into one over-long match; in that
// case each space-separated token carrying a full number's worth of digits
// stands alone. Shorter fragments are dropped: regrouping them would
// fabricate numbers nobody wrote.
func phoneRuns(raw string) []phoneRun {
	digits := pstrings.Digits(raw)
	if len(digits) >= 8 && len(digits) <= 15 {
		return []phoneRun{{value: raw}}
	}
	if len(digits) <= 15 {
		return nil
	}

	var out []phoneRun
	start := -1
	for i := 0; i <= len(raw); i++ {
		if i < len(raw) && raw[i] != ' ' {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			tok := raw[start:i]
			if d := pstrings.Digits(tok); len(d) >= 8 && len(d) <= 15 {
				out = append(out, phoneRun{value: tok, offset: start})
			}
			start = -1
		}
	}
	return out
}

func extractPhones(text string) []models.Candidate {
	var out []models.Candidate
	for _, loc := range phonePattern.FindAllStringIndex(text, -1) {
		// A leading hyphen means the run is the tail of a larger token
		// (UUID segment), not a phone number.
		if loc[0] > 0 && text[loc[0]-1] == '-' {
			continue
		}
		for _, run := range phoneRuns(text[loc[0]:loc[1]]) {
			confidence := 0.3 + 0.2 // matched and digit count in range
			if keywordBefore(text, loc[0]+run.offset, "tel", "phone", "celular", "número", "numero") {
				confidence += 0.3
			}
			out = append(out, models.Candidate{
				Value:      pstrings.Digits(run.value),
				Type:       models.IdentifierPhone,
				Confidence: clamp01(confidence),
				Source:     models.SourcePatternExtraction,
			})
		}
	}
	return out
}

// --- email ---

var emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)

func extractEmails(text string) []models.Candidate {
	var out []models.Candidate
	for _, loc := range emailPattern.FindAllStringIndex(text, -1) {
		value := text[loc[0]:loc[1]]
		confidence := 0.5
		if govalidator.IsEmail(value) {
			confidence += 0.3
		}
		if keywordBefore(text, loc[0], "correo", "email", "mail") {
			confidence += 0.2
		}
		out = append(out, models.Candidate{
			Value:      value,
			Type:       models.IdentifierEmail,
			Confidence: clamp01(confidence),
			Source:     models.SourcePatternExtraction,
		})
	}
	return out
}
