package models

import (
	"strings"

	pstrings "clinid/pkg/platform/strings"
)

// Match ranks, most to least specific. Mirrors the conflict priority of the
// identifier types: an exact national-id hit outranks everything, a
// mid-string name match ranks last. Lower is better.
const (
	RankNationalID   = 0
	RankEmail        = 1
	RankPhone        = 2
	RankNameExact    = 3
	RankNamePrefix   = 4
	RankNameContains = 5
	RankNoMatch      = 100
)

// Matches reports whether p satisfies every non-empty criterion (AND
// semantics). National id and phone compare digits-for-digits, email
// case-insensitively, name by case-insensitive substring containment.
func (c SearchCriteria) Matches(p Patient) bool {
	if c.NationalID != "" && pstrings.Digits(p.NationalID) != c.NationalID {
		return false
	}
	if c.Email != "" && pstrings.NormalizeKey(p.Email) != c.Email {
		return false
	}
	if c.Phone != "" && pstrings.Digits(p.Phone) != c.Phone {
		return false
	}
	if c.Name != "" && !strings.Contains(pstrings.NormalizeKey(p.FullName), pstrings.NormalizeKey(c.Name)) {
		return false
	}
	return true
}

// Rank scores how specifically p matched the criteria. Callers must only
// rank patients that already satisfy Matches; the memory store sorts by
// this and the Postgres store expresses the same ordering in SQL.
func (c SearchCriteria) Rank(p Patient) int {
	if c.NationalID != "" && pstrings.Digits(p.NationalID) == c.NationalID {
		return RankNationalID
	}
	if c.Email != "" && pstrings.NormalizeKey(p.Email) == c.Email {
		return RankEmail
	}
	if c.Phone != "" && pstrings.Digits(p.Phone) == c.Phone {
		return RankPhone
	}
	if c.Name != "" {
		name := pstrings.NormalizeKey(p.FullName)
		query := pstrings.NormalizeKey(c.Name)
		switch {
		case name == query:
			return RankNameExact
		case strings.HasPrefix(name, query):
			return RankNamePrefix
		case strings.Contains(name, query):
			return RankNameContains
		}
	}
	return RankNoMatch
}
