package extract

import (
	"sort"

	"clinid/internal/identity/models"
)

// Dedupe merges candidates sharing a `(type, normalized value)` key,
// keeping the highest-confidence instance, and orders the survivors by
// confidence descending. Ties keep their input order (stable sort), so
// repeated runs over the same extraction are identical.
func Dedupe(candidates []models.Candidate) []models.Candidate {
	if len(candidates) == 0 {
		return nil
	}

	index := make(map[string]int, len(candidates))
	out := make([]models.Candidate, 0, len(candidates))

	for _, c := range candidates {
		key := c.Key()
		if at, ok := index[key]; ok {
			if c.Confidence > out[at].Confidence {
				out[at] = c
			}
			continue
		}
		index[key] = len(out)
		out = append(out, c)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Confidence > out[j].Confidence
	})
	return out
}
