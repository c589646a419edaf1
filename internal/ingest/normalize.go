package ingest

import (
	"strings"

	"github.com/meltforce/liftlog/internal/models"
)

// MatchExercise resolves a free-text exercise name against the day's
// catalog. Precedence, first hit wins:
//
//  1. case-insensitive exact match on the canonical name
//  2. case-insensitive exact match on any alias
//  3. case-insensitive substring: the candidate is contained within a
//     canonical name, scanning in catalog order
//
// No fuzzy matching; a miss under all three rules returns nil and the
// caller reports an unknown exercise. An empty candidate matches the first
// catalog entry via rule 3, since every name contains the empty string;
// downstream consumers rely on that, keep it.
func MatchExercise(candidate string, catalog []models.Exercise) *models.Exercise {
	c := strings.ToLower(strings.TrimSpace(candidate))

	for i := range catalog {
		if strings.ToLower(catalog[i].Name) == c {
			return &catalog[i]
		}
	}

	for i := range catalog {
		for _, alias := range catalog[i].AliasList() {
			if strings.ToLower(alias) == c {
				return &catalog[i]
			}
		}
	}

	for i := range catalog {
		if strings.Contains(strings.ToLower(catalog[i].Name), c) {
			return &catalog[i]
		}
	}

	return nil
}
