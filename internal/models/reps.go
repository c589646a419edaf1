package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Reps is either a single reps-per-set count or an ordered per-set list.
// Exactly one representation is populated; PerSet wins when both arrive from
// the parser. The JSON form is a bare number ("12") or an array ("[25,20,15]"),
// which is also the serialized form stored in the exercise_logs.reps column.
type Reps struct {
	Each   *int
	PerSet []int
}

// RepsEach returns a scalar Reps value.
func RepsEach(n int) Reps {
	return Reps{Each: &n}
}

// RepsPerSet returns a per-set-list Reps value.
func RepsPerSet(counts []int) Reps {
	return Reps{PerSet: counts}
}

// IsZero reports whether no reps information is present.
func (r Reps) IsZero() bool {
	return r.Each == nil && len(r.PerSet) == 0
}

// IsList reports whether the per-set list representation is in effect.
func (r Reps) IsList() bool {
	return len(r.PerSet) > 0
}

// MarshalJSON encodes a number, an array, or null when empty.
func (r Reps) MarshalJSON() ([]byte, error) {
	if len(r.PerSet) > 0 {
		return json.Marshal(r.PerSet)
	}
	if r.Each != nil {
		return json.Marshal(*r.Each)
	}
	return []byte("null"), nil
}

// UnmarshalJSON accepts a number, an array of numbers, or null.
func (r *Reps) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == "" {
		*r = Reps{}
		return nil
	}
	if strings.HasPrefix(s, "[") {
		var list []int
		if err := json.Unmarshal(data, &list); err != nil {
			return fmt.Errorf("reps list: %w", err)
		}
		*r = Reps{PerSet: list}
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("reps: %w", err)
	}
	*r = Reps{Each: &n}
	return nil
}

// String is the database serialization: "12" or "[25,20,15]", "" when empty.
func (r Reps) String() string {
	if r.IsZero() {
		return ""
	}
	b, _ := json.Marshal(r)
	return string(b)
}

// ParseReps decodes the database serialization produced by String.
func ParseReps(s string) (Reps, error) {
	var r Reps
	if strings.TrimSpace(s) == "" {
		return r, nil
	}
	if err := json.Unmarshal([]byte(s), &r); err != nil {
		return Reps{}, fmt.Errorf("parsing reps %q: %w", s, err)
	}
	return r, nil
}
