package importer

import (
	"strings"
	"testing"
)

const sampleCSV = `
"Push · Day 1 · Week 4";"2026-01-05 5:04 h";"1:12 hr"
"1. Bench Press · Barbell · 6 reps";"WU1 · 22,5 kg · 10 reps<br>WU2 · 47,5 kg · 8 reps"
#;KG;REPS;RIR
1;102,5;6;0
2;102,5;6;0
3;100;6;0
"2. Incline Dumbbell Press · Dumbbells · 8 reps"
#;KG;REPS;RIR
1;32,5;8;1
2;32,5;8;1
"3. Hanging Leg Raises · Bodyweight · 12 reps"
#;KG;REPS;RIR
1;+0;12;1
2;+0;12;0

"Legs · Day 2 · Week 4";"2026-01-07 4:54 h";"1:02 hr"
"1. Hack Squats · Machine · 8 reps";"WU1 · 37,5 kg · 9 reps"
#;KG;REPS;RIR
1;115;8;1
2;115;10;1
`

// TestParseCSVSessions verifies parsing a multi-session export with warmups,
// European decimals, and bodyweight-plus sets.
func TestParseCSVSessions(t *testing.T) {
	sessions, err := ParseCSV(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("sessions = %d, want 2", len(sessions))
	}

	s1 := sessions[0]
	if s1.Name != "Push · Day 1 · Week 4" {
		t.Errorf("s1.Name = %q", s1.Name)
	}
	if s1.Date.Format("2006-01-02") != "2026-01-05" {
		t.Errorf("s1.Date = %v, want 2026-01-05", s1.Date)
	}
	if len(s1.Exercises) != 3 {
		t.Fatalf("s1 exercises = %d, want 3", len(s1.Exercises))
	}

	// Bench Press: 2 warmups + 3 working, European decimal weight
	bench := s1.Exercises[0]
	if bench.Name != "Bench Press" {
		t.Errorf("bench.Name = %q", bench.Name)
	}
	if len(bench.Sets) != 5 {
		t.Fatalf("bench sets = %d, want 5 (2 warmup + 3 working)", len(bench.Sets))
	}
	if !bench.Sets[0].IsWarmup || bench.Sets[0].WeightKg != 22.5 {
		t.Errorf("bench.Sets[0] = %+v, want warmup at 22.5kg", bench.Sets[0])
	}
	if bench.Sets[2].IsWarmup || bench.Sets[2].WeightKg != 102.5 {
		t.Errorf("bench.Sets[2] = %+v, want working set at 102.5kg", bench.Sets[2])
	}

	// Hanging Leg Raises: bodyweight-plus notation
	legRaises := s1.Exercises[2]
	if !legRaises.Sets[0].IsBodyweightPlus || legRaises.Sets[0].WeightKg != 0 {
		t.Errorf("leg raise set = %+v, want bodyweight +0", legRaises.Sets[0])
	}

	s2 := sessions[1]
	if s2.Date.Format("2006-01-02") != "2026-01-07" {
		t.Errorf("s2.Date = %v, want 2026-01-07", s2.Date)
	}
	if len(s2.Exercises) != 1 || len(s2.Exercises[0].Sets) != 3 {
		t.Errorf("s2 = %+v, want 1 exercise with 3 sets", s2.Exercises)
	}
}

func TestParseWeight(t *testing.T) {
	cases := []struct {
		in     string
		want   float64
		wantBW bool
	}{
		{"102,5", 102.5, false},
		{"115", 115, false},
		{"+35", 35, true},
		{"+0", 0, true},
	}
	for _, tc := range cases {
		got, bw := parseWeight(tc.in)
		if got != tc.want || bw != tc.wantBW {
			t.Errorf("parseWeight(%q) = %v, %v, want %v, %v", tc.in, got, bw, tc.want, tc.wantBW)
		}
	}
}

func TestParseCSVEmptyInput(t *testing.T) {
	sessions, err := ParseCSV(strings.NewReader(""))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(sessions) != 0 {
		t.Errorf("sessions = %d, want 0", len(sessions))
	}
}
