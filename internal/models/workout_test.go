package models

import (
	"testing"
	"time"
)

func TestISOWeekday(t *testing.T) {
	cases := []struct {
		date string
		want int
	}{
		{"2026-01-05", 1}, // Monday
		{"2026-01-09", 5}, // Friday
		{"2026-01-10", 6}, // Saturday
		{"2026-01-11", 7}, // Sunday maps to 7, not 0
	}
	for _, tc := range cases {
		d, err := time.Parse(DateOnly, tc.date)
		if err != nil {
			t.Fatalf("parsing %s: %v", tc.date, err)
		}
		if got := ISOWeekday(d); got != tc.want {
			t.Errorf("ISOWeekday(%s) = %d, want %d", tc.date, got, tc.want)
		}
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-03-15")
	if err != nil {
		t.Fatalf("ParseDate error: %v", err)
	}
	if d.Format(DateOnly) != "2026-03-15" {
		t.Errorf("ParseDate = %s, want 2026-03-15", d.Format(DateOnly))
	}

	for _, in := range []string{"15/03/2026", "2026-3-15", "yesterday", ""} {
		if _, err := ParseDate(in); err == nil {
			t.Errorf("ParseDate(%q) succeeded, want error", in)
		}
	}
}

func TestAliasList(t *testing.T) {
	cases := []struct {
		aliases string
		want    int
	}{
		{`["flat bench","barbell bench"]`, 2},
		{"[]", 0},
		{"", 0},
		{"not json", 0},
	}
	for _, tc := range cases {
		e := Exercise{Aliases: tc.aliases}
		if got := len(e.AliasList()); got != tc.want {
			t.Errorf("AliasList(%q) has %d entries, want %d", tc.aliases, got, tc.want)
		}
	}
}
