package models

// ParsedItem is the freeform parser's output for one exercise mention.
// It is transient: the ingestion layer consumes it, normalizes Exercise
// against the day's catalog, and discards it.
type ParsedItem struct {
	// Input is the original free-text span for the exercise, kept for
	// auditability and for unknown-exercise reporting.
	Input string
	// Exercise is the model's advisory match against the day's catalog.
	Exercise   string
	Sets       *int
	Reps       Reps
	WeightLbs  *float64
	Notes      string
	Bodyweight bool
}
