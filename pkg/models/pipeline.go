package models

import "time"

// PipelineSummary reports one complete pipeline run: dedup scan, dimensional
// build, assignment update, and conflict detection.
type PipelineSummary struct {
	RunID           string        `json:"run_id"`
	ClientsLoaded   int           `json:"clients_loaded"`
	Territories     int           `json:"territories"`
	DuplicatePairs  int           `json:"duplicate_pairs"`
	Update          UpdateSummary `json:"update"`
	TotalConflicts  int           `json:"total_conflicts"`
	ConflictErrors  bool          `json:"conflict_errors"`
	StartedAt       time.Time     `json:"started_at"`
	CompletedAt     time.Time     `json:"completed_at"`
	DurationSeconds float64       `json:"duration_seconds"`
}
