package models

import "time"

// ConfidenceBand buckets a duplicate pair by similarity score.
type ConfidenceBand string

const (
	BandHigh   ConfidenceBand = "HIGH"   // similarity >= 95
	BandMedium ConfidenceBand = "MEDIUM" // similarity >= 90
	BandLow    ConfidenceBand = "LOW"    // similarity >= threshold
)

// BandForScore maps a similarity score to its confidence band. Scores below
// the detection threshold never reach this function.
func BandForScore(score float64) ConfidenceBand {
	switch {
	case score >= 95:
		return BandHigh
	case score >= 90:
		return BandMedium
	default:
		return BandLow
	}
}

// DuplicatePair flags two client records whose names are similar enough to
// suspect they represent the same real-world entity. Regenerated fully on
// every dedup run.
type DuplicatePair struct {
	ID1        string         `json:"id1" db:"id1"`
	ID2        string         `json:"id2" db:"id2"`
	Name1      string         `json:"name1" db:"name1"`
	Name2      string         `json:"name2" db:"name2"`
	Similarity float64        `json:"similarity" db:"similarity"`
	Confidence ConfidenceBand `json:"confidence" db:"confidence"`
	DetectedAt time.Time      `json:"detected_at" db:"detected_at"`
}

// MergeStrategy selects how duplicate pairs collapse into surviving records.
type MergeStrategy string

const (
	// MergeMostComplete keeps the record with more non-null fields.
	MergeMostComplete MergeStrategy = "most_complete"
	// MergeFirst always keeps the first record of the pair.
	MergeFirst MergeStrategy = "first"
	// MergeManual performs no merge; pairs are only reported for review.
	MergeManual MergeStrategy = "manual"
)
