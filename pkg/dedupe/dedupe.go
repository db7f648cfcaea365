// Package dedupe finds and merges near-duplicate client records by fuzzy
// name comparison.
package dedupe

import (
	"context"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Detector scans a client set for pairs whose names score above a
// similarity threshold.
type Detector struct {
	logger    ectologger.Logger
	scorer    *Scorer
	method    Method
	threshold float64
}

// NewDetector creates a detector. Threshold is on the 0-100 similarity
// scale; pairs scoring below it are not reported.
func NewDetector(logger ectologger.Logger, method Method, threshold float64) *Detector {
	return &Detector{
		logger:    logger,
		scorer:    NewScorer(),
		method:    method,
		threshold: threshold,
	}
}

// FindDuplicates compares every unordered pair of clients and returns the
// pairs scoring at or above the threshold. Clients with empty names are
// skipped. A client may appear in multiple pairs; transitive chains are not
// collapsed here.
func (d *Detector) FindDuplicates(ctx context.Context, clients []models.Client) []models.DuplicatePair {
	ctx, span := tracing.StartSpan(ctx, "dedupe.Detector.FindDuplicates")
	defer span.End()

	detectedAt := time.Now().UTC()
	var pairs []models.DuplicatePair

	for i := 0; i < len(clients); i++ {
		if clients[i].Name == "" {
			continue
		}
		for j := i + 1; j < len(clients); j++ {
			if clients[j].Name == "" {
				continue
			}

			score := d.scorer.Similarity(clients[i].Name, clients[j].Name, d.method)
			if score < d.threshold {
				continue
			}

			pairs = append(pairs, models.DuplicatePair{
				ID1:        clients[i].ID,
				ID2:        clients[j].ID,
				Name1:      clients[i].Name,
				Name2:      clients[j].Name,
				Similarity: score,
				Confidence: models.BandForScore(score),
				DetectedAt: detectedAt,
			})
		}
	}

	d.logger.WithContext(ctx).WithFields(map[string]any{
		"clients":   len(clients),
		"pairs":     len(pairs),
		"threshold": d.threshold,
		"method":    d.method,
	}).Info("duplicate detection complete")

	return pairs
}

// MergeResult reports the outcome of collapsing duplicate pairs.
type MergeResult struct {
	Survivors  []models.Client `json:"survivors"`
	RemovedIDs []string        `json:"removed_ids"`
}

// Merge collapses duplicate pairs into surviving records using the given
// strategy. Pairs are processed greedily in order: once a record has been
// removed by an earlier pair, later pairs referencing it are skipped, so a
// removed record is never resurrected as a survivor. The manual strategy
// removes nothing.
func (d *Detector) Merge(ctx context.Context, clients []models.Client, pairs []models.DuplicatePair, strategy models.MergeStrategy) (MergeResult, error) {
	if strategy == models.MergeManual {
		return MergeResult{Survivors: clients}, nil
	}
	if strategy != models.MergeMostComplete && strategy != models.MergeFirst {
		return MergeResult{}, fmt.Errorf("unknown merge strategy: %s", strategy)
	}

	byID := make(map[string]models.Client, len(clients))
	for _, c := range clients {
		byID[c.ID] = c
	}

	removed := make(map[string]bool)
	var removedIDs []string

	for _, pair := range pairs {
		if removed[pair.ID1] || removed[pair.ID2] {
			continue
		}
		first, ok1 := byID[pair.ID1]
		second, ok2 := byID[pair.ID2]
		if !ok1 || !ok2 {
			continue
		}

		loser := second.ID
		if strategy == models.MergeMostComplete && second.NonEmptyFieldCount() > first.NonEmptyFieldCount() {
			loser = first.ID
		}

		removed[loser] = true
		removedIDs = append(removedIDs, loser)
	}

	survivors := make([]models.Client, 0, len(clients)-len(removedIDs))
	for _, c := range clients {
		if !removed[c.ID] {
			survivors = append(survivors, c)
		}
	}

	d.logger.WithContext(ctx).WithFields(map[string]any{
		"strategy":  strategy,
		"input":     len(clients),
		"survivors": len(survivors),
		"removed":   len(removedIDs),
	}).Info("duplicate merge complete")

	return MergeResult{Survivors: survivors, RemovedIDs: removedIDs}, nil
}
