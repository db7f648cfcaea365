// Package dimensional builds the client and territory dimensions that feed
// the assignment updater, and runs the strict quality gate over the result.
package dimensional

import (
	"context"
	"sort"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/rules"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Builder derives dimension tables from the raw client set.
type Builder struct {
	logger ectologger.Logger
}

// NewBuilder creates a new Builder
func NewBuilder(logger ectologger.Logger) *Builder {
	return &Builder{logger: logger}
}

// BuildClientDim normalizes the raw client set into the client dimension.
// Clients are marked active and duplicate keys are logged as warnings; the
// last record for a duplicated key wins.
func (b *Builder) BuildClientDim(ctx context.Context, raw []models.Client) []models.Client {
	now := time.Now().UTC()
	seen := make(map[string]int, len(raw))
	duplicates := 0

	out := make([]models.Client, 0, len(raw))
	for _, c := range raw {
		c.IsActive = true
		c.UpdatedAt = now

		if idx, ok := seen[c.ID]; ok {
			duplicates++
			out[idx] = c
			continue
		}
		seen[c.ID] = len(out)
		out = append(out, c)
	}

	if duplicates > 0 {
		b.logger.WithContext(ctx).WithFields(map[string]any{
			"duplicates": duplicates,
		}).Warn("duplicate client ids in client dimension")
	}

	b.logger.WithContext(ctx).WithFields(map[string]any{"rows": len(out)}).Info("built client dimension")
	return out
}

// BuildTerritoryDim derives the territory dimension from the distinct
// (region, segment) pairs in the client dimension, plus any territory the
// rule set can emit outside that space (tier suffixes, whitelist targets,
// general fallbacks). Output is sorted by territory id.
func (b *Builder) BuildTerritoryDim(ctx context.Context, clients []models.Client, ruleSet []rules.Rule) []models.Territory {
	ctx, span := tracing.StartSpan(ctx, "dimensional.Builder.BuildTerritoryDim")
	defer span.End()

	now := time.Now().UTC()
	byID := make(map[string]models.Territory)

	for _, c := range clients {
		if c.Region == "" || c.Segment == "" {
			continue
		}
		id := models.DeriveTerritoryID(c.Region, c.Segment)
		if _, ok := byID[id]; ok {
			continue
		}
		byID[id] = models.Territory{
			ID:        id,
			Region:    c.Region,
			Segment:   c.Segment,
			OwnerRole: models.DefaultOwnerRole,
			UpdatedAt: now,
		}
	}

	// Rules can widen the territory space beyond raw region/segment pairs,
	// so every territory a rule can emit gets a dimension row too.
	for _, rule := range ruleSet {
		enumerator, ok := rule.(rules.TerritoryEnumerator)
		if !ok || !rule.Enabled() {
			continue
		}
		for _, t := range enumerator.Territories(clients) {
			if _, ok := byID[t.ID]; ok {
				continue
			}
			t.OwnerRole = models.DefaultOwnerRole
			t.UpdatedAt = now
			byID[t.ID] = t
		}
	}

	out := make([]models.Territory, 0, len(byID))
	for _, t := range byID {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	b.logger.WithContext(ctx).WithFields(map[string]any{"territories": len(out)}).Info("built territory dimension")
	return out
}
