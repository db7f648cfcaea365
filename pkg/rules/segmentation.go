package rules

import (
	"sort"
	"strings"

	"github.com/Ramsey-B/clover/pkg/criteria"
	"github.com/Ramsey-B/clover/pkg/models"
)

// Tier is one named segmentation tier: a criteria predicate plus the
// territory suffix and priority it carries.
type Tier struct {
	Criteria        map[string]any `json:"criteria"`
	TerritorySuffix string         `json:"territory_suffix"`
	Priority        int            `json:"priority"`
}

// SegmentationConfig is the JSON document defining segmentation tiers.
type SegmentationConfig struct {
	Tiers map[string]Tier `json:"tiers"`
}

// SegmentationRule assigns clients to tier-suffixed territories based on
// configured criteria. Tiers are evaluated in ascending configured-priority
// order (ties broken by tier name); the first tier whose criteria all match
// wins.
type SegmentationRule struct {
	base
	tiers []namedTier
}

type namedTier struct {
	name       string
	conditions []criteria.Condition
	suffix     string
	priority   int
}

// NewSegmentationRule creates a segmentation rule from tier configuration.
// Criteria are parsed once at construction.
func NewSegmentationRule(cfg SegmentationConfig) *SegmentationRule {
	tiers := make([]namedTier, 0, len(cfg.Tiers))
	for name, tier := range cfg.Tiers {
		tiers = append(tiers, namedTier{
			name:       name,
			conditions: criteria.Parse(tier.Criteria),
			suffix:     tier.TerritorySuffix,
			priority:   tier.Priority,
		})
	}
	sort.Slice(tiers, func(i, j int) bool {
		if tiers[i].priority != tiers[j].priority {
			return tiers[i].priority < tiers[j].priority
		}
		return tiers[i].name < tiers[j].name
	})

	return &SegmentationRule{
		base:  base{priority: PrioritySegmentation, enabled: true},
		tiers: tiers,
	}
}

func (r *SegmentationRule) Name() string {
	return "SegmentationRule"
}

// TierCount returns the number of configured tiers.
func (r *SegmentationRule) TierCount() int {
	return len(r.tiers)
}

func (r *SegmentationRule) CanEvaluate(client models.Client) bool {
	return r.enabled && len(r.tiers) > 0
}

func (r *SegmentationRule) Evaluate(client models.Client) (models.RuleResult, error) {
	for _, tier := range r.tiers {
		if !criteria.MatchesClient(client, tier.conditions) {
			continue
		}

		region := strings.TrimSpace(client.Region)
		segment := strings.TrimSpace(client.Segment)

		var territoryID string
		if region != "" && segment != "" {
			territoryID = models.DeriveTerritoryID(region, segment)
			if tier.suffix != "" {
				territoryID += "_" + tier.suffix
			}
		} else if tier.suffix != "" {
			territoryID = models.GeneralTerritoryPrefix + "_" + tier.suffix
		} else {
			territoryID = models.GeneralTerritoryPrefix
		}

		return models.RuleResult{
			TerritoryID: territoryID,
			Confidence:  tierConfidence(tier.priority),
			RuleName:    r.Name(),
			Metadata: map[string]any{
				"tier":              tier.name,
				"tier_priority":     tier.priority,
				"assignment_method": "tier_based",
			},
		}, nil
	}

	// No tier matched
	return models.RuleResult{
		RuleName: r.Name(),
		Metadata: map[string]any{"assignment_method": "no_tier_match"},
	}, nil
}

// Territories enumerates the territories this rule would emit for the given
// client set, so the territory dimension can carry a row for each before
// assignments reference them.
func (r *SegmentationRule) Territories(clients []models.Client) []models.Territory {
	byID := make(map[string]models.Territory)
	for _, client := range clients {
		result, err := r.Evaluate(client)
		if err != nil || !result.Assigned() {
			continue
		}
		if _, ok := byID[result.TerritoryID]; ok {
			continue
		}
		byID[result.TerritoryID] = models.Territory{
			ID:      result.TerritoryID,
			Region:  strings.TrimSpace(client.Region),
			Segment: strings.TrimSpace(client.Segment),
		}
	}

	out := make([]models.Territory, 0, len(byID))
	for _, t := range byID {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// tierConfidence derives the confidence score from the tier priority,
// clamped to [50, 95].
func tierConfidence(priority int) float64 {
	confidence := 90.0 - float64(priority)*5
	if confidence < 50 {
		confidence = 50
	}
	if confidence > 95 {
		confidence = 95
	}
	return confidence
}
