package rules

import (
	"sort"
	"strings"

	"github.com/Ramsey-B/clover/pkg/models"
)

// SegmentRule assigns a territory from the client's segment alone. When the
// region is also present it produces the same territory as RegionRule; when
// the region is unknown it falls back to a general territory with reduced
// confidence. Used as an alternate to RegionRule, not alongside it.
type SegmentRule struct {
	base
}

// NewSegmentRule creates a segment rule in the same priority band as the
// region rule.
func NewSegmentRule() *SegmentRule {
	return &SegmentRule{base: base{priority: PrioritySegment, enabled: true}}
}

func (r *SegmentRule) Name() string {
	return "SegmentRule"
}

func (r *SegmentRule) CanEvaluate(client models.Client) bool {
	if !r.enabled {
		return false
	}
	return strings.TrimSpace(client.Segment) != ""
}

// Territories enumerates the general territories this rule falls back to for
// clients without a region. Region-anchored territories are already covered
// by the base dimension derivation.
func (r *SegmentRule) Territories(clients []models.Client) []models.Territory {
	byID := make(map[string]models.Territory)
	for _, client := range clients {
		segment := strings.TrimSpace(client.Segment)
		if segment == "" || strings.TrimSpace(client.Region) != "" {
			continue
		}
		id := models.DeriveGeneralTerritoryID(segment)
		if _, ok := byID[id]; ok {
			continue
		}
		byID[id] = models.Territory{ID: id, Segment: segment}
	}

	out := make([]models.Territory, 0, len(byID))
	for _, t := range byID {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *SegmentRule) Evaluate(client models.Client) (models.RuleResult, error) {
	segment := strings.TrimSpace(client.Segment)
	region := strings.TrimSpace(client.Region)

	result := models.RuleResult{
		RuleName: r.Name(),
		Metadata: map[string]any{
			"segment":           segment,
			"region":            region,
			"assignment_method": "segment_based",
		},
	}

	if region != "" {
		result.TerritoryID = models.DeriveTerritoryID(region, segment)
		result.Confidence = 95
	} else {
		result.TerritoryID = models.DeriveGeneralTerritoryID(segment)
		result.Confidence = 75 // lower confidence without region
	}

	return result, nil
}
