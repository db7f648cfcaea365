package rules

import (
	"strings"

	"github.com/Ramsey-B/clover/pkg/models"
)

// RegionRule assigns a territory from the client's region and segment. This
// is the default rule for most assignments and sits at the lowest priority
// so explicit configuration always wins.
type RegionRule struct {
	base
}

// NewRegionRule creates a region rule at the default fallback priority.
func NewRegionRule() *RegionRule {
	return &RegionRule{base: base{priority: PriorityRegion, enabled: true}}
}

func (r *RegionRule) Name() string {
	return "RegionRule"
}

func (r *RegionRule) CanEvaluate(client models.Client) bool {
	if !r.enabled {
		return false
	}
	return strings.TrimSpace(client.Region) != "" && strings.TrimSpace(client.Segment) != ""
}

func (r *RegionRule) Evaluate(client models.Client) (models.RuleResult, error) {
	region := strings.TrimSpace(client.Region)
	segment := strings.TrimSpace(client.Segment)

	return models.RuleResult{
		TerritoryID: models.DeriveTerritoryID(region, segment),
		Confidence:  95,
		RuleName:    r.Name(),
		Metadata: map[string]any{
			"region":            region,
			"segment":           segment,
			"assignment_method": "region_segment_combination",
		},
	}, nil
}
