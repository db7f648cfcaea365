package rules

import (
	"sort"

	"github.com/Ramsey-B/clover/pkg/models"
)

// WhitelistRule assigns territories from explicit client-to-territory
// mappings. It has the highest priority and overrides all other rules;
// whitelisted assignments always carry confidence 100.
type WhitelistRule struct {
	base
	entries map[string]string
}

// NewWhitelistRule creates a whitelist rule from a client_id -> territory_id
// map. A nil map yields a rule that never matches.
func NewWhitelistRule(entries map[string]string) *WhitelistRule {
	if entries == nil {
		entries = map[string]string{}
	}
	return &WhitelistRule{
		base:    base{priority: PriorityWhitelist, enabled: true},
		entries: entries,
	}
}

func (r *WhitelistRule) Name() string {
	return "WhitelistRule"
}

// Len returns the number of whitelist entries.
func (r *WhitelistRule) Len() int {
	return len(r.entries)
}

func (r *WhitelistRule) CanEvaluate(client models.Client) bool {
	if !r.enabled {
		return false
	}
	_, ok := r.entries[client.ID]
	return ok
}

// Territories enumerates the territories whitelisted for clients present in
// the given set.
func (r *WhitelistRule) Territories(clients []models.Client) []models.Territory {
	byID := make(map[string]models.Territory)
	for _, client := range clients {
		territoryID, ok := r.entries[client.ID]
		if !ok || territoryID == "" {
			continue
		}
		if _, seen := byID[territoryID]; seen {
			continue
		}
		byID[territoryID] = models.Territory{
			ID:      territoryID,
			Region:  client.Region,
			Segment: client.Segment,
		}
	}

	out := make([]models.Territory, 0, len(byID))
	for _, t := range byID {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *WhitelistRule) Evaluate(client models.Client) (models.RuleResult, error) {
	territoryID := r.entries[client.ID]

	return models.RuleResult{
		TerritoryID: territoryID,
		Confidence:  100,
		RuleName:    r.Name(),
		Metadata: map[string]any{
			"client_id":         client.ID,
			"assignment_method": "whitelist",
			"override":          true,
		},
	}, nil
}
