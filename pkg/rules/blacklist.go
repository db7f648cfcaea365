package rules

import (
	"github.com/Ramsey-B/clover/pkg/models"
)

// BlacklistRule records territories a client must not be assigned to. It is
// advisory-only: it never proposes a territory and never vetoes one proposed
// by a later rule. Its evaluations exist so the blocked territories appear
// in rule metadata for audit purposes.
type BlacklistRule struct {
	base
	entries map[string][]string
}

// NewBlacklistRule creates a blacklist rule from a client_id -> blocked
// territory list map.
func NewBlacklistRule(entries map[string][]string) *BlacklistRule {
	if entries == nil {
		entries = map[string][]string{}
	}
	return &BlacklistRule{
		base:    base{priority: PriorityBlacklist, enabled: true},
		entries: entries,
	}
}

func (r *BlacklistRule) Name() string {
	return "BlacklistRule"
}

// Len returns the number of clients with blacklist entries.
func (r *BlacklistRule) Len() int {
	return len(r.entries)
}

// IsBlocked reports whether a client-territory combination is blacklisted.
func (r *BlacklistRule) IsBlocked(clientID, territoryID string) bool {
	for _, t := range r.entries[clientID] {
		if t == territoryID {
			return true
		}
	}
	return false
}

func (r *BlacklistRule) CanEvaluate(client models.Client) bool {
	if !r.enabled {
		return false
	}
	_, ok := r.entries[client.ID]
	return ok
}

func (r *BlacklistRule) Evaluate(client models.Client) (models.RuleResult, error) {
	blocked := r.entries[client.ID]

	// No territory: evaluation falls through to the remaining rules.
	return models.RuleResult{
		Confidence: 0,
		RuleName:   r.Name(),
		Metadata: map[string]any{
			"client_id":           client.ID,
			"blocked_territories": blocked,
			"assignment_method":   "blacklist_check",
		},
	}, nil
}
