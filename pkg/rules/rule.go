// Package rules implements the territory assignment rule set. Every rule is
// a self-contained policy that proposes a territory for a client with a
// confidence score; the assigning engine evaluates them in priority order.
package rules

import "github.com/Ramsey-B/clover/pkg/models"

// Default rule priorities. Lower number = evaluated earlier.
const (
	PriorityWhitelist    = 10
	PriorityBlacklist    = 20
	PrioritySegmentation = 50
	PriorityRegion       = 100
	PrioritySegment      = 100
)

// Rule is the capability contract every assignment rule implements.
// Evaluate must be a pure function of the client record and the rule's own
// static configuration; it never mutates the client.
type Rule interface {
	// Name returns the stable identifier used in audit records and logs.
	Name() string
	// Priority orders evaluation; lower values are consulted first.
	Priority() int
	// Enabled reports whether the engine should consult this rule at all.
	Enabled() bool
	// CanEvaluate is a cheap applicability pre-check.
	CanEvaluate(client models.Client) bool
	// Evaluate produces an assignment proposal, or a result with an empty
	// territory when the rule has no opinion.
	Evaluate(client models.Client) (models.RuleResult, error)
}

// TerritoryEnumerator is implemented by rules that can emit territories
// outside the plain region/segment space. The dimensional builder consults
// it so every territory a rule can assign has a dimension row.
type TerritoryEnumerator interface {
	Territories(clients []models.Client) []models.Territory
}

// base carries the priority/enabled state shared by all rules.
type base struct {
	priority int
	enabled  bool
}

func (b base) Priority() int { return b.priority }
func (b base) Enabled() bool { return b.enabled }
