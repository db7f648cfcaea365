package models

// RuleResult is the outcome of evaluating one rule against one client.
// TerritoryID is empty when the rule offers no assignment. Transient;
// produced per (client, rule) evaluation and never persisted individually.
type RuleResult struct {
	TerritoryID string         `json:"territory_id,omitempty"`
	Confidence  float64        `json:"confidence"`
	RuleName    string         `json:"rule_name"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// Assigned reports whether the result carries a concrete territory.
func (r RuleResult) Assigned() bool {
	return r.TerritoryID != ""
}

// AssignedClient is one row of the bulk evaluation output: the client
// augmented with its proposed assignment. An unmatched client keeps an empty
// TerritoryID and zero confidence.
type AssignedClient struct {
	Client      Client  `json:"client"`
	TerritoryID string  `json:"assigned_territory_id,omitempty"`
	Confidence  float64 `json:"assignment_confidence"`
	Rule        string  `json:"assignment_rule,omitempty"`
}

// Assigned reports whether the engine produced a territory for this client.
func (a AssignedClient) Assigned() bool {
	return a.TerritoryID != ""
}
