// Package assigning implements the territory assignment engine. It holds an
// ordered rule set and evaluates rules per client in priority order, short-
// circuiting on the first confident assignment.
package assigning

import (
	"context"
	"sort"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/rules"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Engine orchestrates territory assignment using multiple rules. Rules are
// kept sorted by ascending priority with ties broken by rule name, so
// evaluation order is deterministic regardless of registration order.
type Engine struct {
	logger ectologger.Logger
	rules  []rules.Rule
}

// NewEngine creates an engine with the given rule set.
func NewEngine(logger ectologger.Logger, ruleSet ...rules.Rule) *Engine {
	e := &Engine{logger: logger}
	for _, r := range ruleSet {
		e.AddRule(r)
	}
	return e
}

// AddRule registers a rule and re-sorts the rule set.
func (e *Engine) AddRule(rule rules.Rule) {
	e.rules = append(e.rules, rule)
	sort.SliceStable(e.rules, func(i, j int) bool {
		if e.rules[i].Priority() != e.rules[j].Priority() {
			return e.rules[i].Priority() < e.rules[j].Priority()
		}
		return e.rules[i].Name() < e.rules[j].Name()
	})
}

// RemoveRule removes a rule by name. Returns false if no rule matched.
func (e *Engine) RemoveRule(name string) bool {
	for i, r := range e.rules {
		if r.Name() == name {
			e.rules = append(e.rules[:i], e.rules[i+1:]...)
			return true
		}
	}
	return false
}

// Rules returns the rule set in evaluation order.
func (e *Engine) Rules() []rules.Rule {
	out := make([]rules.Rule, len(e.rules))
	copy(out, e.rules)
	return out
}

// AssignTerritory evaluates rules in priority order for one client. The
// first rule producing a non-empty territory with confidence at or above
// minConfidence wins; later rules are never consulted. A rule evaluation
// error is logged and skipped, never fatal to the batch. The second return
// is false when no rule matched.
func (e *Engine) AssignTerritory(ctx context.Context, client models.Client, minConfidence float64) (models.RuleResult, bool) {
	for _, rule := range e.rules {
		if !rule.Enabled() {
			continue
		}
		if !rule.CanEvaluate(client) {
			continue
		}

		result, err := rule.Evaluate(client)
		if err != nil {
			e.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
				"rule":      rule.Name(),
				"client_id": client.ID,
			}).Error("Rule evaluation failed, skipping rule for client")
			continue
		}

		if result.Assigned() && result.Confidence >= minConfidence {
			return result, true
		}
	}

	e.logger.WithContext(ctx).WithFields(map[string]any{
		"client_id": client.ID,
	}).Warn("No rule matched for client")
	return models.RuleResult{}, false
}

// AssignBulk applies AssignTerritory to every client independently. The
// output always has one row per input client; unmatched clients keep an
// empty territory. No state is cached across calls since rule configuration
// may change between runs.
func (e *Engine) AssignBulk(ctx context.Context, clients []models.Client, minConfidence float64) []models.AssignedClient {
	ctx, span := tracing.StartSpan(ctx, "assigning.Engine.AssignBulk")
	defer span.End()

	log := e.logger.WithContext(ctx).WithFields(map[string]any{
		"client_count": len(clients),
		"rule_count":   len(e.rules),
	})
	log.Info("Assigning territories")

	assigned := make([]models.AssignedClient, len(clients))
	assignedCount := 0

	for i, client := range clients {
		assigned[i] = models.AssignedClient{Client: client}

		result, ok := e.AssignTerritory(ctx, client, minConfidence)
		if !ok {
			continue
		}

		assigned[i].TerritoryID = result.TerritoryID
		assigned[i].Confidence = result.Confidence
		assigned[i].Rule = result.RuleName
		assignedCount++
	}

	log.WithFields(map[string]any{"assigned_count": assignedCount}).Info("Territory assignment complete")
	return assigned
}

// ResolveCandidates picks the winner among simultaneously valid proposals:
// highest confidence wins, ties break by rule name for determinism. Returns
// nil when no proposal carries a territory.
func ResolveCandidates(candidates []models.RuleResult) *models.RuleResult {
	var winner *models.RuleResult

	for i := range candidates {
		c := &candidates[i]
		if !c.Assigned() {
			continue
		}
		if winner == nil ||
			c.Confidence > winner.Confidence ||
			(c.Confidence == winner.Confidence && c.RuleName < winner.RuleName) {
			winner = c
		}
	}

	return winner
}
