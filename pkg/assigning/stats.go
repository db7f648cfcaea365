package assigning

import "github.com/Ramsey-B/clover/pkg/models"

// Stats summarizes rule usage across one bulk evaluation.
type Stats struct {
	TotalClients   int            `json:"total_clients"`
	TotalAssigned  int            `json:"total_assigned"`
	Unassigned     int            `json:"unassigned"`
	RuleUsage      map[string]int `json:"rule_usage"`
	AssignmentRate float64        `json:"assignment_rate"`
}

// Statistics computes rule usage statistics over a bulk evaluation result.
func Statistics(assigned []models.AssignedClient) Stats {
	stats := Stats{
		TotalClients: len(assigned),
		RuleUsage:    make(map[string]int),
	}

	for _, a := range assigned {
		if !a.Assigned() {
			continue
		}
		stats.TotalAssigned++
		stats.RuleUsage[a.Rule]++
	}

	stats.Unassigned = stats.TotalClients - stats.TotalAssigned
	if stats.TotalClients > 0 {
		stats.AssignmentRate = float64(stats.TotalAssigned) / float64(stats.TotalClients) * 100
	}

	return stats
}
