package dimensional

import (
	"context"
	"sort"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/errors"
	"github.com/Ramsey-B/clover/pkg/models"
)

// maxReportedKeys caps how many offending keys an integrity error carries.
const maxReportedKeys = 5

// Validator is the strict quality gate run before any persisted write. It
// hard-fails the run on violations, unlike the conflict detector which
// reports the same conditions non-fatally on committed data.
type Validator struct {
	logger ectologger.Logger
}

// NewValidator creates a new Validator
func NewValidator(logger ectologger.Logger) *Validator {
	return &Validator{logger: logger}
}

// Validate runs row-count, completeness, and referential integrity checks
// over the dimension tables and computed assignments.
func (v *Validator) Validate(ctx context.Context, clients []models.Client, territories []models.Territory, assignments []models.Assignment) error {
	if err := v.validateRowCounts(ctx, clients, territories, assignments); err != nil {
		return err
	}
	if err := v.validateCompleteness(clients, territories); err != nil {
		return err
	}
	if err := v.validateReferentialIntegrity(clients, territories, assignments); err != nil {
		return err
	}

	v.logger.WithContext(ctx).Info("quality checks passed")
	return nil
}

func (v *Validator) validateRowCounts(ctx context.Context, clients []models.Client, territories []models.Territory, assignments []models.Assignment) error {
	v.logger.WithContext(ctx).WithFields(map[string]any{
		"clients":     len(clients),
		"territories": len(territories),
		"assignments": len(assignments),
	}).Info("validating row counts")

	if len(clients) == 0 {
		return errors.NewValidationError("clients", "client dimension is empty")
	}
	if len(territories) == 0 {
		return errors.NewValidationError("territories", "territory dimension is empty")
	}
	if len(assignments) == 0 {
		return errors.NewValidationError("assignments", "assignment set is empty")
	}
	return nil
}

func (v *Validator) validateCompleteness(clients []models.Client, territories []models.Territory) error {
	for _, c := range clients {
		if c.ID == "" {
			return errors.NewValidationError("clients", "client with empty client_id")
		}
		if c.Name == "" {
			return errors.NewValidationError("clients", "client "+c.ID+" has empty client_name")
		}
	}
	for _, t := range territories {
		if t.ID == "" {
			return errors.NewValidationError("territories", "territory with empty territory_id")
		}
	}
	return nil
}

func (v *Validator) validateReferentialIntegrity(clients []models.Client, territories []models.Territory, assignments []models.Assignment) error {
	validClients := make(map[string]bool, len(clients))
	for _, c := range clients {
		validClients[c.ID] = true
	}
	validTerritories := make(map[string]bool, len(territories))
	for _, t := range territories {
		validTerritories[t.ID] = true
	}

	orphanedClients := make(map[string]bool)
	orphanedTerritories := make(map[string]bool)
	for _, a := range assignments {
		if !validClients[a.ClientID] {
			orphanedClients[a.ClientID] = true
		}
		if a.TerritoryID != nil && !validTerritories[*a.TerritoryID] {
			orphanedTerritories[*a.TerritoryID] = true
		}
	}

	if len(orphanedClients) > 0 {
		return errors.NewReferentialIntegrityError("assignments.client_id", sampleKeys(orphanedClients))
	}
	if len(orphanedTerritories) > 0 {
		return errors.NewReferentialIntegrityError("assignments.territory_id", sampleKeys(orphanedTerritories))
	}
	return nil
}

func sampleKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > maxReportedKeys {
		keys = keys[:maxReportedKeys]
	}
	return keys
}
