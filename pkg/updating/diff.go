package updating

import (
	"time"

	"github.com/google/uuid"

	"github.com/Ramsey-B/clover/pkg/models"
)

// Diff compares the newly evaluated assignments against the prior assignment
// set and produces one change record per affected client. Pure function; the
// classification is NEW (no prior, new present), REMOVED (prior present, new
// absent), CHANGED (both present, different), nothing when unchanged. Clients
// absent from the new population produce no record.
func Diff(evaluated []models.AssignedClient, prior []models.Assignment, now time.Time) []models.ChangeRecord {
	oldTerritories := make(map[string]*string, len(prior))
	for _, a := range prior {
		if a.IsCurrent {
			oldTerritories[a.ClientID] = a.TerritoryID
		}
	}

	var changes []models.ChangeRecord
	for _, ac := range evaluated {
		oldTerritory, hadPrior := oldTerritories[ac.Client.ID]
		hasOld := hadPrior && oldTerritory != nil

		var changeType models.ChangeType
		switch {
		case !hasOld && ac.Assigned():
			changeType = models.ChangeTypeNew
		case hasOld && !ac.Assigned():
			changeType = models.ChangeTypeRemoved
		case hasOld && ac.Assigned() && *oldTerritory != ac.TerritoryID:
			changeType = models.ChangeTypeChanged
		default:
			continue
		}

		record := models.ChangeRecord{
			ID:         uuid.NewString(),
			ClientID:   ac.Client.ID,
			ClientName: ac.Client.Name,
			ChangeType: changeType,
			Timestamp:  now,
		}
		if hasOld {
			old := *oldTerritory
			record.OldTerritory = &old
		}
		if ac.Assigned() {
			newTerritory := ac.TerritoryID
			record.NewTerritory = &newTerritory
		}
		if ac.Rule != "" {
			rule := ac.Rule
			record.Rule = &rule
		}

		changes = append(changes, record)
	}

	return changes
}
