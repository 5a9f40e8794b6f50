package archive

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/importgroups-backend/internal/groups"
	"github.com/angelmondragon/importgroups-backend/pkg/db/models"
	dbtypes "github.com/angelmondragon/importgroups-backend/pkg/db/types"
	"github.com/angelmondragon/importgroups-backend/pkg/enums"
	"github.com/angelmondragon/importgroups-backend/pkg/logger"
)

// Archiver records every retired group. It ignores all other events.
type Archiver struct {
	repo Repository
	logg *logger.Logger
}

var _ groups.Listener = (*Archiver)(nil)

func NewArchiver(repo Repository, logg *logger.Logger) (*Archiver, error) {
	if repo == nil {
		return nil, fmt.Errorf("archive repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Archiver{repo: repo, logg: logg}, nil
}

func (a *Archiver) HandleGroupEvent(ctx context.Context, event groups.Event) error {
	if event.Type != enums.GroupEventRetired {
		return nil
	}

	record := RecordFromSnapshot(event.Group, event.At)
	inserted, err := a.repo.Save(ctx, record)
	if err != nil {
		return fmt.Errorf("archive group %s: %w", event.Group.ID, err)
	}

	ctx = a.logg.WithGroupID(ctx, event.Group.ID.String())
	if !inserted {
		a.logg.Warn(ctx, "group already archived")
		return nil
	}
	a.logg.Debug(ctx, "group archived")
	return nil
}

// RecordFromSnapshot converts a retired snapshot to its stored form.
// Timestamps are truncated to the microsecond precision Postgres keeps.
func RecordFromSnapshot(snap groups.Snapshot, retiredAt time.Time) *models.ArchivedGroup {
	occupants := make(dbtypes.Occupants, 0, len(snap.Occupants))
	for _, occ := range snap.Occupants {
		occupants = append(occupants, dbtypes.OccupantRecord{
			Role:      string(occ.Role),
			Principal: occ.Principal,
			Label:     occ.Label,
			JoinedAt:  storedTime(occ.JoinedAt),
		})
	}

	record := &models.ArchivedGroup{
		ID:            snap.ID,
		DisplayName:   snap.DisplayName,
		CargoCategory: snap.CargoCategory,
		TransportMode: snap.TransportMode,
		OriginCountry: snap.OriginCountry,
		WeightClass:   snap.WeightClass,
		Status:        snap.Status,
		Occupants:     occupants,
		CreatedAt:     storedTime(snap.CreatedAt),
		RetiredAt:     storedTime(retiredAt),
	}
	if snap.CompletedAt != nil {
		completed := storedTime(*snap.CompletedAt)
		record.CompletedAt = &completed
	}
	return record
}

func storedTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
