package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/angelmondragon/importgroups-backend/pkg/db/types"
	"github.com/angelmondragon/importgroups-backend/pkg/enums"
)

// ArchivedGroup is an import group that has left the active set.
type ArchivedGroup struct {
	ID            uuid.UUID           `gorm:"type:text;primaryKey" json:"id"`
	DisplayName   string              `gorm:"type:text;not null" json:"displayName"`
	CargoCategory string              `gorm:"type:text;not null" json:"cargoCategory"`
	TransportMode enums.TransportMode `gorm:"type:text;not null" json:"transportMode"`
	OriginCountry string              `gorm:"type:text;not null" json:"originCountry"`
	WeightClass   string              `gorm:"type:text;not null" json:"weightClass"`
	Status        enums.GroupStatus   `gorm:"type:text;not null" json:"status"`
	Occupants     dbtypes.Occupants   `gorm:"type:text;not null" json:"occupants"`
	CreatedAt     time.Time           `gorm:"type:timestamp;not null" json:"createdAt"`
	CompletedAt   *time.Time          `gorm:"type:timestamp" json:"completedAt,omitempty"`
	RetiredAt     time.Time           `gorm:"type:timestamp;not null" json:"retiredAt"`
}

func (ArchivedGroup) TableName() string { return "archived_groups" }
