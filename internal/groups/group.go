package groups

import (
	"errors"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/importgroups-backend/pkg/enums"
)

var (
	ErrUnknownRole       = errors.New("unknown role")
	ErrGroupNotFound     = errors.New("import group not found")
	ErrGroupNotForming   = errors.New("import group is not forming")
	ErrRoleAlreadyFilled = errors.New("role already filled")
	ErrInvalidAttribute  = errors.New("invalid group attribute")
	ErrInvalidFilter     = errors.New("invalid transport filter")
)

// Attributes describe what an import group ships. They never change after creation.
type Attributes struct {
	DisplayName   string              `json:"displayName"`
	CargoCategory string              `json:"cargoCategory"`
	TransportMode enums.TransportMode `json:"transportMode"`
	OriginCountry string              `json:"originCountry"`
	WeightClass   string              `json:"weightClass"`
}

// RoleOccupant is one filled role slot.
type RoleOccupant struct {
	Role      enums.Role `json:"role"`
	Principal bool       `json:"isPrincipalUser"`
	Label     string     `json:"label"`
	JoinedAt  time.Time  `json:"joinedAt"`
}

type group struct {
	id          uuid.UUID
	attrs       Attributes
	occupants   map[enums.Role]RoleOccupant
	order       []enums.Role
	status      enums.GroupStatus
	createdAt   time.Time
	completedAt *time.Time
	retireTimer Timer
}

func newGroup(id uuid.UUID, attrs Attributes, now time.Time) *group {
	return &group{
		id:        id,
		attrs:     attrs,
		occupants: make(map[enums.Role]RoleOccupant, len(enums.AllRoles())),
		status:    enums.GroupStatusForming,
		createdAt: now,
	}
}

func (g *group) hasRole(role enums.Role) bool {
	_, ok := g.occupants[role]
	return ok
}

func (g *group) missingRoles() []enums.Role {
	missing := make([]enums.Role, 0, len(enums.AllRoles()))
	for _, role := range enums.AllRoles() {
		if !g.hasRole(role) {
			missing = append(missing, role)
		}
	}
	return missing
}

func (g *group) full() bool {
	return len(g.occupants) == len(enums.AllRoles())
}

func (g *group) snapshot() Snapshot {
	occupants := make([]RoleOccupant, 0, len(g.order))
	for _, role := range g.order {
		occupants = append(occupants, g.occupants[role])
	}
	snap := Snapshot{
		ID:         g.id,
		Attributes: g.attrs,
		Occupants:  occupants,
		Status:     g.status,
		CreatedAt:  g.createdAt,
	}
	if g.completedAt != nil {
		at := *g.completedAt
		snap.CompletedAt = &at
	}
	return snap
}

// Snapshot is a read-only copy of an import group.
type Snapshot struct {
	ID uuid.UUID `json:"id"`
	Attributes
	Occupants   []RoleOccupant    `json:"occupants"`
	Status      enums.GroupStatus `json:"status"`
	CreatedAt   time.Time         `json:"createdAt"`
	CompletedAt *time.Time        `json:"completedAt,omitempty"`
}

// HasRole reports whether role is already occupied.
func (s Snapshot) HasRole(role enums.Role) bool {
	for _, occ := range s.Occupants {
		if occ.Role == role {
			return true
		}
	}
	return false
}

// IsComplete reports whether every role in the universe is filled.
func (s Snapshot) IsComplete() bool {
	return len(s.Occupants) == len(enums.AllRoles())
}

// MissingRoles returns the unfilled roles in canonical order.
func (s Snapshot) MissingRoles() []enums.Role {
	missing := make([]enums.Role, 0, len(enums.AllRoles()))
	for _, role := range enums.AllRoles() {
		if !s.HasRole(role) {
			missing = append(missing, role)
		}
	}
	return missing
}

// Progress returns the filled share of role slots as a whole percentage.
func (s Snapshot) Progress() int {
	total := len(enums.AllRoles())
	return int(math.Round(float64(len(s.Occupants)) / float64(total) * 100))
}
