package enums

import "fmt"

// GroupStatus tracks the lifecycle of an active import group.
type GroupStatus string

const (
	GroupStatusForming  GroupStatus = "forming"
	GroupStatusComplete GroupStatus = "complete"
)

var validGroupStatuses = []GroupStatus{
	GroupStatusForming,
	GroupStatusComplete,
}

// IsValid reports whether the value is a known GroupStatus.
func (s GroupStatus) IsValid() bool {
	for _, candidate := range validGroupStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseGroupStatus converts the raw string to GroupStatus.
func ParseGroupStatus(value string) (GroupStatus, error) {
	for _, candidate := range validGroupStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid group status %q", value)
}

// GroupEventType names the lifecycle events emitted by the engine.
type GroupEventType string

const (
	GroupEventCreated       GroupEventType = "import_group.created"
	GroupEventOccupantAdded GroupEventType = "import_group.occupant_added"
	GroupEventCompleted     GroupEventType = "import_group.completed"
	GroupEventRetired       GroupEventType = "import_group.retired"
)
