package groups

import (
	"context"
	"time"

	"github.com/angelmondragon/importgroups-backend/pkg/enums"
)

// Event describes a lifecycle change of an import group.
type Event struct {
	Type  enums.GroupEventType
	Group Snapshot
	Role  enums.Role
	At    time.Time
}

// Listener receives engine events after the mutation that produced them has
// been committed. Returned errors are logged; they never undo the mutation.
type Listener interface {
	HandleGroupEvent(ctx context.Context, event Event) error
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(ctx context.Context, event Event) error

func (f ListenerFunc) HandleGroupEvent(ctx context.Context, event Event) error {
	return f(ctx, event)
}
