package groups

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/angelmondragon/importgroups-backend/pkg/enums"
	"github.com/angelmondragon/importgroups-backend/pkg/logger"
	"github.com/angelmondragon/importgroups-backend/pkg/metrics"
)

const (
	DefaultRetireDelay         = 3 * time.Second
	DefaultMaxDemoGroups       = 5
	DefaultCreateProbability   = 0.3
	DefaultMaxInitialOccupants = 3

	principalLabel   = "User"
	retiredIDsMemory = 1024
)

// EngineParams configures a new Engine.
type EngineParams struct {
	Catalog   *Catalog
	Random    Randomizer
	Scheduler Scheduler
	Logger    *logger.Logger
	Metrics   *metrics.GroupMetrics
	Listeners []Listener

	RetireDelay         time.Duration
	MaxDemoGroups       int
	CreateProbability   float64
	MaxInitialOccupants int
}

// Engine owns the active import groups and the transport filter set.
// Every method is safe for concurrent use.
type Engine struct {
	catalog   *Catalog
	random    Randomizer
	scheduler Scheduler
	logg      *logger.Logger
	metrics   *metrics.GroupMetrics
	listeners []Listener

	retireDelay         time.Duration
	maxDemoGroups       int
	createProbability   float64
	maxInitialOccupants int

	mu         sync.Mutex
	groups     []*group
	index      map[uuid.UUID]*group
	filters    map[enums.TransportMode]struct{}
	retired    map[uuid.UUID]struct{}
	retiredLog []uuid.UUID
	closed     bool
}

// TickResult reports what one demo tick changed.
type TickResult struct {
	Created    *Snapshot   `json:"created,omitempty"`
	Filled     *Snapshot   `json:"filled,omitempty"`
	FilledRole *enums.Role `json:"filledRole,omitempty"`
}

// NewEngine validates params and returns an empty engine.
func NewEngine(params EngineParams) (*Engine, error) {
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	catalog := params.Catalog
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	if err := catalog.Validate(); err != nil {
		return nil, err
	}
	if params.CreateProbability < 0 || params.CreateProbability > 1 {
		return nil, fmt.Errorf("create probability %v outside [0,1]", params.CreateProbability)
	}
	if params.RetireDelay < 0 {
		return nil, errors.New("retire delay must not be negative")
	}
	random := params.Random
	if random == nil {
		random = NewRandomizer(0)
	}
	scheduler := params.Scheduler
	if scheduler == nil {
		scheduler = SystemScheduler{}
	}
	retireDelay := params.RetireDelay
	if retireDelay == 0 {
		retireDelay = DefaultRetireDelay
	}
	maxDemo := params.MaxDemoGroups
	if maxDemo <= 0 {
		maxDemo = DefaultMaxDemoGroups
	}
	// demo-created groups must stay forming
	maxInitial := params.MaxInitialOccupants
	if maxInitial <= 0 {
		maxInitial = DefaultMaxInitialOccupants
	}
	maxInitial = min(maxInitial, len(enums.AllRoles())-1)

	return &Engine{
		catalog:             catalog,
		random:              random,
		scheduler:           scheduler,
		logg:                params.Logger,
		metrics:             params.Metrics,
		listeners:           slices.Clone(params.Listeners),
		retireDelay:         retireDelay,
		maxDemoGroups:       maxDemo,
		createProbability:   params.CreateProbability,
		maxInitialOccupants: maxInitial,
		index:               make(map[uuid.UUID]*group),
		filters:             make(map[enums.TransportMode]struct{}),
		retired:             make(map[uuid.UUID]struct{}),
	}, nil
}

// Catalog returns the category lists the engine draws from.
func (e *Engine) Catalog() *Catalog {
	return e.catalog
}

// CreateGroup appends a forming group. Omitted attributes are drawn at random.
func (e *Engine) CreateGroup(ctx context.Context, attrs Attributes) Snapshot {
	e.mu.Lock()
	g := e.createLocked(attrs)
	snap := g.snapshot()
	events := []Event{e.event(enums.GroupEventCreated, snap, "")}
	e.mu.Unlock()

	e.dispatch(ctx, events)
	return snap
}

// CreateForPrincipal creates a group with the principal user already
// occupying role.
func (e *Engine) CreateForPrincipal(ctx context.Context, role enums.Role, attrs Attributes) (Snapshot, error) {
	if !role.IsValid() {
		e.metrics.IncRejection("unknown_role")
		return Snapshot{}, fmt.Errorf("create group for %q: %w", role, ErrUnknownRole)
	}
	e.mu.Lock()
	g := e.createLocked(attrs)
	events := []Event{e.event(enums.GroupEventCreated, g.snapshot(), "")}
	// a fresh group cannot reject its first occupant
	events = append(events, e.fillLocked(g, role, true)...)
	snap := g.snapshot()
	e.mu.Unlock()

	e.dispatch(ctx, events)
	return snap, nil
}

// AddOccupant fills role in the group. Either the role is filled or nothing
// changes.
func (e *Engine) AddOccupant(ctx context.Context, id uuid.UUID, role enums.Role, principal bool) (Snapshot, error) {
	e.mu.Lock()
	g, err := e.formingLocked(id, role)
	if err != nil {
		e.mu.Unlock()
		return Snapshot{}, err
	}
	events := e.fillLocked(g, role, principal)
	snap := g.snapshot()
	e.mu.Unlock()

	e.dispatch(ctx, events)
	return snap, nil
}

// Get returns the active group with id.
func (e *Engine) Get(id uuid.UUID) (Snapshot, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	g, ok := e.index[id]
	if !ok {
		return Snapshot{}, false
	}
	return g.snapshot(), true
}

// IsComplete reports whether the active group has every role filled.
func (e *Engine) IsComplete(id uuid.UUID) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	g, err := e.lookupLocked(id)
	if err != nil {
		return false, err
	}
	return g.full(), nil
}

// MissingRoles returns the unfilled roles of the active group in canonical order.
func (e *Engine) MissingRoles(id uuid.UUID) ([]enums.Role, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	g, err := e.lookupLocked(id)
	if err != nil {
		return nil, err
	}
	return g.missingRoles(), nil
}

// ListActive returns every active group in creation order.
func (e *Engine) ListActive() []Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Snapshot, 0, len(e.groups))
	for _, g := range e.groups {
		out = append(out, g.snapshot())
	}
	return out
}

// AvailableForRole yields forming groups where role is still open. The
// sequence reads the current state each time it is ranged over.
func (e *Engine) AvailableForRole(role enums.Role) iter.Seq[Snapshot] {
	return func(yield func(Snapshot) bool) {
		if !role.IsValid() {
			return
		}
		e.mu.Lock()
		matches := make([]Snapshot, 0, len(e.groups))
		for _, g := range e.groups {
			if g.status == enums.GroupStatusForming && !g.hasRole(role) {
				matches = append(matches, g.snapshot())
			}
		}
		e.mu.Unlock()

		for _, snap := range matches {
			if !yield(snap) {
				return
			}
		}
	}
}

// RetireGroup removes the group from the active set and cancels its pending
// retirement. It reports whether the group was active.
func (e *Engine) RetireGroup(ctx context.Context, id uuid.UUID) bool {
	e.mu.Lock()
	g, ok := e.index[id]
	if !ok {
		e.mu.Unlock()
		return false
	}
	if g.retireTimer != nil {
		g.retireTimer.Stop()
		g.retireTimer = nil
	}
	e.groups = slices.DeleteFunc(e.groups, func(candidate *group) bool { return candidate.id == id })
	delete(e.index, id)
	e.rememberRetiredLocked(id)
	e.metrics.IncRetired()
	e.metrics.SetActive(len(e.groups))
	events := []Event{e.event(enums.GroupEventRetired, g.snapshot(), "")}
	e.mu.Unlock()

	e.logg.Info(e.logg.WithGroupID(ctx, id.String()), "import group retired")
	e.dispatch(ctx, events)
	return true
}

// SetFilter adds mode to the active filter set.
func (e *Engine) SetFilter(mode enums.TransportMode) error {
	if !mode.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidFilter, mode)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.filters[mode] = struct{}{}
	return nil
}

// ToggleFilter flips mode in the filter set and reports whether it is now active.
func (e *Engine) ToggleFilter(mode enums.TransportMode) (bool, error) {
	if !mode.IsValid() {
		return false, fmt.Errorf("%w: %q", ErrInvalidFilter, mode)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.filters[mode]; ok {
		delete(e.filters, mode)
		return false, nil
	}
	e.filters[mode] = struct{}{}
	return true, nil
}

// ClearFilters empties the filter set.
func (e *Engine) ClearFilters() {
	e.mu.Lock()
	defer e.mu.Unlock()
	clear(e.filters)
}

// ActiveFilters returns the filter set in canonical transport order.
func (e *Engine) ActiveFilters() []enums.TransportMode {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]enums.TransportMode, 0, len(e.filters))
	for _, mode := range enums.AllTransportModes() {
		if _, ok := e.filters[mode]; ok {
			out = append(out, mode)
		}
	}
	return out
}

// VisibleGroups returns active groups whose transport mode is in the filter
// set, or every active group when no filter is set.
func (e *Engine) VisibleGroups() []Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.matchingLocked(e.filters)
}

// GroupsMatching applies modes as a one-off filter without touching the
// stored filter set.
func (e *Engine) GroupsMatching(modes []enums.TransportMode) ([]Snapshot, error) {
	set := make(map[enums.TransportMode]struct{}, len(modes))
	for _, mode := range modes {
		if !mode.IsValid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidFilter, mode)
		}
		set[mode] = struct{}{}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.matchingLocked(set), nil
}

// RunDemoTick performs one unit of simulated activity. The creation draw is
// always taken first; a group is created when it falls below the configured
// probability and fewer than the maximum demo groups are active. Then one
// random forming group gets one random missing role filled.
func (e *Engine) RunDemoTick(ctx context.Context) TickResult {
	var result TickResult
	var events []Event

	e.mu.Lock()
	draw := e.random.Float64()
	if draw < e.createProbability && len(e.groups) < e.maxDemoGroups {
		created, createEvents := e.createDemoLocked(Attributes{}, "")
		events = append(events, createEvents...)
		result.Created = &created
	}

	forming := make([]*group, 0, len(e.groups))
	for _, g := range e.groups {
		if g.status == enums.GroupStatusForming {
			forming = append(forming, g)
		}
	}
	if len(forming) > 0 {
		target := pick(e.random, forming)
		role := pick(e.random, target.missingRoles())
		events = append(events, e.fillLocked(target, role, false)...)
		filled := target.snapshot()
		result.Filled = &filled
		result.FilledRole = &role
	}
	e.mu.Unlock()

	e.dispatch(ctx, events)
	return result
}

// StartDemo creates the initial demo group when the active set is empty.
func (e *Engine) StartDemo(ctx context.Context) (Snapshot, bool) {
	e.mu.Lock()
	if len(e.groups) > 0 {
		e.mu.Unlock()
		return Snapshot{}, false
	}
	snap, events := e.createDemoLocked(Attributes{}, "")
	e.mu.Unlock()

	e.dispatch(ctx, events)
	return snap, true
}

// SeedForRole creates count demo groups, each with 1 to 3 simulated occupants,
// leaving role open in every one of them.
func (e *Engine) SeedForRole(ctx context.Context, role enums.Role, count int) ([]Snapshot, error) {
	if !role.IsValid() {
		return nil, fmt.Errorf("seed groups for %q: %w", role, ErrUnknownRole)
	}
	if count <= 0 {
		return nil, nil
	}
	var events []Event
	out := make([]Snapshot, 0, count)

	e.mu.Lock()
	for range count {
		snap, created := e.createDemoLocked(Attributes{}, role)
		out = append(out, snap)
		events = append(events, created...)
	}
	e.mu.Unlock()

	e.dispatch(ctx, events)
	return out, nil
}

// Close cancels every pending retirement. Groups stay in the active set.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, g := range e.groups {
		if g.retireTimer != nil {
			g.retireTimer.Stop()
			g.retireTimer = nil
		}
	}
	e.closed = true
}

func (e *Engine) createLocked(attrs Attributes) *group {
	if attrs.DisplayName == "" {
		attrs.DisplayName = pick(e.random, e.catalog.DisplayNames)
	}
	if attrs.CargoCategory == "" {
		attrs.CargoCategory = pick(e.random, e.catalog.CargoCategories)
	}
	if attrs.TransportMode == "" {
		attrs.TransportMode = pick(e.random, enums.AllTransportModes())
	}
	if attrs.OriginCountry == "" {
		attrs.OriginCountry = pick(e.random, e.catalog.OriginCountries)
	}
	if attrs.WeightClass == "" {
		attrs.WeightClass = pick(e.random, e.catalog.WeightClasses).ID
	}
	g := newGroup(uuid.New(), attrs, e.scheduler.Now())
	e.groups = append(e.groups, g)
	e.index[g.id] = g
	e.metrics.IncCreated()
	e.metrics.SetActive(len(e.groups))
	return g
}

// createDemoLocked creates a random group holding up to maxInitialOccupants
// simulated occupants. A non-empty reserved role is never filled.
func (e *Engine) createDemoLocked(attrs Attributes, reserved enums.Role) (Snapshot, []Event) {
	g := e.createLocked(attrs)
	events := []Event{e.event(enums.GroupEventCreated, g.snapshot(), "")}
	initial := 1 + e.random.IntN(e.maxInitialOccupants)
	for range initial {
		candidates := slices.DeleteFunc(g.missingRoles(), func(r enums.Role) bool { return r == reserved })
		if len(candidates) == 0 {
			break
		}
		events = append(events, e.fillLocked(g, pick(e.random, candidates), false)...)
	}
	return g.snapshot(), events
}

func (e *Engine) lookupLocked(id uuid.UUID) (*group, error) {
	g, ok := e.index[id]
	if ok {
		return g, nil
	}
	if _, gone := e.retired[id]; gone {
		return nil, fmt.Errorf("group %s was retired: %w", id, ErrGroupNotForming)
	}
	return nil, fmt.Errorf("group %s: %w", id, ErrGroupNotFound)
}

func (e *Engine) formingLocked(id uuid.UUID, role enums.Role) (*group, error) {
	if !role.IsValid() {
		e.metrics.IncRejection("unknown_role")
		return nil, fmt.Errorf("add %q to group %s: %w", role, id, ErrUnknownRole)
	}
	g, err := e.lookupLocked(id)
	if err != nil {
		if errors.Is(err, ErrGroupNotFound) {
			e.metrics.IncRejection("not_found")
		} else {
			e.metrics.IncRejection("not_forming")
		}
		return nil, err
	}
	if g.status != enums.GroupStatusForming {
		e.metrics.IncRejection("not_forming")
		return nil, fmt.Errorf("add %s to group %s: %w", role, id, ErrGroupNotForming)
	}
	if g.hasRole(role) {
		e.metrics.IncRejection("role_already_filled")
		return nil, fmt.Errorf("add %s to group %s: %w", role, id, ErrRoleAlreadyFilled)
	}
	return g, nil
}

// fillLocked inserts the occupant. Callers have checked the slot is open.
func (e *Engine) fillLocked(g *group, role enums.Role, principal bool) []Event {
	now := e.scheduler.Now()
	label := principalLabel
	if !principal {
		label = pick(e.random, e.catalog.CompanyPrefixes) + " " + pick(e.random, e.catalog.CompanySuffixes)
	}
	g.occupants[role] = RoleOccupant{Role: role, Principal: principal, Label: label, JoinedAt: now}
	g.order = append(g.order, role)
	e.metrics.IncOccupant(role.String(), principal)

	events := []Event{e.event(enums.GroupEventOccupantAdded, g.snapshot(), role)}
	if !g.full() {
		return events
	}

	g.status = enums.GroupStatusComplete
	g.completedAt = &now
	e.metrics.IncCompleted()
	if !e.closed {
		id := g.id
		g.retireTimer = e.scheduler.AfterFunc(e.retireDelay, func() {
			e.RetireGroup(context.Background(), id)
		})
	}
	return append(events, e.event(enums.GroupEventCompleted, g.snapshot(), ""))
}

func (e *Engine) matchingLocked(modes map[enums.TransportMode]struct{}) []Snapshot {
	out := make([]Snapshot, 0, len(e.groups))
	for _, g := range e.groups {
		if len(modes) > 0 {
			if _, ok := modes[g.attrs.TransportMode]; !ok {
				continue
			}
		}
		out = append(out, g.snapshot())
	}
	return out
}

func (e *Engine) rememberRetiredLocked(id uuid.UUID) {
	e.retired[id] = struct{}{}
	e.retiredLog = append(e.retiredLog, id)
	if len(e.retiredLog) > retiredIDsMemory {
		oldest := e.retiredLog[0]
		e.retiredLog = e.retiredLog[1:]
		delete(e.retired, oldest)
	}
}

func (e *Engine) event(kind enums.GroupEventType, snap Snapshot, role enums.Role) Event {
	return Event{Type: kind, Group: snap, Role: role, At: e.scheduler.Now()}
}

// dispatch runs outside the engine lock so listeners may call back into the engine.
func (e *Engine) dispatch(ctx context.Context, events []Event) {
	if len(events) == 0 {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	for _, event := range events {
		if event.Type == enums.GroupEventCompleted {
			e.logg.Info(e.logg.WithGroupID(ctx, event.Group.ID.String()), "import group complete")
		}
		var errs error
		for _, listener := range e.listeners {
			errs = multierr.Append(errs, listener.HandleGroupEvent(ctx, event))
		}
		if errs != nil {
			logCtx := e.logg.WithFields(ctx, map[string]any{
				"group_id":   event.Group.ID.String(),
				"event_type": string(event.Type),
			})
			e.logg.Error(logCtx, "group event listener failed", errs)
		}
	}
}
