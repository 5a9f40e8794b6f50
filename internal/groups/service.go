package groups

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/importgroups-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/importgroups-backend/pkg/errors"
	"github.com/angelmondragon/importgroups-backend/pkg/logger"
)

const (
	DefaultSeedCount = 2
	maxSeedCount     = 10
)

// Service is the request-facing API over the engine. Errors are pkg/errors
// values carrying an HTTP-ready code.
type Service interface {
	Create(ctx context.Context, input CreateInput) (GroupView, error)
	CreateForUser(ctx context.Context, principal Principal, input CreateInput) (GroupView, error)
	Join(ctx context.Context, principal Principal, groupID uuid.UUID) (GroupView, error)
	AddSimulated(ctx context.Context, groupID uuid.UUID, role enums.Role) (GroupView, error)
	Get(ctx context.Context, groupID uuid.UUID) (GroupView, error)
	List(ctx context.Context, transport []enums.TransportMode) ([]GroupView, error)
	Available(ctx context.Context, role enums.Role) ([]GroupView, error)
	Retire(ctx context.Context, groupID uuid.UUID) error
	Filters(ctx context.Context) FilterState
	SetFilter(ctx context.Context, mode enums.TransportMode) (FilterState, error)
	ToggleFilter(ctx context.Context, mode enums.TransportMode) (FilterState, error)
	ClearFilters(ctx context.Context) FilterState
	Seed(ctx context.Context, role enums.Role, count int) ([]GroupView, error)
	Roles(ctx context.Context) []RoleInfo
	DemoTick(ctx context.Context) TickResult
}

// Principal is the authenticated user acting on groups.
type Principal struct {
	UserID uuid.UUID
	Role   enums.Role
}

// CreateInput holds explicit attributes for a new group. GrossWeightKg, when
// set, picks the weight class.
type CreateInput struct {
	Attributes
	GrossWeightKg *decimal.Decimal
}

// GroupView is a snapshot with its derived display fields.
type GroupView struct {
	Snapshot
	MissingRoles []enums.Role `json:"missingRoles"`
	Progress     int          `json:"progress"`
}

// FilterState is the stored transport filter set.
type FilterState struct {
	Active    []enums.TransportMode `json:"active"`
	Available []enums.TransportMode `json:"available"`
}

// RoleInfo describes a role for the role catalog.
type RoleInfo struct {
	Role        enums.Role `json:"role"`
	Description string     `json:"description"`
}

type service struct {
	engine *Engine
	logg   *logger.Logger
}

func NewService(engine *Engine, logg *logger.Logger) (Service, error) {
	if engine == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "group engine required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &service{engine: engine, logg: logg}, nil
}

// NewView derives the display fields of snap.
func NewView(snap Snapshot) GroupView {
	return GroupView{Snapshot: snap, MissingRoles: snap.MissingRoles(), Progress: snap.Progress()}
}

func (s *service) Create(ctx context.Context, input CreateInput) (GroupView, error) {
	attrs, err := s.resolve(input)
	if err != nil {
		return GroupView{}, err
	}
	return NewView(s.engine.CreateGroup(ctx, attrs)), nil
}

func (s *service) CreateForUser(ctx context.Context, principal Principal, input CreateInput) (GroupView, error) {
	if principal.Role != enums.RoleImporter {
		return GroupView{}, pkgerrors.New(pkgerrors.CodeForbidden, "only importers can create import groups")
	}
	attrs, err := s.resolve(input)
	if err != nil {
		return GroupView{}, err
	}
	snap, err := s.engine.CreateForPrincipal(ctx, principal.Role, attrs)
	if err != nil {
		return GroupView{}, mapEngineError(err)
	}
	logCtx := s.logg.WithGroupID(s.logg.WithUserID(ctx, principal.UserID.String()), snap.ID.String())
	s.logg.Info(logCtx, "importer created group")
	return NewView(snap), nil
}

func (s *service) Join(ctx context.Context, principal Principal, groupID uuid.UUID) (GroupView, error) {
	snap, err := s.engine.AddOccupant(ctx, groupID, principal.Role, true)
	if err != nil {
		return GroupView{}, mapEngineError(err)
	}
	logCtx := s.logg.WithActorRole(s.logg.WithUserID(ctx, principal.UserID.String()), principal.Role.String())
	s.logg.Info(s.logg.WithGroupID(logCtx, groupID.String()), "user joined group")
	return NewView(snap), nil
}

func (s *service) AddSimulated(ctx context.Context, groupID uuid.UUID, role enums.Role) (GroupView, error) {
	snap, err := s.engine.AddOccupant(ctx, groupID, role, false)
	if err != nil {
		return GroupView{}, mapEngineError(err)
	}
	return NewView(snap), nil
}

func (s *service) Get(_ context.Context, groupID uuid.UUID) (GroupView, error) {
	snap, ok := s.engine.Get(groupID)
	if !ok {
		return GroupView{}, pkgerrors.New(pkgerrors.CodeNotFound, "import group not found")
	}
	return NewView(snap), nil
}

// List applies transport as a one-off filter, or the stored filters when empty.
func (s *service) List(_ context.Context, transport []enums.TransportMode) ([]GroupView, error) {
	if len(transport) == 0 {
		return views(s.engine.VisibleGroups()), nil
	}
	snaps, err := s.engine.GroupsMatching(transport)
	if err != nil {
		return nil, mapEngineError(err)
	}
	return views(snaps), nil
}

func (s *service) Available(_ context.Context, role enums.Role) ([]GroupView, error) {
	if !role.IsValid() {
		return nil, mapEngineError(fmt.Errorf("available groups for %q: %w", role, ErrUnknownRole))
	}
	out := []GroupView{}
	for snap := range s.engine.AvailableForRole(role) {
		out = append(out, NewView(snap))
	}
	return out, nil
}

func (s *service) Retire(ctx context.Context, groupID uuid.UUID) error {
	if !s.engine.RetireGroup(ctx, groupID) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "import group not found")
	}
	return nil
}

func (s *service) Filters(context.Context) FilterState {
	return s.filterState()
}

func (s *service) SetFilter(_ context.Context, mode enums.TransportMode) (FilterState, error) {
	if err := s.engine.SetFilter(mode); err != nil {
		return FilterState{}, mapEngineError(err)
	}
	return s.filterState(), nil
}

func (s *service) ToggleFilter(_ context.Context, mode enums.TransportMode) (FilterState, error) {
	if _, err := s.engine.ToggleFilter(mode); err != nil {
		return FilterState{}, mapEngineError(err)
	}
	return s.filterState(), nil
}

func (s *service) ClearFilters(context.Context) FilterState {
	s.engine.ClearFilters()
	return s.filterState()
}

func (s *service) Seed(ctx context.Context, role enums.Role, count int) ([]GroupView, error) {
	if count == 0 {
		count = DefaultSeedCount
	}
	if count < 0 || count > maxSeedCount {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("count must be between 1 and %d", maxSeedCount))
	}
	snaps, err := s.engine.SeedForRole(ctx, role, count)
	if err != nil {
		return nil, mapEngineError(err)
	}
	return views(snaps), nil
}

func (s *service) Roles(context.Context) []RoleInfo {
	roles := enums.AllRoles()
	out := make([]RoleInfo, 0, len(roles))
	for _, role := range roles {
		out = append(out, RoleInfo{Role: role, Description: s.engine.Catalog().RoleDescription(role)})
	}
	return out
}

func (s *service) DemoTick(ctx context.Context) TickResult {
	return s.engine.RunDemoTick(ctx)
}

func (s *service) resolve(input CreateInput) (Attributes, error) {
	attrs := input.Attributes
	catalog := s.engine.Catalog()
	if input.GrossWeightKg != nil {
		class, err := catalog.ClassifyWeight(*input.GrossWeightKg)
		if err != nil {
			return Attributes{}, mapEngineError(err)
		}
		if attrs.WeightClass != "" && attrs.WeightClass != class.ID {
			return Attributes{}, pkgerrors.New(pkgerrors.CodeValidation, "weight class does not match gross weight").
				WithDetails(map[string]string{"weightClass": attrs.WeightClass, "expected": class.ID})
		}
		attrs.WeightClass = class.ID
	}
	if err := catalog.ValidateAttributes(attrs); err != nil {
		return Attributes{}, mapEngineError(err)
	}
	return attrs, nil
}

func (s *service) filterState() FilterState {
	return FilterState{Active: s.engine.ActiveFilters(), Available: enums.AllTransportModes()}
}

func views(snaps []Snapshot) []GroupView {
	out := make([]GroupView, 0, len(snaps))
	for _, snap := range snaps {
		out = append(out, NewView(snap))
	}
	return out
}

var validationErrors = []error{ErrUnknownRole, ErrInvalidAttribute, ErrInvalidFilter}

func mapEngineError(err error) error {
	switch {
	case err == nil:
		return nil
	case pkgerrors.As(err) != nil:
		return err
	case errors.Is(err, ErrRoleAlreadyFilled):
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "role already filled in this group")
	case errors.Is(err, ErrGroupNotForming):
		return pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, "import group is no longer forming")
	case errors.Is(err, ErrGroupNotFound):
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "import group not found")
	case slices.ContainsFunc(validationErrors, func(target error) bool { return errors.Is(err, target) }):
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	default:
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "group operation failed")
	}
}
