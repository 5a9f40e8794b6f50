package archive

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/importgroups-backend/pkg/db/models"
	"github.com/angelmondragon/importgroups-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/importgroups-backend/pkg/errors"
	"github.com/angelmondragon/importgroups-backend/pkg/pagination"
)

// Service defines read access to retired import groups.
type Service interface {
	List(ctx context.Context, params ListParams) (*ListResult, error)
	Get(ctx context.Context, id uuid.UUID) (*models.ArchivedGroup, error)
}

type service struct {
	repo Repository
}

// ListParams configures pagination for archived groups.
type ListParams struct {
	Limit         int
	Cursor        string
	TransportMode string
}

// ListResult wraps returned groups and the cursor for the next page.
type ListResult struct {
	Items  []models.ArchivedGroup `json:"items"`
	Cursor string                 `json:"cursor"`
}

// NewService wires archive dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "archive repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	query := listParams{Limit: params.Limit}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}
	if raw := strings.TrimSpace(params.TransportMode); raw != "" {
		mode, err := enums.ParseTransportMode(raw)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid transport mode").
				WithDetails(map[string]any{"transport": raw})
		}
		query.TransportMode = &mode
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list archived groups")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	if rows == nil {
		rows = []models.ArchivedGroup{}
	}
	return &ListResult{Items: rows, Cursor: cursor}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.ArchivedGroup, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "group id required")
	}
	row, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "get archived group")
	}
	if row == nil {
		return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "archived group %s not found", id)
	}
	return row, nil
}
