package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/importgroups-backend/api/middleware"
	"github.com/angelmondragon/importgroups-backend/internal/groups"
	"github.com/angelmondragon/importgroups-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/importgroups-backend/pkg/errors"
)

func groupIDParam(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "groupId"))
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid group id").
			WithDetails(map[string]any{"groupId": raw})
	}
	return id, nil
}

func parseRole(raw string) (enums.Role, error) {
	role, err := enums.ParseRole(raw)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown role").
			WithDetails(map[string]any{"role": raw, "allowed": enums.AllRoles()})
	}
	return role, nil
}

func parseTransportMode(raw string) (enums.TransportMode, error) {
	mode, err := enums.ParseTransportMode(raw)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown transport mode").
			WithDetails(map[string]any{"transportMode": raw, "allowed": enums.AllTransportModes()})
	}
	return mode, nil
}

// principalFromRequest rebuilds the authenticated caller placed in the
// context by the auth middleware.
func principalFromRequest(r *http.Request) (groups.Principal, error) {
	userID, err := uuid.Parse(middleware.UserIDFromContext(r.Context()))
	if err != nil {
		return groups.Principal{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	role, err := enums.ParseRole(middleware.RoleFromContext(r.Context()))
	if err != nil {
		return groups.Principal{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "role context missing")
	}
	return groups.Principal{UserID: userID, Role: role}, nil
}
