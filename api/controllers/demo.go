package controllers

import (
	"net/http"

	"github.com/angelmondragon/importgroups-backend/api/responses"
	"github.com/angelmondragon/importgroups-backend/api/validators"
	"github.com/angelmondragon/importgroups-backend/internal/groups"
	"github.com/angelmondragon/importgroups-backend/pkg/logger"
)

type seedRequest struct {
	Role  string `json:"role" validate:"required"`
	Count int    `json:"count"`
}

// DemoTick runs one unit of demo churn on demand.
func DemoTick(svc groups.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, svc.DemoTick(r.Context()))
	}
}

// DemoSeed creates demo groups that still have room for the given role.
func DemoSeed(svc groups.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req seedRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		role, err := parseRole(req.Role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items, err := svc.Seed(r.Context(), role, req.Count)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{"items": items, "count": len(items)})
	}
}
