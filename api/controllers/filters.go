package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/importgroups-backend/api/responses"
	"github.com/angelmondragon/importgroups-backend/api/validators"
	"github.com/angelmondragon/importgroups-backend/internal/groups"
	"github.com/angelmondragon/importgroups-backend/pkg/logger"
)

type setFilterRequest struct {
	TransportMode string `json:"transportMode" validate:"required"`
}

func GetFilters(svc groups.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, svc.Filters(r.Context()))
	}
}

// SetFilter adds a transport mode to the active filter set.
func SetFilter(svc groups.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req setFilterRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		mode, err := parseTransportMode(req.TransportMode)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		state, err := svc.SetFilter(r.Context(), mode)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, state)
	}
}

// ToggleFilter flips one transport mode, as clicking its badge does.
func ToggleFilter(svc groups.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mode, err := parseTransportMode(chi.URLParam(r, "mode"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		state, err := svc.ToggleFilter(r.Context(), mode)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, state)
	}
}

func ClearFilters(svc groups.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, svc.ClearFilters(r.Context()))
	}
}
