package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/importgroups-backend/api/responses"
	"github.com/angelmondragon/importgroups-backend/api/validators"
	"github.com/angelmondragon/importgroups-backend/internal/groups"
	"github.com/angelmondragon/importgroups-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/importgroups-backend/pkg/errors"
	"github.com/angelmondragon/importgroups-backend/pkg/logger"
)

const (
	maxDisplayNameLen = 80
	maxAttributeLen   = 64
)

type createGroupRequest struct {
	DisplayName   string           `json:"displayName" validate:"max=80"`
	CargoCategory string           `json:"cargoCategory" validate:"max=80"`
	TransportMode string           `json:"transportMode"`
	OriginCountry string           `json:"originCountry" validate:"max=80"`
	WeightClass   string           `json:"weightClass" validate:"max=40"`
	GrossWeightKg *decimal.Decimal `json:"grossWeightKg" validate:"omitempty,gte=0"`
}

func (req createGroupRequest) toInput() (groups.CreateInput, error) {
	input := groups.CreateInput{
		Attributes: groups.Attributes{
			DisplayName:   validators.CleanText(req.DisplayName, maxDisplayNameLen),
			CargoCategory: validators.CleanText(req.CargoCategory, maxAttributeLen),
			OriginCountry: validators.CleanText(req.OriginCountry, maxAttributeLen),
			WeightClass:   validators.CleanText(req.WeightClass, maxAttributeLen),
		},
		GrossWeightKg: req.GrossWeightKg,
	}
	if req.TransportMode != "" {
		mode, err := parseTransportMode(req.TransportMode)
		if err != nil {
			return groups.CreateInput{}, err
		}
		input.TransportMode = mode
	}
	return input, nil
}

type occupantRequest struct {
	Role string `json:"role" validate:"required"`
}

// ListGroups returns the visible groups. A transport query overrides the stored filters.
func ListGroups(svc groups.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var modes []enums.TransportMode
		for _, raw := range validators.QueryList(r, "transport") {
			mode, err := parseTransportMode(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			modes = append(modes, mode)
		}

		items, err := svc.List(r.Context(), modes)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": items, "count": len(items)})
	}
}

// CreateGroup creates a group from explicit attributes, drawing the rest at random.
func CreateGroup(svc groups.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createGroupRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := req.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, view)
	}
}

func GetGroup(svc groups.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := groupIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// AddOccupant fills a role with a simulated participant.
func AddOccupant(svc groups.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := groupIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req occupantRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		role, err := parseRole(req.Role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.AddSimulated(r.Context(), id, role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

func RetireGroup(svc groups.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := groupIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Retire(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"id": id, "retired": true})
	}
}

// AvailableGroups lists forming groups still missing the requested role.
func AvailableGroups(svc groups.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := r.URL.Query().Get("role")
		if raw == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "role query parameter required"))
			return
		}
		role, err := parseRole(raw)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items, err := svc.Available(r.Context(), role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"role": role, "items": items, "count": len(items)})
	}
}

func ListRoles(svc groups.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, svc.Roles(r.Context()))
	}
}
