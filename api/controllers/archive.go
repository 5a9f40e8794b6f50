package controllers

import (
	"net/http"

	"github.com/angelmondragon/importgroups-backend/api/responses"
	"github.com/angelmondragon/importgroups-backend/api/validators"
	"github.com/angelmondragon/importgroups-backend/internal/archive"
	"github.com/angelmondragon/importgroups-backend/pkg/logger"
	"github.com/angelmondragon/importgroups-backend/pkg/pagination"
)

var archiveLimit = validators.IntBounds{Default: pagination.DefaultLimit, Min: 1, Max: pagination.MaxLimit}

// ListArchive pages through retired groups, newest first.
func ListArchive(svc archive.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.QueryInt(r, "limit", archiveLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		q := r.URL.Query()
		result, err := svc.List(r.Context(), archive.ListParams{
			Limit:         limit,
			Cursor:        q.Get("cursor"),
			TransportMode: q.Get("transport"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func GetArchivedGroup(svc archive.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := groupIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		record, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, record)
	}
}
