package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/importgroups-backend/api/responses"
	"github.com/angelmondragon/importgroups-backend/api/validators"
	"github.com/angelmondragon/importgroups-backend/pkg/auth"
	"github.com/angelmondragon/importgroups-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/importgroups-backend/pkg/errors"
	"github.com/angelmondragon/importgroups-backend/pkg/logger"
)

type devTokenRequest struct {
	UserID string `json:"userId" validate:"omitempty,uuid"`
	Role   string `json:"role" validate:"required"`
}

type devTokenResponse struct {
	AccessToken string    `json:"accessToken"`
	TokenType   string    `json:"tokenType"`
	UserID      uuid.UUID `json:"userId"`
	Role        string    `json:"role"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// DevToken mints an access token for a role. It is only routed outside production.
func DevToken(cfg config.JWTConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req devTokenRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		role, err := parseRole(req.Role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		userID := uuid.New()
		if req.UserID != "" {
			userID = uuid.MustParse(req.UserID)
		}

		now := time.Now().UTC()
		token, err := auth.MintAccessToken(cfg, now, auth.AccessTokenPayload{UserID: userID, Role: role})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token"))
			return
		}

		ctx := logg.WithFields(r.Context(), map[string]any{"user_id": userID.String(), "role": string(role)})
		logg.Info(ctx, "dev token minted")

		responses.WriteSuccessStatus(w, http.StatusCreated, devTokenResponse{
			AccessToken: token,
			TokenType:   "Bearer",
			UserID:      userID,
			Role:        string(role),
			ExpiresAt:   now.Add(time.Duration(cfg.ExpirationMinutes) * time.Minute),
		})
	}
}
