package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/importgroups-backend/api/controllers"
	"github.com/angelmondragon/importgroups-backend/api/middleware"
	"github.com/angelmondragon/importgroups-backend/internal/archive"
	"github.com/angelmondragon/importgroups-backend/internal/groups"
	"github.com/angelmondragon/importgroups-backend/pkg/config"
	"github.com/angelmondragon/importgroups-backend/pkg/db"
	"github.com/angelmondragon/importgroups-backend/pkg/enums"
	"github.com/angelmondragon/importgroups-backend/pkg/logger"
	"github.com/angelmondragon/importgroups-backend/pkg/redis"
)

// NewRouter wires the HTTP surface. Redis-backed collaborators may be nil
// interfaces when Redis is not configured; archiveService is nil when the
// archive is disabled.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	gatherer prometheus.Gatherer,
	dbP db.Pinger,
	redisP redis.Pinger,
	limiter redis.RateLimiter,
	idempotencyStore redis.IdempotencyStore,
	groupsService groups.Service,
	archiveService archive.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
	)

	demoPolicy := middleware.NewRateLimitPolicy("demo", cfg.RateLimit.Window, cfg.RateLimit.DemoLimit)
	tokenPolicy := middleware.NewRateLimitPolicy("dev-token", cfg.RateLimit.Window, cfg.RateLimit.TokenLimit)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/roles", controllers.ListRoles(groupsService))

		r.Route("/groups", func(r chi.Router) {
			r.Get("/", controllers.ListGroups(groupsService, logg))
			r.Post("/", controllers.CreateGroup(groupsService, logg))
			r.Get("/available", controllers.AvailableGroups(groupsService, logg))
			r.Get("/{groupId}", controllers.GetGroup(groupsService, logg))
			r.Delete("/{groupId}", controllers.RetireGroup(groupsService, logg))
			r.Post("/{groupId}/occupants", controllers.AddOccupant(groupsService, logg))
		})

		r.Route("/filters", func(r chi.Router) {
			r.Get("/", controllers.GetFilters(groupsService))
			r.Put("/", controllers.SetFilter(groupsService, logg))
			r.Delete("/", controllers.ClearFilters(groupsService))
			r.Post("/{mode}/toggle", controllers.ToggleFilter(groupsService, logg))
		})

		r.Route("/demo", func(r chi.Router) {
			r.Use(middleware.RateLimit(demoPolicy, limiter, logg))
			r.Use(middleware.Idempotency(idempotencyStore, logg))
			r.Post("/tick", controllers.DemoTick(groupsService))
			r.Post("/seed", controllers.DemoSeed(groupsService, logg))
		})

		if archiveService != nil {
			r.Route("/archive", func(r chi.Router) {
				r.Get("/", controllers.ListArchive(archiveService, logg))
				r.Get("/{groupId}", controllers.GetArchivedGroup(archiveService, logg))
			})
		}

		r.Route("/me", func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Use(middleware.Idempotency(idempotencyStore, logg))
			r.With(middleware.RequireRole(logg, enums.RoleImporter)).Post("/groups", controllers.MeCreateGroup(groupsService, logg))
			r.Post("/groups/{groupId}/join", controllers.MeJoinGroup(groupsService, logg))
		})
	})

	if !cfg.App.IsProd() {
		r.Route("/api/dev", func(r chi.Router) {
			r.Use(middleware.RateLimit(tokenPolicy, limiter, logg))
			r.Post("/token", controllers.DevToken(cfg.JWT, logg))
		})
	}

	return r
}
