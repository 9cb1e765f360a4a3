package httpapi

import (
	stdhttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"headshotlab/internal/http/handlers"
	"headshotlab/internal/middleware"
	"headshotlab/internal/telemetry"
)

// NewRouter wires the full HTTP surface. lookup may be nil when no GeoIP
// database is configured.
func NewRouter(app *handlers.App, lookup middleware.CountryLookup) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP, chimw.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.I18N("en", lookup))
	r.Use(middleware.Logger(app.Logger))
	r.Use(middleware.CORS(app.Cfg.CORSAllowedOrigins))
	r.Use(middleware.RateLimit(app.Cfg.RateLimitPerMin, time.Minute))

	r.Get("/v1/healthz", app.Health)
	r.Method(stdhttp.MethodGet, "/metrics", telemetry.Handler())

	// No session required.
	r.Post("/v1/auth/register", app.AuthRegister)
	r.Post("/v1/auth/login", app.AuthLogin)
	r.Post("/v1/webhooks/replicate", app.WebhookReplicate)
	r.Get("/v1/gallery/public", app.GalleryPublic)
	r.Get("/v1/gallery/styles", app.GalleryStyles)

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthJWT(app.Cfg.JWTSecret))

		r.Get("/v1/me", app.Me)

		r.Route("/v1/studios", func(r chi.Router) {
			r.Post("/", app.StudiosCreate)
			r.Get("/", app.StudiosList)
			r.Get("/{id}", app.StudioGet)
			r.Post("/{id}/shoots", app.ShootCreate)
			r.Get("/{id}/shoots", app.ShootsList)
			r.Post("/{id}/shoots/{predictionID}/result", app.ShootResult)
		})

		r.Patch("/v1/predictions/share", app.PredictionShareSet)
		r.Get("/v1/predictions/share", app.PredictionShareGet)

		r.Route("/v1/favorites", func(r chi.Router) {
			r.Get("/", app.FavoritesList)
			r.Post("/", app.FavoriteAdd)
			r.Delete("/", app.FavoriteRemove)
		})
	})

	return r
}
