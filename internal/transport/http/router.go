package http

import (
	"net/http"

	"quiz-testing-service/internal/app"
	"quiz-testing-service/internal/auth"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Deps are the services the HTTP surface exposes.
type Deps struct {
	Users    *app.UserService
	Catalog  *app.CatalogService
	Attempts *app.AttemptService
	Reports  *app.ReportService
	Feed     *app.AttemptFeed
	Tokens   *auth.TokenIssuer
}

func NewRouter(d Deps) http.Handler {
	authHandler := NewAuthHandler(d.Users, d.Tokens)
	testHandler := NewTestHandler(d.Catalog)
	attemptHandler := NewAttemptHandler(d.Attempts)
	reportHandler := NewReportHandler(d.Reports)
	feedHandler := NewFeedHandler(d.Catalog, d.Feed)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeOK(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(api chi.Router) {
		api.Post("/auth/signup", authHandler.Signup)
		api.Post("/auth/login", authHandler.Login)

		api.Group(func(secure chi.Router) {
			secure.Use(requireAuth(d.Tokens))
			secure.Get("/me", authHandler.Me)
			secure.Get("/me/attempts", attemptHandler.Mine)
			secure.Get("/attempts/{attemptID}", attemptHandler.Get)

			secure.Get("/tests", testHandler.List)
			secure.Get("/tests/{testID}", testHandler.Get)
			secure.Post("/tests/{testID}/start", attemptHandler.Start)
			secure.Post("/tests/{testID}/submit", attemptHandler.Submit)

			secure.Group(func(admin chi.Router) {
				admin.Use(requireAdmin)
				admin.Post("/tests", testHandler.Create)
				admin.Post("/tests/import", testHandler.Import)
				admin.Delete("/tests/{testID}", testHandler.Delete)
				admin.Get("/tests/{testID}/attempts", attemptHandler.ByTest)
				admin.Get("/reports", reportHandler.Reports)
			})
		})
	})

	r.Group(func(ws chi.Router) {
		ws.Use(requireAuth(d.Tokens), requireAdmin)
		ws.Get("/ws/tests/{testID}/attempts", feedHandler.ServeWS)
	})

	return r
}
