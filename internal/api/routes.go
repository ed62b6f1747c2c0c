package api

import (
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/launchkit/launchkit/internal/auth"
)

// SetupRoutes configures the routing tree. Auth gates everything under /api
// unless dev mode is on; the rate limiter only covers generation endpoints.
func SetupRoutes(h *Handlers, authManager *auth.Manager, limiter *RateLimiter) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://app.launchkit.dev", "http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", "X-Organization-ID"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", h.HealthCheck)

	if authManager != nil {
		r.Get("/auth/login", authManager.HandleLogin)
		r.Get("/auth/callback", authManager.HandleCallback)
		r.Get("/auth/logout", authManager.HandleLogout)
		r.Get("/auth/user", authManager.HandleUserInfo)
	}

	devMode := os.Getenv("DEV_MODE") == "true" || os.Getenv("ENVIRONMENT") == "development"

	r.Route("/api", func(r chi.Router) {
		if authManager != nil && !devMode {
			r.Use(func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
					if !authManager.IsAuthenticated(req) {
						w.Header().Set("Content-Type", "application/json")
						w.WriteHeader(http.StatusUnauthorized)
						w.Write([]byte(`{"error":"unauthorized"}`))
						return
					}
					next.ServeHTTP(w, req)
				})
			})
		}

		r.Route("/leads", func(r chi.Router) {
			r.Post("/", h.CreateLead)
			r.Get("/", h.ListLeads)
			r.Get("/summary", h.GetStageSummaries)
			r.Get("/{leadID}", h.GetLead)
			r.Put("/{leadID}", h.UpdateLead)
			r.Delete("/{leadID}", h.ArchiveLead)
			r.Post("/{leadID}/activities", h.RecordLeadActivity)
			r.Get("/{leadID}/activities", h.ListLeadActivities)
			r.Post("/{leadID}/stage", h.ChangeLeadStage)
		})

		r.Route("/websites", func(r chi.Router) {
			r.With(limiter.Middleware).Post("/generate", h.GenerateWebsite)
			r.Get("/", h.ListWebsites)
			r.Get("/{siteID}", h.GetWebsite)
			r.Get("/{siteID}/preview", h.PreviewWebsite)
			r.Post("/{siteID}/publish", h.PublishWebsite)
			r.Post("/{siteID}/domain", h.ProvisionDomain)
			r.Get("/{siteID}/domain", h.GetDomainStatus)
		})

		r.Route("/campaigns", func(r chi.Router) {
			r.With(limiter.Middleware).Post("/generate", h.GenerateCampaign)
			r.With(limiter.Middleware).Post("/subjects", h.GenerateSubjects)
			r.With(limiter.Middleware).Post("/ctas", h.GenerateCTAs)
			r.Get("/", h.ListCampaigns)
			r.Get("/{campaignID}", h.GetCampaign)
			r.Post("/{campaignID}/send", h.SendCampaign)
			r.Post("/feeds", h.CreateFeed)
			r.Post("/feeds/poll", h.PollFeeds)
		})

		r.Route("/chat", func(r chi.Router) {
			r.With(limiter.Middleware).Post("/", h.Chat)
			r.Delete("/{sessionID}", h.ClearChatSession)
		})

		r.Route("/reports", func(r chi.Router) {
			r.With(limiter.Middleware).Get("/", h.BuildReport)
			r.Get("/history", h.ListArchivedReports)
			r.Get("/archive", h.GetArchivedReport)
		})

		r.Route("/images", func(r chi.Router) {
			r.With(limiter.Middleware).Post("/generate", h.GenerateImage)
			r.With(limiter.Middleware).Post("/batch", h.GenerateImageBatch)
		})
	})

	return r
}
