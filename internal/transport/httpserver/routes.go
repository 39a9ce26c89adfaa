package httpserver

import (
	"net/http"
	"time"

	"buckety-go/internal/config"
	"buckety-go/internal/transport/httpserver/handler"
	authmw "buckety-go/internal/transport/httpserver/middleware"
	"buckety-go/pkg/logger"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

func NewRouter(cfg config.Config, handlers *handler.Handlers, users authmw.UserHook, log logger.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(authmw.NewCORS(cfg.AllowedOrigins))

	r.Get("/auth/callback", handlers.Common.AuthCallback)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", handlers.Common.Health)

		r.Group(func(r chi.Router) {
			r.Use(authmw.CronSecret(cfg.CronSecret, log))

			r.Get("/cron/auto-deposits", handlers.AutoDeposits.CronRun)
			r.Post("/cron/auto-deposits", handlers.AutoDeposits.CronRunAll)
		})

		auth := authmw.NewSupabaseAuth(cfg.Supabase, users, log)
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware)

			r.Get("/auth/me", handlers.Common.AuthMe)
			if cfg.SyncEnabled {
				r.Post("/sync", handlers.Common.SyncBatch)
			}

			r.Get("/preferences", handlers.Common.GetPreferences)
			r.Put("/preferences", handlers.Common.UpdatePreferences)

			r.Get("/cache/{key}", handlers.Common.GetCacheValue)
			r.Put("/cache/{key}", handlers.Common.PutCacheValue)
			r.Delete("/cache/{key}", handlers.Common.DeleteCacheValue)

			r.Get("/buckets", handlers.Buckets.ListBuckets)
			r.Post("/buckets", handlers.Buckets.CreateBucket)
			r.Get("/buckets/{id}", handlers.Buckets.GetBucket)
			r.Patch("/buckets/{id}", handlers.Buckets.UpdateBucket)
			r.Delete("/buckets/{id}", handlers.Buckets.DeleteBucket)
			r.Get("/buckets/{id}/activities", handlers.Buckets.ListActivities)
			r.Get("/buckets/{id}/activities/export", handlers.Buckets.ExportActivities)
			r.Get("/buckets/{id}/projection", handlers.Buckets.Projection)
			r.Get("/buckets/{id}/auto-deposits", handlers.AutoDeposits.ListBucketAutoDeposits)
			r.Post("/buckets/{id}/auto-deposits", handlers.AutoDeposits.CreateAutoDeposit)

			r.Get("/main-bucket", handlers.Buckets.GetMainBucket)
			r.Post("/main-bucket/reconcile", handlers.Buckets.ReconcileMainBucket)
			r.Post("/transfers", handlers.Buckets.Transfer)
			r.Get("/insights/summary", handlers.Buckets.InsightsSummary)

			r.Get("/auto-deposits", handlers.AutoDeposits.ListAutoDeposits)
			r.Delete("/auto-deposits/{id}", handlers.AutoDeposits.CancelAutoDeposit)
			r.Get("/auto-deposits/execute", handlers.AutoDeposits.Execute)
			r.Post("/auto-deposits/execute", handlers.AutoDeposits.Execute)

			r.Get("/notifications", handlers.Notifications.ListNotifications)
			r.Post("/notifications/read-all", handlers.Notifications.MarkAllRead)
			r.Patch("/notifications/{id}/read", handlers.Notifications.MarkRead)
			r.Delete("/notifications/{id}", handlers.Notifications.DeleteNotification)
		})
	})

	return r
}
