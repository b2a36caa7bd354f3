package omniclass

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/omniclass/internal/access"
	"github.com/magabrotheeeer/omniclass/internal/config"
	"github.com/magabrotheeeer/omniclass/internal/http/handlers/admin"
	"github.com/magabrotheeeer/omniclass/internal/http/handlers/auth"
	"github.com/magabrotheeeer/omniclass/internal/http/handlers/chat"
	"github.com/magabrotheeeer/omniclass/internal/http/handlers/files"
	"github.com/magabrotheeeer/omniclass/internal/http/handlers/health"
	"github.com/magabrotheeeer/omniclass/internal/http/handlers/instructor"
	"github.com/magabrotheeeer/omniclass/internal/http/handlers/payments"
	"github.com/magabrotheeeer/omniclass/internal/http/handlers/subjects"
	"github.com/magabrotheeeer/omniclass/internal/http/handlers/subscriptions"
	"github.com/magabrotheeeer/omniclass/internal/http/handlers/users"
	"github.com/magabrotheeeer/omniclass/internal/http/handlers/video"
	"github.com/magabrotheeeer/omniclass/internal/http/middlewarectx"
	"github.com/magabrotheeeer/omniclass/internal/http/response"
	"github.com/magabrotheeeer/omniclass/internal/models"
	"github.com/magabrotheeeer/omniclass/internal/paymentgateway"
)

// Services сервисы, которые обслуживает HTTP API.
type Services struct {
	Auth interface {
		auth.Service
		middlewarectx.Authenticator
	}
	Users         users.Service
	Subscriptions interface {
		subscriptions.Service
		middlewarectx.SubscriptionChecker
	}
	Payments   payments.Service
	Subjects   subjects.Service
	Chat       chat.Service
	Video      video.Service
	Instructor instructor.Service
	Files      files.Service
	Admin      admin.Service
}

// RegisterRoutes регистрирует все маршруты приложения. Требование доступа
// задаётся один раз для группы маршрутов и проверяется на каждом запросе.
func RegisterRoutes(r chi.Router, cfg *config.Config, logger *slog.Logger, s Services) {
	errs := response.Errors{Detail: cfg.Env != config.EnvProd}

	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middlewarectx.Metrics,
		cors.Handler(cors.Options{
			AllowedOrigins:   []string{cfg.CORSOrigin},
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", paymentgateway.SignatureHeader},
			AllowCredentials: true,
			MaxAge:           300,
		}),
	)

	sys := health.New()
	r.Get("/", sys.Root)
	r.Get("/health", sys.Health)
	r.NotFound(sys.NotFound)

	authn := middlewarectx.JWTMiddleware(s.Auth, logger)
	require := func(req access.Requirement) func(http.Handler) http.Handler {
		return middlewarectx.Require(req, s.Subscriptions, logger)
	}
	limit := func() func(http.Handler) http.Handler {
		return middlewarectx.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst, logger)
	}

	authH := auth.New(logger, s.Auth, errs)
	usersH := users.New(logger, s.Users, errs)
	subsH := subscriptions.New(logger, s.Subscriptions, errs)
	payH := payments.New(logger, s.Payments, errs)
	subjH := subjects.New(logger, s.Subjects, errs)
	chatH := chat.New(logger, s.Chat, errs)
	videoH := video.New(logger, s.Video, errs)
	instH := instructor.New(logger, s.Instructor, errs)
	filesH := files.New(logger, s.Files, cfg.MaxUploadBytes, errs)
	adminH := admin.New(logger, s.Admin, errs)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Use(limit())
			r.Post("/register", authH.Register)
			r.Post("/login", authH.Login)
			r.Post("/refresh", authH.Refresh)
			r.Post("/forgot-password", authH.ForgotPassword)
			r.Post("/reset-password", authH.ResetPassword)
		})

		// Каталог предметов читается без токена.
		r.Route("/subjects", func(r chi.Router) {
			r.Get("/", subjH.List)
			r.Get("/{id}", subjH.Get)
			r.Get("/{id}/syllabus", subjH.Syllabus)
			r.Group(func(r chi.Router) {
				r.Use(authn, require(access.RequireRole(models.RoleAdmin)))
				r.Post("/", subjH.Create)
				r.Put("/{id}", subjH.Update)
				r.Delete("/{id}", subjH.Delete)
				r.Post("/{id}/syllabus", subjH.AddSyllabus)
			})
		})

		r.Route("/payments", func(r chi.Router) {
			r.With(middlewarectx.CallbackSignature(cfg.CallbackSecret, logger)).
				Post("/callback/{method}", payH.Callback)
			r.Group(func(r chi.Router) {
				r.Use(authn, require(access.Authenticated), limit())
				r.Post("/initiate", payH.Initiate)
				r.Get("/history", payH.History)
				r.Get("/{id}", payH.Get)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(authn)

			r.Route("/users", func(r chi.Router) {
				r.Use(require(access.Authenticated))
				r.Get("/me", usersH.Me)
				r.Put("/me", usersH.UpdateMe)
			})

			r.Route("/subscriptions", func(r chi.Router) {
				r.Use(require(access.Authenticated))
				r.Get("/me", subsH.Me)
				r.Post("/student", subsH.Student)
				r.Post("/instructor", subsH.Instructor)
				r.Get("/history", subsH.History)
				r.Put("/{id}/cancel", subsH.Cancel)
			})

			r.Route("/chat", func(r chi.Router) {
				r.Use(require(access.RequireSubscription(models.SubscriptionStudent)), limit())
				r.Post("/sessions", chatH.Create)
				r.Get("/sessions", chatH.List)
				r.Get("/sessions/{id}", chatH.Get)
				r.Post("/sessions/{id}/messages", chatH.Send)
				r.Delete("/sessions/{id}", chatH.Delete)
			})

			r.Route("/video", func(r chi.Router) {
				r.Use(require(access.RequireSubscription(models.SubscriptionStudent)))
				r.With(limit()).Post("/sessions", videoH.Create)
				r.Get("/sessions", videoH.List)
				r.Get("/sessions/{id}", videoH.Get)
				r.Get("/sessions/{id}/video", videoH.Video)
				r.Get("/sessions/{id}/summary", videoH.Summary)
				r.Get("/sessions/{id}/ws", videoH.Watch)
			})

			r.Route("/instructors", func(r chi.Router) {
				r.With(require(access.Authenticated)).Get("/me", instH.Profile)
				r.Group(func(r chi.Router) {
					r.Use(require(access.RequireSubscription(models.SubscriptionInstructor)))
					r.Post("/me", instH.SaveProfile)
					r.Get("/materials", instH.Materials)
					r.Post("/materials", instH.AddMaterial)
					r.Get("/agents", instH.Agents)
					r.Post("/agents", instH.AddAgent)
					r.Get("/lesson-plans", instH.LessonPlans)
					r.Post("/lesson-plans", instH.AddLessonPlan)
					r.Get("/schemes", instH.Schemes)
					r.Post("/schemes", instH.AddScheme)
					r.Get("/assessments", instH.Assessments)
					r.Post("/assessments", instH.AddAssessment)
					r.Get("/assessments/{id}/download", instH.DownloadAssessment)
					r.Group(func(r chi.Router) {
						r.Use(limit())
						r.Post("/lesson-plans/generate", instH.GenerateLessonPlan)
						r.Post("/schemes/generate", instH.GenerateScheme)
						r.Post("/assessments/generate", instH.GenerateAssessment)
					})
				})
			})

			r.Route("/files", func(r chi.Router) {
				r.Use(require(access.Authenticated))
				r.Post("/upload", filesH.Upload)
				r.Get("/serve/{filename}", filesH.Serve)
				r.Get("/{id}", filesH.Get)
				r.Delete("/{id}", filesH.Delete)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(require(access.RequireRole(models.RoleAdmin)))
				r.Get("/users", adminH.Users)
				r.Put("/users/{id}/role", adminH.UpdateRole)
				r.Get("/subscriptions", adminH.Subscriptions)
				r.Get("/payments", adminH.Payments)
				r.Get("/stats", adminH.Stats)
			})
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
