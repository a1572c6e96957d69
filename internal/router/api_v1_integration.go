package router

import (
	"scholarhub/internal/handlers/api/v1/ads"
	"scholarhub/internal/handlers/api/v1/applicants"
	"scholarhub/internal/handlers/api/v1/applications"
	"scholarhub/internal/handlers/api/v1/auth"
	"scholarhub/internal/handlers/api/v1/documents"
	"scholarhub/internal/handlers/api/v1/jobs"
	"scholarhub/internal/handlers/api/v1/scholarships"
	"scholarhub/internal/handlers/api/v1/users"
	"scholarhub/internal/middleware"
	"scholarhub/internal/response"
	"scholarhub/internal/services"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// AddAPIv1Routes mounts the v1 controllers. Role gates here only reject
// the obviously wrong caller early; the services enforce the full policy.
func AddAPIv1Routes(
	r chi.Router,
	serviceCollection *services.ServiceCollection,
	authMiddleware *middleware.AuthMiddleware,
	responseBuilder *response.Builder,
	logger *zap.Logger,
) {
	var maxFileSize int64
	if serviceCollection.Config != nil {
		maxFileSize = serviceCollection.Config.Uploads.MaxFileSize
	}

	authController := auth.NewAuthController(serviceCollection, logger, responseBuilder)
	userController := users.NewUserController(serviceCollection, logger, responseBuilder)
	applicantController := applicants.NewApplicantController(serviceCollection, logger, responseBuilder)
	applicationController := applications.NewApplicationController(serviceCollection, logger, responseBuilder)
	jobController := jobs.NewJobController(serviceCollection, logger, responseBuilder)
	scholarshipController := scholarships.NewScholarshipController(serviceCollection, logger, responseBuilder)
	adController := ads.NewAdController(serviceCollection, logger, responseBuilder)
	documentController := documents.NewDocumentController(serviceCollection, logger, responseBuilder, maxFileSize)

	requireAuth := authMiddleware.RequireAuth()
	backOffice := authMiddleware.RequireBackOffice()
	adminOnly := authMiddleware.RequireAdmin()

	// ===============================
	// AUTH
	// ===============================
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authController.Register)
		r.Post("/login", authController.Login)
		r.Post("/refresh", authController.RefreshToken)
		r.Post("/logout", authController.Logout)
		r.With(requireAuth).Get("/me", authController.Me)
	})

	// ===============================
	// ADMINISTRATION
	// ===============================
	r.Route("/admin", func(r chi.Router) {
		r.Use(requireAuth, adminOnly)
		r.Get("/users", userController.ListUsers)
		r.Post("/staff", userController.CreateStaff)
		r.Put("/staff/{userID}/permissions", userController.UpdatePermissions)
		r.Patch("/users/{userID}/active", userController.SetActive)
	})

	r.With(requireAuth).Get("/users/{userID}", userController.GetUser)

	// ===============================
	// APPLICANT PROFILES
	// ===============================
	r.Route("/applicants", func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/me", applicantController.GetMine)
		r.Put("/me", applicantController.UpsertMine)
		r.Get("/{id}", applicantController.GetByID)
		r.With(backOffice).Get("/{id}/documents", documentController.ListForApplicant)
	})

	// ===============================
	// APPLICATIONS
	// ===============================
	r.Route("/applications", func(r chi.Router) {
		r.Use(requireAuth)
		r.Post("/", applicationController.Create)
		r.Get("/", applicationController.ListMine)
		r.With(backOffice).Get("/admin", applicationController.ListAdmin)
		r.With(backOffice).Get("/stats", applicationController.Stats)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", applicationController.Get)
			r.Delete("/", applicationController.Delete)
			r.Patch("/content", applicationController.UpdateContent)
			r.Post("/submit", applicationController.Submit)
			r.Post("/restart", applicationController.Restart)
			r.Post("/withdraw", applicationController.Withdraw)

			r.Group(func(r chi.Router) {
				r.Use(backOffice)
				r.Put("/status", applicationController.SetStatus)
				r.Post("/notes", applicationController.AddNote)
				r.Put("/interview", applicationController.ScheduleInterview)
				r.Put("/payment", applicationController.UpdatePayment)
			})
		})
	})

	// ===============================
	// LISTINGS
	// ===============================
	r.Route("/jobs", func(r chi.Router) {
		r.With(authMiddleware.OptionalAuth()).Get("/", jobController.ListJobs)
		r.With(authMiddleware.OptionalAuth()).Get("/{id}", jobController.GetJob)
		r.Group(func(r chi.Router) {
			r.Use(requireAuth, backOffice)
			r.Post("/", jobController.CreateJob)
			r.Put("/{id}", jobController.UpdateJob)
			r.Delete("/{id}", jobController.DeleteJob)
		})
	})

	r.Route("/scholarships", func(r chi.Router) {
		r.With(authMiddleware.OptionalAuth()).Get("/", scholarshipController.List)
		r.With(authMiddleware.OptionalAuth()).Get("/{id}", scholarshipController.Get)
		r.Group(func(r chi.Router) {
			r.Use(requireAuth, backOffice)
			r.Post("/", scholarshipController.Create)
			r.Put("/{id}", scholarshipController.Update)
			r.Delete("/{id}", scholarshipController.Delete)
		})
	})

	// ===============================
	// ADVERTISEMENTS
	// ===============================
	r.Route("/ads", func(r chi.Router) {
		r.Get("/", adController.ListLive)
		r.Post("/{id}/click", adController.Click)
		r.Group(func(r chi.Router) {
			r.Use(requireAuth, backOffice)
			r.Get("/all", adController.ListAll)
			r.Post("/", adController.Create)
			r.Put("/{id}", adController.Update)
			r.Delete("/{id}", adController.Delete)
		})
	})

	// ===============================
	// DOCUMENTS
	// ===============================
	r.Route("/documents", func(r chi.Router) {
		r.Use(requireAuth)
		r.Post("/", documentController.Upload)
		r.Get("/", documentController.ListMine)
		r.Get("/{id}", documentController.Get)
		r.Delete("/{id}", documentController.Delete)
		r.Get("/{id}/download", documentController.Download)
		r.With(backOffice).Put("/{id}/verification", documentController.SetVerification)
	})
}
