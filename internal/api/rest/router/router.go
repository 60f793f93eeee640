package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/dtroode/qubras-auth/internal/api/rest/handler"
	"github.com/dtroode/qubras-auth/internal/api/rest/middleware"
	"github.com/dtroode/qubras-auth/internal/logger"
)

// Router wires the agent HTTP surface.
type Router struct {
	controller handler.Controller
	redirects  handler.RedirectCompleter
	metrics    http.Handler
	siteURL    string
	logger     *logger.Logger
}

// New creates new HTTP Router instance. metrics may be nil.
func New(
	controller handler.Controller,
	redirects handler.RedirectCompleter,
	metrics http.Handler,
	siteURL string,
	logger *logger.Logger,
) *Router {
	return &Router{
		controller: controller,
		redirects:  redirects,
		metrics:    metrics,
		siteURL:    siteURL,
		logger:     logger,
	}
}

// Register builds the routing tree.
func (r *Router) Register() http.Handler {
	logging := middleware.NewLogging(r.logger)
	requireSession := middleware.NewRequireSession(r.controller, r.logger)
	auth := handler.NewAuth(r.controller, r.redirects, r.siteURL, r.logger)

	mux := chi.NewRouter()
	mux.Use(chimw.RequestID, logging.Handle, chimw.Recoverer)

	mux.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	if r.metrics != nil {
		mux.Method(http.MethodGet, "/metrics", r.metrics)
	}

	mux.Get("/state", auth.State)

	mux.Route("/auth", func(ar chi.Router) {
		ar.Get("/callback", auth.Callback)
		ar.Post("/sign-in", auth.SignIn)
		ar.Post("/sign-up", auth.SignUp)
		ar.Post("/sign-out", auth.SignOut)
		ar.Post("/social/{provider}", auth.SocialSignIn)
		ar.Post("/reset-password", auth.ResetPassword)
	})

	mux.Route("/profile", func(pr chi.Router) {
		pr.Use(requireSession.Handle)
		pr.Patch("/", auth.UpdateProfile)
		pr.Post("/refresh", auth.RefreshProfile)
		pr.Put("/avatar", auth.UploadAvatar)
	})

	return mux
}
