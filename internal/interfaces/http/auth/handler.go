package auth

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	identityapp "github.com/sngm3741/mess-hall/api/internal/identity/application"
)

// Handler wires authentication and allow-list endpoints to application services.
type Handler struct {
	logger    *log.Logger
	auth      identityapp.AuthService
	allowList identityapp.AllowListService
}

// Config defines dependencies required by Handler.
type Config struct {
	Logger    *log.Logger
	Auth      identityapp.AuthService
	AllowList identityapp.AllowListService
}

func NewHandler(cfg Config) *Handler {
	return &Handler{
		logger:    cfg.Logger,
		auth:      cfg.Auth,
		allowList: cfg.AllowList,
	}
}

// Register mounts auth and allow-list routes onto the router.
func (h *Handler) Register(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Post("/auth/register", h.registerHandler())
	r.Post("/auth/login", h.loginHandler())
	r.Post("/auth/google", h.googleLoginHandler())
	r.With(authMiddleware).Get("/auth/verify", h.verifyHandler())

	r.Get("/allowed-emails", h.allowedEmailListHandler())
	r.With(authMiddleware).Post("/allowed-emails", h.allowedEmailCreateHandler())
	r.With(authMiddleware).Delete("/allowed-emails/{id}", h.allowedEmailDeleteHandler())
}
