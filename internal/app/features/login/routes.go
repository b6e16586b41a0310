// internal/app/features/login/routes.go
package login

import "github.com/go-chi/chi/v5"

// Routes wires the password auth endpoints.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.HandleLogin)
	r.Post("/register", h.HandleRegister)
	r.Get("/session", h.ServeSession)
	return r
}
