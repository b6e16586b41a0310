// internal/app/features/admin/routes.go
package admin

import (
	"github.com/go-chi/chi/v5"
	"github.com/necros240/campusfeedback/internal/app/system/authz"
)

// Routes wires the moderation endpoints. Deletion has its own action so the
// policy table can split it from resolution if roles ever diverge.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(authz.Require(authz.ActionModerateFeedback))
		r.Get("/stats", h.ServeStats)
		r.Get("/feedback", h.ServeList)
		r.Post("/feedback/{id}/resolve", h.HandleResolve)
	})

	r.Group(func(r chi.Router) {
		r.Use(authz.Require(authz.ActionDeleteFeedback))
		r.Delete("/feedback/{id}", h.HandleDelete)
	})

	r.Group(func(r chi.Router) {
		r.Use(authz.Require(authz.ActionManageClubs))
		r.Post("/clubs", h.HandleCreateClub)
		r.Delete("/clubs/{id}", h.HandleDeleteClub)
	})

	return r
}
