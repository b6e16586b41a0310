// internal/app/features/feed/routes.go
package feed

import (
	"github.com/go-chi/chi/v5"
	"github.com/necros240/campusfeedback/internal/app/system/auth"
	"github.com/necros240/campusfeedback/internal/app/system/authz"
)

// Routes wires the feed endpoints. Reading is open to signed-in users;
// pinning sits behind the moderation gate.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)

	r.Get("/", h.ServeList)
	r.Put("/{id}", h.HandleEdit)
	r.Post("/{id}/like", h.HandleLike)
	r.Post("/{id}/report", h.HandleReport)
	r.Post("/{id}/comments", h.HandleAddComment)
	r.Put("/{id}/comments/{commentID}", h.HandleEditComment)

	r.Group(func(r chi.Router) {
		r.Use(authz.Require(authz.ActionModerateFeedback))
		r.Post("/{id}/pin", h.HandlePin)
	})

	return r
}
