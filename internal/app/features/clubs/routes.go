// internal/app/features/clubs/routes.go
package clubs

import (
	"github.com/go-chi/chi/v5"
	"github.com/necros240/campusfeedback/internal/app/system/auth"
	"github.com/necros240/campusfeedback/internal/app/system/authz"
)

// Routes wires the club activity endpoints. Everyone signed in can read,
// vote, like, and comment; publishing and editing sit behind the club gate.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)

	r.Get("/posts", h.ServeList)
	r.Post("/posts/{id}/vote", h.HandleVote)
	r.Post("/posts/{id}/like", h.HandleLike)
	r.Post("/posts/{id}/comments", h.HandleAddComment)
	r.Put("/posts/{id}/comments/{commentID}", h.HandleEditComment)

	r.Group(func(r chi.Router) {
		r.Use(authz.Require(authz.ActionCreateClubPost))
		r.Post("/posts", h.HandleCreate)
		r.Put("/posts/{id}", h.HandleEdit)
	})

	return r
}
