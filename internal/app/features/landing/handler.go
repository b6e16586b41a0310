// internal/app/features/landing/handler.go

// Package landing serves the unauthenticated front door: service info and the
// privacy policy text.
package landing

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/necros240/campusfeedback/internal/app/system/respond"
)

// Handler serves the public pages.
type Handler struct {
	Version string
}

// NewHandler constructs a landing Handler.
func NewHandler(version string) *Handler {
	return &Handler{Version: version}
}

type infoResponse struct {
	Service string `json:"service"`
	Version string `json:"version"`
}

// ServeInfo identifies the service.
// GET /
func (h *Handler) ServeInfo(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, infoResponse{Service: "campusfeedback", Version: h.Version})
}

// privacyPolicy is the short-form policy shown to every visitor.
const privacyPolicy = `Feedback you submit is shared with campus staff. Choosing to post
anonymously hides your name from other students but not from moderators,
who can see the author of every submission. Likes, reports, and votes are
recorded against your account. Accounts are not deleted; contact the
administration office to correct profile information.`

// ServePrivacy returns the privacy policy.
// GET /privacy
func (h *Handler) ServePrivacy(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]string{"policy": privacyPolicy})
}

// Routes wires the public pages.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeInfo)
	r.Get("/privacy", h.ServePrivacy)
	return r
}
