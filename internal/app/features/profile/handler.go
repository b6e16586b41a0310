// internal/app/features/profile/handler.go

// Package profile serves the caller's own account settings: display name and
// club affiliation.
package profile

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	clubstore "github.com/necros240/campusfeedback/internal/app/store/clubs"
	userstore "github.com/necros240/campusfeedback/internal/app/store/users"
	"github.com/necros240/campusfeedback/internal/app/system/auth"
	"github.com/necros240/campusfeedback/internal/app/system/authz"
	"github.com/necros240/campusfeedback/internal/app/system/inputval"
	"github.com/necros240/campusfeedback/internal/app/system/realtime"
	"github.com/necros240/campusfeedback/internal/app/system/respond"
	"github.com/necros240/campusfeedback/internal/app/system/timeouts"
	"github.com/necros240/campusfeedback/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves profile reads and updates.
type Handler struct {
	Users  *userstore.Store
	Clubs  *clubstore.Store
	Broker *realtime.Broker
	ErrLog *respond.ErrorLogger
	Log    *zap.Logger
}

// NewHandler constructs a profile Handler.
func NewHandler(db *mongo.Database, broker *realtime.Broker, errLog *respond.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Users:  userstore.New(db),
		Clubs:  clubstore.New(db),
		Broker: broker,
		ErrLog: errLog,
		Log:    logger,
	}
}

type profileResponse struct {
	ID          string        `json:"id"`
	Email       string        `json:"email"`
	DisplayName string        `json:"displayName"`
	Role        string        `json:"role"`
	Affiliation string        `json:"affiliation"`
	AuthMethod  string        `json:"authMethod"`
	PhotoURL    string        `json:"photoURL,omitempty"`
	Clubs       []models.Club `json:"clubs"`
}

// ServeProfile returns the caller's account plus the club catalogue the
// affiliation picker is built from.
// GET /profile
func (h *Handler) ServeProfile(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "not signed in")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	user, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		h.ErrLog.ServerError(w, r, "load profile", err, "Could not load your profile.")
		return
	}
	catalogue, err := h.Clubs.List(ctx)
	if err != nil {
		h.ErrLog.ServerError(w, r, "list clubs", err, "Could not load your profile.")
		return
	}

	respond.JSON(w, http.StatusOK, profileResponse{
		ID:          user.ID.Hex(),
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        user.Role,
		Affiliation: user.Affiliation,
		AuthMethod:  user.AuthMethod,
		PhotoURL:    user.PhotoURL,
		Clubs:       catalogue,
	})
}

type updateInput struct {
	DisplayName string `json:"displayName" validate:"required,max=120" label:"Display name"`
	Affiliation string `json:"affiliation" validate:"required,max=120" label:"Affiliation"`
}

// HandleUpdate saves display name and affiliation. The affiliation is stored
// as given even if the club has since been deleted; old feedback keeps its
// snapshot either way.
// PUT /profile
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "not signed in")
		return
	}

	var in updateInput
	if err := respond.Decode(r, &in); err != nil {
		h.ErrLog.BadRequest(w, r, "decode profile payload", err, "Invalid request body.")
		return
	}
	in.DisplayName = strings.TrimSpace(in.DisplayName)
	in.Affiliation = strings.TrimSpace(in.Affiliation)
	if result := inputval.Validate(in); result.HasErrors() {
		respond.Error(w, http.StatusBadRequest, result.First())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Users.UpdateProfile(ctx, userID, in.DisplayName, in.Affiliation); err != nil {
		if err == userstore.ErrNotFound {
			h.ErrLog.NotFound(w)
			return
		}
		h.ErrLog.ServerError(w, r, "update profile", err, "Could not save your profile.")
		return
	}

	h.Broker.Publish(realtime.Change{Collection: realtime.CollUsers, Op: realtime.OpUpdate, ID: userID})
	respond.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Routes wires the profile endpoints.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)
	r.Get("/", h.ServeProfile)
	r.Put("/", h.HandleUpdate)
	return r
}
