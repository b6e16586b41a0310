// internal/app/features/master/handler.go

// Package master serves the user administration panel: listing accounts and
// reassigning roles.
package master

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/necros240/campusfeedback/internal/app/store/audit"
	userstore "github.com/necros240/campusfeedback/internal/app/store/users"
	"github.com/necros240/campusfeedback/internal/app/system/auditlog"
	"github.com/necros240/campusfeedback/internal/app/system/authz"
	"github.com/necros240/campusfeedback/internal/app/system/realtime"
	"github.com/necros240/campusfeedback/internal/app/system/respond"
	"github.com/necros240/campusfeedback/internal/app/system/timeouts"
	"github.com/necros240/campusfeedback/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the master admin panel.
type Handler struct {
	Users    *userstore.Store
	Broker   *realtime.Broker
	ErrLog   *respond.ErrorLogger
	AuditLog *auditlog.Logger
	Log      *zap.Logger
}

// NewHandler constructs a master Handler.
func NewHandler(db *mongo.Database, broker *realtime.Broker, errLog *respond.ErrorLogger, auditLog *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Users:    userstore.New(db),
		Broker:   broker,
		ErrLog:   errLog,
		AuditLog: auditLog,
		Log:      logger,
	}
}

// userView is User minus the credential material.
type userView struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Role        string `json:"role"`
	Affiliation string `json:"affiliation"`
	AuthMethod  string `json:"authMethod"`
}

func toView(u models.User) userView {
	return userView{
		ID:          u.ID.Hex(),
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Role:        u.Role,
		Affiliation: u.Affiliation,
		AuthMethod:  u.AuthMethod,
	}
}

type usersResponse struct {
	Users []userView `json:"users"`
	Roles []string   `json:"roles"`
}

// ServeUsers lists every account with the assignable role values.
// GET /master/users
func (h *Handler) ServeUsers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	users, err := h.Users.List(ctx)
	if err != nil {
		h.ErrLog.ServerError(w, r, "list users", err, "Could not load users.")
		return
	}

	views := make([]userView, len(users))
	for i, u := range users {
		views[i] = toView(u)
	}

	respond.JSON(w, http.StatusOK, usersResponse{Users: views, Roles: authz.AssignableRoles})
}

type roleInput struct {
	Role string `json:"role"`
}

// HandleSetRole reassigns a user's role. The change takes effect on the
// target's next request because session state is re-read from the user doc
// every time.
// PUT /master/users/{id}/role
func (h *Handler) HandleSetRole(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, http.StatusNotFound, "not found")
		return
	}
	var in roleInput
	if err := respond.Decode(r, &in); err != nil {
		h.ErrLog.BadRequest(w, r, "decode role payload", err, "Invalid request body.")
		return
	}
	if !authz.AssignableRole(in.Role) {
		respond.Error(w, http.StatusBadRequest, "Unknown role.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Users.UpdateRole(ctx, id, in.Role); err != nil {
		if err == userstore.ErrNotFound {
			h.ErrLog.NotFound(w)
			return
		}
		h.ErrLog.ServerError(w, r, "update role", err, "Could not change the role.")
		return
	}

	_, _, actorID, _ := authz.UserCtx(r)
	h.AuditLog.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventRoleChanged,
		ActorID:   &actorID,
		UserID:    &id,
		Success:   true,
		IP:        auditlog.ClientIP(r),
		Details:   map[string]string{"role": in.Role},
	})

	h.Broker.Publish(realtime.Change{Collection: realtime.CollUsers, Op: realtime.OpUpdate, ID: id})
	respond.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Routes wires the master panel endpoints.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(authz.Require(authz.ActionViewUsers))
		r.Get("/users", h.ServeUsers)
	})

	r.Group(func(r chi.Router) {
		r.Use(authz.Require(authz.ActionManageRoles))
		r.Put("/users/{id}/role", h.HandleSetRole)
	})

	return r
}
