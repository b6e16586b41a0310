// internal/app/features/admin/handler.go

// Package admin serves the moderation dashboard: feedback statistics,
// resolution, deletion, and club catalogue management.
package admin

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"github.com/necros240/campusfeedback/internal/app/store/audit"
	clubstore "github.com/necros240/campusfeedback/internal/app/store/clubs"
	feedbackstore "github.com/necros240/campusfeedback/internal/app/store/feedback"
	userstore "github.com/necros240/campusfeedback/internal/app/store/users"
	"github.com/necros240/campusfeedback/internal/app/system/auditlog"
	"github.com/necros240/campusfeedback/internal/app/system/authz"
	"github.com/necros240/campusfeedback/internal/app/system/inputval"
	"github.com/necros240/campusfeedback/internal/app/system/realtime"
	"github.com/necros240/campusfeedback/internal/app/system/respond"
	"github.com/necros240/campusfeedback/internal/app/system/timeouts"
	"github.com/necros240/campusfeedback/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// DefaultResolveResponse is filled in when staff resolve an item without
// writing their own reply.
const DefaultResolveResponse = "Thank you for the feedback. We have looked into it."

// Handler serves the moderation dashboard.
type Handler struct {
	Feedback *feedbackstore.Store
	Clubs    *clubstore.Store
	Users    *userstore.Store
	Broker   *realtime.Broker
	ErrLog   *respond.ErrorLogger
	AuditLog *auditlog.Logger
	Log      *zap.Logger
}

// NewHandler constructs an admin Handler.
func NewHandler(db *mongo.Database, broker *realtime.Broker, errLog *respond.ErrorLogger, auditLog *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Feedback: feedbackstore.New(db),
		Clubs:    clubstore.New(db),
		Users:    userstore.New(db),
		Broker:   broker,
		ErrLog:   errLog,
		AuditLog: auditLog,
		Log:      logger,
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, http.StatusNotFound, "not found")
		return primitive.NilObjectID, false
	}
	return id, true
}

/*─────────────────────────────────────────────────────────────────────────────*
| Dashboard                                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

type statsResponse struct {
	Total      int            `json:"total"`
	New        int64          `json:"new"`
	Resolved   int64          `json:"resolved"`
	Reported   int            `json:"reported"`
	ByCategory map[string]int `json:"byCategory"`
}

// ServeStats returns the dashboard aggregates.
// GET /admin/stats
func (h *Handler) ServeStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	items, err := h.Feedback.List(ctx)
	if err != nil {
		h.ErrLog.ServerError(w, r, "list feedback", err, "Could not load statistics.")
		return
	}

	newCount, err := h.Feedback.CountByStatus(ctx, models.StatusNew)
	if err != nil {
		h.ErrLog.ServerError(w, r, "count new feedback", err, "Could not load statistics.")
		return
	}
	resolvedCount, err := h.Feedback.CountByStatus(ctx, models.StatusResolved)
	if err != nil {
		h.ErrLog.ServerError(w, r, "count resolved feedback", err, "Could not load statistics.")
		return
	}

	stats := statsResponse{
		Total:      len(items),
		New:        newCount,
		Resolved:   resolvedCount,
		ByCategory: make(map[string]int, len(models.Categories)),
	}
	for _, c := range models.Categories {
		stats.ByCategory[c] = 0
	}
	for _, fb := range items {
		stats.ByCategory[fb.Category]++
		if len(fb.Reports) > 0 {
			stats.Reported++
		}
	}

	respond.JSON(w, http.StatusOK, stats)
}

// ServeList returns the moderation queue, unredacted. ?filter=reported narrows
// to items flagged by at least one user.
// GET /admin/feedback
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	items, err := h.Feedback.List(ctx)
	if err != nil {
		h.ErrLog.ServerError(w, r, "list feedback", err, "Could not load the queue.")
		return
	}

	if query.Get(r, "filter") == "reported" {
		reported := make([]models.Feedback, 0, len(items))
		for _, fb := range items {
			if len(fb.Reports) > 0 {
				reported = append(reported, fb)
			}
		}
		items = reported
	}

	respond.JSON(w, http.StatusOK, map[string][]models.Feedback{"feedback": items})
}

/*─────────────────────────────────────────────────────────────────────────────*
| Moderation                                                                   |
*─────────────────────────────────────────────────────────────────────────────*/

type resolveInput struct {
	Response string `json:"response" validate:"max=2000" label:"Response"`
}

// HandleResolve marks the item Resolved and records the staff response,
// falling back to the stock acknowledgement when none is given.
// POST /admin/feedback/{id}/resolve
func (h *Handler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in resolveInput
	if err := respond.Decode(r, &in); err != nil {
		h.ErrLog.BadRequest(w, r, "decode resolve payload", err, "Invalid request body.")
		return
	}
	in.Response = strings.TrimSpace(in.Response)
	if result := inputval.Validate(in); result.HasErrors() {
		respond.Error(w, http.StatusBadRequest, result.First())
		return
	}
	if in.Response == "" {
		in.Response = DefaultResolveResponse
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Feedback.Resolve(ctx, id, in.Response); err != nil {
		if err == feedbackstore.ErrNotFound {
			h.ErrLog.NotFound(w)
			return
		}
		h.ErrLog.ServerError(w, r, "resolve feedback", err, "Could not resolve the feedback.")
		return
	}

	_, _, actorID, _ := authz.UserCtx(r)
	h.AuditLog.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventFeedbackResolved,
		ActorID:   &actorID,
		TargetID:  &id,
		Success:   true,
		IP:        auditlog.ClientIP(r),
	})

	h.Broker.Publish(realtime.Change{Collection: realtime.CollFeedback, Op: realtime.OpUpdate, ID: id})
	respond.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// HandleDelete removes the item entirely.
// DELETE /admin/feedback/{id}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	deleted, err := h.Feedback.Delete(ctx, id)
	if err != nil {
		h.ErrLog.ServerError(w, r, "delete feedback", err, "Could not delete the feedback.")
		return
	}
	if deleted == 0 {
		h.ErrLog.NotFound(w)
		return
	}

	_, _, actorID, _ := authz.UserCtx(r)
	h.AuditLog.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventFeedbackDeleted,
		ActorID:   &actorID,
		TargetID:  &id,
		Success:   true,
		IP:        auditlog.ClientIP(r),
	})

	h.Broker.Publish(realtime.Change{Collection: realtime.CollFeedback, Op: realtime.OpDelete, ID: id})
	respond.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}

/*─────────────────────────────────────────────────────────────────────────────*
| Club catalogue                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

type createClubInput struct {
	Name string `json:"name" validate:"required,max=120" label:"Club name"`
}

// HandleCreateClub adds a club to the catalogue.
// POST /admin/clubs
func (h *Handler) HandleCreateClub(w http.ResponseWriter, r *http.Request) {
	var in createClubInput
	if err := respond.Decode(r, &in); err != nil {
		h.ErrLog.BadRequest(w, r, "decode club payload", err, "Invalid request body.")
		return
	}
	in.Name = strings.TrimSpace(in.Name)
	if result := inputval.Validate(in); result.HasErrors() {
		respond.Error(w, http.StatusBadRequest, result.First())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	club, err := h.Clubs.Create(ctx, in.Name)
	if err == clubstore.ErrDuplicateClub {
		respond.Error(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		h.ErrLog.ServerError(w, r, "create club", err, "Could not create the club.")
		return
	}

	_, _, actorID, _ := authz.UserCtx(r)
	h.AuditLog.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventClubCreated,
		ActorID:   &actorID,
		TargetID:  &club.ID,
		Success:   true,
		IP:        auditlog.ClientIP(r),
		Details:   map[string]string{"name": club.Name},
	})

	h.Broker.Publish(realtime.Change{Collection: realtime.CollClubs, Op: realtime.OpCreate, ID: club.ID})
	respond.JSON(w, http.StatusCreated, club)
}

// HandleDeleteClub removes a club from the catalogue. Users affiliated with
// it keep their stale affiliation string; the gap is logged so operators can
// see it.
// DELETE /admin/clubs/{id}
func (h *Handler) HandleDeleteClub(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	club, err := h.Clubs.GetByID(ctx, id)
	if err != nil {
		h.ErrLog.NotFound(w)
		return
	}

	deleted, err := h.Clubs.Delete(ctx, id)
	if err != nil {
		h.ErrLog.ServerError(w, r, "delete club", err, "Could not delete the club.")
		return
	}
	if deleted == 0 {
		h.ErrLog.NotFound(w)
		return
	}

	if orphaned, err := h.Users.CountByAffiliation(ctx, club.Name); err == nil && orphaned > 0 {
		h.Log.Warn("club deleted with members still affiliated",
			zap.String("club", club.Name),
			zap.Int64("affiliated_users", orphaned))
	}

	_, _, actorID, _ := authz.UserCtx(r)
	h.AuditLog.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventClubDeleted,
		ActorID:   &actorID,
		TargetID:  &id,
		Success:   true,
		IP:        auditlog.ClientIP(r),
		Details:   map[string]string{"name": club.Name},
	})

	h.Broker.Publish(realtime.Change{Collection: realtime.CollClubs, Op: realtime.OpDelete, ID: id})
	respond.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}
