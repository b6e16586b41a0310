// internal/app/features/feed/mutations.go
package feed

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/necros240/campusfeedback/internal/app/store/audit"
	feedbackstore "github.com/necros240/campusfeedback/internal/app/store/feedback"
	"github.com/necros240/campusfeedback/internal/app/system/auditlog"
	"github.com/necros240/campusfeedback/internal/app/system/authz"
	"github.com/necros240/campusfeedback/internal/app/system/inputval"
	"github.com/necros240/campusfeedback/internal/app/system/realtime"
	"github.com/necros240/campusfeedback/internal/app/system/respond"
	"github.com/necros240/campusfeedback/internal/app/system/timeouts"
	"github.com/necros240/campusfeedback/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// pathID parses the {id} URL parameter, writing a 404 on malformed input.
func pathID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, http.StatusNotFound, "not found")
		return primitive.NilObjectID, false
	}
	return id, true
}

// HandleLike records the viewer's like. Liking twice is a no-op, never an
// error.
// POST /feed/{id}/like
func (h *Handler) HandleLike(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	_, _, userID, _ := authz.UserCtx(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Feedback.Like(ctx, id, userID); err != nil {
		if err == feedbackstore.ErrNotFound {
			h.ErrLog.NotFound(w)
			return
		}
		h.ErrLog.ServerError(w, r, "like feedback", err, "Could not record the like.")
		return
	}

	h.Broker.Publish(realtime.Change{Collection: realtime.CollFeedback, Op: realtime.OpUpdate, ID: id})
	respond.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// HandleReport flags the item for moderator attention. Reports accumulate and
// are never withdrawn here.
// POST /feed/{id}/report
func (h *Handler) HandleReport(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	_, _, userID, _ := authz.UserCtx(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Feedback.Report(ctx, id, userID); err != nil {
		if err == feedbackstore.ErrNotFound {
			h.ErrLog.NotFound(w)
			return
		}
		h.ErrLog.ServerError(w, r, "report feedback", err, "Could not submit the report.")
		return
	}

	h.Broker.Publish(realtime.Change{Collection: realtime.CollFeedback, Op: realtime.OpUpdate, ID: id})
	respond.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type pinInput struct {
	Pinned bool `json:"pinned"`
}

// HandlePin sets or clears the pinned flag. Moderators only; the route is
// additionally gated by authz middleware.
// POST /feed/{id}/pin
func (h *Handler) HandlePin(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in pinInput
	if err := respond.Decode(r, &in); err != nil {
		h.ErrLog.BadRequest(w, r, "decode pin payload", err, "Invalid request body.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Feedback.SetPinned(ctx, id, in.Pinned); err != nil {
		if err == feedbackstore.ErrNotFound {
			h.ErrLog.NotFound(w)
			return
		}
		h.ErrLog.ServerError(w, r, "pin feedback", err, "Could not update the pin.")
		return
	}

	_, _, actorID, _ := authz.UserCtx(r)
	eventType := audit.EventFeedbackPinned
	if !in.Pinned {
		eventType = audit.EventFeedbackUnpinned
	}
	h.AuditLog.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: eventType,
		ActorID:   &actorID,
		TargetID:  &id,
		Success:   true,
		IP:        auditlog.ClientIP(r),
	})

	h.Broker.Publish(realtime.Change{Collection: realtime.CollFeedback, Op: realtime.OpUpdate, ID: id})
	respond.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type editInput struct {
	Content string `json:"content" validate:"required,max=2000" label:"Feedback"`
}

// HandleEdit lets the author revise their submission text. The store enforces
// authorship in the update filter, so a non-author edit cannot race past this
// handler.
// PUT /feed/{id}
func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in editInput
	if err := respond.Decode(r, &in); err != nil {
		h.ErrLog.BadRequest(w, r, "decode edit payload", err, "Invalid request body.")
		return
	}
	in.Content = strings.TrimSpace(h.sanitize.Sanitize(in.Content))
	if result := inputval.Validate(in); result.HasErrors() {
		respond.Error(w, http.StatusBadRequest, result.First())
		return
	}

	_, _, userID, _ := authz.UserCtx(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	err := h.Feedback.UpdateContent(ctx, id, userID, in.Content)
	switch err {
	case nil:
	case feedbackstore.ErrNotFound:
		h.ErrLog.NotFound(w)
		return
	case feedbackstore.ErrNotAuthor:
		respond.Error(w, http.StatusForbidden, "Only the author can edit this feedback.")
		return
	default:
		h.ErrLog.ServerError(w, r, "edit feedback", err, "Could not save the edit.")
		return
	}

	h.Broker.Publish(realtime.Change{Collection: realtime.CollFeedback, Op: realtime.OpUpdate, ID: id})
	respond.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type commentInput struct {
	Text string `json:"text" validate:"required,max=1000" label:"Comment"`
}

// HandleAddComment appends a comment under the viewer's real name; comments
// are never anonymous even on anonymous feedback.
// POST /feed/{id}/comments
func (h *Handler) HandleAddComment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in commentInput
	if err := respond.Decode(r, &in); err != nil {
		h.ErrLog.BadRequest(w, r, "decode comment payload", err, "Invalid request body.")
		return
	}
	in.Text = strings.TrimSpace(h.sanitize.Sanitize(in.Text))
	if result := inputval.Validate(in); result.HasErrors() {
		respond.Error(w, http.StatusBadRequest, result.First())
		return
	}

	_, name, userID, _ := authz.UserCtx(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	comment, err := h.Feedback.AddComment(ctx, id, models.Comment{
		Text:       in.Text,
		AuthorID:   userID,
		AuthorName: name,
	})
	if err != nil {
		if err == feedbackstore.ErrNotFound {
			h.ErrLog.NotFound(w)
			return
		}
		h.ErrLog.ServerError(w, r, "add comment", err, "Could not post the comment.")
		return
	}

	h.Broker.Publish(realtime.Change{Collection: realtime.CollFeedback, Op: realtime.OpUpdate, ID: id})
	respond.JSON(w, http.StatusCreated, comment)
}

// HandleEditComment rewrites the text of one comment the viewer authored.
// PUT /feed/{id}/comments/{commentID}
func (h *Handler) HandleEditComment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	commentID := chi.URLParam(r, "commentID")

	var in commentInput
	if err := respond.Decode(r, &in); err != nil {
		h.ErrLog.BadRequest(w, r, "decode comment payload", err, "Invalid request body.")
		return
	}
	in.Text = strings.TrimSpace(h.sanitize.Sanitize(in.Text))
	if result := inputval.Validate(in); result.HasErrors() {
		respond.Error(w, http.StatusBadRequest, result.First())
		return
	}

	_, _, userID, _ := authz.UserCtx(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	err := h.Feedback.EditComment(ctx, id, commentID, userID, in.Text)
	switch err {
	case nil:
	case feedbackstore.ErrNotFound:
		h.ErrLog.NotFound(w)
		return
	case feedbackstore.ErrNoComment:
		respond.Error(w, http.StatusForbidden, "Only the comment's author can edit it.")
		return
	default:
		h.ErrLog.ServerError(w, r, "edit comment", err, "Could not save the comment.")
		return
	}

	h.Broker.Publish(realtime.Change{Collection: realtime.CollFeedback, Op: realtime.OpUpdate, ID: id})
	respond.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}
