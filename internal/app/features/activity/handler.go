// internal/app/features/activity/handler.go

// Package activity serves the caller's own submissions that have received a
// response, the notification surface of the application.
package activity

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	feedbackstore "github.com/necros240/campusfeedback/internal/app/store/feedback"
	"github.com/necros240/campusfeedback/internal/app/system/auth"
	"github.com/necros240/campusfeedback/internal/app/system/authz"
	"github.com/necros240/campusfeedback/internal/app/system/respond"
	"github.com/necros240/campusfeedback/internal/app/system/timeouts"
	"github.com/necros240/campusfeedback/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the caller's activity view.
type Handler struct {
	Feedback *feedbackstore.Store
	ErrLog   *respond.ErrorLogger
	Log      *zap.Logger
}

// NewHandler constructs an activity Handler.
func NewHandler(db *mongo.Database, errLog *respond.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Feedback: feedbackstore.New(db), ErrLog: errLog, Log: logger}
}

type activityResponse struct {
	Responded []models.Feedback `json:"responded"`
	All       []models.Feedback `json:"all"`
}

// ServeActivity returns the caller's own feedback, newest first. Responded
// holds the items staff have answered; All carries the full submission history
// for the same page.
// GET /activity
func (h *Handler) ServeActivity(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "not signed in")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	items, err := h.Feedback.ListByAuthor(ctx, userID)
	if err != nil {
		h.ErrLog.ServerError(w, r, "list own feedback", err, "Could not load your activity.")
		return
	}

	responded := make([]models.Feedback, 0, len(items))
	for _, fb := range items {
		if fb.Response != "" {
			responded = append(responded, fb)
		}
	}

	respond.JSON(w, http.StatusOK, activityResponse{Responded: responded, All: items})
}

// Routes wires the activity endpoint.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)
	r.Get("/", h.ServeActivity)
	return r
}
