// internal/app/features/submit/handler.go

// Package submit accepts new feedback submissions.
package submit

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/microcosm-cc/bluemonday"
	feedbackstore "github.com/necros240/campusfeedback/internal/app/store/feedback"
	"github.com/necros240/campusfeedback/internal/app/system/auth"
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

// Handler accepts feedback submissions.
type Handler struct {
	Feedback *feedbackstore.Store
	Broker   *realtime.Broker
	ErrLog   *respond.ErrorLogger
	Log      *zap.Logger

	sanitize *bluemonday.Policy
}

// NewHandler constructs a submit Handler.
func NewHandler(db *mongo.Database, broker *realtime.Broker, errLog *respond.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Feedback: feedbackstore.New(db),
		Broker:   broker,
		ErrLog:   errLog,
		Log:      logger,
		sanitize: bluemonday.StrictPolicy(),
	}
}

type submitInput struct {
	Category  string `json:"category" validate:"required" label:"Category"`
	Content   string `json:"content" validate:"required,max=2000" label:"Feedback"`
	Anonymous bool   `json:"isAnonymous"`
}

// HandleSubmit creates a feedback item. The author's display name and club
// affiliation are copied onto the document as they stand right now; later
// profile changes leave old submissions untouched.
// POST /submit
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	var in submitInput
	if err := respond.Decode(r, &in); err != nil {
		h.ErrLog.BadRequest(w, r, "decode submit payload", err, "Invalid request body.")
		return
	}
	in.Content = strings.TrimSpace(h.sanitize.Sanitize(in.Content))
	if result := inputval.Validate(in); result.HasErrors() {
		respond.Error(w, http.StatusBadRequest, result.First())
		return
	}
	if !models.ValidCategory(in.Category) {
		respond.Error(w, http.StatusBadRequest, "Unknown category.")
		return
	}

	user, ok := auth.CurrentUser(r)
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "not signed in")
		return
	}
	authorID, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		h.ErrLog.ServerError(w, r, "parse session user id", err, "Could not submit feedback.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	fb, err := h.Feedback.Create(ctx, models.Feedback{
		Category:          in.Category,
		Content:           in.Content,
		AuthorID:          authorID,
		AuthorName:        user.Name,
		AuthorAffiliation: user.Affiliation,
		Anonymous:         in.Anonymous,
	})
	if err != nil {
		h.ErrLog.ServerError(w, r, "create feedback", err, "Could not submit feedback.")
		return
	}

	h.Log.Info("feedback submitted",
		zap.String("id", fb.ID.Hex()),
		zap.String("category", fb.Category),
		zap.Bool("anonymous", fb.Anonymous))

	h.Broker.Publish(realtime.Change{Collection: realtime.CollFeedback, Op: realtime.OpCreate, ID: fb.ID})
	respond.JSON(w, http.StatusCreated, fb)
}

// ServeCategories lists the valid submission categories.
// GET /submit/categories
func (h *Handler) ServeCategories(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string][]string{"categories": models.Categories})
}

// Routes wires the submission endpoints.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)
	r.Get("/categories", h.ServeCategories)
	r.Group(func(r chi.Router) {
		r.Use(authz.Require(authz.ActionSubmitFeedback))
		r.Post("/", h.HandleSubmit)
	})
	return r
}
