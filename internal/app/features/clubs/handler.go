// internal/app/features/clubs/handler.go

// Package clubs serves the club activity surface: event and poll publishing,
// voting, likes, and comments, with audience-scoped visibility.
package clubs

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/microcosm-cc/bluemonday"
	clubpoststore "github.com/necros240/campusfeedback/internal/app/store/clubposts"
	clubstore "github.com/necros240/campusfeedback/internal/app/store/clubs"
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

// Handler serves club posts.
type Handler struct {
	Posts  *clubpoststore.Store
	Clubs  *clubstore.Store
	Broker *realtime.Broker
	ErrLog *respond.ErrorLogger
	Log    *zap.Logger

	sanitize *bluemonday.Policy
}

// NewHandler constructs a clubs Handler.
func NewHandler(db *mongo.Database, broker *realtime.Broker, errLog *respond.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Posts:    clubpoststore.New(db),
		Clubs:    clubstore.New(db),
		Broker:   broker,
		ErrLog:   errLog,
		Log:      logger,
		sanitize: bluemonday.StrictPolicy(),
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

func viewer(r *http.Request) (id primitive.ObjectID, affiliation string) {
	_, _, userID, _ := authz.UserCtx(r)
	if u, ok := auth.CurrentUser(r); ok {
		affiliation = u.Affiliation
	}
	return userID, affiliation
}

// loadVisible fetches a post and enforces its audience for the viewer.
// Posts outside the viewer's audience answer 404 so their existence is not
// leaked to id guessing. Returns ok=false after writing the response.
func (h *Handler) loadVisible(ctx context.Context, w http.ResponseWriter, r *http.Request, id primitive.ObjectID) (models.ClubPost, bool) {
	post, err := h.Posts.GetByID(ctx, id)
	if err == clubpoststore.ErrNotFound {
		h.ErrLog.NotFound(w)
		return models.ClubPost{}, false
	}
	if err != nil {
		h.ErrLog.ServerError(w, r, "load club post", err, "Could not load the post.")
		return models.ClubPost{}, false
	}
	viewerID, affiliation := viewer(r)
	if !post.VisibleTo(viewerID, affiliation) {
		h.ErrLog.NotFound(w)
		return models.ClubPost{}, false
	}
	return post, true
}

/*─────────────────────────────────────────────────────────────────────────────*
| Listing                                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

type listResponse struct {
	Posts []models.ClubPost `json:"posts"`
	Clubs []models.Club     `json:"clubs"`
}

// ServeList returns every post the viewer may see, newest first, along with
// the club catalogue for display.
// GET /clubs/posts
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	viewerID, affiliation := viewer(r)

	posts, err := h.Posts.List(ctx)
	if err != nil {
		h.ErrLog.ServerError(w, r, "list club posts", err, "Could not load club activity.")
		return
	}

	visible := make([]models.ClubPost, 0, len(posts))
	for _, p := range posts {
		if p.VisibleTo(viewerID, affiliation) {
			visible = append(visible, p)
		}
	}

	catalogue, err := h.Clubs.List(ctx)
	if err != nil {
		h.ErrLog.ServerError(w, r, "list clubs", err, "Could not load club activity.")
		return
	}

	respond.JSON(w, http.StatusOK, listResponse{Posts: visible, Clubs: catalogue})
}

/*─────────────────────────────────────────────────────────────────────────────*
| Publishing                                                                   |
*─────────────────────────────────────────────────────────────────────────────*/

type createInput struct {
	Title    string   `json:"title" validate:"required,max=200" label:"Title"`
	Type     string   `json:"type" validate:"required,oneof=Event Poll" label:"Post type"`
	Content  string   `json:"content" validate:"max=4000" label:"Details"`
	Audience string   `json:"audience" validate:"required,oneof=Public Members" label:"Audience"`
	Options  []string `json:"options" validate:"dive,required,max=200" label:"Poll options"`
}

// HandleCreate publishes an event or poll. A Members post locks onto the
// author's current affiliation as the target club; changing clubs later does
// not move old posts.
// POST /clubs/posts
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in createInput
	if err := respond.Decode(r, &in); err != nil {
		h.ErrLog.BadRequest(w, r, "decode post payload", err, "Invalid request body.")
		return
	}
	in.Title = strings.TrimSpace(h.sanitize.Sanitize(in.Title))
	in.Content = strings.TrimSpace(h.sanitize.Sanitize(in.Content))
	for i, opt := range in.Options {
		in.Options[i] = strings.TrimSpace(h.sanitize.Sanitize(opt))
	}
	if result := inputval.Validate(in); result.HasErrors() {
		respond.Error(w, http.StatusBadRequest, result.First())
		return
	}
	if in.Type == models.PostTypeEvent && in.Content == "" {
		respond.Error(w, http.StatusBadRequest, "Event details are required.")
		return
	}

	viewerID, affiliation := viewer(r)

	targetClub := models.AudiencePublic
	if in.Audience == models.AudienceMembers {
		if affiliation == "" || affiliation == models.NoAffiliation {
			respond.Error(w, http.StatusBadRequest, "A members-only post needs a club affiliation.")
			return
		}
		targetClub = affiliation
	}

	// Options are a poll concept; stray options on an Event payload are
	// dropped rather than persisted.
	var options []models.PollOption
	if in.Type == models.PostTypePoll {
		options = make([]models.PollOption, len(in.Options))
		for i, opt := range in.Options {
			options[i] = models.PollOption{Text: opt}
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	post, err := h.Posts.Create(ctx, models.ClubPost{
		Title:      in.Title,
		Type:       in.Type,
		Content:    in.Content,
		Audience:   in.Audience,
		TargetClub: targetClub,
		AuthorID:   viewerID,
		Options:    options,
	})
	if err == clubpoststore.ErrFewOptions {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		h.ErrLog.ServerError(w, r, "create club post", err, "Could not publish the post.")
		return
	}

	h.Log.Info("club post published",
		zap.String("id", post.ID.Hex()),
		zap.String("type", post.Type),
		zap.String("audience", post.Audience),
		zap.String("target_club", post.TargetClub))

	h.Broker.Publish(realtime.Change{Collection: realtime.CollClubPosts, Op: realtime.OpCreate, ID: post.ID})
	respond.JSON(w, http.StatusCreated, post)
}

type editInput struct {
	Title   string `json:"title" validate:"required,max=200" label:"Title"`
	Content string `json:"content" validate:"max=4000" label:"Details"`
}

// HandleEdit updates a post's title, and for events its body. Poll bodies and
// options are immutable once votes may exist.
// PUT /clubs/posts/{id}
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
	in.Title = strings.TrimSpace(h.sanitize.Sanitize(in.Title))
	in.Content = strings.TrimSpace(h.sanitize.Sanitize(in.Content))
	if result := inputval.Validate(in); result.HasErrors() {
		respond.Error(w, http.StatusBadRequest, result.First())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	post, err := h.Posts.GetByID(ctx, id)
	if err == clubpoststore.ErrNotFound {
		h.ErrLog.NotFound(w)
		return
	}
	if err != nil {
		h.ErrLog.ServerError(w, r, "load club post", err, "Could not save the edit.")
		return
	}
	if post.Type == models.PostTypePoll {
		in.Content = "" // title-only edits for polls
	}

	_, _, userID, _ := authz.UserCtx(r)

	err = h.Posts.UpdateContent(ctx, id, userID, in.Title, in.Content)
	switch err {
	case nil:
	case clubpoststore.ErrNotFound:
		h.ErrLog.NotFound(w)
		return
	case clubpoststore.ErrNotAuthor:
		respond.Error(w, http.StatusForbidden, "Only the author can edit this post.")
		return
	default:
		h.ErrLog.ServerError(w, r, "edit club post", err, "Could not save the edit.")
		return
	}

	h.Broker.Publish(realtime.Change{Collection: realtime.CollClubPosts, Op: realtime.OpUpdate, ID: id})
	respond.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}

/*─────────────────────────────────────────────────────────────────────────────*
| Interactions                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

type voteInput struct {
	Option int `json:"option"`
}

// HandleVote records the viewer's poll choice. Re-voting moves the vote; the
// store guarantees a voter sits in at most one option.
// POST /clubs/posts/{id}/vote
func (h *Handler) HandleVote(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in voteInput
	if err := respond.Decode(r, &in); err != nil {
		h.ErrLog.BadRequest(w, r, "decode vote payload", err, "Invalid request body.")
		return
	}

	_, _, userID, _ := authz.UserCtx(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if _, ok := h.loadVisible(ctx, w, r, id); !ok {
		return
	}

	err := h.Posts.Vote(ctx, id, in.Option, userID)
	switch err {
	case nil:
	case clubpoststore.ErrNotFound:
		h.ErrLog.NotFound(w)
		return
	case clubpoststore.ErrNotAPoll, clubpoststore.ErrBadOption:
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	default:
		h.ErrLog.ServerError(w, r, "record vote", err, "Could not record the vote.")
		return
	}

	h.Broker.Publish(realtime.Change{Collection: realtime.CollClubPosts, Op: realtime.OpUpdate, ID: id})
	respond.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// HandleLike records the viewer's like, idempotently.
// POST /clubs/posts/{id}/like
func (h *Handler) HandleLike(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	_, _, userID, _ := authz.UserCtx(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if _, ok := h.loadVisible(ctx, w, r, id); !ok {
		return
	}

	if err := h.Posts.Like(ctx, id, userID); err != nil {
		if err == clubpoststore.ErrNotFound {
			h.ErrLog.NotFound(w)
			return
		}
		h.ErrLog.ServerError(w, r, "like club post", err, "Could not record the like.")
		return
	}

	h.Broker.Publish(realtime.Change{Collection: realtime.CollClubPosts, Op: realtime.OpUpdate, ID: id})
	respond.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type commentInput struct {
	Text string `json:"text" validate:"required,max=1000" label:"Comment"`
}

// HandleAddComment appends a comment to the post.
// POST /clubs/posts/{id}/comments
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

	if _, ok := h.loadVisible(ctx, w, r, id); !ok {
		return
	}

	comment, err := h.Posts.AddComment(ctx, id, models.Comment{
		Text:       in.Text,
		AuthorID:   userID,
		AuthorName: name,
	})
	if err != nil {
		if err == clubpoststore.ErrNotFound {
			h.ErrLog.NotFound(w)
			return
		}
		h.ErrLog.ServerError(w, r, "add comment", err, "Could not post the comment.")
		return
	}

	h.Broker.Publish(realtime.Change{Collection: realtime.CollClubPosts, Op: realtime.OpUpdate, ID: id})
	respond.JSON(w, http.StatusCreated, comment)
}

// HandleEditComment rewrites one comment the viewer authored.
// PUT /clubs/posts/{id}/comments/{commentID}
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

	if _, ok := h.loadVisible(ctx, w, r, id); !ok {
		return
	}

	err := h.Posts.EditComment(ctx, id, commentID, userID, in.Text)
	switch err {
	case nil:
	case clubpoststore.ErrNotFound:
		h.ErrLog.NotFound(w)
		return
	case clubpoststore.ErrNoComment:
		respond.Error(w, http.StatusForbidden, "Only the comment's author can edit it.")
		return
	default:
		h.ErrLog.ServerError(w, r, "edit comment", err, "Could not save the comment.")
		return
	}

	h.Broker.Publish(realtime.Change{Collection: realtime.CollClubPosts, Op: realtime.OpUpdate, ID: id})
	respond.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}
