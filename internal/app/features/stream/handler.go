// internal/app/features/stream/handler.go

// Package stream pushes live collection snapshots over WebSocket. Clients
// subscribe to collections; every committed mutation triggers a fresh
// snapshot of the affected collection, filtered to what the subscriber may
// see. Missed intermediate states are harmless because each push carries the
// whole collection.
package stream

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/necros240/campusfeedback/internal/app/features/feed"
	clubpoststore "github.com/necros240/campusfeedback/internal/app/store/clubposts"
	clubstore "github.com/necros240/campusfeedback/internal/app/store/clubs"
	feedbackstore "github.com/necros240/campusfeedback/internal/app/store/feedback"
	userstore "github.com/necros240/campusfeedback/internal/app/store/users"
	"github.com/necros240/campusfeedback/internal/app/system/auth"
	"github.com/necros240/campusfeedback/internal/app/system/authz"
	"github.com/necros240/campusfeedback/internal/app/system/realtime"
	"github.com/necros240/campusfeedback/internal/app/system/timeouts"
	"github.com/necros240/campusfeedback/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Auth is the session cookie; the browser attaches it only for our own
	// origin, so the origin check can stay permissive like any cookie API.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler owns the WebSocket endpoint.
type Handler struct {
	Feedback  *feedbackstore.Store
	ClubPosts *clubpoststore.Store
	Clubs     *clubstore.Store
	Users     *userstore.Store
	Broker    *realtime.Broker
	Log       *zap.Logger
}

// NewHandler constructs a stream Handler.
func NewHandler(db *mongo.Database, broker *realtime.Broker, logger *zap.Logger) *Handler {
	return &Handler{
		Feedback:  feedbackstore.New(db),
		ClubPosts: clubpoststore.New(db),
		Clubs:     clubstore.New(db),
		Users:     userstore.New(db),
		Broker:    broker,
		Log:       logger,
	}
}

// subscriber is the per-connection view context, captured once at connect
// time. A role change mid-connection takes effect on reconnect.
type subscriber struct {
	userID      primitive.ObjectID
	affiliation string
	moderator   bool
	viewUsers   bool
}

// snapshotMessage is one push: the full visible state of one collection.
type snapshotMessage struct {
	Collection string `json:"collection"`
	Op         string `json:"op"`
	Items      any    `json:"items"`
}

// allowedCollections resolves the client's requested collections against what
// their role may watch. Unknown names are dropped silently; the users
// collection needs the user-administration permission.
func allowedCollections(requested []string, sub subscriber) []string {
	out := make([]string, 0, len(requested))
	for _, c := range requested {
		switch c {
		case realtime.CollFeedback, realtime.CollClubPosts, realtime.CollClubs:
			out = append(out, c)
		case realtime.CollUsers:
			if sub.viewUsers {
				out = append(out, c)
			}
		}
	}
	return out
}

// Serve upgrades the connection and streams snapshots until the client goes
// away.
// GET /stream?collections=feedback,club_posts,clubs
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	role, _, userID, ok := authz.UserCtx(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	sub := subscriber{
		userID:    userID,
		moderator: authz.Can(role, authz.ActionModerateFeedback),
		viewUsers: authz.Can(role, authz.ActionViewUsers),
	}
	if u, uok := auth.CurrentUser(r); uok {
		sub.affiliation = u.Affiliation
	}

	requested := strings.Split(query.Get(r, "collections"), ",")
	if len(requested) == 1 && requested[0] == "" {
		requested = []string{realtime.CollFeedback, realtime.CollClubPosts, realtime.CollClubs}
	}
	collections := allowedCollections(requested, sub)
	if len(collections) == 0 {
		http.Error(w, "no subscribable collections", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	subscription := h.Broker.Subscribe(collections...)
	defer subscription.Close()

	h.Log.Debug("stream connected",
		zap.String("user_id", userID.Hex()),
		zap.Strings("collections", collections))

	// The client never sends application messages; the read loop exists to
	// notice the close frame.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	// Initial snapshot of everything subscribed, then one push per change.
	for _, coll := range collections {
		if err := h.push(r.Context(), conn, coll, string(realtime.OpUpdate), sub); err != nil {
			return
		}
	}

	for {
		select {
		case <-done:
			return
		case change, open := <-subscription.C:
			if !open {
				return
			}
			if err := h.push(r.Context(), conn, change.Collection, string(change.Op), sub); err != nil {
				h.Log.Debug("stream push failed, closing",
					zap.String("user_id", userID.Hex()),
					zap.Error(err))
				return
			}
		}
	}
}

// push writes the current visible snapshot of one collection.
func (h *Handler) push(ctx context.Context, conn *websocket.Conn, collection, op string, sub subscriber) error {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	defer cancel()

	items, err := h.snapshot(ctx, collection, sub)
	if err != nil {
		return err
	}
	return conn.WriteJSON(snapshotMessage{Collection: collection, Op: op, Items: items})
}

func (h *Handler) snapshot(ctx context.Context, collection string, sub subscriber) (any, error) {
	switch collection {
	case realtime.CollFeedback:
		items, err := h.Feedback.List(ctx)
		if err != nil {
			return nil, err
		}
		visible := make([]models.Feedback, len(items))
		for i, fb := range items {
			visible[i] = feed.RedactForViewer(fb, sub.userID, sub.moderator)
		}
		return visible, nil

	case realtime.CollClubPosts:
		posts, err := h.ClubPosts.List(ctx)
		if err != nil {
			return nil, err
		}
		visible := make([]models.ClubPost, 0, len(posts))
		for _, p := range posts {
			if p.VisibleTo(sub.userID, sub.affiliation) {
				visible = append(visible, p)
			}
		}
		return visible, nil

	case realtime.CollClubs:
		return h.Clubs.List(ctx)

	case realtime.CollUsers:
		users, err := h.Users.List(ctx)
		if err != nil {
			return nil, err
		}
		views := make([]userView, len(users))
		for i, u := range users {
			views[i] = userView{
				ID:          u.ID.Hex(),
				Email:       u.Email,
				DisplayName: u.DisplayName,
				Role:        u.Role,
				Affiliation: u.Affiliation,
			}
		}
		return views, nil
	}
	return nil, nil
}

// userView strips credential material from streamed user documents.
type userView struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Role        string `json:"role"`
	Affiliation string `json:"affiliation"`
}

// Routes wires the stream endpoint.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)
	r.Get("/", h.Serve)
	return r
}
