// internal/app/features/feed/handler.go

// Package feed serves the shared feedback feed: listing with search and
// ranking, likes, reports, pinning, author edits, and comments.
package feed

import (
	"sort"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	clubpoststore "github.com/necros240/campusfeedback/internal/app/store/clubposts"
	feedbackstore "github.com/necros240/campusfeedback/internal/app/store/feedback"
	"github.com/necros240/campusfeedback/internal/app/system/auditlog"
	"github.com/necros240/campusfeedback/internal/app/system/realtime"
	"github.com/necros240/campusfeedback/internal/app/system/respond"
	"github.com/necros240/campusfeedback/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the feedback feed.
type Handler struct {
	Feedback  *feedbackstore.Store
	ClubPosts *clubpoststore.Store
	Broker    *realtime.Broker
	ErrLog    *respond.ErrorLogger
	AuditLog  *auditlog.Logger
	Log       *zap.Logger

	sanitize *bluemonday.Policy
}

// NewHandler constructs a feed Handler.
func NewHandler(db *mongo.Database, broker *realtime.Broker, errLog *respond.ErrorLogger, auditLog *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Feedback:  feedbackstore.New(db),
		ClubPosts: clubpoststore.New(db),
		Broker:    broker,
		ErrLog:    errLog,
		AuditLog:  auditLog,
		Log:       logger,
		sanitize:  bluemonday.StrictPolicy(),
	}
}

// Sort modes for the feed listing.
const (
	SortNewest = "newest"
	SortLikes  = "likes"
)

// redactedAuthor replaces the author of an anonymous submission.
const redactedAuthor = "Anonymous"

// RedactForViewer hides the author of anonymous submissions and the reporter
// list from everyone who is not a moderator. The author always sees their own
// name on their own posts.
func RedactForViewer(fb models.Feedback, viewerID primitive.ObjectID, moderator bool) models.Feedback {
	if !moderator {
		fb.Reports = nil
		if fb.Anonymous && fb.AuthorID != viewerID {
			fb.AuthorID = primitive.NilObjectID
			fb.AuthorName = redactedAuthor
			fb.AuthorAffiliation = ""
		}
	}
	return fb
}

// matchesQuery reports whether the (already redacted) item matches the search
// text. Matching is a case-insensitive substring test over content, category,
// and the author's affiliation, the same fields the feed search box covers.
func matchesQuery(fb models.Feedback, query string) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(fb.Content), q) ||
		strings.Contains(strings.ToLower(fb.Category), q) ||
		strings.Contains(strings.ToLower(fb.AuthorAffiliation), q)
}

// rank orders the list in place: pinned items first, then the chosen sort.
// Likes mode breaks ties by recency so fresh posts do not sink below stale
// ones with the same count.
func rank(items []models.Feedback, mode string) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Pinned != b.Pinned {
			return a.Pinned
		}
		if mode == SortLikes {
			if la, lb := len(a.Likes), len(b.Likes); la != lb {
				return la > lb
			}
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
}
