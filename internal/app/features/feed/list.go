// internal/app/features/feed/list.go
package feed

import (
	"context"
	"net/http"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/necros240/campusfeedback/internal/app/system/auth"
	"github.com/necros240/campusfeedback/internal/app/system/authz"
	"github.com/necros240/campusfeedback/internal/app/system/respond"
	"github.com/necros240/campusfeedback/internal/app/system/timeouts"
	"github.com/necros240/campusfeedback/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// clubPostTeaserCount is how many recent club posts ride along with the feed.
const clubPostTeaserCount = 3

type listResponse struct {
	Feedback   []models.Feedback `json:"feedback"`
	ClubPosts  []models.ClubPost `json:"clubPosts"`
	Categories []string          `json:"categories"`
}

// ServeList returns the full feed: every feedback item the viewer may see,
// ranked pinned-first, plus a short teaser of recent club activity.
// GET /feed?search=...&sort=newest|likes
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	_, _, viewerID, _ := authz.UserCtx(r)
	moderator := authz.RequestCan(r, authz.ActionModerateFeedback)

	items, err := h.Feedback.List(ctx)
	if err != nil {
		h.ErrLog.ServerError(w, r, "list feedback", err, "Could not load the feed.")
		return
	}

	search := query.Get(r, "search")
	mode := query.Get(r, "sort")
	if mode != SortLikes {
		mode = SortNewest
	}

	visible := make([]models.Feedback, 0, len(items))
	for _, fb := range items {
		fb = RedactForViewer(fb, viewerID, moderator)
		if matchesQuery(fb, search) {
			visible = append(visible, fb)
		}
	}
	rank(visible, mode)

	teaser, err := h.clubPostTeaser(ctx, r, viewerID)
	if err != nil {
		h.ErrLog.ServerError(w, r, "list club posts", err, "Could not load the feed.")
		return
	}

	respond.JSON(w, http.StatusOK, listResponse{
		Feedback:   visible,
		ClubPosts:  teaser,
		Categories: models.Categories,
	})
}

// clubPostTeaser returns the most recent club posts the viewer may see.
// Members-only posts are skipped unless the viewer's affiliation matches the
// post's target club or the viewer authored it.
func (h *Handler) clubPostTeaser(ctx context.Context, r *http.Request, viewerID primitive.ObjectID) ([]models.ClubPost, error) {
	affiliation := ""
	if u, ok := auth.CurrentUser(r); ok {
		affiliation = u.Affiliation
	}

	// Widen the window until enough visible posts turn up or the collection
	// is exhausted, so a run of members-only posts at the head does not hide
	// older visible ones.
	teaser := make([]models.ClubPost, 0, clubPostTeaserCount)
	for limit := int64(clubPostTeaserCount * 4); ; limit *= 2 {
		recent, err := h.ClubPosts.ListRecent(ctx, limit)
		if err != nil {
			return nil, err
		}
		teaser = teaser[:0]
		for _, p := range recent {
			if !p.VisibleTo(viewerID, affiliation) {
				continue
			}
			teaser = append(teaser, p)
			if len(teaser) == clubPostTeaserCount {
				return teaser, nil
			}
		}
		if int64(len(recent)) < limit {
			return teaser, nil
		}
	}
}
