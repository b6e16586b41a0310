// internal/domain/models/clubpost.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Club post types.
const (
	PostTypeEvent = "Event"
	PostTypePoll  = "Poll"
)

// Club post audiences.
const (
	AudiencePublic  = "Public"
	AudienceMembers = "Members"
)

// PollOption is one choice of a poll. Votes is a set of user ids; a voter
// appears in at most one option's set at a time.
type PollOption struct {
	Text  string               `bson:"text" json:"text"`
	Votes []primitive.ObjectID `bson:"votes" json:"votes"`
}

// ClubPost is an event announcement or a poll published by a club account.
// TargetClub captures the author's affiliation at creation time when the
// audience is Members; it is never recomputed if the author later changes
// clubs. For Public posts TargetClub is the literal "Public".
type ClubPost struct {
	ID         primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Title      string               `bson:"title" json:"title"`
	Type       string               `bson:"type" json:"type"`
	Content    string               `bson:"content" json:"content"` // event body, or the literal "Poll"
	Audience   string               `bson:"audience" json:"audience"`
	TargetClub string               `bson:"target_club" json:"targetClub"`
	AuthorID   primitive.ObjectID   `bson:"author_id" json:"authorId"`
	Options    []PollOption         `bson:"options,omitempty" json:"options,omitempty"`
	Likes      []primitive.ObjectID `bson:"likes" json:"likes"`
	Comments   []Comment            `bson:"comments" json:"comments"`
	CreatedAt  time.Time            `bson:"created_at" json:"createdAt"`
	Edited     bool                 `bson:"edited,omitempty" json:"isEdited,omitempty"`
}

// VisibleTo reports whether the post may be shown to the given viewer.
// Public posts are visible to everyone; Members posts only to the author or
// to viewers whose current affiliation equals the captured target club.
func (p ClubPost) VisibleTo(viewerID primitive.ObjectID, viewerAffiliation string) bool {
	if p.Audience != AudienceMembers {
		return true
	}
	if p.AuthorID == viewerID {
		return true
	}
	return viewerAffiliation != "" && viewerAffiliation == p.TargetClub
}
