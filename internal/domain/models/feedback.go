// internal/domain/models/feedback.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Feedback categories.
const (
	CategoryFacilities = "Facilities"
	CategoryAcademics  = "Academics"
	CategoryCafeteria  = "Cafeteria"
	CategorySecurity   = "Security"
	CategoryClubs      = "Clubs"
)

// Feedback statuses.
const (
	StatusNew      = "New"
	StatusResolved = "Resolved"
)

// Categories lists the valid feedback categories in display order.
var Categories = []string{
	CategoryFacilities,
	CategoryAcademics,
	CategoryCafeteria,
	CategorySecurity,
	CategoryClubs,
}

// Comment is embedded in Feedback and ClubPost documents. Each comment
// carries its own id so edits address a single element instead of rewriting
// the whole list.
type Comment struct {
	ID         string             `bson:"id" json:"id"`
	Text       string             `bson:"text" json:"text"`
	AuthorID   primitive.ObjectID `bson:"author_id" json:"authorId"`
	AuthorName string             `bson:"author_name" json:"author"`
	CreatedAt  time.Time          `bson:"created_at" json:"createdAt"`
	Edited     bool               `bson:"edited,omitempty" json:"isEdited,omitempty"`
}

// Feedback is a student submission. AuthorName and AuthorAffiliation are
// snapshots taken at submit time; they are not re-derived when the profile
// later changes. Likes and Reports are sets of user ids: a report, once
// added, is never removed by this application.
type Feedback struct {
	ID                primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Category          string               `bson:"category" json:"category"`
	Content           string               `bson:"content" json:"content"`
	Status            string               `bson:"status" json:"status"`
	AuthorID          primitive.ObjectID   `bson:"author_id" json:"authorId"`
	AuthorName        string               `bson:"author_name" json:"authorName"`
	AuthorAffiliation string               `bson:"author_affiliation" json:"authorAffiliation"`
	Anonymous         bool                 `bson:"anonymous" json:"isAnonymous"`
	Response          string               `bson:"response" json:"response"`
	Pinned            bool                 `bson:"pinned,omitempty" json:"isPinned,omitempty"`
	Likes             []primitive.ObjectID `bson:"likes" json:"likes"`
	Reports           []primitive.ObjectID `bson:"reports,omitempty" json:"reports,omitempty"`
	Comments          []Comment            `bson:"comments" json:"comments"`
	CreatedAt         time.Time            `bson:"created_at" json:"createdAt"`
	Edited            bool                 `bson:"edited,omitempty" json:"isEdited,omitempty"`
}

// ValidCategory reports whether c is one of the defined feedback categories.
func ValidCategory(c string) bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}
