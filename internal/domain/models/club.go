// internal/domain/models/club.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Club is a catalogue entry users pick as their affiliation and the partition
// key for Members-only club posts. User.Affiliation references the club by
// name; deleting a club does not update users that still point at it.
type Club struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`
	NameCI    string             `bson:"name_ci" json:"-"` // lowercase, diacritics-stripped
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
}
