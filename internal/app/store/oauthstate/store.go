// internal/app/store/oauthstate/store.go
package oauthstate

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// state documents are single-use and expire via a TTL index on expires_at
// (created in bootstrap.EnsureSchema).
type state struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	State     string             `bson:"state"`
	ReturnURL string             `bson:"return_url,omitempty"`
	ExpiresAt time.Time          `bson:"expires_at"`
}

// Store persists OAuth state tokens between the redirect to Google and the
// callback.
type Store struct {
	c *mongo.Collection
}

// New creates a Store bound to db.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("oauth_states")}
}

// Save records a state token with its expiry and optional return URL.
func (s *Store) Save(ctx context.Context, stateToken, returnURL string, expiresAt time.Time) error {
	_, err := s.c.InsertOne(ctx, state{
		State:     stateToken,
		ReturnURL: returnURL,
		ExpiresAt: expiresAt,
	})
	return err
}

// Validate consumes a state token. It returns the stored return URL and
// whether the token existed and had not expired. The token is deleted either
// way, so it cannot be replayed.
func (s *Store) Validate(ctx context.Context, stateToken string) (returnURL string, valid bool, err error) {
	var doc state
	findErr := s.c.FindOneAndDelete(ctx, bson.M{"state": stateToken}).Decode(&doc)
	if findErr == mongo.ErrNoDocuments {
		return "", false, nil
	}
	if findErr != nil {
		return "", false, findErr
	}
	if time.Now().UTC().After(doc.ExpiresAt) {
		return "", false, nil
	}
	return doc.ReturnURL, true, nil
}
