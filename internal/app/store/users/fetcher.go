// internal/app/store/users/fetcher.go
package userstore

import (
	"context"

	"github.com/necros240/campusfeedback/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Fetcher loads fresh session-user state on every request so role and
// affiliation changes take effect immediately.
type Fetcher struct {
	store *Store
}

// NewFetcher creates a Fetcher for auth.SetUserFetcher.
func NewFetcher(db *mongo.Database) *Fetcher {
	return &Fetcher{store: New(db)}
}

// FetchSessionUser implements auth.UserFetcher. A missing user document
// returns (nil, nil): the request proceeds as least-privileged.
func (f *Fetcher) FetchSessionUser(ctx context.Context, id string) (*auth.SessionUser, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	user, err := f.store.GetByID(ctx, oid)
	if err == ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &auth.SessionUser{
		ID:          user.ID.Hex(),
		Name:        user.Name(),
		Email:       user.Email,
		Role:        user.Role,
		Affiliation: user.Affiliation,
	}, nil
}
