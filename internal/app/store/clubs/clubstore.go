// internal/app/store/clubs/clubstore.go
package clubstore

import (
	"context"
	"errors"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/necros240/campusfeedback/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store wraps the clubs collection.
type Store struct {
	c *mongo.Collection
}

var ErrDuplicateClub = errors.New("a club with this name already exists")

// New creates a Store bound to db.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("clubs")}
}

// Create inserts a new catalogue entry. The unique name_ci index rejects
// duplicates regardless of case.
func (s *Store) Create(ctx context.Context, name string) (models.Club, error) {
	club := models.Club{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.c.InsertOne(ctx, club)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return models.Club{}, ErrDuplicateClub
		}
		return models.Club{}, err
	}
	return club, nil
}

// GetByID loads one club.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Club, error) {
	var club models.Club
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&club)
	if err != nil {
		return models.Club{}, err
	}
	return club, nil
}

// List returns the catalogue alphabetically.
func (s *Store) List(ctx context.Context) ([]models.Club, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var clubs []models.Club
	if err := cur.All(ctx, &clubs); err != nil {
		return nil, err
	}
	return clubs, nil
}

// Delete removes a club by ID. Users whose affiliation references the club
// are left untouched; callers surface that gap to operators.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
