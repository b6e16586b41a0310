// internal/app/store/users/userstore.go
package userstore

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

// Store wraps the users collection.
type Store struct {
	c *mongo.Collection
}

var (
	ErrDuplicateEmail = errors.New("an account with this email already exists")
	ErrNotFound       = errors.New("user not found")
)

// New creates a Store bound to db.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// Create inserts a new user. Email is normalized into EmailCI for the unique
// index; Role and Affiliation default to student/"None" when unset.
func (s *Store) Create(ctx context.Context, user models.User) (models.User, error) {
	now := time.Now().UTC()
	user.ID = primitive.NewObjectID()
	user.EmailCI = text.Fold(user.Email)
	if user.Role == "" {
		user.Role = models.RoleStudent
	}
	if user.Affiliation == "" {
		user.Affiliation = models.NoAffiliation
	}
	user.CreatedAt = now
	user.UpdatedAt = now
	_, err := s.c.InsertOne(ctx, user)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return user, nil
}

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	var user models.User
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

// GetByEmailCI loads a user by case/diacritic-insensitive email.
func (s *Store) GetByEmailCI(ctx context.Context, email string) (models.User, error) {
	var user models.User
	err := s.c.FindOne(ctx, bson.M{"email_ci": text.Fold(email)}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

// List returns all users sorted by email. The user base of a single campus
// fits in one page; pagination is a non-goal.
func (s *Store) List(ctx context.Context) ([]models.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "email_ci", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// UpdateRole sets a user's role.
func (s *Store) UpdateRole(ctx context.Context, id primitive.ObjectID, role string) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"role":       role,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateProfile sets the user's display name and affiliation. The chosen
// affiliation is not checked against the club catalogue; the catalogue may
// have changed since the caller loaded it.
func (s *Store) UpdateProfile(ctx context.Context, id primitive.ObjectID, displayName, affiliation string) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"display_name": displayName,
		"affiliation":  affiliation,
		"updated_at":   time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// CountByAffiliation returns how many users currently reference the given
// club name. Used to surface, not fix, the orphaned-affiliation gap when a
// club is deleted.
func (s *Store) CountByAffiliation(ctx context.Context, clubName string) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"affiliation": clubName})
}
