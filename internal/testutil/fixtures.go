package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/necros240/campusfeedback/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser creates a test user with the given role and affiliation.
func (f *Fixtures) CreateUser(ctx context.Context, name, email, role, affiliation string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	if affiliation == "" {
		affiliation = models.NoAffiliation
	}
	user := models.User{
		ID:          primitive.NewObjectID(),
		Email:       email,
		EmailCI:     text.Fold(email),
		DisplayName: name,
		Role:        role,
		Affiliation: affiliation,
		AuthMethod:  models.AuthPassword,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateStudent creates a test user with the student role.
func (f *Fixtures) CreateStudent(ctx context.Context, name, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, name, email, models.RoleStudent, "")
}

// CreateClub inserts a club into the catalogue.
func (f *Fixtures) CreateClub(ctx context.Context, name string) models.Club {
	f.t.Helper()

	club := models.Club{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		CreatedAt: time.Now().UTC(),
	}
	if _, err := f.db.Collection("clubs").InsertOne(ctx, club); err != nil {
		f.t.Fatalf("failed to create test club: %v", err)
	}
	return club
}

// CreateFeedback inserts a feedback item authored by the given user.
func (f *Fixtures) CreateFeedback(ctx context.Context, author models.User, category, content string, anonymous bool) models.Feedback {
	f.t.Helper()

	fb := models.Feedback{
		ID:                primitive.NewObjectID(),
		Category:          category,
		Content:           content,
		Status:            models.StatusNew,
		AuthorID:          author.ID,
		AuthorName:        author.Name(),
		AuthorAffiliation: author.Affiliation,
		Anonymous:         anonymous,
		Likes:             []primitive.ObjectID{},
		Comments:          []models.Comment{},
		CreatedAt:         time.Now().UTC(),
	}
	if _, err := f.db.Collection("feedback").InsertOne(ctx, fb); err != nil {
		f.t.Fatalf("failed to create test feedback: %v", err)
	}
	return fb
}

// CreateClubPost inserts an event post from the given author.
func (f *Fixtures) CreateClubPost(ctx context.Context, author models.User, title, audience, targetClub string) models.ClubPost {
	f.t.Helper()

	post := models.ClubPost{
		ID:         primitive.NewObjectID(),
		Title:      title,
		Type:       models.PostTypeEvent,
		Content:    "Test event details",
		Audience:   audience,
		TargetClub: targetClub,
		AuthorID:   author.ID,
		Likes:      []primitive.ObjectID{},
		Comments:   []models.Comment{},
		CreatedAt:  time.Now().UTC(),
	}
	if _, err := f.db.Collection("club_posts").InsertOne(ctx, post); err != nil {
		f.t.Fatalf("failed to create test club post: %v", err)
	}
	return post
}

// CreatePoll inserts a poll post with the given option texts.
func (f *Fixtures) CreatePoll(ctx context.Context, author models.User, title string, options ...string) models.ClubPost {
	f.t.Helper()

	opts := make([]models.PollOption, len(options))
	for i, text := range options {
		opts[i] = models.PollOption{Text: text, Votes: []primitive.ObjectID{}}
	}
	post := models.ClubPost{
		ID:         primitive.NewObjectID(),
		Title:      title,
		Type:       models.PostTypePoll,
		Content:    models.PostTypePoll,
		Audience:   models.AudiencePublic,
		TargetClub: models.AudiencePublic,
		AuthorID:   author.ID,
		Options:    opts,
		Likes:      []primitive.ObjectID{},
		Comments:   []models.Comment{},
		CreatedAt:  time.Now().UTC(),
	}
	if _, err := f.db.Collection("club_posts").InsertOne(ctx, post); err != nil {
		f.t.Fatalf("failed to create test poll: %v", err)
	}
	return post
}

// CreateComment returns a ready comment value for embedding in fixtures.
func (f *Fixtures) CreateComment(author models.User, text string) models.Comment {
	f.t.Helper()
	return models.Comment{
		ID:         uuid.NewString(),
		Text:       text,
		AuthorID:   author.ID,
		AuthorName: author.Name(),
		CreatedAt:  time.Now().UTC(),
	}
}
