// internal/app/store/clubposts/clubpoststore.go
package clubpoststore

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/necros240/campusfeedback/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store wraps the club_posts collection.
type Store struct {
	c *mongo.Collection
}

var (
	ErrNotFound   = errors.New("club post not found")
	ErrNotAuthor  = errors.New("only the author may edit")
	ErrNoComment  = errors.New("comment not found")
	ErrBadOption  = errors.New("poll option out of range")
	ErrNotAPoll   = errors.New("post is not a poll")
	ErrFewOptions = errors.New("polls need at least 2 options")
)

// New creates a Store bound to db.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("club_posts")}
}

// Create inserts a new post. Polls must carry at least two options; each
// option starts with an empty vote set. Event posts keep their body in
// Content, polls store the literal "Poll".
func (s *Store) Create(ctx context.Context, post models.ClubPost) (models.ClubPost, error) {
	if post.Type == models.PostTypePoll {
		if len(post.Options) < 2 {
			return models.ClubPost{}, ErrFewOptions
		}
		for i := range post.Options {
			post.Options[i].Votes = []primitive.ObjectID{}
		}
		post.Content = models.PostTypePoll
	}
	post.ID = primitive.NewObjectID()
	post.Likes = []primitive.ObjectID{}
	post.Comments = []models.Comment{}
	post.CreatedAt = time.Now().UTC()
	_, err := s.c.InsertOne(ctx, post)
	if err != nil {
		return models.ClubPost{}, err
	}
	return post, nil
}

// GetByID loads one post.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.ClubPost, error) {
	var post models.ClubPost
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&post)
	if err == mongo.ErrNoDocuments {
		return models.ClubPost{}, ErrNotFound
	}
	if err != nil {
		return models.ClubPost{}, err
	}
	return post, nil
}

// List returns all posts, newest first. Audience filtering is per-viewer and
// happens in the clubs feature.
func (s *Store) List(ctx context.Context) ([]models.ClubPost, error) {
	return s.find(ctx, 0)
}

// ListRecent returns the n newest posts for the home-page teaser.
func (s *Store) ListRecent(ctx context.Context, n int64) ([]models.ClubPost, error) {
	return s.find(ctx, n)
}

func (s *Store) find(ctx context.Context, limit int64) ([]models.ClubPost, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var posts []models.ClubPost
	if err := cur.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// Vote re-casts the user's vote: the voter is pulled from every option's set
// and added to the chosen one in a single document update, so single-document
// atomicity keeps each voter in at most one option.
func (s *Store) Vote(ctx context.Context, id primitive.ObjectID, option int, voter primitive.ObjectID) error {
	post, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if post.Type != models.PostTypePoll {
		return ErrNotAPoll
	}
	if option < 0 || option >= len(post.Options) {
		return ErrBadOption
	}

	// $pull and $addToSet cannot both touch the chosen option's set in one
	// command, so re-cast in two updates: remove everywhere, then add. Either
	// order leaves the voter in at most one option.
	if _, err := s.c.UpdateByID(ctx, id, bson.M{"$pull": bson.M{"options.$[].votes": voter}}); err != nil {
		return err
	}
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$addToSet": bson.M{
		"options." + strconv.Itoa(option) + ".votes": voter,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Like adds the user to the likes set, idempotently.
func (s *Store) Like(ctx context.Context, id, userID primitive.ObjectID) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$addToSet": bson.M{"likes": userID}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateContent edits the title (and, for events, the body) and marks the
// post edited. Author-only, enforced by the filter.
func (s *Store) UpdateContent(ctx context.Context, id, authorID primitive.ObjectID, title, content string) error {
	set := bson.M{"title": title, "edited": true}
	if content != "" {
		set["content"] = content
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "author_id": authorID},
		bson.M{"$set": set},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotAuthor
	}
	return nil
}

// AddComment appends a comment with a fresh uuid.
func (s *Store) AddComment(ctx context.Context, id primitive.ObjectID, c models.Comment) (models.Comment, error) {
	c.ID = uuid.NewString()
	c.CreatedAt = time.Now().UTC()
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$push": bson.M{"comments": c}})
	if err != nil {
		return models.Comment{}, err
	}
	if res.MatchedCount == 0 {
		return models.Comment{}, ErrNotFound
	}
	return c, nil
}

// EditComment rewrites one comment in place via arrayFilters, author-only.
func (s *Store) EditComment(ctx context.Context, id primitive.ObjectID, commentID string, authorID primitive.ObjectID, text string) error {
	opts := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{bson.M{"elem.id": commentID, "elem.author_id": authorID}},
	})
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"comments.$[elem].text":   text,
		"comments.$[elem].edited": true,
	}}, opts)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	if res.ModifiedCount == 0 {
		// Zero modifications is either a comment this author does not own
		// or a resubmission of identical text. Only the former is an error.
		return s.checkCommentExists(ctx, id, commentID, authorID)
	}
	return nil
}

func (s *Store) checkCommentExists(ctx context.Context, id primitive.ObjectID, commentID string, authorID primitive.ObjectID) error {
	n, err := s.c.CountDocuments(ctx, bson.M{
		"_id":      id,
		"comments": bson.M{"$elemMatch": bson.M{"id": commentID, "author_id": authorID}},
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNoComment
	}
	return nil
}
