// internal/app/store/feedback/feedbackstore.go
package feedbackstore

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/necros240/campusfeedback/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store wraps the feedback collection.
type Store struct {
	c *mongo.Collection
}

var (
	ErrNotFound  = errors.New("feedback not found")
	ErrNotAuthor = errors.New("only the author may edit")
	ErrNoComment = errors.New("comment not found")
)

// New creates a Store bound to db.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("feedback")}
}

// Create inserts a new submission. Status, response, and the interaction
// sets start in their documented zero states.
func (s *Store) Create(ctx context.Context, fb models.Feedback) (models.Feedback, error) {
	fb.ID = primitive.NewObjectID()
	fb.Status = models.StatusNew
	fb.Response = ""
	fb.Likes = []primitive.ObjectID{}
	fb.Comments = []models.Comment{}
	fb.CreatedAt = time.Now().UTC()
	_, err := s.c.InsertOne(ctx, fb)
	if err != nil {
		return models.Feedback{}, err
	}
	return fb, nil
}

// GetByID loads one feedback document.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Feedback, error) {
	var fb models.Feedback
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&fb)
	if err == mongo.ErrNoDocuments {
		return models.Feedback{}, ErrNotFound
	}
	if err != nil {
		return models.Feedback{}, err
	}
	return fb, nil
}

// List returns all feedback, newest first. Search filtering and the
// pinned-first sort live in the feed feature, mirroring the page they serve.
func (s *Store) List(ctx context.Context) ([]models.Feedback, error) {
	return s.find(ctx, bson.M{})
}

// ListByAuthor returns the author's own feedback, newest first.
func (s *Store) ListByAuthor(ctx context.Context, authorID primitive.ObjectID) ([]models.Feedback, error) {
	return s.find(ctx, bson.M{"author_id": authorID})
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.Feedback, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var items []models.Feedback
	if err := cur.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Like adds the user to the likes set. $addToSet makes repeats a no-op.
func (s *Store) Like(ctx context.Context, id, userID primitive.ObjectID) error {
	return s.setAdd(ctx, id, "likes", userID)
}

// Report adds the user to the reports set. Reports are never removed by this
// application.
func (s *Store) Report(ctx context.Context, id, userID primitive.ObjectID) error {
	return s.setAdd(ctx, id, "reports", userID)
}

func (s *Store) setAdd(ctx context.Context, id primitive.ObjectID, field string, userID primitive.ObjectID) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$addToSet": bson.M{field: userID}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetPinned toggles the pinned flag.
func (s *Store) SetPinned(ctx context.Context, id primitive.ObjectID, pinned bool) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{"pinned": pinned}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateContent rewrites the content and marks the document edited. The
// author check happens in the filter so a non-author update matches nothing.
func (s *Store) UpdateContent(ctx context.Context, id, authorID primitive.ObjectID, content string) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "author_id": authorID},
		bson.M{"$set": bson.M{"content": content, "edited": true}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotAuthor
	}
	return nil
}

// Resolve sets the status to Resolved and records the response text.
func (s *Store) Resolve(ctx context.Context, id primitive.ObjectID, response string) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"status":   models.StatusResolved,
		"response": response,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete permanently removes a feedback document.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// AddComment appends a comment with a fresh uuid so it stays individually
// addressable for later edits.
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

// EditComment rewrites one comment's text in place, addressed by comment id
// and author via arrayFilters. Concurrent edits of different comments on the
// same document cannot drop each other.
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

// CountByStatus returns the number of documents with the given status.
func (s *Store) CountByStatus(ctx context.Context, status string) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"status": status})
}
