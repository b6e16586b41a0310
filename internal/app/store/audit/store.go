// internal/app/store/audit/store.go
package audit

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Event categories.
const (
	CategoryAuth  = "auth"
	CategoryAdmin = "admin"
)

// Auth event types.
const (
	EventLoginSuccess             = "login_success"
	EventLoginFailedUserNotFound  = "login_failed_user_not_found"
	EventLoginFailedWrongPassword = "login_failed_wrong_password"
	EventRegisterSuccess          = "register_success"
	EventRegisterDuplicate        = "register_failed_duplicate"
	EventGoogleLoginSuccess       = "google_login_success"
	EventGoogleFirstLogin         = "google_first_login"
	EventLogout                   = "logout"
)

// Admin event types.
const (
	EventFeedbackResolved = "feedback_resolved"
	EventFeedbackDeleted  = "feedback_deleted"
	EventFeedbackPinned   = "feedback_pinned"
	EventFeedbackUnpinned = "feedback_unpinned"
	EventClubCreated      = "club_created"
	EventClubDeleted      = "club_deleted"
	EventRoleChanged      = "role_changed"
)

// Event represents an audit event.
type Event struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Timestamp time.Time          `bson:"timestamp"`

	// Event classification
	Category  string `bson:"category"`
	EventType string `bson:"event_type"`

	// Who
	UserID  *primitive.ObjectID `bson:"user_id,omitempty"`  // affected user
	ActorID *primitive.ObjectID `bson:"actor_id,omitempty"` // who performed the action

	// What
	TargetID *primitive.ObjectID `bson:"target_id,omitempty"` // affected document
	Details  map[string]string   `bson:"details,omitempty"`

	// Outcome
	Success       bool   `bson:"success"`
	FailureReason string `bson:"failure_reason,omitempty"`
	IP            string `bson:"ip,omitempty"`
}

// Store persists audit events to the audit_log collection.
type Store struct {
	c *mongo.Collection
}

// New creates an audit Store bound to db.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("audit_log")}
}

// Log inserts the event, stamping Timestamp if unset.
func (s *Store) Log(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	event.ID = primitive.NewObjectID()
	_, err := s.c.InsertOne(ctx, event)
	return err
}

// Recent returns the most recent events, newest first.
func (s *Store) Recent(ctx context.Context, limit int64) ([]Event, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit)
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var events []Event
	if err := cur.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}
