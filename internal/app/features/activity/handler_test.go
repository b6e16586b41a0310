package activity_test

import (
	"net/http"
	"testing"

	"github.com/necros240/campusfeedback/internal/app/features/activity"
	feedbackstore "github.com/necros240/campusfeedback/internal/app/store/feedback"
	"github.com/necros240/campusfeedback/internal/app/system/respond"
	"github.com/necros240/campusfeedback/internal/domain/models"
	"github.com/necros240/campusfeedback/internal/testutil"
	"go.uber.org/zap"
)

func TestServeActivity(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)

	logger := zap.NewNop()
	router := activity.Routes(activity.NewHandler(db, respond.NewErrorLogger(logger), logger))

	me := fx.CreateStudent(ctx, "Me", "me@campus.edu")
	other := fx.CreateStudent(ctx, "Other", "other@campus.edu")

	answered := fx.CreateFeedback(ctx, me, models.CategoryFacilities, "answered", false)
	fx.CreateFeedback(ctx, me, models.CategoryFacilities, "pending", false)
	fx.CreateFeedback(ctx, other, models.CategoryFacilities, "not mine", false)
	if err := feedbackstore.New(db).Resolve(ctx, answered.ID, "Fixed."); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/", testutil.FromModel(me))
	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	var body struct {
		Responded []models.Feedback `json:"responded"`
		All       []models.Feedback `json:"all"`
	}
	rec.DecodeJSON(t, &body)
	if len(body.All) != 2 {
		t.Errorf("all = %d items, want 2", len(body.All))
	}
	if len(body.Responded) != 1 || body.Responded[0].Content != "answered" {
		t.Errorf("responded = %d items", len(body.Responded))
	}
}

func TestServeActivity_RequiresSignIn(t *testing.T) {
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	router := activity.Routes(activity.NewHandler(db, respond.NewErrorLogger(logger), logger))

	req := testutil.NewJSONRequest(t, http.MethodGet, "/", nil)
	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, req)
	rec.AssertStatus(t, http.StatusUnauthorized)
}
