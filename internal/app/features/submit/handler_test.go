package submit_test

import (
	"net/http"
	"testing"

	"github.com/necros240/campusfeedback/internal/app/features/submit"
	"github.com/necros240/campusfeedback/internal/app/system/realtime"
	"github.com/necros240/campusfeedback/internal/app/system/respond"
	"github.com/necros240/campusfeedback/internal/domain/models"
	"github.com/necros240/campusfeedback/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T, db *mongo.Database) *submit.Handler {
	t.Helper()
	logger := zap.NewNop()
	return submit.NewHandler(db, realtime.NewBroker(), respond.NewErrorLogger(logger), logger)
}

func TestSubmit(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)
	router := submit.Routes(newTestHandler(t, db))

	author := fx.CreateUser(ctx, "Jane Doe", "jane@campus.edu", models.RoleStudent, "Robotics")

	req := testutil.NewJSONRequest(t, http.MethodPost, "/", map[string]any{
		"category":    models.CategoryFacilities,
		"content":     "The library heating is broken again.",
		"isAnonymous": true,
	})
	req = testutil.WithUser(req, testutil.FromModel(author))
	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, req)
	rec.AssertStatus(t, http.StatusCreated)

	var fb models.Feedback
	rec.DecodeJSON(t, &fb)
	if fb.Category != models.CategoryFacilities || fb.Content != "The library heating is broken again." {
		t.Errorf("stored fields: %+v", fb)
	}
	if fb.Status != models.StatusNew {
		t.Errorf("status = %q, want New", fb.Status)
	}
	if !fb.Anonymous {
		t.Error("anonymous flag dropped")
	}
	// The author's name and affiliation are copied onto the document.
	if fb.AuthorName != "Jane Doe" || fb.AuthorAffiliation != "Robotics" {
		t.Errorf("author snapshot: name=%q affiliation=%q", fb.AuthorName, fb.AuthorAffiliation)
	}
}

func TestSubmit_UnknownCategory(t *testing.T) {
	db := testutil.SetupTestDB(t)
	router := submit.Routes(newTestHandler(t, db))

	req := testutil.NewJSONRequest(t, http.MethodPost, "/", map[string]any{
		"category": "Parking",
		"content":  "Not a real category.",
	})
	req = testutil.WithUser(req, testutil.StudentUser())
	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, req)
	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertContains(t, "Unknown category.")
}

func TestSubmit_SanitizesMarkup(t *testing.T) {
	db := testutil.SetupTestDB(t)
	router := submit.Routes(newTestHandler(t, db))

	req := testutil.NewJSONRequest(t, http.MethodPost, "/", map[string]any{
		"category": models.CategoryAcademics,
		"content":  `<script>alert("x")</script>Grading is slow.`,
	})
	req = testutil.WithUser(req, testutil.StudentUser())
	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, req)
	rec.AssertStatus(t, http.StatusCreated)

	var fb models.Feedback
	rec.DecodeJSON(t, &fb)
	if fb.Content != "Grading is slow." {
		t.Errorf("content after sanitizing = %q", fb.Content)
	}
}

func TestSubmit_RequiresSignIn(t *testing.T) {
	db := testutil.SetupTestDB(t)
	router := submit.Routes(newTestHandler(t, db))

	req := testutil.NewJSONRequest(t, http.MethodPost, "/", map[string]any{
		"category": models.CategoryAcademics,
		"content":  "anonymous drive-by",
	})
	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, req)
	rec.AssertStatus(t, http.StatusUnauthorized)
}

func TestServeCategories(t *testing.T) {
	db := testutil.SetupTestDB(t)
	router := submit.Routes(newTestHandler(t, db))

	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/categories", testutil.StudentUser())
	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	var body struct {
		Categories []string `json:"categories"`
	}
	rec.DecodeJSON(t, &body)
	if len(body.Categories) != len(models.Categories) {
		t.Errorf("categories = %d, want %d", len(body.Categories), len(models.Categories))
	}
}
