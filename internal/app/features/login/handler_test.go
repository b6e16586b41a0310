package login_test

import (
	"net/http"
	"testing"

	"github.com/necros240/campusfeedback/internal/app/features/login"
	"github.com/necros240/campusfeedback/internal/app/store/audit"
	"github.com/necros240/campusfeedback/internal/app/system/auditlog"
	"github.com/necros240/campusfeedback/internal/app/system/auth"
	"github.com/necros240/campusfeedback/internal/app/system/respond"
	"github.com/necros240/campusfeedback/internal/domain/models"
	"github.com/necros240/campusfeedback/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T, db *mongo.Database) *login.Handler {
	t.Helper()
	logger := zap.NewNop()
	if err := auth.InitSessionStore("test-session-key-0123456789abcdef", "test-session", "", false, logger); err != nil {
		t.Fatalf("init session store: %v", err)
	}
	auditLog := auditlog.New(audit.New(db), logger, auditlog.Config{})
	return login.NewHandler(db, respond.NewErrorLogger(logger), auditLog, logger)
}

func TestRegister(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.EnsureUserIndexes(t, db)
	router := login.Routes(newTestHandler(t, db))

	req := testutil.NewJSONRequest(t, http.MethodPost, "/register", map[string]string{
		"email":    "new@campus.edu",
		"password": "hunter2hunter2",
		"name":     "New Student",
	})
	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, req)
	rec.AssertStatus(t, http.StatusCreated)

	var session struct {
		Role        string `json:"role"`
		Affiliation string `json:"affiliation"`
	}
	rec.DecodeJSON(t, &session)
	if session.Role != models.RoleStudent {
		t.Errorf("role = %q, want student", session.Role)
	}
	if session.Affiliation != models.NoAffiliation {
		t.Errorf("affiliation = %q, want %q", session.Affiliation, models.NoAffiliation)
	}
	if len(rec.Result().Cookies()) == 0 {
		t.Error("no session cookie set")
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.EnsureUserIndexes(t, db)
	router := login.Routes(newTestHandler(t, db))

	payload := map[string]string{
		"email":    "taken@campus.edu",
		"password": "hunter2hunter2",
		"name":     "First",
	}
	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewJSONRequest(t, http.MethodPost, "/register", payload))
	rec.AssertStatus(t, http.StatusCreated)

	// Same address with different case still collides.
	payload["email"] = "TAKEN@campus.edu"
	payload["name"] = "Second"
	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewJSONRequest(t, http.MethodPost, "/register", payload))
	rec.AssertStatus(t, http.StatusConflict)
}

func TestRegister_WeakPassword(t *testing.T) {
	db := testutil.SetupTestDB(t)
	router := login.Routes(newTestHandler(t, db))

	req := testutil.NewJSONRequest(t, http.MethodPost, "/register", map[string]string{
		"email":    "weak@campus.edu",
		"password": "short",
		"name":     "Weak",
	})
	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, req)
	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestLogin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.EnsureUserIndexes(t, db)
	router := login.Routes(newTestHandler(t, db))

	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewJSONRequest(t, http.MethodPost, "/register", map[string]string{
		"email":    "jane@campus.edu",
		"password": "correct-horse-battery",
		"name":     "Jane",
	}))
	rec.AssertStatus(t, http.StatusCreated)

	// The stored email is case folded for lookup.
	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewJSONRequest(t, http.MethodPost, "/", map[string]string{
		"email":    "Jane@Campus.edu",
		"password": "correct-horse-battery",
	}))
	rec.AssertStatus(t, http.StatusOK)
}

func TestLogin_UnknownEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	router := login.Routes(newTestHandler(t, db))

	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewJSONRequest(t, http.MethodPost, "/", map[string]string{
		"email":    "nobody@campus.edu",
		"password": "whatever-it-takes",
	}))
	rec.AssertStatus(t, http.StatusUnauthorized)
	rec.AssertContains(t, "No account found for that email.")
}

func TestLogin_WrongPassword(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.EnsureUserIndexes(t, db)
	router := login.Routes(newTestHandler(t, db))

	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewJSONRequest(t, http.MethodPost, "/register", map[string]string{
		"email":    "jane@campus.edu",
		"password": "correct-horse-battery",
		"name":     "Jane",
	}))
	rec.AssertStatus(t, http.StatusCreated)

	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewJSONRequest(t, http.MethodPost, "/", map[string]string{
		"email":    "jane@campus.edu",
		"password": "wrong-horse-battery",
	}))
	rec.AssertStatus(t, http.StatusUnauthorized)
	rec.AssertContains(t, "Incorrect email or password.")
}

func TestServeSession(t *testing.T) {
	db := testutil.SetupTestDB(t)
	router := login.Routes(newTestHandler(t, db))

	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/session", testutil.StudentUser()))
	rec.AssertStatus(t, http.StatusOK)

	rec = testutil.NewRecorder()
	router.ServeHTTP(rec, newRequestNoUser(t))
	rec.AssertStatus(t, http.StatusUnauthorized)
}

func newRequestNoUser(t *testing.T) *http.Request {
	t.Helper()
	return testutil.NewJSONRequest(t, http.MethodGet, "/session", nil)
}
