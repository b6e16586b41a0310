package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/necros240/campusfeedback/internal/app/system/auth"
	"github.com/necros240/campusfeedback/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TestUser represents user data for testing HTTP handlers.
type TestUser struct {
	ID          string
	Name        string
	Email       string
	Role        string
	Affiliation string
}

// StudentUser returns a TestUser with the student role.
func StudentUser() TestUser {
	return TestUser{
		ID:          primitive.NewObjectID().Hex(),
		Name:        "Test Student",
		Email:       "student@test.edu",
		Role:        models.RoleStudent,
		Affiliation: models.NoAffiliation,
	}
}

// ClubUser returns a TestUser with the club role and the given affiliation.
func ClubUser(affiliation string) TestUser {
	return TestUser{
		ID:          primitive.NewObjectID().Hex(),
		Name:        "Test Club Account",
		Email:       "club@test.edu",
		Role:        models.RoleClub,
		Affiliation: affiliation,
	}
}

// AdminUser returns a TestUser with the admin role.
func AdminUser() TestUser {
	return TestUser{
		ID:          primitive.NewObjectID().Hex(),
		Name:        "Test Admin",
		Email:       "admin@test.edu",
		Role:        models.RoleAdmin,
		Affiliation: models.NoAffiliation,
	}
}

// MasterUser returns a TestUser with the master role.
func MasterUser() TestUser {
	return TestUser{
		ID:          primitive.NewObjectID().Hex(),
		Name:        "Test Master",
		Email:       "master@test.edu",
		Role:        models.RoleMaster,
		Affiliation: models.NoAffiliation,
	}
}

// FromModel builds a TestUser from a fixture user so handler tests can act as
// a user that exists in the test database.
func FromModel(u models.User) TestUser {
	return TestUser{
		ID:          u.ID.Hex(),
		Name:        u.Name(),
		Email:       u.Email,
		Role:        u.Role,
		Affiliation: u.Affiliation,
	}
}

// WithUser adds a user to the request context for testing authenticated
// handlers, bypassing the session middleware.
func WithUser(r *http.Request, user TestUser) *http.Request {
	sessionUser := &auth.SessionUser{
		ID:          user.ID,
		Name:        user.Name,
		Email:       user.Email,
		Role:        user.Role,
		Affiliation: user.Affiliation,
	}
	return auth.WithTestUser(r, sessionUser)
}

// NewAuthenticatedRequest creates an HTTP request with a user in context.
func NewAuthenticatedRequest(method, target string, user TestUser) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	return WithUser(req, user)
}

// NewJSONRequest creates a request carrying body marshaled as JSON.
func NewJSONRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	buf, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request body: %v", err)
	}
	req := httptest.NewRequest(method, target, bytes.NewReader(buf))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// ResponseRecorder wraps httptest.ResponseRecorder with helper methods.
type ResponseRecorder struct {
	*httptest.ResponseRecorder
}

// NewRecorder creates a new ResponseRecorder.
func NewRecorder() *ResponseRecorder {
	return &ResponseRecorder{httptest.NewRecorder()}
}

// AssertStatus checks the response status code.
func (r *ResponseRecorder) AssertStatus(t interface{ Errorf(string, ...any) }, expected int) {
	if r.Code != expected {
		t.Errorf("status code: got %d, want %d", r.Code, expected)
	}
}

// AssertContains checks if the response body contains the expected string.
func (r *ResponseRecorder) AssertContains(t interface{ Errorf(string, ...any) }, expected string) {
	if !strings.Contains(r.Body.String(), expected) {
		t.Errorf("response body does not contain %q", expected)
	}
}

// DecodeJSON unmarshals the response body into v.
func (r *ResponseRecorder) DecodeJSON(t *testing.T, v any) {
	t.Helper()
	if err := json.Unmarshal(r.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response body: %v\nbody: %s", err, r.Body.String())
	}
}
