package authz_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/necros240/campusfeedback/internal/app/system/auth"
	"github.com/necros240/campusfeedback/internal/app/system/authz"
	"github.com/necros240/campusfeedback/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCan_Table(t *testing.T) {
	cases := []struct {
		role   string
		action authz.Action
		want   bool
	}{
		{models.RoleStudent, authz.ActionSubmitFeedback, true},
		{models.RoleClub, authz.ActionSubmitFeedback, true},
		{models.RoleStudent, authz.ActionModerateFeedback, false},
		{models.RoleStudent, authz.ActionCreateClubPost, false},
		{models.RoleClub, authz.ActionCreateClubPost, true},
		{models.RoleFaculty, authz.ActionModerateFeedback, true},
		{models.RoleFaculty, authz.ActionDeleteFeedback, true},
		{models.RoleFaculty, authz.ActionManageRoles, false},
		{models.RoleAdmin, authz.ActionModerateFeedback, true},
		{models.RoleAdmin, authz.ActionManageClubs, true},
		{models.RoleAdmin, authz.ActionManageRoles, false},
		{models.RoleAdmin, authz.ActionViewUsers, false},
		{models.RoleMaster, authz.ActionManageRoles, true},
		{models.RoleMaster, authz.ActionViewUsers, true},
		{models.RoleMaster, authz.ActionCreateClubPost, true},
		{"visitor", authz.ActionSubmitFeedback, false},
		{"", authz.ActionModerateFeedback, false},
	}
	for _, c := range cases {
		if got := authz.Can(c.role, c.action); got != c.want {
			t.Errorf("Can(%q, %q) = %v, want %v", c.role, c.action, got, c.want)
		}
	}
}

func TestCan_TesterOverride(t *testing.T) {
	actions := []authz.Action{
		authz.ActionSubmitFeedback,
		authz.ActionModerateFeedback,
		authz.ActionDeleteFeedback,
		authz.ActionManageClubs,
		authz.ActionCreateClubPost,
		authz.ActionManageRoles,
		authz.ActionViewUsers,
	}
	for _, a := range actions {
		if !authz.Can(models.RoleTester, a) {
			t.Errorf("Can(tester, %q) = false, want true", a)
		}
	}
}

func TestCan_NormalizesRole(t *testing.T) {
	if !authz.Can("  Admin ", authz.ActionModerateFeedback) {
		t.Error("Can should trim and lowercase the role")
	}
}

func TestAssignableRole(t *testing.T) {
	for _, role := range authz.AssignableRoles {
		if !authz.AssignableRole(role) {
			t.Errorf("AssignableRole(%q) = false, want true", role)
		}
	}
	if authz.AssignableRole(models.RoleTester) {
		t.Error("tester must not be assignable from the admin panel")
	}
	if authz.AssignableRole("superuser") {
		t.Error("unknown roles must not be assignable")
	}
}

func TestUserCtx_Anonymous(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	role, _, _, ok := authz.UserCtx(req)
	if ok {
		t.Fatal("UserCtx on anonymous request should report ok=false")
	}
	if role != "visitor" {
		t.Errorf("anonymous role = %q, want visitor", role)
	}
}

func TestUserCtx_MalformedID(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req = auth.WithTestUser(req, &auth.SessionUser{ID: "not-an-object-id", Role: models.RoleMaster})
	if _, _, _, ok := authz.UserCtx(req); ok {
		t.Fatal("malformed user id must fail closed")
	}
}

func TestRequire_Gates(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := authz.Require(authz.ActionManageRoles)(next)

	// Anonymous: 401.
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}

	// Wrong role: 403.
	rec = httptest.NewRecorder()
	req := auth.WithTestUser(httptest.NewRequest("GET", "/", nil), &auth.SessionUser{
		ID:   primitive.NewObjectID().Hex(),
		Role: models.RoleStudent,
	})
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("student status = %d, want %d", rec.Code, http.StatusForbidden)
	}

	// Allowed role: passes through.
	rec = httptest.NewRecorder()
	req = auth.WithTestUser(httptest.NewRequest("GET", "/", nil), &auth.SessionUser{
		ID:   primitive.NewObjectID().Hex(),
		Role: models.RoleMaster,
	})
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("master status = %d, want %d", rec.Code, http.StatusOK)
	}
}
