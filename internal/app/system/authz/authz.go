// internal/app/system/authz/authz.go

// Package authz is the single authorization decision point. Route middleware
// and mutation handlers both consult Can, so UI gating and enforcement cannot
// drift apart.
package authz

import (
	"net/http"
	"strings"

	"github.com/necros240/campusfeedback/internal/app/system/auth"
	"github.com/necros240/campusfeedback/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Action identifies something a role may or may not do.
type Action string

const (
	ActionSubmitFeedback   Action = "submit_feedback"
	ActionModerateFeedback Action = "moderate_feedback" // pin, resolve, see reporters, see anonymous authors
	ActionDeleteFeedback   Action = "delete_feedback"
	ActionManageClubs      Action = "manage_clubs"
	ActionCreateClubPost   Action = "create_club_post"
	ActionManageRoles      Action = "manage_roles"
	ActionViewUsers        Action = "view_users"
)

// allow maps each action to the roles permitted to perform it. The tester
// role is handled in Can as a blanket override and is intentionally absent
// from these lists.
var allow = map[Action][]string{
	ActionSubmitFeedback:   {models.RoleStudent, models.RoleClub, models.RoleFaculty, models.RoleAdmin, models.RoleMaster},
	ActionModerateFeedback: {models.RoleAdmin, models.RoleFaculty, models.RoleMaster},
	ActionDeleteFeedback:   {models.RoleAdmin, models.RoleFaculty, models.RoleMaster},
	ActionManageClubs:      {models.RoleAdmin, models.RoleFaculty, models.RoleMaster},
	ActionCreateClubPost:   {models.RoleClub, models.RoleMaster},
	ActionManageRoles:      {models.RoleMaster},
	ActionViewUsers:        {models.RoleMaster},
}

// AssignableRoles are the values the master admin panel may set.
var AssignableRoles = []string{
	models.RoleStudent,
	models.RoleClub,
	models.RoleFaculty,
	models.RoleAdmin,
	models.RoleMaster,
}

// Can reports whether a role may perform an action. The tester role passes
// every check.
func Can(role string, action Action) bool {
	role = strings.ToLower(strings.TrimSpace(role))
	if role == models.RoleTester {
		return true
	}
	for _, allowed := range allow[action] {
		if role == allowed {
			return true
		}
	}
	return false
}

// AssignableRole reports whether role is a value the master panel may assign.
func AssignableRole(role string) bool {
	for _, v := range AssignableRoles {
		if role == v {
			return true
		}
	}
	return false
}

// UserCtx returns the current user's role (lowercased), name, Mongo ObjectID,
// and a found flag. Callers can trust that ok=true means a valid,
// authenticated user with a well-formed ObjectID; anything else fails closed
// as an anonymous visitor.
func UserCtx(r *http.Request) (role string, name string, userID primitive.ObjectID, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return "visitor", "", primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		// Malformed user id in session; fail closed.
		return "visitor", "", primitive.NilObjectID, false
	}
	return strings.ToLower(user.Role), user.Name, userID, true
}

// RequestCan reports whether the current request's user may perform action.
func RequestCan(r *http.Request, action Action) bool {
	role, _, _, ok := UserCtx(r)
	return ok && Can(role, action)
}
