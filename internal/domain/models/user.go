// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles a user document may carry. "tester" is a debugging affordance that
// bypasses every route allow-list; it is never assignable from the master
// admin panel.
const (
	RoleStudent = "student"
	RoleClub    = "club"
	RoleFaculty = "faculty"
	RoleAdmin   = "admin"
	RoleMaster  = "master"
	RoleTester  = "tester"
)

// Auth methods.
const (
	AuthPassword = "password"
	AuthGoogle   = "google"
)

// NoAffiliation is the affiliation value for users who belong to no club.
const NoAffiliation = "None"

// User represents a signed-up identity: students, club accounts, faculty,
// admins, and master admins. Users are created at registration or on first
// Google sign-in and are never deleted by this application.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email        string             `bson:"email" json:"email"`
	EmailCI      string             `bson:"email_ci" json:"-"` // lowercase, diacritics-stripped
	DisplayName  string             `bson:"display_name" json:"displayName"`
	Role         string             `bson:"role" json:"role"`
	Affiliation  string             `bson:"affiliation" json:"affiliation"` // club name or "None"
	AuthMethod   string             `bson:"auth_method,omitempty" json:"-"`
	PasswordHash []byte             `bson:"password_hash,omitempty" json:"-"`
	PhotoURL     string             `bson:"photo_url,omitempty" json:"photoURL,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// Name returns the user's display name, falling back to the email address
// when no display name has been set.
func (u User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Email
}
