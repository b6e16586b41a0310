package oauthstate_test

import (
	"testing"
	"time"

	"github.com/necros240/campusfeedback/internal/app/store/oauthstate"
	"github.com/necros240/campusfeedback/internal/testutil"
)

func TestValidate_SingleUse(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := oauthstate.New(db)

	expires := time.Now().UTC().Add(10 * time.Minute)
	if err := store.Save(ctx, "tok-abc", "/clubs", expires); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	returnURL, valid, err := store.Validate(ctx, "tok-abc")
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if !valid || returnURL != "/clubs" {
		t.Errorf("Validate = (%q, %v), want (/clubs, true)", returnURL, valid)
	}

	// A state token is consumed on first use.
	_, valid, err = store.Validate(ctx, "tok-abc")
	if err != nil {
		t.Fatalf("second Validate failed: %v", err)
	}
	if valid {
		t.Error("replayed state token accepted")
	}
}

func TestValidate_Expired(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := oauthstate.New(db)

	if err := store.Save(ctx, "tok-old", "", time.Now().UTC().Add(-time.Minute)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	_, valid, err := store.Validate(ctx, "tok-old")
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if valid {
		t.Error("expired state token accepted")
	}
}

func TestValidate_Unknown(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := oauthstate.New(db)

	_, valid, err := store.Validate(ctx, "never-issued")
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if valid {
		t.Error("unknown state token accepted")
	}
}
