package bootstrap

import (
	"testing"

	userstore "github.com/necros240/campusfeedback/internal/app/store/users"
	"github.com/necros240/campusfeedback/internal/domain/models"
	"github.com/necros240/campusfeedback/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func TestEnsureMasterAdmin_CreatesAccount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)

	appCfg := AppConfig{MasterAdminEmail: "owner@campus.edu"}
	deps := DBDeps{MongoDatabase: db}

	if err := ensureMasterAdmin(ctx, appCfg, deps, zap.NewNop()); err != nil {
		t.Fatalf("ensureMasterAdmin failed: %v", err)
	}

	user, err := userstore.New(db).GetByEmailCI(ctx, "owner@campus.edu")
	if err != nil {
		t.Fatalf("master admin not created: %v", err)
	}
	if user.Role != models.RoleMaster {
		t.Errorf("role = %q, want master", user.Role)
	}
	// No password account; the owner signs in with Google.
	if user.AuthMethod != models.AuthGoogle {
		t.Errorf("auth method = %q, want google", user.AuthMethod)
	}
}

func TestEnsureMasterAdmin_PromotesExistingAccount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)

	existing := fx.CreateStudent(ctx, "Owner", "owner@campus.edu")

	appCfg := AppConfig{MasterAdminEmail: "Owner@Campus.edu"}
	deps := DBDeps{MongoDatabase: db}

	if err := ensureMasterAdmin(ctx, appCfg, deps, zap.NewNop()); err != nil {
		t.Fatalf("ensureMasterAdmin failed: %v", err)
	}

	user, err := userstore.New(db).GetByID(ctx, existing.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if user.Role != models.RoleMaster {
		t.Errorf("role = %q, want master", user.Role)
	}
}

func TestEnsureMasterAdmin_NoEmailConfigured(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)

	if err := ensureMasterAdmin(ctx, AppConfig{}, DBDeps{MongoDatabase: db}, zap.NewNop()); err != nil {
		t.Fatalf("ensureMasterAdmin without email = %v, want nil", err)
	}

	n, err := db.Collection("users").CountDocuments(ctx, bson.M{})
	if err != nil {
		t.Fatalf("count users: %v", err)
	}
	if n != 0 {
		t.Errorf("users created without configuration: %d", n)
	}
}
