package feedbackstore_test

import (
	"testing"
	"time"

	feedbackstore "github.com/necros240/campusfeedback/internal/app/store/feedback"
	"github.com/necros240/campusfeedback/internal/domain/models"
	"github.com/necros240/campusfeedback/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCreate_ZeroStates(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := feedbackstore.New(db)

	fb, err := store.Create(ctx, models.Feedback{
		Category:   models.CategoryCafeteria,
		Content:    "The coffee machine has been broken for a week.",
		AuthorID:   primitive.NewObjectID(),
		AuthorName: "Jane Doe",
		// A submit payload cannot smuggle in a resolved status.
		Status:   models.StatusResolved,
		Response: "pre-filled",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if fb.Status != models.StatusNew {
		t.Errorf("status = %q, want New", fb.Status)
	}
	if fb.Response != "" {
		t.Errorf("response = %q, want empty", fb.Response)
	}
	if len(fb.Likes) != 0 || len(fb.Comments) != 0 || len(fb.Reports) != 0 {
		t.Error("interaction sets must start empty")
	}

	stored, err := store.GetByID(ctx, fb.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if stored.Content != fb.Content || stored.Category != fb.Category {
		t.Errorf("stored doc differs: %+v", stored)
	}
}

func TestLike_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := feedbackstore.New(db)
	fx := testutil.NewFixtures(t, db)

	author := fx.CreateStudent(ctx, "Author", "author@campus.edu")
	fb := fx.CreateFeedback(ctx, author, models.CategoryFacilities, "Broken door", false)

	liker := primitive.NewObjectID()
	for i := 0; i < 3; i++ {
		if err := store.Like(ctx, fb.ID, liker); err != nil {
			t.Fatalf("Like %d failed: %v", i, err)
		}
	}

	got, err := store.GetByID(ctx, fb.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if len(got.Likes) != 1 {
		t.Errorf("likes = %d, want 1 after repeated likes by the same user", len(got.Likes))
	}
}

func TestReport_IdempotentAndAccumulates(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := feedbackstore.New(db)
	fx := testutil.NewFixtures(t, db)

	author := fx.CreateStudent(ctx, "Author", "author@campus.edu")
	fb := fx.CreateFeedback(ctx, author, models.CategorySecurity, "Gate left open", false)

	a, b := primitive.NewObjectID(), primitive.NewObjectID()
	for _, reporter := range []primitive.ObjectID{a, a, b} {
		if err := store.Report(ctx, fb.ID, reporter); err != nil {
			t.Fatalf("Report failed: %v", err)
		}
	}

	got, err := store.GetByID(ctx, fb.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if len(got.Reports) != 2 {
		t.Errorf("reports = %d, want 2 distinct reporters", len(got.Reports))
	}
}

func TestUpdateContent_AuthorOnly(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := feedbackstore.New(db)
	fx := testutil.NewFixtures(t, db)

	author := fx.CreateStudent(ctx, "Author", "author@campus.edu")
	fb := fx.CreateFeedback(ctx, author, models.CategoryAcademics, "original", false)

	if err := store.UpdateContent(ctx, fb.ID, primitive.NewObjectID(), "hijacked"); err != feedbackstore.ErrNotAuthor {
		t.Errorf("non-author edit err = %v, want ErrNotAuthor", err)
	}

	if err := store.UpdateContent(ctx, fb.ID, author.ID, "revised"); err != nil {
		t.Fatalf("author edit failed: %v", err)
	}
	got, _ := store.GetByID(ctx, fb.ID)
	if got.Content != "revised" || !got.Edited {
		t.Errorf("after edit: content=%q edited=%v", got.Content, got.Edited)
	}
}

func TestResolve(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := feedbackstore.New(db)
	fx := testutil.NewFixtures(t, db)

	author := fx.CreateStudent(ctx, "Author", "author@campus.edu")
	fb := fx.CreateFeedback(ctx, author, models.CategoryClubs, "Need more funding", false)

	if err := store.Resolve(ctx, fb.ID, "Budget approved."); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	got, _ := store.GetByID(ctx, fb.ID)
	if got.Status != models.StatusResolved || got.Response != "Budget approved." {
		t.Errorf("after resolve: status=%q response=%q", got.Status, got.Response)
	}

	newCount, _ := store.CountByStatus(ctx, models.StatusNew)
	resolvedCount, _ := store.CountByStatus(ctx, models.StatusResolved)
	if newCount != 0 || resolvedCount != 1 {
		t.Errorf("counts = (new %d, resolved %d), want (0, 1)", newCount, resolvedCount)
	}
}

func TestEditComment_TargetsOneElement(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := feedbackstore.New(db)
	fx := testutil.NewFixtures(t, db)

	author := fx.CreateStudent(ctx, "Author", "author@campus.edu")
	commenterA := fx.CreateStudent(ctx, "Alice", "alice@campus.edu")
	commenterB := fx.CreateStudent(ctx, "Bob", "bob@campus.edu")
	fb := fx.CreateFeedback(ctx, author, models.CategoryFacilities, "Wifi is slow", false)

	first, err := store.AddComment(ctx, fb.ID, models.Comment{Text: "same here", AuthorID: commenterA.ID, AuthorName: "Alice"})
	if err != nil {
		t.Fatalf("AddComment failed: %v", err)
	}
	second, err := store.AddComment(ctx, fb.ID, models.Comment{Text: "works for me", AuthorID: commenterB.ID, AuthorName: "Bob"})
	if err != nil {
		t.Fatalf("AddComment failed: %v", err)
	}
	if first.ID == "" || first.ID == second.ID {
		t.Fatalf("comment ids must be distinct and non-empty: %q vs %q", first.ID, second.ID)
	}

	if err := store.EditComment(ctx, fb.ID, first.ID, commenterA.ID, "same here, 3rd floor"); err != nil {
		t.Fatalf("EditComment failed: %v", err)
	}

	got, _ := store.GetByID(ctx, fb.ID)
	if len(got.Comments) != 2 {
		t.Fatalf("comments = %d, want 2", len(got.Comments))
	}
	for _, c := range got.Comments {
		switch c.ID {
		case first.ID:
			if c.Text != "same here, 3rd floor" || !c.Edited {
				t.Errorf("edited comment: %+v", c)
			}
		case second.ID:
			if c.Text != "works for me" || c.Edited {
				t.Errorf("untouched comment changed: %+v", c)
			}
		}
	}
}

func TestEditComment_WrongAuthor(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := feedbackstore.New(db)
	fx := testutil.NewFixtures(t, db)

	author := fx.CreateStudent(ctx, "Author", "author@campus.edu")
	fb := fx.CreateFeedback(ctx, author, models.CategoryFacilities, "Wifi is slow", false)

	c, err := store.AddComment(ctx, fb.ID, models.Comment{Text: "mine", AuthorID: author.ID, AuthorName: "Author"})
	if err != nil {
		t.Fatalf("AddComment failed: %v", err)
	}

	if err := store.EditComment(ctx, fb.ID, c.ID, primitive.NewObjectID(), "stolen"); err != feedbackstore.ErrNoComment {
		t.Errorf("wrong-author edit err = %v, want ErrNoComment", err)
	}
}

func TestEditComment_IdenticalTextIsNoOp(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := feedbackstore.New(db)
	fx := testutil.NewFixtures(t, db)

	author := fx.CreateStudent(ctx, "Author", "author@campus.edu")
	fb := fx.CreateFeedback(ctx, author, models.CategoryFacilities, "Wifi is slow", false)

	c, err := store.AddComment(ctx, fb.ID, models.Comment{Text: "mine", AuthorID: author.ID, AuthorName: "Author"})
	if err != nil {
		t.Fatalf("AddComment failed: %v", err)
	}

	// Saving the same text twice must not read as someone else's comment.
	for i := 0; i < 2; i++ {
		if err := store.EditComment(ctx, fb.ID, c.ID, author.ID, "mine"); err != nil {
			t.Fatalf("identical-text edit %d err = %v, want nil", i, err)
		}
	}
}

func TestListByAuthor_NewestFirst(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := feedbackstore.New(db)
	fx := testutil.NewFixtures(t, db)

	mine := fx.CreateStudent(ctx, "Mine", "mine@campus.edu")
	other := fx.CreateStudent(ctx, "Other", "other@campus.edu")

	first, err := store.Create(ctx, models.Feedback{Category: models.CategoryAcademics, Content: "first", AuthorID: mine.ID})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	// Mongo stores created_at at millisecond resolution.
	time.Sleep(2 * time.Millisecond)
	second, err := store.Create(ctx, models.Feedback{Category: models.CategoryAcademics, Content: "second", AuthorID: mine.ID})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := store.Create(ctx, models.Feedback{Category: models.CategoryAcademics, Content: "noise", AuthorID: other.ID}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	items, err := store.ListByAuthor(ctx, mine.ID)
	if err != nil {
		t.Fatalf("ListByAuthor failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("items = %d, want 2", len(items))
	}
	if items[0].ID != second.ID || items[1].ID != first.ID {
		t.Error("items not sorted newest first")
	}
}

func TestDelete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := feedbackstore.New(db)
	fx := testutil.NewFixtures(t, db)

	author := fx.CreateStudent(ctx, "Author", "author@campus.edu")
	fb := fx.CreateFeedback(ctx, author, models.CategoryFacilities, "gone soon", false)

	n, err := store.Delete(ctx, fb.ID)
	if err != nil || n != 1 {
		t.Fatalf("Delete = (%d, %v), want (1, nil)", n, err)
	}
	if _, err := store.GetByID(ctx, fb.ID); err != feedbackstore.ErrNotFound {
		t.Errorf("after delete, GetByID err = %v, want ErrNotFound", err)
	}
	if n, _ := store.Delete(ctx, fb.ID); n != 0 {
		t.Errorf("second delete removed %d documents", n)
	}
}
