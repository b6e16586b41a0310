package clubpoststore_test

import (
	"testing"
	"time"

	clubpoststore "github.com/necros240/campusfeedback/internal/app/store/clubposts"
	"github.com/necros240/campusfeedback/internal/domain/models"
	"github.com/necros240/campusfeedback/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCreatePoll_RequiresTwoOptions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := clubpoststore.New(db)

	_, err := store.Create(ctx, models.ClubPost{
		Title:    "Pizza night?",
		Type:     models.PostTypePoll,
		Audience: models.AudiencePublic,
		Options:  []models.PollOption{{Text: "yes"}},
	})
	if err != clubpoststore.ErrFewOptions {
		t.Errorf("one-option poll err = %v, want ErrFewOptions", err)
	}
}

func TestCreatePoll_NormalizesContentAndVotes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := clubpoststore.New(db)

	post, err := store.Create(ctx, models.ClubPost{
		Title:    "Meeting day",
		Type:     models.PostTypePoll,
		Content:  "should be replaced",
		Audience: models.AudiencePublic,
		AuthorID: primitive.NewObjectID(),
		Options: []models.PollOption{
			{Text: "Tuesday"},
			{Text: "Thursday"},
		},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if post.Content != models.PostTypePoll {
		t.Errorf("poll content = %q, want %q", post.Content, models.PostTypePoll)
	}
	for i, opt := range post.Options {
		if opt.Votes == nil || len(opt.Votes) != 0 {
			t.Errorf("option %d votes not initialized empty: %v", i, opt.Votes)
		}
	}
}

func TestVote_VoterInAtMostOneOption(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := clubpoststore.New(db)
	fx := testutil.NewFixtures(t, db)

	author := fx.CreateStudent(ctx, "Club Lead", "lead@campus.edu")
	poll := fx.CreatePoll(ctx, author, "Best snack", "chips", "fruit", "cookies")
	voter := primitive.NewObjectID()

	// Cast, re-cast twice; the voter must end up only in the last option.
	for _, option := range []int{0, 2, 1} {
		if err := store.Vote(ctx, poll.ID, option, voter); err != nil {
			t.Fatalf("Vote(%d) failed: %v", option, err)
		}
	}

	got, err := store.GetByID(ctx, poll.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	total := 0
	for i, opt := range got.Options {
		for _, v := range opt.Votes {
			if v != voter {
				t.Errorf("option %d holds unexpected voter %s", i, v.Hex())
			}
			total++
		}
	}
	if total != 1 {
		t.Errorf("voter appears in %d options, want exactly 1", total)
	}
	if len(got.Options[1].Votes) != 1 {
		t.Error("voter not in the last-chosen option")
	}
}

func TestVote_Validation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := clubpoststore.New(db)
	fx := testutil.NewFixtures(t, db)

	author := fx.CreateStudent(ctx, "Club Lead", "lead@campus.edu")
	poll := fx.CreatePoll(ctx, author, "Best snack", "chips", "fruit")
	event := fx.CreateClubPost(ctx, author, "Open mic", models.AudiencePublic, models.AudiencePublic)
	voter := primitive.NewObjectID()

	if err := store.Vote(ctx, poll.ID, 5, voter); err != clubpoststore.ErrBadOption {
		t.Errorf("out-of-range option err = %v, want ErrBadOption", err)
	}
	if err := store.Vote(ctx, poll.ID, -1, voter); err != clubpoststore.ErrBadOption {
		t.Errorf("negative option err = %v, want ErrBadOption", err)
	}
	if err := store.Vote(ctx, event.ID, 0, voter); err != clubpoststore.ErrNotAPoll {
		t.Errorf("vote on event err = %v, want ErrNotAPoll", err)
	}
	if err := store.Vote(ctx, primitive.NewObjectID(), 0, voter); err != clubpoststore.ErrNotFound {
		t.Errorf("vote on missing post err = %v, want ErrNotFound", err)
	}
}

func TestLike_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := clubpoststore.New(db)
	fx := testutil.NewFixtures(t, db)

	author := fx.CreateStudent(ctx, "Club Lead", "lead@campus.edu")
	post := fx.CreateClubPost(ctx, author, "Bake sale", models.AudiencePublic, models.AudiencePublic)

	liker := primitive.NewObjectID()
	if err := store.Like(ctx, post.ID, liker); err != nil {
		t.Fatalf("Like failed: %v", err)
	}
	if err := store.Like(ctx, post.ID, liker); err != nil {
		t.Fatalf("repeat Like failed: %v", err)
	}

	got, _ := store.GetByID(ctx, post.ID)
	if len(got.Likes) != 1 {
		t.Errorf("likes = %d, want 1", len(got.Likes))
	}
}

func TestUpdateContent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := clubpoststore.New(db)
	fx := testutil.NewFixtures(t, db)

	author := fx.CreateStudent(ctx, "Club Lead", "lead@campus.edu")
	event := fx.CreateClubPost(ctx, author, "Bake sale", models.AudiencePublic, models.AudiencePublic)
	poll := fx.CreatePoll(ctx, author, "Best snack", "chips", "fruit")

	if err := store.UpdateContent(ctx, event.ID, primitive.NewObjectID(), "x", "y"); err != clubpoststore.ErrNotAuthor {
		t.Errorf("non-author edit err = %v, want ErrNotAuthor", err)
	}

	if err := store.UpdateContent(ctx, event.ID, author.ID, "Bake sale (moved)", "Now in the quad"); err != nil {
		t.Fatalf("event edit failed: %v", err)
	}
	got, _ := store.GetByID(ctx, event.ID)
	if got.Title != "Bake sale (moved)" || got.Content != "Now in the quad" || !got.Edited {
		t.Errorf("event after edit: title=%q content=%q edited=%v", got.Title, got.Content, got.Edited)
	}

	// Poll edits pass an empty content so the "Poll" marker stays in place.
	if err := store.UpdateContent(ctx, poll.ID, author.ID, "Favorite snack", ""); err != nil {
		t.Fatalf("poll edit failed: %v", err)
	}
	got, _ = store.GetByID(ctx, poll.ID)
	if got.Title != "Favorite snack" || got.Content != models.PostTypePoll {
		t.Errorf("poll after edit: title=%q content=%q", got.Title, got.Content)
	}
}

func TestEditComment_Isolation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := clubpoststore.New(db)
	fx := testutil.NewFixtures(t, db)

	author := fx.CreateStudent(ctx, "Club Lead", "lead@campus.edu")
	commenter := fx.CreateStudent(ctx, "Alice", "alice@campus.edu")
	post := fx.CreateClubPost(ctx, author, "Open mic", models.AudiencePublic, models.AudiencePublic)

	first, err := store.AddComment(ctx, post.ID, models.Comment{Text: "count me in", AuthorID: commenter.ID, AuthorName: "Alice"})
	if err != nil {
		t.Fatalf("AddComment failed: %v", err)
	}
	second, err := store.AddComment(ctx, post.ID, models.Comment{Text: "what time?", AuthorID: author.ID, AuthorName: "Club Lead"})
	if err != nil {
		t.Fatalf("AddComment failed: %v", err)
	}

	if err := store.EditComment(ctx, post.ID, first.ID, author.ID, "stolen"); err != clubpoststore.ErrNoComment {
		t.Errorf("wrong-author edit err = %v, want ErrNoComment", err)
	}

	if err := store.EditComment(ctx, post.ID, first.ID, commenter.ID, "count me in, plus one"); err != nil {
		t.Fatalf("EditComment failed: %v", err)
	}
	// Resubmitting the same text is a valid no-op, not an ownership failure.
	if err := store.EditComment(ctx, post.ID, first.ID, commenter.ID, "count me in, plus one"); err != nil {
		t.Fatalf("identical-text edit err = %v, want nil", err)
	}
	got, _ := store.GetByID(ctx, post.ID)
	for _, c := range got.Comments {
		switch c.ID {
		case first.ID:
			if c.Text != "count me in, plus one" || !c.Edited {
				t.Errorf("edited comment: %+v", c)
			}
		case second.ID:
			if c.Text != "what time?" || c.Edited {
				t.Errorf("untouched comment changed: %+v", c)
			}
		}
	}
}

func TestListRecent_LimitsAndSorts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := clubpoststore.New(db)
	fx := testutil.NewFixtures(t, db)

	author := fx.CreateStudent(ctx, "Club Lead", "lead@campus.edu")
	for i, title := range []string{"first", "second", "third"} {
		fx.CreateClubPost(ctx, author, title, models.AudiencePublic, models.AudiencePublic)
		if i < 2 {
			// created_at has millisecond resolution in Mongo.
			time.Sleep(2 * time.Millisecond)
		}
	}

	posts, err := store.ListRecent(ctx, 2)
	if err != nil {
		t.Fatalf("ListRecent failed: %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("posts = %d, want 2", len(posts))
	}
	if posts[0].Title != "third" || posts[1].Title != "second" {
		t.Errorf("order = [%s, %s], want newest first", posts[0].Title, posts[1].Title)
	}
}
