package comments

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/lodenross/boardctl/internal/api"
)

func setupStore(t *testing.T) *SQLiteStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "comments.db")
	store, err := OpenStore(path)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func setupThreads(t *testing.T) *Threads {
	t.Helper()
	return NewThreads(setupStore(t), nil)
}

func TestAdd_TopLevel(t *testing.T) {
	th := setupThreads(t)

	c, err := th.Add("ep-1", "Looks good", "u-1", "")
	if err != nil {
		t.Fatalf("Add() error: %v", err)
	}
	if c.ID == "" {
		t.Error("comment must get an id")
	}

	thread, err := th.Get("ep-1")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if len(thread) != 1 || thread[0].Text != "Looks good" {
		t.Errorf("thread = %+v", thread)
	}
}

func TestAdd_BlankTextRejectedLocally(t *testing.T) {
	th := setupThreads(t)

	_, err := th.Add("ep-1", "   \n", "u-1", "")
	var verr *api.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want *ValidationError", err)
	}

	thread, err := th.Get("ep-1")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if len(thread) != 0 {
		t.Error("thread must be unchanged after rejection")
	}
}

func TestAdd_ReplyNestsUnderParent(t *testing.T) {
	th := setupThreads(t)

	top, err := th.Add("E1", "First", "u-1", "")
	if err != nil {
		t.Fatalf("Add() error: %v", err)
	}
	reply, err := th.Add("E1", "Agreed", "u-2", top.ID)
	if err != nil {
		t.Fatalf("Add() reply error: %v", err)
	}

	// The reply must be nested, not at top level.
	thread, err := th.Get("E1")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if len(thread) != 1 {
		t.Fatalf("top level has %d comments, want 1", len(thread))
	}
	if len(thread[0].Replies) != 1 || thread[0].Replies[0].ID != reply.ID {
		t.Errorf("replies = %+v, want the reply nested under parent", thread[0].Replies)
	}

	found, ok := th.FindByID("E1", reply.ID)
	if !ok || found.Text != "Agreed" {
		t.Errorf("FindByID() = (%+v, %v), want nested reply", found, ok)
	}
}

func TestAdd_ReplyToUnknownComment(t *testing.T) {
	th := setupThreads(t)

	_, err := th.Add("ep-1", "Orphan", "u-1", "missing-id")
	var nfe *api.NotFoundError
	if !errors.As(err, &nfe) {
		t.Fatalf("error = %v, want *NotFoundError", err)
	}
}

func TestToggleLike_Involution(t *testing.T) {
	th := setupThreads(t)
	c, err := th.Add("ep-1", "Nice", "u-1", "")
	if err != nil {
		t.Fatalf("Add() error: %v", err)
	}

	liked, err := th.ToggleLike("ep-1", c.ID, "u-2")
	if err != nil {
		t.Fatalf("ToggleLike() error: %v", err)
	}
	if liked.Likes != 1 || len(liked.LikedBy) != 1 || liked.LikedBy[0] != "u-2" {
		t.Errorf("after like: likes=%d likedBy=%v", liked.Likes, liked.LikedBy)
	}

	unliked, err := th.ToggleLike("ep-1", c.ID, "u-2")
	if err != nil {
		t.Fatalf("ToggleLike() error: %v", err)
	}
	if unliked.Likes != 0 || len(unliked.LikedBy) != 0 {
		t.Errorf("after unlike: likes=%d likedBy=%v, want original state", unliked.Likes, unliked.LikedBy)
	}
}

func TestToggleLike_UserAppearsAtMostOnce(t *testing.T) {
	th := setupThreads(t)
	c, err := th.Add("ep-1", "Nice", "u-1", "")
	if err != nil {
		t.Fatalf("Add() error: %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := th.ToggleLike("ep-1", c.ID, "u-2"); err != nil {
			t.Fatalf("ToggleLike() error: %v", err)
		}
	}
	// Odd number of toggles: liked exactly once.
	got, _ := th.FindByID("ep-1", c.ID)
	if got.Likes != 1 || len(got.LikedBy) != 1 {
		t.Errorf("likes=%d likedBy=%v, want single membership", got.Likes, got.LikedBy)
	}
}

func TestToggleLike_NestedComment(t *testing.T) {
	th := setupThreads(t)
	top, _ := th.Add("ep-1", "Top", "u-1", "")
	reply, _ := th.Add("ep-1", "Reply", "u-2", top.ID)

	if _, err := th.ToggleLike("ep-1", reply.ID, "u-3"); err != nil {
		t.Fatalf("ToggleLike() on nested comment: %v", err)
	}
	got, _ := th.FindByID("ep-1", reply.ID)
	if got.Likes != 1 {
		t.Errorf("likes = %d, want 1", got.Likes)
	}
}

func TestFindByID_VanishedIsNotFound(t *testing.T) {
	th := setupThreads(t)
	if _, ok := th.FindByID("ep-1", "ghost"); ok {
		t.Error("expected not-found for unknown comment")
	}
}

func TestPersistence_SurvivesReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "comments.db")

	store, err := OpenStore(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	th := NewThreads(store, nil)
	top, err := th.Add("ep-1", "Persisted", "u-1", "")
	if err != nil {
		t.Fatalf("Add() error: %v", err)
	}
	if _, err := th.Add("ep-1", "Nested", "u-2", top.ID); err != nil {
		t.Fatalf("Add() reply error: %v", err)
	}
	if _, err := th.ToggleLike("ep-1", top.ID, "u-3"); err != nil {
		t.Fatalf("ToggleLike() error: %v", err)
	}
	_ = store.Close()

	// Fresh store and manager over the same file.
	store2, err := OpenStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = store2.Close() }()

	th2 := NewThreads(store2, nil)
	thread, err := th2.Get("ep-1")
	if err != nil {
		t.Fatalf("Get() after reload: %v", err)
	}
	if len(thread) != 1 || thread[0].Text != "Persisted" {
		t.Fatalf("thread = %+v", thread)
	}
	if len(thread[0].Replies) != 1 || thread[0].Replies[0].Text != "Nested" {
		t.Errorf("replies = %+v", thread[0].Replies)
	}
	if thread[0].Likes != 1 || thread[0].LikedBy[0] != "u-3" {
		t.Errorf("likes = %d likedBy = %v", thread[0].Likes, thread[0].LikedBy)
	}
}

// failingStore reads fine but refuses writes.
type failingStore struct {
	writeErr error
}

func (f *failingStore) Read(key string) ([]byte, bool, error) { return nil, false, nil }
func (f *failingStore) Write(key string, data []byte) error   { return f.writeErr }

func TestPersistenceWarning_IsNonFatal(t *testing.T) {
	th := NewThreads(&failingStore{writeErr: errors.New("disk full")}, nil)

	c, err := th.Add("ep-1", "Still counts", "u-1", "")
	var warn *PersistenceWarning
	if !errors.As(err, &warn) {
		t.Fatalf("error = %v, want *PersistenceWarning", err)
	}
	if c == nil {
		t.Fatal("comment must be returned despite the warning")
	}

	// In-memory state stays correct.
	thread, getErr := th.Get("ep-1")
	if getErr != nil {
		t.Fatalf("Get() error: %v", getErr)
	}
	if len(thread) != 1 || thread[0].Text != "Still counts" {
		t.Errorf("thread = %+v, want the comment present in memory", thread)
	}
}

func TestReconcileLikes_SelfHealsDriftedCounts(t *testing.T) {
	store := setupStore(t)
	// Persist a thread whose stored count disagrees with its like set.
	if err := store.Write("ep-1", []byte(`[
		{"id":"c1","text":"hi","author":"u-1","likes":7,"liked_by":["u-2","u-3"],
		 "replies":[{"id":"c2","text":"yo","author":"u-2","likes":-1}]}
	]`)); err != nil {
		t.Fatalf("seed write: %v", err)
	}

	th := NewThreads(store, nil)
	c, ok := th.FindByID("ep-1", "c1")
	if !ok {
		t.Fatal("seeded comment not found")
	}
	if c.Likes != 2 {
		t.Errorf("likes = %d, want reconciled to 2", c.Likes)
	}
	nested, _ := th.FindByID("ep-1", "c2")
	if nested.Likes != 0 {
		t.Errorf("nested likes = %d, want floored to 0", nested.Likes)
	}
}
