// Package comments implements nested discussion threads attached to entities.
//
// Threads never round-trip through the backend: they persist write-through to
// a durable local side-store keyed by the owning entity's id. A persistence
// failure is surfaced as a non-fatal PersistenceWarning; in-memory state stays
// correct either way.
package comments

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lodenross/boardctl/internal/api"
)

// Comment is one node in a thread tree. Likes always equals len(LikedBy);
// ToggleLike reconciles the count after every mutation rather than trusting
// it separately.
type Comment struct {
	ID        string     `json:"id"`
	Text      string     `json:"text"`
	Author    string     `json:"author"`
	CreatedAt time.Time  `json:"created_at"`
	Likes     int        `json:"likes"`
	LikedBy   []string   `json:"liked_by,omitempty"`
	Replies   []*Comment `json:"replies,omitempty"`
}

// PersistenceWarning reports a side-store write failure. The in-memory
// mutation that triggered it has already been applied and is not rolled back.
type PersistenceWarning struct {
	Key string
	Err error
}

func (w *PersistenceWarning) Error() string {
	return fmt.Sprintf("comments for %s not persisted: %v", w.Key, w.Err)
}

func (w *PersistenceWarning) Unwrap() error { return w.Err }

// Threads manages the comment trees for all entities, backed by a Store.
// Safe for concurrent use.
type Threads struct {
	mu     sync.Mutex
	store  Store
	loaded map[string]bool
	byID   map[string][]*Comment // parent entity id -> top-level comments
	log    *slog.Logger
	now    func() time.Time
}

// NewThreads builds the thread manager over a side-store.
func NewThreads(store Store, logger *slog.Logger) *Threads {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Threads{
		store:  store,
		loaded: make(map[string]bool),
		byID:   make(map[string][]*Comment),
		log:    logger,
		now:    time.Now,
	}
}

// Get returns the thread for an entity, loading it from the side-store on
// first access. The returned slice is the live tree; callers must not mutate
// it directly.
func (t *Threads) Get(parentID string) ([]*Comment, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.loadLocked(parentID); err != nil {
		return nil, err
	}
	return t.byID[parentID], nil
}

// Add appends a comment, either top-level or nested under replyTo (located by
// depth-first search). Blank text is rejected locally. A side-store write
// failure returns the new comment together with a *PersistenceWarning.
func (t *Threads) Add(parentID, text, author, replyTo string) (*Comment, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &api.ValidationError{Resource: "comment", Reason: "text must not be blank"}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.loadLocked(parentID); err != nil {
		return nil, err
	}

	c := &Comment{
		ID:        uuid.NewString(),
		Text:      text,
		Author:    author,
		CreatedAt: t.now(),
	}

	if replyTo == "" {
		t.byID[parentID] = append(t.byID[parentID], c)
	} else {
		parent := findByID(t.byID[parentID], replyTo)
		if parent == nil {
			return nil, &api.NotFoundError{Resource: "comment", ID: replyTo}
		}
		parent.Replies = append(parent.Replies, c)
	}

	return c, t.persistLocked(parentID)
}

// ToggleLike flips userID's like on a comment: absent adds, present removes.
// Calling it twice with the same arguments restores the original state.
func (t *Threads) ToggleLike(parentID, commentID, userID string) (*Comment, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.loadLocked(parentID); err != nil {
		return nil, err
	}

	c := findByID(t.byID[parentID], commentID)
	if c == nil {
		return nil, &api.NotFoundError{Resource: "comment", ID: commentID}
	}

	at := -1
	for i, id := range c.LikedBy {
		if id == userID {
			at = i
			break
		}
	}
	if at >= 0 {
		c.LikedBy = append(c.LikedBy[:at], c.LikedBy[at+1:]...)
	} else {
		c.LikedBy = append(c.LikedBy, userID)
	}
	// Reconcile rather than trust the stored count.
	c.Likes = len(c.LikedBy)

	return c, t.persistLocked(parentID)
}

// FindByID locates a comment anywhere in an entity's thread tree. The second
// return is false when the comment has vanished; callers treat that as a
// no-op rather than an error.
func (t *Threads) FindByID(parentID, commentID string) (*Comment, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.loadLocked(parentID); err != nil {
		return nil, false
	}
	c := findByID(t.byID[parentID], commentID)
	return c, c != nil
}

// findByID walks the tree depth-first.
func findByID(nodes []*Comment, id string) *Comment {
	for _, c := range nodes {
		if c.ID == id {
			return c
		}
		if found := findByID(c.Replies, id); found != nil {
			return found
		}
	}
	return nil
}

// loadLocked pulls a thread from the side-store on first access.
func (t *Threads) loadLocked(parentID string) error {
	if t.loaded[parentID] {
		return nil
	}
	data, ok, err := t.store.Read(parentID)
	if err != nil {
		return fmt.Errorf("failed to read comments for %s: %w", parentID, err)
	}
	if ok {
		var thread []*Comment
		if err := json.Unmarshal(data, &thread); err != nil {
			return fmt.Errorf("failed to decode comments for %s: %w", parentID, err)
		}
		reconcileLikes(thread)
		t.byID[parentID] = thread
	}
	t.loaded[parentID] = true
	return nil
}

// reconcileLikes self-heals persisted counts drifted from their like sets.
func reconcileLikes(nodes []*Comment) {
	for _, c := range nodes {
		c.Likes = len(c.LikedBy)
		reconcileLikes(c.Replies)
	}
}

// persistLocked writes the whole thread through to the side-store. Comment
// volume is small; durability matters more than write amortization.
func (t *Threads) persistLocked(parentID string) error {
	data, err := json.Marshal(t.byID[parentID])
	if err != nil {
		warn := &PersistenceWarning{Key: parentID, Err: err}
		t.log.Warn("comment thread not persisted", slog.String("parent", parentID), slog.Any("error", err))
		return warn
	}
	if err := t.store.Write(parentID, data); err != nil {
		warn := &PersistenceWarning{Key: parentID, Err: err}
		t.log.Warn("comment thread not persisted", slog.String("parent", parentID), slog.Any("error", err))
		return warn
	}
	return nil
}
