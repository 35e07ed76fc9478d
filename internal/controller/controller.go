// Package controller implements the list/filter/mutate contract behind every
// resource screen: fetch the collection, filter and paginate it locally,
// apply mutations optimistically, and roll back on failure.
//
// A Controller owns the in-memory collection for one resource type. All
// mutations are whole-entity field replacements, so rollback is a snapshot
// restore, never a merge. The backend is the source of truth: a Load that
// resolves after an optimistic mutation overwrites it (last-writer-wins), and
// a later Load reconciles.
package controller

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/lodenross/boardctl/internal/api"
	"github.com/lodenross/boardctl/internal/cache"
	"github.com/lodenross/boardctl/internal/model"
	"github.com/lodenross/boardctl/internal/session"
)

// ErrClosed is returned by operations on a torn-down controller. Results of
// in-flight calls that resolve after Close are discarded.
var ErrClosed = errors.New("controller is closed")

// State is the controller's lifecycle state.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateLoaded
	StateMutating
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateMutating:
		return "mutating"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Remote is the backend contract the controller consumes. *api.Client
// satisfies it; tests substitute fakes.
type Remote[T model.Resource] interface {
	List(ctx context.Context) ([]T, error)
	Create(ctx context.Context, draft T) (T, error)
	Update(ctx context.Context, id string, patch T) (T, error)
	Delete(ctx context.Context, id string) error
}

// Options tune a controller. Zero values mean: no cache, append after create,
// default page size, discard logs.
type Options struct {
	// Cache, when set, is consulted on Load and invalidated on every
	// successful mutation. CacheTTL bounds how long a list result is served
	// without a refetch.
	Cache    *cache.Cache
	CacheTTL time.Duration

	// ReloadOnCreate forces a full refetch after a successful create instead
	// of appending the returned entity. Only useful when the entity's sort
	// position depends on server-computed fields.
	ReloadOnCreate bool

	PageSize int
	Logger   *slog.Logger
}

// DefaultPageSize is used when Options.PageSize is zero.
const DefaultPageSize = 25

// Controller owns the collection for one resource type. Safe for concurrent
// use; the lock is never held across a network call.
type Controller[T model.Resource] struct {
	resource string
	remote   Remote[T]
	sess     *session.Session
	opts     Options
	log      *slog.Logger

	mu     sync.Mutex
	state  State
	items  []T
	gen    uint64 // bumped on every wholesale replacement by Load
	filter Filter
	page   int
	err    error
	closed bool
}

// New builds a controller for one resource type. resource names the type in
// errors and cache keys ("issues", "epics", ...). The session identifies the
// acting user; it is read-only ambient input.
func New[T model.Resource](resource string, remote Remote[T], sess *session.Session, opts Options) *Controller[T] {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Controller[T]{
		resource: resource,
		remote:   remote,
		sess:     sess,
		opts:     opts,
		log:      log.With(slog.String("resource", resource)),
		state:    StateIdle,
		filter:   DefaultFilter(),
		page:     1,
	}
}

// Session returns the session the controller was constructed with.
func (c *Controller[T]) Session() *session.Session { return c.sess }

// State returns the current lifecycle state.
func (c *Controller[T]) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err returns the current surfaced error, or nil. It is cleared by the next
// successful operation or by DismissError.
func (c *Controller[T]) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// DismissError clears the surfaced error without changing the collection.
// An Error state falls back to Loaded when data is present, Idle otherwise.
func (c *Controller[T]) DismissError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = nil
	if c.state == StateError {
		if c.items != nil {
			c.state = StateLoaded
		} else {
			c.state = StateIdle
		}
	}
}

// Items returns a copy of the unfiltered collection.
func (c *Controller[T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.items)
}

// Close tears the controller down, discarding all state. Results from calls
// still in flight are dropped when they arrive.
func (c *Controller[T]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.items = nil
	c.err = nil
	c.state = StateIdle
}

func (c *Controller[T]) listKey() string {
	return cache.Key(c.resource, "list")
}

func (c *Controller[T]) invalidateListCache() {
	if c.opts.Cache != nil {
		c.opts.Cache.Remove(c.listKey())
	}
}

// Load replaces the collection wholesale. The cache is consulted first; a hit
// resolves synchronously with no network call. On failure the collection
// keeps its last known-good value so the view never flashes empty.
func (c *Controller[T]) Load(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.opts.Cache != nil {
		if v, ok := c.opts.Cache.Get(c.listKey()); ok {
			if items, ok := v.([]T); ok {
				c.items = slices.Clone(items)
				c.gen++
				c.state = StateLoaded
				c.err = nil
				c.clampPageLocked()
				c.mu.Unlock()
				return nil
			}
		}
	}
	c.state = StateLoading
	c.mu.Unlock()

	items, err := c.remote.List(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if err != nil {
		c.state = StateError
		c.err = err
		c.log.Debug("load failed, keeping last known-good collection", slog.Any("error", err))
		return err
	}

	// Last-writer-wins: this snapshot is authoritative even if an optimistic
	// mutation landed while the fetch was in flight.
	c.items = items
	c.gen++
	c.state = StateLoaded
	c.err = nil
	c.clampPageLocked()
	if c.opts.Cache != nil {
		c.opts.Cache.Set(c.listKey(), slices.Clone(items), c.opts.CacheTTL)
	}
	c.log.Debug("collection loaded", slog.Int("count", len(items)))
	return nil
}

// Create validates the draft locally, then posts it. On success the returned
// entity (with its server-assigned id) is appended so filter and pagination
// state survive; a full reload happens only with Options.ReloadOnCreate. On
// failure the collection is unchanged.
func (c *Controller[T]) Create(ctx context.Context, draft T) (T, error) {
	var zero T

	if err := draft.Validate(); err != nil {
		verr := &api.ValidationError{Resource: c.resource, Reason: err.Error()}
		c.setErr(verr)
		return zero, verr
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return zero, ErrClosed
	}
	c.state = StateMutating
	c.mu.Unlock()

	created, err := c.remote.Create(ctx, draft)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return zero, ErrClosed
	}
	if err != nil {
		c.state = StateError
		c.err = err
		c.mu.Unlock()
		return zero, err
	}
	c.items = append(c.items, created)
	c.state = StateLoaded
	c.err = nil
	c.mu.Unlock()

	c.invalidateListCache()
	c.log.Debug("entity created", slog.String("id", created.ResourceID()))

	if c.opts.ReloadOnCreate {
		if err := c.Load(ctx); err != nil {
			return created, err
		}
	}
	return created, nil
}

// Update applies patch optimistically, then confirms with the backend. The id
// must be in the current collection; updates are collection-relative so a
// stale id from a superseded view cannot mutate anything. On failure the
// pre-patch snapshot is restored and the error surfaced.
func (c *Controller[T]) Update(ctx context.Context, id string, patch T) (T, error) {
	var zero T

	if patch.ResourceID() != id {
		verr := &api.ValidationError{Resource: c.resource, Reason: "patch id does not match target id"}
		c.setErr(verr)
		return zero, verr
	}
	if err := patch.Validate(); err != nil {
		verr := &api.ValidationError{Resource: c.resource, Reason: err.Error()}
		c.setErr(verr)
		return zero, verr
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return zero, ErrClosed
	}
	idx := c.indexOfLocked(id)
	if idx < 0 {
		nfe := &api.NotFoundError{Resource: c.resource, ID: id}
		c.err = nfe
		c.mu.Unlock()
		return zero, nfe
	}
	prev := c.items[idx]
	c.items[idx] = patch
	gen := c.gen
	c.state = StateMutating
	c.mu.Unlock()

	updated, err := c.remote.Update(ctx, id, patch)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return zero, ErrClosed
	}
	if err != nil {
		// Roll back to the pre-patch snapshot, re-locating by id. If a Load
		// replaced the collection in the meantime its snapshot wins over both
		// the patch and the rollback.
		if i := c.indexOfLocked(id); i >= 0 && c.gen == gen {
			c.items[i] = prev
		}
		c.state = StateError
		c.err = err
		c.log.Debug("update rolled back", slog.String("id", id), slog.Any("error", err))
		return zero, err
	}
	if i := c.indexOfLocked(id); i >= 0 {
		c.items[i] = updated
	}
	c.state = StateLoaded
	c.err = nil
	c.invalidateListCache()
	return updated, nil
}

// Remove deletes optimistically and re-inserts at the original index on
// failure. Callers gate this behind their own confirmation prompt.
func (c *Controller[T]) Remove(ctx context.Context, id string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	idx := c.indexOfLocked(id)
	if idx < 0 {
		nfe := &api.NotFoundError{Resource: c.resource, ID: id}
		c.err = nfe
		c.mu.Unlock()
		return nfe
	}
	removed := c.items[idx]
	c.items = slices.Delete(c.items, idx, idx+1)
	gen := c.gen
	c.state = StateMutating
	c.mu.Unlock()

	err := c.remote.Delete(ctx, id)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if err != nil {
		// Re-insert at the original index unless a Load already replaced the
		// collection; that snapshot already reflects the entity's true fate.
		if c.gen == gen {
			at := idx
			if at > len(c.items) {
				at = len(c.items)
			}
			c.items = slices.Insert(c.items, at, removed)
		}
		c.state = StateError
		c.err = err
		c.log.Debug("remove rolled back", slog.String("id", id), slog.Any("error", err))
		return err
	}
	c.state = StateLoaded
	c.err = nil
	c.clampPageLocked()
	c.invalidateListCache()
	return nil
}

// setErr records a locally raised error without disturbing the collection or
// an in-flight state.
func (c *Controller[T]) setErr(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.err = err
}

// indexOfLocked returns the position of id in the collection, or -1.
func (c *Controller[T]) indexOfLocked(id string) int {
	for i := range c.items {
		if c.items[i].ResourceID() == id {
			return i
		}
	}
	return -1
}
