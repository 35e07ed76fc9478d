// Package session holds the ambient identity a client run operates under:
// current user, role, and auth token. Controllers receive a Session at
// construction instead of reading global state, and interested parties
// subscribe to change notifications rather than polling.
package session

import "sync"

// Role gates destructive actions. Viewers are read-only; members mutate what
// they work on; admins additionally delete.
type Role string

const (
	RoleViewer Role = "viewer"
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleViewer, RoleMember, RoleAdmin:
		return true
	}
	return false
}

// CanEdit reports whether the role may create and update entities.
func (r Role) CanEdit() bool { return r == RoleMember || r == RoleAdmin }

// CanDelete reports whether the role may remove entities.
func (r Role) CanDelete() bool { return r == RoleAdmin }

// Snapshot is the immutable view of a session at one point in time. This is
// what subscribers receive on every change.
type Snapshot struct {
	UserID string
	Role   Role
	Token  string
}

// Session is safe for concurrent use. Identity is set at construction;
// SetIdentity swaps it atomically and notifies subscribers.
type Session struct {
	mu   sync.RWMutex
	snap Snapshot

	subMu  sync.Mutex
	nextID int
	subs   map[int]chan Snapshot
}

// New builds a session for one user.
func New(userID string, role Role, token string) *Session {
	return &Session{
		snap: Snapshot{UserID: userID, Role: role, Token: token},
		subs: make(map[int]chan Snapshot),
	}
}

func (s *Session) current() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// UserID returns the current user id.
func (s *Session) UserID() string { return s.current().UserID }

// Role returns the current role.
func (s *Session) Role() Role { return s.current().Role }

// Token returns the current auth token.
func (s *Session) Token() string { return s.current().Token }

// Snapshot returns the full current identity.
func (s *Session) Snapshot() Snapshot { return s.current() }

// SetIdentity replaces the session identity and pushes the new snapshot to
// every subscriber.
func (s *Session) SetIdentity(userID string, role Role, token string) {
	s.mu.Lock()
	s.snap = Snapshot{UserID: userID, Role: role, Token: token}
	snap := s.snap
	s.mu.Unlock()
	s.publish(snap)
}

// Clear resets the session to anonymous. Used on logout; callers typically
// also clear the entity cache.
func (s *Session) Clear() {
	s.SetIdentity("", RoleViewer, "")
}

// Subscribe registers for change notifications. The returned cancel func
// must be called to release the subscription. Slow subscribers drop
// notifications instead of blocking the publisher; the latest state is
// always available via Snapshot.
func (s *Session) Subscribe() (<-chan Snapshot, func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextID
	s.nextID++
	ch := make(chan Snapshot, 1)
	s.subs[id] = ch

	cancel := func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		if _, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(ch)
		}
	}
	return ch, cancel
}

func (s *Session) publish(snap Snapshot) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- snap:
		default:
			// Replace the stale pending notification with the newest one.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}
