// Package session maintains a process-wide mirror of the current
// authentication session.
//
// The mirror reflects the auth service's session events: it starts in a
// loading state, resolves on the initial lookup, and updates on every
// sign-in, sign-out, and token refresh thereafter. Consumers that gate on
// authentication must treat the two negative states differently:
//
//	loading            → do not decide yet
//	loaded, no subject → not authenticated, redirect/deny
//
// The Mirror is an injected, explicitly-lifecycled value — not a package
// singleton — and is mutated only by the auth service. Everything else
// reads it via Current or a Subscribe callback.
package session

import (
	"context"
	"sync"
	"time"
)

// Principal identifies the authenticated subject of the current session.
type Principal struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

// State is a snapshot of the mirror: the current principal (nil when
// anonymous) and whether the initial lookup is still in flight.
type State struct {
	Principal *Principal `json:"principal"`
	Loading   bool       `json:"loading"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Mirror holds the session state behind a mutex and fans out changes to
// subscribers.
type Mirror struct {
	mu        sync.RWMutex
	principal *Principal
	loading   bool
	updatedAt time.Time

	subs   map[int]func(State)
	nextID int
}

// NewMirror creates a Mirror in the loading state: no principal, lookup
// pending.
func NewMirror() *Mirror {
	return &Mirror{
		loading: true,
		subs:    make(map[int]func(State)),
	}
}

// Start performs the initial session lookup and clears the loading flag.
// lookup returns the current principal, nil when there is no session.
//
// Loading is cleared even when the lookup fails — consumers must be able
// to leave the "do not decide yet" state, and the error still surfaces to
// the caller.
func (m *Mirror) Start(ctx context.Context, lookup func(context.Context) (*Principal, error)) error {
	p, err := lookup(ctx)
	if err != nil {
		m.set(nil)
		return err
	}
	m.set(p)
	return nil
}

// Current returns a snapshot of the mirror.
func (m *Mirror) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return State{Principal: m.principal, Loading: m.loading, UpdatedAt: m.updatedAt}
}

// SignedIn records a sign-in event for p.
func (m *Mirror) SignedIn(p Principal) {
	m.set(&p)
}

// SignedOut records a sign-out event.
func (m *Mirror) SignedOut() {
	m.set(nil)
}

// Refreshed records a token refresh for p. The principal usually does not
// change across a refresh, but subscribers still hear about it.
func (m *Mirror) Refreshed(p Principal) {
	m.set(&p)
}

// Subscribe registers fn to be called with each new State. It returns the
// unsubscribe function; callers must invoke it on teardown or the callback
// leaks for the life of the mirror.
func (m *Mirror) Subscribe(fn func(State)) (unsubscribe func()) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

// set updates the state and notifies subscribers. Callbacks run outside
// the lock so a subscriber may call back into the mirror (for example to
// unsubscribe itself) without deadlocking.
func (m *Mirror) set(p *Principal) {
	m.mu.Lock()
	m.principal = p
	m.loading = false
	m.updatedAt = time.Now()
	state := State{Principal: m.principal, Loading: m.loading, UpdatedAt: m.updatedAt}
	fns := make([]func(State), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(state)
	}
}
