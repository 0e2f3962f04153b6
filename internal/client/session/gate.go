// Package session holds the client-side authentication state for the
// dashboard shell. A stored session token is verified against the server
// once on startup, and protected views consult the gate before rendering.
package session

import (
	"context"
	"fmt"
	"sync"
)

// State is the client-side authentication state.
type State int

const (
	StateUnknown State = iota
	StateVerifying
	StateAuthenticated
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateVerifying:
		return "verifying"
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	}
	return "unknown"
}

// Decision tells a protected view what to do.
type Decision int

const (
	// DecisionPlaceholder: verification is still in flight; show a waiting
	// placeholder, never the protected content and never a redirect.
	DecisionPlaceholder Decision = iota
	DecisionRender
	DecisionRedirectToLogin
)

// Gate owns the session state. All methods are safe for concurrent use.
type Gate struct {
	mu     sync.RWMutex
	state  State
	userID string
	token  string

	store TokenStore
	api   *APIClient
}

// NewGate loads any stored token. With a token present the gate starts in
// Verifying and the caller is expected to run VerifyOnLoad; without one it
// starts Unauthenticated.
func NewGate(store TokenStore, api *APIClient) (*Gate, error) {
	tok, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load stored token: %w", err)
	}

	g := &Gate{state: StateUnauthenticated, store: store, api: api}
	if tok != "" {
		g.state = StateVerifying
		g.token = tok
	}
	return g, nil
}

// VerifyOnLoad checks the stored token against the server. Any failure means
// "not logged in": the stale token is discarded and no retry is attempted.
func (g *Gate) VerifyOnLoad(ctx context.Context) {
	g.mu.RLock()
	state, tok := g.state, g.token
	g.mu.RUnlock()

	if state != StateVerifying {
		return
	}

	userID, err := g.api.Verify(ctx, tok)
	if err != nil {
		g.clearSession()
		return
	}

	g.mu.Lock()
	g.state = StateAuthenticated
	g.userID = userID
	g.mu.Unlock()
}

func (g *Gate) Register(ctx context.Context, name, email, password string) error {
	access, err := g.api.Register(ctx, name, email, password)
	if err != nil {
		return err
	}
	return g.startSession(ctx, access)
}

func (g *Gate) Login(ctx context.Context, email, password string) error {
	access, err := g.api.Login(ctx, email, password)
	if err != nil {
		return err
	}
	return g.startSession(ctx, access)
}

func (g *Gate) GoogleLogin(ctx context.Context, providerToken string) error {
	access, err := g.api.GoogleLogin(ctx, providerToken)
	if err != nil {
		return err
	}
	return g.startSession(ctx, access)
}

func (g *Gate) MicrosoftLogin(ctx context.Context, providerToken string) error {
	access, err := g.api.MicrosoftLogin(ctx, providerToken)
	if err != nil {
		return err
	}
	return g.startSession(ctx, access)
}

// Logout clears local state and the stored token. Purely local: the token
// is stateless, so the server holds nothing to revoke.
func (g *Gate) Logout() {
	g.clearSession()
}

// Decision maps the current state to what a protected view should do.
func (g *Gate) Decision() Decision {
	switch g.State() {
	case StateAuthenticated:
		return DecisionRender
	case StateUnauthenticated:
		return DecisionRedirectToLogin
	}
	return DecisionPlaceholder
}

func (g *Gate) State() State {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state
}

// UserID returns the authenticated user's id, or "" when not authenticated.
func (g *Gate) UserID() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.userID
}

// startSession persists the token and resolves the identity behind it.
func (g *Gate) startSession(ctx context.Context, access string) error {
	userID, err := g.api.Verify(ctx, access)
	if err != nil {
		return err
	}
	if err := g.store.Save(access); err != nil {
		return err
	}

	g.mu.Lock()
	g.state = StateAuthenticated
	g.token = access
	g.userID = userID
	g.mu.Unlock()
	return nil
}

func (g *Gate) clearSession() {
	g.mu.Lock()
	g.state = StateUnauthenticated
	g.token = ""
	g.userID = ""
	g.mu.Unlock()

	_ = g.store.Clear()
}
