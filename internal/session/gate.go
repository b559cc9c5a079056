// Package session implements the single-credential access gate and the
// persistence of its session marker.
package session

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// State is the authentication state of the gate.
type State string

// State constants.
const (
	Unauthenticated State = "unauthenticated"
	Authenticated   State = "authenticated"
)

// Errors returned by the gate.
var (
	ErrLoginFailed     = errors.New("invalid credentials")
	ErrUnauthenticated = errors.New("not authenticated")
)

// Resetter is the workflow reset performed on logout.
type Resetter interface {
	Reset()
}

// Gate guards access to the comparison workflow.
type Gate struct {
	store    Store
	password string
	resetter Resetter
	logger   *slog.Logger

	mu     sync.RWMutex
	state  State
	marker string
}

// NewGate creates a gate and reads the persisted marker once. A stored
// marker restores the Authenticated state.
func NewGate(ctx context.Context, store Store, password string, resetter Resetter, logger *slog.Logger) (*Gate, error) {
	if logger == nil {
		logger = slog.Default()
	}
	g := &Gate{
		store:    store,
		password: password,
		resetter: resetter,
		logger:   logger,
		state:    Unauthenticated,
	}

	marker, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if marker != "" {
		g.state = Authenticated
		g.marker = marker
	}
	return g, nil
}

// SetResetter sets the reset performed on logout.
func (g *Gate) SetResetter(r Resetter) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.resetter = r
}

// Login compares credential with the configured password in constant
// time. On a match the gate becomes Authenticated and a new marker is
// persisted and returned. An empty configured password never matches.
func (g *Gate) Login(ctx context.Context, credential string) (string, error) {
	if g.password == "" || subtle.ConstantTimeCompare([]byte(credential), []byte(g.password)) != 1 {
		g.logger.Warn("login failed")
		return "", ErrLoginFailed
	}

	marker := uuid.NewString()
	if err := g.store.Save(ctx, marker); err != nil {
		return "", fmt.Errorf("failed to persist session: %w", err)
	}

	g.mu.Lock()
	g.state = Authenticated
	g.marker = marker
	g.mu.Unlock()

	g.logger.Info("login succeeded")
	return marker, nil
}

// Logout clears the marker, forces Unauthenticated and resets the workflow.
// The in-memory state is cleared even when the store fails.
func (g *Gate) Logout(ctx context.Context) error {
	g.mu.Lock()
	g.state = Unauthenticated
	g.marker = ""
	resetter := g.resetter
	g.mu.Unlock()

	if resetter != nil {
		resetter.Reset()
	}

	if err := g.store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	g.logger.Info("logged out")
	return nil
}

// State returns the current authentication state.
func (g *Gate) State() State {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state
}

// Authenticated reports whether the gate is open.
func (g *Gate) Authenticated() bool {
	return g.State() == Authenticated
}

// Require returns ErrUnauthenticated unless the gate is open.
func (g *Gate) Require() error {
	if !g.Authenticated() {
		return ErrUnauthenticated
	}
	return nil
}

// Verify reports whether marker is the current session marker.
func (g *Gate) Verify(marker string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.state != Authenticated || marker == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(marker), []byte(g.marker)) == 1
}
