package session

import (
	"sync"
	"time"

	"github.com/username/pettyvault/src/model"
)

// Decision is the outcome of a gate check.
type Decision int

const (
	// Authorized means the session is valid and the role passes.
	Authorized Decision = iota
	// Unauthorized means the session is valid but the role is absent
	// or not allowed. The caller should show the unauthorized view.
	Unauthorized
	// Invalid means the session is missing or expired. The caller
	// should clear the store and go to login.
	Invalid
)

const watchInterval = 60 * time.Second

// Gate guards a protected view: it combines the expiry clock with a
// role check against the store.
type Gate struct {
	Store   *Store
	Clock   Clock
	Allowed []model.Role
	// DefaultRole, when set, stands in for a missing stored role
	// instead of rejecting. Used by the company picker, which must be
	// reachable before a company (and hence a role) is chosen.
	DefaultRole model.Role
	// Interval overrides the re-check cadence. Zero means the default
	// of one minute.
	Interval time.Duration

	mu   sync.Mutex
	stop chan struct{}
}

// Check evaluates the gate once.
func (g *Gate) Check() Decision {
	if g.Store.Token() == "" || g.Clock.Expired(g.Store) {
		return Invalid
	}

	role, present := g.Store.Role()
	if !present || role == "" {
		if g.DefaultRole == "" {
			return Unauthorized
		}
		role = string(g.DefaultRole)
	}

	for _, allowed := range g.Allowed {
		if model.Role(role) == allowed {
			return Authorized
		}
	}
	return Unauthorized
}

// Watch re-evaluates the session clock periodically and calls
// onInvalid once the session expires. The first check runs
// immediately, before any tick. Call Stop to cancel.
func (g *Gate) Watch(onInvalid func()) {
	if g.Check() == Invalid {
		onInvalid()
		return
	}

	interval := g.Interval
	if interval <= 0 {
		interval = watchInterval
	}

	// The goroutine selects on its own copy of the channel, so a
	// concurrent Stop never hands it a nil field.
	g.mu.Lock()
	stop := make(chan struct{})
	g.stop = stop
	g.mu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				select {
				case <-stop:
					// A tick that races Stop is dropped.
					return
				default:
				}
				if g.Check() == Invalid {
					onInvalid()
					return
				}
			case <-stop:
				return
			}
		}
	}()
}

// Stop cancels a running Watch. Safe to call when Watch never ran,
// and to call more than once.
func (g *Gate) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.stop != nil {
		close(g.stop)
		g.stop = nil
	}
}
