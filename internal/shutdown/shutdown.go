// Package shutdown adapts the teacher's GracefulShutdown (register
// cleanup funcs, run them LIFO under a deadline) into a small helper. The
// car binary uses it to destroy its shared region once its state machine
// and link have stopped (on SIGINT/SIGTERM or on error); the safety and
// controller binaries do not use it.
package shutdown

import (
	"context"
	"sync"
	"time"

	"github.com/mngv7/elevator-control-system/internal/logging"
)

// Manager runs registered cleanup functions in LIFO order when Shutdown is
// called, bounded by a deadline.
type Manager struct {
	mu      sync.Mutex
	fns     []func() error
	timeout time.Duration
	log     *logging.Logger
}

// New creates a Manager whose Shutdown call aborts after timeout even if
// some registered function is still running.
func New(timeout time.Duration, log *logging.Logger) *Manager {
	if log == nil {
		log = logging.DefaultLogger("shutdown")
	}
	return &Manager{timeout: timeout, log: log}
}

// Register adds fn to the set run on Shutdown. Functions registered later
// run first (LIFO), so the resource acquired last is released first.
func (m *Manager) Register(fn func() error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fns = append(m.fns, fn)
}

// Shutdown runs every registered function, newest first, and waits for the
// ctx parent plus its own timeout, whichever is first.
func (m *Manager) Shutdown(ctx context.Context) {
	m.mu.Lock()
	fns := append([]func() error(nil), m.fns...)
	m.mu.Unlock()

	m.log.Info("shutting down", logging.Int("components", len(fns)))

	shutdownCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := len(fns) - 1; i >= 0; i-- {
			if err := fns[i](); err != nil {
				m.log.Error("shutdown step failed", logging.Err(err))
			}
		}
		close(done)
	}()

	select {
	case <-done:
		m.log.Info("shutdown complete")
	case <-shutdownCtx.Done():
		m.log.Warn("shutdown timed out")
	}
}
