package db

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/ddlstore/pkg/ddlstore"
)

// State is the lifecycle position of the shared connection.
type State int

const (
	StateUnconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateUnconnected:
		return "unconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// errClosedWhileConnecting is reported to callers waiting on an attempt that
// Close abandoned.
var errClosedWhileConnecting = errors.New("connection closed while connecting")

// attempt is one in-flight connect shared by every caller that asked for the
// connection while it ran. pool and err are set before done is closed.
type attempt struct {
	done    chan struct{}
	pool    *pgxpool.Pool
	err     error
	waiters int // guarded by Manager.mu
}

// Manager owns the single process-wide connection to the store.
//
// Acquire connects on first use. Callers that arrive while a connect is in
// flight wait for that same attempt instead of starting another; all of them
// see its outcome. A failed attempt leaves the manager unconnected so the next
// Acquire tries again. At most one connect runs at a time, including one that
// Close abandoned.
//
// Thread-Safety: Safe for concurrent use.
type Manager struct {
	connector ddlstore.Connector
	logger    ddlstore.Logger

	mu        sync.Mutex
	state     State
	pool      *pgxpool.Pool
	pending   *attempt
	abandoned *attempt
}

// NewManager creates an unconnected Manager.
func NewManager(connector ddlstore.Connector, logger ddlstore.Logger) *Manager {
	if connector == nil {
		panic("connector cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &Manager{connector: connector, logger: logger}
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Acquire returns the live pool, connecting if needed.
//
// The connect itself is not bound to ctx: if ctx ends while waiting, Acquire
// returns ctx.Err() and the attempt carries on for the other waiters.
// Connect failures wrap ddlstore.ErrConnectionFailed.
func (m *Manager) Acquire(ctx context.Context) (*pgxpool.Pool, error) {
	m.mu.Lock()
	if m.state == StateConnected {
		pool := m.pool
		m.mu.Unlock()
		return pool, nil
	}

	a := m.pending
	if a == nil {
		a = &attempt{done: make(chan struct{})}
		m.pending = a
		m.state = StateConnecting
		go m.connect(context.WithoutCancel(ctx), a, m.abandoned)
	}
	a.waiters++
	m.mu.Unlock()

	select {
	case <-a.done:
		return a.pool, a.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Conn returns the live pool as a ddlstore.DBConnection.
func (m *Manager) Conn(ctx context.Context) (ddlstore.DBConnection, error) {
	pool, err := m.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return NewPoolAdapter(pool), nil
}

// waiting returns the number of callers that joined the attempt in flight.
func (m *Manager) waiting() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pending == nil {
		return 0
	}
	return m.pending.waiters
}

// connect runs attempt a once prev, an attempt abandoned by Close, is over.
func (m *Manager) connect(ctx context.Context, a, prev *attempt) {
	if prev != nil {
		<-prev.done
	}
	m.logger.Info("Connecting to the store.")
	pool, err := m.connector.Connect(ctx)

	m.mu.Lock()
	abandoned := m.pending != a
	if m.abandoned == a {
		m.abandoned = nil
	}
	if !abandoned {
		m.pending = nil
		if err == nil {
			m.state = StateConnected
			m.pool = pool
		} else {
			m.state = StateUnconnected
		}
	}
	m.mu.Unlock()

	switch {
	case abandoned:
		if pool != nil {
			pool.Close()
		}
		if err == nil {
			err = errClosedWhileConnecting
		}
		a.err = connectionFailed(err)
	case err != nil:
		m.logger.Error("An error occurred when connecting to the store: %v", err)
		a.err = connectionFailed(err)
	default:
		m.logger.Info("Successfully connected to the store.")
		a.pool = pool
	}
	close(a.done)
}

func connectionFailed(err error) error {
	if errors.Is(err, ddlstore.ErrConnectionFailed) {
		return err
	}
	return fmt.Errorf("%w: %w", ddlstore.ErrConnectionFailed, err)
}

// HandleClose records that the connection went away. The cached pool is
// discarded and the next Acquire reconnects.
func (m *Manager) HandleClose() {
	m.mu.Lock()
	pool := m.detach()
	m.mu.Unlock()

	if pool != nil {
		pool.Close()
	}
}

// HandleError logs a fault on the live connection and, if connected, closes
// it so the next Acquire starts fresh.
func (m *Manager) HandleError(err error) {
	m.fault(err, nil)
}

// fault is HandleError restricted to the pool that failed; a nil failed
// matches whatever pool is live.
func (m *Manager) fault(err error, failed *pgxpool.Pool) {
	m.logger.Error("The following error occurred with the store connection: %v", err)

	m.mu.Lock()
	if m.state != StateConnected || (failed != nil && failed != m.pool) {
		m.mu.Unlock()
		return
	}
	pool := m.detach()
	m.mu.Unlock()

	m.logger.Info("Closing the store connection for now.")
	pool.Close()
}

// Close closes the connection. An attempt in flight is abandoned: its
// waiters get an error and its pool is closed when it arrives. A later
// Acquire waits for the abandoned attempt before connecting again. A
// connector holding resources of its own (io.Closer) is closed too.
func (m *Manager) Close() error {
	m.mu.Lock()
	pool := m.detach()
	if m.pending != nil {
		m.abandoned = m.pending
		m.pending = nil
		m.state = StateUnconnected
	}
	m.mu.Unlock()

	if pool != nil {
		pool.Close()
	}
	if c, ok := m.connector.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// detach forgets the live pool and returns it. m.mu must be held.
func (m *Manager) detach() *pgxpool.Pool {
	if m.state != StateConnected {
		return nil
	}
	pool := m.pool
	m.pool = nil
	m.state = StateUnconnected
	return pool
}

// Watch pings the live pool every interval until ctx ends and reports a
// failed ping through HandleError. Nothing is pinged while unconnected.
func (m *Manager) Watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		m.mu.Lock()
		pool := m.pool
		connected := m.state == StateConnected
		m.mu.Unlock()
		if !connected {
			continue
		}

		pingCtx, cancel := context.WithTimeout(ctx, interval)
		err := pool.Ping(pingCtx)
		cancel()
		if err != nil && ctx.Err() == nil {
			m.fault(err, pool)
		}
	}
}
