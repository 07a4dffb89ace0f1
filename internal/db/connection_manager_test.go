package db

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vvka-141/ddlstore/internal/logging"
	"github.com/vvka-141/ddlstore/pkg/ddlstore"
	"golang.org/x/sync/errgroup"
)

// unreachable points at a port nothing listens on. pgxpool connects lazily,
// so pools built from it are valid until something pings them.
const unreachable = "postgres://nobody@127.0.0.1:1/none?connect_timeout=1"

func lazyPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	pool, err := pgxpool.New(context.Background(), unreachable)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

// scriptedConnector hands out results in order, optionally holding each call
// until release is closed.
type scriptedConnector struct {
	calls   atomic.Int32
	entered chan struct{}
	release chan struct{}
	connect func(n int32) (*pgxpool.Pool, error)
	closed  atomic.Bool
}

func newScriptedConnector(connect func(n int32) (*pgxpool.Pool, error)) *scriptedConnector {
	return &scriptedConnector{
		entered: make(chan struct{}, 16),
		connect: connect,
	}
}

func (c *scriptedConnector) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	n := c.calls.Add(1)
	c.entered <- struct{}{}
	if c.release != nil {
		<-c.release
	}
	return c.connect(n)
}

func (c *scriptedConnector) Close() error {
	c.closed.Store(true)
	return nil
}

func TestManager_ConcurrentAcquireSharesOneAttempt(t *testing.T) {
	pool := lazyPool(t)
	conn := newScriptedConnector(func(int32) (*pgxpool.Pool, error) { return pool, nil })
	conn.release = make(chan struct{})
	m := NewManager(conn, logging.NewNullLogger())

	const callers = 10
	results := make([]*pgxpool.Pool, callers)
	var g errgroup.Group
	for i := 0; i < callers; i++ {
		g.Go(func() error {
			p, err := m.Acquire(context.Background())
			results[i] = p
			return err
		})
	}

	<-conn.entered
	assert.Equal(t, StateConnecting, m.State())
	close(conn.release)

	require.NoError(t, g.Wait())
	assert.Equal(t, int32(1), conn.calls.Load())
	for _, p := range results {
		assert.Same(t, pool, p)
	}
	assert.Equal(t, StateConnected, m.State())

	again, err := m.Acquire(context.Background())
	require.NoError(t, err)
	assert.Same(t, pool, again)
	assert.Equal(t, int32(1), conn.calls.Load(), "connected manager does not reconnect")
}

func TestManager_FailedAttemptRejectsAllWaitersAndResets(t *testing.T) {
	dialErr := errors.New("dial tcp: connection refused")
	pool := lazyPool(t)
	conn := newScriptedConnector(func(n int32) (*pgxpool.Pool, error) {
		if n == 1 {
			return nil, dialErr
		}
		return pool, nil
	})
	conn.release = make(chan struct{})
	m := NewManager(conn, logging.NewNullLogger())

	errs := make(chan error, 3)
	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.Acquire(context.Background())
			errs <- err
		}()
	}
	<-conn.entered
	require.Eventually(t, func() bool { return m.waiting() == 3 }, 5*time.Second, time.Millisecond)
	close(conn.release)
	wg.Wait()
	close(errs)
	assert.Equal(t, int32(1), conn.calls.Load())

	for err := range errs {
		assert.ErrorIs(t, err, ddlstore.ErrConnectionFailed)
		assert.ErrorIs(t, err, dialErr)
	}
	assert.Equal(t, StateUnconnected, m.State())

	got, err := m.Acquire(context.Background())
	require.NoError(t, err)
	assert.Same(t, pool, got)
	assert.Equal(t, int32(2), conn.calls.Load())
}

func TestManager_CancelledWaiterDoesNotAbortAttempt(t *testing.T) {
	pool := lazyPool(t)
	conn := newScriptedConnector(func(int32) (*pgxpool.Pool, error) { return pool, nil })
	conn.release = make(chan struct{})
	m := NewManager(conn, logging.NewNullLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancelled := make(chan error, 1)
	go func() {
		_, err := m.Acquire(ctx)
		cancelled <- err
	}()
	<-conn.entered

	patient := make(chan *pgxpool.Pool, 1)
	go func() {
		p, _ := m.Acquire(context.Background())
		patient <- p
	}()

	cancel()
	assert.ErrorIs(t, <-cancelled, context.Canceled)
	assert.Equal(t, StateConnecting, m.State())

	close(conn.release)
	assert.Same(t, pool, <-patient)
	assert.Equal(t, int32(1), conn.calls.Load())
	assert.Equal(t, StateConnected, m.State())
}

func TestManager_HandleCloseForcesReconnect(t *testing.T) {
	first, second := lazyPool(t), lazyPool(t)
	conn := newScriptedConnector(func(n int32) (*pgxpool.Pool, error) {
		if n == 1 {
			return first, nil
		}
		return second, nil
	})
	m := NewManager(conn, logging.NewNullLogger())

	got, err := m.Acquire(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, got)

	m.HandleClose()
	assert.Equal(t, StateUnconnected, m.State())

	got, err = m.Acquire(context.Background())
	require.NoError(t, err)
	assert.Same(t, second, got)
	assert.Equal(t, int32(2), conn.calls.Load())
}

func TestManager_HandleError(t *testing.T) {
	conn := newScriptedConnector(func(int32) (*pgxpool.Pool, error) { return lazyPool(t), nil })
	m := NewManager(conn, logging.NewNullLogger())

	m.HandleError(errors.New("stray error while unconnected"))
	assert.Equal(t, StateUnconnected, m.State())

	_, err := m.Acquire(context.Background())
	require.NoError(t, err)

	m.HandleError(errors.New("server closed the connection unexpectedly"))
	assert.Equal(t, StateUnconnected, m.State())

	_, err = m.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), conn.calls.Load())
}

func TestManager_CloseAbandonsInFlightAttempt(t *testing.T) {
	pool := lazyPool(t)
	conn := newScriptedConnector(func(int32) (*pgxpool.Pool, error) { return pool, nil })
	conn.release = make(chan struct{})
	m := NewManager(conn, logging.NewNullLogger())

	waiter := make(chan error, 1)
	go func() {
		_, err := m.Acquire(context.Background())
		waiter <- err
	}()
	<-conn.entered

	require.NoError(t, m.Close())
	assert.Equal(t, StateUnconnected, m.State())
	assert.True(t, conn.closed.Load())

	close(conn.release)
	err := <-waiter
	assert.ErrorIs(t, err, ddlstore.ErrConnectionFailed)
	assert.Equal(t, StateUnconnected, m.State())
}

func TestManager_AcquireAfterCloseWaitsForAbandonedAttempt(t *testing.T) {
	first, second := lazyPool(t), lazyPool(t)
	conn := newScriptedConnector(func(n int32) (*pgxpool.Pool, error) {
		if n == 1 {
			return first, nil
		}
		return second, nil
	})
	conn.release = make(chan struct{})
	m := NewManager(conn, logging.NewNullLogger())

	abandoned := make(chan error, 1)
	go func() {
		_, err := m.Acquire(context.Background())
		abandoned <- err
	}()
	<-conn.entered
	require.NoError(t, m.Close())

	next := make(chan *pgxpool.Pool, 1)
	go func() {
		p, _ := m.Acquire(context.Background())
		next <- p
	}()
	require.Eventually(t, func() bool { return m.waiting() == 1 }, 5*time.Second, time.Millisecond)
	assert.Never(t, func() bool { return conn.calls.Load() > 1 }, 50*time.Millisecond, 5*time.Millisecond)
	assert.Equal(t, StateConnecting, m.State())

	close(conn.release)
	assert.ErrorIs(t, <-abandoned, ddlstore.ErrConnectionFailed)
	assert.Same(t, second, <-next)
	assert.Equal(t, int32(2), conn.calls.Load())
	assert.Equal(t, StateConnected, m.State())
}

func TestManager_Conn(t *testing.T) {
	conn := newScriptedConnector(func(int32) (*pgxpool.Pool, error) { return lazyPool(t), nil })
	m := NewManager(conn, logging.NewNullLogger())

	c, err := m.Conn(context.Background())
	require.NoError(t, err)
	assert.IsType(t, &PoolAdapter{}, c)
}

func TestManager_WatchReportsDeadConnection(t *testing.T) {
	if testing.Short() {
		t.Skip("pings a closed port")
	}
	conn := newScriptedConnector(func(int32) (*pgxpool.Pool, error) { return lazyPool(t), nil })
	m := NewManager(conn, logging.NewNullLogger())

	_, err := m.Acquire(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Watch(ctx, 20*time.Millisecond)

	assert.Eventually(t, func() bool { return m.State() == StateUnconnected }, 5*time.Second, 10*time.Millisecond)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "unconnected", StateUnconnected.String())
	assert.Equal(t, "connecting", StateConnecting.String())
	assert.Equal(t, "connected", StateConnected.String())
	assert.Equal(t, "State(9)", State(9).String())
}
