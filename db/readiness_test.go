package db

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xiaoyuanzhu-com/todo-api/log"
)

var errUnreachable = errors.New("dial tcp 127.0.0.1:3306: connect: connection refused")

var testTarget = Target{Dialect: DialectSQLite, Driver: "sqlite3", DSN: ":memory:", redacted: "sqlite://:memory:"}

// fakeStore becomes reachable from attempt reachableFrom on; zero means never.
type fakeStore struct {
	reachableFrom int
	attempts      int
}

func (f *fakeStore) connect(t *testing.T) ConnectFunc {
	return func(ctx context.Context) (*sql.DB, error) {
		f.attempts++
		if f.reachableFrom == 0 || f.attempts < f.reachableFrom {
			return nil, errUnreachable
		}
		conn, err := sql.Open("sqlite3", ":memory:")
		require.NoError(t, err)
		t.Cleanup(func() { conn.Close() })
		return conn, nil
	}
}

func countingGate(n int, delay time.Duration, waits *int) Gate {
	return Gate{
		MaxAttempts: n,
		Delay:       delay,
		Clock:       clockwork.NewFakeClock(),
		OnRetry:     func(int, error) { *waits++ },
	}
}

func TestGate_ReachableImmediately(t *testing.T) {
	store := &fakeStore{reachableFrom: 1}
	waits := 0

	conn, err := countingGate(3, 0, &waits).Wait(context.Background(), testTarget, store.connect(t))

	require.NoError(t, err)
	require.NotNil(t, conn)
	assert.Equal(t, 1, store.attempts)
	assert.Equal(t, 0, waits)
}

func TestGate_ReachableOnLastAttempt(t *testing.T) {
	store := &fakeStore{reachableFrom: 3}
	waits := 0

	conn, err := countingGate(3, 0, &waits).Wait(context.Background(), testTarget, store.connect(t))

	require.NoError(t, err)
	require.NotNil(t, conn)
	assert.Equal(t, 3, store.attempts)
	assert.Equal(t, 2, waits)
}

func TestGate_NeverReachable(t *testing.T) {
	store := &fakeStore{}
	waits := 0

	conn, err := countingGate(3, 0, &waits).Wait(context.Background(), testTarget, store.connect(t))

	assert.Nil(t, conn)
	var startupErr *StartupError
	require.ErrorAs(t, err, &startupErr)
	assert.Equal(t, 3, startupErr.Attempts)
	assert.Equal(t, "sqlite://:memory:", startupErr.Target)
	assert.ErrorIs(t, err, errUnreachable)
	assert.Equal(t, 3, store.attempts)
	assert.Equal(t, 2, waits)
}

func TestGate_NoAttemptBeyondBudget(t *testing.T) {
	for n := 1; n <= 5; n++ {
		t.Run(fmt.Sprintf("N=%d", n), func(t *testing.T) {
			store := &fakeStore{reachableFrom: n + 1}
			waits := 0

			_, err := countingGate(n, 0, &waits).Wait(context.Background(), testTarget, store.connect(t))

			var startupErr *StartupError
			require.ErrorAs(t, err, &startupErr)
			assert.Equal(t, n, store.attempts)
			assert.Equal(t, n-1, waits)
		})
	}
}

func TestGate_StopsAfterSuccess(t *testing.T) {
	for n := 1; n <= 5; n++ {
		for k := 1; k <= n; k++ {
			store := &fakeStore{reachableFrom: k}
			waits := 0

			conn, err := countingGate(n, 0, &waits).Wait(context.Background(), testTarget, store.connect(t))

			require.NoError(t, err, "N=%d k=%d", n, k)
			require.NotNil(t, conn)
			assert.Equal(t, k, store.attempts, "N=%d k=%d", n, k)
		}
	}
}

func TestGate_InvocationsAreIndependent(t *testing.T) {
	gate := Gate{MaxAttempts: 2, Clock: clockwork.NewFakeClock()}

	first := &fakeStore{}
	_, err := gate.Wait(context.Background(), testTarget, first.connect(t))
	var startupErr *StartupError
	require.ErrorAs(t, err, &startupErr)
	assert.Equal(t, 2, first.attempts)

	second := &fakeStore{reachableFrom: 2}
	conn, err := gate.Wait(context.Background(), testTarget, second.connect(t))
	require.NoError(t, err)
	require.NotNil(t, conn)
	assert.Equal(t, 2, second.attempts)
}

func TestGate_ZeroBudgetStillTriesOnce(t *testing.T) {
	store := &fakeStore{}
	_, err := Gate{MaxAttempts: 0}.Wait(context.Background(), testTarget, store.connect(t))

	var startupErr *StartupError
	require.ErrorAs(t, err, &startupErr)
	assert.Equal(t, 1, store.attempts)
}

func TestGate_InvalidTargetShortCircuits(t *testing.T) {
	attempts := 0
	connect := func(context.Context) (*sql.DB, error) {
		attempts++
		return nil, fmt.Errorf("%w: unknown driver", ErrInvalidTarget)
	}

	_, err := Gate{MaxAttempts: 10, Clock: clockwork.NewFakeClock()}.Wait(context.Background(), testTarget, connect)

	var startupErr *StartupError
	require.ErrorAs(t, err, &startupErr)
	assert.ErrorIs(t, err, ErrInvalidTarget)
	assert.Equal(t, 1, attempts)
}

func TestGate_WaitsFixedDelayBetweenAttempts(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := &fakeStore{reachableFrom: 3}
	gate := Gate{MaxAttempts: 3, Delay: 3 * time.Second, Clock: clock}

	type result struct {
		conn *sql.DB
		err  error
	}
	done := make(chan result, 1)
	go func() {
		conn, err := gate.Wait(context.Background(), testTarget, store.connect(t))
		done <- result{conn, err}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for i := 0; i < 2; i++ {
		require.NoError(t, clock.BlockUntilContext(ctx, 1))
		// Not quite the full delay: the gate must keep waiting
		clock.Advance(3*time.Second - time.Millisecond)
		select {
		case <-done:
			t.Fatal("gate returned before the delay elapsed")
		case <-time.After(20 * time.Millisecond):
		}
		clock.Advance(time.Millisecond)
	}

	select {
	case res := <-done:
		require.NoError(t, res.err)
		require.NotNil(t, res.conn)
	case <-ctx.Done():
		t.Fatal("gate did not finish")
	}
	assert.Equal(t, 3, store.attempts)
}

func TestGate_CancelDuringWait(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := &fakeStore{}
	gate := Gate{MaxAttempts: 10, Delay: time.Hour, Clock: clock}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := gate.Wait(ctx, testTarget, store.connect(t))
		done <- err
	}()

	blockCtx, blockCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer blockCancel()
	require.NoError(t, clock.BlockUntilContext(blockCtx, 1))
	cancel()

	select {
	case err := <-done:
		var startupErr *StartupError
		require.ErrorAs(t, err, &startupErr)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, startupErr.Attempts)
	case <-blockCtx.Done():
		t.Fatal("gate ignored cancellation")
	}
	assert.Equal(t, 1, store.attempts)
}

func TestGate_LogsProgress(t *testing.T) {
	prev := log.Logger()
	var buf bytes.Buffer
	log.SetLogger(zerolog.New(&buf))
	t.Cleanup(func() { log.SetLogger(prev) })

	store := &fakeStore{}
	_, err := Gate{MaxAttempts: 3, Clock: clockwork.NewFakeClock()}.Wait(context.Background(), testTarget, store.connect(t))
	require.Error(t, err)

	out := buf.String()
	assert.Equal(t, 2, strings.Count(out, `"level":"warn"`))
	assert.Equal(t, 1, strings.Count(out, `"level":"error"`))
	assert.Contains(t, out, "attempt 1/3")
	assert.Contains(t, out, "attempt 2/3")
	assert.Contains(t, out, "could not connect to the database after multiple retries")
}

func TestStartupError_Message(t *testing.T) {
	err := &StartupError{Target: "mysql://user:xxxxx@db:3306/todo_db", Attempts: 10, Err: errUnreachable}
	assert.Equal(t,
		"could not connect to the database mysql://user:xxxxx@db:3306/todo_db after 10 attempts: "+errUnreachable.Error(),
		err.Error())
	assert.ErrorIs(t, err, errUnreachable)
}

func TestConnect_SQLiteInMemory(t *testing.T) {
	target, err := ParseTarget("sqlite://:memory:")
	require.NoError(t, err)

	conn, err := Connect(target, time.Second)(context.Background())
	require.NoError(t, err)
	defer conn.Close()

	var one int
	require.NoError(t, conn.QueryRow("SELECT 1").Scan(&one))
	assert.Equal(t, 1, one)
}

func TestConnect_UnknownDriverIsInvalid(t *testing.T) {
	_, err := Connect(Target{Driver: "nope", DSN: "x"}, time.Second)(context.Background())
	assert.ErrorIs(t, err, ErrInvalidTarget)
}

func TestConnect_UnreachableIsTransient(t *testing.T) {
	target, err := ParseTarget("postgres://user:pw@127.0.0.1:1/todo_db?connect_timeout=1")
	require.NoError(t, err)

	_, err = Connect(target, 2*time.Second)(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidTarget)
}
