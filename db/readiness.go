package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/xiaoyuanzhu-com/todo-api/log"
)

const (
	DefaultConnectAttempts = 10
	DefaultConnectDelay    = 3 * time.Second
	DefaultConnectTimeout  = 5 * time.Second
)

// StartupError is returned when the database never became reachable during
// startup. The process must not continue initialising after receiving it.
type StartupError struct {
	Target   string // redacted
	Attempts int
	Err      error // last failure
}

func (e *StartupError) Error() string {
	return fmt.Sprintf("could not connect to the database %s after %d attempts: %v", e.Target, e.Attempts, e.Err)
}

func (e *StartupError) Unwrap() error { return e.Err }

// ConnectFunc opens a connection and proves it is alive. A returned error
// wrapping ErrInvalidTarget stops the gate immediately.
type ConnectFunc func(ctx context.Context) (*sql.DB, error)

// Gate blocks startup until the database answers a liveness check or the
// attempt budget runs out.
type Gate struct {
	MaxAttempts int
	Delay       time.Duration
	Clock       clockwork.Clock

	// OnRetry, when set, is called after every failed attempt that will be retried.
	OnRetry func(attempt int, err error)
}

// NewGate returns a gate with the given budget and the real clock.
func NewGate(maxAttempts int, delay time.Duration) Gate {
	return Gate{
		MaxAttempts: maxAttempts,
		Delay:       delay,
		Clock:       clockwork.NewRealClock(),
	}
}

// Wait runs connect until it succeeds, returning the open handle. It makes at
// most MaxAttempts attempts separated by Delay and never waits after the last
// one. Cancelling ctx aborts a pending wait.
func (g Gate) Wait(ctx context.Context, target Target, connect ConnectFunc) (*sql.DB, error) {
	logger := log.GetLogger("db")

	maxAttempts := g.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	clock := g.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	logger.Info().
		Str("target", target.Redacted()).
		Int("max_attempts", maxAttempts).
		Dur("delay", g.Delay).
		Msg("checking database connection")

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		handle, err := connect(ctx)
		if err == nil {
			logger.Info().Int("attempt", attempt).Msg("database connection successful")
			return handle, nil
		}
		lastErr = err

		if errors.Is(err, ErrInvalidTarget) {
			logger.Error().Err(err).Str("target", target.Redacted()).Msg("database target is invalid, not retrying")
			return nil, &StartupError{Target: target.Redacted(), Attempts: attempt, Err: err}
		}

		if attempt == maxAttempts {
			break
		}

		logger.Warn().
			Err(err).
			Int("attempt", attempt).
			Int("max_attempts", maxAttempts).
			Dur("retry_in", g.Delay).
			Msgf("database not ready yet (attempt %d/%d)", attempt, maxAttempts)

		if g.OnRetry != nil {
			g.OnRetry(attempt, err)
		}

		if err := sleep(ctx, clock, g.Delay); err != nil {
			logger.Error().Err(err).Int("attempt", attempt).Msg("database connection wait cancelled")
			return nil, &StartupError{
				Target:   target.Redacted(),
				Attempts: attempt,
				Err:      fmt.Errorf("wait cancelled: %w", err),
			}
		}
	}

	logger.Error().
		Err(lastErr).
		Str("target", target.Redacted()).
		Int("attempts", maxAttempts).
		Msg("could not connect to the database after multiple retries")

	return nil, &StartupError{Target: target.Redacted(), Attempts: maxAttempts, Err: lastErr}
}

func sleep(ctx context.Context, clock clockwork.Clock, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}
	select {
	case <-clock.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Connect returns a ConnectFunc that opens target and runs SELECT 1 against
// it, giving each attempt at most timeout.
func Connect(target Target, timeout time.Duration) ConnectFunc {
	return func(ctx context.Context) (*sql.DB, error) {
		if target.IsMemory() || target.Driver == "" {
			return nil, fmt.Errorf("%w: %s has no sql driver", ErrInvalidTarget, target.Redacted())
		}

		conn, err := sql.Open(target.Driver, target.DSN)
		if err != nil {
			// sql.Open only fails for unknown drivers
			return nil, fmt.Errorf("%w: %v", ErrInvalidTarget, err)
		}

		if timeout <= 0 {
			timeout = DefaultConnectTimeout
		}
		pingCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		if err := livenessCheck(pingCtx, conn); err != nil {
			conn.Close()
			return nil, err
		}
		return conn, nil
	}
}

func livenessCheck(ctx context.Context, conn *sql.DB) error {
	if err := conn.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	var one int
	if err := conn.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("liveness query failed: %w", err)
	}
	return nil
}
