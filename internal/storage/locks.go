package db

import (
	"context"
	"fmt"

	apperrors "github.com/lueurxax/humor-review-scout/internal/core/errors"
)

// TryLockCycle takes the session-level cycle lock on a dedicated connection.
// The returned function releases the lock and the connection.
func (db *DB) TryLockCycle(ctx context.Context) (func(), error) {
	conn, err := db.Pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	var acquired bool
	if err := conn.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", cycleLockID).Scan(&acquired); err != nil {
		conn.Release()

		return nil, fmt.Errorf("try acquire advisory lock: %w", err)
	}

	if !acquired {
		conn.Release()

		return nil, apperrors.ErrCycleLocked
	}

	return func() {
		//nolint:errcheck // advisory unlock is best-effort, lock released on connection close anyway
		_, _ = conn.Exec(context.Background(), "SELECT pg_advisory_unlock($1)", cycleLockID)
		conn.Release()
	}, nil
}
