package lock

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"
)

// PostgresLocker implements Locker with pg_advisory_lock. Each acquired
// lock pins one connection from the pool until released; Postgres frees
// the lock automatically if the session dies.
type PostgresLocker struct {
	db *sql.DB
}

// NewPostgresLocker creates a new advisory locker backed by db
func NewPostgresLocker(db *sql.DB) *PostgresLocker {
	return &PostgresLocker{db: db}
}

// Acquire takes the advisory lock for key, waiting at most timeout
func (l *PostgresLocker) Acquire(ctx context.Context, key string, timeout time.Duration) (Handle, error) {
	conn, err := l.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get connection for lock: %w", err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// hashtext maps the string key onto the bigint advisory lock space
	_, err = conn.ExecContext(waitCtx, `SELECT pg_advisory_lock(hashtext($1))`, key)
	if err != nil {
		conn.Close()
		if errors.Is(waitCtx.Err(), context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return nil, fmt.Errorf("failed to acquire advisory lock: %w", err)
	}

	return &postgresHandle{conn: conn, key: key}, nil
}

type postgresHandle struct {
	conn *sql.Conn
	key  string
	once sync.Once
}

func (h *postgresHandle) Release() {
	h.once.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		// Best effort: closing the connection releases the lock anyway
		_, _ = h.conn.ExecContext(ctx, `SELECT pg_advisory_unlock(hashtext($1))`, h.key)
		h.conn.Close()
	})
}
