package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/swiftloan/backend/internal/feed"
)

// NotifyChannel must match the pg_notify call in the loan_applications
// trigger migration.
const NotifyChannel = "loan_application_updates"

// ChangeListener holds one pooled connection in LISTEN mode and decodes the
// trigger payloads into row changes.
type ChangeListener struct {
	pool    *pgxpool.Pool
	channel string
	logger  *slog.Logger
}

func NewChangeListener(pool *pgxpool.Pool, logger *slog.Logger) *ChangeListener {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChangeListener{pool: pool, channel: NotifyChannel, logger: logger}
}

func (l *ChangeListener) Listen(ctx context.Context, handle func(ctx context.Context, rc feed.RowChange) error) error {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire listener conn: %w", err)
	}
	// A connection left in LISTEN mode must not go back to the pool.
	defer func() {
		_ = conn.Conn().Close(context.Background())
		conn.Release()
	}()

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{l.channel}.Sanitize()); err != nil {
		return fmt.Errorf("listen %s: %w", l.channel, err)
	}
	l.logger.Info("listening for application changes", "channel", l.channel)

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("wait notification: %w", err)
		}
		var rc feed.RowChange
		if err := json.Unmarshal([]byte(n.Payload), &rc); err != nil || rc.ID == "" {
			l.logger.Warn("skip malformed change payload", "payload", n.Payload, "err", err)
			continue
		}
		if err := handle(ctx, rc); err != nil {
			l.logger.Error("handle application change failed", "id", rc.ID, "op", rc.Op, "err", err)
		}
	}
}
