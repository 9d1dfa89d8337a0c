package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/swiftloan/backend/internal/domain/application"
)

// RowChange is the notification payload emitted by the store trigger.
type RowChange struct {
	Op    string `json:"op"`
	Table string `json:"table"`
	ID    string `json:"id"`
}

type ChangeSource interface {
	Listen(ctx context.Context, handle func(ctx context.Context, rc RowChange) error) error
}

type ApplicationLoader interface {
	GetByID(ctx context.Context, id string) (*application.Application, error)
}

// Relay turns store notifications into full-row changes for a Publisher. A
// dropped listener connection is re-established after retryInterval; changes
// emitted while disconnected are not replayed.
type Relay struct {
	source        ChangeSource
	loader        ApplicationLoader
	publisher     Publisher
	logger        *slog.Logger
	retryInterval time.Duration
}

func NewRelay(source ChangeSource, loader ApplicationLoader, publisher Publisher, logger *slog.Logger, retryInterval time.Duration) *Relay {
	if retryInterval <= 0 {
		retryInterval = 2 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Relay{source: source, loader: loader, publisher: publisher, logger: logger, retryInterval: retryInterval}
}

func (r *Relay) Run(ctx context.Context) error {
	for {
		err := r.source.Listen(ctx, r.handle)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		r.logger.Warn("change listener stopped, reconnecting", "err", err, "retry_in", r.retryInterval.String())
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.retryInterval):
		}
	}
}

func (r *Relay) handle(ctx context.Context, rc RowChange) error {
	if rc.Table == "" {
		rc.Table = TableApplications
	}
	if rc.Op == EventDelete {
		return nil
	}
	app, err := r.loader.GetByID(ctx, rc.ID)
	if errors.Is(err, application.ErrNotFound) {
		r.logger.Warn("changed application vanished", "id", rc.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load changed application: %w", err)
	}
	return r.publisher.Publish(ctx, Change{Event: rc.Op, Table: rc.Table, Record: *app})
}
