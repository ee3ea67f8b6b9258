package feed

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/logger"
)

// Channel is the Postgres NOTIFY channel the leads trigger writes to.
const Channel = "lead_changes"

// reconnectDelay is how long the listener waits before re-acquiring a
// connection after the previous one failed.
const reconnectDelay = 2 * time.Second

// Listener forwards Postgres notifications on Channel to a Publisher.
type Listener struct {
	pool      *pgxpool.Pool
	publisher Publisher
	log       *logger.Logger
	channel   string
}

// NewListener creates a Listener on the leads change channel.
func NewListener(pool *pgxpool.Pool, publisher Publisher, log *logger.Logger) *Listener {
	return &Listener{pool: pool, publisher: publisher, log: log, channel: Channel}
}

// Run listens until ctx is cancelled. A dropped connection is re-established
// after a short delay.
func (l *Listener) Run(ctx context.Context) error {
	for {
		err := l.listen(ctx)
		if ctx.Err() != nil {
			return nil
		}
		l.log.Error("Lead change listener disconnected", err, map[string]interface{}{
			"channel": l.channel,
			"retry":   reconnectDelay.String(),
		})

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(reconnectDelay):
		}
	}
}

func (l *Listener) listen(ctx context.Context) error {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{l.channel}.Sanitize()); err != nil {
		return err
	}
	l.log.Info("Listening for lead changes", map[string]interface{}{"channel": l.channel})

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		ev, err := Decode([]byte(n.Payload))
		if err != nil {
			l.log.Warn("Ignoring malformed lead notification", map[string]interface{}{
				"payload": n.Payload,
				"error":   err.Error(),
			})
			continue
		}
		l.publisher.Publish(ev)
	}
}
