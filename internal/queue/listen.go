package queue

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ListenAndSignal holds a dedicated connection on the queue's notify channel
// and pulses signalCh whenever a task is enqueued. Reconnects on any error;
// workers tolerate missed pulses because they also poll.
func ListenAndSignal(ctx context.Context, dsn, queue string, signalCh chan<- struct{}) {
	channel := NotifyChannel(queue)
	for {
		if ctx.Err() != nil {
			return
		}

		conn, err := pgxpool.New(ctx, dsn)
		if err != nil {
			slog.Error("failed to connect for LISTEN", "channel", channel, "error", err)
			time.Sleep(5 * time.Second)
			continue
		}

		c, err := conn.Acquire(ctx)
		if err != nil {
			slog.Error("failed to acquire connection for LISTEN", "channel", channel, "error", err)
			conn.Close()
			time.Sleep(5 * time.Second)
			continue
		}

		_, err = c.Exec(ctx, "LISTEN "+channel)
		if err != nil {
			slog.Error("LISTEN failed", "channel", channel, "error", err)
			c.Release()
			conn.Close()
			time.Sleep(5 * time.Second)
			continue
		}

		slog.Info("listening for notifications", "channel", channel)

		for {
			if ctx.Err() != nil {
				c.Release()
				conn.Close()
				return
			}

			_, err := c.Conn().WaitForNotification(ctx)
			if err != nil {
				if ctx.Err() == nil {
					slog.Error("wait for notification failed", "channel", channel, "error", err)
				}
				c.Release()
				conn.Close()
				break
			}

			select {
			case signalCh <- struct{}{}:
			default:
			}
		}
	}
}
