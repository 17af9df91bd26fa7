package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"thirdcoast.systems/reclip/internal/db"
)

const (
	// Dead-letter rings are bounded so the tables stay small enough to
	// eyeball in psql.
	failureRingSize    = 200
	completionRingSize = 100
)

// Policy controls retry behavior for a task at enqueue time.
type Policy struct {
	MaxAttempts int
	Backoff     time.Duration
}

// Task is a reserved unit of work. The reserving worker must finish with
// exactly one of Ack or Nack.
type Task struct {
	ID          uuid.UUID
	Queue       string
	Payload     []byte
	Attempts    int
	MaxAttempts int
	BackoffBase time.Duration
}

// Broker is a Postgres-backed task queue. Delivery is at-least-once:
// reservation uses FOR UPDATE SKIP LOCKED so concurrent workers never
// receive the same task, but a crashed worker's task comes back after the
// stuck-task sweep.
type Broker struct {
	db db.DBTX
}

func NewBroker(dbtx db.DBTX) *Broker {
	return &Broker{db: dbtx}
}

// NotifyChannel returns the LISTEN/NOTIFY channel name for a queue.
func NotifyChannel(queue string) string {
	return "queue_" + queue
}

// Enqueue inserts a task and notifies any listening worker. The notify is
// best-effort; workers also poll.
func (b *Broker) Enqueue(ctx context.Context, queue string, payload any, pol Policy) (uuid.UUID, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return uuid.Nil, fmt.Errorf("encode task payload: %w", err)
	}
	if pol.MaxAttempts < 1 {
		pol.MaxAttempts = 1
	}
	if pol.Backoff <= 0 {
		pol.Backoff = 2 * time.Second
	}

	id := uuid.New()
	_, err = b.db.Exec(ctx, `
		INSERT INTO queue_tasks (id, queue, payload, max_attempts, backoff_base_ms, status)
		VALUES ($1, $2, $3, $4, $5, 'pending')`,
		id, queue, body, pol.MaxAttempts, pol.Backoff.Milliseconds())
	if err != nil {
		return uuid.Nil, fmt.Errorf("enqueue %s task: %w", queue, err)
	}

	_, _ = b.db.Exec(ctx, "SELECT pg_notify($1, $2)", NotifyChannel(queue), id.String())
	return id, nil
}

// Reserve claims the oldest due pending task on the queue, or returns
// (nil, nil) when the queue is empty.
func (b *Broker) Reserve(ctx context.Context, queue, workerID string) (*Task, error) {
	row := b.db.QueryRow(ctx, `
		UPDATE queue_tasks
		SET status = 'running', attempts = attempts + 1,
		    locked_by = $2, locked_at = now(), updated_at = now()
		WHERE id = (
			SELECT id FROM queue_tasks
			WHERE queue = $1 AND status = 'pending' AND not_before <= now()
			ORDER BY not_before
			FOR UPDATE SKIP LOCKED
			LIMIT 1
		)
		RETURNING id, queue, payload, attempts, max_attempts, backoff_base_ms`,
		queue, workerID)

	var t Task
	var backoffMS int64
	err := row.Scan(&t.ID, &t.Queue, &t.Payload, &t.Attempts, &t.MaxAttempts, &backoffMS)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reserve %s task: %w", queue, err)
	}
	t.BackoffBase = time.Duration(backoffMS) * time.Millisecond
	return &t, nil
}

// Ack removes a finished task and records it in the completion ring.
func (b *Broker) Ack(ctx context.Context, t *Task) error {
	if _, err := b.db.Exec(ctx, `DELETE FROM queue_tasks WHERE id = $1`, t.ID); err != nil {
		return fmt.Errorf("ack %s task: %w", t.Queue, err)
	}
	_, _ = b.db.Exec(ctx, `
		INSERT INTO queue_task_completions (queue, task_id, attempts)
		VALUES ($1, $2, $3)`,
		t.Queue, t.ID, t.Attempts)
	_, _ = b.db.Exec(ctx, `
		DELETE FROM queue_task_completions
		WHERE queue = $1 AND id NOT IN (
			SELECT id FROM queue_task_completions
			WHERE queue = $1 ORDER BY id DESC LIMIT $2
		)`, t.Queue, completionRingSize)
	return nil
}

// Nack reports a failed attempt. Retriable failures below the attempt cap go
// back to pending after a backoff delay; everything else lands in the
// failure ring and the task row is removed.
func (b *Broker) Nack(ctx context.Context, t *Task, taskErr string, permanent bool) error {
	if !permanent && t.Attempts < t.MaxAttempts {
		delay := Delay(t.BackoffBase, t.Attempts)
		_, err := b.db.Exec(ctx, `
			UPDATE queue_tasks
			SET status = 'pending', not_before = now() + make_interval(secs => $2),
			    locked_by = NULL, locked_at = NULL,
			    last_error = $3, updated_at = now()
			WHERE id = $1`,
			t.ID, delay.Seconds(), taskErr)
		if err != nil {
			return fmt.Errorf("requeue %s task: %w", t.Queue, err)
		}
		return nil
	}

	if _, err := b.db.Exec(ctx, `
		INSERT INTO queue_task_failures (queue, task_id, payload, attempts, last_error)
		VALUES ($1, $2, $3, $4, $5)`,
		t.Queue, t.ID, t.Payload, t.Attempts, taskErr); err != nil {
		return fmt.Errorf("dead-letter %s task: %w", t.Queue, err)
	}
	_, _ = b.db.Exec(ctx, `
		DELETE FROM queue_task_failures
		WHERE queue = $1 AND id NOT IN (
			SELECT id FROM queue_task_failures
			WHERE queue = $1 ORDER BY id DESC LIMIT $2
		)`, t.Queue, failureRingSize)
	if _, err := b.db.Exec(ctx, `DELETE FROM queue_tasks WHERE id = $1`, t.ID); err != nil {
		return fmt.Errorf("remove dead %s task: %w", t.Queue, err)
	}
	return nil
}

// RequeueStuck returns tasks abandoned by crashed workers to the pending
// state. A reserved attempt counts against the cap, so a task that keeps
// killing its worker still dead-letters eventually.
func (b *Broker) RequeueStuck(ctx context.Context, queue string, olderThan time.Duration) (int64, error) {
	tag, err := b.db.Exec(ctx, `
		UPDATE queue_tasks
		SET status = 'pending', locked_by = NULL, locked_at = NULL, updated_at = now()
		WHERE queue = $1 AND status = 'running'
		  AND locked_at < now() - make_interval(secs => $2)`,
		queue, olderThan.Seconds())
	if err != nil {
		return 0, fmt.Errorf("requeue stuck %s tasks: %w", queue, err)
	}
	return tag.RowsAffected(), nil
}

// DeadLetterCount reports how many failed tasks the ring currently holds.
func (b *Broker) DeadLetterCount(ctx context.Context, queue string) (int64, error) {
	var n int64
	err := b.db.QueryRow(ctx,
		`SELECT count(*) FROM queue_task_failures WHERE queue = $1`, queue).Scan(&n)
	return n, err
}
