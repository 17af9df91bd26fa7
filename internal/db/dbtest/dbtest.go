// Package dbtest provides in-memory fakes for exercising query call sites
// without a live Postgres.
package dbtest

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"thirdcoast.systems/reclip/internal/db"
)

// Call is one statement seen by a Recorder.
type Call struct {
	SQL  string
	Args []any
}

// Recorder implements db.DBTX. Every statement is recorded; rows and errors
// are served by SQL substring, the longest matching key winning.
type Recorder struct {
	mu    sync.Mutex
	calls []Call

	// RowsBySubstring serves QueryRow scans. Values are assigned positionally
	// to the scan destinations; a nil value leaves the destination zero.
	RowsBySubstring map[string][]any
	// ErrBySubstring fails any statement whose SQL contains the key.
	ErrBySubstring map[string]error
	// TagBySubstring overrides the command tag, e.g. "UPDATE 0".
	TagBySubstring map[string]string
}

func (r *Recorder) record(sql string, args []any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{SQL: sql, Args: args})
}

func longestMatch[V any](m map[string]V, sql string) (V, bool) {
	var best V
	bestLen := -1
	for k, v := range m {
		if strings.Contains(sql, k) && len(k) > bestLen {
			best, bestLen = v, len(k)
		}
	}
	return best, bestLen >= 0
}

func (r *Recorder) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	r.record(sql, args)
	if err, ok := longestMatch(r.ErrBySubstring, sql); ok {
		return pgconn.CommandTag{}, err
	}
	if tag, ok := longestMatch(r.TagBySubstring, sql); ok {
		return pgconn.NewCommandTag(tag), nil
	}
	return pgconn.NewCommandTag("UPDATE 1"), nil
}

func (r *Recorder) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("dbtest: Query not supported")
}

func (r *Recorder) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	r.record(sql, args)
	if err, ok := longestMatch(r.ErrBySubstring, sql); ok {
		return errRow{err}
	}
	if vals, ok := longestMatch(r.RowsBySubstring, sql); ok {
		return valueRow{vals}
	}
	return errRow{pgx.ErrNoRows}
}

// Calls returns every recorded statement whose SQL contains substr.
func (r *Recorder) Calls(substr string) []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Call
	for _, c := range r.calls {
		if strings.Contains(c.SQL, substr) {
			out = append(out, c)
		}
	}
	return out
}

// Executed reports whether any recorded statement contains substr.
func (r *Recorder) Executed(substr string) bool {
	return len(r.Calls(substr)) > 0
}

type errRow struct{ err error }

func (r errRow) Scan(...any) error { return r.err }

type valueRow struct{ vals []any }

func (r valueRow) Scan(dest ...any) error {
	if len(dest) != len(r.vals) {
		return fmt.Errorf("dbtest: %d scan destinations for %d values", len(dest), len(r.vals))
	}
	for i, d := range dest {
		if r.vals[i] == nil {
			continue
		}
		dv := reflect.ValueOf(d).Elem()
		sv := reflect.ValueOf(r.vals[i])
		if !sv.Type().AssignableTo(dv.Type()) {
			if !sv.Type().ConvertibleTo(dv.Type()) {
				return fmt.Errorf("dbtest: cannot scan %T into %T", r.vals[i], d)
			}
			sv = sv.Convert(dv.Type())
		}
		dv.Set(sv)
	}
	return nil
}

// Tx wraps a Recorder in the pgx transaction interface.
type Tx struct {
	*Recorder
	Committed  bool
	RolledBack bool
}

func (t *Tx) Begin(context.Context) (pgx.Tx, error) { return t, nil }

func (t *Tx) Commit(context.Context) error {
	t.Committed = true
	return nil
}

func (t *Tx) Rollback(context.Context) error {
	if !t.Committed {
		t.RolledBack = true
	}
	return nil
}

func (t *Tx) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	return 0, errors.New("dbtest: CopyFrom not supported")
}

func (t *Tx) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults { return nil }

func (t *Tx) LargeObjects() pgx.LargeObjects { return pgx.LargeObjects{} }

func (t *Tx) Prepare(context.Context, string, string) (*pgconn.StatementDescription, error) {
	return nil, errors.New("dbtest: Prepare not supported")
}

func (t *Tx) Conn() *pgx.Conn { return nil }

// Store implements db.Store over a shared Recorder, so statements issued
// inside and outside the transaction land in one place.
type Store struct {
	Recorder *Recorder
	Tx       *Tx
}

func (s *Store) Queries(context.Context) *db.Queries { return db.New(s.Recorder) }

func (s *Store) NewWithTX(context.Context) (*db.Queries, pgx.Tx, error) {
	return db.New(s.Tx), s.Tx, nil
}
