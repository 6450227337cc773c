package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/estnia/copyU/internal/util"
)

// Limits is the read-only settings contract the store consumes. The
// config layer owns the values; the store never writes them.
type Limits interface {
	// MaxRecordSize is the byte cap for a single record; 0 disables it.
	MaxRecordSize() int64
	// MaxAge is how long records are retained; 0 disables sweeping.
	MaxAge() time.Duration
	// SweepInterval is the period of the background retention sweep.
	SweepInterval() time.Duration
}

// CaptureResult reports where a capture landed. Deduplicated is a status,
// not an error: callers get the predecessor's id and may treat it as the
// capture's home either way.
type CaptureResult struct {
	ID           int64
	Deduplicated bool
}

// Store is a durable, ordered, size- and age-bounded log of clipboard
// snapshots. All mutations are serialized; reads may run concurrently.
type Store struct {
	db     *bun.DB
	limits Limits

	// mu serializes mutations. The predecessor dedup check is
	// read-then-conditionally-write and must not interleave.
	mu              sync.Mutex
	lastID          int64
	lastFingerprint string

	cbMu     sync.Mutex
	onChange []func()

	sweepKick chan struct{}
}

func Open(dbPath string, limits Limits) (*Store, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows a single writer; a larger pool just trades inserts
	// for busy errors.
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	s := &Store{
		db:        db,
		limits:    limits,
		sweepKick: make(chan struct{}, 1),
	}

	ctx := context.Background()
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	if err := s.loadPredecessor(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to load newest record: %w", err)
	}

	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.db.NewCreateTable().Model((*Record)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	// Display order is created_at desc with id as the tie breaker.
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_records_created_at ON clipboard_records(created_at DESC, id DESC)",
	}
	for _, idx := range indexes {
		if _, err := s.db.ExecContext(ctx, idx); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}

// loadPredecessor re-derives the dedup state from the newest stored row,
// so that restarting the process does not break predecessor dedup.
// Callers must hold mu or have exclusive access.
func (s *Store) loadPredecessor(ctx context.Context) error {
	rec := new(Record)
	err := s.db.NewSelect().
		Model(rec).
		OrderExpr("created_at DESC, id DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.lastID = 0
			s.lastFingerprint = ""
			return nil
		}
		return err
	}

	s.lastID = rec.ID
	s.lastFingerprint = util.Fingerprint(rec.HTML, rec.Plain)
	return nil
}

// Capture persists a new clipboard snapshot. A snapshot identical to the
// most recently stored record is a no-op that returns the predecessor's
// id with Deduplicated set.
func (s *Store) Capture(ctx context.Context, html, plain, sourceApp string) (CaptureResult, error) {
	return s.captureAt(ctx, html, plain, sourceApp, time.Now())
}

func (s *Store) captureAt(ctx context.Context, html, plain, sourceApp string, at time.Time) (CaptureResult, error) {
	if html == "" && plain == "" {
		return CaptureResult{}, ErrEmptyContent
	}

	size := int64(len(html) + len(plain))
	if max := s.limits.MaxRecordSize(); max > 0 && size > max {
		return CaptureResult{}, fmt.Errorf("%w: %d bytes (max %d)", ErrTooLarge, size, max)
	}

	fp := util.Fingerprint(html, plain)

	s.mu.Lock()
	if s.lastID != 0 && fp == s.lastFingerprint {
		id := s.lastID
		s.mu.Unlock()
		return CaptureResult{ID: id, Deduplicated: true}, nil
	}

	rec := &Record{
		HTML:      html,
		Plain:     plain,
		SourceApp: sourceApp,
		SizeBytes: size,
		CreatedAt: at,
	}
	if _, err := s.db.NewInsert().Model(rec).Exec(ctx); err != nil {
		s.mu.Unlock()
		return CaptureResult{}, &storageError{op: "failed to insert record", err: err}
	}
	s.lastID = rec.ID
	s.lastFingerprint = fp
	s.mu.Unlock()

	s.kickSweep()
	s.notify()
	return CaptureResult{ID: rec.ID}, nil
}

type listRow struct {
	ID        int64     `bun:"id"`
	Plain     string    `bun:"plain"`
	HTMLHead  string    `bun:"html_head"`
	HTMLLen   int64     `bun:"html_len"`
	SourceApp string    `bun:"source_app"`
	SizeBytes int64     `bun:"size_bytes"`
	CreatedAt time.Time `bun:"created_at"`
}

// List returns record summaries ordered newest first. limit 0 means no
// cap; negative limit/offset are treated as zero.
func (s *Store) List(ctx context.Context, limit, offset int) ([]Summary, error) {
	return s.listWhere(ctx, "", limit, offset)
}

// Search returns summaries whose plain text contains query, newest first.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]Summary, error) {
	return s.listWhere(ctx, query, limit, 0)
}

func (s *Store) listWhere(ctx context.Context, query string, limit, offset int) ([]Summary, error) {
	var rows []listRow

	q := s.db.NewSelect().
		Model((*Record)(nil)).
		Column("id", "source_app", "size_bytes", "created_at").
		ColumnExpr("substr(plain, 1, ?) AS plain", previewFetchBytes).
		ColumnExpr("substr(html, 1, ?) AS html_head", previewFetchBytes).
		ColumnExpr("length(html) AS html_len").
		OrderExpr("created_at DESC, id DESC")

	if query != "" {
		q = q.Where("plain LIKE ?", "%"+query+"%")
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}

	if err := q.Scan(ctx, &rows); err != nil {
		return nil, &storageError{op: "failed to list records", err: err}
	}

	summaries := make([]Summary, 0, len(rows))
	for _, row := range rows {
		summaries = append(summaries, Summary{
			ID:        row.ID,
			Preview:   makePreview(row.Plain, row.HTMLHead),
			SourceApp: row.SourceApp,
			SizeBytes: row.SizeBytes,
			HasHTML:   row.HTMLLen > 0,
			CreatedAt: row.CreatedAt,
		})
	}
	return summaries, nil
}

// Get returns the full content of a record.
func (s *Store) Get(ctx context.Context, id int64) (*Record, error) {
	rec := new(Record)
	err := s.db.NewSelect().Model(rec).Where("id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, &storageError{op: "failed to get record", err: err}
	}
	return rec, nil
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	n, err := s.db.NewSelect().Model((*Record)(nil)).Count(ctx)
	if err != nil {
		return 0, &storageError{op: "failed to count records", err: err}
	}
	return n, nil
}

// Delete removes a single record.
func (s *Store) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()

	res, err := s.db.NewDelete().Model((*Record)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		s.mu.Unlock()
		return &storageError{op: "failed to delete record", err: err}
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		s.mu.Unlock()
		return ErrNotFound
	}

	// Deleting the newest record promotes the next one to predecessor.
	if id == s.lastID {
		if err := s.loadPredecessor(ctx); err != nil {
			s.mu.Unlock()
			return &storageError{op: "failed to reload newest record", err: err}
		}
	}
	s.mu.Unlock()

	s.notify()
	return nil
}

// ClearAll removes every record. Idempotent on an empty store.
func (s *Store) ClearAll(ctx context.Context) error {
	s.mu.Lock()

	if _, err := s.db.NewDelete().Model((*Record)(nil)).Where("1=1").Exec(ctx); err != nil {
		s.mu.Unlock()
		return &storageError{op: "failed to clear records", err: err}
	}
	s.lastID = 0
	s.lastFingerprint = ""
	s.mu.Unlock()

	s.notify()
	return nil
}

// RunRetentionSweep deletes records older than maxAge relative to now and
// returns how many were removed. The delete is a single statement, so a
// failed sweep leaves the store untouched. maxAge <= 0 disables sweeping.
func (s *Store) RunRetentionSweep(ctx context.Context, now time.Time, maxAge time.Duration) (int, error) {
	if maxAge <= 0 {
		return 0, nil
	}
	cutoff := now.Add(-maxAge)

	s.mu.Lock()

	res, err := s.db.NewDelete().Model((*Record)(nil)).Where("created_at < ?", cutoff).Exec(ctx)
	if err != nil {
		s.mu.Unlock()
		return 0, &storageError{op: "failed to sweep records", err: err}
	}
	n, _ := res.RowsAffected()

	if n > 0 {
		if err := s.loadPredecessor(ctx); err != nil {
			s.mu.Unlock()
			return int(n), &storageError{op: "failed to reload newest record", err: err}
		}
	}
	s.mu.Unlock()

	if n > 0 {
		s.notify()
	}
	return int(n), nil
}

// OnChange registers a callback fired after every successful mutation, so
// a list view can refresh. Callbacks run outside the mutation lock and
// must not block for long.
func (s *Store) OnChange(fn func()) {
	s.cbMu.Lock()
	s.onChange = append(s.onChange, fn)
	s.cbMu.Unlock()
}

func (s *Store) notify() {
	s.cbMu.Lock()
	callbacks := make([]func(), len(s.onChange))
	copy(callbacks, s.onChange)
	s.cbMu.Unlock()

	for _, fn := range callbacks {
		fn()
	}
}

// kickSweep requests an opportunistic retention pass without blocking the
// capture path. Pending kicks coalesce.
func (s *Store) kickSweep() {
	select {
	case s.sweepKick <- struct{}{}:
	default:
	}
}

func (s *Store) Close() error {
	return s.db.Close()
}
