package store

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type testLimits struct {
	maxSize  int64
	maxAge   time.Duration
	interval time.Duration
}

func (l testLimits) MaxRecordSize() int64         { return l.maxSize }
func (l testLimits) MaxAge() time.Duration        { return l.maxAge }
func (l testLimits) SweepInterval() time.Duration { return l.interval }

var defaultLimits = testLimits{
	maxSize:  1 << 20, // 1MB
	maxAge:   3 * 24 * time.Hour,
	interval: time.Hour,
}

func newTestStore(t *testing.T, limits Limits) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"), limits)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func mustCapture(t *testing.T, s *Store, html, plain string) CaptureResult {
	t.Helper()
	res, err := s.Capture(context.Background(), html, plain, "")
	if err != nil {
		t.Fatalf("Capture(%q, %q) failed: %v", html, plain, err)
	}
	return res
}

func mustCount(t *testing.T, s *Store) int {
	t.Helper()
	n, err := s.Count(context.Background())
	if err != nil {
		t.Fatalf("Count() failed: %v", err)
	}
	return n
}

func TestCaptureAndList(t *testing.T) {
	s := newTestStore(t, defaultLimits)
	ctx := context.Background()

	res := mustCapture(t, s, "<b>hi</b>", "hi")
	if res.ID != 1 {
		t.Errorf("Expected first id 1, got %d", res.ID)
	}
	if res.Deduplicated {
		t.Errorf("First capture must not be deduplicated")
	}

	summaries, err := s.List(ctx, 10, 0)
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("Expected 1 summary, got %d", len(summaries))
	}
	if summaries[0].ID != res.ID {
		t.Errorf("Expected id %d, got %d", res.ID, summaries[0].ID)
	}
	if summaries[0].Preview != "hi" {
		t.Errorf("Expected preview %q, got %q", "hi", summaries[0].Preview)
	}
	if !summaries[0].HasHTML {
		t.Errorf("Expected HasHTML for a record with html content")
	}
	if summaries[0].SizeBytes != int64(len("<b>hi</b>")+len("hi")) {
		t.Errorf("Unexpected size: %d", summaries[0].SizeBytes)
	}
}

func TestCaptureRejectsEmpty(t *testing.T) {
	s := newTestStore(t, defaultLimits)

	_, err := s.Capture(context.Background(), "", "", "editor")
	if !errors.Is(err, ErrEmptyContent) {
		t.Errorf("Expected ErrEmptyContent, got %v", err)
	}
	if n := mustCount(t, s); n != 0 {
		t.Errorf("Store should be empty, has %d records", n)
	}
}

func TestCaptureSizeCap(t *testing.T) {
	s := newTestStore(t, testLimits{maxSize: 16, maxAge: defaultLimits.maxAge, interval: time.Hour})

	_, err := s.Capture(context.Background(), "", strings.Repeat("x", 17), "")
	if !errors.Is(err, ErrTooLarge) {
		t.Errorf("Expected ErrTooLarge, got %v", err)
	}
	if n := mustCount(t, s); n != 0 {
		t.Errorf("Oversized capture must not be stored, count = %d", n)
	}

	// Combined html+plain size counts, not either blob alone.
	_, err = s.Capture(context.Background(), strings.Repeat("a", 10), strings.Repeat("b", 10), "")
	if !errors.Is(err, ErrTooLarge) {
		t.Errorf("Expected ErrTooLarge for combined size, got %v", err)
	}

	if _, err := s.Capture(context.Background(), "", strings.Repeat("x", 16), ""); err != nil {
		t.Errorf("Capture at exactly the cap should succeed, got %v", err)
	}
}

func TestCaptureDedupPredecessorOnly(t *testing.T) {
	s := newTestStore(t, defaultLimits)

	first := mustCapture(t, s, "x", "x")

	dup := mustCapture(t, s, "x", "x")
	if !dup.Deduplicated {
		t.Errorf("Second identical capture should be deduplicated")
	}
	if dup.ID != first.ID {
		t.Errorf("Dedup should return predecessor id %d, got %d", first.ID, dup.ID)
	}
	if n := mustCount(t, s); n != 1 {
		t.Errorf("Expected 1 record after dedup, got %d", n)
	}

	// Different content breaks the run.
	mustCapture(t, s, "", "y")

	// Re-capturing the old content is a new record: dedup is
	// predecessor-only, not history-wide.
	again := mustCapture(t, s, "x", "x")
	if again.Deduplicated {
		t.Errorf("Capture after intervening content must not be deduplicated")
	}
	if again.ID == first.ID {
		t.Errorf("Re-capture should get a fresh id, got %d again", first.ID)
	}
	if n := mustCount(t, s); n != 3 {
		t.Errorf("Expected 3 records, got %d", n)
	}
}

func TestDedupDistinguishesHTMLFromPlain(t *testing.T) {
	s := newTestStore(t, defaultLimits)

	mustCapture(t, s, "x", "")
	res := mustCapture(t, s, "", "x")
	if res.Deduplicated {
		t.Errorf("html-only and plain-only snapshots with equal text are different records")
	}
}

func TestDedupSurvivesReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(dbPath, defaultLimits)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	first, err := s.Capture(context.Background(), "", "persist me", "")
	if err != nil {
		t.Fatalf("Capture() failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	reopened, err := Open(dbPath, defaultLimits)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	res, err := reopened.Capture(context.Background(), "", "persist me", "")
	if err != nil {
		t.Fatalf("Capture() after reopen failed: %v", err)
	}
	if !res.Deduplicated || res.ID != first.ID {
		t.Errorf("Dedup state should be re-derived from the newest row, got %+v", res)
	}
}

func TestListOrdering(t *testing.T) {
	s := newTestStore(t, defaultLimits)
	ctx := context.Background()
	base := time.Now()

	// Inserted out of chronological order on purpose.
	if _, err := s.captureAt(ctx, "", "middle", "", base.Add(-1*time.Hour)); err != nil {
		t.Fatalf("captureAt failed: %v", err)
	}
	if _, err := s.captureAt(ctx, "", "oldest", "", base.Add(-2*time.Hour)); err != nil {
		t.Fatalf("captureAt failed: %v", err)
	}
	if _, err := s.captureAt(ctx, "", "newest", "", base); err != nil {
		t.Fatalf("captureAt failed: %v", err)
	}

	summaries, err := s.List(ctx, 0, 0)
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	got := make([]string, 0, len(summaries))
	for _, sm := range summaries {
		got = append(got, sm.Preview)
	}
	want := []string{"newest", "middle", "oldest"}
	if len(got) != len(want) {
		t.Fatalf("Expected %d summaries, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Position %d: expected %q, got %q", i, want[i], got[i])
		}
	}

	for i := 1; i < len(summaries); i++ {
		if summaries[i].CreatedAt.After(summaries[i-1].CreatedAt) {
			t.Errorf("created_at not descending at position %d", i)
		}
	}
}

func TestListLimitOffset(t *testing.T) {
	s := newTestStore(t, defaultLimits)
	ctx := context.Background()
	base := time.Now()

	for i := 0; i < 5; i++ {
		if _, err := s.captureAt(ctx, "", string(rune('a'+i)), "", base.Add(time.Duration(i)*time.Second)); err != nil {
			t.Fatalf("captureAt failed: %v", err)
		}
	}

	all, err := s.List(ctx, 0, 0)
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(all) != 5 {
		t.Errorf("limit 0 should return everything, got %d", len(all))
	}

	page, err := s.List(ctx, 2, 1)
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("Expected 2 summaries, got %d", len(page))
	}
	if page[0].Preview != "d" || page[1].Preview != "c" {
		t.Errorf("Expected previews [d c], got [%s %s]", page[0].Preview, page[1].Preview)
	}

	// Negative values behave like zero rather than erroring.
	if _, err := s.List(ctx, -1, -1); err != nil {
		t.Errorf("List() with negative args failed: %v", err)
	}
}

func TestRetentionSweep(t *testing.T) {
	s := newTestStore(t, defaultLimits)
	ctx := context.Background()
	now := time.Now()

	if _, err := s.captureAt(ctx, "", "five days old", "", now.Add(-5*24*time.Hour)); err != nil {
		t.Fatalf("captureAt failed: %v", err)
	}
	if _, err := s.captureAt(ctx, "", "one day old", "", now.Add(-24*time.Hour)); err != nil {
		t.Fatalf("captureAt failed: %v", err)
	}

	removed, err := s.RunRetentionSweep(ctx, now, 3*24*time.Hour)
	if err != nil {
		t.Fatalf("RunRetentionSweep() failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("Expected 1 record removed, got %d", removed)
	}

	summaries, err := s.List(ctx, 0, 0)
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(summaries) != 1 || summaries[0].Preview != "one day old" {
		t.Errorf("Sweep should keep only the fresh record, got %+v", summaries)
	}
}

func TestRetentionSweepBoundary(t *testing.T) {
	s := newTestStore(t, defaultLimits)
	ctx := context.Background()
	now := time.Now()
	maxAge := 3 * 24 * time.Hour

	// Exactly max_age old: now - created_at is not strictly greater.
	if _, err := s.captureAt(ctx, "", "boundary", "", now.Add(-maxAge)); err != nil {
		t.Fatalf("captureAt failed: %v", err)
	}

	removed, err := s.RunRetentionSweep(ctx, now, maxAge)
	if err != nil {
		t.Fatalf("RunRetentionSweep() failed: %v", err)
	}
	if removed != 0 {
		t.Errorf("Record exactly at max_age must survive, removed %d", removed)
	}
}

func TestRetentionSweepDisabled(t *testing.T) {
	s := newTestStore(t, defaultLimits)
	ctx := context.Background()

	if _, err := s.captureAt(ctx, "", "ancient", "", time.Now().Add(-365*24*time.Hour)); err != nil {
		t.Fatalf("captureAt failed: %v", err)
	}

	removed, err := s.RunRetentionSweep(ctx, time.Now(), 0)
	if err != nil {
		t.Fatalf("RunRetentionSweep() failed: %v", err)
	}
	if removed != 0 || mustCount(t, s) != 1 {
		t.Errorf("maxAge 0 must disable sweeping")
	}
}

func TestGetReturnsImmutableContent(t *testing.T) {
	s := newTestStore(t, defaultLimits)
	ctx := context.Background()

	res := mustCapture(t, s, "<i>a</i>", "a")

	before, err := s.Get(ctx, res.ID)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}

	mustCapture(t, s, "", "unrelated")

	after, err := s.Get(ctx, res.ID)
	if err != nil {
		t.Fatalf("Get() after unrelated capture failed: %v", err)
	}
	if before.HTML != after.HTML || before.Plain != after.Plain || !before.CreatedAt.Equal(after.CreatedAt) {
		t.Errorf("Record %d changed between reads: %+v vs %+v", res.ID, before, after)
	}
}

func TestGetNotFound(t *testing.T) {
	s := newTestStore(t, defaultLimits)

	_, err := s.Get(context.Background(), 42)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	s := newTestStore(t, defaultLimits)
	ctx := context.Background()

	res := mustCapture(t, s, "", "forget me")
	if err := s.Delete(ctx, res.ID); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if _, err := s.Get(ctx, res.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Deleted record should be gone, got %v", err)
	}

	if err := s.Delete(ctx, res.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Deleting a missing id should return ErrNotFound, got %v", err)
	}
}

func TestDeleteNewestPromotesPredecessor(t *testing.T) {
	s := newTestStore(t, defaultLimits)
	ctx := context.Background()

	mustCapture(t, s, "", "a")
	newest := mustCapture(t, s, "", "b")

	if err := s.Delete(ctx, newest.ID); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}

	// "a" is the predecessor again, so capturing it is a no-op...
	res := mustCapture(t, s, "", "a")
	if !res.Deduplicated {
		t.Errorf("Capture matching the promoted predecessor should dedup")
	}

	// ...while the deleted content inserts fresh.
	res = mustCapture(t, s, "", "b")
	if res.Deduplicated {
		t.Errorf("Capture of deleted content must insert a new record")
	}
	if res.ID == newest.ID {
		t.Errorf("Ids must not be reused after delete")
	}
}

func TestClearAll(t *testing.T) {
	s := newTestStore(t, defaultLimits)
	ctx := context.Background()

	mustCapture(t, s, "", "a")
	mustCapture(t, s, "", "b")

	if err := s.ClearAll(ctx); err != nil {
		t.Fatalf("ClearAll() failed: %v", err)
	}
	if n := mustCount(t, s); n != 0 {
		t.Errorf("Expected empty store, got %d records", n)
	}

	// Idempotent on an empty store.
	if err := s.ClearAll(ctx); err != nil {
		t.Errorf("ClearAll() on empty store failed: %v", err)
	}

	// Dedup state resets with the history.
	res := mustCapture(t, s, "", "a")
	if res.Deduplicated {
		t.Errorf("Capture after ClearAll must insert")
	}
}

func TestSearch(t *testing.T) {
	s := newTestStore(t, defaultLimits)
	ctx := context.Background()

	mustCapture(t, s, "", "alpha report")
	mustCapture(t, s, "", "beta notes")
	mustCapture(t, s, "<b>alpha</b>", "gamma") // html is not searched

	hits, err := s.Search(ctx, "alpha", 0)
	if err != nil {
		t.Fatalf("Search() failed: %v", err)
	}
	if len(hits) != 1 || hits[0].Preview != "alpha report" {
		t.Errorf("Expected a single plain-text match, got %+v", hits)
	}

	hits, err = s.Search(ctx, "nomatch", 0)
	if err != nil {
		t.Fatalf("Search() failed: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("Expected no matches, got %d", len(hits))
	}
}

func TestOnChange(t *testing.T) {
	s := newTestStore(t, defaultLimits)
	ctx := context.Background()

	var fired int
	s.OnChange(func() { fired++ })

	mustCapture(t, s, "", "a")
	if fired != 1 {
		t.Errorf("Expected 1 notification after insert, got %d", fired)
	}

	// Dedup hit mutates nothing and stays silent.
	mustCapture(t, s, "", "a")
	if fired != 1 {
		t.Errorf("Dedup must not notify, got %d", fired)
	}

	res := mustCapture(t, s, "", "b")
	if err := s.Delete(ctx, res.ID); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if err := s.ClearAll(ctx); err != nil {
		t.Fatalf("ClearAll() failed: %v", err)
	}
	if fired != 4 {
		t.Errorf("Expected 4 notifications, got %d", fired)
	}

	// A sweep that removes nothing stays silent too.
	if _, err := s.RunRetentionSweep(ctx, time.Now(), time.Hour); err != nil {
		t.Fatalf("RunRetentionSweep() failed: %v", err)
	}
	if fired != 4 {
		t.Errorf("Empty sweep must not notify, got %d", fired)
	}
}

func TestPreviewTruncation(t *testing.T) {
	long := strings.Repeat("0123456789", 10)
	preview := makePreview(long, "")
	if len([]rune(preview)) != previewRunes+3 {
		t.Errorf("Expected %d runes plus ellipsis, got %d", previewRunes, len([]rune(preview)))
	}
	if !strings.HasSuffix(preview, "...") {
		t.Errorf("Truncated preview should end with ellipsis: %q", preview)
	}

	multiline := "first line\nsecond\tline"
	if got := makePreview(multiline, ""); got != "first line second line" {
		t.Errorf("Expected collapsed whitespace, got %q", got)
	}

	// Plain text missing: fall back to the html blob.
	if got := makePreview("", "<b>hi</b>"); got != "<b>hi</b>" {
		t.Errorf("Expected html fallback, got %q", got)
	}
}
