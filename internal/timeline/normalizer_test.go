package timeline_test

import (
	"context"
	"testing"
	"time"

	"github.com/sudo-sidd/neuropilot/internal/model"
	"github.com/sudo-sidd/neuropilot/internal/store"
	"github.com/sudo-sidd/neuropilot/internal/timeline"
	"github.com/sudo-sidd/neuropilot/tests/testutil"
)

// newFixture returns a store with one action class and a normalizer over it.
func newFixture(t *testing.T) (*store.SQLiteStore, *timeline.Normalizer, string) {
	t.Helper()
	s := testutil.NewTestStore(t)
	ac, err := s.CreateActionClass(context.Background(), model.ActionClass{Name: "Focus"})
	if err != nil {
		t.Fatalf("creating action class: %v", err)
	}
	n := timeline.NewNormalizer(s, nil, 0)
	return s, n, ac.ID
}

func closedActivity(t *testing.T, s *store.SQLiteStore, classID string, start, end time.Time) *model.Activity {
	t.Helper()
	a, err := s.CreateActivity(context.Background(), model.Activity{
		ActionClassID: classID,
		StartTime:     start,
		EndTime:       &end,
	})
	if err != nil {
		t.Fatalf("creating activity: %v", err)
	}
	return a
}

func allActivities(t *testing.T, s *store.SQLiteStore) []model.Activity {
	t.Helper()
	from := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC)
	rows, err := s.GetActivities(context.Background(), from, to)
	if err != nil {
		t.Fatalf("listing activities: %v", err)
	}
	return rows
}

func TestSplitDayBoundary(t *testing.T) {
	s, n, classID := newFixture(t)
	ctx := context.Background()

	// 23:00 to 01:00 the next day crosses one UTC midnight.
	start := time.Date(2026, 3, 1, 23, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 2, 1, 0, 0, 0, time.UTC)
	a := closedActivity(t, s, classID, start, end)

	if err := n.NormalizeAfterWrite(ctx, a.ID); err != nil {
		t.Fatalf("normalizing: %v", err)
	}

	rows := allActivities(t, s)
	if len(rows) != 2 {
		t.Fatalf("got %d rows after split, want 2", len(rows))
	}
	midnight := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	if !rows[0].StartTime.Equal(start) || !rows[0].EndTime.Equal(midnight) {
		t.Errorf("first segment = [%v, %v), want [%v, %v)",
			rows[0].StartTime, rows[0].EndTime, start, midnight)
	}
	if !rows[1].StartTime.Equal(midnight) || !rows[1].EndTime.Equal(end) {
		t.Errorf("second segment = [%v, %v), want [%v, %v)",
			rows[1].StartTime, rows[1].EndTime, midnight, end)
	}
	for i, r := range rows {
		if r.DurationMS == nil || *r.DurationMS != 3600000 {
			t.Errorf("segment %d duration_ms = %v, want 3600000", i, r.DurationMS)
		}
		if r.ActionClassID != classID {
			t.Errorf("segment %d class = %s, want %s", i, r.ActionClassID, classID)
		}
	}
}

func TestSplitMultipleDays(t *testing.T) {
	s, n, classID := newFixture(t)
	ctx := context.Background()

	start := time.Date(2026, 3, 1, 22, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 3, 2, 0, 0, 0, time.UTC)
	a := closedActivity(t, s, classID, start, end)

	split, err := n.SplitDayBoundaries(ctx, a.ID)
	if err != nil {
		t.Fatalf("splitting: %v", err)
	}
	if !split {
		t.Error("split = false for a row crossing two midnights")
	}

	rows := allActivities(t, s)
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	if *rows[0].DurationMS != 2*3600000 {
		t.Errorf("first day duration = %d, want 2h", *rows[0].DurationMS)
	}
	if *rows[1].DurationMS != 24*3600000 {
		t.Errorf("middle day duration = %d, want 24h", *rows[1].DurationMS)
	}
	if *rows[2].DurationMS != 2*3600000 {
		t.Errorf("last day duration = %d, want 2h", *rows[2].DurationMS)
	}
}

func TestSplitExemptsRunningActivity(t *testing.T) {
	s, n, classID := newFixture(t)
	ctx := context.Background()

	// A running activity started yesterday stays a single open row.
	start := time.Date(2026, 3, 1, 23, 0, 0, 0, time.UTC)
	a, err := s.StartActivity(ctx, classID, "", start)
	if err != nil {
		t.Fatalf("starting activity: %v", err)
	}

	split, err := n.SplitDayBoundaries(ctx, a.ID)
	if err != nil {
		t.Fatalf("splitting: %v", err)
	}
	if split {
		t.Error("running activity was split")
	}
	rows := allActivities(t, s)
	if len(rows) != 1 || rows[0].EndTime != nil {
		t.Errorf("running row changed: %+v", rows)
	}
}

func TestOverlapClampsPredecessor(t *testing.T) {
	s, n, classID := newFixture(t)
	ctx := context.Background()

	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	older := closedActivity(t, s, classID, day.Add(10*time.Hour), day.Add(11*time.Hour))
	newer := closedActivity(t, s, classID, day.Add(10*time.Hour+30*time.Minute), day.Add(11*time.Hour+30*time.Minute))

	if err := n.NormalizeAfterWrite(ctx, newer.ID); err != nil {
		t.Fatalf("normalizing: %v", err)
	}

	got, err := s.GetActivityByID(ctx, older.ID)
	if err != nil {
		t.Fatalf("getting clamped row: %v", err)
	}
	wantEnd := newer.StartTime
	if !got.EndTime.Equal(wantEnd) {
		t.Errorf("predecessor end = %v, want %v", got.EndTime, wantEnd)
	}
	if *got.DurationMS != 30*60*1000 {
		t.Errorf("predecessor duration_ms = %d, want %d", *got.DurationMS, 30*60*1000)
	}

	// The newer row keeps its full range.
	got, err = s.GetActivityByID(ctx, newer.ID)
	if err != nil {
		t.Fatalf("getting newer row: %v", err)
	}
	if !got.StartTime.Equal(newer.StartTime) || !got.EndTime.Equal(*newer.EndTime) {
		t.Errorf("newer row changed: [%v, %v)", got.StartTime, got.EndTime)
	}
}

func TestSliverMergesIntoLargerFragment(t *testing.T) {
	s, n, classID := newFixture(t)
	ctx := context.Background()

	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	// Clamping the older row would leave 30 seconds, below the merge
	// threshold, so it is absorbed into the much larger newer row.
	sliver := closedActivity(t, s, classID, day.Add(10*time.Hour), day.Add(10*time.Hour+time.Minute))
	big := closedActivity(t, s, classID, day.Add(10*time.Hour+30*time.Second), day.Add(11*time.Hour))

	if err := n.NormalizeAfterWrite(ctx, big.ID); err != nil {
		t.Fatalf("normalizing: %v", err)
	}

	rows := allActivities(t, s)
	if len(rows) != 1 {
		t.Fatalf("got %d rows after merge, want 1", len(rows))
	}
	if rows[0].ID != big.ID {
		t.Errorf("survivor = %s, want the larger fragment %s", rows[0].ID, big.ID)
	}
	// The survivor covers the union of both ranges.
	if !rows[0].StartTime.Equal(sliver.StartTime) || !rows[0].EndTime.Equal(*big.EndTime) {
		t.Errorf("survivor = [%v, %v), want [%v, %v)",
			rows[0].StartTime, rows[0].EndTime, sliver.StartTime, *big.EndTime)
	}
	if *rows[0].DurationMS != 3600000 {
		t.Errorf("survivor duration_ms = %d, want 3600000", *rows[0].DurationMS)
	}
}

func TestSliverAbsorbedByPredecessor(t *testing.T) {
	s, n, classID := newFixture(t)
	ctx := context.Background()

	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	// The new row is itself tiny; clamping the predecessor to 30 seconds
	// would discard the bigger fragment, so the predecessor wins instead.
	older := closedActivity(t, s, classID, day.Add(10*time.Hour+30*time.Second), day.Add(10*time.Hour+90*time.Second))
	tiny := closedActivity(t, s, classID, day.Add(10*time.Hour+time.Minute), day.Add(10*time.Hour+80*time.Second))

	if err := n.NormalizeNeighbors(ctx, tiny.ID); err != nil {
		t.Fatalf("normalizing: %v", err)
	}

	rows := allActivities(t, s)
	if len(rows) != 1 {
		t.Fatalf("got %d rows after merge, want 1", len(rows))
	}
	if rows[0].ID != older.ID {
		t.Errorf("survivor = %s, want the larger fragment %s", rows[0].ID, older.ID)
	}
	if !rows[0].StartTime.Equal(older.StartTime) || !rows[0].EndTime.Equal(*tiny.EndTime) {
		t.Errorf("survivor = [%v, %v), want union [%v, %v)",
			rows[0].StartTime, rows[0].EndTime, older.StartTime, *tiny.EndTime)
	}
}

func TestEqualFragmentsTieKeepsEarlierStart(t *testing.T) {
	s, n, classID := newFixture(t)
	ctx := context.Background()

	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	// Clamping leaves both fragments at exactly 30 seconds, so neither is
	// larger and the earlier-starting row must survive.
	older := closedActivity(t, s, classID, day.Add(10*time.Hour), day.Add(10*time.Hour+time.Minute))
	newer := closedActivity(t, s, classID, day.Add(10*time.Hour+30*time.Second), day.Add(10*time.Hour+time.Minute))

	if err := n.NormalizeNeighbors(ctx, newer.ID); err != nil {
		t.Fatalf("normalizing: %v", err)
	}

	rows := allActivities(t, s)
	if len(rows) != 1 {
		t.Fatalf("got %d rows after merge, want 1", len(rows))
	}
	if rows[0].ID != older.ID {
		t.Errorf("survivor = %s, want the earlier-starting row %s", rows[0].ID, older.ID)
	}
	if !rows[0].StartTime.Equal(older.StartTime) || !rows[0].EndTime.Equal(*newer.EndTime) {
		t.Errorf("survivor = [%v, %v), want union [%v, %v)",
			rows[0].StartTime, rows[0].EndTime, older.StartTime, *newer.EndTime)
	}
	if *rows[0].DurationMS != 60000 {
		t.Errorf("survivor duration_ms = %d, want 60000", *rows[0].DurationMS)
	}
}

func TestEngulfedRowDeleted(t *testing.T) {
	s, n, classID := newFixture(t)
	ctx := context.Background()

	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	inner := closedActivity(t, s, classID, day.Add(10*time.Hour+15*time.Minute), day.Add(10*time.Hour+30*time.Minute))
	outer := closedActivity(t, s, classID, day.Add(10*time.Hour), day.Add(11*time.Hour))

	if err := n.NormalizeAfterWrite(ctx, outer.ID); err != nil {
		t.Fatalf("normalizing: %v", err)
	}

	rows := allActivities(t, s)
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if rows[0].ID != outer.ID {
		t.Errorf("survivor = %s, want the engulfing row %s", rows[0].ID, outer.ID)
	}
	if _, err := s.GetActivityByID(ctx, inner.ID); err == nil {
		t.Error("engulfed row still readable")
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	s, n, classID := newFixture(t)
	ctx := context.Background()

	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	closedActivity(t, s, classID, day.Add(10*time.Hour), day.Add(11*time.Hour))
	spanning := closedActivity(t, s, classID, day.Add(23*time.Hour), day.Add(25*time.Hour))

	if err := n.NormalizeAfterWrite(ctx, spanning.ID); err != nil {
		t.Fatalf("first normalize: %v", err)
	}
	first := allActivities(t, s)

	// Re-running over every surviving row must not change anything.
	for _, r := range first {
		if err := n.NormalizeAfterWrite(ctx, r.ID); err != nil {
			t.Fatalf("second normalize of %s: %v", r.ID, err)
		}
	}
	second := allActivities(t, s)

	if len(first) != len(second) {
		t.Fatalf("row count changed from %d to %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID ||
			!first[i].StartTime.Equal(second[i].StartTime) ||
			!first[i].EndTime.Equal(*second[i].EndTime) {
			t.Errorf("row %d changed on re-run: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestRunningSuccessorClampedNotMerged(t *testing.T) {
	s, n, classID := newFixture(t)
	ctx := context.Background()

	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	running, err := s.StartActivity(ctx, classID, "", day.Add(10*time.Hour+30*time.Minute))
	if err != nil {
		t.Fatalf("starting activity: %v", err)
	}
	backfill := closedActivity(t, s, classID, day.Add(10*time.Hour), day.Add(11*time.Hour))

	if err := n.NormalizeAfterWrite(ctx, backfill.ID); err != nil {
		t.Fatalf("normalizing: %v", err)
	}

	got, err := s.GetActivityByID(ctx, running.ID)
	if err != nil {
		t.Fatalf("getting running row: %v", err)
	}
	if got.EndTime != nil {
		t.Error("running row was closed by normalization")
	}
	if !got.StartTime.Equal(*backfill.EndTime) {
		t.Errorf("running start = %v, want clamped to %v", got.StartTime, *backfill.EndTime)
	}
}
