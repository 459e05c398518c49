package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sudo-sidd/neuropilot/internal/apperr"
	"github.com/sudo-sidd/neuropilot/internal/model"
	"github.com/sudo-sidd/neuropilot/tests/testutil"
)

func TestStartActivityAutoClosesPrevious(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	focus := mustCreateClass(t, s, "Focus")
	breaks := mustCreateClass(t, s, "Break")

	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	first, err := s.StartActivity(ctx, focus.ID, "morning block", start)
	if err != nil {
		t.Fatalf("starting first activity: %v", err)
	}

	current, err := s.GetCurrentActivity(ctx)
	if err != nil {
		t.Fatalf("getting current activity: %v", err)
	}
	if current == nil || current.ID != first.ID {
		t.Fatalf("current activity = %v, want %s", current, first.ID)
	}

	// Starting another activity ten minutes later closes the first at
	// that instant.
	handoff := start.Add(10 * time.Minute)
	second, err := s.StartActivity(ctx, breaks.ID, "", handoff)
	if err != nil {
		t.Fatalf("starting second activity: %v", err)
	}

	closed, err := s.GetActivityByID(ctx, first.ID)
	if err != nil {
		t.Fatalf("getting closed activity: %v", err)
	}
	if closed.EndTime == nil || !closed.EndTime.Equal(handoff) {
		t.Errorf("first end = %v, want %v", closed.EndTime, handoff)
	}
	if closed.DurationMS == nil || *closed.DurationMS != 600000 {
		t.Errorf("first duration_ms = %v, want 600000", closed.DurationMS)
	}

	current, err = s.GetCurrentActivity(ctx)
	if err != nil {
		t.Fatalf("getting current activity: %v", err)
	}
	if current == nil || current.ID != second.ID {
		t.Fatalf("current activity = %v, want %s", current, second.ID)
	}
}

func TestStartActivityRejectsBackdatedStart(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	focus := mustCreateClass(t, s, "Focus")
	breaks := mustCreateClass(t, s, "Break")

	start := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	first, err := s.StartActivity(ctx, focus.ID, "", start)
	if err != nil {
		t.Fatalf("starting first activity: %v", err)
	}

	// A start before the open row would close it with a negative span.
	_, err = s.StartActivity(ctx, breaks.ID, "", start.Add(-time.Hour))
	var verr *apperr.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("backdated start returned %v, want ValidationError", err)
	}

	// Starting at the exact same instant is rejected too.
	_, err = s.StartActivity(ctx, breaks.ID, "", start)
	if !errors.As(err, &verr) {
		t.Fatalf("same-instant start returned %v, want ValidationError", err)
	}

	current, err := s.GetCurrentActivity(ctx)
	if err != nil {
		t.Fatalf("getting current activity: %v", err)
	}
	if current == nil || current.ID != first.ID {
		t.Fatalf("current activity = %v, want %s untouched", current, first.ID)
	}
	if current.EndTime != nil {
		t.Errorf("open activity was closed with end %v", current.EndTime)
	}
}

func TestStopCurrentActivity(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	focus := mustCreateClass(t, s, "Focus")
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	a, err := s.StartActivity(ctx, focus.ID, "", start)
	if err != nil {
		t.Fatalf("starting activity: %v", err)
	}

	end := start.Add(45 * time.Minute)
	stopped, err := s.StopCurrentActivity(ctx, end)
	if err != nil {
		t.Fatalf("stopping activity: %v", err)
	}
	if stopped == nil || stopped.ID != a.ID {
		t.Fatalf("stopped = %v, want %s", stopped, a.ID)
	}
	if stopped.DurationMS == nil || *stopped.DurationMS != int64(45*60*1000) {
		t.Errorf("duration_ms = %v, want %d", stopped.DurationMS, 45*60*1000)
	}

	current, err := s.GetCurrentActivity(ctx)
	if err != nil {
		t.Fatalf("getting current activity: %v", err)
	}
	if current != nil {
		t.Errorf("current activity = %s after stop, want none", current.ID)
	}

	// Stopping again is a no-op.
	stopped, err = s.StopCurrentActivity(ctx, end.Add(time.Minute))
	if err != nil {
		t.Fatalf("stopping with nothing running: %v", err)
	}
	if stopped != nil {
		t.Errorf("stop with nothing running returned %s", stopped.ID)
	}
}

func TestCreateActivityDerivesDuration(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	focus := mustCreateClass(t, s, "Focus")
	start := time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC)
	end := start.Add(90 * time.Minute)

	a, err := s.CreateActivity(ctx, model.Activity{
		ActionClassID: focus.ID,
		StartTime:     start,
		EndTime:       &end,
	})
	if err != nil {
		t.Fatalf("creating activity: %v", err)
	}
	if a.DurationMS == nil || *a.DurationMS != int64(90*60*1000) {
		t.Errorf("duration_ms = %v, want %d", a.DurationMS, 90*60*1000)
	}

	// Invalid interval is rejected before it reaches the database.
	_, err = s.CreateActivity(ctx, model.Activity{
		ActionClassID: focus.ID,
		StartTime:     end,
		EndTime:       &start,
	})
	if err == nil {
		t.Error("creating activity with end before start succeeded")
	}
}

func TestGetActivitySummary(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	focus := mustCreateClass(t, s, "Focus")
	breaks := mustCreateClass(t, s, "Break")

	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	addClosed := func(classID string, start time.Time, d time.Duration) {
		t.Helper()
		end := start.Add(d)
		if _, err := s.CreateActivity(ctx, model.Activity{
			ActionClassID: classID,
			StartTime:     start,
			EndTime:       &end,
		}); err != nil {
			t.Fatalf("creating activity: %v", err)
		}
	}
	addClosed(focus.ID, day.Add(9*time.Hour), time.Hour)
	addClosed(focus.ID, day.Add(11*time.Hour), 30*time.Minute)
	addClosed(breaks.ID, day.Add(10*time.Hour), 15*time.Minute)

	// A running activity never contributes to the summary.
	if _, err := s.StartActivity(ctx, focus.ID, "", day.Add(12*time.Hour)); err != nil {
		t.Fatalf("starting activity: %v", err)
	}

	summary, err := s.GetActivitySummary(ctx, day, day.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("getting summary: %v", err)
	}
	if len(summary) != 2 {
		t.Fatalf("summary has %d rows, want 2", len(summary))
	}
	if summary[0].ActionClassID != focus.ID || summary[0].TotalMS != int64(90*60*1000) {
		t.Errorf("top row = %s/%d, want %s/%d",
			summary[0].ActionClassID, summary[0].TotalMS, focus.ID, 90*60*1000)
	}
	if summary[1].ActionClassID != breaks.ID || summary[1].TotalMS != int64(15*60*1000) {
		t.Errorf("second row = %s/%d, want %s/%d",
			summary[1].ActionClassID, summary[1].TotalMS, breaks.ID, 15*60*1000)
	}
}

func TestGetPredecessorAndSuccessor(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	focus := mustCreateClass(t, s, "Focus")
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	add := func(start time.Time, d time.Duration) *model.Activity {
		t.Helper()
		end := start.Add(d)
		a, err := s.CreateActivity(ctx, model.Activity{
			ActionClassID: focus.ID,
			StartTime:     start,
			EndTime:       &end,
		})
		if err != nil {
			t.Fatalf("creating activity: %v", err)
		}
		return a
	}
	early := add(day.Add(9*time.Hour), time.Hour)
	mid := add(day.Add(11*time.Hour), time.Hour)
	late := add(day.Add(13*time.Hour), time.Hour)

	p, err := s.GetPredecessor(ctx, mid.StartTime, mid.ID)
	if err != nil {
		t.Fatalf("getting predecessor: %v", err)
	}
	if p == nil || p.ID != early.ID {
		t.Errorf("predecessor = %v, want %s", p, early.ID)
	}

	n, err := s.GetSuccessor(ctx, mid.StartTime, mid.ID)
	if err != nil {
		t.Fatalf("getting successor: %v", err)
	}
	if n == nil || n.ID != late.ID {
		t.Errorf("successor = %v, want %s", n, late.ID)
	}

	p, err = s.GetPredecessor(ctx, early.StartTime, early.ID)
	if err != nil {
		t.Fatalf("getting predecessor: %v", err)
	}
	if p != nil {
		t.Errorf("predecessor of earliest row = %s, want none", p.ID)
	}

	engulfed, err := s.GetEngulfed(ctx, day.Add(10*time.Hour), day.Add(14*time.Hour), "other")
	if err != nil {
		t.Fatalf("getting engulfed: %v", err)
	}
	if len(engulfed) != 2 || engulfed[0].ID != mid.ID || engulfed[1].ID != late.ID {
		t.Errorf("engulfed = %d rows, want [mid late]", len(engulfed))
	}
}
