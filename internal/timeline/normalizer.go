// Package timeline repairs the activity interval invariants after writes:
// no stored interval spans a UTC day boundary, and no two closed intervals
// overlap. Repairs run as a small ordered sequence of individually committed
// steps; re-running a repair on an already-normalized timeline is a no-op,
// so callers recover from a partial failure by running it again.
package timeline

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sudo-sidd/neuropilot/internal/events"
	"github.com/sudo-sidd/neuropilot/internal/logger"
	"github.com/sudo-sidd/neuropilot/internal/model"
)

// DefaultMergeThreshold is the minimum length a clamped neighbor may keep
// before it is absorbed into the larger adjacent interval.
const DefaultMergeThreshold = 60 * time.Second

// Store is the slice of the activity store the normalizer needs.
type Store interface {
	GetActivityByID(ctx context.Context, id string) (*model.Activity, error)
	CreateActivity(ctx context.Context, a model.Activity) (*model.Activity, error)
	UpdateActivity(ctx context.Context, a model.Activity) error
	DeleteActivity(ctx context.Context, id string) error
	GetPredecessor(ctx context.Context, start time.Time, excludeID string) (*model.Activity, error)
	GetSuccessor(ctx context.Context, start time.Time, excludeID string) (*model.Activity, error)
	GetEngulfed(ctx context.Context, start, end time.Time, excludeID string) ([]model.Activity, error)
}

// Normalizer restores the timeline invariants around a single activity.
type Normalizer struct {
	store     Store
	hub       *events.Hub
	threshold time.Duration
}

// NewNormalizer creates a normalizer. hub may be nil; threshold <= 0 falls
// back to DefaultMergeThreshold.
func NewNormalizer(s Store, hub *events.Hub, threshold time.Duration) *Normalizer {
	if threshold <= 0 {
		threshold = DefaultMergeThreshold
	}
	return &Normalizer{store: s, hub: hub, threshold: threshold}
}

// NormalizeAfterWrite is the composition run after every manual create,
// edit, or stop: split the row at UTC day boundaries, then resolve
// overlaps around every resulting segment.
func (n *Normalizer) NormalizeAfterWrite(ctx context.Context, activityID string) error {
	segments, _, err := n.splitDayBoundaries(ctx, activityID)
	if err != nil {
		return err
	}
	for _, seg := range segments {
		err := n.NormalizeNeighbors(ctx, seg.ID)
		if errors.Is(err, sql.ErrNoRows) {
			// The segment was absorbed while normalizing a sibling.
			continue
		}
		if err != nil {
			return err
		}
	}
	if n.hub != nil {
		n.hub.Emit(events.DomainActivities)
	}
	return nil
}

// SplitDayBoundaries splits an activity that crosses one or more UTC
// midnights into one row per day segment. Running activities are exempt.
// Returns true if a split occurred.
func (n *Normalizer) SplitDayBoundaries(ctx context.Context, activityID string) (bool, error) {
	_, split, err := n.splitDayBoundaries(ctx, activityID)
	return split, err
}

// splitDayBoundaries performs the split and returns every row now covering
// the original range: the truncated original plus inserted segments.
func (n *Normalizer) splitDayBoundaries(ctx context.Context, activityID string) ([]model.Activity, bool, error) {
	a, err := n.store.GetActivityByID(ctx, activityID)
	if err != nil {
		return nil, false, err
	}
	if a.EndTime == nil {
		// Running activities stay in place until stopped.
		return []model.Activity{*a}, false, nil
	}

	end := a.EndTime.UTC()
	boundary := nextUTCMidnight(a.StartTime)
	if !end.After(boundary) {
		// Day-bounded already; rederive the duration and leave it alone.
		if err := n.store.UpdateActivity(ctx, *a); err != nil {
			return nil, false, err
		}
		return []model.Activity{*a}, false, nil
	}

	// Truncate the original row at the first midnight after its start.
	truncated := *a
	truncated.EndTime = &boundary
	if err := n.store.UpdateActivity(ctx, truncated); err != nil {
		return nil, false, fmt.Errorf("truncating activity %s: %w", a.ID, err)
	}
	segments := []model.Activity{truncated}

	// Walk forward one day at a time, inserting a segment per day, the last
	// one clipped by the original end.
	for cur := boundary; cur.Before(end); cur = nextUTCMidnight(cur) {
		segEnd := nextUTCMidnight(cur)
		if segEnd.After(end) {
			segEnd = end
		}
		seg, err := n.store.CreateActivity(ctx, model.Activity{
			ActionClassID: a.ActionClassID,
			StartTime:     cur,
			EndTime:       &segEnd,
			Description:   a.Description,
		})
		if err != nil {
			return segments, true, fmt.Errorf("inserting day segment: %w", err)
		}
		segments = append(segments, *seg)
	}

	return segments, true, nil
}

// NormalizeNeighbors resolves overlaps between the given activity and its
// immediate neighbors: engulfed rows are deleted, overlapping neighbors are
// clamped to this activity's bounds, and a neighbor clamped below the merge
// threshold is absorbed into the larger of the two fragments. Idempotent.
func (n *Normalizer) NormalizeNeighbors(ctx context.Context, activityID string) error {
	a, err := n.store.GetActivityByID(ctx, activityID)
	if err != nil {
		return err
	}

	// Delete rows fully engulfed by this activity before the neighbor pass.
	if a.EndTime != nil {
		engulfed, err := n.store.GetEngulfed(ctx, a.StartTime, *a.EndTime, a.ID)
		if err != nil {
			return err
		}
		for _, e := range engulfed {
			logger.Debug("deleting engulfed activity", "id", e.ID)
			if err := n.store.DeleteActivity(ctx, e.ID); err != nil {
				return err
			}
		}
	}

	cur, err := n.clampPredecessor(ctx, a)
	if err != nil {
		return err
	}
	return n.clampSuccessor(ctx, cur)
}

// clampPredecessor resolves an overlap with the latest earlier-starting
// activity. It returns whichever row survives covering this activity's
// range, which may differ from a when a merge absorbed it.
func (n *Normalizer) clampPredecessor(ctx context.Context, a *model.Activity) (*model.Activity, error) {
	p, err := n.store.GetPredecessor(ctx, a.StartTime, a.ID)
	if err != nil {
		return nil, err
	}
	if p == nil || p.EndTime == nil || !p.EndTime.After(a.StartTime) {
		return a, nil
	}

	// Overlap: clamp the predecessor's end to this activity's start.
	clampEnd := a.StartTime
	p.EndTime = &clampEnd

	if p.EndTime.Sub(p.StartTime) >= n.threshold {
		if err := n.store.UpdateActivity(ctx, *p); err != nil {
			return nil, err
		}
		return a, nil
	}

	// The clamp left a sliver; absorb the smaller fragment into the larger.
	// A running activity counts as larger, and an exact tie keeps the
	// earlier-starting fragment.
	if a.EndTime == nil || fragmentWins(a, p) {
		merged := *a
		merged.StartTime = p.StartTime
		if err := n.store.DeleteActivity(ctx, p.ID); err != nil {
			return nil, err
		}
		if err := n.store.UpdateActivity(ctx, merged); err != nil {
			return nil, err
		}
		logger.Debug("merged predecessor sliver", "into", a.ID, "deleted", p.ID)
		return &merged, nil
	}

	merged := *p
	merged.EndTime = a.EndTime
	if err := n.store.DeleteActivity(ctx, a.ID); err != nil {
		return nil, err
	}
	if err := n.store.UpdateActivity(ctx, merged); err != nil {
		return nil, err
	}
	logger.Debug("absorbed activity into predecessor", "into", p.ID, "deleted", a.ID)
	return &merged, nil
}

// clampSuccessor resolves an overlap with the earliest later-starting
// activity, using this activity's end as the clamp boundary.
func (n *Normalizer) clampSuccessor(ctx context.Context, a *model.Activity) error {
	if a.EndTime == nil {
		return nil
	}
	nxt, err := n.store.GetSuccessor(ctx, a.StartTime, a.ID)
	if err != nil {
		return err
	}
	if nxt == nil || !nxt.StartTime.Before(*a.EndTime) {
		return nil
	}

	// Overlap: clamp the successor's start to this activity's end.
	nxt.StartTime = *a.EndTime

	if nxt.EndTime == nil || nxt.EndTime.Sub(nxt.StartTime) >= n.threshold {
		return n.store.UpdateActivity(ctx, *nxt)
	}

	if fragmentWins(a, nxt) {
		merged := *a
		merged.EndTime = nxt.EndTime
		if err := n.store.DeleteActivity(ctx, nxt.ID); err != nil {
			return err
		}
		logger.Debug("merged successor sliver", "into", a.ID, "deleted", nxt.ID)
		return n.store.UpdateActivity(ctx, merged)
	}

	merged := *nxt
	merged.StartTime = a.StartTime
	if err := n.store.DeleteActivity(ctx, a.ID); err != nil {
		return err
	}
	logger.Debug("absorbed activity into successor", "into", nxt.ID, "deleted", a.ID)
	return n.store.UpdateActivity(ctx, merged)
}

// fragmentWins reports whether fragment a keeps its row when merging with
// b: longer duration wins, and an exact tie goes to the earlier start.
func fragmentWins(a, b *model.Activity) bool {
	da, db := a.Duration(), b.Duration()
	if da != db {
		return da > db
	}
	return a.StartTime.Before(b.StartTime)
}

// nextUTCMidnight returns the first UTC midnight strictly after t.
func nextUTCMidnight(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
}
