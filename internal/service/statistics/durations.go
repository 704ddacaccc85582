package statistics

import (
	"fmt"
	"math"
	"time"

	"github.com/luccibyey/atelier/internal/domain/models"
)

// Duration is an elapsed time shown both in whole days (floored) and whole hours (rounded).
type Duration struct {
	Days  int `json:"days"`
	Hours int `json:"hours"`
}

// NewDuration converts d; negative durations are not meaningful and yield nil.
func NewDuration(d time.Duration) *Duration {
	if d < 0 {
		return nil
	}
	return &Duration{
		Days:  int(math.Floor(d.Hours() / 24)),
		Hours: int(math.Round(d.Hours())),
	}
}

// Display renders "Xh" below one day and "Xj" otherwise.
func (d Duration) Display() string {
	if d.Days == 0 {
		return fmt.Sprintf("%dh", d.Hours)
	}
	return fmt.Sprintf("%dj", d.Days)
}

// String implements fmt.Stringer.
func (d Duration) String() string { return d.Display() }

// BatchDurations are the lead times of one batch. A nil field means the
// transitions it spans never happened.
type BatchDurations struct {
	BatchID        int64     `json:"batch_id"`
	BatchReference string    `json:"batch_reference"`
	PlanToCollect  *Duration `json:"plan_to_collect"`
	CollectToStore *Duration `json:"collect_to_store"`
	Total          *Duration `json:"total_duration"`

	planToCollect  *time.Duration
	collectToStore *time.Duration
	total          *time.Duration
}

// DurationsOf computes the lead times of batch from its status history.
func DurationsOf(batch models.ProductionBatch) BatchDurations {
	out := BatchDurations{BatchID: batch.ID, BatchReference: batch.BatchReference}

	collect, collected := batch.FirstTransitionTo(models.BatchToCollect)
	store, stored := batch.FirstTransitionTo(models.BatchInStore)

	if collected && !batch.CreatedAt.IsZero() {
		out.planToCollect = between(batch.CreatedAt, collect.ChangedAt)
	}
	if collected && stored {
		out.collectToStore = between(collect.ChangedAt, store.ChangedAt)
	}
	if stored && !batch.CreatedAt.IsZero() {
		out.total = between(batch.CreatedAt, store.ChangedAt)
	}

	out.PlanToCollect = toDuration(out.planToCollect)
	out.CollectToStore = toDuration(out.collectToStore)
	out.Total = toDuration(out.total)
	return out
}

func between(from, to time.Time) *time.Duration {
	d := to.Sub(from)
	if d < 0 {
		return nil
	}
	return &d
}

func toDuration(d *time.Duration) *Duration {
	if d == nil {
		return nil
	}
	return NewDuration(*d)
}

// average returns the mean of the non-nil values, or nil when there are none.
func average(values []*time.Duration) *Duration {
	var sum time.Duration
	var n int
	for _, v := range values {
		if v == nil {
			continue
		}
		sum += *v
		n++
	}
	if n == 0 {
		return nil
	}
	return NewDuration(sum / time.Duration(n))
}
