package tasks

import (
	"context"

	"daily-planner-bot/internal/clock"
)

// Rollover closes the current day for an owner: whatever is still open goes to tomorrow.
// Runs only when the user asks for it, there is no midnight sweep.
type Rollover struct {
	Store *Store
	Clock clock.Clock
}

func NewRollover(store *Store, c clock.Clock) *Rollover {
	return &Rollover{Store: store, Clock: c}
}

func (r *Rollover) CloseDay(ctx context.Context, ownerID int64) (DayClosed, error) {
	today := clock.Today(r.Clock)

	moved, err := r.Store.ClearOpenTasksToNextDay(ctx, ownerID, today)
	if err != nil {
		return DayClosed{}, err
	}

	return DayClosed{
		From:  today,
		To:    today.AddDays(1),
		Moved: moved,
	}, nil
}
