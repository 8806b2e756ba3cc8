package analytics

import (
	"context"

	"daily-planner-bot/internal/clock"
)

// WindowDays: длина окна статистики, сегодня включительно.
const WindowDays = 7

type Tier string

const (
	TierTop    Tier = "top"
	TierMiddle Tier = "middle"
	TierBottom Tier = "bottom"
)

// TierFromPercent buckets a completion percentage. Boundaries go to the higher tier.
func TierFromPercent(p float64) Tier {
	switch {
	case p >= 90:
		return TierTop
	case p >= 50:
		return TierMiddle
	default:
		return TierBottom
	}
}

// Percent is done/total*100, and 0 for an empty window.
func Percent(done, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(done) * 100 / float64(total)
}

type Summary struct {
	Since   clock.Day `json:"since"`
	Until   clock.Day `json:"until"`
	Done    int       `json:"done"`
	Total   int       `json:"total"`
	Percent float64   `json:"percent"`
	Tier    Tier      `json:"tier"`
}

func Summarize(since, until clock.Day, done, total int) Summary {
	p := Percent(done, total)
	return Summary{
		Since:   since,
		Until:   until,
		Done:    done,
		Total:   total,
		Percent: p,
		Tier:    TierFromPercent(p),
	}
}

type Counter interface {
	CountDoneVsTotal(ctx context.Context, ownerID int64, since clock.Day) (done, total int, err error)
}

// Aggregator computes the trailing weekly completion stats.
type Aggregator struct {
	Counter Counter
	Clock   clock.Clock
}

func NewAggregator(counter Counter, c clock.Clock) *Aggregator {
	return &Aggregator{Counter: counter, Clock: c}
}

func (a *Aggregator) Week(ctx context.Context, ownerID int64) (Summary, error) {
	today := clock.Today(a.Clock)
	since := today.AddDays(-(WindowDays - 1))

	done, total, err := a.Counter.CountDoneVsTotal(ctx, ownerID, since)
	if err != nil {
		return Summary{}, err
	}

	return Summarize(since, today, done, total), nil
}
