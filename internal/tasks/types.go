package tasks

import "daily-planner-bot/internal/clock"

type Task struct {
	ID      int64     `json:"id"`
	OwnerID int64     `json:"owner_id"`
	Body    string    `json:"text"`
	Day     clock.Day `json:"day"`
	Done    bool      `json:"done"`
}

// MarkResult tells what MarkDone actually did. None of the values is an error.
type MarkResult int

const (
	MarkNotFound MarkResult = iota
	MarkUpdated
	MarkAlreadyDone
)

func (r MarkResult) String() string {
	switch r {
	case MarkUpdated:
		return "updated"
	case MarkAlreadyDone:
		return "already_done"
	default:
		return "not_found"
	}
}

// DayClosed is the outcome of a rollover.
type DayClosed struct {
	From  clock.Day `json:"from"`
	To    clock.Day `json:"to"`
	Moved int64     `json:"moved"`
}
