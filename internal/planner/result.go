package planner

import (
	"daily-planner-bot/internal/analytics"
	"daily-planner-bot/internal/clock"
	"daily-planner-bot/internal/tasks"
)

// Kind says what the presentation layer has to show.
type Kind string

const (
	KindIgnored     Kind = "ignored"
	KindMenu        Kind = "menu"
	KindPrompt      Kind = "prompt"
	KindCancelled   Kind = "cancelled"
	KindTaskAdded   Kind = "task_added"
	KindTaskList    Kind = "task_list"
	KindStats       Kind = "stats"
	KindDayClosed   Kind = "day_closed"
	KindConfirmWipe Kind = "confirm_wipe"
	KindWiped       Kind = "wiped"
)

// Result is render-agnostic; only the fields matching Kind are set.
type Result struct {
	Kind Kind

	Day   clock.Day
	Tasks []tasks.Task // KindTaskList
	Mark  *tasks.MarkResult

	Task    *tasks.Task        // KindTaskAdded
	Stats   *analytics.Summary // KindStats
	Closed  *tasks.DayClosed   // KindDayClosed
	Removed int64              // KindWiped
}
