package planner

import (
	"context"
	"log"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"daily-planner-bot/internal/analytics"
	"daily-planner-bot/internal/clock"
	"daily-planner-bot/internal/conversation"
	"daily-planner-bot/internal/db"
	"daily-planner-bot/internal/metrics"
	"daily-planner-bot/internal/tasks"
)

// Button actions, also used as command names.
const (
	ActionMenu  = "menu"
	ActionAdd   = "add"
	ActionToday = "today"
	ActionDone  = "done"
	ActionStats = "stats"
	ActionClear = "clear"
	ActionWipe  = "wipe"
)

// Planner routes inbound chat events to the task store, the rollover,
// the stats and the conversation machine.
type Planner struct {
	Store    *tasks.Store
	Rollover *tasks.Rollover
	Stats    *analytics.Aggregator
	Conv     *conversation.Machine
	Events   *analytics.Recorder
	Clock    clock.Clock

	env analytics.Envelope
}

func New(dbx *db.DB, states conversation.StateStore, c clock.Clock, platform string) *Planner {
	store := tasks.NewStore(dbx)
	return &Planner{
		Store:    store,
		Rollover: tasks.NewRollover(store, c),
		Stats:    analytics.NewAggregator(store, c),
		Conv:     conversation.NewMachine(states, store, c),
		Events:   analytics.NewRecorder(dbx),
		Clock:    c,
		env: analytics.Envelope{
			SessionID: uuid.NewString(),
			Platform:  platform,
		},
	}
}

func (p *Planner) logEvent(ctx context.Context, ownerID int64, name string, props map[string]any) {
	env := p.env
	env.OwnerID = ownerID
	p.Events.Log(ctx, env, name, props)
}

func observe(event string, ownerID int64, res Result, err error) (Result, error) {
	if err != nil {
		metrics.StorageErrors.WithLabelValues(event).Inc()
		log.Printf("[ERROR] %s owner=%d: %v", event, ownerID, err)
		return res, err
	}
	metrics.EventsTotal.WithLabelValues(event, string(res.Kind)).Inc()
	return res, nil
}

// HandleCommand handles /start, /add, /today, /stats, /clear, /cancel, /reset.
func (p *Planner) HandleCommand(ctx context.Context, ownerID int64, name string) (Result, error) {
	name = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "/"))

	var res Result
	switch name {
	case "start", ActionMenu, "help":
		res = Result{Kind: KindMenu}
	case ActionAdd, ActionToday, ActionStats, ActionClear:
		return p.HandleButton(ctx, ownerID, name, "")
	case "cancel":
		p.Conv.Cancel(ownerID)
		res = Result{Kind: KindCancelled}
	case "reset":
		res = Result{Kind: KindConfirmWipe}
	default:
		res = Result{Kind: KindIgnored}
	}
	return observe("command", ownerID, res, nil)
}

// HandleButton handles inline button presses. A bad payload is a silent no-op.
func (p *Planner) HandleButton(ctx context.Context, ownerID int64, action, payload string) (Result, error) {
	var (
		res Result
		err error
	)
	switch action {
	case ActionMenu:
		res = Result{Kind: KindMenu}
	case ActionAdd:
		p.Conv.RequestTask(ownerID)
		res = Result{Kind: KindPrompt}
	case ActionToday:
		res, err = p.today(ctx, ownerID, nil)
	case ActionDone:
		res, err = p.done(ctx, ownerID, payload)
	case ActionStats:
		res, err = p.stats(ctx, ownerID)
	case ActionClear:
		res, err = p.closeDay(ctx, ownerID)
	case ActionWipe:
		res, err = p.wipe(ctx, ownerID)
	default:
		res = Result{Kind: KindIgnored}
	}
	return observe("button", ownerID, res, err)
}

// HandleText turns free text into a task if the owner asked to add one.
func (p *Planner) HandleText(ctx context.Context, ownerID int64, body string) (Result, error) {
	out, err := p.Conv.HandleText(ctx, ownerID, body)
	if err != nil {
		return observe("text", ownerID, Result{}, err)
	}
	if !out.Created {
		return observe("text", ownerID, Result{Kind: KindIgnored}, nil)
	}

	metrics.TasksCreated.Inc()
	p.logEvent(ctx, ownerID, "task_created", map[string]any{
		"task_id":  out.TaskID,
		"text_len": len(out.Body),
	})

	task := tasks.Task{ID: out.TaskID, OwnerID: ownerID, Body: out.Body, Day: out.Day}
	return observe("text", ownerID, Result{Kind: KindTaskAdded, Day: out.Day, Task: &task}, nil)
}

func (p *Planner) today(ctx context.Context, ownerID int64, mark *tasks.MarkResult) (Result, error) {
	day := clock.Today(p.Clock)
	list, err := p.Store.ListTasks(ctx, ownerID, day)
	if err != nil {
		return Result{}, err
	}
	return Result{Kind: KindTaskList, Day: day, Tasks: list, Mark: mark}, nil
}

func (p *Planner) done(ctx context.Context, ownerID int64, payload string) (Result, error) {
	mark := tasks.MarkNotFound

	if id, perr := strconv.ParseInt(strings.TrimSpace(payload), 10, 64); perr == nil {
		var err error
		mark, err = p.Store.MarkOwnedDone(ctx, ownerID, id)
		if err != nil {
			return Result{}, err
		}
		if mark == tasks.MarkUpdated {
			metrics.TasksCompleted.Inc()
			p.logEvent(ctx, ownerID, "task_completed", map[string]any{"task_id": id})
		}
	}

	return p.today(ctx, ownerID, &mark)
}

func (p *Planner) stats(ctx context.Context, ownerID int64) (Result, error) {
	summary, err := p.Stats.Week(ctx, ownerID)
	if err != nil {
		return Result{}, err
	}
	p.logEvent(ctx, ownerID, "stats_viewed", map[string]any{
		"total": summary.Total,
		"done":  summary.Done,
		"tier":  summary.Tier,
	})
	return Result{Kind: KindStats, Stats: &summary}, nil
}

func (p *Planner) closeDay(ctx context.Context, ownerID int64) (Result, error) {
	closed, err := p.Rollover.CloseDay(ctx, ownerID)
	if err != nil {
		return Result{}, err
	}
	metrics.TasksRolledOver.Add(float64(closed.Moved))
	p.logEvent(ctx, ownerID, "day_closed", map[string]any{
		"from":  closed.From,
		"moved": closed.Moved,
	})
	return Result{Kind: KindDayClosed, Day: closed.From, Closed: &closed}, nil
}

func (p *Planner) wipe(ctx context.Context, ownerID int64) (Result, error) {
	removed, err := p.Store.ClearAll(ctx, ownerID)
	if err != nil {
		return Result{}, err
	}
	p.logEvent(ctx, ownerID, "tasks_cleared", map[string]any{"removed": removed})
	return Result{Kind: KindWiped, Removed: removed}, nil
}
