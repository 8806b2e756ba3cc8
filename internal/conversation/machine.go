package conversation

import (
	"context"
	"sync"

	"daily-planner-bot/internal/clock"
)

// TaskCreator is the part of the task store the machine needs.
type TaskCreator interface {
	CreateTask(ctx context.Context, ownerID int64, body string, day clock.Day) (int64, error)
}

type Outcome struct {
	Created bool
	TaskID  int64
	Body    string
	Day     clock.Day
}

// Machine decides whether free text from an owner is a new task body.
//
// Events of one owner are handled one at a time, so the check of the flag,
// the insert and the reset to Idle are a single step for that owner.
// Two texts racing after one "add" produce exactly one task: whoever takes
// the owner lock first; the other sees Idle and is ignored.
type Machine struct {
	states  StateStore
	creator TaskCreator
	clock   clock.Clock

	mu    sync.Mutex
	locks map[int64]*ownerLock
}

type ownerLock struct {
	mu   sync.Mutex
	refs int
}

func NewMachine(states StateStore, creator TaskCreator, c clock.Clock) *Machine {
	return &Machine{
		states:  states,
		creator: creator,
		clock:   c,
		locks:   make(map[int64]*ownerLock),
	}
}

func (m *Machine) lock(ownerID int64) func() {
	m.mu.Lock()
	l, ok := m.locks[ownerID]
	if !ok {
		l = &ownerLock{}
		m.locks[ownerID] = l
	}
	l.refs++
	m.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()

		m.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(m.locks, ownerID)
		}
		m.mu.Unlock()
	}
}

func (m *Machine) State(ownerID int64) State {
	unlock := m.lock(ownerID)
	defer unlock()
	return m.states.Get(ownerID)
}

// RequestTask: idle -> awaiting_task_text. Repeating it changes nothing.
func (m *Machine) RequestTask(ownerID int64) {
	unlock := m.lock(ownerID)
	defer unlock()
	m.states.Set(ownerID, AwaitingTaskText)
}

func (m *Machine) Cancel(ownerID int64) {
	unlock := m.lock(ownerID)
	defer unlock()
	m.states.Set(ownerID, Idle)
}

// HandleText consumes the awaiting flag: the text, as is, becomes today's task.
// In Idle the text is ignored. If the insert fails the flag stays, so the user can resend.
func (m *Machine) HandleText(ctx context.Context, ownerID int64, body string) (Outcome, error) {
	unlock := m.lock(ownerID)
	defer unlock()

	if m.states.Get(ownerID) != AwaitingTaskText {
		return Outcome{}, nil
	}

	today := clock.Today(m.clock)
	id, err := m.creator.CreateTask(ctx, ownerID, body, today)
	if err != nil {
		return Outcome{}, err
	}

	m.states.Set(ownerID, Idle)

	return Outcome{
		Created: true,
		TaskID:  id,
		Body:    body,
		Day:     today,
	}, nil
}
