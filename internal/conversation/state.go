package conversation

import "sync"

type State int

const (
	Idle State = iota
	AwaitingTaskText
)

func (s State) String() string {
	if s == AwaitingTaskText {
		return "awaiting_task_text"
	}
	return "idle"
}

// StateStore keeps the per-owner conversation flag. Unknown owners are Idle.
type StateStore interface {
	Get(ownerID int64) State
	Set(ownerID int64, s State)
}

// MemoryStore loses everything on restart, which is accepted:
// a pending "send me the task text" prompt just silently goes away.
type MemoryStore struct {
	mu     sync.Mutex
	states map[int64]State
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[int64]State)}
}

func (m *MemoryStore) Get(ownerID int64) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.states[ownerID]
}

func (m *MemoryStore) Set(ownerID int64, s State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s == Idle {
		delete(m.states, ownerID)
		return
	}
	m.states[ownerID] = s
}

func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.states)
}
