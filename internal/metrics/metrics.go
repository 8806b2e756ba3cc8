package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dailybot_events_total",
		Help: "Inbound events handled, by kind (command/button/text) and result kind",
	}, []string{"event", "result"})

	TasksCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dailybot_tasks_created_total",
		Help: "Tasks created",
	})

	TasksCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dailybot_tasks_completed_total",
		Help: "Tasks switched to done (repeat marks not counted)",
	})

	TasksRolledOver = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dailybot_tasks_rolled_over_total",
		Help: "Open tasks moved to the next day",
	})

	StorageErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dailybot_storage_errors_total",
		Help: "Failed storage operations, by event kind",
	}, []string{"event"})
)
