package tasks

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"daily-planner-bot/internal/analytics"
	"daily-planner-bot/internal/auth"
	"daily-planner-bot/internal/clock"
	"daily-planner-bot/internal/metrics"
)

func httpEnv(r *http.Request, uid int64) analytics.Envelope {
	env := analytics.FromRequest(r)
	env.OwnerID = uid
	return env
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// storageError пишет 503 для недоступного хранилища и 500 для всего остального.
func storageError(w http.ResponseWriter, op string, uid int64, err error) {
	metrics.StorageErrors.WithLabelValues("http_" + op).Inc()
	log.Printf("[ERROR] http %s owner=%d: %v", op, uid, err)
	if errors.Is(err, ErrStorageUnavailable) {
		http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
		return
	}
	http.Error(w, "internal error", http.StatusInternalServerError)
}

// GetTasksHandler handles GET /tasks?day=YYYY-MM-DD, по умолчанию сегодня.
func GetTasksHandler(store *Store, c clock.Clock) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		day := clock.Today(c)
		if q := r.URL.Query().Get("day"); q != "" {
			d, err := clock.ParseDay(q)
			if err != nil {
				http.Error(w, "invalid day, want YYYY-MM-DD", http.StatusBadRequest)
				return
			}
			day = d
		}

		list, err := store.ListTasks(r.Context(), uid, day)
		if err != nil {
			storageError(w, "list_tasks", uid, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"day":   day,
			"tasks": list,
		})
	}
}

// CreateTaskHandler handles POST /tasks {"text": "..."}: задача на сегодня, текст как есть.
func CreateTaskHandler(store *Store, c clock.Clock, rec *analytics.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var body struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if body.Text == "" {
			http.Error(w, "text is required", http.StatusBadRequest)
			return
		}

		day := clock.Today(c)
		id, err := store.CreateTask(r.Context(), uid, body.Text, day)
		if err != nil {
			storageError(w, "create_task", uid, err)
			return
		}

		metrics.TasksCreated.Inc()
		rec.Log(r.Context(), httpEnv(r, uid), "task_created", map[string]any{
			"task_id":  id,
			"text_len": len(body.Text),
		})

		writeJSON(w, http.StatusCreated, Task{ID: id, OwnerID: uid, Body: body.Text, Day: day})
	}
}

// MarkDoneHandler handles POST /tasks/done {"task_id": N}.
// Чужая или несуществующая задача не ошибка: result = "not_found".
func MarkDoneHandler(store *Store, rec *analytics.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var body struct {
			TaskID int64 `json:"task_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		mark, err := store.MarkOwnedDone(r.Context(), uid, body.TaskID)
		if err != nil {
			storageError(w, "mark_done", uid, err)
			return
		}

		if mark == MarkUpdated {
			metrics.TasksCompleted.Inc()
			rec.Log(r.Context(), httpEnv(r, uid), "task_completed", map[string]any{"task_id": body.TaskID})
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"task_id": body.TaskID,
			"result":  mark.String(),
		})
	}
}

// CloseDayHandler handles POST /day/close: невыполненное переезжает на завтра.
func CloseDayHandler(roll *Rollover, rec *analytics.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		closed, err := roll.CloseDay(r.Context(), uid)
		if err != nil {
			storageError(w, "close_day", uid, err)
			return
		}

		metrics.TasksRolledOver.Add(float64(closed.Moved))
		rec.Log(r.Context(), httpEnv(r, uid), "day_closed", map[string]any{
			"from":  closed.From,
			"moved": closed.Moved,
		})

		writeJSON(w, http.StatusOK, closed)
	}
}

// ClearTasksHandler handles DELETE /tasks: все задачи пользователя за все дни.
func ClearTasksHandler(store *Store, rec *analytics.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		removed, err := store.ClearAll(r.Context(), uid)
		if err != nil {
			storageError(w, "clear_tasks", uid, err)
			return
		}

		rec.Log(r.Context(), httpEnv(r, uid), "tasks_cleared", map[string]any{"removed": removed})

		writeJSON(w, http.StatusOK, map[string]any{"removed": removed})
	}
}
