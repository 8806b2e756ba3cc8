package auth

import (
	"encoding/json"
	"log"
	"net/http"

	"daily-planner-bot/internal/db"
)

// DeleteAccountHandler handles DELETE /account: все задачи и события пользователя, одной транзакцией.
func DeleteAccountHandler(dbx *db.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		tx, err := dbx.BeginTx(r.Context(), nil)
		if err != nil {
			http.Error(w, "db begin failed", http.StatusServiceUnavailable)
			return
		}
		defer func() { _ = tx.Rollback() }()

		// 1) analytics_events
		resEvents, err := tx.ExecContext(r.Context(), dbx.Rebind(`DELETE FROM analytics_events WHERE owner_id = $1`), uid)
		if err != nil {
			log.Printf("[ERROR] delete account owner=%d: %v", uid, err)
			http.Error(w, "delete analytics_events failed", http.StatusServiceUnavailable)
			return
		}
		eventsDeleted, _ := resEvents.RowsAffected()

		// 2) tasks
		resTasks, err := tx.ExecContext(r.Context(), dbx.Rebind(`DELETE FROM tasks WHERE owner_id = $1`), uid)
		if err != nil {
			log.Printf("[ERROR] delete account owner=%d: %v", uid, err)
			http.Error(w, "delete tasks failed", http.StatusServiceUnavailable)
			return
		}
		tasksDeleted, _ := resTasks.RowsAffected()

		if err := tx.Commit(); err != nil {
			http.Error(w, "db commit failed", http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":             true,
			"tasks_deleted":  tasksDeleted,
			"events_deleted": eventsDeleted,
		})
	}
}
