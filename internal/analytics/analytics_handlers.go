package analytics

import (
	"encoding/json"
	"log"
	"net/http"
)

// StatsHandler handles GET /stats, недельная статистика текущего пользователя.
func StatsHandler(agg *Aggregator, rec *Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		summary, err := agg.Week(r.Context(), uid)
		if err != nil {
			log.Printf("[ERROR] stats owner=%d: %v", uid, err)
			http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
			return
		}

		env := FromRequest(r)
		env.OwnerID = uid
		rec.Log(r.Context(), env, "stats_viewed", map[string]any{
			"total": summary.Total,
			"done":  summary.Done,
			"tier":  summary.Tier,
		})

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(summary)
	}
}
