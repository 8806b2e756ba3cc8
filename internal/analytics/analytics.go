package analytics

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"daily-planner-bot/internal/db"
)

type CtxKey string

const (
	ctxUserIDKey CtxKey = "analytics_user_id"
)

const (
	PlatformTelegram = "telegram"
	PlatformHTTP     = "http"
)

// Envelope is what we store with every event.
type Envelope struct {
	OwnerID   int64
	SessionID string
	Platform  string
	// SourceEventKey дедуплицирует повторы одного и того же запроса; пустой = без дедупликации.
	SourceEventKey string
}

// FromRequest builds the envelope of an API call. Session and idempotency key
// come from the client headers, the platform is always http.
func FromRequest(r *http.Request) Envelope {
	return Envelope{
		SessionID:      strings.TrimSpace(r.Header.Get("X-Session-Id")),
		Platform:       PlatformHTTP,
		SourceEventKey: SourceEventKeyFromRequest(r),
	}
}

// Client-provided idempotency key (optional)
func SourceEventKeyFromRequest(r *http.Request) string {
	if k := strings.TrimSpace(r.Header.Get("Idempotency-Key")); k != "" {
		return k
	}
	// fallback
	return strings.TrimSpace(r.Header.Get("X-Source-Event-Key"))
}

func WithUserID(ctx context.Context, ownerID int64) context.Context {
	return context.WithValue(ctx, ctxUserIDKey, ownerID)
}

func UserIDFromContext(ctx context.Context) (int64, bool) {
	v := ctx.Value(ctxUserIDKey)
	if v == nil {
		return 0, false
	}
	uid, ok := v.(int64)
	return uid, ok
}

// Recorder writes product events into analytics_events.
type Recorder struct {
	DB  *db.DB
	Now func() time.Time
}

func NewRecorder(dbx *db.DB) *Recorder {
	return &Recorder{DB: dbx, Now: time.Now}
}

// Log inserts one analytics event.
// Never breaks the caller: failures are only logged. Callers pass sanitized props, no raw task text.
func (r *Recorder) Log(ctx context.Context, env Envelope, eventName string, props any) {
	if r == nil || r.DB == nil || eventName == "" {
		return
	}

	ownerID := env.OwnerID
	if ownerID == 0 {
		uid, ok := UserIDFromContext(ctx)
		if !ok {
			return
		}
		ownerID = uid
	}

	b, err := json.Marshal(props)
	if err != nil {
		log.Printf("[WARN] analytics: props for %s not marshalable: %v", eventName, err)
		return
	}

	now := time.Now
	if r.Now != nil {
		now = r.Now
	}

	_, err = r.DB.ExecContext(ctx, `
		INSERT INTO analytics_events (
			event_name, event_time,
			owner_id, session_id, platform,
			source_event_key, properties
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (source_event_key) DO NOTHING
	`, eventName, now().UTC(),
		ownerID, nullIfEmpty(env.SessionID), env.Platform,
		nullIfEmpty(env.SourceEventKey), string(b),
	)
	if err != nil {
		log.Printf("[WARN] analytics: insert %s owner=%d failed: %v", eventName, ownerID, err)
	}
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
