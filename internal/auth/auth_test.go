package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daily-planner-bot/internal/analytics"
	"daily-planner-bot/internal/db"
)

var secret = []byte("test-secret")

func TestToken_RoundTrip(t *testing.T) {
	tok, err := GenerateToken(secret, 42, time.Hour)
	require.NoError(t, err)

	uid, err := ParseToken(secret, tok)
	require.NoError(t, err)
	assert.Equal(t, int64(42), uid)
}

func TestParseToken_Rejects(t *testing.T) {
	tok, err := GenerateToken(secret, 42, time.Hour)
	require.NoError(t, err)
	_, err = ParseToken([]byte("other"), tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": 42,
		"exp":     time.Now().Add(-time.Minute).Unix(),
	}).SignedString(secret)
	require.NoError(t, err)
	_, err = ParseToken(secret, expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	noOwner, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Minute).Unix(),
	}).SignedString(secret)
	require.NoError(t, err)
	_, err = ParseToken(secret, noOwner)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestMiddleware_Wrap(t *testing.T) {
	var (
		gotAuth, gotAnalytics int64
	)
	h := New(secret).Wrap(func(w http.ResponseWriter, r *http.Request) {
		gotAuth, _ = UserIDFromContext(r.Context())
		gotAnalytics, _ = analytics.UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/tasks", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec = httptest.NewRecorder()
	h(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	tok, err := GenerateToken(secret, 7, 0)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/tasks", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec = httptest.NewRecorder()
	h(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, int64(7), gotAuth)
	assert.Equal(t, int64(7), gotAnalytics)
}

func TestDeleteAccountHandler(t *testing.T) {
	ctx := context.Background()
	d, err := db.Connect(db.DriverSQLite, ":memory:")
	require.NoError(t, err)
	defer d.Close()
	require.NoError(t, db.Migrate(ctx, d))

	for _, row := range []struct {
		owner int64
		body  string
	}{{1, "buy milk"}, {1, "call mom"}, {2, "not mine"}} {
		_, err := d.ExecContext(ctx, `INSERT INTO tasks (owner_id, body, day, done) VALUES ($1, $2, '2024-01-01', FALSE)`, row.owner, row.body)
		require.NoError(t, err)
	}
	analytics.NewRecorder(d).Log(ctx, analytics.Envelope{OwnerID: 1, Platform: analytics.PlatformHTTP}, "task_created", nil)

	req := httptest.NewRequest(http.MethodDelete, "/account", nil)
	req = req.WithContext(WithUserID(req.Context(), 1))
	rec := httptest.NewRecorder()
	DeleteAccountHandler(d)(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		OK            bool  `json:"ok"`
		TasksDeleted  int64 `json:"tasks_deleted"`
		EventsDeleted int64 `json:"events_deleted"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.True(t, body.OK)
	assert.Equal(t, int64(2), body.TasksDeleted)
	assert.Equal(t, int64(1), body.EventsDeleted)

	var left int
	require.NoError(t, d.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks`).Scan(&left))
	assert.Equal(t, 1, left)

	rec = httptest.NewRecorder()
	DeleteAccountHandler(d)(rec, httptest.NewRequest(http.MethodDelete, "/account", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
