package tasks

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daily-planner-bot/internal/clock"
	"daily-planner-bot/internal/db"
)

// setupTestDB opens an in-memory sqlite database with the schema applied.
func setupTestDB(t *testing.T) *db.DB {
	t.Helper()

	d, err := db.Connect(db.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })

	require.NoError(t, db.Migrate(context.Background(), d))
	return d
}

const (
	u1 int64 = 1001
	u2 int64 = 1002
)

func TestStore_CreateThenList(t *testing.T) {
	s := NewStore(setupTestDB(t))
	ctx := context.Background()

	id, err := s.CreateTask(ctx, u1, "buy milk", "2024-01-01")
	require.NoError(t, err)

	list, err := s.ListTasks(ctx, u1, "2024-01-01")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, Task{ID: id, OwnerID: u1, Body: "buy milk", Day: "2024-01-01", Done: false}, list[0])
}

func TestStore_ListEmptyIsNotError(t *testing.T) {
	s := NewStore(setupTestDB(t))

	list, err := s.ListTasks(context.Background(), u1, "2024-01-01")
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestStore_ListInsertionOrderAndScope(t *testing.T) {
	s := NewStore(setupTestDB(t))
	ctx := context.Background()

	for _, body := range []string{"a", "b", "c"} {
		_, err := s.CreateTask(ctx, u1, body, "2024-01-01")
		require.NoError(t, err)
	}
	_, err := s.CreateTask(ctx, u2, "other owner", "2024-01-01")
	require.NoError(t, err)
	_, err = s.CreateTask(ctx, u1, "other day", "2024-01-02")
	require.NoError(t, err)

	list, err := s.ListTasks(ctx, u1, "2024-01-01")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "a", list[0].Body)
	assert.Equal(t, "b", list[1].Body)
	assert.Equal(t, "c", list[2].Body)
}

func TestStore_EmptyBodyAccepted(t *testing.T) {
	s := NewStore(setupTestDB(t))
	ctx := context.Background()

	_, err := s.CreateTask(ctx, u1, "", "2024-01-01")
	require.NoError(t, err)

	list, err := s.ListTasks(ctx, u1, "2024-01-01")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "", list[0].Body)
}

func TestStore_MarkDoneIdempotent(t *testing.T) {
	s := NewStore(setupTestDB(t))
	ctx := context.Background()

	id, err := s.CreateTask(ctx, u1, "buy milk", "2024-01-01")
	require.NoError(t, err)

	res, err := s.MarkDone(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, MarkUpdated, res)

	once, err := s.ListTasks(ctx, u1, "2024-01-01")
	require.NoError(t, err)

	res, err = s.MarkDone(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, MarkAlreadyDone, res)

	twice, err := s.ListTasks(ctx, u1, "2024-01-01")
	require.NoError(t, err)
	assert.Equal(t, once, twice)
	assert.True(t, twice[0].Done)
}

func TestStore_MarkDoneUnknownID(t *testing.T) {
	s := NewStore(setupTestDB(t))

	res, err := s.MarkDone(context.Background(), 424242)
	require.NoError(t, err)
	assert.Equal(t, MarkNotFound, res)
}

func TestStore_MarkOwnedDoneForeignTask(t *testing.T) {
	s := NewStore(setupTestDB(t))
	ctx := context.Background()

	id, err := s.CreateTask(ctx, u2, "not yours", "2024-01-01")
	require.NoError(t, err)

	res, err := s.MarkOwnedDone(ctx, u1, id)
	require.NoError(t, err)
	assert.Equal(t, MarkNotFound, res)

	list, err := s.ListTasks(ctx, u2, "2024-01-01")
	require.NoError(t, err)
	assert.False(t, list[0].Done)

	res, err = s.MarkOwnedDone(ctx, u2, id)
	require.NoError(t, err)
	assert.Equal(t, MarkUpdated, res)
}

func TestStore_ClearOpenTasksToNextDay(t *testing.T) {
	s := NewStore(setupTestDB(t))
	ctx := context.Background()
	const d clock.Day = "2024-01-31"

	open1, _ := s.CreateTask(ctx, u1, "open 1", d)
	done1, _ := s.CreateTask(ctx, u1, "done 1", d)
	open2, _ := s.CreateTask(ctx, u1, "open 2", d)
	foreign, _ := s.CreateTask(ctx, u2, "foreign", d)
	earlier, _ := s.CreateTask(ctx, u1, "earlier", "2024-01-30")

	_, err := s.MarkDone(ctx, done1)
	require.NoError(t, err)

	moved, err := s.ClearOpenTasksToNextDay(ctx, u1, d)
	require.NoError(t, err)
	assert.Equal(t, int64(2), moved)

	left, err := s.ListTasks(ctx, u1, d)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, done1, left[0].ID)
	assert.True(t, left[0].Done)

	next, err := s.ListTasks(ctx, u1, "2024-02-01")
	require.NoError(t, err)
	require.Len(t, next, 2)
	assert.Equal(t, open1, next[0].ID)
	assert.Equal(t, open2, next[1].ID)
	for _, task := range next {
		assert.False(t, task.Done)
	}

	other, err := s.ListTasks(ctx, u2, d)
	require.NoError(t, err)
	require.Len(t, other, 1)
	assert.Equal(t, foreign, other[0].ID)

	prev, err := s.ListTasks(ctx, u1, "2024-01-30")
	require.NoError(t, err)
	require.Len(t, prev, 1)
	assert.Equal(t, earlier, prev[0].ID)
}

func TestStore_CountDoneVsTotal(t *testing.T) {
	s := NewStore(setupTestDB(t))
	ctx := context.Background()

	done, total, err := s.CountDoneVsTotal(ctx, u1, "2024-01-01")
	require.NoError(t, err)
	assert.Equal(t, 0, done)
	assert.Equal(t, 0, total)

	old, _ := s.CreateTask(ctx, u1, "too old", "2023-12-31")
	_, _ = s.MarkDone(ctx, old)

	a, _ := s.CreateTask(ctx, u1, "a", "2024-01-01")
	_, _ = s.CreateTask(ctx, u1, "b", "2024-01-03")
	_, _ = s.CreateTask(ctx, u1, "future", "2024-02-01")
	_, _ = s.CreateTask(ctx, u2, "foreign", "2024-01-02")
	_, _ = s.MarkDone(ctx, a)

	done, total, err = s.CountDoneVsTotal(ctx, u1, "2024-01-01")
	require.NoError(t, err)
	assert.Equal(t, 1, done)
	assert.Equal(t, 3, total)
}

func TestStore_ClearAll(t *testing.T) {
	s := NewStore(setupTestDB(t))
	ctx := context.Background()

	_, _ = s.CreateTask(ctx, u1, "a", "2024-01-01")
	_, _ = s.CreateTask(ctx, u1, "b", "2024-01-05")
	_, _ = s.CreateTask(ctx, u2, "keep", "2024-01-01")

	removed, err := s.ClearAll(ctx, u1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	_, total, err := s.CountDoneVsTotal(ctx, u1, "2000-01-01")
	require.NoError(t, err)
	assert.Equal(t, 0, total)

	_, total, err = s.CountDoneVsTotal(ctx, u2, "2000-01-01")
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestStore_StorageUnavailable(t *testing.T) {
	d := setupTestDB(t)
	s := NewStore(d)
	require.NoError(t, d.Close())

	ctx := context.Background()

	_, err := s.CreateTask(ctx, u1, "x", "2024-01-01")
	assert.True(t, errors.Is(err, ErrStorageUnavailable), "got %v", err)

	_, err = s.ListTasks(ctx, u1, "2024-01-01")
	assert.ErrorIs(t, err, ErrStorageUnavailable)

	_, err = s.MarkDone(ctx, 1)
	assert.ErrorIs(t, err, ErrStorageUnavailable)

	_, err = s.ClearOpenTasksToNextDay(ctx, u1, "2024-01-01")
	assert.ErrorIs(t, err, ErrStorageUnavailable)

	_, _, err = s.CountDoneVsTotal(ctx, u1, "2024-01-01")
	assert.ErrorIs(t, err, ErrStorageUnavailable)

	_, err = s.ClearAll(ctx, u1)
	assert.ErrorIs(t, err, ErrStorageUnavailable)
}

func TestScenario_BuyMilkCallMom(t *testing.T) {
	s := NewStore(setupTestDB(t))
	r := NewRollover(s, clock.FixedDay("2024-01-01"))
	ctx := context.Background()

	milk, err := s.CreateTask(ctx, u1, "buy milk", "2024-01-01")
	require.NoError(t, err)

	list, err := s.ListTasks(ctx, u1, "2024-01-01")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.False(t, list[0].Done)

	_, err = s.MarkDone(ctx, milk)
	require.NoError(t, err)

	list, err = s.ListTasks(ctx, u1, "2024-01-01")
	require.NoError(t, err)
	assert.True(t, list[0].Done)

	closed, err := r.CloseDay(ctx, u1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), closed.Moved)

	list, err = s.ListTasks(ctx, u1, "2024-01-01")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, milk, list[0].ID)

	mom, err := s.CreateTask(ctx, u1, "call mom", "2024-01-01")
	require.NoError(t, err)

	closed, err = r.CloseDay(ctx, u1)
	require.NoError(t, err)
	assert.Equal(t, DayClosed{From: "2024-01-01", To: "2024-01-02", Moved: 1}, closed)

	tomorrow, err := s.ListTasks(ctx, u1, "2024-01-02")
	require.NoError(t, err)
	require.Len(t, tomorrow, 1)
	assert.Equal(t, mom, tomorrow[0].ID)
	assert.Equal(t, "call mom", tomorrow[0].Body)

	today, err := s.ListTasks(ctx, u1, "2024-01-01")
	require.NoError(t, err)
	require.Len(t, today, 1)
	assert.Equal(t, milk, today[0].ID)
}
