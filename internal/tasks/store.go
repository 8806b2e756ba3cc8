package tasks

import (
	"context"
	"errors"
	"fmt"

	"daily-planner-bot/internal/clock"
	"daily-planner-bot/internal/db"
)

// ErrStorageUnavailable wraps every failure of the underlying database.
var ErrStorageUnavailable = errors.New("storage unavailable")

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStorageUnavailable, err)
}

type Store struct {
	DB *db.DB
}

func NewStore(dbx *db.DB) *Store {
	return &Store{DB: dbx}
}

func (s *Store) CreateTask(ctx context.Context, ownerID int64, body string, day clock.Day) (int64, error) {
	var id int64
	err := s.DB.QueryRowContext(ctx, `
		INSERT INTO tasks (owner_id, body, day, done)
		VALUES ($1, $2, $3, FALSE)
		RETURNING id
	`, ownerID, body, string(day)).Scan(&id)
	if err != nil {
		return 0, unavailable("create task", err)
	}
	return id, nil
}

// ListTasks returns the owner's tasks for one day in insertion order.
func (s *Store) ListTasks(ctx context.Context, ownerID int64, day clock.Day) ([]Task, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, owner_id, body, day, done
		FROM tasks
		WHERE owner_id = $1 AND day = $2
		ORDER BY id
	`, ownerID, string(day))
	if err != nil {
		return nil, unavailable("list tasks", err)
	}
	defer rows.Close()

	list := []Task{}
	for rows.Next() {
		var (
			t Task
			d string
		)
		if err := rows.Scan(&t.ID, &t.OwnerID, &t.Body, &d, &t.Done); err != nil {
			return nil, unavailable("list tasks", err)
		}
		t.Day = clock.Day(d)
		list = append(list, t)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list tasks", err)
	}

	return list, nil
}

// MarkDone sets done on any task with this id. Marking twice is harmless.
func (s *Store) MarkDone(ctx context.Context, taskID int64) (MarkResult, error) {
	return s.markDone(ctx, `id = $1`, taskID)
}

// MarkOwnedDone is MarkDone restricted to the owner's rows;
// someone else's task looks the same as a missing one.
func (s *Store) MarkOwnedDone(ctx context.Context, ownerID, taskID int64) (MarkResult, error) {
	return s.markDone(ctx, `id = $1 AND owner_id = $2`, taskID, ownerID)
}

func (s *Store) markDone(ctx context.Context, where string, args ...any) (MarkResult, error) {
	res, err := s.DB.ExecContext(ctx, `UPDATE tasks SET done = TRUE WHERE done = FALSE AND `+where, args...)
	if err != nil {
		return MarkNotFound, unavailable("mark done", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return MarkNotFound, unavailable("mark done", err)
	}
	if affected > 0 {
		return MarkUpdated, nil
	}

	var n int
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks WHERE `+where, args...).Scan(&n); err != nil {
		return MarkNotFound, unavailable("mark done", err)
	}
	if n == 0 {
		return MarkNotFound, nil
	}
	return MarkAlreadyDone, nil
}

// ClearOpenTasksToNextDay moves the owner's undone tasks of day to day+1.
// Done tasks keep their day.
func (s *Store) ClearOpenTasksToNextDay(ctx context.Context, ownerID int64, day clock.Day) (int64, error) {
	res, err := s.DB.ExecContext(ctx, `
		UPDATE tasks
		SET day = $1
		WHERE owner_id = $2 AND day = $3 AND done = FALSE
	`, string(day.AddDays(1)), ownerID, string(day))
	if err != nil {
		return 0, unavailable("roll over tasks", err)
	}
	moved, err := res.RowsAffected()
	if err != nil {
		return 0, unavailable("roll over tasks", err)
	}
	return moved, nil
}

// CountDoneVsTotal counts the owner's tasks with day >= since.
func (s *Store) CountDoneVsTotal(ctx context.Context, ownerID int64, since clock.Day) (done, total int, err error) {
	err = s.DB.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN done THEN 1 ELSE 0 END), 0)
		FROM tasks
		WHERE owner_id = $1 AND day >= $2
	`, ownerID, string(since)).Scan(&total, &done)
	if err != nil {
		return 0, 0, unavailable("count tasks", err)
	}
	return done, total, nil
}

// ClearAll wipes every task of the owner, all days.
func (s *Store) ClearAll(ctx context.Context, ownerID int64) (int64, error) {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM tasks WHERE owner_id = $1`, ownerID)
	if err != nil {
		return 0, unavailable("clear tasks", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, unavailable("clear tasks", err)
	}
	return removed, nil
}
