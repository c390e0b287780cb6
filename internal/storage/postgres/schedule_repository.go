package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dlight09/vibe-studio/internal/domain"
)

type ScheduleRepository struct {
	pool *pgxpool.Pool
}

func NewScheduleRepository(pool *pgxpool.Pool) *ScheduleRepository {
	return &ScheduleRepository{pool: pool}
}

func (r *ScheduleRepository) CreateClass(ctx context.Context, c domain.Class) error {
	const stmt = `
INSERT INTO classes (id, name, instructor, room, start_time, end_time, capacity)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.exec(ctx, stmt, c.ID, c.Name, c.Instructor, c.Room, c.StartTime, c.EndTime, c.Capacity)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create class: %w", err)
	}
	return nil
}

func (r *ScheduleRepository) GetClass(ctx context.Context, classID string) (domain.Class, error) {
	const query = `
SELECT id, name, instructor, room, start_time, end_time, capacity, is_cancelled, COALESCE(cancel_reason, '')
FROM classes
WHERE id = $1`

	var c domain.Class
	err := r.queryRow(ctx, query, classID).Scan(
		&c.ID, &c.Name, &c.Instructor, &c.Room, &c.StartTime, &c.EndTime,
		&c.Capacity, &c.Cancelled, &c.CancelReason,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Class{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Class{}, domain.ErrClassNotFound
		}
		return domain.Class{}, fmt.Errorf("get class: %w", err)
	}
	return c, nil
}

func (r *ScheduleRepository) MarkClassCancelled(ctx context.Context, classID, reason string) error {
	const stmt = `UPDATE classes SET is_cancelled = TRUE, cancel_reason = NULLIF($2, '') WHERE id = $1`

	tag, err := r.exec(ctx, stmt, classID, reason)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("mark class cancelled: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrClassNotFound
	}
	return nil
}

func (r *ScheduleRepository) SetClassCapacity(ctx context.Context, classID string, capacity int) error {
	const stmt = `UPDATE classes SET capacity = $2 WHERE id = $1`

	tag, err := r.exec(ctx, stmt, classID, capacity)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("set class capacity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrClassNotFound
	}
	return nil
}

// ListSchedule returns classes starting in [from, to) with occupancy derived
// from booking and waitlist rows.
func (r *ScheduleRepository) ListSchedule(ctx context.Context, from, to time.Time) ([]domain.ClassAvailability, error) {
	const query = `
SELECT c.id, c.name, c.instructor, c.room, c.start_time, c.end_time, c.capacity, c.is_cancelled, COALESCE(c.cancel_reason, ''),
       (SELECT COUNT(*) FROM bookings b WHERE b.class_id = c.id AND b.status = 'CONFIRMED') AS confirmed,
       (SELECT COUNT(*) FROM waitlist_entries w WHERE w.class_id = c.id AND w.promoted_at IS NULL) AS waitlisted
FROM classes c
WHERE c.start_time >= $1 AND c.start_time < $2
ORDER BY c.start_time ASC`

	rows, err := r.query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("list schedule: %w", err)
	}
	defer rows.Close()

	var out []domain.ClassAvailability
	for rows.Next() {
		var a domain.ClassAvailability
		if err := rows.Scan(
			&a.ID, &a.Name, &a.Instructor, &a.Room, &a.StartTime, &a.EndTime,
			&a.Capacity, &a.Cancelled, &a.CancelReason,
			&a.Confirmed, &a.WaitlistCount,
		); err != nil {
			return nil, fmt.Errorf("scan schedule row: %w", err)
		}
		a.SpotsRemaining = a.Capacity - a.Confirmed
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list schedule: %w", err)
	}
	return out, nil
}

func (r *ScheduleRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *ScheduleRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}

func (r *ScheduleRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}
