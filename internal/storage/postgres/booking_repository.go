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

// BookingRepository owns booking and waitlist rows. All capacity-sensitive
// reads go through GetClassForUpdate first, so every decision for one class
// is serialized on its row lock.
type BookingRepository struct {
	pool *pgxpool.Pool
}

func NewBookingRepository(pool *pgxpool.Pool) *BookingRepository {
	return &BookingRepository{pool: pool}
}

func (r *BookingRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *BookingRepository) GetClassForUpdate(ctx context.Context, classID string) (domain.Class, error) {
	const query = `
SELECT id, name, instructor, room, start_time, end_time, capacity, is_cancelled, COALESCE(cancel_reason, '')
FROM classes
WHERE id = $1
FOR UPDATE`

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
		return domain.Class{}, fmt.Errorf("get class for update: %w", err)
	}
	return c, nil
}

func (r *BookingRepository) CountConfirmed(ctx context.Context, classID string) (int, error) {
	const query = `SELECT COUNT(*) FROM bookings WHERE class_id = $1 AND status = 'CONFIRMED'`

	var total int
	if err := r.queryRow(ctx, query, classID).Scan(&total); err != nil {
		if isInvalidUUID(err) {
			return 0, domain.ErrInvalidID
		}
		return 0, fmt.Errorf("count confirmed: %w", err)
	}
	return total, nil
}

func (r *BookingRepository) FindConfirmedBooking(ctx context.Context, userID, classID string) (*domain.Booking, error) {
	const query = `
SELECT id, user_id, class_id, status, booked_at, cancelled_at
FROM bookings
WHERE user_id = $1 AND class_id = $2 AND status = 'CONFIRMED'`

	var b domain.Booking
	err := r.queryRow(ctx, query, userID, classID).
		Scan(&b.ID, &b.UserID, &b.ClassID, &b.Status, &b.BookedAt, &b.CancelledAt)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find confirmed booking: %w", err)
	}
	return &b, nil
}

// HasOverlappingBooking reports whether the user holds a confirmed booking
// whose class interval overlaps [start, end) (half-open).
func (r *BookingRepository) HasOverlappingBooking(ctx context.Context, userID string, start, end time.Time) (bool, error) {
	const query = `
SELECT EXISTS (
	SELECT 1
	FROM bookings b
	JOIN classes c ON c.id = b.class_id
	WHERE b.user_id = $1 AND b.status = 'CONFIRMED'
	  AND c.start_time < $3 AND c.end_time > $2
)`

	var exists bool
	if err := r.queryRow(ctx, query, userID, start, end).Scan(&exists); err != nil {
		if isInvalidUUID(err) {
			return false, domain.ErrInvalidID
		}
		return false, fmt.Errorf("check overlapping booking: %w", err)
	}
	return exists, nil
}

func (r *BookingRepository) CreateBooking(ctx context.Context, b domain.Booking) error {
	const stmt = `
INSERT INTO bookings (id, user_id, class_id, status, booked_at)
VALUES ($1, $2, $3, $4, $5)`

	_, err := r.exec(ctx, stmt, b.ID, b.UserID, b.ClassID, b.Status, b.BookedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyBooked
		}
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create booking: %w", err)
	}
	return nil
}

func (r *BookingRepository) GetBooking(ctx context.Context, bookingID string) (domain.Booking, error) {
	const query = `
SELECT id, user_id, class_id, status, booked_at, cancelled_at
FROM bookings
WHERE id = $1`

	var b domain.Booking
	err := r.queryRow(ctx, query, bookingID).
		Scan(&b.ID, &b.UserID, &b.ClassID, &b.Status, &b.BookedAt, &b.CancelledAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Booking{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Booking{}, domain.ErrBookingNotFound
		}
		return domain.Booking{}, fmt.Errorf("get booking: %w", err)
	}
	return b, nil
}

// MarkBookingCancelled only transitions CONFIRMED rows, so a concurrent
// cancel of the same booking loses cleanly instead of double-promoting.
func (r *BookingRepository) MarkBookingCancelled(ctx context.Context, bookingID string, at time.Time) error {
	const stmt = `UPDATE bookings SET status = 'CANCELLED', cancelled_at = $2 WHERE id = $1 AND status = 'CONFIRMED'`

	tag, err := r.exec(ctx, stmt, bookingID, at)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("mark booking cancelled: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrBookingAlreadyCancelled
	}
	return nil
}

// NextWaitlistPosition returns max non-promoted position + 1 (1 when the
// queue is empty).
func (r *BookingRepository) NextWaitlistPosition(ctx context.Context, classID string) (int, error) {
	const query = `
SELECT COALESCE(MAX(position), 0) + 1
FROM waitlist_entries
WHERE class_id = $1 AND promoted_at IS NULL`

	var next int
	if err := r.queryRow(ctx, query, classID).Scan(&next); err != nil {
		if isInvalidUUID(err) {
			return 0, domain.ErrInvalidID
		}
		return 0, fmt.Errorf("next waitlist position: %w", err)
	}
	return next, nil
}

func (r *BookingRepository) CreateWaitlistEntry(ctx context.Context, e domain.WaitlistEntry) error {
	const stmt = `
INSERT INTO waitlist_entries (id, user_id, class_id, position, created_at)
VALUES ($1, $2, $3, $4, $5)`

	_, err := r.exec(ctx, stmt, e.ID, e.UserID, e.ClassID, e.Position, e.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyWaitlisted
		}
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create waitlist entry: %w", err)
	}
	return nil
}

// FindActiveWaitlistEntry returns the user's non-promoted entry for the
// class, or nil.
func (r *BookingRepository) FindActiveWaitlistEntry(ctx context.Context, userID, classID string) (*domain.WaitlistEntry, error) {
	const query = `
SELECT id, user_id, class_id, position, created_at, promoted_at
FROM waitlist_entries
WHERE user_id = $1 AND class_id = $2 AND promoted_at IS NULL`

	var e domain.WaitlistEntry
	err := r.queryRow(ctx, query, userID, classID).
		Scan(&e.ID, &e.UserID, &e.ClassID, &e.Position, &e.CreatedAt, &e.PromotedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find active waitlist entry: %w", err)
	}
	return &e, nil
}

func (r *BookingRepository) GetWaitlistEntry(ctx context.Context, entryID string) (domain.WaitlistEntry, error) {
	const query = `
SELECT id, user_id, class_id, position, created_at, promoted_at
FROM waitlist_entries
WHERE id = $1`

	var e domain.WaitlistEntry
	err := r.queryRow(ctx, query, entryID).
		Scan(&e.ID, &e.UserID, &e.ClassID, &e.Position, &e.CreatedAt, &e.PromotedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.WaitlistEntry{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.WaitlistEntry{}, domain.ErrWaitlistEntryNotFound
		}
		return domain.WaitlistEntry{}, fmt.Errorf("get waitlist entry: %w", err)
	}
	return e, nil
}

// ListActiveWaitlist returns non-promoted entries in promotion order:
// position ascending, creation time as the authoritative tie-break.
func (r *BookingRepository) ListActiveWaitlist(ctx context.Context, classID string) ([]domain.WaitlistEntry, error) {
	const query = `
SELECT id, user_id, class_id, position, created_at, promoted_at
FROM waitlist_entries
WHERE class_id = $1 AND promoted_at IS NULL
ORDER BY position ASC, created_at ASC`

	rows, err := r.query(ctx, query, classID)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("list waitlist: %w", err)
	}
	defer rows.Close()

	var out []domain.WaitlistEntry
	for rows.Next() {
		var e domain.WaitlistEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.ClassID, &e.Position, &e.CreatedAt, &e.PromotedAt); err != nil {
			return nil, fmt.Errorf("scan waitlist entry: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list waitlist: %w", err)
	}
	return out, nil
}

func (r *BookingRepository) MarkEntryPromoted(ctx context.Context, entryID string, at time.Time) error {
	const stmt = `UPDATE waitlist_entries SET promoted_at = $2 WHERE id = $1 AND promoted_at IS NULL`

	tag, err := r.exec(ctx, stmt, entryID, at)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("mark entry promoted: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrWaitlistEntryNotFound
	}
	return nil
}

func (r *BookingRepository) DeleteWaitlistEntry(ctx context.Context, entryID string) error {
	const stmt = `DELETE FROM waitlist_entries WHERE id = $1`

	tag, err := r.exec(ctx, stmt, entryID)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("delete waitlist entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrWaitlistEntryNotFound
	}
	return nil
}

// ReindexWaitlist renumbers non-promoted entries to contiguous positions
// 1..k ordered by creation time. One statement, inside the caller's tx.
func (r *BookingRepository) ReindexWaitlist(ctx context.Context, classID string) error {
	const stmt = `
UPDATE waitlist_entries w
SET position = ranked.rank
FROM (
	SELECT id, ROW_NUMBER() OVER (ORDER BY created_at ASC) AS rank
	FROM waitlist_entries
	WHERE class_id = $1 AND promoted_at IS NULL
) ranked
WHERE w.id = ranked.id AND w.position <> ranked.rank`

	if _, err := r.exec(ctx, stmt, classID); err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("reindex waitlist: %w", err)
	}
	return nil
}

func (r *BookingRepository) ListUserBookings(ctx context.Context, userID string, from time.Time) ([]domain.BookingDetail, error) {
	const query = `
SELECT b.id, b.user_id, b.class_id, b.status, b.booked_at, b.cancelled_at,
       c.id, c.name, c.instructor, c.room, c.start_time, c.end_time, c.capacity, c.is_cancelled, COALESCE(c.cancel_reason, '')
FROM bookings b
JOIN classes c ON c.id = b.class_id
WHERE b.user_id = $1 AND b.status = 'CONFIRMED' AND c.start_time >= $2
ORDER BY c.start_time ASC`

	rows, err := r.query(ctx, query, userID, from)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("list user bookings: %w", err)
	}
	defer rows.Close()

	var out []domain.BookingDetail
	for rows.Next() {
		var d domain.BookingDetail
		if err := rows.Scan(
			&d.ID, &d.UserID, &d.ClassID, &d.Status, &d.BookedAt, &d.CancelledAt,
			&d.Class.ID, &d.Class.Name, &d.Class.Instructor, &d.Class.Room,
			&d.Class.StartTime, &d.Class.EndTime, &d.Class.Capacity,
			&d.Class.Cancelled, &d.Class.CancelReason,
		); err != nil {
			return nil, fmt.Errorf("scan user booking: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list user bookings: %w", err)
	}
	return out, nil
}

func (r *BookingRepository) ListUserWaitlist(ctx context.Context, userID string, from time.Time) ([]domain.WaitlistDetail, error) {
	const query = `
SELECT w.id, w.user_id, w.class_id, w.position, w.created_at, w.promoted_at,
       c.id, c.name, c.instructor, c.room, c.start_time, c.end_time, c.capacity, c.is_cancelled, COALESCE(c.cancel_reason, ''),
       c.capacity - (SELECT COUNT(*) FROM bookings b WHERE b.class_id = c.id AND b.status = 'CONFIRMED')
FROM waitlist_entries w
JOIN classes c ON c.id = w.class_id
WHERE w.user_id = $1 AND w.promoted_at IS NULL AND c.start_time >= $2
ORDER BY c.start_time ASC`

	rows, err := r.query(ctx, query, userID, from)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("list user waitlist: %w", err)
	}
	defer rows.Close()

	var out []domain.WaitlistDetail
	for rows.Next() {
		var d domain.WaitlistDetail
		if err := rows.Scan(
			&d.ID, &d.UserID, &d.ClassID, &d.Position, &d.CreatedAt, &d.PromotedAt,
			&d.Class.ID, &d.Class.Name, &d.Class.Instructor, &d.Class.Room,
			&d.Class.StartTime, &d.Class.EndTime, &d.Class.Capacity,
			&d.Class.Cancelled, &d.Class.CancelReason,
			&d.SpotsAvailable,
		); err != nil {
			return nil, fmt.Errorf("scan user waitlist entry: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list user waitlist: %w", err)
	}
	return out, nil
}

func (r *BookingRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *BookingRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}

func (r *BookingRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}
