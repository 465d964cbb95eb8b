package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"

	"glowcrm/server/internal/domain"
	"glowcrm/server/internal/store"
)

// ReservationRepo persists reservations on the clinic's single shared
// calendar. Writes that can collide (create, update) run inside a
// transaction holding a per-local-day advisory lock, so the day-window read
// and the write are serialized against concurrent requests for the same day.
type ReservationRepo struct {
	db  *bun.DB
	loc *time.Location
}

func NewReservationRepo(db *bun.DB, loc *time.Location) *ReservationRepo {
	if loc == nil {
		loc = time.Local
	}
	return &ReservationRepo{db: db, loc: loc}
}

type dayTx struct {
	tx bun.Tx
}

func (r *ReservationRepo) Create(ctx context.Context, res domain.Reservation) (domain.Reservation, error) {
	var out domain.Reservation
	err := r.InDayTransaction(ctx, res.ScheduledAt, func(ctx context.Context, tx store.DayTx) error {
		start, end := r.dayWindow(res.ScheduledAt)
		if err := ensureNoDayConflicts(ctx, tx, res, start, end); err != nil {
			return err
		}
		created, err := tx.InsertReservation(ctx, res)
		if err != nil {
			return err
		}
		out = created
		return nil
	})
	if err != nil {
		return domain.Reservation{}, err
	}
	return out, nil
}

func (r *ReservationRepo) Update(ctx context.Context, res domain.Reservation) (domain.Reservation, error) {
	var out domain.Reservation
	err := r.InDayTransaction(ctx, res.ScheduledAt, func(ctx context.Context, tx store.DayTx) error {
		start, end := r.dayWindow(res.ScheduledAt)
		updated, err := applyDayUpdate(ctx, tx, res, start, end)
		if err != nil {
			return err
		}
		out = updated
		return nil
	})
	if err != nil {
		return domain.Reservation{}, err
	}
	return out, nil
}

// applyDayUpdate re-reads the row under the day lock so the conflict check
// runs against the stored start instant, not the caller's copy. scheduled_at
// is immutable, so both copies agree on the lock key.
func applyDayUpdate(ctx context.Context, tx store.DayTx, res domain.Reservation, windowStart, windowEnd time.Time) (domain.Reservation, error) {
	current, err := tx.GetReservation(ctx, res.ID)
	if err != nil {
		return domain.Reservation{}, err
	}
	res.ScheduledAt = current.ScheduledAt
	if err := ensureNoDayConflicts(ctx, tx, res, windowStart, windowEnd); err != nil {
		return domain.Reservation{}, err
	}
	return tx.UpdateReservation(ctx, res)
}

func (r *ReservationRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.NewDelete().
		Model((*domain.Reservation)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *ReservationRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Reservation, error) {
	var row domain.Reservation
	err := r.db.NewSelect().
		Model(&row).
		Relation("Client").
		Relation("Treatment").
		Where("reservation.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Reservation{}, store.ErrNotFound
		}
		return domain.Reservation{}, err
	}
	return row, nil
}

func (r *ReservationRepo) ListWindow(ctx context.Context, windowStart, windowEnd time.Time) ([]domain.Reservation, error) {
	var rows []domain.Reservation
	err := r.db.NewSelect().
		Model(&rows).
		Relation("Client").
		Relation("Treatment").
		Where("scheduled_at >= ?", windowStart).
		Where("scheduled_at < ?", windowEnd).
		OrderExpr("scheduled_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ReservationRepo) ListByClient(ctx context.Context, clientID uuid.UUID) ([]domain.Reservation, error) {
	var rows []domain.Reservation
	err := r.db.NewSelect().
		Model(&rows).
		Relation("Treatment").
		Where("client_id = ?", clientID).
		OrderExpr("scheduled_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ReservationRepo) InDayTransaction(ctx context.Context, at time.Time, fn func(ctx context.Context, tx store.DayTx) error) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := lockClinicDay(ctx, tx, r.dayKey(at)); err != nil {
			return err
		}
		return fn(ctx, dayTx{tx: tx})
	})
}

// dayKey identifies the local calendar day a reservation lands on. It is the
// advisory lock key, so every writer touching the same day must derive it
// the same way.
func (r *ReservationRepo) dayKey(at time.Time) string {
	return "calendar:" + at.In(r.loc).Format("2006-01-02")
}

func (r *ReservationRepo) dayWindow(at time.Time) (time.Time, time.Time) {
	local := at.In(r.loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, r.loc)
	end := time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, r.loc)
	return start.UTC(), end.UTC()
}

func lockClinicDay(ctx context.Context, tx bun.Tx, dayKey string) error {
	_, err := tx.NewRaw("SELECT pg_advisory_xact_lock(hashtext(?))", dayKey).Exec(ctx)
	return err
}

// ensureNoDayConflicts re-reads the day window under the lock and applies
// the half-open overlap rule. res.ID is excluded so an update never
// conflicts with its own row.
func ensureNoDayConflicts(ctx context.Context, tx store.DayTx, res domain.Reservation, windowStart, windowEnd time.Time) error {
	rows, err := tx.ListDayWindow(ctx, windowStart, windowEnd)
	if err != nil {
		return err
	}
	if _, found := domain.FindConflict(rows, res.ScheduledAt, res.EndsAt(), res.ID); found {
		return store.ErrConflict
	}
	return nil
}

func (t dayTx) InsertReservation(ctx context.Context, res domain.Reservation) (domain.Reservation, error) {
	m := res
	m.Client = nil
	m.Treatment = nil

	_, err := t.tx.NewInsert().Model(&m).Exec(ctx)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			// The schema backs the advisory-lock check with an exclusion
			// constraint; treat a violation as the same outcome.
			if pgErr.Code == "23P01" && pgErr.ConstraintName == "reservations_no_overlap" {
				return domain.Reservation{}, store.ErrConflict
			}
		}
		return domain.Reservation{}, err
	}

	res.ID = m.ID
	res.CreatedAt = m.CreatedAt
	res.UpdatedAt = m.UpdatedAt
	return res, nil
}

func (t dayTx) UpdateReservation(ctx context.Context, res domain.Reservation) (domain.Reservation, error) {
	m := res
	m.Client = nil
	m.Treatment = nil

	result, err := t.tx.NewUpdate().
		Model(&m).
		Column("service_type", "duration_minutes", "notes", "status", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == "23P01" && pgErr.ConstraintName == "reservations_no_overlap" {
				return domain.Reservation{}, store.ErrConflict
			}
		}
		return domain.Reservation{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return domain.Reservation{}, err
	}
	if affected == 0 {
		return domain.Reservation{}, store.ErrNotFound
	}

	res.UpdatedAt = m.UpdatedAt
	return res, nil
}

func (t dayTx) ListDayWindow(ctx context.Context, windowStart, windowEnd time.Time) ([]domain.Reservation, error) {
	var rows []domain.Reservation
	err := t.tx.NewSelect().
		Model(&rows).
		Where("scheduled_at >= ?", windowStart).
		Where("scheduled_at < ?", windowEnd).
		OrderExpr("scheduled_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (t dayTx) GetReservation(ctx context.Context, id uuid.UUID) (domain.Reservation, error) {
	var row domain.Reservation
	err := t.tx.NewSelect().
		Model(&row).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Reservation{}, store.ErrNotFound
		}
		return domain.Reservation{}, err
	}
	return row, nil
}
