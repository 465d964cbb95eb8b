package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"glowcrm/server/internal/domain"
)

// DayTx is the surface a create or update sees inside the transaction that
// holds the per-day calendar lock. The overlap check and the write must run
// against the same tx or two concurrent requests can both pass the check.
type DayTx interface {
	InsertReservation(ctx context.Context, res domain.Reservation) (domain.Reservation, error)
	UpdateReservation(ctx context.Context, res domain.Reservation) (domain.Reservation, error)
	ListDayWindow(ctx context.Context, windowStart, windowEnd time.Time) ([]domain.Reservation, error)
	GetReservation(ctx context.Context, id uuid.UUID) (domain.Reservation, error)
}
