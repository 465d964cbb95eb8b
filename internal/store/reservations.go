package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"glowcrm/server/internal/domain"
)

type ReservationRepository interface {
	Create(ctx context.Context, res domain.Reservation) (domain.Reservation, error)
	Update(ctx context.Context, res domain.Reservation) (domain.Reservation, error)
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (domain.Reservation, error)

	// ListWindow returns reservations whose start instant falls within
	// [windowStart, windowEnd), ascending by start, with the client and
	// treatment relations loaded.
	ListWindow(ctx context.Context, windowStart, windowEnd time.Time) ([]domain.Reservation, error)
	ListByClient(ctx context.Context, clientID uuid.UUID) ([]domain.Reservation, error)
}

type ClientRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (domain.Client, error)
	Search(ctx context.Context, query string) ([]domain.Client, error)
	Create(ctx context.Context, c domain.Client) (domain.Client, error)
	Update(ctx context.Context, c domain.Client) (domain.Client, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
