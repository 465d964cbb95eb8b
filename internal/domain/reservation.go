package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type ServiceType string

const (
	ServiceTypeTreatment    ServiceType = "treatment"
	ServiceTypeConsultation ServiceType = "consultation"
)

func (t ServiceType) Valid() bool {
	return t == ServiceTypeTreatment || t == ServiceTypeConsultation
}

type ReservationStatus string

const (
	ReservationStatusScheduled ReservationStatus = "Scheduled"
	ReservationStatusCompleted ReservationStatus = "Completed"
	ReservationStatusCancelled ReservationStatus = "Cancelled"
)

// Reservation occupies [ScheduledAt, ScheduledAt+DurationMinutes) on the
// clinic's single shared calendar. ScheduledAt is stored in UTC.
type Reservation struct {
	bun.BaseModel `bun:"table:reservations"`

	ID              uuid.UUID         `bun:"id,pk,type:uuid"`
	ClientID        uuid.UUID         `bun:"client_id,notnull,type:uuid"`
	TreatmentID     *uuid.UUID        `bun:"treatment_id,type:uuid"`
	ServiceType     ServiceType       `bun:"service_type,notnull"`
	ScheduledAt     time.Time         `bun:"scheduled_at,notnull"`
	DurationMinutes int               `bun:"duration_minutes,notnull"`
	Status          ReservationStatus `bun:"status,notnull"`
	Notes           string            `bun:"notes"`
	CreatedAt       time.Time         `bun:"created_at,notnull"`
	UpdatedAt       time.Time         `bun:"updated_at,notnull"`

	Client    *Client    `bun:"rel:belongs-to,join:client_id=id"`
	Treatment *Treatment `bun:"rel:belongs-to,join:treatment_id=id"`
}

func (r *Reservation) EndsAt() time.Time {
	return r.ScheduledAt.Add(time.Duration(r.DurationMinutes) * time.Minute)
}

func (r *Reservation) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if r.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			r.ID = id
		}
		if r.CreatedAt.IsZero() {
			r.CreatedAt = now
		}
		if r.UpdatedAt.IsZero() {
			r.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		r.UpdatedAt = now
	}
	return nil
}
