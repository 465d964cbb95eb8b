package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Treatment struct {
	bun.BaseModel `bun:"table:treatments"`

	ID              uuid.UUID `bun:"id,pk,type:uuid"`
	Name            string    `bun:"name,notnull"`
	Description     *string   `bun:"description"`
	Price           float64   `bun:"price,notnull"`
	DurationMinutes int       `bun:"duration_minutes,notnull"`
	IsActive        bool      `bun:"is_active,notnull"`
	CreatedAt       time.Time `bun:"created_at,notnull"`
	UpdatedAt       time.Time `bun:"updated_at,notnull"`
}
