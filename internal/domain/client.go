package domain

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Client struct {
	bun.BaseModel `bun:"table:clients"`

	ID         uuid.UUID  `bun:"id,pk,type:uuid"`
	FirstName  string     `bun:"first_name,notnull"`
	LastName   string     `bun:"last_name,notnull"`
	Phone      string     `bun:"phone,notnull"`
	Email      *string    `bun:"email"`
	BirthDate  *time.Time `bun:"birth_date"`
	Notes      *string    `bun:"notes"`
	Street     *string    `bun:"street"`
	City       *string    `bun:"city"`
	PostalCode *string    `bun:"postal_code"`
	AllowEmail bool       `bun:"allow_email,notnull"`
	AllowSms   bool       `bun:"allow_sms,notnull"`
	AllowPhoto bool       `bun:"allow_photo,notnull"`
	CreatedAt  time.Time  `bun:"created_at,notnull"`
	UpdatedAt  time.Time  `bun:"updated_at,notnull"`
}

// DisplayName is what the calendar shows next to a booking.
func (c *Client) DisplayName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

func (c *Client) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if c.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			c.ID = id
		}
		if c.CreatedAt.IsZero() {
			c.CreatedAt = now
		}
		if c.UpdatedAt.IsZero() {
			c.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		c.UpdatedAt = now
	}
	return nil
}
