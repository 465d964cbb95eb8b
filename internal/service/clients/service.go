package clients

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"glowcrm/server/internal/domain"
	"glowcrm/server/internal/store"
)

var ErrNotFound = errors.New("client not found")

type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(msg string) error {
	return &ValidationError{msg: msg}
}

type Service struct {
	clients store.ClientRepository
}

func NewService(clients store.ClientRepository) *Service {
	return &Service{clients: clients}
}

// Input carries the editable client fields. Pointer fields are optional;
// nil clears the stored value on update.
type Input struct {
	FirstName  string
	LastName   string
	Phone      string
	Email      *string
	BirthDate  *string
	Notes      *string
	Street     *string
	City       *string
	PostalCode *string
	AllowEmail bool
	AllowSms   bool
	AllowPhoto bool
}

func (in Input) validate() error {
	if strings.TrimSpace(in.FirstName) == "" {
		return validationError("first name is required")
	}
	if strings.TrimSpace(in.LastName) == "" {
		return validationError("last name is required")
	}
	if strings.TrimSpace(in.Phone) == "" {
		return validationError("phone is required")
	}
	return nil
}

func (in Input) apply(c *domain.Client) error {
	c.FirstName = strings.TrimSpace(in.FirstName)
	c.LastName = strings.TrimSpace(in.LastName)
	c.Phone = strings.TrimSpace(in.Phone)
	c.Email = trimOptional(in.Email)
	c.Notes = trimOptional(in.Notes)
	c.Street = trimOptional(in.Street)
	c.City = trimOptional(in.City)
	c.PostalCode = trimOptional(in.PostalCode)
	c.AllowEmail = in.AllowEmail
	c.AllowSms = in.AllowSms
	c.AllowPhoto = in.AllowPhoto

	birthDate, err := parseBirthDate(in.BirthDate)
	if err != nil {
		return err
	}
	c.BirthDate = birthDate
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (domain.Client, error) {
	c, err := s.clients.GetByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Client{}, ErrNotFound
	}
	return c, err
}

// Search matches the query against names, phone, email and address fields.
// An empty query lists everyone.
func (s *Service) Search(ctx context.Context, query string) ([]domain.Client, error) {
	return s.clients.Search(ctx, strings.TrimSpace(query))
}

func (s *Service) Create(ctx context.Context, in Input) (domain.Client, error) {
	if err := in.validate(); err != nil {
		return domain.Client{}, err
	}

	var c domain.Client
	if err := in.apply(&c); err != nil {
		return domain.Client{}, err
	}
	return s.clients.Create(ctx, c)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, in Input) (domain.Client, error) {
	if err := in.validate(); err != nil {
		return domain.Client{}, err
	}

	existing, err := s.clients.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Client{}, ErrNotFound
		}
		return domain.Client{}, err
	}

	if err := in.apply(&existing); err != nil {
		return domain.Client{}, err
	}

	updated, err := s.clients.Update(ctx, existing)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Client{}, ErrNotFound
		}
		return domain.Client{}, err
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.clients.Delete(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func parseBirthDate(s *string) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", trimmed)
	if err != nil {
		return nil, validationError("birth date must be YYYY-MM-DD")
	}
	return &t, nil
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
