package scheduling

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"glowcrm/server/internal/domain"
	"glowcrm/server/internal/store"
)

// Policy errors. Each maps to a distinct boundary response; none is
// retryable without a corrected request.
var (
	ErrInvalidDuration     = errors.New("invalid duration")
	ErrInvalidServiceType  = errors.New("invalid service type")
	ErrOutOfBusinessHours  = errors.New("outside business hours")
	ErrClientNotFound      = errors.New("client not found")
	ErrReservationNotFound = errors.New("reservation not found")
)

type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(msg string) error {
	return &ValidationError{msg: msg}
}

// Policy is the clinic's scheduling rules. Values come from configuration,
// not constants, so a deployment can run different hours or slot sizes.
type Policy struct {
	SlotMinutes        int
	MaxDurationMinutes int
	WorkStartMinutes   int
	WorkEndMinutes     int
	Location           *time.Location
}

func DefaultPolicy(loc *time.Location) Policy {
	if loc == nil {
		loc = time.Local
	}
	return Policy{
		SlotMinutes:        10,
		MaxDurationMinutes: 120,
		WorkStartMinutes:   8 * 60,
		WorkEndMinutes:     20 * 60,
		Location:           loc,
	}
}

func (p Policy) validateDuration(minutes int) error {
	if minutes < p.SlotMinutes || minutes > p.MaxDurationMinutes || minutes%p.SlotMinutes != 0 {
		return ErrInvalidDuration
	}
	return nil
}

// Date is a calendar day in the clinic's local time zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func DateOf(t time.Time) Date {
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

func (d Date) midnight(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

func (d Date) AddDays(n int) Date {
	return DateOf(d.midnight(time.UTC).AddDate(0, 0, n))
}

func (d Date) After(o Date) bool {
	return d.midnight(time.UTC).After(o.midnight(time.UTC))
}

// TimeOfDay is a wall-clock start time within a Date.
type TimeOfDay struct {
	Hour   int
	Minute int
}

func (t TimeOfDay) minutes() int {
	return t.Hour*60 + t.Minute
}

// DayWindow converts a local calendar day to absolute bounds
// [local midnight, next local midnight). The arithmetic goes through
// time.Date so DST transitions land on the real midnights.
func (p Policy) DayWindow(d Date) (time.Time, time.Time) {
	start := d.midnight(p.Location)
	end := time.Date(d.Year, d.Month, d.Day+1, 0, 0, 0, 0, p.Location)
	return start.UTC(), end.UTC()
}

type Service struct {
	reservations store.ReservationRepository
	clients      store.ClientRepository
	policy       Policy
	now          func() time.Time
}

func NewService(reservations store.ReservationRepository, clients store.ClientRepository, policy Policy) *Service {
	return &Service{
		reservations: reservations,
		clients:      clients,
		policy:       policy,
		now:          time.Now,
	}
}

type CreateInput struct {
	ClientID        uuid.UUID
	ServiceType     domain.ServiceType
	Day             Date
	Start           TimeOfDay
	DurationMinutes int
	Notes           string
}

// Create validates the request against the clinic policy, resolves the
// client, and persists the reservation. The same-day overlap check runs in
// the repository inside the per-day calendar lock, so two concurrent
// requests for the same slot cannot both commit.
func (s *Service) Create(ctx context.Context, in CreateInput) (domain.Reservation, error) {
	if err := s.policy.validateDuration(in.DurationMinutes); err != nil {
		return domain.Reservation{}, err
	}
	if !in.ServiceType.Valid() {
		return domain.Reservation{}, ErrInvalidServiceType
	}

	startMinutes := in.Start.minutes()
	endMinutes := startMinutes + in.DurationMinutes
	if startMinutes < s.policy.WorkStartMinutes || endMinutes > s.policy.WorkEndMinutes {
		return domain.Reservation{}, ErrOutOfBusinessHours
	}

	client, err := s.clients.GetByID(ctx, in.ClientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Reservation{}, ErrClientNotFound
		}
		return domain.Reservation{}, err
	}

	startLocal := time.Date(in.Day.Year, in.Day.Month, in.Day.Day, in.Start.Hour, in.Start.Minute, 0, 0, s.policy.Location)

	res := domain.Reservation{
		ClientID:        in.ClientID,
		ServiceType:     in.ServiceType,
		ScheduledAt:     startLocal.UTC(),
		DurationMinutes: in.DurationMinutes,
		Status:          domain.ReservationStatusScheduled,
		Notes:           strings.TrimSpace(in.Notes),
	}

	created, err := s.reservations.Create(ctx, res)
	if err != nil {
		return domain.Reservation{}, err
	}
	created.Client = &client
	return created, nil
}

type UpdateInput struct {
	ServiceType     domain.ServiceType
	DurationMinutes int
	Notes           string
}

// Update mutates service type, duration and notes. Time and client are
// immutable. Growing the duration re-runs the business-hours check against
// the unchanged start time, and the repository re-runs the overlap check
// with the reservation excluded from its own comparison.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (domain.Reservation, error) {
	if err := s.policy.validateDuration(in.DurationMinutes); err != nil {
		return domain.Reservation{}, err
	}
	if !in.ServiceType.Valid() {
		return domain.Reservation{}, ErrInvalidServiceType
	}

	existing, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Reservation{}, ErrReservationNotFound
		}
		return domain.Reservation{}, err
	}

	startLocal := existing.ScheduledAt.In(s.policy.Location)
	startMinutes := startLocal.Hour()*60 + startLocal.Minute()
	if startMinutes < s.policy.WorkStartMinutes || startMinutes+in.DurationMinutes > s.policy.WorkEndMinutes {
		return domain.Reservation{}, ErrOutOfBusinessHours
	}

	existing.ServiceType = in.ServiceType
	existing.DurationMinutes = in.DurationMinutes
	existing.Notes = strings.TrimSpace(in.Notes)

	updated, err := s.reservations.Update(ctx, existing)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Reservation{}, ErrReservationNotFound
		}
		return domain.Reservation{}, err
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.reservations.Delete(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrReservationNotFound
	}
	return err
}

// ForDay returns the reservations whose start instant falls on the given
// local calendar day, ascending by start.
func (s *Service) ForDay(ctx context.Context, day Date) ([]domain.Reservation, error) {
	windowStart, windowEnd := s.policy.DayWindow(day)
	return s.reservations.ListWindow(ctx, windowStart, windowEnd)
}

// ForRange covers the inclusive day span [startDay, endDay].
func (s *Service) ForRange(ctx context.Context, startDay, endDay Date) ([]domain.Reservation, error) {
	if startDay.After(endDay) {
		return nil, validationError("end must not precede start")
	}
	windowStart, _ := s.policy.DayWindow(startDay)
	_, windowEnd := s.policy.DayWindow(endDay)
	return s.reservations.ListWindow(ctx, windowStart, windowEnd)
}

type Timeline struct {
	Upcoming []domain.Reservation
	Past     []domain.Reservation
}

// ForClient splits a client's reservations on "now": a reservation starting
// exactly at now counts as upcoming. Upcoming ascends, past descends.
func (s *Service) ForClient(ctx context.Context, clientID uuid.UUID) (Timeline, error) {
	rows, err := s.reservations.ListByClient(ctx, clientID)
	if err != nil {
		return Timeline{}, err
	}

	now := s.now().UTC()
	tl := Timeline{
		Upcoming: make([]domain.Reservation, 0, len(rows)),
		Past:     make([]domain.Reservation, 0, len(rows)),
	}
	for _, r := range rows {
		if !r.ScheduledAt.Before(now) {
			tl.Upcoming = append(tl.Upcoming, r)
		} else {
			tl.Past = append(tl.Past, r)
		}
	}

	sort.Slice(tl.Upcoming, func(i, j int) bool {
		return tl.Upcoming[i].ScheduledAt.Before(tl.Upcoming[j].ScheduledAt)
	})
	sort.Slice(tl.Past, func(i, j int) bool {
		return tl.Past[i].ScheduledAt.After(tl.Past[j].ScheduledAt)
	})

	return tl, nil
}
