package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"glowcrm/server/internal/domain"
	"glowcrm/server/internal/metrics"
	"glowcrm/server/internal/service/scheduling"
	"glowcrm/server/internal/store"
)

const (
	dateLayout      = "2006-01-02"
	clockLayout     = "15:04"
	localTimeLayout = "2006-01-02T15:04"
)

type schedulingService interface {
	Create(ctx context.Context, in scheduling.CreateInput) (domain.Reservation, error)
	Update(ctx context.Context, id uuid.UUID, in scheduling.UpdateInput) (domain.Reservation, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ForDay(ctx context.Context, day scheduling.Date) ([]domain.Reservation, error)
	ForRange(ctx context.Context, startDay, endDay scheduling.Date) ([]domain.Reservation, error)
	ForClient(ctx context.Context, clientID uuid.UUID) (scheduling.Timeline, error)
}

type CalendarHandler struct {
	svc    schedulingService
	loc    *time.Location
	logger *slog.Logger
	now    func() time.Time
}

func NewCalendarHandler(svc schedulingService, loc *time.Location, logger *slog.Logger) *CalendarHandler {
	return &CalendarHandler{
		svc:    svc,
		loc:    loc,
		logger: logger,
		now:    time.Now,
	}
}

func (h *CalendarHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/calendar", h.day)
	mux.HandleFunc("POST /api/calendar", h.create)
	mux.HandleFunc("GET /api/calendar/range", h.window)
	mux.HandleFunc("GET /api/calendar/client/{clientID}", h.clientTimeline)
	mux.HandleFunc("PUT /api/calendar/{id}", h.update)
	mux.HandleFunc("DELETE /api/calendar/{id}", h.remove)
}

type calendarItem struct {
	ID              uuid.UUID  `json:"id"`
	ClientID        uuid.UUID  `json:"clientId"`
	ClientName      string     `json:"clientName"`
	ServiceType     string     `json:"serviceType"`
	TreatmentID     *uuid.UUID `json:"treatmentId,omitempty"`
	TreatmentName   *string    `json:"treatmentName,omitempty"`
	Date            string     `json:"date"`
	StartTime       string     `json:"startTime"`
	DurationMinutes int        `json:"durationMinutes"`
	Notes           string     `json:"notes,omitempty"`
}

func (h *CalendarHandler) toCalendarItem(r domain.Reservation) calendarItem {
	startLocal := r.ScheduledAt.In(h.loc)
	item := calendarItem{
		ID:              r.ID,
		ClientID:        r.ClientID,
		ServiceType:     string(r.ServiceType),
		TreatmentID:     r.TreatmentID,
		Date:            startLocal.Format(dateLayout),
		StartTime:       startLocal.Format(clockLayout),
		DurationMinutes: r.DurationMinutes,
		Notes:           r.Notes,
	}
	if r.Client != nil {
		item.ClientName = r.Client.DisplayName()
	}
	if r.Treatment != nil {
		item.TreatmentName = &r.Treatment.Name
	}
	return item
}

type timelineEntry struct {
	ID              uuid.UUID `json:"id"`
	ServiceType     string    `json:"serviceType"`
	ServiceLabel    string    `json:"serviceLabel"`
	Start           string    `json:"start"`
	DurationMinutes int       `json:"durationMinutes"`
	Status          string    `json:"status"`
	Notes           string    `json:"notes,omitempty"`
}

type timelineResponse struct {
	Upcoming []timelineEntry `json:"upcoming"`
	Past     []timelineEntry `json:"past"`
}

func (h *CalendarHandler) toTimelineEntries(rows []domain.Reservation) []timelineEntry {
	out := make([]timelineEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, timelineEntry{
			ID:              r.ID,
			ServiceType:     string(r.ServiceType),
			ServiceLabel:    serviceLabel(r),
			Start:           r.ScheduledAt.In(h.loc).Format(localTimeLayout),
			DurationMinutes: r.DurationMinutes,
			Status:          string(r.Status),
			Notes:           r.Notes,
		})
	}
	return out
}

// serviceLabel is the treatment's name only for treatment reservations; a
// consultation keeps the consultation label even when a treatment row is
// linked.
func serviceLabel(r domain.Reservation) string {
	if r.ServiceType == domain.ServiceTypeTreatment {
		if r.Treatment != nil {
			return r.Treatment.Name
		}
		return "Treatment"
	}
	return "Consultation"
}

// parseServiceType normalizes the boundary synonyms. Unknown values pass
// through unchanged so the service rejects them in its own validation
// order.
func parseServiceType(s string) domain.ServiceType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "treatment", "zabieg":
		return domain.ServiceTypeTreatment
	case "consultation", "konsultacja":
		return domain.ServiceTypeConsultation
	default:
		return domain.ServiceType(strings.TrimSpace(s))
	}
}

func parseDate(s string) (scheduling.Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return scheduling.Date{}, err
	}
	return scheduling.DateOf(t), nil
}

func parseClock(s string) (scheduling.TimeOfDay, error) {
	t, err := time.Parse(clockLayout, strings.TrimSpace(s))
	if err != nil {
		return scheduling.TimeOfDay{}, err
	}
	return scheduling.TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

type createReservationRequest struct {
	ClientID        uuid.UUID `json:"clientId"`
	ServiceType     string    `json:"serviceType"`
	Date            string    `json:"date"`
	StartTime       string    `json:"startTime"`
	DurationMinutes int       `json:"durationMinutes"`
	Notes           string    `json:"notes"`
}

func (h *CalendarHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createReservationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	day, err := parseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	start, err := parseClock(req.StartTime)
	if err != nil {
		writeError(w, http.StatusBadRequest, "startTime must be HH:MM")
		return
	}

	created, err := h.svc.Create(r.Context(), scheduling.CreateInput{
		ClientID:        req.ClientID,
		ServiceType:     parseServiceType(req.ServiceType),
		Day:             day,
		Start:           start,
		DurationMinutes: req.DurationMinutes,
		Notes:           req.Notes,
	})
	if err != nil {
		h.writeSchedulingError(w, r, err)
		return
	}

	metrics.IncReservationCreated(string(created.ServiceType))
	writeJSON(w, http.StatusCreated, h.toCalendarItem(created))
}

type updateReservationRequest struct {
	ServiceType     string `json:"serviceType"`
	DurationMinutes int    `json:"durationMinutes"`
	Notes           string `json:"notes"`
}

func (h *CalendarHandler) update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid reservation id")
		return
	}

	var req updateReservationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	_, err = h.svc.Update(r.Context(), id, scheduling.UpdateInput{
		ServiceType:     parseServiceType(req.ServiceType),
		DurationMinutes: req.DurationMinutes,
		Notes:           req.Notes,
	})
	if err != nil {
		h.writeSchedulingError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *CalendarHandler) remove(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid reservation id")
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		h.writeSchedulingError(w, r, err)
		return
	}

	metrics.IncReservationCancelled()
	w.WriteHeader(http.StatusNoContent)
}

func (h *CalendarHandler) day(w http.ResponseWriter, r *http.Request) {
	day := scheduling.DateOf(h.now().In(h.loc))
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := parseDate(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		day = parsed
	}

	rows, err := h.svc.ForDay(r.Context(), day)
	if err != nil {
		h.writeSchedulingError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.toCalendarItems(rows))
}

func (h *CalendarHandler) window(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	startDay := mondayOf(scheduling.DateOf(h.now().In(h.loc)))
	if raw := q.Get("start"); raw != "" {
		parsed, err := parseDate(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "start must be YYYY-MM-DD")
			return
		}
		startDay = parsed
	}

	endDay := startDay.AddDays(6)
	if raw := q.Get("end"); raw != "" {
		parsed, err := parseDate(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "end must be YYYY-MM-DD")
			return
		}
		endDay = parsed
	}

	rows, err := h.svc.ForRange(r.Context(), startDay, endDay)
	if err != nil {
		h.writeSchedulingError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.toCalendarItems(rows))
}

func (h *CalendarHandler) clientTimeline(w http.ResponseWriter, r *http.Request) {
	clientID, err := uuid.Parse(r.PathValue("clientID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid client id")
		return
	}

	tl, err := h.svc.ForClient(r.Context(), clientID)
	if err != nil {
		h.writeSchedulingError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, timelineResponse{
		Upcoming: h.toTimelineEntries(tl.Upcoming),
		Past:     h.toTimelineEntries(tl.Past),
	})
}

func (h *CalendarHandler) toCalendarItems(rows []domain.Reservation) []calendarItem {
	items := make([]calendarItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, h.toCalendarItem(row))
	}
	return items
}

func (h *CalendarHandler) writeSchedulingError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *scheduling.ValidationError

	switch {
	case errors.Is(err, scheduling.ErrInvalidDuration),
		errors.Is(err, scheduling.ErrInvalidServiceType),
		errors.Is(err, scheduling.ErrOutOfBusinessHours),
		errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, scheduling.ErrClientNotFound),
		errors.Is(err, scheduling.ErrReservationNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrConflict):
		metrics.IncSchedulingConflict()
		writeError(w, http.StatusConflict, "the requested time overlaps an existing reservation")
	default:
		h.logger.Error("calendar request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// mondayOf returns the Monday of d's ISO week.
func mondayOf(d scheduling.Date) scheduling.Date {
	t := time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
	offset := (int(t.Weekday()) + 6) % 7
	return d.AddDays(-offset)
}
