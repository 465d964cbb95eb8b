package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"glowcrm/server/internal/domain"
	"glowcrm/server/internal/service/scheduling"
	"glowcrm/server/internal/store"
)

type fakeScheduling struct {
	createFn    func(ctx context.Context, in scheduling.CreateInput) (domain.Reservation, error)
	updateFn    func(ctx context.Context, id uuid.UUID, in scheduling.UpdateInput) (domain.Reservation, error)
	deleteFn    func(ctx context.Context, id uuid.UUID) error
	forDayFn    func(ctx context.Context, day scheduling.Date) ([]domain.Reservation, error)
	forRangeFn  func(ctx context.Context, startDay, endDay scheduling.Date) ([]domain.Reservation, error)
	forClientFn func(ctx context.Context, clientID uuid.UUID) (scheduling.Timeline, error)
}

func (f *fakeScheduling) Create(ctx context.Context, in scheduling.CreateInput) (domain.Reservation, error) {
	if f.createFn == nil {
		panic("Create not configured")
	}
	return f.createFn(ctx, in)
}

func (f *fakeScheduling) Update(ctx context.Context, id uuid.UUID, in scheduling.UpdateInput) (domain.Reservation, error) {
	if f.updateFn == nil {
		panic("Update not configured")
	}
	return f.updateFn(ctx, id, in)
}

func (f *fakeScheduling) Delete(ctx context.Context, id uuid.UUID) error {
	if f.deleteFn == nil {
		panic("Delete not configured")
	}
	return f.deleteFn(ctx, id)
}

func (f *fakeScheduling) ForDay(ctx context.Context, day scheduling.Date) ([]domain.Reservation, error) {
	if f.forDayFn == nil {
		panic("ForDay not configured")
	}
	return f.forDayFn(ctx, day)
}

func (f *fakeScheduling) ForRange(ctx context.Context, startDay, endDay scheduling.Date) ([]domain.Reservation, error) {
	if f.forRangeFn == nil {
		panic("ForRange not configured")
	}
	return f.forRangeFn(ctx, startDay, endDay)
}

func (f *fakeScheduling) ForClient(ctx context.Context, clientID uuid.UUID) (scheduling.Timeline, error) {
	if f.forClientFn == nil {
		panic("ForClient not configured")
	}
	return f.forClientFn(ctx, clientID)
}

func testMux(t *testing.T, svc *fakeScheduling) *http.ServeMux {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Warsaw")
	if err != nil {
		t.Fatalf("LoadLocation error: %v", err)
	}
	h := NewCalendarHandler(svc, loc, slog.New(slog.NewTextHandler(io.Discard, nil)))
	h.now = func() time.Time {
		// A Wednesday.
		return time.Date(2026, 3, 4, 12, 0, 0, 0, loc)
	}
	mux := http.NewServeMux()
	h.Register(mux)
	return mux
}

func sampleReservation() domain.Reservation {
	clientID := uuid.MustParse("00000000-0000-0000-0000-000000000701")
	return domain.Reservation{
		ID:              uuid.MustParse("00000000-0000-0000-0000-000000000702"),
		ClientID:        clientID,
		ServiceType:     domain.ServiceTypeTreatment,
		ScheduledAt:     time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC),
		DurationMinutes: 30,
		Status:          domain.ReservationStatusScheduled,
		Notes:           "first visit",
		Client: &domain.Client{
			ID:        clientID,
			FirstName: "Anna",
			LastName:  "Kowalska",
		},
	}
}

func TestCreateReservation(t *testing.T) {
	var gotInput scheduling.CreateInput
	svc := &fakeScheduling{
		createFn: func(ctx context.Context, in scheduling.CreateInput) (domain.Reservation, error) {
			gotInput = in
			return sampleReservation(), nil
		},
	}
	mux := testMux(t, svc)

	body := `{"clientId":"00000000-0000-0000-0000-000000000701","serviceType":"zabieg","date":"2026-03-04","startTime":"10:00","durationMinutes":30,"notes":"first visit"}`
	req := httptest.NewRequest(http.MethodPost, "/api/calendar", strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body %s", rec.Code, rec.Body.String())
	}
	if gotInput.ServiceType != domain.ServiceTypeTreatment {
		t.Fatalf("service type = %q, want synonym mapped to %q", gotInput.ServiceType, domain.ServiceTypeTreatment)
	}
	if gotInput.Day != (scheduling.Date{Year: 2026, Month: time.March, Day: 4}) {
		t.Fatalf("day = %+v", gotInput.Day)
	}
	if gotInput.Start != (scheduling.TimeOfDay{Hour: 10, Minute: 0}) {
		t.Fatalf("start = %+v", gotInput.Start)
	}

	var item map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &item); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if item["clientName"] != "Anna Kowalska" {
		t.Fatalf("clientName = %v", item["clientName"])
	}
	// 09:00 UTC in March is 10:00 in Warsaw.
	if item["date"] != "2026-03-04" || item["startTime"] != "10:00" {
		t.Fatalf("date/startTime = %v/%v", item["date"], item["startTime"])
	}
	if item["serviceType"] != "treatment" {
		t.Fatalf("serviceType = %v", item["serviceType"])
	}
}

func TestCreateReservation_BadPayloads(t *testing.T) {
	svc := &fakeScheduling{
		createFn: func(ctx context.Context, in scheduling.CreateInput) (domain.Reservation, error) {
			t.Fatal("service should not be called")
			return domain.Reservation{}, nil
		},
	}
	mux := testMux(t, svc)

	cases := []struct {
		name string
		body string
	}{
		{"not json", "{"},
		{"bad date", `{"clientId":"00000000-0000-0000-0000-000000000701","serviceType":"treatment","date":"04.03.2026","startTime":"10:00","durationMinutes":30}`},
		{"bad time", `{"clientId":"00000000-0000-0000-0000-000000000701","serviceType":"treatment","date":"2026-03-04","startTime":"10am","durationMinutes":30}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/calendar", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestCreateReservation_ErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"invalid duration", scheduling.ErrInvalidDuration, http.StatusBadRequest},
		{"invalid service type", scheduling.ErrInvalidServiceType, http.StatusBadRequest},
		{"outside hours", scheduling.ErrOutOfBusinessHours, http.StatusBadRequest},
		{"client missing", scheduling.ErrClientNotFound, http.StatusNotFound},
		{"slot taken", store.ErrConflict, http.StatusConflict},
		{"backend down", context.DeadlineExceeded, http.StatusInternalServerError},
	}

	body := `{"clientId":"00000000-0000-0000-0000-000000000701","serviceType":"treatment","date":"2026-03-04","startTime":"10:00","durationMinutes":30}`

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &fakeScheduling{
				createFn: func(ctx context.Context, in scheduling.CreateInput) (domain.Reservation, error) {
					return domain.Reservation{}, tc.err
				},
			}
			mux := testMux(t, svc)

			req := httptest.NewRequest(http.MethodPost, "/api/calendar", strings.NewReader(body))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
			var resp map[string]any
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode error: %v", err)
			}
			if _, ok := resp["message"]; !ok {
				t.Fatalf("body %s lacks message field", rec.Body.String())
			}
		})
	}
}

func TestDayDefaultsToToday(t *testing.T) {
	svc := &fakeScheduling{
		forDayFn: func(ctx context.Context, day scheduling.Date) ([]domain.Reservation, error) {
			want := scheduling.Date{Year: 2026, Month: time.March, Day: 4}
			if day != want {
				t.Fatalf("day = %+v, want %+v", day, want)
			}
			return []domain.Reservation{sampleReservation()}, nil
		},
	}
	mux := testMux(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/api/calendar", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var items []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}
}

func TestRangeDefaultsToCurrentWeek(t *testing.T) {
	svc := &fakeScheduling{
		forRangeFn: func(ctx context.Context, startDay, endDay scheduling.Date) ([]domain.Reservation, error) {
			wantStart := scheduling.Date{Year: 2026, Month: time.March, Day: 2}
			wantEnd := scheduling.Date{Year: 2026, Month: time.March, Day: 8}
			if startDay != wantStart || endDay != wantEnd {
				t.Fatalf("range = %+v..%+v, want %+v..%+v", startDay, endDay, wantStart, wantEnd)
			}
			return nil, nil
		},
	}
	mux := testMux(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/api/calendar/range", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Fatalf("body = %s, want empty array", body)
	}
}

func TestRangeEndOnlyDefaultsStartToMonday(t *testing.T) {
	svc := &fakeScheduling{
		forRangeFn: func(ctx context.Context, startDay, endDay scheduling.Date) ([]domain.Reservation, error) {
			wantStart := scheduling.Date{Year: 2026, Month: time.March, Day: 2}
			wantEnd := scheduling.Date{Year: 2026, Month: time.March, Day: 20}
			if startDay != wantStart || endDay != wantEnd {
				t.Fatalf("range = %+v..%+v, want %+v..%+v", startDay, endDay, wantStart, wantEnd)
			}
			return nil, nil
		},
	}
	mux := testMux(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/api/calendar/range?end=2026-03-20", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestRangeRejectsReversedSpan(t *testing.T) {
	svc := &fakeScheduling{
		forRangeFn: func(ctx context.Context, startDay, endDay scheduling.Date) ([]domain.Reservation, error) {
			return scheduling.NewService(nil, nil, scheduling.Policy{}).ForRange(ctx, startDay, endDay)
		},
	}
	mux := testMux(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/api/calendar/range?start=2026-03-10&end=2026-03-09", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestServiceLabel(t *testing.T) {
	botoks := &domain.Treatment{Name: "Botoks"}

	cases := []struct {
		name string
		res  domain.Reservation
		want string
	}{
		{"treatment with link", domain.Reservation{ServiceType: domain.ServiceTypeTreatment, Treatment: botoks}, "Botoks"},
		{"treatment without link", domain.Reservation{ServiceType: domain.ServiceTypeTreatment}, "Treatment"},
		{"consultation with stray link", domain.Reservation{ServiceType: domain.ServiceTypeConsultation, Treatment: botoks}, "Consultation"},
		{"consultation without link", domain.Reservation{ServiceType: domain.ServiceTypeConsultation}, "Consultation"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := serviceLabel(tc.res); got != tc.want {
				t.Fatalf("serviceLabel = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestClientTimeline(t *testing.T) {
	clientID := uuid.MustParse("00000000-0000-0000-0000-000000000701")
	upcoming := sampleReservation()
	consultation := sampleReservation()
	consultation.ID = uuid.MustParse("00000000-0000-0000-0000-000000000704")
	consultation.ServiceType = domain.ServiceTypeConsultation
	consultation.ScheduledAt = time.Date(2026, 3, 5, 9, 0, 0, 0, time.UTC)
	consultation.Treatment = &domain.Treatment{Name: "Laser frakcyjny"}
	past := sampleReservation()
	past.ID = uuid.MustParse("00000000-0000-0000-0000-000000000703")
	past.ScheduledAt = time.Date(2025, 12, 1, 14, 0, 0, 0, time.UTC)
	past.Status = domain.ReservationStatusCompleted
	past.Treatment = &domain.Treatment{Name: "Facial cleansing"}

	svc := &fakeScheduling{
		forClientFn: func(ctx context.Context, gotID uuid.UUID) (scheduling.Timeline, error) {
			if gotID != clientID {
				t.Fatalf("client id = %v, want %v", gotID, clientID)
			}
			return scheduling.Timeline{
				Upcoming: []domain.Reservation{upcoming, consultation},
				Past:     []domain.Reservation{past},
			}, nil
		},
	}
	mux := testMux(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/api/calendar/client/"+clientID.String(), nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		Upcoming []map[string]any `json:"upcoming"`
		Past     []map[string]any `json:"past"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(resp.Upcoming) != 2 || len(resp.Past) != 1 {
		t.Fatalf("got %d upcoming / %d past, want 2/1", len(resp.Upcoming), len(resp.Past))
	}
	if resp.Upcoming[0]["start"] != "2026-03-04T10:00" {
		t.Fatalf("upcoming start = %v", resp.Upcoming[0]["start"])
	}
	// A consultation keeps its label even with a treatment row attached.
	if resp.Upcoming[1]["serviceLabel"] != "Consultation" {
		t.Fatalf("consultation serviceLabel = %v", resp.Upcoming[1]["serviceLabel"])
	}
	if resp.Past[0]["serviceLabel"] != "Facial cleansing" {
		t.Fatalf("past serviceLabel = %v", resp.Past[0]["serviceLabel"])
	}
	if resp.Past[0]["status"] != "Completed" {
		t.Fatalf("past status = %v", resp.Past[0]["status"])
	}
}

func TestUpdateReservation(t *testing.T) {
	id := uuid.MustParse("00000000-0000-0000-0000-000000000702")
	svc := &fakeScheduling{
		updateFn: func(ctx context.Context, gotID uuid.UUID, in scheduling.UpdateInput) (domain.Reservation, error) {
			if gotID != id {
				t.Fatalf("id = %v, want %v", gotID, id)
			}
			if in.ServiceType != domain.ServiceTypeConsultation || in.DurationMinutes != 40 {
				t.Fatalf("input = %+v", in)
			}
			return sampleReservation(), nil
		},
	}
	mux := testMux(t, svc)

	body := `{"serviceType":"konsultacja","durationMinutes":40,"notes":"follow-up"}`
	req := httptest.NewRequest(http.MethodPut, "/api/calendar/"+id.String(), strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204, body %s", rec.Code, rec.Body.String())
	}
}

func TestUpdateReservation_NotFound(t *testing.T) {
	svc := &fakeScheduling{
		updateFn: func(ctx context.Context, id uuid.UUID, in scheduling.UpdateInput) (domain.Reservation, error) {
			return domain.Reservation{}, scheduling.ErrReservationNotFound
		},
	}
	mux := testMux(t, svc)

	body := `{"serviceType":"treatment","durationMinutes":30}`
	req := httptest.NewRequest(http.MethodPut, "/api/calendar/"+uuid.NewString(), strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestDeleteReservation(t *testing.T) {
	svc := &fakeScheduling{
		deleteFn: func(ctx context.Context, id uuid.UUID) error {
			return nil
		},
	}
	mux := testMux(t, svc)

	req := httptest.NewRequest(http.MethodDelete, "/api/calendar/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/calendar/not-a-uuid", nil)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestMondayOf(t *testing.T) {
	cases := []struct {
		in   scheduling.Date
		want scheduling.Date
	}{
		{scheduling.Date{Year: 2026, Month: time.March, Day: 2}, scheduling.Date{Year: 2026, Month: time.March, Day: 2}},
		{scheduling.Date{Year: 2026, Month: time.March, Day: 4}, scheduling.Date{Year: 2026, Month: time.March, Day: 2}},
		{scheduling.Date{Year: 2026, Month: time.March, Day: 8}, scheduling.Date{Year: 2026, Month: time.March, Day: 2}},
		{scheduling.Date{Year: 2026, Month: time.March, Day: 1}, scheduling.Date{Year: 2026, Month: time.February, Day: 23}},
	}

	for _, tc := range cases {
		if got := mondayOf(tc.in); got != tc.want {
			t.Fatalf("mondayOf(%+v) = %+v, want %+v", tc.in, got, tc.want)
		}
	}
}
