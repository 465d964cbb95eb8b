package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"glowcrm/server/internal/domain"
	"glowcrm/server/internal/service/clients"
)

type clientsService interface {
	Get(ctx context.Context, id uuid.UUID) (domain.Client, error)
	Search(ctx context.Context, query string) ([]domain.Client, error)
	Create(ctx context.Context, in clients.Input) (domain.Client, error)
	Update(ctx context.Context, id uuid.UUID, in clients.Input) (domain.Client, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type ClientsHandler struct {
	svc    clientsService
	logger *slog.Logger
}

func NewClientsHandler(svc clientsService, logger *slog.Logger) *ClientsHandler {
	return &ClientsHandler{svc: svc, logger: logger}
}

func (h *ClientsHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/clients", h.search)
	mux.HandleFunc("POST /api/clients", h.create)
	mux.HandleFunc("GET /api/clients/{id}", h.get)
	mux.HandleFunc("PUT /api/clients/{id}", h.update)
	mux.HandleFunc("DELETE /api/clients/{id}", h.remove)
}

type clientDTO struct {
	ID         uuid.UUID `json:"id"`
	FirstName  string    `json:"firstName"`
	LastName   string    `json:"lastName"`
	Phone      string    `json:"phone"`
	Email      *string   `json:"email,omitempty"`
	BirthDate  *string   `json:"birthDate,omitempty"`
	Notes      *string   `json:"notes,omitempty"`
	Street     *string   `json:"street,omitempty"`
	City       *string   `json:"city,omitempty"`
	PostalCode *string   `json:"postalCode,omitempty"`
	AllowEmail bool      `json:"allowEmail"`
	AllowSms   bool      `json:"allowSms"`
	AllowPhoto bool      `json:"allowPhoto"`
}

func toClientDTO(c domain.Client) clientDTO {
	dto := clientDTO{
		ID:         c.ID,
		FirstName:  c.FirstName,
		LastName:   c.LastName,
		Phone:      c.Phone,
		Email:      c.Email,
		Notes:      c.Notes,
		Street:     c.Street,
		City:       c.City,
		PostalCode: c.PostalCode,
		AllowEmail: c.AllowEmail,
		AllowSms:   c.AllowSms,
		AllowPhoto: c.AllowPhoto,
	}
	if c.BirthDate != nil {
		s := c.BirthDate.Format(dateLayout)
		dto.BirthDate = &s
	}
	return dto
}

type clientRequest struct {
	FirstName  string  `json:"firstName"`
	LastName   string  `json:"lastName"`
	Phone      string  `json:"phone"`
	Email      *string `json:"email"`
	BirthDate  *string `json:"birthDate"`
	Notes      *string `json:"notes"`
	Street     *string `json:"street"`
	City       *string `json:"city"`
	PostalCode *string `json:"postalCode"`
	AllowEmail bool    `json:"allowEmail"`
	AllowSms   bool    `json:"allowSms"`
	AllowPhoto bool    `json:"allowPhoto"`
}

func (req clientRequest) toInput() clients.Input {
	return clients.Input{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Phone:      req.Phone,
		Email:      req.Email,
		BirthDate:  req.BirthDate,
		Notes:      req.Notes,
		Street:     req.Street,
		City:       req.City,
		PostalCode: req.PostalCode,
		AllowEmail: req.AllowEmail,
		AllowSms:   req.AllowSms,
		AllowPhoto: req.AllowPhoto,
	}
}

func (h *ClientsHandler) search(w http.ResponseWriter, r *http.Request) {
	rows, err := h.svc.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.writeClientError(w, r, err)
		return
	}

	dtos := make([]clientDTO, 0, len(rows))
	for _, c := range rows {
		dtos = append(dtos, toClientDTO(c))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *ClientsHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid client id")
		return
	}

	c, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.writeClientError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toClientDTO(c))
}

func (h *ClientsHandler) create(w http.ResponseWriter, r *http.Request) {
	var req clientRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.svc.Create(r.Context(), req.toInput())
	if err != nil {
		h.writeClientError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toClientDTO(created))
}

func (h *ClientsHandler) update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid client id")
		return
	}

	var req clientRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.svc.Update(r.Context(), id, req.toInput())
	if err != nil {
		h.writeClientError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toClientDTO(updated))
}

func (h *ClientsHandler) remove(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid client id")
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		h.writeClientError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ClientsHandler) writeClientError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *clients.ValidationError

	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, clients.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		h.logger.Error("client request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
