package appointments

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain"
	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/middleware"
	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/platform/httpjson"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/appointments", func(ar chi.Router) {
		ar.Post("/", createAppointmentHandler(svc))
		ar.Get("/", listAppointmentsHandler(svc))

		ar.Get("/{appointmentID}", getAppointmentHandler(svc))
		ar.Patch("/{appointmentID}", updateDetailsHandler(svc))

		// Transiciones de estado
		ar.Post("/{appointmentID}/confirm", confirmAppointmentHandler(svc))
		ar.Post("/{appointmentID}/complete", completeAppointmentHandler(svc))
		ar.Post("/{appointmentID}/cancel", cancelAppointmentHandler(svc))
	})
}

type createAppointmentRequest struct {
	VeterinarianID string `json:"veterinarian_id"`
	PetID          string `json:"pet_id"`
	Date           string `json:"date"` // YYYY-MM-DD
	Time           string `json:"time"` // HH:MM opcional
	Reason         string `json:"reason"`
	Notes          string `json:"notes"`
}

type confirmAppointmentRequest struct {
	Date *string `json:"date"`
	Time *string `json:"time"`
}

type updateDetailsRequest struct {
	// Punteros para PATCH real: nil = no tocar. "time": "" borra la hora.
	Date   *string `json:"date"`
	Time   *string `json:"time"`
	Reason *string `json:"reason"`
	Notes  *string `json:"notes"`
}

type appointmentResponse struct {
	ID             string     `json:"id"`
	ClientID       string     `json:"client_id"`
	VeterinarianID string     `json:"veterinarian_id"`
	PetID          string     `json:"pet_id"`
	Date           string     `json:"date"`
	Time           *string    `json:"time,omitempty"`
	Reason         string     `json:"reason"`
	Notes          string     `json:"notes"`
	Status         Status     `json:"status"`
	IsPast         bool       `json:"is_past"`
	IsUpcoming     bool       `json:"is_upcoming"`
	CanBeCancelled bool       `json:"can_be_cancelled"`
	CancelledBy    string     `json:"cancelled_by,omitempty"`
	CancelledAt    *time.Time `json:"cancelled_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	Version        int64      `json:"version"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// createAppointmentHandler godoc
// @Summary      Reservar turno
// @Description  El cliente autenticado reserva un turno para una de sus mascotas. Queda en PENDING.
// @Tags         appointments
// @Accept       json
// @Produce      json
// @Param        body  body      createAppointmentRequest  true  "Datos del turno"
// @Success      201   {object}  appointmentResponse
// @Failure      400   {string}  string  "validation error"
// @Failure      401   {string}  string  "unauthorized"
// @Failure      403   {string}  string  "forbidden"
// @Router       /appointments [post]
func createAppointmentHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.RequirePrincipal(w, r)
		if !ok {
			return
		}

		var req createAppointmentRequest
		if err := httpjson.Decode(r, &req); err != nil {
			httpjson.Error(w, http.StatusBadRequest, "invalid json")
			return
		}

		var v domain.Validator
		var date time.Time
		if strings.TrimSpace(req.Date) != "" {
			d, err := ParseDate(strings.TrimSpace(req.Date))
			v.Check(err == nil, "date", "must be YYYY-MM-DD")
			date = d
		}
		tod := parseOptionalClock(req.Time, &v)
		if err := v.Err(); err != nil {
			httpjson.WriteError(w, r, err)
			return
		}

		a, err := svc.Create(r.Context(), actor, CreateInput{
			VeterinarianID: req.VeterinarianID,
			PetID:          req.PetID,
			Date:           date,
			Time:           tod,
			Reason:         req.Reason,
			Notes:          req.Notes,
		})
		if err != nil {
			httpjson.WriteError(w, r, err)
			return
		}

		httpjson.Write(w, http.StatusCreated, toAppointmentResponse(a, svc.Today()))
	}
}

// listAppointmentsHandler godoc
// @Summary      Listar mis turnos
// @Description  Cliente: turnos donde es cliente. Veterinario: turnos asignados. Nunca devuelve 403.
// @Tags         appointments
// @Produce      json
// @Param        status    query  string  false  "PENDING|CONFIRMED|COMPLETED|CANCELLED"
// @Param        upcoming  query  bool    false  "sólo CONFIRMED con fecha >= hoy"
// @Param        pet_id    query  string  false  "filtra por mascota"
// @Param        limit     query  int     false  "máximo de resultados"
// @Success      200  {array}   appointmentResponse
// @Router       /appointments [get]
func listAppointmentsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.RequirePrincipal(w, r)
		if !ok {
			return
		}

		q := r.URL.Query()
		query := ListQuery{PetID: q.Get("pet_id")}

		if st := strings.ToUpper(strings.TrimSpace(q.Get("status"))); st != "" {
			if !Status(st).Valid() {
				httpjson.WriteError(w, r, domain.NewValidationError("status", "unknown status"))
				return
			}
			query.Status = Status(st)
		}
		if up := strings.TrimSpace(q.Get("upcoming")); up != "" {
			b, err := strconv.ParseBool(up)
			if err != nil {
				httpjson.WriteError(w, r, domain.NewValidationError("upcoming", "must be a boolean"))
				return
			}
			query.Upcoming = b
		}
		if l := strings.TrimSpace(q.Get("limit")); l != "" {
			n, err := strconv.Atoi(l)
			if err != nil || n < 0 {
				httpjson.WriteError(w, r, domain.NewValidationError("limit", "must be a non-negative integer"))
				return
			}
			query.Limit = n
		}

		items, err := svc.List(r.Context(), actor, query)
		if err != nil {
			httpjson.WriteError(w, r, err)
			return
		}

		today := svc.Today()
		out := make([]appointmentResponse, 0, len(items))
		for _, a := range items {
			out = append(out, toAppointmentResponse(a, today))
		}
		httpjson.Write(w, http.StatusOK, out)
	}
}

func getAppointmentHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.RequirePrincipal(w, r)
		if !ok {
			return
		}

		a, err := svc.Get(r.Context(), actor, chi.URLParam(r, "appointmentID"))
		if err != nil {
			httpjson.WriteError(w, r, err)
			return
		}
		httpjson.Write(w, http.StatusOK, toAppointmentResponse(a, svc.Today()))
	}
}

// confirmAppointmentHandler godoc
// @Summary      Confirmar turno
// @Description  Sólo el veterinario asignado. Puede fijar fecha/hora; si se omiten se conservan.
// @Tags         appointments
// @Accept       json
// @Produce      json
// @Param        appointmentID  path  string  true  "Appointment ID"
// @Param        body  body      confirmAppointmentRequest  false  "Fecha/hora opcionales"
// @Success      200   {object}  appointmentResponse
// @Failure      403   {string}  string  "forbidden"
// @Failure      409   {string}  string  "invalid status transition / conflict"
// @Router       /appointments/{appointmentID}/confirm [post]
func confirmAppointmentHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.RequirePrincipal(w, r)
		if !ok {
			return
		}

		// Body opcional
		var req confirmAppointmentRequest
		if err := httpjson.Decode(r, &req); err != nil && !errors.Is(err, io.EOF) {
			httpjson.Error(w, http.StatusBadRequest, "invalid json")
			return
		}

		var v domain.Validator
		in := ConfirmInput{}
		if req.Date != nil {
			d, err := ParseDate(strings.TrimSpace(*req.Date))
			v.Check(err == nil, "date", "must be YYYY-MM-DD")
			in.Date = &d
		}
		if req.Time != nil {
			c, err := ParseClock(*req.Time)
			v.Check(err == nil, "time", "must be HH:MM")
			in.Time = &c
		}
		if err := v.Err(); err != nil {
			httpjson.WriteError(w, r, err)
			return
		}

		a, err := svc.Confirm(r.Context(), actor, chi.URLParam(r, "appointmentID"), in)
		if err != nil {
			httpjson.WriteError(w, r, err)
			return
		}
		httpjson.Write(w, http.StatusOK, toAppointmentResponse(a, svc.Today()))
	}
}

func completeAppointmentHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.RequirePrincipal(w, r)
		if !ok {
			return
		}

		a, err := svc.Complete(r.Context(), actor, chi.URLParam(r, "appointmentID"))
		if err != nil {
			httpjson.WriteError(w, r, err)
			return
		}
		httpjson.Write(w, http.StatusOK, toAppointmentResponse(a, svc.Today()))
	}
}

func cancelAppointmentHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.RequirePrincipal(w, r)
		if !ok {
			return
		}

		a, err := svc.Cancel(r.Context(), actor, chi.URLParam(r, "appointmentID"))
		if err != nil {
			httpjson.WriteError(w, r, err)
			return
		}
		httpjson.Write(w, http.StatusOK, toAppointmentResponse(a, svc.Today()))
	}
}

func updateDetailsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.RequirePrincipal(w, r)
		if !ok {
			return
		}

		var req updateDetailsRequest
		if err := httpjson.Decode(r, &req); err != nil {
			httpjson.Error(w, http.StatusBadRequest, "invalid json")
			return
		}

		var v domain.Validator
		patch := DetailsPatch{Reason: req.Reason, Notes: req.Notes}
		if req.Date != nil {
			d, err := ParseDate(strings.TrimSpace(*req.Date))
			v.Check(err == nil, "date", "must be YYYY-MM-DD")
			patch.Date = &d
		}
		if req.Time != nil {
			if strings.TrimSpace(*req.Time) == "" {
				patch.ClearTime = true
			} else {
				c, err := ParseClock(*req.Time)
				v.Check(err == nil, "time", "must be HH:MM")
				patch.Time = &c
			}
		}
		if err := v.Err(); err != nil {
			httpjson.WriteError(w, r, err)
			return
		}

		a, err := svc.UpdateDetails(r.Context(), actor, chi.URLParam(r, "appointmentID"), patch)
		if err != nil {
			httpjson.WriteError(w, r, err)
			return
		}
		httpjson.Write(w, http.StatusOK, toAppointmentResponse(a, svc.Today()))
	}
}

func parseOptionalClock(s string, v *domain.Validator) *Clock {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	c, err := ParseClock(s)
	if err != nil {
		v.Add("time", "must be HH:MM")
		return nil
	}
	return &c
}

func toAppointmentResponse(a Appointment, today time.Time) appointmentResponse {
	var tod *string
	if a.Time != nil {
		s := a.Time.String()
		tod = &s
	}
	return appointmentResponse{
		ID:             a.ID,
		ClientID:       a.ClientID,
		VeterinarianID: a.VeterinarianID,
		PetID:          a.PetID,
		Date:           a.Date.Format(time.DateOnly),
		Time:           tod,
		Reason:         a.Reason,
		Notes:          a.Notes,
		Status:         a.Status,
		IsPast:         a.IsPast(today),
		IsUpcoming:     a.IsUpcoming(today),
		CanBeCancelled: a.CanBeCancelled(today),
		CancelledBy:    a.CancelledBy,
		CancelledAt:    a.CancelledAt,
		CompletedAt:    a.CompletedAt,
		Version:        a.Version,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}
