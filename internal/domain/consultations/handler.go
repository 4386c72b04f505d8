package consultations

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain"
	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain/appointments"
	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/middleware"
	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/platform/httpjson"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/consultations", func(cr chi.Router) {
		cr.Post("/", createConsultationHandler(svc))
		cr.Get("/", listConsultationsHandler(svc))
		cr.Get("/{consultationID}", getConsultationHandler(svc))
		cr.Patch("/{consultationID}", updateConsultationHandler(svc))
	})

	// Consulta de un turno puntual
	r.Get("/appointments/{appointmentID}/consultation", getByAppointmentHandler(svc))
}

type createConsultationRequest struct {
	AppointmentID    string  `json:"appointment_id"`
	Diagnosis        string  `json:"diagnosis"`
	Symptoms         string  `json:"symptoms"`
	Notes            string  `json:"notes"`
	Prescription     string  `json:"prescription"`
	FollowUpRequired bool    `json:"follow_up_required"`
	FollowUpDate     *string `json:"follow_up_date"` // YYYY-MM-DD
}

type updateConsultationRequest struct {
	Diagnosis        *string `json:"diagnosis"`
	Symptoms         *string `json:"symptoms"`
	Notes            *string `json:"notes"`
	Prescription     *string `json:"prescription"`
	FollowUpRequired *bool   `json:"follow_up_required"`
	FollowUpDate     *string `json:"follow_up_date"` // "" limpia la fecha
}

type consultationResponse struct {
	ID               string    `json:"id"`
	AppointmentID    string    `json:"appointment_id"`
	VeterinarianID   string    `json:"veterinarian_id"`
	ClientID         string    `json:"client_id"`
	PetID            string    `json:"pet_id"`
	Diagnosis        string    `json:"diagnosis"`
	Symptoms         string    `json:"symptoms"`
	Notes            string    `json:"notes"`
	Prescription     string    `json:"prescription"`
	FollowUpRequired bool      `json:"follow_up_required"`
	FollowUpDate     *string   `json:"follow_up_date,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// createConsultationHandler godoc
// @Summary      Registrar consulta
// @Description  Sólo el veterinario asignado y sólo sobre un turno COMPLETED sin consulta previa.
// @Tags         consultations
// @Accept       json
// @Produce      json
// @Param        body  body      createConsultationRequest  true  "Consulta"
// @Success      201   {object}  consultationResponse
// @Failure      400   {string}  string  "validation error"
// @Failure      403   {string}  string  "forbidden"
// @Failure      409   {string}  string  "consultation already exists"
// @Failure      412   {string}  string  "appointment not completed"
// @Router       /consultations [post]
func createConsultationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.RequirePrincipal(w, r)
		if !ok {
			return
		}

		var req createConsultationRequest
		if err := httpjson.Decode(r, &req); err != nil {
			httpjson.Error(w, http.StatusBadRequest, "invalid json")
			return
		}

		var v domain.Validator
		v.Check(strings.TrimSpace(req.AppointmentID) != "", "appointment_id", "required")
		followUp := parseDate(req.FollowUpDate, &v)
		if err := v.Err(); err != nil {
			httpjson.WriteError(w, r, err)
			return
		}

		c, err := svc.Create(r.Context(), actor, CreateInput{
			AppointmentID:    req.AppointmentID,
			Diagnosis:        req.Diagnosis,
			Symptoms:         req.Symptoms,
			Notes:            req.Notes,
			Prescription:     req.Prescription,
			FollowUpRequired: req.FollowUpRequired,
			FollowUpDate:     followUp,
		})
		if err != nil {
			httpjson.WriteError(w, r, err)
			return
		}

		httpjson.Write(w, http.StatusCreated, toConsultationResponse(c))
	}
}

// listConsultationsHandler godoc
// @Summary      Listar consultas
// @Description  Veterinario: las que registró. Cliente: las de sus turnos.
// @Tags         consultations
// @Produce      json
// @Param        follow_up  query  bool    false  "sólo con seguimiento"
// @Param        pet_id     query  string  false  "filtra por mascota"
// @Param        limit      query  int     false  "máximo de resultados"
// @Success      200  {array}  consultationResponse
// @Router       /consultations [get]
func listConsultationsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.RequirePrincipal(w, r)
		if !ok {
			return
		}

		q := r.URL.Query()
		query := ListQuery{PetID: q.Get("pet_id")}
		if s := strings.TrimSpace(q.Get("follow_up")); s != "" {
			b, err := strconv.ParseBool(s)
			if err != nil {
				httpjson.WriteError(w, r, domain.NewValidationError("follow_up", "must be a boolean"))
				return
			}
			query.FollowUpOnly = b
		}
		if s := strings.TrimSpace(q.Get("limit")); s != "" {
			n, err := strconv.Atoi(s)
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

		out := make([]consultationResponse, 0, len(items))
		for _, c := range items {
			out = append(out, toConsultationResponse(c))
		}
		httpjson.Write(w, http.StatusOK, out)
	}
}

func getConsultationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.RequirePrincipal(w, r)
		if !ok {
			return
		}

		c, err := svc.Get(r.Context(), actor, chi.URLParam(r, "consultationID"))
		if err != nil {
			httpjson.WriteError(w, r, err)
			return
		}
		httpjson.Write(w, http.StatusOK, toConsultationResponse(c))
	}
}

func getByAppointmentHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.RequirePrincipal(w, r)
		if !ok {
			return
		}

		c, err := svc.GetByAppointment(r.Context(), actor, chi.URLParam(r, "appointmentID"))
		if err != nil {
			httpjson.WriteError(w, r, err)
			return
		}
		httpjson.Write(w, http.StatusOK, toConsultationResponse(c))
	}
}

func updateConsultationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.RequirePrincipal(w, r)
		if !ok {
			return
		}

		var req updateConsultationRequest
		if err := httpjson.Decode(r, &req); err != nil {
			httpjson.Error(w, http.StatusBadRequest, "invalid json")
			return
		}

		var v domain.Validator
		p := Patch{
			Diagnosis:        req.Diagnosis,
			Symptoms:         req.Symptoms,
			Notes:            req.Notes,
			Prescription:     req.Prescription,
			FollowUpRequired: req.FollowUpRequired,
		}
		if req.FollowUpDate != nil && strings.TrimSpace(*req.FollowUpDate) == "" {
			p.ClearFollowUpDate = true
		} else {
			p.FollowUpDate = parseDate(req.FollowUpDate, &v)
		}
		if err := v.Err(); err != nil {
			httpjson.WriteError(w, r, err)
			return
		}

		c, err := svc.Update(r.Context(), actor, chi.URLParam(r, "consultationID"), p)
		if err != nil {
			httpjson.WriteError(w, r, err)
			return
		}
		httpjson.Write(w, http.StatusOK, toConsultationResponse(c))
	}
}

func parseDate(s *string, v *domain.Validator) *time.Time {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	d, err := appointments.ParseDate(strings.TrimSpace(*s))
	if err != nil {
		v.Add("follow_up_date", "must be YYYY-MM-DD")
		return nil
	}
	return &d
}

func toConsultationResponse(c Consultation) consultationResponse {
	var fu *string
	if c.FollowUpDate != nil {
		s := c.FollowUpDate.Format(time.DateOnly)
		fu = &s
	}
	return consultationResponse{
		ID:               c.ID,
		AppointmentID:    c.AppointmentID,
		VeterinarianID:   c.VeterinarianID,
		ClientID:         c.ClientID,
		PetID:            c.PetID,
		Diagnosis:        c.Diagnosis,
		Symptoms:         c.Symptoms,
		Notes:            c.Notes,
		Prescription:     c.Prescription,
		FollowUpRequired: c.FollowUpRequired,
		FollowUpDate:     fu,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
}
