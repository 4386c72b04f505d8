package medicalrecords

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
	r.Route("/medical-records", func(mr chi.Router) {
		mr.Post("/", createRecordHandler(svc))
		mr.Get("/", listRecordsHandler(svc))
		mr.Get("/follow-ups", listFollowUpsHandler(svc))
		mr.Get("/{recordID}", getRecordHandler(svc))
		mr.Patch("/{recordID}", updateRecordHandler(svc))
	})

	// Historial clínico de una mascota
	r.Get("/pets/{petID}/medical-records", listByPetHandler(svc))
}

type createRecordRequest struct {
	PetID            string   `json:"pet_id"`
	AppointmentID    string   `json:"appointment_id"`
	VisitDate        *string  `json:"visit_date"` // RFC3339, opcional
	Diagnosis        string   `json:"diagnosis"`
	Symptoms         string   `json:"symptoms"`
	Treatment        string   `json:"treatment"`
	Prescription     string   `json:"prescription"`
	Notes            string   `json:"notes"`
	FollowUpRequired bool     `json:"follow_up_required"`
	FollowUpDate     *string  `json:"follow_up_date"` // YYYY-MM-DD
	WeightKg         *float64 `json:"weight_kg"`
	TemperatureC     *float64 `json:"temperature_c"`
}

type updateRecordRequest struct {
	Diagnosis        *string  `json:"diagnosis"`
	Symptoms         *string  `json:"symptoms"`
	Treatment        *string  `json:"treatment"`
	Prescription     *string  `json:"prescription"`
	Notes            *string  `json:"notes"`
	FollowUpRequired *bool    `json:"follow_up_required"`
	FollowUpDate     *string  `json:"follow_up_date"` // "" limpia la fecha
	WeightKg         *float64 `json:"weight_kg"`
	TemperatureC     *float64 `json:"temperature_c"`
}

type recordResponse struct {
	ID                string    `json:"id"`
	PetID             string    `json:"pet_id"`
	OwnerID           string    `json:"owner_id"`
	AppointmentID     *string   `json:"appointment_id,omitempty"`
	VeterinarianID    string    `json:"veterinarian_id"`
	VisitDate         time.Time `json:"visit_date"`
	Diagnosis         string    `json:"diagnosis"`
	Symptoms          string    `json:"symptoms"`
	Treatment         string    `json:"treatment"`
	Prescription      string    `json:"prescription"`
	Notes             string    `json:"notes"`
	FollowUpRequired  bool      `json:"follow_up_required"`
	FollowUpDate      *string   `json:"follow_up_date,omitempty"`
	FollowUpPending   bool      `json:"is_follow_up_pending"`
	DaysUntilFollowUp *int      `json:"days_until_follow_up,omitempty"`
	WeightKg          *float64  `json:"weight_kg,omitempty"`
	TemperatureC      *float64  `json:"temperature_c,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// createRecordHandler godoc
// @Summary      Registrar ficha clínica
// @Description  Sólo veterinarios. Si se indica turno, mascota y veterinario deben coincidir con él.
// @Tags         medical-records
// @Accept       json
// @Produce      json
// @Param        body  body      createRecordRequest  true  "Ficha"
// @Success      201   {object}  recordResponse
// @Failure      400   {string}  string  "validation error"
// @Failure      403   {string}  string  "forbidden"
// @Router       /medical-records [post]
func createRecordHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.RequirePrincipal(w, r)
		if !ok {
			return
		}

		var req createRecordRequest
		if err := httpjson.Decode(r, &req); err != nil {
			httpjson.Error(w, http.StatusBadRequest, "invalid json")
			return
		}

		var v domain.Validator
		var visit *time.Time
		if req.VisitDate != nil && strings.TrimSpace(*req.VisitDate) != "" {
			t, err := time.Parse(time.RFC3339, strings.TrimSpace(*req.VisitDate))
			if err != nil {
				v.Add("visit_date", "must be RFC3339")
			} else {
				visit = &t
			}
		}
		followUp := parseDate(req.FollowUpDate, &v)
		if err := v.Err(); err != nil {
			httpjson.WriteError(w, r, err)
			return
		}

		m, err := svc.Create(r.Context(), actor, CreateInput{
			PetID:            req.PetID,
			AppointmentID:    req.AppointmentID,
			VisitDate:        visit,
			Diagnosis:        req.Diagnosis,
			Symptoms:         req.Symptoms,
			Treatment:        req.Treatment,
			Prescription:     req.Prescription,
			Notes:            req.Notes,
			FollowUpRequired: req.FollowUpRequired,
			FollowUpDate:     followUp,
			WeightKg:         req.WeightKg,
			TemperatureC:     req.TemperatureC,
		})
		if err != nil {
			httpjson.WriteError(w, r, err)
			return
		}
		httpjson.Write(w, http.StatusCreated, toRecordResponse(m, svc.Today()))
	}
}

func listRecordsHandler(svc *Service) http.HandlerFunc {
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
		limit, ok := parseLimit(w, r)
		if !ok {
			return
		}
		query.Limit = limit

		items, err := svc.ListForPrincipal(r.Context(), actor, query)
		if err != nil {
			httpjson.WriteError(w, r, err)
			return
		}
		writeList(w, items, svc.Today())
	}
}

func listFollowUpsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.RequirePrincipal(w, r)
		if !ok {
			return
		}

		items, err := svc.ListFollowUps(r.Context(), actor)
		if err != nil {
			httpjson.WriteError(w, r, err)
			return
		}
		writeList(w, items, svc.Today())
	}
}

func listByPetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.RequirePrincipal(w, r)
		if !ok {
			return
		}
		limit, ok := parseLimit(w, r)
		if !ok {
			return
		}

		items, err := svc.ListByPet(r.Context(), actor, chi.URLParam(r, "petID"), limit)
		if err != nil {
			httpjson.WriteError(w, r, err)
			return
		}
		writeList(w, items, svc.Today())
	}
}

func getRecordHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.RequirePrincipal(w, r)
		if !ok {
			return
		}

		m, err := svc.Get(r.Context(), actor, chi.URLParam(r, "recordID"))
		if err != nil {
			httpjson.WriteError(w, r, err)
			return
		}
		httpjson.Write(w, http.StatusOK, toRecordResponse(m, svc.Today()))
	}
}

func updateRecordHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.RequirePrincipal(w, r)
		if !ok {
			return
		}

		var req updateRecordRequest
		if err := httpjson.Decode(r, &req); err != nil {
			httpjson.Error(w, http.StatusBadRequest, "invalid json")
			return
		}

		var v domain.Validator
		p := Patch{
			Diagnosis:        req.Diagnosis,
			Symptoms:         req.Symptoms,
			Treatment:        req.Treatment,
			Prescription:     req.Prescription,
			Notes:            req.Notes,
			FollowUpRequired: req.FollowUpRequired,
			WeightKg:         req.WeightKg,
			TemperatureC:     req.TemperatureC,
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

		m, err := svc.Update(r.Context(), actor, chi.URLParam(r, "recordID"), p)
		if err != nil {
			httpjson.WriteError(w, r, err)
			return
		}
		httpjson.Write(w, http.StatusOK, toRecordResponse(m, svc.Today()))
	}
}

func parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	s := strings.TrimSpace(r.URL.Query().Get("limit"))
	if s == "" {
		return 0, true
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		httpjson.WriteError(w, r, domain.NewValidationError("limit", "must be a non-negative integer"))
		return 0, false
	}
	return n, true
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

func writeList(w http.ResponseWriter, items []MedicalRecord, today time.Time) {
	out := make([]recordResponse, 0, len(items))
	for _, m := range items {
		out = append(out, toRecordResponse(m, today))
	}
	httpjson.Write(w, http.StatusOK, out)
}

func toRecordResponse(m MedicalRecord, today time.Time) recordResponse {
	resp := recordResponse{
		ID:                m.ID,
		PetID:             m.PetID,
		OwnerID:           m.OwnerID,
		VeterinarianID:    m.VeterinarianID,
		VisitDate:         m.VisitDate,
		Diagnosis:         m.Diagnosis,
		Symptoms:          m.Symptoms,
		Treatment:         m.Treatment,
		Prescription:      m.Prescription,
		Notes:             m.Notes,
		FollowUpRequired:  m.FollowUpRequired,
		FollowUpPending:   m.FollowUpPending(today),
		DaysUntilFollowUp: m.DaysUntilFollowUp(today),
		WeightKg:          m.WeightKg,
		TemperatureC:      m.TemperatureC,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
	if m.AppointmentID != "" {
		id := m.AppointmentID
		resp.AppointmentID = &id
	}
	if m.FollowUpDate != nil {
		s := m.FollowUpDate.Format(time.DateOnly)
		resp.FollowUpDate = &s
	}
	return resp
}
