package timeline

import (
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
	r.Route("/pets/{petID}/timeline", func(tr chi.Router) {
		tr.Get("/", listByPetHandler(svc))
		tr.Post("/notes", addNoteHandler(svc))

		// Anular una nota propia
		tr.Post("/{entryID}/void", voidEntryHandler(svc))
	})

	r.Get("/appointments/{appointmentID}/history", listByAppointmentHandler(svc))
}

type addNoteRequest struct {
	OccurredAt string `json:"occurred_at"` // RFC3339, opcional
	Title      string `json:"title"`
	Notes      string `json:"notes"`
}

type entryResponse struct {
	ID            string      `json:"id"`
	PetID         string      `json:"pet_id"`
	AppointmentID string      `json:"appointment_id,omitempty"`
	EntityID      string      `json:"entity_id,omitempty"`
	Type          EntryType   `json:"type"`
	ActorID       string      `json:"actor_id"`
	ActorRole     string      `json:"actor_role"`
	From          string      `json:"from_status,omitempty"`
	To            string      `json:"to_status,omitempty"`
	Title         string      `json:"title"`
	Notes         string      `json:"notes,omitempty"`
	Status        EntryStatus `json:"status"`
	OccurredAt    time.Time   `json:"occurred_at"`
	RecordedAt    time.Time   `json:"recorded_at"`
}

// listByPetHandler godoc
// @Summary      Historial clínico de una mascota
// @Description  Dueño o veterinario del equipo de atención. Filtros por tipo, rango y texto.
// @Tags         timeline
// @Produce      json
// @Param        petID  path   string  true   "ID de la mascota"
// @Param        limit  query  int     false  "1-200, por defecto 50"
// @Param        types  query  string  false  "CSV de tipos (ej: APPOINTMENT_CONFIRMED,CONSULTATION_RECORDED)"
// @Param        from   query  string  false  "occurred_at mínimo (RFC3339)"
// @Param        to     query  string  false  "occurred_at máximo (RFC3339)"
// @Param        q      query  string  false  "texto libre en título/notas"
// @Success      200  {array}   entryResponse
// @Failure      400  {string}  string  "filtros inválidos"
// @Failure      404  {string}  string  "pet not found"
// @Router       /pets/{petID}/timeline [get]
func listByPetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.RequirePrincipal(w, r)
		if !ok {
			return
		}

		filter, err := parseListFilter(r)
		if err != nil {
			httpjson.WriteError(w, r, err)
			return
		}

		items, err := svc.ListByPet(r.Context(), actor, chi.URLParam(r, "petID"), filter)
		if err != nil {
			httpjson.WriteError(w, r, err)
			return
		}
		writeEntries(w, items)
	}
}

func listByAppointmentHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.RequirePrincipal(w, r)
		if !ok {
			return
		}

		items, err := svc.ListByAppointment(r.Context(), actor, chi.URLParam(r, "appointmentID"))
		if err != nil {
			httpjson.WriteError(w, r, err)
			return
		}
		writeEntries(w, items)
	}
}

func addNoteHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.RequirePrincipal(w, r)
		if !ok {
			return
		}

		var req addNoteRequest
		if err := httpjson.Decode(r, &req); err != nil {
			httpjson.Error(w, http.StatusBadRequest, "invalid json")
			return
		}

		in := NoteInput{Title: req.Title, Notes: req.Notes}
		if s := strings.TrimSpace(req.OccurredAt); s != "" {
			t, err := time.Parse(time.RFC3339, s)
			if err != nil {
				httpjson.WriteError(w, r, domain.NewValidationError("occurred_at", "must be RFC3339"))
				return
			}
			in.OccurredAt = &t
		}

		e, err := svc.AddNote(r.Context(), actor, chi.URLParam(r, "petID"), in)
		if err != nil {
			httpjson.WriteError(w, r, err)
			return
		}
		httpjson.Write(w, http.StatusCreated, toEntryResponse(e))
	}
}

func voidEntryHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.RequirePrincipal(w, r)
		if !ok {
			return
		}

		e, err := svc.Void(r.Context(), actor, chi.URLParam(r, "petID"), chi.URLParam(r, "entryID"))
		if err != nil {
			httpjson.WriteError(w, r, err)
			return
		}
		httpjson.Write(w, http.StatusOK, toEntryResponse(e))
	}
}

func parseListFilter(r *http.Request) (ListFilter, error) {
	q := r.URL.Query()
	var v domain.Validator
	var filter ListFilter

	if s := strings.TrimSpace(q.Get("limit")); s != "" {
		n, err := strconv.Atoi(s)
		v.Check(err == nil && n > 0 && n <= maxLimit, "limit", "must be between 1 and 200")
		filter.Limit = n
	}

	// types=APPOINTMENT_CONFIRMED,NOTE
	if s := strings.TrimSpace(q.Get("types")); s != "" {
		for _, p := range strings.Split(s, ",") {
			if t := EntryType(strings.ToUpper(strings.TrimSpace(p))); t != "" {
				filter.Types = append(filter.Types, t)
			}
		}
	}

	if s := strings.TrimSpace(q.Get("from")); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			v.Add("from", "must be RFC3339")
		} else {
			filter.From = &t
		}
	}
	if s := strings.TrimSpace(q.Get("to")); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			v.Add("to", "must be RFC3339")
		} else {
			filter.To = &t
		}
	}

	filter.Query = strings.TrimSpace(q.Get("q"))
	return filter, v.Err()
}

func writeEntries(w http.ResponseWriter, items []Entry) {
	out := make([]entryResponse, 0, len(items))
	for _, e := range items {
		out = append(out, toEntryResponse(e))
	}
	httpjson.Write(w, http.StatusOK, out)
}

func toEntryResponse(e Entry) entryResponse {
	return entryResponse{
		ID:            e.ID,
		PetID:         e.PetID,
		AppointmentID: e.AppointmentID,
		EntityID:      e.EntityID,
		Type:          e.Type,
		ActorID:       e.Actor.ID,
		ActorRole:     string(e.Actor.Role),
		From:          e.From,
		To:            e.To,
		Title:         e.Title,
		Notes:         e.Notes,
		Status:        e.Status,
		OccurredAt:    e.OccurredAt,
		RecordedAt:    e.RecordedAt,
	}
}
