package pets

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain"
	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/middleware"
	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/platform/httpjson"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/pets", func(pr chi.Router) {
		pr.Post("/", createPetHandler(svc))
		pr.Get("/", listPetsHandler(svc))

		// Perfil (dueño o vet del equipo de atención)
		pr.Get("/{petID}", getPetHandler(svc))

		// Sólo el dueño
		pr.Patch("/{petID}", updatePetHandler(svc))
	})
}

type createPetRequest struct {
	Name      string `json:"name"`
	Species   string `json:"species"`
	Breed     string `json:"breed"`
	Sex       string `json:"sex"`
	BirthDate string `json:"birth_date"` // YYYY-MM-DD opcional
	Notes     string `json:"notes"`
}

type updatePetRequest struct {
	Name    *string `json:"name"`
	Species *string `json:"species"`
	Breed   *string `json:"breed"`
	Sex     *string `json:"sex"`
	Notes   *string `json:"notes"`
}

type petResponse struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Name      string    `json:"name"`
	Species   Species   `json:"species"`
	Breed     string    `json:"breed"`
	Sex       Sex       `json:"sex"`
	BirthDate *string   `json:"birth_date,omitempty"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// createPetHandler godoc
// @Summary      Registrar mascota
// @Tags         pets
// @Accept       json
// @Produce      json
// @Param        body  body      createPetRequest  true  "Mascota"
// @Success      201   {object}  petResponse
// @Failure      400   {string}  string  "validation error"
// @Failure      403   {string}  string  "only clients register pets"
// @Router       /pets [post]
func createPetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.RequirePrincipal(w, r)
		if !ok {
			return
		}

		var req createPetRequest
		if err := httpjson.Decode(r, &req); err != nil {
			httpjson.Error(w, http.StatusBadRequest, "invalid json")
			return
		}

		var bd *time.Time
		if s := strings.TrimSpace(req.BirthDate); s != "" {
			t, err := time.Parse(time.DateOnly, s)
			if err != nil {
				httpjson.WriteError(w, r, domain.NewValidationError("birth_date", "must be YYYY-MM-DD"))
				return
			}
			bd = &t
		}

		p, err := svc.Create(r.Context(), actor, CreateInput{
			Name:      req.Name,
			Species:   req.Species,
			Breed:     req.Breed,
			Sex:       req.Sex,
			BirthDate: bd,
			Notes:     req.Notes,
		})
		if err != nil {
			httpjson.WriteError(w, r, err)
			return
		}

		httpjson.Write(w, http.StatusCreated, toPetResponse(p))
	}
}

func listPetsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.RequirePrincipal(w, r)
		if !ok {
			return
		}

		items, err := svc.ListByOwner(r.Context(), actor)
		if err != nil {
			httpjson.WriteError(w, r, err)
			return
		}

		out := make([]petResponse, 0, len(items))
		for _, p := range items {
			out = append(out, toPetResponse(p))
		}
		httpjson.Write(w, http.StatusOK, out)
	}
}

func getPetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.RequirePrincipal(w, r)
		if !ok {
			return
		}

		p, err := svc.Get(r.Context(), actor, chi.URLParam(r, "petID"))
		if err != nil {
			httpjson.WriteError(w, r, err)
			return
		}
		httpjson.Write(w, http.StatusOK, toPetResponse(p))
	}
}

func updatePetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.RequirePrincipal(w, r)
		if !ok {
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			httpjson.Error(w, http.StatusBadRequest, "invalid body")
			return
		}

		// birth_date: null limpia la fecha, ausente no la toca.
		var raw map[string]json.RawMessage
		if err := json.Unmarshal(body, &raw); err != nil {
			httpjson.Error(w, http.StatusBadRequest, "invalid json")
			return
		}
		var req updatePetRequest
		dec := json.NewDecoder(bytes.NewReader(body))
		if err := dec.Decode(&req); err != nil {
			httpjson.Error(w, http.StatusBadRequest, "invalid json")
			return
		}

		in := UpdateProfileInput{
			Name:    req.Name,
			Species: req.Species,
			Breed:   req.Breed,
			Sex:     req.Sex,
			Notes:   req.Notes,
		}
		if v, exists := raw["birth_date"]; exists {
			in.BirthDate.Set = true
			if string(v) != "null" {
				var s string
				if err := json.Unmarshal(v, &s); err != nil {
					httpjson.WriteError(w, r, domain.NewValidationError("birth_date", "must be YYYY-MM-DD or null"))
					return
				}
				t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
				if err != nil {
					httpjson.WriteError(w, r, domain.NewValidationError("birth_date", "must be YYYY-MM-DD or null"))
					return
				}
				in.BirthDate.Value = &t
			}
		}

		updated, err := svc.UpdateProfile(r.Context(), actor, chi.URLParam(r, "petID"), in)
		if err != nil {
			httpjson.WriteError(w, r, err)
			return
		}
		httpjson.Write(w, http.StatusOK, toPetResponse(updated))
	}
}

func toPetResponse(p Pet) petResponse {
	var bd *string
	if p.BirthDate != nil {
		s := p.BirthDate.Format(time.DateOnly)
		bd = &s
	}
	return petResponse{
		ID:        p.ID,
		OwnerID:   p.OwnerID,
		Name:      p.Name,
		Species:   p.Species,
		Breed:     p.Breed,
		Sex:       p.Sex,
		BirthDate: bd,
		Notes:     p.Notes,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}
