package notifications

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
	r.Route("/me/notifications", func(nr chi.Router) {
		nr.Get("/", listMineHandler(svc))
		nr.Post("/read", markAllReadHandler(svc))
		nr.Post("/{notificationID}/read", markReadHandler(svc))
	})
}

type notificationResponse struct {
	ID        string     `json:"id"`
	SenderID  string     `json:"sender_id,omitempty"`
	Type      Type       `json:"type"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	EntityID  string     `json:"entity_id,omitempty"`
	Read      bool       `json:"read"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// listMineHandler godoc
// @Summary      Mis notificaciones
// @Tags         notifications
// @Produce      json
// @Param        unread  query  bool  false  "sólo no leídas"
// @Param        limit   query  int   false  "máximo de resultados"
// @Success      200  {array}  notificationResponse
// @Router       /me/notifications [get]
func listMineHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.RequirePrincipal(w, r)
		if !ok {
			return
		}

		q := r.URL.Query()
		var query ListQuery
		if s := strings.TrimSpace(q.Get("unread")); s != "" {
			b, err := strconv.ParseBool(s)
			if err != nil {
				httpjson.WriteError(w, r, domain.NewValidationError("unread", "must be a boolean"))
				return
			}
			query.UnreadOnly = b
		}
		if s := strings.TrimSpace(q.Get("limit")); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 0 {
				httpjson.WriteError(w, r, domain.NewValidationError("limit", "must be a non-negative integer"))
				return
			}
			query.Limit = n
		}

		items, err := svc.ListMine(r.Context(), actor, query)
		if err != nil {
			httpjson.WriteError(w, r, err)
			return
		}

		out := make([]notificationResponse, 0, len(items))
		for _, n := range items {
			out = append(out, toNotificationResponse(n))
		}
		httpjson.Write(w, http.StatusOK, out)
	}
}

func markReadHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.RequirePrincipal(w, r)
		if !ok {
			return
		}

		n, err := svc.MarkRead(r.Context(), actor, chi.URLParam(r, "notificationID"))
		if err != nil {
			httpjson.WriteError(w, r, err)
			return
		}
		httpjson.Write(w, http.StatusOK, toNotificationResponse(n))
	}
}

func markAllReadHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.RequirePrincipal(w, r)
		if !ok {
			return
		}

		n, err := svc.MarkAllRead(r.Context(), actor)
		if err != nil {
			httpjson.WriteError(w, r, err)
			return
		}
		httpjson.Write(w, http.StatusOK, map[string]int{"updated": n})
	}
}

func toNotificationResponse(n Notification) notificationResponse {
	return notificationResponse{
		ID:        n.ID,
		SenderID:  n.SenderID,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		EntityID:  n.EntityID,
		Read:      n.Read,
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
	}
}
