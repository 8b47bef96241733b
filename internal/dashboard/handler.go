// AngelaMos | 2026
// handler.go

package dashboard

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/canteen-backend/internal/core"
	"github.com/carterperez-dev/canteen-backend/internal/middleware"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Group(func(r chi.Router) {
		r.Use(authenticator)
		r.With(middleware.RequireStudent).Get("/student/dashboard", h.Student)
		r.With(middleware.RequireStaff).Get("/cook/dashboard", h.Cook)
	})
}

func (h *Handler) Student(w http.ResponseWriter, r *http.Request) {
	d, err := h.service.Student(r.Context(), middleware.GetActor(r.Context()))
	if err != nil {
		core.HandleError(w, err, "account")
		return
	}

	core.OK(w, d)
}

func (h *Handler) Cook(w http.ResponseWriter, r *http.Request) {
	d, err := h.service.Cook(r.Context(), middleware.GetActor(r.Context()))
	if err != nil {
		core.HandleError(w, err, "dashboard")
		return
	}

	core.OK(w, d)
}
