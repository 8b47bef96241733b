// AngelaMos | 2026
// handler.go

package allergy

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/canteen-backend/internal/core"
	"github.com/carterperez-dev/canteen-backend/internal/middleware"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Group(func(r chi.Router) {
		r.Use(authenticator)
		r.Get("/allergies/suggestions", h.Suggestions)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireStudent)
			r.Get("/student/allergies", h.ListMine)
			r.Post("/student/allergies", h.Add)
			r.Delete("/student/allergies/{allergyID}", h.Remove)
		})
	})
}

func (h *Handler) Suggestions(w http.ResponseWriter, r *http.Request) {
	suggestions, err := h.service.Suggestions(r.Context())
	if err != nil {
		core.HandleError(w, err, "allergy")
		return
	}

	core.OK(w, suggestions)
}

func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	allergies, err := h.service.ListForUser(r.Context(), middleware.GetActor(r.Context()))
	if err != nil {
		core.HandleError(w, err, "allergy")
		return
	}

	core.OK(w, ToAllergyResponseList(allergies))
}

func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	var req AddAllergyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	a, err := h.service.AddAllergy(r.Context(), middleware.GetActor(r.Context()), req.Name)
	if err != nil {
		core.HandleError(w, err, "allergy")
		return
	}

	core.Created(w, ToAllergyResponse(a))
}

func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	err := h.service.RemoveAllergy(
		r.Context(),
		middleware.GetActor(r.Context()),
		chi.URLParam(r, "allergyID"),
	)
	if err != nil {
		core.HandleError(w, err, "allergy")
		return
	}

	core.NoContent(w)
}
