// AngelaMos | 2026
// handler.go

package menu

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
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Group(func(r chi.Router) {
		r.Use(authenticator)
		r.Get("/menu", h.List)

		r.Group(func(r chi.Router) {
			r.Use(adminOnly)
			r.Post("/admin/menu", h.AddItem)
			r.Delete("/admin/menu/{itemID}", h.DeleteItem)
		})
	})
}

// List returns the menu grouped by category. ?flat=true returns a plain list.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("flat") == "true" {
		items, err := h.service.List(r.Context())
		if err != nil {
			core.HandleError(w, err, "menu")
			return
		}
		core.OK(w, ToItemResponseList(items))
		return
	}

	grouped, err := h.service.Grouped(r.Context())
	if err != nil {
		core.HandleError(w, err, "menu")
		return
	}

	core.OK(w, grouped)
}

func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req CreateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	item, err := h.service.AddItem(r.Context(), middleware.GetActor(r.Context()), req)
	if err != nil {
		core.HandleError(w, err, "menu item")
		return
	}

	core.Created(w, ToItemResponse(item))
}

func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	err := h.service.DeleteItem(
		r.Context(),
		middleware.GetActor(r.Context()),
		chi.URLParam(r, "itemID"),
	)
	if err != nil {
		core.HandleError(w, err, "menu item")
		return
	}

	core.NoContent(w)
}
