// AngelaMos | 2026
// handler.go

package order

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

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireStudent)
			r.Get("/student/orders", h.ListMine)
			r.Post("/student/orders/{orderID}/confirm", h.ConfirmReceipt)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireStaff)
			r.Get("/cook/orders", h.Queue)
			r.Put("/cook/orders/{orderID}/status", h.SetStatus)
		})
	})
}

func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	views, err := h.service.ListForUser(r.Context(), middleware.GetActor(r.Context()))
	if err != nil {
		core.HandleError(w, err, "order")
		return
	}

	core.OK(w, ToViewResponseList(views))
}

func (h *Handler) ConfirmReceipt(w http.ResponseWriter, r *http.Request) {
	o, err := h.service.ConfirmReceipt(
		r.Context(),
		middleware.GetActor(r.Context()),
		chi.URLParam(r, "orderID"),
	)
	if err != nil {
		core.HandleError(w, err, "order")
		return
	}

	core.OK(w, ToOrderResponse(o))
}

func (h *Handler) Queue(w http.ResponseWriter, r *http.Request) {
	views, err := h.service.CookQueue(r.Context(), middleware.GetActor(r.Context()))
	if err != nil {
		core.HandleError(w, err, "order")
		return
	}

	core.OK(w, ToViewResponseList(views))
}

func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	var req SetStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	o, err := h.service.SetStatus(
		r.Context(),
		middleware.GetActor(r.Context()),
		chi.URLParam(r, "orderID"),
		Status(req.Status),
	)
	if err != nil {
		core.HandleError(w, err, "order")
		return
	}

	core.OK(w, ToOrderResponse(o))
}
