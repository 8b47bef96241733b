// AngelaMos | 2026
// handler.go

package stock

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

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireStaff)
			r.Get("/cook/products", h.ListProducts)
			r.Put("/cook/products/{productID}", h.UpdateStock)
			r.Get("/cook/purchase-requests", h.ListRequests)
			r.Post("/cook/purchase-requests", h.CreateRequests)
		})

		r.Group(func(r chi.Router) {
			r.Use(adminOnly)
			r.Get("/admin/purchase-requests", h.ListRequests)
			r.Put("/admin/purchase-requests/{requestID}", h.Resolve)
		})
	})
}

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListProducts(r.Context(), middleware.GetActor(r.Context()))
	if err != nil {
		core.HandleError(w, err, "product")
		return
	}

	core.OK(w, ToProductResponseList(products))
}

func (h *Handler) UpdateStock(w http.ResponseWriter, r *http.Request) {
	var req UpdateStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "quantity must be a number")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	product, err := h.service.UpdateStock(
		r.Context(),
		middleware.GetActor(r.Context()),
		chi.URLParam(r, "productID"),
		*req.Quantity,
	)
	if err != nil {
		core.HandleError(w, err, "product")
		return
	}

	core.OK(w, ToProductResponse(product))
}

func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.service.ListRequests(r.Context(), middleware.GetActor(r.Context()))
	if err != nil {
		core.HandleError(w, err, "purchase request")
		return
	}

	core.OK(w, ToPurchaseRequestResponseList(reqs))
}

func (h *Handler) CreateRequests(w http.ResponseWriter, r *http.Request) {
	var req CreateRequestsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	lines := make([]Line, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, Line{ProductName: item.ProductName, Quantity: *item.Quantity})
	}

	created, err := h.service.CreateRequests(r.Context(), middleware.GetActor(r.Context()), lines)
	if err != nil {
		core.HandleError(w, err, "purchase request")
		return
	}

	core.Created(w, ToPurchaseRequestResponseList(created))
}

func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	var req ResolvePurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	var cost float64
	if req.Cost != nil {
		cost = *req.Cost
	}

	resolved, err := h.service.ResolveRequest(
		r.Context(),
		middleware.GetActor(r.Context()),
		chi.URLParam(r, "requestID"),
		RequestStatus(req.Status),
		cost,
	)
	if err != nil {
		core.HandleError(w, err, "purchase request")
		return
	}

	core.OK(w, ToPurchaseRequestResponse(resolved))
}
