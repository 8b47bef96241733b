// AngelaMos | 2026
// handler.go

package ledger

import (
	"encoding/json"
	"net/http"
	"time"

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
		r.Use(middleware.RequireStudent)

		r.Get("/student/balance", h.GetBalance)
		r.Post("/student/balance/top-up", h.TopUp)
		r.Post("/student/subscription", h.PurchaseSubscription)
		r.Post("/student/orders", h.PurchaseMenuItem)
	})
}

func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	acc, err := h.service.Balance(r.Context(), middleware.GetActor(r.Context()))
	if err != nil {
		core.HandleError(w, err, "account")
		return
	}

	core.OK(w, BalanceResponse{
		Balance:         acc.Balance,
		SubscriptionEnd: acc.SubscriptionEnd,
		IsSubscribed:    acc.IsSubscribed(time.Now()),
	})
}

func (h *Handler) TopUp(w http.ResponseWriter, r *http.Request) {
	var req TopUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "amount must be a number")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	balance, err := h.service.TopUp(r.Context(), middleware.GetActor(r.Context()), *req.Amount)
	if err != nil {
		core.HandleError(w, err, "account")
		return
	}

	core.OK(w, BalanceResponse{Balance: balance})
}

func (h *Handler) PurchaseSubscription(w http.ResponseWriter, r *http.Request) {
	receipt, err := h.service.PurchaseSubscription(r.Context(), middleware.GetActor(r.Context()))
	if err != nil {
		core.HandleError(w, err, "account")
		return
	}

	core.Created(w, ToReceiptResponse(receipt))
}

func (h *Handler) PurchaseMenuItem(w http.ResponseWriter, r *http.Request) {
	var req PurchaseItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	receipt, err := h.service.PurchaseMenuItem(
		r.Context(),
		middleware.GetActor(r.Context()),
		req.ItemID,
	)
	if err != nil {
		core.HandleError(w, err, "menu item")
		return
	}

	core.Created(w, ToReceiptResponse(receipt))
}
