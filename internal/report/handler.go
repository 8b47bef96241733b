// AngelaMos | 2026
// handler.go

package report

import (
	"bytes"
	"fmt"
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
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Group(func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Get("/admin/reports/financial", h.Financial)
		r.Get("/admin/reports/financial.csv", h.FinancialCSV)
		r.Get("/admin/reports/visitors", h.Visitors)
	})
}

func (h *Handler) Financial(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Financial(r.Context(), middleware.GetActor(r.Context()))
	if err != nil {
		core.HandleError(w, err, "report")
		return
	}

	core.OK(w, report)
}

// FinancialCSV buffers the whole file so a failure can still be answered
// with a JSON error.
func (h *Handler) FinancialCSV(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Financial(r.Context(), middleware.GetActor(r.Context()))
	if err != nil {
		core.HandleError(w, err, "report")
		return
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, report); err != nil {
		core.InternalServerError(w, err)
		return
	}

	filename := fmt.Sprintf("financial-report-%s.csv", report.GeneratedAt.Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		middleware.LoggerFromContext(r.Context()).Debug("csv report write aborted", "error", err)
		return
	}

	middleware.LoggerFromContext(r.Context()).Info("financial report exported",
		"lines", len(report.Lines),
		"bytes", buf.Len(),
	)
}

func (h *Handler) Visitors(w http.ResponseWriter, r *http.Request) {
	visitors, err := h.service.TodaysVisitors(r.Context(), middleware.GetActor(r.Context()))
	if err != nil {
		core.HandleError(w, err, "report")
		return
	}

	core.OK(w, visitors)
}
