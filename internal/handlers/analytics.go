package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/GregMSThompson/savvi-sync/internal/dto"
	"github.com/GregMSThompson/savvi-sync/internal/models"
	"github.com/GregMSThompson/savvi-sync/internal/response"
	"github.com/GregMSThompson/savvi-sync/pkg/helpers"
)

type analyticsHandlers struct {
	ResponseHandler response.ResponseHandler
	AnalyticsSvc    AnalyticsService
}

func NewAnalyticsHandlers(deps *Deps) *analyticsHandlers {
	return &analyticsHandlers{
		ResponseHandler: deps.ResponseHandler,
		AnalyticsSvc:    deps.AnalyticsSvc,
	}
}

func (h *analyticsHandlers) AnalyticsRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/summary", h.GetSummary)
	r.Get("/breakdown", h.GetBreakdown)
	return r
}

func (h *analyticsHandlers) GetSummary(w http.ResponseWriter, r *http.Request) {
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, h.AnalyticsSvc.GetSummary(r.Context()))
}

// GetBreakdown reads groupBy, type, from and to from the query string.
func (h *analyticsHandlers) GetBreakdown(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	args := dto.BreakdownArgs{
		GroupBy:  q.Get("groupBy"),
		DateFrom: helpers.NonEmpty(q.Get("from")),
		DateTo:   helpers.NonEmpty(q.Get("to")),
	}
	if t := q.Get("type"); t != "" {
		args.Type = helpers.Ptr(models.TransactionType(t))
	}

	result, err := h.AnalyticsSvc.GetBreakdown(r.Context(), args)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, result)
}
