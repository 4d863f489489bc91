package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/GregMSThompson/savvi-sync/internal/response"
)

type appHandlers struct {
	ResponseHandler response.ResponseHandler
	AppSvc          AppService
}

func NewAppHandlers(deps *Deps) *appHandlers {
	return &appHandlers{
		ResponseHandler: deps.ResponseHandler,
		AppSvc:          deps.AppSvc,
	}
}

func (h *appHandlers) AppRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.GetView)
	r.Post("/retry", h.Retry)
	r.Post("/refresh", h.Refresh)
	r.Post("/offline", h.EnterOffline)
	r.Post("/setup-complete", h.SetupComplete)
	return r
}

func (h *appHandlers) GetView(w http.ResponseWriter, r *http.Request) {
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, h.AppSvc.View())
}

func (h *appHandlers) Retry(w http.ResponseWriter, r *http.Request) {
	h.AppSvc.Retry(r.Context())
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, h.AppSvc.View())
}

func (h *appHandlers) Refresh(w http.ResponseWriter, r *http.Request) {
	h.AppSvc.RefreshData(r.Context())
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, h.AppSvc.View())
}

func (h *appHandlers) EnterOffline(w http.ResponseWriter, r *http.Request) {
	if err := h.AppSvc.EnterOfflineMode(r.Context()); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, h.AppSvc.View())
}

func (h *appHandlers) SetupComplete(w http.ResponseWriter, r *http.Request) {
	h.AppSvc.SetupComplete(r.Context())
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, h.AppSvc.View())
}
