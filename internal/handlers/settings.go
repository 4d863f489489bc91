package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/GregMSThompson/savvi-sync/internal/dto"
	"github.com/GregMSThompson/savvi-sync/internal/errs"
	"github.com/GregMSThompson/savvi-sync/internal/response"
)

type settingsHandlers struct {
	ResponseHandler response.ResponseHandler
	SettingsSvc     SettingsService
}

func NewSettingsHandlers(deps *Deps) *settingsHandlers {
	return &settingsHandlers{
		ResponseHandler: deps.ResponseHandler,
		SettingsSvc:     deps.SettingsSvc,
	}
}

func (h *settingsHandlers) SettingsRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.GetSettings)
	r.Put("/", h.UpdateSettings)
	r.Post("/darkmode/toggle", h.ToggleDarkMode)
	r.Get("/format", h.FormatAmount)
	return r
}

func (h *settingsHandlers) GetSettings(w http.ResponseWriter, r *http.Request) {
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, h.SettingsSvc.Get())
}

func (h *settingsHandlers) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req dto.SettingsUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	s, err := h.SettingsSvc.Apply(r.Context(), req)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, s)
}

func (h *settingsHandlers) ToggleDarkMode(w http.ResponseWriter, r *http.Request) {
	if _, err := h.SettingsSvc.ToggleDarkMode(r.Context()); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, h.SettingsSvc.Get())
}

// FormatAmount renders ?amount= in the current currency; ?symbol=false drops the symbol.
func (h *settingsHandlers) FormatAmount(w http.ResponseWriter, r *http.Request) {
	amount, err := strconv.ParseFloat(r.URL.Query().Get("amount"), 64)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, errs.NewValidationError("amount must be a number"))
		return
	}
	showSymbol := r.URL.Query().Get("symbol") != "false"
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, map[string]string{
		"formatted": h.SettingsSvc.FormatCurrency(amount, showSymbol),
	})
}
