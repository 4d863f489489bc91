package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/GregMSThompson/savvi-sync/internal/dto"
	"github.com/GregMSThompson/savvi-sync/internal/response"
)

type sessionHandlers struct {
	ResponseHandler response.ResponseHandler
	SessionSvc      SessionService
}

func NewSessionHandlers(deps *Deps) *sessionHandlers {
	return &sessionHandlers{
		ResponseHandler: deps.ResponseHandler,
		SessionSvc:      deps.SessionSvc,
	}
}

func (h *sessionHandlers) SessionRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.GetSession)
	r.Post("/signin", h.SignIn)
	r.Post("/signup", h.SignUp)
	r.Post("/reset", h.ResetPassword)
	r.Post("/signout", h.SignOut)
	r.Put("/profile", h.UpdateProfile)
	return r
}

func (h *sessionHandlers) GetSession(w http.ResponseWriter, r *http.Request) {
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, h.SessionSvc.View())
}

func (h *sessionHandlers) SignIn(w http.ResponseWriter, r *http.Request) {
	var req dto.SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.writeResult(w, r, h.SessionSvc.SignIn(r.Context(), req.Email, req.Password))
}

func (h *sessionHandlers) SignUp(w http.ResponseWriter, r *http.Request) {
	var req dto.SignUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.writeResult(w, r, h.SessionSvc.SignUp(r.Context(), req))
}

func (h *sessionHandlers) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.writeResult(w, r, h.SessionSvc.ResetPassword(r.Context(), req.Email))
}

func (h *sessionHandlers) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.SessionSvc.SignOut(r.Context()); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, nil)
}

func (h *sessionHandlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req dto.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	user, err := h.SessionSvc.UpdateProfile(r.Context(), req.Name, req.Avatar)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, user)
}

// writeResult answers 200 for success and advisories, 401 for failures.
func (h *sessionHandlers) writeResult(w http.ResponseWriter, r *http.Request, res dto.AuthResult) {
	if !res.OK() {
		h.ResponseHandler.WriteError(w, r, http.StatusUnauthorized, "auth_failed", res.Message)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, res)
}
