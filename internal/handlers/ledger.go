package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/GregMSThompson/savvi-sync/internal/dto"
	"github.com/GregMSThompson/savvi-sync/internal/middleware"
	"github.com/GregMSThompson/savvi-sync/internal/response"
)

type ledgerHandlers struct {
	ResponseHandler response.ResponseHandler
	LedgerSvc       LedgerService
}

func NewLedgerHandlers(deps *Deps) *ledgerHandlers {
	return &ledgerHandlers{
		ResponseHandler: deps.ResponseHandler,
		LedgerSvc:       deps.LedgerSvc,
	}
}

func (h *ledgerHandlers) BucketRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.CreateBucket)
	r.Put("/{id}", h.RenameBucket)
	r.Delete("/{id}", h.DeleteBucket)
	return r
}

func (h *ledgerHandlers) TransactionRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.CreateTransaction)
	r.Put("/{id}", h.UpdateTransaction)
	r.Delete("/{id}", h.DeleteTransaction)
	return r
}

func (h *ledgerHandlers) GoalRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.CreateGoal)
	r.Put("/{id}", h.UpdateGoal)
	r.Delete("/{id}", h.DeleteGoal)
	return r
}

func (h *ledgerHandlers) DebtRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.CreateDebt)
	r.Put("/{id}", h.UpdateDebt)
	r.Post("/{id}/paid", h.ToggleDebtPaid)
	r.Delete("/{id}", h.DeleteDebt)
	return r
}

func (h *ledgerHandlers) CreateBucket(w http.ResponseWriter, r *http.Request) {
	var req dto.BucketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	bucket, err := h.LedgerSvc.CreateBucket(r.Context(), middleware.UID(r.Context()), req)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusCreated, bucket)
}

func (h *ledgerHandlers) RenameBucket(w http.ResponseWriter, r *http.Request) {
	var req dto.BucketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	bucket, err := h.LedgerSvc.RenameBucket(r.Context(), middleware.UID(r.Context()), chi.URLParam(r, "id"), req)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, bucket)
}

func (h *ledgerHandlers) DeleteBucket(w http.ResponseWriter, r *http.Request) {
	if err := h.LedgerSvc.DeleteBucket(r.Context(), middleware.UID(r.Context()), chi.URLParam(r, "id")); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, nil)
}

func (h *ledgerHandlers) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	tx, err := h.LedgerSvc.CreateTransaction(r.Context(), middleware.UID(r.Context()), req)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusCreated, tx)
}

func (h *ledgerHandlers) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	tx, err := h.LedgerSvc.UpdateTransaction(r.Context(), middleware.UID(r.Context()), chi.URLParam(r, "id"), req)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, tx)
}

func (h *ledgerHandlers) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := h.LedgerSvc.DeleteTransaction(r.Context(), middleware.UID(r.Context()), chi.URLParam(r, "id")); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, nil)
}

func (h *ledgerHandlers) CreateGoal(w http.ResponseWriter, r *http.Request) {
	var req dto.GoalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	goal, err := h.LedgerSvc.CreateGoal(r.Context(), middleware.UID(r.Context()), req)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusCreated, goal)
}

func (h *ledgerHandlers) UpdateGoal(w http.ResponseWriter, r *http.Request) {
	var req dto.GoalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	goal, err := h.LedgerSvc.UpdateGoal(r.Context(), middleware.UID(r.Context()), chi.URLParam(r, "id"), req)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, goal)
}

func (h *ledgerHandlers) DeleteGoal(w http.ResponseWriter, r *http.Request) {
	if err := h.LedgerSvc.DeleteGoal(r.Context(), middleware.UID(r.Context()), chi.URLParam(r, "id")); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, nil)
}

func (h *ledgerHandlers) CreateDebt(w http.ResponseWriter, r *http.Request) {
	var req dto.DebtRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	debt, err := h.LedgerSvc.CreateDebt(r.Context(), middleware.UID(r.Context()), req)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusCreated, debt)
}

func (h *ledgerHandlers) UpdateDebt(w http.ResponseWriter, r *http.Request) {
	var req dto.DebtRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	debt, err := h.LedgerSvc.UpdateDebt(r.Context(), middleware.UID(r.Context()), chi.URLParam(r, "id"), req)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, debt)
}

func (h *ledgerHandlers) ToggleDebtPaid(w http.ResponseWriter, r *http.Request) {
	debt, err := h.LedgerSvc.ToggleDebtPaid(r.Context(), middleware.UID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, debt)
}

func (h *ledgerHandlers) DeleteDebt(w http.ResponseWriter, r *http.Request) {
	if err := h.LedgerSvc.DeleteDebt(r.Context(), middleware.UID(r.Context()), chi.URLParam(r, "id")); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, nil)
}
