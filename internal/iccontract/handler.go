package iccontract

import (
	"net/http"

	"github.com/eventcontract/contract-api/internal/auth"
	"github.com/eventcontract/contract-api/internal/lifecycle"
	"github.com/eventcontract/contract-api/internal/utils"
	"github.com/gorilla/mux"
)

// Handler gerencia rotas de contrato integrado
type Handler struct {
	Service *Service
}

// NewHandler cria um novo Handler
func NewHandler(svc *Service) *Handler {
	return &Handler{Service: svc}
}

// Quote trata POST /ic-configs/{id}/quote
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	id, err := utils.PathID(r, "id")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	var in QuoteInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	q, err := h.Service.Quote(r.Context(), id, in)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, q)
}

// Create trata POST /ic-configs/{id}/contracts
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	p, id, ok := utils.PrincipalAndID(w, r, "id")
	if !ok {
		return
	}
	var in CreateInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	c, err := h.Service.Create(r.Context(), p, id, in)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, c)
}

// Get trata GET /ic-contracts/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	p, id, ok := utils.PrincipalAndID(w, r, "id")
	if !ok {
		return
	}
	c, err := h.Service.Get(r.Context(), p, id)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, c)
}

// GetByCode trata GET /ic-contracts/code/{shortCode}
func (h *Handler) GetByCode(w http.ResponseWriter, r *http.Request) {
	p, err := auth.MustPrincipal(r.Context())
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	c, err := h.Service.GetByCode(r.Context(), p, mux.Vars(r)["shortCode"])
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, c)
}

// ListByConfig trata GET /ic-configs/{id}/contracts?status=
func (h *Handler) ListByConfig(w http.ResponseWriter, r *http.Request) {
	p, id, ok := utils.PrincipalAndID(w, r, "id")
	if !ok {
		return
	}
	list, err := h.Service.ListByConfig(r.Context(), p, id, r.URL.Query().Get("status"))
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, list)
}

// ListMine trata GET /ic-contracts/mine
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	p, err := auth.MustPrincipal(r.Context())
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	list, err := h.Service.ListMine(r.Context(), p)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, list)
}

// UpdateStatus trata PATCH /ic-contracts/{id}/status
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	p, id, ok := utils.PrincipalAndID(w, r, "id")
	if !ok {
		return
	}
	var in StatusInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	c, err := h.Service.UpdateStatus(r.Context(), p, id, lifecycle.Status(in.Status), in.Reason)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, c)
}

// Commission trata GET /ic-contracts/{id}/commission
func (h *Handler) Commission(w http.ResponseWriter, r *http.Request) {
	p, id, ok := utils.PrincipalAndID(w, r, "id")
	if !ok {
		return
	}
	b, err := h.Service.Commission(r.Context(), p, id)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, b)
}

// Report trata GET /ic-configs/{id}/commission-report
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	p, id, ok := utils.PrincipalAndID(w, r, "id")
	if !ok {
		return
	}
	b, err := h.Service.Report(r.Context(), p, id)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, b)
}
