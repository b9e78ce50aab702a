package contracttemplate

import (
	"net/http"

	"github.com/eventcontract/contract-api/internal/utils"
)

// Handler gerencia rotas de modelo de contrato
type Handler struct {
	Service *Service
}

// NewHandler cria um novo Handler
func NewHandler(svc *Service) *Handler {
	return &Handler{Service: svc}
}

// Create trata POST /events/{eventId}/templates
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	p, eventID, ok := utils.PrincipalAndID(w, r, "eventId")
	if !ok {
		return
	}
	var in TemplateInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	t, err := h.Service.Create(r.Context(), p, eventID, in)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, t)
}

// ListByEvent trata GET /events/{eventId}/templates
func (h *Handler) ListByEvent(w http.ResponseWriter, r *http.Request) {
	p, eventID, ok := utils.PrincipalAndID(w, r, "eventId")
	if !ok {
		return
	}
	list, err := h.Service.ListByEvent(r.Context(), p, eventID)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, list)
}

// Get trata GET /templates/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := utils.PathID(r, "id")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	t, err := h.Service.Get(r.Context(), id)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, t)
}

// Update trata PUT /templates/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	p, id, ok := utils.PrincipalAndID(w, r, "id")
	if !ok {
		return
	}
	var in TemplateInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	t, err := h.Service.Update(r.Context(), p, id, in)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, t)
}

// ReplaceFields trata PUT /templates/{id}/fields
func (h *Handler) ReplaceFields(w http.ResponseWriter, r *http.Request) {
	p, id, ok := utils.PrincipalAndID(w, r, "id")
	if !ok {
		return
	}
	var in ReplaceFieldsInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	t, err := h.Service.ReplaceFields(r.Context(), p, id, in.Fields)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, t)
}
