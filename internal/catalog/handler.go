package catalog

import (
	"net/http"

	"github.com/eventcontract/contract-api/internal/auth"
	"github.com/eventcontract/contract-api/internal/utils"
)

// Handler expõe o catálogo (configuração, tipos e planilhas).
type Handler struct {
	Service *Service
}

// NewHandler cria um novo Handler
func NewHandler(svc *Service) *Handler {
	return &Handler{Service: svc}
}

// CreateConfig trata POST /events/{eventId}/ic-config
func (h *Handler) CreateConfig(w http.ResponseWriter, r *http.Request) {
	p, err := auth.MustPrincipal(r.Context())
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	eventID, err := utils.PathID(r, "eventId")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	var in ConfigInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	cfg, err := h.Service.CreateConfig(r.Context(), p, eventID, in)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, cfg)
}

// GetConfigByEvent trata GET /events/{eventId}/ic-config
func (h *Handler) GetConfigByEvent(w http.ResponseWriter, r *http.Request) {
	eventID, err := utils.PathID(r, "eventId")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	cfg, err := h.Service.GetConfigByEvent(r.Context(), eventID)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, cfg)
}

// GetConfig trata GET /ic-configs/{id}
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	id, err := utils.PathID(r, "id")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	cfg, err := h.Service.GetConfig(r.Context(), id)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, cfg)
}

// UpdateConfig trata PATCH /ic-configs/{id}
func (h *Handler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	p, id, ok := utils.PrincipalAndID(w, r, "id")
	if !ok {
		return
	}
	var in ConfigInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	cfg, err := h.Service.UpdateConfig(r.Context(), p, id, in)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, cfg)
}

// UpdateConfigStatus trata PATCH /ic-configs/{id}/status
func (h *Handler) UpdateConfigStatus(w http.ResponseWriter, r *http.Request) {
	p, id, ok := utils.PrincipalAndID(w, r, "id")
	if !ok {
		return
	}
	var in StatusInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	cfg, err := h.Service.SetConfigStatus(r.Context(), p, id, in.Status)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, cfg)
}

// CreateApartmentType trata POST /ic-configs/{id}/apartment-types
func (h *Handler) CreateApartmentType(w http.ResponseWriter, r *http.Request) {
	p, id, ok := utils.PrincipalAndID(w, r, "id")
	if !ok {
		return
	}
	var in ApartmentTypeInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	t, err := h.Service.CreateApartmentType(r.Context(), p, id, in)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, t)
}

// UpdateApartmentType trata PUT /apartment-types/{id}
func (h *Handler) UpdateApartmentType(w http.ResponseWriter, r *http.Request) {
	p, id, ok := utils.PrincipalAndID(w, r, "id")
	if !ok {
		return
	}
	var in ApartmentTypeInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	t, err := h.Service.UpdateApartmentType(r.Context(), p, id, in)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, t)
}

// DeleteApartmentType trata DELETE /apartment-types/{id}
func (h *Handler) DeleteApartmentType(w http.ResponseWriter, r *http.Request) {
	p, id, ok := utils.PrincipalAndID(w, r, "id")
	if !ok {
		return
	}
	if err := h.Service.DeleteApartmentType(r.Context(), p, id); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MySheet trata GET /ic-configs/{id}/sheets/mine?category=
func (h *Handler) MySheet(w http.ResponseWriter, r *http.Request) {
	p, id, ok := utils.PrincipalAndID(w, r, "id")
	if !ok {
		return
	}
	sheet, err := h.Service.MySheet(r.Context(), p, id, r.URL.Query().Get("category"))
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, sheet)
}

// ListSheets trata GET /ic-configs/{id}/sheets
func (h *Handler) ListSheets(w http.ResponseWriter, r *http.Request) {
	p, id, ok := utils.PrincipalAndID(w, r, "id")
	if !ok {
		return
	}
	list, err := h.Service.ListSheets(r.Context(), p, id)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, list)
}

// GetSheet trata GET /sheets/{id}
func (h *Handler) GetSheet(w http.ResponseWriter, r *http.Request) {
	p, id, ok := utils.PrincipalAndID(w, r, "id")
	if !ok {
		return
	}
	sheet, err := h.Service.GetSheet(r.Context(), p, id)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, sheet)
}

// ReplaceColumns trata PUT /sheets/{id}/columns
func (h *Handler) ReplaceColumns(w http.ResponseWriter, r *http.Request) {
	p, id, ok := utils.PrincipalAndID(w, r, "id")
	if !ok {
		return
	}
	var in ReplaceColumnsInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	sheet, err := h.Service.ReplaceColumns(r.Context(), p, id, in.Columns)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, sheet)
}

// ReplaceRows trata PUT /sheets/{id}/rows
func (h *Handler) ReplaceRows(w http.ResponseWriter, r *http.Request) {
	p, id, ok := utils.PrincipalAndID(w, r, "id")
	if !ok {
		return
	}
	var in ReplaceRowsInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	sheet, err := h.Service.ReplaceRows(r.Context(), p, id, in.Rows)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, sheet)
}

// UpdateSheetStatus trata PATCH /sheets/{id}/status
func (h *Handler) UpdateSheetStatus(w http.ResponseWriter, r *http.Request) {
	p, id, ok := utils.PrincipalAndID(w, r, "id")
	if !ok {
		return
	}
	var in StatusInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	sheet, err := h.Service.SetSheetStatus(r.Context(), p, id, in.Status)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, sheet)
}

// UpdateSheetMemo trata PATCH /sheets/{id}/memo
func (h *Handler) UpdateSheetMemo(w http.ResponseWriter, r *http.Request) {
	p, id, ok := utils.PrincipalAndID(w, r, "id")
	if !ok {
		return
	}
	var in MemoInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	sheet, err := h.Service.UpdateMemo(r.Context(), p, id, in.Memo)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, sheet)
}
