package contract

import (
	"net/http"

	"github.com/eventcontract/contract-api/internal/auth"
	"github.com/eventcontract/contract-api/internal/utils"
)

// Handler gerencia rotas de contrato de modelo
type Handler struct {
	Service *Service
}

// NewHandler cria um novo Handler
func NewHandler(svc *Service) *Handler {
	return &Handler{Service: svc}
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, status int, v any, err error) {
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, status, v)
}

// Issue trata POST /templates/{id}/contracts
func (h *Handler) Issue(w http.ResponseWriter, r *http.Request) {
	p, id, ok := utils.PrincipalAndID(w, r, "id")
	if !ok {
		return
	}
	var in IssueInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	c, err := h.Service.Issue(r.Context(), p, id, in)
	h.respond(w, r, http.StatusCreated, c, err)
}

// ListByTemplate trata GET /templates/{id}/contracts?status=
func (h *Handler) ListByTemplate(w http.ResponseWriter, r *http.Request) {
	p, id, ok := utils.PrincipalAndID(w, r, "id")
	if !ok {
		return
	}
	list, err := h.Service.ListByTemplate(r.Context(), p, id, r.URL.Query().Get("status"))
	h.respond(w, r, http.StatusOK, list, err)
}

// ListMine trata GET /contracts/mine
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	p, err := auth.MustPrincipal(r.Context())
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	list, err := h.Service.ListMine(r.Context(), p)
	h.respond(w, r, http.StatusOK, list, err)
}

// Get trata GET /contracts/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	p, id, ok := utils.PrincipalAndID(w, r, "id")
	if !ok {
		return
	}
	c, err := h.Service.Get(r.Context(), p, id)
	h.respond(w, r, http.StatusOK, c, err)
}

// Layout trata GET /contracts/{id}/layout
func (h *Handler) Layout(w http.ResponseWriter, r *http.Request) {
	p, id, ok := utils.PrincipalAndID(w, r, "id")
	if !ok {
		return
	}
	l, err := h.Service.Layout(r.Context(), p, id)
	h.respond(w, r, http.StatusOK, l, err)
}

// Open trata POST /contracts/{id}/open
func (h *Handler) Open(w http.ResponseWriter, r *http.Request) {
	p, id, ok := utils.PrincipalAndID(w, r, "id")
	if !ok {
		return
	}
	c, err := h.Service.Open(r.Context(), p, id)
	h.respond(w, r, http.StatusOK, c, err)
}

// SaveFields trata PUT /contracts/{id}/fields
func (h *Handler) SaveFields(w http.ResponseWriter, r *http.Request) {
	p, id, ok := utils.PrincipalAndID(w, r, "id")
	if !ok {
		return
	}
	var in FieldsInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	c, err := h.Service.SaveFields(r.Context(), p, id, in.Values)
	h.respond(w, r, http.StatusOK, c, err)
}

// Sign trata POST /contracts/{id}/sign
func (h *Handler) Sign(w http.ResponseWriter, r *http.Request) {
	p, id, ok := utils.PrincipalAndID(w, r, "id")
	if !ok {
		return
	}
	var in SignInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	c, err := h.Service.Sign(r.Context(), p, id, in)
	h.respond(w, r, http.StatusOK, c, err)
}

// Complete trata POST /contracts/{id}/complete
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	p, id, ok := utils.PrincipalAndID(w, r, "id")
	if !ok {
		return
	}
	c, err := h.Service.Complete(r.Context(), p, id)
	h.respond(w, r, http.StatusOK, c, err)
}

// Cancel trata POST /contracts/{id}/cancel
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	p, id, ok := utils.PrincipalAndID(w, r, "id")
	if !ok {
		return
	}
	var in CancelInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	c, err := h.Service.Cancel(r.Context(), p, id, in.Reason)
	h.respond(w, r, http.StatusOK, c, err)
}

// AttachSignedFile trata PUT /contracts/{id}/signed-file
func (h *Handler) AttachSignedFile(w http.ResponseWriter, r *http.Request) {
	p, id, ok := utils.PrincipalAndID(w, r, "id")
	if !ok {
		return
	}
	var in SignedFileInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	c, err := h.Service.AttachSignedFile(r.Context(), p, id, in.FileID)
	h.respond(w, r, http.StatusOK, c, err)
}
