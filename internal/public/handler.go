// Package public responde às consultas sem login por código curto ou token
// de QR. Devolve só o necessário para iniciar o fluxo.
package public

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/eventcontract/contract-api/internal/apperr"
	"github.com/eventcontract/contract-api/internal/contract"
	"github.com/eventcontract/contract-api/internal/contracttemplate"
	"github.com/eventcontract/contract-api/internal/iccontract"
	"github.com/eventcontract/contract-api/internal/identifier"
	"github.com/eventcontract/contract-api/internal/lifecycle"
	"github.com/eventcontract/contract-api/internal/utils"
	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

const (
	KindContract   = "contract"
	KindIcContract = "ic_contract"
)

// View não carrega cliente, valores nem assinatura.
type View struct {
	Kind      string           `json:"kind"`
	ID        uint             `json:"id"`
	Status    lifecycle.Status `json:"status"`
	EventID   uint             `json:"eventId"`
	Name      string           `json:"name"`
	ExpiresAt *time.Time       `json:"expiresAt,omitempty"`
	Expired   bool             `json:"expired"`
}

// Handler gerencia rotas públicas
type Handler struct {
	DB  *gorm.DB
	Now func() time.Time
}

// NewHandler cria um novo Handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{DB: db, Now: time.Now}
}

func (h *Handler) now() time.Time {
	if h.Now == nil {
		return time.Now()
	}
	return h.Now()
}

func (h *Handler) contractView(gdb *gorm.DB, c *contract.Contract) (*View, error) {
	t, err := contracttemplate.NewRepository(gdb).FindByID(c.TemplateID)
	if err != nil {
		return nil, err
	}
	expires := c.ExpiresAt
	return &View{
		Kind:      KindContract,
		ID:        c.ID,
		Status:    c.Status,
		EventID:   c.EventID,
		Name:      t.Name,
		ExpiresAt: &expires,
		Expired:   c.IsExpired(h.now()),
	}, nil
}

// ByCode resolve o código pelo registro de códigos curtos, que diz se ele
// pertence a um contrato de modelo ou a um integrado.
func (h *Handler) ByCode(ctx context.Context, code string) (*View, error) {
	code = identifier.Normalize(code)
	if code == "" {
		return nil, apperr.Validation("código vazio")
	}
	gdb := h.DB.WithContext(ctx)
	owner, err := identifier.Owner(gdb, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apperr.NotFoundError{Entity: "código", Key: code}
		}
		return nil, err
	}

	if owner.OwnerType != identifier.OwnerIcContract {
		c, err := contract.NewRepository(gdb).FindByShortCode(code)
		if err != nil {
			return nil, err
		}
		return h.contractView(gdb, c)
	}
	ic, err := iccontract.NewRepository(gdb).FindByShortCode(code)
	if err != nil {
		return nil, err
	}
	return &View{
		Kind:    KindIcContract,
		ID:      ic.ID,
		Status:  ic.Status,
		EventID: ic.EventID,
		Name:    ic.ApartmentTypeName,
	}, nil
}

// ByQR só existe para contratos de modelo.
func (h *Handler) ByQR(ctx context.Context, token string) (*View, error) {
	gdb := h.DB.WithContext(ctx)
	c, err := contract.NewRepository(gdb).FindByQRCode(token)
	if err != nil {
		return nil, err
	}
	return h.contractView(gdb, c)
}

// LookupCode trata GET /public/codes/{code}
func (h *Handler) LookupCode(w http.ResponseWriter, r *http.Request) {
	v, err := h.ByCode(r.Context(), mux.Vars(r)["code"])
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, v)
}

// LookupQR trata GET /public/qr/{token}
func (h *Handler) LookupQR(w http.ResponseWriter, r *http.Request) {
	v, err := h.ByQR(r.Context(), mux.Vars(r)["token"])
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, v)
}
