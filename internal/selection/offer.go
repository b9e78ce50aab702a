package selection

import (
	"context"
	"net/http"

	"github.com/eventcontract/contract-api/internal/apperr"
	"github.com/eventcontract/contract-api/internal/catalog"
	"github.com/eventcontract/contract-api/internal/pricing"
	"github.com/eventcontract/contract-api/internal/utils"
)

// OfferSheet é uma planilha ativa como o cliente a vê para um tipo: só as
// linhas com preço resolvido.
type OfferSheet struct {
	SheetID      uint                  `json:"sheetId"`
	PartnerName  string                `json:"partnerName"`
	CategoryName string                `json:"categoryName"`
	Memo         string                `json:"memo,omitempty"`
	Columns      []catalog.SheetColumn `json:"columns"`
	Rows         []pricing.PricedRow   `json:"rows"`
}

// BuildOffer monta a vitrine; planilhas sem nenhuma linha selecionável ficam
// de fora.
func BuildOffer(sheets []catalog.IcPartnerSheet, apartmentTypeID uint) []OfferSheet {
	out := make([]OfferSheet, 0, len(sheets))
	for _, s := range sheets {
		if s.Status != catalog.StatusActive {
			continue
		}
		rows := pricing.SelectableRows(s, apartmentTypeID)
		if len(rows) == 0 {
			continue
		}
		out = append(out, OfferSheet{
			SheetID:      s.ID,
			PartnerName:  s.PartnerName,
			CategoryName: s.CategoryName,
			Memo:         s.Memo,
			Columns:      catalog.SortColumns(s.Columns),
			Rows:         rows,
		})
	}
	return out
}

// Handler expõe a vitrine do catálogo para o cliente.
type Handler struct {
	Repo *catalog.Repository
}

func NewHandler(repo *catalog.Repository) *Handler {
	return &Handler{Repo: repo}
}

// Offer carrega a vitrine de uma configuração ativa.
func (h *Handler) Offer(ctx context.Context, configID, apartmentTypeID uint) ([]OfferSheet, error) {
	repo := catalog.NewRepository(h.Repo.DB.WithContext(ctx))
	snap, err := repo.LoadSnapshot(configID, nil, false)
	if err != nil {
		return nil, err
	}
	if snap.Config.Status != catalog.StatusActive {
		return nil, apperr.Validation("catálogo do evento não está ativo")
	}
	if _, ok := snap.Types[apartmentTypeID]; !ok {
		return nil, apperr.Validation("tipo de apartamento %d não pertence a este evento", apartmentTypeID)
	}
	sheets, err := repo.ListSheets(configID, catalog.StatusActive)
	if err != nil {
		return nil, err
	}
	return BuildOffer(sheets, apartmentTypeID), nil
}

// GetOffer trata GET /ic-configs/{id}/offer?apartmentTypeId=
func (h *Handler) GetOffer(w http.ResponseWriter, r *http.Request) {
	id, err := utils.PathID(r, "id")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	typeID, err := utils.QueryID(r, "apartmentTypeId")
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	if typeID == 0 {
		utils.WriteError(w, r, apperr.Validation("apartmentTypeId obrigatório"))
		return
	}
	offer, err := h.Offer(r.Context(), id, typeID)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, offer)
}
