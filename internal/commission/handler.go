package commission

import (
	"context"
	"fmt"
	"net/http"

	"github.com/eventcontract/contract-api/internal/activitylog"
	"github.com/eventcontract/contract-api/internal/apperr"
	"github.com/eventcontract/contract-api/internal/auth"
	"github.com/eventcontract/contract-api/internal/catalog"
	"github.com/eventcontract/contract-api/internal/utils"
	"gorm.io/gorm"
)

type RateInput struct {
	SheetID uint    `json:"sheetId" validate:"required"`
	Rate    float64 `json:"rate" validate:"gte=0,lte=100"`
}

type SetRatesInput struct {
	Rates []RateInput `json:"rates" validate:"required,dive"`
}

// Handler gerencia as taxas de comissão por planilha.
type Handler struct {
	Repo     *Repository
	Activity activitylog.Recorder
}

func NewHandler(repo *Repository, activity activitylog.Recorder) *Handler {
	return &Handler{Repo: repo, Activity: activity}
}

func ownsConfig(p auth.Principal, cfg *catalog.IcConfig) error {
	if !p.IsAdmin() && (p.Role != auth.RoleOrganizer || p.ID != cfg.OrganizerID) {
		return apperr.Forbidden("configuração pertence a outro organizador")
	}
	return nil
}

// Rates lista as taxas da configuração; só o organizador dono (ou admin) vê.
func (h *Handler) Rates(ctx context.Context, p auth.Principal, configID uint) ([]Rate, error) {
	gdb := h.Repo.DB.WithContext(ctx)
	cfg, err := catalog.NewRepository(gdb).FindConfig(configID)
	if err != nil {
		return nil, err
	}
	if err := ownsConfig(p, cfg); err != nil {
		return nil, err
	}
	return NewRepository(gdb).ListByConfig(configID)
}

// SetRates valida que as planilhas são da configuração e que quem chama é o
// organizador dono, e grava tudo numa transação.
func (h *Handler) SetRates(ctx context.Context, p auth.Principal, configID uint, in []RateInput) ([]Rate, error) {
	var out []Rate
	err := h.Repo.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cfg, err := catalog.NewRepository(tx).FindConfig(configID)
		if err != nil {
			return err
		}
		if err := ownsConfig(p, cfg); err != nil {
			return err
		}

		ids := make([]uint, 0, len(in))
		for _, r := range in {
			ids = append(ids, r.SheetID)
		}
		var found []uint
		if err := tx.Model(&catalog.IcPartnerSheet{}).
			Where("config_id = ? AND id IN ?", configID, ids).
			Pluck("id", &found).Error; err != nil {
			return err
		}
		known := make(map[uint]bool, len(found))
		for _, id := range found {
			known[id] = true
		}
		details := map[string]string{}
		rates := make([]Rate, 0, len(in))
		for i, r := range in {
			if !known[r.SheetID] {
				details[fmt.Sprintf("rates[%d].sheetId", i)] = "planilha não pertence a esta configuração"
				continue
			}
			rates = append(rates, Rate{ConfigID: configID, SheetID: r.SheetID, Rate: r.Rate})
		}
		if len(details) > 0 {
			return &apperr.ValidationError{Message: "taxas inválidas", Details: details}
		}

		repo := NewRepository(tx)
		if err := repo.Upsert(rates); err != nil {
			return err
		}
		out, err = repo.ListByConfig(configID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if h.Activity != nil {
		h.Activity.Record(ctx, activitylog.Entry{
			Action: "commission.rates", ActorID: p.ID, TargetType: "ic_config", TargetID: configID,
			Metadata: map[string]any{"sheets": len(in)},
		})
	}
	return out, nil
}

// PutRates trata PUT /ic-configs/{id}/commission-rates
func (h *Handler) PutRates(w http.ResponseWriter, r *http.Request) {
	p, id, ok := utils.PrincipalAndID(w, r, "id")
	if !ok {
		return
	}
	var in SetRatesInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	rates, err := h.SetRates(r.Context(), p, id, in.Rates)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, rates)
}

// GetRates trata GET /ic-configs/{id}/commission-rates
func (h *Handler) GetRates(w http.ResponseWriter, r *http.Request) {
	p, id, ok := utils.PrincipalAndID(w, r, "id")
	if !ok {
		return
	}
	rates, err := h.Rates(r.Context(), p, id)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, rates)
}
