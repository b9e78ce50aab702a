package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/eventcontract/contract-api/internal/activitylog"
	"github.com/eventcontract/contract-api/internal/apperr"
	"github.com/eventcontract/contract-api/internal/auth"
	"github.com/eventcontract/contract-api/internal/paymentschedule"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Service aplica as regras do catálogo sobre o Repository. Substituição de
// colunas/linhas e remoção de tipo rodam numa transação cada.
type Service struct {
	Repo     *Repository
	Activity activitylog.Recorder
}

func NewService(repo *Repository, activity activitylog.Recorder) *Service {
	return &Service{Repo: repo, Activity: activity}
}

func (s *Service) repo(ctx context.Context) *Repository {
	return NewRepository(s.Repo.DB.WithContext(ctx))
}

func (s *Service) record(ctx context.Context, p auth.Principal, action, targetType string, id uint, meta map[string]any) {
	if s.Activity == nil {
		return
	}
	s.Activity.Record(ctx, activitylog.Entry{Action: action, ActorID: p.ID, TargetType: targetType, TargetID: id, Metadata: meta})
}

func ownsConfig(p auth.Principal, cfg *IcConfig) error {
	if p.IsAdmin() || (p.Role == auth.RoleOrganizer && p.ID == cfg.OrganizerID) {
		return nil
	}
	return apperr.Forbidden("configuração pertence a outro organizador")
}

func ownsSheet(p auth.Principal, sheet *IcPartnerSheet) error {
	if p.IsAdmin() || (p.Role == auth.RolePartner && p.ID == sheet.PartnerID) {
		return nil
	}
	return apperr.Forbidden("planilha pertence a outro parceiro")
}

// CreateConfig cria a configuração do evento em draft. Só existe uma por
// evento.
func (s *Service) CreateConfig(ctx context.Context, p auth.Principal, eventID uint, in ConfigInput) (*IcConfig, error) {
	if p.Role != auth.RoleOrganizer && !p.IsAdmin() {
		return nil, apperr.Forbidden("apenas o organizador cria a configuração")
	}
	if err := paymentschedule.ValidateStages(in.PaymentStages); err != nil {
		return nil, err
	}
	repo := s.repo(ctx)
	if existing, err := repo.FindConfigByEvent(eventID); err == nil {
		return nil, &apperr.ConflictError{Entity: "configuração do evento", Key: fmt.Sprint(existing.EventID)}
	}

	cfg := &IcConfig{
		EventID:       eventID,
		OrganizerID:   p.ID,
		Status:        StatusDraft,
		PaymentStages: datatypes.NewJSONType(nonNilStages(in.PaymentStages)),
		LegalTerms:    in.LegalTerms,
		SpecialNotes:  in.SpecialNotes,
	}
	if err := repo.CreateConfig(cfg); err != nil {
		return nil, err
	}
	s.record(ctx, p, "ic_config.create", "ic_config", cfg.ID, map[string]any{"eventId": eventID})
	return repo.FindConfig(cfg.ID)
}

func nonNilStages(stages []paymentschedule.Stage) []paymentschedule.Stage {
	if stages == nil {
		return []paymentschedule.Stage{}
	}
	return stages
}

func (s *Service) GetConfig(ctx context.Context, id uint) (*IcConfig, error) {
	return s.repo(ctx).FindConfig(id)
}

func (s *Service) GetConfigByEvent(ctx context.Context, eventID uint) (*IcConfig, error) {
	return s.repo(ctx).FindConfigByEvent(eventID)
}

// UpdateConfig substitui todos os campos editáveis (PATCH de campo cheio).
func (s *Service) UpdateConfig(ctx context.Context, p auth.Principal, id uint, in ConfigInput) (*IcConfig, error) {
	repo := s.repo(ctx)
	cfg, err := repo.FindConfig(id)
	if err != nil {
		return nil, err
	}
	if err := ownsConfig(p, cfg); err != nil {
		return nil, err
	}
	if err := paymentschedule.ValidateStages(in.PaymentStages); err != nil {
		return nil, err
	}
	cfg.PaymentStages = datatypes.NewJSONType(nonNilStages(in.PaymentStages))
	cfg.LegalTerms = in.LegalTerms
	cfg.SpecialNotes = in.SpecialNotes
	if err := repo.UpdateConfigFields(cfg); err != nil {
		return nil, err
	}
	s.record(ctx, p, "ic_config.update", "ic_config", id, map[string]any{"stages": len(in.PaymentStages)})
	return repo.FindConfig(id)
}

// SetConfigStatus ativa ou desativa (draft) a configuração. Não há exclusão.
func (s *Service) SetConfigStatus(ctx context.Context, p auth.Principal, id uint, status string) (*IcConfig, error) {
	if status != StatusDraft && status != StatusActive {
		return nil, apperr.Validation("status de configuração inválido: %q", status)
	}
	repo := s.repo(ctx)
	cfg, err := repo.FindConfig(id)
	if err != nil {
		return nil, err
	}
	if err := ownsConfig(p, cfg); err != nil {
		return nil, err
	}
	if err := repo.UpdateConfigStatus(id, status); err != nil {
		return nil, err
	}
	s.record(ctx, p, "ic_config.status", "ic_config", id, map[string]any{"from": cfg.Status, "to": status})
	cfg.Status = status
	return cfg, nil
}

func (s *Service) CreateApartmentType(ctx context.Context, p auth.Principal, configID uint, in ApartmentTypeInput) (*ApartmentType, error) {
	repo := s.repo(ctx)
	cfg, err := repo.FindConfig(configID)
	if err != nil {
		return nil, err
	}
	if err := ownsConfig(p, cfg); err != nil {
		return nil, err
	}
	t := &ApartmentType{ConfigID: cfg.ID, EventID: cfg.EventID, Name: strings.TrimSpace(in.Name), SortOrder: in.SortOrder}
	if err := repo.CreateApartmentType(t); err != nil {
		return nil, err
	}
	s.record(ctx, p, "apartment_type.create", "apartment_type", t.ID, map[string]any{"name": t.Name})
	return t, nil
}

func (s *Service) UpdateApartmentType(ctx context.Context, p auth.Principal, id uint, in ApartmentTypeInput) (*ApartmentType, error) {
	repo := s.repo(ctx)
	t, err := repo.FindApartmentType(id)
	if err != nil {
		return nil, err
	}
	cfg, err := repo.FindConfig(t.ConfigID)
	if err != nil {
		return nil, err
	}
	if err := ownsConfig(p, cfg); err != nil {
		return nil, err
	}
	t.Name = strings.TrimSpace(in.Name)
	t.SortOrder = in.SortOrder
	if err := repo.UpdateApartmentType(t); err != nil {
		return nil, err
	}
	s.record(ctx, p, "apartment_type.update", "apartment_type", id, nil)
	return t, nil
}

// DeleteApartmentType recusa se algum contrato integrado usa o tipo. Colunas
// ligadas ao tipo ficam órfãs e apenas deixam de resolver preço.
func (s *Service) DeleteApartmentType(ctx context.Context, p auth.Principal, id uint) error {
	err := s.Repo.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := NewRepository(tx)
		t, err := repo.FindApartmentType(id)
		if err != nil {
			return err
		}
		cfg, err := repo.FindConfig(t.ConfigID)
		if err != nil {
			return err
		}
		if err := ownsConfig(p, cfg); err != nil {
			return err
		}
		n, err := repo.CountContractsForType(id)
		if err != nil {
			return err
		}
		if n > 0 {
			return &apperr.ReferentialIntegrityError{Entity: "tipo de apartamento", ID: id, Referrer: "contratos integrados", References: n}
		}
		return repo.DeleteApartmentType(id)
	})
	if err != nil {
		return err
	}
	s.record(ctx, p, "apartment_type.delete", "apartment_type", id, nil)
	return nil
}

// MySheet devolve a planilha do parceiro na categoria, criando se preciso.
func (s *Service) MySheet(ctx context.Context, p auth.Principal, configID uint, category string) (*IcPartnerSheet, error) {
	if p.Role != auth.RolePartner {
		return nil, apperr.Forbidden("apenas parceiros têm planilha")
	}
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, apperr.Validation("categoria obrigatória")
	}
	repo := s.repo(ctx)
	if _, err := repo.FindConfig(configID); err != nil {
		return nil, err
	}
	name := p.Name
	if name == "" {
		name = fmt.Sprintf("parceiro %d", p.ID)
	}
	return repo.FindOrCreateSheet(configID, p.ID, category, name)
}

// ListSheets: organizador dono e admin veem todas; os demais só as ativas.
func (s *Service) ListSheets(ctx context.Context, p auth.Principal, configID uint) ([]IcPartnerSheet, error) {
	repo := s.repo(ctx)
	cfg, err := repo.FindConfig(configID)
	if err != nil {
		return nil, err
	}
	status := StatusActive
	if ownsConfig(p, cfg) == nil {
		status = ""
	}
	return repo.ListSheets(configID, status)
}

// GetSheet: planilha não ativa só para o parceiro dono e o organizador.
func (s *Service) GetSheet(ctx context.Context, p auth.Principal, id uint) (*IcPartnerSheet, error) {
	repo := s.repo(ctx)
	sheet, err := repo.FindSheet(id)
	if err != nil {
		return nil, err
	}
	if sheet.Status == StatusActive || ownsSheet(p, sheet) == nil {
		return sheet, nil
	}
	cfg, err := repo.FindConfig(sheet.ConfigID)
	if err != nil {
		return nil, err
	}
	if err := ownsConfig(p, cfg); err != nil {
		return nil, apperr.NotFound("planilha", id)
	}
	return sheet, nil
}

// ReplaceColumns troca a lista inteira de colunas. Chaves de colunas
// removidas somem também de cellValues/prices das linhas.
func (s *Service) ReplaceColumns(ctx context.Context, p auth.Principal, sheetID uint, in []ColumnInput) (*IcPartnerSheet, error) {
	var out *IcPartnerSheet
	err := s.Repo.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := NewRepository(tx)
		sheet, err := repo.FindSheet(sheetID)
		if err != nil {
			return err
		}
		if err := ownsSheet(p, sheet); err != nil {
			return err
		}
		types, err := repo.ListApartmentTypes(sheet.ConfigID)
		if err != nil {
			return err
		}
		columns, err := buildColumns(sheet, types, in)
		if err != nil {
			return err
		}

		keep := make([]uint, 0, len(columns))
		for _, c := range columns {
			if c.ID != 0 {
				keep = append(keep, c.ID)
			}
		}
		if err := repo.deleteMissing(&SheetColumn{}, sheet.ID, keep); err != nil {
			return err
		}
		keys := make(map[string]bool, len(columns))
		for i := range columns {
			c := &columns[i]
			if c.ID != 0 {
				err = tx.Save(c).Error
			} else {
				err = tx.Create(c).Error
			}
			if err != nil {
				return err
			}
			keys[c.Key()] = true
		}
		for _, row := range sheet.Rows {
			cells, cellsChanged := pruneKeys(row.CellValues.Data(), keys)
			prices, pricesChanged := pruneKeys(row.Prices.Data(), keys)
			if !cellsChanged && !pricesChanged {
				continue
			}
			row.CellValues = datatypes.NewJSONType(cells)
			row.Prices = datatypes.NewJSONType(prices)
			if err := tx.Model(&row).Select("cell_values", "prices").Updates(&row).Error; err != nil {
				return err
			}
		}
		out, err = repo.FindSheet(sheet.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.record(ctx, p, "ic_sheet.columns", "ic_sheet", sheetID, map[string]any{"columns": len(in)})
	return out, nil
}

func buildColumns(sheet *IcPartnerSheet, types []ApartmentType, in []ColumnInput) ([]SheetColumn, error) {
	existing := make(map[uint]SheetColumn, len(sheet.Columns))
	for _, c := range sheet.Columns {
		existing[c.ID] = c
	}
	known := make(map[uint]bool, len(types))
	for _, t := range types {
		known[t.ID] = true
	}

	details := map[string]string{}
	seen := map[uint]bool{}
	bound := map[uint]bool{}
	out := make([]SheetColumn, 0, len(in))
	for i, c := range in {
		field := fmt.Sprintf("columns[%d]", i)
		if c.ID != 0 {
			if _, ok := existing[c.ID]; !ok {
				details[field+".id"] = "coluna não pertence à planilha"
			} else if seen[c.ID] {
				details[field+".id"] = "coluna repetida"
			}
			seen[c.ID] = true
		}
		typeID := c.ApartmentTypeID
		if typeID != nil && *typeID == 0 {
			typeID = nil
		}
		if typeID != nil {
			// uma coluna já órfã pode ser reenviada sem mudança
			prev, ok := existing[c.ID]
			unchanged := ok && prev.BoundTo(*typeID)
			switch {
			case !known[*typeID] && !unchanged:
				details[field+".apartmentTypeId"] = "tipo de apartamento inexistente nesta configuração"
			case bound[*typeID]:
				details[field+".apartmentTypeId"] = "tipo já ligado a outra coluna"
			}
			bound[*typeID] = true
		} else if strings.TrimSpace(c.CustomName) == "" {
			details[field+".customName"] = "obrigatório para coluna sem tipo"
		}
		colType := c.ColumnType
		if colType == "" {
			colType = ColumnAmount
		}
		out = append(out, SheetColumn{
			ID:              c.ID,
			SheetID:         sheet.ID,
			ApartmentTypeID: typeID,
			CustomName:      strings.TrimSpace(c.CustomName),
			ColumnType:      colType,
			SortOrder:       c.SortOrder,
		})
	}
	if len(details) > 0 {
		return nil, &apperr.ValidationError{Message: "colunas inválidas", Details: details}
	}
	return out, nil
}

func pruneKeys[V any](m map[string]V, keep map[string]bool) (map[string]V, bool) {
	out := make(map[string]V, len(m))
	changed := false
	for k, v := range m {
		if keep[k] {
			out[k] = v
		} else {
			changed = true
		}
	}
	return out, changed
}

// ReplaceRows troca a lista inteira de linhas. Toda chave de cellValues e
// prices precisa ser uma coluna da planilha.
func (s *Service) ReplaceRows(ctx context.Context, p auth.Principal, sheetID uint, in []RowInput) (*IcPartnerSheet, error) {
	var out *IcPartnerSheet
	err := s.Repo.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := NewRepository(tx)
		sheet, err := repo.FindSheet(sheetID)
		if err != nil {
			return err
		}
		if err := ownsSheet(p, sheet); err != nil {
			return err
		}
		rows, err := buildRows(sheet, in)
		if err != nil {
			return err
		}

		keep := make([]uint, 0, len(rows))
		for _, r := range rows {
			if r.ID != 0 {
				keep = append(keep, r.ID)
			}
		}
		if err := repo.deleteMissing(&SheetRow{}, sheet.ID, keep); err != nil {
			return err
		}
		for i := range rows {
			r := &rows[i]
			if r.ID != 0 {
				err = tx.Save(r).Error
			} else {
				err = tx.Create(r).Error
			}
			if err != nil {
				return err
			}
		}
		out, err = repo.FindSheet(sheet.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.record(ctx, p, "ic_sheet.rows", "ic_sheet", sheetID, map[string]any{"rows": len(in)})
	return out, nil
}

func buildRows(sheet *IcPartnerSheet, in []RowInput) ([]SheetRow, error) {
	columns := make(map[string]bool, len(sheet.Columns))
	for _, c := range sheet.Columns {
		columns[c.Key()] = true
	}
	existing := make(map[uint]bool, len(sheet.Rows))
	for _, r := range sheet.Rows {
		existing[r.ID] = true
	}

	details := map[string]string{}
	seen := map[uint]bool{}
	out := make([]SheetRow, 0, len(in))
	for i, r := range in {
		field := fmt.Sprintf("rows[%d]", i)
		if r.ID != 0 {
			if !existing[r.ID] {
				details[field+".id"] = "linha não pertence à planilha"
			} else if seen[r.ID] {
				details[field+".id"] = "linha repetida"
			}
			seen[r.ID] = true
		}
		if strings.TrimSpace(r.OptionName) == "" {
			details[field+".optionName"] = "required"
		}
		cells := map[string]string{}
		for k, v := range r.CellValues {
			if !columns[k] {
				details[field+".cellValues."+k] = "coluna inexistente"
				continue
			}
			cells[k] = v
		}
		prices := map[string]float64{}
		for k, v := range r.Prices {
			switch {
			case !columns[k]:
				details[field+".prices."+k] = "coluna inexistente"
			case v < 0:
				details[field+".prices."+k] = "preço negativo"
			default:
				prices[k] = v
			}
		}
		out = append(out, SheetRow{
			ID:           r.ID,
			SheetID:      sheet.ID,
			OptionName:   strings.TrimSpace(r.OptionName),
			PopupContent: r.PopupContent,
			SortOrder:    r.SortOrder,
			CellValues:   datatypes.NewJSONType(cells),
			Prices:       datatypes.NewJSONType(prices),
		})
	}
	if len(details) > 0 {
		return nil, &apperr.ValidationError{Message: "linhas inválidas", Details: details}
	}
	return out, nil
}

// SetSheetStatus: o parceiro publica/retira a própria planilha e o
// organizador pode desativá-la.
func (s *Service) SetSheetStatus(ctx context.Context, p auth.Principal, id uint, status string) (*IcPartnerSheet, error) {
	switch status {
	case StatusDraft, StatusActive, StatusInactive:
	default:
		return nil, apperr.Validation("status de planilha inválido: %q", status)
	}
	repo := s.repo(ctx)
	sheet, err := repo.FindSheet(id)
	if err != nil {
		return nil, err
	}
	if err := ownsSheet(p, sheet); err != nil {
		cfg, cfgErr := repo.FindConfig(sheet.ConfigID)
		if cfgErr != nil {
			return nil, cfgErr
		}
		if ownsConfig(p, cfg) != nil {
			return nil, err
		}
	}
	if err := repo.UpdateSheet(id, map[string]any{"status": status}); err != nil {
		return nil, err
	}
	s.record(ctx, p, "ic_sheet.status", "ic_sheet", id, map[string]any{"from": sheet.Status, "to": status})
	sheet.Status = status
	return sheet, nil
}

func (s *Service) UpdateMemo(ctx context.Context, p auth.Principal, id uint, memo string) (*IcPartnerSheet, error) {
	repo := s.repo(ctx)
	sheet, err := repo.FindSheet(id)
	if err != nil {
		return nil, err
	}
	if err := ownsSheet(p, sheet); err != nil {
		return nil, err
	}
	if err := repo.UpdateSheet(id, map[string]any{"memo": memo}); err != nil {
		return nil, err
	}
	s.record(ctx, p, "ic_sheet.memo", "ic_sheet", id, nil)
	sheet.Memo = memo
	return sheet, nil
}
