package catalog

import (
	"errors"
	"fmt"

	"github.com/eventcontract/contract-api/internal/apperr"
	"github.com/eventcontract/contract-api/internal/identifier"
	"gorm.io/gorm"
)

// Repository encapsula o acesso às tabelas do catálogo.
type Repository struct {
	DB *gorm.DB
}

// NewRepository aceita tanto o *gorm.DB raiz quanto uma transação.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{DB: db}
}

func notFound(err error, entity string, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(entity, id)
	}
	return err
}

func orderedTypes(db *gorm.DB) *gorm.DB { return db.Order("sort_order, id") }

// CreateConfig insere a configuração; evento repetido vira ConflictError.
func (r *Repository) CreateConfig(cfg *IcConfig) error {
	err := r.DB.Create(cfg).Error
	if identifier.IsDuplicate(err) {
		return &apperr.ConflictError{Entity: "configuração do evento", Key: fmt.Sprint(cfg.EventID)}
	}
	return err
}

// FindConfig busca pelo id com os tipos de apartamento.
func (r *Repository) FindConfig(id uint) (*IcConfig, error) {
	var cfg IcConfig
	if err := r.DB.Preload("ApartmentTypes", orderedTypes).First(&cfg, id).Error; err != nil {
		return nil, notFound(err, "configuração", id)
	}
	return &cfg, nil
}

// FindConfigByEvent busca a configuração única do evento.
func (r *Repository) FindConfigByEvent(eventID uint) (*IcConfig, error) {
	var cfg IcConfig
	err := r.DB.Preload("ApartmentTypes", orderedTypes).Where("event_id = ?", eventID).First(&cfg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apperr.NotFoundError{Entity: "configuração do evento", Key: fmt.Sprint(eventID)}
		}
		return nil, err
	}
	return &cfg, nil
}

// UpdateConfigFields grava só os campos editáveis da configuração.
func (r *Repository) UpdateConfigFields(cfg *IcConfig) error {
	return r.DB.Model(&IcConfig{}).Where("id = ?", cfg.ID).Updates(map[string]any{
		"payment_stages": cfg.PaymentStages,
		"legal_terms":    cfg.LegalTerms,
		"special_notes":  cfg.SpecialNotes,
	}).Error
}

func (r *Repository) UpdateConfigStatus(id uint, status string) error {
	return r.DB.Model(&IcConfig{}).Where("id = ?", id).Update("status", status).Error
}

func (r *Repository) CreateApartmentType(t *ApartmentType) error {
	return r.DB.Create(t).Error
}

func (r *Repository) FindApartmentType(id uint) (*ApartmentType, error) {
	var t ApartmentType
	if err := r.DB.First(&t, id).Error; err != nil {
		return nil, notFound(err, "tipo de apartamento", id)
	}
	return &t, nil
}

func (r *Repository) ListApartmentTypes(configID uint) ([]ApartmentType, error) {
	var list []ApartmentType
	err := orderedTypes(r.DB.Where("config_id = ?", configID)).Find(&list).Error
	return list, err
}

func (r *Repository) UpdateApartmentType(t *ApartmentType) error {
	return r.DB.Model(t).Select("name", "sort_order").Updates(t).Error
}

func (r *Repository) DeleteApartmentType(id uint) error {
	return r.DB.Delete(&ApartmentType{}, id).Error
}

// CountContractsForType conta contratos integrados que usam o tipo. A tabela
// pertence a outro pacote, por isso a consulta é pelo nome.
func (r *Repository) CountContractsForType(id uint) (int64, error) {
	if !r.DB.Migrator().HasTable("ic_contracts") {
		return 0, nil
	}
	var n int64
	err := r.DB.Table("ic_contracts").Where("apartment_type_id = ?", id).Count(&n).Error
	return n, err
}

// FindOrCreateSheet devolve a planilha do parceiro na categoria, criando uma
// vazia (draft) na primeira visita.
func (r *Repository) FindOrCreateSheet(configID, partnerID uint, category, partnerName string) (*IcPartnerSheet, error) {
	var sheet IcPartnerSheet
	where := IcPartnerSheet{ConfigID: configID, PartnerID: partnerID, CategoryName: category}
	err := r.DB.Where(where).Attrs(IcPartnerSheet{PartnerName: partnerName, Status: StatusDraft}).FirstOrCreate(&sheet).Error
	if identifier.IsDuplicate(err) {
		// outra requisição criou no meio do caminho
		err = r.DB.Where(where).First(&sheet).Error
	}
	if err != nil {
		return nil, err
	}
	return r.FindSheet(sheet.ID)
}

// FindSheet carrega a planilha com colunas e linhas em ordem.
func (r *Repository) FindSheet(id uint) (*IcPartnerSheet, error) {
	var sheet IcPartnerSheet
	err := r.DB.
		Preload("Columns", orderedTypes).
		Preload("Rows", orderedTypes).
		First(&sheet, id).Error
	if err != nil {
		return nil, notFound(err, "planilha", id)
	}
	return &sheet, nil
}

// ListSheets lista as planilhas da configuração; status vazio traz todas.
func (r *Repository) ListSheets(configID uint, status string) ([]IcPartnerSheet, error) {
	q := r.DB.Preload("Columns", orderedTypes).Preload("Rows", orderedTypes).Where("config_id = ?", configID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var list []IcPartnerSheet
	err := q.Order("category_name, id").Find(&list).Error
	return list, err
}

func (r *Repository) UpdateSheet(id uint, fields map[string]any) error {
	return r.DB.Model(&IcPartnerSheet{}).Where("id = ?", id).Updates(fields).Error
}

// deleteMissing apaga as linhas de sheet_id que não estão em keep.
func (r *Repository) deleteMissing(model any, sheetID uint, keep []uint) error {
	q := r.DB.Where("sheet_id = ?", sheetID)
	if len(keep) > 0 {
		q = q.Where("id NOT IN ?", keep)
	}
	return q.Delete(model).Error
}
