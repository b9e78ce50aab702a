package contracttemplate

import (
	"errors"

	"github.com/eventcontract/contract-api/internal/apperr"
	"gorm.io/gorm"
)

// Repository encapsula operações de banco para Template
type Repository struct {
	DB *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{DB: db}
}

func fieldsInOrder(db *gorm.DB) *gorm.DB { return db.Order("page_number, sort_order, id") }

func (r *Repository) Create(t *Template) error {
	return r.DB.Create(t).Error
}

func (r *Repository) FindByID(id uint) (*Template, error) {
	var t Template
	if err := r.DB.Preload("Fields", fieldsInOrder).First(&t, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("modelo de contrato", id)
		}
		return nil, err
	}
	return &t, nil
}

// ListByEvent filtra por parceiro quando partnerID > 0.
func (r *Repository) ListByEvent(eventID, partnerID uint) ([]Template, error) {
	q := r.DB.Where("event_id = ?", eventID)
	if partnerID > 0 {
		q = q.Where("partner_id = ?", partnerID)
	}
	var list []Template
	err := q.Order("id").Find(&list).Error
	return list, err
}

func (r *Repository) UpdateMeta(t *Template) error {
	return r.DB.Model(&Template{}).Where("id = ?", t.ID).Updates(map[string]any{
		"name":       t.Name,
		"file_id":    t.FileID,
		"file_type":  t.FileType,
		"page_count": t.PageCount,
	}).Error
}

// CountStoredValues conta valores já preenchidos nos campos informados. A
// tabela pertence ao pacote de contratos.
func (r *Repository) CountStoredValues(fieldIDs []uint) (int64, error) {
	if len(fieldIDs) == 0 || !r.DB.Migrator().HasTable("contract_field_values") {
		return 0, nil
	}
	var n int64
	err := r.DB.Table("contract_field_values").Where("field_id IN ? AND value <> ''", fieldIDs).Count(&n).Error
	return n, err
}

func (r *Repository) DeleteFieldsExcept(templateID uint, keep []uint) error {
	q := r.DB.Where("template_id = ?", templateID)
	if len(keep) > 0 {
		q = q.Where("id NOT IN ?", keep)
	}
	return q.Delete(&Field{}).Error
}
