package contract

import (
	"errors"
	"sort"

	"github.com/eventcontract/contract-api/internal/apperr"
	"github.com/eventcontract/contract-api/internal/lifecycle"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository encapsula operações de banco para Contract
type Repository struct {
	DB *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{DB: db}
}

func (r *Repository) withChildren() *gorm.DB {
	return r.DB.
		Preload("FieldValues", func(db *gorm.DB) *gorm.DB { return db.Order("field_id") }).
		Preload("Histories", func(db *gorm.DB) *gorm.DB { return db.Order("created_at, id") })
}

func (r *Repository) first(q *gorm.DB, key string) (*Contract, error) {
	var c Contract
	if err := q.First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apperr.NotFoundError{Entity: "contrato", Key: key}
		}
		return nil, err
	}
	return &c, nil
}

func (r *Repository) FindByID(id uint) (*Contract, error) {
	var c Contract
	if err := r.withChildren().First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("contrato", id)
		}
		return nil, err
	}
	return &c, nil
}

// FindByShortCode espera o código já normalizado.
func (r *Repository) FindByShortCode(code string) (*Contract, error) {
	return r.first(r.DB.Where("short_code = ?", code), code)
}

func (r *Repository) FindByQRCode(token string) (*Contract, error) {
	return r.first(r.DB.Where("qr_code = ?", token), token)
}

func (r *Repository) ListByTemplate(templateID uint, status string) ([]Contract, error) {
	q := r.DB.Where("template_id = ?", templateID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var list []Contract
	err := q.Order("id DESC").Find(&list).Error
	return list, err
}

func (r *Repository) ListByCustomer(customerID uint) ([]Contract, error) {
	var list []Contract
	err := r.DB.Where("customer_id = ?", customerID).Order("id DESC").Find(&list).Error
	return list, err
}

// SaveValues grava (ou sobrescreve) os valores por campo.
func (r *Repository) SaveValues(contractID uint, values map[uint]string) error {
	if len(values) == 0 {
		return nil
	}
	rows := make([]FieldValue, 0, len(values))
	for fieldID, v := range values {
		rows = append(rows, FieldValue{ContractID: contractID, FieldID: fieldID, Value: v})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].FieldID < rows[j].FieldID })
	return r.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "contract_id"}, {Name: "field_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&rows).Error
}

// UpdateStatus só grava se o status ainda for from.
func (r *Repository) UpdateStatus(id uint, from lifecycle.Status, fields map[string]any) (bool, error) {
	res := r.DB.Model(&Contract{}).Where("id = ? AND status = ?", id, from).Updates(fields)
	return res.RowsAffected == 1, res.Error
}

func (r *Repository) UpdateFields(id uint, fields map[string]any) error {
	return r.DB.Model(&Contract{}).Where("id = ?", id).Updates(fields).Error
}

func (r *Repository) AppendHistory(h *History) error {
	return r.DB.Create(h).Error
}
