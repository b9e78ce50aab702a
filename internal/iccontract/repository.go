package iccontract

import (
	"errors"

	"github.com/eventcontract/contract-api/internal/apperr"
	"github.com/eventcontract/contract-api/internal/lifecycle"
	"gorm.io/gorm"
)

// Repository encapsula operações de banco para IcContract
type Repository struct {
	DB *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{DB: db}
}

func historiesInOrder(db *gorm.DB) *gorm.DB { return db.Order("created_at, id") }

func (r *Repository) FindByID(id uint) (*IcContract, error) {
	var c IcContract
	if err := r.DB.Preload("Histories", historiesInOrder).First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("contrato integrado", id)
		}
		return nil, err
	}
	return &c, nil
}

// FindByShortCode espera o código já normalizado.
func (r *Repository) FindByShortCode(code string) (*IcContract, error) {
	var c IcContract
	if err := r.DB.Preload("Histories", historiesInOrder).Where("short_code = ?", code).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apperr.NotFoundError{Entity: "contrato integrado", Key: code}
		}
		return nil, err
	}
	return &c, nil
}

// ListByConfig aceita status vazio para trazer todos.
func (r *Repository) ListByConfig(configID uint, status string) ([]IcContract, error) {
	q := r.DB.Where("config_id = ?", configID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var list []IcContract
	err := q.Order("id DESC").Find(&list).Error
	return list, err
}

func (r *Repository) ListByCustomer(customerID uint) ([]IcContract, error) {
	var list []IcContract
	err := r.DB.Where("customer_id = ?", customerID).Order("id DESC").Find(&list).Error
	return list, err
}

// ListForReport traz os contratos que contam para comissão.
func (r *Repository) ListForReport(configID uint) ([]IcContract, error) {
	var list []IcContract
	err := r.DB.Where("config_id = ? AND status <> ?", configID, lifecycle.StatusCancelled).Order("id").Find(&list).Error
	return list, err
}

// UpdateStatus só grava se o status ainda for from; devolve false se outra
// requisição mudou antes.
func (r *Repository) UpdateStatus(id uint, from lifecycle.Status, fields map[string]any) (bool, error) {
	res := r.DB.Model(&IcContract{}).Where("id = ? AND status = ?", id, from).Updates(fields)
	return res.RowsAffected == 1, res.Error
}

func (r *Repository) AppendHistory(h *IcContractHistory) error {
	return r.DB.Create(h).Error
}
