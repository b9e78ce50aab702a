package commission

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository encapsula operações de banco para Rate
type Repository struct {
	DB *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{DB: db}
}

// Upsert grava as taxas informadas; planilhas fora da lista não mudam.
func (r *Repository) Upsert(rates []Rate) error {
	if len(rates) == 0 {
		return nil
	}
	return r.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "sheet_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"rate", "updated_at"}),
	}).Create(&rates).Error
}

func (r *Repository) ListByConfig(configID uint) ([]Rate, error) {
	var list []Rate
	err := r.DB.Where("config_id = ?", configID).Order("sheet_id").Find(&list).Error
	return list, err
}

// RateMap devolve taxa por planilha; planilha sem taxa fica de fora (0%).
func (r *Repository) RateMap(configID uint) (map[uint]float64, error) {
	list, err := r.ListByConfig(configID)
	if err != nil {
		return nil, err
	}
	m := make(map[uint]float64, len(list))
	for _, rt := range list {
		m[rt.SheetID] = rt.Rate
	}
	return m, nil
}
