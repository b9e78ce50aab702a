package commission

import (
	"time"

	"gorm.io/gorm"
)

// Rate é o percentual de comissão do organizador sobre uma planilha.
type Rate struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ConfigID  uint      `gorm:"not null;index" json:"configId"`
	SheetID   uint      `gorm:"not null;uniqueIndex" json:"sheetId"`
	Rate      float64   `gorm:"not null;default:0" json:"rate"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Rate) TableName() string { return "ic_commission_rates" }

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Rate{})
}
