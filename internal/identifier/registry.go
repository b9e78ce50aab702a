package identifier

import (
	"time"

	"gorm.io/gorm"
)

// Donos de código curto.
const (
	OwnerContract   = "contract"
	OwnerIcContract = "ic_contract"
)

// ShortCode registra todo código curto emitido, de qualquer tipo de
// contrato. A chave primária mantém o código único no sistema inteiro.
type ShortCode struct {
	Code      string    `gorm:"primaryKey;size:16" json:"code"`
	OwnerType string    `gorm:"size:20;not null" json:"ownerType"`
	OwnerID   uint      `gorm:"not null" json:"ownerId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Models lista a tabela do registro para o AutoMigrate.
func Models() []any {
	return []any{&ShortCode{}}
}

// Reserve grava o código para o dono. Código já emitido volta como erro de
// unique, que Issue trata como colisão.
func Reserve(tx *gorm.DB, code, ownerType string, ownerID uint) error {
	return tx.Create(&ShortCode{Code: code, OwnerType: ownerType, OwnerID: ownerID}).Error
}

// Owner diz a quem pertence um código já normalizado.
func Owner(db *gorm.DB, code string) (*ShortCode, error) {
	var sc ShortCode
	if err := db.Where("code = ?", code).First(&sc).Error; err != nil {
		return nil, err
	}
	return &sc, nil
}
