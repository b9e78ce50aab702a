package contract

import (
	"time"

	"github.com/eventcontract/contract-api/internal/lifecycle"
	"gorm.io/gorm"
)

// Contract é o contrato de modelo único: emitido por um parceiro sobre um
// Template, preenchido e assinado pelo cliente.
type Contract struct {
	ID             uint             `gorm:"primaryKey" json:"id"`
	ContractNumber string           `gorm:"size:32;not null;uniqueIndex" json:"contractNumber"`
	QRCode         string           `gorm:"size:64;not null;uniqueIndex" json:"qrCode"`
	ShortCode      string           `gorm:"size:16;not null;uniqueIndex" json:"shortCode"`
	TemplateID     uint             `gorm:"not null;index" json:"templateId"`
	EventID        uint             `gorm:"not null;index" json:"eventId"`
	PartnerID      uint             `gorm:"not null;index" json:"partnerId"`
	CustomerID     *uint            `gorm:"index" json:"customerId,omitempty"`
	CustomerName   string           `gorm:"size:100" json:"customerName"`
	CustomerPhone  string           `gorm:"size:30" json:"customerPhone"`
	Status         lifecycle.Status `gorm:"size:20;not null;index" json:"status"`
	TotalAmount    *int64           `json:"totalAmount"`
	ExpiresAt      time.Time        `gorm:"not null" json:"expiresAt"`

	SignatureFileID string `gorm:"size:255" json:"signatureFileId,omitempty"`
	SignatureData   string `gorm:"type:text" json:"signatureData,omitempty"`
	SignatureDigest string `gorm:"size:100" json:"signatureDigest,omitempty"`
	SignedPdfFileID string `gorm:"size:255" json:"signedPdfFileId,omitempty"`
	CancelReason    string `gorm:"type:text" json:"cancelReason,omitempty"`

	OpenedAt    *time.Time `json:"openedAt,omitempty"`
	SignedAt    *time.Time `json:"signedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	CancelledAt *time.Time `json:"cancelledAt,omitempty"`

	FieldValues []FieldValue `gorm:"foreignKey:ContractID;constraint:OnDelete:CASCADE" json:"fieldValues"`
	Histories   []History    `gorm:"foreignKey:ContractID;constraint:OnDelete:CASCADE" json:"histories,omitempty"`

	// calculado na leitura; expiresAt é só consultivo
	Expired bool `gorm:"-" json:"expired"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsExpired: venceu antes de ser assinado.
func (c Contract) IsExpired(now time.Time) bool {
	return c.Status.Open() && now.After(c.ExpiresAt)
}

// Values devolve os valores preenchidos por campo.
func (c Contract) Values() map[uint]string {
	out := make(map[uint]string, len(c.FieldValues))
	for _, v := range c.FieldValues {
		out[v.FieldID] = v.Value
	}
	return out
}

// FieldValue é o valor de um campo do modelo dentro de um contrato.
type FieldValue struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ContractID uint      `gorm:"not null;uniqueIndex:idx_contract_field" json:"contractId"`
	FieldID    uint      `gorm:"not null;uniqueIndex:idx_contract_field;index" json:"fieldId"`
	Value      string    `gorm:"type:text" json:"value"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (FieldValue) TableName() string { return "contract_field_values" }

// History é o livro append-only de status.
type History struct {
	ID         uint `gorm:"primaryKey" json:"id"`
	ContractID uint `gorm:"not null;index" json:"contractId"`
	lifecycle.Entry `gorm:"embedded"`
}

func (History) TableName() string { return "contract_histories" }

func Models() []any {
	return []any{&Contract{}, &FieldValue{}, &History{}}
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
