package iccontract

import (
	"time"

	"github.com/eventcontract/contract-api/internal/lifecycle"
	"github.com/eventcontract/contract-api/internal/paymentschedule"
	"github.com/eventcontract/contract-api/internal/selection"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// IcContract é o contrato integrado. Itens, total e cronograma são gravados
// na criação e não mudam depois; só o status anda.
type IcContract struct {
	ID                uint                                              `gorm:"primaryKey" json:"id"`
	ShortCode         string                                            `gorm:"size:16;not null;uniqueIndex" json:"shortCode"`
	ConfigID          uint                                              `gorm:"not null;index" json:"configId"`
	EventID           uint                                              `gorm:"not null;index" json:"eventId"`
	ApartmentTypeID   uint                                              `gorm:"not null;index" json:"apartmentTypeId"`
	ApartmentTypeName string                                            `gorm:"size:100" json:"apartmentTypeName"`
	CustomerID        *uint                                             `gorm:"index" json:"customerId,omitempty"`
	CustomerName      string                                            `gorm:"size:100;not null" json:"customerName"`
	CustomerPhone     string                                            `gorm:"size:30;not null" json:"customerPhone"`
	Status            lifecycle.Status                                  `gorm:"size:20;not null;index" json:"status"`
	SelectedItems     datatypes.JSONType[[]selection.Item]              `json:"selectedItems"`
	TotalAmount       int64                                             `gorm:"not null" json:"totalAmount"`
	PaymentSchedule   datatypes.JSONType[[]paymentschedule.Installment] `json:"paymentSchedule"`
	LegalAgreed       bool                                              `gorm:"not null" json:"legalAgreed"`
	LegalTerms        string                                            `gorm:"type:text" json:"legalTerms"`
	SignatureData     string                                            `gorm:"type:text" json:"signatureData,omitempty"`
	SignatureDigest   string                                            `gorm:"size:100" json:"signatureDigest"`
	SpecialNotes      string                                            `gorm:"type:text" json:"specialNotes"`
	CancelReason      string                                            `gorm:"type:text" json:"cancelReason,omitempty"`
	SignedAt          *time.Time                                        `json:"signedAt"`
	CompletedAt       *time.Time                                        `json:"completedAt,omitempty"`
	CancelledAt       *time.Time                                        `json:"cancelledAt,omitempty"`

	Histories []IcContractHistory `gorm:"foreignKey:ContractID;constraint:OnDelete:CASCADE" json:"histories,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Items devolve os itens congelados.
func (c IcContract) Items() []selection.Item { return c.SelectedItems.Data() }

// IcContractHistory é o livro append-only de status do contrato integrado.
type IcContractHistory struct {
	ID         uint `gorm:"primaryKey" json:"id"`
	ContractID uint `gorm:"not null;index" json:"contractId"`
	lifecycle.Entry `gorm:"embedded"`
}

func Models() []any {
	return []any{&IcContract{}, &IcContractHistory{}}
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
