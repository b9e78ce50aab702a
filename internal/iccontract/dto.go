package iccontract

import (
	"github.com/eventcontract/contract-api/internal/paymentschedule"
	"github.com/eventcontract/contract-api/internal/selection"
)

type QuoteInput struct {
	ApartmentTypeID uint               `json:"apartmentTypeId" validate:"required"`
	Items           []selection.Choice `json:"items" validate:"dive"`
}

// CreateInput junta seleção, aceite e assinatura num envio só.
type CreateInput struct {
	ApartmentTypeID uint               `json:"apartmentTypeId" validate:"required"`
	Items           []selection.Choice `json:"items" validate:"dive"`
	CustomerName    string             `json:"customerName" validate:"required,max=100"`
	CustomerPhone   string             `json:"customerPhone" validate:"required,max=30"`
	LegalAgreed     bool               `json:"legalAgreed"`
	SignatureData   string             `json:"signatureData"`
	SpecialNotes    string             `json:"specialNotes"`
}

type StatusInput struct {
	Status string `json:"status" validate:"required,oneof=completed cancelled"`
	Reason string `json:"reason"`
}

// Quote é a simulação sem persistência.
type Quote struct {
	selection.Result
	PaymentSchedule []paymentschedule.Installment `json:"paymentSchedule"`
}

// signedPayload é o que entra no digest da assinatura.
type signedPayload struct {
	ConfigID        uint                          `json:"configId"`
	ApartmentTypeID uint                          `json:"apartmentTypeId"`
	CustomerName    string                        `json:"customerName"`
	CustomerPhone   string                        `json:"customerPhone"`
	Items           []selection.Item              `json:"items"`
	TotalAmount     int64                         `json:"totalAmount"`
	PaymentSchedule []paymentschedule.Installment `json:"paymentSchedule"`
	LegalTerms      string                        `json:"legalTerms"`
	SignatureData   string                        `json:"signatureData"`
	SignedAt        string                        `json:"signedAt"`
}
