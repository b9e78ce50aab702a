package contract

import "github.com/eventcontract/contract-api/internal/overlay"

// IssueInput: Values pré-preenche campos por id (sobre os defaults do modelo).
type IssueInput struct {
	CustomerID    *uint           `json:"customerId"`
	CustomerName  string          `json:"customerName" validate:"max=100"`
	CustomerPhone string          `json:"customerPhone" validate:"max=30"`
	Values        map[uint]string `json:"values"`
}

type FieldsInput struct {
	Values map[uint]string `json:"values" validate:"required"`
}

// SignInput aceita os últimos valores junto com a assinatura.
type SignInput struct {
	SignatureFileID string          `json:"signatureFileId" validate:"max=255"`
	SignatureData   string          `json:"signatureData"`
	Values          map[uint]string `json:"values"`
}

type CancelInput struct {
	Reason string `json:"reason" validate:"required"`
}

type SignedFileInput struct {
	FileID string `json:"fileId" validate:"required,max=255"`
}

// LayoutView é o que o cliente precisa para desenhar o contrato.
type LayoutView struct {
	ContractID uint   `json:"contractId"`
	FileID     string `json:"fileId"`
	FileType   string `json:"fileType"`
	PageCount  int    `json:"pageCount"`
	overlay.Layout
}

// signedPayload é o que entra no digest da assinatura.
type signedPayload struct {
	ContractNumber  string          `json:"contractNumber"`
	TemplateID      uint            `json:"templateId"`
	Values          map[uint]string `json:"values"`
	TotalAmount     *int64          `json:"totalAmount"`
	SignatureFileID string          `json:"signatureFileId"`
	SignatureData   string          `json:"signatureData"`
	SignedAt        string          `json:"signedAt"`
}
