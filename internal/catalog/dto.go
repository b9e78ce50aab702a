package catalog

import "github.com/eventcontract/contract-api/internal/paymentschedule"

// ConfigInput é o corpo de criação e do PATCH completo da configuração.
type ConfigInput struct {
	PaymentStages []paymentschedule.Stage `json:"paymentStages" validate:"dive"`
	LegalTerms    string                  `json:"legalTerms"`
	SpecialNotes  string                  `json:"specialNotes"`
}

// StatusInput serve para configuração e planilha.
type StatusInput struct {
	Status string `json:"status" validate:"required"`
}

type ApartmentTypeInput struct {
	Name      string `json:"name" validate:"required,max=100"`
	SortOrder int    `json:"sortOrder"`
}

// ColumnInput: ID zero insere, ID existente atualiza. Colunas ausentes da
// lista são removidas.
type ColumnInput struct {
	ID              uint   `json:"id"`
	ApartmentTypeID *uint  `json:"apartmentTypeId"`
	CustomName      string `json:"customName" validate:"max=100"`
	ColumnType      string `json:"columnType" validate:"omitempty,oneof=amount text"`
	SortOrder       int    `json:"sortOrder"`
}

type ReplaceColumnsInput struct {
	Columns []ColumnInput `json:"columns" validate:"dive"`
}

// RowInput segue a mesma regra de ID das colunas.
type RowInput struct {
	ID           uint               `json:"id"`
	OptionName   string             `json:"optionName" validate:"required,max=255"`
	PopupContent string             `json:"popupContent"`
	SortOrder    int                `json:"sortOrder"`
	CellValues   map[string]string  `json:"cellValues"`
	Prices       map[string]float64 `json:"prices"`
}

type ReplaceRowsInput struct {
	Rows []RowInput `json:"rows" validate:"dive"`
}

type MemoInput struct {
	Memo string `json:"memo"`
}
