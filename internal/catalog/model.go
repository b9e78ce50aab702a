package catalog

import (
	"sort"
	"strconv"
	"time"

	"github.com/eventcontract/contract-api/internal/paymentschedule"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Status de configuração e planilha.
const (
	StatusDraft    = "draft"
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Tipos de coluna. Coluna sem tipo conta como amount.
const (
	ColumnAmount = "amount"
	ColumnText   = "text"
)

// IcConfig é a configuração de contrato integrado de um evento (uma por evento).
type IcConfig struct {
	ID            uint                                        `gorm:"primaryKey" json:"id"`
	EventID       uint                                        `gorm:"not null;uniqueIndex" json:"eventId"`
	OrganizerID   uint                                        `gorm:"not null;index" json:"organizerId"`
	Status        string                                      `gorm:"size:20;not null;default:'draft';index" json:"status"`
	PaymentStages datatypes.JSONType[[]paymentschedule.Stage] `json:"paymentStages"`
	LegalTerms    string                                      `gorm:"type:text" json:"legalTerms"`
	SpecialNotes  string                                      `gorm:"type:text" json:"specialNotes"`

	ApartmentTypes []ApartmentType  `gorm:"foreignKey:ConfigID;constraint:OnDelete:CASCADE" json:"apartmentTypes,omitempty"`
	Sheets         []IcPartnerSheet `gorm:"foreignKey:ConfigID" json:"sheets,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Stages devolve as etapas de pagamento configuradas.
func (c IcConfig) Stages() []paymentschedule.Stage {
	return c.PaymentStages.Data()
}

// ApartmentType é o tipo de unidade contra o qual as colunas de preço são
// indexadas.
type ApartmentType struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ConfigID  uint      `gorm:"not null;index" json:"configId"`
	EventID   uint      `gorm:"not null;index" json:"eventId"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	SortOrder int       `gorm:"not null;default:0" json:"sortOrder"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IcPartnerSheet é a planilha de opções de um parceiro para uma categoria.
type IcPartnerSheet struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	ConfigID     uint   `gorm:"not null;uniqueIndex:idx_sheet_owner" json:"configId"`
	PartnerID    uint   `gorm:"not null;uniqueIndex:idx_sheet_owner" json:"partnerId"`
	CategoryName string `gorm:"size:100;not null;uniqueIndex:idx_sheet_owner" json:"categoryName"`
	PartnerName  string `gorm:"size:255;not null" json:"partnerName"`
	Status       string `gorm:"size:20;not null;default:'draft';index" json:"status"`
	Memo         string `gorm:"type:text" json:"memo"`

	Columns []SheetColumn `gorm:"foreignKey:SheetID;constraint:OnDelete:CASCADE" json:"columns"`
	Rows    []SheetRow    `gorm:"foreignKey:SheetID;constraint:OnDelete:CASCADE" json:"rows"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SortColumns devolve uma cópia ordenada por sortOrder (id desempata).
func SortColumns(columns []SheetColumn) []SheetColumn {
	cols := append([]SheetColumn(nil), columns...)
	sort.SliceStable(cols, func(i, j int) bool {
		if cols[i].SortOrder != cols[j].SortOrder {
			return cols[i].SortOrder < cols[j].SortOrder
		}
		return cols[i].ID < cols[j].ID
	})
	return cols
}

// SortRows devolve uma cópia ordenada por sortOrder (id desempata).
func SortRows(rows []SheetRow) []SheetRow {
	out := append([]SheetRow(nil), rows...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Row procura uma linha da planilha pelo id.
func (s IcPartnerSheet) Row(id uint) (SheetRow, bool) {
	for _, r := range s.Rows {
		if r.ID == id {
			return r, true
		}
	}
	return SheetRow{}, false
}

// SheetColumn: coluna ligada a um tipo de apartamento (preço) ou coluna livre
// identificada por CustomName.
type SheetColumn struct {
	ID              uint   `gorm:"primaryKey" json:"id"`
	SheetID         uint   `gorm:"not null;index" json:"sheetId"`
	ApartmentTypeID *uint  `gorm:"index" json:"apartmentTypeId"`
	CustomName      string `gorm:"size:100" json:"customName"`
	ColumnType      string `gorm:"size:20;not null;default:'amount'" json:"columnType"`
	SortOrder       int    `gorm:"not null;default:0" json:"sortOrder"`
}

// IsAmount: colunas sem tipo são tratadas como amount.
func (c SheetColumn) IsAmount() bool {
	return c.ColumnType == "" || c.ColumnType == ColumnAmount
}

// BoundTo indica se a coluna é a coluna de preço do tipo informado.
func (c SheetColumn) BoundTo(apartmentTypeID uint) bool {
	return c.ApartmentTypeID != nil && *c.ApartmentTypeID == apartmentTypeID
}

// Key é a chave da coluna nos mapas cellValues/prices das linhas.
func (c SheetColumn) Key() string { return ColumnKey(c.ID) }

func ColumnKey(id uint) string { return strconv.FormatUint(uint64(id), 10) }

// SheetRow é uma opção comprável. CellValues é o valor autoritativo por
// coluna; Prices é o cache numérico legado das colunas de valor.
type SheetRow struct {
	ID           uint                                   `gorm:"primaryKey" json:"id"`
	SheetID      uint                                   `gorm:"not null;index" json:"sheetId"`
	OptionName   string                                 `gorm:"size:255;not null" json:"optionName"`
	PopupContent string                                 `gorm:"type:text" json:"popupContent,omitempty"`
	SortOrder    int                                    `gorm:"not null;default:0" json:"sortOrder"`
	CellValues   datatypes.JSONType[map[string]string]  `json:"cellValues"`
	Prices       datatypes.JSONType[map[string]float64] `json:"prices"`
}

// Cell devolve cellValues[columnID] e se a chave existe.
func (r SheetRow) Cell(columnID uint) (string, bool) {
	v, ok := r.CellValues.Data()[ColumnKey(columnID)]
	return v, ok
}

// Price devolve prices[columnID] (zero se ausente).
func (r SheetRow) Price(columnID uint) float64 {
	return r.Prices.Data()[ColumnKey(columnID)]
}

// Models lista as tabelas do catálogo para o AutoMigrate.
func Models() []any {
	return []any{&IcConfig{}, &ApartmentType{}, &IcPartnerSheet{}, &SheetColumn{}, &SheetRow{}}
}

// Migrate cria as tabelas do catálogo.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
