package contracttemplate

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Tipos de campo.
const (
	FieldText      = "text"
	FieldNumber    = "number"
	FieldAmount    = "amount"
	FieldCheckbox  = "checkbox"
	FieldDate      = "date"
	FieldSignature = "signature"
)

// Tipos de arquivo do modelo.
const (
	FileImage = "image"
	FilePDF   = "pdf"
)

// Template é o modelo de contrato de um parceiro: um arquivo (imagem/PDF)
// referenciado por id e os campos posicionados sobre ele.
type Template struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	EventID   uint   `gorm:"not null;index" json:"eventId"`
	PartnerID uint   `gorm:"not null;index" json:"partnerId"`
	Name      string `gorm:"size:255;not null" json:"name"`
	FileID    string `gorm:"size:255;not null" json:"fileId"`
	FileType  string `gorm:"size:20;not null;default:'image'" json:"fileType"`
	PageCount int    `gorm:"not null;default:1" json:"pageCount"`

	Fields []Field `gorm:"foreignKey:TemplateID;constraint:OnDelete:CASCADE" json:"fields"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Template) TableName() string { return "contract_templates" }

// Field: posição e tamanho em percentual (0-100) da página, não em pixels.
type Field struct {
	ID             uint              `gorm:"primaryKey" json:"id"`
	TemplateID     uint              `gorm:"not null;index" json:"templateId"`
	FieldType      string            `gorm:"size:20;not null" json:"fieldType"`
	Label          string            `gorm:"size:100;not null" json:"label"`
	IsRequired     bool              `gorm:"not null;default:false" json:"isRequired"`
	PageNumber     int               `gorm:"not null;default:1" json:"pageNumber"`
	PositionX      float64           `gorm:"not null;default:0" json:"positionX"`
	PositionY      float64           `gorm:"not null;default:0" json:"positionY"`
	Width          float64           `gorm:"not null;default:0" json:"width"`
	Height         float64           `gorm:"not null;default:0" json:"height"`
	SortOrder      int               `gorm:"not null;default:0" json:"sortOrder"`
	DefaultValue   *string           `gorm:"type:text" json:"defaultValue,omitempty"`
	ValidationRule datatypes.JSONMap `json:"validationRule,omitempty"`
}

func (Field) TableName() string { return "contract_fields" }

// Positioned: campo em (0,0) não é desenhado sobre a página.
func (f Field) Positioned() bool {
	return f.PositionX != 0 || f.PositionY != 0
}

// Field procura um campo do modelo.
func (t Template) Field(id uint) (Field, bool) {
	for _, f := range t.Fields {
		if f.ID == id {
			return f, true
		}
	}
	return Field{}, false
}

func Models() []any {
	return []any{&Template{}, &Field{}}
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
