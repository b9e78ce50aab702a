package contracttemplate

type TemplateInput struct {
	Name      string `json:"name" validate:"required,max=255"`
	FileID    string `json:"fileId" validate:"required,max=255"`
	FileType  string `json:"fileType" validate:"omitempty,oneof=image pdf"`
	PageCount int    `json:"pageCount" validate:"gte=0,lte=500"`
}

// FieldInput: ID zero insere, ID existente atualiza; campos ausentes saem.
type FieldInput struct {
	ID             uint           `json:"id"`
	FieldType      string         `json:"fieldType" validate:"required,oneof=text number amount checkbox date signature"`
	Label          string         `json:"label" validate:"required,max=100"`
	IsRequired     bool           `json:"isRequired"`
	PageNumber     int            `json:"pageNumber" validate:"gte=0"`
	PositionX      float64        `json:"positionX" validate:"gte=0,lte=100"`
	PositionY      float64        `json:"positionY" validate:"gte=0,lte=100"`
	Width          float64        `json:"width" validate:"gte=0,lte=100"`
	Height         float64        `json:"height" validate:"gte=0,lte=100"`
	SortOrder      int            `json:"sortOrder"`
	DefaultValue   *string        `json:"defaultValue"`
	ValidationRule map[string]any `json:"validationRule"`
}

type ReplaceFieldsInput struct {
	Fields []FieldInput `json:"fields" validate:"dive"`
}
