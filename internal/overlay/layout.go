// Package overlay monta o layout de renderização de um contrato: o que vai
// desenhado sobre cada página do modelo e o que fica no bloco de texto.
// Produz coordenadas, não pixels.
package overlay

import (
	"strings"

	"github.com/eventcontract/contract-api/internal/contracttemplate"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const (
	CheckedGlyph   = "☑"
	UncheckedGlyph = "☐"

	// FitContain: a imagem da assinatura cabe inteira na caixa, sem distorcer.
	FitContain = "contain"
)

var printer = message.NewPrinter(language.Korean)

// Box em percentual da página renderizada.
type Box struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Item é um elemento desenhado sobre a página.
type Item struct {
	FieldID   uint   `json:"fieldId"`
	FieldType string `json:"fieldType"`
	Label     string `json:"label"`
	Page      int    `json:"page"`
	Box       Box    `json:"box"`
	Text      string `json:"text,omitempty"`

	// preenchidos só para assinatura
	SignatureFileID string `json:"signatureFileId,omitempty"`
	SignatureData   string `json:"signatureData,omitempty"`
	Fit             string `json:"fit,omitempty"`
}

// Entry do bloco chave/valor dos campos sem posição.
type Entry struct {
	FieldID uint   `json:"fieldId"`
	Label   string `json:"label"`
	Value   string `json:"value"`
}

type Layout struct {
	Overlays     []Item  `json:"overlays"`
	Unpositioned []Entry `json:"unpositioned"`
}

// Signature capturada na assinatura; nil enquanto não assinado.
type Signature struct {
	FileID string
	Data   string
}

// Build percorre os campos na ordem recebida. Campo em (0,0) nunca vira
// overlay, mesmo preenchido.
func Build(fields []contracttemplate.Field, values map[uint]string, sig *Signature) Layout {
	out := Layout{Overlays: []Item{}, Unpositioned: []Entry{}}
	for _, f := range fields {
		if f.FieldType == contracttemplate.FieldSignature {
			if sig == nil || (sig.FileID == "" && sig.Data == "") {
				continue
			}
			if !f.Positioned() {
				out.Unpositioned = append(out.Unpositioned, Entry{FieldID: f.ID, Label: f.Label, Value: "서명 완료"})
				continue
			}
			item := itemFor(f)
			item.SignatureFileID, item.SignatureData, item.Fit = sig.FileID, sig.Data, FitContain
			out.Overlays = append(out.Overlays, item)
			continue
		}

		text := Render(f, values[f.ID])
		if !f.Positioned() {
			out.Unpositioned = append(out.Unpositioned, Entry{FieldID: f.ID, Label: f.Label, Value: text})
			continue
		}
		if text == "" {
			continue
		}
		item := itemFor(f)
		item.Text = text
		out.Overlays = append(out.Overlays, item)
	}
	return out
}

func itemFor(f contracttemplate.Field) Item {
	page := f.PageNumber
	if page == 0 {
		page = 1
	}
	return Item{
		FieldID:   f.ID,
		FieldType: f.FieldType,
		Label:     f.Label,
		Page:      page,
		Box:       Box{X: f.PositionX, Y: f.PositionY, Width: f.Width, Height: f.Height},
	}
}

// Render devolve o texto exibido para o valor de um campo. Vazio continua
// vazio; número que não parseia sai como foi digitado.
func Render(f contracttemplate.Field, value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	switch f.FieldType {
	case contracttemplate.FieldCheckbox:
		if contracttemplate.Checked(value) {
			return CheckedGlyph
		}
		return UncheckedGlyph
	case contracttemplate.FieldNumber, contracttemplate.FieldAmount:
		n, ok := contracttemplate.ParseNumber(value)
		if !ok {
			return value
		}
		if n.IsInteger() {
			return printer.Sprintf("%d", n.IntPart())
		}
		return printer.Sprintf("%v", number.Decimal(n.InexactFloat64(), number.MaxFractionDigits(int(-n.Exponent()))))
	}
	return value
}
