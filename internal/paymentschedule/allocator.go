// Package paymentschedule distribui o total do contrato entre as etapas de
// pagamento configuradas pelo organizador.
package paymentschedule

import (
	"strings"

	"github.com/eventcontract/contract-api/internal/apperr"
	"github.com/shopspring/decimal"
)

// LumpSumName é o nome da etapa sintética usada quando não há etapas.
const LumpSumName = "lump sum"

// Stage é uma etapa configurada: nome e percentual do total.
type Stage struct {
	Name  string  `json:"name" validate:"required"`
	Ratio float64 `json:"ratio" validate:"gt=0,lte=100"`
}

// Installment é a etapa já com o valor calculado.
type Installment struct {
	Name   string  `json:"name"`
	Ratio  float64 `json:"ratio"`
	Amount int64   `json:"amount"`
}

var hundred = decimal.NewFromInt(100)

// Allocate calcula round(total*ratio/100) por etapa, na ordem configurada, e
// joga a diferença de arredondamento inteira na última etapa. A soma dos
// valores é sempre igual a total.
func Allocate(total int64, stages []Stage) []Installment {
	if len(stages) == 0 {
		return []Installment{{Name: LumpSumName, Ratio: 100, Amount: total}}
	}

	t := decimal.NewFromInt(total)
	out := make([]Installment, len(stages))
	var sum int64
	for i, s := range stages {
		amount := t.Mul(decimal.NewFromFloat(s.Ratio)).Div(hundred).Round(0).IntPart()
		out[i] = Installment{Name: s.Name, Ratio: s.Ratio, Amount: amount}
		sum += amount
	}
	out[len(out)-1].Amount += total - sum
	return out
}

// ValidateStages exige nomes preenchidos, percentuais em (0,100] e soma
// exatamente 100. Lista vazia é válida (vira pagamento único).
func ValidateStages(stages []Stage) error {
	if len(stages) == 0 {
		return nil
	}
	sum := decimal.Zero
	for i, s := range stages {
		if strings.TrimSpace(s.Name) == "" {
			return apperr.Validation("etapa %d sem nome", i+1)
		}
		if s.Ratio <= 0 || s.Ratio > 100 {
			return apperr.Validation("etapa %q com percentual fora de (0,100]: %v", s.Name, s.Ratio)
		}
		sum = sum.Add(decimal.NewFromFloat(s.Ratio))
	}
	if !sum.Equal(hundred) {
		return apperr.Validation("a soma dos percentuais das etapas deve ser 100 (atual: %s)", sum.String())
	}
	return nil
}

// Total soma os valores de um cronograma.
func Total(schedule []Installment) int64 {
	var sum int64
	for _, in := range schedule {
		sum += in.Amount
	}
	return sum
}
