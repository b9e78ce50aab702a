// Package pricing resolve o preço unitário de uma linha de planilha para um
// tipo de apartamento. É o único lugar que lê cellValues/prices.
package pricing

import (
	"strings"

	"github.com/eventcontract/contract-api/internal/catalog"
	"github.com/shopspring/decimal"
)

// Source diz de onde o preço saiu.
type Source string

const (
	SourceBoundCell     Source = "bound_cell"
	SourceBoundPrice    Source = "bound_price"
	SourceFallbackCell  Source = "fallback_cell"
	SourceFallbackPrice Source = "fallback_price"
)

// Resolution é um preço resolvido e a coluna que o forneceu.
type Resolution struct {
	Amount   int64  `json:"amount"`
	ColumnID uint   `json:"columnId"`
	Source   Source `json:"source"`
}

// Resolve aplica, na ordem, parando no primeiro valor positivo:
//  1. cellValues da coluna ligada ao tipo;
//  2. prices da mesma coluna;
//  3. varredura das colunas amount (ou sem tipo) por sortOrder, cellValues
//     antes de prices em cada coluna.
//
// ok=false significa "sem preço" para o tipo; nunca devolve zero como preço.
func Resolve(row catalog.SheetRow, columns []catalog.SheetColumn, apartmentTypeID uint) (Resolution, bool) {
	for _, col := range columns {
		if !col.BoundTo(apartmentTypeID) {
			continue
		}
		if v, ok := row.Cell(col.ID); ok {
			if amount, ok := ParseAmount(v); ok {
				return Resolution{Amount: amount, ColumnID: col.ID, Source: SourceBoundCell}, true
			}
		}
		if amount, ok := positive(row.Price(col.ID)); ok {
			return Resolution{Amount: amount, ColumnID: col.ID, Source: SourceBoundPrice}, true
		}
		break
	}

	for _, col := range catalog.SortColumns(columns) {
		if !col.IsAmount() {
			continue
		}
		if v, ok := row.Cell(col.ID); ok {
			if amount, ok := ParseAmount(v); ok {
				return Resolution{Amount: amount, ColumnID: col.ID, Source: SourceFallbackCell}, true
			}
		}
		if amount, ok := positive(row.Price(col.ID)); ok {
			return Resolution{Amount: amount, ColumnID: col.ID, Source: SourceFallbackPrice}, true
		}
	}
	return Resolution{}, false
}

// ParseAmount lê um valor de célula ("1,500,000", " 2500 ") em unidades
// inteiras de moeda. Vazio, não numérico, zero ou negativo não resolvem.
func ParseAmount(s string) (int64, bool) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ',', ' ', '\t', '\u00a0':
			return -1
		}
		return r
	}, s)
	if cleaned == "" {
		return 0, false
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, false
	}
	return positiveDecimal(d)
}

func positive(f float64) (int64, bool) {
	if f <= 0 {
		return 0, false
	}
	return positiveDecimal(decimal.NewFromFloat(f))
}

// positiveDecimal decide pelo valor lido, antes de arredondar. Um valor
// positivo abaixo de meia unidade vira 1, nunca zero.
func positiveDecimal(d decimal.Decimal) (int64, bool) {
	if !d.IsPositive() {
		return 0, false
	}
	amount := d.Round(0).IntPart()
	if amount == 0 {
		amount = 1
	}
	return amount, true
}

// PricedRow é uma linha oferecida ao cliente com o preço já resolvido.
type PricedRow struct {
	catalog.SheetRow
	UnitPrice int64  `json:"unitPrice"`
	ColumnID  uint   `json:"columnId"`
	Source    Source `json:"source"`
}

// SelectableRows devolve, em ordem, só as linhas que têm preço para o tipo.
// Linhas sem preço não podem ser oferecidas.
func SelectableRows(sheet catalog.IcPartnerSheet, apartmentTypeID uint) []PricedRow {
	rows := catalog.SortRows(sheet.Rows)
	out := make([]PricedRow, 0, len(rows))
	for _, row := range rows {
		res, ok := Resolve(row, sheet.Columns, apartmentTypeID)
		if !ok {
			continue
		}
		out = append(out, PricedRow{SheetRow: row, UnitPrice: res.Amount, ColumnID: res.ColumnID, Source: res.Source})
	}
	return out
}
