// Package selection transforma as escolhas do cliente em itens com preço
// resolvido no servidor, agrupados por parceiro e categoria.
package selection

import (
	"fmt"

	"github.com/eventcontract/contract-api/internal/apperr"
	"github.com/eventcontract/contract-api/internal/catalog"
	"github.com/eventcontract/contract-api/internal/pricing"
)

// Choice é o que o cliente envia. ColumnID e UnitPrice são só informativos:
// o preço é sempre resolvido de novo a partir do catálogo.
type Choice struct {
	SheetID   uint   `json:"sheetId" validate:"required"`
	RowID     uint   `json:"rowId" validate:"required"`
	ColumnID  *uint  `json:"columnId,omitempty"`
	UnitPrice *int64 `json:"unitPrice,omitempty"`
}

// Item é a linha congelada no contrato.
type Item struct {
	SheetID      uint   `json:"sheetId"`
	RowID        uint   `json:"rowId"`
	ColumnID     uint   `json:"columnId"`
	PartnerID    uint   `json:"partnerId"`
	OptionName   string `json:"optionName"`
	CategoryName string `json:"categoryName"`
	PartnerName  string `json:"partnerName"`
	UnitPrice    int64  `json:"unitPrice"`
}

type Group struct {
	PartnerName  string `json:"partnerName"`
	CategoryName string `json:"categoryName"`
	Items        []Item `json:"items"`
	Subtotal     int64  `json:"subtotal"`
}

type Result struct {
	ApartmentTypeID uint    `json:"apartmentTypeId"`
	Items           []Item  `json:"items"`
	Groups          []Group `json:"groups"`
	Total           int64   `json:"totalAmount"`
}

// SheetIDs devolve as planilhas citadas, sem repetição, na ordem de chegada.
func SheetIDs(choices []Choice) []uint {
	seen := make(map[uint]bool, len(choices))
	var ids []uint
	for _, c := range choices {
		if !seen[c.SheetID] {
			seen[c.SheetID] = true
			ids = append(ids, c.SheetID)
		}
	}
	return ids
}

type rowKey struct{ sheet, row uint }

// Aggregate valida a seleção inteira contra o snapshot e resolve os preços.
// Qualquer falha rejeita tudo; não existe resultado parcial.
func Aggregate(snap *catalog.Snapshot, apartmentTypeID uint, choices []Choice) (*Result, error) {
	if len(choices) == 0 {
		return nil, apperr.Validation("nenhuma opção selecionada")
	}
	if snap.Config.Status != catalog.StatusActive {
		return nil, apperr.Validation("catálogo do evento não está ativo")
	}
	if _, ok := snap.Types[apartmentTypeID]; !ok {
		return nil, apperr.Validation("tipo de apartamento %d não pertence a este evento", apartmentTypeID)
	}

	res := &Result{ApartmentTypeID: apartmentTypeID, Items: make([]Item, 0, len(choices))}
	seen := make(map[rowKey]bool, len(choices))
	for i, c := range choices {
		sheet, ok := snap.Sheet(c.SheetID)
		if !ok {
			return nil, choiceError(i, "planilha %d não pertence a este evento", c.SheetID)
		}
		if sheet.Status != catalog.StatusActive {
			return nil, choiceError(i, "planilha %d não está ativa", c.SheetID)
		}
		row, ok := sheet.Row(c.RowID)
		if !ok {
			return nil, choiceError(i, "opção %d não pertence à planilha %d", c.RowID, c.SheetID)
		}
		key := rowKey{sheet.ID, row.ID}
		if seen[key] {
			return nil, choiceError(i, "opção %d selecionada mais de uma vez", c.RowID)
		}
		seen[key] = true

		price, ok := pricing.Resolve(row, sheet.Columns, apartmentTypeID)
		if !ok {
			return nil, &apperr.UnresolvedPriceError{
				SheetID:         sheet.ID,
				RowID:           row.ID,
				ApartmentTypeID: apartmentTypeID,
				OptionName:      row.OptionName,
			}
		}
		item := Item{
			SheetID:      sheet.ID,
			RowID:        row.ID,
			ColumnID:     price.ColumnID,
			PartnerID:    sheet.PartnerID,
			OptionName:   row.OptionName,
			CategoryName: sheet.CategoryName,
			PartnerName:  sheet.PartnerName,
			UnitPrice:    price.Amount,
		}
		res.Items = append(res.Items, item)
		res.Total += item.UnitPrice
	}
	res.Groups = GroupItems(res.Items)
	return res, nil
}

func choiceError(i int, format string, args ...any) error {
	return &apperr.ValidationError{
		Message: "seleção inválida",
		Details: map[string]string{fmt.Sprintf("items[%d]", i): fmt.Sprintf(format, args...)},
	}
}

// GroupItems agrupa por (parceiro, categoria) na ordem em que aparecem.
func GroupItems(items []Item) []Group {
	type groupKey struct{ partner, category string }
	index := map[groupKey]int{}
	var groups []Group
	for _, it := range items {
		k := groupKey{it.PartnerName, it.CategoryName}
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, Group{PartnerName: it.PartnerName, CategoryName: it.CategoryName})
		}
		groups[i].Items = append(groups[i].Items, it)
		groups[i].Subtotal += it.UnitPrice
	}
	return groups
}
