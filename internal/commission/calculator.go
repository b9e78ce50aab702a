// Package commission calcula a comissão do organizador por item, planilha e
// parceiro. A taxa é por planilha; não existe taxa do contrato.
package commission

import (
	"github.com/eventcontract/contract-api/internal/selection"
	"github.com/shopspring/decimal"
)

type SheetShare struct {
	SheetID        uint    `json:"sheetId"`
	CategoryName   string  `json:"categoryName"`
	Rate           float64 `json:"rate"`
	Revenue        int64   `json:"revenue"`
	Commission     float64 `json:"commission"`
	OrganizerShare int64   `json:"organizerShare"`
}

type PartnerShare struct {
	PartnerID      uint         `json:"partnerId"`
	PartnerName    string       `json:"partnerName"`
	Revenue        int64        `json:"revenue"`
	Commission     float64      `json:"commission"`
	OrganizerShare int64        `json:"organizerShare"`
	PartnerShare   int64        `json:"partnerShare"`
	Sheets         []SheetShare `json:"sheets"`
}

type Breakdown struct {
	Partners       []PartnerShare `json:"partners"`
	Revenue        int64          `json:"revenue"`
	Commission     float64        `json:"commission"`
	OrganizerShare int64          `json:"organizerShare"`
	PartnerShare   int64          `json:"partnerShare"`
}

var hundred = decimal.NewFromInt(100)

// Calculate: comissão do item = unitPrice * taxa / 100 (sem arredondar).
// A parte do organizador é arredondada uma vez por planilha; a do parceiro é
// o resto, então organizador + parceiro = receita em todo nível.
func Calculate(items []selection.Item, rates map[uint]float64) Breakdown {
	type sheetAcc struct {
		share      SheetShare
		revenue    decimal.Decimal
		commission decimal.Decimal
	}
	var (
		partnerOrder []uint
		partners     = map[uint]*PartnerShare{}
		sheetOrder   = map[uint][]uint{}
		sheets       = map[uint]*sheetAcc{}
	)
	for _, it := range items {
		p, ok := partners[it.PartnerID]
		if !ok {
			p = &PartnerShare{PartnerID: it.PartnerID, PartnerName: it.PartnerName}
			partners[it.PartnerID] = p
			partnerOrder = append(partnerOrder, it.PartnerID)
		}
		s, ok := sheets[it.SheetID]
		if !ok {
			rate := rates[it.SheetID]
			s = &sheetAcc{share: SheetShare{SheetID: it.SheetID, CategoryName: it.CategoryName, Rate: rate}}
			sheets[it.SheetID] = s
			sheetOrder[it.PartnerID] = append(sheetOrder[it.PartnerID], it.SheetID)
		}
		price := decimal.NewFromInt(it.UnitPrice)
		s.revenue = s.revenue.Add(price)
		s.commission = s.commission.Add(price.Mul(decimal.NewFromFloat(s.share.Rate)).Div(hundred))
	}

	var out Breakdown
	for _, pid := range partnerOrder {
		p := partners[pid]
		commission := decimal.Zero
		for _, sid := range sheetOrder[pid] {
			s := sheets[sid]
			s.share.Revenue = s.revenue.IntPart()
			s.share.Commission = s.commission.Round(2).InexactFloat64()
			s.share.OrganizerShare = s.revenue.Mul(decimal.NewFromFloat(s.share.Rate)).Div(hundred).Round(0).IntPart()

			p.Revenue += s.share.Revenue
			p.OrganizerShare += s.share.OrganizerShare
			commission = commission.Add(s.commission)
			p.Sheets = append(p.Sheets, s.share)
		}
		p.Commission = commission.Round(2).InexactFloat64()
		p.PartnerShare = p.Revenue - p.OrganizerShare
		out.Partners = append(out.Partners, *p)
	}
	out.sumPartners()
	return out
}

func (b *Breakdown) sumPartners() {
	b.Revenue, b.OrganizerShare, b.PartnerShare = 0, 0, 0
	commission := decimal.Zero
	for _, p := range b.Partners {
		b.Revenue += p.Revenue
		b.OrganizerShare += p.OrganizerShare
		b.PartnerShare += p.PartnerShare
		commission = commission.Add(decimal.NewFromFloat(p.Commission))
	}
	b.Commission = commission.Round(2).InexactFloat64()
}

// Sum junta breakdowns de vários contratos somando os valores já
// arredondados de cada um, por parceiro e planilha.
func Sum(list []Breakdown) Breakdown {
	var (
		order    []uint
		partners = map[uint]*PartnerShare{}
	)
	for _, b := range list {
		for _, p := range b.Partners {
			acc, ok := partners[p.PartnerID]
			if !ok {
				acc = &PartnerShare{PartnerID: p.PartnerID, PartnerName: p.PartnerName}
				partners[p.PartnerID] = acc
				order = append(order, p.PartnerID)
			}
			acc.Revenue += p.Revenue
			acc.OrganizerShare += p.OrganizerShare
			acc.PartnerShare += p.PartnerShare
			acc.Commission = decimal.NewFromFloat(acc.Commission).Add(decimal.NewFromFloat(p.Commission)).Round(2).InexactFloat64()
			acc.Sheets = mergeSheets(acc.Sheets, p.Sheets)
		}
	}
	var out Breakdown
	for _, id := range order {
		out.Partners = append(out.Partners, *partners[id])
	}
	out.sumPartners()
	return out
}

func mergeSheets(dst, src []SheetShare) []SheetShare {
	for _, s := range src {
		merged := false
		for i := range dst {
			if dst[i].SheetID == s.SheetID {
				dst[i].Revenue += s.Revenue
				dst[i].OrganizerShare += s.OrganizerShare
				dst[i].Commission = decimal.NewFromFloat(dst[i].Commission).Add(decimal.NewFromFloat(s.Commission)).Round(2).InexactFloat64()
				merged = true
				break
			}
		}
		if !merged {
			dst = append(dst, s)
		}
	}
	return dst
}
