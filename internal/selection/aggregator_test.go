package selection

import (
	"testing"

	"github.com/eventcontract/contract-api/internal/apperr"
	"github.com/eventcontract/contract-api/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func ptr[T any](v T) *T { return &v }

func cells(m map[string]string) datatypes.JSONType[map[string]string] { return datatypes.NewJSONType(m) }

// tipo 1 = 84A, tipo 2 = 59B
func snapshot() *catalog.Snapshot {
	balcony := catalog.IcPartnerSheet{
		ID: 10, ConfigID: 1, PartnerID: 20, PartnerName: "한빛인테리어", CategoryName: "발코니", Status: catalog.StatusActive,
		Columns: []catalog.SheetColumn{
			{ID: 100, ApartmentTypeID: ptr(uint(1)), ColumnType: catalog.ColumnAmount},
			{ID: 101, ApartmentTypeID: ptr(uint(2)), ColumnType: catalog.ColumnAmount, SortOrder: 1},
		},
		Rows: []catalog.SheetRow{
			{ID: 1000, OptionName: "확장", CellValues: cells(map[string]string{"100": "1,500,000", "101": "1,200,000"})},
			{ID: 1001, OptionName: "단열", CellValues: cells(map[string]string{"100": "300,000"})},
			{ID: 1002, OptionName: "문의", CellValues: cells(map[string]string{"100": "별도 문의"})},
		},
	}
	appliance := catalog.IcPartnerSheet{
		ID: 11, ConfigID: 1, PartnerID: 21, PartnerName: "가전마트", CategoryName: "가전", Status: catalog.StatusActive,
		Columns: []catalog.SheetColumn{{ID: 110, CustomName: "공통가", ColumnType: catalog.ColumnAmount}},
		Rows: []catalog.SheetRow{
			{ID: 1100, OptionName: "냉장고", Prices: datatypes.NewJSONType(map[string]float64{"110": 2_000_000})},
		},
	}
	closed := catalog.IcPartnerSheet{
		ID: 12, ConfigID: 1, PartnerID: 22, PartnerName: "닫힌업체", CategoryName: "조명", Status: catalog.StatusInactive,
		Columns: []catalog.SheetColumn{{ID: 120, CustomName: "가격"}},
		Rows:    []catalog.SheetRow{{ID: 1200, OptionName: "조명", CellValues: cells(map[string]string{"120": "100"})}},
	}
	return &catalog.Snapshot{
		Config: catalog.IcConfig{ID: 1, Status: catalog.StatusActive},
		Types:  map[uint]catalog.ApartmentType{1: {ID: 1, Name: "84A"}, 2: {ID: 2, Name: "59B"}},
		Sheets: map[uint]catalog.IcPartnerSheet{10: balcony, 11: appliance, 12: closed},
	}
}

func TestAggregateResolvesPricesServerSide(t *testing.T) {
	forged := int64(1)
	res, err := Aggregate(snapshot(), 1, []Choice{
		{SheetID: 10, RowID: 1000, ColumnID: ptr(uint(101)), UnitPrice: &forged},
		{SheetID: 11, RowID: 1100},
		{SheetID: 10, RowID: 1001},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1_500_000+2_000_000+300_000), res.Total)
	require.Len(t, res.Items, 3)
	assert.Equal(t, Item{
		SheetID: 10, RowID: 1000, ColumnID: 100, PartnerID: 20,
		OptionName: "확장", CategoryName: "발코니", PartnerName: "한빛인테리어", UnitPrice: 1_500_000,
	}, res.Items[0])

	require.Len(t, res.Groups, 2)
	assert.Equal(t, "한빛인테리어", res.Groups[0].PartnerName)
	assert.Len(t, res.Groups[0].Items, 2)
	assert.Equal(t, int64(1_800_000), res.Groups[0].Subtotal)
	assert.Equal(t, int64(2_000_000), res.Groups[1].Subtotal)
}

func TestAggregateUsesChosenApartmentType(t *testing.T) {
	res, err := Aggregate(snapshot(), 2, []Choice{{SheetID: 10, RowID: 1000}})
	require.NoError(t, err)
	assert.Equal(t, int64(1_200_000), res.Total)
	assert.Equal(t, uint(101), res.Items[0].ColumnID)
}

func TestAggregateRejectsUnresolvedPrice(t *testing.T) {
	_, err := Aggregate(snapshot(), 1, []Choice{{SheetID: 11, RowID: 1100}, {SheetID: 10, RowID: 1002}})
	var unresolved *apperr.UnresolvedPriceError
	require.ErrorAs(t, err, &unresolved)
	assert.Equal(t, uint(1002), unresolved.RowID)
}

func TestAggregateRejectsWholeSelection(t *testing.T) {
	inactiveConfig := snapshot()
	inactiveConfig.Config.Status = catalog.StatusDraft

	cases := map[string]struct {
		snap    *catalog.Snapshot
		typeID  uint
		choices []Choice
	}{
		"empty":           {snapshot(), 1, nil},
		"inactive config": {inactiveConfig, 1, []Choice{{SheetID: 10, RowID: 1000}}},
		"foreign type":    {snapshot(), 9, []Choice{{SheetID: 10, RowID: 1000}}},
		"inactive sheet":  {snapshot(), 1, []Choice{{SheetID: 10, RowID: 1000}, {SheetID: 12, RowID: 1200}}},
		"unknown sheet":   {snapshot(), 1, []Choice{{SheetID: 99, RowID: 1000}}},
		"row of another":  {snapshot(), 1, []Choice{{SheetID: 11, RowID: 1000}}},
		"duplicate":       {snapshot(), 1, []Choice{{SheetID: 10, RowID: 1000}, {SheetID: 10, RowID: 1000}}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			res, err := Aggregate(tc.snap, tc.typeID, tc.choices)
			assert.Nil(t, res)
			var validation *apperr.ValidationError
			assert.ErrorAs(t, err, &validation)
		})
	}
}

func TestSheetIDs(t *testing.T) {
	ids := SheetIDs([]Choice{{SheetID: 3}, {SheetID: 1}, {SheetID: 3}, {SheetID: 2}})
	assert.Equal(t, []uint{3, 1, 2}, ids)
}

func TestBuildOfferKeepsOnlySelectableRows(t *testing.T) {
	snap := snapshot()
	sheets := []catalog.IcPartnerSheet{snap.Sheets[10], snap.Sheets[11], snap.Sheets[12]}

	offer := BuildOffer(sheets, 1)
	require.Len(t, offer, 2)
	assert.Equal(t, uint(10), offer[0].SheetID)
	require.Len(t, offer[0].Rows, 2)
	assert.Equal(t, "확장", offer[0].Rows[0].OptionName)
	assert.Equal(t, int64(1_500_000), offer[0].Rows[0].UnitPrice)

	// tipo 2: só "확장" tem coluna; "단열" cai na varredura e acha a coluna do tipo 1
	offer = BuildOffer(sheets, 2)
	require.Len(t, offer, 2)
	assert.Len(t, offer[0].Rows, 2)
}
