package catalog

import (
	"context"
	"testing"

	"github.com/eventcontract/contract-api/internal/activitylog"
	"github.com/eventcontract/contract-api/internal/apperr"
	"github.com/eventcontract/contract-api/internal/auth"
	"github.com/eventcontract/contract-api/internal/paymentschedule"
	"github.com/eventcontract/contract-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	organizer = auth.Principal{ID: 1, Role: auth.RoleOrganizer, Name: "분양사무소"}
	partner   = auth.Principal{ID: 20, Role: auth.RolePartner, Name: "한빛인테리어"}
	stranger  = auth.Principal{ID: 21, Role: auth.RolePartner, Name: "다른업체"}
)

func newService(t *testing.T) (*Service, *activitylog.Memory) {
	t.Helper()
	db := testutil.NewDB(t, Models()...)
	log := &activitylog.Memory{}
	return NewService(NewRepository(db), log), log
}

func stages() []paymentschedule.Stage {
	return []paymentschedule.Stage{{Name: "1차", Ratio: 30}, {Name: "2차", Ratio: 40}, {Name: "잔금", Ratio: 30}}
}

func setup(t *testing.T) (*Service, *IcConfig, []ApartmentType, *IcPartnerSheet) {
	t.Helper()
	svc, _ := newService(t)
	ctx := context.Background()
	cfg, err := svc.CreateConfig(ctx, organizer, 100, ConfigInput{PaymentStages: stages()})
	require.NoError(t, err)
	a, err := svc.CreateApartmentType(ctx, organizer, cfg.ID, ApartmentTypeInput{Name: "84A"})
	require.NoError(t, err)
	b, err := svc.CreateApartmentType(ctx, organizer, cfg.ID, ApartmentTypeInput{Name: "59B", SortOrder: 1})
	require.NoError(t, err)
	sheet, err := svc.MySheet(ctx, partner, cfg.ID, "발코니")
	require.NoError(t, err)
	return svc, cfg, []ApartmentType{*a, *b}, sheet
}

func TestCreateConfigIsOncePerEvent(t *testing.T) {
	svc, log := newService(t)
	ctx := context.Background()

	cfg, err := svc.CreateConfig(ctx, organizer, 100, ConfigInput{PaymentStages: stages(), LegalTerms: "약관"})
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, cfg.Status)
	assert.Len(t, cfg.Stages(), 3)

	_, err = svc.CreateConfig(ctx, organizer, 100, ConfigInput{})
	var conflict *apperr.ConflictError
	assert.ErrorAs(t, err, &conflict)
	assert.Equal(t, []string{"ic_config.create"}, log.Actions())
}

func TestCreateConfigValidatesStagesAndRole(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.CreateConfig(ctx, organizer, 1, ConfigInput{PaymentStages: []paymentschedule.Stage{{Name: "1차", Ratio: 30}, {Name: "잔금", Ratio: 60}}})
	var validation *apperr.ValidationError
	assert.ErrorAs(t, err, &validation)

	_, err = svc.CreateConfig(ctx, partner, 1, ConfigInput{})
	var forbidden *apperr.ForbiddenError
	assert.ErrorAs(t, err, &forbidden)

	// sem etapas é permitido: vira pagamento único no contrato
	cfg, err := svc.CreateConfig(ctx, organizer, 1, ConfigInput{})
	require.NoError(t, err)
	assert.Empty(t, cfg.Stages())
}

func TestUpdateConfigAndStatus(t *testing.T) {
	svc, cfg, _, _ := setup(t)
	ctx := context.Background()

	updated, err := svc.UpdateConfig(ctx, organizer, cfg.ID, ConfigInput{
		PaymentStages: []paymentschedule.Stage{{Name: "계약금", Ratio: 10}, {Name: "잔금", Ratio: 90}},
		SpecialNotes:  "입주 전 시공",
	})
	require.NoError(t, err)
	assert.Equal(t, "입주 전 시공", updated.SpecialNotes)
	assert.Len(t, updated.Stages(), 2)
	assert.Len(t, updated.ApartmentTypes, 2)

	_, err = svc.UpdateConfig(ctx, auth.Principal{ID: 2, Role: auth.RoleOrganizer}, cfg.ID, ConfigInput{})
	var forbidden *apperr.ForbiddenError
	assert.ErrorAs(t, err, &forbidden)

	active, err := svc.SetConfigStatus(ctx, organizer, cfg.ID, StatusActive)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, active.Status)

	_, err = svc.SetConfigStatus(ctx, organizer, cfg.ID, StatusInactive)
	var validation *apperr.ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestMySheetIsCreatedOnFirstVisit(t *testing.T) {
	svc, cfg, _, sheet := setup(t)
	ctx := context.Background()

	assert.Equal(t, StatusDraft, sheet.Status)
	assert.Equal(t, "한빛인테리어", sheet.PartnerName)
	assert.Empty(t, sheet.Columns)

	again, err := svc.MySheet(ctx, partner, cfg.ID, " 발코니 ")
	require.NoError(t, err)
	assert.Equal(t, sheet.ID, again.ID)

	other, err := svc.MySheet(ctx, partner, cfg.ID, "가전")
	require.NoError(t, err)
	assert.NotEqual(t, sheet.ID, other.ID)

	_, err = svc.MySheet(ctx, organizer, cfg.ID, "발코니")
	var forbidden *apperr.ForbiddenError
	assert.ErrorAs(t, err, &forbidden)
}

func TestReplaceColumnsInsertsUpdatesAndDeletes(t *testing.T) {
	svc, _, types, sheet := setup(t)
	ctx := context.Background()

	sheet, err := svc.ReplaceColumns(ctx, partner, sheet.ID, []ColumnInput{
		{ApartmentTypeID: &types[0].ID, SortOrder: 0},
		{ApartmentTypeID: &types[1].ID, SortOrder: 1},
		{CustomName: "비고", ColumnType: ColumnText, SortOrder: 2},
	})
	require.NoError(t, err)
	require.Len(t, sheet.Columns, 3)
	colA, colB, memo := sheet.Columns[0], sheet.Columns[1], sheet.Columns[2]
	assert.Equal(t, ColumnAmount, colA.ColumnType)

	sheet, err = svc.ReplaceRows(ctx, partner, sheet.ID, []RowInput{{
		OptionName: "발코니 확장",
		CellValues: map[string]string{colA.Key(): "1,500,000", colB.Key(): "1,200,000", memo.Key(): "전 세대"},
		Prices:     map[string]float64{colA.Key(): 0, colB.Key(): 1_200_000},
	}})
	require.NoError(t, err)
	require.Len(t, sheet.Rows, 1)

	// coluna B sai; a chave some das linhas
	sheet, err = svc.ReplaceColumns(ctx, partner, sheet.ID, []ColumnInput{
		{ID: colA.ID, ApartmentTypeID: &types[0].ID, SortOrder: 1},
		{ID: memo.ID, CustomName: "메모", ColumnType: ColumnText, SortOrder: 0},
	})
	require.NoError(t, err)
	require.Len(t, sheet.Columns, 2)
	assert.Equal(t, memo.ID, sheet.Columns[0].ID)
	assert.Equal(t, "메모", sheet.Columns[0].CustomName)

	row := sheet.Rows[0]
	assert.Equal(t, map[string]string{colA.Key(): "1,500,000", memo.Key(): "전 세대"}, row.CellValues.Data())
	assert.Equal(t, map[string]float64{colA.Key(): 0}, row.Prices.Data())
}

func TestReplaceColumnsRejectsInvalidListAtomically(t *testing.T) {
	svc, _, types, sheet := setup(t)
	ctx := context.Background()

	sheet, err := svc.ReplaceColumns(ctx, partner, sheet.ID, []ColumnInput{{ApartmentTypeID: &types[0].ID}})
	require.NoError(t, err)

	missing := uint(999)
	_, err = svc.ReplaceColumns(ctx, partner, sheet.ID, []ColumnInput{
		{ApartmentTypeID: &missing},
		{ApartmentTypeID: &types[1].ID},
		{ApartmentTypeID: &types[1].ID},
		{ColumnType: ColumnText},
	})
	var validation *apperr.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Contains(t, validation.Details, "columns[0].apartmentTypeId")
	assert.Contains(t, validation.Details, "columns[2].apartmentTypeId")
	assert.Contains(t, validation.Details, "columns[3].customName")

	after, err := svc.GetSheet(ctx, partner, sheet.ID)
	require.NoError(t, err)
	assert.Equal(t, sheet.Columns, after.Columns)

	_, err = svc.ReplaceColumns(ctx, stranger, sheet.ID, nil)
	var forbidden *apperr.ForbiddenError
	assert.ErrorAs(t, err, &forbidden)
}

func TestReplaceRowsValidatesColumnKeys(t *testing.T) {
	svc, _, types, sheet := setup(t)
	ctx := context.Background()

	sheet, err := svc.ReplaceColumns(ctx, partner, sheet.ID, []ColumnInput{{ApartmentTypeID: &types[0].ID}})
	require.NoError(t, err)
	key := sheet.Columns[0].Key()

	sheet, err = svc.ReplaceRows(ctx, partner, sheet.ID, []RowInput{
		{OptionName: "A", SortOrder: 1, CellValues: map[string]string{key: "100"}},
		{OptionName: "B", SortOrder: 0, Prices: map[string]float64{key: 200}},
	})
	require.NoError(t, err)
	require.Len(t, sheet.Rows, 2)
	assert.Equal(t, "B", sheet.Rows[0].OptionName)

	_, err = svc.ReplaceRows(ctx, partner, sheet.ID, []RowInput{
		{ID: sheet.Rows[0].ID, OptionName: "B"},
		{OptionName: "C", CellValues: map[string]string{"424242": "5"}, Prices: map[string]float64{key: -1}},
	})
	var validation *apperr.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Contains(t, validation.Details, "rows[1].cellValues.424242")
	assert.Contains(t, validation.Details, "rows[1].prices."+key)

	after, err := svc.GetSheet(ctx, partner, sheet.ID)
	require.NoError(t, err)
	assert.Len(t, after.Rows, 2)

	// só B fica, atualizado
	after, err = svc.ReplaceRows(ctx, partner, sheet.ID, []RowInput{{ID: sheet.Rows[0].ID, OptionName: "B2"}})
	require.NoError(t, err)
	require.Len(t, after.Rows, 1)
	assert.Equal(t, sheet.Rows[0].ID, after.Rows[0].ID)
	assert.Equal(t, "B2", after.Rows[0].OptionName)
}

func TestDeleteApartmentType(t *testing.T) {
	svc, _, types, sheet := setup(t)
	ctx := context.Background()
	db := svc.Repo.DB

	sheet, err := svc.ReplaceColumns(ctx, partner, sheet.ID, []ColumnInput{
		{ApartmentTypeID: &types[0].ID},
		{ApartmentTypeID: &types[1].ID},
	})
	require.NoError(t, err)

	require.NoError(t, db.Exec("CREATE TABLE ic_contracts (id integer primary key, apartment_type_id integer)").Error)
	require.NoError(t, db.Exec("INSERT INTO ic_contracts (id, apartment_type_id) VALUES (1, ?)", types[1].ID).Error)

	err = svc.DeleteApartmentType(ctx, organizer, types[1].ID)
	var ref *apperr.ReferentialIntegrityError
	require.ErrorAs(t, err, &ref)
	assert.Equal(t, int64(1), ref.References)

	// só colunas referenciam o tipo A: remoção permitida, coluna fica órfã
	require.NoError(t, svc.DeleteApartmentType(ctx, organizer, types[0].ID))
	after, err := svc.GetSheet(ctx, partner, sheet.ID)
	require.NoError(t, err)
	assert.Len(t, after.Columns, 2)

	// a coluna órfã pode ser reenviada sem mudança
	_, err = svc.ReplaceColumns(ctx, partner, sheet.ID, []ColumnInput{
		{ID: after.Columns[0].ID, ApartmentTypeID: &types[0].ID},
		{ID: after.Columns[1].ID, ApartmentTypeID: &types[1].ID},
	})
	assert.NoError(t, err)
}

func TestSheetStatusAndVisibility(t *testing.T) {
	svc, cfg, _, sheet := setup(t)
	ctx := context.Background()
	customer := auth.Principal{ID: 300, Role: auth.RoleCustomer}

	_, err := svc.GetSheet(ctx, customer, sheet.ID)
	var notFound *apperr.NotFoundError
	assert.ErrorAs(t, err, &notFound)

	list, err := svc.ListSheets(ctx, customer, cfg.ID)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = svc.SetSheetStatus(ctx, partner, sheet.ID, StatusActive)
	require.NoError(t, err)
	list, err = svc.ListSheets(ctx, customer, cfg.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	// o organizador desativa a planilha do parceiro
	off, err := svc.SetSheetStatus(ctx, organizer, sheet.ID, StatusInactive)
	require.NoError(t, err)
	assert.Equal(t, StatusInactive, off.Status)

	_, err = svc.SetSheetStatus(ctx, stranger, sheet.ID, StatusActive)
	var forbidden *apperr.ForbiddenError
	assert.ErrorAs(t, err, &forbidden)

	all, err := svc.ListSheets(ctx, organizer, cfg.ID)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	memo, err := svc.UpdateMemo(ctx, partner, sheet.ID, "부가세 포함")
	require.NoError(t, err)
	assert.Equal(t, "부가세 포함", memo.Memo)
}

func TestLoadSnapshotReadsOnlyRequestedSheets(t *testing.T) {
	svc, cfg, types, sheet := setup(t)
	ctx := context.Background()
	other, err := svc.MySheet(ctx, stranger, cfg.ID, "가전")
	require.NoError(t, err)

	snap, err := svc.Repo.LoadSnapshot(cfg.ID, []uint{sheet.ID, 9999}, true)
	require.NoError(t, err)
	assert.Len(t, snap.Types, len(types))
	_, ok := snap.Sheet(sheet.ID)
	assert.True(t, ok)
	_, ok = snap.Sheet(other.ID)
	assert.False(t, ok)
	_, ok = snap.Sheet(9999)
	assert.False(t, ok)

	_, err = svc.Repo.LoadSnapshot(12345, nil, false)
	var notFound *apperr.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}
