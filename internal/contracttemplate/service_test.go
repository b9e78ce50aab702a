package contracttemplate

import (
	"context"
	"testing"

	"github.com/eventcontract/contract-api/internal/apperr"
	"github.com/eventcontract/contract-api/internal/auth"
	"github.com/eventcontract/contract-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var partner = auth.Principal{ID: 20, Role: auth.RolePartner}

func newService(t *testing.T) *Service {
	t.Helper()
	return NewService(NewRepository(testutil.NewDB(t, Models()...)), nil)
}

func strPtr(s string) *string { return &s }

func TestCreateTemplateDefaults(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	tpl, err := svc.Create(ctx, partner, 7, TemplateInput{Name: " 시공 계약서 ", FileID: "file-1"})
	require.NoError(t, err)
	assert.Equal(t, "시공 계약서", tpl.Name)
	assert.Equal(t, FileImage, tpl.FileType)
	assert.Equal(t, 1, tpl.PageCount)

	_, err = svc.Create(ctx, auth.Principal{ID: 1, Role: auth.RoleCustomer}, 7, TemplateInput{Name: "x", FileID: "f"})
	var forbidden *apperr.ForbiddenError
	assert.ErrorAs(t, err, &forbidden)

	list, err := svc.ListByEvent(ctx, auth.Principal{ID: 21, Role: auth.RolePartner}, 7)
	require.NoError(t, err)
	assert.Empty(t, list)
	list, err = svc.ListByEvent(ctx, partner, 7)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestReplaceFields(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	tpl, err := svc.Create(ctx, partner, 7, TemplateInput{Name: "계약서", FileID: "file-1", FileType: FilePDF, PageCount: 2})
	require.NoError(t, err)

	tpl, err = svc.ReplaceFields(ctx, partner, tpl.ID, []FieldInput{
		{FieldType: FieldText, Label: "성명", IsRequired: true, PositionX: 10, PositionY: 20, Width: 30, Height: 5},
		{FieldType: FieldAmount, Label: "금액", PageNumber: 2, PositionX: 50, PositionY: 50, Width: 20, Height: 5, DefaultValue: strPtr("0")},
		{FieldType: FieldSignature, Label: "서명", IsRequired: true, PositionX: 70, PositionY: 85, Width: 25, Height: 10},
	})
	require.NoError(t, err)
	require.Len(t, tpl.Fields, 3)
	assert.Equal(t, "성명", tpl.Fields[0].Label)
	assert.Equal(t, 1, tpl.Fields[0].PageNumber)
	assert.Equal(t, "금액", tpl.Fields[2].Label)

	name := tpl.Fields[0]
	tpl, err = svc.ReplaceFields(ctx, partner, tpl.ID, []FieldInput{
		{ID: name.ID, FieldType: FieldText, Label: "고객 성명", IsRequired: true, PositionX: 10, PositionY: 20, Width: 30, Height: 5},
	})
	require.NoError(t, err)
	require.Len(t, tpl.Fields, 1)
	assert.Equal(t, name.ID, tpl.Fields[0].ID)
	assert.Equal(t, "고객 성명", tpl.Fields[0].Label)
}

func TestReplaceFieldsValidatesBoxes(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	tpl, err := svc.Create(ctx, partner, 7, TemplateInput{Name: "계약서", FileID: "file-1"})
	require.NoError(t, err)

	_, err = svc.ReplaceFields(ctx, partner, tpl.ID, []FieldInput{
		{FieldType: FieldText, Label: "a", PositionX: 90, Width: 20},
		{FieldType: FieldText, Label: "b", PageNumber: 3},
		{FieldType: FieldSignature, Label: "s1"},
		{FieldType: FieldSignature, Label: "s2"},
		{FieldType: FieldDate, Label: "d", DefaultValue: strPtr("tomorrow")},
		{FieldType: FieldText, Label: "p", ValidationRule: map[string]any{"pattern": "("}},
		{ID: 999, FieldType: FieldText, Label: "x"},
	})
	var validation *apperr.ValidationError
	require.ErrorAs(t, err, &validation)
	for _, key := range []string{"fields[0].width", "fields[1].pageNumber", "fields[3].fieldType", "fields[4].defaultValue", "fields[5].validationRule", "fields[6].id"} {
		assert.Contains(t, validation.Details, key)
	}

	_, err = svc.ReplaceFields(ctx, auth.Principal{ID: 99, Role: auth.RolePartner}, tpl.ID, nil)
	var forbidden *apperr.ForbiddenError
	assert.ErrorAs(t, err, &forbidden)
}

func TestReplaceFieldsKeepsFieldsWithStoredValues(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	db := svc.Repo.DB
	tpl, err := svc.Create(ctx, partner, 7, TemplateInput{Name: "계약서", FileID: "file-1"})
	require.NoError(t, err)
	tpl, err = svc.ReplaceFields(ctx, partner, tpl.ID, []FieldInput{
		{FieldType: FieldText, Label: "성명"},
		{FieldType: FieldText, Label: "주소"},
	})
	require.NoError(t, err)

	require.NoError(t, db.Exec("CREATE TABLE contract_field_values (id integer primary key, field_id integer, value text)").Error)
	require.NoError(t, db.Exec("INSERT INTO contract_field_values (field_id, value) VALUES (?, '홍길동')", tpl.Fields[0].ID).Error)
	require.NoError(t, db.Exec("INSERT INTO contract_field_values (field_id, value) VALUES (?, '')", tpl.Fields[1].ID).Error)

	_, err = svc.ReplaceFields(ctx, partner, tpl.ID, []FieldInput{{ID: tpl.Fields[1].ID, FieldType: FieldText, Label: "주소"}})
	var ref *apperr.ReferentialIntegrityError
	require.ErrorAs(t, err, &ref)

	// campo só com valor vazio pode sair
	after, err := svc.ReplaceFields(ctx, partner, tpl.ID, []FieldInput{{ID: tpl.Fields[0].ID, FieldType: FieldText, Label: "성명"}})
	require.NoError(t, err)
	assert.Len(t, after.Fields, 1)
}

func TestUpdateTemplateKeepsFieldsOnExistingPages(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	tpl, err := svc.Create(ctx, partner, 7, TemplateInput{Name: "계약서", FileID: "file-1", PageCount: 3})
	require.NoError(t, err)
	_, err = svc.ReplaceFields(ctx, partner, tpl.ID, []FieldInput{{FieldType: FieldText, Label: "특약", PageNumber: 3}})
	require.NoError(t, err)

	_, err = svc.Update(ctx, partner, tpl.ID, TemplateInput{Name: "계약서", FileID: "file-2", PageCount: 2})
	var validation *apperr.ValidationError
	assert.ErrorAs(t, err, &validation)

	updated, err := svc.Update(ctx, partner, tpl.ID, TemplateInput{Name: "계약서 v2", FileID: "file-2", FileType: FilePDF, PageCount: 3})
	require.NoError(t, err)
	assert.Equal(t, "file-2", updated.FileID)
	assert.Equal(t, FilePDF, updated.FileType)
}
