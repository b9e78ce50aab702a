package public

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/eventcontract/contract-api/internal/apperr"
	"github.com/eventcontract/contract-api/internal/contract"
	"github.com/eventcontract/contract-api/internal/contracttemplate"
	"github.com/eventcontract/contract-api/internal/iccontract"
	"github.com/eventcontract/contract-api/internal/identifier"
	"github.com/eventcontract/contract-api/internal/lifecycle"
	"github.com/eventcontract/contract-api/internal/testutil"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var expiresAt = time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

func seed(t *testing.T) *gorm.DB {
	t.Helper()
	models := append(contracttemplate.Models(), contract.Models()...)
	models = append(models, iccontract.Models()...)
	db := testutil.NewDB(t, append(models, identifier.Models()...)...)

	tpl := contracttemplate.Template{EventID: 7, PartnerID: 20, Name: "발코니 시공 계약서", FileID: "f", FileType: "image", PageCount: 1}
	require.NoError(t, db.Create(&tpl).Error)
	c := contract.Contract{
		ContractNumber: "C-261015-AAAAAA", QRCode: "qr-token-1", ShortCode: "ABC234",
		TemplateID: tpl.ID, EventID: 7, PartnerID: 20, CustomerName: "김고객", CustomerPhone: "010-1234-5678",
		Status: lifecycle.StatusPending, ExpiresAt: expiresAt,
	}
	require.NoError(t, db.Create(&c).Error)
	require.NoError(t, identifier.Reserve(db, c.ShortCode, identifier.OwnerContract, c.ID))

	ic := iccontract.IcContract{
		ShortCode: "XYZ789", ConfigID: 1, EventID: 8, ApartmentTypeID: 1, ApartmentTypeName: "84A",
		CustomerName: "이고객", CustomerPhone: "010-0000-0000", Status: lifecycle.StatusSigned, TotalAmount: 1_500_000,
	}
	require.NoError(t, db.Create(&ic).Error)
	require.NoError(t, identifier.Reserve(db, ic.ShortCode, identifier.OwnerIcContract, ic.ID))
	return db
}

func TestByCode(t *testing.T) {
	h := NewHandler(seed(t))
	h.Now = func() time.Time { return expiresAt.Add(-time.Hour) }
	ctx := context.Background()

	v, err := h.ByCode(ctx, " abc234 ")
	require.NoError(t, err)
	assert.Equal(t, KindContract, v.Kind)
	assert.Equal(t, "발코니 시공 계약서", v.Name)
	assert.Equal(t, uint(7), v.EventID)
	assert.False(t, v.Expired)

	v, err = h.ByCode(ctx, "xyz789")
	require.NoError(t, err)
	assert.Equal(t, View{Kind: KindIcContract, ID: v.ID, Status: lifecycle.StatusSigned, EventID: 8, Name: "84A"}, *v)

	_, err = h.ByCode(ctx, "NOPE22")
	var nf *apperr.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestLookupRoutesHideCustomerData(t *testing.T) {
	h := NewHandler(seed(t))
	h.Now = func() time.Time { return expiresAt.Add(time.Minute) }
	r := mux.NewRouter()
	r.HandleFunc("/public/codes/{code}", h.LookupCode).Methods(http.MethodGet)
	r.HandleFunc("/public/qr/{token}", h.LookupQR).Methods(http.MethodGet)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/public/qr/qr-token-1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "김고객")
	assert.NotContains(t, rec.Body.String(), "010-1234-5678")
	var v View
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	assert.True(t, v.Expired)
	assert.Equal(t, lifecycle.StatusPending, v.Status)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/public/qr/unknown", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/public/codes/xyz789", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "이고객")
}
