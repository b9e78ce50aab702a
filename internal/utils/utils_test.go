package utils

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/eventcontract/contract-api/internal/apperr"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomStringUsesAlphabet(t *testing.T) {
	s, err := RandomString("AB", 32)
	require.NoError(t, err)
	assert.Len(t, s, 32)
	assert.Empty(t, strings.Trim(s, "AB"))
}

func TestDigestIsStable(t *testing.T) {
	a, err := Digest(map[string]any{"contractId": 1, "signature": "data"})
	require.NoError(t, err)
	b, err := Digest(map[string]any{"signature": "data", "contractId": 1})
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.True(t, strings.HasPrefix(a, "blake2b:"))

	c, err := Digest(map[string]any{"contractId": 2, "signature": "data"})
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

type sample struct {
	Name  string  `json:"name" validate:"required"`
	Ratio float64 `json:"ratio" validate:"gte=0,lte=100"`
	Items []struct {
		SheetID uint `json:"sheetId" validate:"required"`
	} `json:"items" validate:"dive"`
}

func TestValidateReportsJSONFieldNames(t *testing.T) {
	s := sample{Ratio: 120}
	s.Items = append(s.Items, struct {
		SheetID uint `json:"sheetId" validate:"required"`
	}{})

	err := Validate(&s)
	require.Error(t, err)
	details := apperr.Details(err)
	assert.Equal(t, "required", details["name"])
	assert.Equal(t, "lte=100", details["ratio"])
	assert.Equal(t, "required", details["items[0].sheetId"])
}

func TestDecodeJSONRejectsMalformedBody(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{"))
	var s sample
	err := DecodeJSON(r, &s)
	assert.True(t, IsValidation(err))
}

func TestPathID(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/contracts/12", nil)
	r = mux.SetURLVars(r, map[string]string{"id": "12"})
	id, err := PathID(r, "id")
	require.NoError(t, err)
	assert.Equal(t, uint(12), id)

	r = mux.SetURLVars(r, map[string]string{"id": "abc"})
	_, err = PathID(r, "id")
	assert.True(t, IsValidation(err))
}

func TestWriteErrorHidesInternalMessages(t *testing.T) {
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	WriteError(rec, r, assert.AnError)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), assert.AnError.Error())

	rec = httptest.NewRecorder()
	WriteError(rec, r, apperr.Validation("seleção vazia"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "seleção vazia")
}
