package commission

import (
	"context"
	"testing"

	"github.com/eventcontract/contract-api/internal/activitylog"
	"github.com/eventcontract/contract-api/internal/apperr"
	"github.com/eventcontract/contract-api/internal/auth"
	"github.com/eventcontract/contract-api/internal/catalog"
	"github.com/eventcontract/contract-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetRatesUpsertsPerSheet(t *testing.T) {
	db := testutil.NewDB(t, append(catalog.Models(), &Rate{})...)
	cfg := catalog.IcConfig{EventID: 1, OrganizerID: 5, Status: catalog.StatusActive}
	require.NoError(t, db.Create(&cfg).Error)
	other := catalog.IcConfig{EventID: 2, OrganizerID: 5}
	require.NoError(t, db.Create(&other).Error)
	s1 := catalog.IcPartnerSheet{ConfigID: cfg.ID, PartnerID: 1, CategoryName: "A", PartnerName: "a"}
	s2 := catalog.IcPartnerSheet{ConfigID: cfg.ID, PartnerID: 2, CategoryName: "B", PartnerName: "b"}
	foreign := catalog.IcPartnerSheet{ConfigID: other.ID, PartnerID: 3, CategoryName: "C", PartnerName: "c"}
	require.NoError(t, db.Create(&[]*catalog.IcPartnerSheet{&s1, &s2, &foreign}).Error)

	log := &activitylog.Memory{}
	h := NewHandler(NewRepository(db), log)
	ctx := context.Background()
	organizer := auth.Principal{ID: 5, Role: auth.RoleOrganizer}

	rates, err := h.SetRates(ctx, organizer, cfg.ID, []RateInput{{SheetID: s1.ID, Rate: 10}, {SheetID: s2.ID, Rate: 5}})
	require.NoError(t, err)
	assert.Len(t, rates, 2)

	rates, err = h.SetRates(ctx, organizer, cfg.ID, []RateInput{{SheetID: s1.ID, Rate: 12.5}})
	require.NoError(t, err)
	require.Len(t, rates, 2)

	m, err := NewRepository(db).RateMap(cfg.ID)
	require.NoError(t, err)
	assert.Equal(t, map[uint]float64{s1.ID: 12.5, s2.ID: 5}, m)

	_, err = h.SetRates(ctx, organizer, cfg.ID, []RateInput{{SheetID: foreign.ID, Rate: 1}})
	var validation *apperr.ValidationError
	assert.ErrorAs(t, err, &validation)

	_, err = h.SetRates(ctx, auth.Principal{ID: 6, Role: auth.RoleOrganizer}, cfg.ID, []RateInput{{SheetID: s1.ID, Rate: 1}})
	var forbidden *apperr.ForbiddenError
	assert.ErrorAs(t, err, &forbidden)

	assert.Equal(t, []string{"commission.rates", "commission.rates"}, log.Actions())
}

func TestRatesAreVisibleOnlyToOwningOrganizer(t *testing.T) {
	db := testutil.NewDB(t, append(catalog.Models(), &Rate{})...)
	cfg := catalog.IcConfig{EventID: 1, OrganizerID: 5}
	require.NoError(t, db.Create(&cfg).Error)
	sheet := catalog.IcPartnerSheet{ConfigID: cfg.ID, PartnerID: 1, CategoryName: "A", PartnerName: "a"}
	require.NoError(t, db.Create(&sheet).Error)

	h := NewHandler(NewRepository(db), nil)
	ctx := context.Background()
	_, err := h.SetRates(ctx, auth.Principal{ID: 5, Role: auth.RoleOrganizer}, cfg.ID, []RateInput{{SheetID: sheet.ID, Rate: 8}})
	require.NoError(t, err)

	rates, err := h.Rates(ctx, auth.Principal{ID: 5, Role: auth.RoleOrganizer}, cfg.ID)
	require.NoError(t, err)
	require.Len(t, rates, 1)
	assert.Equal(t, 8.0, rates[0].Rate)

	rates, err = h.Rates(ctx, auth.Principal{ID: 99, Role: auth.RoleAdmin}, cfg.ID)
	require.NoError(t, err)
	assert.Len(t, rates, 1)

	_, err = h.Rates(ctx, auth.Principal{ID: 6, Role: auth.RoleOrganizer}, cfg.ID)
	var forbidden *apperr.ForbiddenError
	assert.ErrorAs(t, err, &forbidden)

	_, err = h.Rates(ctx, auth.Principal{ID: 6, Role: auth.RoleOrganizer}, cfg.ID+100)
	var notFound *apperr.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}
