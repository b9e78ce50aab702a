package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHMACVerifierRoundTrip(t *testing.T) {
	v, err := NewHMACVerifier("test-secret")
	require.NoError(t, err)

	token, err := v.GenerateToken(Principal{ID: 7, Role: RolePartner, Name: "한빛인테리어"}, time.Minute)
	require.NoError(t, err)

	p, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, Principal{ID: 7, Role: RolePartner, Name: "한빛인테리어"}, p)
}

func TestHMACVerifierRejectsForeignAndExpiredTokens(t *testing.T) {
	v, _ := NewHMACVerifier("test-secret")
	other, _ := NewHMACVerifier("other-secret")

	token, err := other.GenerateToken(Principal{ID: 1, Role: RoleCustomer}, time.Minute)
	require.NoError(t, err)
	_, err = v.Verify(token)
	assert.Error(t, err)

	expired, err := v.GenerateToken(Principal{ID: 1, Role: RoleCustomer}, -time.Minute)
	require.NoError(t, err)
	_, err = v.Verify(expired)
	assert.Error(t, err)

	_, err = NewHMACVerifier("")
	assert.Error(t, err)
}

func TestHMACVerifierRejectsUnknownRole(t *testing.T) {
	v, _ := NewHMACVerifier("test-secret")
	token, err := v.GenerateToken(Principal{ID: 1, Role: "superuser"}, time.Minute)
	require.NoError(t, err)
	_, err = v.Verify(token)
	assert.Error(t, err)
}

func TestClaimsToPrincipal(t *testing.T) {
	p, err := claimsToPrincipal(CognitoClaims{UserID: "42", Role: "organizer", Username: "kim"})
	require.NoError(t, err)
	assert.Equal(t, Principal{ID: 42, Role: RoleOrganizer, Name: "kim"}, p)

	_, err = claimsToPrincipal(CognitoClaims{UserID: "abc", Role: "organizer"})
	assert.Error(t, err)
}

func TestMiddlewareAndRequireRole(t *testing.T) {
	v, _ := NewHMACVerifier("test-secret")
	var seen Principal
	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = FromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	h := Middleware(v)(RequireRole(RoleOrganizer)(final))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	partner, _ := v.GenerateToken(Principal{ID: 2, Role: RolePartner}, time.Minute)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+partner)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	organizer, _ := v.GenerateToken(Principal{ID: 3, Role: RoleOrganizer}, time.Minute)
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+organizer)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, uint(3), seen.ID)

	admin, _ := v.GenerateToken(Principal{ID: 4, Role: RoleAdmin}, time.Minute)
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+admin)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
