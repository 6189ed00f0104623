package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mithai/models"
	"mithai/utils"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := NewToken("acct-1", "Asha", models.RoleCustomer, time.Hour)
	require.NoError(t, err)

	claims, err := ValidateJWT("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, "acct-1", claims.AccountID)
	assert.Equal(t, "Asha", claims.Name)
	assert.Equal(t, models.RoleCustomer, claims.Role)
}

func TestValidateJWTRejectsGarbage(t *testing.T) {
	_, err := ValidateJWT("")
	assert.Error(t, err)

	_, err = ValidateJWT("Bearer not-a-token")
	assert.Error(t, err)
}

func TestAuthenticateSetsPrincipal(t *testing.T) {
	token, err := NewToken("acct-1", "Asha", models.RoleAgent, time.Hour)
	require.NoError(t, err)

	var gotID, gotRole string
	handler := Authenticate(func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		gotID = utils.GetUserIDFromRequest(r)
		gotRole = utils.GetRoleFromRequest(r)
		w.WriteHeader(http.StatusOK)
	})

	r := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	handler(w, r, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "acct-1", gotID)
	assert.Equal(t, models.RoleAgent, gotRole)
}

func TestAuthenticateRejects(t *testing.T) {
	handler := Authenticate(func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		t.Fatal("handler must not run without a valid token")
	})

	cases := []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"malformed", "Token abc"},
		{"invalid", "Bearer not-a-token"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
			if tc.header != "" {
				r.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			handler(w, r, nil)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestAuthenticateRejectsExpired(t *testing.T) {
	token, err := NewToken("acct-1", "Asha", models.RoleCustomer, -time.Minute)
	require.NoError(t, err)

	handler := Authenticate(func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		t.Fatal("handler must not run with an expired token")
	})

	r := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	handler(w, r, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRole(t *testing.T) {
	wrapped := Authenticate(RequireRole(models.RoleAdmin, func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.WriteHeader(http.StatusOK)
	}))

	adminToken, err := NewToken("admin-1", "Root", models.RoleAdmin, time.Hour)
	require.NoError(t, err)
	custToken, err := NewToken("cust-1", "Asha", models.RoleCustomer, time.Hour)
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodGet, "/api/admin/orders", nil)
	r.Header.Set("Authorization", "Bearer "+adminToken)
	w := httptest.NewRecorder()
	wrapped(w, r, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	r = httptest.NewRequest(http.MethodGet, "/api/admin/orders", nil)
	r.Header.Set("Authorization", "Bearer "+custToken)
	w = httptest.NewRecorder()
	wrapped(w, r, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireRoleFailsClosedWithoutAuthenticate(t *testing.T) {
	// no Authenticate in front, so no role in context
	handler := RequireRole(models.RoleAdmin, func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		t.Fatal("handler must not run without a role in context")
	})

	r := httptest.NewRequest(http.MethodGet, "/api/admin/orders", nil)
	w := httptest.NewRecorder()
	handler(w, r, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
