package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mithai/memstore"
	"mithai/middleware"
	"mithai/models"
)

func TestRegisterAccountHashesPassword(t *testing.T) {
	st := memstore.New()
	ctx := context.Background()

	acct, err := RegisterAccount(ctx, st, "Asha", "9876543210", "s3cret!", models.RoleCustomer)
	require.NoError(t, err)
	assert.NotEmpty(t, acct.AccountID)
	assert.Equal(t, models.RoleCustomer, acct.Role)
	assert.NotEqual(t, "s3cret!", acct.PasswordHash)
	assert.True(t, strings.HasPrefix(acct.PasswordHash, "$2"), "password stored as bcrypt hash")
}

func TestRegisterAccountValidation(t *testing.T) {
	st := memstore.New()
	ctx := context.Background()

	_, err := RegisterAccount(ctx, st, "", "9876543210", "s3cret!", models.RoleCustomer)
	assert.True(t, models.IsValidation(err))

	_, err = RegisterAccount(ctx, st, "Asha", "", "s3cret!", models.RoleCustomer)
	assert.True(t, models.IsValidation(err))

	_, err = RegisterAccount(ctx, st, "Asha", "9876543210", "short", models.RoleCustomer)
	assert.True(t, models.IsValidation(err))
}

func TestRegisterDuplicatePhone(t *testing.T) {
	st := memstore.New()
	ctx := context.Background()

	_, err := RegisterAccount(ctx, st, "Asha", "9876543210", "s3cret!", models.RoleCustomer)
	require.NoError(t, err)

	_, err = RegisterAccount(ctx, st, "Meera", "9876543210", "s3cret!", models.RoleCustomer)
	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestAuthenticate(t *testing.T) {
	st := memstore.New()
	ctx := context.Background()

	_, err := RegisterAccount(ctx, st, "Asha", "9876543210", "s3cret!", models.RoleCustomer)
	require.NoError(t, err)

	acct, err := Authenticate(ctx, st, "9876543210", "s3cret!")
	require.NoError(t, err)
	assert.Equal(t, "Asha", acct.Name)

	_, err = Authenticate(ctx, st, "9876543210", "wrong")
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)

	// unknown phone reports the same error as a wrong password
	_, err = Authenticate(ctx, st, "0000000000", "s3cret!")
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)
}

func TestRegisterAndLoginHandlers(t *testing.T) {
	st := memstore.New()
	h := NewHandler(st, nil)

	body := `{"name":"Asha","phone":"9876543210","password":"s3cret!"}`
	r := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.Register(w, r, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var reg struct {
		Data map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reg))
	assert.NotEmpty(t, reg.Data["token"], "registration auto-logs-in")
	assert.Equal(t, models.RoleCustomer, reg.Data["role"])

	// duplicate phone
	r = httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(body))
	w = httptest.NewRecorder()
	h.Register(w, r, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	// login
	r = httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"phone":"9876543210","password":"s3cret!"}`))
	w = httptest.NewRecorder()
	h.Login(w, r, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var login struct {
		Data map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	token := login.Data["token"]
	require.NotEmpty(t, token)

	claims, err := middleware.ValidateJWT("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, login.Data["accountId"], claims.AccountID)

	// wrong password
	r = httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"phone":"9876543210","password":"nope"}`))
	w = httptest.NewRecorder()
	h.Login(w, r, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginTouchesLastLogin(t *testing.T) {
	st := memstore.New()
	h := NewHandler(st, nil)
	ctx := context.Background()

	acct, err := RegisterAccount(ctx, st, "Asha", "9876543210", "s3cret!", models.RoleCustomer)
	require.NoError(t, err)
	require.True(t, acct.LastLogin.IsZero())

	r := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"phone":"9876543210","password":"s3cret!"}`))
	w := httptest.NewRecorder()
	h.Login(w, r, nil)
	require.Equal(t, http.StatusOK, w.Code)

	after, err := st.Account(ctx, acct.AccountID)
	require.NoError(t, err)
	assert.False(t, after.LastLogin.IsZero())
}
