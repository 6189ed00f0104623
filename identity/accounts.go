// Package identity owns accounts, login, and the virtual customers
// agents manage. Credentials are bcrypt-hashed; comparison runs in
// constant time inside bcrypt itself.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
	"golang.org/x/crypto/bcrypt"

	"mithai/middleware"
	"mithai/models"
	"mithai/rdx"
	"mithai/store"
	"mithai/utils"
)

const tokenTTL = 12 * time.Hour

type Handler struct {
	store store.Store
	cache *rdx.Cache // may be nil
}

func NewHandler(st store.Store, cache *rdx.Cache) *Handler {
	return &Handler{store: st, cache: cache}
}

func requestCtx(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), 10*time.Second)
}

// RegisterAccount creates an account. RegisterAccount always assigns the
// customer role; agents and admins are provisioned separately.
func RegisterAccount(ctx context.Context, st store.Store, name, phone, password, role string) (models.Account, error) {
	if name == "" {
		return models.Account{}, models.Invalid("name", "missing")
	}
	if phone == "" {
		return models.Account{}, models.Invalid("phone", "missing")
	}
	if len(password) < 6 {
		return models.Account{}, models.Invalid("password", "must be at least 6 characters")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.Account{}, err
	}

	acct := models.Account{
		AccountID:    uuid.NewString(),
		Name:         name,
		Phone:        phone,
		PasswordHash: string(hashed),
		Role:         role,
		CreatedAt:    time.Now(),
	}
	if err := st.InsertAccount(ctx, acct); err != nil {
		return models.Account{}, err
	}
	return acct, nil
}

// Authenticate verifies phone + password and returns the account.
func Authenticate(ctx context.Context, st store.Store, phone, password string) (models.Account, error) {
	acct, err := st.AccountByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.Account{}, models.ErrInvalidCredentials
		}
		return models.Account{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)); err != nil {
		return models.Account{}, models.ErrInvalidCredentials
	}
	return acct, nil
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := requestCtx(r)
	defer cancel()

	var input struct {
		Name     string `json:"name"`
		Phone    string `json:"phone"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid input", http.StatusBadRequest)
		return
	}

	acct, err := RegisterAccount(ctx, h.store, input.Name, input.Phone, input.Password, models.RoleCustomer)
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			utils.RespondWithError(w, http.StatusConflict, "Account with this phone already exists")
			return
		}
		log.Println("Register error:", err)
		utils.RespondWithDomainError(w, err)
		return
	}

	// Auto-login after registration, matching the storefront flow.
	token, err := middleware.NewToken(acct.AccountID, acct.Name, acct.Role, tokenTTL)
	if err != nil {
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}
	h.cache.TokenSet(ctx, acct.AccountID, token)

	utils.SendResponse(w, http.StatusCreated, map[string]string{
		"token":     token,
		"accountId": acct.AccountID,
		"role":      acct.Role,
	}, "Registration successful", nil)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := requestCtx(r)
	defer cancel()

	var input struct {
		Phone    string `json:"phone"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid input", http.StatusBadRequest)
		return
	}

	acct, err := Authenticate(ctx, h.store, input.Phone, input.Password)
	if err != nil {
		if errors.Is(err, models.ErrInvalidCredentials) {
			http.Error(w, "Invalid phone or password", http.StatusUnauthorized)
			return
		}
		log.Println("Login error:", err)
		utils.RespondWithDomainError(w, err)
		return
	}

	token, err := middleware.NewToken(acct.AccountID, acct.Name, acct.Role, tokenTTL)
	if err != nil {
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	if err := h.store.TouchLastLogin(ctx, acct.AccountID); err != nil {
		log.Println("Login last_login update:", err)
	}
	h.cache.TokenSet(ctx, acct.AccountID, token)

	utils.SendResponse(w, http.StatusOK, map[string]string{
		"token":     token,
		"accountId": acct.AccountID,
		"role":      acct.Role,
	}, "Login successful", nil)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := requestCtx(r)
	defer cancel()

	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	h.cache.TokenDel(ctx, userID)
	utils.SendResponse(w, http.StatusOK, nil, "Logged out", nil)
}

// Me returns the calling account without its credential hash.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := requestCtx(r)
	defer cancel()

	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	acct, err := h.store.Account(ctx, userID)
	if err != nil {
		utils.RespondWithDomainError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, acct)
}
