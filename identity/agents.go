package identity

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"mithai/models"
	"mithai/utils"
)

// CreateAgent provisions a sales agent account. Admin only (enforced
// by the route). A random temporary password is generated and returned
// once; it is stored only as a bcrypt hash.
func (h *Handler) CreateAgent(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := requestCtx(r)
	defer cancel()

	var input struct {
		Name  string `json:"name"`
		Phone string `json:"phone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid input", http.StatusBadRequest)
		return
	}

	tempPassword := utils.GenerateRandomString(12)
	acct, err := RegisterAccount(ctx, h.store, input.Name, input.Phone, tempPassword, models.RoleAgent)
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			utils.RespondWithError(w, http.StatusConflict, "Agent with this phone already exists")
			return
		}
		log.Println("CreateAgent error:", err)
		utils.RespondWithDomainError(w, err)
		return
	}

	utils.SendResponse(w, http.StatusCreated, map[string]string{
		"accountId":    acct.AccountID,
		"tempPassword": tempPassword,
	}, "Agent created", nil)
}
