package identity

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"

	"mithai/models"
	"mithai/utils"
)

// CreateVirtualCustomer adds an offline customer to the calling
// agent's book.
func (h *Handler) CreateVirtualCustomer(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := requestCtx(r)
	defer cancel()

	agentID := utils.GetUserIDFromRequest(r)
	if agentID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var input struct {
		Name    string `json:"name"`
		Phone   string `json:"phone"`
		Address string `json:"address"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid input", http.StatusBadRequest)
		return
	}
	if input.Name == "" || input.Phone == "" {
		http.Error(w, "Name and phone are required", http.StatusBadRequest)
		return
	}

	vc := models.VirtualCustomer{
		CustomerID: uuid.NewString(),
		AgentID:    agentID,
		Name:       input.Name,
		Phone:      input.Phone,
		Address:    input.Address,
		CreatedAt:  time.Now(),
	}
	if err := h.store.InsertVirtualCustomer(ctx, vc); err != nil {
		log.Println("CreateVirtualCustomer error:", err)
		utils.RespondWithDomainError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, vc)
}

// ListVirtualCustomers returns the calling agent's customers.
func (h *Handler) ListVirtualCustomers(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := requestCtx(r)
	defer cancel()

	agentID := utils.GetUserIDFromRequest(r)
	if agentID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	customers, err := h.store.VirtualCustomers(ctx, agentID)
	if err != nil {
		log.Println("ListVirtualCustomers error:", err)
		utils.RespondWithDomainError(w, err)
		return
	}
	if customers == nil {
		customers = []models.VirtualCustomer{}
	}
	utils.RespondWithJSON(w, http.StatusOK, customers)
}
