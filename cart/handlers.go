package cart

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"mithai/models"
	"mithai/store"
	"mithai/utils"

	"github.com/julienschmidt/httprouter"
)

// Handler serves both cart flavors. Customer routes derive the owner
// key from the authenticated principal; agent routes name a virtual
// customer and are checked for ownership before the engine runs.
type Handler struct {
	engine *Engine
	store  store.Store
}

func NewHandler(st store.Store) *Handler {
	return &Handler{engine: NewEngine(st), store: st}
}

func requestCtx(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), 10*time.Second)
}

// --- customer cart ---

func (h *Handler) AddToCart(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := requestCtx(r)
	defer cancel()

	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	qty, err := h.engine.AddOrIncrement(ctx, models.AccountOwner(userID), ps.ByName("itemid"))
	if err != nil {
		log.Println("AddToCart error:", err)
		utils.RespondWithDomainError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, utils.M{"status": "added", "quantity": qty})
}

func (h *Handler) DecreaseItem(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := requestCtx(r)
	defer cancel()

	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	qty, err := h.engine.Decrement(ctx, models.AccountOwner(userID), ps.ByName("itemid"))
	if err != nil {
		log.Println("DecreaseItem error:", err)
		utils.RespondWithDomainError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"status": "decreased", "quantity": qty})
}

func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := requestCtx(r)
	defer cancel()

	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := h.engine.Remove(ctx, models.AccountOwner(userID), ps.ByName("itemid")); err != nil {
		log.Println("RemoveItem error:", err)
		utils.RespondWithDomainError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"status": "removed"})
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := requestCtx(r)
	defer cancel()

	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	entries, err := h.engine.List(ctx, models.AccountOwner(userID))
	if err != nil {
		log.Println("GetCart error:", err)
		utils.RespondWithDomainError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, entries)
}

// --- agent-managed cart ---

// agentOwner resolves the :customerid param to a virtual customer and
// verifies the calling agent owns it. Fails closed before any engine
// call runs.
func (h *Handler) agentOwner(ctx context.Context, r *http.Request, ps httprouter.Params) (models.OwnerKey, error) {
	agentID := utils.GetUserIDFromRequest(r)
	if agentID == "" {
		return models.OwnerKey{}, models.ErrForbidden
	}
	customerID := ps.ByName("customerid")
	if customerID == "" {
		return models.OwnerKey{}, models.Invalid("customerId", "missing customer identifier")
	}
	vc, err := h.store.VirtualCustomer(ctx, customerID)
	if err != nil {
		return models.OwnerKey{}, err
	}
	if vc.AgentID != agentID {
		return models.OwnerKey{}, models.ErrForbidden
	}
	return models.VirtualOwner(vc.CustomerID), nil
}

func (h *Handler) AgentAddToCart(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := requestCtx(r)
	defer cancel()

	owner, err := h.agentOwner(ctx, r, ps)
	if err != nil {
		utils.RespondWithDomainError(w, err)
		return
	}

	qty, err := h.engine.AddOrIncrement(ctx, owner, ps.ByName("itemid"))
	if err != nil {
		log.Println("AgentAddToCart error:", err)
		utils.RespondWithDomainError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, utils.M{"status": "added", "quantity": qty})
}

func (h *Handler) AgentDecreaseItem(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := requestCtx(r)
	defer cancel()

	owner, err := h.agentOwner(ctx, r, ps)
	if err != nil {
		utils.RespondWithDomainError(w, err)
		return
	}

	qty, err := h.engine.Decrement(ctx, owner, ps.ByName("itemid"))
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			log.Println("AgentDecreaseItem error:", err)
		}
		utils.RespondWithDomainError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"status": "decreased", "quantity": qty})
}

func (h *Handler) AgentRemoveItem(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := requestCtx(r)
	defer cancel()

	owner, err := h.agentOwner(ctx, r, ps)
	if err != nil {
		utils.RespondWithDomainError(w, err)
		return
	}

	if err := h.engine.Remove(ctx, owner, ps.ByName("itemid")); err != nil {
		log.Println("AgentRemoveItem error:", err)
		utils.RespondWithDomainError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"status": "removed"})
}

func (h *Handler) AgentGetCart(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := requestCtx(r)
	defer cancel()

	owner, err := h.agentOwner(ctx, r, ps)
	if err != nil {
		utils.RespondWithDomainError(w, err)
		return
	}

	entries, err := h.engine.List(ctx, owner)
	if err != nil {
		log.Println("AgentGetCart error:", err)
		utils.RespondWithDomainError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, entries)
}
