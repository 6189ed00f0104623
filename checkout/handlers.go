package checkout

import (
	"context"
	"log"
	"net/http"
	"time"

	"mithai/models"
	"mithai/store"
	"mithai/utils"

	"github.com/julienschmidt/httprouter"
)

// Publisher receives the lines of a committed checkout, after the
// transaction. Delivery is best-effort; a lost event never fails an
// order.
type Publisher interface {
	PublishOrder(ctx context.Context, lines []models.OrderLine)
}

type Handler struct {
	manager *Manager
	store   store.Store
	events  Publisher // may be nil
}

func NewHandler(st store.Store, events Publisher) *Handler {
	return &Handler{manager: NewManager(st), store: st, events: events}
}

func requestCtx(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), 15*time.Second)
}

func (h *Handler) respond(w http.ResponseWriter, ctx context.Context, res *Result) {
	if res.Empty {
		utils.RespondWithJSON(w, http.StatusOK, utils.M{"status": "empty_cart"})
		return
	}
	if h.events != nil {
		h.events.PublishOrder(ctx, res.Lines)
	}
	utils.RespondWithJSON(w, http.StatusCreated, utils.M{"status": "ordered", "lines": res.Lines})
}

// SelfCheckout drains the calling customer's own cart.
func (h *Handler) SelfCheckout(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := requestCtx(r)
	defer cancel()

	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	res, err := h.manager.Checkout(ctx, models.AccountOwner(userID), "")
	if err != nil {
		log.Println("SelfCheckout error:", err)
		utils.RespondWithDomainError(w, err)
		return
	}
	h.respond(w, ctx, res)
}

// AgentCheckout drains a virtual customer's cart on behalf of the
// owning agent, recording the agent on every order line.
func (h *Handler) AgentCheckout(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := requestCtx(r)
	defer cancel()

	agentID := utils.GetUserIDFromRequest(r)
	if agentID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	vc, err := h.store.VirtualCustomer(ctx, ps.ByName("customerid"))
	if err != nil {
		utils.RespondWithDomainError(w, err)
		return
	}
	if vc.AgentID != agentID {
		utils.RespondWithDomainError(w, models.ErrForbidden)
		return
	}

	res, err := h.manager.Checkout(ctx, models.VirtualOwner(vc.CustomerID), agentID)
	if err != nil {
		log.Println("AgentCheckout error:", err)
		utils.RespondWithDomainError(w, err)
		return
	}
	h.respond(w, ctx, res)
}
