package checkout

import (
	"context"
	"log"
	"net/http"

	"mithai/models"
	"mithai/utils"

	"github.com/julienschmidt/httprouter"
)

// MyOrders returns the calling customer's order history, newest first.
func (h *Handler) MyOrders(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := requestCtx(r)
	defer cancel()

	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	lines, err := h.store.OrderLines(ctx, models.AccountOwner(userID))
	if err != nil {
		log.Println("MyOrders error:", err)
		utils.RespondWithDomainError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, lines)
}

// AgentCustomerOrders returns one virtual customer's history for the
// owning agent.
func (h *Handler) AgentCustomerOrders(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := requestCtx(r)
	defer cancel()

	agentID := utils.GetUserIDFromRequest(r)
	vc, err := h.store.VirtualCustomer(ctx, ps.ByName("customerid"))
	if err != nil {
		utils.RespondWithDomainError(w, err)
		return
	}
	if vc.AgentID != agentID {
		utils.RespondWithDomainError(w, models.ErrForbidden)
		return
	}

	lines, err := h.store.OrderLines(ctx, models.VirtualOwner(vc.CustomerID))
	if err != nil {
		log.Println("AgentCustomerOrders error:", err)
		utils.RespondWithDomainError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, lines)
}

// adminOrderRow is an order line joined with the customer's name for
// the admin dashboard.
type adminOrderRow struct {
	models.OrderLine
	CustomerName string `json:"customerName"`
}

// AdminOrders lists every order line with customer names resolved.
func (h *Handler) AdminOrders(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := requestCtx(r)
	defer cancel()

	lines, err := h.store.AllOrderLines(ctx)
	if err != nil {
		log.Println("AdminOrders error:", err)
		utils.RespondWithDomainError(w, err)
		return
	}

	names := make(map[models.OwnerKey]string)
	rows := make([]adminOrderRow, 0, len(lines))
	for _, ln := range lines {
		name, ok := names[ln.Owner]
		if !ok {
			name = h.ownerName(ctx, ln.Owner)
			names[ln.Owner] = name
		}
		rows = append(rows, adminOrderRow{OrderLine: ln, CustomerName: name})
	}
	utils.RespondWithJSON(w, http.StatusOK, rows)
}

func (h *Handler) ownerName(ctx context.Context, owner models.OwnerKey) string {
	switch owner.Kind {
	case models.OwnerAccount:
		if acct, err := h.store.Account(ctx, owner.ID); err == nil {
			return acct.Name
		}
	case models.OwnerVirtual:
		if vc, err := h.store.VirtualCustomer(ctx, owner.ID); err == nil {
			return vc.Name
		}
	}
	return "(unknown)"
}
