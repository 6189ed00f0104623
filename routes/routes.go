package routes

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"mithai/cart"
	"mithai/catalog"
	"mithai/checkout"
	"mithai/identity"
	"mithai/live"
	"mithai/middleware"
	"mithai/models"
	"mithai/ratelim"
	"mithai/rdx"
	"mithai/store"
)

// Deps carries the injected handles every route group needs.
type Deps struct {
	Store   store.Store
	Cache   *rdx.Cache
	Hub     *live.Hub
	Limiter *ratelim.RateLimiter
}

func AddStaticRoutes(router *httprouter.Router) {
	router.ServeFiles("/static/itempic/*filepath", http.Dir("static/itempic"))
}

func AddAuthRoutes(router *httprouter.Router, d *Deps) {
	h := identity.NewHandler(d.Store, d.Cache)
	router.POST("/api/auth/register", d.Limiter.Limit(h.Register))
	router.POST("/api/auth/login", d.Limiter.Limit(h.Login))
	router.POST("/api/auth/logout", middleware.Authenticate(h.Logout))
	router.GET("/api/auth/me", middleware.Authenticate(h.Me))
}

func AddCatalogRoutes(router *httprouter.Router, d *Deps) {
	h := catalog.NewHandler(d.Store, d.Cache)
	router.GET("/api/items", h.ListItems)
	router.GET("/api/items/:itemid", h.GetItem)
}

func AddCartRoutes(router *httprouter.Router, d *Deps) {
	h := cart.NewHandler(d.Store)
	router.GET("/api/cart", middleware.Authenticate(h.GetCart))
	router.POST("/api/cart/items/:itemid", d.Limiter.Limit(middleware.Authenticate(h.AddToCart)))
	router.POST("/api/cart/items/:itemid/decrease", middleware.Authenticate(h.DecreaseItem))
	router.DELETE("/api/cart/items/:itemid", middleware.Authenticate(h.RemoveItem))
}

func AddCheckoutRoutes(router *httprouter.Router, d *Deps) {
	h := checkout.NewHandler(d.Store, d.Cache)
	router.POST("/api/checkout", d.Limiter.Limit(middleware.Authenticate(h.SelfCheckout)))
	router.GET("/api/orders", middleware.Authenticate(h.MyOrders))
	router.GET("/api/orders/receipt", middleware.Authenticate(h.Receipt))
}

func AddAgentRoutes(router *httprouter.Router, d *Deps) {
	agent := func(next httprouter.Handle) httprouter.Handle {
		return middleware.Authenticate(middleware.RequireRole(models.RoleAgent, next))
	}

	ih := identity.NewHandler(d.Store, d.Cache)
	router.GET("/api/agent/customers", agent(ih.ListVirtualCustomers))
	router.POST("/api/agent/customers", agent(ih.CreateVirtualCustomer))

	ch := cart.NewHandler(d.Store)
	router.GET("/api/agent/customers/:customerid/cart", agent(ch.AgentGetCart))
	router.POST("/api/agent/customers/:customerid/cart/items/:itemid", agent(ch.AgentAddToCart))
	router.POST("/api/agent/customers/:customerid/cart/items/:itemid/decrease", agent(ch.AgentDecreaseItem))
	router.DELETE("/api/agent/customers/:customerid/cart/items/:itemid", agent(ch.AgentRemoveItem))

	oh := checkout.NewHandler(d.Store, d.Cache)
	router.POST("/api/agent/customers/:customerid/checkout", agent(oh.AgentCheckout))
	router.GET("/api/agent/customers/:customerid/orders", agent(oh.AgentCustomerOrders))
}

func AddAdminRoutes(router *httprouter.Router, d *Deps) {
	admin := func(next httprouter.Handle) httprouter.Handle {
		return middleware.Authenticate(middleware.RequireRole(models.RoleAdmin, next))
	}

	ch := catalog.NewHandler(d.Store, d.Cache)
	router.POST("/api/admin/items", admin(ch.CreateItem))
	router.DELETE("/api/admin/items/:itemid", admin(ch.DeleteItem))

	ih := identity.NewHandler(d.Store, d.Cache)
	router.POST("/api/admin/agents", admin(ih.CreateAgent))

	oh := checkout.NewHandler(d.Store, d.Cache)
	router.GET("/api/admin/orders", admin(oh.AdminOrders))

	router.GET("/api/admin/orders/live", admin(live.ServeWS(d.Hub)))
}
