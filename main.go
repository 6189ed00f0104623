package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mithai/db"
	"mithai/live"
	"mithai/memstore"
	"mithai/mongostore"
	"mithai/ratelim"
	"mithai/routes"
	"mithai/rdx"
	"mithai/store"

	"github.com/joho/godotenv"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
)

// securityHeaders applies a set of recommended HTTP security headers.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "frame-ancestors 'none'")
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, private")
		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs each request method, path, remote address, and duration.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s from %s - %v", r.Method, r.RequestURI, r.RemoteAddr, time.Since(start))
	})
}

// Index is a simple health check handler.
func Index(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	fmt.Fprint(w, "200")
}

func setupRouter(d *routes.Deps) *httprouter.Router {
	router := httprouter.New()
	router.GET("/health", Index)

	routes.AddAuthRoutes(router, d)
	routes.AddCatalogRoutes(router, d)
	routes.AddCartRoutes(router, d)
	routes.AddCheckoutRoutes(router, d)
	routes.AddAgentRoutes(router, d)
	routes.AddAdminRoutes(router, d)
	routes.AddStaticRoutes(router)

	return router
}

// openStore picks the backing store. MITHAI_STORE=memory runs fully
// in-process for local development.
func openStore(ctx context.Context) (store.Store, error) {
	if os.Getenv("MITHAI_STORE") == "memory" {
		log.Println("Using in-memory store")
		return memstore.New(), nil
	}

	client, err := db.Connect(ctx, os.Getenv("MONGO_URI"))
	if err != nil {
		return nil, err
	}
	st := mongostore.New(client, envOr("MONGO_DB", "mithai"))
	if err := st.EnsureIndexes(ctx); err != nil {
		return nil, err
	}
	return st, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	// load .env if present
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found; using system environment")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = ":8080"
	} else if port[0] != ':' {
		port = ":" + port
	}

	ctx := context.Background()
	st, err := openStore(ctx)
	if err != nil {
		log.Fatalf("store init: %v", err)
	}

	cache := rdx.Open(os.Getenv("REDIS_ADDR"))
	if cache == nil {
		log.Println("REDIS_ADDR not set; running without cache or live feed")
	}

	hub := live.NewHub()
	go hub.Run()

	// relay committed order events into the admin live feed
	relayCtx, stopRelay := context.WithCancel(ctx)
	go func() {
		for data := range cache.SubscribeOrders(relayCtx) {
			hub.Broadcast(data)
		}
	}()

	deps := &routes.Deps{
		Store:   st,
		Cache:   cache,
		Hub:     hub,
		Limiter: ratelim.NewRateLimiter(),
	}
	router := setupRouter(deps)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"}, // lock down in production
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(router)

	handler := loggingMiddleware(securityHeaders(corsHandler))

	server := &http.Server{
		Addr:              port,
		Handler:           handler,
		ReadTimeout:       7 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}

	server.RegisterOnShutdown(func() {
		log.Println("Shutting down live feed...")
		stopRelay()
		hub.Stop()
	})

	go func() {
		log.Printf("Server listening on %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutdown signal received; shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Graceful shutdown failed: %v", err)
	}

	if err := st.Close(shutdownCtx); err != nil {
		log.Printf("store close: %v", err)
	}
	if err := cache.Close(); err != nil {
		log.Printf("redis close: %v", err)
	}

	log.Println("Server stopped cleanly")
}
