package main

import (
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"gorm.io/gorm/logger"
)

func main() {
	loadDotenv()
	mustCheckEnv()
	cfg := loadConfig()

	// Quieter GORM logger
	gLogger := logger.New(
		log.New(os.Stdout, "", log.LstdFlags),
		logger.Config{
			SlowThreshold: 1500 * time.Millisecond,
			LogLevel:      logger.Warn,
			Colorful:      true,
		},
	)

	db, err := openDB(cfg, gLogger)
	if err != nil {
		log.Fatalf("[DB] connect failed: %v", err)
	}
	if err := autoMigrate(db); err != nil {
		log.Fatalf("[DB] migrate failed: %v", err)
	}

	a := newAPI(db, cfg)

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           a.routes(cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Println("[api] listening on", addr, "CORS_ORIGIN:", cfg.CORSOrigin)
	log.Fatal(srv.ListenAndServe())
}

func (a *api) routes(cfg Config) http.Handler {
	r := chi.NewRouter()

	// allow comma-separated list of origins
	var origins []string
	for _, p := range strings.Split(cfg.CORSOrigin, ",") {
		if o := strings.TrimRight(strings.TrimSpace(p), "/"); o != "" {
			origins = append(origins, o)
		}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	// Finish bare OPTIONS quickly
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if req.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, req)
		})
	})

	// Auth (public)
	r.Post("/api/auth/register", a.handleRegister)
	r.Post("/api/auth/login", a.handleLogin)
	r.Post("/api/auth/logout", a.handleLogout)

	// Everything below resolves the bearer token first.
	r.Group(func(r chi.Router) {
		r.Use(a.requireUser)

		r.Get("/api/auth/me", a.handleMe)
		r.Put("/api/auth/me", a.handleUpdateMe)
		r.Delete("/api/auth/me", a.handleDeleteMe)

		r.Route("/api/expenses", func(r chi.Router) {
			r.Post("/", a.handleCreateExpense)
			r.Get("/", a.handleListExpenses)
			r.Get("/statistics", a.handleExpenseStatistics)
			r.Get("/recent/week", a.handleRecentExpenses(7))
			r.Get("/recent/month", a.handleRecentExpenses(30))
			r.Get("/{id}", a.handleGetExpense)
			r.Put("/{id}", a.handleUpdateExpense)
			r.Delete("/{id}", a.handleDeleteExpense)
		})

		r.Route("/api/budgets", func(r chi.Router) {
			r.Post("/", a.handleCreateBudget)
			r.Get("/", a.handleListBudgets)
			r.Get("/{id}", a.handleGetBudget)
			r.Put("/{id}", a.handleUpdateBudget)
			r.Delete("/{id}", a.handleDeleteBudget)
		})
	})

	// Health
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":  "healthy",
			"service": "AI Expense Tracker",
			"version": "1.0.0",
		})
	})

	return r
}
