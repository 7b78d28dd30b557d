package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/viper"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/finanzas/backend/docs"
	"github.com/finanzas/backend/internal/database"
	"github.com/finanzas/backend/internal/handlers"
	mW "github.com/finanzas/backend/internal/middleware"
	"github.com/finanzas/backend/internal/services"
)

// @title Finanzas Personales API
// @version 1.0
// @description Ledger and credit facility engine for personal finance tracking
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

func main() {
	// Initialize config
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()
	viper.ReadInConfig()

	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.name", "DATABASE_NAME")
	viper.BindEnv("database.ssl_mode", "DATABASE_SSL_MODE")

	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")

	viper.BindEnv("jwt.secret_key", "JWT_SECRET_KEY")
	viper.BindEnv("schema.compras_diferidas", "SCHEMA_COMPRAS_DIFERIDAS")
	viper.SetDefault("schema.compras_diferidas", true)

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Config file not found, using defaults: %v", err)
	}

	docs.SwaggerInfo.Title = "Finanzas Personales API"
	docs.SwaggerInfo.Description = "Ledger and credit facility engine for personal finance tracking"
	docs.SwaggerInfo.Version = "1.0"
	docs.SwaggerInfo.Host = "localhost:8080"
	docs.SwaggerInfo.BasePath = "/api/v1"
	docs.SwaggerInfo.Schemes = []string{"http", "https"}

	db := database.InitDatabase()
	defer db.Close()

	redisClient := database.InitRedis()
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Engines. The type registry is built here and injected: it owns the
	// code -> id cache, there is no process-wide map.
	typeRegistry := services.NewTypeRegistry(db, redisClient)
	ledgerService := services.NewLedgerService(db, typeRegistry)
	creditService := services.NewCreditService(db, ledgerService, typeRegistry,
		viper.GetBool("schema.compras_diferidas"))
	loanService := services.NewLoanService(db, ledgerService, typeRegistry)
	queryService := services.NewQueryService(db)
	accountService := services.NewAccountService(db)

	transactionHandler := handlers.NewTransactionHandler(ledgerService, queryService)
	cardHandler := handlers.NewCardHandler(creditService, queryService)
	loanHandler := handlers.NewLoanHandler(loanService)
	accountHandler := handlers.NewAccountHandler(accountService)

	// Setup router
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("http://localhost:8080/swagger/doc.json"),
	))

	// API routes (all protected: every engine call needs a resolved owner)
	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(mW.AuthMiddleware)

			r.Post("/cuentas", accountHandler.CreateCuenta)
			r.Get("/cuentas", accountHandler.ListCuentas)

			r.Get("/transacciones", transactionHandler.ListTransacciones)
			r.Post("/transacciones", transactionHandler.CreateTransaccion)
			r.Put("/transacciones/{id}", transactionHandler.UpdateTransaccion)
			r.Delete("/transacciones/{id}", transactionHandler.DeleteTransaccion)
			r.Post("/transferencias", transactionHandler.CreateTransferencia)

			r.Post("/tarjetas/{id}/movimientos", cardHandler.CreateMovimiento)
			r.Get("/tarjetas/{id}/movimientos", cardHandler.ListMovimientos)
			r.Get("/tarjetas/{id}/compras", cardHandler.ListCompras)
			r.Post("/simulador/credito", cardHandler.SimularPlan)

			r.Post("/prestamos", loanHandler.CreatePrestamo)
			r.Post("/prestamos/{id}/abonos", loanHandler.CreateAbono)
		})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on :%s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server stopped")
}
