package main

import (
	"context" // context package is needed for Redis operations
	"log"     // log package is needed for logging

	"transacciones_api/internal/api"        // Custom package for API handlers
	"transacciones_api/internal/config"     // Custom package for configuration
	"transacciones_api/internal/middleware" // Custom package for middleware
	"transacciones_api/internal/store"      // Custom package for the store layer

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
	"gorm.io/driver/mysql"         // MySQL driver for GORM
	"gorm.io/gorm"                 // GORM ORM library
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration

	// Setup logger
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// Connect to the database
	db, err := gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}

	// Setup Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr, // Redis server address
		Password: cfg.RedisPass, // Redis password
		DB:       cfg.RedisDB,   // Redis database number
	})

	// Test Redis connection
	_, err = redisClient.Ping(context.Background()).Result()
	if err != nil {
		logrus.Fatalf("failed to connect to Redis: %v", err)
	}

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup Gin
	r := gin.Default() // Gin router instance

	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}

	users := store.NewUsers(db)        // User store over GORM
	txs := store.NewTransactions(db)   // Transaction store over GORM

	// Public auth routes
	r.POST("/register", api.RegisterHandler(users))               // Registration endpoint
	r.POST("/login", api.LoginHandler(users, cfg.JWTSecret))      // Login endpoint

	// Everything else requires a bearer token
	protected := r.Group("/")
	protected.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret, redisClient))

	protected.POST("/logout", api.LogoutHandler(redisClient)) // Token revocation endpoint

	// User CRUD
	protected.GET("/users", api.ListUsersHandler(users))          // List users endpoint
	protected.POST("/users", api.CreateUserHandler(users))        // Create user endpoint
	protected.GET("/users/:id", api.GetUserHandler(users))        // Show user endpoint
	protected.PUT("/users/:id", api.UpdateUserHandler(users))     // Update user endpoint
	protected.DELETE("/users/:id", api.DeleteUserHandler(users))  // Delete user endpoint

	// Transaction ledger
	protected.GET("/transacciones", api.ListTransactionsHandler(txs, redisClient))         // List transactions endpoint
	protected.POST("/transacciones", api.CreateTransactionHandler(txs, redisClient))       // Submit transaction endpoint
	protected.GET("/transacciones/:id", api.GetTransactionHandler(txs))                    // Show transaction endpoint
	protected.DELETE("/transacciones/:id", api.DeleteTransactionHandler(txs, redisClient)) // Delete transaction endpoint

	// Reports
	protected.GET("/export", api.ExportCSVHandler(txs))                       // CSV export endpoint
	protected.GET("/resumen-usuario", api.SummaryByUserHandler(txs, redisClient)) // Per-user summary endpoint

	log.Println("Server running on " + cfg.AppPort) // Log server start
	r.Run(":" + cfg.AppPort)                        // Start the server on port cfg.AppPort
}
