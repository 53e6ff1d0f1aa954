package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"creator-insurance/internal/auth"
	"creator-insurance/internal/blockchain"
	"creator-insurance/internal/config"
	"creator-insurance/internal/database"
	"creator-insurance/internal/handlers"
	"creator-insurance/internal/jobs"
	"creator-insurance/internal/metrics"
	"creator-insurance/internal/repository"
	"creator-insurance/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize JWT
	auth.InitJWT(cfg.App.JWTSecret)

	// Connect to database
	if err := database.Connect(cfg.GetDSN()); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.AutoMigrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize repository
	repo := repository.NewRepository(database.GetDB())

	// Initialize Solana client
	solanaClient := blockchain.NewSolanaClient(
		cfg.Solana.Network,
		cfg.Solana.ServerWalletPrivateKey,
		cfg.Solana.RPCTimeout,
		cfg.Solana.RPCMaxAttempts,
	)

	// Initialize vault contract
	vaultContract, err := blockchain.NewVaultContract(solanaClient, cfg.Solana.InsuranceProgramID)
	if err != nil {
		log.Fatalf("Failed to initialize vault contract: %v", err)
	}

	// Initialize services
	authService := services.NewAuthService(database.GetDB())
	passService := services.NewPassService(repo, solanaClient)
	claimService := services.NewClaimService(repo, cfg.Governance.ClaimValidity)
	voteService := services.NewVoteService(repo)
	settlementService := services.NewSettlementService(repo, vaultContract, cfg.Governance.VotingQuorum)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	passHandler := handlers.NewPassHandler(passService)
	claimHandler := handlers.NewClaimHandler(claimService, voteService, settlementService)

	// Start the claim finalizer (closes voting on expired claims)
	finalizer := jobs.NewClaimFinalizer(repo, settlementService, 1*time.Minute)
	finalizer.Start()

	// Set up Gin router
	router := gin.Default()

	// CORS middleware
	allowedOrigins := []string{
		"http://localhost:3000", // Local development
		"http://localhost:5173", // Vite dev server
		"http://127.0.0.1:3000",
		"http://127.0.0.1:5173",
	}
	// Add additional frontend URL from environment if provided
	if frontendURL := os.Getenv("FRONTEND_URL"); frontendURL != "" {
		allowedOrigins = append(allowedOrigins, frontendURL)
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Request duration metrics
	router.Use(metrics.Middleware())

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Prometheus scrape endpoint
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Authentication routes (public)
	authRoutes := router.Group("/auth")
	{
		authRoutes.POST("/wallet", authHandler.WalletLogin)
		authRoutes.POST("/logout", authHandler.Logout)
	}

	// Authenticated /auth/me routes
	authProtected := router.Group("/auth")
	authProtected.Use(auth.AuthMiddleware())
	{
		authProtected.GET("/me", authHandler.GetMe)
		authProtected.PATCH("/me", authHandler.UpdateMe)
	}

	// API routes (protected)
	api := router.Group("/api")
	api.Use(auth.AuthMiddleware())
	{
		// Pass endpoints
		api.POST("/passes", passHandler.CreatePass)
		api.GET("/passes", passHandler.ListPasses)
		api.POST("/passes/buy", passHandler.BuyPass)
		api.GET("/passes/creator/:creatorId", passHandler.GetCreatorPass)
		api.GET("/passes/creator/:creatorId/holders", passHandler.ListHolders)
		api.GET("/passes/:id", passHandler.GetPass)
		api.PATCH("/passes/:id", passHandler.UpdatePass)

		// Claim endpoints
		api.POST("/claims", claimHandler.CreateClaim)
		api.GET("/claims", claimHandler.ListClaims)
		api.GET("/claims/:id", claimHandler.GetClaim)
		api.PATCH("/claims/:id", claimHandler.UpdateClaim)

		// Vote endpoints
		api.POST("/claims/:id/votes", claimHandler.CastVote)
		api.GET("/claims/:id/votes", claimHandler.GetTally)

		// Settlement endpoints
		api.POST("/claims/:id/finalize", claimHandler.Finalize)
		api.POST("/claims/:id/payout", claimHandler.Payout)
		api.POST("/claims/:id/refund", claimHandler.Refund)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on port %s", cfg.Server.Port)
		log.Printf("Health check: http://localhost:%s/health", cfg.Server.Port)
		log.Printf("Wallet auth: POST http://localhost:%s/auth/wallet", cfg.Server.Port)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	finalizer.Stop()

	// Graceful shutdown with 5 second timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
