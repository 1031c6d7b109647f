package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"shopora/config"
	"shopora/controllers"
	"shopora/jobs"
	"shopora/middleware"
	"shopora/routes"
	"shopora/utils"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Proceeding with environment variables.")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to MongoDB
	client, err := utils.ConnectDB(ctx, cfg.MongoURI)
	if err != nil {
		log.Fatalf("failed to connect to MongoDB: %v", err)
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Printf("error disconnecting from MongoDB: %v", err)
		}
	}()
	if err := utils.EnsureIndexes(ctx, client.Database(cfg.Database)); err != nil {
		log.Fatalf("failed to create indexes: %v", err)
	}

	// Shared services
	tokens := utils.NewTokenService(cfg.JWTSecret, cfg.JWTExpiry)
	emailService := utils.NewEmailService(cfg.PostmarkToken, cfg.EmailSender)
	gateway := utils.NewPaymentGateway(cfg.StripeKey, cfg.StripeWebhookSecret, cfg.PaymentSuccessURL, cfg.PaymentCancelURL)
	storage, err := utils.NewStorageService(ctx, cfg.AWSRegion, cfg.S3Bucket)
	if err != nil {
		log.Fatalf("failed to initialize object storage: %v", err)
	}

	// Initialize controllers
	c := routes.Controllers{
		Auth:     controllers.NewAuthController(client, cfg.Database, tokens, emailService),
		Profile:  controllers.NewProfileController(client, cfg.Database),
		Product:  controllers.NewProductController(client, cfg.Database, storage),
		Category: controllers.NewCategoryController(client, cfg.Database),
		Cart:     controllers.NewCartController(client, cfg.Database),
		Order:    controllers.NewOrderController(client, cfg.Database, gateway, storage, emailService),
		Coupon:   controllers.NewCouponController(client, cfg.Database),
		Wishlist: controllers.NewWishlistController(client, cfg.Database, storage),
	}

	auth := middleware.NewAuth(tokens, client, cfg.Database)
	orderLimiter := middleware.NewRateLimiter(cfg.OrderRateEvery, cfg.OrderRateBurst)

	router := mux.NewRouter()
	routes.RegisterRoutes(router, c, auth, orderLimiter)

	// Background sweep of expired tokens and coupons
	sweeper := jobs.NewSweeper(client, cfg.Database, cfg.SweepInterval)
	go sweeper.Run(ctx)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	go func() {
		log.Printf("Server is running on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")
	if err := server.Shutdown(context.Background()); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
