/**
 * @description
 * This is the main entry point for the medley-service. It is responsible for
 * initializing all components of the service, including configuration, database connection,
 * external API clients, message brokers, repositories, the core application service,
 * and the HTTP server. It wires everything together and starts the service.
 *
 * @dependencies
 * - log, net/http: Standard Go libraries for logging and HTTP server functionality.
 * - github.com/go-chi/chi/v5: For HTTP routing.
 * - github.com/jackc/pgx/v5: PostgreSQL driver.
 * - github.com/robfig/cron/v3: Scheduled expiry of stale pending orders.
 * - internal/api, internal/app, internal/config, internal/store: Internal packages for the service.
 * - pkg/paypalclient: Client for the PayPal Orders API.
 * - pkg/rabbitmq: Client for RabbitMQ.
 * - pkg/s3storage: Presigned download URLs for purchased audio.
 */

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"github.com/fourtrack/medley-service/internal/api"
	"github.com/fourtrack/medley-service/internal/app"
	"github.com/fourtrack/medley-service/internal/config"
	"github.com/fourtrack/medley-service/internal/store"
	"github.com/fourtrack/medley-service/pkg/paypalclient"
	rmrabbit "github.com/fourtrack/medley-service/pkg/rabbitmq"
	"github.com/fourtrack/medley-service/pkg/s3storage"
)

func main() {
	// Load application configuration from environment variables.
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"config load failed\" err=%v", err)
	}
	if strings.TrimSpace(cfg.PayPalClientID) == "" || strings.TrimSpace(cfg.PayPalClientSecret) == "" {
		log.Fatalf("level=fatal component=bootstrap msg=\"paypal credentials must be configured\" env=PAYPAL_CLIENT_ID,PAYPAL_CLIENT_SECRET")
	}

	log.Printf("level=info component=bootstrap msg=\"starting medley-service\" port=%s paypal_mode=%s", cfg.ServerPort, cfg.PayPalMode)

	// Establish a connection pool to the PostgreSQL database.
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database url parse failed\" err=%v", err)
	}

	poolConfig.MaxConns = 100
	poolConfig.MinConns = 20
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	// Disable prepared statement caching to prevent conflicts
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	dbpool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database connection failed\" err=%v", err)
	}
	defer dbpool.Close()
	log.Println("level=info component=bootstrap msg=\"database connected\"")

	// Initialize the RabbitMQ producer to publish purchase events.
	// This service only needs to publish, so we use a producer.
	var producer rmrabbit.Publisher
	rabbitProducer, err := rmrabbit.NewEventProducer(cfg.RabbitMQURL)
	if err != nil {
		log.Printf("level=warn component=bootstrap msg=\"rabbitmq producer unavailable; using fallback\" err=%v", err)
		producer = &rmrabbit.EventProducerFallback{}
	} else {
		defer rabbitProducer.Close()
		producer = rabbitProducer
		log.Println("level=info component=bootstrap msg=\"rabbitmq producer connected\"")
	}

	// Initialize the client for the PayPal Orders API.
	paypalClient := paypalclient.NewClient(cfg.PayPalMode, cfg.PayPalClientID, cfg.PayPalClientSecret)

	// Initialize the S3 presigner for download URLs. A missing bucket should not
	// prevent the service from booting; downloads fall back to public URLs.
	var signer app.URLSigner
	s3Client, err := s3storage.NewClient(context.Background(), cfg.S3Region, cfg.S3AudioBucket)
	if err != nil {
		log.Printf("level=warn component=bootstrap msg=\"s3 presigner unavailable; signed downloads disabled\" err=%v", err)
	} else {
		signer = s3Client
	}

	var redisClient *redis.Client
	rateLimitingEnabled := cfg.OrderRateLimitPerMinute > 0 || cfg.CaptureRateLimitPerMinute > 0
	if rateLimitingEnabled {
		if strings.TrimSpace(cfg.RedisURL) == "" {
			log.Println("level=warn component=bootstrap msg=\"redis url missing; purchase rate limiting disabled\" env=REDIS_URL")
		} else {
			redisOptions, parseErr := redis.ParseURL(cfg.RedisURL)
			if parseErr != nil {
				log.Printf("level=warn component=bootstrap msg=\"redis url parse failed; purchase rate limiting disabled\" err=%v", parseErr)
			} else {
				redisClient = redis.NewClient(redisOptions)
				pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancelPing()
				if pingErr := redisClient.Ping(pingCtx).Err(); pingErr != nil {
					log.Printf("level=warn component=bootstrap msg=\"redis ping failed; purchase rate limiting disabled\" err=%v", pingErr)
					redisClient.Close()
					redisClient = nil
				} else {
					defer redisClient.Close()
					log.Println("level=info component=bootstrap msg=\"redis connected\"")
				}
			}
		}
	}

	// Initialize the data access layer (repository).
	repository := store.NewPostgresRepository(dbpool)

	// Initialize the core application service with its dependencies.
	purchaseService := app.NewService(
		repository,
		paypalClient,
		signer,
		producer,
		time.Duration(cfg.DownloadURLTTLHours)*time.Hour,
	)
	if redisClient != nil {
		purchaseService.SetRateLimiter(
			app.NewRedisPurchaseRateLimiter(redisClient, cfg.RedisRateLimitPrefix),
			cfg.OrderRateLimitPerMinute,
			cfg.CaptureRateLimitPerMinute,
		)
	}

	// Schedule the sweep that expires stale pending orders.
	sweeper := app.NewOrderSweeper(repository, time.Duration(cfg.PendingOrderExpiryHours)*time.Hour)
	scheduler := cron.New()
	if _, err := scheduler.AddFunc("@hourly", sweeper.Run); err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"order sweeper schedule failed\" err=%v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Initialize the API handlers.
	purchaseHandlers := api.NewPurchaseHandlers(purchaseService)

	// Set up the HTTP router and define the API routes.
	router := chi.NewRouter()
	router.Mount("/", api.PurchaseRoutes(purchaseHandlers, cfg.AuthJWKSURL, cfg.OriginList()))

	// Start the HTTP server.
	serverAddr := fmt.Sprintf(":%s", cfg.ServerPort)
	log.Printf("level=info component=http msg=\"server listening\" addr=%s", serverAddr)

	server := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("level=fatal component=http msg=\"server stopped unexpectedly\" err=%v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Println("level=info component=http msg=\"shutdown started\"")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("level=error component=http msg=\"shutdown failed\" err=%v", err)
	}

	log.Println("level=info component=http msg=\"shutdown complete\"")
}
