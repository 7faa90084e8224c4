package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	clerk "github.com/clerk/clerk-sdk-go/v2"
	gorilllaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"quitSmokingAPI/handlers"
	"quitSmokingAPI/internal/clock"
	"quitSmokingAPI/internal/lifecycle"
	"quitSmokingAPI/internal/notification"
	"quitSmokingAPI/internal/social"
	"quitSmokingAPI/internal/token"
	"quitSmokingAPI/internal/workers"
	"quitSmokingAPI/middleware"
	"quitSmokingAPI/services"
)

// Schedule of the two daily jobs, in challengeTimezone: reconciliation first,
// reminders after.
const (
	challengeTimezone  = "Asia/Tokyo"
	reconciliationHour = 4
	reminderHour       = 8
)

var (
	dbPool           *pgxpool.Pool
	devClock         *clock.Offset
	userService      *services.UserService
	challengeService *services.ChallengeService
	batchService     *services.BatchService
	reportSigner     *token.Signer
	jobLocation      *time.Location
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	clerkSecretKey := os.Getenv("CLERK_SECRET_KEY")
	if clerkSecretKey == "" {
		log.Fatal("CLERK_SECRET_KEY environment variable is not set")
	}
	clerk.SetKey(clerkSecretKey)
	log.Println("Clerk initialized successfully")

	tokenSecret := os.Getenv("REPORT_TOKEN_SECRET")
	if tokenSecret == "" {
		log.Fatal("REPORT_TOKEN_SECRET environment variable is not set")
	}
	reportSigner = token.NewSigner(tokenSecret)

	appURL := os.Getenv("APP_BASE_URL")
	if appURL == "" {
		appURL = "http://localhost:3000"
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		log.Fatal("Failed to parse database URL:", err)
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	dbPool, err = pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		log.Fatal("Failed to create connection pool:", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		log.Fatal("Failed to ping database:", err)
	}

	log.Println("Successfully connected to Postgres")

	jobLocation, err = time.LoadLocation(challengeTimezone)
	if err != nil {
		log.Fatal("Failed to load job timezone:", err)
	}

	devClock = clock.NewOffset(clock.System{})

	store := services.NewPostgresStore(dbPool)
	poster := social.NewTwitterPoster()

	var push notification.PushProvider
	fcmService, err := notification.NewFCMService("./serviceAccountKey.json")
	if err != nil {
		log.Printf("Warning: Could not initialize FCM, reminder pushes disabled: %v", err)
	} else {
		push = fcmService
		log.Println("FCM Push Provider initialized successfully")
	}

	userService = services.NewUserService(store)
	challengeService = services.NewChallengeService(store, store, poster, devClock, reportSigner, appURL, jobLocation)
	batchService = services.NewBatchService(store, store, poster, push, devClock, reportSigner, appURL, jobLocation)

	middleware.InitPrometheus()
	services.RegisterBatchMetrics()
}

func main() {
	defer func() {
		log.Println("Closing database connection pool...")
		dbPool.Close()
	}()

	challengeHandler := handlers.NewChallengeHandler(challengeService, userService, reportSigner)
	batchHandler := handlers.NewBatchHandler(batchService, userService, devClock)
	webhookHandler := handlers.NewWebhookHandler(userService)

	workers.StartDaily("reconciliation", reconciliationHour, 0, jobLocation, func(ctx context.Context) {
		if _, err := batchService.RunReconciliation(ctx); err != nil {
			log.Printf("Reconciliation run failed: %v", err)
		}
	})
	workers.StartDaily("reminder", reminderHour, 0, jobLocation, func(ctx context.Context) {
		if _, err := batchService.RunReminders(ctx); err != nil {
			log.Printf("Reminder run failed: %v", err)
		}
	})
	log.Printf("Daily jobs scheduled: reconciliation %02d:00, reminders %02d:00 (%s, %d-day challenge)",
		reconciliationHour, reminderHour, challengeTimezone, lifecycle.ChallengeLength)

	r := mux.NewRouter()

	go middleware.CleanupVisitors()

	r.Use(middleware.RateLimitMiddleware)
	r.Use(middleware.MonitorMiddleware)

	r.Handle("/metrics", middleware.BasicAuthMiddleware(promhttp.Handler()))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := dbPool.Ping(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status": "unhealthy", "error": "database connection failed"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy", "service": "quitSmoking-api"}`))
	}).Methods("GET")

	r.HandleFunc("/webhooks/clerk", webhookHandler.HandleClerkWebhook).Methods("POST")

	api := r.PathPrefix("/api/v1").Subrouter()

	// The report link works without a session; the signed token is the auth.
	api.HandleFunc("/challenge/report", challengeHandler.ReportSuccess).Methods("POST")

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.ClerkAuthMiddleware)

	protected.HandleFunc("/challenge", challengeHandler.CreateChallenge).Methods("POST")
	protected.HandleFunc("/challenge", challengeHandler.GetCurrentChallenge).Methods("GET")
	protected.HandleFunc("/challenge/logs", challengeHandler.GetSuccessLogs).Methods("GET")
	protected.HandleFunc("/challenge/report-link", challengeHandler.GetReportLink).Methods("POST")

	protected.HandleFunc("/notifications/register-device", challengeHandler.RegisterDevice).Methods("POST")

	protected.HandleFunc("/batch/run", batchHandler.RunBatch).Methods("POST")
	protected.HandleFunc("/dev/date-offset", batchHandler.SetDateOffset).Methods("POST")

	corsHandler := gorilllaHandlers.CORS(
		gorilllaHandlers.AllowedOrigins([]string{"*"}),
		gorilllaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorilllaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		gorilllaHandlers.ExposedHeaders([]string{"Content-Length"}),
		gorilllaHandlers.AllowCredentials(),
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = "3333"
	}
	port = ":" + port

	server := http.Server{
		Addr:         port,
		Handler:      corsHandler(r),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Error starting server:", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)

	sig := <-sigChan
	log.Println("Got signal:", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server shutdown complete")
}
