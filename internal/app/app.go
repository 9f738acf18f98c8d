package app

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"healthlink/internal/config"
	"healthlink/internal/handlers"
	"healthlink/internal/logging"
	"healthlink/internal/middleware"
	"healthlink/internal/otp"
	"healthlink/internal/pdf"
	"healthlink/internal/repositories"
	"healthlink/internal/routes"
	"healthlink/internal/services"
	"healthlink/internal/zoom"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "healthlink/docs"
)

func Run() {
	cfg := config.LoadConfig()

	middleware.SetJWTKey([]byte(cfg.Auth.JWTSecret))

	// === DB ===
	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		log.Fatal("Failed to connect to DB: ", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Failed to close DB: %v", err)
		}
	}()

	// === OTP store ===
	audit := logging.NewJSON(nil)
	otpStore, closeStore := buildOTPStore(cfg, audit)
	defer closeStore()

	// === Repos ===
	userRepo := repositories.NewUserRepository(db)
	doctorRepo := repositories.NewDoctorRepository(db)
	appointmentRepo := repositories.NewAppointmentRepository(db)
	paymentRepo := repositories.NewPaymentRepository(db)
	facilityRepo := repositories.NewFacilityRepository(db)
	recordRepo := repositories.NewMedicalRecordRepository(db)
	notificationRepo := repositories.NewNotificationRepository(db)

	// === Services ===
	authService := services.NewAuthService(time.Duration(cfg.Auth.AccessTTLMinutes) * time.Minute)
	emailService := services.NewEmailService(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPassword,
		cfg.Email.FromEmail,
		cfg.Email.FromName,
		audit,
	)

	otpService := otp.NewService(otpStore, emailService, audit, otp.Config{
		CodeLength:  cfg.OTP.CodeLength,
		TTL:         cfg.OTP.TTL(),
		MaxAttempts: int64(cfg.OTP.MaxAttemptsPerWindow),
		Window:      cfg.OTP.Window(),
		MailEnabled: cfg.OTP.MailEnabled,
	}, nil)

	userService := services.NewUserService(userRepo, emailService, authService, otpService)

	var zoomClient *zoom.Client
	if cfg.Zoom.Enabled {
		zoomClient = zoom.NewClient(cfg.Zoom.AccountID, cfg.Zoom.ClientID, cfg.Zoom.ClientSecret)
		if zoomClient == nil {
			log.Printf("[app] zoom enabled but credentials missing, running without video calls")
		}
	}

	receipts := pdf.NewReceiptGenerator(cfg.Files.RootDir)

	appointmentService := services.NewAppointmentService(
		appointmentRepo, paymentRepo, doctorRepo, userRepo,
		zoomClient, receipts, emailService,
	)
	doctorService := services.NewDoctorService(
		doctorRepo, userRepo, appointmentService, appointmentRepo, paymentRepo,
		authService, emailService,
	)
	analyticsService := services.NewAnalyticsService(userRepo, appointmentRepo, facilityRepo, recordRepo)
	notificationService := services.NewNotificationService(notificationRepo, userRepo, emailService)

	// === Handlers ===
	refreshTTL := time.Duration(cfg.Auth.RefreshTTLDays) * 24 * time.Hour
	authHandler := handlers.NewAuthHandler(userService, authService, refreshTTL)
	userHandler := handlers.NewUserHandler(userService)
	doctorHandler := handlers.NewDoctorHandler(doctorService)
	appointmentHandler := handlers.NewAppointmentHandler(appointmentService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService)

	// === Gin ===
	router := gin.Default()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	// Swagger
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })

	routes.SetupRoutes(
		router,
		authHandler,
		userHandler,
		doctorHandler,
		appointmentHandler,
		notificationHandler,
		analyticsHandler,
	)

	// === Run ===
	listenAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Server listening on %s", listenAddr)
	if err := router.Run(listenAddr); err != nil {
		log.Fatal("Failed to start server: ", err)
	}
}

// buildOTPStore picks the configured backend. The shared backend needs a
// reachable Redis at startup; the in-process one runs its own sweeper.
func buildOTPStore(cfg *config.Config, audit *logging.SafeLogger) (otp.Store, func()) {
	if cfg.OTP.Backend == "shared" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Fatal("Failed to parse redis url: ", err)
		}
		client := redis.NewClient(opts)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			// degraded mode: codes still reach users, verification is
			// unavailable until Redis comes back
			audit.Event("otp_redis_unavailable").With("error", err.Error()).LogError()
			log.Printf("[app] redis unreachable at startup: %v", err)
		}

		return otp.NewRedisStore(client), func() {
			if err := client.Close(); err != nil {
				log.Printf("Failed to close redis: %v", err)
			}
		}
	}

	store := otp.NewMemoryStore()
	store.StartSweeper(cfg.OTP.SweepInterval())
	return store, store.Close
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
