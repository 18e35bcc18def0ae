package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"fee-backend/internal/auth"
	"fee-backend/internal/cache"
	"fee-backend/internal/config"
	"fee-backend/internal/database"
	"fee-backend/internal/db"
	"fee-backend/internal/handlers"
	"fee-backend/internal/health"
	h "fee-backend/internal/http"
	"fee-backend/internal/middleware"
	"fee-backend/internal/repositories"
	"fee-backend/internal/services"
	"fee-backend/internal/sms"
	"fee-backend/internal/storage"
	"fee-backend/migrations"
)

// startFineAccrual recomputes late fines for all outstanding records once a
// day. Fines also refresh on every record read, so this sweep only keeps
// untouched records honest.
func startFineAccrual(records *services.FeeRecordService) {
	ticker := time.NewTicker(24 * time.Hour)
	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		updated, err := records.AccrueFines(ctx)
		cancel()
		if err != nil {
			log.Printf("[Fines] Accrual sweep failed: %v", err)
			continue
		}
		if updated > 0 {
			log.Printf("[Fines] Accrual sweep updated %d records", updated)
		}
	}
}

// startReconciliation settles gateway orders whose checkout callback never
// arrived (closed tab, dropped connection).
func startReconciliation(razorpay *services.RazorpayService) {
	ticker := time.NewTicker(30 * time.Minute)
	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		count, err := razorpay.Reconcile(ctx)
		cancel()
		if err != nil {
			log.Printf("[Razorpay] Reconciliation failed: %v", err)
			continue
		}
		if count > 0 {
			log.Printf("[Razorpay] Reconciled %d pending orders", count)
		}
	}
}

func main() {
	port := flag.Int("port", 0, "Server port (overrides config)")
	flag.Parse()

	cfg := config.Load()
	if *port != 0 {
		cfg.Server.Port = *port
	}

	pool := db.Connect(cfg)
	defer pool.Close()

	// Redis is optional; a down cache degrades reads, nothing more
	if err := cache.Init(); err != nil {
		log.Printf("[Redis] Cache unavailable: %v (running without cache)", err)
	} else {
		log.Println("[Redis] Cache connected successfully")
	}

	log.Println("Running database migrations...")
	migrator := database.NewMigrator(pool, migrations.FS, ".")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := migrator.RunMigrations(ctx); err != nil {
		cancel()
		log.Fatalf("Failed to run migrations: %v", err)
	}
	cancel()

	healthChecker := health.NewHealthChecker(pool)
	jwtManager := auth.NewJWTManager(cfg)

	// Repositories
	userRepo := repositories.NewUserRepository(pool)
	memberRepo := repositories.NewMemberRepository(pool)
	structureRepo := repositories.NewFeeStructureRepository(pool)
	recordRepo := repositories.NewFeeRecordRepository(pool)
	settingRepo := repositories.NewSystemSettingRepository(pool)
	reminderRepo := repositories.NewReminderLogRepository(pool)
	onlineTxRepo := repositories.NewOnlineTransactionRepository(pool)
	totpRepo := repositories.NewTOTPRepository(pool)
	reportRepo := repositories.NewReportRepository(pool)

	// SMS provider for fee reminders; mock keeps development offline
	var smsProvider sms.Provider
	if apiKey := os.Getenv("FAST2SMS_API_KEY"); apiKey != "" {
		log.Println("Using Fast2SMS for reminder delivery")
		smsProvider = sms.NewFast2SMSService(apiKey)
	} else {
		log.Println("WARNING: FAST2SMS_API_KEY not set, reminders will only print to logs")
		smsProvider = sms.NewMockService()
	}

	receiptArchive := storage.NewReceiptArchive(cfg)

	// Services
	userService := services.NewUserService(userRepo, jwtManager)
	totpService := services.NewTOTPService(userRepo, totpRepo)
	memberService := services.NewMemberService(memberRepo)
	structureService := services.NewFeeStructureService(structureRepo)
	recordService := services.NewFeeRecordService(recordRepo, structureRepo, memberRepo, settingRepo, reminderRepo, smsProvider)
	razorpayService := services.NewRazorpayService(
		cfg.Razorpay.KeyID,
		cfg.Razorpay.KeySecret,
		cfg.Razorpay.WebhookSecret,
		onlineTxRepo,
		recordService,
		settingRepo,
	)
	reportService := services.NewReportService(reportRepo, recordRepo, settingRepo)

	// Middleware and handlers
	authMiddleware := middleware.NewAuthMiddleware(jwtManager, userRepo)
	corsMiddleware := middleware.NewCORS(cfg)

	authHandler := handlers.NewAuthHandler(userService, totpService, jwtManager)
	userHandler := handlers.NewUserHandler(userService)
	totpHandler := handlers.NewTOTPHandler(totpService, userService)
	memberHandler := handlers.NewMemberHandler(memberService)
	structureHandler := handlers.NewFeeStructureHandler(structureService)
	recordHandler := handlers.NewFeeRecordHandler(recordService)
	razorpayHandler := handlers.NewRazorpayHandler(razorpayService)
	reportHandler := handlers.NewReportHandler(reportService, receiptArchive)
	settingHandler := handlers.NewSystemSettingHandler(settingRepo)
	healthHandler := handlers.NewHealthHandler(healthChecker)

	router := h.NewRouter(
		authHandler,
		userHandler,
		totpHandler,
		memberHandler,
		structureHandler,
		recordHandler,
		razorpayHandler,
		reportHandler,
		settingHandler,
		healthHandler,
		authMiddleware,
	)

	handler := middleware.PanicRecovery(middleware.MetricsMiddleware(corsMiddleware(router)))

	// Background sweeps
	go startFineAccrual(recordService)
	go startReconciliation(razorpayService)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Server running on %s", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
