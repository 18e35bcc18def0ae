package http

import (
	"net/http"

	"fee-backend/internal/handlers"
	"fee-backend/internal/middleware"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	totpHandler *handlers.TOTPHandler,
	memberHandler *handlers.MemberHandler,
	structureHandler *handlers.FeeStructureHandler,
	recordHandler *handlers.FeeRecordHandler,
	razorpayHandler *handlers.RazorpayHandler,
	reportHandler *handlers.ReportHandler,
	settingHandler *handlers.SystemSettingHandler,
	healthHandler *handlers.HealthHandler,
	authMiddleware *middleware.AuthMiddleware,
) *mux.Router {
	r := mux.NewRouter()

	admin := authMiddleware.RequireRole("admin")
	collector := authMiddleware.RequireRole("admin", "accountant")

	// Public API routes - Authentication
	r.HandleFunc("/api/auth/signup", authHandler.Signup).Methods("POST")
	r.HandleFunc("/api/auth/login", authHandler.Login).Methods("POST")
	r.HandleFunc("/api/auth/totp-login", authHandler.TOTPLogin).Methods("POST")

	// Public API routes - Online payment (the checkout page is unauthenticated)
	r.HandleFunc("/api/payments/status", razorpayHandler.Status).Methods("GET")
	r.HandleFunc("/api/payments/webhook", razorpayHandler.Webhook).Methods("POST")

	// Protected API routes - Session
	authAPI := r.PathPrefix("/api/auth").Subrouter()
	authAPI.Use(authMiddleware.Authenticate)
	authAPI.HandleFunc("/me", authHandler.Me).Methods("GET")

	// Protected API routes - Two-factor authentication
	totpAPI := r.PathPrefix("/api/totp").Subrouter()
	totpAPI.Use(authMiddleware.Authenticate)
	totpAPI.HandleFunc("/setup", totpHandler.Setup).Methods("POST")
	totpAPI.HandleFunc("/verify", totpHandler.VerifyEnable).Methods("POST")
	totpAPI.HandleFunc("/disable", totpHandler.Disable).Methods("POST")

	// Protected API routes - Users (admin only)
	usersAPI := r.PathPrefix("/api/users").Subrouter()
	usersAPI.Use(authMiddleware.Authenticate)
	usersAPI.HandleFunc("", admin(http.HandlerFunc(userHandler.List)).ServeHTTP).Methods("GET")
	usersAPI.HandleFunc("/{id}/role", admin(http.HandlerFunc(userHandler.UpdateRole)).ServeHTTP).Methods("PATCH")
	usersAPI.HandleFunc("/{id}/active", admin(http.HandlerFunc(userHandler.SetActive)).ServeHTTP).Methods("PATCH")

	// Protected API routes - Members
	membersAPI := r.PathPrefix("/api/members").Subrouter()
	membersAPI.Use(authMiddleware.Authenticate)
	membersAPI.HandleFunc("", memberHandler.List).Methods("GET")
	membersAPI.HandleFunc("", memberHandler.Create).Methods("POST")
	membersAPI.HandleFunc("/{id}", memberHandler.Get).Methods("GET")
	membersAPI.HandleFunc("/{id}", memberHandler.Update).Methods("PUT")
	membersAPI.HandleFunc("/{id}", admin(http.HandlerFunc(memberHandler.Delete)).ServeHTTP).Methods("DELETE")

	// Protected API routes - Fee structures (mutations are admin only)
	structuresAPI := r.PathPrefix("/api/fee-structures").Subrouter()
	structuresAPI.Use(authMiddleware.Authenticate)
	structuresAPI.HandleFunc("", structureHandler.List).Methods("GET")
	structuresAPI.HandleFunc("", admin(http.HandlerFunc(structureHandler.Create)).ServeHTTP).Methods("POST")
	structuresAPI.HandleFunc("/current", structureHandler.GetCurrent).Methods("GET")
	structuresAPI.HandleFunc("/replace-preview", admin(http.HandlerFunc(structureHandler.PreviewReplace)).ServeHTTP).Methods("GET")
	structuresAPI.HandleFunc("/{id}", structureHandler.Get).Methods("GET")
	structuresAPI.HandleFunc("/{id}/archive", admin(http.HandlerFunc(structureHandler.Archive)).ServeHTTP).Methods("POST")

	// Protected API routes - Fee records (money movement needs collector access)
	recordsAPI := r.PathPrefix("/api/fee-records").Subrouter()
	recordsAPI.Use(authMiddleware.Authenticate)
	recordsAPI.HandleFunc("", recordHandler.List).Methods("GET")
	recordsAPI.HandleFunc("", recordHandler.Assign).Methods("POST")
	recordsAPI.HandleFunc("/{id}", recordHandler.Get).Methods("GET")
	recordsAPI.HandleFunc("/{id}/payments", collector(http.HandlerFunc(recordHandler.RecordPayment)).ServeHTTP).Methods("POST")
	recordsAPI.HandleFunc("/{id}/refunds", collector(http.HandlerFunc(recordHandler.RecordRefund)).ServeHTTP).Methods("POST")
	recordsAPI.HandleFunc("/{id}/waive", admin(http.HandlerFunc(recordHandler.Waive)).ServeHTTP).Methods("POST")
	recordsAPI.HandleFunc("/{id}/installments", recordHandler.Installments).Methods("GET")
	recordsAPI.HandleFunc("/{id}/reminders", recordHandler.Reminders).Methods("GET")
	recordsAPI.HandleFunc("/{id}/reminders", recordHandler.SendReminder).Methods("POST")

	// Protected API routes - Online payments
	paymentsAPI := r.PathPrefix("/api/payments").Subrouter()
	paymentsAPI.Use(authMiddleware.Authenticate)
	paymentsAPI.HandleFunc("/orders", razorpayHandler.CreateOrder).Methods("POST")
	paymentsAPI.HandleFunc("/verify", razorpayHandler.VerifyPayment).Methods("POST")
	paymentsAPI.HandleFunc("/cancel", razorpayHandler.CancelOrder).Methods("POST")
	paymentsAPI.HandleFunc("/transactions", admin(http.HandlerFunc(razorpayHandler.ListTransactions)).ServeHTTP).Methods("GET")
	paymentsAPI.HandleFunc("/failed", admin(http.HandlerFunc(razorpayHandler.ListFailed)).ServeHTTP).Methods("GET")
	paymentsAPI.HandleFunc("/summary", admin(http.HandlerFunc(razorpayHandler.Summary)).ServeHTTP).Methods("GET")
	paymentsAPI.HandleFunc("/reconcile", admin(http.HandlerFunc(razorpayHandler.Reconcile)).ServeHTTP).Methods("POST")

	// Protected API routes - Reports and receipts
	reportsAPI := r.PathPrefix("/api/reports").Subrouter()
	reportsAPI.Use(authMiddleware.Authenticate)
	reportsAPI.HandleFunc("/collections", reportHandler.CollectionSummary).Methods("GET")
	reportsAPI.HandleFunc("/collections/modes", reportHandler.ModeBreakdown).Methods("GET")
	reportsAPI.HandleFunc("/collections/export", reportHandler.CollectionsCSV).Methods("GET")
	reportsAPI.HandleFunc("/dues", reportHandler.Dues).Methods("GET")
	reportsAPI.HandleFunc("/dues/export", reportHandler.DuesCSV).Methods("GET")

	receiptsAPI := r.PathPrefix("/api/receipts").Subrouter()
	receiptsAPI.Use(authMiddleware.Authenticate)
	receiptsAPI.HandleFunc("/{payment_id}/pdf", reportHandler.ReceiptPDF).Methods("GET")
	receiptsAPI.HandleFunc("/{payment_id}/text", reportHandler.ReceiptText).Methods("GET")

	// Protected API routes - System settings (admin only for writes)
	settingsAPI := r.PathPrefix("/api/settings").Subrouter()
	settingsAPI.Use(authMiddleware.Authenticate)
	settingsAPI.HandleFunc("", settingHandler.List).Methods("GET")
	settingsAPI.HandleFunc("/{key}", settingHandler.Get).Methods("GET")
	settingsAPI.HandleFunc("/{key}", admin(http.HandlerFunc(settingHandler.Update)).ServeHTTP).Methods("PUT")

	// Health endpoint (no auth required - for probes)
	r.HandleFunc("/health", healthHandler.Check).Methods("GET")

	// Metrics endpoint (Prometheus format)
	r.Handle("/metrics", promhttp.Handler())

	return r
}
