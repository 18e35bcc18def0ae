package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"time"

	"fee-backend/internal/fees"
	"fee-backend/internal/metrics"
	"fee-backend/internal/models"
	"fee-backend/internal/repositories"

	razorpay "github.com/razorpay/razorpay-go"
)

var (
	ErrPaymentsDisabled   = errors.New("online payments are currently disabled")
	ErrGatewayUnavailable = errors.New("payment gateway is not configured")
	ErrInvalidSignature   = errors.New("invalid payment signature")
	ErrNothingToPay       = errors.New("record has no outstanding balance")
)

// RazorpayService owns the online payment flow: order creation, signature
// verification, webhooks and reconciliation. Successful captures are applied
// to fee records through FeeRecordService so the money path stays single.
type RazorpayService struct {
	txRepo      *repositories.OnlineTransactionRepository
	records     *FeeRecordService
	settingRepo *repositories.SystemSettingRepository
	// Environment credentials; database settings take precedence so keys can
	// be rotated without a restart.
	envKeyID         string
	envKeySecret     string
	envWebhookSecret string
}

func NewRazorpayService(
	keyID, keySecret, webhookSecret string,
	txRepo *repositories.OnlineTransactionRepository,
	records *FeeRecordService,
	settingRepo *repositories.SystemSettingRepository,
) *RazorpayService {
	return &RazorpayService{
		txRepo:           txRepo,
		records:          records,
		settingRepo:      settingRepo,
		envKeyID:         keyID,
		envKeySecret:     keySecret,
		envWebhookSecret: webhookSecret,
	}
}

func (s *RazorpayService) getCredentials(ctx context.Context) (keyID, keySecret, webhookSecret string) {
	keyID = s.settingRepo.GetValue(ctx, "razorpay_key_id", s.envKeyID)
	keySecret = s.settingRepo.GetValue(ctx, "razorpay_key_secret", s.envKeySecret)
	webhookSecret = s.settingRepo.GetValue(ctx, "razorpay_webhook_secret", s.envWebhookSecret)
	if keyID == "" {
		keyID = s.envKeyID
	}
	if keySecret == "" {
		keySecret = s.envKeySecret
	}
	if webhookSecret == "" {
		webhookSecret = s.envWebhookSecret
	}
	return keyID, keySecret, webhookSecret
}

func (s *RazorpayService) getClient(ctx context.Context) *razorpay.Client {
	keyID, keySecret, _ := s.getCredentials(ctx)
	if keyID == "" || keySecret == "" {
		return nil
	}
	return razorpay.NewClient(keyID, keySecret)
}

// IsEnabled checks the runtime toggle. Credentials are validated only when
// an order is actually created.
func (s *RazorpayService) IsEnabled(ctx context.Context) bool {
	return s.settingRepo.GetValue(ctx, "online_payment_enabled", "false") == "true"
}

func (s *RazorpayService) GetPaymentStatus(ctx context.Context) *models.PaymentStatusResponse {
	keyID, _, _ := s.getCredentials(ctx)
	return &models.PaymentStatusResponse{
		Enabled: s.IsEnabled(ctx),
		KeyID:   keyID,
	}
}

// CreateOrder opens a Razorpay order for a fee record. Amount zero charges
// the next installment per the record's plan; an explicit amount must not
// exceed the outstanding balance.
func (s *RazorpayService) CreateOrder(ctx context.Context, req *models.CreateOrderRequest) (*models.CreateOrderResponse, error) {
	if !s.IsEnabled(ctx) {
		return nil, ErrPaymentsDisabled
	}
	client := s.getClient(ctx)
	if client == nil {
		return nil, ErrGatewayUnavailable
	}

	rec, err := s.records.Get(ctx, req.FeeRecordID)
	if err != nil {
		return nil, fmt.Errorf("fee record not found: %w", err)
	}
	if rec.Status == models.FeeStatusWaived {
		return nil, ErrRecordWaived
	}
	if rec.Balance <= fees.Epsilon {
		return nil, ErrNothingToPay
	}

	amount := req.Amount
	if amount == 0 {
		amount, err = s.records.NextInstallment(ctx, rec)
		if err != nil {
			return nil, err
		}
	}
	if amount <= 0 {
		return nil, ErrNothingToPay
	}
	if amount > rec.Balance+fees.Epsilon {
		return nil, ErrOverpayment
	}

	amountPaise := int(fees.RoundPaise(amount) * 100)
	orderData := map[string]interface{}{
		"amount":   amountPaise,
		"currency": "INR",
		"receipt":  fmt.Sprintf("fee_%d_%d", rec.ID, time.Now().Unix()),
		"notes": map[string]interface{}{
			"fee_record_id": rec.ID,
			"member_id":     rec.MemberID,
			"member_phone":  rec.MemberPhone,
		},
	}
	order, err := client.Order.Create(orderData, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create razorpay order: %w", err)
	}
	orderID, _ := order["id"].(string)

	tx := &models.OnlineTransaction{
		RazorpayOrderID: orderID,
		FeeRecordID:     rec.ID,
		MemberID:        rec.MemberID,
		MemberName:      rec.MemberName,
		MemberPhone:     rec.MemberPhone,
		Amount:          fees.RoundPaise(amount),
	}
	if err := s.txRepo.Create(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to store transaction: %w", err)
	}

	keyID, _, _ := s.getCredentials(ctx)
	metrics.GatewayOrders.WithLabelValues("created").Inc()
	return &models.CreateOrderResponse{
		OrderID:     orderID,
		Amount:      amountPaise,
		Currency:    "INR",
		KeyID:       keyID,
		MemberName:  rec.MemberName,
		MemberPhone: rec.MemberPhone,
		Balance:     rec.Balance,
	}, nil
}

// VerifyPayment checks the checkout callback signature and applies the
// captured payment. Replays of an already-processed order return the stored
// transaction unchanged.
func (s *RazorpayService) VerifyPayment(ctx context.Context, req *models.VerifyPaymentRequest) (*models.OnlineTransaction, error) {
	if !s.verifySignature(ctx, req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature) {
		_ = s.txRepo.MarkFailed(ctx, req.RazorpayOrderID, req.RazorpayPaymentID, "Invalid signature")
		metrics.GatewayOrders.WithLabelValues("failed").Inc()
		return nil, ErrInvalidSignature
	}

	tx, err := s.txRepo.GetByOrderID(ctx, req.RazorpayOrderID)
	if err != nil {
		return nil, fmt.Errorf("transaction not found: %w", err)
	}
	if tx.Status == models.OnlineTxStatusSuccess {
		return tx, nil
	}

	utr, method, bank, vpa := s.fetchPaymentDetails(ctx, req.RazorpayPaymentID)

	if err := s.txRepo.MarkSuccess(ctx, req.RazorpayOrderID, req.RazorpayPaymentID,
		req.RazorpaySignature, utr, method, bank, vpa); err != nil {
		return nil, fmt.Errorf("failed to update transaction: %w", err)
	}
	metrics.GatewayOrders.WithLabelValues("success").Inc()

	if err := s.applyToRecord(ctx, tx, req.RazorpayPaymentID, utr); err != nil {
		// Money is captured; reconciliation retries the application
		log.Printf("[Razorpay] Failed to apply payment for order %s: %v", tx.RazorpayOrderID, err)
	}

	tx, _ = s.txRepo.GetByOrderID(ctx, req.RazorpayOrderID)
	return tx, nil
}

// CancelOrder closes a checkout the payer dismissed. Silent by design: a
// cancelled order is audit data, not a failure.
func (s *RazorpayService) CancelOrder(ctx context.Context, orderID string) error {
	if err := s.txRepo.MarkCancelled(ctx, orderID); err != nil {
		return err
	}
	metrics.GatewayOrders.WithLabelValues("cancelled").Inc()
	return nil
}

// signPayload computes the hex HMAC-SHA256 Razorpay uses for both checkout
// and webhook signatures.
func signPayload(secret string, message []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(message)
	return hex.EncodeToString(h.Sum(nil))
}

func (s *RazorpayService) verifySignature(ctx context.Context, orderID, paymentID, signature string) bool {
	_, keySecret, _ := s.getCredentials(ctx)
	if keySecret == "" {
		return false
	}
	expected := signPayload(keySecret, []byte(orderID+"|"+paymentID))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// VerifyWebhookSignature verifies the webhook body signature. Verification
// is skipped only when no webhook secret is configured at all.
func (s *RazorpayService) VerifyWebhookSignature(ctx context.Context, body []byte, signature string) bool {
	_, _, webhookSecret := s.getCredentials(ctx)
	if webhookSecret == "" {
		return true
	}
	expected := signPayload(webhookSecret, body)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// ProcessWebhook handles gateway events. The webhook is the source of truth
// when the client never reports back after checkout.
func (s *RazorpayService) ProcessWebhook(ctx context.Context, event string, payload map[string]interface{}) error {
	switch event {
	case "payment.captured":
		return s.handlePaymentCaptured(ctx, payload)
	case "payment.failed":
		return s.handlePaymentFailed(ctx, payload)
	default:
		log.Printf("[Razorpay] Unhandled webhook event: %s", event)
		return nil
	}
}

func webhookEntity(payload map[string]interface{}) map[string]interface{} {
	paymentEntity, ok := payload["payment"].(map[string]interface{})
	if !ok {
		paymentEntity = payload
	}
	entity, ok := paymentEntity["entity"].(map[string]interface{})
	if !ok {
		entity = paymentEntity
	}
	return entity
}

func (s *RazorpayService) handlePaymentCaptured(ctx context.Context, payload map[string]interface{}) error {
	entity := webhookEntity(payload)
	orderID, _ := entity["order_id"].(string)
	paymentID, _ := entity["id"].(string)
	if orderID == "" {
		return fmt.Errorf("missing order_id in webhook")
	}

	tx, err := s.txRepo.GetByOrderID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("transaction not found: %w", err)
	}
	if tx.Status == models.OnlineTxStatusSuccess {
		log.Printf("[Razorpay] Order %s already processed", orderID)
		return nil
	}

	utr := ""
	if acquirerData, ok := entity["acquirer_data"].(map[string]interface{}); ok {
		if u, ok := acquirerData["upi_transaction_id"].(string); ok {
			utr = u
		}
		if u, ok := acquirerData["bank_transaction_id"].(string); ok && utr == "" {
			utr = u
		}
		if u, ok := acquirerData["rrn"].(string); ok && utr == "" {
			utr = u
		}
	}
	method, _ := entity["method"].(string)
	bank, _ := entity["bank"].(string)
	vpa, _ := entity["vpa"].(string)

	if err := s.txRepo.MarkSuccess(ctx, orderID, paymentID, "", utr, method, bank, vpa); err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	metrics.GatewayOrders.WithLabelValues("success").Inc()
	return s.applyToRecord(ctx, tx, paymentID, utr)
}

func (s *RazorpayService) handlePaymentFailed(ctx context.Context, payload map[string]interface{}) error {
	entity := webhookEntity(payload)
	orderID, _ := entity["order_id"].(string)
	paymentID, _ := entity["id"].(string)
	if orderID == "" {
		return nil
	}

	reason := "Payment failed"
	if desc, ok := entity["error_description"].(string); ok && desc != "" {
		reason = desc
	}
	metrics.GatewayOrders.WithLabelValues("failed").Inc()
	return s.txRepo.MarkFailed(ctx, orderID, paymentID, reason)
}

// applyToRecord turns a captured transaction into a fee payment, exactly
// once per gateway payment ID.
func (s *RazorpayService) applyToRecord(ctx context.Context, tx *models.OnlineTransaction, paymentID, utr string) error {
	applied, err := s.records.recordRepo.HasPaymentWithRef(ctx, tx.FeeRecordID, paymentID)
	if err != nil {
		return err
	}
	if applied {
		return nil
	}

	payment, err := s.records.RecordGatewayPayment(ctx, tx.FeeRecordID, tx.Amount, tx.RazorpayOrderID, paymentID, utr)
	if err != nil {
		return err
	}
	return s.txRepo.LinkFeePayment(ctx, tx.RazorpayOrderID, payment.ID)
}

// fetchPaymentDetails pulls UTR, method, bank and VPA from the gateway.
// Best effort; verification does not depend on it.
func (s *RazorpayService) fetchPaymentDetails(ctx context.Context, paymentID string) (utr, method, bank, vpa string) {
	client := s.getClient(ctx)
	if client == nil {
		return
	}
	payment, err := client.Payment.Fetch(paymentID, nil, nil)
	if err != nil {
		log.Printf("[Razorpay] Failed to fetch payment %s: %v", paymentID, err)
		return
	}

	if acquirerData, ok := payment["acquirer_data"].(map[string]interface{}); ok {
		if u, ok := acquirerData["upi_transaction_id"].(string); ok {
			utr = u
		}
		if u, ok := acquirerData["bank_transaction_id"].(string); ok && utr == "" {
			utr = u
		}
		if u, ok := acquirerData["rrn"].(string); ok && utr == "" {
			utr = u
		}
	}
	if m, ok := payment["method"].(string); ok {
		method = m
	}
	if b, ok := payment["bank"].(string); ok {
		bank = b
	}
	if v, ok := payment["vpa"].(string); ok {
		vpa = v
	}
	return
}

func (s *RazorpayService) ListTransactions(ctx context.Context, filter models.OnlineTransactionFilter) ([]*models.OnlineTransaction, int, error) {
	return s.txRepo.List(ctx, filter)
}

func (s *RazorpayService) ListFailed(ctx context.Context, limit int) ([]*models.OnlineTransaction, error) {
	return s.txRepo.ListFailed(ctx, limit)
}

func (s *RazorpayService) GetSummary(ctx context.Context, startDate, endDate *time.Time) (*models.OnlinePaymentSummary, error) {
	return s.txRepo.Summary(ctx, startDate, endDate)
}

// Reconcile resolves pending orders the client never reported back on by
// asking the gateway what happened. Returns how many orders were settled.
func (s *RazorpayService) Reconcile(ctx context.Context) (int, error) {
	client := s.getClient(ctx)
	if client == nil {
		return 0, ErrGatewayUnavailable
	}

	cutoff := time.Now().Add(-15 * time.Minute)
	pending, err := s.txRepo.ListPendingOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to list pending orders: %w", err)
	}

	reconciled := 0
	for _, tx := range pending {
		payments, err := client.Order.Payments(tx.RazorpayOrderID, nil, nil)
		if err != nil {
			log.Printf("[Razorpay] Reconcile: failed to fetch payments for %s: %v", tx.RazorpayOrderID, err)
			continue
		}
		items, _ := payments["items"].([]interface{})
		for _, item := range items {
			entity, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			status, _ := entity["status"].(string)
			if status != "captured" {
				continue
			}
			paymentID, _ := entity["id"].(string)
			utr := ""
			if acquirerData, ok := entity["acquirer_data"].(map[string]interface{}); ok {
				if u, ok := acquirerData["rrn"].(string); ok {
					utr = u
				}
			}
			method, _ := entity["method"].(string)
			bank, _ := entity["bank"].(string)
			vpa, _ := entity["vpa"].(string)

			if err := s.txRepo.MarkSuccess(ctx, tx.RazorpayOrderID, paymentID, "", utr, method, bank, vpa); err != nil {
				log.Printf("[Razorpay] Reconcile: failed to mark %s: %v", tx.RazorpayOrderID, err)
				break
			}
			if err := s.applyToRecord(ctx, tx, paymentID, utr); err != nil {
				log.Printf("[Razorpay] Reconcile: failed to apply %s: %v", tx.RazorpayOrderID, err)
				break
			}
			reconciled++
			log.Printf("[Razorpay] Reconciled order %s (%.2f) for member %d",
				tx.RazorpayOrderID, tx.Amount, tx.MemberID)
			break
		}
	}
	return reconciled, nil
}
