package sms

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Provider sends a single SMS. Delivery logging happens at the caller,
// which knows the fee record the message belongs to.
type Provider interface {
	SendSMS(phone, message string) error
}

// Config holds provider routing configuration
type Config struct {
	Route      string // "q" (quick/expensive), "dlt" (cheap, needs registration), "v3" (promotional, 9am-9pm)
	SenderID   string // DLT and promotional routes
	TemplateID string // DLT route
}

// Fast2SMSService sends through Fast2SMS (India)
type Fast2SMSService struct {
	APIKey string
	Config Config
	client *http.Client
}

func NewFast2SMSService(apiKey string) *Fast2SMSService {
	return &Fast2SMSService{
		APIKey: apiKey,
		Config: Config{Route: "q"},
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *Fast2SMSService) SetConfig(cfg Config) {
	if cfg.Route != "" {
		s.Config = cfg
	}
}

func (s *Fast2SMSService) SendSMS(phone, message string) error {
	var apiURL string
	switch s.Config.Route {
	case "dlt":
		apiURL = fmt.Sprintf(
			"https://www.fast2sms.com/dev/bulkV2?authorization=%s&route=dlt&sender_id=%s&message=%s&variables_values=%s&flash=0&numbers=%s",
			url.QueryEscape(s.APIKey),
			url.QueryEscape(s.Config.SenderID),
			url.QueryEscape(s.Config.TemplateID),
			url.QueryEscape(message),
			url.QueryEscape(phone),
		)
	case "v3":
		apiURL = fmt.Sprintf(
			"https://www.fast2sms.com/dev/bulkV2?authorization=%s&route=v3&sender_id=%s&message=%s&language=english&numbers=%s",
			url.QueryEscape(s.APIKey),
			url.QueryEscape(s.Config.SenderID),
			url.QueryEscape(message),
			url.QueryEscape(phone),
		)
	default:
		apiURL = fmt.Sprintf(
			"https://www.fast2sms.com/dev/bulkV2?authorization=%s&route=q&message=%s&language=english&flash=0&numbers=%s",
			url.QueryEscape(s.APIKey),
			url.QueryEscape(message),
			url.QueryEscape(phone),
		)
	}

	resp, err := s.client.Get(apiURL)
	if err != nil {
		return fmt.Errorf("failed to send SMS: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("SMS API error (status %d): %s", resp.StatusCode, string(body))
	}
	if strings.Contains(string(body), "\"return\":false") {
		return fmt.Errorf("SMS API error: %s", string(body))
	}
	return nil
}

// MockService prints messages to the log instead of sending them.
// Used in development when no API key is configured.
type MockService struct{}

func NewMockService() *MockService {
	return &MockService{}
}

func (s *MockService) SendSMS(phone, message string) error {
	log.Printf("[MockSMS] to=%s message=%q", phone, message)
	return nil
}
