package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/Di-arva/diarva-backend/logging"

	"github.com/sony/gobreaker"
)

// Notifier is the outbound notification gateway contract. Delivery is at
// most once, best effort: callers log failures and move on, and no send ever
// happens inside a transaction.
type Notifier interface {
	SendEmail(to, subject, body string) error
	SendSMS(to, message string) error
}

// NotificationService delivers messages through the external notifications
// service over HTTP, behind a circuit breaker.
type NotificationService struct {
	BaseURL    string
	HTTPClient *http.Client
	Breaker    *gobreaker.CircuitBreaker
}

func NewNotificationService(baseURL string, httpClient *http.Client, breaker *gobreaker.CircuitBreaker) *NotificationService {
	return &NotificationService{
		BaseURL:    baseURL,
		HTTPClient: httpClient,
		Breaker:    breaker,
	}
}

func (s *NotificationService) post(path string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode notification payload: %v", err)
	}

	_, err = s.Breaker.Execute(func() (interface{}, error) {
		resp, err := s.HTTPClient.Post(s.BaseURL+path, "application/json", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 300 {
			return nil, fmt.Errorf("notifications service returned status %d", resp.StatusCode)
		}
		return nil, nil
	})
	return err
}

func (s *NotificationService) SendEmail(to, subject, body string) error {
	err := s.post("/api/notifications/email", map[string]string{
		"to":      to,
		"subject": subject,
		"body":    body,
	})
	if err != nil {
		logging.Logger.Errorf("Event ID: NOTIFICATION_EMAIL_FAILED, Description: Failed to send email to %s: %v", to, err)
	}
	return err
}

func (s *NotificationService) SendSMS(to, message string) error {
	err := s.post("/api/notifications/sms", map[string]string{
		"to":      to,
		"message": message,
	})
	if err != nil {
		logging.Logger.Errorf("Event ID: NOTIFICATION_SMS_FAILED, Description: Failed to send SMS to %s: %v", to, err)
	}
	return err
}
