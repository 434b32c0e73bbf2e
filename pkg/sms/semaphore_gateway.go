package sms

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Gateway is the contract for sending a driver notification SMS
type Gateway interface {
	Send(phone, message string) error
}

// SemaphoreGateway implements SMS sending via the Semaphore API
// (Philippine SMS provider)
type SemaphoreGateway struct {
	apiURL     string
	apiKey     string
	senderName string
	client     *http.Client
}

// SemaphoreConfig holds configuration for the Semaphore SMS gateway
type SemaphoreConfig struct {
	APIURL     string
	APIKey     string
	SenderName string
}

// NewSemaphoreGateway creates a new Semaphore SMS gateway client
func NewSemaphoreGateway(config SemaphoreConfig) *SemaphoreGateway {
	apiURL := config.APIURL
	if apiURL == "" {
		apiURL = "https://api.semaphore.co/api/v4/messages"
	}

	return &SemaphoreGateway{
		apiURL:     apiURL,
		apiKey:     config.APIKey,
		senderName: config.SenderName,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// messageStatus is one entry of the Semaphore send response
type messageStatus struct {
	MessageID int64  `json:"message_id"`
	Status    string `json:"status"`
}

// Send sends an SMS message to a Philippine mobile number
func (g *SemaphoreGateway) Send(phone, message string) error {
	if g.apiKey == "" {
		return fmt.Errorf("semaphore gateway: API key is not configured")
	}

	form := url.Values{}
	form.Set("apikey", g.apiKey)
	form.Set("number", phone)
	form.Set("message", message)
	if g.senderName != "" {
		form.Set("sendername", g.senderName)
	}

	resp, err := g.client.Post(g.apiURL, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("semaphore gateway: send request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("semaphore gateway: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("semaphore gateway: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var statuses []messageStatus
	if err := json.Unmarshal(body, &statuses); err != nil {
		return fmt.Errorf("semaphore gateway: parse response: %w", err)
	}
	if len(statuses) == 0 {
		return fmt.Errorf("semaphore gateway: empty response")
	}
	if strings.EqualFold(statuses[0].Status, "failed") {
		return fmt.Errorf("semaphore gateway: message rejected (id=%d)", statuses[0].MessageID)
	}

	return nil
}
