package contact

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultEmailJSEndpoint is the EmailJS REST send endpoint.
const DefaultEmailJSEndpoint = "https://api.emailjs.com/api/v1.0/email/send"

// EmailJSSender posts messages to the EmailJS REST API.
type EmailJSSender struct {
	Endpoint string
	// PrivateKey is sent as accessToken when the account requires it.
	PrivateKey string
	Client     *http.Client
}

// NewEmailJSSender returns a sender for endpoint, or the public EmailJS API
// when endpoint is empty.
func NewEmailJSSender(endpoint, privateKey string) *EmailJSSender {
	if endpoint == "" {
		endpoint = DefaultEmailJSEndpoint
	}
	return &EmailJSSender{
		Endpoint:   endpoint,
		PrivateKey: privateKey,
		Client:     &http.Client{Timeout: 15 * time.Second},
	}
}

type emailJSRequest struct {
	ServiceID      string            `json:"service_id"`
	TemplateID     string            `json:"template_id"`
	UserID         string            `json:"user_id"`
	AccessToken    string            `json:"accessToken,omitempty"`
	TemplateParams map[string]string `json:"template_params"`
}

// Send delivers d. Any non-2xx response is an error carrying the response
// text.
func (s *EmailJSSender) Send(ctx context.Context, creds Credentials, d Draft) error {
	body, err := json.Marshal(emailJSRequest{
		ServiceID:      creds.ServiceID,
		TemplateID:     creds.TemplateID,
		UserID:         creds.PublicKey,
		AccessToken:    s.PrivateKey,
		TemplateParams: d.Params(),
	})
	if err != nil {
		return fmt.Errorf("encoding emailjs request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.Endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building emailjs request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("calling emailjs: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("emailjs rejected message: %d %s", resp.StatusCode, strings.TrimSpace(string(text)))
	}
	return nil
}
