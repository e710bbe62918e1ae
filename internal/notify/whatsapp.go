package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"pinstock/internal/config"
)

// WhatsAppNotifier sends notifications via the Twilio WhatsApp API.
type WhatsAppNotifier struct {
	accountSID string
	authToken  string
	from       string
	to         string
	enabled    bool
	client     *http.Client
	baseURL    string
}

// NewWhatsAppNotifier creates a new WhatsAppNotifier.
func NewWhatsAppNotifier(cfg config.WhatsAppConfig) *WhatsAppNotifier {
	return &WhatsAppNotifier{
		accountSID: cfg.AccountSID,
		authToken:  cfg.AuthToken,
		from:       whatsappAddr(cfg.From),
		to:         whatsappAddr(cfg.To),
		enabled:    cfg.Enabled && cfg.AccountSID != "" && cfg.AuthToken != "" && cfg.From != "" && cfg.To != "",
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: "https://api.twilio.com",
	}
}

// Name returns the name of the notifier.
func (w *WhatsAppNotifier) Name() string {
	return "whatsapp"
}

// IsEnabled returns whether the notifier is enabled.
func (w *WhatsAppNotifier) IsEnabled() bool {
	return w.enabled
}

// Send sends a notification as a WhatsApp message.
func (w *WhatsAppNotifier) Send(ctx context.Context, n Notification) error {
	if !w.enabled {
		return nil
	}

	body := n.Message
	if n.Title != "" {
		body = fmt.Sprintf("*%s*\n\n%s", n.Title, n.Message)
	}

	to := w.to
	if n.Recipient != "" {
		to = whatsappAddr(n.Recipient)
	}

	form := url.Values{}
	form.Set("From", w.from)
	form.Set("To", to)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", w.baseURL, w.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("creating twilio request: %w", err)
	}

	req.SetBasicAuth(w.accountSID, w.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending whatsapp message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("twilio API returned status %d: %s", resp.StatusCode, twilioErrorMessage(payload))
	}

	return nil
}

// whatsappAddr ensures the Twilio whatsapp: prefix on a phone number.
func whatsappAddr(number string) string {
	if number == "" || strings.HasPrefix(number, "whatsapp:") {
		return number
	}
	return "whatsapp:" + number
}

// twilioErrorMessage extracts the message field from a Twilio error payload.
func twilioErrorMessage(payload []byte) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(payload, &body); err == nil && body.Message != "" {
		return body.Message
	}
	return string(payload)
}
