package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Cardassist-core-poc/server/internal/store"
	logx "github.com/Cardassist-core-poc/server/pkg/logger"
)

// Config holds WhatsApp Cloud API credentials.
type Config struct {
	AccessToken   string `envconfig:"WHATSAPP_ACCESS_TOKEN"`
	PhoneNumberID string `envconfig:"WHATSAPP_PHONE_NUMBER_ID"`
	APIVersion    string `envconfig:"WHATSAPP_API_VERSION" default:"v18.0"`
	Timeout       int    `envconfig:"WHATSAPP_TIMEOUT" default:"10"`
}

// Enabled reports whether credentials are present.
func (c Config) Enabled() bool {
	return c.AccessToken != "" && c.PhoneNumberID != ""
}

// WhatsAppNotifier sends text messages via the WhatsApp Cloud API, resolving
// the recipient phone number from the user store.
type WhatsAppNotifier struct {
	cfg    Config
	users  *store.UserRepository
	client *http.Client
}

func NewWhatsAppNotifier(cfg Config, users *store.UserRepository) *WhatsAppNotifier {
	return &WhatsAppNotifier{
		cfg:    cfg,
		users:  users,
		client: &http.Client{Timeout: time.Duration(cfg.Timeout) * time.Second},
	}
}

type textPayload struct {
	MessagingProduct string `json:"messaging_product"`
	RecipientType    string `json:"recipient_type"`
	To               string `json:"to"`
	Type             string `json:"type"`
	Text             struct {
		PreviewURL bool   `json:"preview_url"`
		Body       string `json:"body"`
	} `json:"text"`
}

// Notify implements Notifier.
func (n *WhatsAppNotifier) Notify(ctx context.Context, userID, message string) error {
	user, err := n.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("resolve recipient: %w", err)
	}

	payload := textPayload{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               user.Phone,
		Type:             "text",
	}
	payload.Text.Body = message

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal whatsapp payload: %w", err)
	}

	url := fmt.Sprintf("https://graph.facebook.com/%s/%s/messages", n.cfg.APIVersion, n.cfg.PhoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build whatsapp request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+n.cfg.AccessToken)

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send whatsapp message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("whatsapp api returned status %d", resp.StatusCode)
	}

	logx.Debug().Str("user_id", userID).Msg("WhatsApp notification sent")
	return nil
}

var _ Notifier = (*WhatsAppNotifier)(nil)
