package clerk

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	svix "github.com/svix/svix-webhooks/go"

	"smartstay/internal/domain"
)

// WebhookVerifier checks the Svix signatures Clerk puts on webhook deliveries.
// svix enforces the 5-minute timestamp tolerance and accepts any of several
// space-separated v1 signatures.
type WebhookVerifier struct {
	wh *svix.Webhook
}

func NewWebhookVerifier(secret string) (*WebhookVerifier, error) {
	if strings.TrimPrefix(secret, "whsec_") == "" {
		return nil, errors.New("webhook secret is empty")
	}
	wh, err := svix.NewWebhook(secret)
	if err != nil {
		return nil, fmt.Errorf("webhook secret must be base64 (whsec_...): %w", err)
	}
	return &WebhookVerifier{wh: wh}, nil
}

func (w *WebhookVerifier) Verify(h http.Header, body []byte) error {
	if err := w.wh.Verify(body, h); err != nil {
		return fmt.Errorf("webhook signature: %v: %w", err, domain.ErrUnauthorized)
	}
	return nil
}
