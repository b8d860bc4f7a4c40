package push

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/crafthaven/crafthaven/app/models"
)

// ErrEndpointGone classifies a delivery response saying the endpoint no
// longer exists. Further attempts are futile; the subscription gets removed.
var ErrEndpointGone = errors.New("push endpoint gone")

// Sender delivers one encrypted message to one subscription endpoint.
type Sender interface {
	Send(ctx context.Context, sub models.PushSubscription, message []byte) error
}

// VAPIDConfig holds the server's voluntary application identification keys.
type VAPIDConfig struct {
	PublicKey  string
	PrivateKey string
	Subscriber string
	TTL        int
}

type webpushSender struct {
	cfg VAPIDConfig
}

// NewWebPushSender validates the VAPID configuration once, fail-fast.
func NewWebPushSender(cfg VAPIDConfig) (Sender, error) {
	if strings.TrimSpace(cfg.PublicKey) == "" || strings.TrimSpace(cfg.PrivateKey) == "" {
		return nil, errors.New("VAPID public/private keys are not configured")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 86400
	}
	return &webpushSender{cfg: cfg}, nil
}

// Send encrypts the message to the endpoint's own key material and posts it.
// HTTP 404/410 responses are classified gone; other non-2xx responses are
// plain delivery errors left to the caller to log.
func (s *webpushSender) Send(ctx context.Context, sub models.PushSubscription, message []byte) error {
	resp, err := webpush.SendNotificationWithContext(ctx, message, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dh,
			Auth:   sub.Auth,
		},
	}, &webpush.Options{
		Subscriber:      s.cfg.Subscriber,
		VAPIDPublicKey:  s.cfg.PublicKey,
		VAPIDPrivateKey: s.cfg.PrivateKey,
		TTL:             s.cfg.TTL,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return ErrEndpointGone
	case resp.StatusCode >= 400:
		return fmt.Errorf("push endpoint responded with status %d", resp.StatusCode)
	}
	return nil
}
