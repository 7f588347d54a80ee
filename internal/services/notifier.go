package services

import (
	"fmt"

	"celebration-backend/internal/config"

	"github.com/rs/zerolog/log"
	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/certificate"
	"github.com/sideshow/apns2/payload"
)

// Notifier sends APNs pushes for activity that happens while the app is
// backgrounded: incoming friend requests and shared events. A nil client
// (no certificate configured) makes every Push a no-op.
type Notifier struct {
	client *apns2.Client
	topic  string
}

// NewNotifier creates a notifier from APNs config. Returns a disabled
// notifier when no certificate path is set.
func NewNotifier(cfg config.APNSConfig) (*Notifier, error) {
	if cfg.CertPath == "" {
		return &Notifier{}, nil
	}

	cert, err := certificate.FromP12File(cfg.CertPath, cfg.CertPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to load APNs certificate: %w", err)
	}

	client := apns2.NewClient(cert).Development()
	if cfg.Production {
		client = apns2.NewClient(cert).Production()
	}
	return &Notifier{client: client, topic: cfg.Topic}, nil
}

// Push sends an alert to a device token. Delivery failures are logged
// and swallowed.
func (n *Notifier) Push(deviceToken *string, alert string, custom map[string]interface{}) {
	if n.client == nil || deviceToken == nil || *deviceToken == "" {
		return
	}

	p := payload.NewPayload().Alert(alert).Sound("default")
	for k, v := range custom {
		p = p.Custom(k, v)
	}

	res, err := n.client.Push(&apns2.Notification{
		DeviceToken: *deviceToken,
		Topic:       n.topic,
		Payload:     p,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to send push notification")
		return
	}
	if !res.Sent() {
		log.Warn().Str("reason", res.Reason).Msg("Push notification rejected")
	}
}
