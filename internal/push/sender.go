package push

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/SherClockHolmes/webpush-go"

	"github.com/tariel-x/pushrelay/internal/models"
)

// ErrPayloadTooLarge means the encrypted payload would not fit in one Web
// Push record. The message itself is at fault, so retrying cannot help.
var ErrPayloadTooLarge = errors.New("notification payload is too large")

// Message is one delivery attempt.
type Message struct {
	Payload []byte
	TTL     int
	Urgency models.Urgency
	Topic   string
}

type Result struct {
	StatusCode int
}

// Sender delivers a message to a single subscription.
type Sender interface {
	Send(ctx context.Context, sub models.Subscription, msg Message) (Result, error)
}

// DeliveryError is returned when the push service rejects the message or
// could not be reached. StatusCode is 0 for transport failures.
type DeliveryError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *DeliveryError) Error() string {
	switch {
	case e.Err != nil && e.StatusCode == 0:
		return fmt.Sprintf("push delivery failed: %v", e.Err)
	case e.Body != "":
		return fmt.Sprintf("push service returned %d: %s", e.StatusCode, e.Body)
	default:
		return fmt.Sprintf("push service returned %d", e.StatusCode)
	}
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// IsGone reports whether the push service said the endpoint no longer exists.
func IsGone(err error) bool {
	var de *DeliveryError
	if !errors.As(err, &de) {
		return false
	}
	return de.StatusCode == http.StatusNotFound || de.StatusCode == http.StatusGone
}

// StatusCode extracts the push service status from err, or 0.
func StatusCode(err error) int {
	var de *DeliveryError
	if errors.As(err, &de) {
		return de.StatusCode
	}
	return 0
}

type VAPIDKeys struct {
	PublicKey  string
	PrivateKey string
	Subject    string
}

type WebPushSender struct {
	keys   VAPIDKeys
	client webpush.HTTPClient
	logger *slog.Logger
}

func NewWebPushSender(keys VAPIDKeys, timeout time.Duration, logger *slog.Logger) *WebPushSender {
	// webpush-go prefixes every non-https subscriber with mailto: itself.
	keys.Subject = strings.TrimPrefix(keys.Subject, "mailto:")
	return &WebPushSender{
		keys:   keys,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

func (s *WebPushSender) Send(ctx context.Context, sub models.Subscription, msg Message) (Result, error) {
	subscription := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: strings.TrimSpace(sub.Keys.P256DH),
			Auth:   strings.TrimSpace(sub.Keys.Auth),
		},
	}

	opts := &webpush.Options{
		HTTPClient:      s.client,
		Subscriber:      s.keys.Subject,
		VAPIDPublicKey:  s.keys.PublicKey,
		VAPIDPrivateKey: s.keys.PrivateKey,
		TTL:             msg.TTL,
		Topic:           msg.Topic,
	}
	if msg.Urgency != "" {
		opts.Urgency = webpush.Urgency(msg.Urgency)
	}

	resp, err := webpush.SendNotificationWithContext(ctx, msg.Payload, subscription, opts)
	if err != nil {
		if errors.Is(err, webpush.ErrMaxPadExceeded) {
			return Result{}, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(msg.Payload))
		}
		return Result{}, &DeliveryError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Result{}, &DeliveryError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	s.logger.Debug("push delivered", "endpoint", sub.ShortEndpoint(), "status", resp.StatusCode, "ttl", msg.TTL)
	return Result{StatusCode: resp.StatusCode}, nil
}

// GenerateVAPIDKeys returns a fresh key pair in the encoding browsers and
// webpush-go expect (raw URL-safe base64).
func GenerateVAPIDKeys() (publicKey, privateKey string, err error) {
	privateKey, publicKey, err = webpush.GenerateVAPIDKeys()
	if err != nil {
		return "", "", fmt.Errorf("failed to generate VAPID keys: %w", err)
	}
	return publicKey, privateKey, nil
}
