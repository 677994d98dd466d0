// Package webhook implements the notification dispatcher. When a mutation
// fires an event (a player points update or a fantasy team score update), the
// dispatcher looks up every webhook subscribed to that event and POSTs it the
// JSON payload, signed with the subscriber's secret token.
//
// Delivery is fire-and-forget by contract: exactly one attempt per
// subscriber, no retry, no queueing of failures, and the triggering request
// never waits for delivery. Consumers must treat notifications as
// best-effort, at-most-once.
package webhook

import (
	"bytes"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/fflapi/fantasy-league/internal/models"
)

// SignatureHeader carries the hex HMAC-SHA256 of the request body, computed
// with the subscriber's secret token. Receivers recompute it to verify both
// origin and integrity.
const SignatureHeader = "X-Signature"

// SubscriberSource yields the webhooks registered for an event. The
// production implementation is backed by the database; tests substitute a
// fake.
type SubscriberSource interface {
	ByEvent(event models.WebhookEvent) ([]models.Webhook, error)
}

// notification pairs an event with the payload to deliver to its subscribers.
type notification struct {
	event   models.WebhookEvent
	payload any
}

// Dispatcher fans notifications out to webhook subscribers. It runs a single
// event loop goroutine fed by a buffered channel, so callers enqueue without
// blocking on network I/O; each individual delivery then runs in its own
// goroutine with a bounded HTTP timeout.
type Dispatcher struct {
	subscribers SubscriberSource
	client      *http.Client
	queue       chan notification
	log         zerolog.Logger
}

// NewDispatcher creates a Dispatcher reading subscribers from src. The queue
// buffer of 256 absorbs bursts; Notify drops (and logs) once it is full
// rather than stalling the request that triggered the event.
func NewDispatcher(src SubscriberSource, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		subscribers: src,
		client:      &http.Client{Timeout: 10 * time.Second},
		queue:       make(chan notification, 256),
		log:         log,
	}
}

// Run is the dispatcher's event loop. It must be called in its own goroutine
// ("go dispatcher.Run()") and returns when Close is called.
func (d *Dispatcher) Run() {
	for n := range d.queue {
		d.fanOut(n)
	}
}

// Close stops the event loop. Deliveries already in flight finish on their
// own goroutines.
func (d *Dispatcher) Close() {
	close(d.queue)
}

// Notify enqueues a notification and returns immediately. The caller's
// response never waits for, or learns about, delivery.
func (d *Dispatcher) Notify(event models.WebhookEvent, payload any) {
	select {
	case d.queue <- notification{event: event, payload: payload}:
	default:
		d.log.Warn().Str("event", string(event)).Msg("webhook queue full, notification dropped")
	}
}

// fanOut resolves the subscribers for a notification and starts one delivery
// goroutine per webhook. The fan-out itself is bounded only by the number of
// registered webhooks.
func (d *Dispatcher) fanOut(n notification) {
	body, err := json.Marshal(n.payload)
	if err != nil {
		d.log.Error().Err(err).Str("event", string(n.event)).Msg("webhook payload not serializable")
		return
	}

	hooks, err := d.subscribers.ByEvent(n.event)
	if err != nil {
		d.log.Error().Err(err).Str("event", string(n.event)).Msg("webhook subscriber lookup failed")
		return
	}

	for _, hook := range hooks {
		go d.deliver(hook, body)
	}
}

// deliver makes the single delivery attempt for one subscriber. Failures are
// logged and swallowed — never retried, never surfaced to the HTTP caller.
func (d *Dispatcher) deliver(hook models.Webhook, body []byte) {
	req, err := http.NewRequest(http.MethodPost, hook.URL, bytes.NewReader(body))
	if err != nil {
		d.log.Warn().Err(err).Str("url", hook.URL).Msg("webhook request build failed")
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SignatureHeader, Sign(hook.SecretToken, body))

	resp, err := d.client.Do(req)
	if err != nil {
		d.log.Warn().Err(err).Str("url", hook.URL).Msg("webhook delivery failed")
		return
	}
	resp.Body.Close()

	d.log.Debug().
		Str("url", hook.URL).
		Str("event", string(hook.Event)).
		Int("status", resp.StatusCode).
		Msg("webhook delivered")
}

// Sign computes the hex HMAC-SHA256 of payload under the given secret. It is
// exported so receivers in tests (and documentation examples) can verify
// signatures the same way subscribers are expected to.
func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// NewSecretToken generates the per-webhook signing secret: 32 random bytes,
// hex encoded. It is returned to the registrant exactly once and never
// regenerated.
func NewSecretToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
