package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fflapi/fantasy-league/internal/models"
)

// fakeSource is an in-memory SubscriberSource.
type fakeSource struct {
	hooks []models.Webhook
}

func (f *fakeSource) ByEvent(event models.WebhookEvent) ([]models.Webhook, error) {
	var matched []models.Webhook
	for _, h := range f.hooks {
		if h.Event == event {
			matched = append(matched, h)
		}
	}
	return matched, nil
}

// capture records the deliveries a test endpoint receives.
type capture struct {
	mu        sync.Mutex
	bodies    []string
	sigs      []string
	types     []string
	delivered chan struct{}
}

func newCapture() *capture {
	return &capture{delivered: make(chan struct{}, 16)}
}

func (cp *capture) handler(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	cp.mu.Lock()
	cp.bodies = append(cp.bodies, string(body))
	cp.sigs = append(cp.sigs, r.Header.Get(SignatureHeader))
	cp.types = append(cp.types, r.Header.Get("Content-Type"))
	cp.mu.Unlock()
	cp.delivered <- struct{}{}
}

func (cp *capture) wait(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-cp.delivered:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for delivery %d of %d", i+1, n)
		}
	}
}

func (cp *capture) count() int {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	return len(cp.bodies)
}

func TestSign(t *testing.T) {
	payload := []byte(`{"playerId":"p1","addedPoints":3,"totalPoints":8}`)

	mac := hmac.New(sha256.New, []byte("secret-token"))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	assert.Equal(t, expected, Sign("secret-token", payload))
	assert.NotEqual(t, expected, Sign("other-token", payload), "different secrets must produce different signatures")
}

func TestNewSecretToken(t *testing.T) {
	first, err := NewSecretToken()
	require.NoError(t, err)
	second, err := NewSecretToken()
	require.NoError(t, err)

	assert.Len(t, first, 64, "32 random bytes, hex encoded")
	_, err = hex.DecodeString(first)
	assert.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestDispatcherDeliversSignedPayloadToEachSubscriber(t *testing.T) {
	cp := newCapture()
	server := httptest.NewServer(http.HandlerFunc(cp.handler))
	defer server.Close()

	src := &fakeSource{hooks: []models.Webhook{
		{ID: uuid.New(), URL: server.URL, Event: models.EventPointsUpdate, SecretToken: "secret-one"},
		{ID: uuid.New(), URL: server.URL, Event: models.EventPointsUpdate, SecretToken: "secret-two"},
		{ID: uuid.New(), URL: server.URL, Event: models.EventFantasyTeamScoreUpdate, SecretToken: "secret-other"},
	}}

	d := NewDispatcher(src, zerolog.Nop())
	go d.Run()
	defer d.Close()

	payload := map[string]any{"playerId": uuid.NewString(), "addedPoints": 3, "totalPoints": 8}
	d.Notify(models.EventPointsUpdate, payload)

	cp.wait(t, 2)
	// Give any stray delivery to the non-subscribed hook a moment to show up.
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, 2, cp.count(), "only pointsUpdate subscribers receive the notification")

	expectedBody, err := json.Marshal(payload)
	require.NoError(t, err)

	cp.mu.Lock()
	defer cp.mu.Unlock()
	sigs := map[string]bool{}
	for i := range cp.bodies {
		assert.JSONEq(t, string(expectedBody), cp.bodies[i])
		assert.Equal(t, "application/json", cp.types[i])
		sigs[cp.sigs[i]] = true
	}
	assert.True(t, sigs[Sign("secret-one", []byte(cp.bodies[0]))])
	assert.True(t, sigs[Sign("secret-two", []byte(cp.bodies[0]))])
}

func TestDispatcherSwallowsFailedDeliveries(t *testing.T) {
	cp := newCapture()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cp.handler(w, r)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	src := &fakeSource{hooks: []models.Webhook{
		{ID: uuid.New(), URL: server.URL, Event: models.EventFantasyTeamScoreUpdate, SecretToken: "s"},
		{ID: uuid.New(), URL: "http://127.0.0.1:1/unreachable", Event: models.EventFantasyTeamScoreUpdate, SecretToken: "s"},
	}}

	d := NewDispatcher(src, zerolog.Nop())
	go d.Run()
	defer d.Close()

	d.Notify(models.EventFantasyTeamScoreUpdate, map[string]any{"fantasyTeamId": uuid.NewString(), "newTotalScore": 42})

	cp.wait(t, 1)
	// At-most-once: neither the 500 response nor the unreachable endpoint
	// triggers a retry.
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, cp.count())
}

func TestNotifyNeverBlocksWhenQueueIsFull(t *testing.T) {
	d := NewDispatcher(&fakeSource{}, zerolog.Nop())
	// Run is deliberately not started, so the queue only drains by dropping.

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			d.Notify(models.EventPointsUpdate, i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Notify blocked on a full queue")
	}
}
