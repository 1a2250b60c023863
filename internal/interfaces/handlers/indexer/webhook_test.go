package indexer

import (
	"bytes"
	"net/http/httptest"
	"testing"
	"time"

	"birthpad-backend/internal/application/settlement"
	"birthpad-backend/internal/domain"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "whsec_test"

var fixedNow = time.Unix(1_760_000_000, 0)

func setupWebhook(t *testing.T) (*fiber.App, *settlement.MemoryBus) {
	bus := settlement.NewMemoryBus()
	t.Cleanup(func() { _ = bus.Close() })
	wh := &WebhookHandler{Bus: bus, WebhookSecret: testSecret, Now: func() time.Time { return fixedNow }}
	app := fiber.New()
	app.Post("/indexer/events", wh.HandleEvent)
	return app, bus
}

func post(t *testing.T, app *fiber.App, body []byte, sig string) int {
	t.Helper()
	req := httptest.NewRequest("POST", "/indexer/events", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if sig != "" {
		req.Header.Set("X-Indexer-Signature", sig)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestVerifySignature(t *testing.T) {
	payload := []byte(`{"type":"SaleFinalized"}`)
	header := Sign(payload, testSecret, fixedNow)

	assert.NoError(t, VerifySignature(payload, header, testSecret, fixedNow))
	assert.NoError(t, VerifySignature(payload, header, testSecret, fixedNow.Add(4*time.Minute)))
	assert.Error(t, VerifySignature(payload, header, testSecret, fixedNow.Add(6*time.Minute)))
	assert.Error(t, VerifySignature(payload, header, "other", fixedNow))
	assert.Error(t, VerifySignature([]byte(`{}`), header, testSecret, fixedNow))
	assert.Error(t, VerifySignature(payload, "", testSecret, fixedNow))
	assert.Error(t, VerifySignature(payload, "garbage", testSecret, fixedNow))
	assert.Error(t, VerifySignature(payload, header, "", fixedNow))
}

func TestHandleEvent_Queued(t *testing.T) {
	app, bus := setupWebhook(t)
	body := []byte(`{"type":"ContributionConfirmed","launchId":"p_1","contributionId":"c_1","txHash":"0xabc","amount":"25"}`)

	assert.Equal(t, fiber.StatusAccepted, post(t, app, body, Sign(body, testSecret, fixedNow)))
	assert.Equal(t, 1, bus.Len())
}

func TestHandleEvent_Rejected(t *testing.T) {
	app, bus := setupWebhook(t)
	body := []byte(`{"type":"SaleFinalized","launchId":"p_1","txHash":"0xabc","amount":"0"}`)

	assert.Equal(t, fiber.StatusUnauthorized, post(t, app, body, ""))
	assert.Equal(t, fiber.StatusUnauthorized, post(t, app, body, Sign(body, "wrong", fixedNow)))
	assert.Equal(t, fiber.StatusUnauthorized, post(t, app, body, Sign(body, testSecret, fixedNow.Add(-time.Hour))))

	claimed := []byte(`{"type":"ContributionClaimed","launchId":"p_1","txHash":"0xabc","amount":"1"}`)
	assert.Equal(t, fiber.StatusBadRequest, post(t, app, claimed, Sign(claimed, testSecret, fixedNow)))

	noContribution := []byte(`{"type":"ContributionConfirmed","launchId":"p_1","txHash":"0xabc","amount":"1"}`)
	assert.Equal(t, fiber.StatusBadRequest, post(t, app, noContribution, Sign(noContribution, testSecret, fixedNow)))

	malformed := []byte(`{"type":`)
	assert.Equal(t, fiber.StatusBadRequest, post(t, app, malformed, Sign(malformed, testSecret, fixedNow)))

	assert.Equal(t, 0, bus.Len())
}

func TestHandleEvent_BusClosed(t *testing.T) {
	app, bus := setupWebhook(t)
	require.NoError(t, bus.Close())
	body := []byte(`{"type":"` + domain.EventSaleFinalized + `","launchId":"p_1","txHash":"0xabc","amount":"0"}`)
	assert.Equal(t, fiber.StatusServiceUnavailable, post(t, app, body, Sign(body, testSecret, fixedNow)))
}

func TestHandleEvent_RejectsMalformedIDs(t *testing.T) {
	app, bus := setupWebhook(t)
	for _, body := range [][]byte{
		[]byte(`{"type":"SaleFinalized","launchId":"p_1.x","txHash":"0xabc","amount":"0"}`),
		[]byte(`{"type":"SaleFinalized","launchId":"*","txHash":"0xabc","amount":"0"}`),
		[]byte(`{"type":"SaleFinalized","launchId":"p 1","txHash":"0xabc","amount":"0"}`),
		[]byte(`{"type":"ContributionConfirmed","launchId":"p_1","contributionId":"c>1","txHash":"0xabc","amount":"1"}`),
	} {
		assert.Equal(t, fiber.StatusBadRequest, post(t, app, body, Sign(body, testSecret, fixedNow)), string(body))
	}
	assert.Equal(t, 0, bus.Len())
}
