package indexer

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"birthpad-backend/internal/application/settlement"
	"birthpad-backend/internal/domain"
	"birthpad-backend/internal/metrics"
	"birthpad-backend/internal/middleware"
	"birthpad-backend/internal/pkg/response"
	"birthpad-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// Tolerance is how far the signed timestamp may drift from the server clock.
const Tolerance = 300 * time.Second

// WebhookHandler accepts settlement events pushed by the chain indexer.
type WebhookHandler struct {
	Bus           settlement.Bus
	Metrics       *metrics.Metrics
	WebhookSecret string
	Now           func() time.Time
}

// HandleEvent POST /indexer/events: raw body, signature verification, then enqueue.
func (wh *WebhookHandler) HandleEvent(c *fiber.Ctx) error {
	rawBody := c.BodyRaw()
	sig := c.Get(middleware.HeaderIndexerSignature)

	if len(rawBody) == 0 {
		return response.Error(c, "Webhook Error: empty body", fiber.StatusBadRequest, nil)
	}
	if err := VerifySignature(rawBody, sig, wh.WebhookSecret, wh.now()); err != nil {
		log.Warn().Err(err).Bool("has_sig", sig != "").Bool("has_secret", wh.WebhookSecret != "").Msg("Indexer webhook signature verification failed")
		return response.Error(c, fmt.Sprintf("Webhook Error: %s", err.Error()), fiber.StatusUnauthorized, nil)
	}

	var ev domain.SettlementEvent
	if err := json.Unmarshal(rawBody, &ev); err != nil {
		return response.Error(c, fmt.Sprintf("Webhook Error: %s", err.Error()), fiber.StatusBadRequest, nil)
	}
	if err := validate(ev); err != nil {
		return response.Fail(c, err)
	}

	// Unlike in-process emission the indexer can redeliver, so a publish failure is surfaced.
	err := wh.Bus.Publish(c.UserContext(), ev)
	wh.Metrics.RecordSettlementPublished(ev.Type, metrics.Outcome(err))
	if err != nil {
		log.Error().Err(err).Str("launch_id", ev.LaunchID).Str("type", ev.Type).Msg("indexer event publish failed")
		return response.Error(c, "Settlement bus unavailable", fiber.StatusServiceUnavailable, nil)
	}
	log.Info().Str("launch_id", ev.LaunchID).Str("type", ev.Type).Str("contribution_id", ev.ContributionID).Msg("indexer event queued")
	return response.Accepted(c, "Event queued", fiber.Map{"status": "queued"})
}

func (wh *WebhookHandler) now() time.Time {
	if wh.Now != nil {
		return wh.Now()
	}
	return time.Now()
}

func validate(ev domain.SettlementEvent) error {
	if !domain.Settleable(ev.Type) {
		return domain.Invalid("type must be ContributionConfirmed, SaleFinalized or ContributionRefunded")
	}
	if ev.LaunchID == "" {
		return domain.Invalid("launchId is required")
	}
	if !validation.IsValidID(ev.LaunchID) {
		return domain.Invalid("launchId is malformed")
	}
	if ev.ContributionID != "" && !validation.IsValidID(ev.ContributionID) {
		return domain.Invalid("contributionId is malformed")
	}
	if ev.TxHash == "" {
		return domain.Invalid("txHash is required")
	}
	if ev.Type == domain.EventContributionConfirmed && ev.ContributionID == "" {
		return domain.Invalid("contributionId is required")
	}
	if ev.Amount.IsNegative() {
		return domain.Invalid("amount must not be negative")
	}
	return nil
}

// Sign builds an X-Indexer-Signature header value for payload at ts.
func Sign(payload []byte, secret string, ts time.Time) string {
	t := strconv.FormatInt(ts.Unix(), 10)
	return "t=" + t + ",v1=" + computeSignature(t, payload, secret)
}

func computeSignature(t string, payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(t))
	mac.Write([]byte("."))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a "t=<unix>,v1=<hex>" header against the payload.
func VerifySignature(payload []byte, header, secret string, now time.Time) error {
	if secret == "" {
		return errors.New("webhook secret not configured")
	}
	if header == "" {
		return errors.New("missing signature header")
	}

	var timestamp string
	var signatures []string
	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			timestamp = kv[1]
		case "v1":
			signatures = append(signatures, kv[1])
		}
	}
	if timestamp == "" || len(signatures) == 0 {
		return errors.New("invalid signature header format")
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return errors.New("invalid timestamp")
	}
	drift := now.Sub(time.Unix(ts, 0))
	if drift > Tolerance || drift < -Tolerance {
		return errors.New("timestamp outside tolerance")
	}

	expected := computeSignature(timestamp, payload, secret)
	for _, sig := range signatures {
		if hmac.Equal([]byte(expected), []byte(sig)) {
			return nil
		}
	}
	return errors.New("signature mismatch")
}
