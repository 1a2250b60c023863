package middleware

import (
	"birthpad-backend/internal/application/identity"
	"birthpad-backend/internal/metrics"
	"birthpad-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

const (
	HeaderWalletAddress    = "x-wallet-address"
	HeaderWalletNonce      = "x-wallet-nonce"
	HeaderWalletSignature  = "x-wallet-signature"
	HeaderIndexerSignature = "x-indexer-signature"

	actorLocal = "wallet"
)

// RequireWallet verifies the signed wallet headers for action against the raw
// request body and stores the verified actor in Locals.
func RequireWallet(v *identity.Verifier, m *metrics.Metrics, action string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cred := identity.Credentials{
			Wallet:    c.Get(HeaderWalletAddress),
			Nonce:     c.Get(HeaderWalletNonce),
			Signature: c.Get(HeaderWalletSignature),
		}
		actor, err := v.Verify(c.UserContext(), cred, action, c.Body())
		m.RecordWalletAuth(action, metrics.Outcome(err))
		if err != nil {
			log.Warn().Str("trace_id", GetTraceID(c)).Str("action", action).Str("wallet", cred.Wallet).Err(err).Msg("wallet auth rejected")
			return response.Fail(c, err)
		}
		c.Locals(actorLocal, *actor)
		return c.Next()
	}
}

// GetActor returns the verified wallet actor (ok=false when the route is unsigned).
func GetActor(c *fiber.Ctx) (identity.Actor, bool) {
	a, ok := c.Locals(actorLocal).(identity.Actor)
	return a, ok
}
