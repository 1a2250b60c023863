package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"birthpad-backend/internal/application/identity"
	"birthpad-backend/internal/application/ledger"
	"birthpad-backend/internal/constants"
	"birthpad-backend/internal/infrastructure/database"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "mw-secret"

func newSignedApp(t *testing.T) (*fiber.App, *ledger.Store) {
	t.Helper()
	db := database.NewTestDB(t)
	store := ledger.New(db)
	v := identity.NewVerifier(secret, &identity.LedgerNonceStore{DB: db}, identity.NewResolver(store, nil))

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Use(Tracing())
	app.Post("/projects", RequireWallet(v, nil, constants.CreateProject), AuthorizeAction(constants.CreateProject), func(c *fiber.Ctx) error {
		actor, ok := GetActor(c)
		require.True(t, ok)
		return c.SendString(actor.Wallet + ":" + actor.Role)
	})
	app.Post("/unconfigured", RequireWallet(v, nil, "mint"), AuthorizeAction("mint"), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app, store
}

func signedRequest(path, wallet, nonce, action, body string) *http.Request {
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set(HeaderWalletAddress, wallet)
	req.Header.Set(HeaderWalletNonce, nonce)
	req.Header.Set(HeaderWalletSignature, identity.Sign(secret, wallet, nonce, action, []byte(body)))
	return req
}

func TestRequireWallet_AcceptsSignedRequest(t *testing.T) {
	app, _ := newSignedApp(t)
	resp, err := app.Test(signedRequest("/projects", "0xfounder", "n1", constants.CreateProject, `{"name":"x"}`), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(traceIDHeader))
}

func TestRequireWallet_RejectsMissingAndWrongSignature(t *testing.T) {
	app, _ := newSignedApp(t)

	resp, err := app.Test(httptest.NewRequest("POST", "/projects", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// signed for another action
	resp, err = app.Test(signedRequest("/projects", "0xfounder", "n2", constants.BuyProject, `{}`), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRequireWallet_NonceReplay(t *testing.T) {
	app, _ := newSignedApp(t)
	resp, err := app.Test(signedRequest("/projects", "0xfounder", "same", constants.CreateProject, `{}`), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(signedRequest("/projects", "0xfounder", "same", constants.CreateProject, `{}`), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAuthorizeAction_RoleTooLow(t *testing.T) {
	app, store := newSignedApp(t)
	_, err := store.EnsureUser(context.Background(), "0xinv", "investor", false)
	require.NoError(t, err)

	resp, err := app.Test(signedRequest("/projects", "0xinv", "n1", constants.CreateProject, `{}`), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAuthorizeAction_UnconfiguredAction(t *testing.T) {
	app, _ := newSignedApp(t)
	resp, err := app.Test(signedRequest("/unconfigured", "0xfounder", "n1", "mint", `{}`), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}
