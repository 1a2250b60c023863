package router

import (
	"net/http"

	"birthpad-backend/internal/application/contributions"
	healthsvc "birthpad-backend/internal/application/health"
	"birthpad-backend/internal/application/identity"
	launchsvc "birthpad-backend/internal/application/launches"
	portfoliosvc "birthpad-backend/internal/application/portfolio"
	"birthpad-backend/internal/application/settlement"
	txsvc "birthpad-backend/internal/application/transactions"
	"birthpad-backend/internal/application/vesting"
	"birthpad-backend/internal/config"
	"birthpad-backend/internal/constants"
	deployhandler "birthpad-backend/internal/interfaces/handlers/deployment"
	healthhandler "birthpad-backend/internal/interfaces/handlers/health"
	indexerhandler "birthpad-backend/internal/interfaces/handlers/indexer"
	launchhandler "birthpad-backend/internal/interfaces/handlers/launches"
	portfoliohandler "birthpad-backend/internal/interfaces/handlers/portfolio"
	txhandler "birthpad-backend/internal/interfaces/handlers/transactions"
	"birthpad-backend/internal/metrics"
	"birthpad-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

// Services are the built application services the HTTP surface exposes.
type Services struct {
	Verifier     *identity.Verifier
	Launches     *launchsvc.Service
	Processor    *contributions.Processor
	Vesting      *vesting.Calculator
	Transactions *txsvc.Service
	Portfolio    *portfoliosvc.Service
	Bus          settlement.Bus
	Metrics      *metrics.Metrics
	Registry     *prometheus.Registry
	Rdb          *redis.Client
	DB           healthsvc.DBPinger
	Backlog      healthsvc.Backlog
}

// CreateApp builds the Fiber app with all global middleware and route registration.
func CreateApp(cfg *config.Config, s Services) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
	})

	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLEndsWith,
		DevPassword:   cfg.DevPassword,
	}))
	app.Use(middleware.HealthMarker(s.Rdb))
	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())
	app.Use(metrics.Middleware(s.Metrics))

	// Health
	hh := &healthhandler.Handlers{
		Rdb:            s.Rdb,
		DB:             s.DB,
		Backlog:        s.Backlog,
		HealthAdminKey: cfg.HealthAdminKey,
	}
	app.Get("/health", hh.Live)
	app.Get("/health/json", hh.JSON)
	app.Get("/health/errors", hh.Errors)
	app.Get("/health/reset", hh.Reset)
	if s.Registry != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(s.Registry, promhttp.HandlerOpts{})))
	}

	// Deployment registry
	dh := &deployhandler.Handlers{Deployment: cfg.Deployment}
	app.Get("/config/deployment", dh.GetDeployment)

	// Indexer webhook reads the raw body, so it must not sit behind a body-rewriting middleware.
	wh := &indexerhandler.WebhookHandler{Bus: s.Bus, Metrics: s.Metrics, WebhookSecret: cfg.IndexerWebhookSecret}
	app.Post("/indexer/events", wh.HandleEvent)

	signed := func(action string) []fiber.Handler {
		return []fiber.Handler{
			middleware.RequireWallet(s.Verifier, s.Metrics, action),
			middleware.AuthorizeAction(action),
		}
	}
	with := func(action string, h fiber.Handler) []fiber.Handler {
		return append(signed(action), h)
	}

	// Projects
	lh := &launchhandler.Handlers{Service: s.Launches, Processor: s.Processor, Vesting: s.Vesting}
	pg := app.Group("/projects")
	pg.Post("/", with(constants.CreateProject, lh.CreateProject)...)
	pg.Get("/", lh.ListProjects)
	pg.Get("/:id", lh.GetProject)
	pg.Get("/:id/risk", lh.GetRisk)
	pg.Post("/:id/buy", with(constants.BuyProject, lh.Buy)...)
	pg.Get("/:id/claimable", with(constants.ClaimableProject, lh.Claimable)...)
	pg.Post("/:id/claim", with(constants.ClaimProject, lh.Claim)...)
	pg.Put("/:id/whitelist", with(constants.UpdateWhitelist, lh.UpdateWhitelist)...)
	pg.Post("/:id/pause", with(constants.PauseProject, lh.Pause)...)
	pg.Post("/:id/resume", with(constants.ResumeProject, lh.Resume)...)
	pg.Post("/:id/finalize", with(constants.FinalizeProject, lh.Finalize)...)
	pg.Post("/:id/refund", with(constants.RefundProject, lh.Refund)...)

	// Transactions feed
	txh := &txhandler.Handlers{Service: s.Transactions}
	app.Get("/transactions", txh.GetTransactions)

	// Portfolio
	ph := &portfoliohandler.Handlers{Service: s.Portfolio}
	app.Get("/portfolio/:wallet", ph.ViewPortfolio)

	return app
}

// Handler returns an http.Handler for serverless runtimes.
func Handler(app *fiber.App) http.Handler {
	return adaptor.FiberApp(app)
}
