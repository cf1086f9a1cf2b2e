package router

import (
	"database/sql"
	"net/http"
	"os"

	"paywall/internal/api/v1/handler"
	"paywall/internal/billing"
	"paywall/internal/config"
	"paywall/internal/metrics"
	"paywall/internal/middleware"
	"paywall/internal/pubsub"
	"paywall/internal/repository"
	"paywall/internal/service"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

// Options carries the infrastructure the router wires services onto.
type Options struct {
	Config   *config.Config
	DB       *sql.DB
	Gateway  service.BillingGateway
	OAuth    handler.OAuthProvider
	Notifier pubsub.Notifier
	Registry *prometheus.Registry
	Logger   zerolog.Logger
}

func New(opts Options) http.Handler {
	cfg, logger := opts.Config, opts.Logger
	logger.Info().Str("environment", cfg.Environment).Msg("Router initialized")

	m := metrics.New(opts.Registry)

	// 1. Repositories & services
	accountRepo := repository.NewAccountRepo(opts.DB)
	subscriptionRepo := repository.NewSubscriptionRepo(opts.DB)
	sessionRepo := repository.NewSessionRepo(opts.DB)

	accountSvc := service.NewAccountService(accountRepo)
	sessionSvc := service.NewSessionService(sessionRepo, cfg.SessionTTL, logger)
	subSvc := service.NewSubscriptionService(accountRepo, subscriptionRepo, opts.Notifier, m, logger)
	webhookSvc := service.NewWebhookService(billing.NewStripeVerifier(cfg.StripeWebhookSecret), subSvc, m, logger)
	stripeSvc := service.NewStripeService(accountRepo, opts.Gateway, cfg.StripePriceID, cfg.AppURL, logger)

	// 2. Handlers
	accountHandler := handler.NewAccountHandler(accountSvc, logger)
	billingHandler := handler.NewBillingHandler(stripeSvc, logger)
	webhookHandler := handler.NewWebhookHandler(webhookSvc, logger)
	authHandler := handler.NewAuthHandler(opts.OAuth, accountSvc, sessionSvc, !cfg.IsDevelopment(), logger)
	pageHandler := handler.NewPageHandler(cfg.StripePriceID, cfg.StripePublishableKey)

	// 3. Router
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.LoggerMiddleware(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(corsMiddleware(cfg))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", metrics.Handler(opts.Registry))

	// Stripe authenticates itself with the signature header, not a session.
	r.Post("/api/stripe/webhook", webhookHandler.Stripe)

	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionMiddleware(sessionSvc, logger))
		r.Use(middleware.RouteGuard(accountSvc, m, logger))

		r.Get("/login", authHandler.Login)
		r.Get("/auth/callback/google", authHandler.Callback)
		r.Post("/logout", authHandler.Logout)

		r.Get("/subscribe", pageHandler.Subscribe)
		r.Get("/app", pageHandler.Dashboard)
		r.Get("/app/settings", pageHandler.Settings)
		// Every other /app path still passes the guard before it 404s.
		r.HandleFunc("/app/*", pageHandler.NotFound)

		api := setupHumaAPI(r, cfg)
		registerRoutes(api, accountHandler, billingHandler, logger)
	})

	return r
}

func setupHumaAPI(r chi.Router, cfg *config.Config) huma.API {
	huma.NewError = newAPIError

	// Get version from environment or default to development
	version := os.Getenv("GIT_COMMIT_SHA")
	if version == "" {
		version = "development"
	}

	humaConfig := huma.DefaultConfig("Paywall API", version)
	humaConfig.Info.Description = "Account and Stripe billing endpoints"
	humaConfig.Servers = []*huma.Server{{URL: cfg.AppURL}}

	return humachi.New(r, humaConfig)
}

// registerRoutes registers all Huma operations
func registerRoutes(api huma.API, accountHandler *handler.AccountHandler, billingHandler *handler.BillingHandler, logger zerolog.Logger) {
	huma.Register(api, huma.Operation{
		OperationID: "getMe",
		Method:      http.MethodGet,
		Path:        "/api/me",
		Summary:     "Get the signed-in account",
		Description: "Returns the account with its subscription status and access flags",
		Tags:        []string{"account"},
	}, accountHandler.GetMe)

	huma.Register(api, huma.Operation{
		OperationID: "createCheckoutSession",
		Method:      http.MethodPost,
		Path:        "/api/stripe/checkout",
		Summary:     "Start a subscription checkout",
		Description: "Creates the Stripe customer on first use and returns the URL of a Stripe Checkout session",
		Tags:        []string{"billing"},
	}, billingHandler.Checkout)

	huma.Register(api, huma.Operation{
		OperationID: "createPortalSession",
		Method:      http.MethodPost,
		Path:        "/api/stripe/portal",
		Summary:     "Open the customer portal",
		Description: "Returns the URL of a Stripe Customer Portal session for the signed-in account",
		Tags:        []string{"billing"},
	}, billingHandler.Portal)

	logger.Info().Msg("Huma routes registered")
}

func corsMiddleware(cfg *config.Config) func(http.Handler) http.Handler {
	origins := cfg.CORSAllowedOrigins
	if len(origins) == 0 {
		origins = []string{cfg.AppURL}
	}
	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Stripe-Signature"},
		AllowCredentials: true,
	})
	return c.Handler
}
