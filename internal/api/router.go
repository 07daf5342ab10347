package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"github.com/rasoi/chaatbot/internal/api/handler"
	"github.com/rasoi/chaatbot/internal/api/middleware"
	"github.com/rasoi/chaatbot/internal/chat"
	"github.com/rasoi/chaatbot/internal/config"
	"github.com/rasoi/chaatbot/internal/email"
	"github.com/rasoi/chaatbot/internal/llm"
	"github.com/rasoi/chaatbot/internal/llm/deepseek"
	"github.com/rasoi/chaatbot/internal/llm/gemini"
	"github.com/rasoi/chaatbot/internal/llm/openai"
	"github.com/rasoi/chaatbot/internal/repository/postgres"
	"github.com/rasoi/chaatbot/internal/repository/redis"
	"github.com/rasoi/chaatbot/internal/security"
	"github.com/rasoi/chaatbot/internal/service"
	"github.com/rasoi/chaatbot/internal/session"
)

// NewRouter creates and configures the HTTP router with all routes
func NewRouter(cfg *config.Config, db *postgres.DB, redisClient *redis.Client) chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(cfg.Server.MiddlewareTimeout))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{cfg.Server.FrontendURL},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept", "Authorization", "Content-Type",
			middleware.GuestIDHeader, middleware.SessionTokenHeader,
		},
		ExposedHeaders:   []string{middleware.SessionTokenHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Security
	jwtManager := security.NewJWTManager(
		cfg.Auth.JWTSecret,
		cfg.Auth.AccessTokenTTL,
		cfg.Auth.RefreshTokenTTL,
	)

	// Repositories
	userRepo := postgres.NewUserRepository(db)
	menuRepo := postgres.NewMenuRepository(db)
	bookingRepo := postgres.NewBookingRepository(db)
	orderRepo := postgres.NewOrderRepository(db)
	chatLogRepo := postgres.NewChatLogRepository(db)
	reviewRepo := postgres.NewReviewRepository(db)

	// Session cache
	kv := redis.NewKV(redisClient)
	sessions := session.NewManager(kv, cfg.Chat.ContextTTL, cfg.Chat.LangPrefTTL, cfg.Chat.HistoryLimit)

	// LLM providers
	llmRouter := llm.NewRouter(cfg.LLM.DefaultProvider)
	if cfg.LLM.OpenAI.APIKey != "" {
		llmRouter.RegisterProvider(openai.NewProvider(cfg.LLM.OpenAI.APIKey, cfg.LLM.OpenAI.Model))
	}
	if cfg.LLM.DeepSeek.APIKey != "" {
		llmRouter.RegisterProvider(deepseek.NewProvider(cfg.LLM.DeepSeek.APIKey, cfg.LLM.DeepSeek.Model))
	}
	if cfg.LLM.Gemini.APIKey != "" {
		llmRouter.RegisterProvider(gemini.NewProvider(cfg.LLM.Gemini))
	}

	provider, model := defaultModel(cfg)
	chatProvider, err := llmRouter.GetProvider(provider)
	if err != nil {
		log.Fatal().Err(err).Str("provider", provider).Msg("default LLM provider is not configured")
	}

	// Timezone anchor for date handling
	loc := chat.LoadLocation(cfg.Chat.Timezone)
	now := func() time.Time { return time.Now().In(loc) }

	// Chat core
	mailer := email.NewSender(
		cfg.SMTP.Host, cfg.SMTP.Port,
		cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From,
	)
	composer := chat.NewPromptComposer(userRepo, menuRepo, bookingRepo, orderRepo, reviewRepo, cfg.Chat.RestaurantName)
	intents := chat.NewIntentClassifier(chatProvider, model, sessions)
	bookingEngine := chat.NewBookingEngine(bookingRepo, sessions, mailer, now)
	orderEngine := chat.NewOrderEngine(orderRepo, menuRepo, sessions, mailer, cfg.Server.FrontendURL, now)
	chatService := chat.NewService(
		sessions, llmRouter, provider, model,
		composer, intents, bookingEngine, orderEngine,
		chatLogRepo, cfg.Chat.ChatLogMaxLen, now,
	)

	// Services
	authService := service.NewAuthService(userRepo, sessions, jwtManager)

	// Handlers
	authHandler := handler.NewAuthHandler(authService)
	menuHandler := handler.NewMenuHandler(menuRepo)
	chatHandler := handler.NewChatHandler(chatService)
	healthHandler := handler.NewHealthHandler(db)

	authMiddleware := middleware.NewAuthMiddleware(jwtManager)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.Health)
		r.Get("/ready", healthHandler.Ready)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)
		})

		r.Get("/menu", menuHandler.Menu)

		// Chat works for guests and for logged-in users
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.OptionalAuthenticate)
			r.Post("/chat", chatHandler.Chat)
			r.Post("/chat/reset", chatHandler.Reset)
		})
	})

	return r
}

// defaultModel resolves the configured model for the default provider
func defaultModel(cfg *config.Config) (provider, model string) {
	provider = cfg.LLM.DefaultProvider
	switch provider {
	case "openai":
		model = cfg.LLM.OpenAI.Model
	case "deepseek":
		model = cfg.LLM.DeepSeek.Model
	case "gemini":
		model = cfg.LLM.Gemini.Model
	}
	return provider, model
}
