package bootstrap

import (
	"context"
	"log"
	"time"

	"signaware-be/internal/config"
	"signaware-be/internal/controller"
	"signaware-be/internal/pkg/logger"
	"signaware-be/internal/pkg/mailer"
	"signaware-be/internal/pkg/sessionlock"
	"signaware-be/internal/repository/unitofwork"
	"signaware-be/internal/service"
	"signaware-be/internal/websocket"
	"signaware-be/pkg/chat/grounding"
	"signaware-be/pkg/chat/prompt"
	"signaware-be/pkg/chat/relay"
	"signaware-be/pkg/chat/session"
	"signaware-be/pkg/llm"
	"signaware-be/pkg/llm/factory"

	pkgNats "signaware-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AuthController     controller.IAuthController
	OAuthController    controller.IOAuthController
	UserController     controller.IUserController
	DocumentController controller.IDocumentController
	PiiController      controller.IPiiController
	ChatController     controller.IChatController

	// WebSocket transport
	ChatWsHandler *websocket.ChatHandler

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	Logger logger.ILogger
}

// newProvider builds an LLM provider for the configured backend and returns
// it together with the model name used for attribution.
func newProvider(cfg *config.Config, providerType string) (llm.LLMProvider, string) {
	modelName := cfg.Ai.OllamaModel
	baseURL := cfg.Ai.OllamaBaseURL
	apiKey := ""
	if providerType == "openai" {
		modelName = cfg.Ai.OpenAIModel
		baseURL = cfg.Ai.OpenAIBaseURL
		apiKey = cfg.Ai.OpenAIAPIKey
	}

	provider, err := factory.NewLLMProvider(providerType, modelName, baseURL, apiKey)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", providerType, modelName)
	return provider, modelName
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.SenderName,
	)

	// 2. Job Queue
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 2.5 Infrastructure
	natsPub, err := pkgNats.NewPublisher(cfg.App.NatsURL, cfg.App.NatsStream, cfg.App.NatsSubjectPrefix)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}

	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
		rdb = nil
	}

	// 3. Model Providers
	chatProvider, chatModel := newProvider(cfg, cfg.Ai.ChatProvider)
	maskingProvider, maskingModel := newProvider(cfg, cfg.Ai.MaskingProvider)

	// 4. Chat Infrastructure
	grounder := grounding.NewGrounder(rdb, sysLogger)
	promptBuilder := prompt.NewBuilder(cfg.Chat.HistoryBudgetChars)
	sessionRegistry := session.NewRegistry()
	streamRelay := relay.New(cfg.Chat.StreamBufferSize)
	sessionLocks := sessionlock.NewKeyedMutex()

	// 5. Services
	authService := service.NewAuthService(uowFactory, emailService, natsPub)
	oauthService := service.NewOAuthService(uowFactory)
	userService := service.NewUserService(uowFactory, natsPub)

	documentService := service.NewDocumentService(
		uowFactory,
		chatProvider,
		pubSub,
		cfg.Chat.AnalyzeTopic,
		natsPub,
		grounder,
		sysLogger,
	)
	piiService := service.NewPiiService(uowFactory, maskingProvider, maskingModel, natsPub, sysLogger)

	chatService := service.NewChatService(
		uowFactory,
		chatProvider,
		chatModel,
		promptBuilder,
		grounder,
		sessionRegistry,
		streamRelay,
		sessionLocks,
		time.Duration(cfg.Chat.UpstreamTimeoutSeconds)*time.Second,
		sysLogger,
	)

	consumerService := service.NewConsumerService(pubSub, cfg.Chat.AnalyzeTopic, documentService)

	// 6. Controllers
	return &Container{
		AuthController:     controller.NewAuthController(authService),
		OAuthController:    controller.NewOAuthController(oauthService),
		UserController:     controller.NewUserController(userService),
		DocumentController: controller.NewDocumentController(documentService),
		PiiController:      controller.NewPiiController(piiService),
		ChatController:     controller.NewChatController(chatService, sysLogger),

		ChatWsHandler: websocket.NewChatHandler(chatService, sysLogger),

		ConsumerService: consumerService,
		Logger:          sysLogger,
	}
}
