package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"runtime/debug"
	"time"

	"github.com/gorilla/mux"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"

	"github.com/opdesk-io/opdesk/migrations"
	"github.com/opdesk-io/opdesk/modules/chat/infrastructure/engine"
	"github.com/opdesk-io/opdesk/modules/chat/infrastructure/jobs"
	chatpersistence "github.com/opdesk-io/opdesk/modules/chat/infrastructure/persistence"
	"github.com/opdesk-io/opdesk/modules/chat/infrastructure/telegram"
	"github.com/opdesk-io/opdesk/modules/chat/presentation/controllers"
	chatservices "github.com/opdesk-io/opdesk/modules/chat/services"
	corepersistence "github.com/opdesk-io/opdesk/modules/core/infrastructure/persistence"
	coreservices "github.com/opdesk-io/opdesk/modules/core/services"
	"github.com/opdesk-io/opdesk/pkg/application"
	"github.com/opdesk-io/opdesk/pkg/configuration"
	"github.com/opdesk-io/opdesk/pkg/eventbus"
	"github.com/opdesk-io/opdesk/pkg/httpapi"
	"github.com/opdesk-io/opdesk/pkg/metrics"
	"github.com/opdesk-io/opdesk/pkg/middleware"
	"github.com/opdesk-io/opdesk/pkg/server"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			configuration.Use().Unload()
			log.Println(r)
			debug.PrintStack()
			os.Exit(1)
		}
	}()

	conf := configuration.Use()
	logger := conf.Logger()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	pool, err := pgxpool.New(ctx, conf.Database.Opts)
	if err != nil {
		panic(err)
	}
	defer pool.Close()

	if err := applyMigrations(pool); err != nil {
		panic(err)
	}

	bus := eventbus.NewEventPublisher(logger)
	chatservices.RegisterMetricsSubscribers(bus)

	tenantRepo := corepersistence.NewTenantRepository()
	userRepo := corepersistence.NewUserRepository()
	membershipRepo := corepersistence.NewMembershipRepository()
	sessionRepo := chatpersistence.NewSessionRepository()

	tenantService := coreservices.NewTenantService(tenantRepo)
	accessService := coreservices.NewAccessService(membershipRepo)

	senders := chatservices.SenderFactory(func(token string) chatservices.Sender {
		return telegram.NewClient(token, telegram.WithBaseURL(conf.TelegramAPIBase))
	})

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: conf.RedisURL})
	defer asynqClient.Close()
	scheduler := jobs.NewAsynqScheduler(jobs.SchedulerConfig{
		Client:   asynqClient,
		Queue:    conf.Jobs.Queue,
		MaxRetry: conf.Jobs.MaxRetry,
	})

	var responder engine.Responder = engine.NewOpenAIResponder(engine.OpenAIConfig{
		APIKey:       conf.Engine.OpenAIKey,
		BaseURL:      conf.Engine.BaseURL,
		Model:        conf.Engine.Model,
		SystemPrompt: conf.Engine.SystemPrompt,
	})
	if conf.Engine.CacheEnabled {
		responder = engine.NewCachedResponder(responder, engine.CachedResponderConfig{
			Client: redis.NewClient(&redis.Options{Addr: conf.RedisURL}),
			Prefix: conf.Engine.CachePrefix,
			TTL:    conf.Engine.CacheTTL,
		})
	}

	takeoverService := chatservices.NewTakeoverService(chatservices.TakeoverServiceConfig{
		Sessions:              sessionRepo,
		Tenants:               tenantService,
		Access:                accessService,
		Scheduler:             scheduler,
		Senders:               senders,
		EventBus:              bus,
		DefaultTimeoutMinutes: conf.DefaultTakeoverTimeoutMinutes,
	})
	dispatchService := chatservices.NewDispatchService(chatservices.DispatchServiceConfig{
		Sessions:  sessionRepo,
		Responder: responder,
		Senders:   senders,
		EventBus:  bus,
	})

	app := application.New(application.ApplicationOptions{
		Pool:     pool,
		EventBus: bus,
		Logger:   logger,
	})
	app.RegisterMiddleware(
		middleware.WithLogger(logger),
		middleware.WithPool(pool),
	)

	webhookMiddlewares := []mux.MiddlewareFunc{}
	if conf.RateLimit.Enabled {
		webhookMiddlewares = append(webhookMiddlewares, middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerPeriod: conf.RateLimit.WebhookRPS,
			Period:            time.Second,
			Store:             middleware.NewMemoryStore(),
		}))
	}

	app.RegisterControllers(
		server.NewHealthController(pool),
		controllers.NewWebhookController(controllers.WebhookControllerConfig{
			BasePath:     "/webhook",
			Tenants:      tenantService,
			Dispatch:     dispatchService,
			SecretHeader: conf.WebhookSecretHeader,
			MaxBodySize:  conf.WebhookMaxBodySize,
			Middlewares:  webhookMiddlewares,
		}),
		controllers.NewOperatorController(controllers.OperatorControllerConfig{
			BasePath:  "/api/chat",
			Takeovers: takeoverService,
			Middlewares: []mux.MiddlewareFunc{
				middleware.RequireUser(userRepo),
			},
		}),
	)
	if conf.Prometheus.Enabled {
		app.RegisterControllers(metrics.NewPrometheusController(conf.Prometheus.Path))
	}

	httpServer := server.NewHTTPServer(
		app,
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = httpapi.WriteError(w, http.StatusNotFound, "NOT_FOUND", "resource not found", nil)
		}),
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = httpapi.WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed", nil)
		}),
	)

	logger.Infof("listening on %s", conf.SocketAddress)
	if err := httpServer.Start(conf.SocketAddress); err != nil {
		panic(err)
	}
}

func applyMigrations(pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.Up(db, ".")
}
