package main

import (
	"context"
	"log"
	"os"
	"runtime/debug"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/opdesk-io/opdesk/modules/chat/infrastructure/jobs"
	chatpersistence "github.com/opdesk-io/opdesk/modules/chat/infrastructure/persistence"
	"github.com/opdesk-io/opdesk/modules/chat/infrastructure/telegram"
	chatservices "github.com/opdesk-io/opdesk/modules/chat/services"
	corepersistence "github.com/opdesk-io/opdesk/modules/core/infrastructure/persistence"
	coreservices "github.com/opdesk-io/opdesk/modules/core/services"
	"github.com/opdesk-io/opdesk/pkg/composables"
	"github.com/opdesk-io/opdesk/pkg/configuration"
	"github.com/opdesk-io/opdesk/pkg/eventbus"
)

// The worker drains the auto-release queue. It shares the takeover service
// with the API process; only the entrypoint differs.
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

	bus := eventbus.NewEventPublisher(logger)
	chatservices.RegisterMetricsSubscribers(bus)

	tenantService := coreservices.NewTenantService(corepersistence.NewTenantRepository())
	accessService := coreservices.NewAccessService(corepersistence.NewMembershipRepository())

	takeoverService := chatservices.NewTakeoverService(chatservices.TakeoverServiceConfig{
		Sessions: chatpersistence.NewSessionRepository(),
		Tenants:  tenantService,
		Access:   accessService,
		Senders: func(token string) chatservices.Sender {
			return telegram.NewClient(token, telegram.WithBaseURL(conf.TelegramAPIBase))
		},
		EventBus: bus,
	})

	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: conf.RedisURL},
		asynq.Config{
			Concurrency: conf.Jobs.Concurrency,
			Queues:      map[string]int{conf.Jobs.Queue: 1},
		},
	)

	mux := asynq.NewServeMux()
	mux.Use(withRequestContext(pool, logger))
	mux.Handle(jobs.TypeAutoRelease, jobs.NewAutoReleaseHandler(takeoverService, logger))

	logger.Infof("worker consuming queue %q", conf.Jobs.Queue)
	if err := srv.Run(mux); err != nil {
		panic(err)
	}
}

// withRequestContext gives task handlers the same context shape HTTP
// handlers get from the middleware stack.
func withRequestContext(pool *pgxpool.Pool, logger *logrus.Logger) asynq.MiddlewareFunc {
	return func(next asynq.Handler) asynq.Handler {
		return asynq.HandlerFunc(func(ctx context.Context, task *asynq.Task) error {
			ctx = composables.WithPool(ctx, pool)
			ctx = composables.WithLogger(ctx, logger.WithField("task", task.Type()))
			return next.ProcessTask(ctx, task)
		})
	}
}
