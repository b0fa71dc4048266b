// Package application holds the process-level container wiring the pool,
// event bus and HTTP controllers together.
package application

import (
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/opdesk-io/opdesk/pkg/eventbus"
)

// Controller is a routable unit registered on the root router.
type Controller interface {
	Key() string
	Register(r *mux.Router)
}

type ApplicationOptions struct {
	Pool     *pgxpool.Pool
	EventBus eventbus.EventBus
	Logger   *logrus.Logger
}

type Application struct {
	pool        *pgxpool.Pool
	eventBus    eventbus.EventBus
	logger      *logrus.Logger
	controllers []Controller
	middlewares []mux.MiddlewareFunc
}

func New(opts ApplicationOptions) *Application {
	return &Application{
		pool:     opts.Pool,
		eventBus: opts.EventBus,
		logger:   opts.Logger,
	}
}

func (a *Application) Pool() *pgxpool.Pool {
	return a.pool
}

func (a *Application) EventBus() eventbus.EventBus {
	return a.eventBus
}

func (a *Application) Logger() *logrus.Logger {
	return a.logger
}

func (a *Application) RegisterControllers(controllers ...Controller) {
	a.controllers = append(a.controllers, controllers...)
}

func (a *Application) RegisterMiddleware(middlewares ...mux.MiddlewareFunc) {
	a.middlewares = append(a.middlewares, middlewares...)
}

func (a *Application) Controllers() []Controller {
	return a.controllers
}

func (a *Application) Middleware() []mux.MiddlewareFunc {
	return a.middlewares
}
