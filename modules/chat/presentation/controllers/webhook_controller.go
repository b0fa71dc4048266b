package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/gorilla/mux"

	chatservices "github.com/opdesk-io/opdesk/modules/chat/services"
	"github.com/opdesk-io/opdesk/modules/core/domain/entities/tenant"
	coreservices "github.com/opdesk-io/opdesk/modules/core/services"
	"github.com/opdesk-io/opdesk/pkg/application"
	"github.com/opdesk-io/opdesk/pkg/composables"
	"github.com/opdesk-io/opdesk/pkg/httpapi"
	"github.com/opdesk-io/opdesk/pkg/metrics"
)

type WebhookControllerConfig struct {
	BasePath     string
	Tenants      *coreservices.TenantService
	Dispatch     *chatservices.DispatchService
	SecretHeader string
	MaxBodySize  int64
	Middlewares  []mux.MiddlewareFunc
}

// WebhookController is the single ingress for client messages. The path key
// picks the tenant, the secret header authenticates the call; both must pass
// before any tenant data is touched.
type WebhookController struct {
	basePath     string
	tenants      *coreservices.TenantService
	dispatch     *chatservices.DispatchService
	secretHeader string
	maxBodySize  int64
	middlewares  []mux.MiddlewareFunc
}

func NewWebhookController(cfg WebhookControllerConfig) application.Controller {
	return &WebhookController{
		basePath:     cfg.BasePath,
		tenants:      cfg.Tenants,
		dispatch:     cfg.Dispatch,
		secretHeader: cfg.SecretHeader,
		maxBodySize:  cfg.MaxBodySize,
		middlewares:  cfg.Middlewares,
	}
}

func (c *WebhookController) Key() string {
	return "WebhookController"
}

func (c *WebhookController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	for _, mw := range c.middlewares {
		router.Use(mw)
	}
	router.HandleFunc("/{tenant_key}", c.handleUpdate).Methods(http.MethodPost)
}

// webhookUpdate is the Bot API update envelope, reduced to the fields the
// dispatcher consumes. Updates without a text message are acknowledged and
// dropped.
type webhookUpdate struct {
	UpdateID int64 `json:"update_id"`
	Message  *struct {
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
		Text string `json:"text"`
	} `json:"message"`
}

func (c *WebhookController) handleUpdate(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["tenant_key"]

	t, err := c.tenants.ResolveByKey(r.Context(), key)
	if err != nil {
		if errors.Is(err, tenant.ErrNotFound) {
			metrics.WebhookRequests.WithLabelValues("unknown_key").Inc()
			_ = httpapi.WriteError(w, http.StatusNotFound, "NOT_FOUND", "unknown tenant key", nil)
			return
		}
		metrics.WebhookRequests.WithLabelValues("error").Inc()
		_ = httpapi.WriteServiceError(w, err)
		return
	}

	if err := c.tenants.VerifySecret(t, r.Header.Get(c.secretHeader)); err != nil {
		metrics.WebhookRequests.WithLabelValues("unauthorized").Inc()
		_ = httpapi.WriteServiceError(w, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, c.maxBodySize)
	var update webhookUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		metrics.WebhookRequests.WithLabelValues("bad_payload").Inc()
		_ = httpapi.WriteError(w, http.StatusBadRequest, "VALIDATION_BAD_PAYLOAD", "malformed update payload", nil)
		return
	}
	if update.Message == nil || update.Message.Text == "" {
		// Edits, stickers, joins: acknowledged so the transport does not
		// redeliver, nothing to dispatch.
		metrics.WebhookRequests.WithLabelValues("ignored").Inc()
		w.WriteHeader(http.StatusOK)
		return
	}

	ctx := composables.WithTenant(r.Context(), &composables.Tenant{
		ID:   t.ID(),
		Key:  t.Key(),
		Name: t.Name(),
	})

	if err := c.dispatch.HandleInbound(ctx, t, update.Message.Chat.ID, update.Message.Text); err != nil {
		metrics.WebhookRequests.WithLabelValues("error").Inc()
		composables.UseLogger(ctx).WithError(err).Error("failed to handle inbound message")
		_ = httpapi.WriteServiceError(w, err)
		return
	}

	metrics.WebhookRequests.WithLabelValues("ok").Inc()
	w.WriteHeader(http.StatusOK)
}
