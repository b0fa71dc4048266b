package controllers_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opdesk-io/opdesk/modules/chat/domain/aggregates/chatsession"
	chatpersistence "github.com/opdesk-io/opdesk/modules/chat/infrastructure/persistence"
	"github.com/opdesk-io/opdesk/modules/chat/presentation/controllers"
	chatservices "github.com/opdesk-io/opdesk/modules/chat/services"
	"github.com/opdesk-io/opdesk/modules/core/domain/entities/membership"
	"github.com/opdesk-io/opdesk/modules/core/domain/entities/tenant"
	"github.com/opdesk-io/opdesk/modules/core/domain/entities/user"
	corepersistence "github.com/opdesk-io/opdesk/modules/core/infrastructure/persistence"
	coreservices "github.com/opdesk-io/opdesk/modules/core/services"
	"github.com/opdesk-io/opdesk/pkg/composables"
	"github.com/opdesk-io/opdesk/pkg/eventbus"
	"github.com/opdesk-io/opdesk/pkg/middleware"
)

type noopScheduler struct{}

func (noopScheduler) Schedule(context.Context, uuid.UUID, uuid.UUID, time.Time) error {
	return nil
}

type operatorFixture struct {
	router  *mux.Router
	session *chatsession.ChatSession

	operatorToken string
	outsiderToken string
}

func setupOperatorFixture(t *testing.T) *operatorFixture {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	ctx := context.Background()

	f := &operatorFixture{
		operatorToken: "operator-token",
		outsiderToken: "outsider-token",
	}

	userRepo := corepersistence.NewInMemUserRepository()
	operator := user.New("operator@acme.test", user.WithAPIToken(f.operatorToken))
	outsider := user.New("outsider@other.test", user.WithAPIToken(f.outsiderToken))
	_, err := userRepo.Create(ctx, operator)
	require.NoError(t, err)
	_, err = userRepo.Create(ctx, outsider)
	require.NoError(t, err)

	tenantRepo := corepersistence.NewInMemTenantRepository()
	ten := tenant.New("Acme", "acme",
		tenant.WithOwnerID(uuid.New()),
		tenant.WithWebhookSecret("s3cret"),
		tenant.WithBotToken("bot-token-a"),
	)
	_, err = tenantRepo.Create(ctx, ten)
	require.NoError(t, err)

	membershipRepo := corepersistence.NewInMemMembershipRepository()
	_, err = membershipRepo.Create(ctx, membership.New(
		ten.ID(),
		operator.ID(),
		membership.RoleOperator,
		membership.WithCanRespondToClients(true),
	))
	require.NoError(t, err)

	sessionRepo := chatpersistence.NewInMemSessionRepository()
	f.session, err = sessionRepo.GetOrCreate(ctx, ten.ID(), 100500)
	require.NoError(t, err)

	bus := eventbus.NewEventPublisher(logger)
	bus.Subscribe(func(e *chatsession.TakenOverEvent) {})
	bus.Subscribe(func(e *chatsession.ReleasedEvent) {})
	bus.Subscribe(func(e *chatsession.DispatchedEvent) {})

	takeovers := chatservices.NewTakeoverService(chatservices.TakeoverServiceConfig{
		Sessions:  sessionRepo,
		Tenants:   coreservices.NewTenantService(tenantRepo),
		Access:    coreservices.NewAccessService(membershipRepo),
		Scheduler: noopScheduler{},
		Senders:   func(string) chatservices.Sender { return &stubSender{} },
		EventBus:  bus,
	})

	controller := controllers.NewOperatorController(controllers.OperatorControllerConfig{
		BasePath:  "/api/chat",
		Takeovers: takeovers,
		Middlewares: []mux.MiddlewareFunc{
			middleware.RequireUser(userRepo),
		},
	})

	f.router = mux.NewRouter()
	f.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(composables.WithLogger(r.Context(), logrus.NewEntry(logger))))
		})
	})
	controller.Register(f.router)
	return f
}

func (f *operatorFixture) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func TestOperatorAPI_RequiresBearerToken(t *testing.T) {
	t.Parallel()
	f := setupOperatorFixture(t)
	path := "/api/chat/sessions/" + f.session.ID().String() + "/takeover"

	rr := f.do(t, http.MethodPost, path, "", "")
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = f.do(t, http.MethodPost, path, "no-such-token", "")
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestOperatorAPI_TakeoverAndRelease(t *testing.T) {
	t.Parallel()
	f := setupOperatorFixture(t)
	base := "/api/chat/sessions/" + f.session.ID().String()

	rr := f.do(t, http.MethodPost, base+"/takeover", f.operatorToken, `{"timeout_minutes":15}`)
	require.Equal(t, http.StatusOK, rr.Code)

	var session map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &session))
	assert.Equal(t, "manager", session["mode"])
	assert.Equal(t, float64(15), session["timeout_minutes"])

	// Re-taking a held session conflicts.
	rr = f.do(t, http.MethodPost, base+"/takeover", f.operatorToken, "")
	require.Equal(t, http.StatusConflict, rr.Code)

	rr = f.do(t, http.MethodPost, base+"/release", f.operatorToken, "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &session))
	assert.Equal(t, "bot", session["mode"])

	// Releasing twice conflicts as well.
	rr = f.do(t, http.MethodPost, base+"/release", f.operatorToken, "")
	require.Equal(t, http.StatusConflict, rr.Code)
}

func TestOperatorAPI_PostMessage(t *testing.T) {
	t.Parallel()
	f := setupOperatorFixture(t)
	base := "/api/chat/sessions/" + f.session.ID().String()

	// Posting without a takeover conflicts.
	rr := f.do(t, http.MethodPost, base+"/messages", f.operatorToken, `{"content":"hello"}`)
	require.Equal(t, http.StatusConflict, rr.Code)

	rr = f.do(t, http.MethodPost, base+"/takeover", f.operatorToken, "")
	require.Equal(t, http.StatusOK, rr.Code)

	rr = f.do(t, http.MethodPost, base+"/messages", f.operatorToken, `{"content":"hello"}`)
	require.Equal(t, http.StatusCreated, rr.Code)

	var msg map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &msg))
	assert.Equal(t, "manager", msg["sender"])
	assert.Equal(t, "hello", msg["content"])

	rr = f.do(t, http.MethodPost, base+"/messages", f.operatorToken, `{"content":"  "}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestOperatorAPI_OutsiderForbidden(t *testing.T) {
	t.Parallel()
	f := setupOperatorFixture(t)
	base := "/api/chat/sessions/" + f.session.ID().String()

	rr := f.do(t, http.MethodPost, base+"/takeover", f.outsiderToken, "")
	require.Equal(t, http.StatusForbidden, rr.Code)

	rr = f.do(t, http.MethodGet, base, f.outsiderToken, "")
	require.Equal(t, http.StatusForbidden, rr.Code)
}

func TestOperatorAPI_GetSession(t *testing.T) {
	t.Parallel()
	f := setupOperatorFixture(t)
	base := "/api/chat/sessions/" + f.session.ID().String()

	rr := f.do(t, http.MethodPost, base+"/takeover", f.operatorToken, "")
	require.Equal(t, http.StatusOK, rr.Code)

	rr = f.do(t, http.MethodGet, base, f.operatorToken, "")
	require.Equal(t, http.StatusOK, rr.Code)

	var payload struct {
		Session  map[string]any   `json:"session"`
		Messages []map[string]any `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &payload))
	assert.Equal(t, "manager", payload.Session["mode"])
	// The takeover notice is already on the transcript.
	require.NotEmpty(t, payload.Messages)
	assert.Equal(t, "system", payload.Messages[0]["sender"])
}

func TestOperatorAPI_BadSessionID(t *testing.T) {
	t.Parallel()
	f := setupOperatorFixture(t)

	rr := f.do(t, http.MethodPost, "/api/chat/sessions/not-a-uuid/takeover", f.operatorToken, "")
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestOperatorAPI_UnknownSession(t *testing.T) {
	t.Parallel()
	f := setupOperatorFixture(t)

	rr := f.do(t, http.MethodPost, "/api/chat/sessions/"+uuid.NewString()+"/takeover", f.operatorToken, "")
	require.Equal(t, http.StatusNotFound, rr.Code)
}
