package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/opdesk-io/opdesk/modules/chat/presentation/controllers/dtos"
	chatservices "github.com/opdesk-io/opdesk/modules/chat/services"
	"github.com/opdesk-io/opdesk/pkg/application"
	"github.com/opdesk-io/opdesk/pkg/composables"
	"github.com/opdesk-io/opdesk/pkg/httpapi"
)

type OperatorControllerConfig struct {
	BasePath    string
	Takeovers   *chatservices.TakeoverService
	Middlewares []mux.MiddlewareFunc
}

// OperatorController exposes the takeover controls to authenticated
// operators. Authentication middleware runs ahead of every route; the
// per-tenant role check happens in the service.
type OperatorController struct {
	basePath    string
	takeovers   *chatservices.TakeoverService
	middlewares []mux.MiddlewareFunc
}

func NewOperatorController(cfg OperatorControllerConfig) application.Controller {
	return &OperatorController{
		basePath:    cfg.BasePath,
		takeovers:   cfg.Takeovers,
		middlewares: cfg.Middlewares,
	}
}

func (c *OperatorController) Key() string {
	return "OperatorController"
}

func (c *OperatorController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	for _, mw := range c.middlewares {
		router.Use(mw)
	}
	router.HandleFunc("/sessions/{session_id}", c.getSession).Methods(http.MethodGet)
	router.HandleFunc("/sessions/{session_id}/takeover", c.takeover).Methods(http.MethodPost)
	router.HandleFunc("/sessions/{session_id}/release", c.release).Methods(http.MethodPost)
	router.HandleFunc("/sessions/{session_id}/messages", c.postMessage).Methods(http.MethodPost)
}

func (c *OperatorController) takeover(w http.ResponseWriter, r *http.Request) {
	sessionID, userID, ok := c.requestIdentity(w, r)
	if !ok {
		return
	}

	var req dtos.TakeoverRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			_ = httpapi.WriteError(w, http.StatusBadRequest, "VALIDATION_BAD_PAYLOAD", "malformed request body", nil)
			return
		}
	}

	session, err := c.takeovers.Takeover(r.Context(), sessionID, userID, chatservices.TakeoverOptions{
		TimeoutMinutes: req.TimeoutMinutes,
		NotifyClient:   req.NotifyClient,
	})
	if err != nil {
		_ = httpapi.WriteServiceError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, dtos.ToSessionResponse(session))
}

func (c *OperatorController) release(w http.ResponseWriter, r *http.Request) {
	sessionID, userID, ok := c.requestIdentity(w, r)
	if !ok {
		return
	}

	var req dtos.ReleaseRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			_ = httpapi.WriteError(w, http.StatusBadRequest, "VALIDATION_BAD_PAYLOAD", "malformed request body", nil)
			return
		}
	}

	session, err := c.takeovers.Release(r.Context(), sessionID, userID, chatservices.ReleaseOptions{
		NotifyClient: req.NotifyClient,
	})
	if err != nil {
		_ = httpapi.WriteServiceError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, dtos.ToSessionResponse(session))
}

func (c *OperatorController) postMessage(w http.ResponseWriter, r *http.Request) {
	sessionID, userID, ok := c.requestIdentity(w, r)
	if !ok {
		return
	}

	var req dtos.PostMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "VALIDATION_BAD_PAYLOAD", "malformed request body", nil)
		return
	}

	msg, err := c.takeovers.PostManagerMessage(r.Context(), sessionID, userID, req.Content)
	if err != nil {
		_ = httpapi.WriteServiceError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusCreated, dtos.MessageResponse{
		ID:        msg.ID(),
		Sender:    string(msg.Sender()),
		Content:   msg.Body(),
		CreatedAt: msg.CreatedAt(),
	})
}

func (c *OperatorController) getSession(w http.ResponseWriter, r *http.Request) {
	sessionID, userID, ok := c.requestIdentity(w, r)
	if !ok {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			_ = httpapi.WriteError(w, http.StatusBadRequest, "VALIDATION_BAD_LIMIT", "limit must be a non-negative integer", nil)
			return
		}
		limit = v
	}
	if limit == 0 {
		limit = 100
	}

	session, messages, err := c.takeovers.GetSession(r.Context(), sessionID, userID, limit)
	if err != nil {
		_ = httpapi.WriteServiceError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, dtos.SessionDetailResponse{
		Session:  dtos.ToSessionResponse(session),
		Messages: dtos.ToMessageResponses(messages),
	})
}

func (c *OperatorController) requestIdentity(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	sessionID, err := uuid.Parse(mux.Vars(r)["session_id"])
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "VALIDATION_BAD_SESSION_ID", "session id must be a UUID", nil)
		return uuid.Nil, uuid.Nil, false
	}
	userID, err := composables.UseUserID(r.Context())
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing authenticated user", nil)
		return uuid.Nil, uuid.Nil, false
	}
	return sessionID, userID, true
}
