// Package handlers wires the HTTP surface: the authorization flow, the
// webhook endpoints, and the health check.
package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"activity-guard/internal/common/logging"
	"activity-guard/internal/secrets"
	"activity-guard/internal/webhook"
)

// TokenExchanger is the code-exchange surface the callback handler needs.
type TokenExchanger interface {
	ExchangeCode(ctx context.Context, code string) (string, secrets.TokenRecord, error)
}

// Authorizer builds the consent URL the authorize handler redirects to.
type Authorizer interface {
	AuthorizationURL() string
}

type Handlers struct {
	authorizer Authorizer
	tokens     TokenExchanger
	dispatcher *webhook.Dispatcher
	store      secrets.Store
	logger     logging.Logger
}

func New(authorizer Authorizer, tokens TokenExchanger, dispatcher *webhook.Dispatcher, store secrets.Store, logger logging.Logger) *Handlers {
	return &Handlers{
		authorizer: authorizer,
		tokens:     tokens,
		dispatcher: dispatcher,
		store:      store,
		logger:     logger,
	}
}

// HandleIndex serves a minimal landing page pointing at the authorize flow.
func (h *Handlers) HandleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Activity Guard</title></head>
<body>
<h1>Activity Guard</h1>
<p>Short rides are hidden from your public feed automatically.</p>
<p><a href="/authorize">Connect your account</a></p>
</body>
</html>`))
}

// HandleAuthorize redirects the browser to the platform consent screen.
func (h *Handlers) HandleAuthorize(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.authorizer.AuthorizationURL(), http.StatusFound)
}

// HandleCallback completes the authorization flow. The stored tokens never
// appear in the response; only the athlete id and expiry do.
func (h *Handlers) HandleCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		if reason := r.URL.Query().Get("error"); reason != "" {
			h.respondError(w, http.StatusBadRequest, "authorization denied: "+reason)
			return
		}
		h.respondError(w, http.StatusBadRequest, "missing authorization code")
		return
	}

	ownerID, record, err := h.tokens.ExchangeCode(r.Context(), code)
	if err != nil {
		h.logger.Error("authorization code exchange failed", err)
		h.respondError(w, http.StatusBadGateway, "token exchange failed")
		return
	}

	athleteID, _ := strconv.ParseInt(ownerID, 10, 64)
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"athlete_id": athleteID,
		"expires_at": record.ExpiresAt,
	})
}

// HandleWebhookVerify answers the subscription handshake. The platform
// expects the challenge echoed back under the "hub.challenge" key.
func (h *Handlers) HandleWebhookVerify(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	challenge, err := h.dispatcher.VerifySubscription(
		query.Get("hub.mode"),
		query.Get("hub.verify_token"),
		query.Get("hub.challenge"),
	)
	if err != nil {
		h.logger.Warn("webhook verification rejected", logging.Err(err))
		h.respondError(w, http.StatusForbidden, "verification failed")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]string{"hub.challenge": challenge})
}

// HandleWebhookEvent processes one event delivery. A 200 acknowledges the
// event; a 500 tells the platform to retry later.
func (h *Handlers) HandleWebhookEvent(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	event, err := webhook.ParseEvent(body)
	if err != nil {
		h.logger.Warn("discarding malformed webhook payload", logging.Err(err))
		h.respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	if err := h.dispatcher.HandleEvent(r.Context(), event); err != nil {
		h.respondError(w, http.StatusInternalServerError, "event processing failed")
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("EVENT_RECEIVED"))
}

// HandleHealth reports service and store health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Health(); err != nil {
		h.logger.Error("store health check failed", err)
		h.respondJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unhealthy",
			"store":  "unavailable",
		})
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("failed to encode response", err)
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
