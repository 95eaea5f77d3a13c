// internal/relay/handler.go
package relay

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/coding1100/Nicola-Jane-Whatsapp-Integration/internal/highlevel"
	"github.com/coding1100/Nicola-Jane-Whatsapp-Integration/internal/resolver"
	"github.com/coding1100/Nicola-Jane-Whatsapp-Integration/internal/ultramsg"
	"github.com/coding1100/Nicola-Jane-Whatsapp-Integration/pkg/problems"
)

// Register mounts the relay's HTTP surface on the router.
func Register(r chi.Router, svc *Service, log *zap.SugaredLogger) {
	h := &handler{svc: svc, log: log}
	r.Post("/v1/messages", h.dispatch)
	r.Post("/v1/tenants", h.onboard)
	r.Get("/v1/tenants/{subAccountID}/qr", h.qr)
	r.Post("/webhooks/ultramsg", h.webhook)
}

type handler struct {
	svc *Service
	log *zap.SugaredLogger
}

func (h *handler) dispatch(w http.ResponseWriter, r *http.Request) {
	var req DispatchRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		problems.Write(w, http.StatusBadRequest, "validation-failed", "Invalid request body", err.Error())
		return
	}
	result, err := h.svc.Dispatch(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *handler) onboard(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SubAccountID string `json:"subAccountId"`
		InstanceID   string `json:"instanceId"`
		APIToken     string `json:"apiToken"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		problems.Write(w, http.StatusBadRequest, "validation-failed", "Invalid request body", err.Error())
		return
	}
	if err := h.svc.Onboard(r.Context(), req.SubAccountID, req.InstanceID, req.APIToken); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "subAccountId": req.SubAccountID})
}

func (h *handler) qr(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.QRCode(r.Context(), chi.URLParam(r, "subAccountID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// webhook is the single inbound endpoint. Ack/status events route to the
// status path and are always acknowledged; message events reject outright
// malformed or unattributable payloads with 400 so the integrator notices,
// but soft-ack everything else (the provider redelivers on any non-2xx).
func (h *handler) webhook(w http.ResponseWriter, r *http.Request) {
	var raw map[string]any
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&raw); err != nil {
		problems.Write(w, http.StatusBadRequest, "malformed-webhook", "Invalid webhook body", err.Error())
		return
	}
	if isStatusEvent(raw) {
		if err := h.svc.HandleStatusEvent(r.Context(), raw); err != nil {
			h.log.Warnw("status webhook not applied", "err", err)
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}
	if err := h.svc.HandleIncomingMessage(r.Context(), raw); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// isStatusEvent sniffs the payload kind: an event type mentioning ack or
// status, or the presence of ack fields in the data scope.
func isStatusEvent(raw map[string]any) bool {
	for _, key := range []string{"event_type", "eventType", "event"} {
		if s, ok := raw[key].(string); ok {
			ls := strings.ToLower(s)
			if strings.Contains(ls, "ack") || strings.Contains(ls, "status") {
				return true
			}
		}
	}
	scope := raw
	if data, ok := raw["data"].(map[string]any); ok {
		scope = data
	}
	for _, key := range []string{"ackCode", "ack_code", "ackName", "ack_name"} {
		if _, ok := scope[key]; ok {
			return true
		}
	}
	return false
}

func (h *handler) writeError(w http.ResponseWriter, err error) {
	var sendErr *ultramsg.SendError
	var crmErr *highlevel.CallError
	switch {
	case errors.Is(err, ErrValidation):
		problems.Write(w, http.StatusBadRequest, "validation-failed", "Validation failed", err.Error())
	case errors.Is(err, ErrInvalidMediaType):
		problems.Write(w, http.StatusBadRequest, "invalid-media-type", "Invalid media type", err.Error())
	case errors.Is(err, ErrMalformedWebhook):
		problems.Write(w, http.StatusBadRequest, "malformed-webhook", "Malformed webhook", err.Error())
	case errors.Is(err, resolver.ErrUnresolved):
		problems.Write(w, http.StatusBadRequest, "tenant-unresolved", "Tenant unresolved", err.Error())
	case errors.Is(err, ErrCredentialsNotConfigured):
		problems.Write(w, http.StatusUnauthorized, "credentials-not-configured", "Credentials not configured", err.Error())
	case errors.As(err, &sendErr):
		problems.Write(w, upstreamStatus(sendErr.Status), "provider-send-failed", "Provider send failed", sendErr.Body)
	case errors.As(err, &crmErr):
		problems.Write(w, upstreamStatus(crmErr.Status), "crm-call-failed", "CRM call failed", crmErr.Body)
	default:
		h.log.Errorw("internal error", "err", err)
		problems.Write(w, http.StatusInternalServerError, "internal", "Internal error", "")
	}
}

// upstreamStatus propagates 4xx/5xx from the upstream; anything odd becomes
// a 502.
func upstreamStatus(code int) int {
	if code >= 400 && code < 600 {
		return code
	}
	return http.StatusBadGateway
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
