package relay

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coding1100/Nicola-Jane-Whatsapp-Integration/internal/resolver"
)

func incomingPayload(text string) map[string]any {
	return map[string]any{
		"instanceId": "inst1",
		"data": map[string]any{
			"from": "15551234567@s.whatsapp.net",
			"body": text,
			"id":   "wamid.777",
		},
	}
}

func TestHandleIncomingMessage_RelaysIntoCrm(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.svc.HandleIncomingMessage(context.Background(), incomingPayload("hello")))

	env.crm.mu.Lock()
	defer env.crm.mu.Unlock()
	assert.Equal(t, 1, env.crm.contactCalls)
	assert.Equal(t, 1, env.crm.messageCalls)
	assert.Empty(t, env.crm.addedTags)

	corr, err := env.dir.CorrelationByProviderMessageID(context.Background(), "wamid.777")
	require.NoError(t, err)
	assert.Equal(t, "crm-msg-1", corr.CrmMessageID)
	assert.Equal(t, "acct1", corr.SubAccountID)
}

func TestHandleIncomingMessage_Malformed(t *testing.T) {
	env := newTestEnv(t)
	err := env.svc.HandleIncomingMessage(context.Background(), map[string]any{"body": "no phone"})
	assert.ErrorIs(t, err, ErrMalformedWebhook)
}

func TestHandleIncomingMessage_UnknownInstance(t *testing.T) {
	env := newTestEnv(t)
	payload := incomingPayload("hello")
	payload["instanceId"] = "inst-unknown"
	err := env.svc.HandleIncomingMessage(context.Background(), payload)
	assert.ErrorIs(t, err, resolver.ErrUnresolved)
}

func TestHandleIncomingMessage_CrmFailureSoft(t *testing.T) {
	// Past tenant resolution, CRM failures must not bubble up: a non-2xx
	// answer would make the provider redeliver the webhook.
	env := newTestEnv(t)
	env.crm.failMessages = true
	assert.NoError(t, env.svc.HandleIncomingMessage(context.Background(), incomingPayload("hello")))
}

func TestKeywordRouter_Stop(t *testing.T) {
	for _, text := range []string{"STOP", "stop", "  Stop  ", "UNSUBSCRIBE"} {
		t.Run(text, func(t *testing.T) {
			env := newTestEnv(t)
			require.NoError(t, env.svc.HandleIncomingMessage(context.Background(), incomingPayload(text)))
			env.crm.mu.Lock()
			defer env.crm.mu.Unlock()
			require.Len(t, env.crm.addedTags, 1)
			assert.Equal(t, []string{UnsubscribeTag}, env.crm.addedTags[0])
			assert.Empty(t, env.crm.removedTags)
			// The message still relays into the conversation.
			assert.Equal(t, 1, env.crm.messageCalls)
		})
	}
}

func TestKeywordRouter_Start(t *testing.T) {
	for _, text := range []string{"START", "unstop"} {
		t.Run(text, func(t *testing.T) {
			env := newTestEnv(t)
			require.NoError(t, env.svc.HandleIncomingMessage(context.Background(), incomingPayload(text)))
			env.crm.mu.Lock()
			defer env.crm.mu.Unlock()
			require.Len(t, env.crm.removedTags, 1)
			assert.Equal(t, []string{UnsubscribeTag}, env.crm.removedTags[0])
			assert.Empty(t, env.crm.addedTags)
		})
	}
}

func TestKeywordRouter_NoPartialMatch(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.svc.HandleIncomingMessage(context.Background(), incomingPayload("please stop sending")))
	env.crm.mu.Lock()
	defer env.crm.mu.Unlock()
	assert.Empty(t, env.crm.addedTags)
	assert.Empty(t, env.crm.removedTags)
}

func TestHandleStatusEvent_Uncorrelated(t *testing.T) {
	env := newTestEnv(t)
	err := env.svc.HandleStatusEvent(context.Background(), map[string]any{
		"referenceId": "acct1_1700000000",
		"data":        map[string]any{"id": "never-sent", "ackCode": float64(3)},
	})
	assert.Error(t, err)
	assert.Empty(t, env.crm.statusCalls)
}

func TestHandleStatusEvent_Malformed(t *testing.T) {
	env := newTestEnv(t)
	err := env.svc.HandleStatusEvent(context.Background(), map[string]any{"data": map[string]any{}})
	assert.ErrorIs(t, err, ErrMalformedWebhook)
}
