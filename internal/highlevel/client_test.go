package highlevel

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newClientAgainst(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 5*time.Second, zap.NewNop().Sugar())
}

func TestFindOrCreateContact_Created(t *testing.T) {
	var gotAuth string
	c := newClientAgainst(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"contact":{"id":"contact-9"}}`))
	}))
	id, err := c.FindOrCreateContactByPhone(context.Background(), "key-1", "+15551234567", "loc-1")
	require.NoError(t, err)
	assert.Equal(t, "contact-9", id)
	assert.Equal(t, "Bearer key-1", gotAuth)
}

func TestFindOrCreateContact_DuplicateIsSuccess(t *testing.T) {
	bodies := []string{
		`{"contactId":"existing-1"}`,
		`{"phone":{"message":"duplicated contact","contactId":"existing-2"}}`,
		`{"phone":{"message":"duplicated contact","meta":{"contactId":"existing-3"}}}`,
	}
	wants := []string{"existing-1", "existing-2", "existing-3"}
	for i, body := range bodies {
		b := body
		c := newClientAgainst(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(b))
		}))
		id, err := c.FindOrCreateContactByPhone(context.Background(), "k", "+15551234567", "")
		require.NoError(t, err, b)
		assert.Equal(t, wants[i], id)
	}
}

func TestFindOrCreateContact_RealFailure(t *testing.T) {
	c := newClientAgainst(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"msg":"bad api key"}`))
	}))
	_, err := c.FindOrCreateContactByPhone(context.Background(), "k", "+15551234567", "")
	var callErr *CallError
	require.ErrorAs(t, err, &callErr)
	assert.Equal(t, http.StatusUnauthorized, callErr.Status)
	assert.Contains(t, callErr.Body, "bad api key")
}

func TestCreateConversationMessage_ResolvesConversation(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/conversations/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "contact-1", r.URL.Query().Get("contactId"))
		_, _ = w.Write([]byte(`{"conversations":[{"id":"conv-7"}]}`))
	})
	var gotConv string
	mux.HandleFunc("POST /v1/conversations/messages", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = jsonDecode(r, &body)
		gotConv, _ = body["conversationId"].(string)
		_, _ = w.Write([]byte(`{"messageId":"crm-1"}`))
	})
	c := newClientAgainst(t, mux)
	id, err := c.CreateConversationMessage(context.Background(), "k", "contact-1", "hi", nil, "WhatsApp", "loc-1")
	require.NoError(t, err)
	assert.Equal(t, "crm-1", id)
	assert.Equal(t, "conv-7", gotConv)
}

func TestCreateConversationMessage_NoLocationSkipsConversationLookup(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/conversations/", func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("conversation lookup should not happen without a location id")
	})
	mux.HandleFunc("POST /v1/conversations/messages", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"crm-2"}`))
	})
	c := newClientAgainst(t, mux)
	id, err := c.CreateConversationMessage(context.Background(), "k", "contact-1", "hi", []string{"http://cdn/a.jpg"}, "WhatsApp", "")
	require.NoError(t, err)
	assert.Equal(t, "crm-2", id)
}

func jsonDecode(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
