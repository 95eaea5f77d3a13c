package ultramsg

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSendText(t *testing.T) {
	var gotPath string
	var gotForm map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = r.ParseForm()
		gotForm = map[string]string{}
		for k := range r.PostForm {
			gotForm[k] = r.PostForm.Get(k)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sent":"true","id":123}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, zap.NewNop().Sugar())
	resp, err := c.SendText(context.Background(), "inst1", "tok1", "+15551234567", "hello", "acct1_1700000000")
	require.NoError(t, err)
	assert.Equal(t, "/inst1/messages/chat", gotPath)
	assert.Equal(t, "tok1", gotForm["token"])
	assert.Equal(t, "+15551234567", gotForm["to"])
	assert.Equal(t, "hello", gotForm["body"])
	assert.Equal(t, "acct1_1700000000", gotForm["referenceId"])
	assert.Equal(t, "123", MessageID(resp))
}

func TestSend_NonSuccessSurfacesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"token mismatch"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, zap.NewNop().Sugar())
	_, err := c.SendImage(context.Background(), "inst1", "tok1", "+15551234567", "http://cdn/x.jpg", "", "")
	var sendErr *SendError
	require.ErrorAs(t, err, &sendErr)
	assert.Equal(t, http.StatusForbidden, sendErr.Status)
	assert.Contains(t, sendErr.Body, "token mismatch")
}

func TestMessageID(t *testing.T) {
	assert.Equal(t, "abc", MessageID(map[string]any{"id": "abc"}))
	assert.Equal(t, "42", MessageID(map[string]any{"id": float64(42)}))
	assert.Equal(t, "m-1", MessageID(map[string]any{"messageId": "m-1"}))
	assert.Equal(t, "first", MessageID(map[string]any{"id": "first", "messageId": "second"}))
	assert.Empty(t, MessageID(map[string]any{"sent": "true"}))
}

func TestGetQRCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/inst1/instance/qrCode", r.URL.Path)
		assert.Equal(t, "tok1", r.URL.Query().Get("token"))
		_, _ = w.Write([]byte(`{"qrCode":"data:image/png;base64,xyz"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, zap.NewNop().Sugar())
	out, err := c.GetQRCode(context.Background(), "inst1", "tok1")
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,xyz", out["qrCode"])
}
