package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatusEvent_AckName(t *testing.T) {
	ev := ParseStatusEvent(payload(t, `{
		"instanceId": "instance149866",
		"referenceId": "acct1_1700000000",
		"data": {"id": "msg-1", "ackName": "DELIVERED"}
	}`))
	require.NotNil(t, ev)
	assert.Equal(t, "msg-1", ev.MessageID)
	assert.Equal(t, "delivered", ev.Status)
	assert.Equal(t, "acct1_1700000000", ev.ReferenceID)
	assert.Equal(t, "instance149866", ev.InstanceID)
}

func TestParseStatusEvent_AckNameTable(t *testing.T) {
	cases := []struct{ name, want string }{
		{"PENDING", "pending"},
		{"SERVER", "sent"},
		{"SENT", "sent"},
		{"DEVICE", "delivered"},
		{"delivered", "delivered"},
		{"READ", "read"},
		{"PLAYED", "played"},
		{"VIEWED", "viewed"}, // unmapped names pass through lower-cased
	}
	for _, c := range cases {
		ev := ParseStatusEvent(map[string]any{"data": map[string]any{"id": "m", "ackName": c.name}})
		require.NotNil(t, ev, "ackName %q", c.name)
		assert.Equal(t, c.want, ev.Status, "ackName %q", c.name)
	}
}

func TestParseStatusEvent_AckCodeTable(t *testing.T) {
	cases := []struct {
		code float64
		want string
	}{
		{-1, "error"},
		{0, "pending"},
		{1, "sent"},
		{2, "delivered"},
		{3, "read"},
		{4, "played"},
		{9, "9"}, // unmapped codes pass through as decimal strings
	}
	for _, c := range cases {
		ev := ParseStatusEvent(map[string]any{"data": map[string]any{"id": "m", "ackCode": c.code}})
		require.NotNil(t, ev, "ackCode %v", c.code)
		assert.Equal(t, c.want, ev.Status, "ackCode %v", c.code)
		require.NotNil(t, ev.AckCode)
		assert.Equal(t, int(c.code), *ev.AckCode)
	}
}

func TestParseStatusEvent_NamePriorityOverCode(t *testing.T) {
	ev := ParseStatusEvent(map[string]any{"data": map[string]any{"id": "m", "ackName": "READ", "ackCode": float64(1)}})
	require.NotNil(t, ev)
	assert.Equal(t, "read", ev.Status)
}

func TestParseStatusEvent_NonNumericCodeString(t *testing.T) {
	ev := ParseStatusEvent(map[string]any{"data": map[string]any{"id": "m", "ackCode": "FAILED"}})
	require.NotNil(t, ev)
	assert.Equal(t, "failed", ev.Status)
}

func TestParseStatusEvent_ReferenceIDTopLevelOnly(t *testing.T) {
	ev := ParseStatusEvent(payload(t, `{
		"data": {"id": "m", "ackCode": 3, "referenceId": "nested-ignored"}
	}`))
	require.NotNil(t, ev)
	assert.Empty(t, ev.ReferenceID)
}

func TestParseStatusEvent_Invalid(t *testing.T) {
	assert.Nil(t, ParseStatusEvent(map[string]any{"data": map[string]any{"ackCode": float64(3)}}), "missing message id")
	assert.Nil(t, ParseStatusEvent(map[string]any{"data": map[string]any{"id": "m"}}), "no status determinable")
	assert.Nil(t, ParseStatusEvent(nil))
}
