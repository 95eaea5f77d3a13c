// internal/normalize/status.go
package normalize

import (
	"strconv"
	"strings"
)

// StatusEvent is the canonical record for a delivery/read acknowledgement.
type StatusEvent struct {
	MessageID   string `json:"messageId"`
	Status      string `json:"status"`
	AckCode     *int   `json:"ackCode,omitempty"`
	InstanceID  string `json:"instanceId"`
	ReferenceID string `json:"referenceId"`
}

// ackNameStatuses maps the provider's symbolic ack names. Unknown names pass
// through lower-cased.
var ackNameStatuses = map[string]string{
	"PENDING":   "pending",
	"SERVER":    "sent",
	"SENT":      "sent",
	"DEVICE":    "delivered",
	"DELIVERED": "delivered",
	"READ":      "read",
	"PLAYED":    "played",
}

// ackCodeStatuses maps the provider's numeric ack levels. Unknown codes pass
// through as their decimal string form.
var ackCodeStatuses = map[int]string{
	-1: "error",
	0:  "pending",
	1:  "sent",
	2:  "delivered",
	3:  "read",
	4:  "played",
}

// ParseStatusEvent converts an ack webhook body into the canonical record, or
// nil when no message id or status can be determined. Unlike the message
// variant, the reference token is only honored at the top level (the
// provider's ack format does not nest it).
func ParseStatusEvent(raw map[string]any) *StatusEvent {
	if raw == nil {
		return nil
	}
	ev := &StatusEvent{
		InstanceID:  firstString(raw, instanceIDProbes),
		ReferenceID: firstString(raw, statusReferenceIDProbes),
		MessageID:   firstString(raw, messageIDProbes),
	}
	if ev.MessageID == "" {
		return nil
	}
	ackName := firstValue(raw, ackNameProbes)
	ackCode := firstValue(raw, ackCodeProbes)
	if code, ok := numericAck(ackCode); ok {
		ev.AckCode = &code
	}
	ev.Status = mapStatus(ackName, ackCode)
	if ev.Status == "" {
		return nil
	}
	return ev
}

// mapStatus applies the documented priority: symbolic name first, then
// numeric code, then a non-numeric code string.
func mapStatus(ackName, ackCode any) string {
	if name, ok := ackName.(string); ok && name != "" {
		if s, ok := ackNameStatuses[strings.ToUpper(name)]; ok {
			return s
		}
		return strings.ToLower(name)
	}
	if code, ok := numericAck(ackCode); ok {
		if s, ok := ackCodeStatuses[code]; ok {
			return s
		}
		return strconv.Itoa(code)
	}
	if s, ok := ackCode.(string); ok && s != "" {
		return strings.ToLower(s)
	}
	return ""
}

func numericAck(v any) (int, bool) {
	switch t := v.(type) {
	case float64:
		return int(t), true
	case int:
		return t, true
	case int64:
		return int(t), true
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
			return n, true
		}
	}
	return 0, false
}
