// internal/normalize/probe.go
package normalize

import (
	"strconv"

	jmes "github.com/jmespath/go-jmespath"
)

// Webhook shapes vary across provider versions, so every field is located by
// an ordered list of JMESPath probes tried in sequence; the first non-empty
// hit wins. The orderings below are part of the behavioral contract; do not
// reorder without adjusting the package tests.
var (
	instanceIDProbes  = []string{"instanceId", "instance_id"}
	referenceIDProbes = []string{"referenceId", "data.referenceId", "data.reference_id", "reference_id"}
	phoneProbes       = []string{"data.from", "data.sender", "data.phone", "from", "sender", "phone"}
	textProbes        = []string{"data.body", "data.text", "body", "text"}
	mediaProbes       = []string{"data.media", "media"}
	messageIDProbes   = []string{"data.id", "id"}

	// Status events carry the reference token at the top level only.
	statusReferenceIDProbes = []string{"referenceId", "reference_id"}
	ackNameProbes           = []string{"data.ackName", "data.ack_name", "ackName", "ack_name"}
	ackCodeProbes           = []string{"data.ackCode", "data.ack_code", "ackCode", "ack_code"}
)

// firstValue evaluates probes against the payload and returns the first
// non-nil, non-empty-string result.
func firstValue(raw map[string]any, probes []string) any {
	for _, p := range probes {
		v, err := jmes.Search(p, raw)
		if err != nil || v == nil {
			continue
		}
		if s, ok := v.(string); ok && s == "" {
			continue
		}
		return v
	}
	return nil
}

// firstString is firstValue narrowed to a string form. Numeric ids are
// formatted without an exponent so they survive the round trip.
func firstString(raw map[string]any, probes []string) string {
	return asString(firstValue(raw, probes))
}

func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}
