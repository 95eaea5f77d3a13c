// internal/ultramsg/response.go
package ultramsg

import "strconv"

// MessageID pulls the provider-assigned message id out of a send response.
// Older instances answer with "id", newer ones with "messageId"; numeric ids
// are formatted as their decimal string.
func MessageID(resp map[string]any) string {
	for _, key := range []string{"id", "messageId"} {
		switch v := resp[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}
