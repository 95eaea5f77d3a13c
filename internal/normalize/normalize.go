// internal/normalize/normalize.go
package normalize

// MediaItem is one attachment extracted from a webhook payload.
type MediaItem struct {
	URL  string `json:"url"`
	Type string `json:"type"`
}

// IncomingMessage is the canonical record for an inbound chat message.
type IncomingMessage struct {
	Phone       string      `json:"phone"`
	Text        string      `json:"text"`
	Media       []MediaItem `json:"media"`
	InstanceID  string      `json:"instanceId"`
	ReferenceID string      `json:"referenceId"`
	MessageID   string      `json:"messageId"`
}

// ParseIncomingMessage converts a provider webhook body of unknown shape into
// the canonical record, or nil when the payload is unusable. A message must
// have a destination and at least one of text or media; anything less is a
// malformed webhook the caller rejects with 400.
func ParseIncomingMessage(raw map[string]any) *IncomingMessage {
	if raw == nil {
		return nil
	}
	msg := &IncomingMessage{
		InstanceID:  firstString(raw, instanceIDProbes),
		ReferenceID: firstString(raw, referenceIDProbes),
		Text:        firstString(raw, textProbes),
		MessageID:   firstString(raw, messageIDProbes),
		Media:       extractMedia(firstValue(raw, mediaProbes)),
	}
	msg.Phone = NormalizePhone(firstString(raw, phoneProbes))
	if msg.Phone == "" {
		return nil
	}
	if msg.Text == "" && len(msg.Media) == 0 {
		return nil
	}
	return msg
}

// extractMedia tolerates the three shapes seen in the wild: a bare URL
// string, a list of item objects, or a single item object. Items without a
// URL are dropped.
func extractMedia(v any) []MediaItem {
	var items []MediaItem
	switch t := v.(type) {
	case nil:
	case string:
		items = append(items, MediaItem{URL: t, Type: "media"})
	case []any:
		for _, el := range t {
			items = append(items, mediaItemFrom(el))
		}
	case map[string]any:
		items = append(items, mediaItemFrom(t))
	default:
		items = append(items, MediaItem{URL: asString(t), Type: "media"})
	}
	out := items[:0]
	for _, it := range items {
		if it.URL != "" {
			out = append(out, it)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func mediaItemFrom(el any) MediaItem {
	switch t := el.(type) {
	case string:
		return MediaItem{URL: t, Type: "media"}
	case map[string]any:
		item := MediaItem{Type: "media"}
		if u := asString(t["url"]); u != "" {
			item.URL = u
		} else if u := asString(t["media"]); u != "" {
			item.URL = u
		}
		if ty := asString(t["type"]); ty != "" {
			item.Type = ty
		}
		return item
	default:
		return MediaItem{URL: asString(t), Type: "media"}
	}
}
