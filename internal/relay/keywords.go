// internal/relay/keywords.go
package relay

import (
	"context"
	"strings"
)

// UnsubscribeTag is the CRM tag toggled by opt-out/opt-in keywords.
const UnsubscribeTag = "whatsapp_unsubscribed"

var (
	stopKeywords  = map[string]bool{"STOP": true, "UNSUBSCRIBE": true}
	startKeywords = map[string]bool{"START": true, "UNSTOP": true}
)

// applyKeywordActions toggles the unsubscribe tag on exact keyword matches.
// Matching is case-insensitive after trimming; partial matches do nothing.
// Purely additive: the message is relayed into the CRM regardless.
func (s *Service) applyKeywordActions(ctx context.Context, apiKey, contactID, text string) {
	word := strings.ToUpper(strings.TrimSpace(text))
	switch {
	case stopKeywords[word]:
		if err := s.crm.AddTags(ctx, apiKey, contactID, []string{UnsubscribeTag}); err != nil {
			s.log.Warnw("keyword add-tag failed", "contact", contactID, "err", err)
		}
	case startKeywords[word]:
		if err := s.crm.RemoveTags(ctx, apiKey, contactID, []string{UnsubscribeTag}); err != nil {
			s.log.Warnw("keyword remove-tag failed", "contact", contactID, "err", err)
		}
	}
}
