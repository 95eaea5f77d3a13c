// internal/relay/inbound.go
package relay

import (
	"context"
	"fmt"

	"github.com/coding1100/Nicola-Jane-Whatsapp-Integration/internal/normalize"
	"github.com/coding1100/Nicola-Jane-Whatsapp-Integration/pkg/directory"
)

// HandleIncomingMessage relays one provider message webhook into the CRM:
// normalize, resolve the tenant, fire keyword side effects, post into the
// conversation, record the correlation. Normalization and tenant resolution
// failures propagate (the caller answers 400); CRM failures past that point
// are logged soft so the provider does not redeliver.
func (s *Service) HandleIncomingMessage(ctx context.Context, raw map[string]any) error {
	msg := normalize.ParseIncomingMessage(raw)
	if msg == nil {
		webhooksTotal.WithLabelValues("message", "malformed").Inc()
		return ErrMalformedWebhook
	}
	sub, err := s.resolver.Resolve(ctx, msg.ReferenceID, msg.InstanceID)
	if err != nil {
		webhooksTotal.WithLabelValues("message", "unresolved").Inc()
		return err
	}
	apiKey, err := s.dir.CrmAPIKey(sub)
	if err != nil {
		webhooksTotal.WithLabelValues("message", "no_credentials").Inc()
		return fmt.Errorf("%w: no crm api key for %q", ErrCredentialsNotConfigured, sub)
	}
	locationID, err := s.dir.CrmLocationID(sub)
	if err != nil {
		locationID = ""
	}

	contactID, err := s.crm.FindOrCreateContactByPhone(ctx, apiKey, msg.Phone, locationID)
	if err != nil {
		s.log.Errorw("inbound relay: contact lookup failed", "subAccount", sub, "phone", msg.Phone, "err", err)
		webhooksTotal.WithLabelValues("message", "crm_failed").Inc()
		return nil
	}

	// Keyword handling is additive; the relay below happens either way.
	s.applyKeywordActions(ctx, apiKey, contactID, msg.Text)

	var media []string
	for _, m := range msg.Media {
		media = append(media, m.URL)
	}
	crmMessageID, err := s.crm.CreateConversationMessage(ctx, apiKey, contactID, msg.Text, media, crmChannelType, locationID)
	if err != nil {
		s.log.Errorw("inbound relay: message post failed", "subAccount", sub, "err", err)
		webhooksTotal.WithLabelValues("message", "crm_failed").Inc()
		return nil
	}

	if msg.MessageID != "" && crmMessageID != "" {
		if err := s.dir.SaveCorrelation(ctx, directory.MessageCorrelation{
			ProviderMessageID: msg.MessageID,
			CrmMessageID:      crmMessageID,
			SubAccountID:      sub,
		}); err != nil {
			s.log.Warnw("correlation write failed", "providerMessageId", msg.MessageID, "err", err)
		}
	}
	webhooksTotal.WithLabelValues("message", "ok").Inc()
	return nil
}

// HandleStatusEvent translates a provider delivery/read ack into a CRM
// status update. Every failure is returned for the caller to log, but the
// webhook endpoint acknowledges regardless: status updates are not worth a
// provider retry storm.
func (s *Service) HandleStatusEvent(ctx context.Context, raw map[string]any) error {
	ev := normalize.ParseStatusEvent(raw)
	if ev == nil {
		webhooksTotal.WithLabelValues("status", "malformed").Inc()
		return ErrMalformedWebhook
	}
	sub, err := s.resolver.Resolve(ctx, ev.ReferenceID, ev.InstanceID)
	if err != nil {
		webhooksTotal.WithLabelValues("status", "unresolved").Inc()
		return err
	}
	corr, err := s.dir.CorrelationByProviderMessageID(ctx, ev.MessageID)
	if err != nil {
		webhooksTotal.WithLabelValues("status", "uncorrelated").Inc()
		if err == directory.ErrNotFound {
			return fmt.Errorf("no correlation for provider message %q", ev.MessageID)
		}
		return err
	}
	apiKey, err := s.dir.CrmAPIKey(sub)
	if err != nil {
		webhooksTotal.WithLabelValues("status", "no_credentials").Inc()
		return fmt.Errorf("%w: no crm api key for %q", ErrCredentialsNotConfigured, sub)
	}
	if err := s.crm.UpdateMessageStatus(ctx, apiKey, corr.CrmMessageID, ev.Status); err != nil {
		webhooksTotal.WithLabelValues("status", "crm_failed").Inc()
		return err
	}
	webhooksTotal.WithLabelValues("status", "ok").Inc()
	return nil
}
