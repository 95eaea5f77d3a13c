// internal/relay/service.go
package relay

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/coding1100/Nicola-Jane-Whatsapp-Integration/internal/highlevel"
	"github.com/coding1100/Nicola-Jane-Whatsapp-Integration/internal/normalize"
	"github.com/coding1100/Nicola-Jane-Whatsapp-Integration/internal/resolver"
	"github.com/coding1100/Nicola-Jane-Whatsapp-Integration/internal/ultramsg"
	"github.com/coding1100/Nicola-Jane-Whatsapp-Integration/pkg/directory"
)

// crmChannelType is the conversation channel the CRM files relayed messages
// under.
const crmChannelType = "WhatsApp"

var allowedMediaTypes = map[string]bool{
	"image":    true,
	"document": true,
	"audio":    true,
	"video":    true,
}

// Service wires the directory, resolver and both upstream clients into the
// relay's operations. All flows are request-scoped and synchronous.
type Service struct {
	dir      *directory.Directory
	resolver *resolver.Resolver
	provider *ultramsg.Client
	crm      *highlevel.Client
	log      *zap.SugaredLogger
	now      func() time.Time
}

func NewService(dir *directory.Directory, res *resolver.Resolver, provider *ultramsg.Client, crm *highlevel.Client, log *zap.SugaredLogger) *Service {
	return &Service{dir: dir, resolver: res, provider: provider, crm: crm, log: log, now: time.Now}
}

// DispatchRequest is one outbound message for one tenant.
type DispatchRequest struct {
	SubAccountID string `json:"subAccountId"`
	Phone        string `json:"phone"`
	Text         string `json:"text,omitempty"`
	MediaURL     string `json:"mediaUrl,omitempty"`
	MediaType    string `json:"mediaType,omitempty"`
	LocationID   string `json:"locationId,omitempty"`
}

// DispatchResult carries the raw provider response plus the resolved tenant.
type DispatchResult struct {
	SubAccountID      string         `json:"subAccountId"`
	ProviderMessageID string         `json:"providerMessageId,omitempty"`
	CrmMessageID      string         `json:"crmMessageId,omitempty"`
	ProviderResponse  map[string]any `json:"providerResponse"`
}

// Dispatch sends one message through the provider and, best-effort, mirrors
// it into the CRM conversation. Only the provider send decides the
// caller-visible result; mirroring failures are logged and swallowed.
func (s *Service) Dispatch(ctx context.Context, req DispatchRequest) (*DispatchResult, error) {
	if req.Phone == "" {
		return nil, fmt.Errorf("%w: phone is required", ErrValidation)
	}
	if req.Text == "" && req.MediaURL == "" {
		return nil, fmt.Errorf("%w: text or mediaUrl is required", ErrValidation)
	}
	if req.MediaURL != "" && !allowedMediaTypes[req.MediaType] {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMediaType, req.MediaType)
	}

	creds, err := s.dir.ProviderCredentials(ctx, req.SubAccountID)
	if err != nil {
		if err == directory.ErrNotFound {
			return nil, ErrCredentialsNotConfigured
		}
		return nil, err
	}

	phone := normalize.NormalizePhone(req.Phone)
	// The token lets later webhooks for this send identify their tenant
	// without an instance lookup.
	referenceID := fmt.Sprintf("%s_%d", req.SubAccountID, s.now().Unix())

	resp, err := s.sendToProvider(ctx, creds, phone, req, referenceID)
	if err != nil {
		providerSendsTotal.WithLabelValues(mediaKind(req), "error").Inc()
		return nil, err
	}
	providerSendsTotal.WithLabelValues(mediaKind(req), "ok").Inc()

	result := &DispatchResult{
		SubAccountID:      req.SubAccountID,
		ProviderMessageID: ultramsg.MessageID(resp),
		ProviderResponse:  resp,
	}
	if req.LocationID != "" {
		result.CrmMessageID = s.mirrorToCrm(ctx, req, phone, result.ProviderMessageID)
	}
	return result, nil
}

func (s *Service) sendToProvider(ctx context.Context, creds directory.Credentials, phone string, req DispatchRequest, referenceID string) (map[string]any, error) {
	if req.MediaURL == "" {
		return s.provider.SendText(ctx, creds.InstanceID, creds.APIToken, phone, req.Text, referenceID)
	}
	switch req.MediaType {
	case "image":
		return s.provider.SendImage(ctx, creds.InstanceID, creds.APIToken, phone, req.MediaURL, req.Text, referenceID)
	case "document":
		return s.provider.SendDocument(ctx, creds.InstanceID, creds.APIToken, phone, req.MediaURL, req.Text, referenceID)
	case "audio":
		return s.provider.SendAudio(ctx, creds.InstanceID, creds.APIToken, phone, req.MediaURL, referenceID)
	case "video":
		return s.provider.SendVideo(ctx, creds.InstanceID, creds.APIToken, phone, req.MediaURL, req.Text, referenceID)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidMediaType, req.MediaType)
	}
}

// mirrorToCrm posts the sent content into the CRM conversation and records
// the correlation. Every step here is best-effort.
func (s *Service) mirrorToCrm(ctx context.Context, req DispatchRequest, phone, providerMessageID string) string {
	apiKey, err := s.dir.CrmAPIKey(req.SubAccountID)
	if err != nil {
		s.log.Warnw("crm mirror skipped: no api key", "subAccount", req.SubAccountID)
		crmMirrorFailuresTotal.Inc()
		return ""
	}
	contactID, err := s.crm.FindOrCreateContactByPhone(ctx, apiKey, phone, req.LocationID)
	if err != nil {
		s.log.Warnw("crm mirror: contact lookup failed", "subAccount", req.SubAccountID, "err", err)
		crmMirrorFailuresTotal.Inc()
		return ""
	}
	var media []string
	if req.MediaURL != "" {
		media = []string{req.MediaURL}
	}
	crmMessageID, err := s.crm.CreateConversationMessage(ctx, apiKey, contactID, req.Text, media, crmChannelType, req.LocationID)
	if err != nil {
		s.log.Warnw("crm mirror: message post failed", "subAccount", req.SubAccountID, "err", err)
		crmMirrorFailuresTotal.Inc()
		return ""
	}
	if providerMessageID != "" && crmMessageID != "" {
		if err := s.dir.SaveCorrelation(ctx, directory.MessageCorrelation{
			ProviderMessageID: providerMessageID,
			CrmMessageID:      crmMessageID,
			SubAccountID:      req.SubAccountID,
		}); err != nil {
			s.log.Warnw("correlation write failed", "providerMessageId", providerMessageID, "err", err)
		}
	}
	return crmMessageID
}

// Onboard upserts a tenant's provider credentials; the instance mapping is
// written as a side effect of the same call.
func (s *Service) Onboard(ctx context.Context, subAccountID, instanceID, apiToken string) error {
	if subAccountID == "" || instanceID == "" || apiToken == "" {
		return fmt.Errorf("%w: subAccountId, instanceId and apiToken are required", ErrValidation)
	}
	return s.dir.UpsertProviderCredentials(ctx, subAccountID, instanceID, apiToken)
}

// QRCode proxies the provider pairing QR for a tenant's instance.
func (s *Service) QRCode(ctx context.Context, subAccountID string) (map[string]any, error) {
	creds, err := s.dir.ProviderCredentials(ctx, subAccountID)
	if err != nil {
		if err == directory.ErrNotFound {
			return nil, ErrCredentialsNotConfigured
		}
		return nil, err
	}
	return s.provider.GetQRCode(ctx, creds.InstanceID, creds.APIToken)
}

func mediaKind(req DispatchRequest) string {
	if req.MediaURL == "" {
		return "text"
	}
	return req.MediaType
}
