// pkg/directory/directory.go
package directory

import (
	"context"

	"github.com/coding1100/Nicola-Jane-Whatsapp-Integration/pkg/config"
)

// Credentials is a resolved provider connection, either a tenant's own row or
// the process-wide default.
type Credentials struct {
	InstanceID string
	APIToken   string
}

// Directory answers every tenant lookup the relay needs: provider credentials,
// CRM credentials, and the instance/location secondary indexes. Per-tenant
// entries win; a single global default (from config) is the fallback tier.
type Directory struct {
	store        Store
	correlations CorrelationStore
	cfg          config.Config
}

func New(store Store, correlations CorrelationStore, cfg config.Config) *Directory {
	return &Directory{store: store, correlations: correlations, cfg: cfg}
}

// ProviderCredentials returns the sub-account's provider connection, falling
// back to the global default instance/token when the tenant has no row.
func (d *Directory) ProviderCredentials(ctx context.Context, subAccountID string) (Credentials, error) {
	if subAccountID != "" {
		c, err := d.store.ProviderCredentials(ctx, subAccountID)
		if err == nil {
			return Credentials{InstanceID: c.ProviderInstanceID, APIToken: c.ProviderAPIToken}, nil
		}
		if err != ErrNotFound {
			return Credentials{}, err
		}
	}
	if d.cfg.DefaultInstanceID != "" && d.cfg.DefaultAPIToken != "" {
		return Credentials{InstanceID: d.cfg.DefaultInstanceID, APIToken: d.cfg.DefaultAPIToken}, nil
	}
	return Credentials{}, ErrNotFound
}

// CrmAPIKey returns the sub-account's CRM key, else the global default.
func (d *Directory) CrmAPIKey(subAccountID string) (string, error) {
	if k, ok := d.cfg.CrmAPIKeys[subAccountID]; ok && k != "" {
		return k, nil
	}
	if d.cfg.DefaultCrmAPIKey != "" {
		return d.cfg.DefaultCrmAPIKey, nil
	}
	return "", ErrNotFound
}

// CrmLocationID returns the sub-account's CRM location, else the global default.
func (d *Directory) CrmLocationID(subAccountID string) (string, error) {
	if l, ok := d.cfg.CrmLocationIDs[subAccountID]; ok && l != "" {
		return l, nil
	}
	if d.cfg.DefaultCrmLocationID != "" {
		return d.cfg.DefaultCrmLocationID, nil
	}
	return "", ErrNotFound
}

// SubAccountByInstance resolves a tenant from a provider instance id.
func (d *Directory) SubAccountByInstance(ctx context.Context, instanceID string) (string, error) {
	return d.store.SubAccountByInstance(ctx, instanceID)
}

// SubAccountByLocation resolves a tenant from a CRM location id (static
// config map, read-only).
func (d *Directory) SubAccountByLocation(locationID string) (string, error) {
	if s, ok := d.cfg.LocationTenants[locationID]; ok && s != "" {
		return s, nil
	}
	return "", ErrNotFound
}

// DefaultInstanceID exposes the global instance id for the resolver's
// default-tenant fallback.
func (d *Directory) DefaultInstanceID() string { return d.cfg.DefaultInstanceID }

// UpsertProviderCredentials onboards or updates a tenant. The instance
// mapping upsert happens inside the store as a side effect of this write.
func (d *Directory) UpsertProviderCredentials(ctx context.Context, subAccountID, instanceID, apiToken string) error {
	return d.store.UpsertProviderCredentials(ctx, subAccountID, instanceID, apiToken)
}

func (d *Directory) SaveCorrelation(ctx context.Context, c MessageCorrelation) error {
	return d.correlations.SaveCorrelation(ctx, c)
}

func (d *Directory) CorrelationByProviderMessageID(ctx context.Context, providerMessageID string) (MessageCorrelation, error) {
	return d.correlations.CorrelationByProviderMessageID(ctx, providerMessageID)
}
