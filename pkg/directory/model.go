package directory

// TenantCredential is one sub-account's provider connection.
type TenantCredential struct {
	SubAccountID       string // tenant key, unique
	ProviderInstanceID string
	ProviderAPIToken   string
}

// InstanceMapping is the secondary index used to resolve a tenant from
// webhooks that carry only the provider instance id. Maintained automatically
// whenever a TenantCredential is written.
type InstanceMapping struct {
	ProviderInstanceID string // unique
	SubAccountID       string
}

// MessageCorrelation links one provider message to its CRM counterpart.
// Last write wins under upsert; at most one CRM id per provider id.
type MessageCorrelation struct {
	ProviderMessageID string // unique
	CrmMessageID      string
	SubAccountID      string
}
