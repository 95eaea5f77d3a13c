package directory

import (
	"context"
	"errors"
)

// ErrNotFound means the key has no row. Any other error from a Store is a
// backing-store failure and must not be conflated with absence.
var ErrNotFound = errors.New("directory: not found")

// Store persists tenant credentials and the derived instance index.
type Store interface {
	ProviderCredentials(ctx context.Context, subAccountID string) (TenantCredential, error)
	SubAccountByInstance(ctx context.Context, instanceID string) (string, error)
	// UpsertProviderCredentials writes the credential row and, as a side
	// effect, the instanceID -> subAccountID mapping.
	UpsertProviderCredentials(ctx context.Context, subAccountID, instanceID, apiToken string) error
}

// CorrelationStore persists provider<->CRM message id links.
type CorrelationStore interface {
	SaveCorrelation(ctx context.Context, c MessageCorrelation) error
	CorrelationByProviderMessageID(ctx context.Context, providerMessageID string) (MessageCorrelation, error)
}
