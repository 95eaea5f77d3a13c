// pkg/directory/memory.go
package directory

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

type memStore struct {
	log *zap.SugaredLogger

	mu           sync.RWMutex
	credentials  map[string]TenantCredential   // key: subAccountID
	instances    map[string]string             // key: instanceID -> subAccountID
	correlations map[string]MessageCorrelation // key: providerMessageID
}

// NewMemoryStore builds the dev/test store. It implements both Store and
// CorrelationStore.
func NewMemoryStore(log *zap.SugaredLogger) *memStore {
	return &memStore{
		log:          log,
		credentials:  map[string]TenantCredential{},
		instances:    map[string]string{},
		correlations: map[string]MessageCorrelation{},
	}
}

func (m *memStore) ProviderCredentials(ctx context.Context, subAccountID string) (TenantCredential, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if c, ok := m.credentials[subAccountID]; ok {
		return c, nil
	}
	return TenantCredential{}, ErrNotFound
}

func (m *memStore) SubAccountByInstance(ctx context.Context, instanceID string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.instances[instanceID]; ok {
		return s, nil
	}
	return "", ErrNotFound
}

func (m *memStore) UpsertProviderCredentials(ctx context.Context, subAccountID, instanceID, apiToken string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.credentials[subAccountID] = TenantCredential{
		SubAccountID:       subAccountID,
		ProviderInstanceID: instanceID,
		ProviderAPIToken:   apiToken,
	}
	m.instances[instanceID] = subAccountID
	return nil
}

func (m *memStore) SaveCorrelation(ctx context.Context, c MessageCorrelation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.correlations[c.ProviderMessageID] = c
	return nil
}

func (m *memStore) CorrelationByProviderMessageID(ctx context.Context, providerMessageID string) (MessageCorrelation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if c, ok := m.correlations[providerMessageID]; ok {
		return c, nil
	}
	return MessageCorrelation{}, ErrNotFound
}
