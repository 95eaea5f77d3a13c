// pkg/directory/postgres.go
package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// pgStore implements Store and CorrelationStore backed by PostgreSQL.
type pgStore struct {
	dbPool *pgxpool.Pool
	log    *zap.SugaredLogger
}

// NewPostgresStore constructs a PostgreSQL-backed directory store.
func NewPostgresStore(dbPool *pgxpool.Pool, log *zap.SugaredLogger) *pgStore {
	return &pgStore{dbPool: dbPool, log: log}
}

// EnsureSchema creates required tables if they do not already exist.
// Safe to call repeatedly (idempotent).
func EnsureSchema(ctx context.Context, dbPool *pgxpool.Pool) error {
	_, err := dbPool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS tenant_credentials (
  sub_account_id text PRIMARY KEY,
  provider_instance_id text NOT NULL,
  provider_api_token text NOT NULL,
  created_at timestamptz NOT NULL DEFAULT NOW(),
  updated_at timestamptz NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS instance_mappings (
  provider_instance_id text PRIMARY KEY,
  sub_account_id text NOT NULL,
  updated_at timestamptz NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS message_correlations (
  provider_message_id text PRIMARY KEY,
  crm_message_id text NOT NULL,
  sub_account_id text NOT NULL,
  updated_at timestamptz NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS instance_mappings_sub_account_idx ON instance_mappings(sub_account_id);
`)
	return err
}

func (p *pgStore) ProviderCredentials(ctx context.Context, subAccountID string) (TenantCredential, error) {
	row := p.dbPool.QueryRow(ctx, `SELECT sub_account_id, provider_instance_id, provider_api_token FROM tenant_credentials WHERE sub_account_id=$1`, subAccountID)
	var c TenantCredential
	if err := row.Scan(&c.SubAccountID, &c.ProviderInstanceID, &c.ProviderAPIToken); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return TenantCredential{}, ErrNotFound
		}
		return TenantCredential{}, fmt.Errorf("directory: credentials query: %w", err)
	}
	return c, nil
}

func (p *pgStore) SubAccountByInstance(ctx context.Context, instanceID string) (string, error) {
	row := p.dbPool.QueryRow(ctx, `SELECT sub_account_id FROM instance_mappings WHERE provider_instance_id=$1`, instanceID)
	var sub string
	if err := row.Scan(&sub); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("directory: instance query: %w", err)
	}
	return sub, nil
}

func (p *pgStore) UpsertProviderCredentials(ctx context.Context, subAccountID, instanceID, apiToken string) error {
	tx, err := p.dbPool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("directory: begin: %w", err)
	}
	defer tx.Rollback(ctx)
	if _, err := tx.Exec(ctx, `INSERT INTO tenant_credentials(sub_account_id, provider_instance_id, provider_api_token)
	  VALUES ($1,$2,$3)
	  ON CONFLICT (sub_account_id) DO UPDATE SET provider_instance_id=EXCLUDED.provider_instance_id, provider_api_token=EXCLUDED.provider_api_token, updated_at=NOW()`,
		subAccountID, instanceID, apiToken); err != nil {
		return fmt.Errorf("directory: upsert credentials: %w", err)
	}
	if _, err := tx.Exec(ctx, `INSERT INTO instance_mappings(provider_instance_id, sub_account_id)
	  VALUES ($1,$2)
	  ON CONFLICT (provider_instance_id) DO UPDATE SET sub_account_id=EXCLUDED.sub_account_id, updated_at=NOW()`,
		instanceID, subAccountID); err != nil {
		return fmt.Errorf("directory: upsert instance mapping: %w", err)
	}
	return tx.Commit(ctx)
}

func (p *pgStore) SaveCorrelation(ctx context.Context, c MessageCorrelation) error {
	if _, err := p.dbPool.Exec(ctx, `INSERT INTO message_correlations(provider_message_id, crm_message_id, sub_account_id)
	  VALUES ($1,$2,$3)
	  ON CONFLICT (provider_message_id) DO UPDATE SET crm_message_id=EXCLUDED.crm_message_id, sub_account_id=EXCLUDED.sub_account_id, updated_at=NOW()`,
		c.ProviderMessageID, c.CrmMessageID, c.SubAccountID); err != nil {
		return fmt.Errorf("directory: upsert correlation: %w", err)
	}
	return nil
}

func (p *pgStore) CorrelationByProviderMessageID(ctx context.Context, providerMessageID string) (MessageCorrelation, error) {
	row := p.dbPool.QueryRow(ctx, `SELECT provider_message_id, crm_message_id, sub_account_id FROM message_correlations WHERE provider_message_id=$1`, providerMessageID)
	var c MessageCorrelation
	if err := row.Scan(&c.ProviderMessageID, &c.CrmMessageID, &c.SubAccountID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return MessageCorrelation{}, ErrNotFound
		}
		return MessageCorrelation{}, fmt.Errorf("directory: correlation query: %w", err)
	}
	return c, nil
}
