// pkg/directory/seed.go
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SeedEntry is one tenant row for initial ingestion.
// JSON (TENANT_SEED_JSON):
//
//	[{"sub_account_id":"acct1","instance_id":"instance149866","api_token":"tok1"}]
//
// YAML (TENANT_SEED_FILE):
//
//	- sub_account_id: acct1
//	  instance_id: instance149866
//	  api_token: tok1
type SeedEntry struct {
	SubAccountID string `json:"sub_account_id" yaml:"sub_account_id"`
	InstanceID   string `json:"instance_id" yaml:"instance_id"`
	APIToken     string `json:"api_token" yaml:"api_token"`
}

// SeedFromEnv ingests initial tenant data from TENANT_SEED_JSON and/or
// TENANT_SEED_FILE. Entries are upserts, so repeated startups are harmless.
func SeedFromEnv(ctx context.Context, store Store) error {
	var entries []SeedEntry
	if raw := os.Getenv("TENANT_SEED_JSON"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &entries); err != nil {
			return fmt.Errorf("directory: seed json: %w", err)
		}
	}
	if path := os.Getenv("TENANT_SEED_FILE"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("directory: seed file: %w", err)
		}
		var fileEntries []SeedEntry
		if err := yaml.Unmarshal(raw, &fileEntries); err != nil {
			return fmt.Errorf("directory: seed yaml: %w", err)
		}
		entries = append(entries, fileEntries...)
	}
	for _, e := range entries {
		if e.SubAccountID == "" || e.InstanceID == "" {
			continue
		}
		if err := store.UpsertProviderCredentials(ctx, e.SubAccountID, e.InstanceID, e.APIToken); err != nil {
			return err
		}
	}
	return nil
}
