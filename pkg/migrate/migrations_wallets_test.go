package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWalletsMigrationContainsSchemas(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_partners_and_wallets.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no partners/wallets migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS partners",
		"CREATE INDEX IF NOT EXISTS idx_partners_location ON partners USING GIST (location)",
		"CREATE TABLE IF NOT EXISTS partner_wallets",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_partner_wallets_partner",
		"CREATE TABLE IF NOT EXISTS wallet_transactions",
		"FOREIGN KEY (wallet_id) REFERENCES partner_wallets(id) ON DELETE CASCADE",
		"CREATE TABLE IF NOT EXISTS commission_rules",
		"CHECK (rate_percent >= 0)",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}
