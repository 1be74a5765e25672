package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPayoutMethodsMigrationContainsDefaultIndex(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_payout_methods_table.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no payout methods migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS payout_methods",
		"FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE",
		"uq_payout_methods_default",
		"WHERE is_default",
		"DROP TABLE IF EXISTS payout_methods",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}
