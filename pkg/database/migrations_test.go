package database

import (
	"io"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestLoadMigrations_Embedded(t *testing.T) {
	runner, err := NewMigrationsRunner(nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("Expected NewMigrationsRunner to succeed: %v", err)
	}

	migrations := runner.Migrations()
	if len(migrations) != 6 {
		t.Fatalf("Expected 6 migrations, got %d", len(migrations))
	}

	for i, migration := range migrations {
		if migration.Version != i+1 {
			t.Errorf("Expected version %d at position %d, got %d", i+1, i, migration.Version)
		}
		if migration.Name == "" || strings.TrimSpace(migration.SQL) == "" {
			t.Errorf("Migration %d is missing its name or SQL", migration.Version)
		}
	}

	// Tables must be created before the tables referencing them
	order := []string{"communities", "users", "device_api_keys", "sensor_data", "alerts"}
	for i, table := range order {
		if !strings.Contains(migrations[i].Name, table) {
			t.Errorf("Expected migration %d to create %s, got %s", i+1, table, migrations[i].Name)
		}
	}
	if !strings.Contains(migrations[5].SQL, "pg_notify") {
		t.Error("Expected last migration to install the notify triggers")
	}
}

func TestMigrationsRunner_Logging(t *testing.T) {
	runner, err := NewMigrationsRunner(nil, zerolog.New(io.Discard))
	if err != nil {
		t.Fatalf("Expected NewMigrationsRunner to succeed: %v", err)
	}

	runner.DisableLogging()
	if runner.logger.GetLevel() != zerolog.Disabled {
		t.Error("Expected logger to be disabled")
	}

	runner.EnableLogging()
	if runner.logger.GetLevel() == zerolog.Disabled {
		t.Error("Expected logger to be restored")
	}
}

func TestParseMigrationFilename(t *testing.T) {
	testCases := []struct {
		filename    string
		wantVersion int
		wantName    string
		wantOK      bool
	}{
		{filename: "000001_create_communities.up.sql", wantVersion: 1, wantName: "create_communities", wantOK: true},
		{filename: "000006_create_event_notify_triggers.up.sql", wantVersion: 6, wantName: "create_event_notify_triggers", wantOK: true},
		{filename: "create_users.up.sql", wantOK: false},
		{filename: "abc_create_users.up.sql", wantOK: false},
		{filename: "000002_.up.sql", wantOK: false},
	}

	for _, tc := range testCases {
		t.Run(tc.filename, func(t *testing.T) {
			version, name, ok := parseMigrationFilename(tc.filename)
			if ok != tc.wantOK {
				t.Fatalf("Expected ok=%v, got %v", tc.wantOK, ok)
			}
			if !ok {
				return
			}
			if version != tc.wantVersion {
				t.Errorf("Expected version %d, got %d", tc.wantVersion, version)
			}
			if name != tc.wantName {
				t.Errorf("Expected name %q, got %q", tc.wantName, name)
			}
		})
	}
}

func TestRun_AppliesOnce(t *testing.T) {
	db := setupTestDB(t)
	if db == nil {
		t.Skip("Skipping test that requires real database connection")
	}
	defer db.Close()

	if err := dropAllTables(db); err != nil {
		t.Fatalf("Failed to drop tables: %v", err)
	}

	runner, err := NewMigrationsRunner(db, zerolog.Nop())
	if err != nil {
		t.Fatalf("Expected NewMigrationsRunner to succeed: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := runner.Run(); err != nil {
			t.Fatalf("Run #%d failed: %v", i+1, err)
		}
	}

	applied, err := runner.getAppliedMigrations()
	if err != nil {
		t.Fatalf("Expected getAppliedMigrations to succeed: %v", err)
	}
	if len(applied) != len(runner.migrations) {
		t.Errorf("Expected %d applied migrations, got %d", len(runner.migrations), len(applied))
	}
	for _, migration := range runner.migrations {
		if !applied[migration.Version] {
			t.Errorf("Expected migration %d to be applied", migration.Version)
		}
	}
}

func TestRun_TransactionRollback(t *testing.T) {
	db := setupTestDB(t)
	if db == nil {
		t.Skip("Skipping test that requires real database connection")
	}
	defer db.Close()

	if err := dropAllTables(db); err != nil {
		t.Fatalf("Failed to drop tables: %v", err)
	}

	runner, err := NewMigrationsRunner(db, zerolog.Nop())
	if err != nil {
		t.Fatalf("Expected NewMigrationsRunner to succeed: %v", err)
	}

	runner.migrations = append(runner.migrations, Migration{
		Version: 99999,
		Name:    "broken_alerts_index",
		SQL:     "CREATE INDEX ON alerts (no_such_column);",
	})

	err = runner.Run()
	if err == nil || !strings.Contains(err.Error(), "failed to apply migration") {
		t.Fatalf("Expected failed migration error, got %v", err)
	}

	applied, err := runner.getAppliedMigrations()
	if err != nil {
		t.Fatalf("Expected getAppliedMigrations to succeed: %v", err)
	}
	if applied[99999] {
		t.Error("Expected failed migration to not be recorded")
	}
	if !applied[5] {
		t.Error("Expected migrations before the failure to stay applied")
	}
}
