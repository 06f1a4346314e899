package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lherron/pomokan/internal/check"
	"github.com/lherron/pomokan/internal/db"
	"github.com/lherron/pomokan/internal/store"
	"github.com/lherron/pomokan/internal/testutil"
)

func setupDoctorDB(t *testing.T) string {
	t.Helper()
	database, dbPath := testutil.TempDB(t)
	if err := store.New(database).Replace(testutil.Workspace(), "test"); err != nil {
		t.Fatalf("Failed to seed dataset: %v", err)
	}
	return dbPath
}

func TestDoctorDatabaseFileChecks(t *testing.T) {
	t.Run("healthy database passes all file checks", func(t *testing.T) {
		results := checkDatabaseFile(setupDoctorDB(t))
		if len(results) != 2 {
			t.Errorf("Expected 2 checks, got %d", len(results))
		}
		for _, result := range results {
			if result.Status != check.StatusOK {
				t.Errorf("Check %s failed: %s", result.Name, result.Message)
			}
		}
	})

	t.Run("missing database file reports error", func(t *testing.T) {
		results := checkDatabaseFile("/nonexistent/path/db.db")
		if len(results) != 1 || results[0].Name != "db_file_exists" || results[0].Status != check.StatusError {
			t.Errorf("Expected db_file_exists error, got %+v", results)
		}
	})

	t.Run("read-only database reports permission error", func(t *testing.T) {
		if os.Geteuid() == 0 {
			t.Skip("root ignores file permissions")
		}
		dbPath := setupDoctorDB(t)
		os.Chmod(dbPath, 0444)
		defer os.Chmod(dbPath, 0644)

		results := checkDatabaseFile(dbPath)
		if len(results) != 2 || results[1].Status != check.StatusError {
			t.Errorf("Expected db_file_permissions error, got %+v", results)
		}
	})
}

func TestRunDoctor(t *testing.T) {
	report := runDoctor(setupDoctorDB(t))
	if report.Errors != 0 {
		t.Fatalf("Expected no errors, got %+v", report.Checks)
	}

	names := make(map[string]bool)
	for _, c := range report.Checks {
		names[c.Name] = true
	}
	for _, want := range []string{"db_file_exists", "wal_mode", "foreign_keys", "integrity_check", "schema_tables", "store_lock", "dataset_shape", "move_chain"} {
		if !names[want] {
			t.Errorf("missing check %s", want)
		}
	}

	var buf bytes.Buffer
	printHumanReport(&buf, report, false)
	if report.Warnings == 0 && !strings.Contains(buf.String(), "All checks passed") {
		t.Errorf("unexpected report output:\n%s", buf.String())
	}
}

func TestRunDoctorMissingDatabase(t *testing.T) {
	report := runDoctor(filepath.Join(t.TempDir(), "missing.db"))
	if report.Errors != 1 || len(report.Checks) != 1 {
		t.Fatalf("Expected a single error, got %+v", report.Checks)
	}

	var buf bytes.Buffer
	printHumanReport(&buf, report, true)
	if !strings.Contains(buf.String(), "✗ 1 error(s)") {
		t.Errorf("unexpected report output:\n%s", buf.String())
	}
}

func TestRunDoctorUnmigratedDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "fresh.db")
	database, err := db.Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	database.Close()

	report := runDoctor(dbPath)
	last := report.Checks[len(report.Checks)-1]
	if last.Name != "schema_tables" || last.Status != check.StatusError {
		t.Errorf("Expected schema_tables error as last check, got %+v", last)
	}
	if !strings.Contains(last.Message, "pomokanadm migrate") {
		t.Errorf("Expected migrate hint, got %q", last.Message)
	}
}
