package db_test

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/lherron/pomokan/internal/db"
)

func TestRequiresMigrationError(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(t *testing.T, database *db.DB)
		want    []string // substrings of the error; nil means no error
	}{
		{
			name:    "fresh database",
			prepare: func(t *testing.T, database *db.DB) {},
			want:    []string{"version: none", "2 pending migration(s)", "pomokanadm migrate"},
		},
		{
			name: "baseline only",
			prepare: func(t *testing.T, database *db.DB) {
				_, err := database.Exec(`
					CREATE TABLE schema_migrations (
						version TEXT PRIMARY KEY,
						applied_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
					);
					INSERT INTO schema_migrations (version) VALUES ('000001_baseline.sql');
				`)
				if err != nil {
					t.Fatalf("seed schema_migrations: %v", err)
				}
			},
			want: []string{"version: 000001_baseline.sql", "1 pending migration(s)"},
		},
		{
			name: "fully migrated",
			prepare: func(t *testing.T, database *db.DB) {
				if err := database.Migrate(); err != nil {
					t.Fatalf("Migrate: %v", err)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "pomokan.db")
			database, err := db.Open(path)
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			defer database.Close()
			tt.prepare(t, database)

			err = database.RequiresMigrationError()
			if tt.want == nil {
				if err != nil {
					t.Fatalf("RequiresMigrationError() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatal("RequiresMigrationError() = nil, want error")
			}
			msg := err.Error()
			for _, sub := range append(tt.want, path) {
				if !strings.Contains(msg, sub) {
					t.Errorf("error %q does not mention %q", msg, sub)
				}
			}
		})
	}
}
