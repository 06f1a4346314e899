package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/lherron/pomokan/internal/check"
	"github.com/lherron/pomokan/internal/cli/appctx"
	"github.com/lherron/pomokan/internal/db"
	"github.com/lherron/pomokan/internal/store"
)

var doctorAdmCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check database health and data consistency",
	Long: `Performs health checks on the database file, SQLite settings and schema,
then loads the stored dataset and checks it: shape invariants, move log
replay, last move against current list, board spent hours and related
sessions. Exits with code 1 when any check reports an error.`,
	Args: cobra.NoArgs,
	RunE: appctx.WithApp(appctx.Options{}, runDoctorAdm),
}

var (
	doctorAdmJSON    bool
	doctorAdmVerbose bool
)

type doctorReport struct {
	Version string `json:"version"`
	DBPath  string `json:"db_path"`
	*check.Report
}

func init() {
	rootAdmCmd.AddCommand(doctorAdmCmd)
	doctorAdmCmd.Flags().BoolVar(&doctorAdmJSON, "json", false, "Output JSON")
	doctorAdmCmd.Flags().BoolVarP(&doctorAdmVerbose, "verbose", "v", false, "Show check details")
}

func runDoctorAdm(app *appctx.App, cmd *cobra.Command, args []string) error {
	report := runDoctor(app.Config.DBPath)

	if doctorAdmJSON {
		if err := encodeJSON(cmd, report); err != nil {
			return err
		}
	} else {
		printHumanReport(cmd.OutOrStdout(), report, doctorAdmVerbose)
	}

	if report.Errors > 0 {
		return exitError(1, fmt.Errorf("doctor found %d error(s)", report.Errors))
	}
	return nil
}

// runDoctor runs every check against the database at dbPath
func runDoctor(dbPath string) *doctorReport {
	report := &doctorReport{Version: Version, DBPath: dbPath, Report: check.NewReport()}

	fileChecks := checkDatabaseFile(dbPath)
	for _, c := range fileChecks {
		report.Add(c)
	}
	if fileChecks[0].Status == check.StatusError {
		return report
	}

	database, err := db.Open(dbPath)
	if err != nil {
		report.Add(check.Result{
			Name:    "database_open",
			Status:  check.StatusError,
			Message: fmt.Sprintf("Failed to open database: %v", err),
		})
		return report
	}
	defer database.Close()

	for _, c := range checkDatabasePragmas(database) {
		report.Add(c)
	}
	schema := checkSchema(database)
	report.Add(schema)
	if schema.Status != check.StatusOK {
		return report
	}

	st := store.New(database)
	report.Add(checkStoreLock(st))

	ds, err := st.Load()
	if err != nil {
		report.Add(check.Result{Name: "dataset_load", Status: check.StatusError, Message: err.Error()})
		return report
	}
	for _, c := range check.Run(ds).Checks {
		report.Add(c)
	}
	return report
}

func checkDatabaseFile(dbPath string) []check.Result {
	info, err := os.Stat(dbPath)
	if err != nil {
		return []check.Result{{
			Name:    "db_file_exists",
			Status:  check.StatusError,
			Message: fmt.Sprintf("Database file not found: %s", dbPath),
		}}
	}

	results := []check.Result{{
		Name:    "db_file_exists",
		Status:  check.StatusOK,
		Message: fmt.Sprintf("Database file: %s (%.1f MB)", dbPath, float64(info.Size())/(1024*1024)),
	}}

	f, err := os.OpenFile(dbPath, os.O_RDWR, 0)
	if err != nil {
		results = append(results, check.Result{
			Name:    "db_file_permissions",
			Status:  check.StatusError,
			Message: fmt.Sprintf("Database file not writable: %v", err),
		})
	} else {
		f.Close()
		results = append(results, check.Result{
			Name:    "db_file_permissions",
			Status:  check.StatusOK,
			Message: "Database file is readable and writable",
		})
	}
	return results
}

func checkDatabasePragmas(database *db.DB) []check.Result {
	var results []check.Result

	var journalMode string
	database.QueryRow("PRAGMA journal_mode").Scan(&journalMode)
	if journalMode == "wal" {
		results = append(results, check.Result{Name: "wal_mode", Status: check.StatusOK, Message: "WAL mode enabled"})
	} else {
		results = append(results, check.Result{
			Name:    "wal_mode",
			Status:  check.StatusWarning,
			Message: fmt.Sprintf("WAL mode not enabled (current: %s)", journalMode),
			Details: []string{"Readers may observe lock contention during imports"},
		})
	}

	var foreignKeys int
	database.QueryRow("PRAGMA foreign_keys").Scan(&foreignKeys)
	if foreignKeys == 1 {
		results = append(results, check.Result{Name: "foreign_keys", Status: check.StatusOK, Message: "Foreign keys enabled"})
	} else {
		results = append(results, check.Result{
			Name:    "foreign_keys",
			Status:  check.StatusError,
			Message: "Foreign keys not enabled",
			Details: []string{"Critical: foreign key constraints are not enforced"},
		})
	}

	var integrity string
	database.QueryRow("PRAGMA integrity_check").Scan(&integrity)
	if integrity == "ok" {
		results = append(results, check.Result{Name: "integrity_check", Status: check.StatusOK, Message: "Database integrity check passed"})
	} else {
		results = append(results, check.Result{
			Name:    "integrity_check",
			Status:  check.StatusError,
			Message: fmt.Sprintf("Database integrity check failed: %s", integrity),
			Details: []string{"Database may be corrupted", "Restore from a snapshot recommended"},
		})
	}

	return results
}

func checkSchema(database *db.DB) check.Result {
	if err := database.RequiresMigrationError(); err != nil {
		return check.Result{
			Name:    "schema_tables",
			Status:  check.StatusError,
			Message: err.Error(),
		}
	}

	required := []string{"sessions", "cards", "lists", "boards", "moves", "event_log"}
	var missing []string
	for _, table := range required {
		var count int
		err := database.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		if err != nil || count == 0 {
			missing = append(missing, table)
		}
	}
	if len(missing) > 0 {
		return check.Result{
			Name:    "schema_tables",
			Status:  check.StatusError,
			Message: fmt.Sprintf("Missing tables: %v", missing),
			Details: []string{"Run 'pomokanadm migrate' to create missing tables"},
		}
	}
	return check.Result{
		Name:    "schema_tables",
		Status:  check.StatusOK,
		Message: fmt.Sprintf("All required tables present (%d/%d)", len(required), len(required)),
	}
}

func checkStoreLock(st *store.Store) check.Result {
	lock := flock.New(st.LockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return check.Result{Name: "store_lock", Status: check.StatusWarning, Message: fmt.Sprintf("Could not probe store lock: %v", err)}
	}
	if !ok {
		return check.Result{
			Name:    "store_lock",
			Status:  check.StatusWarning,
			Message: fmt.Sprintf("Store lock %s is held by another process", st.LockPath()),
			Details: []string{"An import or merge may be in progress"},
		}
	}
	lock.Unlock()
	return check.Result{Name: "store_lock", Status: check.StatusOK, Message: "Store lock is free"}
}

func printHumanReport(out io.Writer, report *doctorReport, verbose bool) {
	fmt.Fprintf(out, "pomokanadm doctor %s\n\n", report.Version)
	fmt.Fprintf(out, "Database: %s\n\n", report.DBPath)

	for _, c := range report.Checks {
		icon := "✓"
		if c.Status == check.StatusWarning {
			icon = "⚠"
		} else if c.Status == check.StatusError {
			icon = "✗"
		}
		fmt.Fprintf(out, "  %s %-20s %s\n", icon, c.Name, c.Message)
		if (verbose || c.Status != check.StatusOK) && len(c.Details) > 0 {
			for _, detail := range c.Details {
				fmt.Fprintf(out, "      %s\n", detail)
			}
		}
	}
	fmt.Fprintln(out)

	switch {
	case report.Errors > 0:
		fmt.Fprintf(out, "✗ %d error(s), %d warning(s)\n", report.Errors, report.Warnings)
	case report.Warnings > 0:
		fmt.Fprintf(out, "⚠ %d warning(s)\n", report.Warnings)
	default:
		fmt.Fprintln(out, "✓ All checks passed")
	}
}
