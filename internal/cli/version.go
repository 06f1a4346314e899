package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lherron/pomokan/internal/snapshot"
)

var (
	// Version information (set by build flags)
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var versionJSON bool

func newVersionCmd(binary string, commands []string, jsonFlag *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  fmt.Sprintf("Displays version, commit, and build date information for %s.", binary),
		RunE: func(cmd *cobra.Command, args []string) error {
			if *jsonFlag {
				output := map[string]any{
					"binary":                  binary,
					"version":                 Version,
					"commit":                  GitCommit,
					"build_date":              BuildDate,
					"snapshot_schema_version": snapshot.SchemaVersion,
					"supported_commands":      commands,
					"supported_formats":       []string{"json", "yaml", "tsv", "table"},
				}
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				return encoder.Encode(output)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", binary, Version)
			fmt.Fprintf(cmd.OutOrStdout(), "  commit: %s\n", GitCommit)
			fmt.Fprintf(cmd.OutOrStdout(), "  built:  %s\n", BuildDate)
			fmt.Fprintf(cmd.OutOrStdout(), "  snapshot schema: v%d\n", snapshot.SchemaVersion)
			return nil
		},
	}
	cmd.Flags().BoolVar(jsonFlag, "json", false, "Output as JSON")
	return cmd
}

func init() {
	rootCmd.AddCommand(newVersionCmd("pomokan", []string{"board", "card", "session", "version"}, &versionJSON))
}
