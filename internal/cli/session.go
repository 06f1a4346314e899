package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/lherron/pomokan/internal/cli/appctx"
	"github.com/lherron/pomokan/internal/domain"
	"github.com/lherron/pomokan/internal/store"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Record pomodoro sessions",
}

var sessionAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a finished pomodoro against a card",
	Long: `Records a focus session on a card. The card's actual hours grow by the
session length, the session is linked to the card's board and the board's
spent hours are recomputed.

Per-application usage is given as repeated --app name=hours flags.`,
	Args: cobra.NoArgs,
	RunE: appctx.WithApp(appctx.DefaultOptions(), runSessionAdd),
}

var (
	sessionAddCard     string
	sessionAddMinutes  float64
	sessionAddSwitches int
	sessionAddStart    string
	sessionAddApps     []string
)

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionAddCmd)

	sessionAddCmd.Flags().StringVar(&sessionAddCard, "card", "", "Card the session was spent on (required)")
	sessionAddCmd.Flags().Float64Var(&sessionAddMinutes, "minutes", 25, "Session length in minutes")
	sessionAddCmd.Flags().IntVar(&sessionAddSwitches, "switches", 0, "Number of application switches")
	sessionAddCmd.Flags().StringVar(&sessionAddStart, "start", "", "Start time (RFC3339, default now minus length)")
	sessionAddCmd.Flags().StringArrayVar(&sessionAddApps, "app", nil, "Application usage as name=hours (repeatable)")
	sessionAddCmd.MarkFlagRequired("card")
}

func runSessionAdd(app *appctx.App, cmd *cobra.Command, args []string) error {
	duration := time.Duration(sessionAddMinutes * float64(time.Minute))
	if duration <= 0 {
		return exitError(2, fmt.Errorf("--minutes must be positive"))
	}
	start := time.Now().Add(-duration)
	if sessionAddStart != "" {
		t, err := time.Parse(time.RFC3339, sessionAddStart)
		if err != nil {
			return exitError(2, fmt.Errorf("invalid --start %q: %w", sessionAddStart, err))
		}
		start = t
	}
	apps, err := parseAppUsage(sessionAddApps)
	if err != nil {
		return exitError(2, err)
	}

	sess, err := app.Store.Sessions.Add(store.SessionAddParams{
		CardID:      domain.CardID(sessionAddCard),
		Start:       start,
		Duration:    duration,
		SwitchTimes: sessionAddSwitches,
		Apps:        apps,
	})
	if err != nil {
		return exitError(1, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Recorded session %s (%.2fh) on %s\n", sess.ID, sess.SpentTimeInHour, sessionAddCard)
	return nil
}

// parseAppUsage parses name=hours pairs. Repeating a name adds the hours up.
func parseAppUsage(pairs []string) (map[string]domain.AppUsage, error) {
	apps := make(map[string]domain.AppUsage, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --app %q: expected name=hours", pair)
		}
		hours, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil || hours < 0 {
			return nil, fmt.Errorf("invalid --app %q: hours must be a non-negative number", pair)
		}
		u := apps[name]
		u.AppName = name
		u.SpentTimeInHour += hours
		apps[name] = u
	}
	return apps, nil
}
