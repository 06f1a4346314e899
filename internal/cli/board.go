package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/lherron/pomokan/internal/cli/appctx"
	"github.com/lherron/pomokan/internal/domain"
	"github.com/lherron/pomokan/internal/render"
	"github.com/lherron/pomokan/internal/stats"
	"github.com/lherron/pomokan/internal/store"
)

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Manage boards",
}

var boardAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a board with Todo, Focused and Done lists",
	Args:  cobra.ExactArgs(1),
	RunE:  appctx.WithApp(appctx.DefaultOptions(), runBoardAdd),
}

var boardLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List boards with overview statistics",
	Long: `Lists every board with its estimated hours left, actual hours, pomodoro
count and mean estimate error. Pinned boards are listed first; --sort orders
the rest by name (alpha), due date (due) or spent hours (spent).`,
	Args: cobra.NoArgs,
	RunE: appctx.WithApp(appctx.DefaultOptions(), runBoardLs),
}

var (
	boardAddDescription string
	boardAddPin         bool
	boardAddDue         string
	boardAddJSON        bool

	boardLsSort   string
	boardLsOutput string
	boardLsJSON   bool
)

func init() {
	rootCmd.AddCommand(boardCmd)
	boardCmd.AddCommand(boardAddCmd)
	boardCmd.AddCommand(boardLsCmd)

	boardAddCmd.Flags().StringVarP(&boardAddDescription, "description", "d", "", "Board description")
	boardAddCmd.Flags().BoolVar(&boardAddPin, "pin", false, "Pin the board to the top of listings")
	boardAddCmd.Flags().StringVar(&boardAddDue, "due", "", "Due date (YYYY-MM-DD)")
	boardAddCmd.Flags().BoolVar(&boardAddJSON, "json", false, "Output as JSON")

	boardLsCmd.Flags().StringVar(&boardLsSort, "sort", stats.SortAlpha, "Sort mode: alpha, due, spent")
	boardLsCmd.Flags().StringVarP(&boardLsOutput, "output", "o", "", "Output format: table, json, yaml, tsv")
	boardLsCmd.Flags().BoolVar(&boardLsJSON, "json", false, "Output as JSON")
}

func runBoardAdd(app *appctx.App, cmd *cobra.Command, args []string) error {
	due, err := parseDueDate(boardAddDue)
	if err != nil {
		return exitError(2, err)
	}

	board, err := app.Store.Boards.Create(store.BoardCreateParams{
		Name:        args[0],
		Description: boardAddDescription,
		Pin:         boardAddPin,
		DueTime:     due,
	})
	if err != nil {
		return exitError(1, err)
	}

	if boardAddJSON {
		return render.NewRenderer(cmd.OutOrStdout(), render.Options{Format: render.FormatJSON}).RenderJSON(board)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ Created board %s (%s)\n", board.Name, board.ID)
	fmt.Fprintf(out, "  lists: todo=%s focused=%s done=%s\n", board.Lists[0], board.FocusedList, board.DoneList)
	return nil
}

func runBoardLs(app *appctx.App, cmd *cobra.Command, args []string) error {
	if err := domain.ValidateSortMode(boardLsSort); err != nil {
		return exitError(2, err)
	}
	ds, err := app.Store.Load()
	if err != nil {
		return exitError(1, err)
	}
	rows, err := stats.Overview(ds, boardLsSort)
	if err != nil {
		return exitError(1, err)
	}
	r, err := newRenderer(app, cmd, boardLsJSON)
	if err != nil {
		return err
	}
	return r.Render(rows, boardTable(rows))
}

// parseDueDate turns YYYY-MM-DD into unix milliseconds at local midnight
func parseDueDate(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	t, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		return 0, fmt.Errorf("invalid --due %q: expected YYYY-MM-DD", s)
	}
	return t.UnixMilli(), nil
}

type boardTable []stats.BoardStats

func (boardTable) Headers() []string {
	return []string{"ID", "NAME", "PIN", "DUE", "LEFT", "SPENT", "POMODOROS", "MPE"}
}

func (t boardTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, b := range t {
		pin, due, mpe := "", "", ""
		if b.Pin {
			pin = "*"
		}
		if b.DueTime != 0 {
			due = time.UnixMilli(b.DueTime).Format("2006-01-02")
		}
		if b.MeanPercentageError != nil {
			mpe = fmt.Sprintf("%.2f%%", *b.MeanPercentageError)
		}
		rows = append(rows, []string{
			string(b.ID), b.Name, pin, due,
			render.Hours(b.EstimatedLeftHours), render.Hours(b.ActualHours),
			strconv.Itoa(b.PomodoroCount), mpe,
		})
	}
	return rows
}
