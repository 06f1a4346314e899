package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/lherron/pomokan/internal/cli/appctx"
	"github.com/lherron/pomokan/internal/domain"
	"github.com/lherron/pomokan/internal/store"
)

var cardCmd = &cobra.Command{
	Use:   "card",
	Short: "Manage cards",
}

var cardAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add a card to the end of a list",
	Args:  cobra.ExactArgs(1),
	RunE:  appctx.WithApp(appctx.DefaultOptions(), runCardAdd),
}

var cardMvCmd = &cobra.Command{
	Use:   "mv <card-id> <list-id>",
	Short: "Move a card to another list",
	Long: `Moves a card to the end of another list and appends the move to the
move log. The move time defaults to now.`,
	Args: cobra.ExactArgs(2),
	RunE: appctx.WithApp(appctx.DefaultOptions(), runCardMv),
}

var (
	cardAddList     string
	cardAddContent  string
	cardAddEstimate float64

	cardMvAt string
)

func init() {
	rootCmd.AddCommand(cardCmd)
	cardCmd.AddCommand(cardAddCmd)
	cardCmd.AddCommand(cardMvCmd)

	cardAddCmd.Flags().StringVarP(&cardAddList, "list", "l", "", "List to add the card to (required)")
	cardAddCmd.Flags().StringVarP(&cardAddContent, "content", "c", "", "Card content")
	cardAddCmd.Flags().Float64VarP(&cardAddEstimate, "estimate", "e", 0, "Estimated hours")
	cardAddCmd.MarkFlagRequired("list")

	cardMvCmd.Flags().StringVar(&cardMvAt, "at", "", "Move time (RFC3339, default now)")
}

func runCardAdd(app *appctx.App, cmd *cobra.Command, args []string) error {
	if cardAddEstimate < 0 {
		return exitError(2, fmt.Errorf("--estimate must not be negative"))
	}
	card, err := app.Store.Cards.Create(store.CardCreateParams{
		ListID:         domain.ListID(cardAddList),
		Title:          args[0],
		Content:        cardAddContent,
		EstimatedHours: cardAddEstimate,
	})
	if err != nil {
		return exitError(1, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Created card %s in %s\n", card.ID, cardAddList)
	return nil
}

func runCardMv(app *appctx.App, cmd *cobra.Command, args []string) error {
	at := time.Now()
	if cardMvAt != "" {
		t, err := time.Parse(time.RFC3339, cardMvAt)
		if err != nil {
			return exitError(2, fmt.Errorf("invalid --at %q: %w", cardMvAt, err))
		}
		at = t
	}
	mv, err := app.Store.Cards.Move(domain.CardID(args[0]), domain.ListID(args[1]), at)
	if err != nil {
		return exitError(1, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Moved %s: %s -> %s\n", mv.CardID, mv.FromListID, mv.ToListID)
	return nil
}
