package cmd

import (
	"fmt"

	colorize "github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/arcanaland/arkhamproxy/internal/card"
	"github.com/arcanaland/arkhamproxy/internal/deck"
)

var imagesCmd = &cobra.Command{
	Use:   "images [deck_id | card_id...]",
	Short: "Resolve card images into the local cache",
	Long: `Images makes sure every card of a deck has its images in the cache, downloading
the ones that are missing. With --card the arguments are card ids instead.

Cached images are never refetched. A card whose image cannot be downloaded is
reported as missing; add one by hand with 'arkhamproxy cache seed'.

Examples:
  arkhamproxy images 12345
  arkhamproxy images --card 01001 01030`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		byCard, _ := cmd.Flags().GetBool("card")

		ids := args
		if !byCard {
			if len(args) != 1 {
				return fmt.Errorf("expected one deck id, got %d arguments (use --card for card ids)", len(args))
			}
			res, err := app.decks.Fetch(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("could not load deck %s: %w", args[0], err)
			}
			ids = deck.UniqueCardIDs(deck.Entries(res.Document))
		}

		records := app.resolver.ResolveAll(cmd.Context(), ids)
		printRecords(ids, records)

		if missing := len(ids) - len(records); missing > 0 {
			fmt.Printf("\n%d of %d card(s) have no image.\n", missing, len(ids))
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(imagesCmd)

	imagesCmd.Flags().Bool("card", false, "treat arguments as card ids")
}

func printRecords(ids []string, records map[string]*card.Record) {
	for _, id := range ids {
		rec := records[id]
		if rec == nil {
			fmt.Printf("%s %s\n", colorize.RedString("✗"), id)
			continue
		}
		fmt.Printf("%s %s  %s\n", colorize.GreenString("✓"), id, rec.Front)
		if rec.HasBack() {
			fmt.Printf("  %s  %s\n", colorize.HiBlackString("back"), rec.Back)
		}
	}
}
