package cmd

import (
	"fmt"

	colorize "github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/arcanaland/arkhamproxy/internal/deck"
	"github.com/arcanaland/arkhamproxy/internal/session"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [deck_id]",
	Short: "Fetch a deck and list its cards",
	Long: `Fetch loads a public ArkhamDB deck, from the local cache when it was fetched
in the last deck_ttl, and prints one line per card group entry. The investigator
always comes first with quantity 1, followed by the main slots and side slots.

Examples:
  arkhamproxy fetch 12345
  arkhamproxy fetch --refresh --images 12345`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		refresh, _ := cmd.Flags().GetBool("refresh")
		withImages, _ := cmd.Flags().GetBool("images")

		s := session.New(app.decks, app.resolver)
		st := s.LoadDeck(cmd.Context(), args[0], refresh)
		if st.Err != nil {
			return fmt.Errorf("could not load deck %s: %w", args[0], st.Err)
		}
		if withImages {
			st = s.ResolveImages(cmd.Context())
		}

		printDeck(st, withImages)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().BoolP("refresh", "r", false, "ignore the cached copy of the deck")
	fetchCmd.Flags().BoolP("images", "i", false, "also resolve card images and mark missing ones")
}

func printDeck(st session.State, withImages bool) {
	name := st.Deck.Name
	if name == "" {
		name = "(untitled)"
	}
	source := "network"
	if st.FromCache {
		source = "cache"
	}

	fmt.Println(colorize.CyanString("Deck: ") + colorize.HiWhiteString("%s", name) +
		colorize.HiBlackString(" [%s, from %s]", st.DeckID, source))
	fmt.Println(colorize.CyanString("Link: ") + app.client.DeckURL(st.DeckID))
	fmt.Println(colorize.CyanString("Cards: ") + colorize.HiWhiteString("%d", deck.TotalCards(st.Entries)))
	fmt.Println()

	for i, e := range st.Entries {
		line := fmt.Sprintf("  %dx %s", e.Quantity, e.CardID)
		if i == 0 {
			line += colorize.YellowString("  investigator")
		}
		if withImages {
			rec := st.Images[e.CardID]
			switch {
			case rec == nil:
				line += colorize.RedString("  missing image")
			case rec.HasBack():
				line += colorize.GreenString("  front+back")
			}
		}
		fmt.Println(line)
	}

	if withImages {
		if missing := st.Missing(); len(missing) > 0 {
			fmt.Printf("\n%s %d card(s) have no image; seed them with 'arkhamproxy cache seed'.\n",
				colorize.YellowString("Warning:"), len(missing))
		}
	}
}
