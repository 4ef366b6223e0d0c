package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arcanaland/arkhamproxy/internal/layout"
	"github.com/arcanaland/arkhamproxy/internal/session"
)

var printCmd = &cobra.Command{
	Use:   "print [deck_id]",
	Short: "Render a deck as printable proxy pages",
	Long: `Print resolves every card image of a deck and writes PNG pages with a 3x3 grid
of poker sized cards. Cards without an image are printed as grey placeholder
boxes. The first page carries a QR code linking to the deck on ArkhamDB.

Examples:
  arkhamproxy print 12345 -o ./proxies
  arkhamproxy print --paper a4 --dpi 600 --no-backs 12345`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("output")
		paperName, _ := cmd.Flags().GetString("paper")
		dpi, _ := cmd.Flags().GetInt("dpi")
		noBacks, _ := cmd.Flags().GetBool("no-backs")

		if paperName == "" {
			paperName = app.cfg.Paper
		}
		paper, err := layout.PaperByName(paperName)
		if err != nil {
			return err
		}
		if dpi == 0 {
			dpi = app.cfg.DPI
		}

		s := session.New(app.decks, app.resolver)
		st := s.LoadDeck(cmd.Context(), args[0], false)
		if st.Err != nil {
			return fmt.Errorf("could not load deck %s: %w", args[0], st.Err)
		}
		st = s.ResolveImages(cmd.Context())

		slots := layout.Plan(st.Entries, st.Images, !noBacks)
		pages, err := layout.Render(slots, layout.Options{
			Paper:  paper,
			DPI:    dpi,
			QRText: app.client.DeckURL(st.DeckID),
		})
		if err != nil {
			return err
		}
		paths, err := layout.WritePages(out, pages)
		if err != nil {
			return err
		}

		fmt.Printf("Wrote %d page(s) with %d card(s) to %s\n", len(paths), len(slots), out)
		if missing := st.Missing(); len(missing) > 0 {
			fmt.Printf("%d card(s) printed as placeholders: %v\n", len(missing), missing)
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(printCmd)

	printCmd.Flags().StringP("output", "o", "proxies", "directory for the page images")
	printCmd.Flags().String("paper", "", "paper size: letter or a4 (default from config)")
	printCmd.Flags().Int("dpi", 0, "output resolution (default from config)")
	printCmd.Flags().Bool("no-backs", false, "skip back faces of double sided cards")
}
