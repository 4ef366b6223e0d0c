package cmd

import (
	"fmt"

	colorize "github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/arcanaland/arkhamproxy/internal/card"
	"github.com/arcanaland/arkhamproxy/internal/preview"
)

var showCmd = &cobra.Command{
	Use:   "show [card_id]",
	Short: "Display a card with ANSI art",
	Long: `Show displays a card image as ANSI terminal art next to its details. The image
is taken from the cache and downloaded first if it is missing.

Examples:
  arkhamproxy show 01001
  arkhamproxy show --back 01001
  arkhamproxy show --width 48 --height 32 01030`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cardID := args[0]
		back, _ := cmd.Flags().GetBool("back")
		width, _ := cmd.Flags().GetInt("width")
		height, _ := cmd.Flags().GetInt("height")
		plain, _ := cmd.Flags().GetBool("plain")

		rec := app.resolver.Resolve(cmd.Context(), cardID)
		if rec == nil {
			return fmt.Errorf("no image available for card %s", cardID)
		}

		imagePath, key := rec.Front, cardID
		if back {
			if !rec.HasBack() {
				return fmt.Errorf("card %s has no cached back image", cardID)
			}
			imagePath, key = rec.Back, cardID+card.BackSuffix
		}

		renderer := preview.NewRenderer(app.store, preview.Size{Width: width, Height: height})
		renderer.TrueColor = !plain && !colorize.NoColor
		art, err := renderer.Render(key, imagePath)
		if err != nil {
			return fmt.Errorf("error rendering ANSI art: %w", err)
		}

		info := []string{
			colorize.CyanString("ID:    ") + colorize.HiWhiteString("%s", cardID),
			colorize.CyanString("Image: ") + imagePath,
		}
		var text []string

		// details are optional
		if meta, err := app.client.Card(cmd.Context(), cardID); err == nil {
			info = append([]string{colorize.CyanString("Card:  ") + colorize.HiWhiteString("%s", meta.Name)}, info...)
			if meta.TypeName != "" {
				info = append(info, colorize.CyanString("Type:  ")+colorize.HiWhiteString("%s", meta.TypeName))
			}
			if meta.FactionName != "" {
				info = append(info, colorize.CyanString("Class: ")+colorize.HiWhiteString("%s", meta.FactionName))
			}
			if meta.PackName != "" {
				info = append(info, colorize.CyanString("Pack:  ")+colorize.HiWhiteString("%s", meta.PackName))
			}
			if meta.Text != "" {
				text = append(text, meta.Text)
			}
		} else {
			app.log.Debug("card details unavailable", "card", cardID, "err", err)
		}

		fmt.Print(preview.SideBySide(art, info, text, preview.TerminalWidth()))
		return nil
	},
}

func init() {
	RootCmd.AddCommand(showCmd)

	showCmd.Flags().BoolP("back", "b", false, "show the back face")
	showCmd.Flags().Int("width", preview.DefaultSize.Width, "art width in terminal cells")
	showCmd.Flags().Int("height", preview.DefaultSize.Height, "art height in terminal cells")
	showCmd.Flags().Bool("plain", false, "render without colors")
}
