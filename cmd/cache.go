package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	colorize "github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/arcanaland/arkhamproxy/internal/cache"
	"github.com/arcanaland/arkhamproxy/internal/card"
	"github.com/arcanaland/arkhamproxy/internal/config"
	"github.com/arcanaland/arkhamproxy/internal/validator"
)

var namespaces = []string{cache.Decks, cache.Cards, cache.Previews}

// cacheCmd represents the cache command group
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and manage the local deck and image cache",
	Long:  `Commands for inspecting, seeding and clearing the local deck and card image cache.`,
}

var cachePathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the cache directories",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(app.store.Root())
		for _, ns := range namespaces {
			fmt.Printf("  %-9s %s\n", ns, filepath.Join(app.store.Root(), ns))
		}
	},
}

// cacheInitCmd provisions every namespace and writes the config file
var cacheInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the cache directories and config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, ns := range namespaces {
			dir, err := app.store.EnsureNamespace(ns)
			if err != nil {
				return err
			}
			fmt.Println("Cache directory ready:", dir)
		}

		path := configPath
		if path == "" {
			path = config.GetConfigFilePath()
		}
		fmt.Println("Config file:", path)
		return nil
	},
}

var cacheSeedCmd = &cobra.Command{
	Use:   "seed [card_id] [image_file]",
	Short: "Add an image for a card by hand",
	Long: `Seed copies an image into the Cards cache under the name the resolver looks
for, so cards missing from ArkhamDB can still be printed. The file extension
must be .png or .jpg (.jpeg is stored as .jpg).

Examples:
  arkhamproxy cache seed 90001 ./scans/90001.png
  arkhamproxy cache seed --back 90001 ./scans/90001-back.jpg`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cardID, src := args[0], args[1]
		back, _ := cmd.Flags().GetBool("back")

		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(src), "."))
		if ext == "jpeg" {
			ext = "jpg"
		}
		if ext != "png" && ext != "jpg" {
			return fmt.Errorf("unsupported image type %q (expecting .png or .jpg)", filepath.Ext(src))
		}

		data, err := os.ReadFile(src)
		if err != nil {
			return fmt.Errorf("error reading image: %w", err)
		}

		key := card.FrontKey(cardID, ext)
		if back {
			key = card.BackKey(cardID, ext)
		}
		// a different extension would shadow or be shadowed by the new file
		for _, other := range card.Extensions {
			if other == ext {
				continue
			}
			stale := card.FrontKey(cardID, other)
			if back {
				stale = card.BackKey(cardID, other)
			}
			if err := app.store.Remove(cache.Cards, stale); err != nil {
				return err
			}
		}
		if err := app.store.Write(cache.Cards, key, data); err != nil {
			return err
		}
		dropPreviews(strings.TrimSuffix(key, "."+ext))

		fmt.Println("Seeded", app.store.Path(cache.Cards, key))
		return nil
	},
}

// dropPreviews removes rendered art of the image named name.
func dropPreviews(name string) {
	entries, err := app.store.List(cache.Previews)
	if err != nil {
		app.log.Warn("failed to list previews", "err", err)
		return
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Key, name+"-") {
			if err := app.store.Remove(cache.Previews, e.Key); err != nil {
				app.log.Warn("failed to remove preview", "key", e.Key, "err", err)
			}
		}
	}
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove cached decks and images",
	Long: `Clear removes cached files. Without flags everything is removed; use --decks
or --cards to limit it. Rendered previews are always removed with the cards.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		decks, _ := cmd.Flags().GetBool("decks")
		cards, _ := cmd.Flags().GetBool("cards")
		if !decks && !cards {
			decks, cards = true, true
		}

		var targets []string
		if decks {
			targets = append(targets, cache.Decks)
		}
		if cards {
			targets = append(targets, cache.Cards, cache.Previews)
		}

		for _, ns := range targets {
			n, err := app.store.Clear(ns)
			if err != nil {
				return err
			}
			fmt.Printf("Removed %d file(s) from %s\n", n, ns)
		}
		return nil
	},
}

// cacheVerifyCmd represents the cache verify command
var cacheVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check the cache for unreadable or misnamed files",
	Long: `Verify checks that cached decks parse and cached images are readable and named
<card_id>.png|jpg or <card_id>b.png|jpg. It also warns about stale decks and back
images that have no front image.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		v := validator.NewValidator(app.store, app.cfg.DeckTTL.Duration)
		results, err := v.Validate()
		if err != nil {
			return fmt.Errorf("verification error: %w", err)
		}

		fmt.Println("Verification Results:")
		fmt.Println("---------------------")
		fmt.Printf("%d deck(s), %d image(s) in %s\n", results.Decks, results.Images, app.store.Root())

		if len(results.Errors) == 0 {
			fmt.Println(colorize.GreenString("✅ Cache is consistent."))
		} else {
			fmt.Println(colorize.RedString("❌ Cache has %d problem(s):", len(results.Errors)))
			for i, e := range results.Errors {
				fmt.Printf("%d. %s\n", i+1, e)
			}
		}

		if len(results.Warnings) > 0 {
			fmt.Println("\nWarnings:")
			for i, warn := range results.Warnings {
				fmt.Printf("%d. %s\n", i+1, warn)
			}
		}

		if len(results.Errors) > 0 {
			return fmt.Errorf("verification failed")
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cachePathCmd)
	cacheCmd.AddCommand(cacheInitCmd)
	cacheCmd.AddCommand(cacheSeedCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheVerifyCmd)

	cacheSeedCmd.Flags().Bool("back", false, "seed the back face")
	cacheClearCmd.Flags().Bool("decks", false, "remove cached decks only")
	cacheClearCmd.Flags().Bool("cards", false, "remove cached card images only")
}
