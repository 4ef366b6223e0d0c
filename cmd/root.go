package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/arcanaland/arkhamproxy/internal/arkhamdb"
	"github.com/arcanaland/arkhamproxy/internal/cache"
	"github.com/arcanaland/arkhamproxy/internal/card"
	"github.com/arcanaland/arkhamproxy/internal/config"
	"github.com/arcanaland/arkhamproxy/internal/deck"
)

// env holds the collaborators built from the configuration before a command runs.
type env struct {
	cfg      *config.Config
	log      *slog.Logger
	store    *cache.Store
	client   *arkhamdb.Client
	decks    *deck.Fetcher
	resolver *card.Resolver
}

var (
	configPath string
	verbose    bool
	app        *env
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "arkhamproxy",
	Short: "Build printable proxy sheets from ArkhamDB decks",
	Long: `arkhamproxy fetches Arkham Horror LCG deck lists from ArkhamDB, keeps the card
images in a local cache and lays them out on print-ready pages.

Decks are cached for a day (deck_ttl). Card images are cached forever; drop a
correctly named file into the Cards cache directory to supply an image that
ArkhamDB does not have (see 'arkhamproxy cache seed').`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(configPath, verbose)
		if err != nil {
			return err
		}
		app = e
		return nil
	},
}

func init() {
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $XDG_CONFIG_HOME/arkhamproxy/config.toml)")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output to stderr")
}

// Execute adds all child commands to the root command and sets flags appropriately.
// Interrupting a command cancels its context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return RootCmd.ExecuteContext(ctx)
}

func newEnv(path string, debug bool) (*env, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	if debug {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	root := cfg.CacheRoot()
	if root == "" {
		return nil, fmt.Errorf("%w: set cache_dir in %s", cache.ErrCacheUnavailable, config.GetConfigFilePath())
	}
	store := cache.NewStore(root)

	client := arkhamdb.NewClient(arkhamdb.Options{
		BaseURL:           cfg.APIBaseURL,
		Timeout:           cfg.RequestTimeout.Duration,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Burst:             cfg.Burst,
	})

	return &env{
		cfg:    cfg,
		log:    log,
		store:  store,
		client: client,
		decks: deck.NewFetcher(store, client,
			deck.WithTTL(cfg.DeckTTL.Duration),
			deck.WithLogger(log.With("component", "decks"))),
		resolver: card.NewResolver(store, client, cfg.Concurrency, log.With("component", "cards")),
	}, nil
}
