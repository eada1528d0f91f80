package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	// Import the example indexes to register them
	_ "github.com/SundaeSwap-finance/acropolis-indexer-sample/examples/indexes/orders"
	_ "github.com/SundaeSwap-finance/acropolis-indexer-sample/examples/indexes/pools"
	_ "github.com/SundaeSwap-finance/acropolis-indexer-sample/examples/indexes/wallet"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/internal/common"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/internal/config"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/internal/cursor"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/internal/logger"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/pkg/chain"
	pkgconfig "github.com/SundaeSwap-finance/acropolis-indexer-sample/pkg/config"
	pkgcursor "github.com/SundaeSwap-finance/acropolis-indexer-sample/pkg/cursor"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/pkg/indexer"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const (
	version = "1.0.0"
	banner  = `
╔═══════════════════════════════════════════╗
║          Chain Indexer v%s             ║
║   Per-consumer cursors over one chain     ║
╚═══════════════════════════════════════════╝
`
)

var (
	configPath string
	envFile    string

	syncSlot      string
	syncBlockHash string
	forceRebuild  bool
)

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "indexer",
	Short: "Chain Indexer - fan one chain event log out to independent indexes",
	Long: `Chain Indexer follows an ordered log of chain events and drives every configured
index from its own cursor: indexes backfill history independently, join the shared
live tail once caught up, and are isolated from each other's failures.`,
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadEnv(envFile)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIndexer(cmd.Context(), nil)
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run every configured index from its stored cursor",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIndexer(cmd.Context(), nil)
	},
}

var syncFromOriginCmd = &cobra.Command{
	Use:   "sync-from-origin",
	Short: "Run every index without a stored cursor from the start of the chain",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIndexer(cmd.Context(), startOverride(chain.Origin(), forceRebuild))
	},
}

var syncFromPointCmd = &cobra.Command{
	Use:   "sync-from-point",
	Short: "Run every index without a stored cursor from a specific block",
	RunE: func(cmd *cobra.Command, args []string) error {
		slot, err := common.ParseSlot(syncSlot)
		if err != nil {
			return fmt.Errorf("invalid --slot: %w", err)
		}

		hash, err := chain.ParseBlockHash(syncBlockHash)
		if err != nil {
			return fmt.Errorf("invalid --block-hash: %w", err)
		}

		return runIndexer(cmd.Context(), startOverride(chain.Specific(slot, hash), forceRebuild))
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List available index types",
	Long:  `List all registered index types that can be used in the configuration file.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Available index types:")
		types := indexer.ListRegistered()
		if len(types) == 0 {
			fmt.Println("  (no indexes registered)")
			return
		}
		for _, t := range types {
			fmt.Printf("  - %s\n", t)
		}
	},
}

var configSchemaCmd = &cobra.Command{
	Use:   "config-schema",
	Short: "Print the JSON schema of the configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		schema, err := config.Schema()
		if err != nil {
			return err
		}

		fmt.Println(string(schema))
		return nil
	},
}

var cursorsCmd = &cobra.Command{
	Use:   "cursors",
	Short: "Print the cursor stored for every index",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printCursors(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to configuration file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the configuration")

	syncFromPointCmd.Flags().StringVarP(&syncSlot, "slot", "s", "", "slot of the block to sync from (decimal or 0x hex)")
	syncFromPointCmd.Flags().StringVarP(&syncBlockHash, "block-hash", "b", "", "hex hash of the block to sync from")
	_ = syncFromPointCmd.MarkFlagRequired("slot")
	_ = syncFromPointCmd.MarkFlagRequired("block-hash")

	for _, cmd := range []*cobra.Command{syncFromOriginCmd, syncFromPointCmd} {
		cmd.Flags().BoolVar(&forceRebuild, "force-rebuild", false, "ignore stored cursors and rebuild every index")
	}

	rootCmd.AddCommand(runCmd, syncFromOriginCmd, syncFromPointCmd, listCmd, configSchemaCmd, cursorsCmd)
}

// loadEnv loads path into the environment. A missing default file is not an error.
func loadEnv(path string) error {
	if path == "" {
		return nil
	}

	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}

	return nil
}

func runIndexer(ctx context.Context, override func(*pkgconfig.Config)) error {
	fmt.Printf(banner, version)

	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if override != nil {
		override(cfg)
	}

	log, err := logger.NewComponentLoggerFromConfig(common.ComponentProcess, cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	logger.SetDefaultLogger(log)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer app.close()

	log.Info("Starting chain indexer...")
	if err := app.run(ctx); err != nil {
		return fmt.Errorf("chain indexer failed: %w", err)
	}

	log.Info("Chain indexer stopped successfully")
	return nil
}

// startOverride starts every configured index without a stored cursor from start.
func startOverride(start chain.Point, forceRebuild bool) func(*pkgconfig.Config) {
	return func(cfg *pkgconfig.Config) {
		cfg.StartAt(start, forceRebuild)
	}
}

func printCursors(ctx context.Context) error {
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	store, err := cursor.New(ctx, cfg.CursorStore, nil, logger.NewNopLogger())
	if err != nil {
		return fmt.Errorf("failed to open cursor store: %w", err)
	}
	defer store.Close()

	lister, ok := store.(pkgcursor.Lister)
	if !ok {
		return fmt.Errorf("cursor store backend %s cannot list cursors", cfg.CursorStore.Backend)
	}

	cursors, err := lister.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list cursors: %w", err)
	}

	for _, idx := range cfg.Indexes {
		point, ok := cursors[idx.Name]
		if !ok {
			fmt.Printf("%-20s (none, starts at %s)\n", idx.Name, idx.StartPoint)
			continue
		}
		fmt.Printf("%-20s %s\n", idx.Name, point)
	}

	return nil
}
