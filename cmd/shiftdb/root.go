package main

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/shiftdb/shiftdb/internal/cache"
	"github.com/shiftdb/shiftdb/internal/registry"
	"github.com/shiftdb/shiftdb/internal/schema"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "shiftdb",
	Short: "Read and query Schichtplaner5 planning data.",
	Long: `shiftdb loads a directory of Schichtplaner5 dBase tables into memory,
resolves the declared relationships between them and answers filter, join
and aggregation queries against the result.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if getFlag(cmd, "verbose") {
			log.SetLevel(log.DebugLevel)
		}
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "increase logging verbosity")
	rootCmd.PersistentFlags().String("catalog", "", "catalog config file (defaults to the built-in catalog)")
}

// loadCatalog resolves the table catalog every subcommand works against:
// the built-in Schichtplaner5 catalog, or the YAML file given via --catalog.
func loadCatalog(cmd *cobra.Command) *schema.Catalog {
	config_path := getString(cmd, "catalog")
	if config_path == "" {
		return schema.Builtin()
	}
	config, err := schema.LoadConfig(config_path)
	if err != nil {
		fail(err)
	}
	catalog, err := config.Catalog()
	if err != nil {
		fail(err)
	}
	return catalog
}

// openSession loads a planning directory into a fresh session, honoring the
// shared --cache, --workers and --tables flags.
func openSession(cmd *cobra.Command, dir string) *registry.Session {
	opts := []registry.Option{}
	if cache_dir := getString(cmd, "cache"); cache_dir != "" {
		store, err := cache.Open(cache_dir)
		if err != nil {
			fail(err)
		}
		opts = append(opts, registry.WithCache(store))
	}
	if workers := getInt(cmd, "workers"); workers > 0 {
		opts = append(opts, registry.WithWorkers(workers))
	}
	if tables := getStringSlice(cmd, "tables"); len(tables) > 0 {
		opts = append(opts, registry.WithTables(tables...))
	}

	session, err := registry.New(loadCatalog(cmd), opts...).LoadAll(cmd.Context(), dir)
	if err != nil {
		fail(err)
	}
	return session
}
