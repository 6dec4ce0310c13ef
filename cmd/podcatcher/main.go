package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/TobiSchelling/podcatcher/internal/catalog"
	"github.com/TobiSchelling/podcatcher/internal/config"
	"github.com/TobiSchelling/podcatcher/internal/database"
	"github.com/TobiSchelling/podcatcher/internal/logging"
)

var (
	verbose bool
	envFile string

	flagDB         string
	flagCatalog    string
	flagPodcastDir string
	flagTempDir    string
	flagLogFormat  string

	cfg    *config.Config
	logger *log.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "podcatcher",
	Short:        "Download new podcast episodes",
	Long:         "podcatcher polls podcast feeds, downloads new episodes, rewrites their tags and files them per feed.",
	Version:      config.Version,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config loading for version
		if cmd.Name() == "version" {
			return nil
		}

		var err error
		cfg, err = config.Load(envFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		applyFlags(cmd)
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		level := cfg.LogLevel()
		if verbose {
			level = "debug"
		}
		logger, err = logging.New(os.Stderr, logging.Options{Level: level, Format: cfg.LogFormat})
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Read environment defaults from this file")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "Seen ledger database (PODCASTER_DB)")
	rootCmd.PersistentFlags().StringVar(&flagCatalog, "catalog", "", "Feed catalog path or URL (PODCASTER_YAML)")
	rootCmd.PersistentFlags().StringVar(&flagPodcastDir, "podcast-dir", "", "Episode library root (PODCASTER_DIR)")
	rootCmd.PersistentFlags().StringVar(&flagTempDir, "temp-dir", "", "Directory for in-flight downloads (PODCASTER_TEMP)")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "", "Log format: text, json or logfmt (PODCASTER_LOG_FORMAT)")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(ledgerCmd)
}

// applyFlags lets explicitly set flags win over the environment.
func applyFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	override := func(name string, dst *string, value string) {
		if flags.Changed(name) {
			*dst = value
		}
	}
	override("db", &cfg.Database, flagDB)
	override("catalog", &cfg.Catalog, flagCatalog)
	override("podcast-dir", &cfg.PodcastDir, flagPodcastDir)
	override("temp-dir", &cfg.TempDir, flagTempDir)
	override("log-format", &cfg.LogFormat, flagLogFormat)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("podcatcher", config.Version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a sample feed catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := cfg.Catalog
		if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
			return fmt.Errorf("catalog %s is remote; set --catalog to a local path", target)
		}
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Catalog already exists: %s\n", target)
			return nil
		}

		if dir := filepath.Dir(target); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("creating catalog directory: %w", err)
			}
		}
		if err := os.WriteFile(target, catalog.SampleYAML, 0o644); err != nil {
			return fmt.Errorf("writing catalog: %w", err)
		}

		fmt.Printf("Created catalog: %s\n", target)
		fmt.Println("Edit it to add your feeds, then run: podcatcher run")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show ledger statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Printf("Ledger: %s\n\n", db.Path())
		fmt.Println("Episodes:")
		fmt.Printf("  Total seen: %d\n", stats.Total)
		fmt.Printf("  Downloaded: %d\n", stats.OK)
		fmt.Printf("  Faulty: %d\n", stats.Faulty)

		if len(stats.Feeds) > 0 {
			fmt.Println()
			fmt.Print(renderTable(statusColumns, feedRows(stats.Feeds)))
			fmt.Println()
		}
		return nil
	},
}

// feedRows sorts feeds by episode count, busiest first.
func feedRows(feeds map[string]int) [][]string {
	ids := make([]string, 0, len(feeds))
	for id := range feeds {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if feeds[ids[i]] != feeds[ids[j]] {
			return feeds[ids[i]] > feeds[ids[j]]
		}
		return ids[i] < ids[j]
	})

	rows := make([][]string, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, []string{id, strconv.Itoa(feeds[id])})
	}
	return rows
}

func openDB() (*database.DB, error) {
	return database.Open(cfg.Database, logger)
}
