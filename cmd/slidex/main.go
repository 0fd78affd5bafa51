package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/nikhil7591/slidex/internal/config"
	"github.com/nikhil7591/slidex/internal/database"
	"github.com/nikhil7591/slidex/internal/export"
	"github.com/nikhil7591/slidex/internal/extract"
	"github.com/nikhil7591/slidex/internal/pipeline"
	"github.com/nikhil7591/slidex/internal/server"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "slidex",
	Short:   "Turn documents into slide decks",
	Long:    "Slidex normalizes, summarizes and expands a document into a presentation: slides with bullets, presenter notes and per-slide explanations.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		} else {
			log.SetFlags(log.LstdFlags)
		}

		// API keys may live in a local .env during development.
		_ = godotenv.Load()

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(serveCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("slidex", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/slidex/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to configure the LLM provider and API keys.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database and provider status",
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

		fmt.Println("Decks:")
		fmt.Printf("  Total: %d\n", stats.TotalDecks)
		fmt.Printf("  Slides: %d\n", stats.TotalSlides)
		fmt.Printf("  Degraded slides: %d\n", stats.DegradedSlides)
		if stats.LastGeneratedAt != nil {
			fmt.Printf("  Last generated: %s\n", *stats.LastGeneratedAt)
		}

		fmt.Println("\nProvider:")
		p := pipeline.New(cfg)
		if err := p.Preflight(); err != nil {
			fmt.Printf("  Not configured: %v\n", err)
		} else {
			fmt.Printf("  %s ready\n", cfg.Generation.Provider)
		}
		return nil
	},
}

// --- generate command ---

var (
	genSlides int
	genRatio  float64
	genTitle  string
	genDryRun bool
	genNoSave bool
)

var generateCmd = &cobra.Command{
	Use:   "generate <file>",
	Short: "Generate a slide deck from a document (.pdf, .txt, .md, .html)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := extract.FromFile(args[0])
		if err != nil {
			return err
		}

		opts := pipeline.Options{
			TargetSlides: genSlides,
			TargetRatio:  genRatio,
			Title:        genTitle,
		}
		pipe := pipeline.New(cfg)

		if genDryRun {
			result := pipe.DryRun(*doc, opts)
			printSteps(result)
			return result.Failed()
		}

		if err := pipe.Preflight(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		result := pipe.Run(ctx, *doc, opts)
		printSteps(result)
		if err := result.Failed(); err != nil {
			return fmt.Errorf("%s: %w", pipeline.Classify(err), err)
		}

		d := result.Deck
		fmt.Printf("\nDeck ready: %q, %d slides", d.Metadata.Title, len(d.Slides))
		if len(d.Degraded) > 0 {
			fmt.Printf(" (%d degraded)", len(d.Degraded))
		}
		fmt.Println()
		for _, g := range d.Degraded {
			fmt.Printf("  slide %d: %s\n", g.Index+1, g.Reason)
		}

		if genNoSave {
			return nil
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		id, err := db.InsertDeck(d, doc.SourceName, doc.SourceKind)
		if err != nil {
			return fmt.Errorf("saving deck: %w", err)
		}
		fmt.Printf("\nSaved as %s\n", id)
		fmt.Printf("View it with 'slidex serve' or export it with 'slidex export %s'\n", id)
		return nil
	},
}

func init() {
	generateCmd.Flags().IntVar(&genSlides, "slides", 0, "Target slide count (default: derived from document length)")
	generateCmd.Flags().Float64Var(&genRatio, "ratio", 0, "Summary compression ratio in (0,1]")
	generateCmd.Flags().StringVar(&genTitle, "title", "", "Override the deck title")
	generateCmd.Flags().BoolVar(&genDryRun, "dry-run", false, "Show what would be done without calling the provider")
	generateCmd.Flags().BoolVar(&genNoSave, "no-save", false, "Do not persist the deck")
}

func printSteps(result *pipeline.Result) {
	for i, step := range result.Steps {
		fmt.Printf("\nStep %d: %s\n", i+1, step.Name)
		if step.Err != nil {
			fmt.Printf("  Error: %v\n", step.Err)
		} else {
			fmt.Printf("  %s\n", step.Summary)
		}
	}
}

// --- export command ---

var (
	exportFormat string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export <deck-id>",
	Short: "Export a stored deck as markdown or PDF",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		d, err := db.LoadDeck(args[0])
		if err != nil {
			return err
		}
		if d == nil {
			return fmt.Errorf("deck %s not found", args[0])
		}

		out := exportOut
		if out == "" {
			out = "deck." + exportFormat
		}

		switch exportFormat {
		case "md":
			if err := os.WriteFile(out, []byte(export.Markdown(d)), 0o644); err != nil {
				return fmt.Errorf("writing export: %w", err)
			}
		case "pdf":
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("creating export: %w", err)
			}
			defer f.Close()
			if err := export.PDF(d, f); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown format %q (use md or pdf)", exportFormat)
		}

		fmt.Printf("Exported %q to %s\n", d.Metadata.Title, out)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "md", "Export format: md or pdf")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output path (default: deck.<format>)")
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(db, port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run server on (default: from config)")
}

func openDB() (*database.DB, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	dbPath := filepath.Join(dataDir, "slidex.db")
	return database.Open(dbPath)
}
