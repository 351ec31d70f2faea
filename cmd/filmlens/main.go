package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"filmlens/internal/config"
	"filmlens/internal/pipeline"
	"filmlens/internal/server"
	"filmlens/internal/store"
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
	Use:     "filmlens",
	Short:   "Film diary statistics",
	Long:    "filmlens merges a film-diary CSV export archive into canonical per-film records and derives statistics, trends, and import-artifact flags.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		} else {
			log.SetFlags(log.LstdFlags)
		}

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			// All tunables have defaults; a missing config is fine.
			cfg = config.Default()
			return nil
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
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(serveCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("filmlens", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/filmlens/",
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
		fmt.Println("Edit it to tune thresholds or enable LLM commentary.")
		return nil
	},
}

// --- analyze command ---

var (
	analyzeLabel string
	analyzeOut   string
	analyzeJSON  string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [archive.zip]",
	Short: "Analyze an export archive and print the report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := runPipeline(args[0], analyzeLabel)
		if err != nil {
			return err
		}

		for i, step := range result.Steps {
			fmt.Printf("\nStep %d/%d: %s\n", i+1, len(result.Steps), step.Name)
			if step.Err != nil {
				fmt.Printf("  Error: %v\n", step.Err)
			} else {
				fmt.Printf("  %s\n", step.Summary)
			}
		}
		if result.Failed() {
			return fmt.Errorf("import failed")
		}

		if analyzeOut != "" {
			if err := os.WriteFile(analyzeOut, []byte(result.ReportMarkdown), 0o644); err != nil {
				return fmt.Errorf("writing report: %w", err)
			}
			fmt.Printf("\nReport written to %s\n", analyzeOut)
		} else {
			fmt.Println("\n" + result.ReportMarkdown)
		}

		if result.Commentary != "" {
			fmt.Println("\n---\n" + result.Commentary)
		}

		if analyzeJSON != "" {
			data, err := json.MarshalIndent(map[string]any{
				"label":   result.Label,
				"films":   result.Films,
				"anomaly": result.Anomaly,
				"debug":   result.Debug,
				"stats":   result.Stats,
			}, "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling result: %w", err)
			}
			if err := os.WriteFile(analyzeJSON, data, 0o644); err != nil {
				return fmt.Errorf("writing JSON result: %w", err)
			}
			fmt.Printf("JSON result written to %s\n", analyzeJSON)
		}
		return nil
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeLabel, "label", "", "Display label for the report (defaults to the archive name)")
	analyzeCmd.Flags().StringVarP(&analyzeOut, "out", "o", "", "Write the markdown report to a file")
	analyzeCmd.Flags().StringVar(&analyzeJSON, "json", "", "Write the full JSON result to a file")
}

// --- export command ---

var exportDB string

var exportCmd = &cobra.Command{
	Use:   "export [archive.zip]",
	Short: "Analyze an archive and export the records to SQLite",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := runPipeline(args[0], "")
		if err != nil {
			return err
		}
		if result.Failed() {
			for _, step := range result.Steps {
				if step.Err != nil {
					return fmt.Errorf("import failed: %w", step.Err)
				}
			}
		}

		dbPath := exportDB
		if dbPath == "" {
			dbPath = filepath.Join(cfg.GetDataDir(), "filmlens.db")
		}

		db, err := store.Open(dbPath)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.Save(result.Films, result.Stats, result.Anomaly); err != nil {
			return fmt.Errorf("exporting records: %w", err)
		}

		fmt.Printf("Exported %d film(s) to %s\n", len(result.Films), dbPath)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportDB, "db", "", "SQLite file to write (defaults to the data directory)")
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(cfg, pipeline.New(cfg), port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run server on (defaults to config)")
}

func runPipeline(archivePath, label string) (*pipeline.Result, error) {
	data, err := os.ReadFile(archivePath)
	if err != nil {
		return nil, fmt.Errorf("reading archive: %w", err)
	}

	if label == "" {
		label = strings.TrimSuffix(filepath.Base(archivePath), filepath.Ext(archivePath))
	}

	pipe := pipeline.New(cfg)
	return pipe.Run(context.Background(), data, label), nil
}
