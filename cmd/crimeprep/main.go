package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/crimeprep/internal/config"
	"github.com/crimeprep/internal/debug"
	"github.com/crimeprep/internal/encode"
	"github.com/crimeprep/internal/etl"
	"github.com/crimeprep/internal/normalize"
	"github.com/crimeprep/internal/records"
	"github.com/crimeprep/internal/report"
	"github.com/crimeprep/internal/web"
)

var (
	// Loaded before any subcommand runs
	cfg *config.Config

	cfgFile string
	verbose bool
)

func main() {
	// Load environment configuration
	if err := config.LoadEnv(); err != nil {
		log.Fatalf("Failed to load .env: %v", err)
	}

	// Create root command
	rootCmd := &cobra.Command{
		Use:   "crimeprep",
		Short: "Chicago crime data cleaning pipeline",
		Long:  `Cleans Chicago crime incidents, derives temporal features and prepares one-hot model inputs`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			var err error
			cfg, err = config.Load(cfgFile)
			if err != nil {
				log.Fatalf("Failed to load configuration: %v", err)
			}
			if verbose {
				cfg.Pipeline.Verbose = true
			}
			debug.Setup(cfg.Logging.Level, cfg.Logging.Pretty)
		},
	}
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.GetEnv("CRIMEPREP_CONFIG", ""), "YAML configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print progress messages")

	// Add subcommands
	rootCmd.AddCommand(createCleanCmd())
	rootCmd.AddCommand(createPrepareCmd())
	rootCmd.AddCommand(createFetchCmd())
	rootCmd.AddCommand(createTablesCmd())
	rootCmd.AddCommand(createServeCmd())
	rootCmd.AddCommand(createConfigCmd())

	// Execute root command
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// createCleanCmd creates the clean subcommand
func createCleanCmd() *cobra.Command {
	var in inputFlags
	var stages []string
	var counts []string

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Run the cleaning pipeline and summarise the result",
		Long:  `Load incidents from a CSV export or the warehouse, run the cleaning stages and print what changed`,
		Run: func(cmd *cobra.Command, args []string) {
			ctx, cancel := commandContext()
			defer cancel()

			frame, err := in.load(ctx)
			if err != nil {
				log.Fatalf("Failed to load incidents: %v", err)
			}

			flags, err := pipelineFlags(stages)
			if err != nil {
				log.Fatalf("Invalid stages: %v", err)
			}

			stats, err := etl.Clean(frame, flags)
			if err != nil {
				log.Fatalf("Cleaning failed: %v", err)
			}

			fmt.Printf("\n=== Cleaning Results ===\n")
			report.Run(stats).Render(os.Stdout)

			for _, col := range counts {
				vc, err := report.ValueCounts(frame, col)
				if err != nil {
					log.Fatalf("Failed to count %s: %v", col, err)
				}
				fmt.Printf("\n=== %s ===\n", col)
				report.Counts(col, vc).Render(os.Stdout)
			}
		},
	}

	in.register(cmd)
	cmd.Flags().StringSliceVar(&stages, "stages", nil, "Stages to run, in order (default: configuration, else all)")
	cmd.Flags().StringSliceVar(&counts, "counts", nil, "Columns to print value counts for after cleaning")

	return cmd
}

// createPrepareCmd creates the prepare subcommand
func createPrepareCmd() *cobra.Command {
	var in inputFlags
	var columns []string
	var noClean bool

	cmd := &cobra.Command{
		Use:   "prepare",
		Short: "One-hot encode cleaned incidents",
		Long:  `Clean incidents, one-hot encode the categorical columns and build the arrest label vector`,
		Run: func(cmd *cobra.Command, args []string) {
			ctx, cancel := commandContext()
			defer cancel()

			frame, err := in.load(ctx)
			if err != nil {
				log.Fatalf("Failed to load incidents: %v", err)
			}

			if !noClean {
				if _, err := etl.Clean(frame, cfg.Flags()); err != nil {
					log.Fatalf("Cleaning failed: %v", err)
				}
			}

			if len(columns) == 0 {
				columns = cfg.Encode.Columns
			}
			prepared, err := encode.Prepare(frame, columns)
			if err != nil {
				log.Fatalf("Encoding failed: %v", err)
			}

			positives := 0
			for _, y := range prepared.Y {
				positives += y
			}

			fmt.Printf("\n=== Feature Matrix ===\n")
			fmt.Printf("Rows: %d\n", prepared.X.Rows)
			fmt.Printf("Features: %d\n", prepared.X.Cols)
			fmt.Printf("Stored entries: %d\n", prepared.X.NNZ())
			if prepared.X.Rows > 0 {
				fmt.Printf("Arrest rate: %.2f%%\n", float64(positives)/float64(prepared.X.Rows)*100)
			}
			if verbose {
				for i, name := range prepared.Features {
					fmt.Printf("  %4d %s\n", i, name)
				}
			}
		},
	}

	in.register(cmd)
	cmd.Flags().StringSliceVar(&columns, "columns", nil, "Columns to encode (default: configuration)")
	cmd.Flags().BoolVar(&noClean, "no-clean", false, "Encode the incidents as loaded")

	return cmd
}

// createFetchCmd creates the fetch subcommand
func createFetchCmd() *cobra.Command {
	in := inputFlags{warehouseOnly: true}

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Query the warehouse and join the district lookup",
		Run: func(cmd *cobra.Command, args []string) {
			ctx, cancel := commandContext()
			defer cancel()

			frame, err := in.load(ctx)
			if err != nil {
				log.Fatalf("Fetch failed: %v", err)
			}

			fmt.Printf("\n=== Fetch Results ===\n")
			fmt.Printf("Rows: %d\n", frame.Len())
			fmt.Printf("Columns: %v\n", frame.Columns())

			vc, err := report.ValueCounts(frame, records.ColCommunityName)
			if err == nil {
				report.Counts(records.ColCommunityName, vc).Render(os.Stdout)
			}
		},
	}

	in.registerWarehouse(cmd)

	return cmd
}

// createTablesCmd creates the tables subcommand
func createTablesCmd() *cobra.Command {
	var maxWidth int

	cmd := &cobra.Command{
		Use:       "tables [category|location|impute]",
		Short:     "Print the rewrite and imputation tables",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"category", "location", "impute"},
		Run: func(cmd *cobra.Command, args []string) {
			tables := map[string]*report.Table{
				"category": report.Mappings(normalize.CategoryTable),
				"location": report.Mappings(normalize.LocationTable),
				"impute":   report.ImputeRules(normalize.LocationImputeRules),
			}

			names := []string{"category", "impute", "location"}
			if len(args) == 1 {
				if _, ok := tables[args[0]]; !ok {
					log.Fatalf("Unknown table %q", args[0])
				}
				names = args
			}

			for _, name := range names {
				t := tables[name]
				t.MaxWidth = maxWidth
				fmt.Printf("\n=== %s ===\n", name)
				t.Render(os.Stdout)
			}
		},
	}

	cmd.Flags().IntVar(&maxWidth, "max-width", 0, "Truncate cells wider than this (0 keeps them whole)")

	return cmd
}

// createServeCmd creates the serve subcommand
func createServeCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the cleaning API",
		Run: func(cmd *cobra.Command, args []string) {
			webConfig := web.FromConfig(cfg)
			if port != 0 {
				webConfig.Server.Port = port
			}

			fmt.Printf("Starting web server on http://%s\n", webConfig.Server.Addr())
			if err := web.NewServer(webConfig).Start(); err != nil {
				log.Fatalf("Server failed: %v", err)
			}
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "Override the configured port")

	return cmd
}

// createConfigCmd creates the config subcommand
func createConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config [path]",
		Short: "Write the effective configuration as YAML",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if err := cfg.Save(args[0]); err != nil {
				log.Fatalf("Failed to save configuration: %v", err)
			}
			fmt.Printf("Configuration written to %s\n", args[0])
		},
	}
}

func commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), time.Duration(cfg.Warehouse.TimeoutSec)*time.Second)
}

func pipelineFlags(stages []string) (etl.Flags, error) {
	if len(stages) == 0 {
		return cfg.Flags(), nil
	}
	parsed, err := etl.ParseStages(stages)
	if err != nil {
		return etl.Flags{}, err
	}
	return etl.FlagsFor(parsed, cfg.Pipeline.Verbose), nil
}
