package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/emilianohg/defectscope/internal/config"
	"github.com/emilianohg/defectscope/internal/db"
	"github.com/emilianohg/defectscope/internal/ingest"
	"github.com/emilianohg/defectscope/internal/nhtsa"
	"github.com/emilianohg/defectscope/internal/queries"
	"github.com/emilianohg/defectscope/internal/repository"
	"github.com/emilianohg/defectscope/internal/tui"
)

var rootCmd = &cobra.Command{
	Use:   "defectscope",
	Short: "Vehicle defect intake tool over NHTSA complaints and recalls",
	Long:  `Defectscope caches NHTSA complaint and recall data per vehicle and renders defect-pattern statistics for legal intake triage.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		database, err := db.Open()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
			os.Exit(1)
		}
		defer db.Close()

		// Run initial migration if this is a fresh database
		// This handles first-time setup without user interaction
		status, _ := db.GetMigrationStatus()
		if status != nil && status.CurrentVersion == 0 {
			if err := db.Migrate(database); err != nil {
				fmt.Fprintf(os.Stderr, "Error running initial migrations: %v\n", err)
				os.Exit(1)
			}
		}

		if err := tui.Run(database, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

var ingestCmd = &cobra.Command{
	Use:   "ingest MAKE MODEL YEAR",
	Short: "Fetch and cache NHTSA complaints and recalls for a vehicle",
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		year, err := strconv.Atoi(args[2])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid year: %s\n", args[2])
			os.Exit(1)
		}

		pipeline, cleanup := mustPipeline()
		defer cleanup()

		result, err := pipeline.Ingest(context.Background(), args[0], args[1], year)
		if err != nil {
			logError(err)
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		printResult(result)
	},
}

var vinCmd = &cobra.Command{
	Use:   "vin VIN",
	Short: "Decode a 17-character VIN and ingest the decoded vehicle",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		pipeline, cleanup := mustPipeline()
		defer cleanup()

		decoded, result, err := pipeline.IngestVIN(context.Background(), args[0])
		if err != nil {
			logError(err)
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("VIN decoded: %d %s %s\n", decoded.Year, decoded.Make, decoded.Model)
		printResult(result)
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats MAKE MODEL YEAR",
	Short: "Print cached complaint/recall statistics for a vehicle",
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		year, err := strconv.Atoi(args[2])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid year: %s\n", args[2])
			os.Exit(1)
		}

		cfg, database := mustOpen()
		defer db.Close()

		vehicle, err := repository.NewVehicleRepo(database).Get(args[0], args[1], year)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if vehicle == nil {
			fmt.Fprintln(os.Stderr, "Vehicle not cached yet. Run 'defectscope ingest' first.")
			os.Exit(1)
		}

		q := queries.New(database)
		complaints, err := q.ComplaintCount(vehicle.ID)
		if err == nil {
			var recalls int
			recalls, err = q.RecallCount(vehicle.ID)
			if err == nil {
				fmt.Printf("%d %s %s\n", vehicle.Year, vehicle.Make, vehicle.Model)
				fmt.Printf("Complaints: %d\nRecalls: %d\n", complaints, recalls)
			}
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		severity, err := q.Severity(vehicle.ID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Crashes: %d  Fires: %d  Injuries: %d  Deaths: %d\n",
			severity.Crashes, severity.Fires, severity.Injuries, severity.Deaths)

		top, err := q.TopComponents(vehicle.ID, cfg.TopComponents)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if len(top) > 0 {
			fmt.Println("\nTop components:")
			for _, cc := range top {
				fmt.Printf("  %4d  %s\n", cc.Count, cc.Components)
			}
		}
	},
}

var searchCmd = &cobra.Command{
	Use:   "search MAKE MODEL YEAR TEXT...",
	Short: "Search cached complaint text for a symptom",
	Args:  cobra.MinimumNArgs(4),
	Run: func(cmd *cobra.Command, args []string) {
		year, err := strconv.Atoi(args[2])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid year: %s\n", args[2])
			os.Exit(1)
		}
		text := strings.Join(args[3:], " ")

		cfg, database := mustOpen()
		defer db.Close()

		vehicle, err := repository.NewVehicleRepo(database).Get(args[0], args[1], year)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if vehicle == nil {
			fmt.Fprintln(os.Stderr, "Vehicle not cached yet. Run 'defectscope ingest' first.")
			os.Exit(1)
		}

		hits, err := queries.New(database).SearchBySymptom(vehicle.ID, text, cfg.SearchLimit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("%d matching complaints\n", len(hits))
		for _, h := range hits {
			date := "(no date)"
			if h.DateComplaintFiled != nil {
				date = h.DateComplaintFiled.Format("2006-01-02")
			}
			summary := ""
			if h.Summary != nil {
				summary = *h.Summary
			}
			fmt.Printf("%s  %s  %s\n", h.ODINumber, date, summary)
		}
	},
}

// mustOpen loads config and opens the migrated database, exiting on
// failure.
func mustOpen() (*config.Config, *sql.DB) {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	database, err := db.OpenAndMigrate()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}

	return cfg, database
}

func mustPipeline() (*ingest.Pipeline, func()) {
	cfg, database := mustOpen()
	pipeline := ingest.NewWithDB(database, nhtsa.NewClient(cfg))
	return pipeline, func() { db.Close() }
}

func printResult(result *ingest.Result) {
	fmt.Printf("Vehicle: %d %s %s\n",
		result.Vehicle.Year, result.Vehicle.Make, result.Vehicle.Model)
	fmt.Printf("Inserted: %d new complaints, %d new recalls\n",
		result.NewComplaints, result.NewRecalls)
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(vinCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(searchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func logError(err error) {
	logPath, pathErr := config.ErrorLogPath()
	if pathErr != nil {
		return
	}

	// Ensure directory exists
	if err := config.EnsureDirectories(); err != nil {
		return
	}

	f, fileErr := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if fileErr != nil {
		return
	}
	defer f.Close()

	fmt.Fprintf(f, "[%s] %v\n", "ingest", err)
}
