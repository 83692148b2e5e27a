package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"chemviz/adapters/memory"
	"chemviz/app"
	"chemviz/domain/equipment"
	"chemviz/internal"
	"chemviz/internal/config"
	"chemviz/internal/ingestion"
	"chemviz/internal/report"
	"chemviz/models"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "chemviz-cli",
		Short: "Inspect equipment CSV files and render reports offline",
	}

	rootCmd.AddCommand(
		newInspectCmd(),
		newReportCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// inspection is the JSON printed by inspect
type inspection struct {
	File    string            `json:"file"`
	Columns map[string]string `json:"columns"`
	Summary equipment.Summary `json:"summary"`
}

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [file.csv]",
		Short: "Show the column mapping and summary an upload would produce",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			return runInspect(cmd.OutOrStdout(), filepath.Base(args[0]), data)
		},
	}
}

func runInspect(out io.Writer, name string, data []byte) error {
	result, err := ingestion.Parse(data)
	if err != nil {
		return err
	}

	columns := make(map[string]string, len(result.Columns))
	for field, col := range result.Columns {
		columns[string(field)] = col.Header
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(inspection{File: name, Columns: columns, Summary: result.Summary})
}

func newReportCmd() *cobra.Command {
	var format string
	var outDir string
	var username string

	cmd := &cobra.Command{
		Use:   "report [file.csv]",
		Short: "Render a report for a CSV file without a database",
		Long: `Ingest a CSV file into a throwaway in-memory store and render its report.

Example: chemviz-cli report plant.csv --format html --out ./reports`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			f, err := report.ParseFormat(format)
			if err != nil {
				return err
			}

			path, err := runReport(cmd.Context(), filepath.Base(args[0]), data, f, outDir, username)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", string(report.FormatXLSX), "Report format: xlsx, html or txt")
	cmd.Flags().StringVar(&outDir, "out", ".", "Directory to write the report into")
	cmd.Flags().StringVar(&username, "user", "cli", "Username printed on the report")

	return cmd
}

func runReport(ctx context.Context, name string, data []byte, format report.Format, outDir, username string) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := config.DefaultIngestConfig()
	logger := internal.NewLogger(internal.LogLevelError, os.Stderr)

	users := memory.NewUserRepository()
	owner := &models.User{Username: username}
	if err := users.CreateUser(ctx, owner); err != nil {
		return "", err
	}

	svc := app.NewEquipmentService(memory.NewDatasetRepository(cfg.MaxDatasets), users, cfg, logger, nil)
	ds, err := svc.Ingest(ctx, owner.ID, name, data)
	if err != nil {
		return "", err
	}

	doc, err := svc.RenderReport(ctx, owner.ID, ds.ID, format)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(outDir, doc.Filename)
	if err := os.WriteFile(path, doc.Body, 0o644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}
