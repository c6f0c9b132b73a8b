// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/egraph-extract/internal/runstore"
	"github.com/pdiddy/egraph-extract/pkg/types"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect saved extraction runs (list, show, export, delete)",
	Long: `Runs reads the SQLite run store written by extract --save. Use
subcommands to list recent runs, show one run's choices, export a run
as YAML or JSON, or delete it.`,
}

// --- list subcommand ---

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved runs, newest first",
	Args:  cobra.NoArgs,
	RunE:  runRunsList,
}

func runRunsList(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.Runs(cmd.Context(), limit)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}
	writeRunList(cmd.OutOrStdout(), runs)
	return nil
}

func writeRunList(w io.Writer, runs []types.RunRecord) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs found.")
		return
	}

	fmt.Fprintf(w, "%-36s  %-20s  %-30s  %-9s  %6s  %8s  %s\n",
		"ID", "Created", "Source", "Model", "Rounds", "Resolved", "Root cost")
	fmt.Fprintln(w, strings.Repeat("-", 130))
	for _, r := range runs {
		rootCost := "-"
		if r.RootCost >= 0 {
			rootCost = fmt.Sprintf("%g", r.RootCost)
		}
		fmt.Fprintf(w, "%-36s  %-20s  %-30s  %-9s  %6d  %8s  %s\n",
			r.ID, r.CreatedAt.Local().Format("2006-01-02 15:04:05"), truncate(r.Source, 30),
			r.CostModel, r.Rounds, fmt.Sprintf("%d/%d", r.Resolved, r.Classes), rootCost)
	}
	fmt.Fprintf(w, "\n%d runs\n", len(runs))
}

// --- show subcommand ---

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one saved run and its choices",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsShow,
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	rec, err := store.Run(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	}

	report := &graphReport{
		Source:       rec.Source,
		RunID:        rec.ID,
		Nodes:        rec.Nodes,
		Classes:      rec.Classes,
		Resolved:     rec.Resolved,
		Rounds:       rec.Rounds,
		Improvements: rec.Improvements,
		RootCost:     rec.RootCost,
		Choices:      rec.Choices,
	}
	fmt.Fprintf(cmd.OutOrStdout(), "created %s  cost model %s  order %s\n",
		rec.CreatedAt.Local().Format("2006-01-02 15:04:05"), rec.CostModel, rec.Order)
	writeTable(cmd.OutOrStdout(), []*graphReport{report})
	return nil
}

// --- export subcommand ---

var runsExportCmd = &cobra.Command{
	Use:   "export <run-id>",
	Short: "Export one saved run to YAML or JSON",
	Long: `Export writes a run with all its choices to <dir>/<run-id>.yaml or
.json. The default directory is exports/ under the data directory.`,
	Args: cobra.ExactArgs(1),
	RunE: runRunsExport,
}

func runRunsExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	dir, _ := cmd.Flags().GetString("dir")

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	var path string
	switch format {
	case "yaml", "":
		path, err = store.ExportYAML(cmd.Context(), args[0], dir)
	case "json":
		path, err = store.ExportJSON(cmd.Context(), args[0], dir)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", path)
	return nil
}

// --- delete subcommand ---

var runsDeleteCmd = &cobra.Command{
	Use:   "delete <run-id>",
	Short: "Delete a saved run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
		return nil
	},
}

// --- shared helpers ---

func openStore() (*runstore.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return runstore.NewStore(cfg.Store)
}

func init() {
	runsListCmd.Flags().Int("limit", 20, "maximum runs to list (0 = all)")
	runsListCmd.Flags().Bool("json", false, "output runs as JSON")
	runsShowCmd.Flags().Bool("json", false, "output the run as JSON")
	runsExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	runsExportCmd.Flags().String("dir", "", "output directory (default: <data-dir>/exports)")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsExportCmd)
	runsCmd.AddCommand(runsDeleteCmd)

	rootCmd.AddCommand(runsCmd)
}
