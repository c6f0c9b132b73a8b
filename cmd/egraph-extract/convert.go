// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/egraph-extract/internal/egraph"
)

var convertCmd = &cobra.Command{
	Use:   "convert <graph>",
	Short: "Rewrite a graph as egraph-serialize YAML",
	Long: `Convert loads a graph in any supported form (egraph-serialize JSON or
YAML, the HCL layout, or an http(s) URL) and writes it back as
egraph-serialize YAML, keeping node order. Unextractable classes from an
HCL file are not part of the serialized format and are dropped.`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().StringP("output", "o", "", "output file (default: stdout)")

	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	client := &http.Client{Timeout: cfg.Fetch.Timeout}

	g, err := loadGraph(ctx, client, cfg, args[0])
	if err != nil {
		return err
	}

	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		return egraph.Encode(cmd.OutOrStdout(), g)
	}

	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("creating %s: %w", output, err)
	}
	if err := egraph.Encode(f, g); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "converted %s: %d nodes, %d classes -> %s\n",
		args[0], g.NodeCount(), g.ClassCount(), output)
	return nil
}
