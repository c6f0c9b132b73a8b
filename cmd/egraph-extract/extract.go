// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/egraph-extract/internal/egraph"
	"github.com/pdiddy/egraph-extract/internal/extract"
	"github.com/pdiddy/egraph-extract/internal/logging"
	"github.com/pdiddy/egraph-extract/internal/metrics"
	"github.com/pdiddy/egraph-extract/internal/runstore"
	"github.com/pdiddy/egraph-extract/pkg/types"
)

var extractCmd = &cobra.Command{
	Use:   "extract [graphs...]",
	Short: "Extract a cheap DAG selection from one or more e-graphs",
	Long: `Extract loads each graph (a file path or an http(s) URL), runs greedy
cost-set extraction to a fixpoint, verifies the selection is acyclic, and
prints the chosen node for every resolved class.

Graphs are processed concurrently up to --parallel; results are printed
in argument order. With --root, the root class's choice and DAG cost are
reported and a missing choice for that root fails the graph.`,
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().String("cost-model", "", "cost model: intrinsic, unit, or op")
	extractCmd.Flags().String("order", "", "node visit order: sorted or input")
	extractCmd.Flags().Int("max-rounds", 0, "fail after this many fixpoint rounds (0 = no cap)")
	extractCmd.Flags().StringSlice("unextractable-op", nil, "op that may never be chosen (repeatable)")
	extractCmd.Flags().StringSlice("unextractable-class", nil, "class that may never be chosen (repeatable)")
	extractCmd.Flags().Int("parallel", 0, "number of graphs extracted concurrently")
	extractCmd.Flags().String("root", "", "report the choice and DAG cost of this class")
	extractCmd.Flags().Bool("json", false, "output results as JSON")
	extractCmd.Flags().Bool("yaml", false, "output results as YAML")
	extractCmd.Flags().Bool("save", false, "record each successful run in the run store")
	extractCmd.Flags().String("metrics-file", "", "write Prometheus textfile metrics to this path")

	_ = viper.BindPFlag("extract.cost_model", extractCmd.Flags().Lookup("cost-model"))
	_ = viper.BindPFlag("extract.order", extractCmd.Flags().Lookup("order"))
	_ = viper.BindPFlag("extract.max_rounds", extractCmd.Flags().Lookup("max-rounds"))
	_ = viper.BindPFlag("extract.unextractable_ops", extractCmd.Flags().Lookup("unextractable-op"))
	_ = viper.BindPFlag("extract.unextractable_classes", extractCmd.Flags().Lookup("unextractable-class"))
	_ = viper.BindPFlag("batch.parallel", extractCmd.Flags().Lookup("parallel"))

	rootCmd.AddCommand(extractCmd)
}

// extractRequest holds the per-invocation settings that are not part of
// the persistent configuration.
type extractRequest struct {
	Root    types.ClassID
	Metrics *metrics.Recorder
}

// rootReport is the choice and DAG cost of a requested root class.
type rootReport struct {
	Class types.ClassID `json:"class" yaml:"class"`
	Node  types.NodeID  `json:"node" yaml:"node"`
	Cost  float64       `json:"cost" yaml:"cost"`
}

// graphReport is the outcome of extracting one graph.
type graphReport struct {
	Source       string         `json:"source" yaml:"source"`
	RunID        string         `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Nodes        int            `json:"nodes" yaml:"nodes"`
	Classes      int            `json:"classes" yaml:"classes"`
	Resolved     int            `json:"resolved" yaml:"resolved"`
	Rounds       int            `json:"rounds" yaml:"rounds"`
	Improvements int            `json:"improvements" yaml:"improvements"`
	RootCost     float64        `json:"root_cost" yaml:"root_cost"`
	Root         *rootReport    `json:"root,omitempty" yaml:"root,omitempty"`
	Choices      []types.Choice `json:"choices,omitempty" yaml:"choices,omitempty"`
	Error        string         `json:"error,omitempty" yaml:"error,omitempty"`

	outcome string
}

// Failed reports whether the graph did not load, extract, or resolve the
// requested root.
func (r *graphReport) Failed() bool {
	return r.Error != ""
}

func (r *graphReport) fail(outcome string, err error) {
	r.outcome = outcome
	r.Error = err.Error()
}

func runExtract(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide one or more graph files or URLs")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	jsonOut, _ := cmd.Flags().GetBool("json")
	yamlOut, _ := cmd.Flags().GetBool("yaml")
	if jsonOut && yamlOut {
		return fmt.Errorf("--json and --yaml are mutually exclusive")
	}
	save, _ := cmd.Flags().GetBool("save")
	metricsFile, _ := cmd.Flags().GetString("metrics-file")
	root, _ := cmd.Flags().GetString("root")

	req := extractRequest{Root: types.ClassID(root)}
	if metricsFile != "" {
		req.Metrics = metrics.New()
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	reports, err := extractAll(ctx, cfg, args, req, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	if save {
		if err := saveReports(ctx, cfg, reports); err != nil {
			return err
		}
	}

	if req.Metrics != nil {
		if err := req.Metrics.WriteTextfile(metricsFile); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	switch {
	case jsonOut:
		err = writeJSON(out, reports)
	case yamlOut:
		err = writeYAML(out, reports)
	default:
		writeTable(out, reports)
	}
	if err != nil {
		return err
	}

	failed := 0
	for _, r := range reports {
		if r.Failed() {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d graph(s) failed extraction", failed)
	}
	return nil
}

// extractAll processes sources with at most cfg.Batch.Parallel graphs in
// flight. Per-graph failures are recorded in the reports; only
// cancellation of ctx is returned as an error.
func extractAll(ctx context.Context, cfg types.Config, sources []string, req extractRequest, status io.Writer) ([]*graphReport, error) {
	client := &http.Client{Timeout: cfg.Fetch.Timeout}
	reports := make([]*graphReport, len(sources))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.Batch.Parallel, 1))

	for i, src := range sources {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			reports[i] = extractOne(ctx, client, cfg, src, req)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, r := range reports {
		if r.Failed() {
			fmt.Fprintf(status, "failed %s: %s\n", r.Source, r.Error)
			continue
		}
		fmt.Fprintf(status, "extracted %s: %d/%d classes in %d rounds\n",
			r.Source, r.Resolved, r.Classes, r.Rounds)
	}
	return reports, nil
}

// extractOne loads, extracts and verifies a single graph.
func extractOne(ctx context.Context, client *http.Client, cfg types.Config, src string, req extractRequest) *graphReport {
	report := &graphReport{Source: src, RootCost: -1}
	logger := logging.New("cli").With(slog.String("source", src))

	g, err := loadGraph(ctx, client, cfg, src)
	if err != nil {
		report.fail(metrics.OutcomeLoadError, err)
		logger.Warn("loading graph failed", "error", err)
		if req.Metrics != nil {
			req.Metrics.Failed(report.outcome)
		}
		return report
	}
	for _, op := range cfg.Extract.UnextractableOps {
		g.MarkUnextractableOp(op)
	}
	for _, c := range cfg.Extract.UnextractableClasses {
		g.MarkUnextractable(types.ClassID(c))
	}
	report.Nodes, report.Classes = g.NodeCount(), g.ClassCount()

	cost, err := extract.CostFuncFor(cfg.Extract)
	if err != nil {
		report.fail(metrics.OutcomeError, err)
		if req.Metrics != nil {
			req.Metrics.Failed(report.outcome)
		}
		return report
	}

	ex := extract.New(extract.Options{
		Cost:      cost,
		Order:     cfg.Extract.Order,
		MaxRounds: cfg.Extract.MaxRounds,
		Logger:    logging.New("extract").With(slog.String("source", src)),
	})

	start := time.Now()
	res, err := ex.Extract(g)
	if err == nil {
		err = res.Verify(g)
	}
	if err != nil {
		report.fail(metrics.OutcomeError, err)
		logger.Warn("extraction failed", "error", err)
		if req.Metrics != nil {
			req.Metrics.Failed(report.outcome)
		}
		return report
	}
	elapsed := time.Since(start)

	report.Resolved = res.Len()
	report.Rounds, report.Improvements = res.Rounds, res.Improvements
	report.Choices = res.Choices(g)
	if roots := g.Roots(); len(roots) > 0 {
		if c, err := res.DagCost(g, cost, roots...); err == nil {
			report.RootCost = c
		}
	}
	report.outcome = metrics.OutcomeOK

	if req.Root != "" {
		if err := reportRoot(report, g, res, cost, req.Root); err != nil {
			report.fail(metrics.OutcomeUnresolved, err)
		}
	}

	if req.Metrics != nil {
		req.Metrics.Completed(report.outcome, src, report.Rounds, report.Classes-report.Resolved, elapsed)
	}
	return report
}

func reportRoot(report *graphReport, g *egraph.Graph, res *extract.Result, cost extract.CostFunc, root types.ClassID) error {
	id, ok := res.Choice(root)
	if !ok {
		return fmt.Errorf("root class %q: %w", root, extract.ErrUnresolved)
	}
	dag, err := res.DagCost(g, cost, root)
	if err != nil {
		return fmt.Errorf("root class %q: %w", root, err)
	}
	report.Root = &rootReport{Class: root, Node: id, Cost: dag}
	return nil
}

func loadGraph(ctx context.Context, client *http.Client, cfg types.Config, src string) (*egraph.Graph, error) {
	opts := egraph.LoadOptions{CostVars: cfg.Extract.OpCosts}
	if egraph.IsURL(src) {
		return egraph.Fetch(ctx, client, src, cfg.Fetch, opts)
	}
	return egraph.LoadFile(src, opts)
}

// saveReports records every successful report in the run store, in
// argument order, and sets its RunID.
func saveReports(ctx context.Context, cfg types.Config, reports []*graphReport) error {
	store, err := runstore.NewStore(cfg.Store)
	if err != nil {
		return err
	}
	defer store.Close()

	for _, r := range reports {
		if r.Failed() {
			continue
		}
		id, err := store.SaveRun(ctx, runRecord(cfg, r))
		if err != nil {
			return fmt.Errorf("saving run for %s: %w", r.Source, err)
		}
		r.RunID = id
	}
	return nil
}

func runRecord(cfg types.Config, r *graphReport) types.RunRecord {
	model := cfg.Extract.CostModel
	if model == "" {
		model = types.CostIntrinsic
	}
	order := cfg.Extract.Order
	if order == "" {
		order = types.OrderSorted
	}
	return types.RunRecord{
		Source:       r.Source,
		CostModel:    model,
		Order:        order,
		Rounds:       r.Rounds,
		Improvements: r.Improvements,
		Nodes:        r.Nodes,
		Classes:      r.Classes,
		Resolved:     r.Resolved,
		RootCost:     r.RootCost,
		Choices:      r.Choices,
	}
}

func writeJSON(w io.Writer, reports []*graphReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(reports)
}

func writeYAML(w io.Writer, reports []*graphReport) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(reports); err != nil {
		return err
	}
	return enc.Close()
}

func writeTable(w io.Writer, reports []*graphReport) {
	for i, r := range reports {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s\n", r.Source)
		if r.Failed() {
			fmt.Fprintf(w, "  error: %s\n", r.Error)
			continue
		}
		fmt.Fprintf(w, "  nodes %d  classes %d  resolved %d  rounds %d  improvements %d\n",
			r.Nodes, r.Classes, r.Resolved, r.Rounds, r.Improvements)
		if r.RootCost >= 0 {
			fmt.Fprintf(w, "  root cost %g\n", r.RootCost)
		}
		if r.Root != nil {
			fmt.Fprintf(w, "  root %s -> %s (dag cost %g)\n", r.Root.Class, r.Root.Node, r.Root.Cost)
		}
		if r.RunID != "" {
			fmt.Fprintf(w, "  run %s\n", r.RunID)
		}
		if len(r.Choices) == 0 {
			continue
		}

		fmt.Fprintf(w, "  %-20s  %-24s  %-16s  %s\n", "Class", "Node", "Op", "Total")
		fmt.Fprintf(w, "  %s\n", strings.Repeat("-", 72))
		for _, c := range r.Choices {
			fmt.Fprintf(w, "  %-20s  %-24s  %-16s  %g\n", truncate(string(c.Class), 20), truncate(string(c.Node), 24), truncate(c.Op, 16), c.Total)
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
