package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/meikuraledutech/graphplan"
	"github.com/meikuraledutech/graphplan/config"
	"github.com/meikuraledutech/graphplan/engine"
	"github.com/meikuraledutech/graphplan/logger"
	"github.com/meikuraledutech/graphplan/memory"
	"github.com/spf13/cobra"
)

// errPlanFailed is returned when execute rejects the plan; the result has
// already been printed.
var errPlanFailed = errors.New("plan failed")

type options struct {
	planPath     string
	snapshotPath string
	outPath      string
	seed         uint64
	logLevel     string
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "planctl",
		Short:         "Preview and execute graph mutation plans",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.planPath, "plan", "", "plan file (.json, .yaml or .yml)")
	root.PersistentFlags().StringVar(&opts.snapshotPath, "snapshot", "", "snapshot JSON file; empty graph if omitted")
	root.PersistentFlags().Uint64Var(&opts.seed, "seed", 0, "cluster layout seed (overrides LAYOUT_SEED)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (overrides LOG_LEVEL)")

	preview := &cobra.Command{
		Use:   "preview",
		Short: "Print the preview of a plan without changing anything",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPreview(cmd, opts)
		},
	}

	execute := &cobra.Command{
		Use:   "execute",
		Short: "Execute a plan and print the result",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExecute(cmd, opts)
		},
	}
	execute.Flags().StringVar(&opts.outPath, "out", "", "write the resulting snapshot here")

	root.AddCommand(preview, execute)
	return root
}

// setup loads the plan, the snapshot and an engine configured from the
// environment plus flags.
func setup(cmd *cobra.Command, opts *options) (*engine.Engine, *graphplan.MutationPlan, *graphplan.Snapshot, error) {
	if opts.planPath == "" {
		return nil, nil, nil, errors.New("--plan is required")
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	level := cfg.LogLevel
	if opts.logLevel != "" {
		level = opts.logLevel
	}
	seed := cfg.Layout.Seed
	if cmd.Flags().Changed("seed") {
		seed = opts.seed
	}
	log := logger.New(level, cfg.LogFormat, cmd.ErrOrStderr())

	plan, err := readPlan(opts.planPath)
	if err != nil {
		return nil, nil, nil, err
	}
	snap, err := readSnapshot(opts.snapshotPath)
	if err != nil {
		return nil, nil, nil, err
	}
	log.Debug("plan loaded",
		slog.String("plan", opts.planPath),
		slog.Int("ops", len(plan.Ops)),
		slog.Int("nodes", len(snap.Nodes)))

	e := engine.New(log,
		engine.WithSpacing(cfg.Layout.NodeSpacing, cfg.Layout.GridSpacing),
		engine.WithSeed(seed))
	return e, plan, snap, nil
}

func runPreview(cmd *cobra.Command, opts *options) error {
	e, plan, snap, err := setup(cmd, opts)
	if err != nil {
		return err
	}
	ps, err := e.Preview(plan, snap)
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), ps)
}

func runExecute(cmd *cobra.Command, opts *options) error {
	e, plan, snap, err := setup(cmd, opts)
	if err != nil {
		return err
	}
	ws := memory.FromSnapshot(snap)
	res := e.Execute(plan, ws, nil)
	if err := writeJSON(cmd.OutOrStdout(), res); err != nil {
		return err
	}
	if !res.Success {
		return fmt.Errorf("%w: %v", errPlanFailed, res.Error)
	}
	if opts.outPath == "" {
		return nil
	}
	f, err := os.Create(opts.outPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", opts.outPath, err)
	}
	defer f.Close()
	return writeJSON(f, ws.Snapshot())
}

func readPlan(path string) (*graphplan.MutationPlan, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open plan: %w", err)
	}
	defer f.Close()
	return graphplan.ReadPlan(f, graphplan.FormatFromPath(path))
}

func readSnapshot(path string) (*graphplan.Snapshot, error) {
	if path == "" {
		return graphplan.NewSnapshot(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	snap := graphplan.NewSnapshot()
	if err := json.Unmarshal(b, snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	for id, n := range snap.Nodes {
		if n == nil {
			return nil, fmt.Errorf("decode snapshot: node %q is null", id)
		}
	}
	for id, e := range snap.Edges {
		if e == nil {
			return nil, fmt.Errorf("decode snapshot: edge %q is null", id)
		}
	}
	if snap.Nodes == nil {
		snap.Nodes = make(map[string]*graphplan.Node)
	}
	if snap.Edges == nil {
		snap.Edges = make(map[string]*graphplan.Edge)
	}
	return snap, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
