package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"synaptrace/internal/storage"
	"synaptrace/internal/tensor"
	api "synaptrace/pkg/synaptrace"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "trace":
		return runTrace(ctx, args[1:])
	case "shapes":
		return runShapes(ctx, args[1:])
	case "show":
		return runShow(ctx, args[1:])
	case "list":
		return runList(ctx, args[1:])
	case "summary":
		return runSummary(ctx, args[1:])
	case "compose":
		return runCompose(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: synaptracectl <trace|shapes|show|list|summary|compose> [flags]", msg)
}

// storeFlags are shared by every subcommand that opens a store. Flag values
// win over profile values, which win over defaults.
type storeFlags struct {
	profilePath *string
	storeKind   *string
	dbPath      *string
	workers     *int
	logLevel    *string
}

func addStoreFlags(fs *flag.FlagSet) storeFlags {
	return storeFlags{
		profilePath: fs.String("profile", "", "optional TOML profile path"),
		storeKind:   fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite"),
		dbPath:      fs.String("db-path", "synaptrace.db", "sqlite database path"),
		workers:     fs.Int("workers", 1, "probe parallelism"),
		logLevel:    fs.String("log-level", "warn", "log level: debug|info|warn|error"),
	}
}

func newClient(fs *flag.FlagSet, flags storeFlags) (*api.Client, error) {
	profile, err := loadProfile(*flags.profilePath)
	if err != nil {
		return nil, err
	}
	resolved := resolveProfile(profile, fs, flags)

	log, err := newLogger(resolved.LogLevel)
	if err != nil {
		return nil, err
	}

	client, err := api.New(api.Options{
		StoreKind: resolved.Store,
		DBPath:    resolved.DBPath,
		Workers:   resolved.Workers,
		Logger:    log,
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

func newLogger(level string) (*zap.Logger, error) {
	parsed, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = parsed
	return cfg.Build()
}

func runTrace(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("trace", flag.ContinueOnError)
	chainPath := fs.String("chain", "", "chain spec file (.json or .yaml)")
	shapeArg := fs.String("shape", "", "input shape, e.g. 6 or 2x3 (optional when the first stage fixes its width)")
	jsonOut := fs.Bool("json", false, "emit the full connectivity result as JSON")
	flags := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *chainPath == "" {
		return errors.New("trace requires --chain")
	}

	spec, err := loadChainSpec(*chainPath)
	if err != nil {
		return err
	}
	var shape tensor.Shape
	if *shapeArg != "" {
		shape, err = parseShape(*shapeArg)
		if err != nil {
			return err
		}
	}

	client, err := newClient(fs, flags)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	if err := client.Init(ctx); err != nil {
		return err
	}

	result, err := client.Trace(ctx, api.TraceRequest{Chain: spec, InputShape: shape})
	if err != nil {
		return err
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Printf("trace_id=%s fingerprint=%s stages=%d cache_hit=%t\n",
		result.TraceID, result.Fingerprint, len(result.Stages), result.CacheHit)
	for i, stage := range result.Stages {
		fmt.Printf("stage=%d name=%s in=%s out=%s\n", i, stage.Stage, stage.Input, stage.Output)
		for _, row := range stage.Rows {
			fmt.Printf("  %s -> %s\n", row.From.Key(), formatCoordinates(row.To))
		}
	}
	return nil
}

func runShapes(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("shapes", flag.ContinueOnError)
	chainPath := fs.String("chain", "", "chain spec file (.json or .yaml)")
	shapeArg := fs.String("shape", "", "input shape, e.g. 6 or 2x3")
	flags := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *chainPath == "" {
		return errors.New("shapes requires --chain")
	}

	spec, err := loadChainSpec(*chainPath)
	if err != nil {
		return err
	}
	var shape tensor.Shape
	if *shapeArg != "" {
		shape, err = parseShape(*shapeArg)
		if err != nil {
			return err
		}
	}

	client, err := newClient(fs, flags)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	shapes, err := client.ProbeShapes(ctx, spec, shape)
	if err != nil {
		return err
	}
	fmt.Printf("input=%s\n", shapes[0])
	for i, s := range shapes[1:] {
		fmt.Printf("stage=%d out=%s\n", i, s)
	}
	return nil
}

func runShow(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	traceID := fs.String("trace-id", "", "trace id")
	jsonOut := fs.Bool("json", false, "emit the stored record as JSON")
	flags := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *traceID == "" {
		return errors.New("show requires --trace-id")
	}

	client, err := newClient(fs, flags)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	if err := client.Init(ctx); err != nil {
		return err
	}

	record, ok, err := client.Get(ctx, *traceID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("trace %s not found", *traceID)
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(record)
	}

	fmt.Printf("trace_id=%s created_at=%s chain=%s fingerprint=%s workers=%d\n",
		record.ID, record.CreatedAtUTC, record.Chain.Name, record.Fingerprint, record.Workers)
	for i, stage := range record.Stages {
		fmt.Printf("stage=%d name=%s in=%s out=%s rows=%d\n",
			i, stage.Stage, stage.Input, stage.Output, len(stage.Rows))
	}
	return nil
}

func runList(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "max traces to list (<=0 for all)")
	jsonOut := fs.Bool("json", false, "emit the trace list as JSON")
	flags := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(fs, flags)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	if err := client.Init(ctx); err != nil {
		return err
	}

	items, err := client.List(ctx, *limit)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Println("no traces found")
		return nil
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	}

	for _, item := range items {
		fmt.Printf("trace_id=%s created_at=%s chain=%s fingerprint=%s stages=%d\n",
			item.TraceID, item.CreatedAtUTC, item.Name, item.Fingerprint, item.Stages)
	}
	return nil
}

func runSummary(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("summary", flag.ContinueOnError)
	traceID := fs.String("trace-id", "", "trace id")
	jsonOut := fs.Bool("json", false, "emit the summary as JSON")
	flags := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *traceID == "" {
		return errors.New("summary requires --trace-id")
	}

	client, err := newClient(fs, flags)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	if err := client.Init(ctx); err != nil {
		return err
	}

	summary, err := client.Summary(ctx, *traceID)
	if err != nil {
		return err
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}

	for _, s := range summary.Stages {
		fmt.Printf("stage=%s inputs=%d outputs=%d mean_fanout=%.4f std_fanout=%.4f min=%d max=%d disconnected=%d unreached=%d\n",
			s.Stage, s.Inputs, s.Outputs, s.MeanFanOut, s.StdFanOut, s.MinFanOut, s.MaxFanOut,
			s.DisconnectedInputs, s.UnreachedOutputs)
	}
	return nil
}

func runCompose(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("compose", flag.ContinueOnError)
	traceID := fs.String("trace-id", "", "trace id")
	stage := fs.Int("stage", 0, "first stage index of the pair to combine")
	jsonOut := fs.Bool("json", false, "emit the combined stage as JSON")
	flags := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *traceID == "" {
		return errors.New("compose requires --trace-id")
	}

	client, err := newClient(fs, flags)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	if err := client.Init(ctx); err != nil {
		return err
	}

	combined, err := client.ComposeStages(ctx, *traceID, *stage)
	if err != nil {
		return err
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(combined)
	}

	fmt.Printf("name=%s in=%s out=%s\n", combined.Stage, combined.Input, combined.Output)
	for _, row := range combined.Rows {
		fmt.Printf("  %s -> %s\n", row.From.Key(), formatCoordinates(row.To))
	}
	return nil
}

func formatCoordinates(coords []tensor.Coordinate) string {
	if len(coords) == 0 {
		return "(none)"
	}
	parts := make([]string, 0, len(coords))
	for _, c := range coords {
		parts = append(parts, "("+c.Key()+")")
	}
	return strings.Join(parts, " ")
}
