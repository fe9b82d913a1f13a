package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/term"

	"uvmrun/events"
	"uvmrun/runner"
	"uvmrun/runner/storage"
)

const runUsage = `Usage: uvmrun [run] [flags]

Examples:
  uvmrun --test alu_test                       # Run default test
  uvmrun --test alu_test --gui                 # Run with GUI
  uvmrun --compile-only                        # Compile only
  uvmrun --test alu_test --no-compile          # Skip compilation
  uvmrun --test alu_test --seed 12345          # Custom seed
  uvmrun --test alu_test --coverage-report     # Collect coverage and write reports
  uvmrun --simulator verilator --test alu_test # Use Verilator
  uvmrun --clean                               # Clean work library and logs
  uvmrun --list                                # List available tests

Flags:
`

// RunOptions holds flags that do not belong to the run configuration
type RunOptions struct {
	List    bool
	RootSet bool
}

// ParseRunArgs parses the flags of the run command
func ParseRunArgs(args []string, output io.Writer) (runner.RawArgs, RunOptions, error) {
	raw := runner.DefaultRawArgs()
	var opts RunOptions

	fs := flag.NewFlagSet("uvmrun", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&raw.Test, "test", "", "UVM test name (default: the project's default test)")
	fs.Int64Var(&raw.Seed, "seed", 0, "Random seed (default: chosen by the simulator)")
	fs.BoolVar(&raw.GUI, "gui", false, "Run the simulator GUI (no timeout)")
	fs.BoolVar(&raw.CompileOnly, "compile-only", false, "Only compile, don't run simulation")
	fs.BoolVar(&raw.NoCompile, "no-compile", false, "Skip compilation (use existing work library)")
	fs.BoolVar(&raw.Clean, "clean", false, "Clean work library, logs and coverage")
	fs.IntVar(&raw.TimeoutSeconds, "timeout", raw.TimeoutSeconds, "Simulation timeout in seconds, 0 for none")
	fs.BoolVar(&raw.Coverage, "coverage", false, "Enable code coverage collection")
	fs.BoolVar(&raw.CoverageReport, "coverage-report", false, "Generate coverage report after simulation")
	fs.BoolVar(&opts.List, "list", false, "List available tests")
	fs.StringVar(&raw.Verbosity, "verbosity", raw.Verbosity, fmt.Sprintf("UVM verbosity %v", runner.Verbosities))
	fs.IntVar(&raw.Backpressure, "backpressure", raw.Backpressure, "Backpressure percentage 0-100")
	fs.BoolVar(&raw.NoBackpressure, "no-backpressure", false, "Disable random backpressure")
	fs.StringVar(&raw.Simulator, "simulator", raw.Simulator, fmt.Sprintf("Simulator backend %v", runner.Simulators))
	fs.StringVar(&raw.Root, "root", raw.Root, "Project root (default: nearest directory with "+runner.ManifestName+")")
	fs.BoolVar(&raw.NoHistory, "no-history", false, "Do not record this run in the history database")
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), runUsage)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return raw, opts, err
	}
	if fs.NArg() > 0 {
		return raw, opts, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "test":
			raw.TestSet = true
		case "seed":
			raw.SeedSet = true
		case "root":
			opts.RootSet = true
		}
	})

	return raw, opts, nil
}

// Run executes the 'run' command and returns the process exit code
func Run(args []string) int {
	raw, opts, err := ParseRunArgs(args, os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return runner.ExitOK
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		return runner.ExitFailure
	}

	if !opts.RootSet {
		raw.Root = runner.FindProjectRoot(raw.Root)
	}

	// A .env at the project root may point UVM_HOME at a local UVM install
	_ = godotenv.Load(filepath.Join(raw.Root, ".env"))

	manifest, err := runner.LoadManifest(filepath.Join(raw.Root, runner.ManifestName))
	if err != nil {
		if !opts.List {
			fmt.Fprintf(os.Stderr, "❌ %v\n", err)
			return runner.ExitFailure
		}
		log.Printf("⚠️  %v; listing the default tests", err)
		manifest = runner.DefaultManifest()
	}

	if opts.List {
		manifest.PrintTests(os.Stdout)
		return runner.ExitOK
	}

	cfg, err := runner.NewResolver(manifest).Resolve(raw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Configuration error: %v\n", err)
		return runner.ExitFailure
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	broker := events.NewBroker()
	plain := !term.IsTerminal(int(os.Stdout.Fd()))
	broker.Subscribe(runner.NewConsole(os.Stdout, plain).Handle)

	if cfg.History {
		store, err := openHistory(cfg.Layout.DataDir)
		if err != nil {
			log.Printf("⚠️  Run history unavailable: %v", err)
		} else {
			defer store.Close()
			broker.Subscribe(runner.NewHistory(store).Handle)
		}
	}

	orchestrator, err := runner.NewOrchestrator(cfg, broker)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		return runner.ExitFailure
	}

	summary := orchestrator.Run(ctx)
	return summary.ExitCode()
}

// openHistory opens the history database in dataDir, creating it if needed
func openHistory(dataDir string) (*storage.Storage, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return storage.NewStorage(filepath.Join(dataDir, "uvmrun.db"))
}
