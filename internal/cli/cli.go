package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/felixgeelhaar/covertask/internal/application"
	"github.com/felixgeelhaar/covertask/internal/infrastructure/config"
	"github.com/felixgeelhaar/covertask/internal/infrastructure/nyc"
	"github.com/felixgeelhaar/covertask/internal/infrastructure/paths"
	"github.com/felixgeelhaar/covertask/internal/infrastructure/project"
	"github.com/felixgeelhaar/covertask/internal/infrastructure/report"
	"github.com/felixgeelhaar/covertask/internal/infrastructure/store"
	"github.com/felixgeelhaar/covertask/internal/infrastructure/watcher"
	"github.com/felixgeelhaar/covertask/internal/infrastructure/wizard"
	"github.com/felixgeelhaar/covertask/internal/mcp"
	"github.com/felixgeelhaar/covertask/internal/pathutil"
)

// Service is the slice of the application layer the CLI drives.
type Service interface {
	Reset(ctx context.Context, opts application.ResetOptions) error
	Combine(ctx context.Context, payload []byte) error
	Report(ctx context.Context, opts application.ReportOptions) (string, error)
}

// ServiceFactory builds the coverage service for a loaded configuration.
type ServiceFactory func(cfg config.Config, out io.Writer) Service

var (
	initWizard = wizard.Run

	// serveTasks is swapped out in tests; the real server blocks on stdio.
	serveTasks = func(ctx context.Context, svc Service, st application.CoverageStore, cfg mcp.Config) error {
		return mcp.New(svc, st, cfg).Run(ctx)
	}
)

func Run(args []string, stdin io.Reader, stdout, stderr io.Writer, factory ServiceFactory) int {
	if len(args) < 2 {
		usage(stderr)
		return 2
	}

	// Project-local .env may carry npm proxy settings and the like.
	_ = godotenv.Load()

	ctx := context.Background()

	switch args[1] {
	case "reset":
		fs := flag.NewFlagSet("reset", flag.ExitOnError)
		configPath := fs.String("config", config.DefaultPath, "Config file path")
		interactive := fs.Bool("interactive", false, "Interactive run: clear accumulated coverage")
		_ = fs.Parse(args[2:])
		cfg, err := config.Loader{}.LoadOrDefault(*configPath)
		if err != nil {
			return exitCode(err, 2, stderr)
		}
		svc := factory(cfg, stdout)
		if err := svc.Reset(ctx, application.ResetOptions{Interactive: *interactive}); err != nil {
			return exitCode(err, 3, stderr)
		}
		if *interactive {
			fmt.Fprintln(stdout, "accumulated coverage cleared")
		} else {
			fmt.Fprintln(stdout, "headless run, previous coverage kept")
		}
		return 0
	case "combine":
		fs := flag.NewFlagSet("combine", flag.ExitOnError)
		configPath := fs.String("config", config.DefaultPath, "Config file path")
		payloadPath := fs.String("payload", "-", "Coverage payload file, - for stdin")
		_ = fs.Parse(args[2:])
		cfg, err := config.Loader{}.LoadOrDefault(*configPath)
		if err != nil {
			return exitCode(err, 2, stderr)
		}
		payload, err := readPayload(*payloadPath, stdin)
		if err != nil {
			return exitCode(err, 2, stderr)
		}
		svc := factory(cfg, stdout)
		if err := svc.Combine(ctx, payload); err != nil {
			return exitCode(err, 3, stderr)
		}
		fmt.Fprintf(stdout, "coverage merged into %s\n", cfg.Store)
		return 0
	case "report":
		fs := flag.NewFlagSet("report", flag.ExitOnError)
		configPath := fs.String("config", config.DefaultPath, "Config file path")
		reportDir := fs.String("report-dir", "", "Directory for the rendered report")
		scriptKey := fs.String("script-key", "", "package.json scripts key to prefer")
		script := fs.String("script", "", "Explicit report script, bypasses discovery")
		var reporters reporterFlags
		fs.Var(&reporters, "reporter", "Reporter name (repeatable)")
		_ = fs.Parse(args[2:])
		cfg, err := config.Loader{}.LoadOrDefault(*configPath)
		if err != nil {
			return exitCode(err, 2, stderr)
		}
		opts, err := reportOptions(cfg, *reportDir, *scriptKey, *script, reporters)
		if err != nil {
			return exitCode(err, 2, stderr)
		}
		svc := factory(cfg, stdout)
		dir, err := svc.Report(ctx, opts)
		if err != nil {
			return exitCode(err, 3, stderr)
		}
		if dir != "" {
			fmt.Fprintf(stdout, "report written to %s\n", dir)
		}
		return 0
	case "serve":
		fs := flag.NewFlagSet("serve", flag.ExitOnError)
		configPath := fs.String("config", config.DefaultPath, "Config file path")
		_ = fs.Parse(args[2:])
		cfg, err := config.Loader{}.LoadOrDefault(*configPath)
		if err != nil {
			return exitCode(err, 2, stderr)
		}
		svc := factory(cfg, stdout)
		err = serveTasks(ctx, svc, &store.FileStore{FilePath: cfg.Store}, mcp.Config{
			StorePath: cfg.Store,
			ReportDir: cfg.Report.Dir,
			ScriptKey: cfg.Report.ScriptKey,
		})
		return exitCode(err, 3, stderr)
	case "init":
		fs := flag.NewFlagSet("init", flag.ExitOnError)
		configPath := fs.String("config", config.DefaultPath, "Config file path")
		force := fs.Bool("force", false, "Overwrite existing config file")
		noInteractive := fs.Bool("no-interactive", false, "Skip the interactive init wizard")
		_ = fs.Parse(args[2:])
		cfg, err := config.Loader{}.LoadOrDefault(*configPath)
		if err != nil {
			return exitCode(err, 2, stderr)
		}
		if !*noInteractive {
			var confirmed bool
			cfg, confirmed, err = initWizard(cfg, stdout, stdin)
			if err != nil {
				return exitCode(err, 5, stderr)
			}
			if !confirmed {
				fmt.Fprintln(stdout, "Init cancelled; no configuration written.")
				return 0
			}
		}
		if err := writeConfigFile(*configPath, cfg, stdout, *force); err != nil {
			return exitCode(err, 2, stderr)
		}
		return 0
	case "watch":
		fs := flag.NewFlagSet("watch", flag.ExitOnError)
		configPath := fs.String("config", config.DefaultPath, "Config file path")
		debounce := fs.Duration("debounce", 500*time.Millisecond, "Delay before re-reporting after a change")
		_ = fs.Parse(args[2:])
		cfg, err := config.Loader{}.LoadOrDefault(*configPath)
		if err != nil {
			return exitCode(err, 2, stderr)
		}
		svc := factory(cfg, stdout)
		return runWatch(ctx, stdout, stderr, svc, cfg, *debounce)
	default:
		usage(stderr)
		return 2
	}
}

// BuildService wires the production dependencies for a configuration.
func BuildService(cfg config.Config, out io.Writer) Service {
	return &application.Service{
		Store:   &store.FileStore{FilePath: cfg.Store},
		Paths:   &paths.Fixer{},
		Project: project.Config{},
		Engine:  nyc.Engine{},
		Scripts: nyc.ScriptRunner{},
		Summary: report.Summary{},
		Out:     out,
	}
}

// reportOptions merges config defaults with command-line overrides and
// rejects destinations outside the project.
func reportOptions(cfg config.Config, reportDir, scriptKey, script string, reporters []string) (application.ReportOptions, error) {
	opts := application.ReportOptions{
		ReportDir: cfg.Report.Dir,
		Reporters: cfg.Report.Reporters,
		ScriptKey: cfg.Report.ScriptKey,
		Script:    script,
	}
	if reportDir != "" {
		opts.ReportDir = reportDir
	}
	if len(reporters) > 0 {
		opts.Reporters = reporters
	}
	if scriptKey != "" {
		opts.ScriptKey = scriptKey
	}
	if opts.ReportDir != "" && !pathutil.IsPathSafe(opts.ReportDir) {
		return application.ReportOptions{}, fmt.Errorf("unsafe report directory: %s", opts.ReportDir)
	}
	return opts, nil
}

func readPayload(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	// #nosec G304 -- Path is operator-supplied on the command line
	return os.ReadFile(path)
}

// reporterFlags implements flag.Value for repeatable --reporter flags
type reporterFlags []string

func (r *reporterFlags) String() string { return strings.Join(*r, ",") }

func (r *reporterFlags) Set(value string) error {
	*r = append(*r, value)
	return nil
}

func writeConfigFile(path string, cfg config.Config, stdout io.Writer, force bool) error {
	if path == "-" {
		return config.Write(stdout, cfg)
	}
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config %s already exists", path)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return config.Write(file, cfg)
}

func usage(w io.Writer) {
	fmt.Fprintln(w, `covertask <command>

Commands:
  reset    Clear accumulated coverage (interactive runs only)
  combine  Merge a spec's coverage payload into the store
  report   Render the accumulated coverage
  serve    Expose the coverage tasks to the test runner
  init     Write .covertask.yaml via the interactive wizard
  watch    Re-render the report whenever the store changes`)
}

func exitCode(err error, code int, stderr io.Writer) int {
	if err == nil {
		return 0
	}
	fmt.Fprintln(stderr, err)
	return code
}

func runWatch(ctx context.Context, stdout, stderr io.Writer, svc Service, cfg config.Config, debounce time.Duration) int {
	w, err := watcher.New(cfg.Store, watcher.WithDebounce(debounce))
	if err != nil {
		fmt.Fprintf(stderr, "failed to create watcher: %v\n", err)
		return 3
	}
	defer w.Close()

	// Handle Ctrl+C gracefully
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(stdout, "\nStopping watch mode...")
		cancel()
	}()

	fmt.Fprintf(stdout, "Watching %s for changes... (Ctrl+C to stop)\n\n", cfg.Store)

	opts := application.ReportOptions{
		ReportDir: cfg.Report.Dir,
		Reporters: cfg.Report.Reporters,
		ScriptKey: cfg.Report.ScriptKey,
	}

	runNumber := 0
	for range w.Events(ctx) {
		runNumber++
		fmt.Fprintf(stdout, "\n--- Report #%d at %s ---\n", runNumber, time.Now().Format("15:04:05"))
		if _, err := svc.Report(ctx, opts); err != nil {
			fmt.Fprintf(stderr, "report failed: %v\n", err)
		}
	}
	return 0
}
