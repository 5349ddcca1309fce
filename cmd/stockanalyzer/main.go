package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stockanalyzer/internal/app"
	"github.com/ternarybob/stockanalyzer/internal/common"
)

// configPaths is a custom flag type that allows multiple -config flags
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	// Command-line flags
	configFiles  configPaths // Multiple -config flags supported
	baseDir      = flag.String("base-dir", "", "Artifact base directory (overrides config)")
	logLevel     = flag.String("log-level", "", "Log level: debug, info, warn, error (overrides config)")
	outputFormat = flag.String("format", "json", "Output format: json or yaml")
	showBanner   = flag.Bool("banner", false, "Print the banner before running")
	showVersion  = flag.Bool("version", false, "Print version information")
	showVersionV = flag.Bool("v", false, "Print version information (shorthand)")
)

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
	flag.Usage = usage
}

func usage() {
	out := flag.CommandLine.Output()
	fmt.Fprintf(out, "Usage: stockanalyzer [flags] <command> [arguments]\n\n")
	fmt.Fprintf(out, "Commands:\n")
	for _, cmd := range commands {
		fmt.Fprintf(out, "  %-12s %s\n", cmd.name, cmd.summary)
	}
	fmt.Fprintf(out, "\nFlags:\n")
	flag.PrintDefaults()
}

func main() {
	flag.Parse()

	if *showVersion || *showVersionV {
		fmt.Printf("Stock Analyzer version %s\n", common.GetFullVersion())
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(exitUsage)
	}

	cmd, ok := findCommand(args[0])
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", args[0])
		flag.Usage()
		os.Exit(exitUsage)
	}
	if cmd.name == "version" {
		fmt.Println(common.GetFullVersion())
		os.Exit(0)
	}

	renderer, err := newRenderer(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitUsage)
	}

	// Auto-discover config file if not specified
	if len(configFiles) == 0 {
		if _, err := os.Stat("stockanalyzer.toml"); err == nil {
			configFiles = append(configFiles, "stockanalyzer.toml")
		} else if _, err := os.Stat("deployments/local/stockanalyzer.toml"); err == nil {
			configFiles = append(configFiles, "deployments/local/stockanalyzer.toml")
		}
	}

	// Load configuration (defaults -> file1 -> file2 -> ... -> env -> CLI)
	config, err := common.LoadFromFiles(configFiles...)
	if err != nil {
		arbor.NewLogger().Fatal().Strs("paths", configFiles).Err(err).Msg("Failed to load configuration")
		os.Exit(exitFailure)
	}
	common.ApplyFlagOverrides(config, *baseDir, *logLevel)
	if err := config.Validate(); err != nil {
		arbor.NewLogger().Fatal().Err(err).Msg("Invalid configuration")
		os.Exit(exitFailure)
	}

	logger := common.SetupLogger(config)
	defer common.NewCrashReporter(config.Logging.Dir, os.Args).Recover()

	if *showBanner {
		common.PrintBanner()
	}

	logger.Debug().
		Strs("config_files", configFiles).
		Str("base_dir", config.Storage.BaseDir).
		Str("program", config.Runner.Program).
		Str("log_level", config.Logging.Level).
		Msg("Resolved configuration")

	application, err := app.New(config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize application")
		os.Exit(exitFailure)
	}

	// Interrupts cancel the request; running jobs are killed with their process group
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	code := run(ctx, application, cmd, args[1:], renderer, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
