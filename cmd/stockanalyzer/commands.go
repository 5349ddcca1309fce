package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/ternarybob/stockanalyzer/internal/app"
	"github.com/ternarybob/stockanalyzer/internal/models"
	"github.com/ternarybob/stockanalyzer/internal/services/analysis"
)

// Exit codes.
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

// command is one CLI subcommand. exec returns the payload to render.
type command struct {
	name    string
	usage   string
	summary string
	exec    func(ctx context.Context, svc *analysis.Service, args []string) (*models.Payload, error)
}

var commands = []command{
	{
		name:    "analyze",
		usage:   "analyze <ticker>",
		summary: "Run the analysis and transcripts jobs for a ticker",
		exec: func(ctx context.Context, svc *analysis.Service, args []string) (*models.Payload, error) {
			return svc.RunPrimaryAnalysis(ctx, argAt(args, 0))
		},
	},
	{
		name:    "dcf",
		usage:   "dcf <ticker> -fcf-ps N -growth-rate N -terminal-multiple N -years N -cash N -debt N -shares N",
		summary: "Run a discounted cash flow valuation",
		exec: func(ctx context.Context, svc *analysis.Service, args []string) (*models.Payload, error) {
			ticker, form, err := parseDCFArgs(args)
			if err != nil {
				return nil, &usageError{err: err}
			}
			return svc.RunDCF(ctx, ticker, form)
		},
	},
	{
		name:    "summary",
		usage:   "summary <ticker> <year> <quarter>",
		summary: "Summarize the earnings call of one quarter",
		exec: func(ctx context.Context, svc *analysis.Service, args []string) (*models.Payload, error) {
			return svc.RunTranscriptSummary(ctx, argAt(args, 0), argAt(args, 1), argAt(args, 2))
		},
	},
	{
		name:    "reset",
		usage:   "reset <ticker>",
		summary: "Clear cached statements and recompute",
		exec: func(ctx context.Context, svc *analysis.Service, args []string) (*models.Payload, error) {
			return svc.ResetCache(ctx, argAt(args, 0))
		},
	},
	{
		name:    "cached",
		usage:   "cached <ticker>",
		summary: "Show cached metrics and transcripts without running jobs",
		exec: func(ctx context.Context, svc *analysis.Service, args []string) (*models.Payload, error) {
			return svc.Cached(ctx, argAt(args, 0))
		},
	},
	{
		name:    "version",
		usage:   "version",
		summary: "Print version information",
	},
}

func findCommand(name string) (command, bool) {
	for _, cmd := range commands {
		if cmd.name == name {
			return cmd, true
		}
	}
	return command{}, false
}

// usageError marks malformed command-line arguments.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }

func argAt(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

// parseDCFArgs reads the ticker and the raw DCF form. Values stay strings so
// that numeric validation happens in one place.
func parseDCFArgs(args []string) (string, models.DCFForm, error) {
	var form models.DCFForm

	fs := flag.NewFlagSet("dcf", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&form.FCFPerShare, "fcf-ps", "", "free cash flow per share")
	fs.StringVar(&form.GrowthRate, "growth-rate", "", "annual growth rate")
	fs.StringVar(&form.TerminalMultiple, "terminal-multiple", "", "terminal multiple")
	fs.StringVar(&form.Years, "years", "", "projection horizon in years")
	fs.StringVar(&form.Cash, "cash", "", "cash on hand")
	fs.StringVar(&form.Debt, "debt", "", "total debt")
	fs.StringVar(&form.Shares, "shares", "", "shares outstanding")

	ticker := ""
	if len(args) > 0 && len(args[0]) > 0 && args[0][0] != '-' {
		ticker, args = args[0], args[1:]
	}
	if err := fs.Parse(args); err != nil {
		return "", form, err
	}
	if ticker == "" {
		ticker = fs.Arg(0)
	}
	return ticker, form, nil
}

// run executes cmd and writes the payload or the failure. It returns the
// process exit code.
func run(ctx context.Context, application *app.App, cmd command, args []string, r renderer, stdout, stderr io.Writer) int {
	payload, err := cmd.exec(ctx, application.Analysis, args)
	if err != nil {
		return reportError(cmd, err, stderr)
	}

	if err := r.render(stdout, payload); err != nil {
		fmt.Fprintf(stderr, "failed to write output: %v\n", err)
		return exitFailure
	}
	for _, warning := range payload.Warnings {
		fmt.Fprintf(stderr, "warning: %s\n", warning)
	}
	return exitOK
}

func reportError(cmd command, err error, stderr io.Writer) int {
	if usageErr, ok := err.(*usageError); ok {
		fmt.Fprintf(stderr, "%v\nusage: stockanalyzer %s\n", usageErr, cmd.usage)
		return exitUsage
	}

	failure, ok := analysis.AsFailure(err)
	if !ok {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitFailure
	}

	fmt.Fprintf(stderr, "error: %s\n", failure.Message)
	if analysis.IsKind(err, analysis.FailureValidation) {
		fmt.Fprintf(stderr, "usage: stockanalyzer %s\n", cmd.usage)
		return exitUsage
	}
	return exitFailure
}
