// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Command scopeq searches a local file index with Windows Search SQL or
// keyword queries, restricted to one library root.
//
// Usage:
//
//	scopeq --lib <root> --search <keywords>   Keyword search under root
//	scopeq --lib <root> --query <sql>         SQL query under root
//	scopeq keywords --lib <root>              Distinct keywords under root
//	scopeq props <file>                       Show or set file properties
//	scopeq index <dir>                        Crawl a directory into the index
//	scopeq shell --lib <root>                 Interactive query shell
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	flag "github.com/spf13/pflag"

	"github.com/kraklabs/scopeq/internal/bootstrap"
	cerrors "github.com/kraklabs/scopeq/internal/errors"
	"github.com/kraklabs/scopeq/internal/ui"
	"github.com/kraklabs/scopeq/pkg/search"
	"github.com/kraklabs/scopeq/pkg/storage"
)

// Version information (set via ldflags during build)
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const usageSummary = `Usage: scopeq --lib <root> (--search <keywords> | --query <sql>) [options]
       scopeq <command> [options]
Run 'scopeq --help' for details.
`

const usageText = `scopeq - scoped search over the local file index

Usage:
  scopeq --lib <root> (--search <keywords> | --query <sql>) [options]
  scopeq <command> [options]

Commands:
  keywords    List the distinct keywords of items under --lib
  props       Show or set the properties of one file
  index       Crawl a directory into the index (index rm, index stat)
  shell       Interactive query shell scoped to --lib
  config      Show or save the effective configuration
  completion  Generate shell completion script (bash|zsh|fish)
  version     Show version information

Query Options:
  --lib <root>        Library root; results are limited to items under it
  --search <text>     Keyword query, e.g. 'report author:smith size:>1mb'
  --query <sql>       SELECT ... FROM SystemIndex [WHERE ...]
  --silent            Count rows without printing them
  --format <f>        csv (default), json or paths
  --out <file>        Write results to file instead of stdout

Global Options:
  --index <file>      Index file (default ~/.scopeq/index.db)
  --host <name>       UNC host served by the local index (repeatable)
  --timeout <d>       Statement timeout (default 600s)
  --metrics-file <f>  Write Prometheus metrics to f on exit
  --config <file>     Config file (default .scopeq/config.yaml, then ~/.scopeq/config.yaml)
  -v, --verbose       Debug logging and full error details
  --no-color          Disable colored output

Examples:
  scopeq index ~/Documents
  scopeq --lib ~/Documents --search report
  scopeq --lib ~/Documents --query "SELECT System.ItemName FROM SystemIndex WHERE System.Size > 1048576"
  scopeq --lib ~/Documents --search 'kind:pdf' --format paths
  scopeq props ~/Documents/report.pdf --set System.Title="Q3 report" --mode read-write

Environment Variables:
  SCOPEQ_INDEX    Index file
  SCOPEQ_TIMEOUT  Statement timeout
  SCOPEQ_HOST     Comma-separated UNC host names
  NO_COLOR        Disable colored output
`

// GlobalFlags holds the options every command accepts.
type GlobalFlags struct {
	ConfigPath  string
	Index       string
	Hosts       []string
	Timeout     time.Duration
	MetricsFile string
	Verbose     bool
	NoColor     bool

	// JSON reports errors as JSON; set by commands that print JSON.
	JSON bool
}

// usageError is a command-line mistake; it is reported with the usage
// summary.
type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

// cli carries the streams and settings of one invocation.
type cli struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	globals GlobalFlags
	cfg     *Config
	logger  *slog.Logger
}

type command func(ctx context.Context, c *cli, args []string) error

var commands map[string]command

func init() {
	commands = map[string]command{
		"keywords":   runKeywords,
		"props":      runProps,
		"index":      runIndex,
		"shell":      runShell,
		"config":     runConfig,
		"completion": runCompletion,
		"version":    runVersion,
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one invocation and returns the process exit code.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	c := &cli{stdin: stdin, stdout: stdout, stderr: stderr, logger: slog.New(slog.DiscardHandler)}

	cmd, rest := command(runQuery), args
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		found, ok := commands[args[0]]
		if !ok {
			fmt.Fprintf(stderr, "Unknown command: %s\n%s", args[0], usageSummary)
			return cerrors.ExitInput
		}
		cmd, rest = found, args[1:]
	}

	err := cmd(ctx, c, rest)
	c.writeMetrics()

	switch {
	case err == nil:
		return cerrors.ExitSuccess
	case errors.Is(err, flag.ErrHelp):
		return cerrors.ExitSuccess
	}

	var ue *usageError
	if errors.As(err, &ue) {
		fmt.Fprintf(stderr, "Error: %s\n%s", ue.msg, usageSummary)
		return cerrors.ExitInput
	}

	code := cerrors.Report(stderr, err, c.globals.JSON, c.globals.Verbose)
	if !c.globals.JSON && !c.globals.Verbose {
		fmt.Fprint(stderr, usageSummary)
	}
	return code
}

// flagSet returns a flag set carrying the global options.
func (c *cli) flagSet(name, usage string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	fs.SortFlags = false
	fs.Usage = func() {
		fmt.Fprint(c.stderr, usage)
	}

	g := &c.globals
	fs.StringVar(&g.ConfigPath, "config", "", "Config file")
	fs.StringVar(&g.Index, "index", "", "Index file")
	fs.StringSliceVar(&g.Hosts, "host", nil, "UNC host served by the local index")
	fs.DurationVar(&g.Timeout, "timeout", 0, "Statement timeout")
	fs.StringVar(&g.MetricsFile, "metrics-file", "", "Write Prometheus metrics to this file on exit")
	fs.BoolVarP(&g.Verbose, "verbose", "v", false, "Debug logging and full error details")
	fs.BoolVar(&g.NoColor, "no-color", false, "Disable colored output")
	return fs
}

// parse parses args, then loads the configuration and applies the flags
// that were set on top of it.
func (c *cli) parse(fs *flag.FlagSet, args []string) error {
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	cfg, err := LoadConfig(c.globals.ConfigPath)
	if err != nil {
		return cerrors.NewConfigError("Cannot load configuration", err.Error(),
			"Fix the YAML or pass --config with another file", err)
	}
	cfg.applyFlags(fs, c.globals)
	c.cfg = cfg

	ui.InitColors(cfg.NoColor)
	c.logger = newLogger(c.stderr, c.globals.Verbose)
	return nil
}

// parseFlags parses args without touching the configuration. Help requests
// pass through as flag.ErrHelp; anything else is a usage error.
func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return usagef("%v", err)
	}
	return nil
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// openIndex opens the configured index. create allows a missing file.
func (c *cli) openIndex(create bool) (*storage.EmbeddedBackend, error) {
	backend, err := bootstrap.OpenIndex(bootstrap.IndexConfig{
		Path:   c.cfg.Index,
		Hosts:  c.cfg.Hosts,
		Create: create,
	}, c.logger)
	if errors.Is(err, bootstrap.ErrIndexNotFound) {
		return nil, cerrors.NewNotFoundError("No index yet", err.Error(),
			"Build one with 'scopeq index <dir>' or pass --index")
	}
	return backend, err
}

// searchOptions builds session options. Progress lines go to stderr.
func (c *cli) searchOptions(progress search.Progress) search.Options {
	return search.Options{
		Timeout:  c.cfg.Timeout,
		Progress: progress,
		Logger:   c.logger,
	}
}

// writeMetrics exports the default registry when --metrics-file is set.
func (c *cli) writeMetrics() {
	if c.globals.MetricsFile == "" {
		return
	}
	if err := prometheus.WriteToTextfile(c.globals.MetricsFile, prometheus.DefaultGatherer); err != nil {
		ui.Warningf(c.stderr, "cannot write metrics: %v", err)
	}
}
