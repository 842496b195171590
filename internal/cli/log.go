// Package cli implements the phosphograph command-line interface.
//
// Commands attribute kinase-substrate networks (build), inspect them
// (neighbors, search, pick, networks), serve them over HTTP (serve) and
// manage the artifact cache (cache). The CLI is built on cobra; status
// output is styled with lipgloss and logs go through charmbracelet/log.
//
// # Commands
//
//   - build: Write json, dot, svg, pdf or png for a network
//   - neighbors: Table of the edges around one node
//   - search: Find nodes by name
//   - pick: Interactive node search
//   - networks: List the config catalog
//   - serve: HTTP API with /metrics
//   - cache: Clear or locate the artifact cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context to allow structured progress tracking.
//
// # Configuration
//
// Settings are read from $XDG_CONFIG_HOME/phosphograph/config.toml or the
// file named by --config. Flags override config values.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress logs how long a command stage took, e.g. "Built kinases (1.234s)".
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

func (p *progress) done(msg string, keyvals ...any) {
	p.logger.Info(msg+" ("+time.Since(p.start).Round(time.Millisecond).String()+")", keyvals...)
}

type ctxKey struct{}

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// loggerFromContext falls back to log.Default when no logger is attached,
// which happens when a subcommand is executed directly in tests.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
