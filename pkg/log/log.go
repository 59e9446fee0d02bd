// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
)

// 🎨 Display configuration
const (
	fileIndent  = 4  // spaces to indent file entries
	nameWidth   = 35 // Base width for filename
	countWidth  = 15 // Width for replacement count
	statusWidth = 15 // Width for status text
)

// 🎯 FileResult represents the outcome of streaming one file for logging
type FileResult struct {
	Path         string // File path
	Status       string // Operation status
	Modified     bool   // Whether the output differs from the input
	DryRun       bool   // Whether the write was skipped on purpose
	Failed       bool   // Whether processing failed
	Replacements int    // Number of replacements made
	BytesIn      int64  // Bytes read
	BytesOut     int64  // Bytes produced
}

// 📦 RunInfo describes a run over a set of files
type RunInfo struct {
	Root   string // Directory the run starts from
	Config string // Config file path
	Rules  int    // Number of rules
	DryRun bool   // Whether files are left untouched
}

// 📊 Summary totals a run
type Summary struct {
	Files        int
	Modified     int
	Failed       int
	Replacements int
}

// 🎯 Logger handles structured logging with console output
type Logger struct {
	zlog    zerolog.Logger
	console io.Writer
	mu      sync.Mutex
	run     *RunInfo
	results []FileResult
}

// 🏭 New creates a new logger
func New(console io.Writer, level zerolog.Level) *Logger {
	zlog := zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger().Level(level)
	return NewWithZerolog(console, zlog)
}

// 🏭 NewWithZerolog creates a logger that sends structured events to zlog
func NewWithZerolog(console io.Writer, zlog zerolog.Logger) *Logger {
	return &Logger{
		zlog:    zlog,
		console: console,
		mu:      sync.Mutex{},
	}
}

// 🔑 contextKey is the type for context values
type contextKey struct{}

// 🎯 FromContext gets the logger from context
func FromContext(ctx context.Context) *Logger {
	logger, ok := ctx.Value(contextKey{}).(*Logger)
	if !ok {
		panic("logger not found in context")
	}
	return logger
}

// 🎯 NewContext adds the logger to context
func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// 📝 formatFileResult formats a file result for display
func (l *Logger) formatFileResult(res FileResult) string {
	// Determine symbol and color
	var symbol rune
	var symbolColor color.Attribute
	switch {
	case res.Failed:
		symbol = '✗'
		symbolColor = color.FgRed
	case res.Modified && res.DryRun:
		symbol = '~'
		symbolColor = color.FgYellow
	case res.Modified:
		symbol = '⟳'
		symbolColor = color.FgBlue
	default:
		symbol = '•'
		symbolColor = color.FgCyan
	}

	countColor := color.Faint
	if res.Replacements > 0 {
		countColor = color.FgMagenta
	}

	// Build the line
	return fmt.Sprintf("%s%s %s %s %s",
		fmt.Sprintf("%*s", fileIndent, ""),
		color.New(symbolColor).Sprint(string(symbol)),
		fmt.Sprintf("%-*s", nameWidth, res.Path),
		color.New(countColor).Sprint(fmt.Sprintf("%-*s", countWidth, fmt.Sprintf("%d replaced", res.Replacements))),
		fmt.Sprintf("%-*s", statusWidth, res.Status))
}

// 📝 LogFileResult logs the outcome of one file
func (l *Logger) LogFileResult(ctx context.Context, res FileResult) {
	l.mu.Lock()
	defer l.mu.Unlock()

	// Add to results list
	l.results = append(l.results, res)

	// Format and print
	fmt.Fprintln(l.console, l.formatFileResult(res))

	// Log to zerolog
	event := l.zlog.Info()
	if res.Failed {
		event = l.zlog.Error()
	}
	event.
		Str("file", res.Path).
		Str("status", res.Status).
		Bool("modified", res.Modified).
		Bool("dry_run", res.DryRun).
		Int("replacements", res.Replacements).
		Int64("bytes_in", res.BytesIn).
		Int64("bytes_out", res.BytesOut).
		Msg("file processed")
}

// 📝 StartRun starts a new run
func (l *Logger) StartRun(ctx context.Context, info RunInfo) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.run = &info
	l.results = nil

	// Print run header
	fmt.Fprintf(l.console, "[streaming %s]\n",
		color.New(color.FgCyan).Sprint(info.Root))

	mode := "write"
	if info.DryRun {
		mode = "dry run"
	}
	fmt.Fprintf(l.console, "%s %s %s %s\n",
		color.New(color.FgMagenta).Sprint("◆"),
		color.New(color.Bold).Sprint(info.Config),
		color.New(color.Faint).Sprint("•"),
		color.New(color.FgYellow).Sprint(mode))

	// Log to zerolog
	l.zlog.Info().
		Str("root", info.Root).
		Str("config", info.Config).
		Int("rules", info.Rules).
		Bool("dry_run", info.DryRun).
		Msg("starting run")
}

// 📝 EndRun ends the current run and returns its totals
func (l *Logger) EndRun(ctx context.Context) Summary {
	l.mu.Lock()
	defer l.mu.Unlock()

	var sum Summary
	for _, res := range l.results {
		sum.Files++
		sum.Replacements += res.Replacements
		if res.Modified {
			sum.Modified++
		}
		if res.Failed {
			sum.Failed++
		}
	}

	if l.run != nil {
		// Log summary
		l.zlog.Info().
			Str("root", l.run.Root).
			Int("files", sum.Files).
			Int("modified", sum.Modified).
			Int("failed", sum.Failed).
			Int("replacements", sum.Replacements).
			Msg("run complete")
	}

	l.run = nil
	l.results = nil
	return sum
}

// 📝 LogNewline logs a newline
func (l *Logger) LogNewline() {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.console)
}

// 📝 Header logs a header
func (l *Logger) Header(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	name := color.New(color.Bold, color.FgCyan).Sprint("replacestream")
	fmt.Fprintf(l.console, "\n%s %s\n\n", name, color.New(color.Faint).Sprint("• "+msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Success logs a success message
func (l *Logger) Success(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "✅ %s\n", color.New(color.FgGreen).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Warning logs a warning message
func (l *Logger) Warning(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "⚠️  %s\n", color.New(color.FgYellow).Sprint(msg))
	l.zlog.Warn().Msg(msg)
}

// 📝 Error logs an error message
func (l *Logger) Error(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "❌ %s\n", color.New(color.FgRed).Sprint(msg))
	l.zlog.Error().Msg(msg)
}

// 📝 Info logs an info message
func (l *Logger) Info(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "ℹ️  %s\n", color.New(color.FgCyan).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Infof logs a formatted info message
func (l *Logger) Infof(format string, args ...interface{}) {
	l.Info(fmt.Sprintf(format, args...))
}

// 📝 Warningf logs a formatted warning message
func (l *Logger) Warningf(format string, args ...interface{}) {
	l.Warning(fmt.Sprintf(format, args...))
}

// 📝 Errorf logs a formatted error message
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.Error(fmt.Sprintf(format, args...))
}

// 📝 Successf logs a formatted success message
func (l *Logger) Successf(format string, args ...interface{}) {
	l.Success(fmt.Sprintf(format, args...))
}
