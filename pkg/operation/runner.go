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

package operation

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"github.com/walteh/replacestream/pkg/config"
	"github.com/walteh/replacestream/pkg/log"
	"github.com/walteh/replacestream/pkg/metrics"
	"github.com/walteh/replacestream/pkg/stream"
	"github.com/zeebo/blake3"
	"gitlab.com/tozd/go/errors"
)

// 🔖 File statuses
const (
	StatusModified  = "modified"
	StatusUnchanged = "unchanged"
	StatusDryRun    = "dry run"
	StatusFailed    = "failed"
)

// 🔧 Options contains configuration for the runner
type Options struct {
	// Config holds the rules and file selection
	Config *config.Config
	// Root is the directory files are discovered in and relative to
	Root string
	// DryRun computes results without writing anything
	DryRun bool
	// Metrics is optional
	Metrics *metrics.Collector
	// Console is optional
	Console *log.Logger
}

// 📄 Result is the outcome of streaming one file
type Result struct {
	Path         string         // Path relative to the root
	Replacements int            // Total replacements across rules
	Counts       map[string]int // Replacements per rule
	Modified     bool           // Output differs from input
	BytesIn      int64
	BytesOut     int64
}

// Status returns the status label of the result.
func (r Result) Status(dryRun bool) string {
	switch {
	case r.Modified && dryRun:
		return StatusDryRun
	case r.Modified:
		return StatusModified
	default:
		return StatusUnchanged
	}
}

// 🏃 Runner streams files through the configured rules
type Runner struct {
	opts Options
}

// 🏗️ NewRunner creates a new runner
func NewRunner(opts Options) (*Runner, error) {
	if opts.Config == nil {
		return nil, errors.Errorf("config is required")
	}
	if opts.Root == "" {
		opts.Root = "."
	}
	return &Runner{opts: opts}, nil
}

// 🔍 Discover lists the files under the root selected by the config, sorted
func (r *Runner) Discover(ctx context.Context) ([]string, error) {
	logger := zerolog.Ctx(ctx)
	fsys := os.DirFS(r.opts.Root)

	seen := map[string]bool{}
	var files []string
	for _, include := range r.opts.Config.Include {
		matches, err := doublestar.Glob(fsys, include, doublestar.WithFilesOnly())
		if err != nil {
			return nil, errors.Errorf("globbing %q: %w", include, err)
		}
		for _, m := range matches {
			if seen[m] {
				continue
			}
			seen[m] = true
			if !r.opts.Config.Selects(m) {
				logger.Debug().Str("file", m).Msg("file excluded by pattern")
				continue
			}
			files = append(files, m)
		}
	}

	sort.Strings(files)
	logger.Debug().Int("files", len(files)).Str("root", r.opts.Root).Msg("discovered files")
	return files, nil
}

// 🏃 Run processes files, concurrently when the config asks for it
func (r *Runner) Run(ctx context.Context, files []string) ([]Result, error) {
	if r.opts.Config.Async {
		return r.runAsync(ctx, files)
	}
	return r.runSync(ctx, files)
}

// 🔄 runSync processes files one after the other
func (r *Runner) runSync(ctx context.Context, files []string) ([]Result, error) {
	results := make([]Result, 0, len(files))
	for _, file := range files {
		res, err := r.ProcessFile(ctx, file)
		if err != nil {
			return results, errors.Errorf("processing file %s: %w", file, err)
		}
		results = append(results, res)
	}
	return results, nil
}

// 📄 ProcessFile streams one file through the rules that apply to it and
// replaces it when the output differs
func (r *Runner) ProcessFile(ctx context.Context, file string) (res Result, err error) {
	logger := zerolog.Ctx(ctx).With().Str("file", file).Logger()
	res.Path = file

	defer func() {
		r.report(ctx, res, err)
	}()

	pipeline, err := r.opts.Config.Pipeline(file, r.observers)
	if err != nil {
		return res, err
	}

	path := filepath.Join(r.opts.Root, filepath.FromSlash(file))
	src, err := os.Open(path)
	if err != nil {
		return res, errors.Errorf("opening file: %w", err)
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return res, errors.Errorf("stat file: %w", err)
	}

	var dst io.Writer = io.Discard
	var tmp *os.File
	if !r.opts.DryRun {
		tmp, err = os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".replacestream-*")
		if err != nil {
			return res, errors.Errorf("creating temp file: %w", err)
		}
		defer func() {
			// a successful rename leaves nothing to remove
			tmp.Close()
			os.Remove(tmp.Name())
		}()
		dst = tmp
	}

	inHash, outHash := blake3.New(), blake3.New()
	in := &countingWriter{w: inHash}
	out := &countingWriter{w: io.MultiWriter(dst, outHash)}

	w := stream.NewWriter(out, pipeline)
	reader := io.TeeReader(&ctxReader{ctx: ctx, r: src}, in)
	if _, err := io.CopyBuffer(w, reader, make([]byte, r.chunkSize())); err != nil {
		return res, errors.Errorf("streaming file: %w", err)
	}
	if err := w.Close(); err != nil {
		return res, errors.Errorf("finalizing stream: %w", err)
	}

	res.BytesIn, res.BytesOut = in.n, out.n
	res.Counts = pipeline.Counts()
	res.Replacements = pipeline.Total()
	res.Modified = string(inHash.Sum(nil)) != string(outHash.Sum(nil))

	logger.Debug().
		Int("replacements", res.Replacements).
		Bool("modified", res.Modified).
		Msg("file streamed")

	if !res.Modified || r.opts.DryRun {
		return res, nil
	}

	if err := tmp.Chmod(info.Mode().Perm()); err != nil {
		return res, errors.Errorf("setting file mode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return res, errors.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return res, errors.Errorf("renaming temp file: %w", err)
	}

	return res, nil
}

func (r *Runner) chunkSize() int {
	if r.opts.Config.ChunkSize > 0 {
		return r.opts.Config.ChunkSize
	}
	return stream.DefaultChunkSize
}

func (r *Runner) observers(rule config.Rule) []stream.Option {
	if r.opts.Metrics == nil {
		return nil
	}
	return []stream.Option{stream.WithObserver(r.opts.Metrics.Observer(rule.Name))}
}

func (r *Runner) report(ctx context.Context, res Result, err error) {
	status := res.Status(r.opts.DryRun)
	if err != nil {
		status = StatusFailed
	}

	if r.opts.Metrics != nil {
		r.opts.Metrics.RecordFile(status, res.BytesIn, res.BytesOut)
	}
	if r.opts.Console != nil {
		r.opts.Console.LogFileResult(ctx, log.FileResult{
			Path:         res.Path,
			Status:       status,
			Modified:     res.Modified,
			DryRun:       r.opts.DryRun,
			Failed:       err != nil,
			Replacements: res.Replacements,
			BytesIn:      res.BytesIn,
			BytesOut:     res.BytesOut,
		})
	}
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// ctxReader stops reading once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
