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

package commands

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/replacestream/pkg/config"
	"github.com/walteh/replacestream/pkg/log"
	"github.com/walteh/replacestream/pkg/metrics"
	"github.com/walteh/replacestream/pkg/operation"
	"gitlab.com/tozd/go/errors"
)

// NewRunCmd creates a new run command
func NewRunCmd() *cobra.Command {
	var (
		configFile  string
		dryRun      bool
		async       bool
		showMetrics bool
	)

	cmd := &cobra.Command{
		Use:   "run [root]",
		Short: "Apply a rule file to every selected file under root",
		Long: `Run loads the rule file and streams every selected file through its rules.
It will:
1. Discover files under root using the include and exclude globs
2. Stream each file through the rules that apply to it
3. Replace files whose content changed
4. Print a summary`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := zerolog.Ctx(cmd.Context()).With().Str("command", "run").Logger().WithContext(cmd.Context())

			root := "."
			if len(args) == 1 {
				root = args[0]
			}

			// Load config
			cfg, err := config.Load(ctx, configFile)
			if err != nil {
				return errors.Errorf("loading config: %w", err)
			}
			if async {
				cfg.Async = true
			}

			console := log.NewWithZerolog(cmd.OutOrStdout(), *zerolog.Ctx(ctx))
			collector := metrics.NewCollector()

			runner, err := operation.NewRunner(operation.Options{
				Config:  cfg,
				Root:    root,
				DryRun:  dryRun,
				Metrics: collector,
				Console: console,
			})
			if err != nil {
				return errors.Errorf("creating runner: %w", err)
			}

			files, err := runner.Discover(ctx)
			if err != nil {
				return errors.Errorf("discovering files: %w", err)
			}

			abs, _ := filepath.Abs(root)
			console.StartRun(ctx, log.RunInfo{Root: abs, Config: configFile, Rules: len(cfg.Rules), DryRun: dryRun})

			results, runErr := runner.Run(ctx, files)
			sum := console.EndRun(ctx)

			if err := renderResults(cmd.OutOrStdout(), results, dryRun); err != nil {
				return err
			}
			if showMetrics {
				if err := renderMetrics(cmd.OutOrStdout(), collector); err != nil {
					return err
				}
			}

			if runErr != nil {
				return errors.Errorf("running rules: %w", runErr)
			}

			console.Successf("%d files, %d modified, %d replacements", sum.Files, sum.Modified, sum.Replacements)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "replacestream.yaml", "rule file (.yaml, .hcl, .json, .jsonc)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report changes without writing files")
	cmd.Flags().BoolVar(&async, "async", false, "process files concurrently")
	cmd.Flags().BoolVar(&showMetrics, "metrics", false, "print collected metrics")

	return cmd
}

// renderResults prints one row per file that had replacements
func renderResults(w io.Writer, results []operation.Result, dryRun bool) error {
	data := pterm.TableData{{"File", "Replacements", "Status", "Bytes"}}
	for _, res := range results {
		if res.Replacements == 0 {
			continue
		}
		data = append(data, []string{
			res.Path,
			fmt.Sprint(res.Replacements),
			res.Status(dryRun),
			fmt.Sprintf("%d -> %d", res.BytesIn, res.BytesOut),
		})
	}
	if len(data) == 1 {
		return nil
	}

	out, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return errors.Errorf("rendering results: %w", err)
	}
	_, err = fmt.Fprintln(w, out)
	return err
}

// renderMetrics prints the collector snapshot sorted by name
func renderMetrics(w io.Writer, c *metrics.Collector) error {
	snap, err := c.Snapshot()
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(snap))
	for k := range snap {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	data := pterm.TableData{{"Metric", "Value"}}
	for _, k := range keys {
		data = append(data, []string{k, fmt.Sprint(snap[k])})
	}

	out, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return errors.Errorf("rendering metrics: %w", err)
	}
	_, err = fmt.Fprintln(w, out)
	return err
}
