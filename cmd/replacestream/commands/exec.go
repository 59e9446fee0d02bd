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
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/replacestream/pkg/config"
	"github.com/walteh/replacestream/pkg/stream"
	"gitlab.com/tozd/go/errors"
)

// NewExecCmd creates a new exec command
func NewExecCmd() *cobra.Command {
	var (
		rule      config.Rule
		chunkSize int
	)

	cmd := &cobra.Command{
		Use:   "exec",
		Short: "Stream stdin to stdout through a single rule",
		Example: `  cat index.html | replacestream exec --search '</head>' --replace '<script src="x.js"></script></head>'
  replacestream exec --regex --search '(\w+)@(\w+)\.com' --replace '$1 at $2' --template < mail.txt`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := zerolog.Ctx(cmd.Context()).With().Str("command", "exec").Logger()

			if rule.Name == "" {
				rule.Name = "exec"
			}
			if err := rule.Validate(); err != nil {
				return errors.Errorf("invalid rule: %w", err)
			}

			r, err := rule.Build()
			if err != nil {
				return err
			}

			n, err := io.Copy(cmd.OutOrStdout(), stream.NewReaderSize(cmd.InOrStdin(), r, chunkSize))
			if err != nil {
				return errors.Errorf("streaming: %w", err)
			}

			logger.Debug().Int64("bytes_out", n).Int("replacements", r.Count()).Msg("stream finished")
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&rule.Search, "search", "", "text or expression to search for")
	flags.StringVar(&rule.Replace, "replace", "", "replacement text")
	flags.BoolVar(&rule.Regex, "regex", false, "treat search as a regular expression")
	flags.StringVar(&rule.Dialect, "dialect", "", "regex dialect: re2 or ecmascript")
	flags.StringVar(&rule.Flags, "flags", "", "regex flags (g, i, m, s)")
	flags.BoolVar(&rule.CaseSensitive, "case-sensitive", false, "match literal text case-sensitively")
	flags.BoolVar(&rule.Template, "template", false, "expand $n group references in the replacement")
	flags.IntVar(&rule.Limit, "limit", 0, "maximum number of replacements, 0 for no limit")
	flags.IntVar(&rule.MaxMatchLength, "max-match-length", 0, "longest regex match to wait for before confirming")
	flags.IntVar(&chunkSize, "chunk-size", stream.DefaultChunkSize, "bytes read per chunk")
	_ = cmd.MarkFlagRequired("search")

	return cmd
}
