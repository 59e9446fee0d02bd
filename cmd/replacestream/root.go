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

package main

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/replacestream/cmd/replacestream/commands"
)

var (
	// Flags
	debugLogging bool
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "replacestream",
		Short: "Streaming search and replace",
		Long: `replacestream rewrites text as it streams through, holding back only the
bytes that could still turn into a match. Matches that straddle chunk
boundaries are replaced exactly as if the whole input had been read at once.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(cmd)
		},
	}

	// Add shared flags
	addRootFlags(rootCmd)

	// Add commands
	rootCmd.AddCommand(
		commands.NewRunCmd(),
		commands.NewExecCmd(),
		newVersionCmd(),
	)

	return rootCmd
}

// addRootFlags adds shared flags to the root command
func addRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().BoolVarP(&debugLogging, "debug", "d", false, "enable debug logging")
}

// setupLogging raises the context logger to debug when asked
func setupLogging(cmd *cobra.Command) {
	if !debugLogging {
		return
	}
	ctx := cmd.Context()
	logger := zerolog.Ctx(ctx).Level(zerolog.DebugLevel)
	cmd.SetContext(logger.WithContext(ctx))
}
