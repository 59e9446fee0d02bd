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

package operation_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/replacestream/pkg/config"
	"github.com/walteh/replacestream/pkg/log"
	"github.com/walteh/replacestream/pkg/metrics"
	"github.com/walteh/replacestream/pkg/operation"
)

// 🧪 createTestEnv creates a test environment
func createTestEnv(t *testing.T, files map[string]string) (context.Context, string, *config.Config) {
	// Create temp dir
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}

	// Create config
	cfg := &config.Config{
		ChunkSize: 5,
		Include:   []string{"**/*.html", "**/*.txt"},
		Exclude:   []string{"vendor/**"},
		Rules: []config.Rule{
			{Name: "inject", Search: "</head>", Replace: "<script/></head>", Limit: 1, Files: []string{"**/*.html"}},
			{Name: "year", Search: `20\d\d`, Regex: true, Replace: "YEAR"},
		},
	}
	require.NoError(t, cfg.Validate())

	// Create logger
	logger := zerolog.New(zerolog.NewTestWriter(t))
	ctx := logger.WithContext(context.Background())

	return ctx, root, cfg
}

func readFile(t *testing.T, root, name string) string {
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(name)))
	require.NoError(t, err)
	return string(data)
}

func TestRunner_Discover(t *testing.T) {
	ctx, root, cfg := createTestEnv(t, map[string]string{
		"index.html":        "",
		"docs/notes.txt":    "",
		"docs/deep/a.html":  "",
		"main.go":           "",
		"vendor/lib/x.html": "",
		"docs/image.png":    "",
	})

	runner, err := operation.NewRunner(operation.Options{Config: cfg, Root: root})
	require.NoError(t, err)

	files, err := runner.Discover(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"docs/deep/a.html", "docs/notes.txt", "index.html"}, files)
}

func TestRunner_Run(t *testing.T) {
	for _, async := range []bool{false, true} {
		t.Run(map[bool]string{false: "sync", true: "async"}[async], func(t *testing.T) {
			ctx, root, cfg := createTestEnv(t, map[string]string{
				"index.html":     "<head><title>2024</title></head><body></head></body>",
				"docs/notes.txt": "written in 2023 and 2025",
				"docs/plain.txt": "nothing to see",
			})
			cfg.Async = async

			collector := metrics.NewCollector()
			runner, err := operation.NewRunner(operation.Options{Config: cfg, Root: root, Metrics: collector})
			require.NoError(t, err)

			files, err := runner.Discover(ctx)
			require.NoError(t, err)

			results, err := runner.Run(ctx, files)
			require.NoError(t, err)
			require.Len(t, results, 3)

			byPath := map[string]operation.Result{}
			for _, res := range results {
				byPath[res.Path] = res
			}

			assert.Equal(t, "<head><title>YEAR</title><script/></head><body></head></body>", readFile(t, root, "index.html"))
			assert.Equal(t, "written in YEAR and YEAR", readFile(t, root, "docs/notes.txt"))
			assert.Equal(t, "nothing to see", readFile(t, root, "docs/plain.txt"))

			assert.Equal(t, map[string]int{"inject": 1, "year": 1}, byPath["index.html"].Counts)
			assert.Equal(t, 2, byPath["docs/notes.txt"].Replacements)
			assert.True(t, byPath["docs/notes.txt"].Modified)
			assert.False(t, byPath["docs/plain.txt"].Modified)
			assert.Equal(t, int64(len("nothing to see")), byPath["docs/plain.txt"].BytesOut)

			snap, err := collector.Snapshot()
			require.NoError(t, err)
			assert.Equal(t, 2.0, snap[`replacestream_files_total{status="modified"}`])
			assert.Equal(t, 1.0, snap[`replacestream_files_total{status="unchanged"}`])
			assert.Equal(t, 3.0, snap[`replacestream_replacements_total{rule="year"}`])
		})
	}
}

func TestRunner_DryRun(t *testing.T) {
	ctx, root, cfg := createTestEnv(t, map[string]string{
		"a.txt": "since 1999 or 2001",
	})

	runner, err := operation.NewRunner(operation.Options{Config: cfg, Root: root, DryRun: true})
	require.NoError(t, err)

	results, err := runner.Run(ctx, []string{"a.txt"})
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.True(t, results[0].Modified)
	assert.Equal(t, operation.StatusDryRun, results[0].Status(true))
	assert.Equal(t, "since 1999 or 2001", readFile(t, root, "a.txt"), "dry run leaves the file alone")

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestRunner_KeepsModeAndCleansUp(t *testing.T) {
	ctx, root, cfg := createTestEnv(t, map[string]string{
		"run.txt": "#!/bin/sh\necho 2020\n",
	})
	require.NoError(t, os.Chmod(filepath.Join(root, "run.txt"), 0755))

	runner, err := operation.NewRunner(operation.Options{Config: cfg, Root: root})
	require.NoError(t, err)

	_, err = runner.Run(ctx, []string{"run.txt"})
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(root, "run.txt"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0755), info.Mode().Perm())
	assert.Equal(t, "#!/bin/sh\necho YEAR\n", readFile(t, root, "run.txt"))

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestRunner_MissingFile(t *testing.T) {
	ctx, root, cfg := createTestEnv(t, nil)

	color.NoColor = true
	defer func() { color.NoColor = false }()

	console := &bytes.Buffer{}
	runner, err := operation.NewRunner(operation.Options{
		Config:  cfg,
		Root:    root,
		Console: log.NewWithZerolog(console, zerolog.Nop()),
	})
	require.NoError(t, err)

	_, err = runner.Run(ctx, []string{"gone.txt"})
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, err.Error(), "gone.txt")
	assert.True(t, strings.HasPrefix(strings.TrimSpace(console.String()), "✗ gone.txt"))
}

func TestRunner_Cancelled(t *testing.T) {
	ctx, root, cfg := createTestEnv(t, map[string]string{
		"a.txt": "2020",
	})

	ctx, cancel := context.WithCancel(ctx)
	cancel()

	runner, err := operation.NewRunner(operation.Options{Config: cfg, Root: root})
	require.NoError(t, err)

	_, err = runner.Run(ctx, []string{"a.txt"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "2020", readFile(t, root, "a.txt"))
}

func TestNewRunner_RequiresConfig(t *testing.T) {
	_, err := operation.NewRunner(operation.Options{})
	require.Error(t, err)
}
