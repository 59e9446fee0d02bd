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
	"runtime"

	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
)

// ⚡ runAsync processes files concurrently. Every file gets its own
// pipeline, so nothing is shared between goroutines except the reporters.
// The first failure cancels the remaining files.
func (r *Runner) runAsync(ctx context.Context, files []string) ([]Result, error) {
	results := make([]Result, len(files))
	done := make([]bool, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, file := range files {
		g.Go(func() error {
			res, err := r.ProcessFile(gctx, file)
			if err != nil {
				return errors.Errorf("processing file %s: %w", file, err)
			}
			results[i] = res
			done[i] = true
			return nil
		})
	}

	err := g.Wait()

	// keep input order and drop files that never finished
	out := make([]Result, 0, len(files))
	for i := range files {
		if done[i] {
			out = append(out, results[i])
		}
	}
	return out, err
}
