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

package stream

import (
	"gitlab.com/tozd/go/errors"
)

// 🔗 Chain pipes the output of each transform into the next one.
// An empty chain passes text through unchanged.
type Chain struct {
	transforms []Transform
	closed     bool
}

var _ Transform = (*Chain)(nil)

// NewChain creates a chain that applies ts in order.
func NewChain(ts ...Transform) *Chain {
	return &Chain{transforms: ts}
}

// Len returns the number of transforms in the chain.
func (c *Chain) Len() int {
	return len(c.transforms)
}

// Process runs chunk through every transform in order.
func (c *Chain) Process(chunk string) (string, error) {
	if c.closed {
		return "", ErrClosed
	}
	for i, t := range c.transforms {
		out, err := t.Process(chunk)
		if err != nil {
			return "", errors.Errorf("transform %d: %w", i, err)
		}
		chunk = out
	}
	return chunk, nil
}

// Finalize flushes each transform in order. Whatever an earlier transform
// releases on finalize is still processed by the later ones before they
// are finalized themselves.
func (c *Chain) Finalize() (string, error) {
	if c.closed {
		return "", ErrClosed
	}
	c.closed = true

	pending := ""
	for i, t := range c.transforms {
		if pending != "" {
			out, err := t.Process(pending)
			if err != nil {
				return "", errors.Errorf("transform %d: %w", i, err)
			}
			pending = out
		}
		rest, err := t.Finalize()
		if err != nil {
			return "", errors.Errorf("finalizing transform %d: %w", i, err)
		}
		pending += rest
	}
	return pending, nil
}
