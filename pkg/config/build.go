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

package config

import (
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/walteh/replacestream/pkg/replace"
	"github.com/walteh/replacestream/pkg/stream"
	"gitlab.com/tozd/go/errors"
)

// 🏭 Build creates a fresh replacer for one stream.
func (r *Rule) Build(opts ...stream.Option) (*stream.Replacer, error) {
	m, err := r.Matcher()
	if err != nil {
		return nil, errors.Errorf("building rule %s: %w", r.Name, err)
	}

	spec := replace.Literal(r.Replace)
	if r.Template {
		spec = replace.Template(r.Replace)
	}

	opts = append([]stream.Option{stream.WithLimit(r.Limit)}, opts...)
	return stream.New(m, spec, opts...), nil
}

// 🔍 Applies reports whether the rule should run for path.
func (r *Rule) Applies(path string) bool {
	if len(r.Files) == 0 {
		return true
	}
	return matchAny(r.Files, path)
}

// 🔍 Selects reports whether path is included and not excluded.
func (cfg *Config) Selects(path string) bool {
	return matchAny(cfg.Include, path) && !matchAny(cfg.Exclude, path)
}

func matchAny(globs []string, path string) bool {
	path = filepath.ToSlash(path)
	for _, glob := range globs {
		if ok, _ := doublestar.Match(glob, path); ok {
			return true
		}
	}
	return false
}

// 🔗 Pipeline is the chain of replacers built for one file.
type Pipeline struct {
	*stream.Chain

	Rules     []Rule
	Replacers []*stream.Replacer
}

// Counts returns the replacements made so far, keyed by rule name.
func (p *Pipeline) Counts() map[string]int {
	counts := make(map[string]int, len(p.Rules))
	for i, r := range p.Replacers {
		counts[p.Rules[i].Name] += r.Count()
	}
	return counts
}

// Total returns the replacements made so far across all rules.
func (p *Pipeline) Total() int {
	total := 0
	for _, r := range p.Replacers {
		total += r.Count()
	}
	return total
}

// 🏭 Pipeline builds the replacers of every rule that applies to path, in
// declaration order. opts is called per rule and may be nil.
func (cfg *Config) Pipeline(path string, opts func(Rule) []stream.Option) (*Pipeline, error) {
	p := &Pipeline{}
	transforms := make([]stream.Transform, 0, len(cfg.Rules))

	for _, rule := range cfg.Rules {
		if !rule.Applies(path) {
			continue
		}

		var extra []stream.Option
		if opts != nil {
			extra = opts(rule)
		}

		r, err := rule.Build(extra...)
		if err != nil {
			return nil, err
		}

		p.Rules = append(p.Rules, rule)
		p.Replacers = append(p.Replacers, r)
		transforms = append(transforms, r)
	}

	p.Chain = stream.NewChain(transforms...)
	return p, nil
}

// 🏭 Chain builds the chain of rules that apply to path.
func (cfg *Config) Chain(path string) (*stream.Chain, error) {
	p, err := cfg.Pipeline(path, nil)
	if err != nil {
		return nil, err
	}
	return p.Chain, nil
}
