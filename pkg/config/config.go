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
	"context"
	"fmt"
	"os"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"github.com/walteh/replacestream/pkg/pattern"
	"github.com/walteh/replacestream/pkg/stream"
	"gitlab.com/tozd/go/errors"
)

// 🔌 Parser is the interface for config parsers
type Parser interface {
	// 📝 Parse parses the config from bytes
	Parse(ctx context.Context, data []byte) (*Config, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// 🔄 Rule is one search and replace applied to a stream
type Rule struct {
	Name           string   `json:"name,omitempty" yaml:"name,omitempty" hcl:"name,label"`
	Search         string   `json:"search" yaml:"search" hcl:"search"`                                                      // Literal text or regular expression
	Regex          bool     `json:"regex,omitempty" yaml:"regex,omitempty" hcl:"regex,optional"`                            // Treat Search as a regular expression
	Dialect        string   `json:"dialect,omitempty" yaml:"dialect,omitempty" hcl:"dialect,optional"`                      // re2 (default) or ecmascript
	Flags          string   `json:"flags,omitempty" yaml:"flags,omitempty" hcl:"flags,optional"`                            // Regex flags: g, i, m, s
	CaseSensitive  bool     `json:"case_sensitive,omitempty" yaml:"case_sensitive,omitempty" hcl:"case_sensitive,optional"` // Literal searches only
	Replace        string   `json:"replace" yaml:"replace" hcl:"replace,optional"`                                          // Replacement text
	Template       bool     `json:"template,omitempty" yaml:"template,omitempty" hcl:"template,optional"`                   // Expand $n in Replace
	Limit          int      `json:"limit,omitempty" yaml:"limit,omitempty" hcl:"limit,optional"`                            // Max replacements per file, 0 is unbounded
	MaxMatchLength int      `json:"max_match_length,omitempty" yaml:"max_match_length,omitempty" hcl:"max_match_length,optional"`
	Files          []string `json:"files,omitempty" yaml:"files,omitempty" hcl:"files,optional"` // Globs the rule is limited to
}

// 📚 Config represents the complete configuration
type Config struct {
	ChunkSize int      `json:"chunk_size,omitempty" yaml:"chunk_size,omitempty" hcl:"chunk_size,optional"`
	Async     bool     `json:"async,omitempty" yaml:"async,omitempty" hcl:"async,optional"`
	Include   []string `json:"include,omitempty" yaml:"include,omitempty" hcl:"include,optional"`
	Exclude   []string `json:"exclude,omitempty" yaml:"exclude,omitempty" hcl:"exclude,optional"`
	Rules     []Rule   `json:"rules" yaml:"rules" hcl:"rule,block"`
}

// 🎯 Load loads the configuration from a file
func Load(ctx context.Context, path string) (*Config, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading configuration")

	// Read config file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	// Get parser
	p := GetParser(path)
	if p == nil {
		return nil, errors.Errorf("no parser found for file: %s", path)
	}

	// Parse config
	cfg, err := p.Parse(ctx, data)
	if err != nil {
		return nil, errors.Errorf("parsing config %s: %w", path, err)
	}

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config %s: %w", path, err)
	}

	logger.Debug().Int("rules", len(cfg.Rules)).Int("chunk_size", cfg.ChunkSize).Msg("configuration loaded")

	return cfg, nil
}

// 🔍 Validate checks if the configuration is valid and fills in defaults
func (cfg *Config) Validate() error {
	if len(cfg.Rules) == 0 {
		return errors.Errorf("at least one rule is required")
	}

	// Set defaults
	if cfg.ChunkSize < 0 {
		return errors.Errorf("chunk_size must not be negative, got %d", cfg.ChunkSize)
	}
	if cfg.ChunkSize == 0 {
		cfg.ChunkSize = stream.DefaultChunkSize
	}
	if len(cfg.Include) == 0 {
		cfg.Include = []string{"**"}
	}

	for _, glob := range append(append([]string{}, cfg.Include...), cfg.Exclude...) {
		if !doublestar.ValidatePattern(glob) {
			return errors.Errorf("invalid glob %q", glob)
		}
	}

	for i := range cfg.Rules {
		rule := &cfg.Rules[i]
		if rule.Name == "" {
			rule.Name = fmt.Sprintf("rule-%d", i)
		}
		if err := rule.Validate(); err != nil {
			return errors.Errorf("rule %d (%s): %w", i, rule.Name, err)
		}
	}

	return nil
}

// 🔍 Validate checks that the rule compiles
func (r *Rule) Validate() error {
	if r.Search == "" {
		return errors.Errorf("search is required")
	}
	if r.Limit < 0 {
		return errors.Errorf("limit must not be negative, got %d", r.Limit)
	}
	if !r.Regex && (r.Flags != "" || r.Dialect != "") {
		return errors.Errorf("flags and dialect only apply to regex rules")
	}
	for _, glob := range r.Files {
		if !doublestar.ValidatePattern(glob) {
			return errors.Errorf("invalid glob %q", glob)
		}
	}
	if _, err := r.Matcher(); err != nil {
		return err
	}
	return nil
}

// 📝 String returns a string representation of the rule
func (r *Rule) String() string {
	kind := "literal"
	if r.Regex {
		kind = "regex"
	}
	return fmt.Sprintf("%s: %s %q -> %q", r.Name, kind, r.Search, r.Replace)
}

// 📝 String returns a string representation of the config
func (cfg *Config) String() string {
	return fmt.Sprintf("%d rules over %v (chunk %d)", len(cfg.Rules), cfg.Include, cfg.ChunkSize)
}

// Matcher compiles the rule's search pattern.
func (r *Rule) Matcher() (pattern.Matcher, error) {
	opts := []pattern.Option{
		pattern.WithCaseSensitive(r.CaseSensitive),
		pattern.WithMaxMatchLength(r.MaxMatchLength),
	}
	if r.Regex {
		dialect, err := pattern.ParseDialect(r.Dialect)
		if err != nil {
			return nil, err
		}
		opts = append(opts, pattern.WithDialect(dialect), pattern.WithFlags(r.Flags))
	}
	return pattern.Compile(r.Search, r.Regex, opts...)
}
