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

package pattern

import (
	"fmt"

	"gitlab.com/tozd/go/errors"
)

// DefaultMaxMatchLength bounds how many trailing bytes a regex matcher may hold
// back while waiting for more input.
const DefaultMaxMatchLength = 256

// StreamStart is passed to Scan as the preceding rune when buf begins the
// stream.
const StreamStart rune = -1

// 🔌 Matcher scans a buffer for confirmed matches and candidate partials.
type Matcher interface {
	// 🔍 Scan returns every confirmed, non-overlapping match in buf in
	// left-to-right order, plus the offset where a candidate partial begins.
	// before is the last rune of the stream ahead of buf, or StreamStart; it
	// is the left context for ^ and \b at offset 0. When final is set no more
	// input will follow and nothing is held.
	Scan(buf string, before rune, final bool) (Result, error)

	// NumGroups returns the number of groups a match carries, including the
	// whole match at index 0.
	NumGroups() int

	// String returns the source pattern.
	String() string
}

// 📦 Result is the outcome of a single Scan.
type Result struct {
	// Matches are the confirmed matches, ordered by Start.
	Matches []Match

	// Hold is the offset in the scanned buffer where the candidate partial
	// begins. It equals len(buf) when nothing needs to be held back.
	Hold int
}

// 🎯 Match is a confirmed match inside the scanned buffer.
type Match struct {
	Start int
	End   int

	// Groups holds the capture groups; Groups[0] is the whole match.
	Groups []Group
}

// Text returns the whole matched text.
func (m Match) Text() string {
	if len(m.Groups) == 0 {
		return ""
	}
	return m.Groups[0].Text
}

// Group is a single capture group. Matched is false when the group did not
// participate in the match.
type Group struct {
	Text    string
	Matched bool
}

// Dialect selects the regular expression syntax and engine.
type Dialect int

const (
	// DialectRE2 is RE2/Perl syntax executed by coregex.
	DialectRE2 Dialect = iota
	// DialectECMAScript is JavaScript-flavoured syntax executed by regexp2.
	DialectECMAScript
)

// String returns the config name of the dialect.
func (d Dialect) String() string {
	switch d {
	case DialectECMAScript:
		return "ecmascript"
	default:
		return "re2"
	}
}

// 🔧 ParseDialect maps a config name onto a Dialect. Empty means RE2.
func ParseDialect(name string) (Dialect, error) {
	switch name {
	case "", "re2", "go":
		return DialectRE2, nil
	case "ecmascript", "js", "javascript":
		return DialectECMAScript, nil
	default:
		return DialectRE2, errors.Errorf("unknown regex dialect %q", name)
	}
}

// ⚙️ Option configures pattern compilation.
type Option func(*options)

type options struct {
	caseSensitive  bool
	flags          string
	dialect        Dialect
	maxMatchLength int
}

func newOptions(opts []Option) *options {
	o := &options{
		maxMatchLength: DefaultMaxMatchLength,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithCaseSensitive turns case sensitivity on or off for literal patterns.
// Literal patterns are case-insensitive unless this is set.
func WithCaseSensitive(enabled bool) Option {
	return func(o *options) {
		o.caseSensitive = enabled
	}
}

// WithFlags sets regex flags using the JavaScript letters: i, m, s and g.
func WithFlags(flags string) Option {
	return func(o *options) {
		o.flags = flags
	}
}

// WithDialect selects the regex syntax and engine.
func WithDialect(d Dialect) Option {
	return func(o *options) {
		o.dialect = d
	}
}

// WithMaxMatchLength caps the speculative tail a regex matcher may hold.
// Values below one fall back to DefaultMaxMatchLength.
func WithMaxMatchLength(n int) Option {
	return func(o *options) {
		if n < 1 {
			n = DefaultMaxMatchLength
		}
		o.maxMatchLength = n
	}
}

// ❌ PatternError reports a pattern that could not be compiled.
type PatternError struct {
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("invalid pattern %q: %v", e.Pattern, e.Err)
}

func (e *PatternError) Unwrap() error {
	return e.Err
}

// 🏭 Compile builds a literal or regex matcher for search.
func Compile(search string, isRegex bool, opts ...Option) (Matcher, error) {
	if isRegex {
		return Regex(search, opts...)
	}
	return Literal(search, opts...)
}
