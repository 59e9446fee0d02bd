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
	"unicode"
	"unicode/utf8"

	"gitlab.com/tozd/go/errors"
)

// 🔤 literalMatcher finds a fixed string with a KMP automaton over runes.
//
// The automaton state after the last rune of a buffer is the length of the
// longest pattern prefix that is also a suffix of the buffer, which is exactly
// the candidate partial that has to be carried into the next chunk.
type literalMatcher struct {
	text          string
	runes         []rune
	failure       []int
	caseSensitive bool
}

// 🏭 Literal compiles a literal search string. Matching is case-insensitive
// unless WithCaseSensitive(true) is given.
func Literal(text string, opts ...Option) (Matcher, error) {
	o := newOptions(opts)

	if text == "" {
		return nil, &PatternError{Pattern: text, Err: errors.Base("empty literal pattern")}
	}
	if !utf8.ValidString(text) {
		return nil, &PatternError{Pattern: text, Err: errors.Base("literal pattern is not valid UTF-8")}
	}

	m := &literalMatcher{
		text:          text,
		caseSensitive: o.caseSensitive,
	}
	for _, r := range text {
		m.runes = append(m.runes, m.fold(r))
	}
	m.failure = buildFailure(m.runes)

	return m, nil
}

// buildFailure computes the KMP failure table: failure[i] is the length of the
// longest proper prefix of p[:i+1] that is also its suffix.
func buildFailure(p []rune) []int {
	failure := make([]int, len(p))
	k := 0
	for i := 1; i < len(p); i++ {
		for k > 0 && p[i] != p[k] {
			k = failure[k-1]
		}
		if p[i] == p[k] {
			k++
		}
		failure[i] = k
	}
	return failure
}

func (m *literalMatcher) fold(r rune) rune {
	if m.caseSensitive {
		return r
	}
	return foldRune(r)
}

// foldRune maps r to the smallest rune of its simple case folding orbit, so
// two runes fold equal exactly when unicode.SimpleFold links them.
func foldRune(r rune) rune {
	smallest := r
	for f := unicode.SimpleFold(r); f != r; f = unicode.SimpleFold(f) {
		if f < smallest {
			smallest = f
		}
	}
	return smallest
}

func (m *literalMatcher) String() string {
	return m.text
}

func (m *literalMatcher) NumGroups() int {
	return 1
}

// Scan implements Matcher. Literals carry no assertions, so before is unused.
func (m *literalMatcher) Scan(buf string, before rune, final bool) (Result, error) {
	n := len(m.runes)
	res := Result{Hold: len(buf)}

	// starts is a ring of the byte offsets of the last n runes seen, so a
	// match or partial can be mapped back to where it began.
	starts := make([]int, n)
	state := 0
	seen := 0

	for pos := 0; pos < len(buf); {
		r, width := utf8.DecodeRuneInString(buf[pos:])
		starts[seen%n] = pos
		seen++

		r = m.fold(r)
		for state > 0 && m.runes[state] != r {
			state = m.failure[state-1]
		}
		if m.runes[state] == r {
			state++
		}
		pos += width

		if state == n {
			start := starts[(seen-n)%n]
			res.Matches = append(res.Matches, Match{
				Start:  start,
				End:    pos,
				Groups: []Group{{Text: buf[start:pos], Matched: true}},
			})
			// matches never overlap: restart from scratch after each one
			state = 0
			seen = 0
		}
	}

	if !final && state > 0 {
		res.Hold = starts[(seen-state)%n]
	}

	return res, nil
}
