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
	"regexp/syntax"
	"strings"
	"unicode/utf8"

	"github.com/coregx/coregex"
	"github.com/dlclark/regexp2"
	"gitlab.com/tozd/go/errors"
)

// 🔌 engine runs the actual regular expression.
type engine interface {
	// findAll returns submatch index pairs for every successive
	// non-overlapping match in buf, in byte offsets. Unmatched groups are -1.
	// Assertions at offset 0 see before as the preceding rune.
	findAll(buf string, before rune) ([][]int, error)
}

// 🧩 regexMatcher applies the bounded speculation policy on top of an engine.
//
// A match starting at s is only confirmed when s < len(buf)-hold: every
// match is at most hold bytes long, so any alternative the engine could
// pick at s ends strictly inside the buffer and no later input can change
// it. Anything after the last confirmed match that might still start a match
// stays in the tail.
type regexMatcher struct {
	expr    string
	engine  engine
	groups  int
	hold    int
	checker *prefixChecker // nil when the syntax cannot be analysed
}

// 🏭 Regex compiles a regular expression. Flags follow the JavaScript letters
// (i, m, s, g); g is accepted and ignored because replacement is always global
// up to the configured limit.
func Regex(expr string, opts ...Option) (Matcher, error) {
	o := newOptions(opts)

	for _, f := range o.flags {
		if !strings.ContainsRune("gims", f) {
			return nil, &PatternError{Pattern: expr, Err: errors.Errorf("unknown regex flag %q", f)}
		}
	}

	switch o.dialect {
	case DialectECMAScript:
		return compileECMAScript(expr, o)
	default:
		return compileRE2(expr, o)
	}
}

func compileRE2(expr string, o *options) (Matcher, error) {
	full := expr
	if prefix := re2Flags(o.flags); prefix != "" {
		full = "(?" + prefix + ")" + expr
	}

	parsed, err := syntax.Parse(full, syntax.Perl)
	if err != nil {
		return nil, &PatternError{Pattern: expr, Err: err}
	}

	bounds := analyzeLength(parsed)
	if bounds.shortest == 0 {
		return nil, &PatternError{Pattern: expr, Err: errors.Base("pattern can match the empty string")}
	}

	checker, err := newPrefixChecker(parsed)
	if err != nil {
		return nil, &PatternError{Pattern: expr, Err: err}
	}

	re, err := coregex.Compile(full)
	if err != nil {
		return nil, &PatternError{Pattern: expr, Err: err}
	}
	skip, err := coregex.Compile(`\A(?s:.)(?s:.*?)(` + full + `)`)
	if err != nil {
		return nil, &PatternError{Pattern: expr, Err: err}
	}

	hold := o.maxMatchLength
	if bounds.longest != unbounded && bounds.longest < hold {
		hold = bounds.longest
	}

	return &regexMatcher{
		expr:    expr,
		engine:  &coregexEngine{re: re, skip: skip},
		groups:  parsed.MaxCap() + 1,
		hold:    hold,
		checker: checker,
	}, nil
}

func re2Flags(flags string) string {
	var b strings.Builder
	for _, f := range "ims" {
		if strings.ContainsRune(flags, f) {
			b.WriteRune(f)
		}
	}
	return b.String()
}

func compileECMAScript(expr string, o *options) (Matcher, error) {
	opt := regexp2.RegexOptions(regexp2.ECMAScript)
	if strings.ContainsRune(o.flags, 'i') {
		opt |= regexp2.IgnoreCase
	}
	if strings.ContainsRune(o.flags, 'm') {
		opt |= regexp2.Multiline
	}
	if strings.ContainsRune(o.flags, 's') {
		opt |= regexp2.Singleline
	}

	re, err := regexp2.Compile(expr, opt)
	if err != nil {
		return nil, &PatternError{Pattern: expr, Err: err}
	}

	empty, err := re.MatchString("")
	if err != nil {
		return nil, &PatternError{Pattern: expr, Err: err}
	}
	if empty {
		return nil, &PatternError{Pattern: expr, Err: errors.Base("pattern can match the empty string")}
	}

	return &regexMatcher{
		expr:   expr,
		engine: &regexp2Engine{re: re},
		groups: len(re.GetGroupNumbers()),
		hold:   o.maxMatchLength,
	}, nil
}

func (m *regexMatcher) String() string {
	return m.expr
}

func (m *regexMatcher) NumGroups() int {
	return m.groups
}

// Scan implements Matcher.
func (m *regexMatcher) Scan(buf string, before rune, final bool) (Result, error) {
	res := Result{Hold: len(buf)}

	found, err := m.engine.findAll(buf, before)
	if err != nil {
		return res, errors.Errorf("scanning with %q: %w", m.expr, err)
	}

	safe := len(buf) - m.hold
	cursor := 0
	for _, idx := range found {
		if idx[1] <= idx[0] {
			continue
		}
		if !final && idx[0] >= safe {
			break
		}
		res.Matches = append(res.Matches, m.toMatch(buf, idx))
		cursor = idx[1]
	}

	if final {
		return res, nil
	}

	res.Hold = m.holdFrom(buf, before, max(cursor, safe))
	return res, nil
}

// holdFrom returns the earliest offset at or after from where a match could
// still begin, or len(buf) when the rest of the buffer is settled.
func (m *regexMatcher) holdFrom(buf string, before rune, from int) int {
	// never split a rune
	for from < len(buf) && !utf8.RuneStart(buf[from]) {
		from++
	}
	if m.checker == nil {
		return from
	}
	for p := from; p < len(buf); p++ {
		if !utf8.RuneStart(buf[p]) {
			continue
		}
		if m.checker.viable(buf, before, p) {
			return p
		}
	}
	return len(buf)
}

func (m *regexMatcher) toMatch(buf string, idx []int) Match {
	match := Match{
		Start:  idx[0],
		End:    idx[1],
		Groups: make([]Group, m.groups),
	}
	for g := 0; g < m.groups && 2*g+1 < len(idx); g++ {
		lo, hi := idx[2*g], idx[2*g+1]
		if lo < 0 || hi < 0 {
			continue
		}
		match.Groups[g] = Group{Text: buf[lo:hi], Matched: true}
	}
	return match
}

// ⚡ coregexEngine executes RE2 syntax with coregex. The rune before the
// buffer is put in front of it so ^ and \b see the real left context; skip
// finds the first match that starts after that rune when the plain search
// would start on it.
type coregexEngine struct {
	re   *coregex.Regex
	skip *coregex.Regex
}

func (e *coregexEngine) findAll(buf string, before rune) ([][]int, error) {
	text, k := withContext(buf, before)

	var out [][]int
	for pos := k; pos <= len(text); {
		idx := e.findFrom(text, pos)
		if idx == nil {
			break
		}
		out = append(out, shift(idx, -k))

		next := idx[1]
		if next <= pos {
			_, width := utf8.DecodeRuneInString(text[pos:])
			next = pos + max(width, 1)
		}
		pos = next
	}
	return out, nil
}

// findFrom returns the leftmost match in text starting at or after pos, with
// the rune before pos as left context.
func (e *coregexEngine) findFrom(text string, pos int) []int {
	if pos == 0 {
		return e.re.FindStringSubmatchIndex(text)
	}

	_, width := utf8.DecodeLastRuneInString(text[:pos])
	base := pos - width
	window := text[base:]

	idx := e.re.FindStringSubmatchIndex(window)
	if idx != nil && idx[0] < width {
		idx = e.skip.FindStringSubmatchIndex(window)
		if idx != nil {
			// drop the wrapper's whole match; its first group is ours
			idx = idx[2:]
		}
	}
	if idx == nil {
		return nil
	}
	return shift(idx, base)
}

// withContext prepends before to buf and returns where buf starts.
func withContext(buf string, before rune) (string, int) {
	if before == StreamStart {
		return buf, 0
	}
	prefix := string(before)
	return prefix + buf, len(prefix)
}

// shift moves every matched offset in idx by delta, in place.
func shift(idx []int, delta int) []int {
	for i, v := range idx {
		if v >= 0 {
			idx[i] = v + delta
		}
	}
	return idx
}

// 🟨 regexp2Engine executes ECMAScript syntax with regexp2, which reports
// positions in runes; they are converted back to byte offsets here.
type regexp2Engine struct {
	re *regexp2.Regexp
}

func (e *regexp2Engine) findAll(buf string, before rune) ([][]int, error) {
	text, k := withContext(buf, before)

	var offsets []int
	for i := range text {
		offsets = append(offsets, i)
	}
	offsets = append(offsets, len(text))

	var out [][]int
	match, err := e.re.FindStringMatchStartingAt(text, k)
	for ; match != nil && err == nil; match, err = e.re.FindNextMatch(match) {
		groups := match.Groups()
		idx := make([]int, 2*len(groups))
		for i, g := range groups {
			if len(g.Captures) == 0 {
				idx[2*i], idx[2*i+1] = -1, -1
				continue
			}
			idx[2*i] = offsets[g.Index]
			idx[2*i+1] = offsets[g.Index+g.Length]
		}
		out = append(out, shift(idx, -k))
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}
