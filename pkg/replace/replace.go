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

// Package replace resolves the substitution text for a confirmed match.
package replace

import (
	"strings"

	"github.com/walteh/replacestream/pkg/pattern"
	"gitlab.com/tozd/go/errors"
)

// 🎯 Match is what a replacement sees of a confirmed match.
type Match struct {
	// Text is the whole matched text.
	Text string

	// Groups are the capture groups; Groups[0] is the whole match.
	Groups []pattern.Group

	// Offset is where the match starts inside Input.
	Offset int

	// StreamOffset is where the match starts in the whole input stream.
	StreamOffset int64

	// Input is the full buffer that was scanned when the match was found.
	Input string
}

// Func computes the replacement for a match. It is called exactly once per
// confirmed match, in stream order.
type Func func(Match) (string, error)

// 🔄 Spec is a replacement: literal text, a template with $n back
// references, or a callback. The zero value replaces matches with nothing.
type Spec struct {
	kind     kind
	text     string
	template []segment
	fn       Func
}

type kind int

const (
	kindLiteral kind = iota
	kindTemplate
	kindFunc
)

// 🏭 Literal replaces every match with text as-is.
func Literal(text string) Spec {
	return Spec{kind: kindLiteral, text: text}
}

// 🏭 Template replaces every match with text after expanding $0..$99 and $$.
func Template(text string) Spec {
	return Spec{kind: kindTemplate, text: text, template: parseTemplate(text)}
}

// 🏭 FromFunc replaces every match with the result of fn.
func FromFunc(fn Func) Spec {
	return Spec{kind: kindFunc, fn: fn}
}

// 🏭 FromQueue pops one value per match off values, in order. Once the
// values run out matches are left as they are.
func FromQueue(values ...string) Spec {
	queue := append([]string(nil), values...)
	return FromFunc(func(m Match) (string, error) {
		if len(queue) == 0 {
			return m.Text, nil
		}
		next := queue[0]
		queue = queue[1:]
		return next, nil
	})
}

// String describes the replacement for logs.
func (s Spec) String() string {
	switch s.kind {
	case kindTemplate:
		return "template(" + s.text + ")"
	case kindFunc:
		return "func"
	default:
		return s.text
	}
}

// 🔧 Resolve returns the text that replaces m.
func (s Spec) Resolve(m Match) (string, error) {
	switch s.kind {
	case kindTemplate:
		return expand(s.template, m.Groups), nil
	case kindFunc:
		if s.fn == nil {
			return "", errors.Errorf("replacement func is nil")
		}
		out, err := s.fn(m)
		if err != nil {
			return "", errors.Errorf("replacement func at offset %d: %w", m.StreamOffset, err)
		}
		return out, nil
	default:
		return s.text, nil
	}
}

// segment is either a literal run of template text or a group reference.
type segment struct {
	text  string
	group int // -1 for literal text
	// alt is the single-digit fallback for a two-digit reference like $12:
	// when group 12 does not exist, $1 followed by "2" is used instead.
	alt *segment
}

func parseTemplate(tmpl string) []segment {
	var segs []segment
	var lit strings.Builder

	flush := func() {
		if lit.Len() > 0 {
			segs = append(segs, segment{text: lit.String(), group: -1})
			lit.Reset()
		}
	}

	for i := 0; i < len(tmpl); i++ {
		c := tmpl[i]
		if c != '$' || i+1 >= len(tmpl) {
			lit.WriteByte(c)
			continue
		}

		next := tmpl[i+1]
		switch {
		case next == '$':
			lit.WriteByte('$')
			i++
		case isDigit(next):
			flush()
			one := int(next - '0')
			if i+2 < len(tmpl) && isDigit(tmpl[i+2]) {
				two := one*10 + int(tmpl[i+2]-'0')
				segs = append(segs, segment{
					group: two,
					alt:   &segment{group: one, text: tmpl[i+2 : i+3]},
				})
				i += 2
				continue
			}
			segs = append(segs, segment{group: one})
			i++
		default:
			lit.WriteByte(c)
		}
	}
	flush()

	return segs
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func expand(segs []segment, groups []pattern.Group) string {
	var b strings.Builder
	for _, seg := range segs {
		if seg.group < 0 {
			b.WriteString(seg.text)
			continue
		}
		if seg.alt != nil && seg.group >= len(groups) {
			writeGroup(&b, groups, seg.alt.group)
			b.WriteString(seg.alt.text)
			continue
		}
		writeGroup(&b, groups, seg.group)
	}
	return b.String()
}

// writeGroup writes a group's text; missing or unmatched groups expand to
// nothing.
func writeGroup(b *strings.Builder, groups []pattern.Group, idx int) {
	if idx < len(groups) && groups[idx].Matched {
		b.WriteString(groups[idx].Text)
	}
}
