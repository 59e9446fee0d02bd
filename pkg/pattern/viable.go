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
	"unicode/utf8"
)

// 🧬 prefixChecker answers "could a match start here once more input
// arrives?" by running the compiled program as a Thompson NFA, anchored at
// the candidate position, until the buffer runs out.
type prefixChecker struct {
	prog *syntax.Prog
}

func newPrefixChecker(re *syntax.Regexp) (*prefixChecker, error) {
	prog, err := syntax.Compile(re.Simplify())
	if err != nil {
		return nil, err
	}
	return &prefixChecker{prog: prog}, nil
}

// threadSet is a deduplicated list of program counters. pcs holds the rune
// instructions threads wait on; visited holds every pc add went through.
type threadSet struct {
	pcs     []uint32
	visited []uint32
	seen    []bool
}

func newThreadSet(size int) *threadSet {
	return &threadSet{seen: make([]bool, size)}
}

func (s *threadSet) reset() {
	for _, pc := range s.visited {
		s.seen[pc] = false
	}
	s.visited = s.visited[:0]
	s.pcs = s.pcs[:0]
}

// viable reports whether an anchored match beginning at start either completes
// inside buf or is still alive when buf ends. before is the rune preceding
// buf in the stream, or StreamStart.
func (c *prefixChecker) viable(buf string, before rune, start int) bool {
	size := len(c.prog.Inst)
	clist, nlist := newThreadSet(size), newThreadSet(size)

	if c.add(clist, uint32(c.prog.Start), buf, before, start) {
		return true
	}

	for pos := start; len(clist.pcs) > 0; {
		if pos >= len(buf) {
			return true
		}
		r, width := utf8.DecodeRuneInString(buf[pos:])
		next := pos + width

		for _, pc := range clist.pcs {
			inst := &c.prog.Inst[pc]
			switch inst.Op {
			case syntax.InstRune, syntax.InstRune1, syntax.InstRuneAny, syntax.InstRuneAnyNotNL:
				if inst.MatchRune(r) && c.add(nlist, inst.Out, buf, before, next) {
					return true
				}
			}
		}

		clist, nlist = nlist, clist
		nlist.reset()
		pos = next
	}

	return false
}

// add follows empty transitions from pc at pos. It returns true as soon as a
// match instruction is reached.
func (c *prefixChecker) add(set *threadSet, pc uint32, buf string, before rune, pos int) bool {
	if set.seen[pc] {
		return false
	}
	set.seen[pc] = true
	set.visited = append(set.visited, pc)

	inst := &c.prog.Inst[pc]
	switch inst.Op {
	case syntax.InstMatch:
		return true
	case syntax.InstFail:
		return false
	case syntax.InstAlt, syntax.InstAltMatch:
		return c.add(set, inst.Out, buf, before, pos) || c.add(set, inst.Arg, buf, before, pos)
	case syntax.InstCapture, syntax.InstNop:
		return c.add(set, inst.Out, buf, before, pos)
	case syntax.InstEmptyWidth:
		// at the end of the buffer the next rune is unknown, so assume the
		// assertion can still hold
		if pos < len(buf) && syntax.EmptyOp(inst.Arg)&^emptyContext(buf, before, pos) != 0 {
			return false
		}
		return c.add(set, inst.Out, buf, before, pos)
	default:
		set.pcs = append(set.pcs, pc)
		return false
	}
}

// emptyContext returns the assertions that hold at pos. At pos 0 the left
// side is the rune before buf.
func emptyContext(buf string, before rune, pos int) syntax.EmptyOp {
	after := rune(-1)
	if pos > 0 {
		before, _ = utf8.DecodeLastRuneInString(buf[:pos])
	}
	if pos < len(buf) {
		after, _ = utf8.DecodeRuneInString(buf[pos:])
	}
	return syntax.EmptyOpContext(before, after)
}
