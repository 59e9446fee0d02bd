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
	"unicode"
	"unicode/utf8"
)

// unbounded marks a match length with no upper limit.
const unbounded = -1

// 📏 lengthBounds is the byte length range any match of an expression can have.
type lengthBounds struct {
	shortest int
	longest  int // unbounded when the expression has * or + style repetition
}

func analyzeLength(re *syntax.Regexp) lengthBounds {
	return lengthBounds{
		shortest: minLength(re),
		longest:  maxLength(re),
	}
}

func minLength(re *syntax.Regexp) int {
	switch re.Op {
	case syntax.OpLiteral:
		total := 0
		for _, r := range re.Rune {
			total += runeBytes(r, re.Flags, false)
		}
		return total
	case syntax.OpCharClass:
		if len(re.Rune) == 0 {
			return 0
		}
		// ranges are sorted, so the first low bound is the shortest rune
		return utf8.RuneLen(re.Rune[0])
	case syntax.OpAnyChar, syntax.OpAnyCharNotNL:
		return 1
	case syntax.OpCapture, syntax.OpPlus:
		return minLength(re.Sub[0])
	case syntax.OpRepeat:
		return re.Min * minLength(re.Sub[0])
	case syntax.OpConcat:
		total := 0
		for _, sub := range re.Sub {
			total += minLength(sub)
		}
		return total
	case syntax.OpAlternate:
		shortest := minLength(re.Sub[0])
		for _, sub := range re.Sub[1:] {
			if l := minLength(sub); l < shortest {
				shortest = l
			}
		}
		return shortest
	case syntax.OpNoMatch:
		// never matches, so in particular never matches empty
		return 1
	default:
		// empty match, star, quest and zero-width assertions
		return 0
	}
}

func maxLength(re *syntax.Regexp) int {
	switch re.Op {
	case syntax.OpLiteral:
		total := 0
		for _, r := range re.Rune {
			total += runeBytes(r, re.Flags, true)
		}
		return total
	case syntax.OpCharClass:
		if len(re.Rune) == 0 {
			return 0
		}
		return utf8.RuneLen(re.Rune[len(re.Rune)-1])
	case syntax.OpAnyChar, syntax.OpAnyCharNotNL:
		return utf8.UTFMax
	case syntax.OpCapture, syntax.OpQuest:
		return maxLength(re.Sub[0])
	case syntax.OpStar, syntax.OpPlus:
		return unbounded
	case syntax.OpRepeat:
		if re.Max < 0 {
			return unbounded
		}
		sub := maxLength(re.Sub[0])
		if sub == unbounded {
			return unbounded
		}
		return re.Max * sub
	case syntax.OpConcat:
		total := 0
		for _, sub := range re.Sub {
			l := maxLength(sub)
			if l == unbounded {
				return unbounded
			}
			total += l
		}
		return total
	case syntax.OpAlternate:
		longest := 0
		for _, sub := range re.Sub {
			l := maxLength(sub)
			if l == unbounded {
				return unbounded
			}
			if l > longest {
				longest = l
			}
		}
		return longest
	default:
		return 0
	}
}

// runeBytes returns the shortest or longest UTF-8 width among the runes a
// literal rune can match, taking case folding into account.
func runeBytes(r rune, flags syntax.Flags, longest bool) int {
	n := utf8.RuneLen(r)
	if flags&syntax.FoldCase == 0 {
		return n
	}
	for f := unicode.SimpleFold(r); f != r; f = unicode.SimpleFold(f) {
		l := utf8.RuneLen(f)
		if (longest && l > n) || (!longest && l < n) {
			n = l
		}
	}
	return n
}
