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
	"strings"
	"unicode/utf8"

	"github.com/walteh/replacestream/pkg/pattern"
	"github.com/walteh/replacestream/pkg/replace"
	"gitlab.com/tozd/go/errors"
)

// ErrClosed is returned when a stream is written to after Finalize.
var ErrClosed = errors.Base("stream already finalized")

// 🔌 Transform is the contract between the replacer core and whatever
// transport delivers chunks to it.
type Transform interface {
	// Process consumes one chunk and returns the text that is safe to emit.
	Process(chunk string) (string, error)

	// Finalize signals end of stream and returns whatever was still held.
	Finalize() (string, error)
}

// 📊 Stats describes one Process or Finalize call.
type Stats struct {
	In       int // bytes received
	Out      int // bytes emitted
	Held     int // bytes held in the tail afterwards
	Replaced int // matches replaced during the call
}

// 👀 Observer is told about every Process and Finalize call.
type Observer interface {
	Observe(Stats)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Stats)

// Observe implements Observer.
func (f ObserverFunc) Observe(s Stats) {
	f(s)
}

// ⚙️ Option configures a Replacer.
type Option func(*Replacer)

// WithLimit caps the number of replacements over the stream's lifetime.
// Zero or negative means unbounded.
func WithLimit(n int) Option {
	return func(r *Replacer) {
		r.limit = n
	}
}

// WithObserver registers an observer for per-call stats.
func WithObserver(o Observer) Option {
	return func(r *Replacer) {
		r.observer = o
	}
}

// 🔄 Replacer is the per-stream state of an incremental search and replace.
// It is not safe for concurrent use.
type Replacer struct {
	matcher  pattern.Matcher
	spec     replace.Spec
	limit    int
	observer Observer

	tail   string
	prev   rune // last input rune before tail, pattern.StreamStart at first
	count  int
	offset int64 // stream offset of the first byte of tail
	closed bool
	err    error
}

var _ Transform = (*Replacer)(nil)

// 🏭 New creates a replacer that substitutes spec for every match of m.
func New(m pattern.Matcher, spec replace.Spec, opts ...Option) *Replacer {
	r := &Replacer{
		matcher: m,
		spec:    spec,
		prev:    pattern.StreamStart,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// 🏭 NewString creates a replacer for a case-insensitive literal search and a
// literal replacement.
func NewString(search, replacement string, opts ...Option) (*Replacer, error) {
	m, err := pattern.Literal(search)
	if err != nil {
		return nil, errors.Errorf("compiling search: %w", err)
	}
	return New(m, replace.Literal(replacement), opts...), nil
}

// Count returns how many matches have been replaced so far.
func (r *Replacer) Count() int {
	return r.count
}

// Held returns the number of bytes currently withheld in the tail.
func (r *Replacer) Held() int {
	return len(r.tail)
}

// Matcher returns the matcher the replacer scans with.
func (r *Replacer) Matcher() pattern.Matcher {
	return r.matcher
}

func (r *Replacer) exhausted() bool {
	return r.limit > 0 && r.count >= r.limit
}

// 📝 Process scans tail+chunk and returns everything that can be emitted now.
// A failed replacement callback poisons the replacer: the error is returned
// from this and every later call.
func (r *Replacer) Process(chunk string) (string, error) {
	if r.closed {
		return "", ErrClosed
	}
	if r.err != nil {
		return "", r.err
	}

	if r.exhausted() {
		r.offset += int64(len(chunk))
		r.observe(Stats{In: len(chunk), Out: len(chunk)})
		return chunk, nil
	}

	before := r.count
	out, err := r.scan(r.tail+chunk, false)
	if err != nil {
		r.err = err
		return "", err
	}
	r.observe(Stats{In: len(chunk), Out: len(out), Held: len(r.tail), Replaced: r.count - before})

	return out, nil
}

// ProcessBytes is Process for byte slices.
func (r *Replacer) ProcessBytes(chunk []byte) ([]byte, error) {
	out, err := r.Process(string(chunk))
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}

// 🏁 Finalize re-scans the held tail knowing no more input will come, emits
// it and closes the stream.
func (r *Replacer) Finalize() (string, error) {
	if r.closed {
		return "", ErrClosed
	}
	r.closed = true
	if r.err != nil {
		return "", r.err
	}
	if r.tail == "" {
		return "", nil
	}

	if r.exhausted() {
		out := r.tail
		r.tail = ""
		r.observe(Stats{Out: len(out)})
		return out, nil
	}

	before := r.count
	out, err := r.scan(r.tail, true)
	if err != nil {
		r.err = err
		return "", err
	}
	r.observe(Stats{Out: len(out), Replaced: r.count - before})

	return out, nil
}

func (r *Replacer) scan(buf string, final bool) (string, error) {
	res, err := r.matcher.Scan(buf, r.prev, final)
	if err != nil {
		return "", errors.Errorf("scanning: %w", err)
	}

	var out strings.Builder
	cursor := 0
	for _, m := range res.Matches {
		if r.exhausted() {
			break
		}

		text, err := r.spec.Resolve(replace.Match{
			Text:         m.Text(),
			Groups:       m.Groups,
			Offset:       m.Start,
			StreamOffset: r.offset + int64(m.Start),
			Input:        buf,
		})
		if err != nil {
			return "", errors.Errorf("resolving replacement: %w", err)
		}

		out.WriteString(buf[cursor:m.Start])
		out.WriteString(text)
		cursor = m.End
		r.count++
	}

	// once the limit is hit nothing can match again, so nothing is held
	hold := max(res.Hold, cursor)
	if r.exhausted() {
		hold = len(buf)
	}

	out.WriteString(buf[cursor:hold])
	if hold > 0 {
		r.prev, _ = utf8.DecodeLastRuneInString(buf[:hold])
	}
	r.tail = buf[hold:]
	r.offset += int64(hold)

	return out.String(), nil
}

func (r *Replacer) observe(s Stats) {
	if r.observer != nil {
		r.observer.Observe(s)
	}
}
