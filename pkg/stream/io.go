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
	"io"
	"unicode/utf8"

	"gitlab.com/tozd/go/errors"
)

// DefaultChunkSize is the read size used by Reader.
const DefaultChunkSize = 32 * 1024

// ✍️ Writer feeds everything written to it through a Transform and writes
// the result to an underlying writer. Close finalizes the transform; it
// does not close the underlying writer.
//
// Byte slices that end in the middle of a UTF-8 sequence are split at the
// last complete rune and the remainder is carried into the next write.
type Writer struct {
	dst   io.Writer
	t     Transform
	carry []byte
	err   error
}

var _ io.WriteCloser = (*Writer)(nil)

// NewWriter creates a Writer that transforms into dst.
func NewWriter(dst io.Writer, t Transform) *Writer {
	return &Writer{dst: dst, t: t}
}

// Write implements io.Writer.
func (w *Writer) Write(p []byte) (int, error) {
	if w.err != nil {
		return 0, w.err
	}

	buf := p
	if len(w.carry) > 0 {
		buf = append(w.carry, p...)
		w.carry = nil
	}

	complete, rest := splitRunes(buf)
	if len(rest) > 0 {
		w.carry = append([]byte(nil), rest...)
	}
	if len(complete) == 0 {
		return len(p), nil
	}

	out, err := w.t.Process(string(complete))
	if err != nil {
		w.err = err
		return 0, err
	}
	if err := w.emit(out); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close flushes any carried bytes, finalizes the transform and writes what
// it released.
func (w *Writer) Close() error {
	if w.err != nil {
		return w.err
	}

	if len(w.carry) > 0 {
		out, err := w.t.Process(string(w.carry))
		w.carry = nil
		if err != nil {
			w.err = err
			return err
		}
		if err := w.emit(out); err != nil {
			return err
		}
	}

	out, err := w.t.Finalize()
	if err != nil {
		w.err = err
		return err
	}
	if err := w.emit(out); err != nil {
		return err
	}
	w.err = ErrClosed
	return nil
}

func (w *Writer) emit(s string) error {
	if s == "" {
		return nil
	}
	if _, err := io.WriteString(w.dst, s); err != nil {
		w.err = errors.Errorf("writing output: %w", err)
		return w.err
	}
	return nil
}

// 📖 Reader reads from an underlying reader through a Transform.
type Reader struct {
	src     io.Reader
	t       Transform
	scratch []byte
	carry   []byte
	out     []byte
	err     error
}

var _ io.Reader = (*Reader)(nil)

// NewReader creates a Reader that transforms src, reading DefaultChunkSize
// bytes at a time.
func NewReader(src io.Reader, t Transform) *Reader {
	return NewReaderSize(src, t, DefaultChunkSize)
}

// NewReaderSize is NewReader with an explicit chunk size.
func NewReaderSize(src io.Reader, t Transform, size int) *Reader {
	if size < utf8.UTFMax {
		size = utf8.UTFMax
	}
	return &Reader{src: src, t: t, scratch: make([]byte, size)}
}

// Read implements io.Reader.
func (r *Reader) Read(p []byte) (int, error) {
	for len(r.out) == 0 {
		if r.err != nil {
			return 0, r.err
		}
		r.fill()
	}

	n := copy(p, r.out)
	r.out = r.out[n:]
	return n, nil
}

func (r *Reader) fill() {
	n, err := r.src.Read(r.scratch)
	if n > 0 {
		buf := append(r.carry, r.scratch[:n]...)
		complete, rest := splitRunes(buf)
		r.carry = append([]byte(nil), rest...)

		if len(complete) > 0 {
			out, perr := r.t.Process(string(complete))
			if perr != nil {
				r.err = perr
				return
			}
			r.out = append(r.out, out...)
		}
	}

	switch {
	case errors.Is(err, io.EOF):
		r.finish()
	case err != nil:
		r.err = errors.Errorf("reading input: %w", err)
	}
}

func (r *Reader) finish() {
	if len(r.carry) > 0 {
		out, err := r.t.Process(string(r.carry))
		r.carry = nil
		if err != nil {
			r.err = err
			return
		}
		r.out = append(r.out, out...)
	}

	out, err := r.t.Finalize()
	if err != nil {
		r.err = err
		return
	}
	r.out = append(r.out, out...)
	r.err = io.EOF
}

// splitRunes splits b before a trailing incomplete UTF-8 sequence. Invalid
// bytes are never carried.
func splitRunes(b []byte) (complete, rest []byte) {
	for i := 1; i < utf8.UTFMax && i <= len(b); i++ {
		c := b[len(b)-i]
		if utf8.RuneStart(c) {
			if !utf8.FullRune(b[len(b)-i:]) {
				return b[:len(b)-i], b[len(b)-i:]
			}
			break
		}
	}
	return b, nil
}
