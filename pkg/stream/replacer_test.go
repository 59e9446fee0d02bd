package stream

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/replacestream/pkg/pattern"
	"github.com/walteh/replacestream/pkg/replace"
	"gitlab.com/tozd/go/errors"
)

// run feeds chunks through t and returns the concatenated output.
func run(t *testing.T, tr Transform, chunks ...string) string {
	t.Helper()

	var b strings.Builder
	for _, c := range chunks {
		out, err := tr.Process(c)
		require.NoError(t, err)
		b.WriteString(out)
	}
	out, err := tr.Finalize()
	require.NoError(t, err)
	b.WriteString(out)
	return b.String()
}

func mustLiteral(t *testing.T, text string, opts ...pattern.Option) pattern.Matcher {
	t.Helper()
	m, err := pattern.Literal(text, opts...)
	require.NoError(t, err)
	return m
}

func mustRegex(t *testing.T, expr string, opts ...pattern.Option) pattern.Matcher {
	t.Helper()
	m, err := pattern.Regex(expr, opts...)
	require.NoError(t, err)
	return m
}

func TestReplacer_Streams(t *testing.T) {
	tests := []struct {
		name    string
		matcher func(t *testing.T) pattern.Matcher
		spec    replace.Spec
		opts    []Option
		chunks  []string
		want    string
	}{
		{
			name:    "match_split_across_chunks",
			matcher: func(t *testing.T) pattern.Matcher { return mustLiteral(t, "</head>") },
			spec:    replace.Literal("<script/></head>"),
			chunks:  []string{"<head></he", "ad><body>"},
			want:    "<head><script/></head><body>",
		},
		{
			name:    "closing_tag_split_after_slash",
			matcher: func(t *testing.T) pattern.Matcher { return mustLiteral(t, "</p>") },
			spec:    replace.Literal("</p>\n"),
			chunks:  []string{"<p>one</p><p>2</", "p><p>3</p>"},
			want:    "<p>one</p>\n<p>2</p>\n<p>3</p>\n",
		},
		{
			name:    "partial_then_unrelated_text",
			matcher: func(t *testing.T) pattern.Matcher { return mustLiteral(t, "ab") },
			spec:    replace.Literal("Z"),
			chunks:  []string{"a", "b", "ab\na", "\nab\nb"},
			want:    "ZZ\na\nZ\nb",
		},
		{
			name:    "default_case_insensitive",
			matcher: func(t *testing.T) pattern.Matcher { return mustLiteral(t, "hello") },
			spec:    replace.Literal("bye"),
			chunks:  []string{"HeL", "lo hELLO hel"},
			want:    "bye bye hel",
		},
		{
			name:    "case_sensitive",
			matcher: func(t *testing.T) pattern.Matcher { return mustLiteral(t, "hello", pattern.WithCaseSensitive(true)) },
			spec:    replace.Literal("bye"),
			chunks:  []string{"HeL", "lo hel", "lo"},
			want:    "HeLlo bye",
		},
		{
			name:    "limit",
			matcher: func(t *testing.T) pattern.Matcher { return mustLiteral(t, "ab") },
			spec:    replace.Literal("Z"),
			opts:    []Option{WithLimit(3)},
			chunks:  []string{"ab a", "b a", "b ab", " ab"},
			want:    "Z Z Z ab ab",
		},
		{
			name:    "queue_of_greetings",
			matcher: func(t *testing.T) pattern.Matcher { return mustLiteral(t, "hello") },
			spec:    replace.FromQueue("Hi", "Hey"),
			chunks:  []string{"Hello, hel", "lo, HELLO"},
			want:    "Hi, Hey, HELLO",
		},
		{
			name:    "regex_split",
			matcher: func(t *testing.T) pattern.Matcher { return mustRegex(t, `fe+d`) },
			spec:    replace.Literal("food"),
			chunks:  []string{"I love fee", "eed you"},
			want:    "I love food you",
		},
		{
			name:    "regex_repeated_loop_in_one_chunk",
			matcher: func(t *testing.T) pattern.Matcher { return mustRegex(t, `fe+d`) },
			spec:    replace.Literal("food"),
			chunks:  []string{"I love feeeed you"},
			want:    "I love food you",
		},
		{
			name:    "regex_caret_only_at_stream_start",
			matcher: func(t *testing.T) pattern.Matcher { return mustRegex(t, `^a`) },
			spec:    replace.Literal("X"),
			chunks:  []string{"ab", "ac"},
			want:    "Xbac",
		},
		{
			name:    "regex_multiline_caret_mid_line",
			matcher: func(t *testing.T) pattern.Matcher { return mustRegex(t, `^foo`, pattern.WithFlags("m")) },
			spec:    replace.Literal("X"),
			chunks:  []string{"xx", "foo\n", "foo"},
			want:    "xxfoo\nX",
		},
		{
			name:    "regex_word_boundary_across_chunks",
			matcher: func(t *testing.T) pattern.Matcher { return mustRegex(t, `\bcat`) },
			spec:    replace.Literal("X"),
			chunks:  []string{"con", "cat ", "cat"},
			want:    "concat X",
		},
		{
			name:    "regex_template",
			matcher: func(t *testing.T) pattern.Matcher { return mustRegex(t, `(\w+)@(\w+)\.com`) },
			spec:    replace.Template("$2 at $1"),
			chunks:  []string{"mail bob@exa", "mple.com now"},
			want:    "mail example at bob now",
		},
		{
			name:    "regex_bounded_window",
			matcher: func(t *testing.T) pattern.Matcher { return mustRegex(t, `\d+`, pattern.WithMaxMatchLength(3)) },
			spec:    replace.Template("<$0>"),
			chunks:  []string{"a1", "2b", "345c6"},
			want:    "a<12>b<345>c<6>",
		},
		{
			name: "regex_ecmascript",
			matcher: func(t *testing.T) pattern.Matcher {
				return mustRegex(t, `(\w)-(\w)`, pattern.WithDialect(pattern.DialectECMAScript))
			},
			spec:   replace.Template("$2-$1"),
			chunks: []string{"a-", "b c", "-d"},
			want:   "b-a d-c",
		},
		{
			name:    "multibyte_split",
			matcher: func(t *testing.T) pattern.Matcher { return mustLiteral(t, "wörld") },
			spec:    replace.Literal("world"),
			chunks:  []string{"hello wö", "RLD!"},
			want:    "hello world!",
		},
		{
			name:    "empty_chunks",
			matcher: func(t *testing.T) pattern.Matcher { return mustLiteral(t, "ab") },
			spec:    replace.Literal("Z"),
			chunks:  []string{"", "a", "", "b", ""},
			want:    "Z",
		},
		{
			name:    "no_chunks",
			matcher: func(t *testing.T) pattern.Matcher { return mustLiteral(t, "ab") },
			spec:    replace.Literal("Z"),
			want:    "",
		},
		{
			name:    "trailing_partial_flushed",
			matcher: func(t *testing.T) pattern.Matcher { return mustLiteral(t, "</body>") },
			spec:    replace.Literal("x"),
			chunks:  []string{"text </bo"},
			want:    "text </bo",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(tt.matcher(t), tt.spec, tt.opts...)
			got := run(t, r, tt.chunks...)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReplacer_EmitsEagerly(t *testing.T) {
	r, err := NewString("</head>", "<script/></head>")
	require.NoError(t, err)

	out, err := r.Process("<head></he")
	require.NoError(t, err)
	assert.Equal(t, "<head>", out)
	assert.Equal(t, 4, r.Held())

	out, err = r.Process("ad><body>")
	require.NoError(t, err)
	assert.Equal(t, "<script/></head><body>", out)
	assert.Equal(t, 0, r.Held())

	out, err = r.Finalize()
	require.NoError(t, err)
	assert.Equal(t, "", out)
	assert.Equal(t, 1, r.Count())
}

func TestReplacer_Closed(t *testing.T) {
	r, err := NewString("a", "b")
	require.NoError(t, err)

	_, err = r.Finalize()
	require.NoError(t, err)

	_, err = r.Process("a")
	assert.ErrorIs(t, err, ErrClosed)

	_, err = r.Finalize()
	assert.ErrorIs(t, err, ErrClosed)
}

func TestNewString_Error(t *testing.T) {
	_, err := NewString("", "x")
	require.Error(t, err)

	var perr *pattern.PatternError
	assert.ErrorAs(t, err, &perr)
}

func TestReplacer_CallbackOrderAndOffsets(t *testing.T) {
	var seen []replace.Match
	r := New(mustLiteral(t, "x"), replace.FromFunc(func(m replace.Match) (string, error) {
		seen = append(seen, m)
		return "y", nil
	}))

	got := run(t, r, "ax", "bxx")
	assert.Equal(t, "aybyy", got)

	require.Len(t, seen, 3)
	assert.Equal(t, []int64{1, 3, 4}, []int64{seen[0].StreamOffset, seen[1].StreamOffset, seen[2].StreamOffset})
	assert.Equal(t, 1, seen[0].Offset)
	assert.Equal(t, "ax", seen[0].Input)
	assert.Equal(t, "bxx", seen[1].Input)
	assert.Equal(t, 1, seen[1].Offset)
}

func TestReplacer_CallbackNotCalledPastLimit(t *testing.T) {
	calls := 0
	r := New(mustLiteral(t, "x"), replace.FromFunc(func(m replace.Match) (string, error) {
		calls++
		return "y", nil
	}), WithLimit(2))

	got := run(t, r, "x x ", "x x")
	assert.Equal(t, "y y x x", got)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 2, r.Count())
}

func TestReplacer_CallbackErrorIsSticky(t *testing.T) {
	boom := errors.Base("boom")
	calls := 0
	r := New(mustLiteral(t, "x"), replace.FromFunc(func(m replace.Match) (string, error) {
		calls++
		if calls == 2 {
			return "", boom
		}
		return "y", nil
	}))

	out, err := r.Process("x")
	require.NoError(t, err)
	assert.Equal(t, "y", out)

	out, err = r.Process("ax")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, out)

	_, err = r.Process("more")
	assert.ErrorIs(t, err, boom)

	_, err = r.Finalize()
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)
}

func TestReplacer_Observer(t *testing.T) {
	var total Stats
	obs := ObserverFunc(func(s Stats) {
		total.In += s.In
		total.Out += s.Out
		total.Replaced += s.Replaced
	})

	r := New(mustLiteral(t, "ab"), replace.Literal("xyz"), WithObserver(obs))
	got := run(t, r, "ab a", "b a")

	assert.Equal(t, "xyz xyz a", got)
	assert.Equal(t, 7, total.In)
	assert.Equal(t, len(got), total.Out)
	assert.Equal(t, 2, total.Replaced)
}

func TestReplacer_ProcessBytes(t *testing.T) {
	r, err := NewString("ab", "Z")
	require.NoError(t, err)

	out, err := r.ProcessBytes([]byte("xa"))
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), out)

	out, err = r.ProcessBytes([]byte("b"))
	require.NoError(t, err)
	assert.Equal(t, []byte("Z"), out)
}
