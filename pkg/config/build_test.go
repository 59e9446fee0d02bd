package config

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/replacestream/pkg/stream"
)

func testConfig(t *testing.T) *Config {
	cfg := &Config{
		Include: []string{"**/*.html", "**/*.md"},
		Exclude: []string{"vendor/**"},
		Rules: []Rule{
			{Name: "inject", Search: "</head>", Replace: "<script/></head>", Limit: 1, Files: []string{"**/*.html"}},
			{Name: "mail", Search: `(\w+)@example\.com`, Regex: true, Replace: "$1 (at) example", Template: true},
			{Name: "shout", Search: "hello", Replace: "HELLO", CaseSensitive: true},
		},
	}
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestConfig_Selects(t *testing.T) {
	cfg := testConfig(t)

	assert.True(t, cfg.Selects("index.html"))
	assert.True(t, cfg.Selects("site/docs/readme.md"))
	assert.False(t, cfg.Selects("main.go"))
	assert.False(t, cfg.Selects("vendor/lib/page.html"))
}

func TestConfig_Pipeline(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		input      string
		want       string
		wantCounts map[string]int
	}{
		{
			name:       "html_gets_every_rule",
			path:       "site/index.html",
			input:      "<head></head><p>hello Hello bob@example.com</p></head>",
			want:       "<head><script/></head><p>HELLO Hello bob (at) example</p></head>",
			wantCounts: map[string]int{"inject": 1, "mail": 1, "shout": 1},
		},
		{
			name:       "markdown_skips_html_rule",
			path:       "README.md",
			input:      "</head> hello",
			want:       "</head> HELLO",
			wantCounts: map[string]int{"mail": 0, "shout": 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)

			p, err := cfg.Pipeline(tt.path, nil)
			require.NoError(t, err)

			got, err := io.ReadAll(stream.NewReaderSize(strings.NewReader(tt.input), p, 7))
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
			assert.Equal(t, tt.wantCounts, p.Counts())

			total := 0
			for _, n := range tt.wantCounts {
				total += n
			}
			assert.Equal(t, total, p.Total())
		})
	}
}

func TestConfig_PipelineOptions(t *testing.T) {
	cfg := testConfig(t)

	seen := map[string]int{}
	p, err := cfg.Pipeline("a.md", func(r Rule) []stream.Option {
		name := r.Name
		return []stream.Option{stream.WithObserver(stream.ObserverFunc(func(s stream.Stats) {
			seen[name] += s.Replaced
		}))}
	})
	require.NoError(t, err)

	_, err = io.ReadAll(stream.NewReader(strings.NewReader("hello x@example.com."), p))
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"mail": 1, "shout": 1}, seen)
}

func TestConfig_Chain(t *testing.T) {
	cfg := testConfig(t)

	chain, err := cfg.Chain("main.go")
	require.NoError(t, err)
	assert.Equal(t, 2, chain.Len(), "the html-only rule is skipped")
}

func TestRule_Build(t *testing.T) {
	rule := Rule{Name: "dates", Search: `(\d{4})-(\d{2})`, Regex: true, Replace: "$2/$1", Template: true, Limit: 1}
	require.NoError(t, rule.Validate())

	r, err := rule.Build()
	require.NoError(t, err)

	out, err := r.Process("2024-05 and 2025-06")
	require.NoError(t, err)
	rest, err := r.Finalize()
	require.NoError(t, err)
	assert.Equal(t, "05/2024 and 2025-06", out+rest)
}

func TestRule_String(t *testing.T) {
	rule := Rule{Name: "x", Search: "a", Replace: "b"}
	assert.Equal(t, `x: literal "a" -> "b"`, rule.String())
}
