package newsletter

import (
	"strings"
	"testing"

	"github.com/brieflet/newsbrief-go/internal/rag"
)

func Test_ParseOutput(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name        string
		raw         string
		wantSubject string
		wantBody    string
		wantErr     bool
	}{
		{
			name:        "canonical format",
			raw:         "SUBJECT: Foo\nBODY:\n<p>Bar</p>",
			wantSubject: "Foo",
			wantBody:    "<p>Bar</p>",
		},
		{
			name:        "lowercase markers",
			raw:         "subject: Weekly AI Digest\nbody:\n<h1>Hello</h1>",
			wantSubject: "Weekly AI Digest",
			wantBody:    "<h1>Hello</h1>",
		},
		{
			name:        "multiline body kept whole",
			raw:         "SUBJECT: Foo\nBODY:\n<p>one</p>\n<p>two</p>\n",
			wantSubject: "Foo",
			wantBody:    "<p>one</p>\n<p>two</p>",
		},
		{
			name:        "preamble before markers",
			raw:         "Sure! Here is the newsletter:\nSUBJECT: Foo\nBODY:\n<p>Bar</p>",
			wantSubject: "Foo",
			wantBody:    "<p>Bar</p>",
		},
		{
			name:    "missing body marker",
			raw:     "SUBJECT: Foo\n<p>Bar</p>",
			wantErr: true,
		},
		{
			name:    "missing subject marker",
			raw:     "BODY:\n<p>Bar</p>",
			wantErr: true,
		},
		{
			name:    "empty subject",
			raw:     "SUBJECT:\nBODY:\n<p>Bar</p>",
			wantErr: true,
		},
		{
			name:    "empty body",
			raw:     "SUBJECT: Foo\nBODY:\n   ",
			wantErr: true,
		},
		{
			name:    "empty output",
			raw:     "",
			wantErr: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			subject, body, err := ParseOutput(tc.raw)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("want parse error, got subject=%q body=%q", subject, body)
				}
				return
			}
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if subject != tc.wantSubject {
				t.Errorf("subject = %q, want %q", subject, tc.wantSubject)
			}
			if body != tc.wantBody {
				t.Errorf("body = %q, want %q", body, tc.wantBody)
			}
		})
	}
}

func Test_BuildPrompt_RendersNumberedContext(t *testing.T) {
	t.Parallel()

	hits := []rag.SearchResult{
		{
			Score: 0.91,
			Metadata: map[string]string{
				rag.MetaTitle:       "Chips Get Cheaper",
				rag.MetaURL:         "https://example.com/chips",
				rag.MetaPublishedAt: "2026-02-01T00:00:00Z",
				rag.MetaSource:      "Example Wire",
				rag.MetaAuthor:      "R. Writer",
				rag.MetaExcerpt:     "Prices fell again.",
			},
		},
		{
			Score: 0.74,
			Metadata: map[string]string{
				rag.MetaTitle: "Second Story",
				rag.MetaURL:   "https://example.com/second",
			},
		},
	}

	prompt := buildPrompt("Artificial Intelligence", hits)

	for _, want := range []string{
		`"Artificial Intelligence"`,
		"1. Chips Get Cheaper",
		"Source: Example Wire",
		"Author: R. Writer",
		"Published: 2026-02-01T00:00:00Z",
		"Summary: Prices fell again.",
		"URL: https://example.com/chips",
		"Relevance: 91%",
		"2. Second Story",
		"Relevance: 74%",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q\n%s", want, prompt)
		}
	}
}

func Test_BuildPrompt_SkipsAbsentFields(t *testing.T) {
	t.Parallel()

	prompt := buildPrompt("AI", []rag.SearchResult{{
		Score:    0.5,
		Metadata: map[string]string{rag.MetaTitle: "Bare"},
	}})

	for _, absent := range []string{"Author:", "Source:", "URL:", "Summary:"} {
		if strings.Contains(prompt, absent) {
			t.Errorf("prompt should omit %q for missing metadata\n%s", absent, prompt)
		}
	}
}
